package tzdb

import (
	"fmt"

	"github.com/ringsaturn/tzf"
)

// Finder maps a coordinate to an IANA timezone name.
// ok is false when the point hits no zone polygon (open ocean).
// Implementations must be safe for concurrent use.
type Finder interface {
	Find(lat, lon float64) (name string, ok bool)
}

// TzfFinder is a Finder over the embedded timezone boundary data.
type TzfFinder struct {
	f tzf.F
}

func NewTzfFinder() (*TzfFinder, error) {
	f, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("init timezone finder: %w", err)
	}
	return &TzfFinder{f: f}, nil
}

func (t *TzfFinder) Find(lat, lon float64) (string, bool) {
	name := t.f.GetTimezoneName(lon, lat)
	return name, len(name) > 0
}

// FinderFunc adapts a function to a Finder.
type FinderFunc func(lat, lon float64) (string, bool)

func (f FinderFunc) Find(lat, lon float64) (string, bool) {
	return f(lat, lon)
}
