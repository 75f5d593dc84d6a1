package tzdb

import (
	"fmt"
	"time"
)

// Details describes a zone at one instant.
type Details struct {
	Name            string
	Abbreviation    string
	Offset          int    // seconds east of UTC
	OffsetString    string // e.g. "+05:30"
	IsDST           bool
	DSTExists       bool
	DSTSavings      int // seconds, 0 when the zone never shifts
	CurrentTime     string
	CurrentTimeUnix int64
}

// Resolve loads an IANA zone and computes its state at now.
// DST existence is detected by comparing the offsets in effect in
// mid-January and mid-July, which covers both hemispheres.
func Resolve(name string, now time.Time) (*Details, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}

	local := now.In(loc)
	abbr, offset := local.Zone()

	janOffset := zoneOffsetAt(loc, now.Year(), time.January)
	julOffset := zoneOffsetAt(loc, now.Year(), time.July)

	d := &Details{
		Name:            name,
		Abbreviation:    abbr,
		Offset:          offset,
		OffsetString:    formatOffset(offset),
		DSTExists:       janOffset != julOffset,
		CurrentTime:     local.Format("2006-01-02 15:04:05"),
		CurrentTimeUnix: local.Unix(),
	}
	if d.DSTExists {
		base := janOffset
		if julOffset < base {
			base = julOffset
		}
		d.DSTSavings = max(janOffset, julOffset) - base
		d.IsDST = offset > base
	}
	return d, nil
}

func zoneOffsetAt(loc *time.Location, year int, month time.Month) int {
	_, offset := time.Date(year, month, 15, 12, 0, 0, 0, loc).Zone()
	return offset
}

func formatOffset(seconds int) string {
	sign := "+"
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%s%02d:%02d", sign, seconds/3600, (seconds%3600)/60)
}
