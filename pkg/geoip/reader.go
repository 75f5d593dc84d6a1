package geoip

import (
	"fmt"
	"io"
	"net"
	"net/netip"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"
)

var nopLogger = zap.NewNop()

type ReaderOpts struct {
	// Path of the mmdb city database. Required.
	Path string

	// WatchFile reopens the database when the file on disk changes.
	WatchFile bool

	// Logger is the *zap.Logger for this Reader.
	// A nil Logger will disable logging.
	Logger *zap.Logger
}

func (opts *ReaderOpts) Init() error {
	if len(opts.Path) == 0 {
		return fmt.Errorf("empty database path")
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger
	}
	return nil
}

// retireDelay is how long a replaced database handle stays open after
// a swap. Lookups that loaded the old handle just before the swap must
// finish before its mmap goes away; City calls complete in far less
// than this.
var retireDelay = time.Minute

// Reader is a Lookup backed by a maxmind city database. The open
// database handle sits behind an atomic pointer so a file watcher can
// swap in a freshly opened database without blocking lookups. A
// replaced handle is closed only after retireDelay so in-flight
// lookups never touch a closed database.
type Reader struct {
	opts ReaderOpts

	db      atomic.Pointer[geoip2.Reader]
	watcher *fsnotify.Watcher
}

func NewReader(opts ReaderOpts) (*Reader, error) {
	if err := opts.Init(); err != nil {
		return nil, err
	}

	db, err := geoip2.Open(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("open mmdb %s: %w", opts.Path, err)
	}

	r := &Reader{opts: opts}
	r.db.Store(db)

	if opts.WatchFile {
		if err := r.startWatcher(); err != nil {
			db.Close()
			return nil, err
		}
	}
	return r, nil
}

func (r *Reader) Lookup(addr netip.Addr) (*Record, error) {
	city, err := r.db.Load().City(net.IP(addr.AsSlice()))
	if err != nil {
		return nil, fmt.Errorf("mmdb lookup: %w", err)
	}

	// A zero record means the database has no data for this address.
	if len(city.Country.IsoCode) == 0 && city.Location.Latitude == 0 && city.Location.Longitude == 0 {
		return nil, ErrNotFound
	}

	rec := &Record{
		Latitude:       city.Location.Latitude,
		Longitude:      city.Location.Longitude,
		AccuracyRadius: city.Location.AccuracyRadius,
		City:           city.City.Names["en"],
		Continent:      city.Continent.Names["en"],
		ContinentCode:  city.Continent.Code,
		Country:        city.Country.Names["en"],
		CountryISO:     city.Country.IsoCode,
		IsEU:           city.Country.IsInEuropeanUnion,
		Postal:         city.Postal.Code,
		TimeZone:       city.Location.TimeZone,
	}
	if len(city.Subdivisions) > 0 {
		rec.Subdivision = city.Subdivisions[0].Names["en"]
		rec.SubdivisionCode = city.Subdivisions[0].IsoCode
	}
	return rec, nil
}

// startWatcher watches the database's directory. Watching the dir
// instead of the file survives the rename-and-replace update pattern.
func (r *Reader) startWatcher() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(r.opts.Path)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(r.opts.Path), err)
	}
	r.watcher = w

	go func() {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Name != r.opts.Path {
					continue
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				r.reload()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				r.opts.Logger.Warn("database watcher", zap.Error(err))
			}
		}
	}()
	return nil
}

func (r *Reader) reload() {
	db, err := geoip2.Open(r.opts.Path)
	if err != nil {
		r.opts.Logger.Error("reload mmdb", zap.String("path", r.opts.Path), zap.Error(err))
		return
	}
	if old := r.db.Swap(db); old != nil {
		retire(old)
	}
	r.opts.Logger.Info("mmdb reloaded", zap.String("path", r.opts.Path))
}

// retire closes c after the grace period.
func retire(c io.Closer) {
	time.AfterFunc(retireDelay, func() {
		_ = c.Close()
	})
}

func (r *Reader) Close() error {
	if r.watcher != nil {
		r.watcher.Close()
	}
	if db := r.db.Load(); db != nil {
		return db.Close()
	}
	return nil
}
