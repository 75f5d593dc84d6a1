package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/vpetersson/ipgeolocation/pkg/cache"
	"github.com/vpetersson/ipgeolocation/pkg/countrydata"
	"github.com/vpetersson/ipgeolocation/pkg/geoip"
	"github.com/vpetersson/ipgeolocation/pkg/tzdb"
)

const defaultTTL = time.Hour

var nopLogger = zap.NewNop()

type ResolverOpts struct {
	// GeoDB resolves addresses. Required.
	GeoDB geoip.Lookup

	// TzFinder resolves coordinates to zone names. Required.
	TzFinder tzdb.Finder

	// Backend caches successful results. A nil Backend disables caching.
	Backend cache.Backend

	// TTL is the lifetime of cached results. Default is 1h.
	TTL time.Duration

	// Logger is the *zap.Logger for this Resolver.
	// A nil Logger will disable logging.
	Logger *zap.Logger

	// MetricsReg optionally receives the hit/miss counters.
	MetricsReg prometheus.Registerer
}

func (opts *ResolverOpts) Init() error {
	if opts.GeoDB == nil {
		return errors.New("nil geoip lookup")
	}
	if opts.TzFinder == nil {
		return errors.New("nil timezone finder")
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger
	}
	return nil
}

// Resolver answers address and coordinate queries through the cache.
// Validation happens before the cache is touched, concurrent misses for
// one key collapse onto a single database call, and only successful
// results are stored.
type Resolver struct {
	opts ResolverOpts

	sf      singleflight.Group
	hitCnt  prometheus.Counter
	missCnt prometheus.Counter
}

func NewResolver(opts ResolverOpts) (*Resolver, error) {
	if err := opts.Init(); err != nil {
		return nil, err
	}

	r := &Resolver{opts: opts}
	r.hitCnt = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lookup_cache_hit_total",
		Help: "Number of queries answered from cache.",
	})
	r.missCnt = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lookup_cache_miss_total",
		Help: "Number of queries that reached the databases.",
	})
	if reg := opts.MetricsReg; reg != nil {
		reg.MustRegister(r.hitCnt, r.missCnt)
	}
	return r, nil
}

// ParseAddr parses and screens an address. The error unwraps to
// ErrInvalidInput for garbage and to ErrPrivateAddr for addresses that
// cannot have public location data.
func ParseAddr(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}, &ValidationError{Field: "ip", Reason: fmt.Sprintf("%q is not an IP address", s)}
	}
	a := addr.Unmap()
	if a.IsPrivate() || a.IsLoopback() || a.IsUnspecified() ||
		a.IsLinkLocalUnicast() || a.IsLinkLocalMulticast() || a.IsMulticast() {
		return netip.Addr{}, fmt.Errorf("%w: %s", ErrPrivateAddr, a)
	}
	return a, nil
}

// ValidateCoords screens a coordinate pair. The returned error unwraps
// to ErrInvalidInput and names the offending field.
func ValidateCoords(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return &ValidationError{Field: "latitude", Reason: fmt.Sprintf("%v out of range [-90, 90]", lat)}
	}
	if lon < -180 || lon > 180 {
		return &ValidationError{Field: "longitude", Reason: fmt.Sprintf("%v out of range [-180, 180]", lon)}
	}
	return nil
}

// ResolveIP answers a compact lookup for s.
func (r *Resolver) ResolveIP(ctx context.Context, s string) (*GeoRecord, error) {
	addr, err := ParseAddr(s)
	if err != nil {
		return nil, err
	}

	key := ipKey(addr)
	if rec := getCached[GeoRecord](r, key); rec != nil {
		return rec, nil
	}

	v, err, _ := r.sf.Do(key, func() (any, error) {
		dbRec, err := r.opts.GeoDB.Lookup(addr)
		if err != nil {
			if errors.Is(err, geoip.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, addr)
			}
			return nil, err
		}
		rec := r.buildSimple(addr, dbRec)
		r.store(key, rec)
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	// The lookup result is cached at this point even if the caller
	// already gave up.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return v.(*GeoRecord), nil
}

// ResolveIPFull answers a v1 lookup for s.
func (r *Resolver) ResolveIPFull(ctx context.Context, s string) (*GeoRecordFull, error) {
	addr, err := ParseAddr(s)
	if err != nil {
		return nil, err
	}

	key := ipFullKey(addr)
	if rec := getCached[GeoRecordFull](r, key); rec != nil {
		return rec, nil
	}

	v, err, _ := r.sf.Do(key, func() (any, error) {
		dbRec, err := r.opts.GeoDB.Lookup(addr)
		if err != nil {
			if errors.Is(err, geoip.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, addr)
			}
			return nil, err
		}
		rec := r.buildFull(addr, dbRec)
		r.store(key, rec)
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return v.(*GeoRecordFull), nil
}

// ResolveTimezone answers a coordinate query. Only the zone name is
// cached; the clock-dependent fields are recomputed per call so a
// cached answer never carries a stale current time.
func (r *Resolver) ResolveTimezone(ctx context.Context, lat, lon float64) (*TimezoneRecord, error) {
	if err := ValidateCoords(lat, lon); err != nil {
		return nil, err
	}

	key := coordKey(lat, lon)
	name, ok := r.cachedZoneName(key)
	if !ok {
		v, err, _ := r.sf.Do(key, func() (any, error) {
			zone, found := r.opts.TzFinder.Find(lat, lon)
			if !found {
				return nil, fmt.Errorf("%w: no timezone at %v,%v", ErrNotFound, lat, lon)
			}
			if b := r.opts.Backend; b != nil {
				b.Store(key, []byte(zone), r.opts.TTL)
			}
			return zone, nil
		})
		if err != nil {
			return nil, err
		}
		name = v.(string)
	}

	info, err := r.timezoneInfo(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &TimezoneRecord{Latitude: lat, Longitude: lon, TimeZone: info}, nil
}

func (r *Resolver) cachedZoneName(key string) (string, bool) {
	b := r.opts.Backend
	if b == nil {
		r.missCnt.Inc()
		return "", false
	}
	v, ok := b.Get(key)
	if !ok {
		r.missCnt.Inc()
		return "", false
	}
	r.hitCnt.Inc()
	return string(v), true
}

// getCached decodes a cached record. Undecodable entries are dropped
// and treated as a miss.
func getCached[T any](r *Resolver, key string) *T {
	b := r.opts.Backend
	if b == nil {
		r.missCnt.Inc()
		return nil
	}
	raw, ok := b.Get(key)
	if !ok {
		r.missCnt.Inc()
		return nil
	}
	rec := new(T)
	if err := json.Unmarshal(raw, rec); err != nil {
		r.opts.Logger.Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		b.Remove(key)
		r.missCnt.Inc()
		return nil
	}
	r.hitCnt.Inc()
	return rec
}

func (r *Resolver) store(key string, rec any) {
	b := r.opts.Backend
	if b == nil {
		return
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		r.opts.Logger.Error("marshal cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	b.Store(key, raw, r.opts.TTL)
}

func (r *Resolver) buildSimple(addr netip.Addr, dbRec *geoip.Record) *GeoRecord {
	return &GeoRecord{
		IP:          addr.String(),
		City:        dbRec.City,
		StateProv:   dbRec.Subdivision,
		CountryName: dbRec.Country,
		CountryCode: dbRec.CountryISO,
		Latitude:    dbRec.Latitude,
		Longitude:   dbRec.Longitude,
		TimeZone:    dbRec.TimeZone,
		Languages:   strings.Join(countrydata.Languages(dbRec.CountryISO), ","),
	}
}

func (r *Resolver) buildFull(addr netip.Addr, dbRec *geoip.Record) *GeoRecordFull {
	rec := &GeoRecordFull{
		IP:            addr.String(),
		ContinentCode: dbRec.ContinentCode,
		ContinentName: dbRec.Continent,
		CountryCode2:  dbRec.CountryISO,
		CountryName:   dbRec.Country,
		StateProv:     dbRec.Subdivision,
		City:          dbRec.City,
		Zipcode:       dbRec.Postal,
		Latitude:      dbRec.Latitude,
		Longitude:     dbRec.Longitude,
		IsEU:          dbRec.IsEU,
		CountryFlag:   countrydata.Flag(dbRec.CountryISO),
	}

	if c, ok := countrydata.Get(dbRec.CountryISO); ok {
		rec.CountryCode3 = c.ISO3
		rec.CountryCapital = c.Capital
		rec.CallingCode = c.CallingCode
		rec.CountryTLD = c.TLD
		rec.Languages = strings.Join(c.Languages, ",")
		rec.Currency = &Currency{Code: c.CurrencyCode, Name: c.CurrencyName, Symbol: c.CurrencySymbol}
		if !rec.IsEU {
			rec.IsEU = c.EU
		}
	}

	if len(dbRec.TimeZone) > 0 {
		if info, err := r.timezoneInfo(dbRec.TimeZone); err == nil {
			rec.TimeZone = info
		} else {
			r.opts.Logger.Warn("timezone detail", zap.String("zone", dbRec.TimeZone), zap.Error(err))
		}
	}
	return rec
}

func (r *Resolver) timezoneInfo(name string) (*TimezoneInfo, error) {
	d, err := tzdb.Resolve(name, time.Now())
	if err != nil {
		return nil, err
	}
	return &TimezoneInfo{
		Name:            d.Name,
		Abbreviation:    d.Abbreviation,
		Offset:          d.Offset,
		OffsetString:    d.OffsetString,
		IsDST:           d.IsDST,
		DSTExists:       d.DSTExists,
		DSTSavings:      d.DSTSavings,
		CurrentTime:     d.CurrentTime,
		CurrentTimeUnix: d.CurrentTimeUnix,
	}, nil
}
