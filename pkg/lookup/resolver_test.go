package lookup

import (
	"context"
	"errors"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vpetersson/ipgeolocation/pkg/cache/mem_cache"
	"github.com/vpetersson/ipgeolocation/pkg/geoip"
	"github.com/vpetersson/ipgeolocation/pkg/tzdb"
)

var testAddr = netip.MustParseAddr("8.8.8.8")

func testRecord() *geoip.Record {
	return &geoip.Record{
		Latitude:   37.751,
		Longitude:  -97.822,
		City:       "Mountain View",
		Country:    "United States",
		CountryISO: "US",
		TimeZone:   "America/Chicago",
	}
}

func newTestResolver(t *testing.T, mock *geoip.Mock) *Resolver {
	t.Helper()
	c := mem_cache.NewMemCache(1024, 0)
	t.Cleanup(func() { c.Close() })

	r, err := NewResolver(ResolverOpts{
		GeoDB: mock,
		TzFinder: tzdb.FinderFunc(func(lat, lon float64) (string, bool) {
			if lat > 50 {
				return "", false
			}
			return "America/New_York", true
		}),
		Backend: c,
		TTL:     time.Minute,
	})
	require.NoError(t, err)
	return r
}

func TestResolveIP_cold_then_warm(t *testing.T) {
	r := require.New(t)
	mock := geoip.NewMock()
	mock.Set(testAddr, testRecord())
	res := newTestResolver(t, mock)

	rec, err := res.ResolveIP(context.Background(), "8.8.8.8")
	r.NoError(err)
	r.Equal("8.8.8.8", rec.IP)
	r.Equal("Mountain View", rec.City)
	r.Equal(int64(1), mock.Calls())

	rec2, err := res.ResolveIP(context.Background(), "8.8.8.8")
	r.NoError(err)
	r.Equal(rec.City, rec2.City)
	r.Equal(int64(1), mock.Calls(), "warm hit must not reach the database")
}

func TestResolveIP_key_normalization(t *testing.T) {
	r := require.New(t)
	mock := geoip.NewMock()
	mock.Set(testAddr, testRecord())
	res := newTestResolver(t, mock)

	_, err := res.ResolveIP(context.Background(), "8.8.8.8")
	r.NoError(err)
	_, err = res.ResolveIP(context.Background(), "::ffff:8.8.8.8")
	r.NoError(err)
	r.Equal(int64(1), mock.Calls(), "mapped form must share the cache entry")
}

func TestResolveIP_invalid(t *testing.T) {
	r := require.New(t)
	mock := geoip.NewMock()
	res := newTestResolver(t, mock)

	_, err := res.ResolveIP(context.Background(), "not-an-ip")
	r.ErrorIs(err, ErrInvalidInput)
	r.Equal(int64(0), mock.Calls(), "invalid input must not reach the database")

	var ve *ValidationError
	r.ErrorAs(err, &ve)
	r.Equal("ip", ve.Field)
}

func TestResolveIP_private(t *testing.T) {
	r := require.New(t)
	mock := geoip.NewMock()
	res := newTestResolver(t, mock)

	for _, ip := range []string{"10.1.2.3", "127.0.0.1", "192.168.0.1", "::1", "fe80::1"} {
		_, err := res.ResolveIP(context.Background(), ip)
		r.ErrorIs(err, ErrPrivateAddr, ip)
	}
	r.Equal(int64(0), mock.Calls())
}

func TestResolveIP_failure_not_cached(t *testing.T) {
	r := require.New(t)
	mock := geoip.NewMock()
	res := newTestResolver(t, mock)

	boom := errors.New("db went away")
	mock.Fail(boom)
	_, err := res.ResolveIP(context.Background(), "8.8.8.8")
	r.ErrorIs(err, boom)

	// Once the database recovers, the next call must go through and
	// succeed rather than replay the failure.
	mock.Fail(nil)
	mock.Set(testAddr, testRecord())
	rec, err := res.ResolveIP(context.Background(), "8.8.8.8")
	r.NoError(err)
	r.Equal("Mountain View", rec.City)
	r.Equal(int64(2), mock.Calls())
}

func TestResolveIP_not_found_not_cached(t *testing.T) {
	r := require.New(t)
	mock := geoip.NewMock()
	res := newTestResolver(t, mock)

	_, err := res.ResolveIP(context.Background(), "8.8.8.8")
	r.ErrorIs(err, ErrNotFound)

	mock.Set(testAddr, testRecord())
	_, err = res.ResolveIP(context.Background(), "8.8.8.8")
	r.NoError(err)
	r.Equal(int64(2), mock.Calls())
}

func TestResolveIP_singleflight(t *testing.T) {
	r := require.New(t)
	mock := geoip.NewMock()
	mock.Set(testAddr, testRecord())
	res := newTestResolver(t, mock)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := res.ResolveIP(context.Background(), "8.8.8.8")
			require.NoError(t, err)
		}()
	}
	wg.Wait()
	r.Equal(int64(1), mock.Calls(), "concurrent misses must collapse onto one call")
}

func TestResolveIPFull(t *testing.T) {
	r := require.New(t)
	mock := geoip.NewMock()
	mock.Set(testAddr, testRecord())
	res := newTestResolver(t, mock)

	rec, err := res.ResolveIPFull(context.Background(), "8.8.8.8")
	r.NoError(err)
	r.Equal("USA", rec.CountryCode3)
	r.Equal("Washington, D.C.", rec.CountryCapital)
	r.Equal("🇺🇸", rec.CountryFlag)
	r.NotNil(rec.Currency)
	r.Equal("USD", rec.Currency.Code)
	r.NotNil(rec.TimeZone)
	r.Equal("America/Chicago", rec.TimeZone.Name)

	// Full and compact lookups use distinct cache entries.
	_, err = res.ResolveIP(context.Background(), "8.8.8.8")
	r.NoError(err)
	r.Equal(int64(2), mock.Calls())
}

func TestResolveTimezone(t *testing.T) {
	r := require.New(t)
	res := newTestResolver(t, geoip.NewMock())

	rec, err := res.ResolveTimezone(context.Background(), 40.7128, -74.006)
	r.NoError(err)
	r.Equal("America/New_York", rec.TimeZone.Name)
	r.Equal(40.7128, rec.Latitude)

	// Ocean point: the finder reports no zone.
	_, err = res.ResolveTimezone(context.Background(), 55, -140)
	r.ErrorIs(err, ErrNotFound)
}

func TestResolveTimezone_validation(t *testing.T) {
	r := require.New(t)
	res := newTestResolver(t, geoip.NewMock())

	_, err := res.ResolveTimezone(context.Background(), 91, 0)
	r.ErrorIs(err, ErrInvalidInput)
	var ve *ValidationError
	r.ErrorAs(err, &ve)
	r.Equal("latitude", ve.Field)

	_, err = res.ResolveTimezone(context.Background(), 0, -181)
	r.ErrorIs(err, ErrInvalidInput)
	r.ErrorAs(err, &ve)
	r.Equal("longitude", ve.Field)
}

func TestResolveTimezone_coord_rounding(t *testing.T) {
	r := require.New(t)
	calls := 0
	c := mem_cache.NewMemCache(1024, 0)
	defer c.Close()
	res, err := NewResolver(ResolverOpts{
		GeoDB: geoip.NewMock(),
		TzFinder: tzdb.FinderFunc(func(lat, lon float64) (string, bool) {
			calls++
			return "Europe/London", true
		}),
		Backend: c,
		TTL:     time.Minute,
	})
	r.NoError(err)

	_, err = res.ResolveTimezone(context.Background(), 51.50001, -0.10001)
	r.NoError(err)
	_, err = res.ResolveTimezone(context.Background(), 51.50004, -0.10004)
	r.NoError(err)
	r.Equal(1, calls, "coordinates within rounding distance share an entry")
}

func TestResolver_ttl_expiry(t *testing.T) {
	r := require.New(t)
	mock := geoip.NewMock()
	mock.Set(testAddr, testRecord())
	c := mem_cache.NewMemCache(1024, 0)
	defer c.Close()
	res, err := NewResolver(ResolverOpts{
		GeoDB:    mock,
		TzFinder: tzdb.FinderFunc(func(lat, lon float64) (string, bool) { return "", false }),
		Backend:  c,
		TTL:      time.Millisecond * 20,
	})
	r.NoError(err)

	_, err = res.ResolveIP(context.Background(), "8.8.8.8")
	r.NoError(err)
	time.Sleep(time.Millisecond * 40)
	_, err = res.ResolveIP(context.Background(), "8.8.8.8")
	r.NoError(err)
	r.Equal(int64(2), mock.Calls(), "expired entry must be refetched")
}
