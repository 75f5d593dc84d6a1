package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vpetersson/ipgeolocation/pkg/cache/mem_cache"
	"github.com/vpetersson/ipgeolocation/pkg/codec"
	"github.com/vpetersson/ipgeolocation/pkg/geoip"
	"github.com/vpetersson/ipgeolocation/pkg/lookup"
	"github.com/vpetersson/ipgeolocation/pkg/mcp"
	"github.com/vpetersson/ipgeolocation/pkg/tzdb"
)

func newTestHandler(t *testing.T) (*Handler, *geoip.Mock) {
	t.Helper()

	mock := geoip.NewMock()
	mock.Set(netip.MustParseAddr("8.8.8.8"), &geoip.Record{
		Latitude:   37.751,
		Longitude:  -97.822,
		City:       "Mountain View",
		Country:    "United States",
		CountryISO: "US",
		TimeZone:   "America/Chicago",
	})
	mock.Set(netip.MustParseAddr("203.0.113.7"), &geoip.Record{
		City:       "Sydney",
		Country:    "Australia",
		CountryISO: "AU",
		Latitude:   -33.8688,
		Longitude:  151.2093,
	})

	c := mem_cache.NewMemCache(1024, 0)
	t.Cleanup(func() { c.Close() })

	res, err := lookup.NewResolver(lookup.ResolverOpts{
		GeoDB: mock,
		TzFinder: tzdb.FinderFunc(func(lat, lon float64) (string, bool) {
			if lat > 80 {
				return "", false
			}
			return "America/New_York", true
		}),
		Backend: c,
		TTL:     time.Minute,
	})
	require.NoError(t, err)

	reg := mcp.NewRegistry()
	mcp.RegisterLookupTools(reg, res)
	mcp.RegisterResources(reg)
	engine, err := mcp.NewEngine(mcp.EngineOpts{Registry: reg})
	require.NoError(t, err)

	h, err := NewHandler(HandlerOpts{
		Resolver: res,
		Engine:   engine,
		Registry: reg,
	})
	require.NoError(t, err)
	return h, mock
}

func get(h http.Handler, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = "192.0.2.10:4242"
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func postJSON(h http.Handler, target, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.RemoteAddr = "8.8.8.8:4242"
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := require.New(t)
	h, _ := newTestHandler(t)
	w := get(h, "/health", nil)
	r.Equal(http.StatusOK, w.Code)
	r.Equal("OK", w.Body.String())
}

func TestIPGeo_cold_then_warm(t *testing.T) {
	r := require.New(t)
	h, mock := newTestHandler(t)

	w := get(h, "/ipgeo?ip=8.8.8.8", nil)
	r.Equal(http.StatusOK, w.Code)
	r.Equal(codec.ContentTypeJSON, w.Header().Get("Content-Type"))
	r.Equal(lookupCacheControl, w.Header().Get("Cache-Control"))

	var rec lookup.GeoRecord
	r.NoError(json.Unmarshal(w.Body.Bytes(), &rec))
	r.Equal("Mountain View", rec.City)
	r.Equal(int64(1), mock.Calls())

	w = get(h, "/ipgeo?ip=8.8.8.8", nil)
	r.Equal(http.StatusOK, w.Code)
	r.Equal(int64(1), mock.Calls(), "second request must be served from cache")
}

func TestIPGeo_binary_negotiation(t *testing.T) {
	r := require.New(t)
	h, _ := newTestHandler(t)

	w := get(h, "/ipgeo?ip=8.8.8.8", map[string]string{"Accept": "application/x-protobuf"})
	r.Equal(http.StatusOK, w.Code)
	r.Equal(codec.ContentTypeBinary, w.Header().Get("Content-Type"))

	rec, err := codec.ParseGeoRecord(w.Body.Bytes())
	r.NoError(err)
	r.Equal("Mountain View", rec.City)
	r.Equal("8.8.8.8", rec.IP)
}

func TestIPGeo_errors(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		target string
		status int
		code   string
	}{
		{"/ipgeo?ip=garbage", http.StatusBadRequest, "INVALID_IP"},
		{"/ipgeo?ip=10.0.0.1", http.StatusBadRequest, "PRIVATE_IP"},
		{"/ipgeo?ip=9.9.9.9", http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			r := require.New(t)
			w := get(h, tt.target, nil)
			r.Equal(tt.status, w.Code)
			var body codec.ErrorBody
			r.NoError(json.Unmarshal(w.Body.Bytes(), &body))
			r.Equal(tt.code, body.Code)
		})
	}
}

func TestIPGeo_error_negotiated(t *testing.T) {
	r := require.New(t)
	h, _ := newTestHandler(t)

	w := get(h, "/ipgeo?ip=garbage", map[string]string{"Accept": "application/protobuf"})
	r.Equal(http.StatusBadRequest, w.Code)
	r.Equal(codec.ContentTypeBinary, w.Header().Get("Content-Type"))
	body, err := codec.ParseErrorBody(w.Body.Bytes())
	r.NoError(err)
	r.Equal("INVALID_IP", body.Code)
}

func TestIPGeo_v1_full(t *testing.T) {
	r := require.New(t)
	h, _ := newTestHandler(t)

	w := get(h, "/v1/ipgeo?ip=8.8.8.8&apiKey=whatever", nil)
	r.Equal(http.StatusOK, w.Code)

	var rec lookup.GeoRecordFull
	r.NoError(json.Unmarshal(w.Body.Bytes(), &rec))
	r.Equal("USA", rec.CountryCode3)
	r.NotNil(rec.Currency)
}

func TestTimezone(t *testing.T) {
	r := require.New(t)
	h, _ := newTestHandler(t)

	w := get(h, "/timezone?lat=40.7128&long=-74.006", nil)
	r.Equal(http.StatusOK, w.Code)
	var rec lookup.TimezoneRecord
	r.NoError(json.Unmarshal(w.Body.Bytes(), &rec))
	r.Equal("America/New_York", rec.TimeZone.Name)

	w = get(h, "/timezone?lat=abc&long=0", nil)
	r.Equal(http.StatusBadRequest, w.Code)
	var body codec.ErrorBody
	r.NoError(json.Unmarshal(w.Body.Bytes(), &body))
	r.Equal("INVALID_LATITUDE", body.Code)

	w = get(h, "/timezone?lat=0&long=181", nil)
	r.Equal(http.StatusBadRequest, w.Code)
	r.NoError(json.Unmarshal(w.Body.Bytes(), &body))
	r.Equal("INVALID_LONGITUDE", body.Code)

	w = get(h, "/timezone?lat=85&long=0", nil)
	r.Equal(http.StatusNotFound, w.Code)
}

func TestRoot_client_ip_detection(t *testing.T) {
	r := require.New(t)
	h, _ := newTestHandler(t)

	// Proxy header wins over the connection address.
	w := get(h, "/", map[string]string{"CF-Connecting-IP": "8.8.8.8"})
	r.Equal(http.StatusOK, w.Code)
	var rec lookup.GeoRecord
	r.NoError(json.Unmarshal(w.Body.Bytes(), &rec))
	r.Equal("8.8.8.8", rec.IP)

	// First X-Forwarded-For hop.
	w = get(h, "/", map[string]string{"X-Forwarded-For": "203.0.113.7, 70.41.3.18"})
	r.Equal(http.StatusOK, w.Code)
	r.NoError(json.Unmarshal(w.Body.Bytes(), &rec))
	r.Equal("Sydney", rec.City)
}

func TestRoot_unknown_path(t *testing.T) {
	h, _ := newTestHandler(t)
	w := get(h, "/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestClientIP_precedence(t *testing.T) {
	r := require.New(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1000"
	r.Equal("192.0.2.1", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	r.Equal("203.0.113.7", ClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.2")
	r.Equal("198.51.100.2", ClientIP(req), "X-Real-IP outranks X-Forwarded-For")

	req.Header.Set("CF-Connecting-IP", "8.8.8.8")
	r.Equal("8.8.8.8", ClientIP(req), "CF-Connecting-IP outranks everything")

	// Garbage in a header falls through to the next source.
	req.Header.Set("CF-Connecting-IP", "not-an-ip")
	r.Equal("198.51.100.2", ClientIP(req))
}

func TestRPC_over_http(t *testing.T) {
	r := require.New(t)
	h, _ := newTestHandler(t)

	// Without a session header, each POST is a fresh uninitialized
	// session: a bare tools/call is rejected.
	w := postJSON(h, "/mcp", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"geoip_lookup","arguments":{"ip":"8.8.8.8"}}}`, nil)
	r.Equal(http.StatusOK, w.Code)
	r.Contains(w.Body.String(), "not initialized")

	// With a session header, initialize persists across POSTs.
	hdr := map[string]string{"Mcp-Session-Id": "s-1"}
	w = postJSON(h, "/mcp", `{"jsonrpc":"2.0","id":1,"method":"initialize"}`, hdr)
	r.Equal(http.StatusOK, w.Code)
	r.Contains(w.Body.String(), mcp.ProtocolVersion)

	w = postJSON(h, "/mcp", `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"geoip_lookup","arguments":{"ip":"8.8.8.8"}}}`, hdr)
	r.Equal(http.StatusOK, w.Code)
	r.Contains(w.Body.String(), "Mountain View")

	// A notification yields 202 with no body.
	w = postJSON(h, "/mcp", `{"jsonrpc":"2.0","method":"notifications/initialized"}`, hdr)
	r.Equal(http.StatusAccepted, w.Code)
}

func TestRPC_batch_in_one_request(t *testing.T) {
	r := require.New(t)
	h, _ := newTestHandler(t)

	body := `[
		{"jsonrpc":"2.0","id":1,"method":"initialize"},
		{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"geoip_lookup","arguments":{"ip":"8.8.8.8"}}}
	]`
	w := postJSON(h, "/mcp/batch", body, nil)
	r.Equal(http.StatusOK, w.Code)

	var responses []mcp.Message
	r.NoError(json.Unmarshal(w.Body.Bytes(), &responses))
	r.Len(responses, 2)
	r.EqualValues(1, responses[0].ID)
	r.EqualValues(2, responses[1].ID)
	r.Nil(responses[1].Error, "initialize earlier in the batch must unlock the call")
}

func TestRPC_self_lookup_uses_caller_ip(t *testing.T) {
	r := require.New(t)
	h, _ := newTestHandler(t)

	body := `[
		{"jsonrpc":"2.0","id":1,"method":"initialize"},
		{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"geoip_lookup_self","arguments":{}}}
	]`
	w := postJSON(h, "/mcp", body, nil) // RemoteAddr is 8.8.8.8
	r.Equal(http.StatusOK, w.Code)
	r.Contains(w.Body.String(), "Mountain View")
}

func TestInfo(t *testing.T) {
	r := require.New(t)
	h, _ := newTestHandler(t)

	w := get(h, "/mcp/info", nil)
	r.Equal(http.StatusOK, w.Code)
	r.Contains(w.Body.String(), "geoip_bulk_lookup")
	r.Contains(w.Body.String(), "geoip://schema")
}

func TestReduced_surface(t *testing.T) {
	r := require.New(t)
	h, _ := newTestHandler(t)
	reduced := h.Reduced()

	w := get(reduced, "/health", nil)
	r.Equal(http.StatusOK, w.Code)

	w = get(reduced, "/ipgeo?ip=8.8.8.8", nil)
	r.Equal(http.StatusOK, w.Code)

	w = get(reduced, "/v1/ipgeo?ip=8.8.8.8", nil)
	r.Equal(http.StatusNotImplemented, w.Code)
	r.Contains(w.Body.String(), "HTTP/3")

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	reduced.ServeHTTP(rec, req)
	r.Equal(http.StatusNotImplemented, rec.Code)
}

func TestAltSvc_advertised(t *testing.T) {
	r := require.New(t)
	h, _ := newTestHandler(t)
	h.opts.AltSvc = `h3=":443"; ma=86400`

	w := get(h, "/health", nil)
	r.Equal(`h3=":443"; ma=86400`, w.Header().Get("Alt-Svc"))
}
