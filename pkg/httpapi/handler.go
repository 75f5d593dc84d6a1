package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/vpetersson/ipgeolocation/pkg/codec"
	"github.com/vpetersson/ipgeolocation/pkg/concurrent_lru"
	"github.com/vpetersson/ipgeolocation/pkg/lookup"
	"github.com/vpetersson/ipgeolocation/pkg/mcp"
)

var nopLogger = zap.NewNop()

// lookupCacheControl is sent on successful lookup responses: public,
// two weeks, matching the churn rate of the underlying database.
const lookupCacheControl = "public, max-age=1209600"

// maxSessions bounds the server-held protocol sessions addressed by
// the Mcp-Session-Id header.
const maxSessions = 1024

type HandlerOpts struct {
	// Resolver answers the lookups. Required.
	Resolver *lookup.Resolver

	// Engine dispatches protocol messages. Required.
	Engine *mcp.Engine

	// Registry backs the discovery document. Required.
	Registry *mcp.Registry

	// Broadcaster feeds the push channel. Optional; without it the
	// push endpoint only emits keep-alives.
	Broadcaster *mcp.Broadcaster

	// AltSvc advertises the datagram endpoint, e.g. `h3=":443"; ma=86400`.
	AltSvc string

	// Logger is the *zap.Logger for this Handler.
	// A nil Logger will disable logging.
	Logger *zap.Logger

	// MetricsReg optionally receives the request counter.
	MetricsReg prometheus.Registerer
}

func (opts *HandlerOpts) Init() error {
	if opts.Resolver == nil {
		return errors.New("nil resolver")
	}
	if opts.Engine == nil {
		return errors.New("nil engine")
	}
	if opts.Registry == nil {
		return errors.New("nil registry")
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger
	}
	return nil
}

// Handler is the full HTTP surface: REST lookups with content
// negotiation, the RPC endpoints, and the push channel.
type Handler struct {
	opts HandlerOpts

	mux      *http.ServeMux
	sessions *concurrent_lru.ConcurrentLRU[string, *mcp.Session]
	reqCnt   *prometheus.CounterVec
}

func NewHandler(opts HandlerOpts) (*Handler, error) {
	if err := opts.Init(); err != nil {
		return nil, err
	}

	h := &Handler{
		opts:     opts,
		mux:      http.NewServeMux(),
		sessions: concurrent_lru.NewConcurrentLRU[string, *mcp.Session](maxSessions, nil),
	}

	h.reqCnt = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Requests served, by path and status.",
	}, []string{"path", "code"})
	if reg := opts.MetricsReg; reg != nil {
		reg.MustRegister(h.reqCnt)
	}

	h.mux.HandleFunc("/health", h.handleHealth)
	h.mux.HandleFunc("/ipgeo", h.handleIPGeo(false))
	h.mux.HandleFunc("/v1/ipgeo", h.handleIPGeo(true))
	h.mux.HandleFunc("/timezone", h.handleTimezone)
	h.mux.HandleFunc("/v1/timezone", h.handleTimezone)
	h.mux.HandleFunc("/mcp", h.handleRPC)
	h.mux.HandleFunc("/mcp/batch", h.handleRPC)
	h.mux.HandleFunc("/mcp/sse", h.handleSSE)
	h.mux.HandleFunc("/mcp/info", h.handleInfo)
	h.mux.HandleFunc("/", h.handleRoot)

	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if len(h.opts.AltSvc) > 0 {
		w.Header().Set("Alt-Svc", h.opts.AltSvc)
	}
	sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
	h.mux.ServeHTTP(sw, r)
	h.reqCnt.WithLabelValues(r.URL.Path, strconv.Itoa(sw.code)).Inc()
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) handleIPGeo(full bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		// The apiKey parameter is accepted for drop-in compatibility
		// and never validated.
		ip := r.URL.Query().Get("ip")
		if len(ip) == 0 {
			ip = ClientIP(r)
		}

		if full {
			rec, err := h.opts.Resolver.ResolveIPFull(r.Context(), ip)
			h.writeLookup(w, r, rec, err)
			return
		}
		rec, err := h.opts.Resolver.ResolveIP(r.Context(), ip)
		h.writeLookup(w, r, rec, err)
	}
}

func (h *Handler) handleTimezone(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "INVALID_LATITUDE", "lat must be a number")
		return
	}
	long, err := strconv.ParseFloat(q.Get("long"), 64)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "INVALID_LONGITUDE", "long must be a number")
		return
	}

	rec, err := h.opts.Resolver.ResolveTimezone(r.Context(), lat, long)
	h.writeLookup(w, r, rec, err)
}

// handleRoot answers a compact lookup for the caller's own address.
func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ip := ClientIP(r)
	rec, err := h.opts.Resolver.ResolveIP(r.Context(), ip)
	h.writeLookup(w, r, rec, err)
}

// writeLookup sends a negotiated success or error response. A non-nil
// rec with err == nil gets the long-lived cache header.
func (h *Handler) writeLookup(w http.ResponseWriter, r *http.Request, rec any, err error) {
	if err != nil {
		status, code := classifyHTTP(err)
		h.writeError(w, r, status, code, err.Error())
		return
	}

	body, ct, err := codec.Marshal(codec.Negotiate(r.Header.Get("Accept")), rec)
	if err != nil {
		h.opts.Logger.Error("encode response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", lookupCacheControl)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// writeError sends a negotiated error body. Error payloads are
// negotiated just like successes.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	body, ct, err := codec.Marshal(codec.Negotiate(r.Header.Get("Accept")), &codec.ErrorBody{Error: msg, Code: code})
	if err != nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func classifyHTTP(err error) (status int, code string) {
	var ve *lookup.ValidationError
	switch {
	case errors.As(err, &ve):
		switch ve.Field {
		case "latitude":
			return http.StatusBadRequest, "INVALID_LATITUDE"
		case "longitude":
			return http.StatusBadRequest, "INVALID_LONGITUDE"
		default:
			return http.StatusBadRequest, "INVALID_IP"
		}
	case errors.Is(err, lookup.ErrPrivateAddr):
		return http.StatusBadRequest, "PRIVATE_IP"
	case errors.Is(err, lookup.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	default:
		return http.StatusInternalServerError, "LOOKUP_FAILED"
	}
}
