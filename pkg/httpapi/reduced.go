package httpapi

import (
	"encoding/json"
	"net/http"
)

// reducedPaths is the endpoint set exposed over the datagram (HTTP/3)
// listener: health, discovery, and the two plain lookups. The RPC and
// push endpoints stay on the TCP side.
var reducedPaths = map[string]struct{}{
	"/health":   {},
	"/mcp/info": {},
	"/ipgeo":    {},
	"/timezone": {},
}

// Reduced wraps the handler for the datagram listener. Paths outside
// the reduced set answer 501 with a hint instead of pretending the
// endpoint does not exist.
func (h *Handler) Reduced() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := reducedPaths[r.URL.Path]; !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotImplemented)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": "endpoint not served over HTTP/3",
				"hint":  "use the TCP endpoint for this path",
			})
			return
		}
		h.ServeHTTP(w, r)
	})
}
