package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/vpetersson/ipgeolocation/pkg/mcp"
)

// maxRPCBody bounds one protocol request body (1 MiB).
const maxRPCBody = 1024 * 1024

// session resolves the protocol session for a request. A caller that
// sends an Mcp-Session-Id header gets a server-held session that
// survives across requests, so initialize-then-call works over
// separate POSTs. Without the header each request runs against a fresh
// uninitialized session.
func (h *Handler) session(r *http.Request) *mcp.Session {
	id := r.Header.Get("Mcp-Session-Id")
	if len(id) == 0 {
		return mcp.NewSession()
	}

	if sess, ok := h.sessions.Get(id); ok {
		return sess
	}
	sess := mcp.NewSession()
	h.sessions.Add(id, sess)
	return sess
}

func (h *Handler) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRPCBody+1))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if len(body) > maxRPCBody {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		return
	}

	sess := h.session(r)
	sess.SetCallerIP(ClientIP(r))

	out, ok := h.opts.Engine.HandleRaw(r.Context(), sess, body)
	if !ok {
		// Nothing to say back (a notification): 202 per convention.
		w.WriteHeader(http.StatusAccepted)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		h.opts.Logger.Debug("write rpc response", zap.Error(err))
	}
}

// handleInfo serves the discovery document: what the endpoint speaks
// and which tools and resources it offers.
func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	type toolInfo struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	type resourceInfo struct {
		URI         string `json:"uri"`
		Description string `json:"description"`
	}

	tools := make([]toolInfo, 0)
	for _, t := range h.opts.Registry.Tools() {
		tools = append(tools, toolInfo{Name: t.Name, Description: t.Description})
	}
	resources := make([]resourceInfo, 0)
	for _, res := range h.opts.Registry.Resources() {
		resources = append(resources, resourceInfo{URI: res.URI, Description: res.Description})
	}

	doc := map[string]any{
		"protocolVersion": mcp.ProtocolVersion,
		"endpoints": map[string]string{
			"rpc":   "/mcp",
			"batch": "/mcp/batch",
			"push":  "/mcp/sse",
		},
		"tools":     tools,
		"resources": resources,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(doc)
}
