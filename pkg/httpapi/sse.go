package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// keepaliveInterval paces the SSE pings that keep intermediaries from
// reaping an idle push connection.
const keepaliveInterval = 30 * time.Second

// handleSSE streams server-initiated notifications as server-sent
// events. The connection lives until the client goes away.
func (h *Handler) handleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	if h.opts.Broadcaster == nil {
		// Keep-alive only.
		for {
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
				fmt.Fprint(w, "event: ping\ndata: {}\n\n")
				flusher.Flush()
			}
		}
	}

	sub := h.opts.Broadcaster.Subscribe()
	defer sub.Cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, open := <-sub.C:
			if !open {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, "event: ping\ndata: {}\n\n")
			flusher.Flush()
		}
	}
}
