package httpapi

import (
	"net/http"
	"net/netip"
	"strings"
)

// proxyHeaders is defined as a package-level variable to avoid allocation on every request.
// Order is precedence: the first header carrying a parseable address wins.
var proxyHeaders = []string{"CF-Connecting-IP", "X-Real-IP", "X-Forwarded-For"}

// ClientIP extracts the caller address, preferring proxy headers over
// the connection peer. X-Forwarded-For may be a list; the first hop is
// the client.
func ClientIP(r *http.Request) string {
	for _, h := range proxyHeaders {
		val := r.Header.Get(h)
		if val == "" {
			continue
		}
		ipStr := val
		if h == "X-Forwarded-For" {
			ipStr, _, _ = strings.Cut(val, ",")
		}
		ipStr = strings.TrimSpace(ipStr)
		if addr, err := netip.ParseAddr(ipStr); err == nil {
			return addr.Unmap().String()
		}
	}

	// Fallback to the direct remote address.
	if addrport, err := netip.ParseAddrPort(r.RemoteAddr); err == nil {
		return addrport.Addr().Unmap().String()
	}
	// A unix socket or test server may hand us a bare host.
	if addr, err := netip.ParseAddr(r.RemoteAddr); err == nil {
		return addr.Unmap().String()
	}
	return ""
}
