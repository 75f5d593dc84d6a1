package server

import (
	"net"
	"net/http"
	"time"
)

const (
	defaultTCPIdleTimeout = 120 * time.Second

	// HTTP headers (Slowloris protection)
	defaultReadHeaderTimeout = 3 * time.Second

	// Protect against slow-read attacks (body + handler)
	defaultReadTimeout = 10 * time.Second

	defaultMaxHeaderBytes = 4096
)

// ServeHTTP serves the handler over a TCP listener until the listener
// fails or the Server is closed.
func (s *Server) ServeHTTP(l net.Listener) error {
	defer l.Close()

	if s.opts.Handler == nil {
		return errMissingHTTPHandler
	}

	idleTimeout := s.opts.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = defaultTCPIdleTimeout
	}

	hs := &http.Server{
		Handler:           s.opts.Handler,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		ReadTimeout:       defaultReadTimeout,
		IdleTimeout:       idleTimeout,
		MaxHeaderBytes:    defaultMaxHeaderBytes,
	}

	if ok := s.trackCloser(hs, true); !ok {
		return ErrServerClosed
	}
	defer s.trackCloser(hs, false)

	err := hs.Serve(l)
	if err == http.ErrServerClosed {
		return ErrServerClosed
	}
	return err
}
