package server

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
)

const defaultQUICIdleTimeout = 30 * time.Second

// ListenQUIC opens an early QUIC listener for ServeH3. QUIC requires
// TLS, so cert and key are mandatory here even when the TCP side runs
// plaintext.
func ListenQUIC(addr, cert, key string) (*quic.EarlyListener, error) {
	cer, err := tls.LoadX509KeyPair(cert, key)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cer},
		NextProtos:   []string{http3.NextProtoH3},
	}
	quicConfig := &quic.Config{
		MaxIdleTimeout: defaultQUICIdleTimeout,
		Allow0RTT:      true,
	}
	l, err := quic.ListenAddrEarly(addr, tlsConfig, quicConfig)
	if err != nil {
		return nil, fmt.Errorf("listen quic on %s: %w", addr, err)
	}
	return l, nil
}

func (s *Server) ServeH3(l *quic.EarlyListener) error {
	defer l.Close()

	if s.opts.Handler == nil {
		return errMissingHTTPHandler
	}

	idleTimeout := s.opts.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = defaultQUICIdleTimeout
	}

	hs := &http3.Server{
		Handler:        s.opts.Handler,
		IdleTimeout:    idleTimeout,
		MaxHeaderBytes: 4096,
	}
	if ok := s.trackCloser(hs, true); !ok {
		return ErrServerClosed
	}
	defer s.trackCloser(hs, false)

	err := hs.ServeListener(l)
	if err == http.ErrServerClosed { // Replace http.ErrServerClosed with our ErrServerClosed
		return ErrServerClosed
	} else if err != nil {
		return err
	}
	return nil
}
