package server

import (
	"net"
	"time"

	"github.com/pires/go-proxyproto"
)

// WrapProxyProto wraps l so connections may carry a PROXY protocol
// header, letting the handlers see the original client address when a
// load balancer sits in front.
func WrapProxyProto(l net.Listener) net.Listener {
	return &proxyproto.Listener{
		Listener:          l,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
