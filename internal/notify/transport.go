package notify

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/rs/dnscache"
	"golang.org/x/net/http2"
)

// NewTransport returns a pooled *http.Transport for the notification
// upstreams. DNS lookups go through resolver when it is non-nil. With
// forceHTTP2 the transport is configured for HTTP/2 over TLS.
func NewTransport(resolver *dnscache.Resolver, forceHTTP2 bool) *http.Transport {
	t := &http.Transport{
		MaxIdleConnsPerHost:   16,
		MaxConnsPerHost:       32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}
	if resolver != nil {
		t.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			ips, err := resolver.LookupHost(ctx, host)
			if err != nil {
				return nil, err
			}
			var d net.Dialer
			return d.DialContext(ctx, network, net.JoinHostPort(ips[0], port))
		}
	}
	if forceHTTP2 {
		if err := http2.ConfigureTransport(t); err != nil {
			// Only fails if the transport was already configured.
			slog.Warn("http2 configure failed, using HTTP/1.1", "error", err)
		}
	}
	return t
}
