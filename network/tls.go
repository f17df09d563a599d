package network

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	utls "github.com/refraction-networking/utls"
	"github.com/trawl-media/trawl/constant"
	"golang.org/x/net/http2"
)

const dialTimeout = 30 * time.Second

// Fingerprinted sends requests with a Chrome TLS client hello. It prefers
// HTTP/2 and falls back to HTTP/1.1 when the server refuses h2.
var Fingerprinted http.RoundTripper = &fingerprintTransport{
	h1: &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialFingerprinted(ctx, network, addr, []string{"http/1.1"})
		},
		IdleConnTimeout: 30 * time.Second,
	},
}

type fingerprintTransport struct {
	h2Once sync.Once
	h2     *http2.Transport
	h1     *http.Transport
}

func (t *fingerprintTransport) h2Transport() *http2.Transport {
	t.h2Once.Do(func() {
		t.h2 = &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialFingerprinted(ctx, network, addr, nil)
			},
		}
	})
	return t.h2
}

func (t *fingerprintTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" || req.Header.Get("User-Agent") == constant.UserAgent {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", constant.BrowserUserAgent)
	}

	if req.URL.Scheme != "https" {
		return t.h1.RoundTrip(req)
	}

	resp, err := t.h2Transport().RoundTrip(req)
	if err == nil {
		return resp, nil
	}

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, bodyErr := req.GetBody()
		if bodyErr != nil {
			return nil, err
		}
		retry.Body = body
	}
	return t.h1.RoundTrip(retry)
}

// dialFingerprinted opens a TLS connection with the Chrome 120 hello.
// A non-nil protos restricts ALPN.
func dialFingerprinted(ctx context.Context, network, addr string, protos []string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	tlsConn := utls.UClient(conn, &utls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
		NextProtos: protos,
	}, utls.HelloChrome_120)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
