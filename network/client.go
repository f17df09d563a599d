// Package network holds the shared HTTP clients used by remote sources.
package network

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/viper"
	"github.com/trawl-media/trawl/constant"
	"github.com/trawl-media/trawl/fetch"
	"github.com/trawl-media/trawl/key"
	"github.com/trawl-media/trawl/log"
)

// maxBody bounds how much of a response is read into memory.
const maxBody = 32 << 20

// Client is the plain HTTP client shared across the application.
var Client = &http.Client{
	Timeout:   time.Minute,
	Transport: newTransport(),
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 16
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	t.ExpectContinueTimeout = time.Second
	return t
}

// Current returns the client selected by the network settings.
func Current() *http.Client {
	timeout := time.Duration(viper.GetInt(key.NetworkTimeout)) * time.Second
	if timeout <= 0 {
		timeout = time.Minute
	}

	if viper.GetBool(key.NetworkTLSFingerprint) {
		return &http.Client{Timeout: timeout, Transport: Fingerprinted}
	}
	if timeout == Client.Timeout {
		return Client
	}
	return &http.Client{Timeout: timeout, Transport: Client.Transport}
}

// StatusError reports a response with a non-2xx status.
type StatusError struct {
	Code int
	URL  string
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Unwrap classifies the failure as a transport error.
func (e *StatusError) Unwrap() error {
	return fetch.ErrTransport
}

// Request describes an HTTP call.
type Request struct {
	Method string
	URL    string
	Header map[string]string
	Body   []byte
	Client *http.Client
}

// Do executes r and returns the response body. Failures wrap fetch.ErrTransport.
func Do(ctx context.Context, r Request) ([]byte, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", constant.UserAgent)
	for k, v := range r.Header {
		req.Header.Set(k, v)
	}

	client := r.Client
	if client == nil {
		client = Current()
	}

	log.Debugf("%s %s", method, r.URL)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fetch.TransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fetch.TransportError(fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(data)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, &StatusError{Code: resp.StatusCode, URL: r.URL, Body: snippet}
	}

	return data, nil
}

// Get fetches url with optional headers.
func Get(ctx context.Context, url string, header map[string]string) ([]byte, error) {
	return Do(ctx, Request{URL: url, Header: header})
}

// Post sends body with the given content type.
func Post(ctx context.Context, url, contentType string, body []byte, header map[string]string) ([]byte, error) {
	h := map[string]string{"Content-Type": contentType}
	for k, v := range header {
		h[k] = v
	}
	return Do(ctx, Request{Method: http.MethodPost, URL: url, Header: h, Body: body})
}
