// Package opensubtitles finds subtitles on opensubtitles.org through its XML-RPC API.
package opensubtitles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/trawl-media/trawl/auth"
	"github.com/trawl-media/trawl/fetch"
	"github.com/trawl-media/trawl/internal/xmlrpc"
	"github.com/trawl-media/trawl/log"
	"github.com/trawl-media/trawl/media"
	"github.com/trawl-media/trawl/network"
	"github.com/trawl-media/trawl/source"
)

const (
	ID = "opensubtitles"

	DefaultEndpoint  = "https://api.opensubtitles.org/xml-rpc"
	DefaultUserAgent = "Totem"

	// The API answers a single page of up to 500 results.
	pageSize = 500

	statusOK = "200 OK"
)

// StatusError is a response whose status is not "200 OK".
type StatusError struct {
	Method string
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s", e.Method, e.Status)
}

// Unauthorized reports whether the session token was rejected.
func (e *StatusError) Unauthorized() bool {
	return strings.HasPrefix(e.Status, "401")
}

type Config struct {
	Endpoint  string
	UserAgent string

	// Languages are ISO 639-2 codes, "all" for every language.
	Languages []string

	Credentials auth.Credentials
}

type Source struct {
	config Config
	driver *fetch.Driver
}

func New(config Config) *Source {
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if len(config.Languages) == 0 {
		config.Languages = []string{"all"}
	}

	s := &Source{config: config}
	s.driver = fetch.MustNew(fetch.Config{
		Name:     ID,
		PageSize: pageSize,
		Hints:    fetch.HintExact,
		Login:    s.login,
	})
	return s
}

func (s *Source) ID() string { return ID }

func (s *Source) Name() string { return "OpenSubtitles" }

func (s *Source) Description() string {
	return "Subtitles from opensubtitles.org"
}

func (s *Source) SupportedKeys() []media.Key {
	return []media.Key{
		media.KeyID, media.KeyTitle, media.KeyURL, media.KeyDescription, media.KeyShow,
		media.KeySeason, media.KeyEpisode, media.KeyRating, media.KeyHash, media.KeySubtitles,
	}
}

func (s *Source) login(ctx context.Context) (string, error) {
	user, password := s.config.Credentials.User, s.config.Credentials.Password
	if s.config.Credentials.Anonymous() {
		log.Info("opensubtitles: logging in anonymously")
	}

	resp, err := s.call(ctx, "LogIn", user, password, "en", s.config.UserAgent)
	if err != nil {
		return "", err
	}

	return xmlrpc.String(resp["token"]), nil
}

// call performs an XML-RPC call and checks the status member of the response.
func (s *Source) call(ctx context.Context, method string, params ...any) (map[string]any, error) {
	body, err := xmlrpc.EncodeCall(method, params...)
	if err != nil {
		return nil, err
	}

	data, err := network.Post(ctx, s.config.Endpoint, "text/xml", body, nil)
	if err != nil {
		return nil, err
	}

	v, err := xmlrpc.DecodeResponse(data)
	if err != nil {
		var fault *xmlrpc.Fault
		if errors.As(err, &fault) {
			return nil, fetch.TransportError(err)
		}
		return nil, fetch.DecodeError(err)
	}

	resp := xmlrpc.Struct(v)
	if resp == nil {
		return nil, fetch.DecodeError(fmt.Errorf("%s: response is not a struct", method))
	}

	if status := xmlrpc.String(resp["status"]); status != statusOK {
		return nil, &StatusError{Method: method, Status: status}
	}

	return resp, nil
}

// searchSubtitles runs a SearchSubtitles call, invalidating the session when it was rejected.
func (s *Source) searchSubtitles(ctx context.Context, token string, criteria map[string]any) ([]any, error) {
	criteria["sublanguageid"] = strings.Join(s.config.Languages, ",")

	resp, err := s.call(ctx, "SearchSubtitles", token, []map[string]any{criteria}, map[string]any{"limit": pageSize})

	var status *StatusError
	if errors.As(err, &status) {
		if status.Unauthorized() {
			s.driver.Gate().Invalidate()
			return nil, fetch.AuthError(err)
		}
		return nil, fetch.TransportError(err)
	}
	if err != nil {
		return nil, err
	}

	// "data" is false when nothing matched
	return xmlrpc.Array(resp["data"]), nil
}

func (s *Source) Search(text string, opts source.Options, cb source.Callback) fetch.OperationID {
	tmpl := fetch.TemplateFunc(func(ctx context.Context, page fetch.Page) (fetch.Response, error) {
		if page.Number > 1 {
			return fetch.Items(nil), nil
		}

		data, err := s.searchSubtitles(ctx, page.Token, map[string]any{"query": text})
		if err != nil {
			return nil, err
		}

		return fetch.DecodeFunc(func() ([]*media.Media, error) {
			return decodeSubtitles(data)
		}), nil
	})

	return s.driver.Search(opts.Skip, opts.Count, tmpl, source.Sink(s, cb))
}

// MayResolve requires a video with its opensubtitles hash and byte size.
func (s *Source) MayResolve(m *media.Media, keys []media.Key) bool {
	if m == nil || m.Kind != media.Video || m.Hash == "" || m.Size <= 0 {
		return false
	}
	return len(keys) == 0 || lo.Contains(keys, media.KeySubtitles)
}

func (s *Source) Resolve(ctx context.Context, m *media.Media, _ []media.Key) error {
	if m.Hash == "" || m.Size <= 0 {
		return source.ErrUnsupported
	}

	token, err := s.driver.Gate().Acquire(ctx)
	if err != nil {
		return fetch.TransportError(err)
	}

	data, err := s.searchSubtitles(ctx, token, map[string]any{
		"moviehash":     m.Hash,
		"moviebytesize": fmt.Sprint(m.Size),
	})
	if err != nil {
		return err
	}

	subs := bestPerLanguage(m, data)
	log.Debugf("opensubtitles: %d subtitle language(s) for %s", len(subs), m)
	if len(subs) > 0 {
		m.Subtitles = subs
	}
	return nil
}

func (s *Source) Cancel(op fetch.OperationID) {
	s.driver.Cancel(op)
}

func (s *Source) Close() error {
	return s.driver.Close()
}
