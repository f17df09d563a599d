// Package flickr browses hot tags and searches public photos on Flickr.
package flickr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/trawl-media/trawl/fetch"
	"github.com/trawl-media/trawl/media"
	"github.com/trawl-media/trawl/network"
	"github.com/trawl-media/trawl/source"
)

const (
	ID = "flickr"

	DefaultEndpoint = "https://api.flickr.com/services/rest/"

	pageSize = 100

	extras = "media,date_taken,owner_name,url_o,url_t,o_dims"
)

// ErrNoAPIKey is returned by every operation when no API key is configured.
var ErrNoAPIKey = errors.New("flickr api key is not set")

// APIError is a response with stat "fail".
type APIError struct {
	Method  string
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s (code %d)", e.Method, e.Message, e.Code)
}

// Unwrap classifies API failures as transport errors.
func (e *APIError) Unwrap() error {
	return fetch.ErrTransport
}

type Config struct {
	Endpoint string
	APIKey   string
}

type Source struct {
	config Config
	driver *fetch.Driver
}

func New(config Config) *Source {
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}

	return &Source{
		config: config,
		driver: fetch.MustNew(fetch.Config{
			Name:     ID,
			PageSize: pageSize,
			Hints:    fetch.HintUnknown,
		}),
	}
}

func (s *Source) ID() string { return ID }

func (s *Source) Name() string { return "Flickr" }

func (s *Source) Description() string {
	return "Public photos and videos from flickr.com"
}

func (s *Source) SupportedKeys() []media.Key {
	return []media.Key{
		media.KeyID, media.KeyTitle, media.KeyDescription, media.KeyURL, media.KeyThumbnail,
		media.KeyAuthor, media.KeyPublished, media.KeyWidth, media.KeyHeight, media.KeySite,
		media.KeyKeywords,
	}
}

// call invokes a REST method and decodes the JSON answer into target.
func (s *Source) call(ctx context.Context, method string, params url.Values, target any) error {
	if s.config.APIKey == "" {
		return fetch.AuthError(ErrNoAPIKey)
	}

	params.Set("method", method)
	params.Set("api_key", s.config.APIKey)
	params.Set("format", "json")
	params.Set("nojsoncallback", "1")

	data, err := network.Get(ctx, s.config.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	var stat struct {
		Stat    string `json:"stat"`
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &stat); err != nil {
		return fetch.DecodeError(err)
	}
	if stat.Stat != "ok" {
		return &APIError{Method: method, Code: stat.Code, Message: stat.Message}
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fetch.DecodeError(err)
	}
	return nil
}

// Browse lists the hot tags at the root and the photos of a tag below it.
func (s *Source) Browse(container *media.Media, opts source.Options, cb source.Callback) fetch.OperationID {
	if container == nil {
		return s.driver.Browse(opts.Skip, opts.Count, fetch.TemplateFunc(s.hotTags), source.Sink(s, cb))
	}

	return s.driver.Browse(opts.Skip, opts.Count, s.photos(url.Values{"tags": {container.ID}}), source.Sink(s, cb))
}

func (s *Source) Search(text string, opts source.Options, cb source.Callback) fetch.OperationID {
	return s.driver.Search(opts.Skip, opts.Count, s.photos(url.Values{"text": {text}}), source.Sink(s, cb))
}

// hotTags serves the hot list as a single page.
func (s *Source) hotTags(ctx context.Context, page fetch.Page) (fetch.Response, error) {
	if page.Number > 1 {
		return fetch.Items(nil), nil
	}

	var resp hotListResponse
	err := s.call(ctx, "flickr.tags.getHotList", url.Values{
		"period": {"day"},
		"count":  {strconv.Itoa(int(page.Size))},
	}, &resp)
	if err != nil {
		return nil, err
	}

	return fetch.DecodeFunc(resp.media), nil
}

func (s *Source) photos(criteria url.Values) fetch.Template {
	return fetch.TemplateFunc(func(ctx context.Context, page fetch.Page) (fetch.Response, error) {
		params := url.Values{
			"extras":   {extras},
			"page":     {strconv.Itoa(int(page.Number))},
			"per_page": {strconv.Itoa(int(page.Size))},
		}
		for k, v := range criteria {
			params[k] = v
		}

		var resp searchResponse
		if err := s.call(ctx, "flickr.photos.search", params, &resp); err != nil {
			return nil, err
		}

		return fetch.DecodeFunc(resp.media), nil
	})
}

func (s *Source) MayResolve(m *media.Media, _ []media.Key) bool {
	return m != nil && m.Source == ID && m.ID != "" && !m.IsContainer()
}

func (s *Source) Resolve(ctx context.Context, m *media.Media, _ []media.Key) error {
	if m.ID == "" || m.IsContainer() {
		return source.ErrUnsupported
	}

	var resp infoResponse
	if err := s.call(ctx, "flickr.photos.getInfo", url.Values{"photo_id": {m.ID}}, &resp); err != nil {
		return err
	}

	m.Merge(resp.Photo.media())
	return nil
}

func (s *Source) Cancel(op fetch.OperationID) {
	s.driver.Cancel(op)
}

func (s *Source) Close() error {
	return s.driver.Close()
}
