// Package tmdb searches movies on The Movie Database and resolves their metadata.
//
// Image urls depend on the base url of the /configuration endpoint. It is fetched once
// through the driver gate and shared by every operation as its session token.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/trawl-media/trawl/fetch"
	"github.com/trawl-media/trawl/internal/cacher"
	"github.com/trawl-media/trawl/log"
	"github.com/trawl-media/trawl/media"
	"github.com/trawl-media/trawl/network"
	"github.com/trawl-media/trawl/source"
	"github.com/trawl-media/trawl/where"
)

const (
	ID = "tmdb"

	DefaultEndpoint = "https://api.themoviedb.org"

	// The API pages are fixed at 20 results.
	pageSize = 20

	posterSize = "w500"
)

// ErrNoAPIKey is returned by every operation when no API key is configured.
var ErrNoAPIKey = errors.New("tmdb api key is not set")

type Config struct {
	Endpoint string
	APIKey   string
	Language string

	// IDs maps lowercased titles to movie ids. It defaults to a cache under where.Cache().
	IDs *cacher.Cacher[string, int]
}

type Source struct {
	config Config
	driver *fetch.Driver
}

func New(config Config) *Source {
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.IDs == nil {
		config.IDs = cacher.New[string, int](where.TMDBIDs(), 0, normalizedTitle)
	}

	s := &Source{config: config}
	s.driver = fetch.MustNew(fetch.Config{
		Name:     ID,
		PageSize: pageSize,
		Hints:    fetch.HintExact,
		Login:    s.configuration,
	})
	return s
}

func normalizedTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

func (s *Source) ID() string { return ID }

func (s *Source) Name() string { return "TMDb" }

func (s *Source) Description() string {
	return "Movie metadata from themoviedb.org"
}

func (s *Source) SupportedKeys() []media.Key {
	return []media.Key{
		media.KeyID, media.KeyTitle, media.KeyDescription, media.KeyThumbnail, media.KeyGenre,
		media.KeyRating, media.KeyPublished, media.KeyKeywords, media.KeyDuration, media.KeySite,
	}
}

func (s *Source) get(ctx context.Context, path string, query url.Values, target any) error {
	if s.config.APIKey == "" {
		return fetch.AuthError(ErrNoAPIKey)
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", s.config.APIKey)
	if s.config.Language != "" {
		query.Set("language", s.config.Language)
	}

	data, err := network.Get(ctx, s.config.Endpoint+path+"?"+query.Encode(), nil)
	if err != nil {
		var status *network.StatusError
		if errors.As(err, &status) && status.Code == http.StatusUnauthorized {
			return fetch.AuthError(err)
		}
		return err
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fetch.DecodeError(err)
	}
	return nil
}

// configuration returns the secure image base url.
func (s *Source) configuration(ctx context.Context) (string, error) {
	var resp struct {
		Images struct {
			SecureBaseURL string `json:"secure_base_url"`
		} `json:"images"`
	}
	if err := s.get(ctx, "/3/configuration", nil, &resp); err != nil {
		return "", err
	}

	return resp.Images.SecureBaseURL, nil
}

func (s *Source) searchPage(ctx context.Context, text string, page uint32) (*searchResponse, error) {
	var resp searchResponse
	err := s.get(ctx, "/3/search/movie", url.Values{
		"query": {text},
		"page":  {strconv.Itoa(int(page))},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *Source) Search(text string, opts source.Options, cb source.Callback) fetch.OperationID {
	tmpl := fetch.TemplateFunc(func(ctx context.Context, page fetch.Page) (fetch.Response, error) {
		resp, err := s.searchPage(ctx, text, page.Number)
		if err != nil {
			return nil, err
		}

		return fetch.DecodeFunc(func() ([]*media.Media, error) {
			if int(page.Number) > resp.TotalPages {
				return nil, nil
			}

			items := make([]*media.Media, 0, len(resp.Results))
			for _, r := range resp.Results {
				items = append(items, r.media(page.Token))
			}
			return items, nil
		}), nil
	})

	return s.driver.Search(opts.Skip, opts.Count, tmpl, source.Sink(s, cb))
}

// MayResolve needs a title, which is looked up when the item has no tmdb id.
func (s *Source) MayResolve(m *media.Media, _ []media.Key) bool {
	if m == nil || m.IsContainer() {
		return false
	}
	return (m.Source == ID && m.ID != "") || m.Title != ""
}

func (s *Source) Resolve(ctx context.Context, m *media.Media, _ []media.Key) error {
	base, err := s.driver.Gate().Acquire(ctx)
	if err != nil {
		return fetch.TransportError(err)
	}

	id, err := s.movieID(ctx, m)
	if err != nil {
		return err
	}
	if id == 0 {
		log.Infof("tmdb: no movie found for %q", m.Title)
		return nil
	}

	var movie details
	err = s.get(ctx, fmt.Sprintf("/3/movie/%d", id), url.Values{"append_to_response": {"keywords"}}, &movie)
	if err != nil {
		return err
	}

	m.Merge(movie.media(base))
	return nil
}

// movieID returns the tmdb id of m, searching by title on a cache miss. 0 means not found.
func (s *Source) movieID(ctx context.Context, m *media.Media) (int, error) {
	if m.Source == ID && m.ID != "" {
		id, err := strconv.Atoi(m.ID)
		if err != nil {
			return 0, fmt.Errorf("invalid tmdb id %q", m.ID)
		}
		return id, nil
	}

	if id, ok := s.config.IDs.Get(m.Title).Get(); ok {
		return id, nil
	}

	resp, err := s.searchPage(ctx, m.Title, 1)
	if err != nil {
		return 0, err
	}
	if len(resp.Results) == 0 {
		return 0, nil
	}

	id := resp.Results[0].ID
	if err := s.config.IDs.Set(m.Title, id); err != nil {
		log.Warnf("tmdb: caching id of %q: %v", m.Title, err)
	}
	return id, nil
}

func (s *Source) Cancel(op fetch.OperationID) {
	s.driver.Cancel(op)
}

func (s *Source) Close() error {
	return s.driver.Close()
}
