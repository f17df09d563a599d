// Package vimeo searches videos through the Vimeo REST API.
package vimeo

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/trawl-media/trawl/fetch"
	"github.com/trawl-media/trawl/media"
	"github.com/trawl-media/trawl/network"
	"github.com/trawl-media/trawl/source"
)

const (
	ID = "vimeo"

	DefaultEndpoint = "https://api.vimeo.com"

	pageSize = 50
)

// ErrNoToken is returned by every operation when no access token is configured.
var ErrNoToken = errors.New("vimeo access token is not set")

type Config struct {
	Endpoint string
	Token    string
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

func (s *Source) Name() string { return "Vimeo" }

func (s *Source) Description() string {
	return "Videos hosted on vimeo.com"
}

func (s *Source) SupportedKeys() []media.Key {
	return []media.Key{
		media.KeyID, media.KeyTitle, media.KeyDescription, media.KeyURL, media.KeyThumbnail,
		media.KeyDuration, media.KeyWidth, media.KeyHeight, media.KeyAuthor, media.KeyPublished,
		media.KeyKeywords,
	}
}

func (s *Source) get(ctx context.Context, path string, query url.Values, target any) error {
	if s.config.Token == "" {
		return fetch.AuthError(ErrNoToken)
	}

	u := s.config.Endpoint + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	data, err := network.Get(ctx, u, map[string]string{
		"Authorization": "bearer " + s.config.Token,
		"Accept":        "application/vnd.vimeo.*+json;version=3.4",
	})
	if err != nil {
		var status *network.StatusError
		if errors.As(err, &status) && status.Code == 401 {
			return fetch.AuthError(err)
		}
		return err
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fetch.DecodeError(err)
	}
	return nil
}

func (s *Source) Search(text string, opts source.Options, cb source.Callback) fetch.OperationID {
	tmpl := fetch.TemplateFunc(func(ctx context.Context, page fetch.Page) (fetch.Response, error) {
		var resp searchResponse
		err := s.get(ctx, "/videos", url.Values{
			"query":    {text},
			"page":     {strconv.Itoa(int(page.Number))},
			"per_page": {strconv.Itoa(int(page.Size))},
		}, &resp)
		if err != nil {
			return nil, err
		}

		return fetch.DecodeFunc(func() ([]*media.Media, error) {
			return lo.Map(resp.Data, func(v *video, _ int) *media.Media {
				return v.media()
			}), nil
		}), nil
	})

	return s.driver.Search(opts.Skip, opts.Count, tmpl, source.Sink(s, cb))
}

func (s *Source) MayResolve(m *media.Media, _ []media.Key) bool {
	return m != nil && m.Source == ID && m.ID != ""
}

func (s *Source) Resolve(ctx context.Context, m *media.Media, _ []media.Key) error {
	if m.ID == "" {
		return source.ErrUnsupported
	}

	var v video
	if err := s.get(ctx, "/videos/"+url.PathEscape(m.ID), nil, &v); err != nil {
		return err
	}

	m.Merge(v.media())
	return nil
}

func (s *Source) Cancel(op fetch.OperationID) {
	s.driver.Cancel(op)
}

func (s *Source) Close() error {
	return s.driver.Close()
}

type searchResponse struct {
	Total int      `json:"total"`
	Data  []*video `json:"data"`
}

type video struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Duration    int    `json:"duration"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	CreatedTime string `json:"created_time"`
	User        struct {
		Name string `json:"name"`
	} `json:"user"`
	Pictures struct {
		Sizes []picture `json:"sizes"`
	} `json:"pictures"`
	Tags []tag `json:"tags"`
}

type picture struct {
	Width int    `json:"width"`
	Link  string `json:"link"`
}

type tag struct {
	Name string `json:"name"`
}

func (v *video) media() *media.Media {
	if v == nil {
		return nil
	}

	m := &media.Media{
		ID:          v.URI[strings.LastIndex(v.URI, "/")+1:],
		Kind:        media.Video,
		Title:       v.Name,
		Description: v.Description,
		URL:         v.Link,
		Site:        v.Link,
		Author:      v.User.Name,
		Duration:    time.Duration(v.Duration) * time.Second,
		Width:       v.Width,
		Height:      v.Height,
	}

	if t, err := time.Parse(time.RFC3339, v.CreatedTime); err == nil {
		m.Published = t
	}

	if len(v.Pictures.Sizes) > 0 {
		largest := lo.MaxBy(v.Pictures.Sizes, func(a, b picture) bool {
			return a.Width > b.Width
		})
		m.Thumbnail = largest.Link
	}

	for _, t := range v.Tags {
		m.Keywords = append(m.Keywords, t.Name)
	}

	return m
}
