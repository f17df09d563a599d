package anilist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/trawl-media/trawl/fetch"
	"github.com/trawl-media/trawl/internal/cacher"
	"github.com/trawl-media/trawl/log"
	"github.com/trawl-media/trawl/media"
	"github.com/trawl-media/trawl/network"
	"github.com/trawl-media/trawl/source"
	"github.com/trawl-media/trawl/where"
)

const (
	ID = "anilist"

	DefaultEndpoint = "https://graphql.anilist.co"

	pageSize = 50
)

type Config struct {
	Endpoint string

	// Relations maps normalized names to anime ids, -1 meaning not found.
	Relations *cacher.Cacher[string, int]

	// Animes holds the metadata of anime ids.
	Animes *cacher.Cacher[int, *Anime]
}

type Source struct {
	config Config
	driver *fetch.Driver
}

func New(config Config) *Source {
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.Relations == nil {
		config.Relations = cacher.New[string, int](where.AnilistIDs(), 0, normalizedName)
	}
	if config.Animes == nil {
		config.Animes = cacher.New[int, *Anime](filepath.Join(where.Cache(), "anilist_animes.json"), time.Hour*24*2, nil)
	}

	return &Source{
		config: config,
		driver: fetch.MustNew(fetch.Config{
			Name:     ID,
			PageSize: pageSize,
			Hints:    fetch.HintExact,
		}),
	}
}

func (s *Source) ID() string { return ID }

func (s *Source) Name() string { return "Anilist" }

func (s *Source) Description() string {
	return "Anime catalog of anilist.co"
}

func (s *Source) SupportedKeys() []media.Key {
	return []media.Key{
		media.KeyID, media.KeyTitle, media.KeyShow, media.KeyDescription, media.KeyThumbnail,
		media.KeyGenre, media.KeyKeywords, media.KeyPublished, media.KeyDuration, media.KeyRating,
		media.KeySite,
	}
}

type pageResponse struct {
	Data struct {
		Page struct {
			PageInfo struct {
				Total       int  `json:"total"`
				HasNextPage bool `json:"hasNextPage"`
			} `json:"pageInfo"`
			Media []*Anime `json:"media"`
		} `json:"Page"`
	} `json:"data"`
}

type mediaResponse struct {
	Data struct {
		Media *Anime `json:"Media"`
	} `json:"data"`
}

type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// post runs a GraphQL query and decodes the answer into target.
func (s *Source) post(ctx context.Context, gql string, variables map[string]any, target any) error {
	body, err := json.Marshal(map[string]any{
		"query":     gql,
		"variables": variables,
	})
	if err != nil {
		return err
	}

	data, err := network.Post(ctx, s.config.Endpoint, "application/json", body, map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return err
	}

	var gqlErrs struct {
		Errors []graphQLError `json:"errors"`
	}
	if err := json.Unmarshal(data, &gqlErrs); err == nil && len(gqlErrs.Errors) > 0 {
		messages := lo.Map(gqlErrs.Errors, func(e graphQLError, _ int) string {
			return e.Message
		})
		return fetch.TransportError(errors.New(strings.Join(messages, "; ")))
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fetch.DecodeError(err)
	}
	return nil
}

func (s *Source) searchPage(ctx context.Context, name string, page, perPage uint32) ([]*Anime, error) {
	var resp pageResponse
	err := s.post(ctx, searchByNameQuery, map[string]any{
		"query":   name,
		"page":    page,
		"perPage": perPage,
	}, &resp)
	if err != nil {
		return nil, err
	}

	animes := resp.Data.Page.Media
	for _, a := range animes {
		if a != nil {
			_ = s.config.Animes.Set(a.ID, a)
		}
	}
	return animes, nil
}

func (s *Source) Search(text string, opts source.Options, cb source.Callback) fetch.OperationID {
	tmpl := fetch.TemplateFunc(func(ctx context.Context, page fetch.Page) (fetch.Response, error) {
		animes, err := s.searchPage(ctx, text, page.Number, page.Size)
		if err != nil {
			return nil, err
		}

		return fetch.DecodeFunc(func() ([]*media.Media, error) {
			return lo.Map(animes, func(a *Anime, _ int) *media.Media {
				return a.media()
			}), nil
		}), nil
	})

	return s.driver.Search(opts.Skip, opts.Count, tmpl, source.Sink(s, cb))
}

// GetByID returns the anime with the given id, from the cache when possible.
func (s *Source) GetByID(ctx context.Context, id int) (*Anime, error) {
	if anime, ok := s.config.Animes.Get(id).Get(); ok {
		return anime, nil
	}

	log.Infof("Searching anilist for anime with id: %d", id)

	var resp mediaResponse
	if err := s.post(ctx, searchByIDQuery, map[string]any{"id": id}, &resp); err != nil {
		return nil, err
	}

	anime := resp.Data.Media
	if anime == nil {
		return nil, fmt.Errorf("anime with id %d not found", id)
	}

	_ = s.config.Animes.Set(id, anime)
	return anime, nil
}

// MayResolve accepts anilist items and anything with a title to look up.
func (s *Source) MayResolve(m *media.Media, _ []media.Key) bool {
	if m == nil || m.IsContainer() {
		return false
	}
	return (m.Source == ID && m.ID != "") || m.Title != "" || m.Show != ""
}

func (s *Source) Resolve(ctx context.Context, m *media.Media, _ []media.Key) error {
	var (
		anime *Anime
		err   error
	)

	if m.Source == ID && m.ID != "" {
		id, convErr := strconv.Atoi(m.ID)
		if convErr != nil {
			return fmt.Errorf("invalid anilist id %q", m.ID)
		}
		anime, err = s.GetByID(ctx, id)
	} else {
		name := m.Show
		if name == "" {
			name = m.Title
		}
		anime, err = s.FindClosest(ctx, name)
	}

	if errors.Is(err, ErrNotFound) {
		log.Info(err)
		return nil
	}
	if err != nil {
		return err
	}

	m.Merge(anime.media())
	return nil
}

func (s *Source) Cancel(op fetch.OperationID) {
	s.driver.Cancel(op)
}

func (s *Source) Close() error {
	return s.driver.Close()
}
