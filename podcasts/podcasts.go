// Package podcasts keeps podcast subscriptions in a local SQLite database.
//
// The root lists subscriptions, a subscription lists its streams. Feeds are downloaded
// again when browsed after the refresh interval.
package podcasts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/trawl-media/trawl/fetch"
	"github.com/trawl-media/trawl/log"
	"github.com/trawl-media/trawl/media"
	"github.com/trawl-media/trawl/network"
	"github.com/trawl-media/trawl/source"
)

const (
	ID = "podcasts"

	pageSize = 100

	DefaultRefreshInterval = 24 * time.Hour
)

type Config struct {
	// Path of the database file.
	Path string

	RefreshInterval time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

type Source struct {
	config Config
	db     *DB
	driver *fetch.Driver

	refreshMu sync.Mutex
}

// New opens the database at config.Path.
func New(config Config) (*Source, error) {
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = DefaultRefreshInterval
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	db, err := OpenDB(config.Path)
	if err != nil {
		return nil, err
	}

	return &Source{
		config: config,
		db:     db,
		driver: fetch.MustNew(fetch.Config{
			Name:     ID,
			PageSize: pageSize,
			Hints:    fetch.HintExact,
		}),
	}, nil
}

func (s *Source) ID() string { return ID }

func (s *Source) Name() string { return "Podcasts" }

func (s *Source) Description() string {
	return "Subscribed podcast feeds"
}

func (s *Source) SupportedKeys() []media.Key {
	return []media.Key{
		media.KeyID, media.KeyTitle, media.KeyURL, media.KeyDescription, media.KeyThumbnail,
		media.KeyChildCount, media.KeyMIME, media.KeySize, media.KeyPublished, media.KeyDuration,
	}
}

// DB exposes the underlying database.
func (s *Source) DB() *DB {
	return s.db
}

func streamID(podcast, stream int64) string {
	return fmt.Sprintf("%d/%d", podcast, stream)
}

// parseID returns the podcast id and, for streams, the stream id.
func parseID(id string) (podcast, stream int64, err error) {
	first, second, isStream := strings.Cut(id, "/")

	if podcast, err = strconv.ParseInt(first, 10, 64); err != nil {
		return 0, 0, fmt.Errorf("invalid podcast id %q", id)
	}
	if !isStream {
		return podcast, 0, nil
	}
	if stream, err = strconv.ParseInt(second, 10, 64); err != nil {
		return 0, 0, fmt.Errorf("invalid stream id %q", id)
	}
	return podcast, stream, nil
}

func (p *Podcast) media() *media.Media {
	m := media.NewContainer(ID, strconv.FormatInt(p.ID, 10), p.Title)
	m.URL = p.URL
	m.Description = p.Description
	m.Thumbnail = p.Image
	m.ChildCount = p.Streams
	return m
}

func (st *Stream) media() *media.Media {
	kind := media.KindFromMIME(st.MIME)
	if kind == media.Unknown {
		kind = media.Audio
	}

	return &media.Media{
		ID:          streamID(st.Podcast, st.ID),
		Kind:        kind,
		Title:       st.Title,
		URL:         st.URL,
		MIME:        st.MIME,
		Size:        st.Length,
		Published:   st.Published,
		Description: st.Description,
		Duration:    st.Duration,
	}
}

func podcastItems(podcasts []*Podcast) fetch.Response {
	return fetch.Items(lo.Map(podcasts, func(p *Podcast, _ int) *media.Media {
		return p.media()
	}))
}

func (s *Source) Browse(container *media.Media, opts source.Options, cb source.Callback) fetch.OperationID {
	sink := source.Sink(s, cb)

	if container == nil {
		root := fetch.TemplateFunc(func(ctx context.Context, page fetch.Page) (fetch.Response, error) {
			podcasts, err := s.db.Podcasts(ctx, page.Size, page.Start())
			if err != nil {
				return nil, err
			}
			return podcastItems(podcasts), nil
		})
		return s.driver.Browse(opts.Skip, opts.Count, root, sink)
	}

	podcast, stream, err := parseID(container.ID)
	if err == nil && stream != 0 {
		err = source.ErrUnsupported
	}
	if err != nil {
		return s.driver.Browse(opts.Skip, opts.Count, fetch.Fail(err), sink)
	}

	// the first request of the operation refreshes, whatever page it starts at
	var (
		refresh    sync.Once
		refreshErr error
	)

	streams := fetch.TemplateFunc(func(ctx context.Context, page fetch.Page) (fetch.Response, error) {
		refresh.Do(func() {
			refreshErr = s.refreshIfStale(ctx, podcast)
		})
		if refreshErr != nil {
			return nil, refreshErr
		}

		streams, err := s.db.Streams(ctx, podcast, page.Size, page.Start())
		if err != nil {
			return nil, err
		}
		return fetch.Items(lo.Map(streams, func(st *Stream, _ int) *media.Media {
			return st.media()
		})), nil
	})
	return s.driver.Browse(opts.Skip, opts.Count, streams, sink)
}

// refreshIfStale downloads the feed of a podcast not refreshed within the interval.
// A failed refresh of a podcast with stored streams only logs a warning.
func (s *Source) refreshIfStale(ctx context.Context, id int64) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	p, err := s.db.Podcast(ctx, id)
	if err != nil {
		return err
	}

	if s.config.Now().Sub(p.LastRefreshed) < s.config.RefreshInterval {
		return nil
	}

	log.Infof("podcasts: refreshing %q", p.Title)
	feed, err := fetchFeed(ctx, p.URL)
	if err == nil {
		err = s.db.ReplaceStreams(ctx, id, feed.Streams, s.config.Now())
	}

	if err != nil && p.Streams > 0 && ctx.Err() == nil {
		log.Warnf("podcasts: refreshing %q: %v", p.Title, err)
		return nil
	}
	return err
}

func fetchFeed(ctx context.Context, url string) (*Feed, error) {
	data, err := network.Get(ctx, url, map[string]string{
		"Accept": "application/rss+xml, application/xml;q=0.9, */*;q=0.8",
	})
	if err != nil {
		return nil, err
	}

	feed, err := ParseFeed(data)
	if err != nil {
		return nil, fetch.DecodeError(err)
	}
	return feed, nil
}

// Search matches the title and description of subscriptions.
func (s *Source) Search(text string, opts source.Options, cb source.Callback) fetch.OperationID {
	tmpl := fetch.TemplateFunc(func(ctx context.Context, page fetch.Page) (fetch.Response, error) {
		podcasts, err := s.db.SearchPodcasts(ctx, text, page.Size, page.Start())
		if err != nil {
			return nil, err
		}
		return podcastItems(podcasts), nil
	})

	return s.driver.Search(opts.Skip, opts.Count, tmpl, source.Sink(s, cb))
}

func (s *Source) MayResolve(m *media.Media, _ []media.Key) bool {
	if m == nil || m.Source != ID {
		return false
	}
	_, _, err := parseID(m.ID)
	return err == nil
}

func (s *Source) Resolve(ctx context.Context, m *media.Media, _ []media.Key) error {
	podcast, stream, err := parseID(m.ID)
	if err != nil {
		return err
	}

	if stream == 0 {
		p, err := s.db.Podcast(ctx, podcast)
		if err != nil {
			return err
		}
		m.Merge(p.media())
		return nil
	}

	st, err := s.db.Stream(ctx, stream)
	if err != nil {
		return err
	}
	if st.Podcast != podcast {
		return fmt.Errorf("stream %s: %w", m.ID, ErrNotFound)
	}

	m.Merge(st.media())
	return nil
}

// Store subscribes to the feed at m.URL. Only the root accepts new items.
func (s *Source) Store(ctx context.Context, parent, m *media.Media) error {
	if parent != nil {
		return fmt.Errorf("podcasts can only be added to the root: %w", source.ErrUnsupported)
	}
	if m.URL == "" {
		return errors.New("podcast url is required")
	}

	feed, err := fetchFeed(ctx, m.URL)
	if err != nil {
		return err
	}

	p := &Podcast{
		Title:         m.Title,
		URL:           m.URL,
		Description:   feed.Description,
		Image:         feed.Image,
		LastRefreshed: s.config.Now(),
	}
	if p.Title == "" {
		p.Title = feed.Title
	}

	if err := s.db.InsertPodcast(ctx, p, feed.Streams); err != nil {
		return err
	}

	stored := p.media()
	m.ID = stored.ID
	m.Source = ID
	m.Kind = media.Container
	m.Merge(stored)
	m.ChildCount = p.Streams
	log.Infof("podcasts: subscribed to %q with %d stream(s)", p.Title, p.Streams)
	return nil
}

// Remove deletes a subscription with its streams, or a single stream.
func (s *Source) Remove(ctx context.Context, m *media.Media) error {
	podcast, stream, err := parseID(m.ID)
	if err != nil {
		return err
	}

	if stream == 0 {
		return s.db.DeletePodcast(ctx, podcast)
	}
	return s.db.DeleteStream(ctx, stream)
}

func (s *Source) Cancel(op fetch.OperationID) {
	s.driver.Cancel(op)
}

// Close stops running operations and closes the database.
func (s *Source) Close() error {
	return errors.Join(s.driver.Close(), s.db.Close())
}
