// Package bookmarks is a writable tree of folders and streams kept in a bbolt file.
package bookmarks

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/trawl-media/trawl/fetch"
	"github.com/trawl-media/trawl/log"
	"github.com/trawl-media/trawl/media"
	"github.com/trawl-media/trawl/source"
)

const (
	ID = "bookmarks"

	pageSize = 100
)

type Config struct {
	// Path of the database file.
	Path string
}

type Source struct {
	store  *Store
	driver *fetch.Driver
}

func New(config Config) (*Source, error) {
	store, err := OpenStore(config.Path)
	if err != nil {
		return nil, err
	}

	return &Source{
		store: store,
		driver: fetch.MustNew(fetch.Config{
			Name:     ID,
			PageSize: pageSize,
			Hints:    fetch.HintExact,
		}),
	}, nil
}

func (s *Source) ID() string { return ID }

func (s *Source) Name() string { return "Bookmarks" }

func (s *Source) Description() string {
	return "Folders of saved streams"
}

func (s *Source) SupportedKeys() []media.Key {
	return []media.Key{
		media.KeyID, media.KeyTitle, media.KeyURL, media.KeyDescription,
		media.KeyThumbnail, media.KeyMIME, media.KeyChildCount, media.KeyPublished,
	}
}

func (b *Bookmark) media() *media.Media {
	if b.Folder {
		m := media.NewContainer(ID, b.ID, b.Title)
		m.Description = b.Description
		m.Thumbnail = b.Thumbnail
		m.ChildCount = b.Children
		m.Published = b.Created
		return m
	}

	kind := media.ParseKind(b.Kind)
	if kind == media.Unknown || kind == media.Container {
		kind = media.KindFromMIME(b.MIME)
	}

	return &media.Media{
		ID:          b.ID,
		Source:      ID,
		Kind:        kind,
		Title:       b.Title,
		URL:         b.URL,
		Description: b.Description,
		Thumbnail:   b.Thumbnail,
		MIME:        b.MIME,
		Published:   b.Created,
	}
}

func items(list []*Bookmark) fetch.Response {
	return fetch.Items(lo.Map(list, func(b *Bookmark, _ int) *media.Media {
		return b.media()
	}))
}

func (s *Source) Browse(container *media.Media, opts source.Options, cb source.Callback) fetch.OperationID {
	var parent string
	if container != nil {
		if !container.IsContainer() {
			err := fmt.Errorf("%s: %w", container.ID, ErrNotFolder)
			return s.driver.Browse(opts.Skip, opts.Count, fetch.Fail(err), source.Sink(s, cb))
		}
		parent = container.ID
	}

	tmpl := fetch.TemplateFunc(func(ctx context.Context, page fetch.Page) (fetch.Response, error) {
		list, err := s.store.Children(parent, page.Size, page.Start())
		if err != nil {
			return nil, err
		}
		return items(list), nil
	})

	return s.driver.Browse(opts.Skip, opts.Count, tmpl, source.Sink(s, cb))
}

// Search matches the title, url and description of every bookmark.
func (s *Source) Search(text string, opts source.Options, cb source.Callback) fetch.OperationID {
	tmpl := fetch.TemplateFunc(func(ctx context.Context, page fetch.Page) (fetch.Response, error) {
		list, err := s.store.Search(text, page.Size, page.Start())
		if err != nil {
			return nil, err
		}
		return items(list), nil
	})

	return s.driver.Search(opts.Skip, opts.Count, tmpl, source.Sink(s, cb))
}

func (s *Source) MayResolve(m *media.Media, _ []media.Key) bool {
	return m != nil && m.Source == ID && m.ID != ""
}

func (s *Source) Resolve(_ context.Context, m *media.Media, _ []media.Key) error {
	b, err := s.store.Get(m.ID)
	if err != nil {
		return err
	}

	m.Merge(b.media())
	return nil
}

// Store adds a folder when m is a container and a stream otherwise.
func (s *Source) Store(_ context.Context, parent, m *media.Media) error {
	b := &Bookmark{
		Folder:      m.IsContainer(),
		Title:       m.Title,
		URL:         m.URL,
		Description: m.Description,
		MIME:        m.MIME,
		Thumbnail:   m.Thumbnail,
	}
	if parent != nil {
		b.Parent = parent.ID
	}

	if b.Folder {
		if b.Title == "" {
			return errors.New("folder title is required")
		}
	} else {
		if b.URL == "" {
			return errors.New("stream url is required")
		}
		if m.Kind != media.Unknown {
			b.Kind = m.Kind.String()
		}
	}

	if err := s.store.Add(b); err != nil {
		return err
	}

	m.ID = b.ID
	m.Source = ID
	if b.Folder {
		m.ChildCount = 0
	}
	log.Infof("bookmarks: stored %s", m)
	return nil
}

// Remove deletes m, and the whole subtree for folders.
func (s *Source) Remove(_ context.Context, m *media.Media) error {
	return s.store.Remove(m.ID)
}

func (s *Source) Cancel(op fetch.OperationID) {
	s.driver.Cancel(op)
}

func (s *Source) Close() error {
	return errors.Join(s.driver.Close(), s.store.Close())
}
