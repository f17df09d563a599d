// Package localfs exposes directories of the local filesystem.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/trawl-media/trawl/fetch"
	"github.com/trawl-media/trawl/filesystem"
	"github.com/trawl-media/trawl/log"
	"github.com/trawl-media/trawl/media"
	"github.com/trawl-media/trawl/source"
	"github.com/trawl-media/trawl/util"
)

const (
	ID = "localfs"

	pageSize = 200
)

// ErrOutsideRoots is returned for paths not below any configured root.
var ErrOutsideRoots = errors.New("path is outside of the configured roots")

type Config struct {
	Roots      []string
	ShowHidden bool
}

type Source struct {
	roots      []string
	showHidden bool
	driver     *fetch.Driver
}

func New(config Config) *Source {
	roots := lo.Uniq(lo.FilterMap(config.Roots, func(root string, _ int) (string, bool) {
		if root == "" {
			return "", false
		}
		return filepath.Clean(root), true
	}))

	return &Source{
		roots:      roots,
		showHidden: config.ShowHidden,
		driver: fetch.MustNew(fetch.Config{
			Name:     ID,
			PageSize: pageSize,
			Hints:    fetch.HintExact,
		}),
	}
}

func (s *Source) ID() string { return ID }

func (s *Source) Name() string { return "Local files" }

func (s *Source) Description() string {
	return "Media files in local directories"
}

func (s *Source) SupportedKeys() []media.Key {
	return []media.Key{
		media.KeyID, media.KeyTitle, media.KeyURL, media.KeyMIME,
		media.KeySize, media.KeyPublished, media.KeyChildCount, media.KeyHash,
	}
}

// Roots returns the cleaned root directories.
func (s *Source) Roots() []string {
	return s.roots
}

// within reports whether path is one of the roots or below one.
func (s *Source) within(path string) bool {
	path = filepath.Clean(path)
	return lo.SomeBy(s.roots, func(root string) bool {
		rel, err := filepath.Rel(root, path)
		return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
	})
}

func (s *Source) visible(info os.FileInfo) bool {
	if !s.showHidden && strings.HasPrefix(info.Name(), ".") {
		return false
	}
	return info.IsDir() || kindOf(info.Name()) != media.Unknown
}

func (s *Source) item(path string, info os.FileInfo) *media.Media {
	if info.IsDir() {
		m := media.NewContainer(ID, path, info.Name())
		m.URL = fileURL(path)
		m.Published = info.ModTime()
		return m
	}

	mime := mimeType(info.Name())
	return &media.Media{
		ID:        path,
		Source:    ID,
		Kind:      media.KindFromMIME(mime),
		Title:     util.FileStem(info.Name()),
		URL:       fileURL(path),
		MIME:      mime,
		Size:      info.Size(),
		Published: info.ModTime(),
	}
}

func fileURL(path string) string {
	return "file://" + filepath.ToSlash(path)
}

// entries lists the visible children of dir sorted by name.
func (s *Source) entries(dir string) ([]*media.Media, error) {
	infos, err := filesystem.API().ReadDir(dir)
	if err != nil {
		return nil, err
	}

	infos = lo.Filter(infos, func(info os.FileInfo, _ int) bool {
		return s.visible(info)
	})
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name() < infos[j].Name()
	})

	return lo.Map(infos, func(info os.FileInfo, _ int) *media.Media {
		return s.item(filepath.Join(dir, info.Name()), info)
	}), nil
}

// window serves pages out of a list computed once per operation.
func window(list func(ctx context.Context) ([]*media.Media, error)) fetch.Template {
	var (
		once  sync.Once
		items []*media.Media
		err   error
	)

	return fetch.TemplateFunc(func(ctx context.Context, page fetch.Page) (fetch.Response, error) {
		once.Do(func() {
			items, err = list(ctx)
		})
		if err != nil {
			return nil, err
		}

		start := min(int(page.Start()), len(items))
		end := min(start+int(page.Size), len(items))
		return fetch.Items(items[start:end]), nil
	})
}

func (s *Source) Browse(container *media.Media, opts source.Options, cb source.Callback) fetch.OperationID {
	sink := source.Sink(s, cb)

	if container == nil {
		return s.driver.Browse(opts.Skip, opts.Count, window(func(context.Context) ([]*media.Media, error) {
			return s.rootItems(), nil
		}), sink)
	}

	if !s.within(container.ID) {
		err := fmt.Errorf("%s: %w", container.ID, ErrOutsideRoots)
		return s.driver.Browse(opts.Skip, opts.Count, fetch.Fail(err), sink)
	}

	dir := filepath.Clean(container.ID)
	return s.driver.Browse(opts.Skip, opts.Count, window(func(context.Context) ([]*media.Media, error) {
		return s.entries(dir)
	}), sink)
}

// rootItems lists the roots that exist.
func (s *Source) rootItems() []*media.Media {
	return lo.FilterMap(s.roots, func(root string, _ int) (*media.Media, bool) {
		info, err := filesystem.API().Stat(root)
		if err != nil || !info.IsDir() {
			return nil, false
		}

		m := s.item(root, info)
		m.Title = root
		return m, true
	})
}

// Search walks every root and ranks names matching text.
func (s *Source) Search(text string, opts source.Options, cb source.Callback) fetch.OperationID {
	tmpl := window(func(ctx context.Context) ([]*media.Media, error) {
		return s.walk(ctx, text)
	})
	return s.driver.Search(opts.Skip, opts.Count, tmpl, source.Sink(s, cb))
}

type match struct {
	item     *media.Media
	distance int
}

func (s *Source) walk(ctx context.Context, text string) ([]*media.Media, error) {
	var (
		matches []match
		dirs    util.Stack[string]
	)

	for i := len(s.roots) - 1; i >= 0; i-- {
		dirs.Push(s.roots[i])
	}

	for dirs.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dir := dirs.Pop()
		infos, err := filesystem.API().ReadDir(dir)
		if err != nil {
			continue
		}

		for _, info := range infos {
			if !s.visible(info) {
				continue
			}

			path := filepath.Join(dir, info.Name())
			if info.IsDir() {
				dirs.Push(path)
			}

			if distance := fuzzy.RankMatchNormalizedFold(text, info.Name()); distance >= 0 {
				matches = append(matches, match{item: s.item(path, info), distance: distance})
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].distance != matches[j].distance {
			return matches[i].distance < matches[j].distance
		}
		return matches[i].item.ID < matches[j].item.ID
	})

	return lo.Map(matches, func(m match, _ int) *media.Media {
		return m.item
	}), nil
}

func (s *Source) MayResolve(m *media.Media, _ []media.Key) bool {
	return m != nil && m.Source == ID && s.within(m.ID)
}

func (s *Source) Resolve(ctx context.Context, m *media.Media, keys []media.Key) error {
	if !s.within(m.ID) {
		return fmt.Errorf("%s: %w", m.ID, ErrOutsideRoots)
	}

	path := filepath.Clean(m.ID)
	info, err := filesystem.API().Stat(path)
	if err != nil {
		return err
	}

	resolved := s.item(path, info)
	if info.IsDir() {
		entries, err := s.entries(path)
		if err != nil {
			return err
		}
		resolved.ChildCount = len(entries)
	} else if resolved.Kind == media.Video && m.Hash == "" && lo.Contains(keys, media.KeyHash) {
		hash, err := Hash(path)
		if err != nil {
			log.Warnf("localfs: %v", err)
		}
		resolved.Hash = hash
	}

	m.Merge(resolved)
	return nil
}

func (s *Source) Cancel(op fetch.OperationID) {
	s.driver.Cancel(op)
}

func (s *Source) Close() error {
	return s.driver.Close()
}

// Describe builds the item of the file at path, which need not be below a root.
// Videos carry their movie hash.
func Describe(path string) (*media.Media, error) {
	path = filepath.Clean(path)
	info, err := filesystem.API().Stat(path)
	if err != nil {
		return nil, err
	}

	m := (&Source{}).item(path, info)
	if m.Kind == media.Video {
		if hash, err := Hash(path); err == nil {
			m.Hash = hash
		}
	}
	return m, nil
}
