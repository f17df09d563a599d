// Package jamendo browses and searches the free music catalog of jamendo.com.
//
// The catalog is a hierarchy: the root holds the "artists" and "albums" containers,
// an artist holds albums and an album holds tracks.
package jamendo

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"github.com/trawl-media/trawl/fetch"
	"github.com/trawl-media/trawl/media"
	"github.com/trawl-media/trawl/network"
	"github.com/trawl-media/trawl/source"
)

const (
	ID = "jamendo"

	DefaultEndpoint = "https://api.jamendo.com/get2"

	pageSize = 100
)

// Category is the kind of entity a request lists.
type Category string

const (
	Artist Category = "artist"
	Album  Category = "album"
	Track  Category = "track"
)

const (
	artistFields = "artist_name+artist_genre+artist_image+artist_url"
	albumFields  = "album_name+album_genre+album_image+album_url+album_duration"
	trackFields  = "track_name+track_stream+track_url+track_duration"
)

// fields returns the requested fields and the joins of a category.
func (c Category) fields() (fields, joins string) {
	switch c {
	case Album:
		return "id+" + artistFields + "+" + albumFields, "album_artist/"
	case Track:
		return "id+" + artistFields + "+" + albumFields + "+" + trackFields, "album_artist+track_album/"
	default:
		return "id+" + artistFields, ""
	}
}

// Container ids of the hierarchy.
const (
	ArtistsID = "artists"
	AlbumsID  = "albums"
)

type Config struct {
	Endpoint string
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
			Hints:    fetch.HintExact,
		}),
	}
}

func (s *Source) ID() string { return ID }

func (s *Source) Name() string { return "Jamendo" }

func (s *Source) Description() string {
	return "Free music from jamendo.com"
}

func (s *Source) SupportedKeys() []media.Key {
	return []media.Key{
		media.KeyID, media.KeyTitle, media.KeyArtist, media.KeyAlbum, media.KeyGenre,
		media.KeyURL, media.KeyDuration, media.KeyThumbnail, media.KeySite,
	}
}

func (s *Source) endpoint(c Category, query url.Values) string {
	fields, joins := c.fields()
	return fmt.Sprintf("%s/%s/%s/xml/%s?%s", s.config.Endpoint, fields, c, joins, query.Encode())
}

func (s *Source) list(c Category, filter url.Values) fetch.Template {
	return fetch.TemplateFunc(func(ctx context.Context, page fetch.Page) (fetch.Response, error) {
		query := url.Values{
			"n":  {fmt.Sprint(page.Size)},
			"pn": {fmt.Sprint(page.Number)},
		}
		for k, v := range filter {
			query[k] = v
		}

		data, err := network.Get(ctx, s.endpoint(c, query), nil)
		if err != nil {
			return nil, err
		}

		return fetch.DecodeFunc(func() ([]*media.Media, error) {
			return decode(data)
		}), nil
	})
}

// Browse walks the hierarchy. Tracks are not containers and have no children.
func (s *Source) Browse(container *media.Media, opts source.Options, cb source.Callback) fetch.OperationID {
	sink := source.Sink(s, cb)

	if container == nil {
		root := fetch.TemplateFunc(func(_ context.Context, page fetch.Page) (fetch.Response, error) {
			if page.Number > 1 {
				return fetch.Items(nil), nil
			}
			return fetch.Items{
				media.NewContainer(ID, ArtistsID, "Artists"),
				media.NewContainer(ID, AlbumsID, "Albums"),
			}, nil
		})
		return s.driver.Browse(opts.Skip, opts.Count, root, sink)
	}

	tmpl, err := s.children(container.ID)
	if err != nil {
		tmpl = fetch.Fail(err)
	}
	return s.driver.Browse(opts.Skip, opts.Count, tmpl, sink)
}

func (s *Source) children(id string) (fetch.Template, error) {
	switch id {
	case ArtistsID:
		return s.list(Artist, nil), nil
	case AlbumsID:
		return s.list(Album, nil), nil
	}

	category, entity, ok := splitID(id)
	switch {
	case !ok:
		return nil, fmt.Errorf("invalid jamendo id %q", id)
	case category == Artist:
		return s.list(Album, url.Values{"artist_id": {entity}}), nil
	case category == Album:
		return s.list(Track, url.Values{"album_id": {entity}}), nil
	default:
		return nil, source.ErrUnsupported
	}
}

// ParseQuery splits "artist=x", "album=x" and "track=x" queries. Other text searches tracks.
func ParseQuery(text string) (Category, string) {
	for _, c := range []Category{Artist, Album, Track} {
		if term, ok := strings.CutPrefix(text, string(c)+"="); ok {
			return c, term
		}
	}
	return Track, text
}

func (s *Source) Search(text string, opts source.Options, cb source.Callback) fetch.OperationID {
	category, term := ParseQuery(text)
	return s.driver.Search(opts.Skip, opts.Count, s.list(category, url.Values{"searchquery": {term}}), source.Sink(s, cb))
}

func (s *Source) MayResolve(m *media.Media, _ []media.Key) bool {
	if m == nil || m.Source != ID {
		return false
	}
	_, _, ok := splitID(m.ID)
	return ok
}

func (s *Source) Resolve(ctx context.Context, m *media.Media, _ []media.Key) error {
	category, entity, ok := splitID(m.ID)
	if !ok {
		return source.ErrUnsupported
	}

	data, err := network.Get(ctx, s.endpoint(category, url.Values{"id": {entity}}), nil)
	if err != nil {
		return err
	}

	items, err := decode(data)
	if err != nil {
		return fetch.DecodeError(err)
	}
	if len(items) == 0 {
		return fetch.DecodeError(fmt.Errorf("jamendo %s %s not found", category, entity))
	}

	m.Merge(items[0])
	return nil
}

func (s *Source) Cancel(op fetch.OperationID) {
	s.driver.Cancel(op)
}

func (s *Source) Close() error {
	return s.driver.Close()
}

func itemID(c Category, id string) string {
	return string(c) + "/" + id
}

func splitID(id string) (Category, string, bool) {
	category, entity, ok := strings.Cut(id, "/")
	if !ok || entity == "" {
		return "", "", false
	}

	switch c := Category(category); c {
	case Artist, Album, Track:
		return c, entity, true
	default:
		return "", "", false
	}
}

type entry struct {
	XMLName xml.Name

	ID            string `xml:"id"`
	ArtistName    string `xml:"artist_name"`
	ArtistGenre   string `xml:"artist_genre"`
	ArtistImage   string `xml:"artist_image"`
	ArtistURL     string `xml:"artist_url"`
	AlbumName     string `xml:"album_name"`
	AlbumGenre    string `xml:"album_genre"`
	AlbumImage    string `xml:"album_image"`
	AlbumURL      string `xml:"album_url"`
	AlbumDuration string `xml:"album_duration"`
	TrackName     string `xml:"track_name"`
	TrackStream   string `xml:"track_stream"`
	TrackURL      string `xml:"track_url"`
	TrackDuration string `xml:"track_duration"`
}

type document struct {
	Entries []entry `xml:",any"`
}
