package jamendo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/trawl-media/trawl/fetch"
	"github.com/trawl-media/trawl/media"
	"github.com/trawl-media/trawl/source"
)

// fakeAPI has 3 artists with 2 albums each and 12 tracks per album.
type fakeAPI struct {
	mu   sync.Mutex
	urls []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.urls = append(f.urls, r.URL.String())
	f.mu.Unlock()

	// /{fields}/{unit}/xml/{joins}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 3 || parts[2] != "xml" {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	var ids []string

	switch unit := parts[1]; {
	case q.Has("id"):
		ids = append(ids, q.Get("id"))
	case unit == "artist":
		for i := 1; i <= 3; i++ {
			ids = append(ids, strconv.Itoa(i))
		}
	case unit == "album":
		for i := 1; i <= 2; i++ {
			ids = append(ids, q.Get("artist_id")+strconv.Itoa(i))
		}
	case unit == "track":
		total := 12
		if q.Has("searchquery") {
			total = 0
			if q.Get("searchquery") == "rain" {
				total = 5
			}
		}
		for i := 0; i < total; i++ {
			ids = append(ids, strconv.Itoa(i))
		}
	}

	if n, err := strconv.Atoi(q.Get("n")); err == nil && n > 0 {
		pn, _ := strconv.Atoi(q.Get("pn"))
		from := min(max(pn-1, 0)*n, len(ids))
		ids = ids[from:min(from+n, len(ids))]
	}

	var entries []string
	for _, id := range ids {
		entries = append(entries, element(parts[1], id))
	}

	w.Header().Set("Content-Type", "text/xml")
	_, _ = fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><data>%s</data>`, strings.Join(entries, ""))
}

func element(unit, id string) string {
	return fmt.Sprintf(`<%[1]s>
		<id>%[2]s</id>
		<artist_name>Artist %[2]s</artist_name>
		<artist_genre>rock</artist_genre>
		<album_name>Album %[2]s</album_name>
		<album_genre>jazz</album_genre>
		<album_image>cover.jpg</album_image>
		<album_duration>1800</album_duration>
		<track_name>Track %[2]s</track_name>
		<track_stream>http://stream/%[2]s.mp3</track_stream>
		<track_url>http://jamendo/track/%[2]s</track_url>
		<track_duration></track_duration>
	</%[1]s>`, unit, id)
}

func TestParseQuery(t *testing.T) {
	Convey("Queries should be split by category", t, func() {
		c, term := ParseQuery("artist=Shake")
		So(c, ShouldEqual, Artist)
		So(term, ShouldEqual, "Shake")

		c, term = ParseQuery("album=Rain")
		So(c, ShouldEqual, Album)
		So(term, ShouldEqual, "Rain")

		c, term = ParseQuery("just text")
		So(c, ShouldEqual, Track)
		So(term, ShouldEqual, "just text")
	})
}

func TestBrowse(t *testing.T) {
	Convey("Given a Jamendo server", t, func() {
		api := &fakeAPI{}
		srv := httptest.NewServer(api)
		defer srv.Close()

		s := New(Config{Endpoint: srv.URL})
		defer s.Close()

		ctx := context.Background()
		opts := source.Options{Count: 50}

		Convey("When browsing the root", func() {
			root, err := source.BrowseAll(ctx, s, nil, opts)

			Convey("Then artists and albums should be listed without a request", func() {
				So(err, ShouldBeNil)
				So(root, ShouldHaveLength, 2)
				So(root[0].ID, ShouldEqual, ArtistsID)
				So(root[1].ID, ShouldEqual, AlbumsID)
				So(api.urls, ShouldBeEmpty)
			})
		})

		Convey("When walking from artists to tracks", func() {
			artists, err := source.BrowseAll(ctx, s, media.NewContainer(ID, ArtistsID, "Artists"), opts)
			So(err, ShouldBeNil)
			So(artists, ShouldHaveLength, 3)
			So(artists[0].ID, ShouldEqual, "artist/1")
			So(artists[0].IsContainer(), ShouldBeTrue)

			albums, err := source.BrowseAll(ctx, s, artists[0], opts)
			So(err, ShouldBeNil)
			So(albums, ShouldHaveLength, 2)
			So(albums[0].ID, ShouldEqual, "album/11")
			So(albums[0].Duration, ShouldEqual, 30*time.Minute)

			tracks, err := source.BrowseAll(ctx, s, albums[0], source.Options{Skip: 10, Count: 50})

			Convey("Then the tracks after the skip should be returned", func() {
				So(err, ShouldBeNil)
				So(tracks, ShouldHaveLength, 2)
				So(tracks[0].ID, ShouldEqual, "track/10")
				So(tracks[0].Kind, ShouldEqual, media.Audio)
				So(tracks[0].URL, ShouldEqual, "http://stream/10.mp3")
				So(tracks[0].Album, ShouldEqual, "Album 10")
			})

			Convey("Then the album filter and joins should be sent", func() {
				last := api.urls[len(api.urls)-1]
				So(last, ShouldContainSubstring, "/track/xml/album_artist+track_album/")
				So(last, ShouldContainSubstring, "album_id=11")
			})
		})

		Convey("When browsing a track", func() {
			_, err := source.BrowseAll(ctx, s, &media.Media{ID: "track/1", Source: ID}, opts)

			Convey("Then it should be unsupported", func() {
				So(errors.Is(err, source.ErrUnsupported), ShouldBeTrue)
			})
		})

		Convey("When browsing an unknown id", func() {
			_, err := source.BrowseAll(ctx, s, &media.Media{ID: "bogus", Source: ID}, opts)

			Convey("Then it should fail", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, fetch.ErrCancelled), ShouldBeFalse)
			})
		})
	})
}

func TestSearchAndResolve(t *testing.T) {
	Convey("Given a Jamendo server", t, func() {
		api := &fakeAPI{}
		srv := httptest.NewServer(api)
		defer srv.Close()

		s := New(Config{Endpoint: srv.URL})
		defer s.Close()

		ctx := context.Background()

		Convey("When searching tracks", func() {
			tracks, err := source.SearchAll(ctx, s, "rain", source.Options{Count: 50})

			Convey("Then matching tracks should be returned", func() {
				So(err, ShouldBeNil)
				So(tracks, ShouldHaveLength, 5)
				So(api.urls[0], ShouldContainSubstring, "searchquery=rain")
			})
		})

		Convey("When searching artists", func() {
			_, err := source.SearchAll(ctx, s, "artist=Shake", source.Options{Count: 50})

			Convey("Then the artist unit should be queried", func() {
				So(err, ShouldBeNil)
				So(api.urls[0], ShouldContainSubstring, "/artist/xml/")
				So(api.urls[0], ShouldContainSubstring, "searchquery=Shake")
			})
		})

		Convey("When resolving a track", func() {
			m := &media.Media{ID: "track/7", Source: ID}
			So(s.MayResolve(m, nil), ShouldBeTrue)
			So(s.Resolve(ctx, m, nil), ShouldBeNil)

			Convey("Then the track should be filled", func() {
				So(m.Title, ShouldEqual, "Track 7")
				So(m.Artist, ShouldEqual, "Artist 7")
				So(m.Genre, ShouldEqual, "jazz")
				So(m.Duration, ShouldEqual, 0)
			})
		})

		Convey("Then ids without a category may not be resolved", func() {
			So(s.MayResolve(&media.Media{ID: "artists", Source: ID}, nil), ShouldBeFalse)
		})
	})
}
