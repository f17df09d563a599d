package vimeo

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

// fakeAPI serves total search results and records the requested pages.
type fakeAPI struct {
	mu    sync.Mutex
	total int
	pages []int
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "bearer secret" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if id, ok := strings.CutPrefix(r.URL.Path, "/videos/"); ok {
		_, _ = fmt.Fprint(w, videoJSON(id))
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	f.mu.Lock()
	f.pages = append(f.pages, page)
	f.mu.Unlock()

	var videos []string
	for i := (page - 1) * perPage; i < min(page*perPage, f.total); i++ {
		videos = append(videos, videoJSON(strconv.Itoa(i)))
	}
	_, _ = fmt.Fprintf(w, `{"total": %d, "data": [%s]}`, f.total, strings.Join(videos, ","))
}

func videoJSON(id string) string {
	return fmt.Sprintf(`{
		"uri": "/videos/%[1]s",
		"name": "Video %[1]s",
		"description": "About %[1]s",
		"link": "https://vimeo.com/%[1]s",
		"duration": 90,
		"width": 1920,
		"height": 1080,
		"created_time": "2020-05-01T10:00:00+00:00",
		"user": {"name": "Someone"},
		"pictures": {"sizes": [{"width": 100, "link": "small.jpg"}, {"width": 640, "link": "large.jpg"}]},
		"tags": [{"name": "nature"}]
	}`, id)
}

func TestSearch(t *testing.T) {
	Convey("Given a Vimeo server with 120 results", t, func() {
		api := &fakeAPI{total: 120}
		srv := httptest.NewServer(api)
		defer srv.Close()

		s := New(Config{Endpoint: srv.URL, Token: "secret"})
		defer s.Close()

		Convey("When searching for 60 items from 40", func() {
			var (
				hints []int
				done  = make(chan struct{})
			)
			s.Search("nature", source.Options{Skip: 40, Count: 60}, func(_ source.Source, _ fetch.OperationID, m *media.Media, remaining int, err error) {
				hints = append(hints, remaining)
				if remaining == 0 || err != nil {
					close(done)
				}
			})
			<-done

			Convey("Then pages 1 and 2 of 50 should be requested", func() {
				So(api.pages, ShouldResemble, []int{1, 2})
			})

			Convey("Then non-final items should carry an unknown hint", func() {
				So(hints, ShouldHaveLength, 60)
				So(hints[0], ShouldEqual, -1)
				So(hints[58], ShouldEqual, -1)
				So(hints[59], ShouldEqual, 0)
			})
		})

		Convey("When collecting a search", func() {
			items, err := source.SearchAll(context.Background(), s, "nature", source.Options{Count: 2})

			Convey("Then videos should be decoded", func() {
				So(err, ShouldBeNil)
				So(items, ShouldHaveLength, 2)

				v := items[0]
				So(v.ID, ShouldEqual, "0")
				So(v.Source, ShouldEqual, ID)
				So(v.Kind, ShouldEqual, media.Video)
				So(v.Title, ShouldEqual, "Video 0")
				So(v.Duration, ShouldEqual, 90*time.Second)
				So(v.Thumbnail, ShouldEqual, "large.jpg")
				So(v.Author, ShouldEqual, "Someone")
				So(v.Keywords, ShouldResemble, []string{"nature"})
				So(v.Published.Year(), ShouldEqual, 2020)
			})
		})

		Convey("When the token is missing", func() {
			s := New(Config{Endpoint: srv.URL})
			defer s.Close()

			_, err := source.SearchAll(context.Background(), s, "nature", source.Options{Count: 2})

			Convey("Then the operation should fail with an auth error", func() {
				So(errors.Is(err, fetch.ErrAuth), ShouldBeTrue)
				So(errors.Is(err, ErrNoToken), ShouldBeTrue)
			})
		})

		Convey("When the token is rejected", func() {
			s := New(Config{Endpoint: srv.URL, Token: "wrong"})
			defer s.Close()

			_, err := source.SearchAll(context.Background(), s, "nature", source.Options{Count: 2})

			Convey("Then the operation should fail with an auth error", func() {
				So(errors.Is(err, fetch.ErrAuth), ShouldBeTrue)
			})
		})
	})
}

func TestResolve(t *testing.T) {
	Convey("Given a Vimeo server", t, func() {
		srv := httptest.NewServer(&fakeAPI{})
		defer srv.Close()

		s := New(Config{Endpoint: srv.URL, Token: "secret"})
		defer s.Close()

		Convey("When resolving a video by id", func() {
			m := &media.Media{ID: "42", Source: ID, Title: "Kept"}
			So(s.MayResolve(m, nil), ShouldBeTrue)
			So(s.Resolve(context.Background(), m, nil), ShouldBeNil)

			Convey("Then missing fields should be filled", func() {
				So(m.Title, ShouldEqual, "Kept")
				So(m.Description, ShouldEqual, "About 42")
				So(m.Width, ShouldEqual, 1920)
				So(m.URL, ShouldEqual, "https://vimeo.com/42")
			})
		})

		Convey("Then items of other sources may not be resolved", func() {
			So(s.MayResolve(&media.Media{ID: "1", Source: "flickr"}, nil), ShouldBeFalse)
		})
	})
}
