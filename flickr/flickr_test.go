package flickr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/trawl-media/trawl/fetch"
	"github.com/trawl-media/trawl/media"
	"github.com/trawl-media/trawl/source"
)

// fakeAPI knows 150 photos tagged "spring".
type fakeAPI struct{}

func (fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	w.Header().Set("Content-Type", "application/json")

	if q.Get("api_key") != "key" {
		_, _ = fmt.Fprint(w, `{"stat": "fail", "code": 100, "message": "Invalid API Key (Key has invalid format)"}`)
		return
	}

	switch q.Get("method") {
	case "flickr.tags.getHotList":
		_, _ = fmt.Fprint(w, `{"hottags": {"period": "day", "count": 2, "tag": [{"_content": "spring"}, {"_content": "sea"}]}, "stat": "ok"}`)
	case "flickr.photos.search":
		if q.Get("tags") != "spring" && q.Get("text") != "spring" {
			_, _ = fmt.Fprint(w, `{"photos": {"page": 1, "pages": 0, "total": 0, "photo": []}, "stat": "ok"}`)
			return
		}

		page, _ := strconv.Atoi(q.Get("page"))
		perPage, _ := strconv.Atoi(q.Get("per_page"))
		pages := (150 + perPage - 1) / perPage

		var photos []string
		for i := (page - 1) * perPage; i < min(page*perPage, 150); i++ {
			photos = append(photos, fmt.Sprintf(`{"id": "%d", "secret": "s", "server": "7", "title": "Photo %d", "media": "photo", "datetaken": "2011-03-04 05:06:07", "ownername": "owner", "url_o": "https://o/%d.jpg", "width_o": "800", "height_o": 600}`, i, i, i))
		}
		_, _ = fmt.Fprintf(w, `{"photos": {"page": %d, "pages": %d, "perpage": %d, "total": "150", "photo": [%s]}, "stat": "ok"}`, page, pages, perPage, strings.Join(photos, ","))
	case "flickr.photos.getInfo":
		_, _ = fmt.Fprintf(w, `{"photo": {
			"id": "%s", "secret": "s", "server": "7", "originalsecret": "os", "originalformat": "png", "media": "photo",
			"title": {"_content": "Blossom"}, "description": {"_content": "Cherry trees"},
			"dates": {"taken": "2011-03-04 05:06:07"}, "owner": {"username": "nick", "realname": ""},
			"urls": {"url": [{"type": "photopage", "_content": "https://flickr.com/photos/nick/1"}]},
			"tags": {"tag": [{"raw": "Spring"}, {"raw": "Tree"}]}
		}, "stat": "ok"}`, q.Get("photo_id"))
	default:
		_, _ = fmt.Fprint(w, `{"stat": "fail", "code": 112, "message": "Method not found"}`)
	}
}

func TestFlickr(t *testing.T) {
	Convey("Given a Flickr server", t, func() {
		srv := httptest.NewServer(fakeAPI{})
		defer srv.Close()

		s := New(Config{Endpoint: srv.URL, APIKey: "key"})
		defer s.Close()

		ctx := context.Background()

		Convey("When browsing the root", func() {
			tags, err := source.BrowseAll(ctx, s, nil, source.Options{Count: 10})

			Convey("Then hot tags should be listed as containers", func() {
				So(err, ShouldBeNil)
				So(tags, ShouldHaveLength, 2)
				So(tags[0].IsContainer(), ShouldBeTrue)
				So(tags[0].ID, ShouldEqual, "spring")
			})

			Convey("And browsing a tag", func() {
				photos, err := source.BrowseAll(ctx, s, tags[0], source.Options{Skip: 90, Count: 100})

				Convey("Then the photos after the skip should be returned", func() {
					So(err, ShouldBeNil)
					So(photos, ShouldHaveLength, 60)
					So(photos[0].ID, ShouldEqual, "90")
					So(photos[59].ID, ShouldEqual, "149")
				})

				Convey("Then photos should be decoded", func() {
					p := photos[0]
					So(p.Kind, ShouldEqual, media.Image)
					So(p.Source, ShouldEqual, ID)
					So(p.URL, ShouldEqual, "https://o/90.jpg")
					So(p.Thumbnail, ShouldEqual, "https://live.staticflickr.com/7/90_s_t.jpg")
					So(p.Width, ShouldEqual, 800)
					So(p.Height, ShouldEqual, 600)
					So(p.Published.Year(), ShouldEqual, 2011)
				})
			})
		})

		Convey("When searching for an unknown text", func() {
			photos, err := source.SearchAll(ctx, s, "winter", source.Options{Count: 10})

			Convey("Then the result should be empty", func() {
				So(err, ShouldBeNil)
				So(photos, ShouldBeEmpty)
			})
		})

		Convey("When resolving a photo", func() {
			m := &media.Media{ID: "1", Source: ID}
			So(s.MayResolve(m, nil), ShouldBeTrue)
			So(s.Resolve(ctx, m, nil), ShouldBeNil)

			Convey("Then the photo details should be filled", func() {
				So(m.Title, ShouldEqual, "Blossom")
				So(m.Description, ShouldEqual, "Cherry trees")
				So(m.Author, ShouldEqual, "nick")
				So(m.URL, ShouldEqual, "https://live.staticflickr.com/7/1_os_o.png")
				So(m.Site, ShouldEqual, "https://flickr.com/photos/nick/1")
				So(m.Keywords, ShouldResemble, []string{"Spring", "Tree"})
			})
		})

		Convey("When the api key is rejected", func() {
			s := New(Config{Endpoint: srv.URL, APIKey: "bad"})
			defer s.Close()

			_, err := source.SearchAll(ctx, s, "spring", source.Options{Count: 10})

			Convey("Then the operation should fail with a transport error", func() {
				So(errors.Is(err, fetch.ErrTransport), ShouldBeTrue)

				var apiErr *APIError
				So(errors.As(err, &apiErr), ShouldBeTrue)
				So(apiErr.Code, ShouldEqual, 100)
			})
		})

		Convey("When the api key is missing", func() {
			s := New(Config{Endpoint: srv.URL})
			defer s.Close()

			_, err := source.BrowseAll(ctx, s, nil, source.Options{Count: 10})

			Convey("Then the operation should fail with an auth error", func() {
				So(errors.Is(err, fetch.ErrAuth), ShouldBeTrue)
			})
		})
	})
}
