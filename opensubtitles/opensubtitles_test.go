package opensubtitles

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/trawl-media/trawl/auth"
	"github.com/trawl-media/trawl/fetch"
	"github.com/trawl-media/trawl/media"
	"github.com/trawl-media/trawl/source"
)

var methodName = regexp.MustCompile(`<methodName>(\w+)</methodName>`)

type fakeAPI struct {
	mu           sync.Mutex
	logins       int
	loginStatus  string
	searchStatus string
	data         string
	searches     []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{loginStatus: statusOK, searchStatus: statusOK, data: "<boolean>0</boolean>"}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	match := methodName.FindSubmatch(body)
	if match == nil {
		http.Error(w, "no method", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var members string
	switch string(match[1]) {
	case "LogIn":
		f.logins++
		members = member("status", "<string>"+f.loginStatus+"</string>") +
			member("token", fmt.Sprintf("<string>tok-%d</string>", f.logins))
	case "SearchSubtitles":
		f.searches = append(f.searches, string(body))
		members = member("status", "<string>"+f.searchStatus+"</string>") + member("data", f.data)
	default:
		http.Error(w, "unknown method", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/xml")
	_, _ = fmt.Fprintf(w, `<?xml version="1.0"?><methodResponse><params><param><value><struct>%s</struct></value></param></params></methodResponse>`, members)
}

func member(name, value string) string {
	return fmt.Sprintf("<member><name>%s</name><value>%s</value></member>", name, value)
}

func subtitle(fields map[string]string) string {
	var b strings.Builder
	b.WriteString("<value><struct>")
	for k, v := range fields {
		b.WriteString(member(k, "<string>"+v+"</string>"))
	}
	b.WriteString("</struct></value>")
	return b.String()
}

func subtitles(records ...map[string]string) string {
	var b strings.Builder
	b.WriteString("<array><data>")
	for _, r := range records {
		b.WriteString(subtitle(r))
	}
	b.WriteString("</data></array>")
	return b.String()
}

func newTestSource(api *fakeAPI) (*Source, func()) {
	srv := httptest.NewServer(api)
	s := New(Config{
		Endpoint:    srv.URL,
		Languages:   []string{"eng", "fre"},
		Credentials: auth.Credentials{User: "user", Password: "secret"},
	})
	return s, func() {
		_ = s.Close()
		srv.Close()
	}
}

func TestSearch(t *testing.T) {
	Convey("Given an opensubtitles server", t, func() {
		api := newFakeAPI()
		api.data = subtitles(
			map[string]string{"IDSubtitleFile": "1", "SubFileName": "Movie.srt", "ISO639": "en", "SubDownloadLink": "http://dl/1.gz", "SubRating": "8.5"},
			map[string]string{"IDSubtitleFile": "2", "SubFileName": "Movie.fr.srt", "ISO639": "fr", "SubDownloadLink": "http://dl/2.gz", "SeriesSeason": "2", "SeriesEpisode": "3", "MovieName": "Show"},
		)
		s, closeAll := newTestSource(api)
		defer closeAll()

		Convey("When searching", func() {
			items, err := source.SearchAll(context.Background(), s, "movie", source.Options{Count: 10})

			Convey("Then it should log in and return every subtitle", func() {
				So(err, ShouldBeNil)
				So(items, ShouldHaveLength, 2)
				So(api.logins, ShouldEqual, 1)
			})

			Convey("Then items should be decoded", func() {
				So(items[0].ID, ShouldEqual, "1")
				So(items[0].Source, ShouldEqual, ID)
				So(items[0].Kind, ShouldEqual, media.Text)
				So(items[0].URL, ShouldEqual, "http://dl/1.srt")
				So(items[0].Rating, ShouldEqual, 8.5)
				So(items[1].Show, ShouldEqual, "Show")
				So(items[1].Season, ShouldEqual, 2)
				So(items[1].Episode, ShouldEqual, 3)
			})

			Convey("Then the request should carry the token and languages", func() {
				So(api.searches, ShouldHaveLength, 1)
				So(api.searches[0], ShouldContainSubstring, "<string>tok-1</string>")
				So(api.searches[0], ShouldContainSubstring, "<string>eng,fre</string>")
			})
		})

		Convey("When searching concurrently", func() {
			var wg sync.WaitGroup
			errs := make([]error, 3)
			for i := range errs {
				i := i
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, errs[i] = source.SearchAll(context.Background(), s, "movie", source.Options{Count: 10})
				}()
			}
			wg.Wait()

			Convey("Then a single login should serve every operation", func() {
				for _, err := range errs {
					So(err, ShouldBeNil)
				}
				So(api.logins, ShouldEqual, 1)
			})
		})

		Convey("When nothing matches", func() {
			api.data = "<boolean>0</boolean>"
			items, err := source.SearchAll(context.Background(), s, "nothing", source.Options{Count: 10})

			Convey("Then the result should be empty", func() {
				So(err, ShouldBeNil)
				So(items, ShouldBeEmpty)
			})
		})

		Convey("When the login is rejected", func() {
			api.loginStatus = "401 Unauthorized"
			_, err := source.SearchAll(context.Background(), s, "movie", source.Options{Count: 10})

			Convey("Then the operation should fail with an auth error", func() {
				So(errors.Is(err, fetch.ErrAuth), ShouldBeTrue)
			})
		})

		Convey("When the session expires", func() {
			_, err := source.SearchAll(context.Background(), s, "movie", source.Options{Count: 10})
			So(err, ShouldBeNil)

			api.searchStatus = "401 Unauthorized"
			_, err = source.SearchAll(context.Background(), s, "movie", source.Options{Count: 10})

			Convey("Then the search should fail with an auth error", func() {
				So(errors.Is(err, fetch.ErrAuth), ShouldBeTrue)
			})

			Convey("Then the next search should log in again", func() {
				api.searchStatus = statusOK
				_, err = source.SearchAll(context.Background(), s, "movie", source.Options{Count: 10})
				So(err, ShouldBeNil)
				So(api.logins, ShouldEqual, 2)
			})
		})

		Convey("When the server reports another status", func() {
			api.searchStatus = "503 Service Unavailable"
			_, err := source.SearchAll(context.Background(), s, "movie", source.Options{Count: 10})

			Convey("Then the search should fail with a transport error", func() {
				So(errors.Is(err, fetch.ErrTransport), ShouldBeTrue)
			})
		})
	})
}

func TestResolve(t *testing.T) {
	Convey("Given an opensubtitles server with several candidates", t, func() {
		api := newFakeAPI()
		api.data = subtitles(
			map[string]string{"ISO639": "en", "SubDownloadLink": "http://dl/en-plain.gz", "SubDownloadsCnt": "1000"},
			map[string]string{"ISO639": "en", "SubDownloadLink": "http://dl/en-hash.gz", "MatchedBy": "moviehash", "SubDownloadsCnt": "5"},
			map[string]string{"ISO639": "fr", "SubDownloadLink": "http://dl/fr-few.gz", "MatchedBy": "tag", "SubDownloadsCnt": "1"},
			map[string]string{"ISO639": "fr", "SubDownloadLink": "http://dl/fr-many.gz", "MatchedBy": "tag", "SubDownloadsCnt": "10"},
			map[string]string{"ISO639": "de", "SubDownloadLink": "http://dl/de.gz", "UserRank": "trusted"},
		)
		s, closeAll := newTestSource(api)
		defer closeAll()

		video := &media.Media{ID: "v", Kind: media.Video, Hash: "8e245d9679d31e12", Size: 12909756}

		Convey("Then it may resolve hashed videos only", func() {
			So(s.MayResolve(video, []media.Key{media.KeySubtitles}), ShouldBeTrue)
			So(s.MayResolve(video, []media.Key{media.KeyTitle}), ShouldBeFalse)
			So(s.MayResolve(&media.Media{Kind: media.Video}, nil), ShouldBeFalse)
		})

		Convey("When resolving", func() {
			err := s.Resolve(context.Background(), video, []media.Key{media.KeySubtitles})
			So(err, ShouldBeNil)

			Convey("Then the best subtitle of each language should be kept", func() {
				So(video.Subtitles, ShouldHaveLength, 3)
				So(video.Subtitles[0].Language, ShouldEqual, "de")
				So(video.Subtitles[0].Score, ShouldEqual, scoreTrusted)
				So(video.Subtitles[1].URL, ShouldEqual, "http://dl/en-hash.srt")
				So(video.Subtitles[2].URL, ShouldEqual, "http://dl/fr-many.srt")
			})

			Convey("Then the request should carry the hash and size", func() {
				So(api.searches[0], ShouldContainSubstring, "<string>8e245d9679d31e12</string>")
				So(api.searches[0], ShouldContainSubstring, "<string>12909756</string>")
			})
		})
	})

	Convey("Given subtitles of several episodes", t, func() {
		api := newFakeAPI()
		api.data = subtitles(
			map[string]string{"ISO639": "en", "SubDownloadLink": "http://dl/s1e1", "SeriesSeason": "1", "SeriesEpisode": "1"},
			map[string]string{"ISO639": "fr", "SubDownloadLink": "http://dl/s1e2", "SeriesSeason": "1", "SeriesEpisode": "2"},
		)
		s, closeAll := newTestSource(api)
		defer closeAll()

		episode := &media.Media{Kind: media.Video, Hash: "abc", Size: 10, Show: "Show", Season: 1, Episode: 2}

		Convey("When resolving an episode", func() {
			So(s.Resolve(context.Background(), episode, nil), ShouldBeNil)

			Convey("Then only subtitles of that episode should be kept", func() {
				So(episode.Subtitles, ShouldHaveLength, 1)
				So(episode.Subtitles[0].URL, ShouldEqual, "http://dl/s1e2")
			})
		})
	})
}

func TestFixupURL(t *testing.T) {
	Convey("Gzipped links should point at srt files", t, func() {
		So(fixupURL("http://x/a.gz"), ShouldEqual, "http://x/a.srt")
		So(fixupURL("http://x/a.zip"), ShouldEqual, "http://x/a.zip")
	})
}
