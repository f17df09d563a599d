package cache

import (
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/trawl-media/trawl/filesystem"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestCache(t *testing.T) {
	Convey("Given an empty cache", t, func() {
		So(Clear(), ShouldBeNil)
		key := Key("https://example.com", "GET")

		Convey("Read should miss", func() {
			var v map[string]int
			So(Read(key, TTL, &v), ShouldBeFalse)
		})

		Convey("Written values should be read back", func() {
			So(Write(key, map[string]int{"a": 1}), ShouldBeNil)

			var v map[string]int
			So(Read(key, TTL, &v), ShouldBeTrue)
			So(v["a"], ShouldEqual, 1)

			Convey("Unless they are older than the ttl", func() {
				old := time.Now().Add(-2 * time.Hour)
				So(filesystem.API().Chtimes(filepath.Join(dir(), key), old, old), ShouldBeNil)
				So(Read(key, time.Hour, &v), ShouldBeFalse)
				So(Prune(time.Hour), ShouldEqual, 1)
			})
		})

		Convey("Keys should be case insensitive and order sensitive", func() {
			So(Key("A", "b"), ShouldEqual, Key("a", "B"))
			So(Key("a", "b"), ShouldNotEqual, Key("b", "a"))
		})
	})
}
