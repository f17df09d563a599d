package cacher

import (
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/trawl-media/trawl/filesystem"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestCacher(t *testing.T) {
	Convey("Given a cacher with normalized keys", t, func() {
		c := New[string, int]("/cache/test.json", time.Hour, strings.ToLower)
		_ = c.Delete("Dune")

		Convey("Missing keys should be absent", func() {
			So(c.Get("dune").IsAbsent(), ShouldBeTrue)
		})

		Convey("Values should be found through any spelling of the key", func() {
			So(c.Set("Dune", 438631), ShouldBeNil)
			So(c.Get("DUNE").MustGet(), ShouldEqual, 438631)

			Convey("And be removable", func() {
				So(c.Delete("dune"), ShouldBeNil)
				So(c.Get("dune").IsAbsent(), ShouldBeTrue)
			})
		})
	})
}
