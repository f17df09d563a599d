package query

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/trawl-media/trawl/filesystem"
	"github.com/trawl-media/trawl/key"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestQuery(t *testing.T) {
	Convey("Given query history", t, func() {
		viper.Set(key.SearchShowQuerySuggestions, true)
		viper.Set(key.SearchRememberQueries, true)
		So(Forget(), ShouldBeNil)

		Convey("When remembering queries", func() {
			So(Remember("Blue Planet", 1), ShouldBeNil)
			So(Remember("blueberry pie", 10), ShouldBeNil)
			So(Remember("  ", 5), ShouldBeNil)

			Convey("Then suggestions should be sorted by rank", func() {
				So(SuggestMany("blu"), ShouldResemble, []string{"blueberry pie", "blue planet"})
			})

			Convey("Then the best suggestion should be returned", func() {
				So(Suggest("bpl").OrEmpty(), ShouldEqual, "blue planet")
			})

			Convey("And remembering an existing query again", func() {
				So(Remember("blue planet", 20), ShouldBeNil)

				Convey("Then its rank should grow", func() {
					So(SuggestMany("blu")[0], ShouldEqual, "blue planet")
				})
			})

			Convey("And forgetting the history", func() {
				So(Forget(), ShouldBeNil)

				Convey("Then nothing should be suggested", func() {
					So(SuggestMany("blu"), ShouldBeEmpty)
				})
			})
		})

		Convey("When remembering is disabled", func() {
			viper.Set(key.SearchRememberQueries, false)
			So(Remember("secret", 1), ShouldBeNil)

			Convey("Then the query should not be suggested", func() {
				So(SuggestMany("sec"), ShouldBeEmpty)
			})
		})

		Convey("When suggestions are disabled", func() {
			So(Remember("documentary", 1), ShouldBeNil)
			viper.Set(key.SearchShowQuerySuggestions, false)

			Convey("Then nothing should be suggested", func() {
				So(SuggestMany("doc"), ShouldBeEmpty)
			})
		})

		Convey("It sanitizes input", func() {
			So(sanitize("  NARUTO  "), ShouldEqual, "naruto")
		})
	})
}
