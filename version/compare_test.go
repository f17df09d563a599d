package version

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCompare(t *testing.T) {
	Convey("Compare orders semantic versions", t, func() {
		for _, tc := range []struct {
			a, b string
			want int
		}{
			{"1.2.3", "1.2.3", 0},
			{"v1.2.4", "1.2.3", 1},
			{"0.3.0", "0.10.0", -1},
			{"2.0.0", "1.99.99", 1},
		} {
			got, err := Compare(tc.a, tc.b)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, tc.want)
		}
	})

	Convey("Malformed versions are errors", t, func() {
		_, err := Compare("latest", "1.0.0")
		So(err, ShouldNotBeNil)
	})
}
