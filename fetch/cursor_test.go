package fetch

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNewCursor(t *testing.T) {
	Convey("NewCursor", t, func() {
		Convey("Should locate the page and offset for any window", func() {
			for _, size := range []uint32{1, 3, 20, 100} {
				for skip := uint32(0); skip < 250; skip += 7 {
					c := NewCursor(skip, 10, size)
					So(c.Page(), ShouldEqual, 1+skip/size)
					So(c.Offset(), ShouldEqual, skip%size)
					So(c.Offset(), ShouldBeLessThan, size)
					So(c.Remaining(), ShouldEqual, 10)
				}
			}
		})

		Convey("Should reject a zero page size", func() {
			So(func() { NewCursor(0, 1, 0) }, ShouldPanic)
		})
	})
}

func TestConsume(t *testing.T) {
	Convey("Given a cursor at skip=99 count=2 size=100", t, func() {
		c := NewCursor(99, 2, 100)

		Convey("The first page should yield one item past the offset", func() {
			So(c.Consume(100), ShouldEqual, 1)
			So(c.Remaining(), ShouldEqual, 1)

			Convey("And the next page should start at offset zero", func() {
				c.Advance()
				So(c.Page(), ShouldEqual, 2)
				So(c.Offset(), ShouldEqual, 0)
				So(c.Consume(100), ShouldEqual, 1)
				So(c.Remaining(), ShouldEqual, 0)
			})
		})

		Convey("A page shorter than the offset should yield nothing", func() {
			So(c.Consume(50), ShouldEqual, 0)
			So(c.Remaining(), ShouldEqual, 2)
		})
	})

	Convey("Summed consumption should equal min(count, available-skip)", t, func() {
		for _, tc := range []struct{ skip, count, size, total uint32 }{
			{0, 5, 100, 5},
			{0, 10, 3, 7},
			{4, 10, 3, 7},
			{8, 10, 3, 7},
			{0, 0, 10, 50},
			{13, 100, 10, 1000},
		} {
			c := NewCursor(tc.skip, tc.count, tc.size)
			var sum uint32
			for c.Remaining() > 0 {
				start := (c.Page() - 1) * tc.size
				var pageLen uint32
				if start < tc.total {
					pageLen = min(tc.size, tc.total-start)
				}
				sum += c.Consume(pageLen)
				if pageLen == 0 {
					break
				}
				c.Advance()
			}

			var want uint32
			if tc.total > tc.skip {
				want = min(tc.count, tc.total-tc.skip)
			}
			So(sum, ShouldEqual, want)
		}
	})
}

func TestHint(t *testing.T) {
	Convey("Hint", t, func() {
		Convey("Should encode to the integer sentinel", func() {
			So(Exact(3).Int(), ShouldEqual, 3)
			So(Last.Int(), ShouldEqual, 0)
			So(Unknown.Int(), ShouldEqual, -1)
		})

		Convey("Exact(0) should be Last", func() {
			So(Exact(0).IsLast(), ShouldBeTrue)
		})

		Convey("Should decode from the integer sentinel", func() {
			So(HintFromInt(7), ShouldResemble, Exact(7))
			So(HintFromInt(0), ShouldResemble, Last)
			So(HintFromInt(-1), ShouldResemble, Unknown)
			So(HintFromInt(-42).IsUnknown(), ShouldBeTrue)
		})
	})
}
