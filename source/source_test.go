package source

import (
	"context"
	"errors"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/trawl-media/trawl/constant"
	"github.com/trawl-media/trawl/fetch"
	"github.com/trawl-media/trawl/media"
)

// numbers is a searcher over the integers 0..total-1.
type numbers struct {
	driver *fetch.Driver
	total  int
}

func (n *numbers) ID() string                  { return "numbers" }
func (n *numbers) Name() string                { return "Numbers" }
func (n *numbers) Description() string         { return "" }
func (n *numbers) SupportedKeys() []media.Key  { return []media.Key{media.KeyID} }
func (n *numbers) Cancel(op fetch.OperationID) { n.driver.Cancel(op) }

func (n *numbers) Search(text string, opts Options, cb Callback) fetch.OperationID {
	if text == "fail" {
		return n.driver.Search(opts.Skip, opts.Count, fetch.Fail(errors.New("boom")), Sink(n, cb))
	}

	tmpl := fetch.TemplateFunc(func(_ context.Context, page fetch.Page) (fetch.Response, error) {
		var items fetch.Items
		for i := int(page.Start()); i < n.total && i < int(page.Start()+page.Size); i++ {
			items = append(items, &media.Media{ID: fmt.Sprint(i)})
		}
		return items, nil
	})
	return n.driver.Search(opts.Skip, opts.Count, tmpl, Sink(n, cb))
}

func TestSink(t *testing.T) {
	Convey("Given a searcher over 25 numbers", t, func() {
		src := &numbers{driver: fetch.MustNew(fetch.Config{Name: "numbers", PageSize: 10}), total: 25}

		search := func(opts Options) []int {
			var (
				remaining []int
				errs      []error
				ids       []string
			)
			done := make(chan struct{})
			src.Search("", opts, func(s Source, _ fetch.OperationID, m *media.Media, r int, err error) {
				remaining = append(remaining, r)
				errs = append(errs, err)
				ids = append(ids, s.ID())
				if r == 0 {
					close(done)
				}
			})
			<-done
			for i := range errs {
				So(errs[i], ShouldBeNil)
				So(ids[i], ShouldEqual, "numbers")
			}
			return remaining
		}

		Convey("The callback should see the integer sentinel", func() {
			So(search(Options{Skip: 10, Count: 5}), ShouldResemble, []int{4, 3, 2, 1, 0})
		})

		Convey("A short last page should move the sentinel onto its final item", func() {
			So(search(Options{Skip: 20, Count: 10}), ShouldResemble, []int{9, 8, 7, 6, 0})
		})

		Convey("SearchAll should stamp the source id", func() {
			items, err := SearchAll(context.Background(), src, "", Options{Count: 3})
			So(err, ShouldBeNil)
			So(items, ShouldHaveLength, 3)
			So(items[0].Source, ShouldEqual, "numbers")
		})

		Convey("SearchAll should surface failures", func() {
			items, err := SearchAll(context.Background(), src, "fail", Options{Count: 3})
			So(items, ShouldBeEmpty)
			So(errors.Is(err, fetch.ErrTransport), ShouldBeTrue)
		})

		Convey("SearchAll should cancel when its context is done", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := SearchAll(ctx, src, "", Options{Count: 25})
			if err != nil {
				So(errors.Is(err, fetch.ErrCancelled), ShouldBeTrue)
			}
		})
	})
}

func TestOptions(t *testing.T) {
	Convey("Normalize", t, func() {
		So(Options{}.Normalize().Count, ShouldEqual, constant.DefaultCount)
		So(Options{Count: constant.MaxCount + 1}.Normalize().Count, ShouldEqual, constant.MaxCount)
		So(Options{Count: 7}.Normalize().Count, ShouldEqual, 7)
	})
}
