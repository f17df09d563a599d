// Package source defines the capabilities a catalog connector can offer.
package source

import (
	"context"
	"errors"

	"github.com/trawl-media/trawl/constant"
	"github.com/trawl-media/trawl/fetch"
	"github.com/trawl-media/trawl/media"
)

// ErrUnsupported is returned when a source lacks the requested capability.
var ErrUnsupported = errors.New("operation not supported by source")

// Source is the descriptive part every connector implements.
type Source interface {
	// ID is the stable identifier used on the command line and in item records.
	ID() string

	// Name is the human readable name.
	Name() string

	Description() string

	// SupportedKeys lists the metadata the source can provide.
	SupportedKeys() []media.Key
}

// Browser lists the children of a container. A nil container means the root.
type Browser interface {
	Source
	Browse(container *media.Media, opts Options, cb Callback) fetch.OperationID
}

// Searcher runs free text queries.
type Searcher interface {
	Source
	Search(text string, opts Options, cb Callback) fetch.OperationID
}

// Resolver fills in missing fields of an identified item.
type Resolver interface {
	Source

	// MayResolve reports whether m carries what Resolve needs to find keys.
	MayResolve(m *media.Media, keys []media.Key) bool

	Resolve(ctx context.Context, m *media.Media, keys []media.Key) error
}

// Canceller stops a running browse or search. Unknown ids are ignored.
type Canceller interface {
	Cancel(op fetch.OperationID)
}

// Storer adds and removes items of a writable source.
type Storer interface {
	Source

	// Store adds m under parent, nil meaning the root. It sets m.ID.
	Store(ctx context.Context, parent, m *media.Media) error

	Remove(ctx context.Context, m *media.Media) error
}

// Options is the window and key selection of a request.
type Options struct {
	Skip  uint32
	Count uint32
	Keys  []media.Key
}

// Normalize caps Count and substitutes the default for zero.
func (o Options) Normalize() Options {
	if o.Count == 0 {
		o.Count = constant.DefaultCount
	}
	o.Count = min(o.Count, constant.MaxCount)
	return o
}

// Callback receives the items of an operation.
//
// remaining is positive when exactly that many items follow, 0 on the final call
// and -1 when more items follow but their number is unknown. The final call
// carries either the last item, no item at all for an empty result, or an error.
type Callback func(src Source, op fetch.OperationID, m *media.Media, remaining int, err error)

// Sink adapts cb to the engine, stamping items with the source id.
func Sink(src Source, cb Callback) fetch.Sink {
	return fetch.SinkFunc(func(op fetch.OperationID, item *media.Media, hint fetch.Hint, err error) {
		if item != nil && item.Source == "" {
			item.Source = src.ID()
		}
		cb(src, op, item, hint.Int(), err)
	})
}

// Collect runs an operation started by start and blocks until its final call.
// When ctx ends first the operation is cancelled and its final call awaited.
func Collect(ctx context.Context, src Source, start func(Callback) fetch.OperationID) ([]*media.Media, error) {
	var (
		items []*media.Media
		done  = make(chan error, 1)
	)

	id := start(func(_ Source, _ fetch.OperationID, m *media.Media, remaining int, err error) {
		if m != nil {
			items = append(items, m)
		}
		if remaining == 0 || err != nil {
			done <- err
		}
	})

	select {
	case err := <-done:
		return items, err
	case <-ctx.Done():
		if c, ok := src.(Canceller); ok {
			c.Cancel(id)
		}
		return items, <-done
	}
}

// BrowseAll collects a browse operation.
func BrowseAll(ctx context.Context, b Browser, container *media.Media, opts Options) ([]*media.Media, error) {
	return Collect(ctx, b, func(cb Callback) fetch.OperationID {
		return b.Browse(container, opts, cb)
	})
}

// SearchAll collects a search operation.
func SearchAll(ctx context.Context, s Searcher, text string, opts Options) ([]*media.Media, error) {
	return Collect(ctx, s, func(cb Callback) fetch.OperationID {
		return s.Search(text, opts, cb)
	})
}
