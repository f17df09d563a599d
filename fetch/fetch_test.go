package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/trawl-media/trawl/media"
)

// backend serves pages from a fixed item list and records every request.
type backend struct {
	mu          sync.Mutex
	items       []*media.Media
	requests    []Page
	fail        map[uint32]error
	undecodable map[uint32]bool
	hold        map[uint32]chan struct{}
	entered     chan uint32
}

func newBackend(total int) *backend {
	b := &backend{
		fail:        make(map[uint32]error),
		undecodable: make(map[uint32]bool),
		hold:        make(map[uint32]chan struct{}),
	}
	for i := 0; i < total; i++ {
		b.items = append(b.items, &media.Media{ID: fmt.Sprint(i), Title: fmt.Sprintf("item %d", i)})
	}
	return b
}

func (b *backend) Request(ctx context.Context, page Page) (Response, error) {
	b.mu.Lock()
	b.requests = append(b.requests, page)
	err := b.fail[page.Number]
	bad := b.undecodable[page.Number]
	block, entered := b.hold[page.Number], b.entered
	b.mu.Unlock()

	if entered != nil {
		entered <- page.Number
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}

	start := min(int(page.Start()), len(b.items))
	end := min(start+int(page.Size), len(b.items))
	items := b.items[start:end]

	return DecodeFunc(func() ([]*media.Media, error) {
		if bad {
			return nil, errors.New("unexpected token")
		}
		return items, nil
	}), nil
}

func (b *backend) pages() []uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	numbers := make([]uint32, 0, len(b.requests))
	for _, p := range b.requests {
		numbers = append(numbers, p.Number)
	}
	return numbers
}

type call struct {
	op   OperationID
	item *media.Media
	hint Hint
	err  error
}

// recorder collects sink calls and signals the terminal one.
type recorder struct {
	mu    sync.Mutex
	calls []call
	done  chan struct{}
	once  sync.Once

	// onEmit runs before a non-terminal call is recorded.
	onEmit func(call)
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{})}
}

func (r *recorder) Emit(op OperationID, item *media.Media, hint Hint, err error) {
	c := call{op: op, item: item, hint: hint, err: err}
	if r.onEmit != nil && !hint.IsLast() && err == nil {
		r.onEmit(c)
	}

	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()

	if hint.IsLast() || err != nil {
		r.once.Do(func() { close(r.done) })
	}
}

func (r *recorder) wait() bool {
	select {
	case <-r.done:
		return true
	case <-time.After(2 * time.Second):
		return false
	}
}

func (r *recorder) snapshot() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call(nil), r.calls...)
}

func (r *recorder) terminals() int {
	n := 0
	for _, c := range r.snapshot() {
		if c.hint.IsLast() || c.err != nil {
			n++
		}
	}
	return n
}

func (r *recorder) ids() []string {
	var ids []string
	for _, c := range r.snapshot() {
		if c.item != nil {
			ids = append(ids, c.item.ID)
		}
	}
	return ids
}

func (r *recorder) hints() []int {
	var hints []int
	for _, c := range r.snapshot() {
		hints = append(hints, c.hint.Int())
	}
	return hints
}
