package fetch

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/trawl-media/trawl/log"
	"github.com/trawl-media/trawl/media"
)

// State is the lifecycle stage of an operation.
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateParsing
	StateEmitting
	StateCompleted
	StateCancelled
	StateFailed
)

var stateNames = [...]string{"idle", "fetching", "parsing", "emitting", "completed", "cancelled", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s >= StateCompleted
}

// Kind is the verb an operation serves.
type Kind int

const (
	KindBrowse Kind = iota
	KindSearch
)

func (k Kind) String() string {
	if k == KindSearch {
		return "search"
	}
	return "browse"
}

var lastID atomic.Uint64

func nextID() OperationID {
	return OperationID(lastID.Add(1))
}

// Operation is one browse or search request. It walks backend pages until the
// window is filled, the backend runs dry, an error occurs or it is cancelled.
//
// The last decoded item is held back until the next one (or the end of the
// result set) is known, so Last always lands on the final item.
type Operation struct {
	id     OperationID
	kind   Kind
	source string
	ctx    context.Context
	cursor *Cursor
	policy HintPolicy
	tmpl   Template
	sink   Sink

	state      atomic.Int32
	cancelled  atomic.Bool
	dispatched atomic.Bool
	terminated atomic.Bool
	pages      atomic.Int32

	// touched only by the goroutine running the operation
	held *media.Media

	onTerminal func(*Operation)
}

func newOperation(ctx context.Context, source string, kind Kind, cursor *Cursor, policy HintPolicy, tmpl Template, sink Sink) *Operation {
	return &Operation{
		id:     nextID(),
		kind:   kind,
		source: source,
		ctx:    ctx,
		cursor: cursor,
		policy: policy,
		tmpl:   tmpl,
		sink:   sink,
	}
}

func (o *Operation) ID() OperationID { return o.id }

func (o *Operation) Kind() Kind { return o.kind }

func (o *Operation) State() State { return State(o.state.Load()) }

// Pages is the number of backend requests issued so far.
func (o *Operation) Pages() int { return int(o.pages.Load()) }

// Cancel flags the operation. It is observed before each emission and before each page request.
func (o *Operation) Cancel() {
	o.cancelled.Store(true)
}

func (o *Operation) Cancelled() bool {
	return o.cancelled.Load()
}

// Dispatch starts the operation with token. Only the first Dispatch or Abort has an effect.
func (o *Operation) Dispatch(token string) {
	if !o.dispatched.CompareAndSwap(false, true) {
		return
	}
	go o.run(token)
}

// Abort terminates an operation that never started with err.
func (o *Operation) Abort(err error) {
	if !o.dispatched.CompareAndSwap(false, true) {
		return
	}
	o.fail(err)
}

func (o *Operation) logger() *logrus.Entry {
	return log.WithFields(logrus.Fields{
		"op":     uint64(o.id),
		"source": o.source,
		"verb":   o.kind.String(),
	})
}

func (o *Operation) run(token string) {
	for {
		if o.cancelled.Load() {
			o.cancel()
			return
		}

		if o.cursor.Remaining() == 0 {
			o.complete()
			return
		}

		page := Page{Number: o.cursor.Page(), Size: o.cursor.PageSize(), Token: token}
		o.state.Store(int32(StateFetching))
		o.pages.Add(1)
		o.logger().Debugf("requesting %s", o.cursor)

		resp, err := o.tmpl.Request(o.ctx, page)
		if err != nil {
			o.fail(TransportError(err))
			return
		}

		if o.cancelled.Load() {
			o.cancel()
			return
		}

		o.state.Store(int32(StateParsing))
		items, err := resp.Decode()
		if err != nil {
			o.fail(DecodeError(err))
			return
		}
		for i, item := range items {
			if item == nil {
				o.fail(DecodeError(fmt.Errorf("page %d: nil item at %d", page.Number, i)))
				return
			}
		}

		o.state.Store(int32(StateEmitting))
		if !o.emit(items) {
			return
		}

		if o.cursor.Remaining() == 0 || len(items) == 0 {
			o.complete()
			return
		}

		o.cursor.Advance()
	}
}

// emit streams the usable part of a page. It returns false when the operation was cancelled.
func (o *Operation) emit(items []*media.Media) bool {
	offset := o.cursor.Offset()
	n := o.cursor.Consume(uint32(len(items)))

	for i := uint32(0); i < n; i++ {
		if o.cancelled.Load() {
			o.cancel()
			return false
		}

		if o.held != nil {
			following := n - i + o.cursor.Remaining()
			o.sink.Emit(o.id, o.held, o.policy.hint(following), nil)
		}
		o.held = items[offset+i]
	}

	return true
}

func (o *Operation) complete() {
	if o.cancelled.Load() {
		o.cancel()
		return
	}

	item := o.held
	o.held = nil
	o.terminate(StateCompleted, item, nil)
}

func (o *Operation) cancel() {
	o.held = nil
	o.terminate(StateCancelled, nil, ErrCancelled)
}

// fail flushes the held item, which was already known not to be the last one, then reports err.
// Pages are only requested while items are owed, so the held item always has successors.
func (o *Operation) fail(err error) {
	if o.cancelled.Load() {
		o.cancel()
		return
	}

	if o.held != nil {
		o.sink.Emit(o.id, o.held, o.policy.hint(max(o.cursor.Remaining(), 1)), nil)
		o.held = nil
	}
	o.terminate(StateFailed, nil, err)
}

func (o *Operation) terminate(state State, item *media.Media, err error) {
	if !o.terminated.CompareAndSwap(false, true) {
		return
	}

	o.state.Store(int32(state))
	o.logger().Debugf("%s after %d page(s): %v", state, o.pages.Load(), err)
	o.sink.Emit(o.id, item, Last, err)

	if o.onTerminal != nil {
		o.onTerminal(o)
	}
}
