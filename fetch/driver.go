package fetch

import (
	"context"
	"errors"
	"sync"

	"github.com/samber/lo"
	"github.com/trawl-media/trawl/log"
)

// Config describes the paging behaviour of one source.
type Config struct {
	// Name is used in logs.
	Name string

	// PageSize is the fixed number of items per backend page.
	PageSize uint32

	// Hints selects the hint carried by non-final items.
	Hints HintPolicy

	// Login makes the source token gated when set.
	Login LoginFunc
}

// Driver starts and tracks the operations of one source.
type Driver struct {
	config Config
	ctx    context.Context
	stop   context.CancelFunc
	gate   *Gate

	mu         sync.Mutex
	operations map[OperationID]*Operation
	wg         sync.WaitGroup
}

// New returns a driver for config.
func New(config Config) (*Driver, error) {
	if config.PageSize == 0 {
		return nil, errors.New("page size must be positive")
	}
	if config.Name == "" {
		config.Name = "source"
	}

	ctx, stop := context.WithCancel(context.Background())
	d := &Driver{
		config:     config,
		ctx:        ctx,
		stop:       stop,
		operations: make(map[OperationID]*Operation),
	}

	if config.Login != nil {
		d.gate = NewGate(ctx, config.Name, config.Login)
	}

	return d, nil
}

// MustNew is like New but panics on an invalid config.
func MustNew(config Config) *Driver {
	return lo.Must(New(config))
}

// Config returns the driver configuration.
func (d *Driver) Config() Config {
	return d.config
}

// Gate returns the token gate, nil for sources without login.
func (d *Driver) Gate() *Gate {
	return d.gate
}

// Context is cancelled by Close.
func (d *Driver) Context() context.Context {
	return d.ctx
}

// Browse starts a browse operation over the window (skip, count).
func (d *Driver) Browse(skip, count uint32, tmpl Template, sink Sink) OperationID {
	return d.start(KindBrowse, skip, count, tmpl, sink)
}

// Search starts a search operation over the window (skip, count).
func (d *Driver) Search(skip, count uint32, tmpl Template, sink Sink) OperationID {
	return d.start(KindSearch, skip, count, tmpl, sink)
}

func (d *Driver) start(kind Kind, skip, count uint32, tmpl Template, sink Sink) OperationID {
	op := newOperation(d.ctx, d.config.Name, kind, NewCursor(skip, count, d.config.PageSize), d.config.Hints, tmpl, sink)
	op.onTerminal = d.deregister

	d.mu.Lock()
	d.operations[op.id] = op
	d.wg.Add(1)
	d.mu.Unlock()

	log.Debugf("%s: %s #%d skip=%d count=%d", d.config.Name, kind, op.id, skip, count)

	if d.gate == nil || count == 0 {
		op.Dispatch("")
	} else {
		d.gate.EnsureTokenThen(op)
	}

	return op.id
}

func (d *Driver) deregister(op *Operation) {
	d.mu.Lock()
	delete(d.operations, op.id)
	d.mu.Unlock()
	d.wg.Done()
}

// Cancel flags a running operation. Unknown and finished ids are ignored.
func (d *Driver) Cancel(id OperationID) {
	d.mu.Lock()
	op, ok := d.operations[id]
	d.mu.Unlock()

	if ok {
		log.Debugf("%s: cancelling #%d", d.config.Name, id)
		op.Cancel()
	}
}

// CancelAll flags every running operation.
func (d *Driver) CancelAll() {
	d.mu.Lock()
	ops := lo.Values(d.operations)
	d.mu.Unlock()

	for _, op := range ops {
		op.Cancel()
	}
}

// Pending returns the ids of operations that have not terminated.
func (d *Driver) Pending() []OperationID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return lo.Keys(d.operations)
}

// Wait blocks until every started operation has terminated.
func (d *Driver) Wait() {
	d.wg.Wait()
}

// Close cancels every operation, aborts in-flight requests and waits for the terminal calls.
func (d *Driver) Close() error {
	d.CancelAll()
	d.stop()
	d.Wait()
	return nil
}
