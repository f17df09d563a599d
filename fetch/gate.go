package fetch

import (
	"context"
	"errors"
	"sync"

	"github.com/trawl-media/trawl/log"
)

// LoginFunc performs the login exchange of a gated source and returns its session token.
type LoginFunc func(ctx context.Context) (string, error)

// Waiter is parked in a Gate until the token is known.
type Waiter interface {
	// Dispatch hands over the token. It is called with the gate locked and must not block.
	Dispatch(token string)

	// Abort delivers the login failure.
	Abort(err error)
}

// Gate serializes access to a lazily acquired session token.
// At most one login is in flight; waiters are released in arrival order.
type Gate struct {
	name  string
	ctx   context.Context
	login LoginFunc

	mu       sync.Mutex
	token    string
	hasToken bool
	inFlight bool
	waiters  []Waiter
	logins   int
}

// NewGate returns a gate that logs in with login under ctx.
func NewGate(ctx context.Context, name string, login LoginFunc) *Gate {
	return &Gate{
		name:  name,
		ctx:   ctx,
		login: login,
	}
}

// EnsureTokenThen dispatches w with the token, logging in first when there is none yet.
func (g *Gate) EnsureTokenThen(w Waiter) {
	g.mu.Lock()

	if g.hasToken {
		w.Dispatch(g.token)
		g.mu.Unlock()
		return
	}

	g.waiters = append(g.waiters, w)
	if g.inFlight {
		g.mu.Unlock()
		return
	}

	g.inFlight = true
	g.logins++
	g.mu.Unlock()

	log.Debugf("%s: logging in", g.name)
	go func() {
		token, err := g.login(g.ctx)
		g.complete(token, err)
	}()
}

func (g *Gate) complete(token string, err error) {
	if err == nil && token == "" {
		err = errors.New("empty session token")
	}

	g.mu.Lock()
	waiters := g.waiters
	g.waiters = nil
	g.inFlight = false

	if err == nil {
		g.token, g.hasToken = token, true
		for _, w := range waiters {
			w.Dispatch(token)
		}
		g.mu.Unlock()
		log.Debugf("%s: logged in, released %d waiter(s)", g.name, len(waiters))
		return
	}
	g.mu.Unlock()

	err = AuthError(err)
	log.Warnf("%s: %v", g.name, err)
	for _, w := range waiters {
		w.Abort(err)
	}
}

// Acquire blocks until the token is available, the login fails or ctx is done.
func (g *Gate) Acquire(ctx context.Context) (string, error) {
	w := &chanWaiter{done: make(chan struct{})}
	g.EnsureTokenThen(w)

	select {
	case <-w.done:
		return w.token, w.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Invalidate forgets the token so the next caller logs in again.
func (g *Gate) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.token, g.hasToken = "", false
}

// Token returns the current token, if any.
func (g *Gate) Token() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token, g.hasToken
}

// InFlight reports whether a login exchange is running.
func (g *Gate) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}

// Waiting is the number of parked waiters.
func (g *Gate) Waiting() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.waiters)
}

// Logins is the number of login exchanges started so far.
func (g *Gate) Logins() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.logins
}

type chanWaiter struct {
	once  sync.Once
	done  chan struct{}
	token string
	err   error
}

func (w *chanWaiter) Dispatch(token string) {
	w.once.Do(func() {
		w.token = token
		close(w.done)
	})
}

func (w *chanWaiter) Abort(err error) {
	w.once.Do(func() {
		w.err = err
		close(w.done)
	})
}
