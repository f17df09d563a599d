package fetch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// controlledLogin blocks every login until a result is pushed.
type controlledLogin struct {
	started chan struct{}
	results chan loginResult
}

type loginResult struct {
	token string
	err   error
}

func newControlledLogin() *controlledLogin {
	return &controlledLogin{
		started: make(chan struct{}, 8),
		results: make(chan loginResult, 8),
	}
}

func (l *controlledLogin) login(ctx context.Context) (string, error) {
	l.started <- struct{}{}
	select {
	case r := <-l.results:
		return r.token, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

type orderWaiter struct {
	name string
	log  *[]string
	mu   *sync.Mutex
	errs chan error
}

func (w orderWaiter) Dispatch(token string) {
	w.mu.Lock()
	*w.log = append(*w.log, w.name+":"+token)
	w.mu.Unlock()
}

func (w orderWaiter) Abort(err error) {
	w.errs <- err
}

func TestGateOrder(t *testing.T) {
	Convey("Given three waiters arriving before the token", t, func() {
		l := newControlledLogin()
		g := NewGate(context.Background(), "test", l.login)

		var (
			mu    sync.Mutex
			order []string
			errs  = make(chan error, 3)
		)
		for _, name := range []string{"o1", "o2", "o3"} {
			g.EnsureTokenThen(orderWaiter{name: name, log: &order, mu: &mu, errs: errs})
		}
		<-l.started

		So(g.InFlight(), ShouldBeTrue)
		So(g.Waiting(), ShouldEqual, 3)
		So(g.Logins(), ShouldEqual, 1)

		Convey("A successful login should release them in arrival order", func() {
			l.results <- loginResult{token: "tok"}
			So(waitFor(func() bool { return !g.InFlight() }), ShouldBeTrue)

			mu.Lock()
			So(order, ShouldResemble, []string{"o1:tok", "o2:tok", "o3:tok"})
			mu.Unlock()

			token, ok := g.Token()
			So(ok, ShouldBeTrue)
			So(token, ShouldEqual, "tok")

			Convey("Later arrivals should be dispatched immediately", func() {
				g.EnsureTokenThen(orderWaiter{name: "o4", log: &order, mu: &mu, errs: errs})
				mu.Lock()
				So(order[len(order)-1], ShouldEqual, "o4:tok")
				mu.Unlock()
				So(g.Logins(), ShouldEqual, 1)
			})
		})

		Convey("A failed login should abort every waiter with the same error", func() {
			l.results <- loginResult{err: errors.New("bad credentials")}

			var got []error
			for i := 0; i < 3; i++ {
				got = append(got, <-errs)
			}
			for _, err := range got {
				So(errors.Is(err, ErrAuth), ShouldBeTrue)
				So(err, ShouldEqual, got[0])
			}
			So(g.InFlight(), ShouldBeFalse)
			So(g.Waiting(), ShouldEqual, 0)
			So(order, ShouldBeEmpty)
		})

		Convey("An empty token should count as a failure", func() {
			l.results <- loginResult{}
			So(errors.Is(<-errs, ErrAuth), ShouldBeTrue)
			_, ok := g.Token()
			So(ok, ShouldBeFalse)
		})
	})
}

func TestGateAcquire(t *testing.T) {
	Convey("Given a gate with a working login", t, func() {
		calls := 0
		g := NewGate(context.Background(), "test", func(context.Context) (string, error) {
			calls++
			return "session", nil
		})

		Convey("Acquire should return the token and reuse it", func() {
			token, err := g.Acquire(context.Background())
			So(err, ShouldBeNil)
			So(token, ShouldEqual, "session")

			token, err = g.Acquire(context.Background())
			So(err, ShouldBeNil)
			So(token, ShouldEqual, "session")
			So(calls, ShouldEqual, 1)
		})

		Convey("Invalidate should force a new login", func() {
			_, _ = g.Acquire(context.Background())
			g.Invalidate()
			_, err := g.Acquire(context.Background())
			So(err, ShouldBeNil)
			So(calls, ShouldEqual, 2)
		})
	})

	Convey("Acquire should honour its context", t, func() {
		l := newControlledLogin()
		g := NewGate(context.Background(), "test", l.login)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := g.Acquire(ctx)
		So(errors.Is(err, context.Canceled), ShouldBeTrue)
	})
}

func TestGatedDriver(t *testing.T) {
	Convey("Given a token gated driver", t, func() {
		l := newControlledLogin()
		d := MustNew(Config{Name: "gated", PageSize: 10, Login: l.login})
		b := newBackend(5)

		r1, r2 := newRecorder(), newRecorder()
		d.Search(0, 5, b, r1)
		d.Search(0, 5, b, r2)
		<-l.started

		So(d.Gate().Waiting(), ShouldEqual, 2)
		So(b.pages(), ShouldBeEmpty)

		Convey("A successful login should run both with the token", func() {
			l.results <- loginResult{token: "abc"}
			So(r1.wait(), ShouldBeTrue)
			So(r2.wait(), ShouldBeTrue)
			d.Wait()

			So(r1.ids(), ShouldHaveLength, 5)
			So(r2.ids(), ShouldHaveLength, 5)
			b.mu.Lock()
			for _, p := range b.requests {
				So(p.Token, ShouldEqual, "abc")
			}
			b.mu.Unlock()
		})

		Convey("A failed login should fail both without a request", func() {
			l.results <- loginResult{err: errors.New("denied")}
			So(r1.wait(), ShouldBeTrue)
			So(r2.wait(), ShouldBeTrue)
			d.Wait()

			for _, r := range []*recorder{r1, r2} {
				calls := r.snapshot()
				So(calls, ShouldHaveLength, 1)
				So(errors.Is(calls[0].err, ErrAuth), ShouldBeTrue)
				So(calls[0].hint.IsLast(), ShouldBeTrue)
			}
			So(b.pages(), ShouldBeEmpty)
			So(d.Gate().InFlight(), ShouldBeFalse)
			So(d.Pending(), ShouldBeEmpty)

			Convey("A fresh operation should start a new login", func() {
				r3 := newRecorder()
				d.Search(0, 5, b, r3)
				<-l.started
				So(d.Gate().Logins(), ShouldEqual, 2)
				l.results <- loginResult{token: "retry"}
				So(r3.wait(), ShouldBeTrue)
				So(r3.ids(), ShouldHaveLength, 5)
			})
		})

		Convey("An operation cancelled while parked should never reach the backend", func() {
			r3 := newRecorder()
			id := d.Search(0, 5, b, r3)
			d.Cancel(id)
			l.results <- loginResult{token: "abc"}

			So(r3.wait(), ShouldBeTrue)
			So(errors.Is(r3.snapshot()[0].err, ErrCancelled), ShouldBeTrue)
			So(r1.wait(), ShouldBeTrue)
			So(r2.wait(), ShouldBeTrue)
			d.Wait()
			So(b.pages(), ShouldHaveLength, 2)
		})

		Convey("A zero count should bypass the gate", func() {
			r3 := newRecorder()
			d.Search(0, 0, b, r3)
			So(r3.wait(), ShouldBeTrue)
			So(d.Gate().Waiting(), ShouldEqual, 2)
			l.results <- loginResult{token: "abc"}
			d.Wait()
		})
	})
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}
