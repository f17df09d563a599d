package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/trawl-media/trawl/fetch"
	"github.com/trawl-media/trawl/log"
	"github.com/trawl-media/trawl/media"
	"github.com/trawl-media/trawl/provider"
	"github.com/trawl-media/trawl/source"
)

// interruptible returns a context cancelled by Ctrl-C.
func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// openSource creates the source registered under id.
func openSource(id string) (source.Source, error) {
	p, err := provider.MustFind(id)
	if err != nil {
		return nil, err
	}

	src, err := p.CreateSource()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	return src, nil
}

func closeSource(src source.Source) {
	if c, ok := src.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Warnf("closing %s: %v", src.ID(), err)
		}
	}
}

// stream runs the operation started by start, handing every item to each as it arrives.
// Ctrl-C cancels the operation, after which its final call is still awaited.
func stream(ctx context.Context, src source.Source, start func(source.Callback) fetch.OperationID, each func(*media.Media)) (int, error) {
	var (
		count int
		done  = make(chan error, 1)
	)

	op := start(func(_ source.Source, _ fetch.OperationID, m *media.Media, remaining int, err error) {
		if m != nil {
			count++
			each(m)
		}
		if remaining == 0 || err != nil {
			done <- err
		}
	})

	select {
	case err := <-done:
		return count, err
	case <-ctx.Done():
		if c, ok := src.(source.Canceller); ok {
			c.Cancel(op)
		}

		err := <-done
		if errors.Is(err, fetch.ErrCancelled) {
			err = errInterrupted
		}
		return count, err
	}
}
