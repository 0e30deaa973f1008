package queue

import (
	"context"
	"fmt"
	"sync"
)

// Future is the pending result of a submitted request.
// It is completed exactly once, by the processing loop
type Future struct {
	done   chan struct{}
	once   sync.Once
	result string
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) complete(result string) {
	f.once.Do(func() {
		f.result = result
		close(f.done)
	})
}

// Done is closed when the result is available
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the result is available or ctx ends.
// Giving up does not withdraw the request: it still runs and mutates the store
func (f *Future) Wait(ctx context.Context) (string, error) {
	select {
	case <-f.done:
		return f.result, nil
	default:
	}

	select {
	case <-f.done:
		return f.result, nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	}
}
