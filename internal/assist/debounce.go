package assist

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSuperseded is returned to a caller whose pending request was replaced by
// a newer one for the same key before its quiet period elapsed.
var ErrSuperseded = errors.New("superseded by newer request")

// Debouncer enforces "at most one pending call per key": each trigger waits
// out a quiet period before issuing its function, and a newer trigger for the
// same key cancels and replaces the pending one, including an upstream call
// already in flight.
type Debouncer struct {
	quiet   time.Duration
	mu      sync.Mutex
	pending map[string]*pendingCall
}

type pendingCall struct {
	cancel context.CancelFunc
}

func NewDebouncer(quiet time.Duration) *Debouncer {
	return &Debouncer{quiet: quiet, pending: make(map[string]*pendingCall)}
}

// Do registers the caller as the current pending request for key, waits the
// quiet period, then runs fn. It returns ErrSuperseded when a newer Do call
// for the same key arrives first.
func (d *Debouncer) Do(ctx context.Context, key string, fn func(context.Context) (string, error)) (string, error) {
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	p := &pendingCall{cancel: cancel}

	d.mu.Lock()
	if prev, ok := d.pending[key]; ok {
		prev.cancel()
	}
	d.pending[key] = p
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		if d.pending[key] == p {
			delete(d.pending, key)
		}
		d.mu.Unlock()
	}()

	t := time.NewTimer(d.quiet)
	defer t.Stop()
	select {
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", ErrSuperseded
	case <-t.C:
	}

	out, err := fn(callCtx)
	if err != nil && callCtx.Err() != nil && ctx.Err() == nil {
		// upstream call aborted because a newer trigger arrived mid-flight
		return "", ErrSuperseded
	}
	return out, err
}
