package store

import (
	"context"
	"sync"
	"time"

	"github.com/arthur-debert/objstore/pkg/errors"
)

// PendingOpen is an open running in the background.
type PendingOpen struct {
	done chan struct{}

	mu        sync.Mutex
	settled   bool
	abandoned bool
	handle    Handle
}

// OpenAsync starts opening name in mode and returns immediately. When
// opts.AsyncTimeoutMs is positive the open must finish within that many
// milliseconds of this call; otherwise the result is an ErrTimeout and a
// store that opens later is released.
func (m *Manager) OpenAsync(mode Mode, name string, opts Options) *PendingOpen {
	p := &PendingOpen{done: make(chan struct{})}

	ctx, cancel := context.Background(), context.CancelFunc(func() {})
	var timer *time.Timer
	if d := opts.timeout(); d > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), d)
		timer = time.AfterFunc(d, func() {
			p.settle(invalidHandle(errors.Newf(errors.ErrTimeout, "open of %s did not finish within %s", name, d)))
		})
	}

	go func() {
		defer cancel()
		h := m.open(ctx, mode, name, opts)
		if timer != nil {
			timer.Stop()
		}
		if h.Valid() && ctx.Err() != nil {
			// finished, but past the deadline
			_ = h.Release()
			h = invalidHandle(errors.Newf(errors.ErrTimeout, "open of %s finished after its deadline", name))
		}
		if !p.settle(h) && h.Valid() {
			m.logger.Debug().Str("store", name).Msg("Releasing store opened after its caller gave up")
			_ = h.Release()
		}
	}()

	return p
}

// settle records the outcome. Only the first outcome counts, and nothing
// is recorded once the waiter has given up.
func (p *PendingOpen) settle(h Handle) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.settled || p.abandoned {
		return false
	}
	p.settled = true
	p.handle = h
	close(p.done)
	return true
}

// Done is closed once the outcome is known.
func (p *PendingOpen) Done() <-chan struct{} { return p.done }

// Wait blocks until the open finishes or ctx is done. Giving up through
// ctx abandons the open; a store it produces later is released. The error
// is the same as the returned handle's Err.
func (p *PendingOpen) Wait(ctx context.Context) (Handle, error) {
	select {
	case <-p.done:
		return p.handle, p.handle.Err()
	case <-ctx.Done():
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.settled {
		return p.handle, p.handle.Err()
	}
	p.abandoned = true
	err := errors.Wrap(ctx.Err(), errors.ErrTimeout, "gave up waiting for open")
	return invalidHandle(err), err
}
