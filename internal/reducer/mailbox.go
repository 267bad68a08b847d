package reducer

import (
	"context"
	"sync"
)

// Mailbox holds at most one pending one-shot action. A new Send replaces whatever
// has not been taken yet.
type Mailbox[A any] struct {
	mu      sync.Mutex
	pending A
	has     bool
	signal  chan struct{}
}

func NewMailbox[A any]() *Mailbox[A] {
	return &Mailbox[A]{signal: make(chan struct{}, 1)}
}

func (m *Mailbox[A]) Send(a A) {
	m.mu.Lock()
	m.pending = a
	m.has = true
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// Take consumes the pending action, if any.
func (m *Mailbox[A]) Take() (A, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.pending, m.has
	var zero A
	m.pending, m.has = zero, false
	return a, ok
}

// Peek returns the pending action without consuming it.
func (m *Mailbox[A]) Peek() (A, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending, m.has
}

// Next blocks until an action is available or ctx ends.
func (m *Mailbox[A]) Next(ctx context.Context) (A, error) {
	for {
		if a, ok := m.Take(); ok {
			return a, nil
		}
		select {
		case <-ctx.Done():
			var zero A
			return zero, ctx.Err()
		case <-m.signal:
		}
	}
}

// Reset drops the pending action.
func (m *Mailbox[A]) Reset() {
	m.Take()
}
