// Package reducer is the per-screen state engine: intents are handled concurrently
// inside a cancellable scope, state is replaced whole under a lock, and one-shot
// actions go through a single-slot mailbox.
package reducer

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Handler processes one intent. It runs on its own goroutine and must honour ctx.
type Handler[I any] func(ctx context.Context, intent I)

type options struct {
	name   string
	logger *slog.Logger
}

type Option func(*options)

// WithName labels log lines of the controller.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Controller owns the state of one screen for its visible lifetime.
type Controller[S, I, A any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	handler Handler[I]
	actions *Mailbox[A]

	// lifeMu guards closed and wg.Add so no task starts after Close begins waiting.
	lifeMu sync.Mutex
	closed bool
	wg     sync.WaitGroup

	stateMu sync.Mutex
	state   S
	subs    map[int]chan S
	nextSub int
}

// New creates a controller whose scope is derived from parent. The handler may be
// nil at construction and supplied with SetHandler before the first Proceed.
func New[S, I, A any](parent context.Context, initial S, handler Handler[I], opts ...Option) *Controller[S, I, A] {
	o := options{name: "screen", logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	ctx, cancel := context.WithCancel(parent)
	return &Controller[S, I, A]{
		ctx:     ctx,
		cancel:  cancel,
		logger:  o.logger.With("screen", o.name),
		handler: handler,
		actions: NewMailbox[A](),
		state:   initial,
		subs:    make(map[int]chan S),
	}
}

// SetHandler installs the intent handler. Screens that close over their controller
// use it to break the construction cycle.
func (c *Controller[S, I, A]) SetHandler(h Handler[I]) {
	c.lifeMu.Lock()
	c.handler = h
	c.lifeMu.Unlock()
}

// Context is the scope handlers run in.
func (c *Controller[S, I, A]) Context() context.Context {
	return c.ctx
}

func (c *Controller[S, I, A]) Logger() *slog.Logger {
	return c.logger
}

// Proceed schedules intent and returns immediately. It reports false if the
// controller is closed.
func (c *Controller[S, I, A]) Proceed(intent I) bool {
	c.lifeMu.Lock()
	h := c.handler
	c.lifeMu.Unlock()
	if h == nil {
		c.logger.Warn("intent dropped, no handler", "intent", fmt.Sprintf("%T", intent))
		return false
	}
	ok := c.Launch(func(ctx context.Context) { h(ctx, intent) })
	if !ok {
		c.logger.Debug("intent dropped after close", "intent", fmt.Sprintf("%T", intent))
	}
	return ok
}

// Launch runs fn in the controller scope. Panics are recovered and logged.
func (c *Controller[S, I, A]) Launch(fn func(ctx context.Context)) bool {
	c.lifeMu.Lock()
	if c.closed {
		c.lifeMu.Unlock()
		return false
	}
	c.wg.Add(1)
	c.lifeMu.Unlock()

	go func() {
		defer c.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("handler panic", "panic", r, "stack", string(debug.Stack()))
			}
		}()
		fn(c.ctx)
	}()
	return true
}

// State returns the latest state.
func (c *Controller[S, I, A]) State() S {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

// Update folds fn over the state and notifies subscribers. fn must not call back
// into the controller.
func (c *Controller[S, I, A]) Update(fn func(S) S) S {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.state = fn(c.state)
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- c.state
	}
	return c.state
}

// Subscribe returns a channel that always holds the latest state. Slow readers skip
// intermediate states. The channel is closed by cancel or Close.
func (c *Controller[S, I, A]) Subscribe() (<-chan S, func()) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	ch := make(chan S, 1)
	ch <- c.state
	if c.subs == nil {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.stateMu.Lock()
			defer c.stateMu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// Send posts a one-shot action, replacing any pending one.
func (c *Controller[S, I, A]) Send(a A) {
	c.actions.Send(a)
}

func (c *Controller[S, I, A]) Actions() *Mailbox[A] {
	return c.actions
}

// Close cancels the scope, waits for in-flight handlers and closes subscriptions.
func (c *Controller[S, I, A]) Close() {
	c.lifeMu.Lock()
	if c.closed {
		c.lifeMu.Unlock()
		return
	}
	c.closed = true
	c.lifeMu.Unlock()

	c.cancel()
	c.wg.Wait()

	c.stateMu.Lock()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.subs = nil
	c.stateMu.Unlock()
	c.logger.Debug("controller closed")
}
