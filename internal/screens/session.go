// Package screens hosts live screen controllers behind opaque session ids so they
// can be driven over HTTP.
package screens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	ErrUnknownScreen  = errors.New("unknown screen")
	ErrNotFound       = errors.New("session not found")
	ErrUnknownIntent  = errors.New("unknown intent")
	ErrInvalidPayload = errors.New("invalid intent payload")
)

var validate = validator.New()

// Envelope is the wire form of a one-shot action.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Session is one live screen.
type Session interface {
	// Dispatch decodes a JSON intent of the form {"type": ..., ...} and proceeds it.
	Dispatch(data []byte) error
	Snapshot() any
	TakeAction() (Envelope, bool)
	// PeekAction reports the pending action without consuming it.
	PeekAction() (Envelope, bool)
	Close()
}

// Factory builds a session in ctx. body is the optional creation payload.
type Factory func(ctx context.Context, body []byte) (Session, error)

// IntentType reads the "type" discriminator of a JSON intent.
func IntentType(data []byte) (string, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if head.Type == "" {
		return "", fmt.Errorf("%w: missing type", ErrInvalidPayload)
	}
	return head.Type, nil
}

// Decode unmarshals data into a T and validates its struct tags.
func Decode[T any](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := validate.Struct(v); err != nil {
		var invalid *validator.InvalidValidationError
		if !errors.As(err, &invalid) {
			return v, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
	}
	return v, nil
}

// UnknownIntent builds the error returned for an unrecognised type.
func UnknownIntent(typ string) error {
	return fmt.Errorf("%w: %q", ErrUnknownIntent, typ)
}

type entry struct {
	screen   string
	session  Session
	lastSeen time.Time
}

// Registry owns all live sessions.
type Registry struct {
	mu        sync.Mutex
	ctx       context.Context
	factories map[string]Factory
	sessions  map[string]*entry
	logger    *slog.Logger
	now       func() time.Time
}

func NewRegistry(ctx context.Context, factories map[string]Factory, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		ctx:       ctx,
		factories: factories,
		sessions:  make(map[string]*entry),
		logger:    logger.With("component", "screens"),
		now:       time.Now,
	}
}

// Screens lists the registered screen names.
func (r *Registry) Screens() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create builds a session for screen. screen is copied, so callers may pass strings
// backed by reused request buffers.
func (r *Registry) Create(screen string, body []byte) (string, error) {
	screen = strings.Clone(screen)
	f, ok := r.factories[screen]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownScreen, screen)
	}
	s, err := f(r.ctx, body)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()

	r.mu.Lock()
	r.sessions[id] = &entry{screen: screen, session: s, lastSeen: r.now()}
	r.mu.Unlock()

	r.logger.Info("session created", "screen", screen, "id", id)
	return id, nil
}

// Get returns the session and marks it as seen.
func (r *Registry) Get(screen, id string) (Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok || e.screen != screen {
		return nil, ErrNotFound
	}
	e.lastSeen = r.now()
	return e.session, nil
}

func (r *Registry) Close(screen, id string) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	if !ok || e.screen != screen {
		r.mu.Unlock()
		return ErrNotFound
	}
	delete(r.sessions, id)
	r.mu.Unlock()

	e.session.Close()
	r.logger.Info("session closed", "screen", screen, "id", id)
	return nil
}

// Sweep closes sessions idle for longer than idle and returns how many were closed.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var stale []*entry
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, e := range stale {
		e.session.Close()
	}
	if len(stale) > 0 {
		r.logger.Info("idle sessions swept", "count", len(stale))
	}
	return len(stale)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CloseAll ends every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range all {
		e.session.Close()
	}
}
