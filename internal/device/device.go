// Package device models the platform location service: permission state and
// best-effort position fixes.
package device

import (
	"context"
	"errors"
	"sync"
)

// Coordinates is a position fix.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Locator yields position fixes. A nil fix with a nil error means no fix is available.
type Locator interface {
	LastKnown(ctx context.Context) (*Coordinates, error)
	CurrentFix(ctx context.Context) (*Coordinates, error)
}

// Permissions reports the platform permission state.
type Permissions interface {
	HasLocationPermission() bool
	IsLocationEnabled() bool
}

// PermissionRecorder accepts the user's answer to a permission prompt.
type PermissionRecorder interface {
	SetMode(mode PermissionMode)
}

// Resolve returns the best-effort device position: the last known fix, falling back to
// a fresh one. It returns nil without error when permission is missing or location
// services are disabled.
func Resolve(ctx context.Context, loc Locator, perms Permissions) (*Coordinates, error) {
	if perms != nil && (!perms.HasLocationPermission() || !perms.IsLocationEnabled()) {
		return nil, nil
	}
	if loc == nil {
		return nil, nil
	}

	c, lastErr := loc.LastKnown(ctx)
	if c != nil {
		return c, nil
	}
	c, err := loc.CurrentFix(ctx)
	if err != nil {
		return nil, errors.Join(lastErr, err)
	}
	return c, nil
}

// Static is a Locator whose fix is configured or reported by a client.
type Static struct {
	mu  sync.RWMutex
	fix *Coordinates
}

// NewStatic creates a Static locator; fix may be nil.
func NewStatic(fix *Coordinates) *Static {
	return &Static{fix: fix}
}

// Set replaces the fix; nil clears it.
func (s *Static) Set(fix *Coordinates) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fix == nil {
		s.fix = nil
		return
	}
	c := *fix
	s.fix = &c
}

func (s *Static) LastKnown(context.Context) (*Coordinates, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fix == nil {
		return nil, nil
	}
	c := *s.fix
	return &c, nil
}

func (s *Static) CurrentFix(ctx context.Context) (*Coordinates, error) {
	return s.LastKnown(ctx)
}

// PermissionMode is the configured permission answer.
type PermissionMode string

const (
	PermissionGranted           PermissionMode = "granted"
	PermissionDenied            PermissionMode = "denied"
	PermissionDeniedPermanently PermissionMode = "denied_permanently"
)

// StaticPermissions is a mutable Permissions implementation.
type StaticPermissions struct {
	mu      sync.RWMutex
	mode    PermissionMode
	enabled bool
}

func NewStaticPermissions(mode PermissionMode, enabled bool) *StaticPermissions {
	return &StaticPermissions{mode: mode, enabled: enabled}
}

func (p *StaticPermissions) HasLocationPermission() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mode == PermissionGranted
}

func (p *StaticPermissions) IsLocationEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.enabled
}

// Mode returns the current permission answer.
func (p *StaticPermissions) Mode() PermissionMode {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mode
}

// SetMode updates the permission answer.
func (p *StaticPermissions) SetMode(mode PermissionMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mode = mode
}

// SetEnabled toggles location services.
func (p *StaticPermissions) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
}
