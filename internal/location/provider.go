package location

import (
	"errors"
	"sync"

	"backend-safetrail/internal/geo"
)

// PermissionState mirrors the authorization states the device reports.
type PermissionState string

const (
	PermissionUndetermined      PermissionState = "undetermined"
	PermissionDenied            PermissionState = "denied"
	PermissionRestricted        PermissionState = "restricted"
	PermissionAuthorizedLimited PermissionState = "authorized_limited"
	PermissionAuthorizedFull    PermissionState = "authorized_full"
)

// Authorized reports whether the state allows location updates.
func (s PermissionState) Authorized() bool {
	return s == PermissionAuthorizedLimited || s == PermissionAuthorizedFull
}

func ParsePermissionState(raw string) (PermissionState, error) {
	switch PermissionState(raw) {
	case PermissionUndetermined, PermissionDenied, PermissionRestricted,
		PermissionAuthorizedLimited, PermissionAuthorizedFull:
		return PermissionState(raw), nil
	}
	return "", errors.New("unknown permission state")
}

// SubscriberFunc receives every delivered fix. Subscribers must return
// quickly; slow side effects belong on their own goroutines.
type SubscriberFunc func(userID string, fix geo.Fix)

// Provider is the service-side stand-in for the device location stream:
// the phone reports its permission state and pushes fixes, consumers
// (safety sessions, route recording) subscribe to the fan-out.
//
// Start and Stop refcount consumers per user so that ending one consumer
// never silences the stream while another still holds it.
type Provider struct {
	mu        sync.RWMutex
	perms     map[string]PermissionState
	consumers map[string]int
	subs      []SubscriberFunc
}

func NewProvider() *Provider {
	return &Provider{
		perms:     map[string]PermissionState{},
		consumers: map[string]int{},
	}
}

// Subscribe registers a fan-out target. All subscriptions happen during
// wiring, before fixes flow.
func (p *Provider) Subscribe(fn SubscriberFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = append(p.subs, fn)
}

func (p *Provider) SetPermission(userID string, state PermissionState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.perms[userID] = state
}

func (p *Provider) Permission(userID string) PermissionState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if state, ok := p.perms[userID]; ok {
		return state
	}
	return PermissionUndetermined
}

// Start claims the stream for one consumer.
func (p *Provider) Start(userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.perms[userID].Authorized() {
		return errors.New("location permission not granted")
	}
	p.consumers[userID]++
	return nil
}

// Stop releases one consumer's claim. The stream stays wanted while any
// other consumer holds it.
func (p *Provider) Stop(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.consumers[userID] > 0 {
		p.consumers[userID]--
	}
	if p.consumers[userID] == 0 {
		delete(p.consumers, userID)
	}
}

// Streaming reports whether any consumer currently wants fixes for the
// user. The device polls this to decide whether to keep GPS running.
func (p *Provider) Streaming(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.consumers[userID] > 0
}

// Deliver fans a fix out to all subscribers on the caller's goroutine.
// Subscribers do bounded work, so the delivery path never blocks on them.
func (p *Provider) Deliver(userID string, fix geo.Fix) {
	fix = fix.Normalize()

	p.mu.RLock()
	subs := p.subs
	p.mu.RUnlock()

	for _, fn := range subs {
		fn(userID, fix)
	}
}
