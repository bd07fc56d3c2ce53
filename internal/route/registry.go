package route

import (
	"sync"

	"backend-safetrail/internal/geo"
)

// StreamControl is the slice of the location provider the registry needs:
// claiming and releasing the fix stream for a user.
type StreamControl interface {
	Start(userID string) error
	Stop(userID string)
}

// Registry holds one tracker per user. Route recording is a location
// consumer independent of safety sessions; it claims the stream on start
// and releases it on stop.
type Registry struct {
	mu       sync.Mutex
	trackers map[string]*Tracker
	provider StreamControl
}

func NewRegistry(provider StreamControl) *Registry {
	return &Registry{
		trackers: map[string]*Tracker{},
		provider: provider,
	}
}

// Tracker returns the user's tracker, creating it on first use.
func (r *Registry) Tracker(userID string) *Tracker {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trackers[userID]
	if !ok {
		t = NewTracker()
		r.trackers[userID] = t
	}
	return t
}

// Start begins recording for the user and claims the location stream.
func (r *Registry) Start(userID string) error {
	t := r.Tracker(userID)
	if t.IsTracking() {
		// restart discards the previous in-memory trip
		t.StartTracking()
		return nil
	}
	if r.provider != nil {
		if err := r.provider.Start(userID); err != nil {
			return err
		}
	}
	t.StartTracking()
	return nil
}

// Stop ends recording and releases the stream claim. The log remains
// readable until Clear or the next Start.
func (r *Registry) Stop(userID string) {
	t := r.Tracker(userID)
	if !t.IsTracking() {
		return
	}
	t.StopTracking()
	if r.provider != nil {
		r.provider.Stop(userID)
	}
}

// HandleFix feeds a delivered fix to the user's tracker. Trackers ignore
// fixes while not recording, so this is safe to call for every delivery.
func (r *Registry) HandleFix(userID string, fix geo.Fix) {
	r.mu.Lock()
	t, ok := r.trackers[userID]
	r.mu.Unlock()
	if ok {
		t.AddFix(fix)
	}
}
