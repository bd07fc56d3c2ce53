package arrival

import (
	"context"
	"log"
	"sync"

	"backend-safetrail/internal/geo"
)

// arrivalThresholdM absorbs consumer-GPS horizontal error near the
// destination.
const arrivalThresholdM = 50.0

// Notifier delivers the single arrival side effect.
type Notifier interface {
	NotifyArrival(ctx context.Context, destinationName string) error
}

// Status is the read view of a user's destination.
type Status struct {
	Set                   bool    `json:"set"`
	Name                  string  `json:"name,omitempty"`
	Lat                   float64 `json:"lat,omitempty"`
	Lng                   float64 `json:"lng,omitempty"`
	HasArrived            bool    `json:"has_arrived"`
	DistanceToDestination float64 `json:"distance_to_destination_m"`
}

type destination struct {
	lat, lng  float64
	name      string
	arrived   bool
	distanceM float64
}

// Detector tracks each user's declared destination and latches arrival
// exactly once per assignment.
type Detector struct {
	mu           sync.Mutex
	destinations map[string]*destination
	notifier     Notifier
}

func NewDetector(notifier Notifier) *Detector {
	return &Detector{
		destinations: map[string]*destination{},
		notifier:     notifier,
	}
}

// SetDestination replaces the user's destination and resets the arrival
// latch.
func (d *Detector) SetDestination(userID string, lat, lng float64, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destinations[userID] = &destination{lat: lat, lng: lng, name: name}
}

func (d *Detector) ClearDestination(userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.destinations, userID)
}

func (d *Detector) Status(userID string) Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	dest, ok := d.destinations[userID]
	if !ok {
		return Status{}
	}
	return Status{
		Set:                   true,
		Name:                  dest.name,
		Lat:                   dest.lat,
		Lng:                   dest.lng,
		HasArrived:            dest.arrived,
		DistanceToDestination: dest.distanceM,
	}
}

// CheckArrival computes the distance from the fix to the destination and
// latches arrival when inside the threshold. The latch suppresses every
// later fix until the destination is reassigned, so the notification
// fires at most once.
func (d *Detector) CheckArrival(ctx context.Context, userID string, fix geo.Fix) {
	d.mu.Lock()
	dest, ok := d.destinations[userID]
	if !ok || dest.arrived {
		d.mu.Unlock()
		return
	}

	dest.distanceM = geo.HaversineKm(fix.Lat, fix.Lng, dest.lat, dest.lng) * 1000
	if dest.distanceM > arrivalThresholdM {
		d.mu.Unlock()
		return
	}
	dest.arrived = true
	name := dest.name
	d.mu.Unlock()

	if d.notifier == nil {
		return
	}
	if err := d.notifier.NotifyArrival(ctx, name); err != nil {
		log.Printf("arrival notification failed for %q: %v", name, err)
	}
}
