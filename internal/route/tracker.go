package route

import (
	"fmt"
	"sync"
	"time"

	"backend-safetrail/internal/geo"
)

// Point is one fix retained in the trip log.
type Point struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	SpeedMps   float64   `json:"speed_mps"`
	AltitudeM  float64   `json:"altitude_m"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Stats is a read-only snapshot of one tracking run.
type Stats struct {
	Tracking        bool      `json:"tracking"`
	StartedAt       time.Time `json:"started_at,omitempty"`
	PointCount      int       `json:"point_count"`
	TotalDistanceM  float64   `json:"total_distance_m"`
	DistanceKm      string    `json:"distance_km"`
	MaxSpeedKmh     string    `json:"max_speed_kmh"`
	AverageSpeedKmh string    `json:"average_speed_kmh"`
	Elapsed         string    `json:"elapsed"`
}

// Tracker accumulates fixes into ephemeral trip statistics. Distance is
// strictly incremental: each fix adds the great-circle leg to its
// predecessor, O(1) per fix. All mutation goes through the mutex, so
// AddFix is atomic with respect to concurrent fixes and Stop.
type Tracker struct {
	mu             sync.Mutex
	points         []Point
	totalDistanceM float64
	maxSpeedKmh    float64
	avgSpeedKmh    float64
	startTime      time.Time
	tracking       bool

	now func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// StartTracking begins a new run. Calling it while already tracking
// restarts the trip and discards the in-memory log; trip data is
// ephemeral display state, the persisted session is untouched.
func (t *Tracker) StartTracking() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tracking = true
	t.startTime = t.now()
	t.points = nil
	t.totalDistanceM = 0
	t.maxSpeedKmh = 0
	t.avgSpeedKmh = 0
}

// StopTracking ends the run. The log stays visible until the next
// StartTracking or Clear.
func (t *Tracker) StopTracking() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tracking = false
	t.startTime = time.Time{}
}

// AddFix appends a fix to the log and updates the running statistics.
// No-op when not tracking.
func (t *Tracker) AddFix(fix geo.Fix) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.tracking {
		return
	}

	fix = fix.Normalize()
	point := Point{
		Lat:        fix.Lat,
		Lng:        fix.Lng,
		SpeedMps:   fix.SpeedMps,
		AltitudeM:  fix.AltitudeM,
		RecordedAt: fix.RecordedAt,
	}

	if len(t.points) > 0 {
		prev := t.points[len(t.points)-1]
		t.totalDistanceM += geo.HaversineKm(prev.Lat, prev.Lng, fix.Lat, fix.Lng) * 1000
	}
	t.points = append(t.points, point)

	if kmh := fix.SpeedKmh(); kmh > t.maxSpeedKmh {
		t.maxSpeedKmh = kmh
	}

	if elapsedHours := t.now().Sub(t.startTime).Hours(); elapsedHours > 0 {
		t.avgSpeedKmh = (t.totalDistanceM / 1000) / elapsedHours
	}
}

// Clear resets the log and statistics regardless of tracking state.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.points = nil
	t.totalDistanceM = 0
	t.maxSpeedKmh = 0
	t.avgSpeedKmh = 0
}

func (t *Tracker) IsTracking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracking
}

func (t *Tracker) TotalDistanceM() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalDistanceM
}

func (t *Tracker) MaxSpeedKmh() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.maxSpeedKmh
}

func (t *Tracker) AverageSpeedKmh() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.avgSpeedKmh
}

// Points returns a copy of the trip log.
func (t *Tracker) Points() []Point {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Point, len(t.points))
	copy(out, t.points)
	return out
}

// Elapsed formats the live run time as HH:MM:SS, "00:00:00" when not
// tracking.
func (t *Tracker) Elapsed() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsedLocked()
}

func (t *Tracker) elapsedLocked() string {
	if !t.tracking || t.startTime.IsZero() {
		return "00:00:00"
	}
	elapsed := int(t.now().Sub(t.startTime).Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", elapsed/3600, elapsed%3600/60, elapsed%60)
}

// Snapshot renders the display view of the run: distance to 2 decimals,
// speeds to 1.
func (t *Tracker) Snapshot() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Stats{
		Tracking:        t.tracking,
		StartedAt:       t.startTime,
		PointCount:      len(t.points),
		TotalDistanceM:  t.totalDistanceM,
		DistanceKm:      fmt.Sprintf("%.2f", t.totalDistanceM/1000),
		MaxSpeedKmh:     fmt.Sprintf("%.1f", t.maxSpeedKmh),
		AverageSpeedKmh: fmt.Sprintf("%.1f", t.avgSpeedKmh),
		Elapsed:         t.elapsedLocked(),
	}
}
