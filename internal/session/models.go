package session

import "time"

// Session is one bounded period of safety monitoring. A session never
// returns to active once ended; starting again creates a new one.
type Session struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	ShareToken      string     `json:"share_token"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	IsActive        bool       `json:"is_active"`
	StartLat        *float64   `json:"start_lat,omitempty"`
	StartLng        *float64   `json:"start_lng,omitempty"`
	EndLat          *float64   `json:"end_lat,omitempty"`
	EndLng          *float64   `json:"end_lng,omitempty"`
	DestinationName string     `json:"destination_name,omitempty"`
}

// Record is one persisted fix belonging to a session. Records share their
// session's lifecycle: deleting the session removes them.
type Record struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	AccuracyM  float64   `json:"accuracy_m"`
	SpeedMps   float64   `json:"speed_mps"`
	AltitudeM  float64   `json:"altitude_m"`
	RecordedAt time.Time `json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Destination is the optional target declared when starting a session.
type Destination struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Name string  `json:"name"`
}
