package alert

import "time"

// Alert is one persisted emergency alert. Location is nil when no fix
// was available at trigger time.
type Alert struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Lat       *float64  `json:"lat,omitempty"`
	Lng       *float64  `json:"lng,omitempty"`
	Attempted int       `json:"attempted"`
	CreatedAt time.Time `json:"created_at"`
}
