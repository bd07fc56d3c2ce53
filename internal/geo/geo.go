package geo

import (
	"fmt"
	"math"
	"time"
)

const earthRadiusKm = 6371.0

// Fix is one position sample as reported by the device. It is passed by
// value everywhere; nothing mutates a fix after Normalize.
type Fix struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	AccuracyM  float64   `json:"accuracy_m"`
	SpeedMps   float64   `json:"speed_mps"`
	AltitudeM  float64   `json:"altitude_m"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Normalize clamps negative GPS speed readings to zero and stamps fixes
// that arrive without a timestamp.
func (f Fix) Normalize() Fix {
	if f.SpeedMps < 0 {
		f.SpeedMps = 0
	}
	if f.RecordedAt.IsZero() {
		f.RecordedAt = time.Now()
	}
	return f
}

// SpeedKmh converts the instantaneous speed to km/h.
func (f Fix) SpeedKmh() float64 {
	return f.SpeedMps * 3.6
}

// HaversineKm returns the great-circle distance between two coordinates
// in kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// DistanceM returns the great-circle distance between two fixes in meters.
func DistanceM(a, b Fix) float64 {
	return HaversineKm(a.Lat, a.Lng, b.Lat, b.Lng) * 1000
}

// MapLink builds the maps link embedded in shared and alert messages.
func MapLink(lat, lng float64) string {
	return fmt.Sprintf("https://maps.apple.com/?ll=%f,%f", lat, lng)
}

// FormatCoords renders "lat, lng" with the given number of decimals.
func FormatCoords(lat, lng float64, decimals int) string {
	return fmt.Sprintf("%.*f, %.*f", decimals, lat, decimals, lng)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
