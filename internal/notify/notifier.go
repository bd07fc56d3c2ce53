package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	arrivalChannel = "notify:arrivals"
	alertChannel   = "notify:alerts"
)

// Service publishes notification events to redis channels consumed by an
// out-of-process delivery worker; the SMS and push transports themselves
// stay outside this service. Without redis it degrades to log-only, which
// keeps local development and tests honest.
//
// Both operations are fire-and-forget: the caller only sees an error for
// logging, never for control flow.
type Service struct {
	redis *redis.Client
	now   func() time.Time
}

func NewService(redisClient *redis.Client) *Service {
	return &Service{redis: redisClient, now: time.Now}
}

type arrivalEvent struct {
	Destination string    `json:"destination"`
	Body        string    `json:"body"`
	At          time.Time `json:"at"`
}

type alertEvent struct {
	ContactName  string    `json:"contact_name"`
	ContactPhone string    `json:"contact_phone"`
	Message      string    `json:"message"`
	At           time.Time `json:"at"`
}

// NotifyArrival emits the safe-arrival notification for a destination.
func (s *Service) NotifyArrival(ctx context.Context, destinationName string) error {
	event := arrivalEvent{
		Destination: destinationName,
		Body:        "You have arrived safely at " + destinationName + ". Journey complete.",
		At:          s.now(),
	}
	return s.publish(ctx, arrivalChannel, event)
}

// SendAlert emits one emergency alert for one contact.
func (s *Service) SendAlert(ctx context.Context, contactName, contactPhone, message string) error {
	event := alertEvent{
		ContactName:  contactName,
		ContactPhone: contactPhone,
		Message:      message,
		At:           s.now(),
	}
	return s.publish(ctx, alertChannel, event)
}

func (s *Service) publish(ctx context.Context, channel string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if s.redis == nil {
		log.Printf("notify (no redis) %s: %s", channel, payload)
		return nil
	}
	return s.redis.Publish(ctx, channel, payload).Err()
}
