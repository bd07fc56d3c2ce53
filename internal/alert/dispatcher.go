package alert

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"backend-safetrail/internal/contact"
	"backend-safetrail/internal/db"
	"backend-safetrail/internal/geo"

	"github.com/google/uuid"
)

// ErrNoContactsConfigured: triggering an alert with no enabled contacts
// is a caller error, not a silent success.
var ErrNoContactsConfigured = errors.New("no enabled emergency contacts configured")

// defaultMessage is used when the trigger carries no message and the
// user never set one on their profile.
const defaultMessage = "This is an emergency. I need help. Please check on me."

// Sender delivers one alert to one contact.
type Sender interface {
	SendAlert(ctx context.Context, contactName, contactPhone, message string) error
}

// ContactSource yields the contacts that should receive alerts.
type ContactSource interface {
	Enabled(ctx context.Context, userID string) ([]contact.Contact, error)
}

// FixSource yields the user's most recent position, if any.
type FixSource interface {
	LastFix(userID string) *geo.Fix
}

// Result summarizes one triggered alert.
type Result struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	Attempted int    `json:"attempted"`
	Delivered int    `json:"delivered"`
}

// Dispatcher fans an emergency alert out to every enabled contact. One
// contact failing never blocks the others.
type Dispatcher struct {
	db       db.Querier
	contacts ContactSource
	sender   Sender
	fixes    FixSource

	now func() time.Time
}

func NewDispatcher(querier db.Querier, contacts ContactSource, sender Sender, fixes FixSource) *Dispatcher {
	return &Dispatcher{
		db:       querier,
		contacts: contacts,
		sender:   sender,
		fixes:    fixes,
		now:      time.Now,
	}
}

// Trigger sends the alert to all enabled contacts and records the
// attempt. customMessage overrides the user's stored message; with
// neither set a built-in message is used.
func (d *Dispatcher) Trigger(ctx context.Context, userID, customMessage string) (Result, error) {
	recipients, err := d.contacts.Enabled(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	if len(recipients) == 0 {
		return Result{}, ErrNoContactsConfigured
	}

	body := strings.TrimSpace(customMessage)
	if body == "" {
		body = d.storedMessage(ctx, userID)
	}

	var fix *geo.Fix
	if d.fixes != nil {
		fix = d.fixes.LastFix(userID)
	}
	message := composeMessage(body, fix, d.now())

	result := Result{
		ID:        uuid.NewString(),
		Message:   message,
		Attempted: len(recipients),
	}
	for _, c := range recipients {
		if err := d.sender.SendAlert(ctx, c.Name, c.Phone, message); err != nil {
			log.Printf("alert to contact %s failed: %v", c.ID, err)
			continue
		}
		result.Delivered++
	}

	d.record(ctx, result.ID, userID, message, fix, result.Attempted)
	return result, nil
}

// History lists the user's past alerts, newest first.
func (d *Dispatcher) History(ctx context.Context, userID string) ([]Alert, error) {
	rows, err := d.db.Query(ctx, `
		SELECT id, user_id, message,
		       ST_Y(location::geometry), ST_X(location::geometry),
		       attempted, created_at
		FROM emergency_alerts WHERE user_id=$1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.UserID, &a.Message, &a.Lat, &a.Lng, &a.Attempted, &a.CreatedAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, nil
}

func (d *Dispatcher) storedMessage(ctx context.Context, userID string) string {
	var stored string
	err := d.db.QueryRow(ctx, `
		SELECT emergency_message FROM users WHERE id=$1
	`, userID).Scan(&stored)
	if err != nil {
		log.Printf("emergency message lookup failed for user %s: %v", userID, err)
	}
	if stored == "" {
		return defaultMessage
	}
	return stored
}

func composeMessage(body string, fix *geo.Fix, at time.Time) string {
	var b strings.Builder
	b.WriteString("EMERGENCY ALERT\n\n")
	b.WriteString(body)
	b.WriteString("\n\nTime: ")
	b.WriteString(at.Format(time.RFC1123))
	if fix != nil {
		b.WriteString("\nLocation: ")
		b.WriteString(geo.FormatCoords(fix.Lat, fix.Lng, 6))
		b.WriteString("\nMap: ")
		b.WriteString(geo.MapLink(fix.Lat, fix.Lng))
	}
	return b.String()
}

// record persists the alert; a write failure is logged, the alert
// already went out.
func (d *Dispatcher) record(ctx context.Context, id, userID, message string, fix *geo.Fix, attempted int) {
	var err error
	if fix != nil {
		_, err = d.db.Exec(ctx, `
			INSERT INTO emergency_alerts (id, user_id, message, location, attempted)
			VALUES ($1,$2,$3, ST_SetSRID(ST_MakePoint($4,$5), 4326)::geography, $6)
		`, id, userID, message, fix.Lng, fix.Lat, attempted)
	} else {
		_, err = d.db.Exec(ctx, `
			INSERT INTO emergency_alerts (id, user_id, message, attempted)
			VALUES ($1,$2,$3,$4)
		`, id, userID, message, attempted)
	}
	if err != nil {
		log.Printf("alert record insert failed for user %s: %v", userID, err)
	}
}
