package session

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"backend-safetrail/internal/db"
	"backend-safetrail/internal/geo"
	"backend-safetrail/internal/location"

	"github.com/google/uuid"
)

// Provider is the slice of the location provider the session manager
// needs.
type Provider interface {
	Permission(userID string) location.PermissionState
	Start(userID string) error
	Stop(userID string)
}

// ArrivalChecker receives the destination declared at start and every
// fix while the session runs.
type ArrivalChecker interface {
	SetDestination(userID string, lat, lng float64, name string)
	CheckArrival(ctx context.Context, userID string, fix geo.Fix)
}

// Broadcaster fans fixes out to share-link watchers.
type Broadcaster interface {
	Broadcast(shareToken string, payload []byte)
}

// activeSession is the in-memory fix-path state for one running session:
// it keeps the per-fix work bounded (no session lookup query per fix).
type activeSession struct {
	id         string
	shareToken string
	startSet   bool
	lastFix    *geo.Fix
}

// Service owns the safety-session state machine. The database is the
// authority on which sessions exist; the in-memory active set drives the
// fix path and the end-location capture.
type Service struct {
	db       db.Querier
	provider Provider
	arrivals ArrivalChecker
	hub      Broadcaster
	shareURL string

	mu     sync.Mutex
	active map[string]*activeSession

	now func() time.Time
}

func NewService(querier db.Querier, provider Provider, arrivals ArrivalChecker, hub Broadcaster, shareBaseURL string) *Service {
	return &Service{
		db:       querier,
		provider: provider,
		arrivals: arrivals,
		hub:      hub,
		shareURL: shareBaseURL,
		active:   map[string]*activeSession{},
		now:      time.Now,
	}
}

// Start opens a new session for the user. It fails when location
// permission is missing, still pending, or a session is already active.
func (s *Service) Start(ctx context.Context, userID string, dest *Destination) (Session, error) {
	switch perm := s.provider.Permission(userID); {
	case perm == location.PermissionDenied || perm == location.PermissionRestricted:
		return Session{}, ErrPermissionDenied
	case perm == location.PermissionUndetermined:
		return Session{}, ErrPermissionPending
	}

	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM safety_sessions WHERE user_id=$1 AND is_active)
	`, userID).Scan(&exists)
	if err != nil {
		return Session{}, err
	}
	if exists {
		return Session{}, ErrSessionAlreadyActive
	}

	sess := Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		ShareToken: uuid.NewString(),
		StartedAt:  s.now(),
		IsActive:   true,
	}
	if dest != nil {
		sess.DestinationName = dest.Name
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO safety_sessions (id, user_id, share_token, started_at, is_active, destination_name)
		VALUES ($1,$2,$3,$4,true,$5)
		RETURNING started_at
	`, sess.ID, sess.UserID, sess.ShareToken, sess.StartedAt, sess.DestinationName)
	if err := row.Scan(&sess.StartedAt); err != nil {
		return Session{}, err
	}

	if err := s.provider.Start(userID); err != nil {
		// permission was revoked between the check and the claim
		_, _ = s.db.Exec(ctx, `
			UPDATE safety_sessions SET is_active=false, ended_at=$2 WHERE id=$1
		`, sess.ID, s.now())
		return Session{}, ErrPermissionDenied
	}

	if dest != nil && s.arrivals != nil {
		s.arrivals.SetDestination(userID, dest.Lat, dest.Lng, dest.Name)
	}

	s.mu.Lock()
	s.active[userID] = &activeSession{id: sess.ID, shareToken: sess.ShareToken}
	s.mu.Unlock()

	return sess, nil
}

type fixEvent struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	SpeedMps   float64   `json:"speed_mps"`
	RecordedAt time.Time `json:"recorded_at"`
}

// OnFix handles one delivered fix for the user's active session. Fixes
// arriving with no session active (including after End) are dropped.
// Persistence failures are logged and never interrupt ingestion.
func (s *Service) OnFix(ctx context.Context, userID string, fix geo.Fix) {
	s.mu.Lock()
	sess, ok := s.active[userID]
	if !ok {
		s.mu.Unlock()
		return
	}
	fixCopy := fix
	sess.lastFix = &fixCopy
	startPending := !sess.startSet
	sessionID, shareToken := sess.id, sess.shareToken
	s.mu.Unlock()

	_, err := s.db.Exec(ctx, `
		INSERT INTO location_records (session_id, location, accuracy_m, speed_mps, altitude_m, recorded_at)
		VALUES ($1, ST_SetSRID(ST_MakePoint($2,$3), 4326)::geography, $4, $5, $6, $7)
	`, sessionID, fix.Lng, fix.Lat, fix.AccuracyM, fix.SpeedMps, fix.AltitudeM, fix.RecordedAt)
	if err != nil {
		log.Printf("location record insert failed for session %s: %v", sessionID, err)
	}

	if startPending {
		// write-once: the SQL guard makes a lost race harmless
		_, err := s.db.Exec(ctx, `
			UPDATE safety_sessions
			SET start_location = ST_SetSRID(ST_MakePoint($2,$3), 4326)::geography
			WHERE id=$1 AND start_location IS NULL
		`, sessionID, fix.Lng, fix.Lat)
		if err != nil {
			log.Printf("start location update failed for session %s: %v", sessionID, err)
		} else {
			s.mu.Lock()
			sess.startSet = true
			s.mu.Unlock()
		}
	}

	if s.arrivals != nil {
		s.arrivals.CheckArrival(ctx, userID, fix)
	}

	if s.hub != nil {
		payload, _ := json.Marshal(fixEvent{
			Lat:        fix.Lat,
			Lng:        fix.Lng,
			SpeedMps:   fix.SpeedMps,
			RecordedAt: fix.RecordedAt,
		})
		s.hub.Broadcast(shareToken, payload)
	}
}

// End closes the user's active session. With nothing active it is a
// benign no-op. The location stream is released; the provider keeps it
// alive if route recording still holds its own claim.
func (s *Service) End(ctx context.Context, userID string) error {
	s.mu.Lock()
	sess, ok := s.active[userID]
	delete(s.active, userID)
	s.mu.Unlock()

	if !ok {
		// covers both "nothing active" and a session orphaned by a restart
		tag, err := s.db.Exec(ctx, `
			UPDATE safety_sessions SET is_active=false, ended_at=$2
			WHERE user_id=$1 AND is_active
		`, userID, s.now())
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			log.Printf("end safety mode: no active session for user %s", userID)
		}
		return nil
	}

	var err error
	if sess.lastFix != nil {
		_, err = s.db.Exec(ctx, `
			UPDATE safety_sessions
			SET is_active=false, ended_at=$2,
			    end_location = ST_SetSRID(ST_MakePoint($3,$4), 4326)::geography
			WHERE id=$1
		`, sess.id, s.now(), sess.lastFix.Lng, sess.lastFix.Lat)
	} else {
		_, err = s.db.Exec(ctx, `
			UPDATE safety_sessions SET is_active=false, ended_at=$2 WHERE id=$1
		`, sess.id, s.now())
	}
	if err != nil {
		return err
	}

	s.provider.Stop(userID)
	return nil
}

const sessionColumns = `
	id, user_id, share_token, started_at, ended_at, is_active,
	ST_Y(start_location::geometry), ST_X(start_location::geometry),
	ST_Y(end_location::geometry), ST_X(end_location::geometry),
	destination_name`

func (s *Service) Get(ctx context.Context, id, userID string) (Session, error) {
	row := s.db.QueryRow(ctx, `
		SELECT`+sessionColumns+`
		FROM safety_sessions WHERE id=$1 AND user_id=$2
	`, id, userID)
	return scanSession(row)
}

func (s *Service) List(ctx context.Context, userID string) ([]Session, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+sessionColumns+`
		FROM safety_sessions WHERE user_id=$1
		ORDER BY started_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var sess Session
	err := row.Scan(&sess.ID, &sess.UserID, &sess.ShareToken, &sess.StartedAt, &sess.EndedAt, &sess.IsActive,
		&sess.StartLat, &sess.StartLng, &sess.EndLat, &sess.EndLng, &sess.DestinationName)
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Delete removes a session; its location records cascade with it.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	s.mu.Lock()
	if sess, ok := s.active[userID]; ok && sess.id == id {
		delete(s.active, userID)
		defer s.provider.Stop(userID)
	}
	s.mu.Unlock()

	_, err := s.db.Exec(ctx, `DELETE FROM safety_sessions WHERE id=$1 AND user_id=$2`, id, userID)
	return err
}

func (s *Service) Records(ctx context.Context, sessionID string) ([]Record, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, session_id, ST_Y(location::geometry), ST_X(location::geometry),
		       accuracy_m, speed_mps, altitude_m, recorded_at, created_at
		FROM location_records WHERE session_id=$1
		ORDER BY recorded_at
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Lat, &r.Lng, &r.AccuracyM, &r.SpeedMps, &r.AltitudeM, &r.RecordedAt, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// LastFix returns a copy of the most recent fix seen by the user's
// active session, or nil when no session is active or no fix arrived yet.
func (s *Service) LastFix(userID string) *geo.Fix {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.active[userID]; ok && sess.lastFix != nil {
		fix := *sess.lastFix
		return &fix
	}
	return nil
}

// ValidateShareToken reports whether the token belongs to an active
// session; the stream hub consults it before registering a watcher.
func (s *Service) ValidateShareToken(ctx context.Context, token string) bool {
	s.mu.Lock()
	for _, sess := range s.active {
		if sess.shareToken == token {
			s.mu.Unlock()
			return true
		}
	}
	s.mu.Unlock()

	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM safety_sessions WHERE share_token=$1 AND is_active)
	`, token).Scan(&exists)
	if err != nil {
		return false
	}
	return exists
}

// ShareLink builds the watcher URL for a session's share token.
func (s *Service) ShareLink(shareToken string) string {
	return s.shareURL + "/stream/ws/" + shareToken
}
