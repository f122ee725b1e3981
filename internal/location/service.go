package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"backend-zodiack/internal/db"
	"backend-zodiack/internal/session"
	"backend-zodiack/internal/shared/apperr"
	"backend-zodiack/internal/shared/geo"

	"github.com/jackc/pgx/v5"
)

// SampleCap bounds the live sample buffer per user. On overflow the oldest
// sample is dropped so the buffer keeps a sliding window of recent history.
const SampleCap = 100

// EventLocationUpdated is pushed to a user's own session after each
// accepted sample.
const EventLocationUpdated = "locationUpdated"

// RequestEvent names the per-user location request event.
func RequestEvent(userID string) string {
	return "locationRequest-" + userID
}

// Broadcaster fans a payload out to everyone watching a topic. The stream
// hub satisfies it.
type Broadcaster interface {
	Broadcast(topic string, payload []byte)
}

// Service maintains rolling, bounded location history per user and the
// trip-scoped tracking window. All mutations for a given user are
// serialized through a per-user lock.
type Service struct {
	db       db.Querier
	registry *session.Registry
	hub      Broadcaster
	now      func() time.Time

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

func NewService(q db.Querier, registry *session.Registry, hub Broadcaster) *Service {
	return &Service{
		db:        q,
		registry:  registry,
		hub:       hub,
		now:       time.Now,
		userLocks: map[string]*sync.Mutex{},
	}
}

func (s *Service) lockUser(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.userLocks[userID] = l
	}
	return l
}

// RequestTracking opens (or re-opens) the tracking window for userID and
// notifies the user's live session that their location was requested.
// Single upsert: calling it twice never duplicates the track row.
func (s *Service) RequestTracking(ctx context.Context, userID, requesterName string, window time.Duration) error {
	l := s.lockUser(userID)
	l.Lock()
	defer l.Unlock()

	expiresAt := s.now().Add(window)
	_, err := s.db.Exec(ctx, `
		INSERT INTO location_tracks (user_id, tracking_enabled, expires_at, samples, archived)
		VALUES ($1, true, $2, '[]'::jsonb, '[]'::jsonb)
		ON CONFLICT (user_id) DO UPDATE
		SET tracking_enabled=true, expires_at=EXCLUDED.expires_at, is_deleted=false
	`, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("%w: request tracking: %v", apperr.ErrInternal, err)
	}

	if target, ok := s.registry.Lookup(userID); ok {
		if err := target.Transport.Emit(RequestEvent(userID), RequestPayload{UserID: userID, Name: requesterName}); err != nil {
			log.Printf("location: request event to %s failed: %v", userID, err)
		}
	}
	return nil
}

// RecordSample appends one coordinate reading for userID. A missing track
// or disabled tracking fails with ErrNotFound. At or past the window
// expiry the track is disabled, persisted and a terminal stopped result is
// returned without appending; a later call then fails with ErrNotFound.
func (s *Service) RecordSample(ctx context.Context, userID string, lat, lng float64) (RecordResult, error) {
	l := s.lockUser(userID)
	l.Lock()
	defer l.Unlock()

	var (
		enabled   bool
		expiresAt time.Time
		prevLat   float64
		prevLng   float64
		distanceM float64
		rawLive   []byte
	)
	row := s.db.QueryRow(ctx, `
		SELECT tracking_enabled, expires_at, latitude, longitude, distance_m, samples
		FROM location_tracks
		WHERE user_id=$1 AND is_deleted=false
	`, userID)
	if err := row.Scan(&enabled, &expiresAt, &prevLat, &prevLng, &distanceM, &rawLive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RecordResult{}, fmt.Errorf("%w: no location track for user %s", apperr.ErrNotFound, userID)
		}
		return RecordResult{}, fmt.Errorf("%w: load track: %v", apperr.ErrInternal, err)
	}
	if !enabled {
		return RecordResult{}, fmt.Errorf("%w: tracking disabled for user %s", apperr.ErrNotFound, userID)
	}

	now := s.now()
	if !now.Before(expiresAt) {
		if _, err := s.db.Exec(ctx, `
			UPDATE location_tracks SET tracking_enabled=false WHERE user_id=$1
		`, userID); err != nil {
			return RecordResult{}, fmt.Errorf("%w: stop tracking: %v", apperr.ErrInternal, err)
		}
		s.push(userID, UpdatePayload{UserID: userID, Latitude: prevLat, Longitude: prevLng, IsTrackingEnabled: false, Time: now})
		return RecordResult{Stopped: true}, nil
	}

	var samples []Sample
	if len(rawLive) > 0 {
		if err := json.Unmarshal(rawLive, &samples); err != nil {
			return RecordResult{}, fmt.Errorf("%w: decode samples: %v", apperr.ErrInternal, err)
		}
	}

	// A fresh track has never recorded a sample; its lat/lng columns hold
	// defaults, not a real previous position, so no distance accrues yet.
	hasPrev := len(samples) > 0

	sample := Sample{Latitude: lat, Longitude: lng, Timestamp: now}
	if len(samples) >= SampleCap {
		samples = samples[len(samples)-SampleCap+1:]
	}
	samples = append(samples, sample)

	if hasPrev {
		distanceM += geo.HaversineM(prevLat, prevLng, lat, lng)
	}

	encoded, err := json.Marshal(samples)
	if err != nil {
		return RecordResult{}, fmt.Errorf("%w: encode samples: %v", apperr.ErrInternal, err)
	}
	if _, err := s.db.Exec(ctx, `
		UPDATE location_tracks
		SET latitude=$2, longitude=$3, samples=$4, distance_m=$5
		WHERE user_id=$1
	`, userID, lat, lng, encoded, distanceM); err != nil {
		return RecordResult{}, fmt.Errorf("%w: store sample: %v", apperr.ErrInternal, err)
	}

	s.push(userID, UpdatePayload{UserID: userID, Latitude: lat, Longitude: lng, IsTrackingEnabled: true, Time: now})
	return RecordResult{Sample: sample}, nil
}

// push delivers the locationUpdated event to the user's own session and
// broadcasts it on the hub topic for trip watchers. Both are best-effort.
func (s *Service) push(userID string, payload UpdatePayload) {
	if target, ok := s.registry.Lookup(userID); ok {
		if err := target.Transport.Emit(EventLocationUpdated, payload); err != nil {
			log.Printf("location: update event to %s failed: %v", userID, err)
		}
	}
	if s.hub != nil {
		// watchers read enveloped frames, same shape Transport.Emit produces
		frame := struct {
			Event string        `json:"event"`
			Data  UpdatePayload `json:"data"`
		}{Event: EventLocationUpdated, Data: payload}
		encoded, err := json.Marshal(frame)
		if err != nil {
			return
		}
		s.hub.Broadcast(Topic(userID), encoded)
	}
}

// Topic names the hub channel carrying a user's live location.
func Topic(userID string) string {
	return "location:" + userID
}

// ExtendWindow pushes the expiry out by the parsed delta. The raw value
// follows the ParseWindow contract.
func (s *Service) ExtendWindow(ctx context.Context, userID string, raw any) (time.Duration, error) {
	delta, err := ParseWindow(raw)
	if err != nil {
		return 0, err
	}

	l := s.lockUser(userID)
	l.Lock()
	defer l.Unlock()

	tag, err := s.db.Exec(ctx, `
		UPDATE location_tracks
		SET expires_at = expires_at + $2
		WHERE user_id=$1 AND is_deleted=false
	`, userID, delta)
	if err != nil {
		return 0, fmt.Errorf("%w: extend window: %v", apperr.ErrInternal, err)
	}
	if tag.RowsAffected() == 0 {
		return 0, fmt.Errorf("%w: no location track for user %s", apperr.ErrNotFound, userID)
	}
	return delta, nil
}

// Archive moves the live samples into the archival sequence and clears the
// live buffer, bounding memory without losing history.
func (s *Service) Archive(ctx context.Context, userID string) error {
	l := s.lockUser(userID)
	l.Lock()
	defer l.Unlock()

	tag, err := s.db.Exec(ctx, `
		UPDATE location_tracks
		SET archived = COALESCE(archived, '[]'::jsonb) || samples,
		    samples = '[]'::jsonb
		WHERE user_id=$1 AND is_deleted=false
	`, userID)
	if err != nil {
		return fmt.Errorf("%w: archive: %v", apperr.ErrInternal, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: no location track for user %s", apperr.ErrNotFound, userID)
	}
	return nil
}

// AllTracked returns every non-deleted track with its full history,
// archived samples first, then the live buffer.
func (s *Service) AllTracked(ctx context.Context) ([]Track, error) {
	rows, err := s.db.Query(ctx, `
		SELECT user_id, latitude, longitude, tracking_enabled, expires_at, distance_m,
		       COALESCE(archived, '[]'::jsonb), COALESCE(samples, '[]'::jsonb)
		FROM location_tracks
		WHERE is_deleted=false
		ORDER BY user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: list tracks: %v", apperr.ErrInternal, err)
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		var (
			t           Track
			rawArchived []byte
			rawLive     []byte
		)
		if err := rows.Scan(&t.UserID, &t.Latitude, &t.Longitude, &t.TrackingEnabled, &t.ExpiresAt, &t.DistanceM, &rawArchived, &rawLive); err != nil {
			return nil, fmt.Errorf("%w: scan track: %v", apperr.ErrInternal, err)
		}

		var archived, live []Sample
		if err := json.Unmarshal(rawArchived, &archived); err != nil {
			return nil, fmt.Errorf("%w: decode archived: %v", apperr.ErrInternal, err)
		}
		if err := json.Unmarshal(rawLive, &live); err != nil {
			return nil, fmt.Errorf("%w: decode samples: %v", apperr.ErrInternal, err)
		}
		t.Archived = archived
		t.Samples = append(append([]Sample{}, archived...), live...)
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// SweepExpired disables every track whose window has lapsed. The lazy
// check in RecordSample still guards late in-flight samples; this bounds
// how long a track can linger "enabled" with no traffic.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE location_tracks
		SET tracking_enabled=false
		WHERE tracking_enabled=true AND expires_at <= $1 AND is_deleted=false
	`, s.now())
	if err != nil {
		return 0, fmt.Errorf("%w: sweep expired tracks: %v", apperr.ErrInternal, err)
	}
	return tag.RowsAffected(), nil
}

// Delete soft-marks a user's track. History stays queryable for export.
func (s *Service) Delete(ctx context.Context, userID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE location_tracks
		SET is_deleted=true, tracking_enabled=false
		WHERE user_id=$1
	`, userID)
	if err != nil {
		return fmt.Errorf("%w: delete track: %v", apperr.ErrInternal, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: no location track for user %s", apperr.ErrNotFound, userID)
	}
	return nil
}
