package trip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend-zodiack/internal/db"
	"backend-zodiack/internal/shared/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Service struct {
	db  db.Querier
	now func() time.Time
}

func NewService(q db.Querier) *Service {
	return &Service{db: q, now: time.Now}
}

// CreateTrip stores a new trip with a fresh invite code for the QR join
// flow. Status starts at whatever the clock says.
func (s *Service) CreateTrip(ctx context.Context, input Trip) (Trip, error) {
	if input.Name == "" || input.CreatedBy == "" {
		return Trip{}, fmt.Errorf("%w: name and created_by required", apperr.ErrValidation)
	}
	if !input.EndTime.After(input.StartTime) {
		return Trip{}, fmt.Errorf("%w: end_time must follow start_time", apperr.ErrValidation)
	}

	input.ID = uuid.NewString()
	input.InviteCode = uuid.NewString()
	input.Cancelled = false
	input.Status = DeriveStatus(s.now(), input.StartTime, input.EndTime, false)

	row := s.db.QueryRow(ctx, `
		INSERT INTO trips (id, name, description, created_by, start_time, end_time, status, invite_code)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at
	`, input.ID, input.Name, input.Description, input.CreatedBy, input.StartTime, input.EndTime, input.Status, input.InviteCode)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Trip{}, fmt.Errorf("%w: create trip: %v", apperr.ErrInternal, err)
	}
	return input, nil
}

func (s *Service) GetTrip(ctx context.Context, id string) (Trip, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, description, created_by, start_time, end_time, status, cancelled, invite_code, created_at
		FROM trips WHERE id=$1 AND is_deleted=false
	`, id)

	var t Trip
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedBy, &t.StartTime, &t.EndTime, &t.Status, &t.Cancelled, &t.InviteCode, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Trip{}, fmt.Errorf("%w: trip %s", apperr.ErrNotFound, id)
		}
		return Trip{}, fmt.Errorf("%w: get trip: %v", apperr.ErrInternal, err)
	}
	return t, nil
}

func (s *Service) UpdateTrip(ctx context.Context, id string, patch Trip) (Trip, error) {
	t, err := s.GetTrip(ctx, id)
	if err != nil {
		return Trip{}, err
	}
	if patch.Name != "" {
		t.Name = patch.Name
	}
	if patch.Description != "" {
		t.Description = patch.Description
	}
	if !patch.StartTime.IsZero() {
		t.StartTime = patch.StartTime
	}
	if !patch.EndTime.IsZero() {
		t.EndTime = patch.EndTime
	}
	if !t.EndTime.After(t.StartTime) {
		return Trip{}, fmt.Errorf("%w: end_time must follow start_time", apperr.ErrValidation)
	}
	if !t.Cancelled {
		t.Status = DeriveStatus(s.now(), t.StartTime, t.EndTime, false)
	}

	_, err = s.db.Exec(ctx, `
		UPDATE trips
		SET name=$2, description=$3, start_time=$4, end_time=$5, status=$6
		WHERE id=$1
	`, t.ID, t.Name, t.Description, t.StartTime, t.EndTime, t.Status)
	if err != nil {
		return Trip{}, fmt.Errorf("%w: update trip: %v", apperr.ErrInternal, err)
	}
	return t, nil
}

// Cancel sets the terminal override. The scheduler never un-cancels.
func (s *Service) Cancel(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE trips SET cancelled=true, status=$2 WHERE id=$1 AND is_deleted=false
	`, id, StatusCancelled)
	if err != nil {
		return fmt.Errorf("%w: cancel trip: %v", apperr.ErrInternal, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: trip %s", apperr.ErrNotFound, id)
	}
	return nil
}

func (s *Service) DeleteTrip(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `UPDATE trips SET is_deleted=true WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete trip: %v", apperr.ErrInternal, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: trip %s", apperr.ErrNotFound, id)
	}
	return nil
}

// JoinByCode resolves a scanned QR invite code to its trip and enrolls the
// user. Joining twice is a no-op.
func (s *Service) JoinByCode(ctx context.Context, code, userID string) (Trip, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, description, created_by, start_time, end_time, status, cancelled, invite_code, created_at
		FROM trips WHERE invite_code=$1 AND is_deleted=false
	`, code)

	var t Trip
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedBy, &t.StartTime, &t.EndTime, &t.Status, &t.Cancelled, &t.InviteCode, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Trip{}, fmt.Errorf("%w: invite code not recognized", apperr.ErrNotFound)
		}
		return Trip{}, fmt.Errorf("%w: resolve invite: %v", apperr.ErrInternal, err)
	}
	if t.Cancelled || t.Status == StatusCompleted {
		return Trip{}, fmt.Errorf("%w: trip %s no longer accepts participants", apperr.ErrConflict, t.ID)
	}

	if _, err := s.db.Exec(ctx, `
		INSERT INTO trip_participants (trip_id, user_id)
		VALUES ($1,$2)
		ON CONFLICT (trip_id, user_id) DO NOTHING
	`, t.ID, userID); err != nil {
		return Trip{}, fmt.Errorf("%w: join trip: %v", apperr.ErrInternal, err)
	}
	return t, nil
}

func (s *Service) Participants(ctx context.Context, tripID string) ([]Participant, error) {
	rows, err := s.db.Query(ctx, `
		SELECT trip_id, user_id, joined_at
		FROM trip_participants WHERE trip_id=$1
		ORDER BY joined_at
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("%w: participants: %v", apperr.ErrInternal, err)
	}
	defer rows.Close()

	var out []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.TripID, &p.UserID, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("%w: scan participant: %v", apperr.ErrInternal, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
