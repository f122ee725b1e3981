package checkpoint

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"backend-zodiack/internal/db"
	"backend-zodiack/internal/shared/apperr"
	"backend-zodiack/internal/shared/geo"
)

// CheckInRadiusM is how close a participant must be to a meeting point
// for a check-in to count.
const CheckInRadiusM = 100

type Service struct {
	db db.Querier
}

func NewService(querier db.Querier) *Service {
	return &Service{db: querier}
}

func (s *Service) Create(ctx context.Context, input Checkpoint) (Checkpoint, error) {
	if input.Name == "" || input.TripID == "" {
		return Checkpoint{}, fmt.Errorf("%w: name and trip_id required", apperr.ErrValidation)
	}
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO checkpoints (id, trip_id, name, description, lat, lng, meet_at, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at
	`, input.ID, input.TripID, input.Name, input.Description, input.Lat, input.Lng, input.MeetAt, input.CreatedBy)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Checkpoint{}, err
	}
	return input, nil
}

func (s *Service) Get(ctx context.Context, id string) (Checkpoint, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, trip_id, name, description, lat, lng, meet_at, created_by, created_at
		FROM checkpoints WHERE id=$1
	`, id)
	var cp Checkpoint
	if err := row.Scan(&cp.ID, &cp.TripID, &cp.Name, &cp.Description, &cp.Lat, &cp.Lng, &cp.MeetAt, &cp.CreatedBy, &cp.CreatedAt); err != nil {
		return Checkpoint{}, fmt.Errorf("%w: checkpoint %s", apperr.ErrNotFound, id)
	}
	return cp, nil
}

func (s *Service) Update(ctx context.Context, id string, patch Checkpoint) (Checkpoint, error) {
	cp, err := s.Get(ctx, id)
	if err != nil {
		return Checkpoint{}, err
	}
	if patch.Name != "" {
		cp.Name = patch.Name
	}
	if patch.Description != "" {
		cp.Description = patch.Description
	}
	if patch.Lat != 0 {
		cp.Lat = patch.Lat
	}
	if patch.Lng != 0 {
		cp.Lng = patch.Lng
	}
	if !patch.MeetAt.IsZero() {
		cp.MeetAt = patch.MeetAt
	}

	_, err = s.db.Exec(ctx, `
		UPDATE checkpoints
		SET name=$2, description=$3, lat=$4, lng=$5, meet_at=$6
		WHERE id=$1
	`, cp.ID, cp.Name, cp.Description, cp.Lat, cp.Lng, cp.MeetAt)
	if err != nil {
		return Checkpoint{}, err
	}
	return cp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM checkpoints WHERE id=$1`, id)
	return err
}

func (s *Service) ListByTrip(ctx context.Context, tripID string) ([]Checkpoint, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, trip_id, name, description, lat, lng, meet_at, created_by, created_at
		FROM checkpoints WHERE trip_id=$1
		ORDER BY meet_at
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checkpoints []Checkpoint
	for rows.Next() {
		var cp Checkpoint
		if err := rows.Scan(&cp.ID, &cp.TripID, &cp.Name, &cp.Description, &cp.Lat, &cp.Lng, &cp.MeetAt, &cp.CreatedBy, &cp.CreatedAt); err != nil {
			return nil, err
		}
		checkpoints = append(checkpoints, cp)
	}
	return checkpoints, nil
}

// CheckIn records a participant's arrival at a meeting point. The reported
// position must be within CheckInRadiusM of the checkpoint.
func (s *Service) CheckIn(ctx context.Context, checkpointID, userID string, lat, lng float64) (CheckIn, error) {
	cp, err := s.Get(ctx, checkpointID)
	if err != nil {
		return CheckIn{}, err
	}

	distance := geo.HaversineM(cp.Lat, cp.Lng, lat, lng)
	if distance > CheckInRadiusM {
		return CheckIn{}, fmt.Errorf("%w: %.0fm away from %s", apperr.ErrValidation, distance, cp.Name)
	}

	ci := CheckIn{
		ID:           uuid.NewString(),
		CheckpointID: checkpointID,
		UserID:       userID,
		Lat:          lat,
		Lng:          lng,
		DistanceM:    distance,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO checkpoint_checkins (id, checkpoint_id, user_id, lat, lng, distance_m)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (checkpoint_id, user_id) DO UPDATE
		SET lat=EXCLUDED.lat, lng=EXCLUDED.lng, distance_m=EXCLUDED.distance_m
		RETURNING created_at
	`, ci.ID, ci.CheckpointID, ci.UserID, ci.Lat, ci.Lng, ci.DistanceM)
	if err := row.Scan(&ci.CreatedAt); err != nil {
		return CheckIn{}, err
	}
	return ci, nil
}

func (s *Service) CheckIns(ctx context.Context, checkpointID string) ([]CheckIn, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, checkpoint_id, user_id, lat, lng, distance_m, created_at
		FROM checkpoint_checkins WHERE checkpoint_id=$1
		ORDER BY created_at
	`, checkpointID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checkins []CheckIn
	for rows.Next() {
		var ci CheckIn
		if err := rows.Scan(&ci.ID, &ci.CheckpointID, &ci.UserID, &ci.Lat, &ci.Lng, &ci.DistanceM, &ci.CreatedAt); err != nil {
			return nil, err
		}
		checkins = append(checkins, ci)
	}
	return checkins, nil
}

// Missing lists trip participants who have not checked in yet.
func (s *Service) Missing(ctx context.Context, checkpointID string) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT tp.user_id
		FROM checkpoints cp
		JOIN trip_participants tp ON tp.trip_id = cp.trip_id
		WHERE cp.id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM checkpoint_checkins ci
			WHERE ci.checkpoint_id = cp.id AND ci.user_id = tp.user_id
		  )
	`, checkpointID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var missing []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		missing = append(missing, id)
	}
	return missing, nil
}
