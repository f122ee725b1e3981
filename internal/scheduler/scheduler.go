package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"backend-zodiack/internal/db"
	"backend-zodiack/internal/shared/apperr"
	"backend-zodiack/internal/trip"
)

// TrackSweeper disables lapsed location-tracking windows; the location
// store implements it.
type TrackSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// Service reconciles derived trip state on a timer, independent of request
// traffic. Every status sweep runs in one transaction: an error aborts the
// whole batch and the next tick retries from unchanged state.
type Service struct {
	db     db.TxQuerier
	tracks TrackSweeper
	now    func() time.Time

	statusInterval time.Duration
	dailyInterval  time.Duration
	retention      time.Duration
}

func NewService(q db.TxQuerier, tracks TrackSweeper, statusInterval, dailyInterval time.Duration) *Service {
	if statusInterval <= 0 {
		statusInterval = time.Minute
	}
	if dailyInterval <= 0 {
		dailyInterval = 24 * time.Hour
	}
	return &Service{
		db:             q,
		tracks:         tracks,
		now:            time.Now,
		statusInterval: statusInterval,
		dailyInterval:  dailyInterval,
		retention:      30 * 24 * time.Hour,
	}
}

// SweepResult counts the transitions one status sweep applied.
type SweepResult struct {
	Planned   int
	Ongoing   int
	Completed int
}

// SweepStatuses recomputes each trip's lifecycle state from the clock and
// bulk-applies only the rows whose stored status disagrees. Cancelled
// trips are never touched. Trips newly completed lose their participant
// list and release the creating teacher's ongoing flag.
func (s *Service) SweepStatuses(ctx context.Context) (SweepResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("%w: begin sweep: %v", apperr.ErrInternal, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT id, created_by, start_time, end_time, status, cancelled
		FROM trips WHERE is_deleted=false
	`)
	if err != nil {
		return SweepResult{}, fmt.Errorf("%w: load trips: %v", apperr.ErrInternal, err)
	}

	now := s.now()
	groups := map[string][]string{}
	var completedIDs, completedCreators []string
	for rows.Next() {
		var (
			id, createdBy, status string
			start, end            time.Time
			cancelled             bool
		)
		if err := rows.Scan(&id, &createdBy, &start, &end, &status, &cancelled); err != nil {
			rows.Close()
			return SweepResult{}, fmt.Errorf("%w: scan trip: %v", apperr.ErrInternal, err)
		}
		if cancelled {
			continue
		}
		target := trip.DeriveStatus(now, start, end, false)
		if target == status {
			continue
		}
		groups[target] = append(groups[target], id)
		if target == trip.StatusCompleted {
			completedIDs = append(completedIDs, id)
			completedCreators = append(completedCreators, createdBy)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return SweepResult{}, fmt.Errorf("%w: iterate trips: %v", apperr.ErrInternal, err)
	}

	// one bulk update per target status, stable order
	for _, target := range []string{trip.StatusPlanned, trip.StatusOngoing, trip.StatusCompleted} {
		ids := groups[target]
		if len(ids) == 0 {
			continue
		}
		if _, err := tx.Exec(ctx, `UPDATE trips SET status=$1 WHERE id = ANY($2)`, target, ids); err != nil {
			return SweepResult{}, fmt.Errorf("%w: apply %s batch: %v", apperr.ErrInternal, target, err)
		}
	}

	if len(completedIDs) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM trip_participants WHERE trip_id = ANY($1)`, completedIDs); err != nil {
			return SweepResult{}, fmt.Errorf("%w: clear participants: %v", apperr.ErrInternal, err)
		}
		if _, err := tx.Exec(ctx, `UPDATE users SET trip_ongoing=false WHERE id = ANY($1)`, completedCreators); err != nil {
			return SweepResult{}, fmt.Errorf("%w: reset teacher flags: %v", apperr.ErrInternal, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return SweepResult{}, fmt.Errorf("%w: commit sweep: %v", apperr.ErrInternal, err)
	}
	return SweepResult{
		Planned:   len(groups[trip.StatusPlanned]),
		Ongoing:   len(groups[trip.StatusOngoing]),
		Completed: len(groups[trip.StatusCompleted]),
	}, nil
}

// SweepDaily expires overdue teacher licenses and retires completed trips
// past the retention window.
func (s *Service) SweepDaily(ctx context.Context) error {
	now := s.now()
	if _, err := s.db.Exec(ctx, `
		UPDATE users SET license_expired=true
		WHERE license_expires_at IS NOT NULL AND license_expires_at <= $1 AND license_expired=false
	`, now); err != nil {
		return fmt.Errorf("%w: expire licenses: %v", apperr.ErrInternal, err)
	}

	if _, err := s.db.Exec(ctx, `
		UPDATE trips SET is_deleted=true
		WHERE status=$1 AND end_time <= $2 AND is_deleted=false
	`, trip.StatusCompleted, now.Add(-s.retention)); err != nil {
		return fmt.Errorf("%w: retire completed trips: %v", apperr.ErrInternal, err)
	}
	return nil
}

// Run loops until ctx is cancelled. Sweep errors are logged and swallowed;
// the scheduler never takes the process down.
func (s *Service) Run(ctx context.Context) {
	statusTicker := time.NewTicker(s.statusInterval)
	dailyTicker := time.NewTicker(s.dailyInterval)
	defer statusTicker.Stop()
	defer dailyTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-statusTicker.C:
			if _, err := s.SweepStatuses(ctx); err != nil {
				log.Printf("scheduler: status sweep failed: %v", err)
			}
			if s.tracks != nil {
				if _, err := s.tracks.SweepExpired(ctx); err != nil {
					log.Printf("scheduler: track sweep failed: %v", err)
				}
			}
		case <-dailyTicker.C:
			if err := s.SweepDaily(ctx); err != nil {
				log.Printf("scheduler: daily sweep failed: %v", err)
			}
		}
	}
}
