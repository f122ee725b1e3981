package user

import (
	"context"
	"errors"
	"fmt"

	"backend-zodiack/internal/db"
	"backend-zodiack/internal/shared/apperr"

	"github.com/jackc/pgx/v5"
)

// Service is the user directory: profile lookups for the ws handshake,
// admin resolution for the notification fan-out and push-token upkeep.
type Service struct {
	db db.Querier
}

func NewService(q db.Querier) *Service {
	return &Service{db: q}
}

func (s *Service) FindByID(ctx context.Context, id string) (User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, email, full_name, role, COALESCE(push_tokens, '{}'), trip_ongoing, created_at
		FROM users WHERE id=$1
	`, id)

	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.PushTokens, &u.TripOngoing, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, fmt.Errorf("%w: user %s", apperr.ErrNotFound, id)
		}
		return User{}, fmt.Errorf("%w: find user: %v", apperr.ErrInternal, err)
	}
	return u, nil
}

func (s *Service) FindAdmins(ctx context.Context) ([]AdminContact, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, COALESCE(push_tokens, '{}')
		FROM users WHERE role=$1
	`, RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("%w: find admins: %v", apperr.ErrInternal, err)
	}
	defer rows.Close()

	var admins []AdminContact
	for rows.Next() {
		var a AdminContact
		if err := rows.Scan(&a.ID, &a.PushTokens); err != nil {
			return nil, fmt.Errorf("%w: scan admin: %v", apperr.ErrInternal, err)
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

// AddPushToken registers a device token, keeping the set duplicate-free.
func (s *Service) AddPushToken(ctx context.Context, userID, token string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users
		SET push_tokens = array_append(array_remove(COALESCE(push_tokens, '{}'), $2), $2)
		WHERE id=$1
	`, userID, token)
	if err != nil {
		return fmt.Errorf("%w: add push token: %v", apperr.ErrInternal, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %s", apperr.ErrNotFound, userID)
	}
	return nil
}

// RemovePushToken drops an invalid or expired device token.
func (s *Service) RemovePushToken(ctx context.Context, userID, token string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users
		SET push_tokens = array_remove(COALESCE(push_tokens, '{}'), $2)
		WHERE id=$1
	`, userID, token)
	if err != nil {
		return fmt.Errorf("%w: remove push token: %v", apperr.ErrInternal, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %s", apperr.ErrNotFound, userID)
	}
	return nil
}
