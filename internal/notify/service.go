package notify

import (
	"context"
	"fmt"
	"log"

	"backend-zodiack/internal/db"
	"backend-zodiack/internal/session"
	"backend-zodiack/internal/shared/apperr"
	"backend-zodiack/internal/user"

	"github.com/google/uuid"
)

// EventNotification is the websocket event name for fan-out deliveries.
const EventNotification = "notification"

// Service pushes a message to a recipient's live session and/or the admin
// sessions, queues push jobs and always writes exactly one durable record
// per call. Delivery is best-effort; persistence is not.
type Service struct {
	db       db.Querier
	registry *session.Registry
	users    *user.Service
	push     PushPublisher
}

func NewService(q db.Querier, registry *session.Registry, users *user.Service, push PushPublisher) *Service {
	return &Service{db: q, registry: registry, users: users, push: push}
}

func (s *Service) Notify(ctx context.Context, in Input) (Notification, error) {
	if in.RecipientUserID == "" {
		return Notification{}, fmt.Errorf("%w: recipient required", apperr.ErrValidation)
	}

	var recipientTokens []string

	if in.RecipientMessage != "" {
		if target, ok := s.registry.Lookup(in.RecipientUserID); ok {
			s.emit(target, EventPayload{UserID: in.RecipientUserID, Message: in.RecipientMessage})
		}
		if u, err := s.users.FindByID(ctx, in.RecipientUserID); err == nil {
			recipientTokens = append(recipientTokens, u.PushTokens...)
		} else {
			log.Printf("notify: recipient lookup failed: %v", err)
		}
	}

	// Admin resolution is independent of recipient delivery; a directory
	// failure degrades to an empty admin set but never blocks the record.
	var adminIDs, adminTokens []string
	admins, err := s.users.FindAdmins(ctx)
	if err != nil {
		log.Printf("notify: admin lookup failed: %v", err)
	}
	for _, a := range admins {
		adminIDs = append(adminIDs, a.ID)
		if in.AdminMessage == "" {
			continue
		}
		if target, ok := s.registry.Lookup(a.ID); ok {
			s.emit(target, EventPayload{AdminID: a.ID, Message: in.AdminMessage})
		}
		adminTokens = append(adminTokens, a.PushTokens...)
	}

	record := Notification{
		ID:               uuid.NewString(),
		RecipientUserID:  in.RecipientUserID,
		RecipientMessage: in.RecipientMessage,
		AdminIDs:         adminIDs,
		AdminMessage:     in.AdminMessage,
		Titles:           in.Titles,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO notifications (id, recipient_user_id, recipient_message, admin_ids, admin_message, recipient_title, admin_title)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, record.ID, record.RecipientUserID, record.RecipientMessage, record.AdminIDs, record.AdminMessage, record.Titles.Recipient, record.Titles.Admin)
	if err := row.Scan(&record.CreatedAt); err != nil {
		return Notification{}, fmt.Errorf("%w: persist notification: %v", apperr.ErrInternal, err)
	}

	if s.push != nil {
		if len(recipientTokens) > 0 {
			job := PushJob{Tokens: recipientTokens, Title: in.Titles.Recipient, Body: in.RecipientMessage}
			if err := s.push.PublishPush(ctx, job); err != nil {
				log.Printf("notify: recipient push publish failed: %v", err)
			}
		}
		if len(adminTokens) > 0 {
			job := PushJob{Tokens: adminTokens, Title: in.Titles.Admin, Body: in.AdminMessage}
			if err := s.push.PublishPush(ctx, job); err != nil {
				log.Printf("notify: admin push publish failed: %v", err)
			}
		}
	}

	return record, nil
}

// List returns a user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Notification, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, recipient_user_id, recipient_message, COALESCE(admin_ids, '{}'), admin_message, recipient_title, admin_title, read, created_at
		FROM notifications
		WHERE recipient_user_id=$1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list notifications: %v", apperr.ErrInternal, err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.RecipientUserID, &n.RecipientMessage, &n.AdminIDs, &n.AdminMessage, &n.Titles.Recipient, &n.Titles.Admin, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan notification: %v", apperr.ErrInternal, err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flips the ack flag on one record.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `UPDATE notifications SET read=true WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("%w: mark read: %v", apperr.ErrInternal, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: notification %s", apperr.ErrNotFound, id)
	}
	return nil
}

func (s *Service) emit(target *session.Session, payload EventPayload) {
	if err := target.Transport.Emit(EventNotification, payload); err != nil {
		log.Printf("notify: emit to %s failed: %v", target.UserID, err)
	}
}
