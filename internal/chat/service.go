package chat

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"backend-zodiack/internal/db"
	"backend-zodiack/internal/session"
	"backend-zodiack/internal/shared/apperr"
)

// EventMessage is emitted to online trip members when a message lands.
const EventMessage = "chatMessage"

type Service struct {
	db       db.Querier
	registry *session.Registry
}

func NewService(querier db.Querier, registry *session.Registry) *Service {
	return &Service{db: querier, registry: registry}
}

// Post stores a message and pushes it to every other trip member who is
// online. Persistence is the contract; live delivery is best effort.
func (s *Service) Post(ctx context.Context, tripID, userID, body string) (Message, error) {
	if body == "" {
		return Message{}, fmt.Errorf("%w: body required", apperr.ErrValidation)
	}

	members, err := s.members(ctx, tripID)
	if err != nil {
		return Message{}, err
	}
	if !contains(members, userID) {
		return Message{}, fmt.Errorf("%w: user %s is not a member of trip %s", apperr.ErrValidation, userID, tripID)
	}

	msg := Message{
		ID:     uuid.NewString(),
		TripID: tripID,
		UserID: userID,
		Body:   body,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO trip_messages (id, trip_id, user_id, body)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, msg.ID, msg.TripID, msg.UserID, msg.Body)
	if err := row.Scan(&msg.CreatedAt); err != nil {
		return Message{}, err
	}

	for _, member := range members {
		if member == userID {
			continue
		}
		sess, ok := s.registry.Lookup(member)
		if !ok {
			continue
		}
		if err := sess.Transport.Emit(EventMessage, msg); err != nil {
			log.Printf("chat: emit to %s: %v", member, err)
		}
	}
	return msg, nil
}

func (s *Service) AddAttachment(ctx context.Context, messageID, url string) (Attachment, error) {
	if url == "" {
		return Attachment{}, fmt.Errorf("%w: url required", apperr.ErrValidation)
	}
	att := Attachment{
		ID:        uuid.NewString(),
		MessageID: messageID,
		URL:       url,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO trip_message_attachments (id, message_id, url)
		VALUES ($1,$2,$3)
		RETURNING created_at
	`, att.ID, att.MessageID, att.URL)
	if err := row.Scan(&att.CreatedAt); err != nil {
		return Attachment{}, err
	}
	return att, nil
}

// History returns the trip's messages newest first, attachments included.
func (s *Service) History(ctx context.Context, tripID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, trip_id, user_id, body, created_at
		FROM trip_messages
		WHERE trip_id=$1
		ORDER BY created_at DESC
		LIMIT $2
	`, tripID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	var ids []string
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.TripID, &m.UserID, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		ids = append(ids, m.ID)
		messages = append(messages, m)
	}

	attachments, err := s.loadAttachments(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range messages {
		messages[i].Attachments = attachments[messages[i].ID]
	}
	return messages, nil
}

func (s *Service) members(ctx context.Context, tripID string) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT user_id FROM trip_participants WHERE trip_id=$1
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		members = append(members, id)
	}
	return members, nil
}

func (s *Service) loadAttachments(ctx context.Context, messageIDs []string) (map[string][]Attachment, error) {
	if len(messageIDs) == 0 {
		return map[string][]Attachment{}, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, message_id, url, created_at
		FROM trip_message_attachments WHERE message_id = ANY($1)
		ORDER BY created_at
	`, messageIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attachments := map[string][]Attachment{}
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(&a.ID, &a.MessageID, &a.URL, &a.CreatedAt); err != nil {
			return nil, err
		}
		attachments[a.MessageID] = append(attachments[a.MessageID], a)
	}
	return attachments, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
