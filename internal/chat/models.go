package chat

import "time"

type Message struct {
	ID          string       `json:"id"`
	TripID      string       `json:"trip_id"`
	UserID      string       `json:"user_id"`
	Body        string       `json:"body"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

type Attachment struct {
	ID        string    `json:"id"`
	MessageID string    `json:"message_id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}
