package notify

import "time"

// Titles carries the per-audience push titles for one fan-out call.
type Titles struct {
	Recipient string `json:"recipient,omitempty"`
	Admin     string `json:"admin,omitempty"`
}

// Notification is the durable record a fan-out call leaves behind.
// AdminIDs captures the full admin set at send time, reachable or not.
type Notification struct {
	ID               string    `json:"id"`
	RecipientUserID  string    `json:"recipient_user_id"`
	RecipientMessage string    `json:"recipient_message,omitempty"`
	AdminIDs         []string  `json:"admin_ids,omitempty"`
	AdminMessage     string    `json:"admin_message,omitempty"`
	Titles           Titles    `json:"titles"`
	Read             bool      `json:"read"`
	CreatedAt        time.Time `json:"created_at"`
}

// Input describes one fan-out call.
type Input struct {
	RecipientUserID  string `json:"recipient_user_id"`
	RecipientMessage string `json:"recipient_message"`
	AdminMessage     string `json:"admin_message"`
	Titles           Titles `json:"titles"`
}

// EventPayload is the "notification" websocket event body.
type EventPayload struct {
	UserID  string `json:"userId,omitempty"`
	AdminID string `json:"adminId,omitempty"`
	Message string `json:"message"`
}
