package user

import "time"

// Roles recognized across the platform.
const (
	RoleAdmin       = "admin"
	RoleTeacher     = "teacher"
	RoleParticipant = "participant"
)

type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	FullName         string    `json:"full_name"`
	Role             string    `json:"role"`
	PushTokens       []string  `json:"push_tokens,omitempty"`
	TripOngoing      bool      `json:"trip_ongoing"`
	LicenseExpiresAt time.Time `json:"license_expires_at,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// AdminContact is the slim projection the notification fan-out needs.
type AdminContact struct {
	ID         string   `json:"id"`
	PushTokens []string `json:"push_tokens,omitempty"`
}
