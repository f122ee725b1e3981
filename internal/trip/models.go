package trip

import "time"

// Trip lifecycle states. Status is derived from the clock except for the
// terminal cancelled override.
const (
	StatusPlanned   = "planned"
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

type Trip struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Status      string    `json:"status"`
	Cancelled   bool      `json:"cancelled"`
	InviteCode  string    `json:"invite_code,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Participant struct {
	TripID   string    `json:"trip_id"`
	UserID   string    `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// DeriveStatus is the single source of truth for a trip's lifecycle state.
// Cancelled wins over everything; otherwise the state is a pure function
// of now versus the trip window.
func DeriveStatus(now, start, end time.Time, cancelled bool) string {
	switch {
	case cancelled:
		return StatusCancelled
	case now.After(end):
		return StatusCompleted
	case now.After(start):
		return StatusOngoing
	default:
		return StatusPlanned
	}
}
