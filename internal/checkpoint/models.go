package checkpoint

import "time"

type Checkpoint struct {
	ID          string    `json:"id"`
	TripID      string    `json:"trip_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	MeetAt      time.Time `json:"meet_at"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type CheckIn struct {
	ID           string    `json:"id"`
	CheckpointID string    `json:"checkpoint_id"`
	UserID       string    `json:"user_id"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	DistanceM    float64   `json:"distance_m"`
	CreatedAt    time.Time `json:"created_at"`
}
