package location

import "time"

// Sample is one immutable coordinate reading.
type Sample struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// Track is the per-user rolling location history plus the time-boxed
// tracking window. Samples holds the live bounded buffer; Archived keeps
// everything moved out by Archive. Tracks are soft-deleted only.
type Track struct {
	UserID          string    `json:"user_id"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	TrackingEnabled bool      `json:"tracking_enabled"`
	ExpiresAt       time.Time `json:"expires_at"`
	Samples         []Sample  `json:"samples"`
	Archived        []Sample  `json:"archived,omitempty"`
	DistanceM       float64   `json:"distance_m"`
	IsDeleted       bool      `json:"-"`
}

// RecordResult is the outcome of RecordSample. Stopped reports the
// terminal "window expired" case, where no sample was appended.
type RecordResult struct {
	Stopped bool
	Sample  Sample
}

// UpdatePayload is the locationUpdated event body.
type UpdatePayload struct {
	UserID            string    `json:"userId"`
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	IsTrackingEnabled bool      `json:"isTrackingEnabled"`
	Time              time.Time `json:"time"`
}

// RequestPayload is the locationRequest-{userId} event body.
type RequestPayload struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}
