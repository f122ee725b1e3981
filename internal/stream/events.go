package stream

import "encoding/json"

// Envelope is the tagged wire format for every websocket message, both
// directions. Unrecognized events are rejected with an "error" event
// instead of being trusted.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Client-to-server event names.
const (
	EventCallOffer      = "call-offer"
	EventCallAnswer     = "call-answer"
	EventCallDecline    = "call-decline"
	EventCallEnd        = "call-end"
	EventICECandidate   = "ice-candidate"
	EventLocationUpdate = "location-update"
	EventWatchLocation  = "watch-location"
)

type callSignalPayload struct {
	To        string          `json:"to"`
	Kind      string          `json:"kind,omitempty"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

type locationUpdatePayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type watchLocationPayload struct {
	UserID string `json:"user_id"`
}

type errorPayload struct {
	Message string `json:"message"`
}
