package call

import "encoding/json"

// Call kinds accepted by the relay. Anything else is rejected before any
// state is created.
const (
	KindAudio = "audio"
	KindVideo = "video"
)

// Event names emitted to transports.
const (
	EventIncomingCall = "incoming_call"
	EventOffer        = "offer"
	EventAnswer       = "offer-answer"
	EventAccepted     = "call_accepted"
	EventDeclined     = "call_declined"
	EventICECandidate = "ice-candidate"
	EventDuration     = "call-duration"
	EventEnded        = "call-ended"
	EventError        = "error"
)

type IncomingCallPayload struct {
	CallID   string `json:"callId"`
	CallerID string `json:"callerId"`
	Message  string `json:"message"`
}

type OfferPayload struct {
	From        string          `json:"from"`
	Offer       json.RawMessage `json:"offer"`
	UserID      string          `json:"userId"`
	RequestType string          `json:"requestType"`
}

type AnswerPayload struct {
	From   string          `json:"from"`
	Answer json.RawMessage `json:"answer"`
}

type StatusPayload struct {
	CallID string `json:"callId"`
	Status string `json:"status"`
}

type ICECandidatePayload struct {
	From      string          `json:"from"`
	Candidate json.RawMessage `json:"candidate"`
}

type DurationPayload struct {
	To       string `json:"to,omitempty"`
	From     string `json:"from,omitempty"`
	Duration int    `json:"duration"`
}

type EndedPayload struct {
	To           string `json:"to,omitempty"`
	From         string `json:"from,omitempty"`
	TotalSeconds int    `json:"totalSeconds"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
