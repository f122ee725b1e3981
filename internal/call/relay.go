package call

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"backend-zodiack/internal/session"
)

// Relay rendezvous two live sessions for WebRTC negotiation and tracks
// elapsed call time. It never persists media and never returns errors to
// the transport layer: failures surface as an "error" event on the
// originating session.
type Relay struct {
	registry *session.Registry

	mu    sync.Mutex
	calls map[string]*activeCall

	// tick and now are injectable for tests; production uses 1s / wall clock.
	tick time.Duration
	now  func() time.Time
}

type activeCall struct {
	id           string
	callerUserID string
	calleeUserID string
	callerConnID string
	startedAt    time.Time
	stop         chan struct{}
	stopOnce     sync.Once
}

func NewRelay(registry *session.Registry) *Relay {
	return &Relay{
		registry: registry,
		calls:    map[string]*activeCall{},
		tick:     time.Second,
		now:      time.Now,
	}
}

// callID derives the identifier for the attempt from the ordered pair of
// caller transport id and target user id.
func callID(callerConnID, calleeUserID string) string {
	return callerConnID + "|" + calleeUserID
}

// RelayOffer forwards a call offer to the target session and starts the
// per-second duration ticker for both parties.
func (r *Relay) RelayOffer(from *session.Session, toUserID string, offer json.RawMessage, kind string) {
	if kind != KindAudio && kind != KindVideo {
		r.emitError(from, "unsupported call kind: "+kind)
		return
	}

	target, ok := r.registry.Lookup(toUserID)
	if !ok {
		r.emitError(from, "user "+toUserID+" is not connected")
		return
	}

	id := callID(from.Transport.ID(), toUserID)
	c := &activeCall{
		id:           id,
		callerUserID: from.UserID,
		calleeUserID: toUserID,
		callerConnID: from.Transport.ID(),
		startedAt:    r.now(),
		stop:         make(chan struct{}),
	}

	r.mu.Lock()
	if prev, ok := r.calls[id]; ok {
		prev.stopTicker()
	}
	r.calls[id] = c
	r.mu.Unlock()

	r.emit(target, EventIncomingCall, IncomingCallPayload{
		CallID:   id,
		CallerID: from.UserID,
		Message:  from.Name + " is calling you",
	})
	r.emit(target, EventOffer, OfferPayload{
		From:        from.UserID,
		Offer:       offer,
		UserID:      toUserID,
		RequestType: kind,
	})

	go r.runTicker(c)
}

func (r *Relay) runTicker(c *activeCall) {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			elapsed := int(r.now().Sub(c.startedAt).Seconds())
			if caller, ok := r.registry.Lookup(c.callerUserID); ok {
				r.emit(caller, EventDuration, DurationPayload{To: c.calleeUserID, Duration: elapsed})
			}
			if callee, ok := r.registry.Lookup(c.calleeUserID); ok {
				r.emit(callee, EventDuration, DurationPayload{From: c.callerUserID, Duration: elapsed})
			}
		}
	}
}

// RelayAnswer forwards the SDP answer to the original caller and confirms
// call acceptance. Pure forwarding, no call-state transition.
func (r *Relay) RelayAnswer(from *session.Session, toUserID string, answer json.RawMessage) {
	target, ok := r.registry.Lookup(toUserID)
	if !ok {
		r.emitError(from, "user "+toUserID+" is not connected")
		return
	}

	r.emit(target, EventAnswer, AnswerPayload{From: from.UserID, Answer: answer})
	if c, ok := r.findCall(from, toUserID); ok {
		r.emit(target, EventAccepted, StatusPayload{CallID: c.id, Status: "accepted"})
	}
}

// RelayDecline tells the caller the call was refused and tears the attempt
// down.
func (r *Relay) RelayDecline(from *session.Session, toUserID string) {
	c, ok := r.removeCall(from, toUserID)
	if ok {
		c.stopTicker()
	}

	target, tok := r.registry.Lookup(toUserID)
	if !tok {
		return
	}
	id := ""
	if ok {
		id = c.id
	}
	r.emit(target, EventDeclined, StatusPayload{CallID: id, Status: "declined"})
}

// RelayICECandidate forwards an ICE candidate to the target session only.
// Candidates are never broadcast.
func (r *Relay) RelayICECandidate(from *session.Session, toUserID string, candidate json.RawMessage) {
	target, ok := r.registry.Lookup(toUserID)
	if !ok {
		r.emitError(from, "user "+toUserID+" is not connected")
		return
	}
	r.emit(target, EventICECandidate, ICECandidatePayload{From: from.UserID, Candidate: candidate})
}

// EndCall stops the duration ticker, reports total elapsed seconds to both
// parties and drops the call entry. Ending an unknown call is a no-op.
func (r *Relay) EndCall(from *session.Session, toUserID string) {
	c, ok := r.removeCall(from, toUserID)
	if !ok {
		return
	}
	c.stopTicker()

	total := int(r.now().Sub(c.startedAt).Seconds())
	if caller, ok := r.registry.Lookup(c.callerUserID); ok {
		r.emit(caller, EventEnded, EndedPayload{To: c.calleeUserID, TotalSeconds: total})
	}
	if callee, ok := r.registry.Lookup(c.calleeUserID); ok {
		r.emit(callee, EventEnded, EndedPayload{From: c.callerUserID, TotalSeconds: total})
	}
}

// CleanupSession stops and removes every active call touching the
// disconnected session. Must not fail partway: one bad entry cannot keep
// the rest alive.
func (r *Relay) CleanupSession(s *session.Session) {
	transportID := s.Transport.ID()

	r.mu.Lock()
	var victims []*activeCall
	for id, c := range r.calls {
		if c.callerConnID == transportID || c.calleeUserID == s.UserID || c.callerUserID == s.UserID {
			victims = append(victims, c)
			delete(r.calls, id)
		}
	}
	r.mu.Unlock()

	for _, c := range victims {
		c.stopTicker()
	}
}

// ActiveCalls reports the number of in-flight call attempts.
func (r *Relay) ActiveCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// findCall resolves the active call between from and toUserID, trying both
// orderings of the pair.
func (r *Relay) findCall(from *session.Session, toUserID string) (*activeCall, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findCallLocked(from, toUserID)
}

func (r *Relay) findCallLocked(from *session.Session, toUserID string) (*activeCall, bool) {
	if c, ok := r.calls[callID(from.Transport.ID(), toUserID)]; ok {
		return c, true
	}
	if other, ok := r.registry.Lookup(toUserID); ok {
		if c, ok := r.calls[callID(other.Transport.ID(), from.UserID)]; ok {
			return c, true
		}
	}
	return nil, false
}

func (r *Relay) removeCall(from *session.Session, toUserID string) (*activeCall, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.findCallLocked(from, toUserID)
	if !ok {
		return nil, false
	}
	delete(r.calls, c.id)
	return c, true
}

func (c *activeCall) stopTicker() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (r *Relay) emit(s *session.Session, event string, payload any) {
	if err := s.Transport.Emit(event, payload); err != nil {
		log.Printf("call relay: emit %s to %s failed: %v", event, s.UserID, err)
	}
}

func (r *Relay) emitError(s *session.Session, msg string) {
	log.Printf("call relay: %s", msg)
	r.emit(s, EventError, ErrorPayload{Message: msg})
}
