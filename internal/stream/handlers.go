package stream

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"backend-zodiack/internal/call"
	"backend-zodiack/internal/location"
	"backend-zodiack/internal/session"
)

// AuthFunc resolves a raw bearer token to the connecting user. The auth
// package supplies it; tests stub it.
type AuthFunc func(ctx context.Context, token string) (string, session.Info, error)

// LocationRecorder is the slice of the location service the gateway needs.
type LocationRecorder interface {
	RecordSample(ctx context.Context, userID string, lat, lng float64) (location.RecordResult, error)
}

// Gateway owns the websocket endpoint: handshake, session registration,
// event dispatch and teardown.
type Gateway struct {
	registry  *session.Registry
	relay     *call.Relay
	locations LocationRecorder
	hub       *Hub
	auth      AuthFunc
}

func NewGateway(registry *session.Registry, relay *call.Relay, locations LocationRecorder, hub *Hub, auth AuthFunc) *Gateway {
	return &Gateway{
		registry:  registry,
		relay:     relay,
		locations: locations,
		hub:       hub,
		auth:      auth,
	}
}

func (g *Gateway) RegisterRoutes(r fiber.Router) {
	r.Get("/ws", websocket.New(g.serve))
}

// serve runs the full lifetime of one connection. Teardown is synchronous:
// by the time the handler returns, the session is unregistered, its calls
// are torn down and its watches are released.
func (g *Gateway) serve(c *websocket.Conn) {
	token := c.Query("token")
	if token == "" {
		token = bearerToken(c.Headers("Authorization"))
	}

	userID, info, err := g.auth(context.Background(), token)
	if err != nil {
		writeError(c, "unauthorized")
		return
	}

	client := newClient()
	sess := g.registry.Register(userID, info, client)

	done := make(chan struct{})
	go func() {
		client.writePump(c)
		close(done)
	}()

	g.readLoop(c, sess, client)

	// A replaced socket must not tear down calls the user started on the
	// newer connection; only the still-live transport owns the session.
	if live, ok := g.registry.UnregisterTransport(client.ID()); ok {
		g.relay.CleanupSession(live)
	}
	g.hub.Unwatch(client)
	client.close()
	<-done
}

func (g *Gateway) readLoop(c *websocket.Conn, sess *session.Session, client *Client) {
	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			g.emitError(sess, "malformed message")
			continue
		}
		g.dispatch(sess, client, env)
	}
}

func (g *Gateway) dispatch(sess *session.Session, client *Client, env Envelope) {
	switch env.Event {
	case EventCallOffer:
		var p callSignalPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			g.emitError(sess, "malformed payload")
			return
		}
		g.relay.RelayOffer(sess, p.To, p.Offer, p.Kind)

	case EventCallAnswer:
		var p callSignalPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			g.emitError(sess, "malformed payload")
			return
		}
		g.relay.RelayAnswer(sess, p.To, p.Answer)

	case EventCallDecline:
		var p callSignalPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			g.emitError(sess, "malformed payload")
			return
		}
		g.relay.RelayDecline(sess, p.To)

	case EventCallEnd:
		var p callSignalPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			g.emitError(sess, "malformed payload")
			return
		}
		g.relay.EndCall(sess, p.To)

	case EventICECandidate:
		var p callSignalPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			g.emitError(sess, "malformed payload")
			return
		}
		g.relay.RelayICECandidate(sess, p.To, p.Candidate)

	case EventLocationUpdate:
		var p locationUpdatePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			g.emitError(sess, "malformed payload")
			return
		}
		if _, err := g.locations.RecordSample(context.Background(), sess.UserID, p.Latitude, p.Longitude); err != nil {
			log.Printf("stream: record sample for %s: %v", sess.UserID, err)
			g.emitError(sess, "location update rejected")
		}

	case EventWatchLocation:
		var p watchLocationPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.UserID == "" {
			g.emitError(sess, "malformed payload")
			return
		}
		g.hub.Watch(location.Topic(p.UserID), client)

	default:
		g.emitError(sess, "unknown event: "+env.Event)
	}
}

func (g *Gateway) emitError(sess *session.Session, msg string) {
	if err := sess.Transport.Emit("error", errorPayload{Message: msg}); err != nil {
		log.Printf("stream: emit error to %s: %v", sess.UserID, err)
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimPrefix(header, prefix)
	}
	return ""
}

// writeError is for pre-registration failures where no session exists yet.
func writeError(c *websocket.Conn, msg string) {
	data, _ := json.Marshal(errorPayload{Message: msg})
	env, _ := json.Marshal(Envelope{Event: "error", Data: data})
	_ = c.WriteMessage(websocket.TextMessage, env)
}
