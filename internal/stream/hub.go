package stream

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

const topicPattern = "location:*"

// Hub fans live-location payloads out to watching clients. With redis
// configured, broadcasts travel through pub/sub so every instance serving
// a watcher delivers; without it, delivery is local to this process.
type Hub struct {
	redis    *redis.Client
	mu       sync.RWMutex
	watchers map[string]map[*Client]struct{}
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:    redisClient,
		watchers: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

// Watch subscribes a client to one topic.
func (h *Hub) Watch(topic string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.watchers[topic] == nil {
		h.watchers[topic] = map[*Client]struct{}{}
	}
	h.watchers[topic][c] = struct{}{}
}

// Unwatch removes a client from every topic it watches.
func (h *Hub) Unwatch(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for topic, clients := range h.watchers {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.watchers, topic)
		}
	}
}

// Broadcast publishes a payload on a topic. Delivery is through redis when
// available so cross-instance watchers see it; each instance's subscriber
// loop hands it to local clients.
func (h *Hub) Broadcast(topic string, payload []byte) {
	if h.redis == nil {
		h.deliver(topic, payload)
		return
	}
	if err := h.redis.Publish(context.Background(), topic, payload).Err(); err != nil {
		log.Printf("stream: redis publish error: %v", err)
		h.deliver(topic, payload)
	}
}

func (h *Hub) deliver(topic string, payload []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.watchers[topic]))
	for c := range h.watchers[topic] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.enqueue(payload)
	}
}

func (h *Hub) subscribeRedis() {
	pubsub := h.redis.PSubscribe(context.Background(), topicPattern)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.deliver(msg.Channel, []byte(msg.Payload))
	}
}
