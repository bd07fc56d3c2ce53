package stream

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Hub fans live fixes out to everyone watching a share link. Clients are
// keyed by the session's share token; redis pub/sub bridges instances so
// a watcher can connect to any replica.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	ShareToken string
	Send       chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(shareToken string) *Client {
	client := &Client{
		ShareToken: shareToken,
		Send:       make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[shareToken] == nil {
		h.clients[shareToken] = map[*Client]struct{}{}
	}
	h.clients[shareToken][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if watchers, ok := h.clients[client.ShareToken]; ok {
		delete(watchers, client)
		if len(watchers) == 0 {
			delete(h.clients, client.ShareToken)
		}
	}
	close(client.Send)
}

// Broadcast delivers a payload to local watchers and publishes it for
// other instances. Slow watchers are skipped, never waited on.
func (h *Hub) Broadcast(shareToken string, payload []byte) {
	h.mu.RLock()
	watchers := h.clients[shareToken]
	h.mu.RUnlock()

	for client := range watchers {
		select {
		case client.Send <- payload:
		default:
		}
	}

	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(shareToken), payload).Err()
		if err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.Subscribe(ctx, "share:*:fixes")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		token := tokenFromChannel(msg.Channel)
		h.mu.RLock()
		watchers := h.clients[token]
		h.mu.RUnlock()
		for client := range watchers {
			select {
			case client.Send <- []byte(msg.Payload):
			default:
			}
		}
	}
}

func redisChannel(shareToken string) string {
	return "share:" + shareToken + ":fixes"
}

func tokenFromChannel(ch string) string {
	// share:{token}:fixes
	const prefix = "share:"
	const suffix = ":fixes"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
