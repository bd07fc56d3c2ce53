package stream

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("token-1")
	defer hub.Unregister(client)

	payload := []byte(`{"lat":0,"lng":0}`)
	hub.Broadcast("token-1", payload)

	select {
	case msg := <-client.Send:
		if string(msg) != string(payload) {
			t.Fatalf("unexpected message")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
}

func TestHubBroadcastOtherToken(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("token-1")
	defer hub.Unregister(client)

	hub.Broadcast("token-2", []byte("x"))

	select {
	case <-client.Send:
		t.Fatalf("expected no message for other token")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubHelpers(t *testing.T) {
	ch := redisChannel("abc")
	if ch != "share:abc:fixes" {
		t.Fatalf("unexpected channel: %s", ch)
	}
	if tokenFromChannel(ch) != "abc" {
		t.Fatalf("unexpected token")
	}
	if tokenFromChannel("bad") != "" {
		t.Fatalf("expected empty token")
	}
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("token-2")
	hub.Unregister(client)
	_, ok := <-client.Send
	if ok {
		t.Fatalf("expected channel closed")
	}
}

func TestHubRedisBroadcastAndSubscribe(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hub := NewHub(client)
	ws := hub.Register("token-redis")
	defer hub.Unregister(ws)

	hub.Broadcast("token-redis", []byte("ping"))

	select {
	case msg := <-ws.Send:
		if string(msg) != "ping" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for broadcast")
	}

	// ensure subscribeRedis forwards redis publish (subscribe uses literal channel string)
	starClient := hub.Register("*")
	defer hub.Unregister(starClient)

	time.Sleep(20 * time.Millisecond)
	if err := client.Publish(context.Background(), "share:*:fixes", "pong").Err(); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	select {
	case msg := <-starClient.Send:
		if string(msg) != "pong" {
			t.Fatalf("unexpected message from redis")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for redis message")
	}
}

func TestHubRedisPublishError(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	server.Close()
	defer client.Close()

	hub := NewHub(client)
	watcher := hub.Register("token-bad")
	defer hub.Unregister(watcher)

	hub.Broadcast("token-bad", []byte("ping"))
}
