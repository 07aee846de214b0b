package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newBridgePair(t *testing.T) (*Bridge, *Bridge, *Hub, *Hub) {
	t.Helper()

	server := miniredis.RunT(t)
	clientA := redis.NewClient(&redis.Options{Addr: server.Addr()})
	clientB := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = clientA.Close()
		_ = clientB.Close()
	})

	hubA := NewHub(zerolog.Nop())
	hubB := NewHub(zerolog.Nop())
	bridgeA := NewBridge(hubA, clientA, "eventverse", nil, zerolog.Nop())
	bridgeB := NewBridge(hubB, clientB, "eventverse", nil, zerolog.Nop())
	return bridgeA, bridgeB, hubA, hubB
}

func TestBridgeRelaysEventsAcrossNodes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridgeA, bridgeB, hubA, hubB := newBridgePair(t)
	bridgeA.Start(ctx)
	bridgeB.Start(ctx)

	local := NewSession()
	remote := NewSession()
	hubA.Join(local, "chat-1")
	hubB.Join(remote, "chat-1")

	// Let the subscriptions establish before publishing.
	time.Sleep(50 * time.Millisecond)

	bridgeA.Publish(ctx, "chat-1", Event{Name: EventNewMessage, Payload: map[string]any{"content": "hi"}})

	require.Eventually(t, func() bool {
		select {
		case event := <-remote.Outbound():
			if event.Name != EventNewMessage {
				return false
			}
			payload, ok := event.Payload.(map[string]any)
			return ok && payload["content"] == "hi"
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	// The publishing node suppresses its own relayed traffic; the local
	// session only ever hears the hub's direct fan-out.
	require.Empty(t, drain(t, local))
}

func TestBridgePublishIsSafeWithoutBrokers(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	bridge := NewBridge(hub, nil, "eventverse", nil, zerolog.Nop())

	bridge.Start(context.Background())
	bridge.Publish(context.Background(), "chat-1", Event{Name: EventNewMessage})

	var nilBridge *Bridge
	nilBridge.Start(context.Background())
	nilBridge.Publish(context.Background(), "chat-1", Event{Name: EventNewMessage})
}
