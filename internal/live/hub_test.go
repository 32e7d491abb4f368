package live

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-online-store/internal/event"
)

func startHub(t *testing.T) (*Hub, *event.InMemoryBus, context.CancelFunc) {
	t.Helper()
	bus := event.NewBus()
	hub := NewHub(bus)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, bus, cancel
}

func receive(t *testing.T, client *Client) (Message, bool) {
	t.Helper()
	select {
	case msg, ok := <-client.Send:
		return msg, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}, false
	}
}

func TestHub_BroadcastsEvents(t *testing.T) {
	hub, bus, _ := startHub(t)

	first := hub.Register(context.Background())
	second := hub.Register(context.Background())
	require.NotNil(t, first)
	require.NotNil(t, second)

	// Register returns once the hub loop accepted the client, and the hub
	// subscribed before its loop started.
	bus.Publish(event.Event{Type: event.TypeProductDeleted, ResourceID: 5})

	for _, client := range []*Client{first, second} {
		msg, ok := receive(t, client)
		require.True(t, ok)
		assert.Equal(t, "product.deleted", msg.Type)
		assert.NotEmpty(t, msg.ID)

		var decoded event.Event
		require.NoError(t, json.Unmarshal(msg.Data, &decoded))
		assert.Equal(t, int64(5), decoded.ResourceID)
	}
}

func TestHub_UnregisterClosesClient(t *testing.T) {
	hub, _, _ := startHub(t)

	client := hub.Register(context.Background())
	require.NotNil(t, client)
	hub.Unregister(client)

	_, ok := receive(t, client)
	assert.False(t, ok)
}

func TestHub_StopClosesClients(t *testing.T) {
	hub, _, cancel := startHub(t)

	client := hub.Register(context.Background())
	require.NotNil(t, client)
	cancel()

	_, ok := receive(t, client)
	assert.False(t, ok)

	assert.Nil(t, hub.Register(context.Background()))
	hub.Unregister(client)
}
