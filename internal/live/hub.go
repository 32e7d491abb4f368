package live

import (
	"context"
	"encoding/json"
	"log/slog"

	"go-online-store/internal/event"
)

const clientBuffer = 32

// Message is one serialized event ready to be written to a stream.
type Message struct {
	ID   string
	Type string
	Data []byte
}

// Client is a registered listener. Send is closed when the hub drops the
// client, either because it unregistered, fell behind, or the hub stopped.
type Client struct {
	Send chan Message
}

type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	bus        event.Bus
	done       chan struct{}
}

func NewHub(bus event.Bus) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		bus:        bus,
		done:       make(chan struct{}),
	}
}

// Run broadcasts bus events to registered clients until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	events, unsubscribe := h.bus.Subscribe()
	defer unsubscribe()
	defer h.stop()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unregister:
			h.drop(client)
		case e, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				slog.Error("failed to marshal event", "error", err, "type", e.Type)
				continue
			}
			msg := Message{ID: e.ID, Type: string(e.Type), Data: data}
			for client := range h.clients {
				select {
				case client.Send <- msg:
				default:
					slog.Warn("dropping slow stream client")
					h.drop(client)
				}
			}
		}
	}
}

// Register adds a client. It returns nil once the hub has stopped.
func (h *Hub) Register(ctx context.Context) *Client {
	client := &Client{Send: make(chan Message, clientBuffer)}
	select {
	case h.register <- client:
		return client
	case <-h.done:
		return nil
	case <-ctx.Done():
		return nil
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
	}
}

func (h *Hub) stop() {
	for client := range h.clients {
		h.drop(client)
	}
	close(h.done)
}
