package handler

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-online-store/internal/event"
	"go-online-store/internal/live"
	"go-online-store/internal/middleware"
)

func newStreamServer(t *testing.T) (*httptest.Server, *event.InMemoryBus, context.CancelFunc) {
	t.Helper()

	bus := event.NewBus()
	hub := live.NewHub(bus)
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	h := NewAuditStreamHandler(hub, time.Hour)
	server := httptest.NewServer(middleware.StreamingTimeout(time.Minute, time.Minute)(http.HandlerFunc(h.Stream)))
	t.Cleanup(func() {
		stopHub()
		server.Close()
	})
	return server, bus, stopHub
}

// openStream connects and waits for the greeting, after which the client is
// registered with the hub.
func openStream(t *testing.T, url string) *bufio.Scanner {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)
	require.True(t, scanner.Scan())
	require.Equal(t, ": connected", scanner.Text())
	return scanner
}

func nextEvent(t *testing.T, scanner *bufio.Scanner) (string, string) {
	t.Helper()

	var name, data string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && name != "":
			return name, data
		}
	}
	t.Fatal("stream ended before an event arrived")
	return "", ""
}

func TestAuditStreamHandler_DeliversEvents(t *testing.T) {
	server, bus, _ := newStreamServer(t)
	scanner := openStream(t, server.URL)

	bus.Publish(event.Event{Type: event.TypeProductCreated, ResourceID: 7})

	name, data := nextEvent(t, scanner)
	assert.Equal(t, "product.created", name)
	assert.Contains(t, data, `"resource_id":7`)
}

func TestAuditStreamHandler_FiltersByResource(t *testing.T) {
	server, bus, _ := newStreamServer(t)
	scanner := openStream(t, server.URL+"?resource=user")

	bus.Publish(event.Event{Type: event.TypeProductDeleted, ResourceID: 1})
	bus.Publish(event.Event{Type: event.TypeUserDeleted, ResourceID: 2})

	name, data := nextEvent(t, scanner)
	assert.Equal(t, "user.deleted", name)
	assert.Contains(t, data, `"resource_id":2`)
}

func TestAuditStreamHandler_HubStopped(t *testing.T) {
	server, _, stopHub := newStreamServer(t)
	stopHub()

	require.Eventually(t, func() bool {
		resp, err := http.Get(server.URL)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusServiceUnavailable
	}, time.Second, 10*time.Millisecond)
}
