package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go-online-store/internal/live"
	"go-online-store/pkg/apierror"
)

const defaultHeartbeat = 30 * time.Second

// AuditStreamHandler pushes audit events to staff as server-sent events while
// they happen. The persisted trail stays available through AuditHandler.
type AuditStreamHandler struct {
	hub       *live.Hub
	heartbeat time.Duration
}

func NewAuditStreamHandler(hub *live.Hub, heartbeat time.Duration) *AuditStreamHandler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &AuditStreamHandler{hub: hub, heartbeat: heartbeat}
}

func (h *AuditStreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	client := h.hub.Register(r.Context())
	if client == nil {
		writeError(w, apierror.New("STREAM_UNAVAILABLE", "event stream is not running", "", http.StatusServiceUnavailable))
		return
	}
	defer h.hub.Unregister(client)

	resource := strings.TrimSpace(r.URL.Query().Get("resource"))
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeFrame(w, rc, ": connected\n\n"); err != nil {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := writeFrame(w, rc, ": ping\n\n"); err != nil {
				return
			}
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if resource != "" && !strings.HasPrefix(msg.Type, resource+".") {
				continue
			}
			frame := fmt.Sprintf("id: %s\nevent: %s\ndata: %s\n\n", msg.ID, msg.Type, msg.Data)
			if err := writeFrame(w, rc, frame); err != nil {
				return
			}
		}
	}
}

func writeFrame(w http.ResponseWriter, rc *http.ResponseController, frame string) error {
	if _, err := w.Write([]byte(frame)); err != nil {
		return err
	}
	return rc.Flush()
}
