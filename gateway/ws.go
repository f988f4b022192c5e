package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/telistry/switchboard/core/protocol"
	"github.com/telistry/switchboard/observability"
)

// streamError is the in-band error frame. The connection stays open; only
// transport failures tear it down.
type streamError struct {
	Error string `json:"error"`
}

// wsHandler serves one call leg per connection. The single read loop
// serializes events per connection, so events for one contact stay ordered.
type wsHandler struct {
	svc      Dialog
	cfg      Config
	observer observability.Observer
	upgrader websocket.Upgrader
}

func newWSHandler(svc Dialog, cfg Config, observer observability.Observer) *wsHandler {
	return &wsHandler{
		svc:      svc,
		cfg:      cfg,
		observer: observer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Telephony platforms connect from their own origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *wsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		return
	}
	h.serve(r.Context(), conn, r.RemoteAddr)
}

func (h *wsHandler) serve(ctx context.Context, conn *websocket.Conn, remote string) {
	defer conn.Close()

	h.observer.OnEvent(ctx, observability.Event{
		Type:      EventStreamOpen,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "gateway.Stream",
		Data:      map[string]any{"remote": remote},
	})

	if h.cfg.ReadLimitBytes > 0 {
		conn.SetReadLimit(h.cfg.ReadLimitBytes)
	}
	if readTimeout := h.cfg.ReadTimeout(); readTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(readTimeout))
		})
	}

	// Replies and pings may interleave; writes go through one mutex.
	var writeMu sync.Mutex
	writeJSON := func(v any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		if writeTimeout := h.cfg.WriteTimeout(); writeTimeout > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		}
		return conn.WriteJSON(v)
	}

	stop := make(chan struct{})
	defer close(stop)
	if interval := h.cfg.PingInterval(); interval > 0 {
		go h.pingLoop(conn, interval, stop)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			level := observability.LevelInfo
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				level = observability.LevelWarning
			}
			h.observer.OnEvent(ctx, observability.Event{
				Type:      EventStreamClose,
				Level:     level,
				Timestamp: time.Now(),
				Source:    "gateway.Stream",
				Data:      map[string]any{"remote": remote, "reason": err.Error()},
			})
			return
		}

		var event protocol.Event
		if err := json.Unmarshal(data, &event); err != nil {
			if writeErr := writeJSON(streamError{Error: "malformed event frame"}); writeErr != nil {
				return
			}
			continue
		}

		resp, err := h.svc.Handle(ctx, event)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			if writeErr := writeJSON(streamError{Error: err.Error()}); writeErr != nil {
				return
			}
			continue
		}
		if err := writeJSON(resp); err != nil {
			return
		}
	}
}

// pingLoop keeps the peer's pongs coming so the read deadline stays fresh.
// WriteControl is safe to call concurrently with other writes.
func (h *wsHandler) pingLoop(conn *websocket.Conn, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(h.cfg.WriteTimeout())
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}
