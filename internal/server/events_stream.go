package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/Eroleice/Quant-Cat/internal/events"
)

const (
	eventBufferSize   = 100
	heartbeatInterval = 30 * time.Second
	writeTimeout      = 5 * time.Second
)

// EventsStreamHandler pushes bus events to websocket clients.
type EventsStreamHandler struct {
	eventBus  *events.Bus
	heartbeat time.Duration
	log       zerolog.Logger
}

// streamMessage is the JSON frame sent for every event.
type streamMessage struct {
	Type      string      `json:"type"`
	Module    string      `json:"module,omitempty"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Message   string      `json:"message,omitempty"`
}

// NewEventsStreamHandler creates a new events stream handler.
func NewEventsStreamHandler(eventBus *events.Bus, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		eventBus:  eventBus,
		heartbeat: heartbeatInterval,
		log:       log.With().Str("component", "events_stream").Logger(),
	}
}

// ServeHTTP handles GET /api/events/ws. The optional "types" query
// parameter is a comma-separated event type filter.
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.eventBus == nil {
		http.Error(w, "event stream unavailable", http.StatusServiceUnavailable)
		return
	}

	var allowedTypes map[events.EventType]bool
	if typesFilter := r.URL.Query().Get("types"); typesFilter != "" {
		allowedTypes = make(map[events.EventType]bool)
		for _, t := range strings.Split(typesFilter, ",") {
			allowedTypes[events.EventType(strings.TrimSpace(t))] = true
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket handshake failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	eventChan := make(chan *events.Event, eventBufferSize)
	unsubscribe := h.eventBus.SubscribeAll(func(event *events.Event) {
		if allowedTypes != nil && !allowedTypes[event.Type] {
			return
		}
		// Non-blocking send (drop if channel full)
		select {
		case eventChan <- event:
		default:
			h.log.Warn().
				Str("event_type", string(event.Type)).
				Msg("Event channel full, dropping event")
		}
	})
	defer unsubscribe()

	// The client sends nothing; CloseRead handles control frames and
	// cancels ctx when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	h.log.Info().Msg("Client connected to event stream")

	if err := h.write(ctx, conn, streamMessage{
		Type:      "connected",
		Timestamp: time.Now().Format(time.RFC3339),
		Message:   "Connected to event stream",
	}); err != nil {
		return
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("Client disconnected from event stream")
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case event := <-eventChan:
			if err := h.write(ctx, conn, streamMessage{
				Type:      string(event.Type),
				Module:    event.Module,
				Timestamp: event.Timestamp.Format(time.RFC3339),
				Data:      event.Data,
			}); err != nil {
				h.log.Debug().Err(err).Msg("Failed to send event")
				return
			}

		case <-heartbeat.C:
			if err := h.write(ctx, conn, streamMessage{
				Type:      "heartbeat",
				Timestamp: time.Now().Format(time.RFC3339),
			}); err != nil {
				return
			}
		}
	}
}

func (h *EventsStreamHandler) write(ctx context.Context, conn *websocket.Conn, msg streamMessage) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, msg)
}
