package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/speeddate-scheduler/internal/application"
)

type timerStream interface {
	Subscribe(eventID string) (<-chan any, func())
}

type statusSource interface {
	Status(ctx context.Context, eventID string) (application.TimerStatus, error)
}

// StreamHandler pushes timer snapshots to observers over Server-Sent Events.
// Every mutation of the event timer produces one message; a client that falls
// behind reconciles through the status endpoint.
type StreamHandler struct {
	stream    timerStream
	status    statusSource
	responder responder
}

func NewStreamHandler(stream timerStream, status statusSource, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{stream: stream, status: status, responder: newResponder(logger)}
}

func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.stream == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, fmt.Errorf("ストリーミングに対応していない接続です。"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	messages, cancel := h.stream.Subscribe(eventID)
	defer cancel()

	logger := handlerLogger(r.Context(), h.responder.logger, "stream", "subscribe", "event_id", eventID)
	logger.InfoContext(r.Context(), "observer connected")
	defer logger.InfoContext(r.Context(), "observer disconnected")

	// Send the current status first so late joiners start from a known state.
	if h.status != nil {
		if status, err := h.status.Status(r.Context(), eventID); err == nil {
			writeStreamEvent(w, "status", timerStatusEventPayload(status))
			flusher.Flush()
		}
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case message, open := <-messages:
			if !open {
				return
			}
			payload := message
			if snapshot, ok := message.(application.TimerSnapshot); ok {
				payload = toTimerDTO(snapshot)
			}
			writeStreamEvent(w, "timer", payload)
			flusher.Flush()
		}
	}
}

func timerStatusEventPayload(status application.TimerStatus) timerStatusResponse {
	payload := timerStatusResponse{
		HasTimer:      status.HasTimer,
		Status:        string(status.Status),
		TimeRemaining: status.TimeRemaining,
		Message:       status.Message,
	}
	if status.Timer != nil {
		dto := toTimerDTO(*status.Timer)
		payload.Timer = &dto
	}
	return payload
}

func writeStreamEvent(w http.ResponseWriter, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", data)
}
