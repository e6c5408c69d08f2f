package http

import (
	"context"
	"log/slog"

	"github.com/example/speeddate-scheduler/internal/logging"
)

type contextKey string

const (
	eventIDContextKey       contextKey = "event_id"
	participantIDContextKey contextKey = "participant_id"
)

// ContextWithEventID injects the event identifier resolved from the request path.
func ContextWithEventID(ctx context.Context, eventID string) context.Context {
	return context.WithValue(ctx, eventIDContextKey, eventID)
}

// EventIDFromContext extracts an event identifier previously associated with the context.
func EventIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(eventIDContextKey).(string)
	return id, ok
}

// ContextWithParticipantID injects the participant identifier resolved from the request path.
func ContextWithParticipantID(ctx context.Context, participantID string) context.Context {
	return context.WithValue(ctx, participantIDContextKey, participantID)
}

// ParticipantIDFromContext extracts a participant identifier previously associated with the context.
func ParticipantIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(participantIDContextKey).(string)
	return id, ok
}

// ContextWithLogger attaches a request scoped logger to the context.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, or nil.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
