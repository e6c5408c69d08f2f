package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/speeddate-scheduler/internal/matching"
)

// ParticipantRegistry captures the persistence interactions needed by the
// participant service.
type ParticipantRegistry interface {
	CreateParticipant(ctx context.Context, participant Participant) (Participant, error)
	GetParticipant(ctx context.Context, eventID, id string) (Participant, error)
	ListParticipants(ctx context.Context, eventID string) ([]Participant, error)
	SetCheckedIn(ctx context.Context, eventID, id string, checkedIn bool) error
}

// ParticipantService manages the attendee registry that feeds the scheduler
// its roster snapshot.
type ParticipantService struct {
	registry    ParticipantRegistry
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewParticipantService wires dependencies for participant operations.
func NewParticipantService(registry ParticipantRegistry, idGenerator func() string, now func() time.Time) *ParticipantService {
	return NewParticipantServiceWithLogger(registry, idGenerator, now, nil)
}

// NewParticipantServiceWithLogger wires dependencies and a base logger.
func NewParticipantServiceWithLogger(registry ParticipantRegistry, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ParticipantService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ParticipantService{
		registry:    registry,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// CreateParticipant validates and stores a new attendee.
func (s *ParticipantService) CreateParticipant(ctx context.Context, eventID string, input ParticipantInput) (Participant, error) {
	if s == nil {
		return Participant{}, fmt.Errorf("ParticipantService is nil")
	}

	vErr := &ValidationError{}
	if eventID == "" {
		vErr.add("event_id", "event id is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if !matching.Category(input.Category).Valid() {
		vErr.add("category", "category must be male or female")
	}
	if input.Age < 0 {
		vErr.add("age", "age must be non-negative")
	}
	if vErr.HasErrors() {
		return Participant{}, vErr
	}

	createdAt := s.now().UTC()
	participant := Participant{
		ID:          s.idGenerator(),
		EventID:     eventID,
		Name:        strings.TrimSpace(input.Name),
		Category:    input.Category,
		Age:         input.Age,
		Affiliation: strings.TrimSpace(input.Affiliation),
		CheckedIn:   input.CheckedIn,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}

	persisted, err := s.registry.CreateParticipant(ctx, participant)
	if err != nil {
		return Participant{}, mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "participant", "create", "event_id", eventID).
		InfoContext(ctx, "participant registered", "participant_id", persisted.ID, "category", persisted.Category)
	return persisted, nil
}

// GetParticipant returns one attendee of the event.
func (s *ParticipantService) GetParticipant(ctx context.Context, eventID, id string) (Participant, error) {
	if s == nil {
		return Participant{}, fmt.Errorf("ParticipantService is nil")
	}
	participant, err := s.registry.GetParticipant(ctx, eventID, id)
	if err != nil {
		return Participant{}, mapRepoError(err)
	}
	return participant, nil
}

// ListParticipants enumerates the event's attendees in registration order.
func (s *ParticipantService) ListParticipants(ctx context.Context, eventID string) ([]Participant, error) {
	if s == nil {
		return nil, fmt.Errorf("ParticipantService is nil")
	}
	participants, err := s.registry.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return participants, nil
}

// SetCheckedIn flips an attendee's roster membership flag.
func (s *ParticipantService) SetCheckedIn(ctx context.Context, eventID, id string, checkedIn bool) error {
	if s == nil {
		return fmt.Errorf("ParticipantService is nil")
	}
	if err := s.registry.SetCheckedIn(ctx, eventID, id, checkedIn); err != nil {
		return mapRepoError(err)
	}
	return nil
}
