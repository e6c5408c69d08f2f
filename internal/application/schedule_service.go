package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/example/speeddate-scheduler/internal/matching"
	"github.com/example/speeddate-scheduler/internal/persistence"
)

// ParticipantDirectory exposes the participant lookups the scheduler needs.
type ParticipantDirectory interface {
	ListParticipants(ctx context.Context, eventID string) ([]Participant, error)
	ListCheckedIn(ctx context.Context, eventID string) ([]Participant, error)
}

// PairingStore captures the persistence interactions needed by the service.
// ReplacePairings must be atomic: on failure the event's prior schedule
// remains intact.
type PairingStore interface {
	ReplacePairings(ctx context.Context, eventID string, pairings []Pairing) error
	ListPairings(ctx context.Context, eventID string) ([]Pairing, error)
	ListPairingsForParticipant(ctx context.Context, eventID, participantID string) ([]Pairing, error)
}

// ScheduleService orchestrates roster assembly, matching, and persistence for
// schedule generation and read-side schedule views.
type ScheduleService struct {
	participants ParticipantDirectory
	pairings     PairingStore
	windows      matching.WindowConfig
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
	cache        *scheduleViewCache
}

// NewScheduleService wires dependencies for schedule operations.
func NewScheduleService(participants ParticipantDirectory, pairings PairingStore, windows matching.WindowConfig, idGenerator func() string, now func() time.Time) *ScheduleService {
	return NewScheduleServiceWithLogger(participants, pairings, windows, idGenerator, now, nil)
}

// NewScheduleServiceWithLogger wires dependencies and a base logger.
func NewScheduleServiceWithLogger(participants ParticipantDirectory, pairings PairingStore, windows matching.WindowConfig, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ScheduleService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ScheduleService{
		participants: participants,
		pairings:     pairings,
		windows:      windows,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
		cache:        newScheduleViewCache(30*time.Second, 64, now),
	}
}

// failedGeneration is the sentinel returned when generation cannot proceed.
func failedGeneration() GenerateScheduleResult {
	return GenerateScheduleResult{Rounds: -1, Tables: -1}
}

// GenerateSchedule assembles the checked-in roster, runs the matching engine,
// and atomically replaces the event's persisted pairings. The sentinel
// (-1, -1) result reports failure or an insufficient roster; the prior
// schedule is never left half replaced.
func (s *ScheduleService) GenerateSchedule(ctx context.Context, eventID string, requestedTables, requestedRounds int) (GenerateScheduleResult, error) {
	if s == nil {
		return failedGeneration(), fmt.Errorf("ScheduleService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "schedule", "generate", "event_id", eventID)

	vErr := &ValidationError{}
	if eventID == "" {
		vErr.add("event_id", "event id is required")
	}
	if requestedTables <= 0 {
		vErr.add("tables", "table count must be positive")
	}
	if requestedRounds <= 0 {
		vErr.add("rounds", "round count must be positive")
	}
	if vErr.HasErrors() {
		return failedGeneration(), vErr
	}

	checkedIn, err := s.participants.ListCheckedIn(ctx, eventID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load roster", "error", err)
		return failedGeneration(), mapRepoError(err)
	}

	roster, err := buildRoster(eventID, checkedIn)
	if err != nil {
		return failedGeneration(), err
	}
	if roster.Empty() {
		logger.InfoContext(ctx, "roster insufficient for scheduling",
			"males", len(roster.Males), "females", len(roster.Females))
		return failedGeneration(), nil
	}

	relation := matching.ResolveCompatibility(roster, requestedRounds, s.windows)
	schedule := matching.BuildSchedule(roster, relation, requestedTables, requestedRounds)

	persisted := make([]Pairing, 0, len(schedule.Pairings))
	for _, pairing := range schedule.Pairings {
		persisted = append(persisted, Pairing{
			ID:       s.idGenerator(),
			EventID:  eventID,
			Round:    pairing.Round,
			Table:    pairing.Table,
			MaleID:   pairing.MaleID,
			FemaleID: pairing.FemaleID,
		})
	}

	if err := s.pairings.ReplacePairings(ctx, eventID, persisted); err != nil {
		logger.ErrorContext(ctx, "failed to persist schedule", "error", err, "error_kind", ErrorKind(err))
		return failedGeneration(), mapRepoError(err)
	}

	s.cache.Invalidate(eventID)

	for _, warning := range schedule.Warnings {
		logger.WarnContext(ctx, "schedule gap", "detail", warning)
	}
	logger.InfoContext(ctx, "schedule generated",
		"pairings", len(persisted), "rounds", schedule.Rounds, "tables", schedule.Tables)

	return GenerateScheduleResult{
		Rounds:   schedule.Rounds,
		Tables:   schedule.Tables,
		Warnings: schedule.Warnings,
	}, nil
}

// GetScheduleForParticipant returns the participant's personal schedule
// ordered by round. An empty slice means the participant has no pairings.
func (s *ScheduleService) GetScheduleForParticipant(ctx context.Context, eventID, participantID string) ([]ScheduleEntry, error) {
	if s == nil {
		return nil, fmt.Errorf("ScheduleService is nil")
	}
	if eventID == "" || participantID == "" {
		return nil, ErrNotFound
	}

	if views, ok := s.cache.Get(eventID); ok {
		return append([]ScheduleEntry(nil), views[participantID]...), nil
	}

	views, err := s.buildViews(ctx, eventID)
	if err != nil {
		return nil, err
	}
	s.cache.Store(eventID, views)
	return append([]ScheduleEntry(nil), views[participantID]...), nil
}

// GetAllSchedules returns the personal schedule of every paired participant,
// keyed by participant id.
func (s *ScheduleService) GetAllSchedules(ctx context.Context, eventID string) (map[string][]ScheduleEntry, error) {
	if s == nil {
		return nil, fmt.Errorf("ScheduleService is nil")
	}
	if eventID == "" {
		return nil, ErrNotFound
	}

	if views, ok := s.cache.Get(eventID); ok {
		return views, nil
	}

	views, err := s.buildViews(ctx, eventID)
	if err != nil {
		return nil, err
	}
	s.cache.Store(eventID, views)
	return views, nil
}

func (s *ScheduleService) buildViews(ctx context.Context, eventID string) (map[string][]ScheduleEntry, error) {
	pairings, err := s.pairings.ListPairings(ctx, eventID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	participants, err := s.participants.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	byID := make(map[string]Participant, len(participants))
	for _, participant := range participants {
		byID[participant.ID] = participant
	}

	views := make(map[string][]ScheduleEntry)
	for _, pairing := range pairings {
		male, maleOK := byID[pairing.MaleID]
		female, femaleOK := byID[pairing.FemaleID]
		if !maleOK || !femaleOK {
			// Pairings reference ids only; a missing registry row means the
			// roster changed after generation. Skip rather than render a
			// half-resolved entry.
			continue
		}
		views[male.ID] = append(views[male.ID], ScheduleEntry{
			PairingID:          pairing.ID,
			Round:              pairing.Round,
			Table:              pairing.Table,
			PartnerID:          female.ID,
			PartnerName:        female.Name,
			PartnerAge:         female.Age,
			PartnerAffiliation: female.Affiliation,
			SelfAge:            male.Age,
			SelfAffiliation:    male.Affiliation,
		})
		views[female.ID] = append(views[female.ID], ScheduleEntry{
			PairingID:          pairing.ID,
			Round:              pairing.Round,
			Table:              pairing.Table,
			PartnerID:          male.ID,
			PartnerName:        male.Name,
			PartnerAge:         male.Age,
			PartnerAffiliation: male.Affiliation,
			SelfAge:            female.Age,
			SelfAffiliation:    female.Affiliation,
		})
	}

	for participantID := range views {
		entries := views[participantID]
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Round < entries[j].Round
		})
		views[participantID] = entries
	}

	return views, nil
}

func buildRoster(eventID string, participants []Participant) (matching.Roster, error) {
	roster := matching.Roster{EventID: eventID}
	vErr := &ValidationError{}

	for _, participant := range participants {
		if participant.Age < 0 {
			vErr.add("age", fmt.Sprintf("participant %s has a negative age", participant.ID))
			continue
		}
		entry := matching.Participant{
			ID:       participant.ID,
			Category: matching.Category(participant.Category),
			Age:      participant.Age,
		}
		switch entry.Category {
		case matching.CategoryMale:
			roster.Males = append(roster.Males, entry)
		case matching.CategoryFemale:
			roster.Females = append(roster.Females, entry)
		default:
			vErr.add("category", fmt.Sprintf("participant %s has unknown category %q", participant.ID, participant.Category))
		}
	}

	if vErr.HasErrors() {
		return matching.Roster{}, vErr
	}
	return roster, nil
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConstraintViolation) || errors.Is(err, persistence.ErrForeignKeyViolation) || errors.Is(err, persistence.ErrDuplicate) {
		vErr := &ValidationError{}
		vErr.add("storage", "record rejected by storage constraints")
		return vErr
	}
	return err
}
