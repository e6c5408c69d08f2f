package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/example/speeddate-scheduler/internal/persistence"
)

const (
	minRoundDurationS = 30
	maxRoundDurationS = 900
	minBreakDurationS = 15
	maxBreakDurationS = 600
)

// TimerStore persists the per-event timer row.
type TimerStore interface {
	GetTimerState(ctx context.Context, eventID string) (TimerState, error)
	UpsertTimerState(ctx context.Context, state TimerState) error
}

// RoundSource reports the highest round number of an event's schedule, or
// zero when no schedule has been generated.
type RoundSource interface {
	MaxRound(ctx context.Context, eventID string) (int, error)
}

// Broadcaster is the opaque sink that fans timer snapshots out to observers.
type Broadcaster interface {
	Publish(eventID string, message any)
}

// TimerDefaults carries the durations applied when a timer row is first
// created.
type TimerDefaults struct {
	RoundDurationS int
	BreakDurationS int
}

// TimerService drives the per-event round timer state machine
// (inactive → active ↔ paused → break → active … → ended). Mutations on one
// event are serialized by a per-event lock; reads derive the status from the
// persisted row and the wall clock without mutating anything.
type TimerService struct {
	timers      TimerStore
	rounds      RoundSource
	broadcaster Broadcaster
	defaults    TimerDefaults
	now         func() time.Time
	logger      *slog.Logger
	locks       sync.Map
}

// NewTimerService wires dependencies for timer operations.
func NewTimerService(timers TimerStore, rounds RoundSource, broadcaster Broadcaster, defaults TimerDefaults, now func() time.Time) *TimerService {
	return NewTimerServiceWithLogger(timers, rounds, broadcaster, defaults, now, nil)
}

// NewTimerServiceWithLogger wires dependencies and a base logger.
func NewTimerServiceWithLogger(timers TimerStore, rounds RoundSource, broadcaster Broadcaster, defaults TimerDefaults, now func() time.Time, logger *slog.Logger) *TimerService {
	if now == nil {
		now = time.Now
	}
	if defaults.RoundDurationS < minRoundDurationS || defaults.RoundDurationS > maxRoundDurationS {
		defaults.RoundDurationS = 180
	}
	if defaults.BreakDurationS < minBreakDurationS || defaults.BreakDurationS > maxBreakDurationS {
		defaults.BreakDurationS = 60
	}
	return &TimerService{
		timers:      timers,
		rounds:      rounds,
		broadcaster: broadcaster,
		defaults:    defaults,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// StartRound begins the given round (or the current one) at the present
// instant, creating the timer row on first use. The final round is derived
// from the schedule's highest round number when the row is created.
func (s *TimerService) StartRound(ctx context.Context, eventID string, round *int) (TimerSnapshot, error) {
	if s == nil {
		return TimerSnapshot{}, fmt.Errorf("TimerService is nil")
	}
	if eventID == "" {
		return TimerSnapshot{}, ErrNotFound
	}
	unlock := s.lockEvent(eventID)
	defer unlock()

	state, err := s.timers.GetTimerState(ctx, eventID)
	switch {
	case err == nil:
	case isNotFound(err):
		state, err = s.newTimerState(ctx, eventID)
		if err != nil {
			return TimerSnapshot{}, err
		}
	default:
		return TimerSnapshot{}, err
	}

	if round != nil {
		if *round < 1 || *round > state.FinalRound {
			vErr := &ValidationError{}
			vErr.add("round", fmt.Sprintf("round must be between 1 and %d", state.FinalRound))
			return TimerSnapshot{}, vErr
		}
		state.CurrentRound = *round
	}

	startedAt := s.now().UTC()
	state.RoundStartTime = &startedAt
	state.IsPaused = false
	state.PauseRemainingS = nil

	if err := s.timers.UpsertTimerState(ctx, state); err != nil {
		return TimerSnapshot{}, err
	}

	snapshot := toSnapshot(state)
	s.publish(ctx, eventID, "start_round", snapshot)
	return snapshot, nil
}

// PauseRound freezes an active round. Without an explicit remainder the
// remaining time is computed from the round start; pausing a timer that has
// no started round and no explicit remainder fails.
func (s *TimerService) PauseRound(ctx context.Context, eventID string, explicitRemaining *int) (TimerSnapshot, error) {
	if s == nil {
		return TimerSnapshot{}, fmt.Errorf("TimerService is nil")
	}
	unlock := s.lockEvent(eventID)
	defer unlock()

	state, err := s.timers.GetTimerState(ctx, eventID)
	if err != nil {
		return TimerSnapshot{}, mapTimerError(err)
	}
	if state.IsPaused {
		return TimerSnapshot{}, ErrTimerNotActive
	}

	var remaining int
	switch {
	case explicitRemaining != nil:
		remaining = clamp(*explicitRemaining, 0, state.RoundDurationS)
	case state.RoundStartTime != nil:
		remaining = s.remainingSeconds(state)
	default:
		return TimerSnapshot{}, ErrTimerNotActive
	}

	state.IsPaused = true
	state.PauseRemainingS = &remaining
	state.RoundStartTime = nil

	if err := s.timers.UpsertTimerState(ctx, state); err != nil {
		return TimerSnapshot{}, err
	}

	snapshot := toSnapshot(state)
	s.publish(ctx, eventID, "pause_round", snapshot)
	return snapshot, nil
}

// ResumeRound restarts a paused round. The frozen remainder is kept on the
// row so status derivation counts down from it rather than from the full
// round duration.
func (s *TimerService) ResumeRound(ctx context.Context, eventID string) (TimerSnapshot, error) {
	if s == nil {
		return TimerSnapshot{}, fmt.Errorf("TimerService is nil")
	}
	unlock := s.lockEvent(eventID)
	defer unlock()

	state, err := s.timers.GetTimerState(ctx, eventID)
	if err != nil {
		return TimerSnapshot{}, mapTimerError(err)
	}
	if !state.IsPaused {
		return TimerSnapshot{}, ErrTimerNotPaused
	}

	resumedAt := s.now().UTC()
	state.IsPaused = false
	state.RoundStartTime = &resumedAt

	if err := s.timers.UpsertTimerState(ctx, state); err != nil {
		return TimerSnapshot{}, err
	}

	snapshot := toSnapshot(state)
	s.publish(ctx, eventID, "resume_round", snapshot)
	return snapshot, nil
}

// NextRound advances to the following round, or reports completion without
// mutating anything when the final round has been reached.
func (s *TimerService) NextRound(ctx context.Context, eventID string) (NextRoundResult, error) {
	if s == nil {
		return NextRoundResult{}, fmt.Errorf("TimerService is nil")
	}
	unlock := s.lockEvent(eventID)
	defer unlock()

	state, err := s.timers.GetTimerState(ctx, eventID)
	if err != nil {
		return NextRoundResult{}, mapTimerError(err)
	}

	if state.CurrentRound >= state.FinalRound {
		return NextRoundResult{Snapshot: toSnapshot(state), Complete: true}, nil
	}

	startedAt := s.now().UTC()
	state.CurrentRound++
	state.RoundStartTime = &startedAt
	state.IsPaused = false
	state.PauseRemainingS = nil

	if err := s.timers.UpsertTimerState(ctx, state); err != nil {
		return NextRoundResult{}, err
	}

	snapshot := toSnapshot(state)
	s.publish(ctx, eventID, "next_round", snapshot)
	return NextRoundResult{Snapshot: snapshot}, nil
}

// UpdateDurations persists new round and/or break durations. Only the
// provided fields change; both are range checked before anything mutates.
func (s *TimerService) UpdateDurations(ctx context.Context, eventID string, roundDurationS, breakDurationS *int) (TimerSnapshot, error) {
	if s == nil {
		return TimerSnapshot{}, fmt.Errorf("TimerService is nil")
	}

	vErr := &ValidationError{}
	if roundDurationS != nil && (*roundDurationS < minRoundDurationS || *roundDurationS > maxRoundDurationS) {
		vErr.add("round_duration_s", fmt.Sprintf("round duration must be between %d and %d seconds", minRoundDurationS, maxRoundDurationS))
	}
	if breakDurationS != nil && (*breakDurationS < minBreakDurationS || *breakDurationS > maxBreakDurationS) {
		vErr.add("break_duration_s", fmt.Sprintf("break duration must be between %d and %d seconds", minBreakDurationS, maxBreakDurationS))
	}
	if vErr.HasErrors() {
		return TimerSnapshot{}, vErr
	}

	unlock := s.lockEvent(eventID)
	defer unlock()

	state, err := s.timers.GetTimerState(ctx, eventID)
	if err != nil {
		return TimerSnapshot{}, mapTimerError(err)
	}

	if roundDurationS != nil {
		state.RoundDurationS = *roundDurationS
	}
	if breakDurationS != nil {
		state.BreakDurationS = *breakDurationS
	}

	if err := s.timers.UpsertTimerState(ctx, state); err != nil {
		return TimerSnapshot{}, err
	}

	snapshot := toSnapshot(state)
	s.publish(ctx, eventID, "update_durations", snapshot)
	return snapshot, nil
}

// Status derives the observer-facing timer state from the persisted row and
// the wall clock. It never mutates and is safe to call from many readers.
func (s *TimerService) Status(ctx context.Context, eventID string) (TimerStatus, error) {
	if s == nil {
		return TimerStatus{}, fmt.Errorf("TimerService is nil")
	}

	state, err := s.timers.GetTimerState(ctx, eventID)
	if err != nil {
		if isNotFound(err) {
			return TimerStatus{
				HasTimer: false,
				Status:   TimerStatusInactive,
				Message:  "no timer has been created for this event",
			}, nil
		}
		return TimerStatus{}, err
	}

	snapshot := toSnapshot(state)
	status := TimerStatus{HasTimer: true, Timer: &snapshot}

	switch {
	case state.IsPaused:
		status.Status = TimerStatusPaused
		if state.PauseRemainingS != nil {
			status.TimeRemaining = *state.PauseRemainingS
		}
		status.Message = "round is paused"
	case state.RoundStartTime == nil:
		status.Status = TimerStatusInactive
		status.Message = "no round has been started"
	default:
		budget := state.RoundDurationS
		if state.PauseRemainingS != nil {
			budget = *state.PauseRemainingS
		}
		elapsed := int(s.now().UTC().Sub(state.RoundStartTime.UTC()).Seconds())
		switch {
		case elapsed >= budget && state.CurrentRound >= state.FinalRound:
			status.Status = TimerStatusEnded
			status.Message = "event has ended"
		case elapsed >= budget:
			status.Status = TimerStatusBreak
			breakRemaining := state.BreakDurationS - (elapsed - budget)
			if breakRemaining > 0 {
				status.TimeRemaining = breakRemaining
			}
			status.Message = "round finished, waiting for the next round"
		default:
			status.Status = TimerStatusActive
			status.TimeRemaining = budget - elapsed
			status.Message = "round in progress"
		}
	}

	return status, nil
}

func (s *TimerService) newTimerState(ctx context.Context, eventID string) (TimerState, error) {
	finalRound, err := s.rounds.MaxRound(ctx, eventID)
	if err != nil {
		return TimerState{}, err
	}
	if finalRound < 1 {
		vErr := &ValidationError{}
		vErr.add("schedule", "a schedule must be generated before starting the timer")
		return TimerState{}, vErr
	}
	return TimerState{
		EventID:        eventID,
		CurrentRound:   1,
		RoundDurationS: s.defaults.RoundDurationS,
		BreakDurationS: s.defaults.BreakDurationS,
		FinalRound:     finalRound,
	}, nil
}

// remainingSeconds computes the seconds left in the active round, honouring a
// carried pause remainder from an earlier resume.
func (s *TimerService) remainingSeconds(state TimerState) int {
	budget := state.RoundDurationS
	if state.PauseRemainingS != nil {
		budget = *state.PauseRemainingS
	}
	elapsed := int(s.now().UTC().Sub(state.RoundStartTime.UTC()).Seconds())
	remaining := budget - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *TimerService) publish(ctx context.Context, eventID, operation string, snapshot TimerSnapshot) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Publish(eventID, snapshot)
	serviceLogger(ctx, s.logger, "timer", operation, "event_id", eventID).
		DebugContext(ctx, "timer snapshot broadcast", "round", snapshot.CurrentRound, "paused", snapshot.IsPaused)
}

func (s *TimerService) lockEvent(eventID string) func() {
	value, _ := s.locks.LoadOrStore(eventID, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func toSnapshot(state TimerState) TimerSnapshot {
	var startedAt *time.Time
	if state.RoundStartTime != nil {
		clone := state.RoundStartTime.UTC()
		startedAt = &clone
	}
	var remaining *int
	if state.PauseRemainingS != nil {
		clone := *state.PauseRemainingS
		remaining = &clone
	}
	return TimerSnapshot{
		EventID:         state.EventID,
		CurrentRound:    state.CurrentRound,
		RoundDurationS:  state.RoundDurationS,
		BreakDurationS:  state.BreakDurationS,
		RoundStartTime:  startedAt,
		IsPaused:        state.IsPaused,
		PauseRemainingS: remaining,
		FinalRound:      state.FinalRound,
	}
}

func mapTimerError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return ErrNotFound
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound)
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
