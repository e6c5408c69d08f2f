package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

type timerStoreStub struct {
	states      map[string]TimerState
	getErr      error
	upsertErr   error
	upsertCalls int
}

func newTimerStoreStub() *timerStoreStub {
	return &timerStoreStub{states: make(map[string]TimerState)}
}

func (s *timerStoreStub) GetTimerState(ctx context.Context, eventID string) (TimerState, error) {
	if s.getErr != nil {
		return TimerState{}, s.getErr
	}
	state, ok := s.states[eventID]
	if !ok {
		return TimerState{}, ErrNotFound
	}
	return state, nil
}

func (s *timerStoreStub) UpsertTimerState(ctx context.Context, state TimerState) error {
	s.upsertCalls++
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.states[state.EventID] = state
	return nil
}

type roundSourceStub struct {
	maxRound int
	err      error
}

func (r *roundSourceStub) MaxRound(ctx context.Context, eventID string) (int, error) {
	return r.maxRound, r.err
}

type broadcasterStub struct {
	published []TimerSnapshot
}

func (b *broadcasterStub) Publish(eventID string, message any) {
	if snapshot, ok := message.(TimerSnapshot); ok {
		b.published = append(b.published, snapshot)
	}
}

// timerHarness bundles the service with its collaborators and a movable clock.
type timerHarness struct {
	service     *TimerService
	store       *timerStoreStub
	rounds      *roundSourceStub
	broadcaster *broadcasterStub
	clock       time.Time
}

func newTimerHarness(maxRound int) *timerHarness {
	h := &timerHarness{
		store:       newTimerStoreStub(),
		rounds:      &roundSourceStub{maxRound: maxRound},
		broadcaster: &broadcasterStub{},
		clock:       time.Date(2024, time.June, 1, 18, 0, 0, 0, time.UTC),
	}
	h.service = NewTimerService(h.store, h.rounds, h.broadcaster,
		TimerDefaults{RoundDurationS: 180, BreakDurationS: 60},
		func() time.Time { return h.clock })
	return h
}

func (h *timerHarness) advance(seconds int) {
	h.clock = h.clock.Add(time.Duration(seconds) * time.Second)
}

func intPointer(v int) *int { return &v }

func TestTimerService_StartRound(t *testing.T) {
	t.Run("creates the timer row and starts round one", func(t *testing.T) {
		h := newTimerHarness(5)

		snapshot, err := h.service.StartRound(context.Background(), "event-001", nil)
		if err != nil {
			t.Fatalf("StartRound returned error: %v", err)
		}
		if snapshot.CurrentRound != 1 || snapshot.FinalRound != 5 {
			t.Fatalf("unexpected snapshot: %+v", snapshot)
		}
		if snapshot.RoundStartTime == nil || !snapshot.RoundStartTime.Equal(h.clock) {
			t.Fatalf("round start time not stamped: %+v", snapshot)
		}
		if snapshot.RoundDurationS != 180 || snapshot.BreakDurationS != 60 {
			t.Fatalf("defaults not applied: %+v", snapshot)
		}
		if len(h.broadcaster.published) != 1 {
			t.Fatalf("expected one broadcast, got %d", len(h.broadcaster.published))
		}
	})

	t.Run("refuses to start without a schedule", func(t *testing.T) {
		h := newTimerHarness(0)

		_, err := h.service.StartRound(context.Background(), "event-001", nil)

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if h.store.upsertCalls != 0 {
			t.Fatalf("nothing should have been persisted")
		}
	})

	t.Run("rejects a round outside the schedule", func(t *testing.T) {
		h := newTimerHarness(5)

		_, err := h.service.StartRound(context.Background(), "event-001", intPointer(7))

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("restarting an explicit round clears pause state", func(t *testing.T) {
		h := newTimerHarness(5)
		if _, err := h.service.StartRound(context.Background(), "event-001", nil); err != nil {
			t.Fatalf("StartRound returned error: %v", err)
		}
		if _, err := h.service.PauseRound(context.Background(), "event-001", intPointer(90)); err != nil {
			t.Fatalf("PauseRound returned error: %v", err)
		}

		snapshot, err := h.service.StartRound(context.Background(), "event-001", intPointer(3))
		if err != nil {
			t.Fatalf("StartRound returned error: %v", err)
		}
		if snapshot.CurrentRound != 3 || snapshot.IsPaused || snapshot.PauseRemainingS != nil {
			t.Fatalf("pause state not cleared: %+v", snapshot)
		}
	})
}

func TestTimerService_PauseAndResume(t *testing.T) {
	t.Run("pause computes the remainder from the round start", func(t *testing.T) {
		h := newTimerHarness(5)
		if _, err := h.service.StartRound(context.Background(), "event-001", nil); err != nil {
			t.Fatalf("StartRound returned error: %v", err)
		}
		h.advance(60)

		snapshot, err := h.service.PauseRound(context.Background(), "event-001", nil)
		if err != nil {
			t.Fatalf("PauseRound returned error: %v", err)
		}
		if !snapshot.IsPaused {
			t.Fatalf("expected a paused snapshot: %+v", snapshot)
		}
		if snapshot.PauseRemainingS == nil || *snapshot.PauseRemainingS != 120 {
			t.Fatalf("expected 120 seconds remaining, got %+v", snapshot.PauseRemainingS)
		}
		if snapshot.RoundStartTime != nil {
			t.Fatalf("round start time should be cleared while paused")
		}
	})

	t.Run("pause clamps an explicit remainder to the round duration", func(t *testing.T) {
		h := newTimerHarness(5)
		if _, err := h.service.StartRound(context.Background(), "event-001", nil); err != nil {
			t.Fatalf("StartRound returned error: %v", err)
		}

		snapshot, err := h.service.PauseRound(context.Background(), "event-001", intPointer(5000))
		if err != nil {
			t.Fatalf("PauseRound returned error: %v", err)
		}
		if *snapshot.PauseRemainingS != 180 {
			t.Fatalf("expected the remainder clamped to 180, got %d", *snapshot.PauseRemainingS)
		}
	})

	t.Run("pausing twice fails", func(t *testing.T) {
		h := newTimerHarness(5)
		if _, err := h.service.StartRound(context.Background(), "event-001", nil); err != nil {
			t.Fatalf("StartRound returned error: %v", err)
		}
		if _, err := h.service.PauseRound(context.Background(), "event-001", nil); err != nil {
			t.Fatalf("first pause returned error: %v", err)
		}

		if _, err := h.service.PauseRound(context.Background(), "event-001", nil); !errors.Is(err, ErrTimerNotActive) {
			t.Fatalf("expected ErrTimerNotActive, got %v", err)
		}
	})

	t.Run("pausing before any round has started fails", func(t *testing.T) {
		h := newTimerHarness(5)
		h.store.states["event-001"] = TimerState{
			EventID:        "event-001",
			CurrentRound:   1,
			RoundDurationS: 180,
			BreakDurationS: 60,
			FinalRound:     5,
		}

		if _, err := h.service.PauseRound(context.Background(), "event-001", nil); !errors.Is(err, ErrTimerNotActive) {
			t.Fatalf("expected ErrTimerNotActive, got %v", err)
		}
	})

	t.Run("pausing an unknown event maps to not found", func(t *testing.T) {
		h := newTimerHarness(5)

		if _, err := h.service.PauseRound(context.Background(), "event-missing", nil); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("resume restarts the countdown from the frozen remainder", func(t *testing.T) {
		h := newTimerHarness(5)
		if _, err := h.service.StartRound(context.Background(), "event-001", nil); err != nil {
			t.Fatalf("StartRound returned error: %v", err)
		}
		h.advance(60)
		if _, err := h.service.PauseRound(context.Background(), "event-001", nil); err != nil {
			t.Fatalf("PauseRound returned error: %v", err)
		}
		h.advance(300) // the pause itself consumes no round time

		snapshot, err := h.service.ResumeRound(context.Background(), "event-001")
		if err != nil {
			t.Fatalf("ResumeRound returned error: %v", err)
		}
		if snapshot.IsPaused || snapshot.RoundStartTime == nil {
			t.Fatalf("expected a running snapshot: %+v", snapshot)
		}

		h.advance(60)
		status, err := h.service.Status(context.Background(), "event-001")
		if err != nil {
			t.Fatalf("Status returned error: %v", err)
		}
		if status.Status != TimerStatusActive || status.TimeRemaining != 60 {
			t.Fatalf("expected 60 seconds left of the carried budget, got %+v", status)
		}
	})

	t.Run("resuming a running round fails", func(t *testing.T) {
		h := newTimerHarness(5)
		if _, err := h.service.StartRound(context.Background(), "event-001", nil); err != nil {
			t.Fatalf("StartRound returned error: %v", err)
		}

		if _, err := h.service.ResumeRound(context.Background(), "event-001"); !errors.Is(err, ErrTimerNotPaused) {
			t.Fatalf("expected ErrTimerNotPaused, got %v", err)
		}
	})
}

func TestTimerService_NextRound(t *testing.T) {
	t.Run("advances and restarts the clock", func(t *testing.T) {
		h := newTimerHarness(5)
		if _, err := h.service.StartRound(context.Background(), "event-001", nil); err != nil {
			t.Fatalf("StartRound returned error: %v", err)
		}
		h.advance(200)

		result, err := h.service.NextRound(context.Background(), "event-001")
		if err != nil {
			t.Fatalf("NextRound returned error: %v", err)
		}
		if result.Complete {
			t.Fatalf("round 2 of 5 must not report completion")
		}
		if result.Snapshot.CurrentRound != 2 {
			t.Fatalf("expected round 2, got %d", result.Snapshot.CurrentRound)
		}
		if result.Snapshot.RoundStartTime == nil || !result.Snapshot.RoundStartTime.Equal(h.clock) {
			t.Fatalf("round start not reset: %+v", result.Snapshot)
		}
		if result.Snapshot.IsPaused || result.Snapshot.PauseRemainingS != nil {
			t.Fatalf("pause state must be cleared on advance: %+v", result.Snapshot)
		}
	})

	t.Run("reports completion at the final round without mutating", func(t *testing.T) {
		h := newTimerHarness(2)
		if _, err := h.service.StartRound(context.Background(), "event-001", intPointer(2)); err != nil {
			t.Fatalf("StartRound returned error: %v", err)
		}
		upsertsBefore := h.store.upsertCalls

		result, err := h.service.NextRound(context.Background(), "event-001")
		if err != nil {
			t.Fatalf("NextRound returned error: %v", err)
		}
		if !result.Complete {
			t.Fatalf("expected completion at the final round")
		}
		if result.Snapshot.CurrentRound != 2 {
			t.Fatalf("final round must not advance, got %d", result.Snapshot.CurrentRound)
		}
		if h.store.upsertCalls != upsertsBefore {
			t.Fatalf("completion must not write")
		}
	})

	t.Run("unknown event maps to not found", func(t *testing.T) {
		h := newTimerHarness(5)

		if _, err := h.service.NextRound(context.Background(), "event-missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestTimerService_UpdateDurations(t *testing.T) {
	t.Run("rejects out-of-range durations before touching storage", func(t *testing.T) {
		h := newTimerHarness(5)
		if _, err := h.service.StartRound(context.Background(), "event-001", nil); err != nil {
			t.Fatalf("StartRound returned error: %v", err)
		}
		upsertsBefore := h.store.upsertCalls

		cases := []struct {
			name           string
			roundS, breakS *int
		}{
			{"round too short", intPointer(29), nil},
			{"round too long", intPointer(901), nil},
			{"break too short", nil, intPointer(14)},
			{"break too long", nil, intPointer(601)},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := h.service.UpdateDurations(context.Background(), "event-001", tc.roundS, tc.breakS)
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
			})
		}
		if h.store.upsertCalls != upsertsBefore {
			t.Fatalf("invalid updates must not write")
		}
	})

	t.Run("persists the provided fields only", func(t *testing.T) {
		h := newTimerHarness(5)
		if _, err := h.service.StartRound(context.Background(), "event-001", nil); err != nil {
			t.Fatalf("StartRound returned error: %v", err)
		}

		snapshot, err := h.service.UpdateDurations(context.Background(), "event-001", intPointer(300), nil)
		if err != nil {
			t.Fatalf("UpdateDurations returned error: %v", err)
		}
		if snapshot.RoundDurationS != 300 || snapshot.BreakDurationS != 60 {
			t.Fatalf("expected only the round duration to change: %+v", snapshot)
		}

		snapshot, err = h.service.UpdateDurations(context.Background(), "event-001", nil, intPointer(90))
		if err != nil {
			t.Fatalf("UpdateDurations returned error: %v", err)
		}
		if snapshot.RoundDurationS != 300 || snapshot.BreakDurationS != 90 {
			t.Fatalf("expected only the break duration to change: %+v", snapshot)
		}
	})
}

func TestTimerService_Status(t *testing.T) {
	t.Run("reports inactive for an event with no timer", func(t *testing.T) {
		h := newTimerHarness(5)

		status, err := h.service.Status(context.Background(), "event-001")
		if err != nil {
			t.Fatalf("Status returned error: %v", err)
		}
		if status.HasTimer || status.Status != TimerStatusInactive || status.Timer != nil {
			t.Fatalf("expected an inactive empty status, got %+v", status)
		}
	})

	t.Run("counts down while a round runs", func(t *testing.T) {
		h := newTimerHarness(5)
		if _, err := h.service.StartRound(context.Background(), "event-001", nil); err != nil {
			t.Fatalf("StartRound returned error: %v", err)
		}
		h.advance(50)

		status, err := h.service.Status(context.Background(), "event-001")
		if err != nil {
			t.Fatalf("Status returned error: %v", err)
		}
		if status.Status != TimerStatusActive || status.TimeRemaining != 130 {
			t.Fatalf("expected 130 seconds remaining, got %+v", status)
		}
	})

	t.Run("reports the frozen remainder while paused", func(t *testing.T) {
		h := newTimerHarness(5)
		if _, err := h.service.StartRound(context.Background(), "event-001", nil); err != nil {
			t.Fatalf("StartRound returned error: %v", err)
		}
		h.advance(30)
		if _, err := h.service.PauseRound(context.Background(), "event-001", nil); err != nil {
			t.Fatalf("PauseRound returned error: %v", err)
		}
		h.advance(500)

		status, err := h.service.Status(context.Background(), "event-001")
		if err != nil {
			t.Fatalf("Status returned error: %v", err)
		}
		if status.Status != TimerStatusPaused || status.TimeRemaining != 150 {
			t.Fatalf("expected a frozen 150 seconds, got %+v", status)
		}
	})

	t.Run("switches to break time when the round elapses", func(t *testing.T) {
		h := newTimerHarness(5)
		if _, err := h.service.StartRound(context.Background(), "event-001", nil); err != nil {
			t.Fatalf("StartRound returned error: %v", err)
		}
		h.advance(200)

		status, err := h.service.Status(context.Background(), "event-001")
		if err != nil {
			t.Fatalf("Status returned error: %v", err)
		}
		if status.Status != TimerStatusBreak || status.TimeRemaining != 40 {
			t.Fatalf("expected 40 seconds of break, got %+v", status)
		}
	})

	t.Run("reports the event as ended after the final round", func(t *testing.T) {
		h := newTimerHarness(2)
		if _, err := h.service.StartRound(context.Background(), "event-001", intPointer(2)); err != nil {
			t.Fatalf("StartRound returned error: %v", err)
		}
		h.advance(1000)

		status, err := h.service.Status(context.Background(), "event-001")
		if err != nil {
			t.Fatalf("Status returned error: %v", err)
		}
		if status.Status != TimerStatusEnded {
			t.Fatalf("expected the ended status, got %+v", status)
		}
	})
}

func TestTimerService_BroadcastsEveryMutation(t *testing.T) {
	h := newTimerHarness(5)

	if _, err := h.service.StartRound(context.Background(), "event-001", nil); err != nil {
		t.Fatalf("StartRound returned error: %v", err)
	}
	if _, err := h.service.PauseRound(context.Background(), "event-001", nil); err != nil {
		t.Fatalf("PauseRound returned error: %v", err)
	}
	if _, err := h.service.ResumeRound(context.Background(), "event-001"); err != nil {
		t.Fatalf("ResumeRound returned error: %v", err)
	}
	if _, err := h.service.NextRound(context.Background(), "event-001"); err != nil {
		t.Fatalf("NextRound returned error: %v", err)
	}
	if _, err := h.service.UpdateDurations(context.Background(), "event-001", intPointer(120), nil); err != nil {
		t.Fatalf("UpdateDurations returned error: %v", err)
	}

	if len(h.broadcaster.published) != 5 {
		t.Fatalf("expected five broadcast snapshots, got %d", len(h.broadcaster.published))
	}
	last := h.broadcaster.published[len(h.broadcaster.published)-1]
	if last.CurrentRound != 2 || last.RoundDurationS != 120 {
		t.Fatalf("unexpected final broadcast: %+v", last)
	}
}
