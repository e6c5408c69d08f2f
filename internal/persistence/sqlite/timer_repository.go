package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/speeddate-scheduler/internal/persistence"
)

// TimerRepository implements persistence.TimerRepository on SQLite. The
// timer row is hot during events, so writes retry transient lock errors.
type TimerRepository struct {
	pool  *ConnectionPool
	retry RetryConfig
}

// NewTimerRepository creates a repository backed by the pool.
func NewTimerRepository(pool *ConnectionPool) *TimerRepository {
	return &TimerRepository{pool: pool, retry: DefaultRetryConfig()}
}

// GetTimerState fetches the event's timer row.
func (r *TimerRepository) GetTimerState(ctx context.Context, eventID string) (persistence.TimerState, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT event_id, current_round, round_duration_s, break_duration_s,
		       round_start_time, is_paused, pause_remaining_s, final_round, updated_at
		FROM timer_state
		WHERE event_id = ?`,
		eventID,
	)

	var (
		state          persistence.TimerState
		roundStartTime sql.NullString
		isPaused       int
		pauseRemaining sql.NullInt64
		updatedAt      string
	)
	err := row.Scan(
		&state.EventID,
		&state.CurrentRound,
		&state.RoundDurationS,
		&state.BreakDurationS,
		&roundStartTime,
		&isPaused,
		&pauseRemaining,
		&state.FinalRound,
		&updatedAt,
	)
	if err != nil {
		return persistence.TimerState{}, mapError(err)
	}

	state.IsPaused = isPaused != 0
	if roundStartTime.Valid {
		start, err := parseTime(roundStartTime.String)
		if err != nil {
			return persistence.TimerState{}, err
		}
		state.RoundStartTime = &start
	}
	if pauseRemaining.Valid {
		remaining := int(pauseRemaining.Int64)
		state.PauseRemainingS = &remaining
	}
	if state.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.TimerState{}, err
	}
	return state, nil
}

// UpsertTimerState writes the event's timer row, creating it on first use.
func (r *TimerRepository) UpsertTimerState(ctx context.Context, state persistence.TimerState) error {
	var roundStartTime any
	if state.RoundStartTime != nil {
		roundStartTime = formatTime(*state.RoundStartTime)
	}
	var pauseRemaining any
	if state.PauseRemainingS != nil {
		pauseRemaining = *state.PauseRemainingS
	}

	err := withRetry(ctx, r.retry, func() error {
		_, err := r.pool.db.ExecContext(ctx, `
			INSERT INTO timer_state (
				event_id, current_round, round_duration_s, break_duration_s,
				round_start_time, is_paused, pause_remaining_s, final_round, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (event_id) DO UPDATE SET
				current_round     = excluded.current_round,
				round_duration_s  = excluded.round_duration_s,
				break_duration_s  = excluded.break_duration_s,
				round_start_time  = excluded.round_start_time,
				is_paused         = excluded.is_paused,
				pause_remaining_s = excluded.pause_remaining_s,
				final_round       = excluded.final_round,
				updated_at        = excluded.updated_at`,
			state.EventID,
			state.CurrentRound,
			state.RoundDurationS,
			state.BreakDurationS,
			roundStartTime,
			boolToInt(state.IsPaused),
			pauseRemaining,
			state.FinalRound,
			formatTime(state.UpdatedAt),
		)
		return err
	})
	if err != nil {
		return mapError(err)
	}
	return nil
}
