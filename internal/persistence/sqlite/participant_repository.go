package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/speeddate-scheduler/internal/persistence"
)

// ParticipantRepository implements persistence.ParticipantRepository on
// SQLite.
type ParticipantRepository struct {
	pool *ConnectionPool
}

// NewParticipantRepository creates a repository backed by the pool.
func NewParticipantRepository(pool *ConnectionPool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

const participantColumns = `id, event_id, name, category, age, affiliation, checked_in, created_at, updated_at`

// CreateParticipant inserts a new attendee row.
func (r *ParticipantRepository) CreateParticipant(ctx context.Context, participant persistence.Participant) error {
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO participants (`+participantColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		participant.ID,
		participant.EventID,
		participant.Name,
		participant.Category,
		participant.Age,
		participant.Affiliation,
		boolToInt(participant.CheckedIn),
		formatTime(participant.CreatedAt),
		formatTime(participant.UpdatedAt),
	)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// GetParticipant fetches one attendee scoped to the event.
func (r *ParticipantRepository) GetParticipant(ctx context.Context, eventID, id string) (persistence.Participant, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT `+participantColumns+`
		FROM participants
		WHERE event_id = ? AND id = ?`,
		eventID, id,
	)
	participant, err := scanParticipant(row)
	if err != nil {
		return persistence.Participant{}, mapError(err)
	}
	return participant, nil
}

// ListParticipants returns every attendee of the event in registration order.
func (r *ParticipantRepository) ListParticipants(ctx context.Context, eventID string) ([]persistence.Participant, error) {
	return r.listWhere(ctx, `event_id = ?`, eventID)
}

// ListCheckedIn returns the attendees that form the scheduling roster, in
// registration order so matching stays deterministic.
func (r *ParticipantRepository) ListCheckedIn(ctx context.Context, eventID string) ([]persistence.Participant, error) {
	return r.listWhere(ctx, `event_id = ? AND checked_in = 1`, eventID)
}

func (r *ParticipantRepository) listWhere(ctx context.Context, where string, args ...any) ([]persistence.Participant, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT `+participantColumns+`
		FROM participants
		WHERE `+where+`
		ORDER BY created_at, id`,
		args...,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var participants []persistence.Participant
	for rows.Next() {
		participant, err := scanParticipant(rows)
		if err != nil {
			return nil, mapError(err)
		}
		participants = append(participants, participant)
	}
	return participants, rows.Err()
}

// SetCheckedIn updates the roster membership flag of one attendee.
func (r *ParticipantRepository) SetCheckedIn(ctx context.Context, eventID, id string, checkedIn bool) error {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE participants
		SET checked_in = ?, updated_at = ?
		WHERE event_id = ? AND id = ?`,
		boolToInt(checkedIn), formatTime(time.Now().UTC()), eventID, id,
	)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParticipant(row rowScanner) (persistence.Participant, error) {
	var (
		participant persistence.Participant
		checkedIn   int
		createdAt   string
		updatedAt   string
	)
	err := row.Scan(
		&participant.ID,
		&participant.EventID,
		&participant.Name,
		&participant.Category,
		&participant.Age,
		&participant.Affiliation,
		&checkedIn,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Participant{}, err
	}
	participant.CheckedIn = checkedIn != 0
	if participant.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Participant{}, err
	}
	if participant.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Participant{}, err
	}
	return participant, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", value, err)
	}
	return t.UTC(), nil
}
