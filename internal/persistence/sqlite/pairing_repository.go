package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/speeddate-scheduler/internal/persistence"
)

// PairingRepository implements persistence.PairingRepository on SQLite.
type PairingRepository struct {
	pool *ConnectionPool
}

// NewPairingRepository creates a repository backed by the pool.
func NewPairingRepository(pool *ConnectionPool) *PairingRepository {
	return &PairingRepository{pool: pool}
}

const pairingColumns = `id, event_id, round, table_no, male_id, female_id, created_at`

// ReplacePairings swaps the event's full pairing set in one transaction.
// On any failure the transaction rolls back and the prior schedule survives.
func (r *PairingRepository) ReplacePairings(ctx context.Context, eventID string, pairings []persistence.Pairing) error {
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pairings WHERE event_id = ?`, eventID); err != nil {
			return err
		}

		if len(pairings) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO pairings (`+pairingColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, pairing := range pairings {
			if _, err := stmt.ExecContext(ctx,
				pairing.ID,
				pairing.EventID,
				pairing.Round,
				pairing.Table,
				pairing.MaleID,
				pairing.FemaleID,
				formatTime(pairing.CreatedAt),
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return mapError(err)
	}
	return nil
}

// ListPairings returns the event's full schedule ordered by round then table.
func (r *PairingRepository) ListPairings(ctx context.Context, eventID string) ([]persistence.Pairing, error) {
	return r.listWhere(ctx, `event_id = ?`, eventID)
}

// ListPairingsForParticipant returns the rounds the participant appears in,
// on either side of the table.
func (r *PairingRepository) ListPairingsForParticipant(ctx context.Context, eventID, participantID string) ([]persistence.Pairing, error) {
	return r.listWhere(ctx, `event_id = ? AND (male_id = ? OR female_id = ?)`, eventID, participantID, participantID)
}

func (r *PairingRepository) listWhere(ctx context.Context, where string, args ...any) ([]persistence.Pairing, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT `+pairingColumns+`
		FROM pairings
		WHERE `+where+`
		ORDER BY round, table_no`,
		args...,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var pairings []persistence.Pairing
	for rows.Next() {
		var (
			pairing   persistence.Pairing
			createdAt string
		)
		if err := rows.Scan(
			&pairing.ID,
			&pairing.EventID,
			&pairing.Round,
			&pairing.Table,
			&pairing.MaleID,
			&pairing.FemaleID,
			&createdAt,
		); err != nil {
			return nil, mapError(err)
		}
		if pairing.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		pairings = append(pairings, pairing)
	}
	return pairings, rows.Err()
}

// MaxRound returns the highest round number of the event's schedule, or 0
// when no schedule exists.
func (r *PairingRepository) MaxRound(ctx context.Context, eventID string) (int, error) {
	var maxRound int
	err := r.pool.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(round), 0) FROM pairings WHERE event_id = ?`,
		eventID,
	).Scan(&maxRound)
	if err != nil {
		return 0, mapError(err)
	}
	return maxRound, nil
}
