package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// migrationStep is one versioned schema change. Statements run inside a
// single transaction together with the version bookkeeping row.
type migrationStep struct {
	Version     int
	Description string
	Statements  []string
}

var migrations = []migrationStep{
	{
		Version:     1,
		Description: "participant registry",
		Statements: []string{`
			CREATE TABLE IF NOT EXISTS participants (
				id          TEXT PRIMARY KEY,
				event_id    TEXT NOT NULL,
				name        TEXT NOT NULL,
				category    TEXT NOT NULL CHECK (category IN ('male', 'female')),
				age         INTEGER NOT NULL CHECK (age >= 0),
				affiliation TEXT NOT NULL DEFAULT '',
				checked_in  INTEGER NOT NULL DEFAULT 0,
				created_at  TEXT NOT NULL,
				updated_at  TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_participants_event ON participants (event_id)`,
		},
	},
	{
		Version:     2,
		Description: "pairing schedule",
		Statements: []string{`
			CREATE TABLE IF NOT EXISTS pairings (
				id         TEXT PRIMARY KEY,
				event_id   TEXT NOT NULL,
				round      INTEGER NOT NULL CHECK (round >= 1),
				table_no   INTEGER NOT NULL CHECK (table_no >= 1),
				male_id    TEXT NOT NULL REFERENCES participants (id),
				female_id  TEXT NOT NULL REFERENCES participants (id),
				created_at TEXT NOT NULL,
				UNIQUE (event_id, round, table_no),
				UNIQUE (event_id, round, male_id),
				UNIQUE (event_id, round, female_id),
				UNIQUE (event_id, male_id, female_id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_pairings_event_round ON pairings (event_id, round)`,
		},
	},
	{
		Version:     3,
		Description: "timer state",
		Statements: []string{`
			CREATE TABLE IF NOT EXISTS timer_state (
				event_id          TEXT PRIMARY KEY,
				current_round     INTEGER NOT NULL CHECK (current_round >= 1),
				round_duration_s  INTEGER NOT NULL,
				break_duration_s  INTEGER NOT NULL,
				round_start_time  TEXT,
				is_paused         INTEGER NOT NULL DEFAULT 0,
				pause_remaining_s INTEGER,
				final_round       INTEGER NOT NULL,
				updated_at        TEXT NOT NULL
			)`,
		},
	},
}

// Migrate applies pending schema migrations in version order. Each step runs
// in its own transaction and is recorded in schema_migrations, so re-running
// is safe.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL
		)`); err != nil {
		return fmt.Errorf("failed to initialize schema_migrations: %w", err)
	}

	applied, err := cp.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, step := range migrations {
		if applied[step.Version] {
			continue
		}
		if err := cp.applyMigration(ctx, step); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", step.Version, step.Description, err)
		}
	}

	return nil
}

func (cp *ConnectionPool) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := cp.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (cp *ConnectionPool) applyMigration(ctx context.Context, step migrationStep) error {
	return cp.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, statement := range step.Statements {
			if _, err := tx.Exec(statement); err != nil {
				return err
			}
		}
		_, err := tx.Exec(
			`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
			step.Version, time.Now().UTC().Format(time.RFC3339),
		)
		return err
	})
}
