package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/speeddate-scheduler/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Participants *sqlite.ParticipantRepository
	Pairings     *sqlite.PairingRepository
	Timers       *sqlite.TimerRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness over a temporary file that is
// migrated automatically. Cleanup is registered with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	path := filepath.Join(dir, "speeddate.db")

	storage, err := sqlite.Open(sqlite.DefaultConfig(path))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Participants: sqlite.NewParticipantRepository(storage),
		Pairings:     sqlite.NewPairingRepository(storage),
		Timers:       sqlite.NewTimerRepository(storage),
		cleanup: func() {
			_ = storage.Close()
		},
	}
	tb.Cleanup(harness.Close)
	return harness
}
