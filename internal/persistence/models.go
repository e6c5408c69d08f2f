package persistence

import "time"

// Participant represents an attendee registered for an event. Category holds
// the matching side ("male" or "female"); CheckedIn marks participants that
// belong to the scheduling roster.
type Participant struct {
	ID          string
	EventID     string
	Name        string
	Category    string
	Age         int
	Affiliation string
	CheckedIn   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Pairing represents one persisted meeting slot of an event schedule.
type Pairing struct {
	ID        string
	EventID   string
	Round     int
	Table     int
	MaleID    string
	FemaleID  string
	CreatedAt time.Time
}

// TimerState is the single per-event row driving round progression. A nil
// RoundStartTime with IsPaused false means no round has been started yet; a
// paused timer stores the frozen remainder in PauseRemainingS instead of a
// start instant.
type TimerState struct {
	EventID         string
	CurrentRound    int
	RoundDurationS  int
	BreakDurationS  int
	RoundStartTime  *time.Time
	IsPaused        bool
	PauseRemainingS *int
	FinalRound      int
	UpdatedAt       time.Time
}
