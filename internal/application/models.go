package application

import "time"

// Participant represents an attendee exposed by the application services.
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

// ParticipantInput captures caller provided participant attributes.
type ParticipantInput struct {
	Name        string
	Category    string
	Age         int
	Affiliation string
	CheckedIn   bool
}

// Pairing represents one persisted meeting slot.
type Pairing struct {
	ID       string
	EventID  string
	Round    int
	Table    int
	MaleID   string
	FemaleID string
}

// GenerateScheduleResult reports the achieved schedule dimensions. Rounds and
// Tables are -1 when generation failed or the roster was insufficient.
type GenerateScheduleResult struct {
	Rounds   int
	Tables   int
	Warnings []string
}

// ScheduleEntry is one row of a participant's personal schedule.
type ScheduleEntry struct {
	PairingID          string
	Round              int
	Table              int
	PartnerID          string
	PartnerName        string
	PartnerAge         int
	PartnerAffiliation string
	SelfAge            int
	SelfAffiliation    string
}

// TimerState mirrors the persisted per-event timer row.
type TimerState struct {
	EventID         string
	CurrentRound    int
	RoundDurationS  int
	BreakDurationS  int
	RoundStartTime  *time.Time
	IsPaused        bool
	PauseRemainingS *int
	FinalRound      int
}

// TimerSnapshot is the observer-facing view of the timer emitted after every
// mutation and embedded in status responses.
type TimerSnapshot struct {
	EventID         string
	CurrentRound    int
	RoundDurationS  int
	BreakDurationS  int
	RoundStartTime  *time.Time
	IsPaused        bool
	PauseRemainingS *int
	FinalRound      int
}

// TimerStatusTag labels the derived state of an event timer.
type TimerStatusTag string

const (
	// TimerStatusInactive indicates no round has been started yet.
	TimerStatusInactive TimerStatusTag = "inactive"
	// TimerStatusActive indicates a round is in progress.
	TimerStatusActive TimerStatusTag = "active"
	// TimerStatusPaused indicates the timer was explicitly paused.
	TimerStatusPaused TimerStatusTag = "paused"
	// TimerStatusBreak indicates the round duration elapsed but the round has
	// not been advanced.
	TimerStatusBreak TimerStatusTag = "break_time"
	// TimerStatusEnded indicates the final round's duration has elapsed.
	TimerStatusEnded TimerStatusTag = "ended"
)

// TimerStatus is the derived, read-only answer to a status query.
type TimerStatus struct {
	HasTimer      bool
	Timer         *TimerSnapshot
	Status        TimerStatusTag
	TimeRemaining int
	Message       string
}

// NextRoundResult couples the post-advance snapshot with the terminal flag.
type NextRoundResult struct {
	Snapshot TimerSnapshot
	Complete bool
}
