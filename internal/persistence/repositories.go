package persistence

import "context"

// ParticipantRepository exposes the participant registry operations the
// scheduler and its HTTP shell need.
type ParticipantRepository interface {
	CreateParticipant(ctx context.Context, participant Participant) error
	GetParticipant(ctx context.Context, eventID, id string) (Participant, error)
	ListParticipants(ctx context.Context, eventID string) ([]Participant, error)
	ListCheckedIn(ctx context.Context, eventID string) ([]Participant, error)
	SetCheckedIn(ctx context.Context, eventID, id string, checkedIn bool) error
}

// PairingRepository stores generated schedules. ReplacePairings atomically
// swaps the full pairing set of an event: either every row is written or the
// prior schedule survives untouched.
type PairingRepository interface {
	ReplacePairings(ctx context.Context, eventID string, pairings []Pairing) error
	ListPairings(ctx context.Context, eventID string) ([]Pairing, error)
	ListPairingsForParticipant(ctx context.Context, eventID, participantID string) ([]Pairing, error)
	MaxRound(ctx context.Context, eventID string) (int, error)
}

// TimerRepository stores the per-event timer row.
type TimerRepository interface {
	GetTimerState(ctx context.Context, eventID string) (TimerState, error)
	UpsertTimerState(ctx context.Context, state TimerState) error
}
