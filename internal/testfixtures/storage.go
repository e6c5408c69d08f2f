package testfixtures

import (
	"context"
	"sort"
	"sync"

	"github.com/example/speeddate-scheduler/internal/application"
)

// ParticipantStore is an in-memory participant registry and directory for
// service tests.
type ParticipantStore struct {
	mu           sync.Mutex
	participants []application.Participant

	// Err, when set, is returned by every operation.
	Err error
}

// NewParticipantStore seeds the store with the given participants.
func NewParticipantStore(participants ...application.Participant) *ParticipantStore {
	return &ParticipantStore{participants: append([]application.Participant(nil), participants...)}
}

func (s *ParticipantStore) CreateParticipant(ctx context.Context, participant application.Participant) (application.Participant, error) {
	if s.Err != nil {
		return application.Participant{}, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants = append(s.participants, participant)
	return participant, nil
}

func (s *ParticipantStore) GetParticipant(ctx context.Context, eventID, id string) (application.Participant, error) {
	if s.Err != nil {
		return application.Participant{}, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, participant := range s.participants {
		if participant.EventID == eventID && participant.ID == id {
			return participant, nil
		}
	}
	return application.Participant{}, application.ErrNotFound
}

func (s *ParticipantStore) ListParticipants(ctx context.Context, eventID string) ([]application.Participant, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []application.Participant
	for _, participant := range s.participants {
		if participant.EventID == eventID {
			out = append(out, participant)
		}
	}
	return out, nil
}

func (s *ParticipantStore) ListCheckedIn(ctx context.Context, eventID string) ([]application.Participant, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []application.Participant
	for _, participant := range s.participants {
		if participant.EventID == eventID && participant.CheckedIn {
			out = append(out, participant)
		}
	}
	return out, nil
}

func (s *ParticipantStore) SetCheckedIn(ctx context.Context, eventID, id string, checkedIn bool) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.participants {
		if s.participants[i].EventID == eventID && s.participants[i].ID == id {
			s.participants[i].CheckedIn = checkedIn
			return nil
		}
	}
	return application.ErrNotFound
}

// PairingStore is an in-memory pairing repository for service tests.
type PairingStore struct {
	mu       sync.Mutex
	pairings map[string][]application.Pairing

	// ReplaceErr, when set, fails ReplacePairings without mutating anything.
	ReplaceErr error
	// ListErr, when set, fails the read operations.
	ListErr error
	// ReplaceCalls counts ReplacePairings invocations.
	ReplaceCalls int
}

// NewPairingStore constructs an empty store.
func NewPairingStore() *PairingStore {
	return &PairingStore{pairings: make(map[string][]application.Pairing)}
}

func (s *PairingStore) ReplacePairings(ctx context.Context, eventID string, pairings []application.Pairing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ReplaceCalls++
	if s.ReplaceErr != nil {
		return s.ReplaceErr
	}
	s.pairings[eventID] = append([]application.Pairing(nil), pairings...)
	return nil
}

func (s *PairingStore) ListPairings(ctx context.Context, eventID string) ([]application.Pairing, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]application.Pairing(nil), s.pairings[eventID]...), nil
}

func (s *PairingStore) ListPairingsForParticipant(ctx context.Context, eventID, participantID string) ([]application.Pairing, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []application.Pairing
	for _, pairing := range s.pairings[eventID] {
		if pairing.MaleID == participantID || pairing.FemaleID == participantID {
			out = append(out, pairing)
		}
	}
	return out, nil
}

func (s *PairingStore) MaxRound(ctx context.Context, eventID string) (int, error) {
	if s.ListErr != nil {
		return 0, s.ListErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	maxRound := 0
	for _, pairing := range s.pairings[eventID] {
		if pairing.Round > maxRound {
			maxRound = pairing.Round
		}
	}
	return maxRound, nil
}

// Stored returns the persisted pairings of the event sorted by round then table.
func (s *PairingStore) Stored(eventID string) []application.Pairing {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]application.Pairing(nil), s.pairings[eventID]...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].Table < out[j].Table
	})
	return out
}

// TimerStore is an in-memory timer row store for service tests. It doubles as
// a round source through its MaxRoundValue field.
type TimerStore struct {
	mu     sync.Mutex
	states map[string]application.TimerState

	// MaxRoundValue is returned by MaxRound.
	MaxRoundValue int
	// GetErr and UpsertErr, when set, fail the corresponding operation.
	GetErr    error
	UpsertErr error
}

// NewTimerStore constructs an empty store.
func NewTimerStore() *TimerStore {
	return &TimerStore{states: make(map[string]application.TimerState)}
}

func (s *TimerStore) GetTimerState(ctx context.Context, eventID string) (application.TimerState, error) {
	if s.GetErr != nil {
		return application.TimerState{}, s.GetErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[eventID]
	if !ok {
		return application.TimerState{}, application.ErrNotFound
	}
	return state, nil
}

func (s *TimerStore) UpsertTimerState(ctx context.Context, state application.TimerState) error {
	if s.UpsertErr != nil {
		return s.UpsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.EventID] = state
	return nil
}

func (s *TimerStore) MaxRound(ctx context.Context, eventID string) (int, error) {
	return s.MaxRoundValue, nil
}

// Seed stores the state directly, bypassing error injection.
func (s *TimerStore) Seed(state application.TimerState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.EventID] = state
}

// RecordingBroadcaster captures published messages for assertions.
type RecordingBroadcaster struct {
	mu       sync.Mutex
	messages []BroadcastMessage
}

// BroadcastMessage is one captured publication.
type BroadcastMessage struct {
	EventID string
	Payload any
}

// NewRecordingBroadcaster constructs an empty recorder.
func NewRecordingBroadcaster() *RecordingBroadcaster {
	return &RecordingBroadcaster{}
}

func (b *RecordingBroadcaster) Publish(eventID string, message any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, BroadcastMessage{EventID: eventID, Payload: message})
}

// Messages returns the captured publications in order.
func (b *RecordingBroadcaster) Messages() []BroadcastMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]BroadcastMessage(nil), b.messages...)
}
