package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/speeddate-scheduler/internal/persistence"
)

type participantRegistryStub struct {
	created []Participant
	stored  map[string]Participant
	err     error
}

func newParticipantRegistryStub() *participantRegistryStub {
	return &participantRegistryStub{stored: make(map[string]Participant)}
}

func (r *participantRegistryStub) CreateParticipant(ctx context.Context, participant Participant) (Participant, error) {
	if r.err != nil {
		return Participant{}, r.err
	}
	r.created = append(r.created, participant)
	r.stored[participant.ID] = participant
	return participant, nil
}

func (r *participantRegistryStub) GetParticipant(ctx context.Context, eventID, id string) (Participant, error) {
	if r.err != nil {
		return Participant{}, r.err
	}
	participant, ok := r.stored[id]
	if !ok || participant.EventID != eventID {
		return Participant{}, persistence.ErrNotFound
	}
	return participant, nil
}

func (r *participantRegistryStub) ListParticipants(ctx context.Context, eventID string) ([]Participant, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []Participant
	for _, participant := range r.created {
		if participant.EventID == eventID {
			out = append(out, participant)
		}
	}
	return out, nil
}

func (r *participantRegistryStub) SetCheckedIn(ctx context.Context, eventID, id string, checkedIn bool) error {
	if r.err != nil {
		return r.err
	}
	participant, ok := r.stored[id]
	if !ok || participant.EventID != eventID {
		return persistence.ErrNotFound
	}
	participant.CheckedIn = checkedIn
	r.stored[id] = participant
	return nil
}

func newTestParticipantService(registry *participantRegistryStub) *ParticipantService {
	idGen := func() string { return "participant-001" }
	now := func() time.Time { return time.Date(2024, time.June, 1, 17, 30, 0, 0, time.UTC) }
	return NewParticipantService(registry, idGen, now)
}

func TestParticipantService_CreateParticipant(t *testing.T) {
	t.Run("stamps identity and timestamps and trims input", func(t *testing.T) {
		registry := newParticipantRegistryStub()
		svc := newTestParticipantService(registry)

		participant, err := svc.CreateParticipant(context.Background(), "event-001", ParticipantInput{
			Name:        "  山田 太郎  ",
			Category:    "male",
			Age:         32,
			Affiliation: " 営業部 ",
			CheckedIn:   true,
		})
		if err != nil {
			t.Fatalf("CreateParticipant returned error: %v", err)
		}
		if participant.ID != "participant-001" {
			t.Fatalf("expected the generated id, got %q", participant.ID)
		}
		if participant.Name != "山田 太郎" || participant.Affiliation != "営業部" {
			t.Fatalf("input not trimmed: %+v", participant)
		}
		want := time.Date(2024, time.June, 1, 17, 30, 0, 0, time.UTC)
		if !participant.CreatedAt.Equal(want) || !participant.UpdatedAt.Equal(want) {
			t.Fatalf("timestamps not stamped from the clock: %+v", participant)
		}
		if len(registry.created) != 1 {
			t.Fatalf("expected one persisted participant, got %d", len(registry.created))
		}
	})

	t.Run("validates the input", func(t *testing.T) {
		cases := []struct {
			name    string
			eventID string
			input   ParticipantInput
			field   string
		}{
			{"missing event", "", ParticipantInput{Name: "A", Category: "male", Age: 30}, "event_id"},
			{"blank name", "event-001", ParticipantInput{Name: "   ", Category: "male", Age: 30}, "name"},
			{"unknown category", "event-001", ParticipantInput{Name: "A", Category: "robot", Age: 30}, "category"},
			{"negative age", "event-001", ParticipantInput{Name: "A", Category: "female", Age: -1}, "age"},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				registry := newParticipantRegistryStub()
				svc := newTestParticipantService(registry)

				_, err := svc.CreateParticipant(context.Background(), tc.eventID, tc.input)

				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if _, ok := vErr.FieldErrors[tc.field]; !ok {
					t.Fatalf("expected an error on %q, got %v", tc.field, vErr.FieldErrors)
				}
				if len(registry.created) != 0 {
					t.Fatalf("invalid input must not be persisted")
				}
			})
		}
	})

	t.Run("maps duplicate rows to a validation error", func(t *testing.T) {
		registry := newParticipantRegistryStub()
		registry.err = persistence.ErrDuplicate
		svc := newTestParticipantService(registry)

		_, err := svc.CreateParticipant(context.Background(), "event-001", ParticipantInput{
			Name: "A", Category: "male", Age: 30,
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestParticipantService_Lookups(t *testing.T) {
	seed := func(t *testing.T) (*ParticipantService, *participantRegistryStub) {
		t.Helper()
		registry := newParticipantRegistryStub()
		svc := newTestParticipantService(registry)
		if _, err := svc.CreateParticipant(context.Background(), "event-001", ParticipantInput{
			Name: "佐藤 花子", Category: "female", Age: 28, CheckedIn: true,
		}); err != nil {
			t.Fatalf("seeding failed: %v", err)
		}
		return svc, registry
	}

	t.Run("returns a stored participant", func(t *testing.T) {
		svc, _ := seed(t)

		participant, err := svc.GetParticipant(context.Background(), "event-001", "participant-001")
		if err != nil {
			t.Fatalf("GetParticipant returned error: %v", err)
		}
		if participant.Name != "佐藤 花子" {
			t.Fatalf("unexpected participant: %+v", participant)
		}
	})

	t.Run("maps a missing row to ErrNotFound", func(t *testing.T) {
		svc, _ := seed(t)

		if _, err := svc.GetParticipant(context.Background(), "event-001", "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("lists the event's participants", func(t *testing.T) {
		svc, _ := seed(t)

		participants, err := svc.ListParticipants(context.Background(), "event-001")
		if err != nil {
			t.Fatalf("ListParticipants returned error: %v", err)
		}
		if len(participants) != 1 {
			t.Fatalf("expected one participant, got %d", len(participants))
		}
	})
}

func TestParticipantService_SetCheckedIn(t *testing.T) {
	t.Run("flips the flag", func(t *testing.T) {
		registry := newParticipantRegistryStub()
		svc := newTestParticipantService(registry)
		if _, err := svc.CreateParticipant(context.Background(), "event-001", ParticipantInput{
			Name: "A", Category: "male", Age: 30,
		}); err != nil {
			t.Fatalf("seeding failed: %v", err)
		}

		if err := svc.SetCheckedIn(context.Background(), "event-001", "participant-001", true); err != nil {
			t.Fatalf("SetCheckedIn returned error: %v", err)
		}
		if !registry.stored["participant-001"].CheckedIn {
			t.Fatalf("flag not persisted")
		}
	})

	t.Run("maps a missing row to ErrNotFound", func(t *testing.T) {
		registry := newParticipantRegistryStub()
		svc := newTestParticipantService(registry)

		if err := svc.SetCheckedIn(context.Background(), "event-001", "missing", true); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
