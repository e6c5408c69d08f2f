package main

import (
	"context"
	"time"

	"github.com/example/speeddate-scheduler/internal/application"
	"github.com/example/speeddate-scheduler/internal/persistence"
)

// The application services are typed on their own models; these adapters
// bridge them to the persistence repositories.

type participantRegistryAdapter struct {
	repo persistence.ParticipantRepository
}

func newParticipantRegistryAdapter(repo persistence.ParticipantRepository) *participantRegistryAdapter {
	return &participantRegistryAdapter{repo: repo}
}

func (a *participantRegistryAdapter) CreateParticipant(ctx context.Context, participant application.Participant) (application.Participant, error) {
	if err := a.repo.CreateParticipant(ctx, toPersistenceParticipant(participant)); err != nil {
		return application.Participant{}, err
	}
	stored, err := a.repo.GetParticipant(ctx, participant.EventID, participant.ID)
	if err != nil {
		return application.Participant{}, err
	}
	return toApplicationParticipant(stored), nil
}

func (a *participantRegistryAdapter) GetParticipant(ctx context.Context, eventID, id string) (application.Participant, error) {
	stored, err := a.repo.GetParticipant(ctx, eventID, id)
	if err != nil {
		return application.Participant{}, err
	}
	return toApplicationParticipant(stored), nil
}

func (a *participantRegistryAdapter) ListParticipants(ctx context.Context, eventID string) ([]application.Participant, error) {
	models, err := a.repo.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return toApplicationParticipants(models), nil
}

func (a *participantRegistryAdapter) SetCheckedIn(ctx context.Context, eventID, id string, checkedIn bool) error {
	return a.repo.SetCheckedIn(ctx, eventID, id, checkedIn)
}

type participantDirectoryAdapter struct {
	repo persistence.ParticipantRepository
}

func newParticipantDirectoryAdapter(repo persistence.ParticipantRepository) *participantDirectoryAdapter {
	return &participantDirectoryAdapter{repo: repo}
}

func (a *participantDirectoryAdapter) ListParticipants(ctx context.Context, eventID string) ([]application.Participant, error) {
	models, err := a.repo.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return toApplicationParticipants(models), nil
}

func (a *participantDirectoryAdapter) ListCheckedIn(ctx context.Context, eventID string) ([]application.Participant, error) {
	models, err := a.repo.ListCheckedIn(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return toApplicationParticipants(models), nil
}

type pairingStoreAdapter struct {
	repo persistence.PairingRepository
	now  func() time.Time
}

func newPairingStoreAdapter(repo persistence.PairingRepository, now func() time.Time) *pairingStoreAdapter {
	if now == nil {
		now = time.Now
	}
	return &pairingStoreAdapter{repo: repo, now: now}
}

func (a *pairingStoreAdapter) ReplacePairings(ctx context.Context, eventID string, pairings []application.Pairing) error {
	createdAt := a.now().UTC()
	models := make([]persistence.Pairing, 0, len(pairings))
	for _, pairing := range pairings {
		models = append(models, persistence.Pairing{
			ID:        pairing.ID,
			EventID:   pairing.EventID,
			Round:     pairing.Round,
			Table:     pairing.Table,
			MaleID:    pairing.MaleID,
			FemaleID:  pairing.FemaleID,
			CreatedAt: createdAt,
		})
	}
	return a.repo.ReplacePairings(ctx, eventID, models)
}

func (a *pairingStoreAdapter) ListPairings(ctx context.Context, eventID string) ([]application.Pairing, error) {
	models, err := a.repo.ListPairings(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return toApplicationPairings(models), nil
}

func (a *pairingStoreAdapter) ListPairingsForParticipant(ctx context.Context, eventID, participantID string) ([]application.Pairing, error) {
	models, err := a.repo.ListPairingsForParticipant(ctx, eventID, participantID)
	if err != nil {
		return nil, err
	}
	return toApplicationPairings(models), nil
}

type timerStoreAdapter struct {
	repo persistence.TimerRepository
	now  func() time.Time
}

func newTimerStoreAdapter(repo persistence.TimerRepository, now func() time.Time) *timerStoreAdapter {
	if now == nil {
		now = time.Now
	}
	return &timerStoreAdapter{repo: repo, now: now}
}

func (a *timerStoreAdapter) GetTimerState(ctx context.Context, eventID string) (application.TimerState, error) {
	stored, err := a.repo.GetTimerState(ctx, eventID)
	if err != nil {
		return application.TimerState{}, err
	}
	return application.TimerState{
		EventID:         stored.EventID,
		CurrentRound:    stored.CurrentRound,
		RoundDurationS:  stored.RoundDurationS,
		BreakDurationS:  stored.BreakDurationS,
		RoundStartTime:  cloneTime(stored.RoundStartTime),
		IsPaused:        stored.IsPaused,
		PauseRemainingS: cloneInt(stored.PauseRemainingS),
		FinalRound:      stored.FinalRound,
	}, nil
}

func (a *timerStoreAdapter) UpsertTimerState(ctx context.Context, state application.TimerState) error {
	return a.repo.UpsertTimerState(ctx, persistence.TimerState{
		EventID:         state.EventID,
		CurrentRound:    state.CurrentRound,
		RoundDurationS:  state.RoundDurationS,
		BreakDurationS:  state.BreakDurationS,
		RoundStartTime:  cloneTime(state.RoundStartTime),
		IsPaused:        state.IsPaused,
		PauseRemainingS: cloneInt(state.PauseRemainingS),
		FinalRound:      state.FinalRound,
		UpdatedAt:       a.now().UTC(),
	})
}

func toApplicationParticipant(model persistence.Participant) application.Participant {
	return application.Participant{
		ID:          model.ID,
		EventID:     model.EventID,
		Name:        model.Name,
		Category:    model.Category,
		Age:         model.Age,
		Affiliation: model.Affiliation,
		CheckedIn:   model.CheckedIn,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toApplicationParticipants(models []persistence.Participant) []application.Participant {
	if len(models) == 0 {
		return nil
	}
	participants := make([]application.Participant, 0, len(models))
	for _, model := range models {
		participants = append(participants, toApplicationParticipant(model))
	}
	return participants
}

func toPersistenceParticipant(participant application.Participant) persistence.Participant {
	return persistence.Participant{
		ID:          participant.ID,
		EventID:     participant.EventID,
		Name:        participant.Name,
		Category:    participant.Category,
		Age:         participant.Age,
		Affiliation: participant.Affiliation,
		CheckedIn:   participant.CheckedIn,
		CreatedAt:   participant.CreatedAt,
		UpdatedAt:   participant.UpdatedAt,
	}
}

func toApplicationPairings(models []persistence.Pairing) []application.Pairing {
	if len(models) == 0 {
		return nil
	}
	pairings := make([]application.Pairing, 0, len(models))
	for _, model := range models {
		pairings = append(pairings, application.Pairing{
			ID:       model.ID,
			EventID:  model.EventID,
			Round:    model.Round,
			Table:    model.Table,
			MaleID:   model.MaleID,
			FemaleID: model.FemaleID,
		})
	}
	return pairings
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
