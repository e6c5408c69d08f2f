package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/speeddate-scheduler/internal/application"
	"github.com/example/speeddate-scheduler/internal/matching"
	"github.com/example/speeddate-scheduler/internal/persistence"
)

var (
	participantCounter uint64
	pairingCounter     uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// -------------------------- Participant fixtures --------------------------

// ParticipantFixture represents a deterministic attendee record that can be
// materialised for application or persistence tests.
type ParticipantFixture struct {
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

// ParticipantOption configures the generated participant fixture.
type ParticipantOption func(*ParticipantFixture)

// NewParticipantFixture returns a deterministic participant fixture with
// optional overrides. Generated participants alternate between the male and
// female category so default rosters stay balanced.
func NewParticipantFixture(opts ...ParticipantOption) ParticipantFixture {
	idx := atomic.AddUint64(&participantCounter, 1)
	category := string(matching.CategoryMale)
	if idx%2 == 0 {
		category = string(matching.CategoryFemale)
	}
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := ParticipantFixture{
		ID:        fmt.Sprintf("participant-%03d", idx),
		EventID:   "event-001",
		Name:      fmt.Sprintf("Participant %03d", idx),
		Category:  category,
		Age:       int(25 + idx%10),
		CheckedIn: true,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithParticipantID overrides the generated participant ID.
func WithParticipantID(id string) ParticipantOption {
	return func(f *ParticipantFixture) {
		f.ID = id
	}
}

// WithParticipantEvent sets the event the participant belongs to.
func WithParticipantEvent(eventID string) ParticipantOption {
	return func(f *ParticipantFixture) {
		f.EventID = eventID
	}
}

// WithParticipantName overrides the generated name.
func WithParticipantName(name string) ParticipantOption {
	return func(f *ParticipantFixture) {
		f.Name = name
	}
}

// WithParticipantCategory sets the matching side.
func WithParticipantCategory(category string) ParticipantOption {
	return func(f *ParticipantFixture) {
		f.Category = category
	}
}

// WithParticipantAge sets the participant age.
func WithParticipantAge(age int) ParticipantOption {
	return func(f *ParticipantFixture) {
		f.Age = age
	}
}

// WithParticipantAffiliation sets the affiliation field.
func WithParticipantAffiliation(affiliation string) ParticipantOption {
	return func(f *ParticipantFixture) {
		f.Affiliation = affiliation
	}
}

// WithParticipantCheckedIn sets the roster membership flag.
func WithParticipantCheckedIn(checkedIn bool) ParticipantOption {
	return func(f *ParticipantFixture) {
		f.CheckedIn = checkedIn
	}
}

// WithParticipantTimestamps sets both created and updated timestamps.
func WithParticipantTimestamps(created, updated time.Time) ParticipantOption {
	return func(f *ParticipantFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.Participant value.
func (f ParticipantFixture) Application() application.Participant {
	return application.Participant{
		ID:          f.ID,
		EventID:     f.EventID,
		Name:        f.Name,
		Category:    f.Category,
		Age:         f.Age,
		Affiliation: f.Affiliation,
		CheckedIn:   f.CheckedIn,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Participant value.
func (f ParticipantFixture) Persistence() persistence.Participant {
	return persistence.Participant{
		ID:          f.ID,
		EventID:     f.EventID,
		Name:        f.Name,
		Category:    f.Category,
		Age:         f.Age,
		Affiliation: f.Affiliation,
		CheckedIn:   f.CheckedIn,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Matching returns the fixture as a matching.Participant value.
func (f ParticipantFixture) Matching() matching.Participant {
	return matching.Participant{
		ID:       f.ID,
		Category: matching.Category(f.Category),
		Age:      f.Age,
	}
}

// Input returns the fixture as an application.ParticipantInput.
func (f ParticipantFixture) Input() application.ParticipantInput {
	return application.ParticipantInput{
		Name:        f.Name,
		Category:    f.Category,
		Age:         f.Age,
		Affiliation: f.Affiliation,
		CheckedIn:   f.CheckedIn,
	}
}

// ---------------------------- Pairing fixtures ----------------------------

// PairingFixture represents a deterministic schedule slot.
type PairingFixture struct {
	ID        string
	EventID   string
	Round     int
	Table     int
	MaleID    string
	FemaleID  string
	CreatedAt time.Time
}

// PairingOption configures the generated pairing fixture.
type PairingOption func(*PairingFixture)

// NewPairingFixture returns a deterministic pairing fixture with optional overrides.
func NewPairingFixture(opts ...PairingOption) PairingFixture {
	idx := atomic.AddUint64(&pairingCounter, 1)
	fixture := PairingFixture{
		ID:        fmt.Sprintf("pairing-%03d", idx),
		EventID:   "event-001",
		Round:     1,
		Table:     int(idx),
		MaleID:    fmt.Sprintf("male-%03d", idx),
		FemaleID:  fmt.Sprintf("female-%03d", idx),
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithPairingID overrides the pairing ID.
func WithPairingID(id string) PairingOption {
	return func(f *PairingFixture) {
		f.ID = id
	}
}

// WithPairingEvent sets the event the pairing belongs to.
func WithPairingEvent(eventID string) PairingOption {
	return func(f *PairingFixture) {
		f.EventID = eventID
	}
}

// WithPairingSlot sets the round and table of the pairing.
func WithPairingSlot(round, table int) PairingOption {
	return func(f *PairingFixture) {
		f.Round = round
		f.Table = table
	}
}

// WithPairingPartners sets both sides of the pairing.
func WithPairingPartners(maleID, femaleID string) PairingOption {
	return func(f *PairingFixture) {
		f.MaleID = maleID
		f.FemaleID = femaleID
	}
}

// Application returns the fixture as an application.Pairing value.
func (f PairingFixture) Application() application.Pairing {
	return application.Pairing{
		ID:       f.ID,
		EventID:  f.EventID,
		Round:    f.Round,
		Table:    f.Table,
		MaleID:   f.MaleID,
		FemaleID: f.FemaleID,
	}
}

// Persistence returns the fixture as a persistence.Pairing value.
func (f PairingFixture) Persistence() persistence.Pairing {
	return persistence.Pairing{
		ID:        f.ID,
		EventID:   f.EventID,
		Round:     f.Round,
		Table:     f.Table,
		MaleID:    f.MaleID,
		FemaleID:  f.FemaleID,
		CreatedAt: f.CreatedAt,
	}
}

// --------------------------- Timer state fixtures -------------------------

// TimerStateFixture represents a deterministic timer row.
type TimerStateFixture struct {
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

// TimerStateOption configures the generated timer state fixture.
type TimerStateOption func(*TimerStateFixture)

// NewTimerStateFixture returns a deterministic timer fixture with optional overrides.
func NewTimerStateFixture(opts ...TimerStateOption) TimerStateFixture {
	fixture := TimerStateFixture{
		EventID:        "event-001",
		CurrentRound:   1,
		RoundDurationS: 180,
		BreakDurationS: 60,
		FinalRound:     5,
		UpdatedAt:      referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithTimerEvent sets the event the timer belongs to.
func WithTimerEvent(eventID string) TimerStateOption {
	return func(f *TimerStateFixture) {
		f.EventID = eventID
	}
}

// WithTimerRound sets the current and final round numbers.
func WithTimerRound(current, final int) TimerStateOption {
	return func(f *TimerStateFixture) {
		f.CurrentRound = current
		f.FinalRound = final
	}
}

// WithTimerDurations sets the round and break durations.
func WithTimerDurations(roundS, breakS int) TimerStateOption {
	return func(f *TimerStateFixture) {
		f.RoundDurationS = roundS
		f.BreakDurationS = breakS
	}
}

// WithTimerStartedAt marks the round as started at the given instant.
func WithTimerStartedAt(t time.Time) TimerStateOption {
	return func(f *TimerStateFixture) {
		started := t
		f.RoundStartTime = &started
	}
}

// WithTimerPaused freezes the fixture with the given remaining seconds.
func WithTimerPaused(remaining int) TimerStateOption {
	return func(f *TimerStateFixture) {
		f.IsPaused = true
		f.PauseRemainingS = &remaining
		f.RoundStartTime = nil
	}
}

// Application returns the fixture as an application.TimerState value.
func (f TimerStateFixture) Application() application.TimerState {
	return application.TimerState{
		EventID:         f.EventID,
		CurrentRound:    f.CurrentRound,
		RoundDurationS:  f.RoundDurationS,
		BreakDurationS:  f.BreakDurationS,
		RoundStartTime:  copyTimePtr(f.RoundStartTime),
		IsPaused:        f.IsPaused,
		PauseRemainingS: copyIntPtr(f.PauseRemainingS),
		FinalRound:      f.FinalRound,
	}
}

// Persistence returns the fixture as a persistence.TimerState value.
func (f TimerStateFixture) Persistence() persistence.TimerState {
	return persistence.TimerState{
		EventID:         f.EventID,
		CurrentRound:    f.CurrentRound,
		RoundDurationS:  f.RoundDurationS,
		BreakDurationS:  f.BreakDurationS,
		RoundStartTime:  copyTimePtr(f.RoundStartTime),
		IsPaused:        f.IsPaused,
		PauseRemainingS: copyIntPtr(f.PauseRemainingS),
		FinalRound:      f.FinalRound,
		UpdatedAt:       f.UpdatedAt,
	}
}

func copyTimePtr(src *time.Time) *time.Time {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}

func copyIntPtr(src *int) *int {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}
