package matching

// WindowConfig controls the symmetric age-difference filter applied before
// pairing. The initial window is tried first; participants whose candidate
// list comes up short are re-evaluated with the extended window.
type WindowConfig struct {
	InitialWindow  int
	ExtendedWindow int
}

// DefaultWindowConfig returns the production age windows.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{InitialWindow: 3, ExtendedWindow: 4}
}

func (c WindowConfig) normalized() WindowConfig {
	if c.InitialWindow <= 0 && c.ExtendedWindow <= 0 {
		return DefaultWindowConfig()
	}
	if c.InitialWindow <= 0 {
		c.InitialWindow = c.ExtendedWindow
	}
	if c.ExtendedWindow < c.InitialWindow {
		c.ExtendedWindow = c.InitialWindow
	}
	return c
}

// Relation maps a participant id to the ordered opposite-category candidates
// it is allowed to meet. Candidates keep the input ordering of the opposite
// list.
type Relation map[string][]Participant

// Allows reports whether the relation admits the (id, candidateID) pair.
func (r Relation) Allows(id, candidateID string) bool {
	for _, candidate := range r[id] {
		if candidate.ID == candidateID {
			return true
		}
	}
	return false
}

// ResolveCompatibility computes, for every participant, the opposite-category
// candidates within the configured age window. When the initial window leaves
// a participant below the sufficiency threshold for the targeted round count,
// that participant's list is recomputed with the extended window. The
// relaxation is decided independently per participant, so the stored lists
// are not guaranteed to be symmetric when only one endpoint widens.
func ResolveCompatibility(roster Roster, rounds int, cfg WindowConfig) Relation {
	if roster.Empty() {
		return Relation{}
	}
	cfg = cfg.normalized()

	relation := make(Relation, len(roster.Males)+len(roster.Females))
	resolveSide(relation, roster.Males, roster.Females, rounds, cfg)
	resolveSide(relation, roster.Females, roster.Males, rounds, cfg)
	return relation
}

func resolveSide(relation Relation, side, opposite []Participant, rounds int, cfg WindowConfig) {
	threshold := sufficiencyThreshold(rounds, len(opposite))
	for _, participant := range side {
		candidates := withinWindow(participant, opposite, cfg.InitialWindow)
		if len(candidates) < threshold {
			candidates = withinWindow(participant, opposite, cfg.ExtendedWindow)
		}
		relation[participant.ID] = candidates
	}
}

// sufficiencyThreshold estimates the minimum candidate count a participant
// needs to have a realistic chance of being seated in most eligible rounds:
// half of min(rounds, opposite side size), but never below one when any
// rounds are possible.
func sufficiencyThreshold(rounds, oppositeSize int) int {
	n := rounds
	if oppositeSize < n {
		n = oppositeSize
	}
	if n <= 0 {
		return 0
	}
	threshold := n / 2
	if threshold < 1 {
		threshold = 1
	}
	return threshold
}

func withinWindow(participant Participant, opposite []Participant, window int) []Participant {
	candidates := make([]Participant, 0, len(opposite))
	for _, candidate := range opposite {
		diff := participant.Age - candidate.Age
		if diff < 0 {
			diff = -diff
		}
		if diff <= window {
			candidates = append(candidates, candidate)
		}
	}
	return candidates
}
