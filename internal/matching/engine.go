package matching

import "fmt"

// Pairing is one scheduled meeting: a male anchor and a female guest at a
// numbered table during a numbered round. Rounds and tables are 1-based.
type Pairing struct {
	Round    int
	Table    int
	MaleID   string
	FemaleID string
}

// Schedule is the output of one scheduling run. Rounds and Tables report the
// achieved dimensions; Warnings records tables left empty because no legal
// partner remained.
type Schedule struct {
	Pairings []Pairing
	Rounds   int
	Tables   int
	Warnings []string
}

// BuildSchedule produces the round-robin pairing plan for a roster.
//
// Males anchor: each male keeps a fixed table number for every round he
// appears in. When the male side exceeds the effective table count, males are
// split into contiguous groups that take turns occupying the tables, with a
// participation-count replacement step levelling attendance once every group
// has played. The female list is rotated each round before candidates are
// scanned, and a pair that has already met is never seated again.
//
// The engine is deterministic: identical rosters, relations, and knobs yield
// identical schedules.
func BuildSchedule(roster Roster, relation Relation, requestedTables, requestedRounds int) Schedule {
	if roster.Empty() || requestedTables <= 0 || requestedRounds <= 0 {
		return Schedule{}
	}

	males := roster.Males
	females := roster.Females

	tables := requestedTables
	if len(males) < tables {
		tables = len(males)
	}
	if len(females) < tables {
		tables = len(females)
	}
	groups := (len(males) + tables - 1) / tables

	compatible := make(map[string]map[string]struct{}, len(males))
	for _, male := range males {
		set := make(map[string]struct{}, len(relation[male.ID]))
		for _, candidate := range relation[male.ID] {
			set[candidate.ID] = struct{}{}
		}
		compatible[male.ID] = set
	}

	counts := make(map[string]int, len(males))
	met := make(map[string]struct{})
	pairings := make([]Pairing, 0, requestedRounds*tables)
	var warnings []string

	for round := 1; round <= requestedRounds; round++ {
		active := activeGroup(len(males), tables, groups, round)
		if round > groups && groups > 1 {
			active = replaceForFairness(males, active, counts, tables)
		}

		rotated := rotateFemales(females, (round-1)%len(females))
		seated := make(map[string]struct{}, tables)

		for _, index := range active {
			male := males[index]
			table := index%tables + 1

			partnerID := ""
			for _, female := range rotated {
				if _, ok := compatible[male.ID][female.ID]; !ok {
					continue
				}
				if _, ok := seated[female.ID]; ok {
					continue
				}
				if _, ok := met[meetKey(male.ID, female.ID)]; ok {
					continue
				}
				partnerID = female.ID
				break
			}

			if partnerID == "" {
				warnings = append(warnings, fmt.Sprintf("round %d: table %d left empty, no remaining partner for %s", round, table, male.ID))
				continue
			}

			pairings = append(pairings, Pairing{
				Round:    round,
				Table:    table,
				MaleID:   male.ID,
				FemaleID: partnerID,
			})
			seated[partnerID] = struct{}{}
			met[meetKey(male.ID, partnerID)] = struct{}{}
			counts[male.ID]++
		}
	}

	return Schedule{
		Pairings: pairings,
		Rounds:   requestedRounds,
		Tables:   tables,
		Warnings: warnings,
	}
}

// activeGroup returns the male indices seated in the given round, in table
// order. Groups are contiguous slices of the male list sized by the table
// count; group (round-1) mod groups is active.
func activeGroup(maleCount, tables, groups, round int) []int {
	group := (round - 1) % groups
	start := group * tables
	end := start + tables
	if end > maleCount {
		end = maleCount
	}
	indices := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		indices = append(indices, i)
	}
	return indices
}

// replaceForFairness swaps over-seated anchors out of the active group for
// under-seated anchors from the benched groups. A replacement must share the
// outgoing anchor's table binding (same index modulo the table count) so that
// every anchor keeps a stable table across all rounds it plays.
func replaceForFairness(males []Participant, active []int, counts map[string]int, tables int) []int {
	maxCount := 0
	for _, male := range males {
		if counts[male.ID] > maxCount {
			maxCount = counts[male.ID]
		}
	}

	activeSet := make(map[int]struct{}, len(active))
	for _, index := range active {
		activeSet[index] = struct{}{}
	}

	replaced := make([]int, len(active))
	copy(replaced, active)

	for i, index := range replaced {
		if counts[males[index].ID] < maxCount-1 {
			continue
		}
		for j := range males {
			if _, ok := activeSet[j]; ok {
				continue
			}
			if j%tables != index%tables {
				continue
			}
			if counts[males[j].ID] >= maxCount-1 {
				continue
			}
			delete(activeSet, index)
			activeSet[j] = struct{}{}
			replaced[i] = j
			break
		}
	}

	return replaced
}

// rotateFemales returns the female list shifted left by the given offset,
// decorrelating candidate scan order between rounds.
func rotateFemales(females []Participant, offset int) []Participant {
	if offset == 0 {
		return females
	}
	rotated := make([]Participant, 0, len(females))
	rotated = append(rotated, females[offset:]...)
	rotated = append(rotated, females[:offset]...)
	return rotated
}

func meetKey(maleID, femaleID string) string {
	return maleID + "\x00" + femaleID
}
