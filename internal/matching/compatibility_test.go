package matching

import "testing"

func male(id string, age int) Participant {
	return Participant{ID: id, Category: CategoryMale, Age: age}
}

func female(id string, age int) Participant {
	return Participant{ID: id, Category: CategoryFemale, Age: age}
}

func TestResolveCompatibility_AgeWindow(t *testing.T) {
	roster := Roster{
		EventID: "event-001",
		Males:   []Participant{male("m1", 30)},
		Females: []Participant{
			female("f1", 27),
			female("f2", 33),
			female("f3", 34),
		},
	}

	relation := ResolveCompatibility(roster, 2, DefaultWindowConfig())

	candidates := relation["m1"]
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates for m1, got %d", len(candidates))
	}
	if !relation.Allows("m1", "f1") || !relation.Allows("m1", "f2") {
		t.Fatalf("expected f1 and f2 to be allowed, got %v", candidates)
	}
	if relation.Allows("m1", "f3") {
		t.Fatalf("expected f3 (age gap 4) to be filtered by the initial window")
	}
}

func TestResolveCompatibility_IsSymmetricPerWindow(t *testing.T) {
	roster := Roster{
		EventID: "event-001",
		Males:   []Participant{male("m1", 30), male("m2", 40)},
		Females: []Participant{female("f1", 28), female("f2", 41)},
	}

	relation := ResolveCompatibility(roster, 1, DefaultWindowConfig())

	for _, pair := range [][2]string{{"m1", "f1"}, {"m2", "f2"}} {
		if !relation.Allows(pair[0], pair[1]) || !relation.Allows(pair[1], pair[0]) {
			t.Fatalf("expected %s and %s to allow each other", pair[0], pair[1])
		}
	}
	if relation.Allows("m1", "f2") || relation.Allows("f2", "m1") {
		t.Fatalf("expected m1 and f2 (age gap 11) to be mutually excluded")
	}
}

func TestResolveCompatibility_RelaxesWindowWhenInsufficient(t *testing.T) {
	// Six rounds against four females puts the threshold at two candidates.
	roster := Roster{
		EventID: "event-001",
		Males:   []Participant{male("m1", 30)},
		Females: []Participant{
			female("f1", 27),
			female("f2", 34),
			female("f3", 35),
			female("f4", 26),
		},
	}

	relation := ResolveCompatibility(roster, 6, DefaultWindowConfig())

	candidates := relation["m1"]
	if len(candidates) != 3 {
		t.Fatalf("expected 3 candidates after relaxation, got %d", len(candidates))
	}
	if !relation.Allows("m1", "f2") || !relation.Allows("m1", "f4") {
		t.Fatalf("expected the extended window to admit the age-gap-4 candidates")
	}
	if relation.Allows("m1", "f3") {
		t.Fatalf("expected f3 (age gap 5) to stay excluded")
	}
}

func TestResolveCompatibility_RelaxationIsPerParticipant(t *testing.T) {
	// m1 has plenty of close-age candidates; m2 sits at the edge and needs the
	// extended window. Only m2's list should widen.
	roster := Roster{
		EventID: "event-001",
		Males:   []Participant{male("m1", 30), male("m2", 40)},
		Females: []Participant{
			female("f1", 29),
			female("f2", 31),
			female("f3", 36),
			female("f4", 44),
		},
	}

	relation := ResolveCompatibility(roster, 4, DefaultWindowConfig())

	if relation.Allows("m1", "f4") {
		t.Fatalf("m1 should not have widened its window")
	}
	if !relation.Allows("m2", "f3") || !relation.Allows("m2", "f4") {
		t.Fatalf("expected m2's list to widen to the age-gap-4 candidates, got %v", relation["m2"])
	}
}

func TestResolveCompatibility_EmptyRoster(t *testing.T) {
	relation := ResolveCompatibility(Roster{}, 5, DefaultWindowConfig())
	if len(relation) != 0 {
		t.Fatalf("expected empty relation, got %v", relation)
	}
}

func TestSufficiencyThreshold(t *testing.T) {
	cases := []struct {
		name         string
		rounds       int
		oppositeSize int
		want         int
	}{
		{"half of rounds when opposite side is larger", 6, 10, 3},
		{"half of opposite side when rounds exceed it", 10, 4, 2},
		{"floors at one for a single round", 1, 10, 1},
		{"zero when no rounds", 0, 10, 0},
		{"zero when opposite side is empty", 5, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := sufficiencyThreshold(tc.rounds, tc.oppositeSize); got != tc.want {
				t.Fatalf("sufficiencyThreshold(%d, %d) = %d, want %d", tc.rounds, tc.oppositeSize, got, tc.want)
			}
		})
	}
}

func TestWindowConfigNormalized(t *testing.T) {
	zero := WindowConfig{}.normalized()
	if zero != DefaultWindowConfig() {
		t.Fatalf("expected defaults for zero config, got %+v", zero)
	}

	narrowed := WindowConfig{InitialWindow: 5, ExtendedWindow: 2}.normalized()
	if narrowed.ExtendedWindow != 5 {
		t.Fatalf("expected extended window to be lifted to the initial one, got %+v", narrowed)
	}
}
