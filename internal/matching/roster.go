package matching

// Category identifies which side of the event roster a participant sits on.
// The male side anchors the tables; the female side rotates between rounds.
type Category string

const (
	// CategoryMale marks participants on the anchor side of the roster.
	CategoryMale Category = "male"
	// CategoryFemale marks participants on the rotating side of the roster.
	CategoryFemale Category = "female"
)

// Valid reports whether the category is one of the two supported sides.
func (c Category) Valid() bool {
	switch c {
	case CategoryMale, CategoryFemale:
		return true
	}
	return false
}

// Opposite returns the other side of the roster.
func (c Category) Opposite() Category {
	if c == CategoryMale {
		return CategoryFemale
	}
	return CategoryMale
}

// Participant is the minimal view of an attendee the matching engine needs.
type Participant struct {
	ID       string
	Category Category
	Age      int
}

// Roster is the immutable checked-in participant snapshot for one event,
// partitioned by category. Input ordering is significant: the engine derives
// table bindings and candidate ordering from it.
type Roster struct {
	EventID string
	Males   []Participant
	Females []Participant
}

// Side returns the participants of the given category.
func (r Roster) Side(c Category) []Participant {
	if c == CategoryMale {
		return r.Males
	}
	return r.Females
}

// Empty reports whether either side of the roster has no participants.
func (r Roster) Empty() bool {
	return len(r.Males) == 0 || len(r.Females) == 0
}
