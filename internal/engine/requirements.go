package engine

import "fmt"

// Requirement is an atomic placement obligation derived from the snapshot:
// one period for Theory/Tutorial, one two-period block for Lab.
type Requirement struct {
	ClassID   ID
	SubjectID ID
	Component ComponentKind
	IsBlock   bool // true for Lab requirements (one block = two periods)
}

// BuildRequirements derives, per (class, subject, component) with positive
// weekly hours, the number of atomic placement units needed. Elective
// subjects are skipped here — electives are produced once per basket by the
// elective plan builder, not per class.
func BuildRequirements(s Snapshot) ([]Requirement, []string) {
	var requirements []Requirement
	var failures []string

	cat := buildCatalog(s)
	for _, class := range s.Classes {
		for _, subjectID := range sortedIDs(class.SubjectIDs) {
			subject, ok := cat.subjects[subjectID]
			if !ok || subject.IsElective {
				continue
			}

			if subject.TheoryHours > 0 {
				for i := 0; i < subject.TheoryHours; i++ {
					requirements = append(requirements, Requirement{ClassID: class.ID, SubjectID: subject.ID, Component: Theory})
				}
			}
			if subject.TutorialHours > 0 {
				for i := 0; i < subject.TutorialHours; i++ {
					requirements = append(requirements, Requirement{ClassID: class.ID, SubjectID: subject.ID, Component: Tutorial})
				}
			}
			if subject.LabHours > 0 {
				if subject.LabHours%2 != 0 {
					failures = append(failures, fmt.Sprintf("subject %d has odd lab_hours=%d for class %d", subject.ID, subject.LabHours, class.ID))
					continue
				}
				blocks := subject.LabHours / 2
				for i := 0; i < blocks; i++ {
					requirements = append(requirements, Requirement{ClassID: class.ID, SubjectID: subject.ID, Component: Lab, IsBlock: true})
				}
			}
		}
	}
	return requirements, failures
}

// BuildElectiveRequirements derives one teacher-binding requirement per
// participating class for each basket's theory and/or lab component, using
// the class-subject mapping ResolveElectiveClassSubjects already computed.
// These feed into Phase 1 binding alongside BuildRequirements's output so
// §4.3 resolves a teacher for elective subjects the same way it does for
// regular ones; electives are still placed once per basket, not per class,
// in Phase 2/3.
func BuildElectiveRequirements(s Snapshot, classSubjectByBasket map[ID]map[ID]ID) []Requirement {
	var out []Requirement
	for _, basket := range s.Baskets {
		classSubject, ok := classSubjectByBasket[basket.ID]
		if !ok {
			continue
		}
		for _, classID := range sortedIDs(basket.ParticipantClass) {
			subjectID, ok := classSubject[classID]
			if !ok {
				continue
			}
			if basket.TheoryHours > 0 {
				out = append(out, Requirement{ClassID: classID, SubjectID: subjectID, Component: Theory})
			}
			if basket.LabHours > 0 {
				out = append(out, Requirement{ClassID: classID, SubjectID: subjectID, Component: Lab, IsBlock: true})
			}
		}
	}
	return out
}

// ValidatePlaceability is Phase 0 validation: it rejects any non-elective
// subject with odd lab_hours, any class whose non-elective weekly hours in
// total exceed the week's placeable periods, and any basket whose aggregate
// weekly hours exceed them.
func ValidatePlaceability(s Snapshot) []string {
	var failures []string
	cat := buildCatalog(s)
	placeable := Days * Periods

	demand := make(map[ID]int) // class -> total weekly units (theory/tutorial periods + 2*lab blocks)
	for _, class := range s.Classes {
		for _, subjectID := range sortedIDs(class.SubjectIDs) {
			subject, ok := cat.subjects[subjectID]
			if !ok || subject.IsElective {
				continue
			}
			if subject.LabHours%2 != 0 {
				failures = append(failures, fmt.Sprintf("subject %d has odd lab_hours=%d", subject.ID, subject.LabHours))
			}
			demand[class.ID] += subject.TheoryHours + subject.TutorialHours + subject.LabHours
		}
	}
	for _, class := range s.Classes {
		if total := demand[class.ID]; total > placeable {
			failures = append(failures, fmt.Sprintf("class %d requires %d weekly periods but only %d are placeable", class.ID, total, placeable))
		}
	}

	for _, basket := range s.Baskets {
		if len(basket.ParticipantClass) == 0 {
			continue
		}
		aggregate := basket.TheoryHours + basket.TutorialHours + basket.LabHours
		if aggregate > placeable {
			failures = append(failures, fmt.Sprintf("basket %d demands %d weekly units, exceeding %d placeable periods", basket.ID, aggregate, placeable))
		}
	}
	return failures
}
