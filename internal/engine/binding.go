package engine

import (
	"fmt"
	"sort"
)

// BindingKey identifies one (class, subject, component) teaching obligation.
type BindingKey struct {
	ClassID   ID
	SubjectID ID
	Component ComponentKind
}

// BindingTable maps each (class, subject, component) to the single teacher
// responsible for it across the whole run.
type BindingTable map[BindingKey]ID

// BindTeachers resolves a teacher for every distinct (class, subject,
// component) combination present in requirements, per §4.3:
//  1. honor a fixed assignment if one exists;
//  2. else pick the qualified candidate with least projected load, then
//     higher effectiveness score, then lowest id;
//  3. else leave the requirement unbound and report it.
func BindTeachers(s Snapshot, requirements []Requirement) (BindingTable, []string) {
	cat := buildCatalog(s)
	table := make(BindingTable)
	projectedLoad := make(map[ID]int)

	seen := make(map[BindingKey]bool)
	var keys []BindingKey
	for _, r := range requirements {
		key := BindingKey{ClassID: r.ClassID, SubjectID: r.SubjectID, Component: r.Component}
		if seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	// Deterministic order: class id, then subject id, then component.
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ClassID != keys[j].ClassID {
			return keys[i].ClassID < keys[j].ClassID
		}
		if keys[i].SubjectID != keys[j].SubjectID {
			return keys[i].SubjectID < keys[j].SubjectID
		}
		return keys[i].Component < keys[j].Component
	})

	var failures []string
	for _, key := range keys {
		if fixed, ok := s.FixedTeachers[FixedTeacherKey(key)]; ok {
			table[key] = fixed
			projectedLoad[fixed] += weeklyHoursFor(cat, key)
			continue
		}

		teacherID, found := pickQualifiedTeacher(cat, key.SubjectID, projectedLoad, weeklyHoursFor(cat, key))
		if !found {
			failures = append(failures, fmt.Sprintf("no qualified teacher for (class=%d, subject=%d, component=%s)", key.ClassID, key.SubjectID, key.Component))
			continue
		}
		table[key] = teacherID
		projectedLoad[teacherID] += weeklyHoursFor(cat, key)
	}
	return table, failures
}

// weeklyHoursFor returns the weekly hours a binding key contributes to its
// teacher's projected load. An elective subject carries no hours of its own
// — its basket does — so the load is read from the basket instead.
func weeklyHoursFor(cat *catalog, key BindingKey) int {
	subject, ok := cat.subjects[key.SubjectID]
	if !ok {
		return 0
	}
	if subject.IsElective {
		basket, ok := cat.baskets[subject.BasketID]
		if !ok {
			return 0
		}
		switch key.Component {
		case Theory:
			return basket.TheoryHours
		case Lab:
			return basket.LabHours
		case Tutorial:
			return basket.TutorialHours
		default:
			return 0
		}
	}
	switch key.Component {
	case Theory:
		return subject.TheoryHours
	case Lab:
		return subject.LabHours
	case Tutorial:
		return subject.TutorialHours
	default:
		return 0
	}
}

// pickQualifiedTeacher selects the least-loaded qualified candidate for
// subjectID, tiebreaking by effectiveness then id. A candidate whose
// MaxHoursPerWeek would be exceeded by taking on addedHours more load is
// excluded; a zero MaxHoursPerWeek means the teacher carries no declared
// cap and is never excluded on that basis.
func pickQualifiedTeacher(cat *catalog, subjectID ID, projectedLoad map[ID]int, addedHours int) (ID, bool) {
	var candidates []*Teacher
	for _, t := range cat.teachers {
		if !t.QualifiedSubject[subjectID] {
			continue
		}
		if t.MaxHoursPerWeek > 0 && projectedLoad[t.ID]+addedHours > t.MaxHoursPerWeek {
			continue
		}
		candidates = append(candidates, t)
	}
	if len(candidates) == 0 {
		return 0, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		li, lj := projectedLoad[candidates[i].ID], projectedLoad[candidates[j].ID]
		if li != lj {
			return li < lj
		}
		if candidates[i].EffectivenessScore != candidates[j].EffectivenessScore {
			return candidates[i].EffectivenessScore > candidates[j].EffectivenessScore
		}
		return candidates[i].ID < candidates[j].ID
	})
	return candidates[0].ID, true
}
