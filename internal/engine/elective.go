package engine

import (
	"fmt"
	"sort"
)

// PlanKind distinguishes the two plan shapes electives are scheduled as.
type PlanKind int

const (
	PlanTheory PlanKind = iota
	PlanLab
)

// ElectivePlan is an uncommitted intent to allocate a basket's theory unit
// or lab block. Committing it at a (day, start) is atomic across every
// participating class.
type ElectivePlan struct {
	BasketID        ID
	Kind            PlanKind
	ClassSubject    map[ID]ID // class -> subject it takes from the basket
	SubjectTeacher  map[ID]ID // subject -> bound teacher
	ParticipantsOrd []ID      // deterministic iteration order over participating classes
}

// ResolveElectiveClassSubjects computes, for every basket, the subject each
// participating class takes from it (§4.4's pin/fallback/lowest-id rule).
// Computed once, ahead of teacher binding, so the same mapping drives both
// the elective binding requirements fed into Phase 1 and the elective plans
// built in Phase 2.
func ResolveElectiveClassSubjects(s Snapshot) (map[ID]map[ID]ID, []string) {
	result := make(map[ID]map[ID]ID, len(s.Baskets))
	var failures []string
	for _, basket := range s.Baskets {
		if len(basket.ParticipantClass) == 0 {
			continue
		}
		classSubject, err := resolveClassSubject(s, basket)
		if err != nil {
			failures = append(failures, err.Error())
			continue
		}
		result[basket.ID] = classSubject
	}
	return result, failures
}

// BuildElectivePlans builds one atomic scheduling plan per basket theory
// hour and one per two-hour lab block, per §4.4, so a basket yields
// TheoryHours + LabHours/2 plan instances.
func BuildElectivePlans(s Snapshot, bindings BindingTable, classSubjectByBasket map[ID]map[ID]ID) ([]ElectivePlan, []string) {
	var plans []ElectivePlan
	var failures []string

	for _, basket := range s.Baskets {
		if len(basket.ParticipantClass) == 0 {
			continue
		}
		classSubject, ok := classSubjectByBasket[basket.ID]
		if !ok {
			failures = append(failures, fmt.Sprintf("basket %d has no resolvable class-subject mapping", basket.ID))
			continue
		}

		participants := sortedIDs(basket.ParticipantClass)

		if basket.TheoryHours > 0 {
			theoryTeacher := subjectTeacherFor(classSubject, bindings, Theory)
			for i := 0; i < basket.TheoryHours; i++ {
				plans = append(plans, ElectivePlan{
					BasketID:        basket.ID,
					Kind:            PlanTheory,
					ClassSubject:    classSubject,
					SubjectTeacher:  theoryTeacher,
					ParticipantsOrd: participants,
				})
			}
		}
		if basket.LabHours > 0 {
			if basket.LabHours%2 != 0 {
				failures = append(failures, fmt.Sprintf("basket %d has odd lab_hours=%d", basket.ID, basket.LabHours))
			} else {
				labTeacher := subjectTeacherFor(classSubject, bindings, Lab)
				for i := 0; i < basket.LabHours/2; i++ {
					plans = append(plans, ElectivePlan{
						BasketID:        basket.ID,
						Kind:            PlanLab,
						ClassSubject:    classSubject,
						SubjectTeacher:  labTeacher,
						ParticipantsOrd: participants,
					})
				}
			}
		}
	}
	return plans, failures
}

// subjectTeacherFor builds the subject -> teacher map for one basket
// component (Theory or Lab), reading the binding table at the matching
// BindingKey instead of guessing the component from the basket's hour mix —
// a basket with both theory and lab hours has two independently resolved
// §4.3 bindings and each plan kind must read its own.
func subjectTeacherFor(classSubject map[ID]ID, bindings BindingTable, component ComponentKind) map[ID]ID {
	subjectTeacher := make(map[ID]ID)
	for classID, subjectID := range classSubject {
		key := BindingKey{ClassID: classID, SubjectID: subjectID, Component: component}
		if teacherID, ok := bindings[key]; ok {
			subjectTeacher[subjectID] = teacherID
		}
	}
	return subjectTeacher
}

// resolveClassSubject builds the per-class chosen-subject map for a basket,
// preferring an explicit pin, then a class's existing subject list, then
// deterministically the lowest subject id.
func resolveClassSubject(s Snapshot, basket ElectiveBasket) (map[ID]ID, error) {
	cat := buildCatalog(s)
	result := make(map[ID]ID, len(basket.ParticipantClass))

	subjectOptions := sortedIDs(basket.SubjectIDs)
	if len(subjectOptions) == 0 {
		return nil, fmt.Errorf("basket %d has no candidate subjects", basket.ID)
	}

	for _, classID := range sortedIDs(basket.ParticipantClass) {
		if basket.ClassSubject != nil {
			if pinned, ok := basket.ClassSubject[classID]; ok {
				result[classID] = pinned
				continue
			}
		}

		class, ok := cat.classes[classID]
		var fallback ID
		found := false
		if ok {
			for _, subjectID := range subjectOptions {
				if class.SubjectIDs[subjectID] {
					fallback = subjectID
					found = true
					break
				}
			}
		}
		if !found {
			fallback = subjectOptions[0]
		}
		result[classID] = fallback
	}
	return result, nil
}

// CanAllocate reports whether the plan is allocatable at (day, start), per
// the five conditions in §4.4. branches on the tagged plan kind rather than
// dispatching through a shared base type.
func (p ElectivePlan) CanAllocate(cat *catalog, w *WorldState, day Weekday, start Period) bool {
	if w.IsReservedByOtherBasket(day, start, p.BasketID) {
		return false
	}
	if p.Kind == PlanLab && !IsValidLabStart(start) {
		return false
	}

	for _, classID := range p.ParticipantsOrd {
		if !w.IsClassFree(classID, day, start) {
			return false
		}
		if p.Kind == PlanLab && !w.IsClassFree(classID, day, start+1) {
			return false
		}
		subjectID, ok := p.ClassSubject[classID]
		if !ok {
			return false
		}
		if w.HasSubjectOnDay(classID, day, subjectID) {
			return false
		}
	}

	for _, teacherID := range p.teacherSet() {
		if !teacherAvailable(cat, teacherID, day) {
			return false
		}
		if !w.IsTeacherFree(teacherID, day, start) {
			return false
		}
		if p.Kind == PlanLab && !w.IsTeacherFree(teacherID, day, start+1) {
			return false
		}
	}
	return true
}

// teacherAvailable reports whether teacherID's available-days set permits
// teaching on day. An unknown teacher or an empty AvailableDays set is
// treated as available on no day.
func teacherAvailable(cat *catalog, teacherID ID, day Weekday) bool {
	t, ok := cat.teachers[teacherID]
	if !ok {
		return false
	}
	return t.AvailableDays[day]
}

func (p ElectivePlan) teacherSet() []ID {
	seen := make(map[ID]bool)
	var out []ID
	for _, teacherID := range p.SubjectTeacher {
		if !seen[teacherID] {
			seen[teacherID] = true
			out = append(out, teacherID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Commit allocates the plan at (day, start) against the given room pools,
// finding a capacity-sufficient room per participating class. If any class
// cannot be given a room the commit is abandoned and no index is mutated.
func (p ElectivePlan) Commit(s Snapshot, cat *catalog, w *WorldState, day Weekday, start Period) (bool, string) {
	type placement struct {
		classID   ID
		subjectID ID
		teacherID ID
		roomID    ID
	}
	var placements []placement

	usedRooms := make(map[ID]bool)
	for _, classID := range p.ParticipantsOrd {
		subjectID := p.ClassSubject[classID]
		teacherID := p.SubjectTeacher[subjectID]
		class, ok := cat.classes[classID]
		if !ok {
			return false, fmt.Sprintf("unknown class %d in basket %d", classID, p.BasketID)
		}
		roomKind := RoomLecture
		if p.Kind == PlanLab {
			roomKind = RoomLab
		}
		room, ok := findRoom(s, roomKind, class.StudentCount, usedRooms, day, start, p.Kind == PlanLab, w)
		if !ok {
			return false, fmt.Sprintf("no available room for class %d basket %d", classID, p.BasketID)
		}
		usedRooms[room.ID] = true
		placements = append(placements, placement{classID: classID, subjectID: subjectID, teacherID: teacherID, roomID: room.ID})
	}

	for _, pl := range placements {
		w.AddAllocation(Allocation{
			ClassID: pl.classID, Day: day, Period: start, SubjectID: pl.subjectID, TeacherID: pl.teacherID,
			RoomID: pl.roomID, Component: planComponent(p.Kind), IsElective: true, BasketID: p.BasketID,
		})
		if p.Kind == PlanLab {
			w.AddAllocation(Allocation{
				ClassID: pl.classID, Day: day, Period: start + 1, SubjectID: pl.subjectID, TeacherID: pl.teacherID,
				RoomID: pl.roomID, Component: Lab, IsLabContinuation: true, IsElective: true, BasketID: p.BasketID,
			})
			w.RegisterLabBlock(LabBlock{ClassID: pl.classID, Day: day, Start: start, SubjectID: pl.subjectID, TeacherID: pl.teacherID, RoomID: pl.roomID})
		}
	}
	w.ReserveElective(p.BasketID, day, start, p.ParticipantsOrd)
	if p.Kind == PlanLab {
		w.ReserveElective(p.BasketID, day, start+1, p.ParticipantsOrd)
	}
	return true, ""
}

func planComponent(kind PlanKind) ComponentKind {
	if kind == PlanLab {
		return Lab
	}
	return Theory
}

// findRoom returns the first available room of the requested kind with
// sufficient capacity, free at start (and start+1 for labs), not already
// used by another participant of the same commit.
func findRoom(s Snapshot, kind RoomKind, minCapacity int, used map[ID]bool, day Weekday, start Period, spansTwo bool, w *WorldState) (Room, bool) {
	for _, room := range s.Rooms {
		if room.Kind != kind || !room.Available || room.Capacity < minCapacity || used[room.ID] {
			continue
		}
		if !w.IsRoomFree(room.ID, day, start) {
			continue
		}
		if spansTwo && !w.IsRoomFree(room.ID, day, start+1) {
			continue
		}
		return room, true
	}
	return Room{}, false
}

func sortedIDs(set map[ID]bool) []ID {
	out := make([]ID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
