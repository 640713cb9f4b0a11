package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRun(t *testing.T, s Snapshot, seed int64, opts Options) *Result {
	t.Helper()
	result, err := Generate(s, seed, opts, nil)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestSingleClassSingleTheorySubject(t *testing.T) {
	s := Snapshot{
		Teachers: []Teacher{{ID: 1, MaxHoursPerWeek: 20, AvailableDays: allDays(), QualifiedSubject: map[ID]bool{10: true}, EffectivenessScore: 1}},
		Subjects: []Subject{{ID: 10, Code: "S1", TheoryHours: 3}},
		Classes:  []Class{{ID: 100, StudentCount: 60, SubjectIDs: map[ID]bool{10: true}}},
		Rooms:    []Room{{ID: 1000, Capacity: 60, Kind: RoomLecture, Available: true}},
		FixedTeachers: map[FixedTeacherKey]ID{
			{ClassID: 100, SubjectID: 10, Component: Theory}: 1,
		},
	}
	result := mustRun(t, s, 1, Options{})
	require.True(t, result.Report.Success)
	require.Len(t, result.Allocations, 3)

	days := map[Weekday]bool{}
	for _, a := range result.Allocations {
		assert.Equal(t, ID(1), a.TeacherID)
		assert.Equal(t, ID(1000), a.RoomID)
		assert.Equal(t, Theory, a.Component)
		days[a.Day] = true
	}
	assert.Len(t, days, 3, "each unit should land on a distinct day")
}

func TestLabAtomicity(t *testing.T) {
	s := Snapshot{
		Teachers: []Teacher{{ID: 2, MaxHoursPerWeek: 20, AvailableDays: allDays(), QualifiedSubject: map[ID]bool{20: true}, EffectivenessScore: 1}},
		Subjects: []Subject{{ID: 20, Code: "S2", LabHours: 2}},
		Classes:  []Class{{ID: 100, StudentCount: 40, SubjectIDs: map[ID]bool{20: true}}},
		Rooms:    []Room{{ID: 2000, Capacity: 40, Kind: RoomLab, Available: true}},
		FixedTeachers: map[FixedTeacherKey]ID{
			{ClassID: 100, SubjectID: 20, Component: Lab}: 2,
		},
	}
	result := mustRun(t, s, 2, Options{})
	require.True(t, result.Report.Success)
	require.Len(t, result.Allocations, 2)

	assert.Equal(t, result.Allocations[0].Day, result.Allocations[1].Day)
	assert.False(t, result.Allocations[0].IsLabContinuation)
	assert.True(t, result.Allocations[1].IsLabContinuation)
	assert.True(t, IsValidLabStart(result.Allocations[0].Period))
	assert.Equal(t, result.Allocations[0].Period+1, result.Allocations[1].Period)
}

func TestElectiveSynchronization(t *testing.T) {
	s := Snapshot{
		Teachers: []Teacher{
			{ID: 1, AvailableDays: allDays(), QualifiedSubject: map[ID]bool{11: true}, EffectivenessScore: 1},
			{ID: 2, AvailableDays: allDays(), QualifiedSubject: map[ID]bool{12: true}, EffectivenessScore: 1},
			{ID: 3, AvailableDays: allDays(), QualifiedSubject: map[ID]bool{13: true}, EffectivenessScore: 1},
		},
		Subjects: []Subject{
			{ID: 11, Code: "A", IsElective: true, BasketID: 900},
			{ID: 12, Code: "M", IsElective: true, BasketID: 900},
			{ID: 13, Code: "K", IsElective: true, BasketID: 900},
		},
		Classes: []Class{
			{ID: 100, StudentCount: 30, SubjectIDs: map[ID]bool{}},
			{ID: 101, StudentCount: 30, SubjectIDs: map[ID]bool{}},
			{ID: 102, StudentCount: 30, SubjectIDs: map[ID]bool{}},
		},
		Rooms: []Room{
			{ID: 1000, Capacity: 30, Kind: RoomLecture, Available: true},
			{ID: 1001, Capacity: 30, Kind: RoomLecture, Available: true},
			{ID: 1002, Capacity: 30, Kind: RoomLecture, Available: true},
		},
		Baskets: []ElectiveBasket{{
			ID:               900,
			TheoryHours:      3,
			ParticipantClass: map[ID]bool{100: true, 101: true, 102: true},
			SubjectIDs:       map[ID]bool{11: true, 12: true, 13: true},
			ClassSubject:     map[ID]ID{100: 11, 101: 12, 102: 13},
		}},
		FixedTeachers: map[FixedTeacherKey]ID{
			{ClassID: 100, SubjectID: 11, Component: Theory}: 1,
			{ClassID: 101, SubjectID: 12, Component: Theory}: 2,
			{ClassID: 102, SubjectID: 13, Component: Theory}: 3,
		},
	}
	result := mustRun(t, s, 3, Options{})
	require.True(t, result.Report.Success)
	require.Len(t, result.Allocations, 9)

	type pair struct {
		Day    Weekday
		Period Period
	}
	grouped := map[pair][]Allocation{}
	for _, a := range result.Allocations {
		assert.True(t, a.IsElective)
		assert.Equal(t, ID(900), a.BasketID)
		grouped[pair{a.Day, a.Period}] = append(grouped[pair{a.Day, a.Period}], a)
	}
	assert.Len(t, grouped, 3, "three theory units should occupy three distinct slots")
	for _, allocations := range grouped {
		assert.Len(t, allocations, 3)
		teachers := map[ID]bool{}
		classes := map[ID]bool{}
		for _, a := range allocations {
			teachers[a.TeacherID] = true
			classes[a.ClassID] = true
		}
		assert.Len(t, teachers, 3)
		assert.Len(t, classes, 3)
	}
}

func TestFixedSlotHonor(t *testing.T) {
	s := Snapshot{
		Teachers: []Teacher{{ID: 1, AvailableDays: allDays(), QualifiedSubject: map[ID]bool{10: true}, EffectivenessScore: 1}},
		Subjects: []Subject{{ID: 10, Code: "S1", TheoryHours: 3}},
		Classes:  []Class{{ID: 100, StudentCount: 60, SubjectIDs: map[ID]bool{10: true}}},
		Rooms:    []Room{{ID: 1000, Capacity: 60, Kind: RoomLecture, Available: true}},
		FixedSlots: []FixedSlot{
			{ClassID: 100, Day: 0, Period: 0, SubjectID: 10, TeacherID: 1, Component: Theory},
		},
		FixedTeachers: map[FixedTeacherKey]ID{
			{ClassID: 100, SubjectID: 10, Component: Theory}: 1,
		},
	}
	result := mustRun(t, s, 4, Options{})
	require.True(t, result.Report.Success)

	found := false
	countAtSlot := 0
	for _, a := range result.Allocations {
		if a.ClassID == 100 && a.Day == 0 && a.Period == 0 {
			countAtSlot++
			if a.SubjectID == 10 && a.TeacherID == 1 {
				found = true
			}
		}
	}
	assert.True(t, found, "the fixed slot must appear verbatim")
	assert.Equal(t, 1, countAtSlot, "no other allocation may occupy that slot")
}

func TestTeacherConflictPrevention(t *testing.T) {
	s := Snapshot{
		Teachers: []Teacher{{ID: 1, AvailableDays: allDays(), QualifiedSubject: map[ID]bool{10: true}, EffectivenessScore: 1}},
		Subjects: []Subject{{ID: 10, Code: "S1", TheoryHours: 3}},
		Classes: []Class{
			{ID: 100, StudentCount: 30, SubjectIDs: map[ID]bool{10: true}},
			{ID: 101, StudentCount: 30, SubjectIDs: map[ID]bool{10: true}},
		},
		Rooms: []Room{
			{ID: 1000, Capacity: 30, Kind: RoomLecture, Available: true},
			{ID: 1001, Capacity: 30, Kind: RoomLecture, Available: true},
		},
		FixedTeachers: map[FixedTeacherKey]ID{
			{ClassID: 100, SubjectID: 10, Component: Theory}: 1,
			{ClassID: 101, SubjectID: 10, Component: Theory}: 1,
		},
	}
	result := mustRun(t, s, 5, Options{})
	require.True(t, result.Report.Success)

	seen := map[slotKey]bool{}
	for _, a := range result.Allocations {
		if a.TeacherID != 1 {
			continue
		}
		slot := slotKey{Day: a.Day, Period: a.Period}
		require.False(t, seen[slot], "teacher 1 double-booked at %+v", slot)
		seen[slot] = true
	}
}

func TestPartialFailureIsReported(t *testing.T) {
	s := Snapshot{
		Teachers: []Teacher{{ID: 1, AvailableDays: allDays(), QualifiedSubject: map[ID]bool{11: true}, EffectivenessScore: 1}},
		Subjects: []Subject{{ID: 11, Code: "A", IsElective: true, BasketID: 900}},
		Classes:  []Class{{ID: 100, StudentCount: 30, SubjectIDs: map[ID]bool{}}},
		Rooms:    []Room{{ID: 1000, Capacity: 30, Kind: RoomLecture, Available: true}},
		Baskets: []ElectiveBasket{{
			ID:               900,
			TheoryHours:      1,
			ParticipantClass: map[ID]bool{100: true},
			SubjectIDs:       map[ID]bool{11: true},
			ClassSubject:     map[ID]ID{100: 11},
		}},
		FixedTeachers: map[FixedTeacherKey]ID{
			{ClassID: 100, SubjectID: 11, Component: Theory}: 1,
		},
	}
	// Block every period for the class so the basket can never find a slot.
	for day := Weekday(0); day < Days; day++ {
		for period := Period(0); period < Periods; period++ {
			s.FixedSlots = append(s.FixedSlots, FixedSlot{ClassID: 100, Day: day, Period: period, SubjectID: 11, TeacherID: 1, Component: Theory})
		}
	}

	result := mustRun(t, s, 6, Options{})
	assert.True(t, result.Report.Success, "partial coverage failure must not abort the run")
	assert.Contains(t, result.Report.UnscheduledBaskets, ID(900))
	for _, a := range result.Allocations {
		assert.False(t, a.IsElective, "no elective allocation should have been committed for the infeasible basket")
	}
}

func TestFixedSlotCoverageIsNotDuplicated(t *testing.T) {
	s := Snapshot{
		Teachers: []Teacher{{ID: 1, AvailableDays: allDays(), QualifiedSubject: map[ID]bool{10: true}, EffectivenessScore: 1}},
		Subjects: []Subject{{ID: 10, Code: "S1", TheoryHours: 3}},
		Classes:  []Class{{ID: 100, StudentCount: 60, SubjectIDs: map[ID]bool{10: true}}},
		Rooms:    []Room{{ID: 1000, Capacity: 60, Kind: RoomLecture, Available: true}},
		FixedSlots: []FixedSlot{
			{ClassID: 100, Day: 0, Period: 0, SubjectID: 10, TeacherID: 1, Component: Theory},
		},
		FixedTeachers: map[FixedTeacherKey]ID{
			{ClassID: 100, SubjectID: 10, Component: Theory}: 1,
		},
	}
	result := mustRun(t, s, 7, Options{})
	require.True(t, result.Report.Success)
	assert.Len(t, result.Allocations, 3, "one fixed theory slot plus two generated should total the subject's declared weekly hours, not four")
}

func allDays() map[Weekday]bool {
	return map[Weekday]bool{0: true, 1: true, 2: true, 3: true, 4: true}
}
