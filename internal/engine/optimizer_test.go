package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMutateSwapRejectsCrossClass is a regression test for the swap
// mutation's same-class restriction (spec.md: "Swap the (day, period) of
// two non-elective, non-fixed, non-lab-continuation theory/tutorial
// allocations that belong to the same class"). The two movable allocations
// below belong to different classes and would have been freely swappable
// under the old cross-class-permitting implementation; mutateSwap must now
// never apply a swap between them.
func TestMutateSwapRejectsCrossClass(t *testing.T) {
	s := Snapshot{
		Teachers: []Teacher{
			{ID: 1, AvailableDays: allDays(), QualifiedSubject: map[ID]bool{10: true}, EffectivenessScore: 1},
			{ID: 2, AvailableDays: allDays(), QualifiedSubject: map[ID]bool{11: true}, EffectivenessScore: 1},
		},
		Subjects: []Subject{
			{ID: 10, Code: "S1", TheoryHours: 1},
			{ID: 11, Code: "S2", TheoryHours: 1},
		},
		Classes: []Class{
			{ID: 100, StudentCount: 30, SubjectIDs: map[ID]bool{10: true}},
			{ID: 101, StudentCount: 30, SubjectIDs: map[ID]bool{11: true}},
		},
	}
	cat := buildCatalog(s)
	w := NewWorldState()
	w.AddAllocation(Allocation{ClassID: 100, Day: 0, Period: 0, SubjectID: 10, TeacherID: 1, RoomID: 1000, Component: Theory})
	w.AddAllocation(Allocation{ClassID: 101, Day: 1, Period: 1, SubjectID: 11, TeacherID: 2, RoomID: 1001, Component: Theory})

	movable := movableAllocations(w)
	require.Len(t, movable, 2, "both allocations must be eligible mutation candidates")

	rnd := newDeterministicRand(1)
	for i := 0; i < 50; i++ {
		before := w.Snap()
		applied := mutateSwap(cat, w, movable, rnd)
		assert.False(t, applied, "a swap between allocations of different classes must never be applied")
		w.Restore(before)
	}
}

// TestOptimizerPreservesInvariantsAcrossGenerations runs the full phased
// pipeline with the optimizer enabled over a multi-class, multi-teacher
// snapshot with enough slack to give the swap and lab-move mutations real
// opportunities, then asserts that the final_validation phase reports no
// failures for the result.
func TestOptimizerPreservesInvariantsAcrossGenerations(t *testing.T) {
	s := Snapshot{
		Teachers: []Teacher{
			{ID: 1, MaxHoursPerWeek: 20, AvailableDays: allDays(), QualifiedSubject: map[ID]bool{10: true, 11: true}, EffectivenessScore: 1},
			{ID: 2, MaxHoursPerWeek: 20, AvailableDays: allDays(), QualifiedSubject: map[ID]bool{12: true}, EffectivenessScore: 1},
			{ID: 3, MaxHoursPerWeek: 20, AvailableDays: allDays(), QualifiedSubject: map[ID]bool{20: true}, EffectivenessScore: 1},
		},
		Subjects: []Subject{
			{ID: 10, Code: "S1", TheoryHours: 3},
			{ID: 11, Code: "S2", TheoryHours: 2},
			{ID: 12, Code: "S3", TheoryHours: 2},
			{ID: 20, Code: "L1", LabHours: 2},
		},
		Classes: []Class{
			{ID: 100, StudentCount: 30, SubjectIDs: map[ID]bool{10: true, 11: true, 20: true}},
			{ID: 101, StudentCount: 30, SubjectIDs: map[ID]bool{10: true, 12: true}},
		},
		Rooms: []Room{
			{ID: 1000, Capacity: 30, Kind: RoomLecture, Available: true},
			{ID: 1001, Capacity: 30, Kind: RoomLecture, Available: true},
			{ID: 2000, Capacity: 30, Kind: RoomLab, Available: true},
		},
		FixedTeachers: map[FixedTeacherKey]ID{
			{ClassID: 100, SubjectID: 10, Component: Theory}: 1,
			{ClassID: 100, SubjectID: 11, Component: Theory}: 1,
			{ClassID: 100, SubjectID: 20, Component: Lab}:    3,
			{ClassID: 101, SubjectID: 10, Component: Theory}: 1,
			{ClassID: 101, SubjectID: 12, Component: Theory}: 2,
		},
	}

	result := mustRun(t, s, 42, Options{RunOptimizer: true})
	require.True(t, result.Report.Success)
	assert.Empty(t, lastPhase(result.Report, "final_validation").Failures, "optimizer must never introduce a hard-invariant violation")
}

func lastPhase(r Report, name string) PhaseResult {
	for _, p := range r.PhaseResults {
		if p.PhaseName == name {
			return p
		}
	}
	return PhaseResult{}
}
