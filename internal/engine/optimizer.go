package engine

// OptimizerConfig tunes the genetic post-optimization pass described in §4.6.
type OptimizerConfig struct {
	Generations     int
	PopulationMoves int // mutation attempts tried per generation
	TournamentSize  int
}

// DefaultOptimizerConfig returns the tuning used when Options.RunOptimizer is
// set without caller-supplied values.
func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{Generations: 40, PopulationMoves: 12, TournamentSize: 3}
}

// Optimize runs a fixed number of generations of mutate-evaluate-accept over
// w's non-locked allocations, always preserving every hard invariant. It
// returns the number of mutations that improved fitness and were kept.
//
// Each generation tries PopulationMoves random mutations, each applied to
// the generation's starting state and rolled back after it is scored; the
// mutation with the lowest resulting penalty is kept only if that penalty is
// strictly lower than the current fitness, otherwise the generation leaves w
// unchanged. TournamentSize is not read. A mutation that cannot find a legal
// target slot is not applied.
func Optimize(s Snapshot, cat *catalog, w *WorldState, rnd *deterministicRand, cfg OptimizerConfig) int {
	if cfg.Generations <= 0 {
		return 0
	}
	kept := 0
	currentFitness := evaluateFitness(w)

	for gen := 0; gen < cfg.Generations; gen++ {
		var bestSnapshot WorldSnapshot
		bestFitness := currentFitness
		improved := false

		for move := 0; move < cfg.PopulationMoves; move++ {
			before := w.Snap()
			applied := applyRandomMutation(s, cat, w, rnd)
			if !applied {
				w.Restore(before)
				continue
			}
			candidate := evaluateFitness(w)
			if candidate < bestFitness {
				bestFitness = candidate
				bestSnapshot = w.Snap()
				improved = true
			}
			w.Restore(before)
		}

		if improved {
			w.Restore(bestSnapshot)
			currentFitness = bestFitness
			kept++
		}
	}
	return kept
}

// applyRandomMutation attempts one of two mutation shapes chosen at random:
// swapping two movable theory/tutorial allocations, or relocating a single
// movable lab block to a different legal start. It mutates w in place and
// reports whether a mutation was actually applied.
func applyRandomMutation(s Snapshot, cat *catalog, w *WorldState, rnd *deterministicRand) bool {
	movable := movableAllocations(w)
	if len(movable) == 0 {
		return false
	}
	if rnd.intn(2) == 0 {
		return mutateSwap(cat, w, movable, rnd)
	}
	return mutateLabMove(s, cat, w, rnd)
}

// movableAllocations returns every non-locked, non-elective, non-continuation
// allocation — the only ones the optimizer is permitted to touch.
func movableAllocations(w *WorldState) []Allocation {
	var out []Allocation
	for _, a := range w.Allocations() {
		if a.IsElective || a.IsLabContinuation {
			continue
		}
		if w.IsLocked(a.ClassID, a.Day, a.Period) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// mutateSwap exchanges the (day, period) of two movable theory/tutorial
// allocations belonging to the same class, provided the swap keeps every
// hard constraint satisfied for both, per spec.md's same-class restriction
// on this mutation kind.
func mutateSwap(cat *catalog, w *WorldState, movable []Allocation, rnd *deterministicRand) bool {
	var candidates []Allocation
	for _, a := range movable {
		if a.Component != Theory && a.Component != Tutorial {
			continue
		}
		candidates = append(candidates, a)
	}
	if len(candidates) < 2 {
		return false
	}
	i := rnd.intn(len(candidates))
	j := rnd.intn(len(candidates))
	if i == j {
		return false
	}
	a, b := candidates[i], candidates[j]
	if a.ClassID != b.ClassID {
		return false
	}
	if a.Day == b.Day && a.Period == b.Period {
		return false
	}

	if !swapIsLegal(cat, w, a, b) {
		return false
	}

	w.RemoveAllocation(a.ClassID, a.Day, a.Period)
	w.RemoveAllocation(b.ClassID, b.Day, b.Period)

	moved1 := a
	moved1.Day, moved1.Period = b.Day, b.Period
	moved2 := b
	moved2.Day, moved2.Period = a.Day, a.Period

	w.AddAllocation(moved1)
	w.AddAllocation(moved2)
	return true
}

// swapIsLegal checks that exchanging a and b's time slots (a and b always
// belong to the same class) leaves every teacher/room free at its new slot
// and does not create a same-day subject repeat. The class itself is never
// checked for free-ness: it only ever occupies these same two slots, so
// trading them can never conflict with the class's own schedule.
func swapIsLegal(cat *catalog, w *WorldState, a, b Allocation) bool {
	if a.Day != b.Day {
		if !teacherAvailable(cat, a.TeacherID, b.Day) || !teacherAvailable(cat, b.TeacherID, a.Day) {
			return false
		}
	}
	if w.HasSubjectOnDay(a.ClassID, b.Day, a.SubjectID) && b.Day != a.Day {
		return false
	}
	if w.HasSubjectOnDay(b.ClassID, a.Day, b.SubjectID) && a.Day != b.Day {
		return false
	}
	if a.TeacherID != b.TeacherID {
		if !teacherFreeIgnoring(w, b.TeacherID, a.Day, a.Period, b) {
			return false
		}
		if !teacherFreeIgnoring(w, a.TeacherID, b.Day, b.Period, a) {
			return false
		}
	}
	if a.RoomID != b.RoomID {
		if !roomFreeIgnoring(w, b.RoomID, a.Day, a.Period, b) {
			return false
		}
		if !roomFreeIgnoring(w, a.RoomID, b.Day, b.Period, a) {
			return false
		}
	}
	if w.IsInLabBlock(a.ClassID, b.Day, b.Period) || w.IsInLabBlock(b.ClassID, a.Day, a.Period) {
		return false
	}
	return true
}

func teacherFreeIgnoring(w *WorldState, teacherID ID, day Weekday, period Period, ignore Allocation) bool {
	if w.IsTeacherFree(teacherID, day, period) {
		return true
	}
	return ignore.TeacherID == teacherID && ignore.Day == day && ignore.Period == period
}

func roomFreeIgnoring(w *WorldState, roomID ID, day Weekday, period Period, ignore Allocation) bool {
	if w.IsRoomFree(roomID, day, period) {
		return true
	}
	return ignore.RoomID == roomID && ignore.Day == day && ignore.Period == period
}

// mutateLabMove relocates one movable lab block's start to a different
// legal lab-start slot, keeping its teacher and room, provided the new
// periods are free for class, teacher and room on both legs.
func mutateLabMove(s Snapshot, cat *catalog, w *WorldState, rnd *deterministicRand) bool {
	var candidates []Allocation
	for _, a := range movableAllocations(w) {
		if a.Component == Lab {
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		return false
	}
	a := candidates[rnd.intn(len(candidates))]
	block, ok := w.LabBlockAt(a.ClassID, a.Day, a.Period)
	if !ok {
		return false
	}

	for _, slot := range rnd.shuffleLabStarts() {
		if slot.Day == block.Day && slot.Period == block.Start {
			continue
		}
		if !teacherAvailable(cat, block.TeacherID, slot.Day) {
			continue
		}
		if w.IsLocked(block.ClassID, slot.Day, slot.Period) || w.IsLocked(block.ClassID, slot.Day, slot.Period+1) {
			continue
		}
		if !w.IsClassFree(block.ClassID, slot.Day, slot.Period) || !w.IsClassFree(block.ClassID, slot.Day, slot.Period+1) {
			continue
		}
		if !w.IsTeacherFree(block.TeacherID, slot.Day, slot.Period) || !w.IsTeacherFree(block.TeacherID, slot.Day, slot.Period+1) {
			continue
		}
		if !w.IsRoomFree(block.RoomID, slot.Day, slot.Period) || !w.IsRoomFree(block.RoomID, slot.Day, slot.Period+1) {
			continue
		}
		if slot.Day != block.Day && w.HasSubjectOnDay(block.ClassID, slot.Day, block.SubjectID) {
			continue
		}

		w.RemoveAllocation(block.ClassID, block.Day, block.Start)
		w.RemoveAllocation(block.ClassID, block.Day, block.End())
		w.AddAllocation(Allocation{ClassID: block.ClassID, Day: slot.Day, Period: slot.Period, SubjectID: block.SubjectID, TeacherID: block.TeacherID, RoomID: block.RoomID, Component: Lab})
		w.AddAllocation(Allocation{ClassID: block.ClassID, Day: slot.Day, Period: slot.Period + 1, SubjectID: block.SubjectID, TeacherID: block.TeacherID, RoomID: block.RoomID, Component: Lab, IsLabContinuation: true})
		w.RegisterLabBlock(LabBlock{ClassID: block.ClassID, Day: slot.Day, Start: slot.Period, SubjectID: block.SubjectID, TeacherID: block.TeacherID, RoomID: block.RoomID})
		return true
	}
	_ = s
	return false
}

// evaluateFitness computes a penalty score over soft constraints: per class
// day, 1.5 for every empty period between two of its allocations and 1.0 when
// the last period is used; per teacher day, 3.0 for every period beyond the
// second in a run of consecutive teaching periods; and, per teacher, twice
// the variance of its load over the days it teaches. Lower is better.
func evaluateFitness(w *WorldState) float64 {
	allocations := w.Allocations()

	type daySlots struct {
		periods map[Period]bool
	}
	classDay := make(map[ID]map[Weekday]*daySlots)
	teacherDay := make(map[ID]map[Weekday]*daySlots)
	teacherDayLoad := make(map[ID]map[Weekday]int)

	for _, a := range allocations {
		if classDay[a.ClassID] == nil {
			classDay[a.ClassID] = make(map[Weekday]*daySlots)
		}
		if classDay[a.ClassID][a.Day] == nil {
			classDay[a.ClassID][a.Day] = &daySlots{periods: make(map[Period]bool)}
		}
		classDay[a.ClassID][a.Day].periods[a.Period] = true

		if teacherDay[a.TeacherID] == nil {
			teacherDay[a.TeacherID] = make(map[Weekday]*daySlots)
			teacherDayLoad[a.TeacherID] = make(map[Weekday]int)
		}
		if teacherDay[a.TeacherID][a.Day] == nil {
			teacherDay[a.TeacherID][a.Day] = &daySlots{periods: make(map[Period]bool)}
		}
		teacherDay[a.TeacherID][a.Day].periods[a.Period] = true
		teacherDayLoad[a.TeacherID][a.Day]++
	}

	penalty := 0.0
	for _, days := range classDay {
		for _, slots := range days {
			var periods []int
			for p := range slots.periods {
				periods = append(periods, int(p))
			}
			sortInts(periods)

			for i := 1; i < len(periods); i++ {
				gap := periods[i] - periods[i-1] - 1
				if gap > 0 {
					penalty += float64(gap) * 1.5
				}
			}
			if slots.periods[Periods-1] {
				penalty += 1.0
			}
		}
	}

	for teacherID, days := range teacherDay {
		loads := teacherDayLoad[teacherID]
		var counts []int
		for day, slots := range days {
			counts = append(counts, loads[day])

			var periods []int
			for p := range slots.periods {
				periods = append(periods, int(p))
			}
			sortInts(periods)

			run := 1
			for i := 1; i < len(periods); i++ {
				if periods[i] == periods[i-1]+1 {
					run++
				} else {
					if run >= 3 {
						penalty += float64(run-2) * 3.0
					}
					run = 1
				}
			}
			if run >= 3 {
				penalty += float64(run-2) * 3.0
			}
		}
		penalty += variance(counts) * 2.0
	}
	return penalty
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

func variance(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0
	for _, x := range xs {
		sum += x
	}
	mean := float64(sum) / float64(len(xs))
	var sq float64
	for _, x := range xs {
		d := float64(x) - mean
		sq += d * d
	}
	return sq / float64(len(xs))
}
