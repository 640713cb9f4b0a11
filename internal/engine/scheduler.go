package engine

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Result is the engine's complete output: the emitted allocation list and
// its accompanying report.
type Result struct {
	Allocations []Allocation
	Report      Report
}

// Run executes the full phased pipeline described in §4.5 against snapshot,
// using seed for every randomized ordering decision so that identical
// inputs and seed always produce a byte-identical allocation list. Run
// performs no I/O; logger may be nil, in which case phase logging is
// skipped.
func Run(s Snapshot, seed int64, opts Options, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rb := newReportBuilder()
	cat := buildCatalog(s)
	rnd := newDeterministicRand(seed)
	w := NewWorldState()
	w.ReserveFixedSlots(s.FixedSlots)

	// Phase 0 — Validation.
	if failures := ValidatePlaceability(s); len(failures) > 0 {
		rb.recordPhase("validation", 0, failures)
		logPhase(logger, "validation", 0, failures)
		report := rb.build(false)
		return &Result{Allocations: nil, Report: report}, nil
	}
	rb.recordPhase("validation", 0, nil)
	logPhase(logger, "validation", 0, nil)

	requirements, reqFailures := BuildRequirements(s)
	requirements = filterRestricted(requirements, opts)

	// Elective subjects never go through BuildRequirements (they're placed
	// once per basket, not per class), but their chosen class-subject still
	// needs a bound teacher — resolved here so Phase 1 covers them too.
	classSubjectByBasket, classSubjectFailures := ResolveElectiveClassSubjects(s)
	electiveRequirements := BuildElectiveRequirements(s, classSubjectByBasket)
	bindingRequirements := append(append([]Requirement{}, requirements...), electiveRequirements...)

	coverage := fixedCoverageForRequirements(s.FixedSlots)

	// Phase 1 — Teacher binding.
	bindings, bindFailures := BindTeachers(s, bindingRequirements)
	bindFailures = append(append(reqFailures, classSubjectFailures...), bindFailures...)
	rb.recordPhase("teacher_binding", len(bindings), bindFailures)
	logPhase(logger, "teacher_binding", len(bindings), bindFailures)

	// Phase 2 — Elective theory.
	plans, planFailures := BuildElectivePlans(s, bindings, classSubjectByBasket)
	theoryAdded, theoryFailures := runElectivePhase(s, cat, w, rnd, plans, PlanTheory, rb)
	theoryFailures = append(planFailures, theoryFailures...)
	rb.recordPhase("elective_theory", theoryAdded, theoryFailures)
	logPhase(logger, "elective_theory", theoryAdded, theoryFailures)

	// Phase 3 — Elective lab.
	labAdded, labFailures := runElectivePhase(s, cat, w, rnd, plans, PlanLab, rb)
	rb.recordPhase("elective_lab", labAdded, labFailures)
	logPhase(logger, "elective_lab", labAdded, labFailures)

	// Phase 4 — Fixed slot installation.
	fixedAdded, fixedFailures := installFixedSlots(s, cat, w, rb)
	rb.recordPhase("fixed_slots", fixedAdded, fixedFailures)
	logPhase(logger, "fixed_slots", fixedAdded, fixedFailures)

	// Phase 5 — Regular labs.
	labUnits := deductFixedCoverage(filterComponent(requirements, Lab), coverage)
	regularLabAdded, regularLabFailures := scheduleRegularLabs(s, cat, w, rnd, bindings, labUnits)
	rb.recordPhase("regular_labs", regularLabAdded, regularLabFailures)
	logPhase(logger, "regular_labs", regularLabAdded, regularLabFailures)

	// Phase 6 — Theory & tutorial fill.
	fillUnits := deductFixedCoverage(filterComponents(requirements, Theory, Tutorial), coverage)
	fillAdded, fillGaps := scheduleTheoryTutorial(s, cat, w, rnd, bindings, fillUnits)
	for _, gap := range fillGaps {
		rb.recordGap(gap)
	}
	rb.recordPhase("theory_tutorial", fillAdded, gapMessages(fillGaps))
	logPhase(logger, "theory_tutorial", fillAdded, gapMessages(fillGaps))

	// Optional genetic optimization pass, between Phase 6 and Phase 7.
	if opts.RunOptimizer {
		improved := Optimize(s, cat, w, rnd, DefaultOptimizerConfig())
		logger.Info("phase_complete", zap.String("phase", "optimizer"), zap.Int("mutations_applied", improved))
	}

	// Phase 7 — Final validation (soft).
	violations := checkInvariants(s, w)
	rb.recordPhase("final_validation", 0, violations)
	logPhase(logger, "final_validation", 0, violations)

	// Phase 8 — Emit.
	report := rb.build(true)
	return &Result{Allocations: w.Allocations(), Report: report}, nil
}

func logPhase(logger *zap.Logger, name string, added int, failures []string) {
	logger.Info("phase_complete",
		zap.String("phase", name),
		zap.Int("added_count", added),
		zap.Int("failure_count", len(failures)),
	)
}

func filterRestricted(requirements []Requirement, opts Options) []Requirement {
	if len(opts.RestrictToClasses) == 0 {
		return requirements
	}
	out := requirements[:0:0]
	for _, r := range requirements {
		if opts.includesClass(r.ClassID) {
			out = append(out, r)
		}
	}
	return out
}

func filterComponent(requirements []Requirement, component ComponentKind) []Requirement {
	return filterComponents(requirements, component)
}

func filterComponents(requirements []Requirement, components ...ComponentKind) []Requirement {
	want := make(map[ComponentKind]bool, len(components))
	for _, c := range components {
		want[c] = true
	}
	var out []Requirement
	for _, r := range requirements {
		if want[r.Component] {
			out = append(out, r)
		}
	}
	return out
}

// fixedCoverageForRequirements counts, per (class, subject, component)
// binding key, how many requirement units the input's FixedSlots already
// satisfy, so Phase 5/6 placement doesn't over-provision beyond a subject's
// declared weekly hours. A lab requirement is a two-period block, so fixed
// lab slots are counted in pairs.
func fixedCoverageForRequirements(fixedSlots []FixedSlot) map[BindingKey]int {
	raw := make(map[BindingKey]int, len(fixedSlots))
	for _, fs := range fixedSlots {
		raw[BindingKey{ClassID: fs.ClassID, SubjectID: fs.SubjectID, Component: fs.Component}]++
	}
	out := make(map[BindingKey]int, len(raw))
	for key, count := range raw {
		if key.Component == Lab {
			count /= 2
		}
		out[key] = count
	}
	return out
}

// deductFixedCoverage drops, from units, as many entries per binding key as
// coverage says are already satisfied by a fixed slot.
func deductFixedCoverage(units []Requirement, coverage map[BindingKey]int) []Requirement {
	remaining := make(map[BindingKey]int, len(coverage))
	for k, v := range coverage {
		remaining[k] = v
	}
	out := units[:0:0]
	for _, u := range units {
		key := BindingKey{ClassID: u.ClassID, SubjectID: u.SubjectID, Component: u.Component}
		if remaining[key] > 0 {
			remaining[key]--
			continue
		}
		out = append(out, u)
	}
	return out
}

func gapMessages(gaps []CoverageGap) []string {
	var out []string
	for _, g := range gaps {
		out = append(out, fmt.Sprintf("coverage gap: class=%d subject=%d component=%s missing=%d", g.ClassID, g.SubjectID, g.Component, g.Missing))
	}
	return out
}

// runElectivePhase attempts to place every plan of the given kind, one unit
// at a time, at a randomized (day, period) order; each unit goes to a
// distinct (day, period). Remaining unplaceable units become a soft failure
// against their basket.
func runElectivePhase(s Snapshot, cat *catalog, w *WorldState, rnd *deterministicRand, plans []ElectivePlan, kind PlanKind, rb *reportBuilder) (int, []string) {
	added := 0
	var failures []string
	used := make(map[ID]map[slotKey]bool) // basket -> slots already consumed this phase

	for _, plan := range plans {
		if plan.Kind != kind {
			continue
		}
		var order []slotKey
		if kind == PlanLab {
			order = rnd.shuffleLabStarts()
		} else {
			order = rnd.shuffleSlots()
		}

		placed := false
		for _, slot := range order {
			if used[plan.BasketID][slot] {
				continue
			}
			if !plan.CanAllocate(cat, w, slot.Day, slot.Period) {
				continue
			}
			ok, reason := plan.Commit(s, cat, w, slot.Day, slot.Period)
			if !ok {
				failures = append(failures, fmt.Sprintf("basket %d: %s", plan.BasketID, reason))
				continue
			}
			if used[plan.BasketID] == nil {
				used[plan.BasketID] = make(map[slotKey]bool)
			}
			used[plan.BasketID][slot] = true
			added++
			placed = true
			break
		}
		if !placed {
			rb.recordUnscheduledBasket(plan.BasketID)
			failures = append(failures, fmt.Sprintf("no common slot for basket %d: all participants busy or reserved", plan.BasketID))
		}
	}
	return added, failures
}

// installFixedSlots commits every input FixedSlot that is still free and
// non-conflicting. A fixed slot colliding with an already-committed
// elective is reported, never overridden.
func installFixedSlots(s Snapshot, cat *catalog, w *WorldState, rb *reportBuilder) (int, []string) {
	added := 0
	var failures []string
	for _, fs := range s.FixedSlots {
		if w.IsLocked(fs.ClassID, fs.Day, fs.Period) {
			msg := fmt.Sprintf("fixed slot conflicts with already-committed elective: class=%d day=%d period=%d", fs.ClassID, fs.Day, fs.Period)
			failures = append(failures, msg)
			rb.recordFixedConflict(msg)
			continue
		}
		if w.classCommitted(fs.ClassID, fs.Day, fs.Period) || w.teacherCommitted(fs.TeacherID, fs.Day, fs.Period) {
			msg := fmt.Sprintf("fixed slot conflicts with prior commitment: class=%d day=%d period=%d", fs.ClassID, fs.Day, fs.Period)
			failures = append(failures, msg)
			rb.recordFixedConflict(msg)
			continue
		}
		// Fixed slots are honored verbatim per §3 invariant 8 even if the
		// teacher's available-days set would otherwise exclude day: the
		// operator's explicit lock overrides the soft preference that
		// availability encodes for engine-chosen placements.
		class, ok := cat.classes[fs.ClassID]
		if !ok {
			failures = append(failures, fmt.Sprintf("fixed slot references unknown class %d", fs.ClassID))
			continue
		}
		roomKind := RoomLecture
		if fs.Component == Lab {
			roomKind = RoomLab
		}
		room, ok := findRoom(s, roomKind, class.StudentCount, map[ID]bool{}, fs.Day, fs.Period, false, w)
		if !ok {
			msg := fmt.Sprintf("no room available to honor fixed slot: class=%d day=%d period=%d", fs.ClassID, fs.Day, fs.Period)
			failures = append(failures, msg)
			rb.recordFixedConflict(msg)
			continue
		}
		w.AddAllocation(Allocation{
			ClassID: fs.ClassID, Day: fs.Day, Period: fs.Period, SubjectID: fs.SubjectID,
			TeacherID: fs.TeacherID, RoomID: room.ID, Component: fs.Component,
		})
		w.Lock(fs.ClassID, fs.Day, fs.Period)
		added++
	}
	return added, failures
}

// scheduleRegularLabs places each non-elective lab block requirement at a
// randomized (day, start) order restricted to legal lab starts.
func scheduleRegularLabs(s Snapshot, cat *catalog, w *WorldState, rnd *deterministicRand, bindings BindingTable, units []Requirement) (int, []string) {
	added := 0
	var failures []string
	order := rnd.permInts(len(units))

	for _, idx := range order {
		u := units[idx]
		key := BindingKey{ClassID: u.ClassID, SubjectID: u.SubjectID, Component: Lab}
		teacherID, ok := bindings[key]
		if !ok {
			failures = append(failures, fmt.Sprintf("no bound teacher for lab: class=%d subject=%d", u.ClassID, u.SubjectID))
			continue
		}
		class, ok := cat.classes[u.ClassID]
		if !ok {
			continue
		}

		placed := false
		for _, slot := range rnd.shuffleLabStarts() {
			if !teacherAvailable(cat, teacherID, slot.Day) {
				continue
			}
			if w.IsLocked(u.ClassID, slot.Day, slot.Period) || w.IsLocked(u.ClassID, slot.Day, slot.Period+1) {
				continue
			}
			if !w.IsClassFree(u.ClassID, slot.Day, slot.Period) || !w.IsClassFree(u.ClassID, slot.Day, slot.Period+1) {
				continue
			}
			if !w.IsTeacherFree(teacherID, slot.Day, slot.Period) || !w.IsTeacherFree(teacherID, slot.Day, slot.Period+1) {
				continue
			}
			if w.HasSubjectOnDay(u.ClassID, slot.Day, u.SubjectID) {
				continue
			}
			room, ok := findRoom(s, RoomLab, class.StudentCount, map[ID]bool{}, slot.Day, slot.Period, true, w)
			if !ok {
				continue
			}
			w.AddAllocation(Allocation{ClassID: u.ClassID, Day: slot.Day, Period: slot.Period, SubjectID: u.SubjectID, TeacherID: teacherID, RoomID: room.ID, Component: Lab})
			w.AddAllocation(Allocation{ClassID: u.ClassID, Day: slot.Day, Period: slot.Period + 1, SubjectID: u.SubjectID, TeacherID: teacherID, RoomID: room.ID, Component: Lab, IsLabContinuation: true})
			w.RegisterLabBlock(LabBlock{ClassID: u.ClassID, Day: slot.Day, Start: slot.Period, SubjectID: u.SubjectID, TeacherID: teacherID, RoomID: room.ID})
			added++
			placed = true
			break
		}
		if !placed {
			failures = append(failures, fmt.Sprintf("no lab slot available: class=%d subject=%d", u.ClassID, u.SubjectID))
		}
	}
	return added, failures
}

// scheduleTheoryTutorial places each non-elective theory/tutorial unit at a
// randomized (day, period) order, skipping periods already claimed by a lab
// block or locked by an elective/fixed slot. Units that cannot be placed
// become coverage gaps.
func scheduleTheoryTutorial(s Snapshot, cat *catalog, w *WorldState, rnd *deterministicRand, bindings BindingTable, units []Requirement) (int, []CoverageGap) {
	added := 0
	gapCount := make(map[BindingKey]int)
	order := rnd.permInts(len(units))

	for _, idx := range order {
		u := units[idx]
		key := BindingKey{ClassID: u.ClassID, SubjectID: u.SubjectID, Component: u.Component}
		teacherID, ok := bindings[key]
		if !ok {
			gapCount[key]++
			continue
		}
		class, ok := cat.classes[u.ClassID]
		if !ok {
			continue
		}

		placed := false
		for _, slot := range rnd.shuffleSlots() {
			if !teacherAvailable(cat, teacherID, slot.Day) {
				continue
			}
			if w.IsInLabBlock(u.ClassID, slot.Day, slot.Period) || w.IsLocked(u.ClassID, slot.Day, slot.Period) {
				continue
			}
			if !w.IsClassFree(u.ClassID, slot.Day, slot.Period) || !w.IsTeacherFree(teacherID, slot.Day, slot.Period) {
				continue
			}
			if w.HasSubjectOnDay(u.ClassID, slot.Day, u.SubjectID) {
				continue
			}
			room, ok := findRoom(s, RoomLecture, class.StudentCount, map[ID]bool{}, slot.Day, slot.Period, false, w)
			if !ok {
				continue
			}
			w.AddAllocation(Allocation{ClassID: u.ClassID, Day: slot.Day, Period: slot.Period, SubjectID: u.SubjectID, TeacherID: teacherID, RoomID: room.ID, Component: u.Component})
			added++
			placed = true
			break
		}
		if !placed {
			gapCount[key]++
		}
	}

	var gaps []CoverageGap
	for key, count := range gapCount {
		gaps = append(gaps, CoverageGap{ClassID: key.ClassID, SubjectID: key.SubjectID, Component: key.Component, Missing: count})
	}
	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].ClassID != gaps[j].ClassID {
			return gaps[i].ClassID < gaps[j].ClassID
		}
		if gaps[i].SubjectID != gaps[j].SubjectID {
			return gaps[i].SubjectID < gaps[j].SubjectID
		}
		return gaps[i].Component < gaps[j].Component
	})
	return added, gaps
}

// checkInvariants re-checks the committed allocations for class, teacher and
// room uniqueness per (day, period), for every lab block starting at a legal
// lab start, and for a registered lab block at every lab start. It does not
// re-check the one-subject-per-day rule, elective synchronisation or fixed
// slot placement. A violation indicates an engine defect; it is reported but
// the timetable is never discarded.
func checkInvariants(s Snapshot, w *WorldState) []string {
	var violations []string
	allocations := w.Allocations()

	classSlot := make(map[slotKey]map[ID]bool)
	teacherSlot := make(map[slotKey]map[ID]bool)
	roomSlot := make(map[slotKey]map[ID]bool)
	for _, a := range allocations {
		slot := slotKey{Day: a.Day, Period: a.Period}
		if classSlot[slot] == nil {
			classSlot[slot] = make(map[ID]bool)
		}
		if classSlot[slot][a.ClassID] {
			violations = append(violations, fmt.Sprintf("class uniqueness violated: class=%d day=%d period=%d", a.ClassID, a.Day, a.Period))
		}
		classSlot[slot][a.ClassID] = true

		if teacherSlot[slot] == nil {
			teacherSlot[slot] = make(map[ID]bool)
		}
		if teacherSlot[slot][a.TeacherID] {
			violations = append(violations, fmt.Sprintf("teacher uniqueness violated: teacher=%d day=%d period=%d", a.TeacherID, a.Day, a.Period))
		}
		teacherSlot[slot][a.TeacherID] = true

		if roomSlot[slot] == nil {
			roomSlot[slot] = make(map[ID]bool)
		}
		if roomSlot[slot][a.RoomID] {
			violations = append(violations, fmt.Sprintf("room uniqueness violated: room=%d day=%d period=%d", a.RoomID, a.Day, a.Period))
		}
		roomSlot[slot][a.RoomID] = true
	}

	for _, a := range allocations {
		if a.Component == Lab && !a.IsLabContinuation {
			if !IsValidLabStart(a.Period) {
				violations = append(violations, fmt.Sprintf("lab placed outside post-lunch set: class=%d day=%d period=%d", a.ClassID, a.Day, a.Period))
			}
			if _, ok := w.LabBlockAt(a.ClassID, a.Day, a.Period); !ok {
				violations = append(violations, fmt.Sprintf("lab atomicity violated: missing continuation for class=%d day=%d period=%d", a.ClassID, a.Day, a.Period))
			}
		}
	}
	_ = s
	return violations
}
