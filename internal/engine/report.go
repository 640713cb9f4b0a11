package engine

import (
	"sort"
	"time"
)

// PhaseResult records what one scheduler phase accomplished.
type PhaseResult struct {
	PhaseName string
	AddedCount int
	Failures   []string
}

// CoverageGap is a required teaching unit the engine could not place.
type CoverageGap struct {
	ClassID   ID
	SubjectID ID
	Component ComponentKind
	Missing   int
}

// Report aggregates per-phase counts, failures, and coverage gaps into a
// single result, per §4.7 / §6.
type Report struct {
	Success          bool
	PhaseResults     []PhaseResult
	CoverageGaps     []CoverageGap
	UnscheduledBaskets []ID
	FixedSlotConflicts []string
	Elapsed          time.Duration
}

// reportBuilder accumulates phase results as the scheduler runs.
type reportBuilder struct {
	phases       []PhaseResult
	gaps         []CoverageGap
	unsatisfied  map[ID]bool
	fixedConflict []string
	start        time.Time
}

func newReportBuilder() *reportBuilder {
	return &reportBuilder{unsatisfied: make(map[ID]bool), start: time.Now()}
}

func (b *reportBuilder) recordPhase(name string, added int, failures []string) {
	b.phases = append(b.phases, PhaseResult{PhaseName: name, AddedCount: added, Failures: failures})
}

func (b *reportBuilder) recordGap(gap CoverageGap) {
	b.gaps = append(b.gaps, gap)
}

func (b *reportBuilder) recordUnscheduledBasket(basketID ID) {
	b.unsatisfied[basketID] = true
}

func (b *reportBuilder) recordFixedConflict(reason string) {
	b.fixedConflict = append(b.fixedConflict, reason)
}

func (b *reportBuilder) build(success bool) Report {
	var baskets []ID
	for id := range b.unsatisfied {
		baskets = append(baskets, id)
	}
	sort.Slice(baskets, func(i, j int) bool { return baskets[i] < baskets[j] })
	return Report{
		Success:            success,
		PhaseResults:       b.phases,
		CoverageGaps:       b.gaps,
		UnscheduledBaskets: baskets,
		FixedSlotConflicts: b.fixedConflict,
		Elapsed:            time.Since(b.start),
	}
}
