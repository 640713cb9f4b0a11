package engine

import "go.uber.org/zap"

// Generate is the engine's single public entry point, per §6: it consumes a
// read-only Snapshot plus a determinism seed and run Options, and returns
// every allocation it could place together with a Report describing what
// each phase did. Generate never returns an error for an incomplete
// timetable — partial coverage is expressed through Report.CoverageGaps,
// Report.UnscheduledBaskets and the per-phase failures; Report.Success is
// false only when Phase 0 validation rejects the input. The error return is
// reserved for inputs the engine cannot even attempt to process.
func Generate(s Snapshot, seed int64, opts Options, logger *zap.Logger) (*Result, error) {
	return Run(s, seed, opts, logger)
}
