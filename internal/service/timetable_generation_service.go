package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/sma-timetable/scheduler-api/internal/dto"
	"github.com/sma-timetable/scheduler-api/internal/engine"
	"github.com/sma-timetable/scheduler-api/internal/models"
	appErrors "github.com/sma-timetable/scheduler-api/pkg/errors"
)

// timetableRepository is the subset of TimetableRepository this service
// depends on.
type timetableRepository interface {
	CreateDraftTx(ctx context.Context, tx *sqlx.Tx, termID string, seed int64, score float64) (*models.Timetable, error)
	InsertSlotsTx(ctx context.Context, tx *sqlx.Tx, timetableID string, slots []models.TimetableSlot) error
	CommitTx(ctx context.Context, tx *sqlx.Tx, id string) error
	DeleteByTermTx(ctx context.Context, tx *sqlx.Tx, termID string) error
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	SlotsByTimetable(ctx context.Context, timetableID string) ([]models.TimetableSlot, error)
	ListByTerm(ctx context.Context, termID string) ([]models.Timetable, error)
}

// txBeginner is the part of *sqlx.DB the service needs to open transactions,
// narrowed for testability the same way the teacher's repositories are.
type txBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// termReader is the subset of TermRepository this service depends on, used
// to reject generation runs against a term that does not exist or has
// already closed.
type termReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

// generatedProposal is a pending, not-yet-committed engine run, keyed by a
// server-minted proposal ID and held in memory until Commit or its TTL
// expires — mirrors the teacher's schedule_generator_service proposalStore,
// generalized from one map[string]any blob to the engine's typed Result.
type generatedProposal struct {
	ProposalID  string
	TermID      string
	Seed        int64
	Allocations []engine.Allocation
	Report      engine.Report
	Ids         *idMap
	RequestedAt time.Time
}

// proposalStore holds generated-but-uncommitted proposals with a TTL,
// grounded on schedule_generator_service.go's proposalStore.
type proposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]generatedProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &proposalStore{ttl: ttl, items: make(map[string]generatedProposal)}
}

func (s *proposalStore) Save(p generatedProposal) {
	s.mu.Lock()
	s.items[p.ProposalID] = p
	s.mu.Unlock()
}

func (s *proposalStore) Get(id string) (generatedProposal, bool) {
	s.mu.RLock()
	p, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return generatedProposal{}, false
	}
	if time.Since(p.RequestedAt) > s.ttl {
		s.Delete(id)
		return generatedProposal{}, false
	}
	return p, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// GenerationService runs the timetable engine against a term's persisted
// inputs and manages the propose-then-commit workflow described in
// SPEC_FULL.md §12: Generate is pure and reversible, Commit is the only
// operation that writes.
type GenerationService struct {
	loader     *snapshotLoader
	timetables timetableRepository
	terms      termReader
	db         txBeginner
	validate   *validator.Validate
	logger     *zap.Logger
	store      *proposalStore

	defaultSeed          int64
	defaultRunOptimizer  bool
}

// NewGenerationService constructs a GenerationService. ttl bounds how long a
// generated-but-uncommitted proposal stays eligible for Commit. terms may be
// nil, in which case the term-existence check at the top of Generate is
// skipped — useful for callers that have already resolved the term upstream.
func NewGenerationService(
	loader *snapshotLoader,
	timetables timetableRepository,
	terms termReader,
	db txBeginner,
	validate *validator.Validate,
	logger *zap.Logger,
	ttl time.Duration,
	defaultSeed int64,
	defaultRunOptimizer bool,
) *GenerationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationService{
		loader:              loader,
		timetables:          timetables,
		terms:               terms,
		db:                  db,
		validate:            validate,
		logger:              logger,
		store:               newProposalStore(ttl),
		defaultSeed:         defaultSeed,
		defaultRunOptimizer: defaultRunOptimizer,
	}
}

// Generate loads a term's snapshot, runs the engine, and caches the result
// as a pending proposal. It performs no writes beyond the in-memory cache.
func (s *GenerationService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation request")
	}

	if s.terms != nil {
		term, err := s.terms.FindByID(ctx, req.TermID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
		}
		if !term.Active {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "term is not active")
		}
	}

	snap, ids, err := s.loader.Load(ctx, req.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term snapshot")
	}

	seed := req.Seed
	if seed == 0 {
		seed = s.defaultSeed
	}

	opts := engine.Options{
		ClearExisting: req.ClearExisting,
		RunOptimizer:  req.RunOptimizer || s.defaultRunOptimizer,
	}
	if len(req.ClassIDs) > 0 {
		restrict := make(map[engine.ID]bool, len(req.ClassIDs))
		for _, classID := range req.ClassIDs {
			restrict[ids.id(classID)] = true
		}
		opts.RestrictToClasses = restrict
	}

	result, err := engine.Generate(snap, seed, opts, s.logger)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "engine run failed")
	}

	proposalID := uuid.NewString()
	s.store.Save(generatedProposal{
		ProposalID:  proposalID,
		TermID:      req.TermID,
		Seed:        seed,
		Allocations: result.Allocations,
		Report:      result.Report,
		Ids:         ids,
		RequestedAt: time.Now().UTC(),
	})

	return s.toResponse(proposalID, seed, result, ids), nil
}

// Commit persists a previously generated proposal: it deletes every
// existing timetable for the term and writes the cached allocations as a
// newly committed timetable, atomically. The generation request's
// ClearExisting flag is not consulted; the delete happens on every commit.
func (s *GenerationService) Commit(ctx context.Context, req dto.CommitTimetableRequest) (*models.Timetable, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid commit request")
	}

	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	if !proposal.Report.Success {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "proposal failed input validation")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin commit transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.timetables.DeleteByTermTx(ctx, tx, proposal.TermID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear existing timetable")
	}

	score := 0.0
	if len(proposal.Report.PhaseResults) > 0 {
		score = float64(len(proposal.Allocations))
	}
	header, err := s.timetables.CreateDraftTx(ctx, tx, proposal.TermID, proposal.Seed, score)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable header")
	}

	slots := make([]models.TimetableSlot, 0, len(proposal.Allocations))
	for _, a := range proposal.Allocations {
		slots = append(slots, toTimetableSlot(proposal.Ids, a))
	}
	if err := s.timetables.InsertSlotsTx(ctx, tx, header.ID, slots); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert timetable slots")
	}
	if err := s.timetables.CommitTx(ctx, tx, header.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable")
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize commit transaction")
	}

	s.store.Delete(req.ProposalID)
	header.Status = models.TimetableStatusCommitted
	return header, nil
}

// List returns the timetable headers generated for a term, most recent
// first.
func (s *GenerationService) List(ctx context.Context, termID string) ([]models.Timetable, error) {
	timetables, err := s.timetables.ListByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	return timetables, nil
}

// Slots returns the committed slots belonging to a timetable.
func (s *GenerationService) Slots(ctx context.Context, timetableID string) ([]models.TimetableSlot, error) {
	if _, err := s.timetables.FindByID(ctx, timetableID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	slots, err := s.timetables.SlotsByTimetable(ctx, timetableID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable slots")
	}
	return slots, nil
}

func (s *GenerationService) toResponse(proposalID string, seed int64, result *engine.Result, ids *idMap) *dto.GenerateTimetableResponse {
	resp := &dto.GenerateTimetableResponse{
		ProposalID:         proposalID,
		Seed:               seed,
		Score:              float64(len(result.Allocations)),
		Success:            result.Report.Success,
		ElapsedMillis:      result.Report.Elapsed.Milliseconds(),
		Slots:              make([]dto.TimetableSlotProposal, 0, len(result.Allocations)),
		Phases:             make([]dto.PhaseOutcome, 0, len(result.Report.PhaseResults)),
		CoverageGaps:       make([]dto.CoverageGap, 0, len(result.Report.CoverageGaps)),
		UnscheduledBaskets: make([]string, 0, len(result.Report.UnscheduledBaskets)),
		FixedSlotConflicts: append([]string(nil), result.Report.FixedSlotConflicts...),
	}

	for _, a := range result.Allocations {
		resp.Slots = append(resp.Slots, toSlotProposal(ids, a))
	}
	for _, p := range result.Report.PhaseResults {
		resp.Phases = append(resp.Phases, dto.PhaseOutcome{
			Name:      p.PhaseName,
			Succeeded: len(p.Failures) == 0,
			Detail:    joinFailures(p.Failures),
		})
	}
	for _, g := range result.Report.CoverageGaps {
		classUUID, _ := ids.uuid(g.ClassID)
		subjectUUID, _ := ids.uuid(g.SubjectID)
		resp.CoverageGaps = append(resp.CoverageGaps, dto.CoverageGap{
			ClassID:   classUUID,
			SubjectID: subjectUUID,
			Component: g.Component.String(),
			Message:   "coverage gap",
		})
	}
	for _, basketID := range result.Report.UnscheduledBaskets {
		if basketUUID, ok := ids.uuid(basketID); ok {
			resp.UnscheduledBaskets = append(resp.UnscheduledBaskets, basketUUID)
		}
	}

	return resp
}

func toSlotProposal(ids *idMap, a engine.Allocation) dto.TimetableSlotProposal {
	classUUID, _ := ids.uuid(a.ClassID)
	subjectUUID, _ := ids.uuid(a.SubjectID)
	teacherUUID, _ := ids.uuid(a.TeacherID)
	roomUUID, _ := ids.uuid(a.RoomID)
	basketUUID := ""
	if a.BasketID != 0 {
		basketUUID, _ = ids.uuid(a.BasketID)
	}
	return dto.TimetableSlotProposal{
		ClassID:           classUUID,
		DayOfWeek:         int(a.Day),
		Period:            int(a.Period),
		SubjectID:         subjectUUID,
		TeacherID:         teacherUUID,
		RoomID:            roomUUID,
		Component:         a.Component.String(),
		IsLabContinuation: a.IsLabContinuation,
		IsElective:        a.IsElective,
		BasketID:          basketUUID,
	}
}

func toTimetableSlot(ids *idMap, a engine.Allocation) models.TimetableSlot {
	classUUID, _ := ids.uuid(a.ClassID)
	subjectUUID, _ := ids.uuid(a.SubjectID)
	teacherUUID, _ := ids.uuid(a.TeacherID)
	roomUUID, _ := ids.uuid(a.RoomID)
	slot := models.TimetableSlot{
		ID:                uuid.NewString(),
		ClassID:           classUUID,
		DayOfWeek:         int(a.Day),
		Period:            int(a.Period),
		SubjectID:         subjectUUID,
		TeacherID:         teacherUUID,
		RoomID:            roomUUID,
		Component:         a.Component.String(),
		IsLabContinuation: a.IsLabContinuation,
		IsElective:        a.IsElective,
	}
	if a.BasketID != 0 {
		if basketUUID, ok := ids.uuid(a.BasketID); ok {
			slot.BasketID = &basketUUID
		}
	}
	return slot
}

func joinFailures(failures []string) string {
	if len(failures) == 0 {
		return ""
	}
	out := failures[0]
	for _, f := range failures[1:] {
		out += "; " + f
	}
	return out
}
