package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sma-timetable/scheduler-api/internal/models"
)

// TimetableRepository persists generated timetables and their slots.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs a TimetableRepository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// CreateDraftTx persists a new draft timetable header inside tx, returning
// the created row.
func (r *TimetableRepository) CreateDraftTx(ctx context.Context, tx *sqlx.Tx, termID string, seed int64, score float64) (*models.Timetable, error) {
	tt := &models.Timetable{
		ID:          uuid.NewString(),
		TermID:      termID,
		Status:      models.TimetableStatusDraft,
		Seed:        seed,
		Score:       score,
		GeneratedAt: time.Now().UTC(),
	}
	const query = `INSERT INTO timetables (id, term_id, status, seed, score, generated_at, committed_at)
		VALUES (:id, :term_id, :status, :seed, :score, :generated_at, :committed_at)`
	if _, err := tx.NamedExecContext(ctx, query, tt); err != nil {
		return nil, fmt.Errorf("create draft timetable: %w", err)
	}
	return tt, nil
}

// FindByID returns a timetable header by id.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	const query = `SELECT id, term_id, status, seed, score, generated_at, committed_at FROM timetables WHERE id = $1`
	var tt models.Timetable
	if err := r.db.GetContext(ctx, &tt, query, id); err != nil {
		return nil, err
	}
	return &tt, nil
}

// InsertSlotsTx bulk-inserts the slots belonging to a timetable inside tx.
func (r *TimetableRepository) InsertSlotsTx(ctx context.Context, tx *sqlx.Tx, timetableID string, slots []models.TimetableSlot) error {
	if len(slots) == 0 {
		return nil
	}
	const query = `INSERT INTO timetable_slots
		(id, timetable_id, class_id, day_of_week, period, subject_id, teacher_id, room_id, component, is_lab_continuation, is_elective, basket_id)
		VALUES (:id, :timetable_id, :class_id, :day_of_week, :period, :subject_id, :teacher_id, :room_id, :component, :is_lab_continuation, :is_elective, :basket_id)`
	for i := range slots {
		if slots[i].ID == "" {
			slots[i].ID = uuid.NewString()
		}
		slots[i].TimetableID = timetableID
	}
	if _, err := tx.NamedExecContext(ctx, query, slots); err != nil {
		return fmt.Errorf("insert timetable slots: %w", err)
	}
	return nil
}

// SlotsByTimetable returns every slot belonging to a timetable.
func (r *TimetableRepository) SlotsByTimetable(ctx context.Context, timetableID string) ([]models.TimetableSlot, error) {
	const query = `SELECT id, timetable_id, class_id, day_of_week, period, subject_id, teacher_id, room_id, component, is_lab_continuation, is_elective, basket_id
		FROM timetable_slots WHERE timetable_id = $1 ORDER BY class_id ASC, day_of_week ASC, period ASC`
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, timetableID); err != nil {
		return nil, fmt.Errorf("list timetable slots: %w", err)
	}
	return slots, nil
}

// CommitTx marks a draft timetable committed inside tx.
func (r *TimetableRepository) CommitTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	const query = `UPDATE timetables SET status = $2, committed_at = $3 WHERE id = $1 AND status = $4`
	res, err := tx.ExecContext(ctx, query, id, models.TimetableStatusCommitted, time.Now().UTC(), models.TimetableStatusDraft)
	if err != nil {
		return fmt.Errorf("commit timetable: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check committed timetable rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("timetable %s is not a pending draft", id)
	}
	return nil
}

// ListByTerm returns every timetable header for a term, most recent first.
func (r *TimetableRepository) ListByTerm(ctx context.Context, termID string) ([]models.Timetable, error) {
	const query = `SELECT id, term_id, status, seed, score, generated_at, committed_at
		FROM timetables WHERE term_id = $1 ORDER BY generated_at DESC`
	var rows []models.Timetable
	if err := r.db.SelectContext(ctx, &rows, query, termID); err != nil {
		return nil, fmt.Errorf("list timetables: %w", err)
	}
	return rows, nil
}

// DeleteByTermTx removes every timetable and its slots for a term inside
// tx. GenerationService.Commit calls it on every commit, before the newly
// committed run replaces the term's schedule.
func (r *TimetableRepository) DeleteByTermTx(ctx context.Context, tx *sqlx.Tx, termID string) error {
	const deleteSlots = `DELETE FROM timetable_slots WHERE timetable_id IN (SELECT id FROM timetables WHERE term_id = $1)`
	if _, err := tx.ExecContext(ctx, deleteSlots, termID); err != nil {
		return fmt.Errorf("clear existing timetable slots: %w", err)
	}
	const deleteHeaders = `DELETE FROM timetables WHERE term_id = $1`
	if _, err := tx.ExecContext(ctx, deleteHeaders, termID); err != nil {
		return fmt.Errorf("clear existing timetables: %w", err)
	}
	return nil
}

// Delete removes a single draft timetable header and its slots.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete timetable tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM timetable_slots WHERE timetable_id = $1`, id); err != nil {
		return fmt.Errorf("delete timetable slots: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM timetables WHERE id = $1 AND status = $2`, id, models.TimetableStatusDraft)
	if err != nil {
		return fmt.Errorf("delete timetable: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted timetable rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("timetable %s is not a pending draft", id)
	}
	return tx.Commit()
}
