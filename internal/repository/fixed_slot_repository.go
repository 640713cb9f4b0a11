package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sma-timetable/scheduler-api/internal/models"
)

// FixedSlotRepository persists operator-locked slot placements.
type FixedSlotRepository struct {
	db *sqlx.DB
}

// NewFixedSlotRepository constructs a FixedSlotRepository.
func NewFixedSlotRepository(db *sqlx.DB) *FixedSlotRepository {
	return &FixedSlotRepository{db: db}
}

// ListByTerm returns every fixed slot locked for a term.
func (r *FixedSlotRepository) ListByTerm(ctx context.Context, termID string) ([]models.FixedSlot, error) {
	const query = `SELECT id, term_id, class_id, day_of_week, period, subject_id, teacher_id, component, created_at
		FROM fixed_slots WHERE term_id = $1 ORDER BY class_id ASC, day_of_week ASC, period ASC`
	var slots []models.FixedSlot
	if err := r.db.SelectContext(ctx, &slots, query, termID); err != nil {
		return nil, fmt.Errorf("list fixed slots: %w", err)
	}
	return slots, nil
}

// Create persists a new fixed slot.
func (r *FixedSlotRepository) Create(ctx context.Context, slot *models.FixedSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO fixed_slots (id, term_id, class_id, day_of_week, period, subject_id, teacher_id, component, created_at)
		VALUES (:id, :term_id, :class_id, :day_of_week, :period, :subject_id, :teacher_id, :component, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create fixed slot: %w", err)
	}
	return nil
}

// Delete removes a fixed slot.
func (r *FixedSlotRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM fixed_slots WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete fixed slot: %w", err)
	}
	return nil
}

// FixedTeacherAssignmentRepository persists pinned teacher bindings.
type FixedTeacherAssignmentRepository struct {
	db *sqlx.DB
}

// NewFixedTeacherAssignmentRepository constructs a FixedTeacherAssignmentRepository.
func NewFixedTeacherAssignmentRepository(db *sqlx.DB) *FixedTeacherAssignmentRepository {
	return &FixedTeacherAssignmentRepository{db: db}
}

// ListByTerm returns every pinned teacher binding for a term.
func (r *FixedTeacherAssignmentRepository) ListByTerm(ctx context.Context, termID string) ([]models.FixedTeacherAssignment, error) {
	const query = `SELECT id, term_id, class_id, subject_id, component, teacher_id, created_at
		FROM fixed_teacher_assignments WHERE term_id = $1 ORDER BY class_id ASC, subject_id ASC, component ASC`
	var assignments []models.FixedTeacherAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, termID); err != nil {
		return nil, fmt.Errorf("list fixed teacher assignments: %w", err)
	}
	return assignments, nil
}

// Create persists a new pinned teacher binding.
func (r *FixedTeacherAssignmentRepository) Create(ctx context.Context, assignment *models.FixedTeacherAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO fixed_teacher_assignments (id, term_id, class_id, subject_id, component, teacher_id, created_at)
		VALUES (:id, :term_id, :class_id, :subject_id, :component, :teacher_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create fixed teacher assignment: %w", err)
	}
	return nil
}
