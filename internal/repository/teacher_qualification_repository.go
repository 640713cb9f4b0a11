package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sma-timetable/scheduler-api/internal/models"
)

// TeacherQualificationRepository persists which subjects a teacher may
// teach and which weekdays the teacher is willing to teach on.
type TeacherQualificationRepository struct {
	db *sqlx.DB
}

// NewTeacherQualificationRepository constructs a TeacherQualificationRepository.
func NewTeacherQualificationRepository(db *sqlx.DB) *TeacherQualificationRepository {
	return &TeacherQualificationRepository{db: db}
}

// ListAllQualifications returns every teacher-subject qualification row,
// used by the snapshot loader to build the full qualification index in one
// round trip instead of one query per teacher.
func (r *TeacherQualificationRepository) ListAllQualifications(ctx context.Context) ([]models.TeacherSubjectQualification, error) {
	const query = `SELECT id, teacher_id, subject_id, created_at FROM teacher_subject_qualifications ORDER BY teacher_id ASC, subject_id ASC`
	var rows []models.TeacherSubjectQualification
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list teacher subject qualifications: %w", err)
	}
	return rows, nil
}

// AddQualification grants a teacher qualification to teach a subject.
func (r *TeacherQualificationRepository) AddQualification(ctx context.Context, q *models.TeacherSubjectQualification) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teacher_subject_qualifications (id, teacher_id, subject_id, created_at)
		VALUES (:id, :teacher_id, :subject_id, :created_at) ON CONFLICT DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, q); err != nil {
		return fmt.Errorf("add teacher subject qualification: %w", err)
	}
	return nil
}

// ListAllAvailableDays returns every teacher-availableday row, for the same
// bulk-load reason as ListAllQualifications.
func (r *TeacherQualificationRepository) ListAllAvailableDays(ctx context.Context) ([]models.TeacherAvailableDay, error) {
	const query = `SELECT id, teacher_id, day_of_week, created_at FROM teacher_available_days ORDER BY teacher_id ASC, day_of_week ASC`
	var rows []models.TeacherAvailableDay
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list teacher available days: %w", err)
	}
	return rows, nil
}

// AddAvailableDay records a weekday a teacher is willing to teach on.
func (r *TeacherQualificationRepository) AddAvailableDay(ctx context.Context, d *models.TeacherAvailableDay) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teacher_available_days (id, teacher_id, day_of_week, created_at)
		VALUES (:id, :teacher_id, :day_of_week, :created_at) ON CONFLICT DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("add teacher available day: %w", err)
	}
	return nil
}
