package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sma-timetable/scheduler-api/internal/models"
)

// TermRepository persists academic terms.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository constructs a TermRepository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

// FindByID returns a term by id.
func (r *TermRepository) FindByID(ctx context.Context, id string) (*models.Term, error) {
	const query = `SELECT id, name, start_date, end_date, active, created_at, updated_at FROM terms WHERE id = $1`
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, id); err != nil {
		return nil, err
	}
	return &term, nil
}

// FindActive returns the single term currently marked active, if any.
func (r *TermRepository) FindActive(ctx context.Context) (*models.Term, error) {
	const query = `SELECT id, name, start_date, end_date, active, created_at, updated_at FROM terms WHERE active = TRUE ORDER BY start_date DESC LIMIT 1`
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query); err != nil {
		return nil, err
	}
	return &term, nil
}

// Create persists a new term.
func (r *TermRepository) Create(ctx context.Context, term *models.Term) error {
	if term.ID == "" {
		term.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if term.CreatedAt.IsZero() {
		term.CreatedAt = now
	}
	term.UpdatedAt = now

	const query = `INSERT INTO terms (id, name, start_date, end_date, active, created_at, updated_at)
		VALUES (:id, :name, :start_date, :end_date, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, term); err != nil {
		return fmt.Errorf("create term: %w", err)
	}
	return nil
}
