package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sma-timetable/scheduler-api/internal/models"
)

// ElectiveBasketRepository persists elective baskets and their membership.
type ElectiveBasketRepository struct {
	db *sqlx.DB
}

// NewElectiveBasketRepository constructs an ElectiveBasketRepository.
func NewElectiveBasketRepository(db *sqlx.DB) *ElectiveBasketRepository {
	return &ElectiveBasketRepository{db: db}
}

// ListBySemester returns every basket offered in a semester.
func (r *ElectiveBasketRepository) ListBySemester(ctx context.Context, semesterNumber int) ([]models.ElectiveBasket, error) {
	const query = `SELECT id, name, semester_number, theory_hours, lab_hours, tutorial_hours, created_at, updated_at
		FROM elective_baskets WHERE semester_number = $1 ORDER BY id ASC`
	var baskets []models.ElectiveBasket
	if err := r.db.SelectContext(ctx, &baskets, query, semesterNumber); err != nil {
		return nil, fmt.Errorf("list elective baskets: %w", err)
	}
	return baskets, nil
}

// ListAll returns every elective basket, used by the snapshot loader to
// build the full basket roster for a generation run.
func (r *ElectiveBasketRepository) ListAll(ctx context.Context) ([]models.ElectiveBasket, error) {
	const query = `SELECT id, name, semester_number, theory_hours, lab_hours, tutorial_hours, created_at, updated_at
		FROM elective_baskets ORDER BY id ASC`
	var baskets []models.ElectiveBasket
	if err := r.db.SelectContext(ctx, &baskets, query); err != nil {
		return nil, fmt.Errorf("list all elective baskets: %w", err)
	}
	return baskets, nil
}

// Create persists a new basket.
func (r *ElectiveBasketRepository) Create(ctx context.Context, basket *models.ElectiveBasket) error {
	if basket.ID == "" {
		basket.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if basket.CreatedAt.IsZero() {
		basket.CreatedAt = now
	}
	basket.UpdatedAt = now

	const query = `INSERT INTO elective_baskets (id, name, semester_number, theory_hours, lab_hours, tutorial_hours, created_at, updated_at)
		VALUES (:id, :name, :semester_number, :theory_hours, :lab_hours, :tutorial_hours, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, basket); err != nil {
		return fmt.Errorf("create elective basket: %w", err)
	}
	return nil
}

// Participants returns the classes participating in a basket.
func (r *ElectiveBasketRepository) Participants(ctx context.Context, basketID string) ([]models.BasketParticipant, error) {
	const query = `SELECT id, basket_id, class_id, created_at FROM basket_participants WHERE basket_id = $1 ORDER BY class_id ASC`
	var participants []models.BasketParticipant
	if err := r.db.SelectContext(ctx, &participants, query, basketID); err != nil {
		return nil, fmt.Errorf("list basket participants: %w", err)
	}
	return participants, nil
}

// AddParticipant registers a class as a basket participant.
func (r *ElectiveBasketRepository) AddParticipant(ctx context.Context, participant *models.BasketParticipant) error {
	if participant.ID == "" {
		participant.ID = uuid.NewString()
	}
	if participant.CreatedAt.IsZero() {
		participant.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO basket_participants (id, basket_id, class_id, created_at) VALUES (:id, :basket_id, :class_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, participant); err != nil {
		return fmt.Errorf("add basket participant: %w", err)
	}
	return nil
}

// Subjects returns the candidate subjects offered within a basket.
func (r *ElectiveBasketRepository) Subjects(ctx context.Context, basketID string) ([]models.BasketSubject, error) {
	const query = `SELECT id, basket_id, subject_id, created_at FROM basket_subjects WHERE basket_id = $1 ORDER BY subject_id ASC`
	var subjects []models.BasketSubject
	if err := r.db.SelectContext(ctx, &subjects, query, basketID); err != nil {
		return nil, fmt.Errorf("list basket subjects: %w", err)
	}
	return subjects, nil
}

// AddSubject registers a subject as a candidate within a basket.
func (r *ElectiveBasketRepository) AddSubject(ctx context.Context, subject *models.BasketSubject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO basket_subjects (id, basket_id, subject_id, created_at) VALUES (:id, :basket_id, :subject_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("add basket subject: %w", err)
	}
	return nil
}

// ClassSubjectPins returns the explicit class-to-subject overrides for a
// basket, used ahead of the generator's own resolution rule.
func (r *ElectiveBasketRepository) ClassSubjectPins(ctx context.Context, basketID string) ([]models.BasketClassSubject, error) {
	const query = `SELECT id, basket_id, class_id, subject_id, created_at FROM basket_class_subjects WHERE basket_id = $1 ORDER BY class_id ASC`
	var pins []models.BasketClassSubject
	if err := r.db.SelectContext(ctx, &pins, query, basketID); err != nil {
		return nil, fmt.Errorf("list basket class subject pins: %w", err)
	}
	return pins, nil
}

// PinClassSubject records an explicit class-to-subject choice for a basket.
func (r *ElectiveBasketRepository) PinClassSubject(ctx context.Context, pin *models.BasketClassSubject) error {
	if pin.ID == "" {
		pin.ID = uuid.NewString()
	}
	if pin.CreatedAt.IsZero() {
		pin.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO basket_class_subjects (id, basket_id, class_id, subject_id, created_at)
		VALUES (:id, :basket_id, :class_id, :subject_id, :created_at)
		ON CONFLICT (basket_id, class_id) DO UPDATE SET subject_id = EXCLUDED.subject_id`
	if _, err := r.db.NamedExecContext(ctx, query, pin); err != nil {
		return fmt.Errorf("pin basket class subject: %w", err)
	}
	return nil
}
