package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sma-timetable/scheduler-api/internal/models"
)

// RoomRepository manages persistence for teaching rooms.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs a RoomRepository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns rooms matching filters along with total count.
func (r *RoomRepository) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error) {
	base := "FROM rooms WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)+1))
		args = append(args, filter.Kind)
	}
	if filter.Available != nil {
		conditions = append(conditions, fmt.Sprintf("available = $%d", len(args)+1))
		args = append(args, *filter.Available)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d)", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	allowedSorts := map[string]bool{
		"name":       true,
		"capacity":   true,
		"created_at": true,
		"updated_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, name, kind, capacity, available, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d", base, sortBy, order, size, offset)
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list rooms: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count rooms: %w", err)
	}
	return rooms, total, nil
}

// ListAvailable returns every room flagged available, used by the snapshot
// loader to build the engine's room pool regardless of pagination.
func (r *RoomRepository) ListAvailable(ctx context.Context) ([]models.Room, error) {
	const query = `SELECT id, name, kind, capacity, available, created_at, updated_at FROM rooms WHERE available = TRUE ORDER BY id ASC`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list available rooms: %w", err)
	}
	return rooms, nil
}

// FindByID returns a room by id.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	const query = `SELECT id, name, kind, capacity, available, created_at, updated_at FROM rooms WHERE id = $1`
	var room models.Room
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// Create persists a new room.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now
	}
	room.UpdatedAt = now

	const query = `INSERT INTO rooms (id, name, kind, capacity, available, created_at, updated_at)
		VALUES (:id, :name, :kind, :capacity, :available, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

// Update modifies a room record.
func (r *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	room.UpdatedAt = time.Now().UTC()
	const query = `UPDATE rooms SET name = :name, kind = :kind, capacity = :capacity, available = :available, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	return nil
}

// Delete removes a room record.
func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}
