package models

import "time"

// Room represents a physical teaching space.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Kind      string    `db:"kind" json:"kind"` // lecture | lab | seminar
	Capacity  int       `db:"capacity" json:"capacity"`
	Available bool      `db:"available" json:"available"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RoomFilter captures filtering options for listing rooms.
type RoomFilter struct {
	Kind      string
	Available *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
