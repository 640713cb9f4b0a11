package models

import "time"

// Term is an academic term (semester) that scopes one timetable generation
// run: fixed slots, teacher assignments, and the resulting timetable all
// belong to exactly one term.
type Term struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
