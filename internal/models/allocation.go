package models

import "time"

// Timetable statuses.
const (
	TimetableStatusDraft     = "draft"
	TimetableStatusCommitted = "committed"
)

// Timetable is one generation run's header: either a pending proposal
// awaiting review or the committed schedule for a term.
type Timetable struct {
	ID          string     `db:"id" json:"id"`
	TermID      string     `db:"term_id" json:"term_id"`
	Status      string     `db:"status" json:"status"`
	Seed        int64      `db:"seed" json:"seed"`
	Score       float64    `db:"score" json:"score"`
	GeneratedAt time.Time  `db:"generated_at" json:"generated_at"`
	CommittedAt *time.Time `db:"committed_at" json:"committed_at,omitempty"`
}

// TimetableSlot is a single committed allocation belonging to a Timetable,
// the persisted form of an engine.Allocation.
type TimetableSlot struct {
	ID                string  `db:"id" json:"id"`
	TimetableID       string  `db:"timetable_id" json:"timetable_id"`
	ClassID           string  `db:"class_id" json:"class_id"`
	DayOfWeek         int     `db:"day_of_week" json:"day_of_week"`
	Period            int     `db:"period" json:"period"`
	SubjectID         string  `db:"subject_id" json:"subject_id"`
	TeacherID         string  `db:"teacher_id" json:"teacher_id"`
	RoomID            string  `db:"room_id" json:"room_id"`
	Component         string  `db:"component" json:"component"`
	IsLabContinuation bool    `db:"is_lab_continuation" json:"is_lab_continuation"`
	IsElective        bool    `db:"is_elective" json:"is_elective"`
	BasketID          *string `db:"basket_id" json:"basket_id,omitempty"`
}
