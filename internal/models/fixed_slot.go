package models

import "time"

// FixedSlot is an operator-locked placement the generator must honor
// verbatim: it neither moves nor gets overwritten by scheduling or
// optimization.
type FixedSlot struct {
	ID        string    `db:"id" json:"id"`
	TermID    string    `db:"term_id" json:"term_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	DayOfWeek int       `db:"day_of_week" json:"day_of_week"`
	Period    int       `db:"period" json:"period"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	Component string    `db:"component" json:"component"` // theory | lab | tutorial
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FixedTeacherAssignment pins the teacher responsible for a whole
// (class, subject, component) obligation, ahead of the generator's own
// least-loaded-candidate selection.
type FixedTeacherAssignment struct {
	ID        string    `db:"id" json:"id"`
	TermID    string    `db:"term_id" json:"term_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	Component string    `db:"component" json:"component"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
