package models

import "time"

// TeacherSubjectQualification records that a teacher is qualified to teach
// a given subject. A teacher with no rows here is qualified for nothing.
type TeacherSubjectQualification struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TeacherAvailableDay records one weekday a teacher is willing to teach.
// A teacher with no rows here is available on no day.
type TeacherAvailableDay struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	DayOfWeek int       `db:"day_of_week" json:"day_of_week"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
