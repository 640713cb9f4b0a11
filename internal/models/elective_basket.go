package models

import "time"

// ElectiveBasket groups subjects that are taught synchronously to a set of
// classes so every participant is free or busy at exactly the same slots.
type ElectiveBasket struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	SemesterNumber int       `db:"semester_number" json:"semester_number"`
	TheoryHours    int       `db:"theory_hours" json:"theory_hours"`
	LabHours       int       `db:"lab_hours" json:"lab_hours"`
	TutorialHours  int       `db:"tutorial_hours" json:"tutorial_hours"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// BasketParticipant records one class's membership in a basket.
type BasketParticipant struct {
	ID        string    `db:"id" json:"id"`
	BasketID  string    `db:"basket_id" json:"basket_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BasketSubject records one candidate subject offered within a basket.
type BasketSubject struct {
	ID        string    `db:"id" json:"id"`
	BasketID  string    `db:"basket_id" json:"basket_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BasketClassSubject pins the specific subject a class takes from the
// basket, overriding the default resolution rule.
type BasketClassSubject struct {
	ID        string    `db:"id" json:"id"`
	BasketID  string    `db:"basket_id" json:"basket_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
