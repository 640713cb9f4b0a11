package service

import (
	"context"
	"fmt"

	"github.com/sma-timetable/scheduler-api/internal/engine"
	"github.com/sma-timetable/scheduler-api/internal/models"
)

type classReader interface {
	ListAll(ctx context.Context) ([]models.Class, error)
	ListAllClassSubjects(ctx context.Context) ([]models.ClassSubject, error)
}

type subjectReader interface {
	ListAll(ctx context.Context) ([]models.Subject, error)
}

type teacherReader interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
}

type teacherPreferenceReader interface {
	ListAll(ctx context.Context) ([]models.TeacherPreference, error)
}

type teacherQualificationReader interface {
	ListAllQualifications(ctx context.Context) ([]models.TeacherSubjectQualification, error)
	ListAllAvailableDays(ctx context.Context) ([]models.TeacherAvailableDay, error)
}

type roomReader interface {
	ListAvailable(ctx context.Context) ([]models.Room, error)
}

type basketReader interface {
	ListAll(ctx context.Context) ([]models.ElectiveBasket, error)
	Participants(ctx context.Context, basketID string) ([]models.BasketParticipant, error)
	Subjects(ctx context.Context, basketID string) ([]models.BasketSubject, error)
	ClassSubjectPins(ctx context.Context, basketID string) ([]models.BasketClassSubject, error)
}

type fixedSlotReader interface {
	ListByTerm(ctx context.Context, termID string) ([]models.FixedSlot, error)
}

type fixedTeacherReader interface {
	ListByTerm(ctx context.Context, termID string) ([]models.FixedTeacherAssignment, error)
}

// snapshotLoader composes repository reads into an engine.Snapshot, bridging
// the persistence layer's string UUIDs to the engine's flat integer IDs.
type snapshotLoader struct {
	classes       classReader
	subjects      subjectReader
	teachers      teacherReader
	preferences   teacherPreferenceReader
	qualification teacherQualificationReader
	rooms         roomReader
	baskets       basketReader
	fixedSlots    fixedSlotReader
	fixedTeachers fixedTeacherReader
}

// NewSnapshotLoader wires the repository-backed readers this loader needs.
func NewSnapshotLoader(
	classes classReader,
	subjects subjectReader,
	teachers teacherReader,
	preferences teacherPreferenceReader,
	qualification teacherQualificationReader,
	rooms roomReader,
	baskets basketReader,
	fixedSlots fixedSlotReader,
	fixedTeachers fixedTeacherReader,
) *snapshotLoader {
	return &snapshotLoader{
		classes:       classes,
		subjects:      subjects,
		teachers:      teachers,
		preferences:   preferences,
		qualification: qualification,
		rooms:         rooms,
		baskets:       baskets,
		fixedSlots:    fixedSlots,
		fixedTeachers: fixedTeachers,
	}
}

// Load builds a Snapshot for termID together with the idMap that can
// translate the resulting engine.Allocations back into persistence UUIDs.
func (l *snapshotLoader) Load(ctx context.Context, termID string) (engine.Snapshot, *idMap, error) {
	ids := newIDMap()
	var snap engine.Snapshot

	subjects, err := l.subjects.ListAll(ctx)
	if err != nil {
		return snap, nil, fmt.Errorf("load subjects: %w", err)
	}
	subjectByUUID := make(map[string]models.Subject, len(subjects))
	for _, s := range subjects {
		subjectByUUID[s.ID] = s
		snap.Subjects = append(snap.Subjects, engine.Subject{
			ID:            ids.id(s.ID),
			Code:          s.Code,
			TheoryHours:   s.TheoryHours,
			LabHours:      s.LabHours,
			TutorialHours: s.TutorialHours,
			IsElective:    s.IsElective,
			BasketID:      idOrZero(ids, derefString(s.BasketID)),
		})
	}

	teachers, err := l.teachers.ListActive(ctx)
	if err != nil {
		return snap, nil, fmt.Errorf("load teachers: %w", err)
	}
	prefs, err := l.preferences.ListAll(ctx)
	if err != nil {
		return snap, nil, fmt.Errorf("load teacher preferences: %w", err)
	}
	maxLoad := make(map[string]int, len(prefs))
	for _, p := range prefs {
		maxLoad[p.TeacherID] = p.MaxLoadPerWeek
	}
	qualifications, err := l.qualification.ListAllQualifications(ctx)
	if err != nil {
		return snap, nil, fmt.Errorf("load teacher qualifications: %w", err)
	}
	qualifiedBy := make(map[string]map[engine.ID]bool, len(teachers))
	for _, q := range qualifications {
		if qualifiedBy[q.TeacherID] == nil {
			qualifiedBy[q.TeacherID] = make(map[engine.ID]bool)
		}
		qualifiedBy[q.TeacherID][ids.id(q.SubjectID)] = true
	}
	availableDays, err := l.qualification.ListAllAvailableDays(ctx)
	if err != nil {
		return snap, nil, fmt.Errorf("load teacher available days: %w", err)
	}
	availableBy := make(map[string]map[engine.Weekday]bool, len(teachers))
	for _, d := range availableDays {
		if availableBy[d.TeacherID] == nil {
			availableBy[d.TeacherID] = make(map[engine.Weekday]bool)
		}
		availableBy[d.TeacherID][engine.Weekday(d.DayOfWeek)] = true
	}
	for _, t := range teachers {
		snap.Teachers = append(snap.Teachers, engine.Teacher{
			ID:                 ids.id(t.ID),
			MaxHoursPerWeek:    maxLoad[t.ID],
			AvailableDays:      availableBy[t.ID],
			QualifiedSubject:   qualifiedBy[t.ID],
			EffectivenessScore: t.EffectivenessScore,
		})
	}

	classes, err := l.classes.ListAll(ctx)
	if err != nil {
		return snap, nil, fmt.Errorf("load classes: %w", err)
	}
	classSubjects, err := l.classes.ListAllClassSubjects(ctx)
	if err != nil {
		return snap, nil, fmt.Errorf("load class subjects: %w", err)
	}
	subjectsByClass := make(map[string]map[engine.ID]bool, len(classes))
	for _, cs := range classSubjects {
		if subjectsByClass[cs.ClassID] == nil {
			subjectsByClass[cs.ClassID] = make(map[engine.ID]bool)
		}
		subjectsByClass[cs.ClassID][ids.id(cs.SubjectID)] = true
	}
	for _, c := range classes {
		snap.Classes = append(snap.Classes, engine.Class{
			ID:             ids.id(c.ID),
			SemesterNumber: c.SemesterNumber,
			Section:        c.Name,
			StudentCount:   c.StudentCount,
			SubjectIDs:     subjectsByClass[c.ID],
		})
	}

	rooms, err := l.rooms.ListAvailable(ctx)
	if err != nil {
		return snap, nil, fmt.Errorf("load rooms: %w", err)
	}
	for _, r := range rooms {
		snap.Rooms = append(snap.Rooms, engine.Room{
			ID:        ids.id(r.ID),
			Capacity:  r.Capacity,
			Kind:      roomKindFromString(r.Kind),
			Available: r.Available,
		})
	}

	baskets, err := l.baskets.ListAll(ctx)
	if err != nil {
		return snap, nil, fmt.Errorf("load elective baskets: %w", err)
	}
	for _, b := range baskets {
		participants, err := l.baskets.Participants(ctx, b.ID)
		if err != nil {
			return snap, nil, fmt.Errorf("load basket participants: %w", err)
		}
		basketSubjects, err := l.baskets.Subjects(ctx, b.ID)
		if err != nil {
			return snap, nil, fmt.Errorf("load basket subjects: %w", err)
		}
		pins, err := l.baskets.ClassSubjectPins(ctx, b.ID)
		if err != nil {
			return snap, nil, fmt.Errorf("load basket class subject pins: %w", err)
		}

		participantSet := make(map[engine.ID]bool, len(participants))
		for _, p := range participants {
			participantSet[ids.id(p.ClassID)] = true
		}
		subjectSet := make(map[engine.ID]bool, len(basketSubjects))
		for _, s := range basketSubjects {
			subjectSet[ids.id(s.SubjectID)] = true
		}
		classSubject := make(map[engine.ID]engine.ID, len(pins))
		for _, pin := range pins {
			classSubject[ids.id(pin.ClassID)] = ids.id(pin.SubjectID)
		}

		snap.Baskets = append(snap.Baskets, engine.ElectiveBasket{
			ID:               ids.id(b.ID),
			Name:             b.Name,
			SemesterNumber:   b.SemesterNumber,
			TheoryHours:      b.TheoryHours,
			LabHours:         b.LabHours,
			TutorialHours:    b.TutorialHours,
			ParticipantClass: participantSet,
			SubjectIDs:       subjectSet,
			ClassSubject:     classSubject,
		})
	}

	fixedSlots, err := l.fixedSlots.ListByTerm(ctx, termID)
	if err != nil {
		return snap, nil, fmt.Errorf("load fixed slots: %w", err)
	}
	for _, fs := range fixedSlots {
		snap.FixedSlots = append(snap.FixedSlots, engine.FixedSlot{
			ClassID:   ids.id(fs.ClassID),
			Day:       engine.Weekday(fs.DayOfWeek),
			Period:    engine.Period(fs.Period),
			SubjectID: ids.id(fs.SubjectID),
			TeacherID: ids.id(fs.TeacherID),
			Component: componentFromString(fs.Component),
		})
	}

	fixedTeachers, err := l.fixedTeachers.ListByTerm(ctx, termID)
	if err != nil {
		return snap, nil, fmt.Errorf("load fixed teacher assignments: %w", err)
	}
	snap.FixedTeachers = make(map[engine.FixedTeacherKey]engine.ID, len(fixedTeachers))
	for _, fa := range fixedTeachers {
		key := engine.FixedTeacherKey{
			ClassID:   ids.id(fa.ClassID),
			SubjectID: ids.id(fa.SubjectID),
			Component: componentFromString(fa.Component),
		}
		snap.FixedTeachers[key] = ids.id(fa.TeacherID)
	}

	return snap, ids, nil
}

func idOrZero(ids *idMap, uuid string) engine.ID {
	if uuid == "" {
		return 0
	}
	return ids.id(uuid)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func roomKindFromString(kind string) engine.RoomKind {
	switch kind {
	case "lab":
		return engine.RoomLab
	case "seminar":
		return engine.RoomSeminar
	default:
		return engine.RoomLecture
	}
}

func componentFromString(component string) engine.ComponentKind {
	switch component {
	case "lab":
		return engine.Lab
	case "tutorial":
		return engine.Tutorial
	default:
		return engine.Theory
	}
}
