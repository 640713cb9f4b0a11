package service

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sma-timetable/scheduler-api/internal/dto"
	"github.com/sma-timetable/scheduler-api/internal/models"
)

// --- snapshot reader stubs: a minimal one-class, one-subject, one-teacher,
// one-room world that the engine can fully cover. ---

type stubClasses struct{}

func (stubClasses) ListAll(ctx context.Context) ([]models.Class, error) {
	return []models.Class{{ID: "class-1", SemesterNumber: 1, Name: "X-A", StudentCount: 30}}, nil
}

func (stubClasses) ListAllClassSubjects(ctx context.Context) ([]models.ClassSubject, error) {
	return []models.ClassSubject{{ClassID: "class-1", SubjectID: "subj-1"}}, nil
}

type stubSubjects struct{}

func (stubSubjects) ListAll(ctx context.Context) ([]models.Subject, error) {
	return []models.Subject{{ID: "subj-1", Code: "MATH", TheoryHours: 2}}, nil
}

type stubTeachers struct{}

func (stubTeachers) ListActive(ctx context.Context) ([]models.Teacher, error) {
	return []models.Teacher{{ID: "teacher-1", FullName: "Teacher One", EffectivenessScore: 1}}, nil
}

type stubPreferences struct{}

func (stubPreferences) ListAll(ctx context.Context) ([]models.TeacherPreference, error) {
	return []models.TeacherPreference{{TeacherID: "teacher-1", MaxLoadPerWeek: 20}}, nil
}

type stubQualifications struct{}

func (stubQualifications) ListAllQualifications(ctx context.Context) ([]models.TeacherSubjectQualification, error) {
	return []models.TeacherSubjectQualification{{TeacherID: "teacher-1", SubjectID: "subj-1"}}, nil
}

func (stubQualifications) ListAllAvailableDays(ctx context.Context) ([]models.TeacherAvailableDay, error) {
	var days []models.TeacherAvailableDay
	for d := 0; d < 5; d++ {
		days = append(days, models.TeacherAvailableDay{TeacherID: "teacher-1", DayOfWeek: d})
	}
	return days, nil
}

type stubRooms struct{}

func (stubRooms) ListAvailable(ctx context.Context) ([]models.Room, error) {
	return []models.Room{{ID: "room-1", Capacity: 40, Kind: "lecture", Available: true}}, nil
}

type stubBaskets struct{}

func (stubBaskets) ListAll(ctx context.Context) ([]models.ElectiveBasket, error) { return nil, nil }
func (stubBaskets) Participants(ctx context.Context, basketID string) ([]models.BasketParticipant, error) {
	return nil, nil
}
func (stubBaskets) Subjects(ctx context.Context, basketID string) ([]models.BasketSubject, error) {
	return nil, nil
}
func (stubBaskets) ClassSubjectPins(ctx context.Context, basketID string) ([]models.BasketClassSubject, error) {
	return nil, nil
}

type stubFixedSlots struct{}

func (stubFixedSlots) ListByTerm(ctx context.Context, termID string) ([]models.FixedSlot, error) {
	return nil, nil
}

type stubFixedTeachers struct{}

func (stubFixedTeachers) ListByTerm(ctx context.Context, termID string) ([]models.FixedTeacherAssignment, error) {
	return nil, nil
}

func newTestLoader() *snapshotLoader {
	return NewSnapshotLoader(
		stubClasses{}, stubSubjects{}, stubTeachers{}, stubPreferences{},
		stubQualifications{}, stubRooms{}, stubBaskets{}, stubFixedSlots{}, stubFixedTeachers{},
	)
}

// --- timetableRepository stub ---

type stubTimetables struct {
	deletedTerms []string
	created      *models.Timetable
	insertedSlots []models.TimetableSlot
	committed    bool
}

func (s *stubTimetables) CreateDraftTx(ctx context.Context, tx *sqlx.Tx, termID string, seed int64, score float64) (*models.Timetable, error) {
	s.created = &models.Timetable{ID: "tt-1", TermID: termID, Status: models.TimetableStatusDraft, Seed: seed, Score: score}
	return s.created, nil
}

func (s *stubTimetables) InsertSlotsTx(ctx context.Context, tx *sqlx.Tx, timetableID string, slots []models.TimetableSlot) error {
	s.insertedSlots = slots
	return nil
}

func (s *stubTimetables) CommitTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	s.committed = true
	return nil
}

func (s *stubTimetables) DeleteByTermTx(ctx context.Context, tx *sqlx.Tx, termID string) error {
	s.deletedTerms = append(s.deletedTerms, termID)
	return nil
}

func (s *stubTimetables) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	return s.created, nil
}

func (s *stubTimetables) SlotsByTimetable(ctx context.Context, timetableID string) ([]models.TimetableSlot, error) {
	return s.insertedSlots, nil
}

func (s *stubTimetables) ListByTerm(ctx context.Context, termID string) ([]models.Timetable, error) {
	if s.created == nil {
		return nil, nil
	}
	return []models.Timetable{*s.created}, nil
}

type stubTerms struct{}

func (stubTerms) FindByID(ctx context.Context, id string) (*models.Term, error) {
	return &models.Term{ID: id, Name: "Term One", Active: true}, nil
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestGenerationServiceGenerateProducesCoveredProposal(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	svc := NewGenerationService(newTestLoader(), &stubTimetables{}, stubTerms{}, db, validator.New(), zap.NewNop(), 30*time.Minute, 7, false)

	resp, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{TermID: "term-1", Seed: 7})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.ProposalID)
	require.Len(t, resp.Slots, 2) // 2 theory hours for the one subject/class

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationServiceGenerateRejectsInvalidRequest(t *testing.T) {
	db, _, cleanup := newMockDB(t)
	defer cleanup()

	svc := NewGenerationService(newTestLoader(), &stubTimetables{}, stubTerms{}, db, validator.New(), zap.NewNop(), 30*time.Minute, 7, false)

	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{})
	require.Error(t, err)
}

func TestGenerationServiceCommitPersistsAndClearsCache(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := &stubTimetables{}
	svc := NewGenerationService(newTestLoader(), repo, stubTerms{}, db, validator.New(), zap.NewNop(), 30*time.Minute, 7, false)

	resp, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{TermID: "term-1", Seed: 7})
	require.NoError(t, err)
	require.True(t, resp.Success)

	mock.ExpectBegin()
	mock.ExpectCommit()

	timetable, err := svc.Commit(context.Background(), dto.CommitTimetableRequest{ProposalID: resp.ProposalID})
	require.NoError(t, err)
	require.Equal(t, models.TimetableStatusCommitted, timetable.Status)
	require.Equal(t, []string{"term-1"}, repo.deletedTerms)
	require.Len(t, repo.insertedSlots, 2)
	require.True(t, repo.committed)

	_, err = svc.Commit(context.Background(), dto.CommitTimetableRequest{ProposalID: resp.ProposalID})
	require.Error(t, err, "a committed proposal must not be committable twice")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationServiceCommitRejectsUnknownProposal(t *testing.T) {
	db, _, cleanup := newMockDB(t)
	defer cleanup()

	svc := NewGenerationService(newTestLoader(), &stubTimetables{}, stubTerms{}, db, validator.New(), zap.NewNop(), 30*time.Minute, 7, false)

	_, err := svc.Commit(context.Background(), dto.CommitTimetableRequest{ProposalID: "does-not-exist"})
	require.Error(t, err)
}
