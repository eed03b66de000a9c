package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-import-api/internal/models"
)

func TestSubjectRepositoryCreateReturnsStoredRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO subjects").
		WithArgs(sqlmock.AnyArg(), "Physics", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("existing", created))

	subject := &models.Subject{Name: "Physics"}
	require.NoError(t, repo.Create(context.Background(), subject))
	assert.Equal(t, "existing", subject.ID)
	assert.Equal(t, created, subject.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryFindByNameIsExact(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, created_at FROM subjects WHERE name = $1")).
		WithArgs("Math").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}).AddRow("s1", "Math", time.Now()))

	subject, err := repo.FindByName(context.Background(), "Math")
	require.NoError(t, err)
	assert.Equal(t, "s1", subject.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryFindByNames(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM classes")).
		WithArgs("11-A", "A").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "capacity", "grade_id", "created_at"}).AddRow("c1", "11-A", 25, "g1", time.Now()))

	class, err := repo.FindByNames(context.Background(), "11-A", "A")
	require.NoError(t, err)
	assert.Equal(t, "11-A", class.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassAndGradeCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	mock.ExpectQuery("INSERT INTO grades").
		WithArgs(sqlmock.AnyArg(), 11, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("g1", time.Now()))
	mock.ExpectQuery("INSERT INTO classes").
		WithArgs(sqlmock.AnyArg(), "11-A", 25, "g1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "capacity", "grade_id", "created_at"}).AddRow("c1", 25, "g1", time.Now()))

	grade := &models.Grade{Level: 11}
	require.NoError(t, NewGradeRepository(db).Create(context.Background(), grade))
	class := &models.Class{Name: "11-A", Capacity: 25, GradeID: grade.ID}
	require.NoError(t, NewClassRepository(db).Create(context.Background(), class))
	assert.Equal(t, "c1", class.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	mock.ExpectQuery("INSERT INTO terms").
		WithArgs(sqlmock.AnyArg(), "2023 Term 1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("t1", time.Now()))

	term := &models.Term{Name: "2023 Term 1"}
	require.NoError(t, NewTermRepository(db).Create(context.Background(), term))
	assert.Equal(t, "t1", term.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoricalMarkRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	mock.ExpectExec("ON CONFLICT \\(student_id, subject_id, term_id, grade_level\\) DO UPDATE").
		WithArgs(sqlmock.AnyArg(), "st1", "sub1", "t1", 9, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mark := &models.HistoricalMark{StudentID: "st1", SubjectID: "sub1", TermID: "t1", GradeLevel: 9, Mark: decimal.RequireFromString("87.5")}
	require.NoError(t, NewHistoricalMarkRepository(db).Upsert(context.Background(), mark))
	assert.False(t, mark.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepositoryCounts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows([]string{"teachers", "students", "parents", "classes", "grades", "subjects"}).AddRow(3, 10, 8, 2, 1, 5))

	stats, err := NewStatsRepository(db).Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Teachers)
	assert.Equal(t, int64(5), stats.Subjects)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(1, 1))

	log := &models.AuditLog{Action: models.AuditActionImportRun, Resource: "import"}
	require.NoError(t, NewAuditRepository(db).CreateAuditLog(context.Background(), log))
	assert.NotEmpty(t, log.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
