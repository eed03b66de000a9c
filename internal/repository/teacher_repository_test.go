package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-import-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTeacherRepositoryCreateWithIdentity(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO teachers").
		WithArgs(sqlmock.AnyArg(), "jdoe", "hash", false, "Jane", "Doe", "jdoe@example.com", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "FEMALE", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO identities").
		WithArgs(sqlmock.AnyArg(), "jdoe@example.com", "jdoe", "teacher", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	teacher := &models.Teacher{LoginName: "jdoe", PasswordHash: "hash", Name: "Jane", Surname: "Doe", Email: "jdoe@example.com", Sex: "FEMALE", Birthday: time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)}
	identity := &models.Identity{Email: teacher.Email, LoginName: teacher.LoginName}
	require.NoError(t, repo.CreateWithIdentity(context.Background(), teacher, identity))
	assert.NotEmpty(t, teacher.ID)
	assert.Equal(t, teacher.ID, identity.EntityID)
	assert.Equal(t, models.IdentityTeacher, identity.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryCreateRollsBackOnIdentityFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO teachers").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO identities").WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err := repo.CreateWithIdentity(context.Background(), &models.Teacher{Email: "a@example.com"}, &models.Identity{Email: "a@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create identity")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryAttachSubject(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectExec("INSERT INTO teacher_subjects").
		WithArgs("t1", "s1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.AttachSubject(context.Background(), "t1", "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryDeleteAll(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM identities WHERE kind").WithArgs("teacher").WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("DELETE FROM teacher_subjects").WillReturnResult(sqlmock.NewResult(0, 6))
	mock.ExpectExec("DELETE FROM teachers").WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	deleted, err := repo.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
