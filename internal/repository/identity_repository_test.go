package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-import-api/internal/models"
)

func TestIdentityRepositoryFindConflict(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewIdentityRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM identities")).
		WithArgs("Jane@Example.com", "jane").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "login_name", "kind", "entity_id", "created_at"}).
			AddRow("i1", "jane@example.com", "jane", "parent", "p1", time.Now()))

	identity, err := repo.FindConflict(context.Background(), "Jane@Example.com", "jane")
	require.NoError(t, err)
	assert.Equal(t, models.IdentityParent, identity.Kind)
	assert.Equal(t, "p1", identity.EntityID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepositoryFindConflictNone(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewIdentityRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM identities")).
		WithArgs("free@example.com", "free").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindConflict(context.Background(), "free@example.com", "free")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}
