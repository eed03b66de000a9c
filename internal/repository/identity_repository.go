package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-import-api/internal/models"
)

// IdentityRepository reads the shared login index spanning teachers,
// students and parents.
type IdentityRepository struct {
	db *sqlx.DB
}

// NewIdentityRepository constructs an IdentityRepository.
func NewIdentityRepository(db *sqlx.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// FindConflict returns the identity holding the email or the login name.
// Email matches win over login-name matches. It returns sql.ErrNoRows when
// both are free.
func (r *IdentityRepository) FindConflict(ctx context.Context, email, loginName string) (*models.Identity, error) {
	const query = `SELECT id, email, login_name, kind, entity_id, created_at FROM identities
		WHERE LOWER(email) = LOWER($1) OR login_name = $2
		ORDER BY (LOWER(email) = LOWER($1)) DESC, created_at ASC LIMIT 1`
	var identity models.Identity
	if err := r.db.GetContext(ctx, &identity, query, email, loginName); err != nil {
		return nil, err
	}
	return &identity, nil
}

// createWithIdentity inserts an entity row and its identity in one transaction.
func createWithIdentity(ctx context.Context, db *sqlx.DB, entityQuery string, entity interface{}, identity *models.Identity) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s tx: %w", identity.Kind, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.NamedExecContext(ctx, entityQuery, entity); err != nil {
		return fmt.Errorf("create %s: %w", identity.Kind, err)
	}
	if err = insertIdentity(ctx, tx, identity); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s tx: %w", identity.Kind, err)
	}
	return nil
}

func insertIdentity(ctx context.Context, tx *sqlx.Tx, identity *models.Identity) error {
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO identities (id, email, login_name, kind, entity_id, created_at)
		VALUES (:id, :email, :login_name, :kind, :entity_id, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, identity); err != nil {
		return fmt.Errorf("create identity: %w", err)
	}
	return nil
}

// deleteAllWithIdentities empties table and drops the identities of kind.
// Statements in before run first inside the same transaction.
func deleteAllWithIdentities(ctx context.Context, db *sqlx.DB, kind models.IdentityKind, table string, before ...string) (deleted int64, err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin clear %s tx: %w", table, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM identities WHERE kind = $1`, kind); err != nil {
		return 0, fmt.Errorf("clear %s identities: %w", kind, err)
	}
	for _, stmt := range before {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return 0, fmt.Errorf("clear %s dependents: %w", table, err)
		}
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM "+table)
	if err != nil {
		return 0, fmt.Errorf("clear %s: %w", table, err)
	}
	deleted, err = res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count cleared %s: %w", table, err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit clear %s tx: %w", table, err)
	}
	return deleted, nil
}
