package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-import-api/internal/models"
)

// ParentRepository manages persistence for parents.
type ParentRepository struct {
	db *sqlx.DB
}

// NewParentRepository constructs a ParentRepository.
func NewParentRepository(db *sqlx.DB) *ParentRepository {
	return &ParentRepository{db: db}
}

// CreateWithIdentity inserts a parent together with its login identity.
func (r *ParentRepository) CreateWithIdentity(ctx context.Context, parent *models.Parent, identity *models.Identity) error {
	if parent.ID == "" {
		parent.ID = uuid.NewString()
	}
	if parent.CreatedAt.IsZero() {
		parent.CreatedAt = time.Now().UTC()
	}
	identity.Kind = models.IdentityParent
	identity.EntityID = parent.ID

	const query = `INSERT INTO parents (id, login_name, password_hash, must_change_password, name, surname, email, phone, address, created_at)
		VALUES (:id, :login_name, :password_hash, :must_change_password, :name, :surname, :email, :phone, :address, :created_at)`
	return createWithIdentity(ctx, r.db, query, parent, identity)
}

// DeleteAll removes every parent and their identities. Students must be
// cleared first.
func (r *ParentRepository) DeleteAll(ctx context.Context) (int64, error) {
	return deleteAllWithIdentities(ctx, r.db, models.IdentityParent, "parents")
}
