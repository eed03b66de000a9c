package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-import-api/internal/models"
)

// TermRepository handles persistence for academic terms.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository constructs a TermRepository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

// FindByName fetches a term by exact name.
func (r *TermRepository) FindByName(ctx context.Context, name string) (*models.Term, error) {
	const query = `SELECT id, name, created_at FROM terms WHERE name = $1`
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, name); err != nil {
		return nil, err
	}
	return &term, nil
}

// Create inserts a term, returning the stored row on a name clash.
func (r *TermRepository) Create(ctx context.Context, term *models.Term) error {
	if term.ID == "" {
		term.ID = uuid.NewString()
	}
	if term.CreatedAt.IsZero() {
		term.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO terms (id, name, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id, created_at`
	if err := r.db.QueryRowxContext(ctx, query, term.ID, term.Name, term.CreatedAt).Scan(&term.ID, &term.CreatedAt); err != nil {
		return fmt.Errorf("create term: %w", err)
	}
	return nil
}
