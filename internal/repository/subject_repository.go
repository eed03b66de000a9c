package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-import-api/internal/models"
)

// SubjectRepository handles persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// FindByName fetches a subject by exact, case-sensitive name.
func (r *SubjectRepository) FindByName(ctx context.Context, name string) (*models.Subject, error) {
	const query = `SELECT id, name, created_at FROM subjects WHERE name = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, name); err != nil {
		return nil, err
	}
	return &subject, nil
}

// Create inserts a subject. When another request created the same name
// first, the stored row is returned instead.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO subjects (id, name, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id, created_at`
	if err := r.db.QueryRowxContext(ctx, query, subject.ID, subject.Name, subject.CreatedAt).Scan(&subject.ID, &subject.CreatedAt); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// ListAll returns every subject ordered by name.
func (r *SubjectRepository) ListAll(ctx context.Context) ([]models.Subject, error) {
	const query = `SELECT id, name, created_at FROM subjects ORDER BY name ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}
