package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-import-api/internal/models"
)

// ClassRepository handles persistence for classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// FindByID fetches a class by ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, name, capacity, grade_id, created_at FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindByNames fetches the class called composite, falling back to one
// called label.
func (r *ClassRepository) FindByNames(ctx context.Context, composite, label string) (*models.Class, error) {
	const query = `SELECT id, name, capacity, grade_id, created_at FROM classes
		WHERE name = $1 OR name = $2 ORDER BY (name = $1) DESC LIMIT 1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, composite, label); err != nil {
		return nil, err
	}
	return &class, nil
}

// Create inserts a class, returning the stored row on a name clash.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	if class.CreatedAt.IsZero() {
		class.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO classes (id, name, capacity, grade_id, created_at) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id, capacity, grade_id, created_at`
	row := r.db.QueryRowxContext(ctx, query, class.ID, class.Name, class.Capacity, class.GradeID, class.CreatedAt)
	if err := row.Scan(&class.ID, &class.Capacity, &class.GradeID, &class.CreatedAt); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}
