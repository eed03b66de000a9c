package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-import-api/internal/models"
)

// GradeRepository persists grade levels.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs a GradeRepository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// FindByLevel fetches a grade by level.
func (r *GradeRepository) FindByLevel(ctx context.Context, level int) (*models.Grade, error) {
	const query = `SELECT id, level, created_at FROM grades WHERE level = $1`
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, level); err != nil {
		return nil, err
	}
	return &grade, nil
}

// Create inserts a grade, returning the stored row on a level clash.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO grades (id, level, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (level) DO UPDATE SET level = EXCLUDED.level RETURNING id, created_at`
	if err := r.db.QueryRowxContext(ctx, query, grade.ID, grade.Level, grade.CreatedAt).Scan(&grade.ID, &grade.CreatedAt); err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}
