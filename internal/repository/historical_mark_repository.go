package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-import-api/internal/models"
)

// HistoricalMarkRepository persists marks from previous grade levels.
type HistoricalMarkRepository struct {
	db *sqlx.DB
}

// NewHistoricalMarkRepository constructs a HistoricalMarkRepository.
func NewHistoricalMarkRepository(db *sqlx.DB) *HistoricalMarkRepository {
	return &HistoricalMarkRepository{db: db}
}

// Upsert stores a mark, replacing the value already recorded for the same
// student, subject, term and grade level.
func (r *HistoricalMarkRepository) Upsert(ctx context.Context, mark *models.HistoricalMark) error {
	if mark.ID == "" {
		mark.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if mark.CreatedAt.IsZero() {
		mark.CreatedAt = now
	}
	mark.UpdatedAt = now

	const query = `INSERT INTO historical_marks (id, student_id, subject_id, term_id, grade_level, mark, created_at, updated_at)
		VALUES (:id, :student_id, :subject_id, :term_id, :grade_level, :mark, :created_at, :updated_at)
		ON CONFLICT (student_id, subject_id, term_id, grade_level) DO UPDATE SET mark = EXCLUDED.mark, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, mark); err != nil {
		return fmt.Errorf("upsert historical mark: %w", err)
	}
	return nil
}
