package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-import-api/internal/models"
)

// StatsRepository aggregates entity counts for the import dashboard.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository constructs a StatsRepository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Counts returns the number of rows per onboarding entity.
func (r *StatsRepository) Counts(ctx context.Context) (*models.ImportStats, error) {
	const query = `SELECT
		(SELECT COUNT(*) FROM teachers) AS teachers,
		(SELECT COUNT(*) FROM students) AS students,
		(SELECT COUNT(*) FROM parents) AS parents,
		(SELECT COUNT(*) FROM classes) AS classes,
		(SELECT COUNT(*) FROM grades) AS grades,
		(SELECT COUNT(*) FROM subjects) AS subjects`
	var stats models.ImportStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("count import entities: %w", err)
	}
	return &stats, nil
}
