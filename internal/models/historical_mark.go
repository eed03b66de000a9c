package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistoricalMark is a mark earned in a past grade level, keyed by
// student, subject, term and grade level.
type HistoricalMark struct {
	ID         string          `db:"id" json:"id"`
	StudentID  string          `db:"student_id" json:"student_id"`
	SubjectID  string          `db:"subject_id" json:"subject_id"`
	TermID     string          `db:"term_id" json:"term_id"`
	GradeLevel int             `db:"grade_level" json:"grade_level"`
	Mark       decimal.Decimal `db:"mark" json:"mark"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}
