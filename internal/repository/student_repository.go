package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-import-api/internal/models"
)

// StudentRepository handles persistence for students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository instantiates the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// CreateWithIdentity inserts a student together with its login identity.
func (r *StudentRepository) CreateWithIdentity(ctx context.Context, student *models.Student, identity *models.Identity) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	identity.Kind = models.IdentityStudent
	identity.EntityID = student.ID

	const query = `INSERT INTO students (id, login_name, password_hash, must_change_password, name, surname, email, phone, address, blood_type, sex, birthday, parent_id, class_id, grade_id, created_at)
		VALUES (:id, :login_name, :password_hash, :must_change_password, :name, :surname, :email, :phone, :address, :blood_type, :sex, :birthday, :parent_id, :class_id, :grade_id, :created_at)`
	return createWithIdentity(ctx, r.db, query, student, identity)
}

// ListRoster returns the students of a class ordered by surname then name.
func (r *StudentRepository) ListRoster(ctx context.Context, classID string) ([]models.RosterEntry, error) {
	const query = `SELECT id, name, surname FROM students WHERE class_id = $1 ORDER BY surname ASC, name ASC`
	var roster []models.RosterEntry
	if err := r.db.SelectContext(ctx, &roster, query, classID); err != nil {
		return nil, fmt.Errorf("list class roster: %w", err)
	}
	return roster, nil
}

// DeleteAll removes every student and their identities. Historical marks
// go with them through the foreign key cascade.
func (r *StudentRepository) DeleteAll(ctx context.Context) (int64, error) {
	return deleteAllWithIdentities(ctx, r.db, models.IdentityStudent, "students")
}
