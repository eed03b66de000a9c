package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-import-api/internal/models"
)

// TeacherRepository manages persistence for teachers.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// CreateWithIdentity inserts a teacher together with its login identity.
func (r *TeacherRepository) CreateWithIdentity(ctx context.Context, teacher *models.Teacher, identity *models.Identity) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = time.Now().UTC()
	}
	identity.Kind = models.IdentityTeacher
	identity.EntityID = teacher.ID

	const query = `INSERT INTO teachers (id, login_name, password_hash, must_change_password, name, surname, email, phone, address, blood_type, sex, birthday, created_at)
		VALUES (:id, :login_name, :password_hash, :must_change_password, :name, :surname, :email, :phone, :address, :blood_type, :sex, :birthday, :created_at)`
	return createWithIdentity(ctx, r.db, query, teacher, identity)
}

// AttachSubject links a subject to a teacher. Existing links are kept.
func (r *TeacherRepository) AttachSubject(ctx context.Context, teacherID, subjectID string) error {
	const query = `INSERT INTO teacher_subjects (teacher_id, subject_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, teacherID, subjectID); err != nil {
		return fmt.Errorf("attach subject: %w", err)
	}
	return nil
}

// DeleteAll removes every teacher, their subject links and identities.
func (r *TeacherRepository) DeleteAll(ctx context.Context) (int64, error) {
	return deleteAllWithIdentities(ctx, r.db, models.IdentityTeacher, "teachers", "DELETE FROM teacher_subjects")
}
