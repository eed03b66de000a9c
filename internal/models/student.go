package models

import "time"

// Student represents a learner account. ParentID, ClassID and GradeID are
// required at creation time.
type Student struct {
	ID                 string    `db:"id" json:"id"`
	LoginName          string    `db:"login_name" json:"login_name"`
	PasswordHash       string    `db:"password_hash" json:"-"`
	MustChangePassword bool      `db:"must_change_password" json:"must_change_password"`
	Name               string    `db:"name" json:"name"`
	Surname            string    `db:"surname" json:"surname"`
	Email              string    `db:"email" json:"email"`
	Phone              *string   `db:"phone" json:"phone,omitempty"`
	Address            *string   `db:"address" json:"address,omitempty"`
	BloodType          *string   `db:"blood_type" json:"blood_type,omitempty"`
	Sex                string    `db:"sex" json:"sex"`
	Birthday           time.Time `db:"birthday" json:"birthday"`
	ParentID           string    `db:"parent_id" json:"parent_id"`
	ClassID            string    `db:"class_id" json:"class_id"`
	GradeID            string    `db:"grade_id" json:"grade_id"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// RosterEntry is the minimal student view used by mark templates.
type RosterEntry struct {
	StudentID string `db:"id" json:"student_id"`
	Name      string `db:"name" json:"name"`
	Surname   string `db:"surname" json:"surname"`
}
