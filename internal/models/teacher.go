package models

import "time"

// Teacher represents an instructor account.
type Teacher struct {
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
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}
