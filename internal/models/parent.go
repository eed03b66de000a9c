package models

import "time"

// Parent represents a guardian account linked to one or more students.
type Parent struct {
	ID                 string    `db:"id" json:"id"`
	LoginName          string    `db:"login_name" json:"login_name"`
	PasswordHash       string    `db:"password_hash" json:"-"`
	MustChangePassword bool      `db:"must_change_password" json:"must_change_password"`
	Name               string    `db:"name" json:"name"`
	Surname            string    `db:"surname" json:"surname"`
	Email              string    `db:"email" json:"email"`
	Phone              string    `db:"phone" json:"phone"`
	Address            *string   `db:"address" json:"address,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}
