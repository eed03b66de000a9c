package models

import "time"

// Class represents a class section such as "11-A".
type Class struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Capacity  int       `db:"capacity" json:"capacity"`
	GradeID   string    `db:"grade_id" json:"grade_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
