package models

import "time"

// Grade is a grade level (year group), e.g. 11.
type Grade struct {
	ID        string    `db:"id" json:"id"`
	Level     int       `db:"level" json:"level"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
