package models

import "time"

// IdentityKind names the entity table owning a login identity.
type IdentityKind string

const (
	IdentityTeacher IdentityKind = "teacher"
	IdentityStudent IdentityKind = "student"
	IdentityParent  IdentityKind = "parent"
)

// Identity is one row of the shared login index. Email and login name are
// unique across every kind, which keeps the login namespace of teachers,
// students and parents disjoint.
type Identity struct {
	ID        string       `db:"id" json:"id"`
	Email     string       `db:"email" json:"email"`
	LoginName string       `db:"login_name" json:"login_name"`
	Kind      IdentityKind `db:"kind" json:"kind"`
	EntityID  string       `db:"entity_id" json:"entity_id"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}
