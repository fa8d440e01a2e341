package entity

import (
	"database/sql"
	"time"
)

// UserTypeName is the custom type to enforce enum-like behavior
type UserTypeName string

func (utn *UserTypeName) String() string {
	return string(*utn)
}

const (
	UserTypeAssociation UserTypeName = "association"
	UserTypeDonor       UserTypeName = "donateur"
	UserTypeAdmin       UserTypeName = "admin"
)

// UserType represents the user_type table
type UserType struct {
	ID   int          `db:"id"`
	Name UserTypeName `db:"name"`
}

// User represents the users table. Associations and donors are both users,
// distinguished only by user type.
type User struct {
	ID         int            `db:"id"`
	UserTypeID int            `db:"user_type_id"`
	Name       string         `db:"name"`
	Email      string         `db:"email"`
	Category   sql.NullString `db:"category"`
	IsActive   bool           `db:"is_active"`
	CreatedAt  time.Time      `db:"created_at"`
}

// Association is a user joined with its type, guaranteed to be of the
// association user type by the store.
type Association struct {
	User
	UserTypeName UserTypeName `db:"user_type_name"`
}
