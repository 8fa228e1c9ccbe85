package models

import (
	"fmt"
	"strings"
	"time"
)

// Role enum
type Role string

const (
	Citizen Role = "citizen"
	Officer Role = "officer"
	Admin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case Citizen, Officer, Admin:
		return true
	}
	return false
}

// IsStaff reports whether r may triage issues (officers and admins).
func (r Role) IsStaff() bool {
	return r == Officer || r == Admin
}

// ParseRole maps a raw claim or flag value onto the role enum.
func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !r.Valid() {
		return "", fmt.Errorf("%q is not a valid role", raw)
	}
	return r, nil
}

type User struct {
	ID        int64     `gorm:"primaryKey" bson:"_id" json:"id"`
	Name      string    `gorm:"not null" bson:"name" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" bson:"email" json:"email"`
	Role      Role      `gorm:"type:varchar(16);not null;default:citizen;index" bson:"role" json:"role"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
