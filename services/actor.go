package services

import "citysnap-be/models"

// Actor is the authenticated caller of a core operation. A nil *Actor is an
// anonymous visitor.
type Actor struct {
	UserID int64
	Role   models.Role
}

// IsStaff reports whether the actor is an officer or an admin.
func (a *Actor) IsStaff() bool {
	return a != nil && a.Role.IsStaff()
}

// Owns reports whether the actor is the user with id ownerID.
func (a *Actor) Owns(ownerID int64) bool {
	return a != nil && a.UserID == ownerID
}
