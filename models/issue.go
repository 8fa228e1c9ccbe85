package models

import (
	"fmt"
	"strings"
	"time"
)

// IssueStatus enum
type IssueStatus string

const (
	Received IssueStatus = "received"
	Assigned IssueStatus = "assigned"
	Closed   IssueStatus = "closed"
)

// IssueStatuses lists every valid status in lifecycle order.
var IssueStatuses = []IssueStatus{Received, Assigned, Closed}

// Valid reports whether s is one of the enumerated statuses.
func (s IssueStatus) Valid() bool {
	switch s {
	case Received, Assigned, Closed:
		return true
	}
	return false
}

// ParseIssueStatus maps a raw request value onto the status enum.
func ParseIssueStatus(raw string) (IssueStatus, error) {
	s := IssueStatus(strings.TrimSpace(raw))
	if !s.Valid() {
		return "", fmt.Errorf("%q is not a valid status", raw)
	}
	return s, nil
}

// Issue represents a civic issue reported by a user
type Issue struct {
	ID            int64       `gorm:"primaryKey" bson:"_id" json:"id"`
	UserID        int64       `gorm:"not null;index" bson:"userId" json:"userId"`
	User          *User       `gorm:"constraint:OnDelete:CASCADE" bson:"-" json:"-"`
	Description   string      `gorm:"type:text" bson:"description" json:"description"`
	CategoryID    *int64      `gorm:"index" bson:"categoryId,omitempty" json:"categoryId,omitempty"`
	Category      *Category   `bson:"-" json:"-"`
	Latitude      *float64    `gorm:"index:idx_issues_location" bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude     *float64    `gorm:"index:idx_issues_location" bson:"longitude,omitempty" json:"longitude,omitempty"`
	StreetAddress *string     `bson:"streetAddress,omitempty" json:"streetAddress,omitempty"`
	Status        IssueStatus `gorm:"type:varchar(16);not null;default:received;index" bson:"status" json:"status"`
	PhotoRef      *string     `bson:"photoRef,omitempty" json:"photoRef,omitempty"`
	CreatedAt     time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time   `bson:"updatedAt" json:"updatedAt"`
}

// SetStatus stores s, refusing anything outside the enum.
func (i *Issue) SetStatus(s IssueStatus) error {
	if !s.Valid() {
		return fmt.Errorf("%q is not a valid status", s)
	}
	i.Status = s
	return nil
}

// HasLocation reports whether the full latitude/longitude/address triple is set.
func (i *Issue) HasLocation() bool {
	return i.Latitude != nil && i.Longitude != nil && i.StreetAddress != nil && *i.StreetAddress != ""
}

// IsClosed reports whether the issue no longer accepts comments.
func (i *Issue) IsClosed() bool {
	return i.Status == Closed
}

// Bounds is a map viewport used to filter the public feed.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Contains reports whether the point lies inside b, edges included.
func (b Bounds) Contains(lat, lng float64) bool {
	return lat >= b.South && lat <= b.North && lng >= b.West && lng <= b.East
}
