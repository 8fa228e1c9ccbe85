package models

import "time"

// Category is one node of the issue taxonomy. Parent is referenced by id only.
type Category struct {
	ID          int64     `gorm:"primaryKey" bson:"_id" json:"id"`
	Name        string    `gorm:"not null" bson:"name" json:"name"`
	Description *string   `gorm:"type:text" bson:"description,omitempty" json:"description,omitempty"`
	ParentID    *int64    `gorm:"index;index:idx_categories_parent_position,priority:1" bson:"parentId,omitempty" json:"parentId,omitempty"`
	Parent      *Category `bson:"-" json:"-"`
	Position    int       `gorm:"not null;default:0;index:idx_categories_parent_position,priority:2" bson:"position" json:"position"`
	Active      bool      `gorm:"not null;index" bson:"active" json:"active"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// AssignableLevel is the only taxonomy depth an issue may point at.
const AssignableLevel = 3
