package models

import "time"

// MaxCommentLength bounds a comment body, counted in characters.
const MaxCommentLength = 5000

// Comment is a note left on an issue. Comments are never edited.
type Comment struct {
	ID        int64     `gorm:"primaryKey" bson:"_id" json:"id"`
	IssueID   int64     `gorm:"not null;index" bson:"issueId" json:"issueId"`
	Issue     *Issue    `gorm:"constraint:OnDelete:CASCADE" bson:"-" json:"-"`
	UserID    int64     `gorm:"not null;index" bson:"userId" json:"userId"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" bson:"-" json:"-"`
	Body      string    `gorm:"type:text;not null" bson:"body" json:"body"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
