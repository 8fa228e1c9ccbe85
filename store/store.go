// Package store defines the transactional persistence contract the services
// run against. Backends live in the gormstore and mongostore sub-packages.
package store

import (
	"context"
	"errors"

	"citysnap-be/models"
)

// ErrNotFound is returned by every lookup that matches no record.
var ErrNotFound = errors.New("record not found")

// IssueQuery selects issues for listings. Zero values mean "no filter".
type IssueQuery struct {
	OwnerID     *int64
	Status      *models.IssueStatus
	CategoryID  *int64
	Bounds      *models.Bounds
	LocatedOnly bool
	Offset      int
	Limit       int
}

// Reader holds the read side shared by the store and its transactions.
type Reader interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)

	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	CountIssuesInCategories(ctx context.Context, ids []int64) (int64, error)

	GetIssue(ctx context.Context, id int64) (*models.Issue, error)
	// ListIssues orders newest first, ties broken by id descending.
	ListIssues(ctx context.Context, q IssueQuery) ([]models.Issue, error)

	GetComment(ctx context.Context, id int64) (*models.Comment, error)
	// ListComments orders oldest first.
	ListComments(ctx context.Context, issueID int64) ([]models.Comment, error)
	CountComments(ctx context.Context, issueID int64) (int64, error)
}

// Tx is a unit of work. Everything done through it commits or rolls back together.
type Tx interface {
	Reader

	CreateUser(ctx context.Context, u *models.User) error

	// LockTaxonomy serializes the transactions that validate a write against
	// the category tree. Call it before reading the tree; it holds until
	// commit or rollback.
	LockTaxonomy(ctx context.Context) error

	CreateCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, c *models.Category) error
	// DeleteCategories removes ids in the given order; callers pass leaves first.
	DeleteCategories(ctx context.Context, ids []int64) error

	CreateIssue(ctx context.Context, i *models.Issue) error
	UpdateIssue(ctx context.Context, i *models.Issue) error
	// DeleteIssue removes the issue together with its comments.
	DeleteIssue(ctx context.Context, id int64) error

	CreateComment(ctx context.Context, c *models.Comment) error
	DeleteComment(ctx context.Context, id int64) error
}

// Store is a persistence backend.
type Store interface {
	Reader
	// WithTx runs fn in a transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}
