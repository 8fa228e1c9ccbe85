// Package gormstore implements store.Store on gorm, backed by PostgreSQL in
// production and SQLite in tests and local development.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"citysnap-be/models"
	"citysnap-be/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store wraps a *gorm.DB. The same type serves as the transaction handle.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)
var _ store.Tx = (*Store)(nil)

// New returns a Store over db. Call Migrate before first use.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the schema, foreign keys included.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Issue{},
		&models.Comment{},
	)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}

// Users

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).Create(u).Error
}

// Categories

// LockTaxonomy takes a self-conflicting lock on the categories table, so a
// second caller waits for the first to commit. Plain reads are not blocked.
// SQLite already admits a single writer and needs nothing.
func (s *Store) LockTaxonomy(ctx context.Context) error {
	if s.db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := s.db.WithContext(ctx).Exec("LOCK TABLE categories IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
		return fmt.Errorf("lock taxonomy: %w", err)
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := s.db.WithContext(ctx).Order("position asc, name asc, id asc").Find(&cats).Error
	return cats, err
}

func (s *Store) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	var c models.Category
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *Store) CountIssuesInCategories(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Issue{}).Where("category_id IN ?", ids).Count(&n).Error
	return n, err
}

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error
}

func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) error {
	res := s.db.WithContext(ctx).Model(c).Omit(clause.Associations).
		Select("name", "description", "parent_id", "position", "active", "updated_at").
		Updates(c)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteCategories(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		res := s.db.WithContext(ctx).Delete(&models.Category{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete category %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
	}
	return nil
}

// Issues

func (s *Store) GetIssue(ctx context.Context, id int64) (*models.Issue, error) {
	var i models.Issue
	if err := s.db.WithContext(ctx).First(&i, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &i, nil
}

func (s *Store) ListIssues(ctx context.Context, q store.IssueQuery) ([]models.Issue, error) {
	tx := s.db.WithContext(ctx).Model(&models.Issue{})
	if q.LocatedOnly {
		tx = tx.Where("latitude IS NOT NULL AND longitude IS NOT NULL AND street_address IS NOT NULL AND street_address <> ''")
	}
	if q.OwnerID != nil {
		tx = tx.Where("user_id = ?", *q.OwnerID)
	}
	if q.Status != nil {
		tx = tx.Where("status = ?", *q.Status)
	}
	if q.CategoryID != nil {
		tx = tx.Where("category_id = ?", *q.CategoryID)
	}
	if b := q.Bounds; b != nil {
		tx = tx.Where("latitude >= ? AND latitude <= ? AND longitude >= ? AND longitude <= ?",
			b.South, b.North, b.West, b.East)
	}
	tx = tx.Order("created_at desc").Order("id desc")
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var issues []models.Issue
	if err := tx.Find(&issues).Error; err != nil {
		return nil, err
	}
	return issues, nil
}

func (s *Store) CreateIssue(ctx context.Context, i *models.Issue) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(i).Error
}

func (s *Store) UpdateIssue(ctx context.Context, i *models.Issue) error {
	res := s.db.WithContext(ctx).Model(i).Omit(clause.Associations).
		Select("description", "category_id", "latitude", "longitude", "street_address", "status", "photo_ref", "updated_at").
		Updates(i)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteIssue(ctx context.Context, id int64) error {
	if err := s.db.WithContext(ctx).Where("issue_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Delete(&models.Issue{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Comments

func (s *Store) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	var c models.Comment
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *Store) ListComments(ctx context.Context, issueID int64) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).Where("issue_id = ?", issueID).
		Order("created_at asc").Order("id asc").Find(&comments).Error
	return comments, err
}

func (s *Store) CountComments(ctx context.Context, issueID int64) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Comment{}).Where("issue_id = ?", issueID).Count(&n).Error
	return n, err
}

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error
}

func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
