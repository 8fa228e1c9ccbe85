package gormstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"citysnap-be/models"
	"citysnap-be/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)

	s := New(db)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedUser(t *testing.T, s *Store) *models.User {
	t.Helper()
	u := &models.User{Name: "Pat", Email: "pat@example.com", Role: models.Citizen}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s)

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "pat@example.com", got.Email)

	got, err = s.FindUserByEmail(ctx, "pat@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.GetUser(ctx, 999)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.FindUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCategoriesPersistInactive(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	root := &models.Category{Name: "Vehicles", Active: true}
	require.NoError(t, s.CreateCategory(ctx, root))
	child := &models.Category{Name: "Parking", ParentID: &root.ID, Position: 2, Active: false}
	require.NoError(t, s.CreateCategory(ctx, child))

	got, err := s.GetCategory(ctx, child.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, root.ID, *got.ParentID)

	got.Name = "Parking lots"
	got.ParentID = nil
	require.NoError(t, s.UpdateCategory(ctx, got))
	got, err = s.GetCategory(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, "Parking lots", got.Name)
	assert.Nil(t, got.ParentID)

	assert.ErrorIs(t, s.UpdateCategory(ctx, &models.Category{ID: 999, Name: "x"}), store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteCategories(ctx, []int64{999}), store.ErrNotFound)
}

func TestCategoryWithIssueCannotBeDeleted(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s)
	c := &models.Category{Name: "Hydrant", Active: true}
	require.NoError(t, s.CreateCategory(ctx, c))
	require.NoError(t, s.CreateIssue(ctx, &models.Issue{UserID: u.ID, CategoryID: &c.ID, Status: models.Received}))

	n, err := s.CountIssuesInCategories(ctx, []int64{c.ID, 12345})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// the foreign key backs up the service-level check
	assert.Error(t, s.DeleteCategories(ctx, []int64{c.ID}))
}

func TestListIssuesFiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s)

	base := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	lat, lng, addr := 40.7128, -74.0060, "New York"
	farLat, farLng, farAddr := 41.8781, -87.6298, "Chicago"
	blank := ""
	issues := []*models.Issue{
		{UserID: u.ID, Status: models.Received, Latitude: &lat, Longitude: &lng, StreetAddress: &addr, CreatedAt: base},
		{UserID: u.ID, Status: models.Assigned, Latitude: &farLat, Longitude: &farLng, StreetAddress: &farAddr, CreatedAt: base.Add(time.Hour)},
		{UserID: u.ID, Status: models.Received, Latitude: &lat, Longitude: &lng, StreetAddress: &blank, CreatedAt: base.Add(2 * time.Hour)},
		{UserID: u.ID, Status: models.Received, CreatedAt: base.Add(time.Hour)},
	}
	for _, i := range issues {
		require.NoError(t, s.CreateIssue(ctx, i))
	}

	all, err := s.ListIssues(ctx, store.IssueQuery{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, issues[2].ID, all[0].ID)
	// equal timestamps fall back to id descending
	assert.Equal(t, issues[3].ID, all[1].ID)
	assert.Equal(t, issues[1].ID, all[2].ID)

	located, err := s.ListIssues(ctx, store.IssueQuery{LocatedOnly: true})
	require.NoError(t, err)
	assert.Len(t, located, 2)

	inBox, err := s.ListIssues(ctx, store.IssueQuery{LocatedOnly: true, Bounds: &models.Bounds{South: 40.70, West: -74.02, North: 40.72, East: -74.00}})
	require.NoError(t, err)
	require.Len(t, inBox, 1)
	assert.Equal(t, issues[0].ID, inBox[0].ID)

	assigned := models.Assigned
	byStatus, err := s.ListIssues(ctx, store.IssueQuery{Status: &assigned})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)

	paged, err := s.ListIssues(ctx, store.IssueQuery{Offset: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, paged, 2)
	assert.Equal(t, issues[3].ID, paged[0].ID)
}

func TestDeleteIssueRemovesComments(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s)
	i := &models.Issue{UserID: u.ID, Status: models.Received}
	require.NoError(t, s.CreateIssue(ctx, i))
	for _, body := range []string{"one", "two"} {
		require.NoError(t, s.CreateComment(ctx, &models.Comment{IssueID: i.ID, UserID: u.ID, Body: body}))
	}

	comments, err := s.ListComments(ctx, i.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "one", comments[0].Body)

	require.NoError(t, s.DeleteIssue(ctx, i.ID))
	n, err := s.CountComments(ctx, i.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.ErrorIs(t, s.DeleteIssue(ctx, i.ID), store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteComment(ctx, comments[0].ID), store.ErrNotFound)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.CreateCategory(ctx, &models.Category{Name: "Temp", Active: true}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats)
}
