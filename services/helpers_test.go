package services

import (
	"context"
	"testing"
	"time"

	"citysnap-be/models"
	"citysnap-be/store/gormstore"
	"citysnap-be/store/storetest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *gormstore.Store {
	return storetest.SQLite(t)
}

// clock hands out strictly increasing times so ordering tests are stable.
type clock struct{ t time.Time }

func newClock() *clock {
	return &clock{t: time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

// fixture holds services over one in-memory store plus a small taxonomy:
//
//	Vehicles > Parking > Blocked fire hydrant
//	Vehicles > Parking > Parking in crosswalk
//	Vehicles > Traffic
type fixture struct {
	ctx        context.Context
	store      *gormstore.Store
	categories *CategoryService
	issues     *IssueService
	comments   *CommentService
	geo        *GeoQuery
	users      *UserService

	citizen, neighbour, officer, admin *Actor

	vehicles, parking, traffic, hydrant, crosswalk int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := newTestStore(t)
	log := zerolog.Nop()
	clk := newClock()

	f := &fixture{
		ctx:        context.Background(),
		store:      s,
		categories: NewCategoryService(s, log),
		issues:     NewIssueService(s, log),
		comments:   NewCommentService(s, log),
		geo:        NewGeoQuery(s, log),
		users:      NewUserService(s, log),
	}
	f.categories.now = clk.Now
	f.issues.now = clk.Now
	f.comments.now = clk.Now
	f.users.now = clk.Now

	f.citizen = f.user(t, "citizen@example.com", models.Citizen)
	f.neighbour = f.user(t, "neighbour@example.com", models.Citizen)
	f.officer = f.user(t, "officer@example.com", models.Officer)
	f.admin = f.user(t, "admin@example.com", models.Admin)

	f.vehicles = f.category(t, "Vehicles", nil, 0)
	f.parking = f.category(t, "Parking", &f.vehicles, 0)
	f.traffic = f.category(t, "Traffic", &f.vehicles, 1)
	f.hydrant = f.category(t, "Blocked fire hydrant", &f.parking, 0)
	f.crosswalk = f.category(t, "Parking in crosswalk", &f.parking, 1)
	return f
}

func (f *fixture) user(t *testing.T, email string, role models.Role) *Actor {
	t.Helper()
	u, _, err := f.users.Ensure(f.ctx, UserInput{Name: email, Email: email, Role: role})
	require.NoError(t, err)
	return &Actor{UserID: u.ID, Role: u.Role}
}

func (f *fixture) category(t *testing.T, name string, parent *int64, pos int) int64 {
	t.Helper()
	c, err := f.categories.Create(f.ctx, CategoryInput{Name: name, ParentID: parent, Position: &pos})
	require.NoError(t, err)
	return c.ID
}

// located returns a change-set with a full location triple.
func located(lat, lng float64, addr string) ChangeSet {
	return ChangeSet{Latitude: &lat, Longitude: &lng, StreetAddress: &addr}
}

func (f *fixture) issue(t *testing.T, actor *Actor, cs ChangeSet) *models.Issue {
	t.Helper()
	out, err := f.issues.Create(f.ctx, actor, cs)
	require.NoError(t, err)
	return out.Issue
}

func ptr[T any](v T) *T { return &v }

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}
