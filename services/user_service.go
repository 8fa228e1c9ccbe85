package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"citysnap-be/models"
	"citysnap-be/store"

	"github.com/rs/zerolog"
)

// UserInput describes a user record. Credentials live with the identity
// provider, not here.
type UserInput struct {
	Name  string      `json:"name" validate:"required,max=255"`
	Email string      `json:"email" validate:"required,email"`
	Role  models.Role `json:"role" validate:"required"`
}

type UserService struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewUserService(s store.Store, log zerolog.Logger) *UserService {
	return &UserService{store: s, log: log, now: time.Now}
}

// Ensure returns the user with in.Email, creating it when missing. An existing
// user is returned unchanged.
func (s *UserService) Ensure(ctx context.Context, in UserInput) (*models.User, bool, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	verr := &ValidationError{}
	if err := validateInto(in, verr); err != nil {
		return nil, false, err
	}
	if in.Role != "" && !in.Role.Valid() {
		verr.Add("role", "is not included in the list")
	}
	if err := verr.OrNil(); err != nil {
		return nil, false, err
	}

	var (
		user    *models.User
		created bool
	)
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		existing, err := tx.FindUserByEmail(ctx, in.Email)
		if err == nil {
			user = existing
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		now := s.now().UTC()
		user = &models.User{Name: in.Name, Email: in.Email, Role: in.Role, CreatedAt: now, UpdatedAt: now}
		created = true
		return tx.CreateUser(ctx, user)
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		s.log.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("user created")
	}
	return user, created, nil
}

// Get returns the user with id.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}
