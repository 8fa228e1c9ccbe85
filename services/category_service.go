package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"citysnap-be/models"
	"citysnap-be/store"

	"github.com/rs/zerolog"
)

// CategoryInput is the editable state of a category. Update replaces all of
// it except Active, which is kept when nil.
type CategoryInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description"`
	ParentID    *int64  `json:"parentId"`
	Position    *int    `json:"position" validate:"required,gte=0"`
	Active      *bool   `json:"active"`
}

// CategoryView is a category with its position in the taxonomy resolved.
type CategoryView struct {
	models.Category
	Level     int               `json:"level"`
	Leaf      bool              `json:"leaf"`
	FullName  string            `json:"fullName"`
	Ancestors []models.Category `json:"ancestors"`
	Children  []models.Category `json:"children"`
}

// CategoryService owns the taxonomy and its structural invariants.
type CategoryService struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewCategoryService(s store.Store, log zerolog.Logger) *CategoryService {
	return &CategoryService{store: s, log: log, now: time.Now}
}

func loadTree(ctx context.Context, r store.Reader) (*Tree, error) {
	cats, err := r.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	return NewTree(cats), nil
}

// lockedTree reads the tree for a write that is validated against it.
func lockedTree(ctx context.Context, tx store.Tx) (*Tree, error) {
	if err := tx.LockTaxonomy(ctx); err != nil {
		return nil, err
	}
	return loadTree(ctx, tx)
}

func (s *CategoryService) validateInput(in *CategoryInput) *ValidationError {
	in.Name = strings.TrimSpace(in.Name)
	verr := &ValidationError{}
	if err := validateInto(in, verr); err != nil {
		verr.Add("base", err.Error())
	}
	return verr
}

// Create inserts a category under an existing parent, or as a root.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	var created *models.Category
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		verr := s.validateInput(&in)
		tree, err := lockedTree(ctx, tx)
		if err != nil {
			return err
		}
		if in.ParentID != nil {
			if _, ok := tree.Get(*in.ParentID); !ok {
				verr.Add("parentId", "does not exist")
			}
		}
		if err := verr.OrNil(); err != nil {
			return err
		}

		cat := &models.Category{
			Name:        in.Name,
			Description: in.Description,
			ParentID:    in.ParentID,
			Position:    *in.Position,
			Active:      true,
		}
		if in.Active != nil {
			cat.Active = *in.Active
		}
		now := s.now().UTC()
		cat.CreatedAt, cat.UpdatedAt = now, now
		if err := tx.CreateCategory(ctx, cat); err != nil {
			return err
		}
		created = cat
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update rewrites a category, re-parenting it when ParentID changes. The
// cycle check runs against the tree read under the taxonomy lock.
func (s *CategoryService) Update(ctx context.Context, id int64, in CategoryInput) (*models.Category, error) {
	var updated *models.Category
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		verr := s.validateInput(&in)
		tree, err := lockedTree(ctx, tx)
		if err != nil {
			return err
		}
		current, ok := tree.Get(id)
		if !ok {
			return ErrNotFound
		}
		if in.ParentID != nil {
			if _, ok := tree.Get(*in.ParentID); !ok {
				verr.Add("parentId", "does not exist")
			}
		}
		if err := verr.OrNil(); err != nil {
			return err
		}
		if err := tree.ValidateNoCycle(id, in.ParentID); err != nil {
			return err
		}

		cat := *current
		cat.Name = in.Name
		cat.Description = in.Description
		cat.ParentID = in.ParentID
		cat.Position = *in.Position
		if in.Active != nil {
			cat.Active = *in.Active
		}
		cat.UpdatedAt = s.now().UTC()
		if err := tx.UpdateCategory(ctx, &cat); err != nil {
			return err
		}
		updated = &cat
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a category and its whole sub-tree. It is refused, leaving the
// tree untouched, while any category in the sub-tree holds an issue.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	var removed []int64
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		tree, err := lockedTree(ctx, tx)
		if err != nil {
			return err
		}
		ids := tree.SubtreeIDs(id)
		if len(ids) == 0 {
			return ErrNotFound
		}
		n, err := tx.CountIssuesInCategories(ctx, ids)
		if err != nil {
			return err
		}
		if n > 0 {
			return &StructuralError{Kind: HasIssuesViolation, CategoryID: id}
		}

		leavesFirst := make([]int64, len(ids))
		for i, cid := range ids {
			leavesFirst[len(ids)-1-i] = cid
		}
		if err := tx.DeleteCategories(ctx, leavesFirst); err != nil {
			return err
		}
		removed = leavesFirst
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info().Int64("category_id", id).Ints64("removed", removed).Msg("category sub-tree deleted")
	return nil
}

// CanDelete reports whether Delete would succeed for id.
func (s *CategoryService) CanDelete(ctx context.Context, id int64) (bool, error) {
	tree, err := loadTree(ctx, s.store)
	if err != nil {
		return false, err
	}
	ids := tree.SubtreeIDs(id)
	if len(ids) == 0 {
		return false, ErrNotFound
	}
	n, err := s.store.CountIssuesInCategories(ctx, ids)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// Get returns one category with level, leaf flag, full name and neighbours.
func (s *CategoryService) Get(ctx context.Context, id int64) (*CategoryView, error) {
	tree, err := loadTree(ctx, s.store)
	if err != nil {
		return nil, err
	}
	return viewOf(tree, id)
}

func viewOf(tree *Tree, id int64) (*CategoryView, error) {
	c, ok := tree.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &CategoryView{
		Category:  *c,
		Level:     tree.Level(id),
		Leaf:      tree.IsLeaf(id),
		FullName:  tree.FullName(id, DefaultSeparator),
		Ancestors: tree.Ancestors(id),
		Children:  tree.Children(id),
	}, nil
}

// Tree returns the nested taxonomy.
func (s *CategoryService) Tree(ctx context.Context) ([]*TreeNode, error) {
	tree, err := loadTree(ctx, s.store)
	if err != nil {
		return nil, err
	}
	return tree.Build(), nil
}

// Leaves returns the categories an issue may be filed under, with full names.
func (s *CategoryService) Leaves(ctx context.Context, activeOnly bool) ([]CategoryView, error) {
	tree, err := loadTree(ctx, s.store)
	if err != nil {
		return nil, err
	}
	leaves := tree.Leaves(activeOnly)
	out := make([]CategoryView, 0, len(leaves))
	for _, l := range leaves {
		v, err := viewOf(tree, l.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}
