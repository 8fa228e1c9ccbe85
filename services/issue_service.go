package services

import (
	"context"
	"errors"
	"time"

	"citysnap-be/models"
	"citysnap-be/store"

	"github.com/rs/zerolog"
)

const uncategorized = "Uncategorized"

// IssueView is an issue as shown to a reader.
type IssueView struct {
	models.Issue
	CategoryFullName string `json:"categoryFullName"`
}

// IssueWrite is the outcome of a successful create or update.
type IssueWrite struct {
	Issue     *models.Issue   `json:"issue"`
	Decisions []FieldDecision `json:"decisions"`
}

// MineFilter narrows an owner's issue index.
type MineFilter struct {
	Status     string
	CategoryID *int64
}

// IssueService runs issue writes as single transactions.
type IssueService struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewIssueService(s store.Store, log zerolog.Logger) *IssueService {
	return &IssueService{store: s, log: log, now: time.Now}
}

func requireActor(actor *Actor, action string) error {
	if actor == nil {
		return &AuthorizationError{Action: action, Reason: "authentication required"}
	}
	return nil
}

// treeFor loads the taxonomy only when the issue points at a category.
func treeFor(ctx context.Context, r store.Reader, issue *models.Issue) (*Tree, error) {
	if issue.CategoryID == nil {
		return nil, nil
	}
	return loadTree(ctx, r)
}

// lockedTreeFor is treeFor for a write whose category check must hold
// until commit.
func lockedTreeFor(ctx context.Context, tx store.Tx, issue *models.Issue) (*Tree, error) {
	if issue.CategoryID == nil {
		return nil, nil
	}
	return lockedTree(ctx, tx)
}

// Create files a new issue owned by actor. Status starts as received and a
// citizen's requested status is dropped.
func (s *IssueService) Create(ctx context.Context, actor *Actor, cs ChangeSet) (*IssueWrite, error) {
	if err := requireActor(actor, "create issue"); err != nil {
		return nil, err
	}
	filtered, decisions := FilterForRole(actor.Role, cs)

	var issue *models.Issue
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		issue = &models.Issue{UserID: actor.UserID, Status: models.Received}
		tree, err := lockedTreeFor(ctx, tx, &models.Issue{CategoryID: filtered.CategoryID})
		if err != nil {
			return err
		}
		if verr := Apply(issue, filtered, tree); !verr.Empty() {
			return verr
		}
		now := s.now().UTC()
		issue.CreatedAt, issue.UpdatedAt = now, now
		return tx.CreateIssue(ctx, issue)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("issue_id", issue.ID).Int64("user_id", actor.UserID).Msg("issue created")
	return &IssueWrite{Issue: issue, Decisions: decisions}, nil
}

// Update applies cs to issue id on behalf of actor. The owner and staff may
// edit; only staff changes reach the status.
func (s *IssueService) Update(ctx context.Context, actor *Actor, id int64, cs ChangeSet) (*IssueWrite, error) {
	if err := requireActor(actor, "update issue"); err != nil {
		return nil, err
	}
	filtered, decisions := FilterForRole(actor.Role, cs)

	var (
		updated   models.Issue
		oldStatus models.IssueStatus
	)
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		current, err := tx.GetIssue(ctx, id)
		if err != nil {
			return err
		}
		if !CanEdit(actor, current) {
			return &AuthorizationError{Action: "update issue", Reason: "only the owner or an officer may edit this issue"}
		}
		oldStatus = current.Status

		updated = *current
		target := updated
		if filtered.ClearCategory {
			target.CategoryID = nil
		}
		if filtered.CategoryID != nil {
			target.CategoryID = filtered.CategoryID
		}
		tree, err := lockedTreeFor(ctx, tx, &target)
		if err != nil {
			return err
		}
		if verr := Apply(&updated, filtered, tree); !verr.Empty() {
			return verr
		}
		updated.UpdatedAt = s.now().UTC()
		return tx.UpdateIssue(ctx, &updated)
	})
	if err != nil {
		return nil, err
	}
	if updated.Status != oldStatus {
		s.log.Info().
			Str("audit", "issue_status_change").
			Int64("issue_id", updated.ID).
			Int64("actor_id", actor.UserID).
			Str("old_status", string(oldStatus)).
			Str("new_status", string(updated.Status)).
			Msg("issue status changed")
	}
	return &IssueWrite{Issue: &updated, Decisions: decisions}, nil
}

// Delete removes issue id and its comments. Only the owner may delete.
func (s *IssueService) Delete(ctx context.Context, actor *Actor, id int64) error {
	if err := requireActor(actor, "delete issue"); err != nil {
		return err
	}
	var (
		deleted    *models.Issue
		ownerEmail string
	)
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		issue, err := tx.GetIssue(ctx, id)
		if err != nil {
			return err
		}
		if !CanDelete(actor, issue) {
			return &AuthorizationError{Action: "delete issue", Reason: "only the owner may delete this issue"}
		}
		owner, err := tx.GetUser(ctx, issue.UserID)
		switch {
		case err == nil:
			ownerEmail = owner.Email
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
		deleted = issue
		return tx.DeleteIssue(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info().
		Str("audit", "issue_deletion").
		Int64("issue_id", deleted.ID).
		Str("issue_status", string(deleted.Status)).
		Int64("issue_owner_id", deleted.UserID).
		Str("issue_owner", ownerEmail).
		Msg("issue deleted")
	return nil
}

// Get returns issue id if actor may view it. An issue without a complete
// location is private to its owner and staff.
func (s *IssueService) Get(ctx context.Context, actor *Actor, id int64) (*IssueView, error) {
	issue, err := s.store.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanView(actor, issue) {
		return nil, &AuthorizationError{Action: "view issue", Reason: "issue is not public"}
	}
	tree, err := treeFor(ctx, s.store, issue)
	if err != nil {
		return nil, err
	}
	return viewIssue(*issue, tree), nil
}

// ListMine returns actor's own issues, newest first.
func (s *IssueService) ListMine(ctx context.Context, actor *Actor, f MineFilter) ([]IssueView, error) {
	if err := requireActor(actor, "list issues"); err != nil {
		return nil, err
	}
	q := store.IssueQuery{OwnerID: &actor.UserID, CategoryID: f.CategoryID}
	status, err := parseStatusFilter(f.Status)
	if err != nil {
		return nil, err
	}
	q.Status = status

	issues, err := s.store.ListIssues(ctx, q)
	if err != nil {
		return nil, err
	}
	tree, err := loadTree(ctx, s.store)
	if err != nil {
		return nil, err
	}
	return viewIssues(issues, tree), nil
}

func parseStatusFilter(raw string) (*models.IssueStatus, error) {
	if raw == "" {
		return nil, nil
	}
	s, err := models.ParseIssueStatus(raw)
	if err != nil {
		verr := &ValidationError{}
		verr.Add(string(FieldStatus), msgStatusInclusion)
		return nil, verr
	}
	return &s, nil
}

func viewIssue(issue models.Issue, tree *Tree) *IssueView {
	v := &IssueView{Issue: issue, CategoryFullName: uncategorized}
	if issue.CategoryID != nil && tree != nil {
		if name := tree.FullName(*issue.CategoryID, DefaultSeparator); name != "" {
			v.CategoryFullName = name
		}
	}
	return v
}

func viewIssues(issues []models.Issue, tree *Tree) []IssueView {
	out := make([]IssueView, 0, len(issues))
	for _, i := range issues {
		out = append(out, *viewIssue(i, tree))
	}
	return out
}
