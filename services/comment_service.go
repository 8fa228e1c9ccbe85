package services

import (
	"context"
	"strings"
	"time"

	"citysnap-be/models"
	"citysnap-be/store"

	"github.com/rs/zerolog"
)

type commentInput struct {
	Body string `json:"body" validate:"required,max=5000"`
}

// CommentWrite is the outcome of posting a comment. Close is set when the
// caller asked for the issue to be closed, recording whether that happened.
type CommentWrite struct {
	Comment     *models.Comment    `json:"comment"`
	IssueStatus models.IssueStatus `json:"issueStatus"`
	Close       *FieldDecision     `json:"close,omitempty"`
}

// CommentService gates comment writes on issue state and actor role.
type CommentService struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewCommentService(s store.Store, log zerolog.Logger) *CommentService {
	return &CommentService{store: s, log: log, now: time.Now}
}

// Create posts body on issue issueID. Staff may close the issue in the same
// transaction with closeRequested; a citizen's close request is ignored.
func (s *CommentService) Create(ctx context.Context, actor *Actor, issueID int64, body string, closeRequested bool) (*CommentWrite, error) {
	if err := requireActor(actor, "comment"); err != nil {
		return nil, err
	}
	in := commentInput{Body: strings.TrimSpace(body)}

	var (
		out       *CommentWrite
		oldStatus models.IssueStatus
	)
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		issue, err := tx.GetIssue(ctx, issueID)
		if err != nil {
			return err
		}
		if issue.IsClosed() {
			return &ClosedIssueError{IssueID: issueID}
		}
		verr := &ValidationError{}
		if err := validateInto(in, verr); err != nil {
			return err
		}
		if err := verr.OrNil(); err != nil {
			return err
		}

		c := &models.Comment{
			IssueID:   issueID,
			UserID:    actor.UserID,
			Body:      in.Body,
			CreatedAt: s.now().UTC(),
		}
		if err := tx.CreateComment(ctx, c); err != nil {
			return err
		}
		out = &CommentWrite{Comment: c, IssueStatus: issue.Status}
		oldStatus = issue.Status

		if !closeRequested {
			return nil
		}
		if !actor.IsStaff() {
			out.Close = &FieldDecision{Field: FieldStatus, Decision: Dropped}
			return nil
		}
		if err := issue.SetStatus(models.Closed); err != nil {
			return err
		}
		issue.UpdatedAt = s.now().UTC()
		if err := tx.UpdateIssue(ctx, issue); err != nil {
			return err
		}
		out.IssueStatus = issue.Status
		out.Close = &FieldDecision{Field: FieldStatus, Decision: Applied}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out.IssueStatus != oldStatus {
		s.log.Info().
			Str("audit", "issue_status_change").
			Int64("issue_id", issueID).
			Int64("actor_id", actor.UserID).
			Str("old_status", string(oldStatus)).
			Str("new_status", string(out.IssueStatus)).
			Msg("issue closed from comment")
	}
	return out, nil
}

// Delete removes comment commentID from issue issueID. The author and staff
// may delete; a comment on another issue is treated as missing.
func (s *CommentService) Delete(ctx context.Context, actor *Actor, issueID, commentID int64) error {
	if err := requireActor(actor, "delete comment"); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(tx store.Tx) error {
		c, err := tx.GetComment(ctx, commentID)
		if err != nil {
			return err
		}
		if c.IssueID != issueID {
			return ErrNotFound
		}
		if !actor.Owns(c.UserID) && !actor.IsStaff() {
			return &AuthorizationError{Action: "delete comment", Reason: "only the author or an officer may delete this comment"}
		}
		return tx.DeleteComment(ctx, commentID)
	})
}

// List returns the comments on issue issueID, oldest first, if actor may view
// the issue.
func (s *CommentService) List(ctx context.Context, actor *Actor, issueID int64) ([]models.Comment, error) {
	issue, err := s.store.GetIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if !CanView(actor, issue) {
		return nil, &AuthorizationError{Action: "view comments", Reason: "issue is not public"}
	}
	return s.store.ListComments(ctx, issueID)
}
