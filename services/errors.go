package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"citysnap-be/store"
)

// ErrNotFound is returned when the addressed record does not exist.
var ErrNotFound = store.ErrNotFound

// ErrClosedIssue is matched by every *ClosedIssueError.
var ErrClosedIssue = errors.New("cannot add comments to a closed issue")

// ValidationError collects field-scoped messages. Several may co-occur.
type ValidationError struct {
	Fields map[string][]string `json:"errors"`
}

// Add appends msg under field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Empty reports whether no message has been recorded.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// OrNil returns e as an error, or nil when nothing was recorded.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+strings.Join(e.Fields[k], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AuthorizationError means the record exists but the actor may not act on it.
type AuthorizationError struct {
	Action string
	Reason string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not authorized to %s: %s", e.Action, e.Reason)
}

// StructuralKind names the taxonomy invariant a category write would break.
type StructuralKind string

const (
	CycleViolation     StructuralKind = "cycle"
	HasIssuesViolation StructuralKind = "has_issues"
)

// StructuralError is a rejected category write. The tree is left unchanged.
type StructuralError struct {
	Kind       StructuralKind
	CategoryID int64
}

func (e *StructuralError) Error() string {
	switch e.Kind {
	case CycleViolation:
		return fmt.Sprintf("category %d: parent cannot be a circular reference", e.CategoryID)
	case HasIssuesViolation:
		return fmt.Sprintf("category %d: cannot delete while issues are assigned to it or its subcategories", e.CategoryID)
	}
	return fmt.Sprintf("category %d: structural violation %q", e.CategoryID, e.Kind)
}

// ClosedIssueError is returned when commenting on a closed issue.
type ClosedIssueError struct {
	IssueID int64
}

func (e *ClosedIssueError) Error() string {
	return fmt.Sprintf("issue %d: %s", e.IssueID, ErrClosedIssue)
}

func (e *ClosedIssueError) Unwrap() error { return ErrClosedIssue }

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
