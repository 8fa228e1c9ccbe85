package services

import (
	"math"
	"strings"

	"citysnap-be/models"
)

// Field names a mutable issue attribute as it appears in requests and errors.
type Field string

const (
	FieldDescription   Field = "description"
	FieldCategory      Field = "categoryId"
	FieldLatitude      Field = "latitude"
	FieldLongitude     Field = "longitude"
	FieldStreetAddress Field = "streetAddress"
	FieldPhoto         Field = "photoRef"
	FieldStatus        Field = "status"
)

// Decision is the role filter's verdict on one requested field.
type Decision string

const (
	Applied Decision = "applied"
	Dropped Decision = "dropped"
)

// FieldDecision records what happened to one field of a change-set.
type FieldDecision struct {
	Field    Field    `json:"field"`
	Decision Decision `json:"decision"`
}

// ChangeSet is a requested issue mutation. Nil fields are left alone. Location
// fields merge into the current triple; ClearLocation removes all three first.
type ChangeSet struct {
	Description   *string  `json:"description"`
	CategoryID    *int64   `json:"categoryId"`
	ClearCategory bool     `json:"clearCategory"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	StreetAddress *string  `json:"streetAddress"`
	ClearLocation bool     `json:"clearLocation"`
	PhotoRef      *string  `json:"photoRef"`
	Status        *string  `json:"status"`
}

// Validation messages.
const (
	msgLocationTogether = "All location fields (latitude, longitude, and address) must be provided together"
	msgLatitudeRange    = "must be between -90 and 90"
	msgLongitudeRange   = "must be between -180 and 180"
	msgCategoryMissing  = "does not exist"
	msgCategoryLevel    = "must be a specific issue type (level 3)"
	msgCategoryLeaf     = "must be a leaf category (cannot have subcategories)"
	msgStatusInclusion  = "is not included in the list"
)

// FilterForRole applies the field allow-list for role. Staff may set every
// field; anyone else has a requested status dropped. The returned decisions
// cover only the fields present in cs.
func FilterForRole(role models.Role, cs ChangeSet) (ChangeSet, []FieldDecision) {
	var decisions []FieldDecision
	mark := func(f Field, present bool) {
		if present {
			decisions = append(decisions, FieldDecision{Field: f, Decision: Applied})
		}
	}
	mark(FieldDescription, cs.Description != nil)
	mark(FieldCategory, cs.CategoryID != nil || cs.ClearCategory)
	mark(FieldLatitude, cs.Latitude != nil || cs.ClearLocation)
	mark(FieldLongitude, cs.Longitude != nil || cs.ClearLocation)
	mark(FieldStreetAddress, cs.StreetAddress != nil || cs.ClearLocation)
	mark(FieldPhoto, cs.PhotoRef != nil)

	if cs.Status != nil {
		if role.IsStaff() {
			decisions = append(decisions, FieldDecision{Field: FieldStatus, Decision: Applied})
		} else {
			decisions = append(decisions, FieldDecision{Field: FieldStatus, Decision: Dropped})
			cs.Status = nil
		}
	}
	return cs, decisions
}

// blankToNil trims s and maps an empty result to nil.
func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// Apply merges an already filtered change-set into issue and validates the
// result: location atomicity, coordinate ranges, category shape, then status.
// Every failure is collected. issue is modified even when validation fails, so
// callers pass a copy they can discard.
func Apply(issue *models.Issue, cs ChangeSet, tree *Tree) *ValidationError {
	verr := &ValidationError{}

	if cs.Description != nil {
		issue.Description = strings.TrimSpace(*cs.Description)
	}
	if cs.PhotoRef != nil {
		issue.PhotoRef = blankToNil(cs.PhotoRef)
	}
	if cs.ClearCategory {
		issue.CategoryID = nil
	}
	if cs.CategoryID != nil {
		id := *cs.CategoryID
		issue.CategoryID = &id
	}

	if cs.ClearLocation {
		issue.Latitude, issue.Longitude, issue.StreetAddress = nil, nil, nil
	}
	if cs.Latitude != nil {
		v := *cs.Latitude
		issue.Latitude = &v
	}
	if cs.Longitude != nil {
		v := *cs.Longitude
		issue.Longitude = &v
	}
	if cs.StreetAddress != nil {
		issue.StreetAddress = blankToNil(cs.StreetAddress)
	}
	issue.StreetAddress = blankToNil(issue.StreetAddress)

	present := 0
	for _, set := range []bool{issue.Latitude != nil, issue.Longitude != nil, issue.StreetAddress != nil} {
		if set {
			present++
		}
	}
	if present != 0 && present != 3 {
		verr.Add("location", msgLocationTogether)
	}

	if lat := issue.Latitude; lat != nil && (math.IsNaN(*lat) || *lat < -90 || *lat > 90) {
		verr.Add(string(FieldLatitude), msgLatitudeRange)
	}
	if lng := issue.Longitude; lng != nil && (math.IsNaN(*lng) || *lng < -180 || *lng > 180) {
		verr.Add(string(FieldLongitude), msgLongitudeRange)
	}

	if issue.CategoryID != nil {
		checkCategory(*issue.CategoryID, tree, verr)
	}

	if cs.Status != nil {
		s, err := models.ParseIssueStatus(*cs.Status)
		if err != nil {
			verr.Add(string(FieldStatus), msgStatusInclusion)
		} else if err := issue.SetStatus(s); err != nil {
			verr.Add(string(FieldStatus), msgStatusInclusion)
		}
	}
	return verr
}

// checkCategory requires id to name an existing level-3 leaf. Level and leaf
// are reported separately.
func checkCategory(id int64, tree *Tree, verr *ValidationError) {
	if tree == nil {
		verr.Add(string(FieldCategory), msgCategoryMissing)
		return
	}
	if _, ok := tree.Get(id); !ok {
		verr.Add(string(FieldCategory), msgCategoryMissing)
		return
	}
	if tree.Level(id) != models.AssignableLevel {
		verr.Add(string(FieldCategory), msgCategoryLevel)
	}
	if !tree.IsLeaf(id) {
		verr.Add(string(FieldCategory), msgCategoryLeaf)
	}
}

// CanEdit reports whether actor may change the fields of issue.
func CanEdit(actor *Actor, issue *models.Issue) bool {
	return actor.IsStaff() || actor.Owns(issue.UserID)
}

// CanDelete reports whether actor may delete issue. Only the owner may.
func CanDelete(actor *Actor, issue *models.Issue) bool {
	return actor.Owns(issue.UserID)
}

// CanView reports whether actor may see issue. Located issues are public.
func CanView(actor *Actor, issue *models.Issue) bool {
	return issue.HasLocation() || CanEdit(actor, issue)
}
