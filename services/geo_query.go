package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"citysnap-be/models"
	"citysnap-be/store"

	"github.com/rs/zerolog"
)

// PublicPageSize is the fixed page size of the public feed.
const PublicPageSize = 20

// MaxPublicPage bounds the page number so the row offset fits in 32 bits.
const MaxPublicPage = math.MaxInt32 / PublicPageSize

var boundsKeys = []string{"south", "west", "north", "east"}

// PublicFilter selects a page of the public feed. Bounds is the raw JSON
// viewport sent by the map; Page is 1-based.
type PublicFilter struct {
	Status     string
	CategoryID *int64
	Bounds     string
	Page       int
}

// PublicPage is one page of located issues, newest first.
type PublicPage struct {
	Items    []IssueView `json:"items"`
	Page     int         `json:"page"`
	HasMore  bool        `json:"hasMore"`
	NextPage *int        `json:"nextPage,omitempty"`
}

// GeoQuery serves the public map feed.
type GeoQuery struct {
	store store.Reader
	log   zerolog.Logger
}

func NewGeoQuery(r store.Reader, log zerolog.Logger) *GeoQuery {
	return &GeoQuery{store: r, log: log}
}

// ParseBounds decodes a {south, west, north, east} viewport. Every value must
// be a number, coordinates must be in range and south may not exceed north.
// An empty string yields nil bounds.
func ParseBounds(raw string) (*models.Bounds, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("parse bounds: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("bounds must be an object")
	}
	for _, k := range boundsKeys {
		if _, ok := doc[k]; !ok {
			return nil, fmt.Errorf("bounds missing %q", k)
		}
	}
	vals := make(map[string]float64, len(doc))
	for k, v := range doc {
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("bounds %q is not numeric", k)
		}
		vals[k] = f
	}

	b := &models.Bounds{South: vals["south"], West: vals["west"], North: vals["north"], East: vals["east"]}
	switch {
	case b.South < -90 || b.South > 90 || b.North < -90 || b.North > 90:
		return nil, fmt.Errorf("bounds latitude out of range")
	case b.West < -180 || b.West > 180 || b.East < -180 || b.East > 180:
		return nil, fmt.Errorf("bounds longitude out of range")
	case b.South > b.North:
		return nil, fmt.Errorf("bounds south %v is north of %v", b.South, b.North)
	}
	return b, nil
}

// ListPublic returns a page of issues with a complete location. Bounds that
// fail to parse are logged and ignored; the other filters still apply.
func (g *GeoQuery) ListPublic(ctx context.Context, f PublicFilter) (*PublicPage, error) {
	status, err := parseStatusFilter(f.Status)
	if err != nil {
		return nil, err
	}
	page := f.Page
	switch {
	case page < 1:
		page = 1
	case page > MaxPublicPage:
		page = MaxPublicPage
	}

	q := store.IssueQuery{
		Status:      status,
		CategoryID:  f.CategoryID,
		LocatedOnly: true,
		Offset:      (page - 1) * PublicPageSize,
		Limit:       PublicPageSize + 1,
	}
	bounds, err := ParseBounds(f.Bounds)
	if err != nil {
		g.log.Warn().Err(err).Str("bounds", f.Bounds).Msg("ignoring invalid bounds")
	} else {
		q.Bounds = bounds
	}

	issues, err := g.store.ListIssues(ctx, q)
	if err != nil {
		return nil, err
	}
	out := &PublicPage{Page: page}
	if len(issues) > PublicPageSize {
		issues = issues[:PublicPageSize]
		next := page + 1
		out.HasMore, out.NextPage = true, &next
	}

	tree, err := loadTree(ctx, g.store)
	if err != nil {
		return nil, err
	}
	out.Items = viewIssues(issues, tree)
	return out, nil
}
