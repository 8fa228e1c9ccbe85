package services

import (
	"math"
	"testing"

	"citysnap-be/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterForRole(t *testing.T) {
	cs := ChangeSet{Description: ptr("pothole"), Status: ptr("closed")}

	filtered, decisions := FilterForRole(models.Citizen, cs)
	assert.Nil(t, filtered.Status)
	assert.Equal(t, "pothole", *filtered.Description)
	assert.Equal(t, []FieldDecision{
		{Field: FieldDescription, Decision: Applied},
		{Field: FieldStatus, Decision: Dropped},
	}, decisions)

	for _, role := range []models.Role{models.Officer, models.Admin} {
		filtered, decisions = FilterForRole(role, cs)
		require.NotNil(t, filtered.Status)
		assert.Contains(t, decisions, FieldDecision{Field: FieldStatus, Decision: Applied})
	}

	_, decisions = FilterForRole(models.Citizen, ChangeSet{ClearLocation: true})
	assert.Len(t, decisions, 3)
}

func TestApplyLocationAtomicity(t *testing.T) {
	lat, lng, addr := 40.7128, -74.0060, "1 Centre St"
	partials := map[string]ChangeSet{
		"lat only":        {Latitude: &lat},
		"lng only":        {Longitude: &lng},
		"address only":    {StreetAddress: &addr},
		"lat and lng":     {Latitude: &lat, Longitude: &lng},
		"lat and address": {Latitude: &lat, StreetAddress: &addr},
		"blank address":   {Latitude: &lat, Longitude: &lng, StreetAddress: ptr("   ")},
	}
	for name, cs := range partials {
		t.Run(name, func(t *testing.T) {
			issue := &models.Issue{Status: models.Received}
			verr := Apply(issue, cs, nil)
			require.False(t, verr.Empty())
			assert.Equal(t, []string{msgLocationTogether}, verr.Fields["location"])
		})
	}

	issue := &models.Issue{Status: models.Received}
	require.True(t, Apply(issue, located(lat, lng, addr), nil).Empty())
	assert.True(t, issue.HasLocation())

	// merging one coordinate into a complete triple keeps it complete
	require.True(t, Apply(issue, ChangeSet{Latitude: ptr(40.0)}, nil).Empty())
	assert.True(t, issue.HasLocation())

	require.True(t, Apply(issue, ChangeSet{ClearLocation: true}, nil).Empty())
	assert.False(t, issue.HasLocation())
	assert.Nil(t, issue.Latitude)
}

func TestApplyCoordinateRanges(t *testing.T) {
	issue := &models.Issue{Status: models.Received}
	verr := Apply(issue, located(91, -181, "nowhere"), nil)
	assert.Equal(t, []string{msgLatitudeRange}, verr.Fields["latitude"])
	assert.Equal(t, []string{msgLongitudeRange}, verr.Fields["longitude"])
	assert.Empty(t, verr.Fields["location"])

	issue = &models.Issue{Status: models.Received}
	verr = Apply(issue, located(math.NaN(), 0, "nowhere"), nil)
	assert.Equal(t, []string{msgLatitudeRange}, verr.Fields["latitude"])

	issue = &models.Issue{Status: models.Received}
	assert.True(t, Apply(issue, located(-90, 180, "edge"), nil).Empty())
}

func TestApplyCategoryShape(t *testing.T) {
	tree := sampleTree()

	cases := map[int64][]string{
		4:  nil,                                 // level 3 leaf
		2:  {msgCategoryLevel, msgCategoryLeaf}, // level 2, has children
		6:  {msgCategoryLevel},                  // level 1 leaf
		1:  {msgCategoryLevel, msgCategoryLeaf}, // root
		99: {msgCategoryMissing},                // unknown
	}
	for id, want := range cases {
		issue := &models.Issue{Status: models.Received}
		verr := Apply(issue, ChangeSet{CategoryID: ptr(id)}, tree)
		assert.Equal(t, want, verr.Fields["categoryId"], "category %d", id)
	}
}

func TestApplyCollectsEveryError(t *testing.T) {
	issue := &models.Issue{Status: models.Received}
	cs := ChangeSet{Latitude: ptr(100.0), CategoryID: ptr(int64(2)), Status: ptr("archived")}
	verr := Apply(issue, cs, sampleTree())

	assert.Len(t, verr.Fields, 4)
	assert.Contains(t, verr.Fields, "location")
	assert.Contains(t, verr.Fields, "latitude")
	assert.Contains(t, verr.Fields, "categoryId")
	assert.Equal(t, []string{msgStatusInclusion}, verr.Fields["status"])
	assert.Equal(t, models.Received, issue.Status, "invalid status never stored")
}

func TestAuthorizationHelpers(t *testing.T) {
	owner := &Actor{UserID: 1, Role: models.Citizen}
	other := &Actor{UserID: 2, Role: models.Citizen}
	officer := &Actor{UserID: 3, Role: models.Officer}

	private := &models.Issue{UserID: 1}
	public := &models.Issue{UserID: 1, Latitude: ptr(1.0), Longitude: ptr(1.0), StreetAddress: ptr("x")}

	assert.True(t, CanEdit(owner, private))
	assert.True(t, CanEdit(officer, private))
	assert.False(t, CanEdit(other, private))
	assert.False(t, CanEdit(nil, private))

	assert.True(t, CanDelete(owner, private))
	assert.False(t, CanDelete(officer, private))

	assert.False(t, CanView(nil, private))
	assert.False(t, CanView(other, private))
	assert.True(t, CanView(officer, private))
	assert.True(t, CanView(nil, public))
}
