package match

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusid/internal/models"
)

func extracted() models.NormalizedIdentity {
	return models.NormalizedIdentity{
		Name:           "Arshiya Kapil",
		RegisterNumber: "10324210279",
		University:     "Sastra University",
		InferredYear:   2,
	}
}

func claimed() models.ClaimedIdentity {
	return models.ClaimedIdentity{
		Name:         "Arshiya Kapil",
		UniversityID: "10324210279",
		University:   "Sastra University",
		Stream:       "Computer Science Engineering",
		Year:         2,
	}
}

func TestSimilarityReflexive(t *testing.T) {
	for _, s := range []string{"", "a", "arshiya kapil", "10324210279"} {
		assert.Equal(t, 1.0, Similarity(s, s), "similarity(%q,%q)", s, s)
	}
}

func TestReconcileAllMatch(t *testing.T) {
	res := NewMatcher(0).Reconcile(extracted(), claimed())
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Mismatches)
	assert.Empty(t, res.Warnings)
}

func TestReconcileRegisterNumberMismatch(t *testing.T) {
	c := claimed()
	c.UniversityID = "10324210278"
	res := NewMatcher(0).Reconcile(extracted(), c)

	assert.False(t, res.IsValid)
	require.Len(t, res.Mismatches, 1)
	assert.Contains(t, res.Mismatches[0], "register number")
	assert.Empty(t, res.Warnings)
}

func TestReconcileUniversityMismatch(t *testing.T) {
	c := claimed()
	c.University = "Anna University"
	res := NewMatcher(0).Reconcile(extracted(), c)

	assert.False(t, res.IsValid)
	require.Len(t, res.Mismatches, 1)
	assert.Contains(t, res.Mismatches[0], "university")
}

func TestReconcileNameSlightlyDifferent(t *testing.T) {
	// one dropped character, similarity above the threshold
	c := claimed()
	c.Name = "Arshiya Kapl"
	res := NewMatcher(0.8).Reconcile(extracted(), c)

	assert.True(t, res.IsValid)
	assert.Empty(t, res.Mismatches)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "slightly different")
}

func TestReconcileNameFarOff(t *testing.T) {
	c := claimed()
	c.Name = "Rahul Verma"
	res := NewMatcher(0.8).Reconcile(extracted(), c)

	assert.False(t, res.IsValid)
	require.Len(t, res.Mismatches, 1)
	assert.Contains(t, res.Mismatches[0], "name")
}

func TestReconcileNameIgnoresCaseAndSpacing(t *testing.T) {
	e := extracted()
	e.Name = "ARSHIYA  KAPIL"
	res := NewMatcher(0.8).Reconcile(e, claimed())
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Warnings)
}

func TestReconcileYearDifferenceIsSoft(t *testing.T) {
	c := claimed()
	c.Year = 3
	res := NewMatcher(0).Reconcile(extracted(), c)

	assert.True(t, res.IsValid)
	assert.Empty(t, res.Mismatches)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "year")
}

func TestReconcileOrderingIsDeterministic(t *testing.T) {
	e := extracted()
	e.Name = "Zzz Yyy"
	c := claimed()
	c.UniversityID = "WRONG"
	c.University = "Anna University"
	c.Year = 4
	res := NewMatcher(0.8).Reconcile(e, c)

	require.Len(t, res.Mismatches, 3)
	assert.Contains(t, res.Mismatches[0], "register number")
	assert.Contains(t, res.Mismatches[1], "university")
	assert.True(t, strings.HasPrefix(res.Mismatches[2], "name"))
	require.Len(t, res.Warnings, 1)
	assert.False(t, res.IsValid)
}

func TestDecide(t *testing.T) {
	g := NewGate(0.5, 0.9)
	valid := models.MatchResult{IsValid: true}
	invalid := models.MatchResult{IsValid: false, Mismatches: []string{"register number"}}

	assert.Equal(t, models.VerdictAccept, g.Decide(0.95, valid))
	assert.Equal(t, models.VerdictManualReview, g.Decide(0.95, invalid))
	assert.Equal(t, models.VerdictManualReview, g.Decide(0.7, valid))
	assert.Equal(t, models.VerdictManualReview, g.Decide(0.7, invalid))
	assert.Equal(t, models.VerdictReject, g.Decide(0.3, valid))
	assert.Equal(t, models.VerdictReject, g.Decide(0.3, invalid))
	// boundary values
	assert.Equal(t, models.VerdictManualReview, g.Decide(0.5, valid))
	assert.Equal(t, models.VerdictAccept, g.Decide(0.9, valid))
}

func TestGateDefaults(t *testing.T) {
	g := NewGate(0, 0)
	assert.Equal(t, DefaultConfidenceFloor, g.Floor)
	assert.Equal(t, DefaultConfidenceCeiling, g.Ceiling)
}
