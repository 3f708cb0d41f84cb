package match

import (
	"fmt"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"campusid/internal/models"
)

// DefaultSimilarityThreshold is the historical cutoff between a soft
// name warning and a hard mismatch. Tunable via configuration; nobody
// has derived it empirically yet.
const DefaultSimilarityThreshold = 0.8

// Matcher reconciles an extracted identity against the one the user
// claimed at registration.
type Matcher struct {
	SimilarityThreshold float64
}

func NewMatcher(similarityThreshold float64) Matcher {
	if similarityThreshold <= 0 || similarityThreshold > 1 {
		similarityThreshold = DefaultSimilarityThreshold
	}
	return Matcher{SimilarityThreshold: similarityThreshold}
}

// Similarity is a normalized edit-distance score in [0,1]:
// 1 - levenshtein(a,b)/max(len(a),len(b)). Reflexive: identical strings
// score 1, including the empty string, where the normalization would
// otherwise divide by zero.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	return strutil.Similarity(a, b, metrics.NewLevenshtein())
}

// Reconcile compares field by field in a fixed order (register number,
// university, name, year) so mismatch and warning lists are
// deterministic. Mismatches block automatic acceptance; warnings never
// affect validity.
func (m Matcher) Reconcile(extracted models.NormalizedIdentity, claimed models.ClaimedIdentity) models.MatchResult {
	res := models.MatchResult{
		Mismatches: []string{},
		Warnings:   []string{},
	}

	cardReg := strings.ToUpper(strings.TrimSpace(extracted.RegisterNumber))
	claimedReg := strings.ToUpper(strings.TrimSpace(claimed.UniversityID))
	if cardReg != claimedReg {
		res.Mismatches = append(res.Mismatches, fmt.Sprintf(
			"register number on the ID card (%s) does not match the university ID you entered (%s)",
			extracted.RegisterNumber, claimed.UniversityID))
	}

	if extracted.University != "" {
		if !strings.EqualFold(strings.TrimSpace(extracted.University), strings.TrimSpace(claimed.University)) {
			res.Mismatches = append(res.Mismatches, fmt.Sprintf(
				"university on the ID card (%s) does not match the one you selected (%s)",
				extracted.University, claimed.University))
		}
	}

	cardName := foldName(extracted.Name)
	claimedName := foldName(claimed.Name)
	if cardName != claimedName {
		sim := Similarity(cardName, claimedName)
		if sim >= m.SimilarityThreshold {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"name on the ID card (%s) is slightly different from the one you entered (%s)",
				extracted.Name, claimed.Name))
		} else {
			res.Mismatches = append(res.Mismatches, fmt.Sprintf(
				"name on the ID card (%s) does not match the one you entered (%s)",
				extracted.Name, claimed.Name))
		}
	}

	// Self-reported academic year is soft evidence: never a mismatch.
	if claimed.Year != 0 && extracted.InferredYear != claimed.Year {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"your ID card validity suggests year %d but you selected year %d",
			extracted.InferredYear, claimed.Year))
	}

	res.IsValid = len(res.Mismatches) == 0
	return res
}

// foldName case-folds and strips all whitespace so spacing artifacts
// from OCR never count against the similarity score.
func foldName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
