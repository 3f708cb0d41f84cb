package match

import "campusid/internal/models"

// Default confidence thresholds. Like the similarity threshold these
// are historical heuristics exposed through configuration.
const (
	DefaultConfidenceFloor   = 0.5
	DefaultConfidenceCeiling = 0.9
)

// Gate turns an extraction confidence plus a match result into the
// three-way admission verdict.
type Gate struct {
	Floor   float64
	Ceiling float64
}

func NewGate(floor, ceiling float64) Gate {
	if floor <= 0 || floor >= 1 {
		floor = DefaultConfidenceFloor
	}
	if ceiling <= floor || ceiling > 1 {
		ceiling = DefaultConfidenceCeiling
	}
	return Gate{Floor: floor, Ceiling: ceiling}
}

// Decide rejects below the floor (text too unreliable to trust) and
// routes mid-band confidence to manual review regardless of the match
// outcome. At or above the ceiling a valid match is accepted; a
// high-confidence extraction with a real identity mismatch still goes
// to a human rather than being auto-rejected, since mismatches can stem
// from normalization edge cases.
func (g Gate) Decide(confidence float64, match models.MatchResult) models.Verdict {
	switch {
	case confidence < g.Floor:
		return models.VerdictReject
	case confidence < g.Ceiling:
		return models.VerdictManualReview
	case match.IsValid:
		return models.VerdictAccept
	default:
		return models.VerdictManualReview
	}
}
