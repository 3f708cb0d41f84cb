package normalize

import "time"

// defaultYear is used when the validity date is missing, unparsable or
// already in the past. Treating these cards as "nearing graduation"
// keeps an otherwise-valid applicant from being blocked outright; the
// matcher only ever treats a year disagreement as a soft warning.
const defaultYear = 4

// InferYear buckets a card's validity date into an academic year for a
// 4-year program. Whole years remaining are counted with a ceiling: a
// card valid for 2.1 more years behaves like 3 years remaining.
func InferYear(validityDate string, asOf time.Time) int {
	validity, err := time.Parse("2006-01-02", validityDate)
	if err != nil {
		return defaultYear
	}
	remaining := 0
	for y := 1; y <= 4; y++ {
		if validity.After(asOf.AddDate(y-1, 0, 0)) {
			remaining = y
		}
	}
	if remaining == 0 {
		return defaultYear
	}
	return 5 - remaining
}

// InferYearNow is InferYear against the current clock.
func InferYearNow(validityDate string) int {
	return InferYear(validityDate, time.Now())
}
