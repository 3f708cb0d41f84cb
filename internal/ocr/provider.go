package ocr

import (
	"context"
	"errors"
	"fmt"

	"campusid/internal/models"
)

// FailureReason classifies an extraction failure for the caller's retry
// decision. Both reasons are retryable; retries are caller-driven so
// backoff never double-charges the external service.
type FailureReason string

const (
	ReasonTimeout      FailureReason = "timeout"
	ReasonServiceError FailureReason = "service_error"
)

// ExtractionError is the typed failure surfaced by a Provider.
type ExtractionError struct {
	Reason FailureReason
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("extraction failed (%s)", e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func timeoutErr(err error) *ExtractionError {
	return &ExtractionError{Reason: ReasonTimeout, Err: err}
}

func serviceErr(err error) *ExtractionError {
	return &ExtractionError{Reason: ReasonServiceError, Err: err}
}

// AsExtractionError unwraps err into an ExtractionError if it is one.
func AsExtractionError(err error) (*ExtractionError, bool) {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}

// Provider turns ID card image references into one raw field extraction
// for the document pair. Implementations make at most one logical
// outbound call per Extract and never retry internally.
type Provider interface {
	Extract(ctx context.Context, frontImageRef, backImageRef string) (models.RawExtraction, error)
}
