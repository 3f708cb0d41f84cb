package session

import (
	"errors"
	"time"

	"campusid/internal/models"
)

// State of a verification session. submitted and expired are terminal;
// a terminal session is immutable.
type State string

const (
	StateCreated              State = "created"
	StateExtracting           State = "extracting"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateReconciling          State = "reconciling"
	StateSubmitted            State = "submitted"
	StateExpired              State = "expired"
)

func (s State) Terminal() bool {
	return s == StateSubmitted || s == StateExpired
}

var (
	// ErrConflict: a second extraction was attempted while one is
	// already in flight for the session.
	ErrConflict = errors.New("an extraction is already in progress for this session")
	// ErrExpired: the session TTL elapsed; any pending operation fails fast.
	ErrExpired = errors.New("verification session has expired")
	// ErrNotFound: unknown session id.
	ErrNotFound = errors.New("verification session not found")
	// ErrInvalidState: the operation is not legal in the session's
	// current state.
	ErrInvalidState = errors.New("operation not allowed in the session's current state")
)

// Record is the plain serializable view of a session, handed to the
// snapshot store and to HTTP callers. Identity and Match are nil until
// the lifecycle reaches them.
type Record struct {
	SessionID  string                     `json:"session_id"`
	State      State                      `json:"state"`
	Identity   *models.NormalizedIdentity `json:"identity,omitempty"`
	Confidence float64                    `json:"confidence,omitempty"`
	Match      *models.MatchResult        `json:"match,omitempty"`
	Verdict    models.Verdict             `json:"verdict,omitempty"`
	CreatedAt  time.Time                  `json:"created_at"`
	ExpiresAt  time.Time                  `json:"expires_at"`
}

type session struct {
	id         string
	state      State
	identity   *models.NormalizedIdentity
	confidence float64
	match      *models.MatchResult
	verdict    models.Verdict
	createdAt  time.Time
	expiresAt  time.Time
}

func (s *session) record() Record {
	rec := Record{
		SessionID:  s.id,
		State:      s.state,
		Confidence: s.confidence,
		Verdict:    s.verdict,
		CreatedAt:  s.createdAt,
		ExpiresAt:  s.expiresAt,
	}
	if s.identity != nil {
		id := *s.identity
		rec.Identity = &id
	}
	if s.match != nil {
		m := *s.match
		rec.Match = &m
	}
	return rec
}

func fromRecord(rec Record) *session {
	s := &session{
		id:         rec.SessionID,
		state:      rec.State,
		confidence: rec.Confidence,
		verdict:    rec.Verdict,
		createdAt:  rec.CreatedAt,
		expiresAt:  rec.ExpiresAt,
	}
	if rec.Identity != nil {
		id := *rec.Identity
		s.identity = &id
	}
	if rec.Match != nil {
		m := *rec.Match
		s.match = &m
	}
	return s
}
