package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"campusid/internal/match"
	"campusid/internal/models"
	"campusid/internal/normalize"
	"campusid/internal/ocr"
)

// DefaultTTL bounds how long a verification may stay resumable.
const DefaultTTL = 30 * time.Minute

// sweepInterval caps how often the manager scans for evictable
// sessions; the scan itself is opportunistic, piggybacking on lookups.
const sweepInterval = time.Minute

// Archiver receives the final record of a submitted session, for the
// approval workflow's review feed.
type Archiver interface {
	Archive(ctx context.Context, rec Record) error
}

// Manager owns the verification sessions and drives each one through
// the extract -> confirm -> submit lifecycle. Sessions are independent;
// all cross-session state lives behind the manager's mutex.
type Manager struct {
	mu        sync.Mutex
	sessions  map[string]*session
	lastSweep time.Time

	provider ocr.Provider
	matcher  match.Matcher
	gate     match.Gate
	ttl      time.Duration
	store    SnapshotStore
	archiver Archiver
	now      func() time.Time
}

type Option func(*Manager)

func WithSnapshotStore(store SnapshotStore) Option {
	return func(m *Manager) { m.store = store }
}

func WithArchiver(a Archiver) Option {
	return func(m *Manager) { m.archiver = a }
}

func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock overrides the time source, for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(provider ocr.Provider, matcher match.Matcher, gate match.Gate, opts ...Option) (*Manager, error) {
	if provider == nil {
		return nil, fmt.Errorf("ocr provider is required")
	}
	m := &Manager{
		sessions: make(map[string]*session),
		provider: provider,
		matcher:  matcher,
		gate:     gate,
		ttl:      DefaultTTL,
		store:    NewMemoryStore(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// StartExtraction runs the OCR gateway for the session and, on success,
// attaches the normalized identity and moves to awaiting_confirmation.
// An empty sessionID creates a fresh session. A failed extraction
// returns the session to created so the caller may re-submit; a second
// concurrent call fails with ErrConflict without touching state.
func (m *Manager) StartExtraction(ctx context.Context, sessionID, frontImageRef, backImageRef string) (Record, error) {
	m.mu.Lock()
	s, err := m.obtainLocked(ctx, sessionID, true)
	if err != nil {
		m.mu.Unlock()
		return Record{}, err
	}
	switch s.state {
	case StateCreated:
		// proceed
	case StateExtracting:
		m.mu.Unlock()
		return Record{}, ErrConflict
	case StateExpired:
		m.mu.Unlock()
		return Record{}, ErrExpired
	default:
		m.mu.Unlock()
		return Record{}, ErrInvalidState
	}
	s.state = StateExtracting
	m.snapshot(ctx, s)
	m.mu.Unlock()

	// Gateway call runs without the lock; other sessions keep moving
	// and a concurrent call on this one sees extracting -> conflict.
	raw, extractErr := m.provider.Extract(ctx, frontImageRef, backImageRef)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireLocked(ctx, s)
	if s.state == StateExpired {
		// The session expired while the call was in flight; the
		// result is discarded, not applied.
		return Record{}, ErrExpired
	}
	if extractErr != nil {
		s.state = StateCreated
		m.snapshot(ctx, s)
		// the record carries the session id so the caller can retry
		return s.record(), extractErr
	}

	identity := normalize.Identity(raw)
	s.identity = &identity
	s.confidence = raw.Confidence
	s.state = StateAwaitingConfirmation
	m.snapshot(ctx, s)
	return s.record(), nil
}

// Confirm applies the user's field edits, reconciles the extracted
// identity against the claimed one, gates the verdict and moves the
// session to its terminal submitted state.
func (m *Manager) Confirm(ctx context.Context, sessionID string, claimed models.ClaimedIdentity, edits map[string]string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.obtainLocked(ctx, sessionID, false)
	if err != nil {
		return Record{}, err
	}
	switch s.state {
	case StateAwaitingConfirmation:
		// proceed
	case StateExpired:
		return Record{}, ErrExpired
	default:
		return Record{}, ErrInvalidState
	}

	s.state = StateReconciling
	applyEdits(s.identity, edits)
	result := m.matcher.Reconcile(*s.identity, claimed)
	s.match = &result
	s.verdict = m.gate.Decide(s.confidence, result)
	s.state = StateSubmitted
	m.snapshot(ctx, s)

	if m.archiver != nil {
		if err := m.archiver.Archive(ctx, s.record()); err != nil {
			log.Printf("session %s: failed to archive outcome: %v", s.id, err)
		}
	}
	return s.record(), nil
}

// Get returns the session's serializable record.
func (m *Manager) Get(ctx context.Context, sessionID string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.obtainLocked(ctx, sessionID, false)
	if err != nil {
		return Record{}, err
	}
	return s.record(), nil
}

// obtainLocked resolves a session id, rehydrating from the snapshot
// store on a memory miss and applying TTL expiry before the caller
// inspects state. When create is set an unknown (or empty) id yields a
// fresh session: a verification session exists from its first image
// submission onward.
func (m *Manager) obtainLocked(ctx context.Context, sessionID string, create bool) (*session, error) {
	m.sweepLocked(ctx)
	if sessionID != "" {
		if s, ok := m.sessions[sessionID]; ok {
			m.expireLocked(ctx, s)
			return s, nil
		}
		rec, found, err := m.store.Load(ctx, sessionID)
		if err != nil {
			log.Printf("session %s: snapshot load failed: %v", sessionID, err)
		}
		if found {
			s := fromRecord(rec)
			// An extraction cannot survive a restart; treat it as failed.
			if s.state == StateExtracting {
				s.state = StateCreated
			}
			m.sessions[sessionID] = s
			m.expireLocked(ctx, s)
			return s, nil
		}
	}
	if !create {
		return nil, ErrNotFound
	}
	now := m.now()
	s := &session{
		id:        sessionID,
		state:     StateCreated,
		createdAt: now,
		expiresAt: now.Add(m.ttl),
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	m.sessions[s.id] = s
	m.snapshot(ctx, s)
	return s, nil
}

// sweepLocked evicts sessions one full TTL past their expiry from the
// in-memory map and the snapshot store, so terminal records do not
// accumulate forever. The grace period keeps a freshly expired or
// submitted session readable for as long as it was resumable, the same
// window the redis store's own TTL grants its mirror.
func (m *Manager) sweepLocked(ctx context.Context) {
	now := m.now()
	if now.Sub(m.lastSweep) < sweepInterval {
		return
	}
	m.lastSweep = now
	for id, s := range m.sessions {
		if now.After(s.expiresAt.Add(m.ttl)) {
			delete(m.sessions, id)
			if err := m.store.Delete(ctx, id); err != nil {
				log.Printf("session %s: snapshot delete failed: %v", id, err)
			}
		}
	}
}

// expireLocked transitions a non-terminal session past its TTL to the
// expired terminal state.
func (m *Manager) expireLocked(ctx context.Context, s *session) {
	if s.state.Terminal() {
		return
	}
	if m.now().After(s.expiresAt) {
		s.state = StateExpired
		m.snapshot(ctx, s)
	}
}

// snapshot mirrors the record into the store, best effort.
func (m *Manager) snapshot(ctx context.Context, s *session) {
	if err := m.store.Save(ctx, s.record()); err != nil {
		log.Printf("session %s: snapshot save failed: %v", s.id, err)
	}
}

// applyEdits re-runs each user-corrected field through its
// normalization rule before it replaces the extracted value. Unknown
// field keys are ignored.
func applyEdits(id *models.NormalizedIdentity, edits map[string]string) {
	for key, value := range edits {
		switch key {
		case models.FieldName:
			id.Name = normalize.Name(value)
		case models.FieldRegisterNumber:
			id.RegisterNumber = normalize.RegisterNumber(value)
		case models.FieldUniversity:
			id.University = normalize.Name(value)
		case models.FieldDepartment:
			id.Department = normalize.Course(value)
		case models.FieldCourse:
			id.Course = normalize.Course(value)
		case models.FieldValidityDate:
			id.ValidityDate = normalize.Date(value)
			id.InferredYear = normalize.InferYearNow(id.ValidityDate)
		case models.FieldDateOfIssue:
			id.DateOfIssue = normalize.Date(value)
		case models.FieldDateOfBirth:
			id.DateOfBirth = normalize.Date(value)
		case models.FieldBloodGroup:
			id.BloodGroup = normalize.BloodGroup(value)
		case models.FieldEmail:
			id.Email = normalize.Email(value)
		case models.FieldContactNumber:
			id.ContactNumber = normalize.Phone(value)
		case models.FieldAddress:
			id.Address = normalize.Address(value)
		case models.FieldPermanentAddress:
			id.PermanentAddress = normalize.Address(value)
		case models.FieldEmergencyContact:
			id.EmergencyContact = normalize.Phone(value)
		}
	}
}
