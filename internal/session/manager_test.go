package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusid/internal/match"
	"campusid/internal/models"
	"campusid/internal/ocr"
)

// stubProvider lets tests control the gateway outcome and observe how
// many calls went out.
type stubProvider struct {
	mu      sync.Mutex
	calls   int
	err     error
	raw     models.RawExtraction
	block   chan struct{} // when set, Extract waits until closed
	started chan struct{} // signalled once Extract has begun
}

func (p *stubProvider) Extract(_ context.Context, _, _ string) (models.RawExtraction, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.started != nil {
		p.started <- struct{}{}
	}
	if p.block != nil {
		<-p.block
	}
	if p.err != nil {
		return models.RawExtraction{}, p.err
	}
	return p.raw, nil
}

func sampleRaw() models.RawExtraction {
	return models.RawExtraction{
		Fields: map[string]string{
			models.FieldName:           "ARSHIYA KAPIL",
			models.FieldRegisterNumber: "1032-4210279",
			models.FieldValidityDate:   "15/08/2030",
			models.FieldContactNumber:  "9876543210",
		},
		Confidence: 0.95,
	}
}

func newManager(t *testing.T, p ocr.Provider, opts ...Option) *Manager {
	t.Helper()
	m, err := NewManager(p, match.NewMatcher(0.8), match.NewGate(0.5, 0.9), opts...)
	require.NoError(t, err)
	return m
}

func TestNewManagerRequiresProvider(t *testing.T) {
	_, err := NewManager(nil, match.NewMatcher(0.8), match.NewGate(0.5, 0.9))
	assert.Error(t, err)
}

func TestFullLifecycle(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, &stubProvider{raw: sampleRaw()})

	rec, err := m.StartExtraction(ctx, "", "https://cdn.example.com/f.jpg", "https://cdn.example.com/b.jpg")
	require.NoError(t, err)
	require.NotEmpty(t, rec.SessionID)
	assert.Equal(t, StateAwaitingConfirmation, rec.State)
	require.NotNil(t, rec.Identity)
	assert.Equal(t, "10324210279", rec.Identity.RegisterNumber)
	assert.Equal(t, "+919876543210", rec.Identity.ContactNumber)
	assert.Nil(t, rec.Match)

	claimed := models.ClaimedIdentity{
		Name:         "Arshiya Kapil",
		UniversityID: "10324210279",
		Year:         rec.Identity.InferredYear,
	}
	final, err := m.Confirm(ctx, rec.SessionID, claimed, nil)
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, final.State)
	require.NotNil(t, final.Match)
	assert.True(t, final.Match.IsValid)
	assert.Equal(t, models.VerdictAccept, final.Verdict)
}

func TestConfirmAppliesEdits(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, &stubProvider{raw: sampleRaw()})

	rec, err := m.StartExtraction(ctx, "", "f.jpg", "")
	require.NoError(t, err)

	claimed := models.ClaimedIdentity{Name: "Arshiya Kapil", UniversityID: "99999"}
	final, err := m.Confirm(ctx, rec.SessionID, claimed, map[string]string{
		models.FieldRegisterNumber: " 999-99 ",
	})
	require.NoError(t, err)
	assert.Equal(t, "99999", final.Identity.RegisterNumber)
	assert.True(t, final.Match.IsValid)
}

func TestConcurrentExtractionConflicts(t *testing.T) {
	ctx := context.Background()
	p := &stubProvider{
		raw:     sampleRaw(),
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	m := newManager(t, p)

	done := make(chan Record, 1)
	var firstErr error
	go func() {
		rec, err := m.StartExtraction(ctx, "sess-1", "f.jpg", "")
		firstErr = err
		done <- rec
	}()
	<-p.started

	// second call while the first is in flight
	_, err := m.StartExtraction(ctx, "sess-1", "f.jpg", "")
	assert.ErrorIs(t, err, ErrConflict)

	close(p.block)
	rec := <-done
	require.NoError(t, firstErr)
	assert.Equal(t, StateAwaitingConfirmation, rec.State)
	assert.Equal(t, 1, p.calls)
}

func TestExtractionFailureReturnsToCreated(t *testing.T) {
	ctx := context.Background()
	p := &stubProvider{err: &ocr.ExtractionError{Reason: ocr.ReasonTimeout}}
	m := newManager(t, p)

	rec, err := m.StartExtraction(ctx, "", "f.jpg", "")
	require.Error(t, err)
	ee, ok := ocr.AsExtractionError(err)
	require.True(t, ok)
	assert.Equal(t, ocr.ReasonTimeout, ee.Reason)
	require.NotEmpty(t, rec.SessionID)
	assert.Equal(t, StateCreated, rec.State)

	// the caller may retry the same session after the provider recovers
	p.mu.Lock()
	p.err = nil
	p.raw = sampleRaw()
	p.mu.Unlock()
	rec2, err := m.StartExtraction(ctx, rec.SessionID, "f.jpg", "")
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingConfirmation, rec2.State)
}

func TestConfirmBeforeExtractionIsInvalid(t *testing.T) {
	ctx := context.Background()
	p := &stubProvider{err: errors.New("down")}
	m := newManager(t, p)

	rec, _ := m.StartExtraction(ctx, "", "f.jpg", "")
	_, err := m.Confirm(ctx, rec.SessionID, models.ClaimedIdentity{}, nil)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestUnknownSession(t *testing.T) {
	m := newManager(t, &stubProvider{raw: sampleRaw()})
	_, err := m.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	m := newManager(t, &stubProvider{raw: sampleRaw()}, WithTTL(10*time.Minute), WithClock(clock))

	rec, err := m.StartExtraction(ctx, "", "f.jpg", "")
	require.NoError(t, err)

	now = now.Add(11 * time.Minute)

	_, err = m.Confirm(ctx, rec.SessionID, models.ClaimedIdentity{}, nil)
	assert.ErrorIs(t, err, ErrExpired)

	got, err := m.Get(ctx, rec.SessionID)
	require.NoError(t, err)
	assert.Equal(t, StateExpired, got.State)
}

func TestInFlightResultDiscardedAfterExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	p := &stubProvider{
		raw:     sampleRaw(),
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	m := newManager(t, p, WithTTL(10*time.Minute), WithClock(clock))

	errCh := make(chan error, 1)
	go func() {
		_, err := m.StartExtraction(ctx, "", "f.jpg", "")
		errCh <- err
	}()
	<-p.started

	// session expires while the gateway call is still running
	mu.Lock()
	now = now.Add(time.Hour)
	mu.Unlock()
	close(p.block)

	assert.ErrorIs(t, <-errCh, ErrExpired)
}

func TestSnapshotRehydration(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	p := &stubProvider{raw: sampleRaw()}

	m1 := newManager(t, p, WithSnapshotStore(store))
	rec, err := m1.StartExtraction(ctx, "", "f.jpg", "")
	require.NoError(t, err)

	// a fresh manager sharing the store picks the session back up
	m2 := newManager(t, p, WithSnapshotStore(store))
	got, err := m2.Get(ctx, rec.SessionID)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingConfirmation, got.State)
	require.NotNil(t, got.Identity)
	assert.Equal(t, rec.Identity.RegisterNumber, got.Identity.RegisterNumber)
}

func TestStaleSessionsAreEvicted(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := NewMemoryStore()
	m := newManager(t, &stubProvider{raw: sampleRaw()},
		WithTTL(10*time.Minute), WithClock(clock), WithSnapshotStore(store))

	rec, err := m.StartExtraction(ctx, "", "f.jpg", "")
	require.NoError(t, err)
	_, err = m.Confirm(ctx, rec.SessionID, models.ClaimedIdentity{
		Name: "Arshiya Kapil", UniversityID: "10324210279",
	}, nil)
	require.NoError(t, err)

	// within the retention window the submitted session stays readable
	now = now.Add(15 * time.Minute)
	got, err := m.Get(ctx, rec.SessionID)
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, got.State)

	// one full TTL past expiry it is gone from memory and the store
	now = now.Add(10 * time.Minute)
	_, err = m.StartExtraction(ctx, "", "g.jpg", "")
	require.NoError(t, err)

	_, err = m.Get(ctx, rec.SessionID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, found, err := store.Load(ctx, rec.SessionID)
	require.NoError(t, err)
	assert.False(t, found)
}

type captureArchiver struct {
	recs []Record
}

func (a *captureArchiver) Archive(_ context.Context, rec Record) error {
	a.recs = append(a.recs, rec)
	return nil
}

func TestSubmittedSessionsAreArchived(t *testing.T) {
	ctx := context.Background()
	arch := &captureArchiver{}
	m := newManager(t, &stubProvider{raw: sampleRaw()}, WithArchiver(arch))

	rec, err := m.StartExtraction(ctx, "", "f.jpg", "")
	require.NoError(t, err)
	_, err = m.Confirm(ctx, rec.SessionID, models.ClaimedIdentity{
		Name: "Arshiya Kapil", UniversityID: "10324210279",
	}, nil)
	require.NoError(t, err)

	require.Len(t, arch.recs, 1)
	assert.Equal(t, StateSubmitted, arch.recs[0].State)
}
