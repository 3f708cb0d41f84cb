package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SnapshotStore persists the serializable session record after every
// transition so sessions survive a process restart. The manager stays
// authoritative in memory; the store is a mirror.
type SnapshotStore interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context, sessionID string) (Record, bool, error)
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore keeps snapshots in the process; the default when no redis
// address is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.SessionID] = rec
	return nil
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[sessionID]
	return rec, ok, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, sessionID)
	return nil
}

// RedisStore mirrors snapshots into redis with the session TTL, so an
// expired session disappears from the store on its own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return "verification:session:" + sessionID
}

func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(rec.SessionID), b, s.ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (Record, bool, error) {
	b, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKey(sessionID)).Err()
}
