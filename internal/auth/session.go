package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoSession is returned when a session id is unknown or has expired.
var ErrNoSession = errors.New("session not found")

// Store persists server-side sessions keyed by opaque session id. Sessions
// carry a fixed TTL from creation; there is no sliding expiration.
type Store interface {
	// Create establishes a session for the user and returns its id.
	Create(ctx context.Context, userID uint64) (string, error)
	// Get resolves a session id to the user id it was bound to.
	Get(ctx context.Context, sessionID string) (uint64, error)
	// Delete invalidates the session immediately.
	Delete(ctx context.Context, sessionID string) error
}

// newSessionID returns a 32-byte random id encoded as 64 hex characters.
func newSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// RedisStore keeps sessions in Redis under "sess:<id>" with the configured
// TTL. It is the store used in production; concurrent access is handled by
// Redis itself.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func sessionKey(id string) string { return "sess:" + id }

func (s *RedisStore) Create(ctx context.Context, userID uint64) (string, error) {
	id, err := newSessionID()
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, sessionKey(id), strconv.FormatUint(userID, 10), s.ttl).Err(); err != nil {
		return "", err
	}
	return id, nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (uint64, error) {
	v, err := s.rdb.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return 0, ErrNoSession
	}
	if err != nil {
		return 0, err
	}
	uid, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, ErrNoSession
	}
	return uid, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, sessionKey(sessionID)).Err()
}

// MemoryStore is an in-process session store used in tests and when Redis is
// not configured. Expired entries are dropped lazily on read.
type MemoryStore struct {
	mu   sync.RWMutex
	ttl  time.Duration
	data map[string]memorySession
	now  func() time.Time
}

type memorySession struct {
	userID    uint64
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:  ttl,
		data: make(map[string]memorySession),
		now:  time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, userID uint64) (string, error) {
	id, err := newSessionID()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.data[id] = memorySession{userID: userID, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return id, nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (uint64, error) {
	s.mu.RLock()
	sess, ok := s.data[sessionID]
	s.mu.RUnlock()
	if !ok {
		return 0, ErrNoSession
	}
	if s.now().After(sess.expiresAt) {
		s.mu.Lock()
		delete(s.data, sessionID)
		s.mu.Unlock()
		return 0, ErrNoSession
	}
	return sess.userID, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.data, sessionID)
	s.mu.Unlock()
	return nil
}
