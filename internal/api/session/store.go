// Package session keeps planning state between requests. Sessions live
// in an expiring in-memory cache; a per-session lock serializes
// overlapping edits to the same session id so concurrent requests
// never interleave mutations.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-voice-travel-planner/internal/types"
)

const (
	defaultTTL      = 2 * time.Hour
	cleanupInterval = 10 * time.Minute
)

// Ensure implementation satisfies the interface
var _ Store = (*CacheStore)(nil)

// Store is the session persistence boundary.
type Store interface {
	New() *types.Session
	Get(id string) (*types.Session, bool)
	Save(session *types.Session)
	// Lock acquires the session's mutex and returns the unlock func.
	Lock(id string) func()
}

type CacheStore struct {
	logger   *slog.Logger
	sessions *cache.Cache

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(ttl time.Duration, logger *slog.Logger) *CacheStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &CacheStore{
		logger:   logger,
		sessions: cache.New(ttl, cleanupInterval),
		locks:    make(map[string]*sync.Mutex),
	}
}

// New creates and stores an empty session with a fresh id.
func (s *CacheStore) New() *types.Session {
	now := time.Now().UTC()
	session := &types.Session{
		ID:         uuid.New().String(),
		POICatalog: make(map[string]types.POI),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.sessions.SetDefault(session.ID, session)
	return session
}

func (s *CacheStore) Get(id string) (*types.Session, bool) {
	v, ok := s.sessions.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*types.Session), true
}

// Save persists the session and refreshes its expiry.
func (s *CacheStore) Save(session *types.Session) {
	session.UpdatedAt = time.Now().UTC()
	s.sessions.SetDefault(session.ID, session)
}

// Lock serializes access to one session id. Lock entries are never
// removed; the set of ids a process sees is small and bounded by the
// cache TTL churn.
func (s *CacheStore) Lock(id string) func() {
	s.mu.Lock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}
