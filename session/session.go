package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"eduscan-api/scoring"
	"eduscan-api/services"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

const keyPrefix = "eduscan:session:"

// Context is everything the dashboard keeps between requests for one
// browser session. It is serialized whole into the store.
type Context struct {
	ID               string        `json:"id"`
	Page             string        `json:"page"`
	Language         string        `json:"language"`
	FormResetCounter int           `json:"form_reset_counter"`
	LastResult       *CachedResult `json:"last_result,omitempty"`
	UserID           uint          `json:"user_id,omitempty"`
	Username         string        `json:"username,omitempty"`
	Role             string        `json:"role,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// CachedResult is the most recent prediction shown to the session.
type CachedResult struct {
	RecordID    string           `json:"record_id,omitempty"`
	StudentName string           `json:"student_name,omitempty"`
	Outcome     *scoring.Outcome `json:"outcome"`
	At          time.Time        `json:"at"`
}

func New(language string) *Context {
	now := time.Now().UTC()
	return &Context{
		ID:        uuid.NewString(),
		Page:      "home",
		Language:  language,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ResetForm clears the cached result and bumps the counter the front end
// uses to re-key its inputs.
func (c *Context) ResetForm() {
	c.FormResetCounter++
	c.LastResult = nil
}

type Store interface {
	Load(ctx context.Context, id string) (*Context, error)
	Save(ctx context.Context, s *Context) error
	Delete(ctx context.Context, id string) error
}

// NewStore picks redis when it is connected and memory otherwise.
func NewStore(cache *services.CacheService, ttl time.Duration) Store {
	if cache.Available() {
		return &RedisStore{cache: cache, ttl: ttl}
	}
	return NewMemoryStore(ttl)
}

type RedisStore struct {
	cache *services.CacheService
	ttl   time.Duration
}

func (r *RedisStore) Load(ctx context.Context, id string) (*Context, error) {
	var s Context
	err := r.cache.Get(ctx, keyPrefix+id, &s)
	if errors.Is(err, services.ErrCacheMiss) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *Context) error {
	s.UpdatedAt = time.Now().UTC()
	if err := r.cache.Set(ctx, keyPrefix+s.ID, s, r.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.cache.Delete(ctx, keyPrefix+id)
}

type memEntry struct {
	data    Context
	expires time.Time
}

// MemoryStore keeps sessions in process with a sliding TTL.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memEntry
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{items: map[string]memEntry{}, ttl: ttl, now: time.Now}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if m.now().After(e.expires) {
		delete(m.items, id)
		return nil, ErrNotFound
	}
	s := e.data
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s *Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.UpdatedAt = m.now().UTC()
	m.items[s.ID] = memEntry{data: *s, expires: m.now().Add(m.ttl)}
	m.sweepLocked()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *MemoryStore) sweepLocked() {
	now := m.now()
	for id, e := range m.items {
		if now.After(e.expires) {
			delete(m.items, id)
		}
	}
}
