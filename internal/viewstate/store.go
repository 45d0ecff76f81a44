// Package viewstate keeps the lists shown on a user's profile page between
// requests. The page loads them once; confirmed writes patch the stored copy
// instead of fetching the lists again.
package viewstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/msomdec/solifound/internal/domain"
	"github.com/msomdec/solifound/internal/service"
)

// Store persists encoded view state by identity id. Get returns
// domain.ErrNotFound for a missing or expired entry.
//
// Update replaces an entry with fn's result as one atomic step, so two
// writers never lose each other's change. It returns domain.ErrNotFound
// without calling fn when there is no entry.
type Store interface {
	Get(ctx context.Context, id string) ([]byte, error)
	Put(ctx context.Context, id string, data []byte) error
	Update(ctx context.Context, id string, fn func([]byte) ([]byte, error)) error
	Drop(ctx context.Context, id string) error
}

// Loader fetches a fresh view for an identity.
type Loader func(ctx context.Context, id string) (*service.ProfileView, error)

// Cache combines a Store with the loader used on a miss. Mounts and updates
// for one identity run one at a time within the process.
type Cache struct {
	store Store
	load  Loader
	locks keyedMutex
}

// New creates a Cache.
func New(store Store, load Loader) *Cache {
	return &Cache{store: store, load: load}
}

// Mount loads the view from the backend and stores it, replacing any
// previous state. It is called when the profile page is opened.
func (c *Cache) Mount(ctx context.Context, id string) (*service.ProfileView, error) {
	unlock := c.locks.lock(id)
	defer unlock()

	view, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.put(ctx, id, view); err != nil {
		return nil, err
	}
	return view, nil
}

// Get returns the stored view, mounting it on a miss.
func (c *Cache) Get(ctx context.Context, id string) (*service.ProfileView, error) {
	data, err := c.store.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return c.Mount(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get view state: %w", err)
	}

	var view service.ProfileView
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("decode view state: %w", err)
	}
	return &view, nil
}

// Update applies fn to the stored view and writes it back. A missing entry is
// left missing; the next Get mounts a fresh one.
func (c *Cache) Update(ctx context.Context, id string, fn func(*service.ProfileView)) error {
	unlock := c.locks.lock(id)
	defer unlock()

	err := c.store.Update(ctx, id, func(data []byte) ([]byte, error) {
		var view service.ProfileView
		if err := json.Unmarshal(data, &view); err != nil {
			return nil, fmt.Errorf("decode view state: %w", err)
		}
		fn(&view)
		return json.Marshal(&view)
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("update view state: %w", err)
	}
	return nil
}

// Drop forgets the identity's view.
func (c *Cache) Drop(ctx context.Context, id string) error {
	if err := c.store.Drop(ctx, id); err != nil {
		return fmt.Errorf("drop view state: %w", err)
	}
	return nil
}

func (c *Cache) put(ctx context.Context, id string, view *service.ProfileView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("encode view state: %w", err)
	}
	if err := c.store.Put(ctx, id, data); err != nil {
		return fmt.Errorf("put view state: %w", err)
	}
	return nil
}

// keyedMutex hands out one mutex per identity and forgets it once nobody
// holds or waits for it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(id string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[id]
	if !ok {
		m = &refMutex{}
		k.locks[id] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		if m.refs--; m.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}

// MemoryStore is an in-process Store with a fixed TTL.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// NewMemoryStore creates a MemoryStore whose entries expire after ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, id)
		return nil, domain.ErrNotFound
	}
	return e.data, nil
}

func (s *MemoryStore) Put(_ context.Context, id string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, k)
		}
	}
	s.entries[id] = memoryEntry{data: data, expires: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Update(_ context.Context, id string, fn func([]byte) ([]byte, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	e, ok := s.entries[id]
	if !ok || !now.Before(e.expires) {
		delete(s.entries, id)
		return domain.ErrNotFound
	}
	data, err := fn(e.data)
	if err != nil {
		return err
	}
	s.entries[id] = memoryEntry{data: data, expires: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Drop(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}
