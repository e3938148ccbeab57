package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps champions in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]map[int]Champion
	latest      map[string]Champion
	newest      Champion
	hasNewest   bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]map[int]Champion)
	s.latest = make(map[string]Champion)
	s.hasNewest = false
	return nil
}

func (s *MemoryStore) SaveChampion(_ context.Context, c Champion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.Network = append([]byte(nil), c.Network...)

	gens, ok := s.runs[c.RunID]
	if !ok {
		gens = make(map[int]Champion)
		s.runs[c.RunID] = gens
	}
	gens[c.Generation] = c
	s.latest[c.RunID] = c
	s.newest = c
	s.hasNewest = true
	return nil
}

func (s *MemoryStore) LatestChampion(_ context.Context, runID string) (Champion, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return Champion{}, false, ErrNotInitialized
	}
	if runID == "" {
		return s.newest, s.hasNewest, nil
	}
	c, ok := s.latest[runID]
	return c, ok, nil
}

func (s *MemoryStore) Champions(_ context.Context, runID string) ([]Champion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	gens := s.runs[runID]
	out := make([]Champion, 0, len(gens))
	for _, c := range gens {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Generation < out[j].Generation })
	return out, nil
}
