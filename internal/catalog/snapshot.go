package catalog

import (
	"sort"
	"sync"

	"github.com/ziyoonee/gochagetcha-sub000/internal/domain"
)

// Snapshot is the in-memory copy of the gacha collection used by
// snapshot-mode deployments. It is seeded from the store at startup and kept
// current by the catalog event consumer. Thread-safe via sync.RWMutex.
type Snapshot struct {
	mu     sync.RWMutex
	gachas map[string]domain.Gacha
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		gachas: make(map[string]domain.Gacha),
	}
}

// Load replaces the snapshot contents with the given collection.
func (s *Snapshot) Load(items []domain.Gacha) {
	next := make(map[string]domain.Gacha, len(items))
	for i := range items {
		next[items[i].ID] = items[i]
	}

	s.mu.Lock()
	s.gachas = next
	s.mu.Unlock()
}

// Upsert adds or replaces a single gacha.
func (s *Snapshot) Upsert(g domain.Gacha) {
	s.mu.Lock()
	s.gachas[g.ID] = g
	s.mu.Unlock()
}

// Remove deletes a gacha by id.
func (s *Snapshot) Remove(id string) {
	s.mu.Lock()
	delete(s.gachas, id)
	s.mu.Unlock()
}

// All returns a copy of the collection ordered by id, so downstream
// transforms start from a deterministic sequence.
func (s *Snapshot) All() []domain.Gacha {
	s.mu.RLock()
	out := make([]domain.Gacha, 0, len(s.gachas))
	for _, g := range s.gachas {
		out = append(out, g)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of gachas in the snapshot.
func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.gachas)
}
