package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/agriguard/subsidy-cli/internal/model"
)

// MemoryStore implements Store with in-process maps. Used by tests and by
// `serve --demo`, where the registry is seeded once and then read-only, so a
// single RWMutex gives each evaluation a consistent snapshot.
type MemoryStore struct {
	mu            sync.RWMutex
	farmers       map[string]model.Farmer
	dealers       map[string]model.Dealer
	relationships []model.Relationship // append-only history, insertion order preserved
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		farmers: make(map[string]model.Farmer),
		dealers: make(map[string]model.Dealer),
	}
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }
func (s *MemoryStore) Close() error                  { return nil }

func (s *MemoryStore) FindFarmer(_ context.Context, farmerID string) (*model.Farmer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.farmers[strings.TrimSpace(farmerID)]
	if !ok {
		return nil, ErrNotFound
	}
	return &f, nil
}

func (s *MemoryStore) FindDealer(_ context.Context, dealerID string) (*model.Dealer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.dealers[strings.TrimSpace(dealerID)]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (s *MemoryStore) FindRelationship(_ context.Context, dealerID, farmerID string) (*model.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dID, fID := strings.TrimSpace(dealerID), strings.TrimSpace(farmerID)
	// Latest recorded_at wins; scanning in insertion order with >= breaks
	// timestamp ties in favor of the later insert.
	var latest *model.Relationship
	for i := range s.relationships {
		r := s.relationships[i]
		if r.DealerID != dID || r.FarmerID != fID {
			continue
		}
		if latest == nil || !r.RecordedAt.Before(latest.RecordedAt) {
			latest = &s.relationships[i]
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	out := *latest
	return &out, nil
}

func (s *MemoryStore) CountRelationships(_ context.Context, dealerID, farmerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dID, fID := strings.TrimSpace(dealerID), strings.TrimSpace(farmerID)
	n := 0
	for i := range s.relationships {
		if s.relationships[i].DealerID == dID && s.relationships[i].FarmerID == fID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) UpsertFarmer(_ context.Context, f model.Farmer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = strings.TrimSpace(f.ID)
	s.farmers[f.ID] = f
	return nil
}

func (s *MemoryStore) UpsertDealer(_ context.Context, d model.Dealer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = strings.TrimSpace(d.ID)
	s.dealers[d.ID] = d
	return nil
}

func (s *MemoryStore) AddRelationship(_ context.Context, r model.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.DealerID = strings.TrimSpace(r.DealerID)
	r.FarmerID = strings.TrimSpace(r.FarmerID)
	s.relationships = append(s.relationships, r)
	return nil
}

func (s *MemoryStore) ListRelationshipPairs(context.Context) ([]Pair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[Pair]bool)
	var pairs []Pair
	for i := range s.relationships {
		p := Pair{DealerID: s.relationships[i].DealerID, FarmerID: s.relationships[i].FarmerID}
		if !seen[p] {
			seen[p] = true
			pairs = append(pairs, p)
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].DealerID != pairs[j].DealerID {
			return pairs[i].DealerID < pairs[j].DealerID
		}
		return pairs[i].FarmerID < pairs[j].FarmerID
	})
	return pairs, nil
}
