// Package memstore keeps every collection in process memory. It backs the
// STORE_DRIVER=memory mode and the lifecycle tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/servicereports/servicereports/internal/periods"
	"github.com/servicereports/servicereports/internal/publishers"
	"github.com/servicereports/servicereports/internal/serviceyears"
	"github.com/servicereports/servicereports/internal/shared"
)

// Store bundles the in-memory collections.
type Store struct {
	Periods      *Periods
	Publishers   *Publishers
	ServiceYears *ServiceYears
	Auxiliary    *Auxiliary
}

// New returns an empty store.
func New() *Store {
	return &Store{
		Periods:      &Periods{byID: map[string]periods.Period{}},
		Publishers:   &Publishers{byID: map[string]publishers.Publisher{}, collation: language.Und},
		ServiceYears: &ServiceYears{byName: map[int]serviceyears.ServiceYear{}},
		Auxiliary:    &Auxiliary{byKey: map[string][]string{}},
	}
}

// Periods is the in-memory service month collection.
type Periods struct {
	mu   sync.RWMutex
	byID map[string]periods.Period
}

func (s *Periods) FindActive(ctx context.Context) (periods.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.byID {
		if p.Status == periods.StatusActive {
			return p.Clone(), nil
		}
	}
	return periods.Period{}, fmt.Errorf("memstore: active period: %w", shared.ErrNotFound)
}

func (s *Periods) FindByKey(ctx context.Context, key string) (periods.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.byID {
		if p.Key == key {
			return p.Clone(), nil
		}
	}
	return periods.Period{}, fmt.Errorf("memstore: period %s: %w", key, shared.ErrNotFound)
}

func (s *Periods) FindByKeys(ctx context.Context, keys []string) ([]periods.Period, error) {
	want := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}
	s.mu.RLock()
	var out []periods.Period
	for _, p := range s.byID {
		if _, ok := want[p.Key]; ok {
			out = append(out, p.Clone())
		}
	}
	s.mu.RUnlock()
	sortFiscal(out)
	return out, nil
}

func (s *Periods) FindLatestDone(ctx context.Context) (periods.Period, error) {
	s.mu.RLock()
	var done []periods.Period
	for _, p := range s.byID {
		if p.Status == periods.StatusDone {
			done = append(done, p)
		}
	}
	s.mu.RUnlock()
	if len(done) == 0 {
		return periods.Period{}, fmt.Errorf("memstore: latest done period: %w", shared.ErrNotFound)
	}
	sortFiscal(done)
	return done[len(done)-1].Clone(), nil
}

// Create mirrors the unique constraints of the Postgres schema.
func (s *Periods) Create(ctx context.Context, p periods.Period) (periods.Period, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Key == p.Key {
			return periods.Period{}, fmt.Errorf("memstore: period %s exists: %w", p.Key, shared.ErrConflict)
		}
		if p.Status == periods.StatusActive && existing.Status == periods.StatusActive {
			return periods.Period{}, fmt.Errorf("memstore: period %s already active: %w", existing.Key, shared.ErrConflict)
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.byID[p.ID] = p.Clone()
	return p.Clone(), nil
}

func (s *Periods) Update(ctx context.Context, id string, p periods.Period) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[id]
	if !ok {
		return 0, nil
	}
	next := p.Clone()
	next.ID, next.Key, next.CreatedAt = current.ID, current.Key, current.CreatedAt
	next.ServiceYear, next.SortOrder = current.ServiceYear, current.SortOrder
	s.byID[id] = next
	return 1, nil
}

// All returns every stored period in fiscal order.
func (s *Periods) All() []periods.Period {
	s.mu.RLock()
	out := make([]periods.Period, 0, len(s.byID))
	for _, p := range s.byID {
		out = append(out, p.Clone())
	}
	s.mu.RUnlock()
	sortFiscal(out)
	return out
}

func sortFiscal(list []periods.Period) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].ServiceYear != list[j].ServiceYear {
			return list[i].ServiceYear < list[j].ServiceYear
		}
		return list[i].SortOrder < list[j].SortOrder
	})
}

// Publishers is the in-memory roster.
type Publishers struct {
	mu        sync.RWMutex
	byID      map[string]publishers.Publisher
	collation language.Tag
}

// Add inserts or replaces publishers, assigning ids when missing.
func (s *Publishers) Add(list ...publishers.Publisher) []publishers.Publisher {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]publishers.Publisher, 0, len(list))
	for _, p := range list {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		s.byID[p.ID] = p.Clone()
		out = append(out, p.Clone())
	}
	return out
}

// Delete removes a publisher from the roster.
func (s *Publishers) Delete(id string) {
	s.mu.Lock()
	delete(s.byID, id)
	s.mu.Unlock()
}

func (s *Publishers) FindAll(ctx context.Context, filter publishers.Filter) ([]publishers.Publisher, error) {
	s.mu.RLock()
	var out []publishers.Publisher
	for _, p := range s.byID {
		if filter.Matches(p) {
			out = append(out, p.Clone())
		}
	}
	s.mu.RUnlock()
	publishers.SortByName(out, s.collation)
	return out, nil
}

func (s *Publishers) FindByID(ctx context.Context, id string) (publishers.Publisher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return publishers.Publisher{}, fmt.Errorf("memstore: publisher %s: %w", id, shared.ErrNotFound)
	}
	return p.Clone(), nil
}

func (s *Publishers) FindByIDs(ctx context.Context, ids []string) ([]publishers.Publisher, error) {
	s.mu.RLock()
	var out []publishers.Publisher
	for _, id := range ids {
		if p, ok := s.byID[id]; ok {
			out = append(out, p.Clone())
		}
	}
	s.mu.RUnlock()
	publishers.SortByName(out, s.collation)
	return out, nil
}

func (s *Publishers) Update(ctx context.Context, id string, p publishers.Publisher) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return 0, nil
	}
	p.ID = id
	p.UpdatedAt = time.Now().UTC()
	s.byID[id] = p.Clone()
	return 1, nil
}

// ServiceYears is the in-memory service year collection.
type ServiceYears struct {
	mu     sync.RWMutex
	byName map[int]serviceyears.ServiceYear
}

func (s *ServiceYears) FindByYear(ctx context.Context, n int) (serviceyears.ServiceYear, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	y, ok := s.byName[n]
	if !ok {
		return serviceyears.ServiceYear{}, fmt.Errorf("memstore: service year %d: %w", n, shared.ErrNotFound)
	}
	return y.Clone(), nil
}

func (s *ServiceYears) FindOrCreate(ctx context.Context, n int) (serviceyears.ServiceYear, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	y, ok := s.byName[n]
	if !ok {
		y = serviceyears.ServiceYear{Name: n}
		s.byName[n] = y
	}
	return y.Clone(), nil
}

func (s *ServiceYears) Update(ctx context.Context, n int, y serviceyears.ServiceYear) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[n]; !ok {
		return 0, nil
	}
	y.Name = n
	s.byName[n] = y.Clone()
	return 1, nil
}

func (s *ServiceYears) AppendHistory(ctx context.Context, n int, entry shared.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	y, ok := s.byName[n]
	if !ok {
		y = serviceyears.ServiceYear{Name: n}
	}
	y.History = append(y.History, entry)
	s.byName[n] = y
	return nil
}

// Auxiliary is the in-memory auxiliary enrollment roster.
type Auxiliary struct {
	mu    sync.RWMutex
	byKey map[string][]string
}

// Enroll registers publisherID for key.
func (s *Auxiliary) Enroll(ctx context.Context, key, publisherID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.byKey[key] {
		if id == publisherID {
			return nil
		}
	}
	s.byKey[key] = append(s.byKey[key], publisherID)
	return nil
}

func (s *Auxiliary) FindByPeriod(ctx context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.byKey[key]...), nil
}

func (s *Auxiliary) DeleteByPeriod(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.byKey, key)
	s.mu.Unlock()
	return nil
}
