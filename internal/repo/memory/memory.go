package memory

import (
	"context"
	"sync"

	"github.com/hamed0406/uptimeprobe/internal/domain"
	"github.com/hamed0406/uptimeprobe/internal/repo"
)

// Store keeps websites, streak counters and results in process memory. It is
// used for local runs and tests; the streak counter is only atomic within one
// process.
type Store struct {
	mu      sync.RWMutex
	sites   map[domain.SiteID]domain.Site
	streaks map[domain.SiteID]int
	results []domain.CheckResult
}

func New() *Store {
	return &Store{
		sites:   make(map[domain.SiteID]domain.Site),
		streaks: make(map[domain.SiteID]int),
		results: make([]domain.CheckResult, 0, 128),
	}
}

// ---- WebsiteStore ----

func (m *Store) AddSite(s domain.Site) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sites[s.ID] = s
}

func (m *Store) Lookup(ctx context.Context, id domain.SiteID) (domain.Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sites[id]
	if !ok {
		return domain.Site{}, repo.ErrSiteNotFound
	}
	return s, nil
}

// ---- StreakStore ----

func (m *Store) Increment(ctx context.Context, id domain.SiteID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streaks[id]++
	return m.streaks[id], nil
}

func (m *Store) Reset(ctx context.Context, id domain.SiteID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streaks[id] = 0
	return nil
}

// ---- ResultSink ----

func (m *Store) Write(ctx context.Context, r domain.CheckResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, r)
	return nil
}

// Results returns a copy of everything written so far, oldest first.
func (m *Store) Results() []domain.CheckResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.CheckResult, len(m.results))
	copy(out, m.results)
	return out
}

