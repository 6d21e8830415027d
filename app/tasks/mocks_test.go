package tasks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lysyi3m/listing-comb/app/cache"
	"github.com/lysyi3m/listing-comb/app/database"
	"github.com/lysyi3m/listing-comb/app/listing"
	"github.com/lysyi3m/listing-comb/app/scrape"
)

type mockScraper struct {
	mu      sync.Mutex
	results []scrape.Result
	calls   int
}

func (m *mockScraper) Scrape(ctx context.Context, target string) scrape.Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.calls
	m.calls++
	if i >= len(m.results) {
		i = len(m.results) - 1
	}
	return m.results[i]
}

func (m *mockScraper) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockRepo struct {
	mu          sync.Mutex
	properties  map[string]*database.Property
	upsertErr   error
	upsertFails int
	checked     map[string]string
	due         []database.Property
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		properties: make(map[string]*database.Property),
		checked:    make(map[string]string),
	}
}

func (m *mockRepo) GetProperty(id string) (*database.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.properties {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) GetPropertyByURL(sourceURL string) (*database.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.properties[sourceURL], nil
}

func (m *mockRepo) GetPropertyCount() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.properties), nil
}

func (m *mockRepo) ListProperties(limit, offset int) ([]database.Property, error) {
	return nil, nil
}

func (m *mockRepo) ListDueForRefresh(checkedBefore time.Time, limit int) ([]database.Property, error) {
	return m.due, nil
}

func (m *mockRepo) UpsertScraped(sourceURL string, l listing.Listing, outcome string) (*database.Property, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.upsertFails > 0 {
		m.upsertFails--
		return nil, false, m.upsertErr
	}

	p, exists := m.properties[sourceURL]
	changed := false
	if !exists {
		p = &database.Property{ID: "prop-" + sourceURL, SourceURL: sourceURL, Status: database.StatusActive}
		m.properties[sourceURL] = p
	} else if old, had := p.Price.Get(); had && l.Price.IsSet() && old != l.Price.Or(0) {
		changed = true
	}
	p.Title = l.Title
	if l.Price.IsSet() {
		p.Price = l.Price
	}
	p.LastOutcome = outcome
	return p, changed, nil
}

func (m *mockRepo) MarkChecked(id, outcome, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checked[id] = outcome + "/" + status
	return nil
}

func (m *mockRepo) UpdateProperty(id string, update database.PropertyUpdate) (*database.Property, error) {
	return nil, errors.New("not implemented")
}

func (m *mockRepo) DeleteProperty(id string) (bool, error) {
	return false, errors.New("not implemented")
}

func (m *mockRepo) GetPriceHistory(id string) ([]database.PricePoint, error) {
	return nil, nil
}

func (m *mockRepo) GetRecentPriceChanges(limit int) ([]database.PriceChange, error) {
	return nil, nil
}

type memoryCache struct {
	cache.Noop
	mu      sync.Mutex
	entries map[string]cache.Entry
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]cache.Entry)}
}

func (c *memoryCache) GetListing(ctx context.Context, sourceURL string) (*cache.Entry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, found := c.entries[sourceURL]
	if !found {
		return nil, false, nil
	}
	return &entry, true, nil
}

func (c *memoryCache) SetListing(ctx context.Context, sourceURL string, entry cache.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[sourceURL] = entry
	return nil
}

func successResult(price int64) scrape.Result {
	l := listing.Listing{Title: "Dom 120m2", Price: listing.Some(price)}
	return scrape.Result{Outcome: scrape.Success, Listing: &l, Attempts: 1}
}
