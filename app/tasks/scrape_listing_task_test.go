package tasks

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/lysyi3m/listing-comb/app/database"
	"github.com/lysyi3m/listing-comb/app/listing"
	"github.com/lysyi3m/listing-comb/app/scrape"
)

const listingURL = "https://www.otodom.pl/pl/oferta/dom-ID1"

func TestScrapeListingTask_Success(t *testing.T) {
	scraper := &mockScraper{results: []scrape.Result{successResult(850000)}}
	repo := newMockRepo()

	task := NewScrapeListingTask(listingURL, scraper, repo, nil, false)
	report, err := task.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Result.Outcome != scrape.Success {
		t.Errorf("Expected success, got %s", report.Result.Outcome)
	}
	if report.Property == nil || report.Property.Price.Or(0) != 850000 {
		t.Errorf("Expected stored property, got %+v", report.Property)
	}
	if task.GetType() != TaskTypeScrapeListing || task.GetTarget() != listingURL {
		t.Errorf("Unexpected task identity %s %s", task.GetType(), task.GetTarget())
	}
	if task.Report() != report {
		t.Error("Expected Report to return the last run")
	}
}

func TestScrapeListingTask_ArchivedMarksInactive(t *testing.T) {
	scraper := &mockScraper{results: []scrape.Result{{Outcome: scrape.Archived, Err: scrape.ErrArchived, Attempts: 1}}}
	repo := newMockRepo()
	repo.properties[listingURL] = &database.Property{ID: "p1", SourceURL: listingURL, Status: database.StatusActive}

	report, err := NewScrapeListingTask(listingURL, scraper, repo, nil, false).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if repo.checked["p1"] != "archived/inactive" {
		t.Errorf("Expected property marked archived/inactive, got %q", repo.checked["p1"])
	}
	if report.Property.Status != database.StatusInactive {
		t.Errorf("Expected inactive property in report, got %q", report.Property.Status)
	}
}

func TestScrapeListingTask_TimeoutKeepsActive(t *testing.T) {
	scraper := &mockScraper{results: []scrape.Result{{Outcome: scrape.Timeout, Attempts: 3}}}
	repo := newMockRepo()
	repo.properties[listingURL] = &database.Property{ID: "p1", SourceURL: listingURL}

	if _, err := NewScrapeListingTask(listingURL, scraper, repo, nil, false).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if repo.checked["p1"] != "timeout/active" {
		t.Errorf("Expected timeout/active, got %q", repo.checked["p1"])
	}
}

func TestScrapeListingTask_UnknownURLFailureStoresNothing(t *testing.T) {
	scraper := &mockScraper{results: []scrape.Result{{Outcome: scrape.Blocked, Err: scrape.ErrBlocked}}}
	repo := newMockRepo()

	report, err := NewScrapeListingTask(listingURL, scraper, repo, nil, false).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Property != nil {
		t.Errorf("Expected no property, got %+v", report.Property)
	}
	if len(repo.properties) != 0 {
		t.Error("Expected nothing stored")
	}
}

func TestScrapeListingTask_RetryDoesNotRescrape(t *testing.T) {
	scraper := &mockScraper{results: []scrape.Result{successResult(850000)}}
	repo := newMockRepo()
	repo.upsertErr = errors.New("database is locked")
	repo.upsertFails = 1

	task := NewScrapeListingTask(listingURL, scraper, repo, nil, false)

	if err := task.Execute(context.Background()); err == nil {
		t.Fatal("Expected storage error on first run")
	}
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}

	if scraper.Calls() != 1 {
		t.Errorf("Expected a single scrape, got %d", scraper.Calls())
	}
	if _, stored := repo.properties[listingURL]; !stored {
		t.Error("Expected property stored on retry")
	}
}

func TestScrapeListingTask_Cache(t *testing.T) {
	scraper := &mockScraper{results: []scrape.Result{successResult(850000)}}
	repo := newMockRepo()
	listingCache := newMemoryCache()

	first, err := NewScrapeListingTask(listingURL, scraper, repo, listingCache, true).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if first.FromCache {
		t.Error("First run should not come from cache")
	}

	second, err := NewScrapeListingTask(listingURL, scraper, repo, listingCache, true).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !second.FromCache {
		t.Error("Second run should come from cache")
	}
	if scraper.Calls() != 1 {
		t.Errorf("Expected 1 scrape, got %d", scraper.Calls())
	}

	// Refreshes bypass the cache.
	if _, err := NewScrapeListingTask(listingURL, scraper, repo, listingCache, false).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if scraper.Calls() != 2 {
		t.Errorf("Expected 2 scrapes, got %d", scraper.Calls())
	}
}

func TestScrapeListingTask_CanceledContext(t *testing.T) {
	scraper := &mockScraper{results: []scrape.Result{successResult(1)}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewScrapeListingTask(listingURL, scraper, newMockRepo(), nil, false).Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if scraper.Calls() != 0 {
		t.Error("Expected no scrape after cancellation")
	}
}

func TestMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		listing *listing.Listing
		want    []string
	}{
		{"no listing", nil, nil},
		{"complete", &listing.Listing{Price: listing.Some(int64(1)), Area: listing.Some(52.5), Rooms: listing.Some(2)}, nil},
		{"present zeroes", &listing.Listing{Price: listing.Some(int64(0)), Area: listing.Some(0.0), Rooms: listing.Some(0)}, nil},
		{"title only", &listing.Listing{Title: "Dom"}, []string{"price", "area", "rooms"}},
		{"no rooms", &listing.Listing{Price: listing.Some(int64(1)), Area: listing.Some(52.5)}, []string{"rooms"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := missingFields(tt.listing); !slices.Equal(got, tt.want) {
				t.Errorf("missingFields() = %v, want %v", got, tt.want)
			}
		})
	}
}
