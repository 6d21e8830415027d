package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/listing-comb/app/cache"
	"github.com/lysyi3m/listing-comb/app/database"
	"github.com/lysyi3m/listing-comb/app/listing"
	"github.com/lysyi3m/listing-comb/app/scrape"
)

// Report is what one scrape-and-store run produced
type Report struct {
	Result       scrape.Result
	Property     *database.Property
	PriceChanged bool
	FromCache    bool
}

// ScrapeListingTask scrapes one listing URL and stores the outcome.
// The scrape result is kept between retries, so a task retried after a storage
// failure does not fetch the page again.
type ScrapeListingTask struct {
	Task
	scraper  Scraper
	repo     database.PropertyRepository
	cache    cache.ListingCache
	useCache bool
	result   *scrape.Result
	report   *Report
}

func NewScrapeListingTask(url string, scraper Scraper, repo database.PropertyRepository, listingCache cache.ListingCache, useCache bool) *ScrapeListingTask {
	if listingCache == nil {
		listingCache = cache.Noop{}
	}
	return &ScrapeListingTask{
		Task:     NewTask(TaskTypeScrapeListing, url),
		scraper:  scraper,
		repo:     repo,
		cache:    listingCache,
		useCache: useCache,
	}
}

func (t *ScrapeListingTask) Execute(ctx context.Context) error {
	_, err := t.Run(ctx)
	return err
}

// Report returns the result of the last successful Run, or nil
func (t *ScrapeListingTask) Report() *Report {
	return t.report
}

// Run scrapes (or reads the cache) and persists. The error is non-nil only when storage failed;
// scrape failures are reported through Report.Result.
func (t *ScrapeListingTask) Run(ctx context.Context) (*Report, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	fromCache := false
	if t.result == nil {
		res, hit := t.cached(ctx)
		if !hit {
			res = t.scraper.Scrape(ctx, t.Target)
			t.store(ctx, res)
		}
		fromCache = hit
		t.result = &res
	}

	report := &Report{Result: *t.result, FromCache: fromCache}

	if err := t.persist(report); err != nil {
		return nil, err
	}

	t.report = report

	slog.Info("Task completed",
		"type", "ScrapedListing",
		"url", t.Target,
		"duration", t.GetDuration(),
		"outcome", report.Result.Outcome.String(),
		"attempts", report.Result.Attempts,
		"cached", report.FromCache,
		"price_changed", report.PriceChanged,
		"missing", missingFields(report.Result.Listing))

	if len(report.Result.Trace.Fields) > 0 {
		slog.Debug("Extraction trace", append([]any{"url", t.Target}, report.Result.Trace.Attrs()...)...)
	}

	return report, nil
}

// missingFields names the headline fields a successful extraction left absent.
func missingFields(l *listing.Listing) []string {
	if l == nil {
		return nil
	}

	var missing []string
	if !l.Price.IsSet() {
		missing = append(missing, "price")
	}
	if !l.Area.IsSet() {
		missing = append(missing, "area")
	}
	if !l.Rooms.IsSet() {
		missing = append(missing, "rooms")
	}
	return missing
}

func (t *ScrapeListingTask) cached(ctx context.Context) (scrape.Result, bool) {
	if !t.useCache {
		return scrape.Result{}, false
	}

	entry, found, err := t.cache.GetListing(ctx, t.Target)
	if err != nil {
		slog.Warn("Failed to read listing cache", "url", t.Target, "error", err)
		return scrape.Result{}, false
	}
	if !found {
		return scrape.Result{}, false
	}

	l := entry.Listing
	return scrape.Result{Outcome: scrape.Success, Listing: &l, FinalURL: entry.FinalURL}, true
}

func (t *ScrapeListingTask) store(ctx context.Context, res scrape.Result) {
	if res.Outcome != scrape.Success || res.Listing == nil {
		return
	}

	entry := cache.Entry{Listing: *res.Listing, FinalURL: res.FinalURL, CachedAt: time.Now().UTC()}
	if err := t.cache.SetListing(ctx, t.Target, entry); err != nil {
		slog.Warn("Failed to write listing cache", "url", t.Target, "error", err)
	}
}

func (t *ScrapeListingTask) persist(report *Report) error {
	res := report.Result
	outcome := res.Outcome.String()

	if res.Outcome == scrape.Success {
		property, changed, err := t.repo.UpsertScraped(t.Target, *res.Listing, outcome)
		if err != nil {
			return fmt.Errorf("failed to store property: %w", err)
		}
		report.Property = property
		report.PriceChanged = changed
		return nil
	}

	property, err := t.repo.GetPropertyByURL(t.Target)
	if err != nil {
		return fmt.Errorf("failed to get property: %w", err)
	}
	if property == nil {
		return nil
	}

	status := database.StatusActive
	if res.Outcome == scrape.Archived || res.Outcome == scrape.PermanentError {
		status = database.StatusInactive
	}

	if err := t.repo.MarkChecked(property.ID, outcome, status); err != nil {
		return fmt.Errorf("failed to mark property checked: %w", err)
	}

	property.LastOutcome = outcome
	property.Status = status
	report.Property = property
	return nil
}
