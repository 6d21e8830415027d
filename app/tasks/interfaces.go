package tasks

import (
	"context"

	"github.com/lysyi3m/listing-comb/app/scrape"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the API to queue background work.
//
//	scheduler := NewScheduler(repo, scraper, listingCache, refreshInterval, workerCount, scraper.Budget())
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewScrapeListingTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	RefreshNow() error
}

type Scraper interface {
	Scrape(ctx context.Context, target string) scrape.Result
}
