package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/listing-comb/app/cache"
	"github.com/lysyi3m/listing-comb/app/database"
)

const refreshBatchSize = 200

type Enqueuer interface {
	EnqueueTask(task TaskInterface) error
}

// RefreshPricesTask queues a fresh scrape for every active property not checked within the refresh interval
type RefreshPricesTask struct {
	Task
	interval time.Duration
	scraper  Scraper
	repo     database.PropertyRepository
	cache    cache.ListingCache
	queue    Enqueuer
	now      func() time.Time
}

func NewRefreshPricesTask(interval time.Duration, scraper Scraper, repo database.PropertyRepository, listingCache cache.ListingCache, queue Enqueuer) *RefreshPricesTask {
	return &RefreshPricesTask{
		Task:     NewTask(TaskTypeRefreshPrices, "properties"),
		interval: interval,
		scraper:  scraper,
		repo:     repo,
		cache:    listingCache,
		queue:    queue,
		now:      time.Now,
	}
}

func (t *RefreshPricesTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	due, err := t.repo.ListDueForRefresh(t.now().Add(-t.interval), refreshBatchSize)
	if err != nil {
		return fmt.Errorf("failed to get properties due for refresh: %w", err)
	}

	if len(due) == 0 {
		slog.Debug("No properties due for refresh")
		return nil
	}

	queued := 0
	for _, property := range due {
		task := NewScrapeListingTask(property.SourceURL, t.scraper, t.repo, t.cache, false)
		if err := t.queue.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue ScrapeListingTask", "url", property.SourceURL, "error", err)
			continue
		}
		queued++
	}

	slog.Info("Task completed",
		"type", "RefreshedPrices",
		"duration", t.GetDuration(),
		"due", len(due),
		"queued", queued)

	return nil
}
