package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/listing-comb/app/cache"
	"github.com/lysyi3m/listing-comb/app/database"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const (
	maxTickInterval    = time.Hour
	defaultTaskTimeout = 5 * time.Minute
	queueSize          = 300

	// Room for rate limiter waits, cache and storage on top of the scrape itself.
	taskOverhead = 30 * time.Second
)

type Scheduler struct {
	repo            database.PropertyRepository
	scraper         Scraper
	cache           cache.ListingCache
	refreshInterval time.Duration
	tickInterval    time.Duration
	workerCount     int
	taskTimeout     time.Duration
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	taskQueue       chan TaskInterface
}

// NewScheduler creates a scheduler whose tasks get scrapeBudget plus a fixed
// overhead to finish. A non-positive scrapeBudget falls back to a default timeout.
func NewScheduler(repo database.PropertyRepository, scraper Scraper, listingCache cache.ListingCache,
	refreshInterval time.Duration, workerCount int, scrapeBudget time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if workerCount < 1 {
		workerCount = 1
	}

	tick := refreshInterval
	if tick <= 0 || tick > maxTickInterval {
		tick = maxTickInterval
	}

	timeout := defaultTaskTimeout
	if scrapeBudget > 0 {
		timeout = scrapeBudget + taskOverhead
	}

	return &Scheduler{
		repo:            repo,
		scraper:         scraper,
		cache:           listingCache,
		refreshInterval: refreshInterval,
		tickInterval:    tick,
		workerCount:     workerCount,
		taskTimeout:     timeout,
		ctx:             ctx,
		cancel:          cancel,
		taskQueue:       make(chan TaskInterface, queueSize),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	if s.refreshInterval <= 0 {
		slog.Info("Scheduled price refresh disabled")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.tickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				if err := s.RefreshNow(); err != nil {
					slog.Warn("Failed to enqueue RefreshPricesTask", "error", err)
				}
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// RefreshNow queues a refresh of every property due for a price check
func (s *Scheduler) RefreshNow() error {
	return s.EnqueueTask(NewRefreshPricesTask(s.refreshInterval, s.scraper, s.repo, s.cache, s))
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, s.taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	delay := retryDelay(task.GetRetryCount())

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "target", task.GetTarget(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", delay.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
			return
		}

		if retryErr := s.EnqueueTask(task); retryErr != nil {
			slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
		}
	}()
}
