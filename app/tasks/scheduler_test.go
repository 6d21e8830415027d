package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lysyi3m/listing-comb/app/cache"
	"github.com/lysyi3m/listing-comb/app/database"
	"github.com/lysyi3m/listing-comb/app/scrape"
)

type signalTask struct {
	Task
	done chan struct{}
	fail int
	mu   sync.Mutex
	runs int
}

func newSignalTask(fail int) *signalTask {
	return &signalTask{Task: NewTask(TaskTypeScrapeListing, "signal"), done: make(chan struct{}), fail: fail}
}

func (s *signalTask) Execute(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	if s.runs <= s.fail {
		return errors.New("transient storage failure")
	}
	close(s.done)
	return nil
}

type recordingQueue struct {
	tasks []TaskInterface
}

func (q *recordingQueue) EnqueueTask(task TaskInterface) error {
	q.tasks = append(q.tasks, task)
	return nil
}

func TestScheduler_ExecutesTasks(t *testing.T) {
	s := NewScheduler(newMockRepo(), &mockScraper{}, cache.Noop{}, 0, 2, 0)
	s.Start()
	defer s.Stop()

	task := newSignalTask(0)
	if err := s.EnqueueTask(task); err != nil {
		t.Fatalf("EnqueueTask failed: %v", err)
	}

	select {
	case <-task.done:
	case <-time.After(5 * time.Second):
		t.Fatal("Task was not executed")
	}
}

func TestScheduler_RetriesFailedTask(t *testing.T) {
	s := NewScheduler(newMockRepo(), &mockScraper{}, cache.Noop{}, 0, 1, 0)
	s.Start()
	defer s.Stop()

	task := newSignalTask(1)
	if err := s.EnqueueTask(task); err != nil {
		t.Fatalf("EnqueueTask failed: %v", err)
	}

	select {
	case <-task.done:
	case <-time.After(5 * time.Second):
		t.Fatal("Task was not retried")
	}
	if task.GetRetryCount() != 1 {
		t.Errorf("Expected 1 retry, got %d", task.GetRetryCount())
	}
}

func TestScheduler_EnqueueAfterStop(t *testing.T) {
	s := NewScheduler(newMockRepo(), &mockScraper{}, cache.Noop{}, 0, 1, 0)
	s.Start()
	s.Stop()

	if err := s.EnqueueTask(newSignalTask(0)); err == nil {
		t.Error("Expected error when enqueueing on a stopped scheduler")
	}
}

type deadlineTask struct {
	Task
	remaining chan time.Duration
}

func (d *deadlineTask) Execute(ctx context.Context) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		d.remaining <- 0
		return nil
	}
	d.remaining <- time.Until(deadline)
	return nil
}

func TestScheduler_TaskTimeout(t *testing.T) {
	tests := []struct {
		name   string
		budget time.Duration
		want   time.Duration
	}{
		{"derived from scrape budget", 365 * time.Second, 365*time.Second + taskOverhead},
		{"budget beyond the old fixed limit", 20 * time.Minute, 20*time.Minute + taskOverhead},
		{"no budget", 0, defaultTaskTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(newMockRepo(), &mockScraper{}, cache.Noop{}, 0, 1, tt.budget)
			if s.taskTimeout != tt.want {
				t.Fatalf("Expected task timeout %v, got %v", tt.want, s.taskTimeout)
			}

			s.Start()
			defer s.Stop()

			task := &deadlineTask{Task: NewTask(TaskTypeScrapeListing, "deadline"), remaining: make(chan time.Duration, 1)}
			if err := s.EnqueueTask(task); err != nil {
				t.Fatalf("EnqueueTask failed: %v", err)
			}

			select {
			case got := <-task.remaining:
				if got <= tt.want-5*time.Second || got > tt.want {
					t.Errorf("Expected task deadline about %v away, got %v", tt.want, got)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("Task was not executed")
			}
		})
	}
}

func TestRefreshPricesTask(t *testing.T) {
	repo := newMockRepo()
	repo.due = []database.Property{
		{ID: "p1", SourceURL: "https://www.otodom.pl/pl/oferta/a"},
		{ID: "p2", SourceURL: "https://www.otodom.pl/pl/oferta/b"},
	}
	queue := &recordingQueue{}
	scraper := &mockScraper{results: []scrape.Result{successResult(1)}}

	task := NewRefreshPricesTask(24*time.Hour, scraper, repo, cache.Noop{}, queue)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(queue.tasks) != 2 {
		t.Fatalf("Expected 2 queued tasks, got %d", len(queue.tasks))
	}
	if queue.tasks[1].GetTarget() != "https://www.otodom.pl/pl/oferta/b" {
		t.Errorf("Unexpected target %q", queue.tasks[1].GetTarget())
	}
	if scraper.Calls() != 0 {
		t.Error("Refresh should only queue work")
	}
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		retry int
		want  time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{6, 30 * time.Second},
		{40, 30 * time.Second},
	}
	for _, tt := range tests {
		if got := retryDelay(tt.retry); got != tt.want {
			t.Errorf("retryDelay(%d) = %v, want %v", tt.retry, got, tt.want)
		}
	}
}
