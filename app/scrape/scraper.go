package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/listing-comb/app/fetch"
	"github.com/lysyi3m/listing-comb/app/listing"
	"github.com/lysyi3m/listing-comb/app/markup"
)

var (
	ErrInvalidURL = errors.New("not a listing URL")
	ErrArchived   = errors.New("listing archived")
	ErrBlocked    = errors.New("blocked by source")
	ErrNoTitle    = errors.New("no title extracted")
)

type Fetcher interface {
	Fetch(ctx context.Context, locator string, opts fetch.Options) (*fetch.RawDocument, error)
}

type Extractor interface {
	Extract(doc *markup.Document, sourceURL string) (listing.Listing, listing.Trace)
	Archived(doc *markup.Document) bool
	Blocked(doc *markup.Document) bool
}

// Result is the classified outcome of one Scrape call. Listing is set only on Success.
type Result struct {
	Outcome  Outcome
	Listing  *listing.Listing
	Trace    listing.Trace
	Attempts int
	FinalURL string
	Err      error
}

type Scraper struct {
	fetcher   Fetcher
	extractor Extractor
	policy    Policy
	opts      fetch.Options
}

func New(fetcher Fetcher, extractor Extractor, policy Policy, opts fetch.Options) *Scraper {
	return &Scraper{
		fetcher:   fetcher,
		extractor: extractor,
		policy:    policy,
		opts:      opts,
	}
}

// Budget is the worst-case duration of one Scrape call.
func (s *Scraper) Budget() time.Duration {
	return s.policy.Budget(s.opts.EffectiveTimeout())
}

// Scrape runs fetch, parse and extract until the outcome is not retryable
// or the policy's attempts are used up. The last outcome is returned.
func (s *Scraper) Scrape(ctx context.Context, target string) Result {
	if !listing.IsTargetURL(target) {
		return Result{
			Outcome: PermanentError,
			Err:     fmt.Errorf("%w: %q", ErrInvalidURL, target),
		}
	}

	maxAttempts := s.policy.attempts()
	var res Result
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res = s.attempt(ctx, target)
		res.Attempts = attempt

		if !res.Outcome.Retryable() || attempt == maxAttempts || ctx.Err() != nil {
			return res
		}

		delay := s.policy.Delay(attempt)
		slog.Debug("Retrying scrape",
			"url", target,
			"attempt", attempt,
			"outcome", res.Outcome,
			"delay", delay,
			"error", res.Err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return res
		}
	}

	return res
}

func (s *Scraper) attempt(ctx context.Context, target string) Result {
	raw, err := s.fetcher.Fetch(ctx, target, s.opts)
	if err != nil {
		return Result{Outcome: ClassifyFetchError(err), Err: err}
	}

	res := s.Process(raw.Body, raw.FinalURL)
	res.FinalURL = raw.FinalURL
	return res
}

// Process classifies an already fetched page body. It never panics.
func (s *Scraper) Process(body []byte, sourceURL string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Outcome: TransientError, Err: fmt.Errorf("extraction failed: %v", r)}
		}
	}()

	doc, err := markup.Parse(body)
	if err != nil {
		return Result{Outcome: TransientError, Err: err}
	}

	if s.extractor.Archived(doc) {
		return Result{Outcome: Archived, Err: ErrArchived}
	}
	if s.extractor.Blocked(doc) {
		return Result{Outcome: Blocked, Err: ErrBlocked}
	}

	l, trace := s.extractor.Extract(doc, sourceURL)
	if l.Title == "" {
		return Result{Outcome: TransientError, Trace: trace, Err: ErrNoTitle}
	}

	return Result{Outcome: Success, Listing: &l, Trace: trace}
}
