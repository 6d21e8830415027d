package scrape

import "time"

// Policy bounds the fetch-extract loop. Delay before attempt n+1 is
// BaseDelay*n², never below MinDelay and never above MaxDelay.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MinDelay    time.Duration
	MaxDelay    time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MinDelay:    500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
	}
}

// Delay returns the wait after the given failed attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseDelay * time.Duration(attempt*attempt)
	if d < p.MinDelay {
		d = p.MinDelay
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Budget is the longest a Scrape can run when every attempt uses the full
// per-attempt timeout and every retry waits out its delay.
func (p Policy) Budget(perAttempt time.Duration) time.Duration {
	n := p.attempts()
	total := perAttempt * time.Duration(n)
	for attempt := 1; attempt < n; attempt++ {
		total += p.Delay(attempt)
	}
	return total
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}
