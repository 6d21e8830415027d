package cache

import "context"

// Noop is used when no Redis address is configured; every lookup misses.
type Noop struct{}

func (Noop) GetListing(ctx context.Context, sourceURL string) (*Entry, bool, error) {
	return nil, false, nil
}

func (Noop) SetListing(ctx context.Context, sourceURL string, entry Entry) error {
	return nil
}

func (Noop) DeleteListing(ctx context.Context, sourceURL string) error {
	return nil
}

func (Noop) Health(ctx context.Context) map[string]any {
	return map[string]any{"status": "disabled", "type": "none"}
}

func (Noop) Close() error {
	return nil
}
