package database

import (
	"time"

	"github.com/lysyi3m/listing-comb/app/listing"
)

type PropertyRepository interface {
	GetProperty(id string) (*Property, error)
	GetPropertyByURL(sourceURL string) (*Property, error)
	GetPropertyCount() (int, error)
	ListProperties(limit, offset int) ([]Property, error)
	ListDueForRefresh(checkedBefore time.Time, limit int) ([]Property, error)

	UpsertScraped(sourceURL string, l listing.Listing, outcome string) (*Property, bool, error)
	MarkChecked(id, outcome, status string) error
	UpdateProperty(id string, update PropertyUpdate) (*Property, error)
	DeleteProperty(id string) (bool, error)

	GetPriceHistory(id string) ([]PricePoint, error)
	GetRecentPriceChanges(limit int) ([]PriceChange, error)
}
