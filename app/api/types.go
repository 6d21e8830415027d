package api

import (
	"github.com/lysyi3m/listing-comb/app/cache"
	"github.com/lysyi3m/listing-comb/app/database"
	"github.com/lysyi3m/listing-comb/app/feed"
	"github.com/lysyi3m/listing-comb/app/tasks"
)

type GeneratorInterface interface {
	Run(ch feed.Channel, changes []database.PriceChange) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

type Handler struct {
	repo      database.PropertyRepository
	scraper   tasks.Scraper
	cache     cache.ListingCache
	generator GeneratorInterface
	scheduler tasks.TaskSchedulerInterface
	baseURL   string
	version   string
}

type scrapeRequest struct {
	URL string `json:"url" binding:"required"`
}

type scrapeResponse struct {
	Property     *database.Property `json:"property"`
	Outcome      string             `json:"outcome"`
	Attempts     int                `json:"attempts"`
	PriceChanged bool               `json:"price_changed"`
	Cached       bool               `json:"cached"`
}
