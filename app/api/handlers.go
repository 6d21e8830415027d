package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/listing-comb/app/cache"
	"github.com/lysyi3m/listing-comb/app/database"
	"github.com/lysyi3m/listing-comb/app/fetch"
	"github.com/lysyi3m/listing-comb/app/feed"
	"github.com/lysyi3m/listing-comb/app/listing"
	"github.com/lysyi3m/listing-comb/app/scrape"
	"github.com/lysyi3m/listing-comb/app/tasks"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	feedSize        = 50
)

func NewHandler(repo database.PropertyRepository, scraper tasks.Scraper, listingCache cache.ListingCache,
	scheduler tasks.TaskSchedulerInterface, baseURL, version string) *Handler {
	if listingCache == nil {
		listingCache = cache.Noop{}
	}
	return &Handler{
		repo:      repo,
		scraper:   scraper,
		cache:     listingCache,
		generator: feed.NewGenerator(),
		scheduler: scheduler,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		version:   version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
		"cache":     h.cache.Health(c.Request.Context()),
	}

	if count, err := h.repo.GetPropertyCount(); err == nil {
		health["properties"] = count
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetPriceChangesFeed(c *gin.Context) {
	changes, err := h.repo.GetRecentPriceChanges(feedSize)
	if err != nil {
		slog.Error("Database error", "operation", "get_price_changes", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	ch := feed.Channel{
		Title:       "Otodom price changes",
		Description: "Price changes of tracked otodom.pl listings",
		SiteLink:    "https://www.otodom.pl/",
		Generator:   "Listing Comb " + h.version,
	}
	if h.baseURL != "" {
		ch.SelfLink = h.baseURL + "/feeds/price-changes"
	}

	rss, err := h.generator.Run(ch, changes)
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(changes)))
	c.String(http.StatusOK, rss)
}

func (h *Handler) APIScrape(c *gin.Context) {
	var req scrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url in request body"})
		return
	}

	target := strings.TrimSpace(req.URL)
	if !listing.IsTargetURL(target) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only otodom.pl listing URLs are supported"})
		return
	}

	task := tasks.NewScrapeListingTask(target, h.scraper, h.repo, h.cache, true)
	task.Start()

	report, err := task.Run(c.Request.Context())
	if err != nil {
		slog.Error("Scrape failed", "url", target, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store scraped listing"})
		return
	}

	res := report.Result
	if res.Outcome != scrape.Success {
		status, message := failureStatus(res)
		c.JSON(status, gin.H{
			"error":    message,
			"outcome":  res.Outcome.String(),
			"attempts": res.Attempts,
			"property": report.Property,
		})
		return
	}

	c.JSON(http.StatusOK, scrapeResponse{
		Property:     report.Property,
		Outcome:      res.Outcome.String(),
		Attempts:     res.Attempts,
		PriceChanged: report.PriceChanged,
		Cached:       report.FromCache,
	})
}

// failureStatus maps a non-success scrape outcome to an HTTP status and message
func failureStatus(res scrape.Result) (int, string) {
	switch res.Outcome {
	case scrape.Archived:
		return http.StatusGone, scrape.ErrArchived.Error()
	case scrape.Blocked:
		return http.StatusServiceUnavailable, scrape.ErrBlocked.Error()
	case scrape.PermanentError:
		var httpErr *fetch.HTTPError
		if errors.As(res.Err, &httpErr) && httpErr.Permanent() {
			return http.StatusNotFound, "listing not found"
		}
		return http.StatusUnprocessableEntity, errorMessage(res.Err, "listing cannot be scraped")
	default:
		return http.StatusBadGateway, errorMessage(res.Err, "listing source unavailable")
	}
}

func errorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	return err.Error()
}

func (h *Handler) APIListProperties(c *gin.Context) {
	limit := queryInt(c, "limit", defaultPageSize)
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	properties, err := h.repo.ListProperties(limit, offset)
	if err != nil {
		slog.Error("Database error", "operation", "list_properties", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if properties == nil {
		properties = []database.Property{}
	}

	total, err := h.repo.GetPropertyCount()
	if err != nil {
		slog.Error("Database error", "operation", "count_properties", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"properties": properties,
		"total":      total,
		"limit":      limit,
		"offset":     offset,
	})
}

func (h *Handler) APIGetProperty(c *gin.Context) {
	property, ok := h.loadProperty(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, property)
}

func (h *Handler) APIUpdateProperty(c *gin.Context) {
	id := c.Param("id")

	var update database.PropertyUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	property, err := h.repo.UpdateProperty(id, update)
	if errors.Is(err, database.ErrInvalidCondition) || errors.Is(err, database.ErrInvalidRating) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		slog.Error("Database error", "operation", "update_property", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if property == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	c.JSON(http.StatusOK, property)
}

func (h *Handler) APIDeleteProperty(c *gin.Context) {
	property, ok := h.loadProperty(c)
	if !ok {
		return
	}

	deleted, err := h.repo.DeleteProperty(property.ID)
	if err != nil {
		slog.Error("Database error", "operation", "delete_property", "id", property.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	if err := h.cache.DeleteListing(c.Request.Context(), property.SourceURL); err != nil {
		slog.Warn("Failed to evict listing cache", "url", property.SourceURL, "error", err)
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) APIGetPriceHistory(c *gin.Context) {
	property, ok := h.loadProperty(c)
	if !ok {
		return
	}

	history, err := h.repo.GetPriceHistory(property.ID)
	if err != nil {
		slog.Error("Database error", "operation", "get_price_history", "id", property.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"property_id": property.ID,
		"history":     history,
	})
}

func (h *Handler) APIUpdatePrices(c *gin.Context) {
	if err := h.scheduler.RefreshNow(); err != nil {
		slog.Error("Error enqueueing refresh task", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue refresh task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Price refresh enqueued",
	})
}

func (h *Handler) loadProperty(c *gin.Context) (*database.Property, bool) {
	id := c.Param("id")

	property, err := h.repo.GetProperty(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_property", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}
	if property == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return nil, false
	}
	return property, true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
