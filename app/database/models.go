package database

import (
	"errors"
	"time"

	"github.com/lysyi3m/listing-comb/app/listing"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Conditions a user can assign to a property. The first one means "not chosen yet".
var Conditions = []string{"wybierz", "do zamieszkania", "do remontu", "w budowie", "stan deweloperski"}

var Ratings = []string{"", "favorite", "interested", "not_interested"}

var (
	ErrInvalidCondition = errors.New("invalid condition")
	ErrInvalidRating    = errors.New("invalid rating")
)

type Property struct {
	ID            string                 `json:"id"`
	SourceURL     string                 `json:"source_url"`
	Source        string                 `json:"source"`
	Title         string                 `json:"title"`
	Price         listing.Field[int64]   `json:"price"`
	Area          listing.Field[float64] `json:"area"`
	PlotArea      listing.Field[float64] `json:"plot_area"`
	Rooms         listing.Field[int]     `json:"rooms"`
	Location      string                 `json:"location"`
	Description   string                 `json:"description"`
	Details       map[string]string      `json:"details"`
	Condition     string                 `json:"condition"`
	Rating        string                 `json:"rating"`
	Status        string                 `json:"status"`
	Edited        bool                   `json:"edited"`
	LastOutcome   string                 `json:"last_outcome"`
	LastCheckedAt *time.Time             `json:"last_checked_at"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

type PricePoint struct {
	Price      int64     `json:"price"`
	RecordedAt time.Time `json:"date"`
}

type PriceChange struct {
	PropertyID string    `json:"property_id"`
	Title      string    `json:"title"`
	SourceURL  string    `json:"source_url"`
	OldPrice   int64     `json:"old_price"`
	NewPrice   int64     `json:"new_price"`
	ChangedAt  time.Time `json:"changed_at"`
}

// PropertyUpdate carries user edits. Nil fields are left unchanged.
type PropertyUpdate struct {
	Title       *string  `json:"title"`
	Price       *int64   `json:"price"`
	Area        *float64 `json:"area"`
	PlotArea    *float64 `json:"plot_area"`
	Rooms       *int     `json:"rooms"`
	Location    *string  `json:"location"`
	Description *string  `json:"description"`
	Condition   *string  `json:"condition"`
	Rating      *string  `json:"rating"`
}

func (u PropertyUpdate) Validate() error {
	if u.Condition != nil && !contains(Conditions, *u.Condition) {
		return ErrInvalidCondition
	}
	if u.Rating != nil && !contains(Ratings, *u.Rating) {
		return ErrInvalidRating
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
