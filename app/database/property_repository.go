package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/listing-comb/app/listing"
)

const propertyColumns = `id, source_url, source, title, price, area, plot_area, rooms,
	location, description, details, condition, rating, status, edited,
	last_outcome, last_checked_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

type queryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

// PropertyStore handles database operations for tracked properties
type PropertyStore struct {
	db  *DB
	now func() time.Time
}

func NewPropertyStore(db *DB) *PropertyStore {
	return &PropertyStore{db: db, now: time.Now}
}

// GetProperty returns nil without error when the property does not exist
func (r *PropertyStore) GetProperty(id string) (*Property, error) {
	p, err := getProperty(r.db, "id", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return p, nil
}

func (r *PropertyStore) GetPropertyByURL(sourceURL string) (*Property, error) {
	p, err := getProperty(r.db, "source_url", sourceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get property by URL: %w", err)
	}
	return p, nil
}

func (r *PropertyStore) GetPropertyCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM properties").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get property count: %w", err)
	}
	return count, nil
}

// ListProperties returns properties newest first. A non-positive limit means no limit.
func (r *PropertyStore) ListProperties(limit, offset int) ([]Property, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(`
		SELECT `+propertyColumns+`
		FROM properties
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return collectProperties(rows)
}

// ListDueForRefresh returns active properties not checked since checkedBefore, least recently checked first
func (r *PropertyStore) ListDueForRefresh(checkedBefore time.Time, limit int) ([]Property, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(`
		SELECT `+propertyColumns+`
		FROM properties
		WHERE status = ?
		  AND (last_checked_at IS NULL OR last_checked_at <= ?)
		ORDER BY COALESCE(last_checked_at, ''), id
		LIMIT ?
	`, StatusActive, formatTime(checkedBefore), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get properties due for refresh: %w", err)
	}
	return collectProperties(rows)
}

// UpsertScraped stores a scraped listing. For a known URL the price is only
// touched when it changed, and user-edited fields are kept. The bool result
// reports a price change on an existing property.
func (r *PropertyStore) UpsertScraped(sourceURL string, l listing.Listing, outcome string) (*Property, bool, error) {
	now := formatTime(r.now())

	details, err := json.Marshal(detailsOrEmpty(l.RawParameters))
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode details: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := getProperty(tx, "source_url", sourceURL)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check existing property: %w", err)
	}

	var id string
	priceChanged := false
	newPrice, hasPrice := l.Price.Get()

	if existing == nil {
		id = uuid.NewString()
		_, err = tx.Exec(`
			INSERT INTO properties (
				id, source_url, source, title, price, area, plot_area, rooms,
				location, description, details, status, last_outcome,
				last_checked_at, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, sourceURL, listing.SourceName, l.Title, nullable(l.Price), nullable(l.Area),
			nullable(l.PlotArea), nullable(l.Rooms), l.Location, l.Description, string(details),
			StatusActive, outcome, now, now, now)
		if err != nil {
			return nil, false, fmt.Errorf("failed to insert property: %w", err)
		}
		if hasPrice {
			if err := insertPrice(tx, id, newPrice, now); err != nil {
				return nil, false, err
			}
		}
	} else {
		id = existing.ID

		if !existing.Edited {
			_, err = tx.Exec(`
				UPDATE properties
				SET title = ?, area = ?, plot_area = ?, rooms = ?, location = ?, description = ?, details = ?
				WHERE id = ?
			`, l.Title, nullable(l.Area), nullable(l.PlotArea), nullable(l.Rooms),
				l.Location, l.Description, string(details), id)
			if err != nil {
				return nil, false, fmt.Errorf("failed to update property fields: %w", err)
			}
		}

		oldPrice, hadPrice := existing.Price.Get()
		if hasPrice && (!hadPrice || oldPrice != newPrice) {
			priceChanged = hadPrice
			if err := insertPrice(tx, id, newPrice, now); err != nil {
				return nil, false, err
			}
		}

		_, err = tx.Exec(`
			UPDATE properties
			SET price = COALESCE(?, price), status = ?, last_outcome = ?, last_checked_at = ?, updated_at = ?
			WHERE id = ?
		`, nullable(l.Price), StatusActive, outcome, now, now, id)
		if err != nil {
			return nil, false, fmt.Errorf("failed to update property price: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit property: %w", err)
	}

	p, err := r.GetProperty(id)
	if err != nil {
		return nil, false, err
	}
	return p, priceChanged, nil
}

// MarkChecked stamps a refresh that did not produce a listing
func (r *PropertyStore) MarkChecked(id, outcome, status string) error {
	now := formatTime(r.now())
	_, err := r.db.Exec(`
		UPDATE properties
		SET last_outcome = ?, status = ?, last_checked_at = ?, updated_at = ?
		WHERE id = ?
	`, outcome, status, now, now, id)
	if err != nil {
		return fmt.Errorf("failed to mark property checked: %w", err)
	}
	return nil
}

// UpdateProperty applies user edits and flags the property as edited.
// It returns nil without error when the property does not exist.
func (r *PropertyStore) UpdateProperty(id string, update PropertyUpdate) (*Property, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	now := formatTime(r.now())

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := getProperty(tx, "id", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	if existing == nil {
		return nil, nil
	}

	sets := []string{"edited = 1", "updated_at = ?"}
	args := []any{now}
	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if update.Title != nil {
		add("title", *update.Title)
	}
	if update.Price != nil {
		add("price", *update.Price)
	}
	if update.Area != nil {
		add("area", *update.Area)
	}
	if update.PlotArea != nil {
		add("plot_area", *update.PlotArea)
	}
	if update.Rooms != nil {
		add("rooms", *update.Rooms)
	}
	if update.Location != nil {
		add("location", *update.Location)
	}
	if update.Description != nil {
		add("description", *update.Description)
	}
	if update.Condition != nil {
		add("condition", *update.Condition)
	}
	if update.Rating != nil {
		add("rating", *update.Rating)
	}

	args = append(args, id)
	_, err = tx.Exec("UPDATE properties SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update property: %w", err)
	}

	if update.Price != nil {
		if old, had := existing.Price.Get(); !had || old != *update.Price {
			if err := insertPrice(tx, id, *update.Price, now); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit property update: %w", err)
	}

	return r.GetProperty(id)
}

func (r *PropertyStore) DeleteProperty(id string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM properties WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete property: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

func getProperty(q queryRower, column, value string) (*Property, error) {
	row := q.QueryRow("SELECT "+propertyColumns+" FROM properties WHERE "+column+" = ?", value)
	p, err := scanProperty(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func collectProperties(rows *sql.Rows) ([]Property, error) {
	defer rows.Close()

	var properties []Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property row: %w", err)
		}
		properties = append(properties, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating property rows: %w", err)
	}

	return properties, nil
}

func scanProperty(s rowScanner) (*Property, error) {
	var p Property
	var price *int64
	var rooms *int
	var area, plotArea *float64
	var details string
	var lastChecked sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(
		&p.ID, &p.SourceURL, &p.Source, &p.Title, &price, &area, &plotArea, &rooms,
		&p.Location, &p.Description, &details, &p.Condition, &p.Rating, &p.Status, &p.Edited,
		&p.LastOutcome, &lastChecked, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Price = listing.FromPtr(price)
	p.Rooms = listing.FromPtr(rooms)
	p.Area = listing.FromPtr(area)
	p.PlotArea = listing.FromPtr(plotArea)

	if err := json.Unmarshal([]byte(details), &p.Details); err != nil {
		return nil, fmt.Errorf("failed to decode details: %w", err)
	}

	if p.LastCheckedAt, err = parseNullTime(lastChecked); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &p, nil
}

func nullable[T any](f listing.Field[T]) any {
	if v, ok := f.Get(); ok {
		return v
	}
	return nil
}

func detailsOrEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
