package database

import (
	"database/sql"
	"fmt"
)

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// GetPriceHistory returns every recorded price oldest first; the first point is the price at creation
func (r *PropertyStore) GetPriceHistory(id string) ([]PricePoint, error) {
	rows, err := r.db.Query(`
		SELECT price, recorded_at
		FROM price_history
		WHERE property_id = ?
		ORDER BY recorded_at, id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get price history: %w", err)
	}
	defer rows.Close()

	history := []PricePoint{}
	for rows.Next() {
		var point PricePoint
		var recordedAt string
		if err := rows.Scan(&point.Price, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		if point.RecordedAt, err = parseTime(recordedAt); err != nil {
			return nil, err
		}
		history = append(history, point)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price rows: %w", err)
	}

	return history, nil
}

// GetRecentPriceChanges pairs each history entry with the one before it, newest first
func (r *PropertyStore) GetRecentPriceChanges(limit int) ([]PriceChange, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(`
		SELECT p.id, p.title, p.source_url, h.old_price, h.price, h.recorded_at
		FROM (
			SELECT id, property_id, price, recorded_at,
			       LAG(price) OVER (PARTITION BY property_id ORDER BY recorded_at, id) AS old_price
			FROM price_history
		) h
		JOIN properties p ON p.id = h.property_id
		WHERE h.old_price IS NOT NULL AND h.old_price != h.price
		ORDER BY h.recorded_at DESC, h.id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent price changes: %w", err)
	}
	defer rows.Close()

	var changes []PriceChange
	for rows.Next() {
		var c PriceChange
		var changedAt string
		if err := rows.Scan(&c.PropertyID, &c.Title, &c.SourceURL, &c.OldPrice, &c.NewPrice, &changedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price change row: %w", err)
		}
		if c.ChangedAt, err = parseTime(changedAt); err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price change rows: %w", err)
	}

	return changes, nil
}

func insertPrice(e execer, id string, price int64, recordedAt string) error {
	_, err := e.Exec(`
		INSERT INTO price_history (property_id, price, recorded_at)
		VALUES (?, ?, ?)
	`, id, price, recordedAt)
	if err != nil {
		return fmt.Errorf("failed to record price: %w", err)
	}
	return nil
}
