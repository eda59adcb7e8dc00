package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ramonehamilton/deck-budget/internal/pricing"
)

// PrintingCache stores the printings fetched for a card name so repeated
// runs don't hit the pricing API again. Entries are keyed by card name and
// currency since the stored prices are already in that currency. A lookup
// with zero printings is cached as well.
type PrintingCache struct {
	db  *DB
	now func() time.Time
}

// CacheStats summarizes the cache contents.
type CacheStats struct {
	Cards     int
	Printings int
	Oldest    time.Time
	Newest    time.Time
}

// NewPrintingCache creates a cache on db.
func NewPrintingCache(db *DB) *PrintingCache {
	return &PrintingCache{db: db, now: time.Now}
}

// Get returns the printings of name cached for currency. The second result is false when
// nothing is cached or the entry is older than maxAge (maxAge <= 0 never
// expires).
func (c *PrintingCache) Get(ctx context.Context, name, currency string, maxAge time.Duration) ([]pricing.Printing, bool, error) {
	var fetchedAt int64
	err := c.db.conn.QueryRowContext(ctx,
		`SELECT fetched_at FROM card_lookups WHERE card_name = ? AND currency = ?`, name, currency,
	).Scan(&fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read lookup of '%s' (%s): %w", name, currency, err)
	}

	if maxAge > 0 && c.now().Sub(time.Unix(fetchedAt, 0)) > maxAge {
		return nil, false, nil
	}

	rows, err := c.db.conn.QueryContext(ctx, `
		SELECT name, set_code, collector_number, price_low, price_market, price_trend
		FROM printings
		WHERE card_name = ? AND currency = ?
		ORDER BY position`, name, currency)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query printings of '%s': %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	printings := make([]pricing.Printing, 0)
	for rows.Next() {
		var p pricing.Printing
		if err := rows.Scan(&p.Name, &p.Set, &p.CollectorNumber, &p.Low, &p.Market, &p.Trend); err != nil {
			return nil, false, fmt.Errorf("failed to scan printing: %w", err)
		}
		printings = append(printings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to iterate printings: %w", err)
	}

	return printings, true, nil
}

// Put replaces the printings of name cached for currency.
func (c *PrintingCache) Put(ctx context.Context, name, currency string, printings []pricing.Printing) error {
	return c.db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM printings WHERE card_name = ? AND currency = ?`, name, currency); err != nil {
			return fmt.Errorf("failed to clear printings of '%s': %w", name, err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO card_lookups (card_name, currency, fetched_at) VALUES (?, ?, ?)
			ON CONFLICT(card_name, currency) DO UPDATE SET fetched_at = excluded.fetched_at`,
			name, currency, c.now().Unix(),
		); err != nil {
			return fmt.Errorf("failed to store lookup of '%s': %w", name, err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO printings (card_name, currency, position, name, set_code, collector_number, price_low, price_market, price_trend)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare printing insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i, p := range printings {
			if _, err := stmt.ExecContext(ctx, name, currency, i, p.Name, p.Set, p.CollectorNumber, p.Low, p.Market, p.Trend); err != nil {
				return fmt.Errorf("failed to store printing %s #%s: %w", p.Set, p.CollectorNumber, err)
			}
		}
		return nil
	})
}

// Clear removes every cached lookup and returns how many were removed.
func (c *PrintingCache) Clear(ctx context.Context) (int64, error) {
	var removed int64
	err := c.db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM printings`); err != nil {
			return fmt.Errorf("failed to clear printings: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM card_lookups`)
		if err != nil {
			return fmt.Errorf("failed to clear lookups: %w", err)
		}
		removed, err = res.RowsAffected()
		return err
	})
	return removed, err
}

// Stats returns the number of cached lookups and printings and the age
// range. A card cached in two currencies counts twice.
func (c *PrintingCache) Stats(ctx context.Context) (CacheStats, error) {
	var stats CacheStats
	var oldest, newest sql.NullInt64

	err := c.db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*), MIN(fetched_at), MAX(fetched_at) FROM card_lookups`,
	).Scan(&stats.Cards, &oldest, &newest)
	if err != nil {
		return stats, fmt.Errorf("failed to read cache stats: %w", err)
	}

	if err := c.db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM printings`).Scan(&stats.Printings); err != nil {
		return stats, fmt.Errorf("failed to count printings: %w", err)
	}

	if oldest.Valid {
		stats.Oldest = time.Unix(oldest.Int64, 0)
	}
	if newest.Valid {
		stats.Newest = time.Unix(newest.Int64, 0)
	}
	return stats, nil
}
