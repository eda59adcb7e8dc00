package storage

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/blake2b"

	"github.com/ramonehamilton/deck-budget/internal/decklist"
	"github.com/ramonehamilton/deck-budget/internal/pricing"
)

// Run is one completed pricing of a deck list.
type Run struct {
	ID          int64
	Fingerprint string
	CreatedAt   time.Time
	Mode        pricing.Mode
	Currency    string
	Commander   decimal.Decimal
	Deck        decimal.Decimal
	Sideboard   decimal.Decimal
	GrandTotal  decimal.Decimal
	// Legal is nil when the budget check was disabled.
	Legal    *bool
	Cards    int
	NotFound int
}

// NewRun builds the history record of a report.
func NewRun(sections decklist.Sections, report *pricing.Report, mode pricing.Mode, currency string) Run {
	run := Run{
		Fingerprint: Fingerprint(sections),
		Mode:        mode,
		Currency:    currency,
		Commander:   report.Summary.CommanderOnly,
		Deck:        report.Summary.DeckWithoutCommander,
		Sideboard:   report.Summary.Sideboard,
		GrandTotal:  report.Summary.GrandTotal,
		NotFound:    len(report.NotFound()),
	}
	for _, section := range decklist.Order {
		run.Cards += sections.Cards(section)
	}
	if report.Summary.LegalityChecked {
		legal := report.Summary.Legal
		run.Legal = &legal
	}
	return run
}

// Fingerprint identifies a deck list independent of formatting: two lists
// with the same cards per section in the same order share a fingerprint.
func Fingerprint(sections decklist.Sections) string {
	var sb strings.Builder
	for _, section := range decklist.Order {
		sb.WriteString(string(section))
		sb.WriteByte('\n')
		for _, e := range sections[section] {
			fmt.Fprintf(&sb, "%d %s\n", e.Quantity, e.Name)
		}
	}
	sum := blake2b.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// RunStore records pricing runs.
type RunStore struct {
	db  *DB
	now func() time.Time
}

// NewRunStore creates a run store on db.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db, now: time.Now}
}

// Record stores run and returns its ID. CreatedAt defaults to now.
func (s *RunStore) Record(ctx context.Context, run Run) (int64, error) {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now()
	}

	var legal sql.NullBool
	if run.Legal != nil {
		legal = sql.NullBool{Bool: *run.Legal, Valid: true}
	}

	res, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO pricing_runs (
			fingerprint, created_at, mode, currency,
			commander_total, deck_total, sideboard_total, grand_total,
			legal, cards, not_found
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Fingerprint, run.CreatedAt.Unix(), string(run.Mode), run.Currency,
		run.Commander.String(), run.Deck.String(), run.Sideboard.String(), run.GrandTotal.String(),
		legal, run.Cards, run.NotFound,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}
	return id, nil
}

// Recent returns the latest runs, newest first.
func (s *RunStore) Recent(ctx context.Context, limit int) ([]Run, error) {
	return s.query(ctx, `ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
}

// ByFingerprint returns the runs of one deck list, newest first.
func (s *RunStore) ByFingerprint(ctx context.Context, fingerprint string, limit int) ([]Run, error) {
	return s.query(ctx, `WHERE fingerprint = ? ORDER BY created_at DESC, id DESC LIMIT ?`, fingerprint, limit)
}

func (s *RunStore) query(ctx context.Context, clause string, args ...interface{}) ([]Run, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, fingerprint, created_at, mode, currency,
			commander_total, deck_total, sideboard_total, grand_total,
			legal, cards, not_found
		FROM pricing_runs `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := make([]Run, 0)
	for rows.Next() {
		var (
			run       Run
			createdAt int64
			mode      string
			legal     sql.NullBool
		)
		if err := rows.Scan(
			&run.ID, &run.Fingerprint, &createdAt, &mode, &run.Currency,
			&run.Commander, &run.Deck, &run.Sideboard, &run.GrandTotal,
			&legal, &run.Cards, &run.NotFound,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.CreatedAt = time.Unix(createdAt, 0)
		run.Mode = pricing.Mode(mode)
		if legal.Valid {
			l := legal.Bool
			run.Legal = &l
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}
