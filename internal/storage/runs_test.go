package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ramonehamilton/deck-budget/internal/decklist"
	"github.com/ramonehamilton/deck-budget/internal/pricing"
)

func TestFingerprint(t *testing.T) {
	a := decklist.Parse([]string{"Commander", "1 Atraxa, Grand Unifier", "Deck", "1 Sol Ring (C21) 263"})
	b := decklist.Parse([]string{"1 Atraxa, Grand Unifier (ONE) 196", "1 Sol Ring"})
	c := decklist.Parse([]string{"Commander", "1 Atraxa, Grand Unifier", "Deck", "2 Sol Ring"})

	if Fingerprint(a) != Fingerprint(b) {
		t.Error("set annotations and headers should not change the fingerprint")
	}
	if Fingerprint(a) == Fingerprint(c) {
		t.Error("different quantities must change the fingerprint")
	}
	if len(Fingerprint(a)) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(Fingerprint(a)))
	}
}

func TestRunStore_RecordAndQuery(t *testing.T) {
	store := NewRunStore(openTestDB(t))
	ctx := context.Background()

	sections := decklist.Parse([]string{"Commander", "1 Atraxa, Grand Unifier", "Deck", "1 Sol Ring", "99 Island"})
	report := &pricing.Report{
		Items: []pricing.LineItem{{Name: "Atraxa, Grand Unifier", Found: true}, {Name: "Sol Ring", Found: false}},
		Summary: pricing.Summarize(map[decklist.Section]decimal.Decimal{
			decklist.Commander: decimal.RequireFromString("5.00"),
			decklist.Deck:      decimal.RequireFromString("11.90"),
		}, pricing.DefaultThreshold, true),
	}

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := NewRun(sections, report, pricing.ModeCheapestEver, "eur")
	first.CreatedAt = base
	second := NewRun(sections, report, pricing.ModeMarketTrend, "eur")
	second.CreatedAt = base.Add(time.Hour)

	if first.Cards != 101 {
		t.Errorf("Cards = %d, want 101", first.Cards)
	}
	if first.NotFound != 1 {
		t.Errorf("NotFound = %d, want 1", first.NotFound)
	}

	for _, run := range []Run{first, second} {
		if _, err := store.Record(ctx, run); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	runs, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	if runs[0].Mode != pricing.ModeMarketTrend {
		t.Errorf("newest run mode = %s, want market-trend", runs[0].Mode)
	}
	if !runs[1].GrandTotal.Equal(decimal.RequireFromString("16.90")) {
		t.Errorf("GrandTotal = %s, want 16.90", runs[1].GrandTotal)
	}
	if runs[1].Legal == nil || !*runs[1].Legal {
		t.Errorf("Legal = %v, want true", runs[1].Legal)
	}
	if !runs[1].CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, want %v", runs[1].CreatedAt, base)
	}

	byFP, err := store.ByFingerprint(ctx, Fingerprint(sections), 1)
	if err != nil {
		t.Fatalf("ByFingerprint() error = %v", err)
	}
	if len(byFP) != 1 {
		t.Errorf("len(ByFingerprint) = %d, want 1", len(byFP))
	}

	none, _ := store.ByFingerprint(ctx, "deadbeef", 10)
	if len(none) != 0 {
		t.Errorf("unknown fingerprint returned %d runs", len(none))
	}
}

func TestRunStore_LegalityUnchecked(t *testing.T) {
	store := NewRunStore(openTestDB(t))
	ctx := context.Background()

	run := Run{Fingerprint: "abc", Mode: pricing.ModeCheapestEver, Currency: "usd"}
	if _, err := store.Record(ctx, run); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	runs, _ := store.Recent(ctx, 1)
	if len(runs) != 1 || runs[0].Legal != nil {
		t.Errorf("Legal should be nil when unchecked: %+v", runs)
	}
}
