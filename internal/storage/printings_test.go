package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ramonehamilton/deck-budget/internal/pricing"
)

func TestPrintingCache_PutGet(t *testing.T) {
	cache := NewPrintingCache(openTestDB(t))
	ctx := context.Background()

	printings := []pricing.Printing{
		{Name: "Sol Ring", Set: "C21", CollectorNumber: "263", Market: decimal.NewNullDecimal(decimal.RequireFromString("1.50"))},
		{Name: "Sol Ring", Set: "CMM", CollectorNumber: "410", Low: decimal.NewNullDecimal(decimal.RequireFromString("0.80"))},
	}

	if err := cache.Put(ctx, "Sol Ring", "eur", printings); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok, err := cache.Get(ctx, "Sol Ring", "eur", time.Hour)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if len(got) != 2 {
		t.Fatalf("len(printings) = %d, want 2", len(got))
	}

	if got[0].Set != "C21" || got[1].Set != "CMM" {
		t.Errorf("printings out of order: %s, %s", got[0].Set, got[1].Set)
	}
	if !got[0].Market.Valid || !got[0].Market.Decimal.Equal(decimal.RequireFromString("1.50")) {
		t.Errorf("Market = %+v, want 1.50", got[0].Market)
	}
	if got[0].Low.Valid || got[0].Trend.Valid {
		t.Errorf("missing prices should stay invalid: low=%+v trend=%+v", got[0].Low, got[0].Trend)
	}

	// Replacing drops the old printings.
	if err := cache.Put(ctx, "Sol Ring", "eur", printings[:1]); err != nil {
		t.Fatalf("second Put() error = %v", err)
	}
	got, _, _ = cache.Get(ctx, "Sol Ring", "eur", 0)
	if len(got) != 1 {
		t.Errorf("len(printings) after replace = %d, want 1", len(got))
	}
}

func TestPrintingCache_Miss(t *testing.T) {
	cache := NewPrintingCache(openTestDB(t))

	_, ok, err := cache.Get(context.Background(), "Unknown Card", "eur", 0)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() ok = true for an uncached card")
	}
}

func TestPrintingCache_EmptyResultIsCached(t *testing.T) {
	cache := NewPrintingCache(openTestDB(t))
	ctx := context.Background()

	if err := cache.Put(ctx, "Misspeled Card", "eur", nil); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok, err := cache.Get(ctx, "Misspeled Card", "eur", time.Hour)
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v, %v; want cached empty result", got, ok, err)
	}
	if len(got) != 0 {
		t.Errorf("len(printings) = %d, want 0", len(got))
	}
}

func TestPrintingCache_Expiry(t *testing.T) {
	cache := NewPrintingCache(openTestDB(t))
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	if err := cache.Put(ctx, "Sol Ring", "eur", nil); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	now = now.Add(25 * time.Hour)

	if _, ok, _ := cache.Get(ctx, "Sol Ring", "eur", 24*time.Hour); ok {
		t.Error("Get() returned an expired entry")
	}
	if _, ok, _ := cache.Get(ctx, "Sol Ring", "eur", 0); !ok {
		t.Error("Get() with maxAge 0 should never expire")
	}
}

func TestPrintingCache_StatsAndClear(t *testing.T) {
	cache := NewPrintingCache(openTestDB(t))
	ctx := context.Background()

	stats, err := cache.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Cards != 0 || !stats.Oldest.IsZero() {
		t.Errorf("empty cache stats = %+v", stats)
	}

	_ = cache.Put(ctx, "Sol Ring", "eur", []pricing.Printing{{Name: "Sol Ring", Set: "C21", CollectorNumber: "263"}})
	_ = cache.Put(ctx, "Island", "eur", []pricing.Printing{
		{Name: "Island", Set: "UNF", CollectorNumber: "235"},
		{Name: "Island", Set: "DMU", CollectorNumber: "265"},
	})

	stats, err = cache.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Cards != 2 || stats.Printings != 3 {
		t.Errorf("Stats() = %+v, want 2 cards and 3 printings", stats)
	}

	removed, err := cache.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("Clear() removed %d, want 2", removed)
	}

	stats, _ = cache.Stats(ctx)
	if stats.Cards != 0 || stats.Printings != 0 {
		t.Errorf("Stats() after clear = %+v", stats)
	}
}

func TestPrintingCache_KeyedByCurrency(t *testing.T) {
	cache := NewPrintingCache(openTestDB(t))
	ctx := context.Background()

	eur := []pricing.Printing{{Name: "Sol Ring", Set: "C21", CollectorNumber: "263", Market: decimal.NewNullDecimal(decimal.RequireFromString("1.00"))}}
	if err := cache.Put(ctx, "Sol Ring", "eur", eur); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if _, ok, err := cache.Get(ctx, "Sol Ring", "usd", time.Hour); err != nil || ok {
		t.Fatalf("Get(usd) = %v, %v; want a miss after caching eur", ok, err)
	}

	usd := []pricing.Printing{{Name: "Sol Ring", Set: "C21", CollectorNumber: "263", Market: decimal.NewNullDecimal(decimal.RequireFromString("5.00"))}}
	if err := cache.Put(ctx, "Sol Ring", "usd", usd); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	for currency, want := range map[string]string{"eur": "1.00", "usd": "5.00"} {
		got, ok, err := cache.Get(ctx, "Sol Ring", currency, time.Hour)
		if err != nil || !ok || len(got) != 1 {
			t.Fatalf("Get(%s) = %v, %v, %v", currency, got, ok, err)
		}
		if !got[0].Market.Decimal.Equal(decimal.RequireFromString(want)) {
			t.Errorf("Get(%s) market = %s, want %s", currency, got[0].Market.Decimal, want)
		}
	}

	stats, err := cache.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Cards != 2 || stats.Printings != 2 {
		t.Errorf("Stats() = %+v, want 2 lookups and 2 printings", stats)
	}
}
