package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gashapon-labs/cardstock/internal/gacha"
	"github.com/gashapon-labs/cardstock/internal/gacha/client"
)

type fakeSource struct {
	cards []gacha.Card
	calls []client.ListCardsParams
}

func (f *fakeSource) ListCards(_ context.Context, params client.ListCardsParams) (*client.CardPage, error) {
	f.calls = append(f.calls, params)

	total := len(f.cards)
	totalPages := 0
	if params.PerPage > 0 {
		totalPages = (total + params.PerPage - 1) / params.PerPage
	}

	start := (params.Page - 1) * params.PerPage
	if start > total {
		start = total
	}
	end := start + params.PerPage
	if end > total {
		end = total
	}

	return &client.CardPage{
		Cards: f.cards[start:end],
		Pagination: client.Pagination{
			TotalItems:  total,
			TotalPages:  totalPages,
			CurrentPage: params.Page,
			PerPage:     params.PerPage,
		},
	}, nil
}

func newTestGenerator(cards []gacha.Card) (*Generator, *fakeSource) {
	source := &fakeSource{cards: cards}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGenerator(source, logger), source
}

func statCards() []gacha.Card {
	rarities := []string{
		"common", "common", "common", "common",
		"rare", "rare", "rare",
		"epic", "epic",
		"legendary",
	}
	dates := []string{
		"2026-01-01", "2026-01-01", "2026-01-01", "2026-01-01", "2026-01-01",
		"2026-02-01", "2026-02-01", "2026-02-01", "2026-02-01", "2026-02-01",
	}
	cards := make([]gacha.Card, 10)
	for i := range cards {
		cards[i] = gacha.Card{
			ID:             fmt.Sprintf("card-%02d", i),
			CardName:       fmt.Sprintf("card-%02d", i),
			Rarity:         rarities[i],
			PointWorth:     (i + 1) * 10,
			Quantity:       2,
			DateGotInStock: dates[i],
		}
	}
	return cards
}

func TestCompute_Statistics(t *testing.T) {
	stats := Compute(statCards())

	if stats.Cards != 10 {
		t.Errorf("Expected 10 cards, got %d", stats.Cards)
	}
	if stats.TotalQuantity != 20 {
		t.Errorf("Expected 20 copies, got %d", stats.TotalQuantity)
	}
	if stats.TotalValue != 1100 {
		t.Errorf("Expected total value 1100, got %d", stats.TotalValue)
	}

	if stats.MedianPoints != 50 {
		t.Errorf("Expected p50 of 50, got %v", stats.MedianPoints)
	}
	if stats.P90Points != 90 {
		t.Errorf("Expected p90 of 90, got %v", stats.P90Points)
	}
	if stats.MeanPoints != 55 {
		t.Errorf("Expected mean of 55, got %v", stats.MeanPoints)
	}
	if math.Abs(stats.StdDevPoints-28.72) > 0.01 {
		t.Errorf("Expected stddev near 28.72, got %v", stats.StdDevPoints)
	}

	wantBuckets := []RarityBucket{
		{Rarity: "common", Cards: 4, Quantity: 8},
		{Rarity: "rare", Cards: 3, Quantity: 6},
		{Rarity: "epic", Cards: 2, Quantity: 4},
		{Rarity: "legendary", Cards: 1, Quantity: 2},
	}
	if len(stats.ByRarity) != len(wantBuckets) {
		t.Fatalf("Expected %d rarity buckets, got %d", len(wantBuckets), len(stats.ByRarity))
	}
	for i, want := range wantBuckets {
		if stats.ByRarity[i] != want {
			t.Errorf("Bucket %d: got %+v, want %+v", i, stats.ByRarity[i], want)
		}
	}

	wantDates := []DatePoint{
		{Date: "2026-01-01", Value: 300, Cumulative: 300},
		{Date: "2026-02-01", Value: 800, Cumulative: 1100},
	}
	if len(stats.ByDate) != len(wantDates) {
		t.Fatalf("Expected %d timeline points, got %d", len(wantDates), len(stats.ByDate))
	}
	for i, want := range wantDates {
		if stats.ByDate[i] != want {
			t.Errorf("Timeline %d: got %+v, want %+v", i, stats.ByDate[i], want)
		}
	}
}

func TestCompute_Empty(t *testing.T) {
	stats := Compute(nil)
	if stats.Cards != 0 || stats.TotalQuantity != 0 || len(stats.ByRarity) != 0 {
		t.Errorf("Expected zero stats, got %+v", stats)
	}
}

func TestCompute_RarityOrdering(t *testing.T) {
	stats := Compute([]gacha.Card{
		{CardName: "a", Rarity: "mythic", Quantity: 1},
		{CardName: "b", Rarity: "legendary", Quantity: 1},
		{CardName: "c", Rarity: "common", Quantity: 1},
		{CardName: "d", Rarity: "Epic", Quantity: 1},
	})

	var got []string
	for _, bucket := range stats.ByRarity {
		got = append(got, bucket.Rarity)
	}
	want := []string{"common", "epic", "legendary", "mythic"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d buckets, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected rarity order %v, got %v", want, got)
		}
	}
}

func TestCompute_SkipsUndatedCardsOnTimeline(t *testing.T) {
	stats := Compute([]gacha.Card{
		{CardName: "dated", Rarity: "common", PointWorth: 10, Quantity: 1, DateGotInStock: "2026-03-01"},
		{CardName: "undated", Rarity: "common", PointWorth: 10, Quantity: 1},
	})

	if stats.Cards != 2 {
		t.Errorf("Expected both cards counted, got %d", stats.Cards)
	}
	if len(stats.ByDate) != 1 {
		t.Fatalf("Expected 1 timeline point, got %d", len(stats.ByDate))
	}
	if stats.ByDate[0].Date != "2026-03-01" {
		t.Errorf("Unexpected timeline point: %+v", stats.ByDate[0])
	}
}

func TestGenerate_WritesReport(t *testing.T) {
	base := statCards()
	cards := make([]gacha.Card, 120)
	for i := range cards {
		cards[i] = base[i%10]
		cards[i].ID = fmt.Sprintf("card-%03d", i)
		cards[i].CardName = cards[i].ID
	}
	generator, source := newTestGenerator(cards)

	path := filepath.Join(t.TempDir(), "report.html")
	summary, err := generator.Generate(context.Background(), Options{
		Path:       path,
		Collection: "summer-festival",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if summary.Cards != 120 {
		t.Errorf("Expected 120 cards in summary, got %d", summary.Cards)
	}
	if summary.Opened {
		t.Error("Report should not have been opened")
	}

	if len(source.calls) != 2 {
		t.Fatalf("Expected 2 page fetches, got %d", len(source.calls))
	}
	for i, call := range source.calls {
		if call.Page != i+1 || call.PerPage != drainPageSize || call.Collection != "summer-festival" {
			t.Errorf("Call %d: unexpected paging %+v", i, call)
		}
		if call.SortBy != gacha.SortByCardName || call.SortOrder != gacha.SortAsc {
			t.Errorf("Call %d: drain must page in name order, got %+v", i, call)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	html := string(data)
	for _, want := range []string{
		"Cardstock report: summer-festival",
		"Copies by rarity",
		"Collection value over time",
		"legendary",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("Report missing %q", want)
		}
	}
}

func TestGenerate_EmptyCollection(t *testing.T) {
	generator, _ := newTestGenerator(nil)

	_, err := generator.Generate(context.Background(), Options{
		Path: filepath.Join(t.TempDir(), "report.html"),
	})
	if err == nil || !strings.Contains(err.Error(), "no cards") {
		t.Fatalf("Expected no-cards error, got %v", err)
	}
}

func TestGenerate_RequiresPath(t *testing.T) {
	generator, _ := newTestGenerator(statCards())

	if _, err := generator.Generate(context.Background(), Options{}); err == nil {
		t.Fatal("Expected error for missing path")
	}
}
