package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gashapon-labs/cardstock/internal/gacha"
	"github.com/gashapon-labs/cardstock/internal/gacha/client"
)

// fakeSource serves a fixed card list in pages, like the storage
// service would.
type fakeSource struct {
	cards      []gacha.Card
	calls      []client.ListCardsParams
	failOnPage int
	err        error
}

func (f *fakeSource) ListCards(_ context.Context, params client.ListCardsParams) (*client.CardPage, error) {
	f.calls = append(f.calls, params)
	if f.failOnPage != 0 && params.Page == f.failOnPage {
		return nil, f.err
	}

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

func testCards(n int) []gacha.Card {
	cards := make([]gacha.Card, n)
	for i := range cards {
		cards[i] = gacha.Card{
			ID:             fmt.Sprintf("card-%03d", i),
			CardName:       fmt.Sprintf("card-%03d", i),
			Rarity:         "common",
			PointWorth:     10 + i,
			Quantity:       i % 5,
			DateGotInStock: "2026-01-15",
		}
	}
	return cards
}

func newTestExporter(cards []gacha.Card) (*Exporter, *fakeSource) {
	source := &fakeSource{cards: cards}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewExporter(source, logger), source
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"cards.csv", FormatCSV, false},
		{"cards.json", FormatJSON, false},
		{"cards.CSV", FormatCSV, false},
		{"cards.json.zst", FormatJSON, false},
		{"cards.csv.zst", FormatCSV, false},
		{"cards.txt", "", true},
		{"cards", "", true},
	}

	for _, tt := range tests {
		got, err := DetectFormat(tt.path)
		if tt.wantErr {
			if err == nil {
				t.Errorf("DetectFormat(%q): expected error", tt.path)
			}
			continue
		}
		if err != nil {
			t.Errorf("DetectFormat(%q): %v", tt.path, err)
			continue
		}
		if got != tt.want {
			t.Errorf("DetectFormat(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestExport_CSV(t *testing.T) {
	exporter, _ := newTestExporter([]gacha.Card{
		{ID: "Aurora Dragonling", CardName: "Aurora Dragonling", Rarity: "legendary", PointWorth: 500, Quantity: 1, DateGotInStock: "2025-11-02", ImageURL: "dev://cards/aurora.png"},
		{ID: "Harbor Gull", CardName: "Harbor Gull", Rarity: "common", PointWorth: 8, Quantity: 31, DateGotInStock: "2026-01-05"},
	})

	path := filepath.Join(t.TempDir(), "cards.csv")
	summary, err := exporter.Export(context.Background(), Options{Path: path})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	if summary.Cards != 2 || summary.Format != FormatCSV {
		t.Errorf("Unexpected summary: %+v", summary)
	}
	if summary.Compressed || summary.Encrypted {
		t.Errorf("Plain CSV should not be compressed or encrypted: %+v", summary)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != strings.Join(csvHeader, ",") {
		t.Errorf("Unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "Aurora Dragonling") || !strings.Contains(lines[1], "500") {
		t.Errorf("Unexpected first row: %s", lines[1])
	}
}

func TestExport_JSONDrainsEveryPage(t *testing.T) {
	exporter, source := newTestExporter(testCards(250))

	path := filepath.Join(t.TempDir(), "cards.json")
	summary, err := exporter.Export(context.Background(), Options{Path: path, Collection: "summer-festival"})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if summary.Cards != 250 {
		t.Errorf("Expected 250 cards, got %d", summary.Cards)
	}

	if len(source.calls) != 3 {
		t.Fatalf("Expected 3 page fetches, got %d", len(source.calls))
	}
	for i, call := range source.calls {
		if call.Page != i+1 || call.PerPage != drainPageSize {
			t.Errorf("Call %d: unexpected paging %+v", i, call)
		}
		if call.Collection != "summer-festival" {
			t.Errorf("Call %d: unexpected collection %q", i, call.Collection)
		}
		if call.SortBy != gacha.SortByCardName || call.SortOrder != gacha.SortAsc {
			t.Errorf("Call %d: drain must page in name order, got %+v", i, call)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Failed to unmarshal document: %v", err)
	}
	if doc.TotalCards != 250 || len(doc.Cards) != 250 {
		t.Errorf("Expected 250 cards in document, got %d/%d", doc.TotalCards, len(doc.Cards))
	}
	if doc.Collection != "summer-festival" {
		t.Errorf("Expected collection recorded, got %q", doc.Collection)
	}
	if doc.Cards[0].ID != "card-000" || doc.Cards[249].ID != "card-249" {
		t.Errorf("Cards out of order: first %s last %s", doc.Cards[0].ID, doc.Cards[249].ID)
	}
}

func TestExport_CompressedRoundTrip(t *testing.T) {
	exporter, _ := newTestExporter(testCards(30))

	path := filepath.Join(t.TempDir(), "cards.json.zst")
	summary, err := exporter.Export(context.Background(), Options{Path: path})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !summary.Compressed {
		t.Error("Expected compressed summary for .zst target")
	}
	if summary.Format != FormatJSON {
		t.Errorf("Expected JSON format, got %s", summary.Format)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}
	if bytes.HasPrefix(raw, []byte(`{"collection"`)) {
		t.Error("File does not look compressed")
	}

	payload, err := ReadDocument(path, "")
	if err != nil {
		t.Fatalf("ReadDocument failed: %v", err)
	}
	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		t.Fatalf("Failed to unmarshal decompressed document: %v", err)
	}
	if doc.TotalCards != 30 {
		t.Errorf("Expected 30 cards after round trip, got %d", doc.TotalCards)
	}
}

func TestExport_EncryptedRoundTrip(t *testing.T) {
	exporter, _ := newTestExporter(testCards(5))

	path := filepath.Join(t.TempDir(), "cards.json")
	summary, err := exporter.Export(context.Background(), Options{Path: path, Passphrase: "hunter2"})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !summary.Encrypted {
		t.Error("Expected encrypted summary")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte(EncryptionMagicHeader)) {
		t.Fatal("Expected magic header on encrypted export")
	}
	if bytes.Contains(raw, []byte("card-000")) {
		t.Error("Plaintext leaked into encrypted export")
	}

	if _, err := ReadDocument(path, ""); err == nil {
		t.Error("Expected error reading encrypted export without a passphrase")
	}
	if _, err := ReadDocument(path, "wrong"); err == nil {
		t.Error("Expected error with the wrong passphrase")
	}

	payload, err := ReadDocument(path, "hunter2")
	if err != nil {
		t.Fatalf("ReadDocument failed: %v", err)
	}
	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		t.Fatalf("Failed to unmarshal decrypted document: %v", err)
	}
	if doc.TotalCards != 5 {
		t.Errorf("Expected 5 cards after round trip, got %d", doc.TotalCards)
	}
}

func TestExport_RefusesOverwrite(t *testing.T) {
	exporter, _ := newTestExporter(testCards(1))

	path := filepath.Join(t.TempDir(), "cards.json")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("Failed to create existing file: %v", err)
	}

	_, err := exporter.Export(context.Background(), Options{Path: path})
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("Expected overwrite refusal, got %v", err)
	}

	if _, err := exporter.Export(context.Background(), Options{Path: path, Overwrite: true}); err != nil {
		t.Fatalf("Export with overwrite failed: %v", err)
	}
}

func TestExport_DrainErrorPropagates(t *testing.T) {
	source := &fakeSource{cards: testCards(250), failOnPage: 2, err: errors.New("boom")}
	exporter := NewExporter(source, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := exporter.Export(context.Background(), Options{Path: filepath.Join(t.TempDir(), "cards.json")})
	if err == nil || !strings.Contains(err.Error(), "page 2") {
		t.Fatalf("Expected page 2 drain error, got %v", err)
	}
}

func TestEncryptData_TamperDetected(t *testing.T) {
	sealed, err := EncryptData([]byte("the quick brown fox"), "passphrase")
	if err != nil {
		t.Fatalf("EncryptData failed: %v", err)
	}

	plaintext, err := DecryptData(sealed, "passphrase")
	if err != nil {
		t.Fatalf("DecryptData failed: %v", err)
	}
	if string(plaintext) != "the quick brown fox" {
		t.Errorf("Round trip mismatch: %q", plaintext)
	}

	tampered := append([]byte{}, sealed...)
	tampered[len(tampered)-1] ^= 0x01
	if _, err := DecryptData(tampered, "passphrase"); err == nil {
		t.Error("Expected tampered payload to fail authentication")
	}

	if _, err := DecryptData(sealed[:10], "passphrase"); err == nil {
		t.Error("Expected truncated payload to be rejected")
	}
}
