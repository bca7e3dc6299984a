// Package report renders collection statistics to a standalone HTML
// page with interactive charts.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/pkg/browser"

	"github.com/gashapon-labs/cardstock/internal/gacha"
	"github.com/gashapon-labs/cardstock/internal/gacha/client"
)

// drainPageSize is the per_page used while draining; the storage
// service caps per_page at 100.
const drainPageSize = 100

// CardSource is the slice of the API client the generator needs.
type CardSource interface {
	ListCards(ctx context.Context, params client.ListCardsParams) (*client.CardPage, error)
}

// Options control a single report run.
type Options struct {
	// Path is the output HTML file.
	Path string

	// Collection scopes the drain. Empty means the service default.
	Collection string

	// Title overrides the generated page heading.
	Title string

	// OpenBrowser opens the rendered file in the default browser.
	OpenBrowser bool
}

// Summary describes a finished report.
type Summary struct {
	Path   string
	Cards  int
	Opened bool
}

// Generator drains a collection and renders its statistics.
type Generator struct {
	source CardSource
	logger *slog.Logger
}

// NewGenerator creates a report generator. A nil logger falls back to
// slog.Default().
func NewGenerator(source CardSource, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{source: source, logger: logger}
}

// Generate drains the collection, computes statistics, and writes the
// HTML report to opts.Path.
func (g *Generator) Generate(ctx context.Context, opts Options) (*Summary, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("report path is required")
	}

	cards, err := g.drain(ctx, opts.Collection)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("no cards to report on")
	}

	stats := Compute(cards)

	title := opts.Title
	if title == "" {
		title = "Cardstock collection report"
		if opts.Collection != "" {
			title = fmt.Sprintf("Cardstock report: %s", opts.Collection)
		}
	}
	subtitle := fmt.Sprintf("%d cards, %d copies, %d points total. Point worth p50 %.0f / p90 %.0f (mean %.1f). Generated %s.",
		stats.Cards, stats.TotalQuantity, stats.TotalValue,
		stats.MedianPoints, stats.P90Points, stats.MeanPoints,
		time.Now().Format("2006-01-02 15:04"))

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(
		rarityPie(stats, title, subtitle),
		quantityBar(stats),
		valueLine(stats),
	)

	if dir := filepath.Dir(opts.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	summary := &Summary{Path: opts.Path, Cards: stats.Cards}
	g.logger.Info("report written",
		"path", opts.Path,
		"collection", opts.Collection,
		"cards", stats.Cards)

	if opts.OpenBrowser {
		if err := browser.OpenFile(opts.Path); err != nil {
			g.logger.Warn("failed to open report in browser", "error", err)
		} else {
			summary.Opened = true
		}
	}

	return summary, nil
}

// drain walks every page of the collection. Pages are requested in
// card-name order so the window stays stable across pages.
func (g *Generator) drain(ctx context.Context, collection string) ([]gacha.Card, error) {
	params := client.ListCardsParams{
		Collection: collection,
		Page:       1,
		PerPage:    drainPageSize,
		SortBy:     gacha.SortByCardName,
		SortOrder:  gacha.SortAsc,
	}

	first, err := g.source.ListCards(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}

	cards := make([]gacha.Card, 0, first.Pagination.TotalItems)
	cards = append(cards, first.Cards...)
	for page := 2; page <= first.Pagination.TotalPages; page++ {
		params.Page = page
		next, err := g.source.ListCards(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to drain page %d: %w", page, err)
		}
		cards = append(cards, next.Cards...)
	}

	return cards, nil
}
