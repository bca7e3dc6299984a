// Package export drains a collection from the storage service and
// writes it to a local file. CSV and JSON are supported, with
// optional zstd compression for .zst targets and passphrase
// encryption for offline archives.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/klauspost/compress/zstd"

	"github.com/gashapon-labs/cardstock/internal/gacha"
	"github.com/gashapon-labs/cardstock/internal/gacha/client"
)

// Format represents the export format.
type Format string

const (
	// FormatCSV writes one row per card.
	FormatCSV Format = "csv"
	// FormatJSON writes a single document with export metadata.
	FormatJSON Format = "json"
)

// drainPageSize is the per_page used while draining; the storage
// service caps per_page at 100.
const drainPageSize = 100

// CardSource is the slice of the storage client the exporter needs.
type CardSource interface {
	ListCards(ctx context.Context, params client.ListCardsParams) (*client.CardPage, error)
}

// Options holds configuration for one export run.
type Options struct {
	// Path is the target file. The format is inferred from the
	// extension when Format is empty; a .zst suffix enables
	// compression.
	Path   string
	Format Format

	// Collection to drain. Empty means the service default.
	Collection string

	// Passphrase enables encryption of the final payload when set.
	Passphrase string

	PrettyJSON   bool
	Overwrite    bool
	ShowProgress bool
}

// Summary describes a finished export.
type Summary struct {
	Path       string
	Collection string
	Cards      int
	Bytes      int
	Format     Format
	Compressed bool
	Encrypted  bool
}

// Document is the JSON export payload.
type Document struct {
	Collection string       `json:"collection,omitempty"`
	ExportedAt time.Time    `json:"exported_at"`
	TotalCards int          `json:"total_cards"`
	Cards      []gacha.Card `json:"cards"`
}

// Exporter drains collections through a storage client.
type Exporter struct {
	source CardSource
	logger *slog.Logger
}

// NewExporter creates an Exporter reading from the given source.
func NewExporter(source CardSource, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{source: source, logger: logger}
}

// DetectFormat infers the export format from a file path. The .zst
// suffix is stripped first, so "cards.json.zst" is JSON.
func DetectFormat(path string) (Format, error) {
	name := strings.TrimSuffix(path, ".zst")
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("cannot infer export format from %q (use .csv, .json, or a .zst variant)", path)
	}
}

// Export drains the collection and writes it to opts.Path.
func (e *Exporter) Export(ctx context.Context, opts Options) (*Summary, error) {
	format := opts.Format
	if format == "" {
		detected, err := DetectFormat(opts.Path)
		if err != nil {
			return nil, err
		}
		format = detected
	}

	cards, err := e.drain(ctx, opts)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch format {
	case FormatCSV:
		payload, err = encodeCSV(cards)
	case FormatJSON:
		payload, err = encodeJSON(opts.Collection, cards, opts.PrettyJSON)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
	if err != nil {
		return nil, err
	}

	compressed := strings.HasSuffix(opts.Path, ".zst")
	if compressed {
		if payload, err = compress(payload); err != nil {
			return nil, err
		}
	}

	encrypted := opts.Passphrase != ""
	if encrypted {
		sealed, err := EncryptData(payload, opts.Passphrase)
		if err != nil {
			return nil, err
		}
		payload = append([]byte(EncryptionMagicHeader), sealed...)
	}

	if err := writeFile(opts.Path, payload, opts.Overwrite); err != nil {
		return nil, err
	}

	summary := &Summary{
		Path:       opts.Path,
		Collection: opts.Collection,
		Cards:      len(cards),
		Bytes:      len(payload),
		Format:     format,
		Compressed: compressed,
		Encrypted:  encrypted,
	}

	e.logger.Info("export finished",
		"path", summary.Path,
		"cards", summary.Cards,
		"bytes", summary.Bytes,
		"format", string(summary.Format),
		"compressed", summary.Compressed,
		"encrypted", summary.Encrypted,
	)
	return summary, nil
}

// drain walks every page of the collection. Pages are requested in
// card-name order: names are unique document ids, so the ordering is
// stable across pages.
func (e *Exporter) drain(ctx context.Context, opts Options) ([]gacha.Card, error) {
	params := client.ListCardsParams{
		Collection: opts.Collection,
		SortBy:     gacha.SortByCardName,
		SortOrder:  gacha.SortAsc,
		Page:       1,
		PerPage:    drainPageSize,
	}

	first, err := e.source.ListCards(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to drain collection: %w", err)
	}

	bar := pb.StartNew(first.Pagination.TotalItems)
	if !opts.ShowProgress {
		bar.SetWriter(io.Discard)
	}
	defer bar.Finish()

	cards := make([]gacha.Card, 0, first.Pagination.TotalItems)
	cards = append(cards, first.Cards...)
	bar.Add(len(first.Cards))

	for page := 2; page <= first.Pagination.TotalPages; page++ {
		params.Page = page
		next, err := e.source.ListCards(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to drain page %d: %w", page, err)
		}
		cards = append(cards, next.Cards...)
		bar.Add(len(next.Cards))
	}

	return cards, nil
}

// csvHeader matches the wire field names so exported files line up
// with what the service speaks.
var csvHeader = []string{"id", "card_name", "rarity", "point_worth", "quantity", "date_got_in_stock", "image_url"}

func encodeCSV(cards []gacha.Card) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, c := range cards {
		row := []string{
			c.ID,
			c.CardName,
			c.Rarity,
			strconv.Itoa(c.PointWorth),
			strconv.Itoa(c.Quantity),
			c.DateGotInStock,
			c.ImageURL,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeJSON(collection string, cards []gacha.Card, pretty bool) ([]byte, error) {
	doc := Document{
		Collection: collection,
		ExportedAt: time.Now().UTC(),
		TotalCards: len(cards),
		Cards:      cards,
	}

	var (
		payload []byte
		err     error
	)
	if pretty {
		payload, err = json.MarshalIndent(doc, "", "  ")
	} else {
		payload, err = json.Marshal(doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return payload, nil
}

func compress(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if _, err := zw.Write(payload); err != nil {
		zw.Close()
		return nil, fmt.Errorf("failed to compress payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zstd writer: %w", err)
	}
	return buf.Bytes(), nil
}

// writeFile creates the target, refusing to clobber an existing file
// unless overwrite is set.
func writeFile(path string, payload []byte, overwrite bool) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("file already exists: %s (use overwrite option to replace)", path)
	}

	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// ReadDocument loads an exported file back into memory, reversing
// encryption and compression as needed. Used for verification and by
// tests; the passphrase may be empty for unencrypted files.
func ReadDocument(path, passphrase string) ([]byte, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}

	if bytes.HasPrefix(payload, []byte(EncryptionMagicHeader)) {
		if passphrase == "" {
			return nil, fmt.Errorf("export is encrypted; a passphrase is required")
		}
		payload, err = DecryptData(payload[len(EncryptionMagicHeader):], passphrase)
		if err != nil {
			return nil, err
		}
	}

	if strings.HasSuffix(path, ".zst") {
		zr, err := zstd.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd reader: %w", err)
		}
		defer zr.Close()
		payload, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress export: %w", err)
		}
	}

	return payload, nil
}
