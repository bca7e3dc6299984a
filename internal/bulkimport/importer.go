// Package bulkimport uploads cards listed in a YAML manifest through
// the storage API, one multipart upload per row.
package bulkimport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/time/rate"

	"github.com/gashapon-labs/cardstock/internal/gacha"
	"github.com/gashapon-labs/cardstock/internal/gacha/client"
)

// defaultRate paces bulk uploads; the client adds its own per-request
// spacing on top.
const defaultRate = 2.0

// Uploader is the slice of the API client the importer needs.
type Uploader interface {
	UploadCard(ctx context.Context, req client.UploadCardRequest) (*gacha.Card, error)
}

// Options control a single import run.
type Options struct {
	// ManifestPath is the YAML manifest to load.
	ManifestPath string

	// Collection overrides the manifest's collection when set.
	Collection string

	// RatePerSecond caps upload starts per second. Zero means the
	// default pace.
	RatePerSecond float64

	// ShowProgress draws a terminal progress bar.
	ShowProgress bool
}

// RowError records one failed manifest row. The run keeps going after
// a row fails.
type RowError struct {
	Row  int // 1-based manifest position
	Name string
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d (%s): %v", e.Row, e.Name, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Summary tallies an import run.
type Summary struct {
	Collection string
	Total      int
	Uploaded   int
	Failed     []RowError
}

// Importer drives manifest uploads.
type Importer struct {
	uploader Uploader
	logger   *slog.Logger
}

// NewImporter creates an importer. A nil logger falls back to
// slog.Default().
func NewImporter(uploader Uploader, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{uploader: uploader, logger: logger}
}

// Run loads the manifest and uploads every row. Row failures land in
// the summary; only manifest loading and context cancellation abort
// the run.
func (imp *Importer) Run(ctx context.Context, opts Options) (*Summary, error) {
	manifest, err := LoadManifest(opts.ManifestPath)
	if err != nil {
		return nil, err
	}

	collection := opts.Collection
	if collection == "" {
		collection = manifest.Collection
	}

	perSecond := opts.RatePerSecond
	if perSecond <= 0 {
		perSecond = defaultRate
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), 1)

	summary := &Summary{Collection: collection, Total: len(manifest.Cards)}

	bar := pb.StartNew(len(manifest.Cards))
	if !opts.ShowProgress {
		bar.SetWriter(io.Discard)
	}
	defer bar.Finish()

	for i, row := range manifest.Cards {
		if err := limiter.Wait(ctx); err != nil {
			return summary, fmt.Errorf("import interrupted: %w", err)
		}

		if err := imp.uploadRow(ctx, manifest, opts.ManifestPath, collection, row); err != nil {
			rowErr := RowError{Row: i + 1, Name: row.Name, Err: err}
			summary.Failed = append(summary.Failed, rowErr)
			imp.logger.Warn("card upload failed",
				"row", rowErr.Row,
				"card", rowErr.Name,
				"error", err)
		} else {
			summary.Uploaded++
		}
		bar.Increment()
	}

	imp.logger.Info("bulk import finished",
		"manifest", opts.ManifestPath,
		"collection", collection,
		"uploaded", summary.Uploaded,
		"failed", len(summary.Failed))

	return summary, nil
}

// uploadRow opens the row's image and submits the upload.
func (imp *Importer) uploadRow(ctx context.Context, manifest *Manifest, manifestPath, collection string, row ManifestCard) error {
	if row.Image == "" {
		return fmt.Errorf("image path is required")
	}

	imagePath := manifest.resolveImage(manifestPath, row.Image)
	f, err := os.Open(imagePath)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	quantity := row.Quantity
	if quantity == 0 {
		quantity = 1
	}
	date := row.Date
	if date == "" {
		date = time.Now().Format(time.DateOnly)
	}

	_, err = imp.uploader.UploadCard(ctx, client.UploadCardRequest{
		CardName:       NormalizeName(row.Name),
		Rarity:         gacha.NormalizeRarity(row.Rarity),
		PointWorth:     row.Points,
		Quantity:       quantity,
		DateGotInStock: date,
		ImageName:      filepath.Base(imagePath),
		Image:          f,
		CollectionID:   collection,
	})
	return err
}
