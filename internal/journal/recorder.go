package journal

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gashapon-labs/cardstock/internal/events"
)

// Recorder observes card mutation events and appends them to the
// journal. Register it on the dispatcher the browse store publishes
// to; recording failures are logged by the dispatcher and never block
// the edit that triggered them.
type Recorder struct {
	repo   Repository
	logger *slog.Logger
	source string
}

// NewRecorder creates a recorder tagging entries with the given
// source, e.g. SourceTUI.
func NewRecorder(repo Repository, source string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	if source == "" {
		source = SourceTUI
	}
	return &Recorder{repo: repo, logger: logger, source: source}
}

// Name identifies the recorder in dispatcher logs.
func (r *Recorder) Name() string {
	return "journal-recorder"
}

// ShouldHandle accepts the card mutation event types.
func (r *Recorder) ShouldHandle(eventType string) bool {
	switch eventType {
	case events.TypeQuantityChanged, events.TypeCardEdited, events.TypeCardUploaded, events.TypeCardDeleted:
		return true
	}
	return false
}

// OnEvent appends journal entries for one event.
func (r *Recorder) OnEvent(event events.Event) error {
	ctx := event.Context
	if ctx == nil {
		ctx = context.Background()
	}

	switch event.Type {
	case events.TypeQuantityChanged:
		data, ok := events.GetTypedData[events.QuantityChangedEvent](event)
		if !ok {
			return fmt.Errorf("unexpected payload for %s", event.Type)
		}
		return r.repo.Record(ctx, &Entry{
			Collection: data.Collection,
			CardID:     data.CardID,
			CardName:   data.CardName,
			Field:      FieldQuantity,
			OldValue:   strconv.Itoa(data.OldQuantity),
			NewValue:   strconv.Itoa(data.NewQuantity),
			Delta:      data.NewQuantity - data.OldQuantity,
			Source:     r.source,
		})

	case events.TypeCardEdited:
		data, ok := events.GetTypedData[events.CardEditedEvent](event)
		if !ok {
			return fmt.Errorf("unexpected payload for %s", event.Type)
		}
		for _, change := range data.Changes {
			entry := &Entry{
				Collection: data.Collection,
				CardID:     data.CardID,
				CardName:   data.CardName,
				Field:      change.Field,
				OldValue:   change.Old,
				NewValue:   change.New,
				Source:     r.source,
			}
			if change.Field == FieldQuantity {
				entry.Delta = parseDelta(change.Old, change.New)
			}
			if err := r.repo.Record(ctx, entry); err != nil {
				return err
			}
		}
		return nil

	case events.TypeCardUploaded:
		data, ok := events.GetTypedData[events.CardUploadedEvent](event)
		if !ok {
			return fmt.Errorf("unexpected payload for %s", event.Type)
		}
		return r.repo.Record(ctx, &Entry{
			Collection: data.Collection,
			CardID:     data.CardID,
			CardName:   data.CardName,
			Field:      FieldCreated,
			NewValue:   data.CardName,
			Delta:      data.Quantity,
			Source:     r.source,
		})

	case events.TypeCardDeleted:
		data, ok := events.GetTypedData[events.CardDeletedEvent](event)
		if !ok {
			return fmt.Errorf("unexpected payload for %s", event.Type)
		}
		return r.repo.Record(ctx, &Entry{
			Collection: data.Collection,
			CardID:     data.CardID,
			Field:      FieldDeleted,
			Source:     r.source,
		})
	}

	r.logger.Debug("ignoring event", "type", event.Type)
	return nil
}

func parseDelta(oldValue, newValue string) int {
	o, err1 := strconv.Atoi(oldValue)
	n, err2 := strconv.Atoi(newValue)
	if err1 != nil || err2 != nil {
		return 0
	}
	return n - o
}
