// Package journal keeps a local, append-only record of the stock
// changes made through this tool: quantity adjustments, field edits,
// uploads and deletions. The card service is the source of truth for
// current stock; the journal answers "what did we change, when" for
// audits and the activity report without another server round trip.
package journal

import "time"

// Change kinds beyond plain field edits.
const (
	FieldQuantity = "quantity"
	FieldCreated  = "created"
	FieldDeleted  = "deleted"
)

// Known change sources.
const (
	SourceTUI        = "tui"
	SourceBulkImport = "bulk-import"
)

// Entry is one recorded change.
type Entry struct {
	ID         string    // assigned on record when empty
	Collection string    // collection partition, "" for the default
	CardID     string
	CardName   string
	Field      string    // wire field name, or created/deleted
	OldValue   string
	NewValue   string
	Delta      int       // quantity changes only
	Source     string
	RecordedAt time.Time // assigned on record when zero
}
