package events

// Event types dispatched by the companion.
const (
	// TypeBrowseChanged fires after the browse store commits a new
	// snapshot (fetch finished, page merged, error recorded).
	TypeBrowseChanged = "browse:changed"

	// TypeQuantityChanged fires after the service confirms a
	// quantity adjustment.
	TypeQuantityChanged = "card:quantity"

	// TypeCardEdited fires after the service confirms a partial
	// card update.
	TypeCardEdited = "card:edited"

	// TypeCardUploaded fires after a new card upload succeeds.
	TypeCardUploaded = "card:uploaded"

	// TypeCardDeleted fires after a card is removed.
	TypeCardDeleted = "card:deleted"

	// TypeCollectionCreated fires after a new collection is
	// registered.
	TypeCollectionCreated = "collection:created"

	// TypeAuthChanged fires on every sign-in state transition.
	TypeAuthChanged = "auth:changed"

	// TypeFetchFailed fires when a listing fetch fails.
	TypeFetchFailed = "fetch:failed"
)

// BrowseChangedEvent is the payload for browse:changed events.
type BrowseChangedEvent struct {
	Collection string `json:"collection"` // Selected collection, empty for default
	Page       int    `json:"page"`       // Current 1-based page
	TotalItems int    `json:"totalItems"` // Items matching the current filters
	Phase      string `json:"phase"`      // Fetch phase after the commit
}

// QuantityChangedEvent is the payload for card:quantity events.
type QuantityChangedEvent struct {
	Collection  string `json:"collection"`
	CardID      string `json:"cardId"`
	CardName    string `json:"cardName"`
	Delta       int    `json:"delta"`       // Requested relative change, 0 for absolute sets
	OldQuantity int    `json:"oldQuantity"` // Quantity shown before the call
	NewQuantity int    `json:"newQuantity"` // Quantity confirmed by the service
}

// FieldChange records one field of a card edit.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// CardEditedEvent is the payload for card:edited events.
type CardEditedEvent struct {
	Collection string        `json:"collection"`
	CardID     string        `json:"cardId"`
	CardName   string        `json:"cardName"`
	Changes    []FieldChange `json:"changes"`
}

// CardUploadedEvent is the payload for card:uploaded events.
type CardUploadedEvent struct {
	Collection string `json:"collection"`
	CardID     string `json:"cardId"`
	CardName   string `json:"cardName"`
	Quantity   int    `json:"quantity"`
}

// CardDeletedEvent is the payload for card:deleted events.
type CardDeletedEvent struct {
	Collection string `json:"collection"`
	CardID     string `json:"cardId"`
}

// CollectionCreatedEvent is the payload for collection:created events.
type CollectionCreatedEvent struct {
	Name string `json:"name"`
}

// AuthChangedEvent is the payload for auth:changed events.
type AuthChangedEvent struct {
	State string `json:"state"` // "unknown", "signed-in" or "signed-out"
}

// FetchFailedEvent is the payload for fetch:failed events.
type FetchFailedEvent struct {
	Collection string `json:"collection"`
	Message    string `json:"message"`   // User-visible error text
	FirstLoad  bool   `json:"firstLoad"` // True when no cards had loaded yet
}
