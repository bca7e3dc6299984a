package gacha

import "time"

// Card represents a single card in a collection's inventory.
// Field names and JSON tags follow the storage service's wire format.
type Card struct {
	// Document identifier, unique within a collection. The storage
	// service also keys uploaded cards by their name.
	ID string `json:"id"`

	// Display information
	CardName string `json:"card_name"`
	Rarity   string `json:"rarity"`
	ImageURL string `json:"image_url"`

	// Inventory state
	PointWorth     int    `json:"point_worth"`
	Quantity       int    `json:"quantity"`
	DateGotInStock string `json:"date_got_in_stock"` // calendar date, YYYY-MM-DD
}

// StockDate parses the card's stock date. The storage service stores
// dates as strings; uploads write YYYY-MM-DD but older records may
// carry full timestamps.
func (c *Card) StockDate() (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, c.DateGotInStock); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, c.DateGotInStock)
}

// HasImage reports whether the card carries a usable image reference.
func (c *Card) HasImage() bool {
	return c.ImageURL != ""
}

// CardPatch describes a partial card update. Nil fields are left
// unchanged by the storage service.
type CardPatch struct {
	CardName       *string `json:"card_name,omitempty"`
	Rarity         *string `json:"rarity,omitempty"`
	PointWorth     *int    `json:"point_worth,omitempty"`
	Quantity       *int    `json:"quantity,omitempty"`
	DateGotInStock *string `json:"date_got_in_stock,omitempty"`
}

// IsEmpty reports whether the patch carries no fields. The storage
// service rejects empty updates with a 400.
func (p *CardPatch) IsEmpty() bool {
	return p.CardName == nil && p.Rarity == nil && p.PointWorth == nil &&
		p.Quantity == nil && p.DateGotInStock == nil
}

// Collection is a named partition of the card inventory. Each
// collection is backed by its own document store and image prefix.
type Collection struct {
	Name                string `json:"name"`
	FirestoreCollection string `json:"firestoreCollection"`
	StoragePrefix       string `json:"storagePrefix"`
}

// Pack is a purchasable bundle whose contents are drawn
// probabilistically across rarity tiers. The companion only reads and
// toggles packs; draw mechanics live server-side.
type Pack struct {
	ID                  string              `json:"id"`
	Name                string              `json:"name"`
	Description         string              `json:"description"`
	RarityProbabilities map[string]float64  `json:"rarity_probabilities"`
	CardsByRarity       map[string][]string `json:"cards_by_rarity"`
}
