package devserver

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/gashapon-labs/cardstock/internal/gacha"
)

// httpError carries a wire status and a FastAPI style detail payload.
// Handlers translate any other error into a 500.
type httpError struct {
	Status int
	Detail any
}

func (e *httpError) Error() string {
	return fmt.Sprintf("%v", e.Detail)
}

func errorf(status int, format string, args ...any) *httpError {
	return &httpError{Status: status, Detail: fmt.Sprintf(format, args...)}
}

// Inventory is the in-memory card store behind the development server.
// It mirrors the hosted storage service's observable behavior: card
// names double as document ids, quantities clamp at zero, deletes are
// idempotent, and collection names resolve through metadata when a
// matching entry exists.
type Inventory struct {
	mu sync.Mutex

	defaultCollection string
	meta              map[string]gacha.Collection
	cards             map[string]map[string]gacha.Card
	packs             map[string]*devPack
	packOrder         []string
}

// devPack pairs the wire-visible pack info with the state the hosted
// service keeps server-side only.
type devPack struct {
	info         gacha.Pack
	collectionID string
	active       bool
	cards        []gacha.Card
}

// NewInventory creates an empty inventory. Cards with no explicit
// collection land in defaultCollection.
func NewInventory(defaultCollection string) *Inventory {
	if defaultCollection == "" {
		defaultCollection = "cards"
	}
	return &Inventory{
		defaultCollection: defaultCollection,
		meta:              make(map[string]gacha.Collection),
		cards:             make(map[string]map[string]gacha.Card),
		packs:             make(map[string]*devPack),
	}
}

// resolveLocked maps a caller-facing collection name to the backing
// card bucket, preferring the firestoreCollection recorded in
// metadata. Unknown names are used as-is, like the hosted service.
func (inv *Inventory) resolveLocked(name string) string {
	if name == "" {
		return inv.defaultCollection
	}
	if m, ok := inv.meta[name]; ok && m.FirestoreCollection != "" {
		return m.FirestoreCollection
	}
	return name
}

func (inv *Inventory) bucketLocked(name string) map[string]gacha.Card {
	b, ok := inv.cards[name]
	if !ok {
		b = make(map[string]gacha.Card)
		inv.cards[name] = b
	}
	return b
}

// ListQuery is a validated card listing request.
type ListQuery struct {
	Collection string
	Page       int
	PerPage    int
	SortBy     string
	SortOrder  string
	Search     string
}

// ListCards returns one page of cards plus the total match count. The
// search term is a case-sensitive prefix match on the card name.
func (inv *Inventory) ListCards(q ListQuery) ([]gacha.Card, int) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	bucket := inv.cards[inv.resolveLocked(q.Collection)]

	matched := make([]gacha.Card, 0, len(bucket))
	for _, c := range bucket {
		if q.Search != "" && !strings.HasPrefix(c.CardName, q.Search) {
			continue
		}
		matched = append(matched, c)
	}

	sortCards(matched, q.SortBy, q.SortOrder, q.Search != "")

	total := len(matched)
	start := (q.Page - 1) * q.PerPage
	if start >= total {
		return []gacha.Card{}, total
	}
	end := start + q.PerPage
	if end > total {
		end = total
	}
	return matched[start:end], total
}

// sortCards orders a listing the way the hosted service does. An
// active search forces a primary card_name ordering; the requested
// field then breaks ties.
func sortCards(cards []gacha.Card, sortBy, sortOrder string, searching bool) {
	desc := sortOrder == string(gacha.SortDesc)
	cmp := fieldCompare(sortBy)
	sort.SliceStable(cards, func(i, j int) bool {
		a, b := &cards[i], &cards[j]
		if searching && a.CardName != b.CardName {
			return a.CardName < b.CardName
		}
		c := cmp(a, b)
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func fieldCompare(field string) func(a, b *gacha.Card) int {
	switch gacha.SortField(field) {
	case gacha.SortByCardName:
		return func(a, b *gacha.Card) int { return strings.Compare(a.CardName, b.CardName) }
	case gacha.SortByRarity:
		return func(a, b *gacha.Card) int { return strings.Compare(a.Rarity, b.Rarity) }
	case gacha.SortByQuantity:
		return func(a, b *gacha.Card) int { return a.Quantity - b.Quantity }
	case gacha.SortByStockDate:
		return func(a, b *gacha.Card) int { return strings.Compare(a.DateGotInStock, b.DateGotInStock) }
	default:
		return func(a, b *gacha.Card) int { return a.PointWorth - b.PointWorth }
	}
}

// AdjustQuantity applies a signed delta to a card's quantity,
// clamping the result at zero.
func (inv *Inventory) AdjustQuantity(collection, cardID string, delta int) (gacha.Card, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	bucket := inv.bucketLocked(inv.resolveLocked(collection))
	card, ok := bucket[cardID]
	if !ok {
		return gacha.Card{}, errorf(http.StatusNotFound, "Card with ID %s not found", cardID)
	}

	card.Quantity += delta
	if card.Quantity < 0 {
		card.Quantity = 0
	}
	bucket[cardID] = card
	return card, nil
}

// UpdateCard applies the non-nil patch fields to a card. The document
// id never changes, even when card_name does.
func (inv *Inventory) UpdateCard(collection, cardID string, patch gacha.CardPatch) (gacha.Card, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	bucket := inv.bucketLocked(inv.resolveLocked(collection))
	card, ok := bucket[cardID]
	if !ok {
		return gacha.Card{}, errorf(http.StatusNotFound, "Card with ID %s not found", cardID)
	}

	if patch.CardName != nil {
		card.CardName = *patch.CardName
	}
	if patch.Rarity != nil {
		card.Rarity = *patch.Rarity
	}
	if patch.PointWorth != nil {
		card.PointWorth = *patch.PointWorth
	}
	if patch.Quantity != nil {
		card.Quantity = *patch.Quantity
	}
	if patch.DateGotInStock != nil {
		card.DateGotInStock = *patch.DateGotInStock
	}
	bucket[cardID] = card
	return card, nil
}

// DeleteCard removes a card. Deleting an absent card succeeds, like
// the hosted service's idempotent document delete.
func (inv *Inventory) DeleteCard(collection, cardID string) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	delete(inv.cards[inv.resolveLocked(collection)], cardID)
}

// UploadCard stores a new card keyed by its name.
func (inv *Inventory) UploadCard(collection string, card gacha.Card) (gacha.Card, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if strings.TrimSpace(card.CardName) == "" {
		return gacha.Card{}, errorf(http.StatusBadRequest, "Card name cannot be empty.")
	}

	backing := inv.resolveLocked(collection)
	bucket := inv.bucketLocked(backing)
	if _, exists := bucket[card.CardName]; exists {
		return gacha.Card{}, errorf(http.StatusConflict,
			"A card with the name '%s' already exists in collection '%s'.", card.CardName, backing)
	}

	card.ID = card.CardName
	bucket[card.CardName] = card
	return card, nil
}

// StoragePrefix reports where a collection's images are filed.
func (inv *Inventory) StoragePrefix(collection string) string {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if collection != "" {
		if m, ok := inv.meta[collection]; ok && m.StoragePrefix != "" {
			return m.StoragePrefix
		}
	}
	return inv.resolveLocked(collection)
}

// CreateCollection registers collection metadata keyed by name.
func (inv *Inventory) CreateCollection(meta gacha.Collection) (gacha.Collection, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if strings.TrimSpace(meta.Name) == "" {
		return gacha.Collection{}, errorf(http.StatusBadRequest, "Collection name (for use as ID) cannot be empty.")
	}
	if _, exists := inv.meta[meta.Name]; exists {
		return gacha.Collection{}, errorf(http.StatusConflict, "Metadata for collection '%s' already exists.", meta.Name)
	}

	inv.meta[meta.Name] = meta
	return meta, nil
}

// GetCollection looks up collection metadata by name.
func (inv *Inventory) GetCollection(name string) (gacha.Collection, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	m, ok := inv.meta[name]
	if !ok {
		return gacha.Collection{}, errorf(http.StatusNotFound, "Metadata for collection '%s' not found", name)
	}
	return m, nil
}

// ListCollections returns all collection metadata, sorted by name.
func (inv *Inventory) ListCollections() []gacha.Collection {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	out := make([]gacha.Collection, 0, len(inv.meta))
	for _, m := range inv.meta {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CreatePack registers a pack whose name doubles as its id.
func (inv *Inventory) CreatePack(collectionID string, pack gacha.Pack) (gacha.Pack, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if strings.TrimSpace(pack.Name) == "" {
		return gacha.Pack{}, errorf(http.StatusBadRequest, "Pack name cannot be empty and is used as the Pack ID.")
	}
	if strings.Contains(pack.Name, "/") {
		return gacha.Pack{}, errorf(http.StatusBadRequest, "Pack name cannot contain '/' characters when used as Pack ID.")
	}
	if _, exists := inv.packs[pack.Name]; exists {
		return gacha.Pack{}, errorf(http.StatusConflict, "Pack with ID (name) '%s' already exists.", pack.Name)
	}

	pack.ID = pack.Name
	inv.packs[pack.ID] = &devPack{info: pack, collectionID: collectionID}
	inv.packOrder = append(inv.packOrder, pack.ID)
	return pack, nil
}

// ListPacks returns every pack in creation order.
func (inv *Inventory) ListPacks() []gacha.Pack {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	out := make([]gacha.Pack, 0, len(inv.packOrder))
	for _, id := range inv.packOrder {
		out = append(out, inv.packs[id].info)
	}
	return out
}

// GetPack looks up a single pack by id.
func (inv *Inventory) GetPack(packID string) (gacha.Pack, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	p, ok := inv.packs[packID]
	if !ok {
		return gacha.Pack{}, errorf(http.StatusNotFound, "Pack '%s' not found", packID)
	}
	return p.info, nil
}

func (inv *Inventory) packLocked(collectionID, packID string) (*devPack, error) {
	p, ok := inv.packs[packID]
	if !ok || p.collectionID != collectionID {
		return nil, errorf(http.StatusNotFound, "Pack '%s' not found", packID)
	}
	return p, nil
}

// PackCards returns the cards stored inside a pack, highest value
// first. sortBy may name another card field to order by instead.
func (inv *Inventory) PackCards(collectionID, packID, sortBy string) ([]gacha.Card, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	p, err := inv.packLocked(collectionID, packID)
	if err != nil {
		return nil, err
	}

	out := make([]gacha.Card, len(p.cards))
	copy(out, p.cards)
	sortCards(out, sortBy, string(gacha.SortDesc), false)
	return out, nil
}

// AddPackCards appends cards to a pack and refreshes its rarity
// summary.
func (inv *Inventory) AddPackCards(collectionID, packID string, cards ...gacha.Card) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	p, err := inv.packLocked(collectionID, packID)
	if err != nil {
		return err
	}

	p.cards = append(p.cards, cards...)
	byRarity := make(map[string][]string, len(p.cards))
	for _, c := range p.cards {
		key := gacha.NormalizeRarity(c.Rarity)
		byRarity[key] = append(byRarity[key], c.CardName)
	}
	p.info.CardsByRarity = byRarity
	return nil
}

// SetPackActive flips whether a pack is offered to players.
func (inv *Inventory) SetPackActive(collectionID, packID string, active bool) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	p, err := inv.packLocked(collectionID, packID)
	if err != nil {
		return err
	}
	p.active = active
	return nil
}

// PackActive reports a pack's current availability.
func (inv *Inventory) PackActive(collectionID, packID string) (bool, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	p, err := inv.packLocked(collectionID, packID)
	if err != nil {
		return false, err
	}
	return p.active, nil
}
