package browse

import (
	"context"
	"strconv"
	"strings"

	"github.com/gashapon-labs/cardstock/internal/events"
	"github.com/gashapon-labs/cardstock/internal/gacha"
	"github.com/gashapon-labs/cardstock/internal/gacha/client"
)

// ApplyQuantityDelta applies a relative quantity change to one card
// and merges the confirmed record into the displayed page. Negative
// deltas are passed through; the service clamps at zero. On failure
// the displayed cards are untouched and the error is returned.
func (s *Store) ApplyQuantityDelta(ctx context.Context, cardID string, delta int) error {
	s.mu.Lock()
	collection := s.collection
	oldQty := s.quantityLocked(cardID)
	s.mu.Unlock()

	card, err := s.svc.AdjustQuantity(ctx, cardID, delta, collection)
	if err != nil {
		return err
	}

	s.commitCard(ctx, card)
	s.dispatch(events.NewTypedEvent(events.TypeQuantityChanged, events.QuantityChangedEvent{
		Collection:  collection,
		CardID:      card.ID,
		CardName:    card.CardName,
		Delta:       delta,
		OldQuantity: oldQty,
		NewQuantity: card.Quantity,
	}, ctx))
	return nil
}

// ApplyAbsoluteQuantity sets one card's quantity to the value typed
// by the user. Non-numeric and negative input is rejected before any
// network call; zero is accepted.
func (s *Store) ApplyAbsoluteQuantity(ctx context.Context, cardID string, input string) error {
	value, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return &client.ValidationError{Field: "quantity", Message: "must be a non-negative integer"}
	}
	if value < 0 {
		return &client.ValidationError{Field: "quantity", Message: "must be a non-negative integer"}
	}

	s.mu.Lock()
	collection := s.collection
	oldQty := s.quantityLocked(cardID)
	s.mu.Unlock()

	card, err := s.svc.SetQuantity(ctx, cardID, value, collection)
	if err != nil {
		return err
	}

	s.commitCard(ctx, card)
	s.dispatch(events.NewTypedEvent(events.TypeQuantityChanged, events.QuantityChangedEvent{
		Collection:  collection,
		CardID:      card.ID,
		CardName:    card.CardName,
		Delta:       card.Quantity - oldQty,
		OldQuantity: oldQty,
		NewQuantity: card.Quantity,
	}, ctx))
	return nil
}

// ApplyCardEdit sends a partial update for one card and merges the
// confirmed record into the displayed page. Empty patches are
// rejected without a call.
func (s *Store) ApplyCardEdit(ctx context.Context, cardID string, patch gacha.CardPatch) error {
	if patch.IsEmpty() {
		return &client.ValidationError{Field: "update", Message: "no fields to update"}
	}

	s.mu.Lock()
	collection := s.collection
	before, _ := s.cardLocked(cardID)
	s.mu.Unlock()

	card, err := s.svc.UpdateCard(ctx, cardID, patch, collection)
	if err != nil {
		return err
	}

	s.commitCard(ctx, card)
	s.dispatch(events.NewTypedEvent(events.TypeCardEdited, events.CardEditedEvent{
		Collection: collection,
		CardID:     card.ID,
		CardName:   card.CardName,
		Changes:    fieldChanges(before, card, patch),
	}, ctx))
	return nil
}

// DeleteCard removes a card and refreshes the listing; a removal
// cannot be merged in place without leaving a hole in the page.
func (s *Store) DeleteCard(ctx context.Context, cardID string) error {
	s.mu.Lock()
	collection := s.collection
	s.mu.Unlock()

	if err := s.svc.DeleteCard(ctx, cardID, collection); err != nil {
		return err
	}

	s.dispatch(events.NewTypedEvent(events.TypeCardDeleted, events.CardDeletedEvent{
		Collection: collection,
		CardID:     cardID,
	}, ctx))

	return s.Refresh(ctx)
}

// commitCard merges a confirmed card record into the displayed page,
// keyed by id, preserving order. Cards on other pages merge nowhere
// and the display is left as is.
func (s *Store) commitCard(ctx context.Context, card *gacha.Card) {
	s.mu.Lock()
	for i := range s.cards {
		if s.cards[i].ID == card.ID {
			s.cards[i] = *card
			break
		}
	}
	s.gen++
	changed := s.browseEventLocked()
	s.mu.Unlock()

	s.dispatch(changed.withContext(ctx))
}

// quantityLocked returns the displayed quantity for a card, or 0 when
// the card is not on the current page. Caller holds mu.
func (s *Store) quantityLocked(cardID string) int {
	if c, ok := s.cardLocked(cardID); ok {
		return c.Quantity
	}
	return 0
}

// cardLocked finds a displayed card by id. Caller holds mu.
func (s *Store) cardLocked(cardID string) (gacha.Card, bool) {
	for i := range s.cards {
		if s.cards[i].ID == cardID {
			return s.cards[i], true
		}
	}
	return gacha.Card{}, false
}

// fieldChanges lists the patched fields with their displayed old
// values and confirmed new values.
func fieldChanges(before gacha.Card, after *gacha.Card, patch gacha.CardPatch) []events.FieldChange {
	var changes []events.FieldChange
	if patch.CardName != nil {
		changes = append(changes, events.FieldChange{Field: "card_name", Old: before.CardName, New: after.CardName})
	}
	if patch.Rarity != nil {
		changes = append(changes, events.FieldChange{Field: "rarity", Old: before.Rarity, New: after.Rarity})
	}
	if patch.PointWorth != nil {
		changes = append(changes, events.FieldChange{Field: "point_worth", Old: strconv.Itoa(before.PointWorth), New: strconv.Itoa(after.PointWorth)})
	}
	if patch.Quantity != nil {
		changes = append(changes, events.FieldChange{Field: "quantity", Old: strconv.Itoa(before.Quantity), New: strconv.Itoa(after.Quantity)})
	}
	if patch.DateGotInStock != nil {
		changes = append(changes, events.FieldChange{Field: "date_got_in_stock", Old: before.DateGotInStock, New: after.DateGotInStock})
	}
	return changes
}
