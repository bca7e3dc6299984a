package devserver

import (
	"fmt"

	"github.com/gashapon-labs/cardstock/internal/gacha"
)

// Seed loads a small fixture inventory: a spread of cards across
// rarities in the default collection, one themed collection reachable
// through metadata, and a pack with cards assigned.
func Seed(inv *Inventory) error {
	defaultCards := []gacha.Card{
		{CardName: "Aurora Dragonling", Rarity: gacha.RarityLegendary, PointWorth: 500, Quantity: 1, DateGotInStock: "2025-11-02", ImageURL: "dev://cards/aurora-dragonling.png"},
		{CardName: "Brass Automaton", Rarity: gacha.RarityEpic, PointWorth: 220, Quantity: 3, DateGotInStock: "2025-11-02", ImageURL: "dev://cards/brass-automaton.png"},
		{CardName: "Celadon Sprite", Rarity: gacha.RarityRare, PointWorth: 80, Quantity: 7, DateGotInStock: "2025-11-15", ImageURL: "dev://cards/celadon-sprite.png"},
		{CardName: "Drowsy Mushroom", Rarity: gacha.RarityCommon, PointWorth: 10, Quantity: 24, DateGotInStock: "2025-12-01"},
		{CardName: "Ember Fox", Rarity: gacha.RarityRare, PointWorth: 95, Quantity: 5, DateGotInStock: "2025-12-01", ImageURL: "dev://cards/ember-fox.png"},
		{CardName: "Frostbitten Knight", Rarity: gacha.RarityEpic, PointWorth: 240, Quantity: 2, DateGotInStock: "2025-12-18", ImageURL: "dev://cards/frostbitten-knight.png"},
		{CardName: "Gilded Koi", Rarity: gacha.RarityLegendary, PointWorth: 450, Quantity: 0, DateGotInStock: "2026-01-05", ImageURL: "dev://cards/gilded-koi.png"},
		{CardName: "Harbor Gull", Rarity: gacha.RarityCommon, PointWorth: 8, Quantity: 31, DateGotInStock: "2026-01-05"},
		{CardName: "Inkwell Imp", Rarity: gacha.RarityCommon, PointWorth: 12, Quantity: 19, DateGotInStock: "2026-02-11", ImageURL: "dev://cards/inkwell-imp.png"},
		{CardName: "Jade Warden", Rarity: gacha.RarityRare, PointWorth: 110, Quantity: 4, DateGotInStock: "2026-02-11", ImageURL: "dev://cards/jade-warden.png"},
		{CardName: "Kelp Serpent", Rarity: gacha.RarityEpic, PointWorth: 200, Quantity: 1, DateGotInStock: "2026-03-07", ImageURL: "dev://cards/kelp-serpent.png"},
		{CardName: "Lantern Moth", Rarity: gacha.RarityCommon, PointWorth: 15, Quantity: 12, DateGotInStock: "2026-03-07", ImageURL: "dev://cards/lantern-moth.png"},
	}
	for _, card := range defaultCards {
		if _, err := inv.UploadCard("", card); err != nil {
			return fmt.Errorf("failed to seed card %s: %w", card.CardName, err)
		}
	}

	summer := gacha.Collection{
		Name:                "summer-festival",
		FirestoreCollection: "summer_cards",
		StoragePrefix:       "summer",
	}
	if _, err := inv.CreateCollection(summer); err != nil {
		return fmt.Errorf("failed to seed collection metadata: %w", err)
	}

	summerCards := []gacha.Card{
		{CardName: "Sunburst Ukulele", Rarity: gacha.RarityRare, PointWorth: 90, Quantity: 6, DateGotInStock: "2026-06-20", ImageURL: "dev://summer/sunburst-ukulele.png"},
		{CardName: "Tidepool Oracle", Rarity: gacha.RarityLegendary, PointWorth: 480, Quantity: 1, DateGotInStock: "2026-06-20", ImageURL: "dev://summer/tidepool-oracle.png"},
		{CardName: "Watermelon Golem", Rarity: gacha.RarityCommon, PointWorth: 14, Quantity: 22, DateGotInStock: "2026-06-21"},
	}
	for _, card := range summerCards {
		if _, err := inv.UploadCard(summer.Name, card); err != nil {
			return fmt.Errorf("failed to seed card %s: %w", card.CardName, err)
		}
	}

	pack := gacha.Pack{
		Name:        "Starter Pack",
		Description: "A balanced introduction to the core set.",
		RarityProbabilities: map[string]float64{
			gacha.RarityCommon:    0.70,
			gacha.RarityRare:      0.20,
			gacha.RarityEpic:      0.08,
			gacha.RarityLegendary: 0.02,
		},
	}
	if _, err := inv.CreatePack("core-packs", pack); err != nil {
		return fmt.Errorf("failed to seed pack: %w", err)
	}
	if err := inv.AddPackCards("core-packs", "Starter Pack",
		defaultCards[0], defaultCards[3], defaultCards[4], defaultCards[7]); err != nil {
		return fmt.Errorf("failed to seed pack cards: %w", err)
	}
	if err := inv.SetPackActive("core-packs", "Starter Pack", true); err != nil {
		return fmt.Errorf("failed to activate seeded pack: %w", err)
	}

	return nil
}
