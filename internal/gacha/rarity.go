package gacha

import "strings"

// Rarity labels used by the gacha service. The wire format carries
// free-form strings; these are the labels the drop tables use.
const (
	RarityCommon    = "common"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
)

// rarityTiers maps normalized rarity labels to display tiers.
// Higher tiers render with stronger styling.
var rarityTiers = map[string]int{
	RarityCommon:    1,
	RarityRare:      2,
	RarityEpic:      3,
	RarityLegendary: 4,
}

// NormalizeRarity lowercases and trims a rarity label so lookups are
// case-insensitive ("Legendary" and "legendary" map to the same tier).
func NormalizeRarity(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// RarityTier returns the numeric display tier for a rarity label,
// or 0 when the label is unknown. Unknown labels still display; they
// just get the neutral style.
func RarityTier(label string) int {
	return rarityTiers[NormalizeRarity(label)]
}

// KnownRarities returns the recognized labels in ascending tier order.
func KnownRarities() []string {
	return []string{RarityCommon, RarityRare, RarityEpic, RarityLegendary}
}
