package report

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/gashapon-labs/cardstock/internal/gacha"
)

// Stats summarizes a drained collection.
type Stats struct {
	Cards         int
	TotalQuantity int
	// TotalValue is point worth weighted by quantity.
	TotalValue int

	// Quantiles and moments are per-card point_worth, unweighted.
	MeanPoints   float64
	StdDevPoints float64
	MedianPoints float64
	P90Points    float64

	ByRarity []RarityBucket
	ByDate   []DatePoint
}

// RarityBucket aggregates cards sharing a rarity label.
type RarityBucket struct {
	Rarity   string
	Cards    int
	Quantity int
}

// DatePoint is one step on the stock-date timeline.
type DatePoint struct {
	Date       string
	Value      int
	Cumulative int
}

// Compute aggregates the drained cards. Cards without a stock date
// stay out of the timeline; they still count everywhere else.
func Compute(cards []gacha.Card) Stats {
	s := Stats{Cards: len(cards)}
	if len(cards) == 0 {
		return s
	}

	points := make([]float64, 0, len(cards))
	rarities := make(map[string]*RarityBucket)
	dates := make(map[string]int)

	for _, card := range cards {
		s.TotalQuantity += card.Quantity
		s.TotalValue += card.PointWorth * card.Quantity
		points = append(points, float64(card.PointWorth))

		label := gacha.NormalizeRarity(card.Rarity)
		bucket := rarities[label]
		if bucket == nil {
			bucket = &RarityBucket{Rarity: label}
			rarities[label] = bucket
		}
		bucket.Cards++
		bucket.Quantity += card.Quantity

		if card.DateGotInStock != "" {
			dates[card.DateGotInStock] += card.PointWorth * card.Quantity
		}
	}

	mean, std := stat.PopMeanStdDev(points, nil)
	s.MeanPoints = mean
	s.StdDevPoints = std

	// stat.Quantile wants ascending input.
	sort.Float64s(points)
	s.MedianPoints = stat.Quantile(0.5, stat.Empirical, points, nil)
	s.P90Points = stat.Quantile(0.9, stat.Empirical, points, nil)

	for _, bucket := range rarities {
		s.ByRarity = append(s.ByRarity, *bucket)
	}
	sort.Slice(s.ByRarity, func(i, j int) bool {
		return rarityLess(s.ByRarity[i].Rarity, s.ByRarity[j].Rarity)
	})

	for date, value := range dates {
		s.ByDate = append(s.ByDate, DatePoint{Date: date, Value: value})
	}
	sort.Slice(s.ByDate, func(i, j int) bool {
		return s.ByDate[i].Date < s.ByDate[j].Date
	})
	running := 0
	for i := range s.ByDate {
		running += s.ByDate[i].Value
		s.ByDate[i].Cumulative = running
	}

	return s
}

// rarityLess orders known labels by tier and parks unknown labels
// after them alphabetically.
func rarityLess(a, b string) bool {
	ta, tb := gacha.RarityTier(a), gacha.RarityTier(b)
	switch {
	case ta > 0 && tb > 0:
		return ta < tb
	case ta > 0:
		return true
	case tb > 0:
		return false
	default:
		return a < b
	}
}
