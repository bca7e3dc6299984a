package view

import (
	"errors"
	"fmt"

	"github.com/gashapon-labs/cardstock/internal/browse"
	"github.com/gashapon-labs/cardstock/internal/gacha"
	"github.com/gashapon-labs/cardstock/internal/gacha/client"
)

// EmptyStateMessage is shown when a listing succeeds with zero cards.
const EmptyStateMessage = "No cards found. Adjust the search or upload new stock."

// pageWindow is the maximum number of direct page buttons shown.
const pageWindow = 5

// Build projects a store snapshot into a view tree. The same snapshot
// always produces the same tree.
func Build(snap browse.Snapshot) *Node {
	root := &Node{Kind: KindRoot}

	root.Children = append(root.Children, buildHeader(snap), buildToolbar(snap))

	if snap.Phase == browse.PhaseFetching {
		root.Children = append(root.Children, &Node{Kind: KindLoading, Text: "Loading cards..."})
	}
	if snap.Phase == browse.PhaseError && snap.Err != nil {
		root.Children = append(root.Children, &Node{
			Kind:   KindErrorBanner,
			Text:   ErrorText(snap.Err),
			Intent: Retry{},
		})
	}

	if len(snap.Cards) == 0 {
		// The message claims the listing is truly empty, so it only
		// appears after a successful fetch; failures get the banner.
		if snap.Loaded && snap.Phase == browse.PhaseIdle {
			root.Children = append(root.Children, &Node{Kind: KindEmptyState, Text: EmptyStateMessage})
		}
	} else {
		grid := &Node{Kind: KindCardGrid}
		for _, c := range snap.Cards {
			grid.Children = append(grid.Children, buildTile(c))
		}
		root.Children = append(root.Children, grid)
	}

	// With zero pages there is nothing to navigate; the pager is
	// absent rather than disabled.
	if snap.TotalPages > 0 {
		root.Children = append(root.Children, buildPagination(snap))
	}

	return root
}

func buildHeader(snap browse.Snapshot) *Node {
	collection := snap.Collection
	if collection == "" {
		collection = "default collection"
	}
	return &Node{Kind: KindHeader, Text: fmt.Sprintf("Cardstock · %s", collection)}
}

func buildToolbar(snap browse.Snapshot) *Node {
	search := snap.Search
	if search == "" {
		search = "(all cards)"
	}
	arrow := "↓"
	if snap.SortOrder == gacha.SortAsc {
		arrow = "↑"
	}
	return &Node{
		Kind: KindToolbar,
		Children: []*Node{
			{Kind: KindSearchBox, Text: search},
			{Kind: KindSortIndicator, Text: fmt.Sprintf("%s %s", snap.SortBy, arrow)},
			{Kind: KindPerPage, Text: fmt.Sprintf("%d/page", snap.PerPage)},
		},
	}
}

func buildTile(c gacha.Card) *Node {
	image := &Node{Kind: KindImage, Text: c.ImageURL}
	if !c.HasImage() {
		image.Text = "no artwork"
		image.Placeholder = true
	}

	quantity := &Node{
		Kind: KindQuantity,
		Text: fmt.Sprintf("%d", c.Quantity),
		Children: []*Node{
			{Kind: KindQuantityButton, Text: "-1", Intent: AdjustQuantity{CardID: c.ID, Delta: -1}},
			{Kind: KindQuantityButton, Text: "+1", Intent: AdjustQuantity{CardID: c.ID, Delta: 1}},
			{Kind: KindQuantityButton, Text: "set", Intent: PromptQuantity{CardID: c.ID}},
		},
	}

	return &Node{
		Kind:   KindCardTile,
		Text:   c.ID,
		Intent: EditCard{CardID: c.ID},
		Children: []*Node{
			image,
			{Kind: KindCardName, Text: c.CardName},
			{Kind: KindRarityBadge, Text: gacha.NormalizeRarity(c.Rarity), Tier: gacha.RarityTier(c.Rarity)},
			{Kind: KindPointWorth, Text: fmt.Sprintf("%d pts", c.PointWorth)},
			quantity,
			{Kind: KindStockDate, Text: c.DateGotInStock},
		},
	}
}

func buildPagination(snap browse.Snapshot) *Node {
	pager := &Node{Kind: KindPagination}

	pager.Children = append(pager.Children, &Node{
		Kind:     KindPageButton,
		Text:     "prev",
		Disabled: snap.Page <= 1,
		Intent:   PrevPage{},
	})

	for _, n := range pageNumbers(snap.Page, snap.TotalPages) {
		pager.Children = append(pager.Children, &Node{
			Kind:   KindPageButton,
			Text:   fmt.Sprintf("%d", n),
			Active: n == snap.Page,
			Intent: GoToPage{Page: n},
		})
	}

	pager.Children = append(pager.Children,
		&Node{
			Kind:     KindPageButton,
			Text:     "next",
			Disabled: snap.Page >= snap.TotalPages,
			Intent:   NextPage{},
		},
		&Node{
			Kind: KindPageInfo,
			Text: fmt.Sprintf("Page %d of %d · %d cards", snap.Page, snap.TotalPages, snap.TotalItems),
		},
	)

	return pager
}

// pageNumbers windows the direct page buttons around the current page.
func pageNumbers(current, total int) []int {
	if total <= 0 {
		return nil
	}
	start := current - pageWindow/2
	if start < 1 {
		start = 1
	}
	end := start + pageWindow - 1
	if end > total {
		end = total
		if start = end - pageWindow + 1; start < 1 {
			start = 1
		}
	}
	nums := make([]int, 0, end-start+1)
	for n := start; n <= end; n++ {
		nums = append(nums, n)
	}
	return nums
}

// ErrorText maps a fetch or edit error to the message shown to the
// operator. Server-provided details pass through verbatim; transport
// and decoding failures get fixed descriptions so they are
// distinguishable from HTTP errors.
func ErrorText(err error) string {
	var reqErr *client.RequestError
	if errors.As(err, &reqErr) {
		return "Cannot reach the card service. Check the API address and your connection."
	}
	var decodeErr *client.DecodeError
	if errors.As(err, &decodeErr) {
		return "The card service returned a response that could not be understood."
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}
