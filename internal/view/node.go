// Package view projects browser state into a typed node tree. Build
// is a pure function of a store snapshot; it performs no I/O and
// touches no terminal, so every visual rule is testable by walking
// the tree. Paint renders a tree to styled terminal output.
package view

// Kind identifies what a node represents.
type Kind int

const (
	KindRoot Kind = iota
	KindHeader
	KindToolbar
	KindSearchBox
	KindSortIndicator
	KindPerPage
	KindCardGrid
	KindCardTile
	KindImage
	KindCardName
	KindRarityBadge
	KindPointWorth
	KindQuantity
	KindQuantityButton
	KindStockDate
	KindEmptyState
	KindLoading
	KindErrorBanner
	KindPagination
	KindPageButton
	KindPageInfo
)

// Intent is an action a node offers. The controller maps input events
// landing on a node to its intent and executes it against the store.
type Intent interface {
	intent()
}

type (
	// GoToPage navigates to an absolute page.
	GoToPage struct{ Page int }
	// PrevPage and NextPage step the pager.
	PrevPage struct{}
	NextPage struct{}
	// AdjustQuantity applies a relative quantity change to a card.
	AdjustQuantity struct {
		CardID string
		Delta  int
	}
	// PromptQuantity opens the set-absolute-quantity prompt for a card.
	PromptQuantity struct{ CardID string }
	// EditCard opens the field editor for a card.
	EditCard struct{ CardID string }
	// Retry re-issues the failed fetch.
	Retry struct{}
)

func (GoToPage) intent()       {}
func (PrevPage) intent()       {}
func (NextPage) intent()       {}
func (AdjustQuantity) intent() {}
func (PromptQuantity) intent() {}
func (EditCard) intent()       {}
func (Retry) intent()          {}

// Node is one element of the view tree.
type Node struct {
	Kind Kind
	Text string

	// Tier styles rarity badges; zero is the unknown tier.
	Tier int
	// Placeholder marks an image slot with no usable artwork.
	Placeholder bool
	// Disabled marks a control that is visible but not actionable.
	Disabled bool
	// Active marks the current page in the pager.
	Active bool

	Intent   Intent
	Children []*Node
}

// Find returns the first descendant of the given kind in depth-first
// order, or nil.
func (n *Node) Find(kind Kind) *Node {
	if n == nil {
		return nil
	}
	if n.Kind == kind {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(kind); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant of the given kind in depth-first
// order.
func (n *Node) FindAll(kind Kind) []*Node {
	var out []*Node
	n.walk(func(node *Node) {
		if node.Kind == kind {
			out = append(out, node)
		}
	})
	return out
}

func (n *Node) walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.walk(fn)
	}
}
