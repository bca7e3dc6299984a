package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	tileWidth  = 26
	minColumns = 1
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	toolbarStyle = lipgloss.NewStyle().Faint(true)
	loadingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	emptyStyle   = lipgloss.NewStyle().Faint(true).Italic(true)

	tileStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Width(tileWidth)
	tileCursorStyle = tileStyle.
			BorderForeground(lipgloss.Color("212"))

	placeholderStyle = lipgloss.NewStyle().Faint(true)

	pageButtonStyle   = lipgloss.NewStyle().Padding(0, 1)
	pageActiveStyle   = pageButtonStyle.Bold(true).Reverse(true)
	pageDisabledStyle = pageButtonStyle.Faint(true)

	// tierStyles keys on the rarity-derived tier; zero is unknown.
	tierStyles = map[int]lipgloss.Style{
		0: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		1: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		2: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		3: lipgloss.NewStyle().Foreground(lipgloss.Color("135")),
		4: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
	}
)

// Painter renders a view tree as styled terminal output.
type Painter struct {
	width int
}

// NewPainter creates a painter for the given terminal width.
func NewPainter(width int) *Painter {
	if width < tileWidth {
		width = tileWidth
	}
	return &Painter{width: width}
}

// SetWidth adjusts the painter after a terminal resize.
func (p *Painter) SetWidth(width int) {
	if width < tileWidth {
		width = tileWidth
	}
	p.width = width
}

// Paint renders the tree. cursor is the index of the highlighted card
// tile; pass a negative value for no highlight.
func (p *Painter) Paint(root *Node, cursor int) string {
	if root == nil {
		return ""
	}

	var sections []string
	for _, child := range root.Children {
		switch child.Kind {
		case KindHeader:
			sections = append(sections, headerStyle.Render(child.Text))
		case KindToolbar:
			sections = append(sections, p.paintToolbar(child))
		case KindLoading:
			sections = append(sections, loadingStyle.Render(child.Text))
		case KindErrorBanner:
			sections = append(sections, errorStyle.Render("✗ "+child.Text)+"\n"+toolbarStyle.Render("press r to retry"))
		case KindEmptyState:
			sections = append(sections, emptyStyle.Render(child.Text))
		case KindCardGrid:
			sections = append(sections, p.paintGrid(child, cursor))
		case KindPagination:
			sections = append(sections, p.paintPagination(child))
		}
	}
	return strings.Join(sections, "\n\n")
}

func (p *Painter) paintToolbar(toolbar *Node) string {
	parts := make([]string, 0, len(toolbar.Children))
	for _, c := range toolbar.Children {
		switch c.Kind {
		case KindSearchBox:
			parts = append(parts, "search: "+c.Text)
		case KindSortIndicator:
			parts = append(parts, "sort: "+c.Text)
		case KindPerPage:
			parts = append(parts, c.Text)
		}
	}
	return toolbarStyle.Render(strings.Join(parts, "  │  "))
}

// Columns reports how many tiles fit per grid row at the current
// width. Cursor movement across rows depends on it.
func (p *Painter) Columns() int {
	columns := p.width / (tileWidth + 2)
	if columns < minColumns {
		columns = minColumns
	}
	return columns
}

func (p *Painter) paintGrid(grid *Node, cursor int) string {
	columns := p.Columns()

	var rows []string
	var row []string
	for i, tile := range grid.Children {
		row = append(row, p.paintTile(tile, i == cursor))
		if len(row) == columns {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (p *Painter) paintTile(tile *Node, highlighted bool) string {
	inner := tileWidth - 4 // border and padding

	var lines []string
	for _, c := range tile.Children {
		switch c.Kind {
		case KindImage:
			if c.Placeholder {
				lines = append(lines, placeholderStyle.Render("["+truncate(c.Text, inner-2)+"]"))
			} else {
				lines = append(lines, truncate("img "+trailName(c.Text), inner))
			}
		case KindCardName:
			lines = append(lines, lipgloss.NewStyle().Bold(true).Render(truncate(c.Text, inner)))
		case KindRarityBadge:
			style, ok := tierStyles[c.Tier]
			if !ok {
				style = tierStyles[0]
			}
			lines = append(lines, style.Render(truncate(c.Text, inner)))
		case KindPointWorth, KindStockDate:
			lines = append(lines, truncate(c.Text, inner))
		case KindQuantity:
			lines = append(lines, p.paintQuantity(c, inner))
		}
	}

	style := tileStyle
	if highlighted {
		style = tileCursorStyle
	}
	return style.Render(strings.Join(lines, "\n"))
}

func (p *Painter) paintQuantity(q *Node, width int) string {
	buttons := make([]string, 0, len(q.Children))
	for _, b := range q.Children {
		buttons = append(buttons, "["+b.Text+"]")
	}
	return truncate(fmt.Sprintf("qty %s %s", q.Text, strings.Join(buttons, " ")), width)
}

func (p *Painter) paintPagination(pager *Node) string {
	var parts []string
	var info string
	for _, c := range pager.Children {
		switch c.Kind {
		case KindPageButton:
			switch {
			case c.Disabled:
				parts = append(parts, pageDisabledStyle.Render(c.Text))
			case c.Active:
				parts = append(parts, pageActiveStyle.Render(c.Text))
			default:
				parts = append(parts, pageButtonStyle.Render(c.Text))
			}
		case KindPageInfo:
			info = toolbarStyle.Render(c.Text)
		}
	}
	line := lipgloss.JoinHorizontal(lipgloss.Center, parts...)
	if info != "" {
		line += "  " + info
	}
	return line
}

// truncate shortens a string to the given display width, which keeps
// wide runes in card names from breaking tile alignment.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// trailName keeps the final path segment of an image location.
func trailName(url string) string {
	if i := strings.LastIndexByte(url, '/'); i >= 0 && i < len(url)-1 {
		return url[i+1:]
	}
	return url
}
