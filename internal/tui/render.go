package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/gashapon-labs/cardstock/internal/auth"
	"github.com/gashapon-labs/cardstock/internal/gacha"
)

func (m Model) View() string {
	switch m.route {
	case auth.RouteSplash:
		return m.viewSplash()
	case auth.RouteLogin:
		return m.viewLogin()
	}
	return m.viewBrowse()
}

func (m Model) viewSplash() string {
	return panelStyle.Render(fmt.Sprintf("%s Cardstock\n\nresolving session…", m.spinner.View()))
}

func (m Model) viewLogin() string {
	lines := []string{
		panelTitle.Render("Sign-in required"),
		"",
		"No active session was found.",
	}
	if m.sessionHint != "" {
		lines = append(lines,
			fmt.Sprintf("Drop a session token at %s and the screen", m.sessionHint),
			"unlocks as soon as the file appears.")
	} else {
		lines = append(lines, "Provide a session token to continue.")
	}
	lines = append(lines, "", footerStyle.Render("q quit"))
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) viewBrowse() string {
	var b strings.Builder

	if m.busy {
		b.WriteString(m.spinner.View() + " fetching\n")
	}

	switch m.mode {
	case modeCollections:
		b.WriteString(m.viewCollections())
	case modePacks:
		b.WriteString(m.viewPacks())
	case modeEdit:
		b.WriteString(m.editForm.view("Edit card", "tab next field · enter save · esc cancel"))
	case modeUpload:
		b.WriteString(m.uploadForm.view("Upload card", "tab next field · enter upload · esc cancel"))
	case modeNewCollection:
		b.WriteString(m.collectionForm.view("New collection", "tab next field · enter create · esc cancel"))
	default:
		if m.tree != nil {
			b.WriteString(m.painter.Paint(m.tree, m.cursor))
		}
		switch m.mode {
		case modeSearch:
			b.WriteString("\n" + m.searchInput.View())
		case modeQuantity:
			b.WriteString("\n" + m.qtyInput.View())
			if m.promptErr != "" {
				b.WriteString("\n" + bannerStyle.Render("✗ "+m.promptErr))
			}
		case modeConfirmDelete:
			b.WriteString("\n" + bannerStyle.Render(fmt.Sprintf("delete %q? y/n", m.confirmName)))
		}
	}

	if m.banner != "" {
		b.WriteString("\n" + bannerStyle.Render("✗ "+m.banner))
	}
	if m.status != "" {
		b.WriteString("\n" + statusStyle.Render(m.status))
	}
	if hint := m.footerText(); hint != "" {
		b.WriteString("\n" + footerStyle.Render(hint))
	}
	return b.String()
}

func (m Model) footerText() string {
	switch m.mode {
	case modeSearch:
		return "enter apply · esc cancel"
	case modeQuantity:
		return "enter save · esc cancel"
	case modeConfirmDelete:
		return "y delete · n keep"
	case modeBrowse:
		return "↑↓←→ move · +/- qty · = set · e edit · x delete · / search · s/S sort · [/] page · {/} size · " +
			"c collections · n new · u upload · p packs · r refresh · q quit"
	}
	return ""
}

func (m Model) viewCollections() string {
	lines := []string{panelTitle.Render("Collections")}
	rows := make([]string, 0, len(m.collections)+1)
	rows = append(rows, "(default)")
	for _, col := range m.collections {
		rows = append(rows, col.Name)
	}
	for i, name := range rows {
		marker := "  "
		if i == m.collectionIndex {
			marker = "> "
		}
		line := marker + name
		active := (i == 0 && m.snap.Collection == "") ||
			(i > 0 && m.collections[i-1].Name == m.snap.Collection)
		if active {
			line = activeStyle.Render(line + " ●")
		}
		lines = append(lines, line)
	}
	lines = append(lines, footerStyle.Render("enter select · esc close"))
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) viewPacks() string {
	lines := []string{panelTitle.Render("Packs")}
	if len(m.packs) == 0 {
		lines = append(lines, "No packs are configured.")
	}
	for i, pack := range m.packs {
		marker := "  "
		if i == m.packIndex {
			marker = "> "
		}
		line := marker + pack.Name
		if pack.Description != "" {
			line += "  " + footerStyle.Render(runewidth.Truncate(pack.Description, 48, "…"))
		}
		lines = append(lines, line)
		if i == m.packIndex && m.packDetail {
			lines = append(lines, packDetailLines(pack)...)
		}
	}
	lines = append(lines, footerStyle.Render("enter details · esc close"))
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func packDetailLines(pack gacha.Pack) []string {
	var lines []string
	if len(pack.RarityProbabilities) > 0 {
		parts := make([]string, 0, len(pack.RarityProbabilities))
		for _, rarity := range sortedRarities(pack.RarityProbabilities) {
			parts = append(parts, fmt.Sprintf("%s %.0f%%", rarity, pack.RarityProbabilities[rarity]*100))
		}
		lines = append(lines, "    odds: "+strings.Join(parts, "  "))
	}
	if len(pack.CardsByRarity) > 0 {
		parts := make([]string, 0, len(pack.CardsByRarity))
		for _, rarity := range sortedRarities(pack.CardsByRarity) {
			parts = append(parts, fmt.Sprintf("%s %d", rarity, len(pack.CardsByRarity[rarity])))
		}
		lines = append(lines, "    cards: "+strings.Join(parts, "  "))
	}
	return lines
}

// sortedRarities orders map keys by display tier, with unknown
// labels alphabetically after the known ones.
func sortedRarities[V any](byRarity map[string]V) []string {
	keys := make([]string, 0, len(byRarity))
	for k := range byRarity {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ti, tj := gacha.RarityTier(keys[i]), gacha.RarityTier(keys[j])
		if ti != tj {
			if ti == 0 {
				return false
			}
			if tj == 0 {
				return true
			}
			return ti < tj
		}
		return keys[i] < keys[j]
	})
	return keys
}
