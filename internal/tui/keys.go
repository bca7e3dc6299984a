package tui

import (
	"context"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gashapon-labs/cardstock/internal/auth"
	"github.com/gashapon-labs/cardstock/internal/gacha"
)

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.route {
	case auth.RouteSplash, auth.RouteLogin:
		if msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil
	}

	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeQuantity:
		return m.handleQuantityKey(msg)
	case modeEdit:
		return m.handleEditKey(msg)
	case modeConfirmDelete:
		return m.handleConfirmKey(msg)
	case modeCollections:
		return m.handleCollectionsKey(msg)
	case modeNewCollection:
		return m.handleCollectionFormKey(msg)
	case modeUpload:
		return m.handleUploadKey(msg)
	case modePacks:
		return m.handlePacksKey(msg)
	}
	return m.handleBrowseKey(msg)
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "up", "k":
		(&m).moveCursor(-m.painter.Columns())
	case "down", "j":
		(&m).moveCursor(m.painter.Columns())
	case "left", "h":
		(&m).moveCursor(-1)
	case "right", "l":
		(&m).moveCursor(1)

	case "+":
		card, ok := m.selectedCard()
		if !ok {
			return m, nil
		}
		m.busy = true
		return m, m.storeCmd(opQuantityDelta, func(ctx context.Context) error {
			return m.store.ApplyQuantityDelta(ctx, card.ID, 1)
		})
	case "-":
		card, ok := m.selectedCard()
		if !ok {
			return m, nil
		}
		m.busy = true
		return m, m.storeCmd(opQuantityDelta, func(ctx context.Context) error {
			return m.store.ApplyQuantityDelta(ctx, card.ID, -1)
		})
	case "=":
		card, ok := m.selectedCard()
		if !ok {
			return m, nil
		}
		m.mode = modeQuantity
		m.qtyCardID = card.ID
		m.promptErr = ""
		m.qtyInput.SetValue(strconv.Itoa(card.Quantity))
		m.qtyInput.CursorEnd()
		m.qtyInput.Focus()

	case "e":
		card, ok := m.selectedCard()
		if !ok {
			return m, nil
		}
		m.editForm = newEditForm(card)
		m.mode = modeEdit
	case "x":
		card, ok := m.selectedCard()
		if !ok {
			return m, nil
		}
		m.confirmID = card.ID
		m.confirmName = card.CardName
		m.mode = modeConfirmDelete

	case "/":
		m.mode = modeSearch
		m.searchInput.SetValue(m.snap.Search)
		m.searchInput.CursorEnd()
		m.searchInput.Focus()

	case "s":
		field := nextSortField(m.snap.SortBy)
		order := m.snap.SortOrder
		m.busy = true
		return m, m.storeCmd(opSort, func(ctx context.Context) error {
			return m.store.SetSort(ctx, field, order)
		})
	case "S":
		field := m.snap.SortBy
		order := gacha.SortAsc
		if m.snap.SortOrder == gacha.SortAsc {
			order = gacha.SortDesc
		}
		m.busy = true
		return m, m.storeCmd(opSort, func(ctx context.Context) error {
			return m.store.SetSort(ctx, field, order)
		})

	case "[":
		m.busy = true
		return m, m.storeCmd(opPage, m.store.PrevPage)
	case "]":
		m.busy = true
		return m, m.storeCmd(opPage, m.store.NextPage)
	case "{":
		n := stepPerPage(m.snap.PerPage, -1)
		m.busy = true
		return m, m.storeCmd(opPerPage, func(ctx context.Context) error {
			return m.store.SetPerPage(ctx, n)
		})
	case "}":
		n := stepPerPage(m.snap.PerPage, 1)
		m.busy = true
		return m, m.storeCmd(opPerPage, func(ctx context.Context) error {
			return m.store.SetPerPage(ctx, n)
		})

	case "c":
		m.busy = true
		return m, m.loadCollectionsCmd()
	case "n":
		m.collectionForm = newCollectionForm()
		m.mode = modeNewCollection
	case "u":
		m.uploadForm = newUploadForm()
		m.mode = modeUpload
	case "p":
		m.busy = true
		return m, m.loadPacksCmd()

	case "r":
		m.busy = true
		return m, m.refreshCmd()

	case "esc":
		m.banner = ""
		m.status = ""
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		query := m.searchInput.Value()
		m.mode = modeBrowse
		m.busy = true
		return m, m.storeCmd(opSearch, func(ctx context.Context) error {
			return m.store.SetSearch(ctx, query)
		})
	case "esc":
		m.mode = modeBrowse
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleQuantityKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		cardID := m.qtyCardID
		raw := m.qtyInput.Value()
		m.busy = true
		return m, m.storeCmd(opQuantitySet, func(ctx context.Context) error {
			return m.store.ApplyAbsoluteQuantity(ctx, cardID, raw)
		})
	case "esc":
		m.mode = modeBrowse
		m.promptErr = ""
		return m, nil
	}
	var cmd tea.Cmd
	m.qtyInput, cmd = m.qtyInput.Update(msg)
	return m, cmd
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editForm = nil
		m.mode = modeBrowse
		return m, nil
	case "enter":
		patch, err := m.editForm.changedPatch()
		if err != nil {
			m.editForm.err = err.Error()
			return m, nil
		}
		if patch.IsEmpty() {
			m.editForm = nil
			m.mode = modeBrowse
			m.status = "no changes"
			return m, nil
		}
		cardID := m.editForm.cardID
		m.busy = true
		return m, m.storeCmd(opEdit, func(ctx context.Context) error {
			return m.store.ApplyCardEdit(ctx, cardID, patch)
		})
	case "tab", "down":
		m.editForm.next()
		return m, nil
	case "shift+tab", "up":
		m.editForm.prev()
		return m, nil
	}
	return m, m.editForm.update(msg)
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		cardID := m.confirmID
		m.mode = modeBrowse
		m.busy = true
		return m, m.storeCmd(opDelete, func(ctx context.Context) error {
			return m.store.DeleteCard(ctx, cardID)
		})
	case "n", "N", "esc":
		m.mode = modeBrowse
	}
	return m, nil
}

func (m Model) handleCollectionsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.collectionIndex > 0 {
			m.collectionIndex--
		}
	case "down", "j":
		// Row 0 is the default collection, rows 1..n the named ones.
		if m.collectionIndex < len(m.collections) {
			m.collectionIndex++
		}
	case "enter":
		name := ""
		if m.collectionIndex > 0 {
			name = m.collections[m.collectionIndex-1].Name
		}
		m.mode = modeBrowse
		m.busy = true
		return m, m.storeCmd(opCollection, func(ctx context.Context) error {
			return m.store.SetCollection(ctx, name)
		})
	case "esc", "c":
		m.mode = modeBrowse
	}
	return m, nil
}

func (m Model) handleCollectionFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.collectionForm = nil
		m.mode = modeBrowse
		return m, nil
	case "enter":
		col, err := m.collectionForm.buildCollection()
		if err != nil {
			m.collectionForm.err = err.Error()
			return m, nil
		}
		m.busy = true
		return m, m.createCollectionCmd(col)
	case "tab", "down":
		m.collectionForm.next()
		return m, nil
	case "shift+tab", "up":
		m.collectionForm.prev()
		return m, nil
	}
	return m, m.collectionForm.update(msg)
}

func (m Model) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.uploadForm = nil
		m.mode = modeBrowse
		return m, nil
	case "enter":
		req, imagePath, err := m.uploadForm.buildRequest(m.snap.Collection)
		if err != nil {
			m.uploadForm.err = err.Error()
			return m, nil
		}
		m.busy = true
		return m, m.uploadCmd(req, imagePath)
	case "tab", "down":
		m.uploadForm.next()
		return m, nil
	case "shift+tab", "up":
		m.uploadForm.prev()
		return m, nil
	}
	return m, m.uploadForm.update(msg)
}

func (m Model) handlePacksKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.packIndex > 0 {
			m.packIndex--
			m.packDetail = false
		}
	case "down", "j":
		if m.packIndex < len(m.packs)-1 {
			m.packIndex++
			m.packDetail = false
		}
	case "enter":
		m.packDetail = !m.packDetail
	case "esc", "p":
		m.mode = modeBrowse
		m.packDetail = false
	}
	return m, nil
}

// nextSortField cycles through the accepted sort columns in the
// order the storage service lists them.
func nextSortField(current gacha.SortField) gacha.SortField {
	fields := gacha.SortFields()
	for i, f := range fields {
		if f == current {
			return fields[(i+1)%len(fields)]
		}
	}
	return gacha.DefaultSortField
}

// stepPerPage moves to the neighbouring offered page size, stopping
// at the ends rather than wrapping.
func stepPerPage(current, step int) int {
	options := gacha.PerPageOptions
	idx := 0
	for i, opt := range options {
		if opt == current {
			idx = i
			break
		}
	}
	idx += step
	if idx < 0 {
		idx = 0
	}
	if idx >= len(options) {
		idx = len(options) - 1
	}
	return options[idx]
}
