package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gashapon-labs/cardstock/internal/auth"
	"github.com/gashapon-labs/cardstock/internal/events"
	"github.com/gashapon-labs/cardstock/internal/gacha"
	"github.com/gashapon-labs/cardstock/internal/gacha/client"
)

// storeOp labels a browse store call so its completion can route back
// to the overlay that started it.
type storeOp int

const (
	opFetch storeOp = iota
	opSearch
	opSort
	opPerPage
	opPage
	opCollection
	opQuantityDelta
	opQuantitySet
	opEdit
	opDelete
)

func statusFor(op storeOp) string {
	switch op {
	case opSearch:
		return "filter applied"
	case opSort:
		return "sort changed"
	case opPerPage:
		return "page size changed"
	case opCollection:
		return "collection switched"
	case opQuantityDelta, opQuantitySet:
		return "quantity saved"
	case opEdit:
		return "card updated"
	case opDelete:
		return "card deleted"
	}
	return ""
}

// storeCmd runs one store call off the update loop. The message
// carries the generation observed after the call so the handler can
// tell a committed change from a silent no-op.
func (m Model) storeCmd(op storeOp, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		err := fn(m.ctx)
		return storeOpMsg{op: op, err: err, gen: m.store.Snapshot().Generation}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	return m.storeCmd(opFetch, m.store.Refresh)
}

func (m Model) loadCollectionsCmd() tea.Cmd {
	return func() tea.Msg {
		collections, err := m.service.ListCollections(m.ctx)
		return collectionsLoadedMsg{collections: collections, err: err}
	}
}

func (m Model) loadPacksCmd() tea.Cmd {
	return func() tea.Msg {
		packs, err := m.service.ListPacks(m.ctx)
		return packsLoadedMsg{packs: packs, err: err}
	}
}

func (m Model) createCollectionCmd(col gacha.Collection) tea.Cmd {
	return func() tea.Msg {
		created, err := m.service.CreateCollection(m.ctx, col)
		return collectionCreatedMsg{collection: created, err: err}
	}
}

func (m Model) uploadCmd(req client.UploadCardRequest, imagePath string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(imagePath)
		if err != nil {
			return uploadDoneMsg{err: fmt.Errorf("failed to open image: %w", err)}
		}
		defer f.Close()
		req.Image = f
		req.ImageName = filepath.Base(imagePath)
		card, err := m.service.UploadCard(m.ctx, req)
		return uploadDoneMsg{card: card, err: err}
	}
}

// waitForAuth blocks on the gate channel. The auth handler re-arms it
// after every message so the subscription keeps flowing.
func (m Model) waitForAuth() tea.Cmd {
	return func() tea.Msg {
		return authStateMsg{state: <-m.authCh}
	}
}

// Notifier adapts a running program into a dispatcher observer, so
// store commits made outside the update loop still repaint the
// screen. Register it after the program is constructed.
func Notifier(p *tea.Program) *events.FuncObserver {
	return &events.FuncObserver{
		ObserverName: "tui-notifier",
		Types:        []string{events.TypeBrowseChanged},
		Fn: func(events.Event) error {
			p.Send(StoreChangedMsg{})
			return nil
		},
	}
}

// Messages produced by the command layer.
type (
	authStateMsg struct{ state auth.State }

	// StoreChangedMsg asks the model to re-read the browse store.
	StoreChangedMsg struct{}

	storeOpMsg struct {
		op  storeOp
		err error
		gen uint64
	}

	collectionsLoadedMsg struct {
		collections []gacha.Collection
		err         error
	}

	packsLoadedMsg struct {
		packs []gacha.Pack
		err   error
	}

	uploadDoneMsg struct {
		card *gacha.Card
		err  error
	}

	collectionCreatedMsg struct {
		collection *gacha.Collection
		err        error
	}
)
