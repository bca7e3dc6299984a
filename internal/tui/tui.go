// Package tui is the interactive terminal shell. It owns the browse
// store, follows the auth gate, and maps keys to store and service
// calls. Every blocking call runs inside a tea.Cmd so the update loop
// never stalls; completion messages carry the store generation and
// trigger a re-snapshot.
package tui

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gashapon-labs/cardstock/internal/auth"
	"github.com/gashapon-labs/cardstock/internal/browse"
	"github.com/gashapon-labs/cardstock/internal/events"
	"github.com/gashapon-labs/cardstock/internal/gacha"
	"github.com/gashapon-labs/cardstock/internal/gacha/client"
	"github.com/gashapon-labs/cardstock/internal/view"
)

// Service is the slice of the storage client the shell calls
// directly. Card listings and edits go through the browse store
// instead, so they stay out of this interface.
type Service interface {
	ListCollections(ctx context.Context) ([]gacha.Collection, error)
	CreateCollection(ctx context.Context, collection gacha.Collection) (*gacha.Collection, error)
	UploadCard(ctx context.Context, req client.UploadCardRequest) (*gacha.Card, error)
	ListPacks(ctx context.Context) ([]gacha.Pack, error)
}

// mode selects which overlay owns the keyboard.
type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeQuantity
	modeEdit
	modeConfirmDelete
	modeCollections
	modeNewCollection
	modeUpload
	modePacks
)

const defaultWidth = 100

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	bannerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	panelTitle   = lipgloss.NewStyle().Bold(true)
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

// Params configures the browse program.
type Params struct {
	Store      *browse.Store
	Service    Service
	Gate       auth.Gate
	Dispatcher *events.Dispatcher
	Logger     *slog.Logger

	// SessionHint is shown on the login screen so the operator
	// knows where a session token is expected.
	SessionHint string

	// Context cancels in-flight service calls when the program
	// shuts down.
	Context context.Context
}

// Model is the bubbletea model for the whole shell.
type Model struct {
	store      *browse.Store
	service    Service
	gate       auth.Gate
	dispatcher *events.Dispatcher
	logger     *slog.Logger
	ctx        context.Context

	route       auth.Route
	authState   auth.State
	authCh      chan auth.State
	unsubscribe func()
	sessionHint string

	snap    browse.Snapshot
	tree    *view.Node
	painter *view.Painter
	cursor  int
	fetched bool

	mode mode
	busy bool

	spinner     spinner.Model
	searchInput textinput.Model
	qtyInput    textinput.Model
	qtyCardID   string
	promptErr   string

	editForm       *editForm
	uploadForm     *uploadForm
	collectionForm *collectionForm

	collections     []gacha.Collection
	collectionIndex int

	packs      []gacha.Pack
	packIndex  int
	packDetail bool

	confirmID   string
	confirmName string

	width  int
	height int

	banner string
	status string
}

// New wires the model and subscribes to the gate. The subscription
// pushes into a buffered channel that waitForAuth drains, so gate
// callbacks never touch model state directly.
func New(params Params) Model {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx := params.Context
	if ctx == nil {
		ctx = context.Background()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "card name prefix"
	search.CharLimit = 64

	qty := textinput.New()
	qty.Prompt = "= "
	qty.Placeholder = "new quantity"
	qty.CharLimit = 9

	m := Model{
		store:       params.Store,
		service:     params.Service,
		gate:        params.Gate,
		dispatcher:  params.Dispatcher,
		logger:      logger,
		ctx:         ctx,
		route:       auth.RouteSplash,
		sessionHint: params.SessionHint,
		painter:     view.NewPainter(defaultWidth),
		spinner:     sp,
		searchInput: search,
		qtyInput:    qty,
		authCh:      make(chan auth.State, 8),
	}
	m.snap = params.Store.Snapshot()
	m.tree = view.Build(m.snap)

	ch := m.authCh
	m.unsubscribe = params.Gate.Subscribe(func(state auth.State) {
		ch <- state
	})
	return m
}

// Close cancels the gate subscription. Call it after the program
// exits.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.WindowSize(), m.waitForAuth())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.painter.SetWidth(msg.Width)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case authStateMsg:
		return m.handleAuthState(msg)

	case StoreChangedMsg:
		(&m).refreshTree()
		return m, nil

	case storeOpMsg:
		return m.handleStoreOp(msg)

	case collectionsLoadedMsg:
		m.busy = false
		if msg.err != nil {
			m.banner = view.ErrorText(msg.err)
			return m, nil
		}
		m.collections = msg.collections
		m.collectionIndex = m.activeCollectionIndex()
		m.mode = modeCollections
		return m, nil

	case packsLoadedMsg:
		m.busy = false
		if msg.err != nil {
			m.banner = view.ErrorText(msg.err)
			return m, nil
		}
		m.packs = msg.packs
		m.packIndex = 0
		m.packDetail = false
		m.mode = modePacks
		return m, nil

	case uploadDoneMsg:
		return m.handleUploadDone(msg)

	case collectionCreatedMsg:
		return m.handleCollectionCreated(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleAuthState(msg authStateMsg) (tea.Model, tea.Cmd) {
	prev := m.route
	m.authState = msg.state
	m.route = auth.NextRoute(m.route, msg.state)
	m.logger.Debug("session state changed",
		"state", msg.state.String(),
		"route", m.route.String())
	if m.dispatcher != nil {
		m.dispatcher.DispatchAsync(events.NewTypedEvent(events.TypeAuthChanged, events.AuthChangedEvent{
			State: msg.state.String(),
		}, m.ctx))
	}

	cmds := []tea.Cmd{m.waitForAuth()}
	if m.route == auth.RouteBrowse && prev != auth.RouteBrowse && !m.fetched {
		m.fetched = true
		m.busy = true
		cmds = append(cmds, m.refreshCmd())
	}
	if m.route != auth.RouteBrowse {
		// Losing the session drops any open overlay.
		m.mode = modeBrowse
		m.editForm, m.uploadForm, m.collectionForm = nil, nil, nil
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleStoreOp(msg storeOpMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	prevGen := m.snap.Generation
	(&m).refreshTree()

	if msg.err != nil {
		text := view.ErrorText(msg.err)
		switch {
		case msg.op == opEdit && m.editForm != nil:
			m.editForm.err = text
		case msg.op == opQuantitySet && m.mode == modeQuantity:
			m.promptErr = text
		case m.snap.Phase == browse.PhaseError:
			// The grid already carries the fetch error banner.
			m.banner = ""
		default:
			m.banner = text
		}
		return m, nil
	}

	m.banner = ""
	switch msg.op {
	case opEdit:
		m.editForm = nil
		m.mode = modeBrowse
	case opQuantitySet:
		m.promptErr = ""
		m.mode = modeBrowse
	}
	if msg.gen != prevGen {
		if s := statusFor(msg.op); s != "" {
			m.status = s
		}
	}
	return m, nil
}

func (m Model) handleUploadDone(msg uploadDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		m.logger.Warn("card upload failed", "error", msg.err)
		if m.uploadForm != nil {
			m.uploadForm.err = view.ErrorText(msg.err)
		} else {
			m.banner = view.ErrorText(msg.err)
		}
		return m, nil
	}

	m.uploadForm = nil
	m.mode = modeBrowse
	m.status = "uploaded " + msg.card.CardName
	if m.dispatcher != nil {
		m.dispatcher.DispatchAsync(events.NewTypedEvent(events.TypeCardUploaded, events.CardUploadedEvent{
			Collection: m.snap.Collection,
			CardID:     msg.card.ID,
			CardName:   msg.card.CardName,
			Quantity:   msg.card.Quantity,
		}, m.ctx))
	}
	m.busy = true
	return m, m.refreshCmd()
}

func (m Model) handleCollectionCreated(msg collectionCreatedMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		m.logger.Warn("collection create failed", "error", msg.err)
		if m.collectionForm != nil {
			m.collectionForm.err = view.ErrorText(msg.err)
		} else {
			m.banner = view.ErrorText(msg.err)
		}
		return m, nil
	}

	m.collectionForm = nil
	m.mode = modeBrowse
	m.status = "collection " + msg.collection.Name + " created"
	if m.dispatcher != nil {
		m.dispatcher.DispatchAsync(events.NewTypedEvent(events.TypeCollectionCreated, events.CollectionCreatedEvent{
			Name: msg.collection.Name,
		}, m.ctx))
	}
	return m, nil
}

// refreshTree re-reads the store and rebuilds the render tree.
func (m *Model) refreshTree() {
	m.snap = m.store.Snapshot()
	m.tree = view.Build(m.snap)
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if len(m.snap.Cards) == 0 {
		m.cursor = 0
		return
	}
	if m.cursor >= len(m.snap.Cards) {
		m.cursor = len(m.snap.Cards) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// moveCursor shifts the highlight by delta tiles. Row moves clamp to
// the last card so "down" from a full row still lands somewhere.
func (m *Model) moveCursor(delta int) {
	if len(m.snap.Cards) == 0 {
		return
	}
	next := m.cursor + delta
	if next < 0 {
		return
	}
	if next >= len(m.snap.Cards) {
		if delta > 1 && m.cursor < len(m.snap.Cards)-1 {
			next = len(m.snap.Cards) - 1
		} else {
			return
		}
	}
	m.cursor = next
}

func (m Model) selectedCard() (gacha.Card, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Cards) {
		return gacha.Card{}, false
	}
	return m.snap.Cards[m.cursor], true
}

// activeCollectionIndex maps the current collection to a picker row,
// where row 0 is the default collection.
func (m Model) activeCollectionIndex() int {
	for i, col := range m.collections {
		if col.Name == m.snap.Collection {
			return i + 1
		}
	}
	return 0
}
