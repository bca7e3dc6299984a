// Package browse holds the view state for the card collection
// browser: the current filter/sort/page selection and the last page
// of cards fetched for it. All mutation goes through the Store's
// named methods; there is no package-level state.
package browse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gashapon-labs/cardstock/internal/events"
	"github.com/gashapon-labs/cardstock/internal/gacha"
	"github.com/gashapon-labs/cardstock/internal/gacha/client"
)

// CardService is the slice of the storage client the store needs.
// Tests substitute a fake.
type CardService interface {
	ListCards(ctx context.Context, params client.ListCardsParams) (*client.CardPage, error)
	AdjustQuantity(ctx context.Context, cardID string, delta int, collection string) (*gacha.Card, error)
	SetQuantity(ctx context.Context, cardID string, quantity int, collection string) (*gacha.Card, error)
	UpdateCard(ctx context.Context, cardID string, patch gacha.CardPatch, collection string) (*gacha.Card, error)
	DeleteCard(ctx context.Context, cardID string, collection string) error
}

// Phase is the state of the current fetch cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFetching
	PhaseError
)

// String returns the phase name for logs and events.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetching:
		return "fetching"
	case PhaseError:
		return "error"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Options seed the store's initial parameters, typically from config
// or command-line flags. Invalid values fall back to the defaults.
type Options struct {
	Collection string
	Search     string
	SortBy     gacha.SortField
	SortOrder  gacha.SortOrder
	Page       int
	PerPage    int

	// Dispatcher receives browse/card events when non-nil.
	Dispatcher *events.Dispatcher

	// Logger for fetch diagnostics. Nil falls back to slog.Default().
	Logger *slog.Logger
}

// Store is the single authoritative holder of browser view state.
// Every mutator validates its input, updates the parameters, and
// issues exactly one listing fetch; responses are committed only when
// no newer fetch has been issued in the meantime, so a slow stale
// response can never overwrite fresher cards.
type Store struct {
	svc        CardService
	dispatcher *events.Dispatcher
	logger     *slog.Logger

	mu         sync.Mutex
	collection string
	search     string
	sortBy     gacha.SortField
	sortOrder  gacha.SortOrder
	page       int
	perPage    int

	cards      []gacha.Card
	totalPages int
	totalItems int

	phase    Phase
	lastErr  error
	loaded   bool   // at least one successful fetch committed
	fetchSeq uint64 // token of the most recently issued fetch
	gen      uint64 // bumped on every committed change
}

// Snapshot is a copy of the store's state for rendering. Cards are
// copied; mutating a snapshot never affects the store.
type Snapshot struct {
	Collection string
	Search     string
	SortBy     gacha.SortField
	SortOrder  gacha.SortOrder
	Page       int
	PerPage    int

	Cards      []gacha.Card
	TotalPages int
	TotalItems int

	Phase      Phase
	Err        error
	Loaded     bool
	Generation uint64
}

// New creates a store seeded with opts.
func New(svc CardService, opts Options) *Store {
	sortBy := opts.SortBy
	if !sortBy.Valid() {
		sortBy = gacha.DefaultSortField
	}
	sortOrder := opts.SortOrder
	if !sortOrder.Valid() {
		sortOrder = gacha.DefaultSortOrder
	}
	page := opts.Page
	if page < 1 {
		page = 1
	}
	perPage := opts.PerPage
	if !gacha.ValidPerPage(perPage) {
		perPage = gacha.DefaultPerPage
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		svc:        svc,
		dispatcher: opts.Dispatcher,
		logger:     logger,
		collection: opts.Collection,
		search:     opts.Search,
		sortBy:     sortBy,
		sortOrder:  sortOrder,
		page:       page,
		perPage:    perPage,
		phase:      PhaseIdle,
	}
}

// Snapshot returns a copy of the current view state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	cards := make([]gacha.Card, len(s.cards))
	copy(cards, s.cards)

	return Snapshot{
		Collection: s.collection,
		Search:     s.search,
		SortBy:     s.sortBy,
		SortOrder:  s.sortOrder,
		Page:       s.page,
		PerPage:    s.perPage,
		Cards:      cards,
		TotalPages: s.totalPages,
		TotalItems: s.totalItems,
		Phase:      s.phase,
		Err:        s.lastErr,
		Loaded:     s.loaded,
		Generation: s.gen,
	}
}

// SetCollection selects a collection partition (empty means the
// default partition), resets to page 1 and refetches.
func (s *Store) SetCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	s.collection = name
	s.page = 1
	token, params := s.beginFetchLocked()
	s.mu.Unlock()

	return s.fetch(ctx, token, params)
}

// SetSearch applies a card-name search (prefix match on the server;
// empty clears the filter), resets to page 1 and refetches.
func (s *Store) SetSearch(ctx context.Context, query string) error {
	s.mu.Lock()
	s.search = strings.TrimSpace(query)
	s.page = 1
	token, params := s.beginFetchLocked()
	s.mu.Unlock()

	return s.fetch(ctx, token, params)
}

// SetSort changes the sort column and direction, resets to page 1 and
// refetches. Unknown fields or orders are rejected without a fetch.
func (s *Store) SetSort(ctx context.Context, field gacha.SortField, order gacha.SortOrder) error {
	if !field.Valid() {
		return &client.ValidationError{Field: "sort_by", Message: fmt.Sprintf("unknown sort field %q", field)}
	}
	if !order.Valid() {
		return &client.ValidationError{Field: "sort_order", Message: fmt.Sprintf("unknown sort order %q", order)}
	}

	s.mu.Lock()
	s.sortBy = field
	s.sortOrder = order
	s.page = 1
	token, params := s.beginFetchLocked()
	s.mu.Unlock()

	return s.fetch(ctx, token, params)
}

// SetPerPage changes the page size, resets to page 1 and refetches.
// Sizes outside the offered option set are rejected without a fetch.
func (s *Store) SetPerPage(ctx context.Context, n int) error {
	if !gacha.ValidPerPage(n) {
		return &client.ValidationError{Field: "per_page", Message: fmt.Sprintf("page size %d is not offered", n)}
	}

	s.mu.Lock()
	s.perPage = n
	s.page = 1
	token, params := s.beginFetchLocked()
	s.mu.Unlock()

	return s.fetch(ctx, token, params)
}

// GoToPage navigates to page n. Out-of-range targets, an empty result
// set and the current page are all silent no-ops with no fetch. No
// other parameter changes.
func (s *Store) GoToPage(ctx context.Context, n int) error {
	s.mu.Lock()
	if s.totalPages == 0 || n < 1 || n > s.totalPages || n == s.page {
		s.mu.Unlock()
		return nil
	}
	s.page = n
	token, params := s.beginFetchLocked()
	s.mu.Unlock()

	return s.fetch(ctx, token, params)
}

// NextPage and PrevPage are GoToPage conveniences for the pager keys.
func (s *Store) NextPage(ctx context.Context) error {
	s.mu.Lock()
	n := s.page + 1
	s.mu.Unlock()
	return s.GoToPage(ctx, n)
}

func (s *Store) PrevPage(ctx context.Context) error {
	s.mu.Lock()
	n := s.page - 1
	s.mu.Unlock()
	return s.GoToPage(ctx, n)
}

// Refresh re-issues the fetch for the current parameter tuple. Used
// for the initial load and after mutations that cannot be merged
// locally.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	token, params := s.beginFetchLocked()
	s.mu.Unlock()

	return s.fetch(ctx, token, params)
}

// beginFetchLocked starts a fetch cycle: clears the previous error,
// enters Fetching and takes a fresh sequence token. Caller holds mu.
func (s *Store) beginFetchLocked() (uint64, client.ListCardsParams) {
	s.phase = PhaseFetching
	s.lastErr = nil
	s.fetchSeq++
	return s.fetchSeq, client.ListCardsParams{
		Collection: s.collection,
		Search:     s.search,
		SortBy:     s.sortBy,
		SortOrder:  s.sortOrder,
		Page:       s.page,
		PerPage:    s.perPage,
	}
}

// fetch performs the listing call for one issued token and commits
// the outcome unless a newer fetch superseded it meanwhile.
func (s *Store) fetch(ctx context.Context, token uint64, params client.ListCardsParams) error {
	page, err := s.svc.ListCards(ctx, params)

	s.mu.Lock()
	if token != s.fetchSeq {
		// A newer fetch owns the display now; this response is stale
		// regardless of whether it succeeded.
		s.mu.Unlock()
		s.logger.Debug("discarding stale fetch response", "token", token, "current", s.fetchSeq)
		return nil
	}

	if err != nil {
		firstLoad := !s.loaded
		var decodeErr *client.DecodeError
		if errors.As(err, &decodeErr) {
			// The body was unusable; showing the previous cards would
			// claim a freshness the server never confirmed. Fall back
			// to the empty state.
			s.cards = []gacha.Card{}
			s.totalPages = 0
			s.totalItems = 0
		}
		s.phase = PhaseError
		s.lastErr = err
		s.gen++
		changed := s.browseEventLocked()
		collection := s.collection
		s.mu.Unlock()

		s.dispatch(events.NewTypedEvent(events.TypeFetchFailed, events.FetchFailedEvent{
			Collection: collection,
			Message:    err.Error(),
			FirstLoad:  firstLoad,
		}, ctx))
		s.dispatch(changed.withContext(ctx))
		return err
	}

	s.cards = page.Cards
	s.totalPages = page.Pagination.TotalPages
	s.totalItems = page.Pagination.TotalItems
	s.phase = PhaseIdle
	s.lastErr = nil
	s.loaded = true
	s.gen++
	changed := s.browseEventLocked()
	s.mu.Unlock()

	s.dispatch(changed.withContext(ctx))
	return nil
}

// pendingEvent pairs an event with a later context attach, so events
// are built under the lock but dispatched outside it.
type pendingEvent struct {
	event events.Event
}

func (p pendingEvent) withContext(ctx context.Context) events.Event {
	p.event.Context = ctx
	return p.event
}

func (s *Store) browseEventLocked() pendingEvent {
	return pendingEvent{event: events.NewTypedEvent(events.TypeBrowseChanged, events.BrowseChangedEvent{
		Collection: s.collection,
		Page:       s.page,
		TotalItems: s.totalItems,
		Phase:      s.phase.String(),
	}, nil)}
}

func (s *Store) dispatch(event events.Event) {
	if s.dispatcher != nil {
		s.dispatcher.Dispatch(event)
	}
}
