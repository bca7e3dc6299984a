package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gashapon-labs/cardstock/internal/auth"
	"github.com/gashapon-labs/cardstock/internal/browse"
	"github.com/gashapon-labs/cardstock/internal/gacha"
	"github.com/gashapon-labs/cardstock/internal/gacha/client"
)

// fakeBackend serves both the browse store and the shell's direct
// service calls from an in-memory card list.
type fakeBackend struct {
	mu          sync.Mutex
	cards       []gacha.Card
	collections []gacha.Collection
	packs       []gacha.Pack

	calls   []client.ListCardsParams
	patches []gacha.CardPatch
	uploads []client.UploadCardRequest
	created []gacha.Collection
	deleted []string

	listErr error
}

func (f *fakeBackend) ListCards(_ context.Context, params client.ListCardsParams) (*client.CardPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, params)
	if f.listErr != nil {
		return nil, f.listErr
	}

	var matched []gacha.Card
	for _, c := range f.cards {
		if params.Search == "" || strings.HasPrefix(strings.ToLower(c.CardName), strings.ToLower(params.Search)) {
			matched = append(matched, c)
		}
	}

	total := len(matched)
	totalPages := 0
	if total > 0 {
		totalPages = (total + params.PerPage - 1) / params.PerPage
	}
	start := (params.Page - 1) * params.PerPage
	if start > total {
		start = total
	}
	end := start + params.PerPage
	if end > total {
		end = total
	}
	items := make([]gacha.Card, end-start)
	copy(items, matched[start:end])

	return &client.CardPage{
		Cards: items,
		Pagination: client.Pagination{
			TotalItems:  total,
			TotalPages:  totalPages,
			CurrentPage: params.Page,
			PerPage:     params.PerPage,
		},
	}, nil
}

func (f *fakeBackend) AdjustQuantity(_ context.Context, cardID string, delta int, _ string) (*gacha.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.cards {
		if f.cards[i].ID == cardID {
			f.cards[i].Quantity += delta
			card := f.cards[i]
			return &card, nil
		}
	}
	return nil, fmt.Errorf("card %s not found", cardID)
}

func (f *fakeBackend) SetQuantity(_ context.Context, cardID string, quantity int, _ string) (*gacha.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.cards {
		if f.cards[i].ID == cardID {
			f.cards[i].Quantity = quantity
			card := f.cards[i]
			return &card, nil
		}
	}
	return nil, fmt.Errorf("card %s not found", cardID)
}

func (f *fakeBackend) UpdateCard(_ context.Context, cardID string, patch gacha.CardPatch, _ string) (*gacha.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches = append(f.patches, patch)
	for i := range f.cards {
		if f.cards[i].ID != cardID {
			continue
		}
		if patch.CardName != nil {
			f.cards[i].CardName = *patch.CardName
		}
		if patch.Rarity != nil {
			f.cards[i].Rarity = *patch.Rarity
		}
		if patch.PointWorth != nil {
			f.cards[i].PointWorth = *patch.PointWorth
		}
		if patch.Quantity != nil {
			f.cards[i].Quantity = *patch.Quantity
		}
		if patch.DateGotInStock != nil {
			f.cards[i].DateGotInStock = *patch.DateGotInStock
		}
		card := f.cards[i]
		return &card, nil
	}
	return nil, fmt.Errorf("card %s not found", cardID)
}

func (f *fakeBackend) DeleteCard(_ context.Context, cardID string, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, cardID)
	for i := range f.cards {
		if f.cards[i].ID == cardID {
			f.cards = append(f.cards[:i], f.cards[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("card %s not found", cardID)
}

func (f *fakeBackend) ListCollections(context.Context) ([]gacha.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gacha.Collection(nil), f.collections...), nil
}

func (f *fakeBackend) CreateCollection(_ context.Context, col gacha.Collection) (*gacha.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, col)
	f.collections = append(f.collections, col)
	return &col, nil
}

func (f *fakeBackend) UploadCard(_ context.Context, req client.UploadCardRequest) (*gacha.Card, error) {
	if req.Image != nil {
		if _, err := io.ReadAll(req.Image); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, req)
	card := gacha.Card{
		ID:             "up-" + req.CardName,
		CardName:       req.CardName,
		Rarity:         req.Rarity,
		PointWorth:     req.PointWorth,
		Quantity:       req.Quantity,
		DateGotInStock: req.DateGotInStock,
	}
	f.cards = append(f.cards, card)
	return &card, nil
}

func (f *fakeBackend) ListPacks(context.Context) ([]gacha.Pack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gacha.Pack(nil), f.packs...), nil
}

func (f *fakeBackend) lastParams(t *testing.T) client.ListCardsParams {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("no ListCards calls recorded")
	}
	return f.calls[len(f.calls)-1]
}

func seedCards(n int) []gacha.Card {
	cards := make([]gacha.Card, 0, n)
	for i := 0; i < n; i++ {
		cards = append(cards, gacha.Card{
			ID:             fmt.Sprintf("c%02d", i),
			CardName:       fmt.Sprintf("card-%02d", i),
			Rarity:         "rare",
			PointWorth:     100,
			Quantity:       2,
			DateGotInStock: "2026-01-15",
		})
	}
	return cards
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestModel builds a signed-in model over a freshly fetched store.
func newTestModel(t *testing.T, svc *fakeBackend) Model {
	t.Helper()
	store := browse.New(svc, browse.Options{Logger: testLogger()})
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	m := New(Params{
		Store:   store,
		Service: svc,
		Gate:    auth.NewStaticGate(auth.StateSignedIn),
		Logger:  testLogger(),
	})
	m.route = auth.RouteBrowse
	m.fetched = true
	(&m).refreshTree()
	return m
}

// drive feeds one message through Update and then runs any returned
// command inline, feeding its result back in. Store calls resolve
// synchronously against the fake, so the full round trip happens in
// one call.
func drive(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	return runCmd(t, next.(Model), cmd)
}

func runCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	msg := cmd()
	if msg == nil {
		return m
	}
	switch typed := msg.(type) {
	case tea.QuitMsg:
		return m
	case tea.BatchMsg:
		for _, c := range typed {
			m = runCmd(t, m, c)
		}
		return m
	}
	return drive(t, m, msg)
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, key := range keys {
		var msg tea.Msg
		switch key {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
		}
		m = drive(t, m, msg)
	}
	return m
}

func TestQuitKey(t *testing.T) {
	m := newTestModel(t, &fakeBackend{cards: seedCards(3)})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("Expected a command from q, got nil")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("Expected q to quit")
	}
}

func TestCursorMovement(t *testing.T) {
	m := newTestModel(t, &fakeBackend{cards: seedCards(6)})
	// Default width fits three tiles per row.
	if cols := m.painter.Columns(); cols != 3 {
		t.Fatalf("Expected 3 columns, got %d", cols)
	}

	m = press(t, m, "l")
	if m.cursor != 1 {
		t.Fatalf("Expected cursor 1 after l, got %d", m.cursor)
	}
	m = press(t, m, "j")
	if m.cursor != 4 {
		t.Fatalf("Expected cursor 4 after j, got %d", m.cursor)
	}
	m = press(t, m, "h")
	if m.cursor != 3 {
		t.Fatalf("Expected cursor 3 after h, got %d", m.cursor)
	}
	m = press(t, m, "k")
	if m.cursor != 0 {
		t.Fatalf("Expected cursor 0 after k, got %d", m.cursor)
	}
	// Leading edge stays put.
	m = press(t, m, "h", "k")
	if m.cursor != 0 {
		t.Fatalf("Expected cursor pinned at 0, got %d", m.cursor)
	}
}

func TestWindowResizeReflowsGrid(t *testing.T) {
	m := newTestModel(t, &fakeBackend{cards: seedCards(6)})

	next, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 40})
	m = next.(Model)
	if cols := m.painter.Columns(); cols != 2 {
		t.Fatalf("Expected 2 columns at width 60, got %d", cols)
	}
}

func TestSearchFlow(t *testing.T) {
	svc := &fakeBackend{cards: append(seedCards(6), gacha.Card{
		ID: "z1", CardName: "zeta", Rarity: "epic", PointWorth: 300, Quantity: 1,
	})}
	m := newTestModel(t, svc)

	m = press(t, m, "/")
	if m.mode != modeSearch {
		t.Fatalf("Expected search mode, got %d", m.mode)
	}
	m = press(t, m, "zeta", "enter")

	if m.mode != modeBrowse {
		t.Fatalf("Expected browse mode after enter, got %d", m.mode)
	}
	if m.snap.Search != "zeta" {
		t.Fatalf("Expected search %q, got %q", "zeta", m.snap.Search)
	}
	if m.snap.TotalItems != 1 {
		t.Fatalf("Expected 1 match, got %d", m.snap.TotalItems)
	}
	if m.snap.Page != 1 {
		t.Fatalf("Expected search to reset to page 1, got %d", m.snap.Page)
	}
	if m.status != "filter applied" {
		t.Fatalf("Expected status %q, got %q", "filter applied", m.status)
	}
}

func TestSearchEscCancels(t *testing.T) {
	m := newTestModel(t, &fakeBackend{cards: seedCards(3)})

	m = press(t, m, "/", "zz", "esc")
	if m.mode != modeBrowse {
		t.Fatalf("Expected browse mode after esc, got %d", m.mode)
	}
	if m.snap.Search != "" {
		t.Fatalf("Expected search unchanged, got %q", m.snap.Search)
	}
}

func TestQuantityDeltaKeys(t *testing.T) {
	m := newTestModel(t, &fakeBackend{cards: seedCards(3)})

	m = press(t, m, "+")
	if got := m.snap.Cards[0].Quantity; got != 3 {
		t.Fatalf("Expected quantity 3 after +, got %d", got)
	}
	m = press(t, m, "-")
	if got := m.snap.Cards[0].Quantity; got != 2 {
		t.Fatalf("Expected quantity 2 after -, got %d", got)
	}
	if m.status != "quantity saved" {
		t.Fatalf("Expected status %q, got %q", "quantity saved", m.status)
	}
}

func TestQuantityPrompt(t *testing.T) {
	m := newTestModel(t, &fakeBackend{cards: seedCards(3)})

	m = press(t, m, "=")
	if m.mode != modeQuantity {
		t.Fatalf("Expected quantity mode, got %d", m.mode)
	}
	if m.qtyInput.Value() != "2" {
		t.Fatalf("Expected prompt seeded with current quantity, got %q", m.qtyInput.Value())
	}

	m = press(t, m, "0", "enter")
	if m.mode != modeBrowse {
		t.Fatalf("Expected browse mode after save, got %d", m.mode)
	}
	if got := m.snap.Cards[0].Quantity; got != 20 {
		t.Fatalf("Expected quantity 20, got %d", got)
	}
}

func TestQuantityPromptRejectsJunk(t *testing.T) {
	m := newTestModel(t, &fakeBackend{cards: seedCards(3)})

	m = press(t, m, "=")
	m.qtyInput.SetValue("lots")
	m = press(t, m, "enter")

	if m.mode != modeQuantity {
		t.Fatalf("Expected prompt to stay open, got mode %d", m.mode)
	}
	if m.promptErr == "" {
		t.Fatal("Expected a prompt error for junk input")
	}
	if got := m.snap.Cards[0].Quantity; got != 2 {
		t.Fatalf("Expected quantity untouched, got %d", got)
	}
}

func TestEditModalSendsChangedFieldsOnly(t *testing.T) {
	svc := &fakeBackend{cards: seedCards(3)}
	m := newTestModel(t, svc)

	m = press(t, m, "e")
	if m.mode != modeEdit {
		t.Fatalf("Expected edit mode, got %d", m.mode)
	}
	if got := m.editForm.value("card_name"); got != "card-00" {
		t.Fatalf("Expected card_name prefilled, got %q", got)
	}

	m.editForm.fields[2].input.SetValue("250") // point_worth
	m = press(t, m, "enter")

	if m.mode != modeBrowse || m.editForm != nil {
		t.Fatal("Expected modal closed after save")
	}
	if len(svc.patches) != 1 {
		t.Fatalf("Expected 1 patch, got %d", len(svc.patches))
	}
	patch := svc.patches[0]
	if patch.PointWorth == nil || *patch.PointWorth != 250 {
		t.Fatalf("Expected point_worth 250 in patch, got %+v", patch)
	}
	if patch.CardName != nil || patch.Rarity != nil || patch.Quantity != nil || patch.DateGotInStock != nil {
		t.Fatalf("Expected untouched fields omitted, got %+v", patch)
	}
	if got := m.snap.Cards[0].PointWorth; got != 250 {
		t.Fatalf("Expected snapshot updated to 250, got %d", got)
	}
	if m.status != "card updated" {
		t.Fatalf("Expected status %q, got %q", "card updated", m.status)
	}
}

func TestEditModalNoChangesClosesWithoutCall(t *testing.T) {
	svc := &fakeBackend{cards: seedCards(3)}
	m := newTestModel(t, svc)

	m = press(t, m, "e", "enter")
	if m.mode != modeBrowse || m.editForm != nil {
		t.Fatal("Expected modal closed")
	}
	if len(svc.patches) != 0 {
		t.Fatalf("Expected no update call, got %d", len(svc.patches))
	}
	if m.status != "no changes" {
		t.Fatalf("Expected status %q, got %q", "no changes", m.status)
	}
}

func TestEditModalRejectsBadNumber(t *testing.T) {
	m := newTestModel(t, &fakeBackend{cards: seedCards(3)})

	m = press(t, m, "e")
	m.editForm.fields[2].input.SetValue("many")
	m = press(t, m, "enter")

	if m.mode != modeEdit {
		t.Fatalf("Expected modal to stay open, got mode %d", m.mode)
	}
	if !strings.Contains(m.editForm.err, "whole number") {
		t.Fatalf("Expected a number error, got %q", m.editForm.err)
	}
}

func TestPageKeys(t *testing.T) {
	m := newTestModel(t, &fakeBackend{cards: seedCards(25)})

	m = press(t, m, "]")
	if m.snap.Page != 2 {
		t.Fatalf("Expected page 2, got %d", m.snap.Page)
	}
	m = press(t, m, "]", "]")
	if m.snap.Page != 3 {
		t.Fatalf("Expected page pinned at 3, got %d", m.snap.Page)
	}
	m = press(t, m, "[")
	if m.snap.Page != 2 {
		t.Fatalf("Expected page 2 after [, got %d", m.snap.Page)
	}
}

func TestPerPageKeys(t *testing.T) {
	m := newTestModel(t, &fakeBackend{cards: seedCards(30)})

	m = press(t, m, "}")
	if m.snap.PerPage != 25 {
		t.Fatalf("Expected per-page 25, got %d", m.snap.PerPage)
	}
	if m.snap.Page != 1 {
		t.Fatalf("Expected page reset to 1, got %d", m.snap.Page)
	}
	m = press(t, m, "{", "{")
	if m.snap.PerPage != 10 {
		t.Fatalf("Expected per-page pinned at 10, got %d", m.snap.PerPage)
	}
}

func TestSortCycling(t *testing.T) {
	m := newTestModel(t, &fakeBackend{cards: seedCards(3)})

	m = press(t, m, "s")
	if m.snap.SortBy != gacha.SortByCardName {
		t.Fatalf("Expected sort card_name, got %s", m.snap.SortBy)
	}
	if m.snap.SortOrder != gacha.SortDesc {
		t.Fatalf("Expected order preserved, got %s", m.snap.SortOrder)
	}

	m = press(t, m, "S")
	if m.snap.SortBy != gacha.SortByCardName {
		t.Fatalf("Expected field preserved, got %s", m.snap.SortBy)
	}
	if m.snap.SortOrder != gacha.SortAsc {
		t.Fatalf("Expected order flipped to asc, got %s", m.snap.SortOrder)
	}
}

func TestCollectionPicker(t *testing.T) {
	svc := &fakeBackend{
		cards: seedCards(3),
		collections: []gacha.Collection{
			{Name: "summer", FirestoreCollection: "summer", StoragePrefix: "summer"},
			{Name: "winter", FirestoreCollection: "winter", StoragePrefix: "winter"},
		},
	}
	m := newTestModel(t, svc)

	m = press(t, m, "c")
	if m.mode != modeCollections {
		t.Fatalf("Expected collections mode, got %d", m.mode)
	}
	if m.collectionIndex != 0 {
		t.Fatalf("Expected default row selected, got %d", m.collectionIndex)
	}

	m = press(t, m, "j", "enter")
	if m.mode != modeBrowse {
		t.Fatalf("Expected browse mode, got %d", m.mode)
	}
	if m.snap.Collection != "summer" {
		t.Fatalf("Expected collection summer, got %q", m.snap.Collection)
	}
	if got := svc.lastParams(t).Collection; got != "summer" {
		t.Fatalf("Expected fetch scoped to summer, got %q", got)
	}
}

func TestNewCollectionFormDefaultsBackingFields(t *testing.T) {
	svc := &fakeBackend{cards: seedCards(3)}
	m := newTestModel(t, svc)

	m = press(t, m, "n")
	if m.mode != modeNewCollection {
		t.Fatalf("Expected new-collection mode, got %d", m.mode)
	}
	m.collectionForm.fields[0].input.SetValue("holo")
	m = press(t, m, "enter")

	if m.mode != modeBrowse || m.collectionForm != nil {
		t.Fatal("Expected form closed after create")
	}
	if len(svc.created) != 1 {
		t.Fatalf("Expected 1 collection created, got %d", len(svc.created))
	}
	col := svc.created[0]
	if col.Name != "holo" || col.FirestoreCollection != "holo" || col.StoragePrefix != "holo" {
		t.Fatalf("Expected backing fields defaulted to the name, got %+v", col)
	}
}

func TestNewCollectionFormRequiresName(t *testing.T) {
	m := newTestModel(t, &fakeBackend{cards: seedCards(3)})

	m = press(t, m, "n", "enter")
	if m.mode != modeNewCollection {
		t.Fatalf("Expected form to stay open, got mode %d", m.mode)
	}
	if !strings.Contains(m.collectionForm.err, "required") {
		t.Fatalf("Expected a required error, got %q", m.collectionForm.err)
	}
}

func TestUploadFlow(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "neon.png")
	if err := os.WriteFile(imagePath, []byte("png-bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	svc := &fakeBackend{cards: seedCards(3)}
	m := newTestModel(t, svc)

	m = press(t, m, "u")
	if m.mode != modeUpload {
		t.Fatalf("Expected upload mode, got %d", m.mode)
	}
	m.uploadForm.fields[0].input.SetValue("Neon Dragon")
	m.uploadForm.fields[1].input.SetValue("epic")
	m.uploadForm.fields[2].input.SetValue("500")
	m.uploadForm.fields[5].input.SetValue(imagePath)
	m = press(t, m, "enter")

	if m.mode != modeBrowse || m.uploadForm != nil {
		t.Fatal("Expected form closed after upload")
	}
	if len(svc.uploads) != 1 {
		t.Fatalf("Expected 1 upload, got %d", len(svc.uploads))
	}
	req := svc.uploads[0]
	if req.CardName != "Neon Dragon" || req.Rarity != "epic" || req.PointWorth != 500 {
		t.Fatalf("Unexpected upload request: %+v", req)
	}
	if req.Quantity != 1 {
		t.Fatalf("Expected quantity defaulted to 1, got %d", req.Quantity)
	}
	if req.DateGotInStock == "" {
		t.Fatal("Expected stock date defaulted to today")
	}
	if req.ImageName != "neon.png" {
		t.Fatalf("Expected image name neon.png, got %q", req.ImageName)
	}
	if m.snap.TotalItems != 4 {
		t.Fatalf("Expected refreshed listing with 4 cards, got %d", m.snap.TotalItems)
	}
	if !strings.Contains(m.status, "Neon Dragon") {
		t.Fatalf("Expected upload status, got %q", m.status)
	}
}

func TestUploadFormValidatesBeforeSending(t *testing.T) {
	svc := &fakeBackend{cards: seedCards(3)}
	m := newTestModel(t, svc)

	m = press(t, m, "u", "enter")
	if m.mode != modeUpload {
		t.Fatalf("Expected form to stay open, got mode %d", m.mode)
	}
	if !strings.Contains(m.uploadForm.err, "card_name") {
		t.Fatalf("Expected card_name error, got %q", m.uploadForm.err)
	}
	if len(svc.uploads) != 0 {
		t.Fatalf("Expected no upload attempt, got %d", len(svc.uploads))
	}
}

func TestDeleteConfirm(t *testing.T) {
	svc := &fakeBackend{cards: seedCards(3)}
	m := newTestModel(t, svc)

	m = press(t, m, "x")
	if m.mode != modeConfirmDelete {
		t.Fatalf("Expected confirm mode, got %d", m.mode)
	}
	if m.confirmName != "card-00" {
		t.Fatalf("Expected card-00 targeted, got %q", m.confirmName)
	}

	m = press(t, m, "y")
	if m.mode != modeBrowse {
		t.Fatalf("Expected browse mode, got %d", m.mode)
	}
	if len(svc.deleted) != 1 || svc.deleted[0] != "c00" {
		t.Fatalf("Expected c00 deleted, got %v", svc.deleted)
	}
	if m.snap.TotalItems != 2 {
		t.Fatalf("Expected refreshed listing with 2 cards, got %d", m.snap.TotalItems)
	}
}

func TestDeleteDeclined(t *testing.T) {
	svc := &fakeBackend{cards: seedCards(3)}
	m := newTestModel(t, svc)

	m = press(t, m, "x", "n")
	if m.mode != modeBrowse {
		t.Fatalf("Expected browse mode, got %d", m.mode)
	}
	if len(svc.deleted) != 0 {
		t.Fatalf("Expected nothing deleted, got %v", svc.deleted)
	}
}

func TestPacksPane(t *testing.T) {
	svc := &fakeBackend{
		cards: seedCards(3),
		packs: []gacha.Pack{{
			ID:          "starter",
			Name:        "Starter Pack",
			Description: "Five cards to get going",
			RarityProbabilities: map[string]float64{
				"common": 0.7, "rare": 0.25, "legendary": 0.05,
			},
			CardsByRarity: map[string][]string{
				"common": {"c1", "c2"}, "legendary": {"l1"},
			},
		}},
	}
	m := newTestModel(t, svc)

	m = press(t, m, "p")
	if m.mode != modePacks {
		t.Fatalf("Expected packs mode, got %d", m.mode)
	}
	out := m.View()
	if !strings.Contains(out, "Starter Pack") {
		t.Fatalf("Expected pack name in view, got:\n%s", out)
	}

	m = press(t, m, "enter")
	out = m.View()
	if !strings.Contains(out, "common 70%") || !strings.Contains(out, "legendary 5%") {
		t.Fatalf("Expected pack odds in view, got:\n%s", out)
	}

	m = press(t, m, "esc")
	if m.mode != modeBrowse {
		t.Fatalf("Expected browse mode after esc, got %d", m.mode)
	}
}

func TestFetchErrorBannerAndRetry(t *testing.T) {
	svc := &fakeBackend{cards: seedCards(3)}
	m := newTestModel(t, svc)

	svc.mu.Lock()
	svc.listErr = errors.New("boom")
	svc.mu.Unlock()
	m = press(t, m, "r")

	if m.snap.Phase != browse.PhaseError {
		t.Fatalf("Expected error phase, got %v", m.snap.Phase)
	}
	if !strings.Contains(m.View(), "press r to retry") {
		t.Fatal("Expected retry hint in view")
	}

	svc.mu.Lock()
	svc.listErr = nil
	svc.mu.Unlock()
	m = press(t, m, "r")

	if m.snap.Phase != browse.PhaseIdle {
		t.Fatalf("Expected recovery after retry, got %v", m.snap.Phase)
	}
}

func TestStoreChangedMsgResnapshots(t *testing.T) {
	svc := &fakeBackend{cards: seedCards(3)}
	m := newTestModel(t, svc)

	if err := m.store.SetSearch(context.Background(), "card-01"); err != nil {
		t.Fatalf("SetSearch failed: %v", err)
	}
	m = drive(t, m, StoreChangedMsg{})

	if m.snap.Search != "card-01" {
		t.Fatalf("Expected re-snapshot to pick up search, got %q", m.snap.Search)
	}
	if m.snap.TotalItems != 1 {
		t.Fatalf("Expected 1 card after external change, got %d", m.snap.TotalItems)
	}
}

func TestSignedOutShowsLogin(t *testing.T) {
	svc := &fakeBackend{cards: seedCards(3)}
	store := browse.New(svc, browse.Options{Logger: testLogger()})
	m := New(Params{
		Store:       store,
		Service:     svc,
		Gate:        auth.NewStaticGate(auth.StateSignedOut),
		SessionHint: "/tmp/cardstock/session.json",
		Logger:      testLogger(),
	})

	msg := m.waitForAuth()()
	next, _ := m.Update(msg)
	m = next.(Model)

	if m.route != auth.RouteLogin {
		t.Fatalf("Expected login route, got %s", m.route)
	}
	out := m.View()
	if !strings.Contains(out, "Sign-in required") {
		t.Fatalf("Expected login screen, got:\n%s", out)
	}
	if !strings.Contains(out, "/tmp/cardstock/session.json") {
		t.Fatal("Expected session hint on login screen")
	}
}

func TestSignedInStartsInitialFetch(t *testing.T) {
	svc := &fakeBackend{cards: seedCards(3)}
	store := browse.New(svc, browse.Options{Logger: testLogger()})
	m := New(Params{
		Store:   store,
		Service: svc,
		Gate:    auth.NewStaticGate(auth.StateSignedIn),
		Logger:  testLogger(),
	})

	msg := m.waitForAuth()()
	next, cmd := m.Update(msg)
	m = next.(Model)

	if m.route != auth.RouteBrowse {
		t.Fatalf("Expected browse route, got %s", m.route)
	}
	if !m.busy {
		t.Fatal("Expected initial fetch to be in flight")
	}
	if cmd == nil {
		t.Fatal("Expected a command batch from sign-in")
	}
}
