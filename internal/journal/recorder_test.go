package journal

import (
	"context"
	"testing"
	"time"

	"github.com/gashapon-labs/cardstock/internal/events"
)

type memoryRepo struct {
	entries []*Entry
}

func (m *memoryRepo) Record(_ context.Context, entry *Entry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memoryRepo) Recent(context.Context, int) ([]*Entry, error)          { return m.entries, nil }
func (m *memoryRepo) ForCard(context.Context, string, int) ([]*Entry, error) { return nil, nil }
func (m *memoryRepo) Since(context.Context, time.Time) ([]*Entry, error)     { return nil, nil }
func (m *memoryRepo) CountByField(context.Context) (map[string]int, error)   { return nil, nil }
func (m *memoryRepo) PurgeOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func TestRecorder_ShouldHandle(t *testing.T) {
	r := NewRecorder(&memoryRepo{}, SourceTUI, nil)

	for _, accepted := range []string{
		events.TypeQuantityChanged,
		events.TypeCardEdited,
		events.TypeCardUploaded,
		events.TypeCardDeleted,
	} {
		if !r.ShouldHandle(accepted) {
			t.Errorf("recorder should handle %s", accepted)
		}
	}
	for _, ignored := range []string{events.TypeBrowseChanged, events.TypeAuthChanged, events.TypeFetchFailed} {
		if r.ShouldHandle(ignored) {
			t.Errorf("recorder should ignore %s", ignored)
		}
	}
}

func TestRecorder_QuantityChanged(t *testing.T) {
	repo := &memoryRepo{}
	r := NewRecorder(repo, SourceTUI, nil)

	err := r.OnEvent(events.NewTypedEvent(events.TypeQuantityChanged, events.QuantityChangedEvent{
		Collection:  "summer-2025",
		CardID:      "dragon-whelp",
		CardName:    "Dragon Whelp",
		Delta:       -1,
		OldQuantity: 5,
		NewQuantity: 4,
	}, context.Background()))
	if err != nil {
		t.Fatalf("OnEvent failed: %v", err)
	}

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	e := repo.entries[0]
	if e.Field != FieldQuantity || e.OldValue != "5" || e.NewValue != "4" || e.Delta != -1 {
		t.Errorf("entry = %+v", e)
	}
	if e.Source != SourceTUI {
		t.Errorf("source = %q", e.Source)
	}
}

func TestRecorder_CardEditedRecordsEachField(t *testing.T) {
	repo := &memoryRepo{}
	r := NewRecorder(repo, SourceTUI, nil)

	err := r.OnEvent(events.NewTypedEvent(events.TypeCardEdited, events.CardEditedEvent{
		Collection: "summer-2025",
		CardID:     "dragon-whelp",
		CardName:   "Dragon Whelp",
		Changes: []events.FieldChange{
			{Field: "point_worth", Old: "100", New: "150"},
			{Field: "quantity", Old: "2", New: "6"},
		},
	}, nil))
	if err != nil {
		t.Fatalf("OnEvent failed: %v", err)
	}

	if len(repo.entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(repo.entries))
	}
	if repo.entries[0].Field != "point_worth" || repo.entries[0].Delta != 0 {
		t.Errorf("entry[0] = %+v", repo.entries[0])
	}
	if repo.entries[1].Field != "quantity" || repo.entries[1].Delta != 4 {
		t.Errorf("entry[1] = %+v", repo.entries[1])
	}
}

func TestRecorder_UploadAndDelete(t *testing.T) {
	repo := &memoryRepo{}
	r := NewRecorder(repo, SourceBulkImport, nil)

	if err := r.OnEvent(events.NewTypedEvent(events.TypeCardUploaded, events.CardUploadedEvent{
		CardID:   "dragon-whelp",
		CardName: "Dragon Whelp",
		Quantity: 12,
	}, nil)); err != nil {
		t.Fatalf("upload event failed: %v", err)
	}
	if err := r.OnEvent(events.NewTypedEvent(events.TypeCardDeleted, events.CardDeletedEvent{
		CardID: "dragon-whelp",
	}, nil)); err != nil {
		t.Fatalf("delete event failed: %v", err)
	}

	if len(repo.entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(repo.entries))
	}
	if repo.entries[0].Field != FieldCreated || repo.entries[0].Delta != 12 {
		t.Errorf("created entry = %+v", repo.entries[0])
	}
	if repo.entries[1].Field != FieldDeleted || repo.entries[1].Source != SourceBulkImport {
		t.Errorf("deleted entry = %+v", repo.entries[1])
	}
}

func TestRecorder_WrongPayloadType(t *testing.T) {
	r := NewRecorder(&memoryRepo{}, SourceTUI, nil)

	err := r.OnEvent(events.Event{Type: events.TypeQuantityChanged, TypedData: "not a struct"})
	if err == nil {
		t.Error("expected error for mismatched payload")
	}
}

func TestRecorder_ViaDispatcher(t *testing.T) {
	repo := &memoryRepo{}
	d := events.NewDispatcher(nil)
	d.Register(NewRecorder(repo, SourceTUI, nil))

	d.Dispatch(events.NewTypedEvent(events.TypeQuantityChanged, events.QuantityChangedEvent{
		CardID:      "c1",
		OldQuantity: 1,
		NewQuantity: 2,
	}, context.Background()))
	d.Dispatch(events.NewTypedEvent(events.TypeBrowseChanged, events.BrowseChangedEvent{}, nil))

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1 (browse events must be filtered)", len(repo.entries))
	}
}
