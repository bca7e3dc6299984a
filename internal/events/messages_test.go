package events

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestNewTypedEvent(t *testing.T) {
	ctx := context.Background()

	event := NewTypedEvent(TypeQuantityChanged, QuantityChangedEvent{
		CardID:      "c1",
		Delta:       -1,
		OldQuantity: 5,
		NewQuantity: 4,
	}, ctx)

	if event.Type != "card:quantity" {
		t.Errorf("Expected type 'card:quantity', got '%s'", event.Type)
	}

	typed, ok := GetTypedData[QuantityChangedEvent](event)
	if !ok {
		t.Fatal("Expected TypedData to be QuantityChangedEvent")
	}
	if typed.NewQuantity != 4 || typed.Delta != -1 {
		t.Errorf("Expected NewQuantity=4 Delta=-1, got %+v", typed)
	}
}

func TestGetTypedData_WrongType(t *testing.T) {
	event := NewTypedEvent(TypeAuthChanged, AuthChangedEvent{State: "signed_in"}, context.Background())

	if _, ok := GetTypedData[QuantityChangedEvent](event); ok {
		t.Error("Expected GetTypedData to fail for wrong type")
	}

	if _, ok := GetTypedData[AuthChangedEvent](Event{Type: "test"}); ok {
		t.Error("Expected GetTypedData to fail for nil TypedData")
	}
}

func TestDispatcher_DispatchFiltersAndOrders(t *testing.T) {
	d := NewDispatcher(nil)

	var order []string
	d.Register(&FuncObserver{
		ObserverName: "first",
		Types:        []string{TypeBrowseChanged},
		Fn: func(e Event) error {
			order = append(order, "first")
			return nil
		},
	})
	d.Register(&FuncObserver{
		ObserverName: "second",
		Fn: func(e Event) error {
			order = append(order, "second")
			return nil
		},
	})
	d.Register(&FuncObserver{
		ObserverName: "quantity-only",
		Types:        []string{TypeQuantityChanged},
		Fn: func(e Event) error {
			order = append(order, "quantity-only")
			return nil
		},
	})

	d.Dispatch(NewTypedEvent(TypeBrowseChanged, BrowseChangedEvent{Page: 1}, context.Background()))

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("unexpected delivery order: %v", order)
	}
}

func TestDispatcher_ObserverErrorDoesNotStopDelivery(t *testing.T) {
	d := NewDispatcher(nil)

	delivered := false
	d.Register(&FuncObserver{
		ObserverName: "failing",
		Fn:           func(Event) error { return errors.New("boom") },
	})
	d.Register(&FuncObserver{
		ObserverName: "after",
		Fn: func(Event) error {
			delivered = true
			return nil
		},
	})

	d.Dispatch(Event{Type: TypeFetchFailed})

	if !delivered {
		t.Error("delivery should continue past a failing observer")
	}
}

func TestDispatcher_Unregister(t *testing.T) {
	d := NewDispatcher(nil)

	obs := &FuncObserver{ObserverName: "temp", Fn: func(Event) error { return nil }}
	d.Register(obs)
	if d.ObserverCount() != 1 {
		t.Fatalf("ObserverCount = %d, want 1", d.ObserverCount())
	}

	d.Unregister(obs)
	if d.ObserverCount() != 0 {
		t.Errorf("ObserverCount = %d after unregister, want 0", d.ObserverCount())
	}
}

func TestDispatcher_DispatchAsync(t *testing.T) {
	d := NewDispatcher(nil)

	var wg sync.WaitGroup
	wg.Add(2)
	for _, name := range []string{"a", "b"} {
		d.Register(&FuncObserver{
			ObserverName: name,
			Fn: func(Event) error {
				wg.Done()
				return nil
			},
		})
	}

	d.DispatchAsync(Event{Type: TypeCardUploaded})
	wg.Wait() // hangs the test on a delivery bug
}
