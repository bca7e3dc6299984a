package auth

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNextRoute(t *testing.T) {
	tests := []struct {
		name    string
		current Route
		state   State
		want    Route
	}{
		{"unknown holds splash", RouteBrowse, StateUnknown, RouteSplash},
		{"signed out leaves protected screen", RouteBrowse, StateSignedOut, RouteLogin},
		{"signed out stays on login", RouteLogin, StateSignedOut, RouteLogin},
		{"splash resolves to login", RouteSplash, StateSignedOut, RouteLogin},
		{"splash resolves to browse", RouteSplash, StateSignedIn, RouteBrowse},
		{"login advances when signed in", RouteLogin, StateSignedIn, RouteBrowse},
		{"browse stays when signed in", RouteBrowse, StateSignedIn, RouteBrowse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextRoute(tt.current, tt.state); got != tt.want {
				t.Errorf("NextRoute(%s, %s) = %s, want %s", tt.current, tt.state, got, tt.want)
			}
		})
	}
}

func TestStaticGate(t *testing.T) {
	var got []State
	cancel := NewStaticGate(StateSignedIn).Subscribe(func(s State) {
		got = append(got, s)
	})
	defer cancel()

	if len(got) != 1 || got[0] != StateSignedIn {
		t.Errorf("states = %v, want one signed-in", got)
	}
}

func mintToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "operator"}
	if !expiresAt.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return token
}

func writeSession(t *testing.T, path, token string) {
	t.Helper()
	body := fmt.Sprintf(`{"token":%q,"operator":"ops@example.com"}`, token)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing session file: %v", err)
	}
}

func newTestGate(t *testing.T, path string) *SessionGate {
	t.Helper()
	gate, err := NewSessionGate(path, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	if err != nil {
		t.Fatalf("NewSessionGate: %v", err)
	}
	t.Cleanup(func() { gate.Close() })
	return gate
}

// subscribeStates registers a subscriber that forwards every state to
// a channel.
func subscribeStates(t *testing.T, gate *SessionGate) <-chan State {
	t.Helper()
	ch := make(chan State, 8)
	cancel := gate.Subscribe(func(s State) { ch <- s })
	t.Cleanup(cancel)
	return ch
}

func waitForState(t *testing.T, ch <-chan State, want State) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-ch:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %s", want)
		}
	}
}

func TestSessionGate_MissingFileIsSignedOut(t *testing.T) {
	gate := newTestGate(t, filepath.Join(t.TempDir(), "session.json"))
	waitForState(t, subscribeStates(t, gate), StateSignedOut)
}

func TestSessionGate_ValidToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	writeSession(t, path, mintToken(t, time.Now().Add(time.Hour)))

	gate := newTestGate(t, path)
	waitForState(t, subscribeStates(t, gate), StateSignedIn)
}

func TestSessionGate_TokenWithoutExpiry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	writeSession(t, path, mintToken(t, time.Time{}))

	gate := newTestGate(t, path)
	waitForState(t, subscribeStates(t, gate), StateSignedIn)
}

func TestSessionGate_ExpiredToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	writeSession(t, path, mintToken(t, time.Now().Add(-time.Hour)))

	gate := newTestGate(t, path)
	waitForState(t, subscribeStates(t, gate), StateSignedOut)
}

func TestSessionGate_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	gate := newTestGate(t, path)
	waitForState(t, subscribeStates(t, gate), StateSignedOut)
}

func TestSessionGate_SignInAndOutTransitions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	gate := newTestGate(t, path)
	ch := subscribeStates(t, gate)
	waitForState(t, ch, StateSignedOut)

	writeSession(t, path, mintToken(t, time.Now().Add(time.Hour)))
	waitForState(t, ch, StateSignedIn)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitForState(t, ch, StateSignedOut)
}

func TestSessionGate_ExpiryFlipsWithoutFileEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	writeSession(t, path, mintToken(t, time.Now().Add(300*time.Millisecond)))

	gate := newTestGate(t, path)
	ch := subscribeStates(t, gate)
	waitForState(t, ch, StateSignedIn)
	waitForState(t, ch, StateSignedOut)
}

func TestSessionGate_CancelStopsDelivery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	gate := newTestGate(t, path)

	ch := make(chan State, 8)
	cancel := gate.Subscribe(func(s State) { ch <- s })
	<-ch // initial state
	cancel()

	writeSession(t, path, mintToken(t, time.Now().Add(time.Hour)))

	select {
	case s := <-ch:
		t.Errorf("cancelled subscriber still received %s", s)
	case <-time.After(500 * time.Millisecond):
	}
}
