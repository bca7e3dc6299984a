package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/golang-jwt/jwt/v5"
)

// sessionFile is written by the sign-in flow. Only the token matters
// to the gate; the operator name is carried for log lines.
type sessionFile struct {
	Token    string `json:"token"`
	Operator string `json:"operator,omitempty"`
}

// SessionGate resolves the operator session from a token file and
// watches it for changes, so signing in or out in another terminal is
// picked up immediately. The token's signature is the server's
// business; the gate only reads the expiry claim to avoid presenting
// screens that every request would bounce off anyway.
type SessionGate struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	state  State
	subs   map[int]func(State)
	nextID int
	expiry *time.Timer

	watcher   *fsnotify.Watcher
	done      chan struct{}
	closeOnce sync.Once
}

// NewSessionGate starts watching the session file at path. The parent
// directory is created if needed; a missing file means signed out.
func NewSessionGate(path string, logger *slog.Logger) (*SessionGate, error) {
	if logger == nil {
		logger = slog.Default()
	}
	path = filepath.Clean(path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}

	// Watch the directory, not the file: the file may not exist yet
	// and removal on sign-out would drop a file watch.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating session watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	g := &SessionGate{
		path:    path,
		logger:  logger,
		state:   StateUnknown,
		subs:    make(map[int]func(State)),
		watcher: watcher,
		done:    make(chan struct{}),
	}
	g.refresh()
	go g.loop()
	return g, nil
}

// Subscribe registers fn and calls it once with the current state.
func (g *SessionGate) Subscribe(fn func(State)) func() {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.subs[id] = fn
	state := g.state
	g.mu.Unlock()

	fn(state)
	return func() {
		g.mu.Lock()
		delete(g.subs, id)
		g.mu.Unlock()
	}
}

// Close stops the watcher and the expiry timer.
func (g *SessionGate) Close() error {
	var err error
	g.closeOnce.Do(func() {
		close(g.done)
		err = g.watcher.Close()
		g.mu.Lock()
		if g.expiry != nil {
			g.expiry.Stop()
			g.expiry = nil
		}
		g.mu.Unlock()
	})
	return err
}

func (g *SessionGate) loop() {
	for {
		select {
		case <-g.done:
			return
		case event, ok := <-g.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != g.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				g.refresh()
			}
		case err, ok := <-g.watcher.Errors:
			if !ok {
				return
			}
			g.logger.Warn("session watcher error", "error", err)
		}
	}
}

// refresh re-reads the session file, reschedules the expiry timer and
// notifies subscribers when the state changed.
func (g *SessionGate) refresh() {
	state, expiresAt := g.readSession()

	g.mu.Lock()
	if g.expiry != nil {
		g.expiry.Stop()
		g.expiry = nil
	}
	if state == StateSignedIn && !expiresAt.IsZero() {
		// Flip to signed out the moment the token lapses, without
		// waiting for a file event that may never come.
		g.expiry = time.AfterFunc(time.Until(expiresAt), g.refresh)
	}

	changed := state != g.state
	g.state = state
	var fns []func(State)
	if changed {
		fns = make([]func(State), 0, len(g.subs))
		for _, fn := range g.subs {
			fns = append(fns, fn)
		}
	}
	g.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

// readSession resolves the current state from disk. The second return
// is the token expiry, zero when the token has none.
func (g *SessionGate) readSession() (State, time.Time) {
	raw, err := os.ReadFile(g.path)
	if errors.Is(err, fs.ErrNotExist) {
		return StateSignedOut, time.Time{}
	}
	if err != nil {
		g.logger.Warn("reading session file", "path", g.path, "error", err)
		return StateSignedOut, time.Time{}
	}

	var sf sessionFile
	if err := json.Unmarshal(raw, &sf); err != nil {
		g.logger.Warn("session file is not valid JSON", "path", g.path, "error", err)
		return StateSignedOut, time.Time{}
	}
	if sf.Token == "" {
		return StateSignedOut, time.Time{}
	}

	expiresAt, err := tokenExpiry(sf.Token)
	if err != nil {
		g.logger.Warn("session token unreadable", "operator", sf.Operator, "error", err)
		return StateSignedOut, time.Time{}
	}
	if !expiresAt.IsZero() && !expiresAt.After(time.Now()) {
		g.logger.Info("session token expired", "operator", sf.Operator, "expired_at", expiresAt)
		return StateSignedOut, time.Time{}
	}
	return StateSignedIn, expiresAt
}

// tokenExpiry reads the exp claim without verifying the signature.
func tokenExpiry(token string) (time.Time, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing token: %w", err)
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("reading expiry claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}
