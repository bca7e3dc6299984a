// Package auth decides whether the operator may use the protected
// screens. The rest of the application consumes only the Gate
// capability; how a session is established and checked is invisible
// to it, so deployments without sign-in swap in a StaticGate.
package auth

// State is the operator's session state. Unknown means the gate has
// not resolved yet; screens hold on the splash until it does.
type State int

const (
	StateUnknown State = iota
	StateSignedIn
	StateSignedOut
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateSignedIn:
		return "signed-in"
	case StateSignedOut:
		return "signed-out"
	}
	return "invalid"
}

// Gate delivers session state changes. fn is called once with the
// current state on subscription and again on every change. The
// returned cancel stops delivery.
type Gate interface {
	Subscribe(fn func(State)) (cancel func())
}

// Route names a top-level screen for gate decisions.
type Route int

const (
	RouteSplash Route = iota
	RouteLogin
	RouteBrowse
)

func (r Route) String() string {
	switch r {
	case RouteSplash:
		return "splash"
	case RouteLogin:
		return "login"
	case RouteBrowse:
		return "browse"
	}
	return "invalid"
}

// Protected reports whether a route requires a signed-in operator.
func (r Route) Protected() bool {
	return r == RouteBrowse
}

// NextRoute applies the redirect policy for a session state: a
// protected screen with no session falls back to login, the login
// screen with a session moves on to browse, and an unresolved state
// holds everything on the splash.
func NextRoute(current Route, state State) Route {
	switch state {
	case StateUnknown:
		return RouteSplash
	case StateSignedOut:
		if current.Protected() || current == RouteSplash {
			return RouteLogin
		}
		return current
	case StateSignedIn:
		if current == RouteLogin || current == RouteSplash {
			return RouteBrowse
		}
		return current
	}
	return current
}

// StaticGate reports one fixed state and never changes. Deployments
// that run without operator sign-in use it with StateSignedIn.
type StaticGate struct {
	state State
}

// NewStaticGate creates a gate pinned to the given state.
func NewStaticGate(state State) *StaticGate {
	return &StaticGate{state: state}
}

// Subscribe calls fn once with the pinned state.
func (g *StaticGate) Subscribe(fn func(State)) func() {
	fn(g.state)
	return func() {}
}
