// Package session decides which top-level view the client shows. The
// machine runs for the lifetime of the process; only a full restart puts it
// back in Loading.
package session

// View is the client-side decision of which screen to render.
type View int

const (
	Loading View = iota
	EmailVerification
	Authenticated
	Registering
	LoggingIn
)

func (v View) String() string {
	switch v {
	case Loading:
		return "loading"
	case EmailVerification:
		return "email-verification"
	case Authenticated:
		return "authenticated"
	case Registering:
		return "registering"
	case LoggingIn:
		return "logging-in"
	}
	return "unknown"
}

// Machine derives the current view from three signals: the one-shot startup
// check, the presence of a stored token at that check, and the local
// register/login toggle. Invalid transitions are ignored rather than acted
// on, so a stale event cannot knock the UI into a wrong state.
type Machine struct {
	view    View
	started bool
}

func New() *Machine {
	return &Machine{view: Loading}
}

func (m *Machine) View() View {
	return m.view
}

// Start performs the single startup decision and leaves Loading for good.
// A verification landing takes precedence over everything else, including a
// stored token. Calling Start again is a no-op.
func (m *Machine) Start(hasToken, landing bool) View {
	if m.started {
		return m.view
	}
	m.started = true
	switch {
	case landing:
		m.view = EmailVerification
	case hasToken:
		m.view = Authenticated
	default:
		m.view = LoggingIn
	}
	return m.view
}

// ShowRegister is the local toggle from the login form to the register form.
func (m *Machine) ShowRegister() {
	if m.view == LoggingIn {
		m.view = Registering
	}
}

// ShowLogin toggles back to the login form. Also the exit path from the
// verification landing.
func (m *Machine) ShowLogin() {
	if m.view == Registering || m.view == EmailVerification {
		m.view = LoggingIn
	}
}

// LoggedIn enters Authenticated. Callers must have durably persisted the
// token before raising this.
func (m *Machine) LoggedIn() {
	if m.view == LoggingIn || m.view == Registering {
		m.view = Authenticated
	}
}

// RegisteredPending handles the register outcome where the account exists
// but needs email confirmation: back to the login form, no session.
func (m *Machine) RegisteredPending() {
	if m.view == Registering {
		m.view = LoggingIn
	}
}

// LoggedOut leaves Authenticated. Callers clear the token store first,
// synchronously; no server round trip is involved.
func (m *Machine) LoggedOut() {
	if m.view == Authenticated {
		m.view = LoggingIn
	}
}
