package session

import "testing"

func TestStartDecision(t *testing.T) {
	tests := []struct {
		name     string
		hasToken bool
		landing  bool
		want     View
	}{
		{"no token, no landing", false, false, LoggingIn},
		{"stored token", true, false, Authenticated},
		{"landing without token", false, true, EmailVerification},
		{"landing wins over token", true, true, EmailVerification},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			if m.View() != Loading {
				t.Fatalf("initial view = %s; want loading", m.View())
			}
			if got := m.Start(tt.hasToken, tt.landing); got != tt.want {
				t.Fatalf("Start = %s; want %s", got, tt.want)
			}
		})
	}
}

func TestStartRunsOnce(t *testing.T) {
	m := New()
	m.Start(false, false)
	// A second startup check must not re-enter Loading or change the result.
	if got := m.Start(true, true); got != LoggingIn {
		t.Fatalf("second Start = %s; want logging-in", got)
	}
}

func TestRegisterToggles(t *testing.T) {
	m := New()
	m.Start(false, false)

	m.ShowRegister()
	if m.View() != Registering {
		t.Fatalf("view = %s; want registering", m.View())
	}
	m.ShowLogin()
	if m.View() != LoggingIn {
		t.Fatalf("view = %s; want logging-in", m.View())
	}
}

func TestLoginTransition(t *testing.T) {
	m := New()
	m.Start(false, false)
	m.LoggedIn()
	if m.View() != Authenticated {
		t.Fatalf("view = %s; want authenticated", m.View())
	}
}

func TestRegisterBothSuccessPaths(t *testing.T) {
	t.Run("immediate authentication", func(t *testing.T) {
		m := New()
		m.Start(false, false)
		m.ShowRegister()
		m.LoggedIn()
		if m.View() != Authenticated {
			t.Fatalf("view = %s; want authenticated", m.View())
		}
	})

	t.Run("confirmation required", func(t *testing.T) {
		m := New()
		m.Start(false, false)
		m.ShowRegister()
		m.RegisteredPending()
		if m.View() != LoggingIn {
			t.Fatalf("view = %s; want logging-in", m.View())
		}
	})
}

func TestLogout(t *testing.T) {
	m := New()
	m.Start(true, false)
	m.LoggedOut()
	if m.View() != LoggingIn {
		t.Fatalf("view = %s; want logging-in", m.View())
	}
}

func TestInvalidTransitionsAreIgnored(t *testing.T) {
	m := New()
	m.Start(false, true) // EmailVerification

	m.ShowRegister()
	m.LoggedOut()
	m.RegisteredPending()
	if m.View() != EmailVerification {
		t.Fatalf("view = %s; want email-verification", m.View())
	}

	// The only way off the landing is the explicit login navigation.
	m.ShowLogin()
	if m.View() != LoggingIn {
		t.Fatalf("view = %s; want logging-in", m.View())
	}
}
