// Package ui renders each session view on a terminal and feeds user input
// into the flows. Pure presentation: every decision about what to show lives
// in the session machine and the flows.
package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"authgate/internal/apiclient"
	"authgate/internal/flows"
	"authgate/internal/notify"
	"authgate/internal/session"
	"authgate/internal/tokenstore"
	"authgate/internal/verify"
)

// App wires the machine, flows and client together behind an input loop.
type App struct {
	machine  *session.Machine
	login    *flows.LoginFlow
	register *flows.RegisterFlow
	api      *apiclient.Client
	tokens   tokenstore.Store
	notifier notify.Notifier

	in  *bufio.Scanner
	out io.Writer

	// landing is set when the process was started with a verification URL.
	landing    verify.Landing
	hasLanding bool
}

func NewApp(
	machine *session.Machine,
	login *flows.LoginFlow,
	register *flows.RegisterFlow,
	api *apiclient.Client,
	tokens tokenstore.Store,
	notifier notify.Notifier,
	in io.Reader,
	out io.Writer,
) *App {
	return &App{
		machine:  machine,
		login:    login,
		register: register,
		api:      api,
		tokens:   tokens,
		notifier: notifier,
		in:       bufio.NewScanner(in),
		out:      out,
	}
}

// SetLanding records the verification landing decoded at startup.
func (a *App) SetLanding(l verify.Landing) {
	a.landing = l
	a.hasLanding = true
}

// Run loops over the current view until the user quits or input ends.
func (a *App) Run(ctx context.Context) error {
	for {
		var quit bool
		switch a.machine.View() {
		case session.EmailVerification:
			quit = a.renderLanding()
		case session.LoggingIn:
			quit = a.renderLogin(ctx)
		case session.Registering:
			quit = a.renderRegister(ctx)
		case session.Authenticated:
			quit = a.renderDashboard(ctx)
		default:
			return fmt.Errorf("unexpected view %s", a.machine.View())
		}
		if quit {
			return nil
		}
	}
}

func (a *App) renderLanding() bool {
	fmt.Fprintln(a.out)
	if !a.hasLanding || a.landing.Outcome == verify.Success {
		fmt.Fprintln(a.out, "=== Email verified ===")
		fmt.Fprintln(a.out, "Your account has been verified. You can now sign in.")
	} else {
		fmt.Fprintln(a.out, "=== Verification failed ===")
		fmt.Fprintln(a.out, "There was a problem verifying your email. The link may have expired.")
	}
	if a.hasLanding {
		fmt.Fprintf(a.out, "%s\n", a.landing.Message)
	}
	fmt.Fprint(a.out, "Press enter to go to the login view (q to quit): ")
	line, ok := a.readLine()
	if !ok || line == "q" {
		return true
	}
	a.machine.ShowLogin()
	return false
}

func (a *App) renderLogin(ctx context.Context) bool {
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "=== Sign in ===")
	fmt.Fprintln(a.out, "[1] sign in  [2] create account  [q] quit")
	choice, ok := a.readLine()
	if !ok || choice == "q" {
		return true
	}

	switch choice {
	case "1":
		email := a.prompt("Email: ")
		password := a.prompt("Password: ")
		// Submit handles validation, notifications and the transition; a
		// failure leaves the view unchanged and re-submittable.
		_ = a.login.Submit(ctx, email, password)
		if msg := a.login.ErrMsg(); msg != "" {
			fmt.Fprintf(a.out, "  %s\n", msg)
		}
	case "2":
		a.machine.ShowRegister()
	}
	return false
}

func (a *App) renderRegister(ctx context.Context) bool {
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "=== Create account ===")
	fmt.Fprintln(a.out, "[1] register  [2] back to sign in  [q] quit")
	choice, ok := a.readLine()
	if !ok || choice == "q" {
		return true
	}

	switch choice {
	case "1":
		in := flows.RegisterInput{
			Email:           a.prompt("Email: "),
			Username:        a.prompt("Username: "),
			Password:        a.prompt("Password (min 6 chars): "),
			ConfirmPassword: a.prompt("Confirm password: "),
		}
		// The input struct goes out of scope here either way, which is the
		// form reset the confirmation-required branch asks for.
		_, _ = a.register.Submit(ctx, in)
		if msg := a.register.ErrMsg(); msg != "" {
			fmt.Fprintf(a.out, "  %s\n", msg)
		}
	case "2":
		a.machine.ShowLogin()
	}
	return false
}

func (a *App) renderDashboard(ctx context.Context) bool {
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "=== Dashboard ===")
	fmt.Fprintln(a.out, "[1] profile  [2] users  [3] health  [4] log out  [q] quit")
	choice, ok := a.readLine()
	if !ok || choice == "q" {
		return true
	}

	switch choice {
	case "1":
		a.showProfile(ctx)
	case "2":
		a.showUsers(ctx)
	case "3":
		a.showHealth(ctx)
	case "4":
		// Client-side logout: clear the store synchronously, no round trip.
		_ = a.tokens.Clear()
		a.machine.LoggedOut()
		a.notifier.Success("Logged out")
	}
	return false
}

func (a *App) showProfile(ctx context.Context) {
	resp, err := a.api.Protected(ctx)
	if err != nil {
		a.notifier.Error(describe(err, "Unable to load profile"))
		return
	}
	fmt.Fprintf(a.out, "%s\n", resp.Message)
	fmt.Fprintf(a.out, "  id:       %s\n", resp.UserInfo.ID)
	fmt.Fprintf(a.out, "  username: %s\n", resp.UserInfo.Username)
	fmt.Fprintf(a.out, "  email:    %s\n", resp.UserInfo.Email)
	fmt.Fprintf(a.out, "  active:   %t\n", resp.UserInfo.IsActive)
}

func (a *App) showUsers(ctx context.Context) {
	resp, err := a.api.Users(ctx)
	if err != nil {
		a.notifier.Error(describe(err, "Unable to load users"))
		return
	}
	fmt.Fprintf(a.out, "%d user(s)\n", len(resp.Users))
	for _, u := range resp.Users {
		fmt.Fprintf(a.out, "  %s  %s  active=%t\n", u.Username, u.Email, u.IsActive)
	}
}

func (a *App) showHealth(ctx context.Context) {
	resp, err := a.api.Health(ctx)
	if err != nil {
		a.notifier.Error(describe(err, "API is unreachable"))
		return
	}
	fmt.Fprintf(a.out, "health: %v\n", resp)
}

func (a *App) prompt(label string) string {
	fmt.Fprint(a.out, label)
	line, _ := a.readLine()
	return line
}

func (a *App) readLine() (string, bool) {
	if !a.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(a.in.Text()), true
}

func describe(err error, fallback string) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}
