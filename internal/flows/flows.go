// Package flows drives the login and register submissions: client-side
// validation, the single-in-flight gate, the API round trip, and the state
// transition that follows.
package flows

import (
	"context"
	"errors"
	"strings"

	"authgate/internal/apiclient"
	"authgate/internal/models"
	"authgate/internal/notify"
	"authgate/internal/session"
	"authgate/internal/tokenstore"
)

// confirmationKeyword disambiguates the two register success shapes when the
// token field alone does not. Lowercase substring match; it also covers the
// upstream Spanish wording ("confirmar").
const confirmationKeyword = "confirm"

const (
	genericLoginError    = "Unable to log in"
	genericRegisterError = "Unable to register user"
)

// ErrInFlight is returned when a submission is attempted while the previous
// one has not settled. The UI disables the control, this is the backstop.
var ErrInFlight = errors.New("submission already in flight")

// API is the slice of the gateway client the flows need.
type API interface {
	Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (models.RegisterResponse, error)
}

// RegisterInput is the transient register form data. ConfirmPassword exists
// only for validation and is never transmitted.
type RegisterInput struct {
	Email           string
	Username        string
	Password        string
	ConfirmPassword string
}

// RegisterOutcome reports which success path a register submission took.
type RegisterOutcome int

const (
	// RegisterAuthenticated means a token was persisted and the session is open.
	RegisterAuthenticated RegisterOutcome = iota
	// RegisterPendingConfirmation means the account needs email confirmation
	// first; no token was persisted and the flow returned to the login view.
	RegisterPendingConfirmation
)

// LoginFlow submits credentials and opens the session on success.
type LoginFlow struct {
	api      API
	tokens   tokenstore.Store
	machine  *session.Machine
	notifier notify.Notifier

	inFlight bool
	errMsg   string
}

func NewLoginFlow(api API, tokens tokenstore.Store, machine *session.Machine, notifier notify.Notifier) *LoginFlow {
	return &LoginFlow{api: api, tokens: tokens, machine: machine, notifier: notifier}
}

// InFlight reports whether a submission is outstanding; the UI disables the
// submit control while true.
func (f *LoginFlow) InFlight() bool { return f.inFlight }

// ErrMsg is the inline error from the last failed submission, empty after a
// success or a fresh submit.
func (f *LoginFlow) ErrMsg() string { return f.errMsg }

// Submit validates, dispatches /login, and on success persists the token and
// transitions to Authenticated. The in-flight flag is released on every exit
// path, panics included.
func (f *LoginFlow) Submit(ctx context.Context, email, password string) error {
	if f.inFlight {
		return ErrInFlight
	}
	if err := ValidateLogin(email, password); err != nil {
		f.errMsg = err.(*FieldError).Message
		return err
	}

	f.inFlight = true
	f.errMsg = ""
	defer func() { f.inFlight = false }()

	resp, err := f.api.Login(ctx, models.LoginRequest{Email: email, Password: password})
	if err != nil {
		f.fail(err, genericLoginError)
		return err
	}

	if err := f.tokens.Set(resp.AccessToken); err != nil {
		f.fail(err, genericLoginError)
		return err
	}
	f.notifier.Success("Welcome! Logged in successfully")
	f.machine.LoggedIn()
	return nil
}

func (f *LoginFlow) fail(err error, fallback string) {
	msg := failureMessage(err, fallback)
	f.errMsg = msg
	f.notifier.Error(msg)
}

// RegisterFlow submits the register form and resolves which of the two
// success shapes came back.
type RegisterFlow struct {
	api      API
	tokens   tokenstore.Store
	machine  *session.Machine
	notifier notify.Notifier

	inFlight bool
	errMsg   string
}

func NewRegisterFlow(api API, tokens tokenstore.Store, machine *session.Machine, notifier notify.Notifier) *RegisterFlow {
	return &RegisterFlow{api: api, tokens: tokens, machine: machine, notifier: notifier}
}

func (f *RegisterFlow) InFlight() bool { return f.inFlight }

func (f *RegisterFlow) ErrMsg() string { return f.errMsg }

// Submit validates, dispatches /register, and branches on the response
// shape: confirmation-required resets to the login view with no token;
// immediate authentication persists the token and opens the session.
func (f *RegisterFlow) Submit(ctx context.Context, in RegisterInput) (RegisterOutcome, error) {
	if f.inFlight {
		return 0, ErrInFlight
	}
	if err := ValidateRegister(in.Email, in.Username, in.Password, in.ConfirmPassword); err != nil {
		f.errMsg = err.(*FieldError).Message
		return 0, err
	}

	f.inFlight = true
	f.errMsg = ""
	defer func() { f.inFlight = false }()

	resp, err := f.api.Register(ctx, models.RegisterRequest{
		Email:    in.Email,
		Password: in.Password,
		Username: in.Username,
	})
	if err != nil {
		f.fail(err, genericRegisterError)
		return 0, err
	}

	if requiresConfirmation(resp) {
		f.notifier.Success(resp.Message)
		f.machine.RegisteredPending()
		return RegisterPendingConfirmation, nil
	}

	if err := f.tokens.Set(resp.AccessToken); err != nil {
		f.fail(err, genericRegisterError)
		return 0, err
	}
	f.notifier.Success("Account created successfully")
	f.machine.LoggedIn()
	return RegisterAuthenticated, nil
}

func (f *RegisterFlow) fail(err error, fallback string) {
	msg := failureMessage(err, fallback)
	f.errMsg = msg
	f.notifier.Error(msg)
}

// requiresConfirmation is the disambiguation rule between the two register
// success shapes: an empty token, or a message carrying the confirmation
// keyword.
func requiresConfirmation(resp models.RegisterResponse) bool {
	if resp.AccessToken == "" {
		return true
	}
	return strings.Contains(strings.ToLower(resp.Message), confirmationKeyword)
}

// failureMessage prefers the server's detail text and falls back to a
// generic message for transport errors and unparseable responses.
func failureMessage(err error, fallback string) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}
