package flows

import (
	"context"
	"errors"
	"testing"

	"authgate/internal/apiclient"
	"authgate/internal/models"
	"authgate/internal/session"
	"authgate/internal/tokenstore"
)

type fakeAPI struct {
	loginCalls    int
	registerCalls int

	loginResp    models.LoginResponse
	loginErr     error
	registerResp models.RegisterResponse
	registerErr  error

	onLogin func()
}

func (f *fakeAPI) Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	f.loginCalls++
	if f.onLogin != nil {
		f.onLogin()
	}
	return f.loginResp, f.loginErr
}

func (f *fakeAPI) Register(ctx context.Context, req models.RegisterRequest) (models.RegisterResponse, error) {
	f.registerCalls++
	return f.registerResp, f.registerErr
}

type recorder struct {
	successes []string
	errors    []string
}

func (r *recorder) Success(msg string) { r.successes = append(r.successes, msg) }
func (r *recorder) Error(msg string)   { r.errors = append(r.errors, msg) }

func newLoginFixture(api *fakeAPI) (*LoginFlow, *session.Machine, *tokenstore.MemStore, *recorder) {
	machine := session.New()
	machine.Start(false, false)
	tokens := tokenstore.NewMemStore()
	rec := &recorder{}
	return NewLoginFlow(api, tokens, machine, rec), machine, tokens, rec
}

func TestValidateLogin(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		password  string
		wantField string
	}{
		{"valid", "a@b.com", "secret", ""},
		{"empty email", "", "secret", "email"},
		{"malformed email", "not-an-email", "secret", "email"},
		{"empty password", "a@b.com", "", "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLogin(tt.email, tt.password)
			checkFieldError(t, err, tt.wantField)
		})
	}
}

func TestValidateRegister(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		username  string
		password  string
		confirm   string
		wantField string
	}{
		{"valid", "a@b.com", "ana", "abcdef", "abcdef", ""},
		{"empty email", "", "ana", "abcdef", "abcdef", "email"},
		{"invalid email", "a@b@c", "ana", "abcdef", "abcdef", "email"},
		{"short username", "a@b.com", "ab", "abcdef", "abcdef", "username"},
		{"short password", "a@b.com", "ana", "abcde", "abcde", "password"},
		{"mismatched confirm", "a@b.com", "ana", "abcdef", "abcdxx", "confirmPassword"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegister(tt.email, tt.username, tt.password, tt.confirm)
			checkFieldError(t, err, tt.wantField)
		})
	}
}

func checkFieldError(t *testing.T, err error, wantField string) {
	t.Helper()
	if wantField == "" {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return
	}
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v; want FieldError", err)
	}
	if fe.Field != wantField {
		t.Fatalf("field = %q; want %q", fe.Field, wantField)
	}
}

func TestLoginValidationFailureNeverDispatches(t *testing.T) {
	api := &fakeAPI{}
	flow, machine, tokens, _ := newLoginFixture(api)

	err := flow.Submit(context.Background(), "a@b.com", "")
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "password" {
		t.Fatalf("err = %v; want password FieldError", err)
	}
	if api.loginCalls != 0 {
		t.Fatalf("login calls = %d; want 0", api.loginCalls)
	}
	if _, ok := tokens.Get(); ok {
		t.Fatal("no token should be persisted")
	}
	if machine.View() != session.LoggingIn {
		t.Fatalf("view = %s; want logging-in", machine.View())
	}
}

func TestLoginSubmitSingleCallAndGating(t *testing.T) {
	api := &fakeAPI{loginResp: models.LoginResponse{AccessToken: "tok-1"}}
	flow, _, _, _ := newLoginFixture(api)

	var duringCall bool
	var reentrant error
	api.onLogin = func() {
		duringCall = flow.InFlight()
		reentrant = flow.Submit(context.Background(), "a@b.com", "secret")
	}

	if err := flow.Submit(context.Background(), "a@b.com", "secret"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if api.loginCalls != 1 {
		t.Fatalf("login calls = %d; want 1", api.loginCalls)
	}
	if !duringCall {
		t.Fatal("in-flight flag must be set while the call is outstanding")
	}
	if !errors.Is(reentrant, ErrInFlight) {
		t.Fatalf("re-entrant Submit = %v; want ErrInFlight", reentrant)
	}
	if flow.InFlight() {
		t.Fatal("in-flight flag must be released after the call settles")
	}
}

func TestLoginSuccess(t *testing.T) {
	api := &fakeAPI{loginResp: models.LoginResponse{
		AccessToken: "tok-1",
		User:        models.User{Username: "ana"},
	}}
	flow, machine, tokens, rec := newLoginFixture(api)

	if err := flow.Submit(context.Background(), "a@b.com", "secret"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if token, ok := tokens.Get(); !ok || token != "tok-1" {
		t.Fatalf("token = %q, %t; want tok-1, true", token, ok)
	}
	if machine.View() != session.Authenticated {
		t.Fatalf("view = %s; want authenticated", machine.View())
	}
	if len(rec.successes) != 1 {
		t.Fatalf("success notifications = %d; want 1", len(rec.successes))
	}
}

func TestLoginFailureSurfacesDetailAndReleasesFlag(t *testing.T) {
	api := &fakeAPI{loginErr: &apiclient.APIError{Status: 401, Detail: "Invalid credentials"}}
	flow, machine, tokens, rec := newLoginFixture(api)

	err := flow.Submit(context.Background(), "a@b.com", "wrongpass")
	if err == nil {
		t.Fatal("expected error")
	}
	if flow.InFlight() {
		t.Fatal("in-flight flag stuck after failure")
	}
	if flow.ErrMsg() != "Invalid credentials" {
		t.Fatalf("inline error = %q; want server detail", flow.ErrMsg())
	}
	if len(rec.errors) != 1 || rec.errors[0] != "Invalid credentials" {
		t.Fatalf("error notifications = %v; want the server detail", rec.errors)
	}
	if _, ok := tokens.Get(); ok {
		t.Fatal("no token should be persisted on failure")
	}
	if machine.View() != session.LoggingIn {
		t.Fatalf("view = %s; want logging-in (no transition on failure)", machine.View())
	}
}

func TestLoginFailureGenericFallback(t *testing.T) {
	api := &fakeAPI{loginErr: errors.New("dial tcp: connection refused")}
	flow, _, _, rec := newLoginFixture(api)

	_ = flow.Submit(context.Background(), "a@b.com", "secret")
	if len(rec.errors) != 1 || rec.errors[0] != genericLoginError {
		t.Fatalf("error notifications = %v; want generic fallback", rec.errors)
	}
}

func newRegisterFixture(api *fakeAPI) (*RegisterFlow, *session.Machine, *tokenstore.MemStore, *recorder) {
	machine := session.New()
	machine.Start(false, false)
	machine.ShowRegister()
	tokens := tokenstore.NewMemStore()
	rec := &recorder{}
	return NewRegisterFlow(api, tokens, machine, rec), machine, tokens, rec
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Email:           "a@b.com",
		Username:        "ana",
		Password:        "abcdef",
		ConfirmPassword: "abcdef",
	}
}

func TestRegisterMismatchNeverDispatches(t *testing.T) {
	api := &fakeAPI{}
	flow, _, _, _ := newRegisterFixture(api)

	in := validRegisterInput()
	in.ConfirmPassword = "abcdxx"
	_, err := flow.Submit(context.Background(), in)
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "confirmPassword" {
		t.Fatalf("err = %v; want confirmPassword FieldError", err)
	}
	if api.registerCalls != 0 {
		t.Fatalf("register calls = %d; want 0", api.registerCalls)
	}
}

func TestRegisterConfirmationRequired(t *testing.T) {
	tests := []struct {
		name string
		resp models.RegisterResponse
	}{
		{
			"empty token",
			models.RegisterResponse{AccessToken: "", Message: "User registered successfully"},
		},
		{
			"confirmation-worded message",
			models.RegisterResponse{AccessToken: "tok-1", Message: "Please confirm your email to activate your account"},
		},
		{
			"upstream spanish wording",
			models.RegisterResponse{AccessToken: "tok-1", Message: "Debes confirmar tu correo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{registerResp: tt.resp}
			flow, machine, tokens, rec := newRegisterFixture(api)

			outcome, err := flow.Submit(context.Background(), validRegisterInput())
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if outcome != RegisterPendingConfirmation {
				t.Fatalf("outcome = %v; want pending confirmation", outcome)
			}
			if _, ok := tokens.Get(); ok {
				t.Fatal("no token may be persisted on the confirmation path")
			}
			if machine.View() != session.LoggingIn {
				t.Fatalf("view = %s; want logging-in", machine.View())
			}
			if len(rec.successes) != 1 || rec.successes[0] != tt.resp.Message {
				t.Fatalf("notifications = %v; want the server message", rec.successes)
			}
		})
	}
}

func TestRegisterImmediateAuthentication(t *testing.T) {
	api := &fakeAPI{registerResp: models.RegisterResponse{
		AccessToken: "tok-9",
		Message:     "User registered successfully",
	}}
	flow, machine, tokens, _ := newRegisterFixture(api)

	outcome, err := flow.Submit(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if outcome != RegisterAuthenticated {
		t.Fatalf("outcome = %v; want authenticated", outcome)
	}
	if token, ok := tokens.Get(); !ok || token != "tok-9" {
		t.Fatalf("token = %q, %t; want tok-9, true", token, ok)
	}
	if machine.View() != session.Authenticated {
		t.Fatalf("view = %s; want authenticated", machine.View())
	}
}

func TestRegisterFailureKeepsState(t *testing.T) {
	api := &fakeAPI{registerErr: &apiclient.APIError{Status: 400, Detail: "Email already registered"}}
	flow, machine, tokens, rec := newRegisterFixture(api)

	_, err := flow.Submit(context.Background(), validRegisterInput())
	if err == nil {
		t.Fatal("expected error")
	}
	if flow.InFlight() {
		t.Fatal("in-flight flag stuck after failure")
	}
	if machine.View() != session.Registering {
		t.Fatalf("view = %s; want registering", machine.View())
	}
	if _, ok := tokens.Get(); ok {
		t.Fatal("no token should be persisted on failure")
	}
	if len(rec.errors) != 1 || rec.errors[0] != "Email already registered" {
		t.Fatalf("error notifications = %v", rec.errors)
	}
}
