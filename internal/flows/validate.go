package flows

import (
	"fmt"
	"net/mail"
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
)

// FieldError is a validation failure scoped to a single form field. These
// never reach the network.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateLogin checks login input before any request is dispatched.
func ValidateLogin(email, password string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return &FieldError{Field: "password", Message: "Password is required"}
	}
	return nil
}

// ValidateRegister checks register input before any request is dispatched.
// The confirm-password comparison is exact.
func ValidateRegister(email, username, password, confirmPassword string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if len(username) < minUsernameLen {
		return &FieldError{Field: "username", Message: fmt.Sprintf("Username must be at least %d characters", minUsernameLen)}
	}
	if len(password) < minPasswordLen {
		return &FieldError{Field: "password", Message: fmt.Sprintf("Password must be at least %d characters", minPasswordLen)}
	}
	if confirmPassword != password {
		return &FieldError{Field: "confirmPassword", Message: "Passwords must match"}
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return &FieldError{Field: "email", Message: "Email is required"}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &FieldError{Field: "email", Message: "Invalid email"}
	}
	return nil
}
