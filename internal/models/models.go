package models

// User is the server-sourced account record. It is read-only on this side:
// the client renders it and re-fetches instead of caching across runs.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at,omitempty"`
}

// LoginRequest is the POST /login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the POST /register payload. The confirm-password field
// collected by the form is never part of this struct.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// LoginResponse is returned by a successful POST /login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// RegisterResponse is returned by a successful POST /register. An empty
// AccessToken or a confirmation-worded Message means the account still needs
// email confirmation and no session was opened.
type RegisterResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
	Message     string `json:"message"`
}

// ProtectedResponse is returned by GET /protected.
type ProtectedResponse struct {
	Message  string `json:"message"`
	UserInfo User   `json:"user_info"`
}

// UsersResponse is returned by GET /users.
type UsersResponse struct {
	Users []User `json:"users"`
}

// ErrorResponse is the body shape the server uses on non-success statuses.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
