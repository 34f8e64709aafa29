package stubserver

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"authgate/internal/models"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("email not verified")
	ErrUnknownToken       = errors.New("unknown verification token")
)

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			username TEXT NOT NULL,
			password TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create users table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS verification_tokens (
			token TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)
	`)
	if err != nil {
		return fmt.Errorf("create verification_tokens table: %w", err)
	}
	return nil
}

// createUser stores a new account. active=false leaves the account waiting
// for email confirmation.
func (s *Server) createUser(email, username, password string, active bool) (models.User, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM users WHERE email = ?", email).Scan(&count); err != nil {
		return models.User{}, fmt.Errorf("check existing user: %w", err)
	}
	if count > 0 {
		return models.User{}, ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := models.User{
		ID:        uuid.New().String(),
		Username:  username,
		Email:     email,
		IsActive:  active,
		CreatedAt: time.Now().Format(time.RFC3339),
	}

	_, err = s.db.Exec(
		"INSERT INTO users (id, email, username, password, is_active, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		u.ID, u.Email, u.Username, string(hashed), boolToInt(u.IsActive), u.CreatedAt,
	)
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// authenticate checks credentials and returns the account. An unverified
// account fails with ErrNotVerified even when the password matches.
func (s *Server) authenticate(email, password string) (models.User, error) {
	var (
		u      models.User
		hashed string
		active int
	)
	err := s.db.QueryRow(
		"SELECT id, email, username, password, is_active, created_at FROM users WHERE email = ?", email,
	).Scan(&u.ID, &u.Email, &u.Username, &hashed, &active, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, fmt.Errorf("get user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}

	u.IsActive = active != 0
	if !u.IsActive {
		return models.User{}, ErrNotVerified
	}
	return u, nil
}

func (s *Server) listUsers() ([]models.User, error) {
	rows, err := s.db.Query("SELECT id, email, username, is_active, created_at FROM users ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var (
			u      models.User
			active int
		)
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &active, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.IsActive = active != 0
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Server) countUsers() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// createVerificationToken issues the one-shot token embedded in the emailed
// confirmation link.
func (s *Server) createVerificationToken(userID string) (string, error) {
	token := uuid.New().String()
	_, err := s.db.Exec(
		"INSERT INTO verification_tokens (token, user_id, created_at) VALUES (?, ?, ?)",
		token, userID, time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("insert verification token: %w", err)
	}
	return token, nil
}

// consumeVerificationToken activates the account behind the token and
// deletes the token so the link is single-use.
func (s *Server) consumeVerificationToken(token string) error {
	var userID string
	err := s.db.QueryRow("SELECT user_id FROM verification_tokens WHERE token = ?", token).Scan(&userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrUnknownToken
		}
		return fmt.Errorf("get verification token: %w", err)
	}

	if _, err := s.db.Exec("UPDATE users SET is_active = 1 WHERE id = ?", userID); err != nil {
		return fmt.Errorf("activate user: %w", err)
	}
	_, err = s.db.Exec("DELETE FROM verification_tokens WHERE token = ?", token)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
