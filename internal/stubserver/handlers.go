package stubserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"authgate/internal/models"
)

const confirmationMessage = "Registration successful. Please confirm your email to activate your account"

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Password) == "" || strings.TrimSpace(req.Username) == "" {
		sendError(w, http.StatusBadRequest, "Email, username and password required")
		return
	}

	user, err := s.createUser(req.Email, req.Username, req.Password, !s.cfg.RequireConfirmation)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			sendError(w, http.StatusBadRequest, "Email already registered")
			return
		}
		log.Printf("register: %v", err)
		sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if s.cfg.RequireConfirmation {
		token, err := s.createVerificationToken(user.ID)
		if err != nil {
			log.Printf("register: %v", err)
			sendError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		// Stand-in for the confirmation email.
		log.Printf("verification link for %s: /api/verify?token=%s", user.Email, token)

		sendJSON(w, http.StatusOK, models.RegisterResponse{
			AccessToken: "",
			TokenType:   "bearer",
			User:        user,
			Message:     confirmationMessage,
		})
		return
	}

	token, err := s.generateToken(user)
	if err != nil {
		log.Printf("register: %v", err)
		sendError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	sendJSON(w, http.StatusOK, models.RegisterResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
		Message:     "User registered successfully",
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	user, err := s.authenticate(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotVerified):
			sendError(w, http.StatusUnauthorized, "Please confirm your email before logging in")
		case errors.Is(err, ErrInvalidCredentials):
			sendError(w, http.StatusUnauthorized, "Invalid credentials")
		default:
			log.Printf("login: %v", err)
			sendError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	token, err := s.generateToken(user)
	if err != nil {
		log.Printf("login: %v", err)
		sendError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	sendJSON(w, http.StatusOK, models.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	})
}

func (s *Server) handleProtected(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		sendError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	sendJSON(w, http.StatusOK, models.ProtectedResponse{
		Message: fmt.Sprintf("Hello %s, you have accessed protected data", claims.Username),
		UserInfo: models.User{
			ID:       claims.UserID,
			Username: claims.Username,
			Email:    claims.Email,
			IsActive: true,
		},
	})
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.listUsers()
	if err != nil {
		log.Printf("users: %v", err)
		sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	sendJSON(w, http.StatusOK, models.UsersResponse{Users: users})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := s.countUsers()
	if err != nil {
		log.Printf("health: %v", err)
		sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"auth_mode":        "JWT",
		"users_registered": count,
	})
}

// handleVerify is the target of the emailed link: it activates the account
// and bounces the browser to the client landing with the message/status
// query parameters the landing contract requires.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	message := "Your email has been verified"
	status := "success"
	if err := s.consumeVerificationToken(token); err != nil {
		if errors.Is(err, ErrUnknownToken) {
			message = "Verification link is invalid or has expired"
		} else {
			log.Printf("verify: %v", err)
			message = "Verification failed"
		}
		status = "error"
	}

	if s.cfg.LandingURL == "" {
		sendJSON(w, http.StatusOK, map[string]string{"message": message, "status": status})
		return
	}

	q := url.Values{}
	q.Set("message", message)
	q.Set("status", status)
	http.Redirect(w, r, s.cfg.LandingURL+"?"+q.Encode(), http.StatusFound)
}

func sendJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func sendError(w http.ResponseWriter, status int, detail string) {
	sendJSON(w, status, models.ErrorResponse{Detail: detail})
}
