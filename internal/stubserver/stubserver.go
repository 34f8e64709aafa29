// Package stubserver is a local implementation of the remote authentication
// API, covering the same wire contract the production service exposes. It
// backs the integration tests and the devserver binary; it is not the
// production server.
package stubserver

import (
	"database/sql"
	"net/http"
	"os"

	_ "github.com/glebarez/go-sqlite"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Config controls the stub's behavior.
type Config struct {
	// DBPath is the sqlite database location; ":memory:" for tests.
	DBPath string
	// JWTSecret signs the issued bearer tokens. Empty falls back to the
	// JWT_SECRET env var, then a fixed dev secret.
	JWTSecret string
	// TokenTTLMinutes bounds token lifetime. Zero means 30 minutes.
	TokenTTLMinutes int
	// RequireConfirmation makes /register create the account inactive and
	// answer with the confirmation-required response shape.
	RequireConfirmation bool
	// LandingURL is the client landing the verification endpoint redirects
	// to, e.g. http://127.0.0.1:4173/verify-email.
	LandingURL string
}

// Server owns the database and the router.
type Server struct {
	cfg    Config
	db     *sql.DB
	router http.Handler
}

func New(cfg Config) (*Server, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = ":memory:"
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = getEnvOrDefault("JWT_SECRET", "dev-jwt-secret-do-not-ship")
	}
	if cfg.TokenTTLMinutes == 0 {
		cfg.TokenTTLMinutes = defaultTokenExpirationMinutes
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Server{cfg: cfg, db: db}
	s.router = s.setupRouter()
	return s, nil
}

// Handler returns the HTTP surface; mount it or hand it to httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Close() error {
	return s.db.Close()
}

func (s *Server) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		// Public routes.
		r.Group(func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Get("/health", s.handleHealth)
			r.Get("/verify", s.handleVerify)
		})

		// Bearer-gated routes.
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/protected", s.handleProtected)
			r.Get("/users", s.handleUsers)
		})
	})

	return r
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
