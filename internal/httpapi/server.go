// Package httpapi exposes the daemon's REST and WebSocket API.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/charla-im/charla/internal/auth"
	"github.com/charla-im/charla/internal/backend"
	"github.com/charla-im/charla/internal/contacts"
)

// Server routes API requests to the auth, contact and conversation services.
type Server struct {
	auth     *auth.Service
	contacts *contacts.Service
	messages backend.MessageBackend
	profiles backend.ProfileBackend
	router   *chi.Mux
	validate *validator.Validate
	logger   *zap.Logger
}

// NewServer builds the API router. allowedOrigins is the CORS allowlist for
// browser clients.
func NewServer(authSvc *auth.Service, contactSvc *contacts.Service, messages backend.MessageBackend, profiles backend.ProfileBackend, allowedOrigins []string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		auth:     authSvc,
		contacts: contactSvc,
		messages: messages,
		profiles: profiles,
		router:   chi.NewRouter(),
		validate: validator.New(),
		logger:   logger,
	}

	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(s.logRequests)
	s.router.Use(chimw.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)

			r.Get("/users/{uid}", s.handleGetProfile)

			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", s.handleListContacts)
				r.Post("/", s.handleCreateContact)
				r.Get("/{id}", s.handleGetContact)
				r.Patch("/{id}", s.handleUpdateContact)
				r.Delete("/{id}", s.handleDeleteContact)
				r.Post("/{id}/favorite", s.handleToggleFavorite)
			})

			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", s.handleListConversations)
				r.Post("/{uid}/messages", s.handleSendMessage)
				r.Get("/{uid}/stream", s.handleStream)
			})
		})
	})

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
