package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/charla-im/charla/internal/auth"
	"github.com/charla-im/charla/internal/backend"
	"github.com/charla-im/charla/internal/chat"
	"github.com/charla-im/charla/internal/contacts"
	"github.com/charla-im/charla/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", zap.Error(err))
	}
}

// writeError maps service errors to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, backend.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, backend.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, backend.ErrInvalidDocument), errors.Is(err, chat.ErrEmptyMessage):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
		s.writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	return true
}

type registerRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type credentialsResponse struct {
	Token string          `json:"token"`
	User  backend.Profile `json:"user"`
}

func credentialsPayload(c *auth.Credentials) credentialsResponse {
	return credentialsResponse{
		Token: c.Token,
		User: backend.Profile{
			UID:         c.Session.UserID,
			Email:       c.Session.Email,
			DisplayName: c.Session.DisplayName,
		},
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decode(w, r, &req) {
		return
	}
	creds, err := s.auth.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, credentialsPayload(creds))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}
	creds, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, credentialsPayload(creds))
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.Profile(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

type contactRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
	Company  string `json:"company"`
	Favorite bool   `json:"favorite"`
}

func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if !s.decode(w, r, &req) {
		return
	}
	created, err := s.contacts.Create(r.Context(), sessionFrom(r.Context()), store.Contact{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Company:  req.Company,
		Favorite: req.Favorite,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	filter := contacts.Filter{
		Status:        r.URL.Query().Get("status"),
		FavoritesOnly: r.URL.Query().Get("favorites") == "true",
	}
	list, err := s.contacts.List(r.Context(), sessionFrom(r.Context()), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetContact(w http.ResponseWriter, r *http.Request) {
	c, err := s.contacts.Get(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

type contactUpdateRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone"`
	Company  *string `json:"company"`
	Favorite *bool   `json:"favorite"`
	Status   *string `json:"status"`
}

func (s *Server) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	var req contactUpdateRequest
	if !s.decode(w, r, &req) {
		return
	}
	updated, err := s.contacts.Update(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "id"), contacts.UpdateInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Company:  req.Company,
		Favorite: req.Favorite,
		Status:   req.Status,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := s.contacts.Delete(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	c, err := s.contacts.ToggleFavorite(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

// handleListConversations returns per-conversation unread summaries for the
// session user.
func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	client := chat.NewClient(s.messages, s.profiles, *sess, s.logger)
	if err := client.RefreshSummaries(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, client.Summaries())
}

type sendMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess := sessionFrom(r.Context())
	to := chi.URLParam(r, "uid")

	text := strings.TrimSpace(req.Text)
	if text == "" {
		s.writeError(w, chat.ErrEmptyMessage)
		return
	}
	m, err := s.messages.AppendMessage(r.Context(), sess.UserID, store.Message{
		ConversationKey: chat.ConversationKey(sess.UserID, to),
		From:            sess.UserID,
		To:              to,
		Body:            text,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, m)
}
