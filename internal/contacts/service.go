// Package contacts implements the address book: CRUD over a contact
// backend, favorite toggling and status/favorite filtering.
package contacts

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/charla-im/charla/internal/auth"
	"github.com/charla-im/charla/internal/backend"
	"github.com/charla-im/charla/internal/store"
)

// Filter narrows a contact listing. Zero value matches everything.
type Filter struct {
	Status        string
	FavoritesOnly bool
}

// UpdateInput carries a partial contact update; nil fields keep their
// current value.
type UpdateInput struct {
	Name     *string
	Email    *string
	Phone    *string
	Company  *string
	Favorite *bool
	Status   *string
}

// Service is the address book of the signed-in user.
type Service struct {
	backend backend.ContactBackend
	logger  *zap.Logger
}

// NewService creates a contact service over b.
func NewService(b backend.ContactBackend, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{backend: b, logger: logger}
}

// Create adds a contact to the session user's address book. Fails before
// touching the backend when no user is signed in.
func (s *Service) Create(ctx context.Context, sess *auth.Session, c store.Contact) (*store.Contact, error) {
	if sess == nil || sess.UserID == "" {
		return nil, auth.ErrNotAuthenticated
	}
	created, err := s.backend.CreateContact(ctx, sess.UserID, c)
	if err != nil {
		return nil, err
	}
	s.logger.Info("contact created", zap.String("id", created.ID), zap.String("owner", created.OwnerUID))
	return created, nil
}

// Get returns one of the session user's contacts.
func (s *Service) Get(ctx context.Context, sess *auth.Session, id string) (*store.Contact, error) {
	if sess == nil || sess.UserID == "" {
		return nil, auth.ErrNotAuthenticated
	}
	return s.backend.GetContact(ctx, sess.UserID, id)
}

// List returns the session user's contacts matching the filter, sorted by
// name.
func (s *Service) List(ctx context.Context, sess *auth.Session, f Filter) ([]store.Contact, error) {
	if sess == nil || sess.UserID == "" {
		return nil, auth.ErrNotAuthenticated
	}
	all, err := s.backend.ListContacts(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]store.Contact, 0, len(all))
	for _, c := range all {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.FavoritesOnly && !c.Favorite {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// Update applies a partial update to one contact.
func (s *Service) Update(ctx context.Context, sess *auth.Session, id string, in UpdateInput) (*store.Contact, error) {
	if sess == nil || sess.UserID == "" {
		return nil, auth.ErrNotAuthenticated
	}
	c, err := s.backend.GetContact(ctx, sess.UserID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Email != nil {
		c.Email = *in.Email
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
	}
	if in.Company != nil {
		c.Company = *in.Company
	}
	if in.Favorite != nil {
		c.Favorite = *in.Favorite
	}
	if in.Status != nil {
		if *in.Status != store.ContactStatusActive && *in.Status != store.ContactStatusInactive {
			return nil, fmt.Errorf("unknown contact status %q", *in.Status)
		}
		c.Status = *in.Status
	}
	if err := s.backend.UpdateContact(ctx, sess.UserID, *c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes one contact from the address book.
func (s *Service) Delete(ctx context.Context, sess *auth.Session, id string) error {
	if sess == nil || sess.UserID == "" {
		return auth.ErrNotAuthenticated
	}
	if err := s.backend.DeleteContact(ctx, sess.UserID, id); err != nil {
		return err
	}
	s.logger.Info("contact deleted", zap.String("id", id), zap.String("owner", sess.UserID))
	return nil
}

// ToggleFavorite flips a contact's favorite flag and returns the updated
// contact.
func (s *Service) ToggleFavorite(ctx context.Context, sess *auth.Session, id string) (*store.Contact, error) {
	if sess == nil || sess.UserID == "" {
		return nil, auth.ErrNotAuthenticated
	}
	c, err := s.backend.GetContact(ctx, sess.UserID, id)
	if err != nil {
		return nil, err
	}
	c.Favorite = !c.Favorite
	if err := s.backend.UpdateContact(ctx, sess.UserID, *c); err != nil {
		return nil, err
	}
	return c, nil
}
