package contacts

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/charla-im/charla/internal/auth"
	"github.com/charla-im/charla/internal/backend"
	"github.com/charla-im/charla/internal/bus"
	"github.com/charla-im/charla/internal/store"
)

func testService(t *testing.T) *Service {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewService(backend.NewLocal(db, bus.New(), nil), nil)
}

func session(uid string) *auth.Session {
	return &auth.Session{UserID: uid, Email: uid + "@example.com"}
}

func TestCreateRequiresSession(t *testing.T) {
	s := testService(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, nil, store.Contact{Name: "Bea"}); !errors.Is(err, auth.ErrNotAuthenticated) {
		t.Errorf("nil session: err = %v, want ErrNotAuthenticated", err)
	}
	if _, err := s.Create(ctx, &auth.Session{}, store.Contact{Name: "Bea"}); !errors.Is(err, auth.ErrNotAuthenticated) {
		t.Errorf("empty session: err = %v, want ErrNotAuthenticated", err)
	}
}

func TestCreateAndList(t *testing.T) {
	s := testService(t)
	ctx := context.Background()
	sess := session("u1")

	created, err := s.Create(ctx, sess, store.Contact{Name: "Bea", Email: "bea@example.com", Phone: "555-0101"})
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.OwnerUID != "u1" {
		t.Errorf("created = %+v", created)
	}
	if created.Status != store.ContactStatusActive {
		t.Errorf("status = %q, want active default", created.Status)
	}

	contacts, err := s.List(ctx, sess, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(contacts) != 1 || contacts[0].Name != "Bea" {
		t.Errorf("list = %+v", contacts)
	}
}

func TestListFilters(t *testing.T) {
	s := testService(t)
	ctx := context.Background()
	sess := session("u1")

	seed := []store.Contact{
		{Name: "Abel", Status: store.ContactStatusActive, Favorite: true},
		{Name: "Bea", Status: store.ContactStatusInactive},
		{Name: "Cleo", Status: store.ContactStatusActive},
	}
	for _, c := range seed {
		if _, err := s.Create(ctx, sess, c); err != nil {
			t.Fatal(err)
		}
	}

	active, err := s.List(ctx, sess, Filter{Status: store.ContactStatusActive})
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 2 {
		t.Errorf("active = %d, want 2", len(active))
	}

	favs, err := s.List(ctx, sess, Filter{FavoritesOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(favs) != 1 || favs[0].Name != "Abel" {
		t.Errorf("favorites = %+v", favs)
	}

	both, err := s.List(ctx, sess, Filter{Status: store.ContactStatusInactive, FavoritesOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(both) != 0 {
		t.Errorf("inactive favorites = %d, want 0", len(both))
	}
}

func TestUpdatePartial(t *testing.T) {
	s := testService(t)
	ctx := context.Background()
	sess := session("u1")

	created, err := s.Create(ctx, sess, store.Contact{Name: "Bea", Email: "bea@example.com"})
	if err != nil {
		t.Fatal(err)
	}

	phone := "555-0102"
	status := store.ContactStatusInactive
	updated, err := s.Update(ctx, sess, created.ID, UpdateInput{Phone: &phone, Status: &status})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Phone != "555-0102" || updated.Status != store.ContactStatusInactive {
		t.Errorf("updated = %+v", updated)
	}
	// Untouched fields survive.
	if updated.Name != "Bea" || updated.Email != "bea@example.com" {
		t.Errorf("untouched fields changed: %+v", updated)
	}

	bad := "archived"
	if _, err := s.Update(ctx, sess, created.ID, UpdateInput{Status: &bad}); err == nil {
		t.Error("unknown status accepted")
	}
}

func TestToggleFavorite(t *testing.T) {
	s := testService(t)
	ctx := context.Background()
	sess := session("u1")

	created, err := s.Create(ctx, sess, store.Contact{Name: "Bea"})
	if err != nil {
		t.Fatal(err)
	}

	c, err := s.ToggleFavorite(ctx, sess, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Favorite {
		t.Error("first toggle should set favorite")
	}
	c, err = s.ToggleFavorite(ctx, sess, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if c.Favorite {
		t.Error("second toggle should clear favorite")
	}
}

func TestDelete(t *testing.T) {
	s := testService(t)
	ctx := context.Background()
	sess := session("u1")

	created, err := s.Create(ctx, sess, store.Contact{Name: "Bea"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, sess, created.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, sess, created.ID); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("deleted contact: err = %v, want ErrNotFound", err)
	}

	// Another user's contact is out of reach.
	other, err := s.Create(ctx, session("u2"), store.Contact{Name: "Mia"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, sess, other.ID); !errors.Is(err, backend.ErrPermissionDenied) {
		t.Errorf("stranger delete: err = %v, want ErrPermissionDenied", err)
	}
}
