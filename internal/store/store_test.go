package store

import (
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateAppliesOnFreshDB(t *testing.T) {
	db := testDB(t)

	// testDB already ran Migrate; a second run must be a no-op.
	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 1 {
		t.Errorf("version = %d, want 1", result.Version)
	}
}

func TestUserInsertAndLookup(t *testing.T) {
	db := testDB(t)

	u := &User{UID: "u1", Email: "ana@example.com", PasswordHash: "x", DisplayName: "Ana", CreatedAt: 1000}
	if err := db.InsertUser(u); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetUser("u1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.DisplayName != "Ana" {
		t.Errorf("GetUser = %v, want Ana", got)
	}

	got, err = db.GetUserByEmail("ana@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.UID != "u1" {
		t.Errorf("GetUserByEmail = %v, want u1", got)
	}

	// Non-existent.
	got, err = db.GetUser("missing")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("expected nil for missing user")
	}
}

func TestUserEmailUnique(t *testing.T) {
	db := testDB(t)

	if err := db.InsertUser(&User{UID: "u1", Email: "dup@example.com", PasswordHash: "x", CreatedAt: 1}); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertUser(&User{UID: "u2", Email: "dup@example.com", PasswordHash: "x", CreatedAt: 2}); err == nil {
		t.Error("expected unique constraint error for duplicate email")
	}
}

func TestContactCRUD(t *testing.T) {
	db := testDB(t)

	c := &Contact{ID: "c1", OwnerUID: "u1", Name: "Bea", Email: "bea@example.com", Status: ContactStatusActive, CreatedAt: 1000}
	if err := db.InsertContact(c); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetContact("c1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Name != "Bea" {
		t.Fatalf("GetContact = %v, want Bea", got)
	}

	got.Phone = "555-0101"
	got.Favorite = true
	if err := db.UpdateContact(got); err != nil {
		t.Fatal(err)
	}
	got, _ = db.GetContact("c1")
	if got.Phone != "555-0101" || !got.Favorite {
		t.Errorf("update not applied: %+v", got)
	}

	if err := db.DeleteContact("c1"); err != nil {
		t.Fatal(err)
	}
	got, _ = db.GetContact("c1")
	if got != nil {
		t.Error("contact still present after delete")
	}
}

func TestListContactsScopedAndSorted(t *testing.T) {
	db := testDB(t)

	seed := []Contact{
		{ID: "c1", OwnerUID: "u1", Name: "Zoe", Status: ContactStatusActive, CreatedAt: 1},
		{ID: "c2", OwnerUID: "u1", Name: "Abel", Status: ContactStatusActive, CreatedAt: 2},
		{ID: "c3", OwnerUID: "u2", Name: "Mia", Status: ContactStatusActive, CreatedAt: 3},
	}
	for i := range seed {
		if err := db.InsertContact(&seed[i]); err != nil {
			t.Fatal(err)
		}
	}

	contacts, err := db.ListContacts("u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(contacts) != 2 {
		t.Fatalf("got %d contacts, want 2", len(contacts))
	}
	if contacts[0].Name != "Abel" || contacts[1].Name != "Zoe" {
		t.Errorf("contacts not sorted by name: %v, %v", contacts[0].Name, contacts[1].Name)
	}
}

func TestInsertMessageAssignsMonotonicTimestamps(t *testing.T) {
	db := testDB(t)

	var prev int64
	for i := 0; i < 5; i++ {
		m := &Message{ID: "m" + string(rune('0'+i)), ConversationKey: "u1_u2", From: "u1", To: "u2", Body: "hola"}
		if err := db.InsertMessage(m); err != nil {
			t.Fatal(err)
		}
		if m.Timestamp <= prev {
			t.Fatalf("timestamp %d not after previous %d", m.Timestamp, prev)
		}
		prev = m.Timestamp
	}
}

func TestListConversationMessagesWindow(t *testing.T) {
	db := testDB(t)

	for i := 0; i < 5; i++ {
		m := &Message{ID: "m" + string(rune('0'+i)), ConversationKey: "u1_u2", From: "u1", To: "u2", Body: "hola"}
		if err := db.InsertMessage(m); err != nil {
			t.Fatal(err)
		}
	}

	// A limit smaller than the stream keeps only the newest messages,
	// presented oldest-first.
	msgs, err := db.ListConversationMessages("u1_u2", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	if msgs[0].ID != "m2" || msgs[2].ID != "m4" {
		t.Errorf("window = [%s..%s], want [m2..m4]", msgs[0].ID, msgs[2].ID)
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Timestamp < msgs[i-1].Timestamp {
			t.Error("messages not in ascending timestamp order")
		}
	}
}

func TestMarkMessageRead(t *testing.T) {
	db := testDB(t)

	m := &Message{ID: "m1", ConversationKey: "u1_u2", From: "u2", To: "u1", Body: "hola"}
	if err := db.InsertMessage(m); err != nil {
		t.Fatal(err)
	}
	if err := db.MarkMessageRead("m1"); err != nil {
		t.Fatal(err)
	}
	got, err := db.GetMessage("m1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || !got.Read {
		t.Errorf("message not marked read: %+v", got)
	}
}

func TestListMessagesInvolving(t *testing.T) {
	db := testDB(t)

	seed := []Message{
		{ID: "m1", ConversationKey: "u1_u2", From: "u2", To: "u1", Body: "a"},
		{ID: "m2", ConversationKey: "u1_u3", From: "u1", To: "u3", Body: "b"},
		{ID: "m3", ConversationKey: "u2_u3", From: "u2", To: "u3", Body: "c"},
	}
	for i := range seed {
		if err := db.InsertMessage(&seed[i]); err != nil {
			t.Fatal(err)
		}
	}

	msgs, err := db.ListMessagesInvolving("u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	for _, m := range msgs {
		if m.From != "u1" && m.To != "u1" {
			t.Errorf("message %s does not involve u1", m.ID)
		}
	}
}
