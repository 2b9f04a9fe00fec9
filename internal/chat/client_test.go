package chat

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/charla-im/charla/internal/auth"
	"github.com/charla-im/charla/internal/backend"
	"github.com/charla-im/charla/internal/bus"
	"github.com/charla-im/charla/internal/store"
)

func testBackend(t *testing.T) (*backend.Local, *store.DB) {
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
	return backend.NewLocal(db, bus.New(), nil), db
}

func testClient(t *testing.T, l *backend.Local, uid string) *Client {
	t.Helper()
	c := NewClient(l, l, auth.Session{UserID: uid, Email: uid + "@example.com"}, nil)
	t.Cleanup(c.CloseChat)
	return c
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func send(t *testing.T, l *backend.Local, from, to, body string) *store.Message {
	t.Helper()
	m, err := l.AppendMessage(context.Background(), from, store.Message{
		ConversationKey: ConversationKey(from, to), From: from, To: to, Body: body,
	})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestOpenChatLoadsWindow(t *testing.T) {
	l, _ := testBackend(t)
	send(t, l, "u2", "u1", "hola")
	send(t, l, "u2", "u1", "que tal")

	c := testClient(t, l, "u1")
	c.OpenChat(context.Background(), "u2")

	waitFor(t, "window to load", func() bool {
		return !c.Loading() && len(c.Messages()) == 2
	})
	msgs := c.Messages()
	if msgs[0].Body != "hola" || msgs[1].Body != "que tal" {
		t.Errorf("window = [%s, %s]", msgs[0].Body, msgs[1].Body)
	}
	if c.Counterparty() != "u2" {
		t.Errorf("counterparty = %q", c.Counterparty())
	}
}

func TestOpenChatFilesReadReceipts(t *testing.T) {
	l, _ := testBackend(t)
	send(t, l, "u2", "u1", "hola")
	send(t, l, "u1", "u2", "hey") // outgoing, must stay unread

	c := testClient(t, l, "u1")
	c.OpenChat(context.Background(), "u2")

	// The incoming message is marked read shortly after the first snapshot.
	waitFor(t, "read receipt", func() bool {
		msgs, err := l.VisibleMessages(context.Background(), "u1")
		if err != nil {
			t.Fatal(err)
		}
		var in, out bool
		for _, m := range msgs {
			if m.To == "u1" {
				in = m.Read
			}
			if m.To == "u2" {
				out = !m.Read
			}
		}
		return in && out
	})
}

func TestSendMessageAppearsInWindow(t *testing.T) {
	l, _ := testBackend(t)
	c := testClient(t, l, "u1")
	c.OpenChat(context.Background(), "u2")
	waitFor(t, "window to load", func() bool { return !c.Loading() })

	if err := c.SendMessage(context.Background(), "  hola  "); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "own message in window", func() bool {
		msgs := c.Messages()
		return len(msgs) == 1 && msgs[0].Body == "hola" && msgs[0].From == "u1"
	})
}

func TestSendMessageValidation(t *testing.T) {
	l, _ := testBackend(t)

	c := testClient(t, l, "u1")
	if err := c.SendMessage(context.Background(), "hola"); !errors.Is(err, ErrNoConversation) {
		t.Errorf("no open chat: err = %v, want ErrNoConversation", err)
	}

	c.OpenChat(context.Background(), "u2")
	waitFor(t, "window to load", func() bool { return !c.Loading() })
	if err := c.SendMessage(context.Background(), "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("blank text: err = %v, want ErrEmptyMessage", err)
	}

	anon := NewClient(l, l, auth.Session{}, nil)
	if err := anon.SendMessage(context.Background(), "hola"); !errors.Is(err, auth.ErrNotAuthenticated) {
		t.Errorf("anonymous send: err = %v, want ErrNotAuthenticated", err)
	}
}

func TestRefreshSummaries(t *testing.T) {
	l, _ := testBackend(t)
	send(t, l, "u2", "u1", "a")
	send(t, l, "u2", "u1", "b")
	send(t, l, "u3", "u1", "c")
	send(t, l, "u1", "u4", "d") // outgoing only, zero unread

	c := testClient(t, l, "u1")
	if err := c.RefreshSummaries(context.Background()); err != nil {
		t.Fatal(err)
	}

	summaries := c.Summaries()
	if len(summaries) != 3 {
		t.Fatalf("got %d summaries, want 3: %+v", len(summaries), summaries)
	}
	want := map[string]int{"u2": 2, "u3": 1, "u4": 0}
	for _, s := range summaries {
		if want[s.CounterpartyUID] != s.Unread {
			t.Errorf("unread[%s] = %d, want %d", s.CounterpartyUID, s.Unread, want[s.CounterpartyUID])
		}
	}
	if c.UnreadConversations() != 2 {
		t.Errorf("UnreadConversations() = %d, want 2", c.UnreadConversations())
	}
}

func TestSummariesClearAfterOpeningChat(t *testing.T) {
	l, _ := testBackend(t)
	send(t, l, "u2", "u1", "hola")

	c := testClient(t, l, "u1")
	if err := c.RefreshSummaries(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.UnreadConversations() != 1 {
		t.Fatalf("UnreadConversations() = %d before open", c.UnreadConversations())
	}

	// Opening the chat marks its messages read and the next summary refresh
	// drops the count to zero.
	c.OpenChat(context.Background(), "u2")
	waitFor(t, "unread count to clear", func() bool {
		return c.UnreadConversations() == 0
	})
}

func TestSwitchingChatsDropsStaleState(t *testing.T) {
	l, _ := testBackend(t)
	send(t, l, "u2", "u1", "from u2")
	send(t, l, "u3", "u1", "from u3")

	c := testClient(t, l, "u1")
	c.OpenChat(context.Background(), "u2")
	waitFor(t, "first window", func() bool { return len(c.Messages()) == 1 })

	c.OpenChat(context.Background(), "u3")
	waitFor(t, "second window", func() bool {
		msgs := c.Messages()
		return !c.Loading() && len(msgs) == 1 && msgs[0].Body == "from u3"
	})
	if c.Counterparty() != "u3" {
		t.Errorf("counterparty = %q, want u3", c.Counterparty())
	}
}

func TestCounterpartyProfileLoads(t *testing.T) {
	l, db := testBackend(t)
	if err := db.InsertUser(&store.User{UID: "u2", Email: "bea@example.com", PasswordHash: "x", DisplayName: "Bea", CreatedAt: 1}); err != nil {
		t.Fatal(err)
	}

	c := testClient(t, l, "u1")
	c.OpenChat(context.Background(), "u2")

	waitFor(t, "profile to load", func() bool {
		p := c.Profile()
		return p != nil && p.DisplayName == "Bea"
	})
}

func TestSelfConversation(t *testing.T) {
	l, _ := testBackend(t)

	c := testClient(t, l, "u1")
	c.OpenChat(context.Background(), "u1")
	waitFor(t, "window to load", func() bool { return !c.Loading() })

	if err := c.SendMessage(context.Background(), "note to self"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "self message", func() bool {
		msgs := c.Messages()
		return len(msgs) == 1 && msgs[0].ConversationKey == "u1_u1"
	})
}

func TestCloseChatIdempotent(t *testing.T) {
	l, _ := testBackend(t)
	c := testClient(t, l, "u1")
	c.OpenChat(context.Background(), "u2")
	waitFor(t, "window to load", func() bool { return !c.Loading() })

	c.CloseChat()
	c.CloseChat()
	if c.Counterparty() != "" {
		t.Errorf("counterparty = %q after close", c.Counterparty())
	}
	if len(c.Messages()) != 0 {
		t.Error("window not cleared after close")
	}
}
