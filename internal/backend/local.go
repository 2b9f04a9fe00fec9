package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/charla-im/charla/internal/bus"
	"github.com/charla-im/charla/internal/store"
)

// Local is the in-process document store: SQLite for persistence, the bus
// for change notification. It implements MessageBackend, ContactBackend
// and ProfileBackend.
type Local struct {
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger
}

// NewLocal creates a document store over db, publishing change events on b.
func NewLocal(db *store.DB, b *bus.Bus, logger *zap.Logger) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Local{db: db, bus: b, logger: logger}
}

func messageTopic(conversationKey string) string {
	return "docs.messages." + conversationKey
}

func contactTopic(ownerUID string) string {
	return "docs.contacts." + ownerUID
}

// AppendMessage stores a new message. The create policy requires the actor
// to be the sender, a named recipient, a non-empty body and read=false.
func (l *Local) AppendMessage(_ context.Context, actor string, m store.Message) (*store.Message, error) {
	if actor == "" || m.From != actor {
		return nil, ErrPermissionDenied
	}
	if m.To == "" || m.Body == "" || m.ConversationKey == "" {
		return nil, ErrInvalidDocument
	}

	m.ID = uuid.NewString()
	m.Read = false
	if err := l.db.InsertMessage(&m); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	l.bus.Publish(bus.Event{
		Kind:      messageTopic(m.ConversationKey),
		Timestamp: time.Now(),
	})
	return &m, nil
}

// MarkMessageRead flips the read flag of a message to true. Only the
// recipient may do so; once the flag is set the call is a no-op.
func (l *Local) MarkMessageRead(_ context.Context, actor, messageID string) error {
	m, err := l.db.GetMessage(messageID)
	if err != nil {
		return fmt.Errorf("load message: %w", err)
	}
	if m == nil {
		return ErrNotFound
	}
	if m.Read {
		return nil
	}
	if actor == "" || m.To != actor {
		return ErrPermissionDenied
	}

	if err := l.db.MarkMessageRead(messageID); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	l.bus.Publish(bus.Event{
		Kind:      messageTopic(m.ConversationKey),
		Timestamp: time.Now(),
	})
	return nil
}

// SubscribeMessages opens a live query over one conversation stream. The
// actor must be one of the two participants named in the key.
func (l *Local) SubscribeMessages(actor, conversationKey string, limit int) (MessageSubscription, error) {
	if !isParticipant(actor, conversationKey) {
		return nil, ErrPermissionDenied
	}

	events, unsub := l.bus.Subscribe(messageTopic(conversationKey), 64)
	sub := newLocalSubscription(unsub)
	go l.stream(sub, conversationKey, limit, events)
	return sub, nil
}

// VisibleMessages returns every message the actor is a participant of.
func (l *Local) VisibleMessages(_ context.Context, actor string) ([]store.Message, error) {
	if actor == "" {
		return nil, ErrPermissionDenied
	}
	return l.db.ListMessagesInvolving(actor)
}

func isParticipant(actor, conversationKey string) bool {
	if actor == "" {
		return false
	}
	a, b, ok := strings.Cut(conversationKey, "_")
	if !ok {
		return false
	}
	return actor == a || actor == b
}

// stream pushes the initial snapshot, then re-reads the window after each
// change event until the subscription is cancelled.
func (l *Local) stream(sub *localSubscription, conversationKey string, limit int, events <-chan bus.Event) {
	defer close(sub.snapshots)

	push := func() bool {
		msgs, err := l.db.ListConversationMessages(conversationKey, limit)
		if err != nil {
			select {
			case sub.errs <- fmt.Errorf("read conversation window: %w", err):
			case <-sub.stop:
				return false
			}
			return true
		}
		select {
		case sub.snapshots <- msgs:
			return true
		case <-sub.stop:
			return false
		}
	}

	if !push() {
		return
	}
	for {
		select {
		case <-sub.stop:
			return
		case <-events:
			if !push() {
				return
			}
		}
	}
}

// CreateContact stores a new contact owned by the actor.
func (l *Local) CreateContact(_ context.Context, actor string, c store.Contact) (*store.Contact, error) {
	if actor == "" {
		return nil, ErrPermissionDenied
	}
	if c.Name == "" {
		return nil, ErrInvalidDocument
	}

	c.ID = uuid.NewString()
	c.OwnerUID = actor
	if c.Status == "" {
		c.Status = store.ContactStatusActive
	}
	c.CreatedAt = time.Now().UnixMilli()

	if err := l.db.InsertContact(&c); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	l.bus.Publish(bus.Event{Kind: contactTopic(actor), Timestamp: time.Now()})
	return &c, nil
}

// GetContact returns a contact if the actor owns it.
func (l *Local) GetContact(_ context.Context, actor, id string) (*store.Contact, error) {
	c, err := l.db.GetContact(id)
	if err != nil {
		return nil, fmt.Errorf("load contact: %w", err)
	}
	if c == nil {
		return nil, ErrNotFound
	}
	if c.OwnerUID != actor {
		return nil, ErrPermissionDenied
	}
	return c, nil
}

// ListContacts returns the actor's contacts, sorted by name.
func (l *Local) ListContacts(_ context.Context, actor string) ([]store.Contact, error) {
	if actor == "" {
		return nil, ErrPermissionDenied
	}
	return l.db.ListContacts(actor)
}

// UpdateContact rewrites a contact's mutable fields if the actor owns it.
func (l *Local) UpdateContact(ctx context.Context, actor string, c store.Contact) error {
	existing, err := l.GetContact(ctx, actor, c.ID)
	if err != nil {
		return err
	}
	// Ownership and creation time are immutable.
	c.OwnerUID = existing.OwnerUID
	c.CreatedAt = existing.CreatedAt
	if err := l.db.UpdateContact(&c); err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	l.bus.Publish(bus.Event{Kind: contactTopic(actor), Timestamp: time.Now()})
	return nil
}

// DeleteContact removes a contact if the actor owns it.
func (l *Local) DeleteContact(ctx context.Context, actor, id string) error {
	if _, err := l.GetContact(ctx, actor, id); err != nil {
		return err
	}
	if err := l.db.DeleteContact(id); err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	l.bus.Publish(bus.Event{Kind: contactTopic(actor), Timestamp: time.Now()})
	return nil
}

// Profile returns the public profile of a user. Any authenticated caller
// may read profiles.
func (l *Local) Profile(_ context.Context, uid string) (*Profile, error) {
	u, err := l.db.GetUser(uid)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return &Profile{UID: u.UID, Email: u.Email, DisplayName: u.DisplayName}, nil
}
