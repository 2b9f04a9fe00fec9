// Package chat implements the conversation client: one live conversation
// window at a time, read receipts for incoming messages and unread counts
// across every conversation the user participates in.
package chat

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/charla-im/charla/internal/auth"
	"github.com/charla-im/charla/internal/backend"
	"github.com/charla-im/charla/internal/store"
)

// messageWindow is how many of the newest messages a conversation keeps
// loaded.
const messageWindow = 100

var (
	// ErrEmptyMessage is returned when a send has no text after trimming.
	ErrEmptyMessage = errors.New("empty message")
	// ErrNoConversation is returned when sending without an open chat.
	ErrNoConversation = errors.New("no open conversation")
)

// Summary is the unread state of one conversation.
type Summary struct {
	CounterpartyUID string `json:"counterparty_uid"`
	Unread          int    `json:"unread"`
}

// Client drives one user's conversations. At most one conversation is open
// at a time; opening another replaces it. State changes are signalled on
// Updates.
type Client struct {
	messages backend.MessageBackend
	profiles backend.ProfileBackend
	session  auth.Session
	logger   *zap.Logger

	mu           sync.Mutex
	sub          backend.MessageSubscription
	counterparty string
	profile      *backend.Profile
	buf          []store.Message
	loading      bool
	summaries    []Summary

	updates chan struct{}
}

// NewClient creates a conversation client for the session's user.
func NewClient(messages backend.MessageBackend, profiles backend.ProfileBackend, session auth.Session, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		messages: messages,
		profiles: profiles,
		session:  session,
		logger:   logger,
		updates:  make(chan struct{}, 1),
	}
}

// OpenChat switches the open conversation to the one with counterparty.
// Any previous subscription is cancelled first. The window starts in the
// loading state and fills when the first snapshot arrives; subscription
// failures are logged and leave an empty window rather than failing the
// switch.
func (c *Client) OpenChat(ctx context.Context, counterparty string) {
	c.CloseChat()

	c.mu.Lock()
	c.counterparty = counterparty
	c.buf = nil
	c.loading = true
	c.mu.Unlock()
	c.notify()

	go c.loadProfile(ctx, counterparty)

	key := ConversationKey(c.session.UserID, counterparty)
	sub, err := c.messages.SubscribeMessages(c.session.UserID, key, messageWindow)
	if err != nil {
		c.logger.Warn("subscribe failed", zap.String("conversation", key), zap.Error(err))
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
		c.notify()
		return
	}

	c.mu.Lock()
	c.sub = sub
	c.mu.Unlock()

	go c.pump(sub, counterparty)
}

// CloseChat cancels the open conversation, if any. Safe to call repeatedly.
func (c *Client) CloseChat() {
	c.mu.Lock()
	sub := c.sub
	c.sub = nil
	c.counterparty = ""
	c.profile = nil
	c.buf = nil
	c.loading = false
	c.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
}

// SendMessage appends a message to the open conversation. The text is
// trimmed; an empty result is rejected before reaching the backend.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	if c.session.UserID == "" {
		return auth.ErrNotAuthenticated
	}

	c.mu.Lock()
	counterparty := c.counterparty
	c.mu.Unlock()
	if counterparty == "" {
		return ErrNoConversation
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	_, err := c.messages.AppendMessage(ctx, c.session.UserID, store.Message{
		ConversationKey: ConversationKey(c.session.UserID, counterparty),
		From:            c.session.UserID,
		To:              counterparty,
		Body:            text,
	})
	return err
}

// RefreshSummaries recomputes the unread count of every conversation the
// user participates in. Conversations with nothing unread are kept with a
// zero count.
func (c *Client) RefreshSummaries(ctx context.Context) error {
	msgs, err := c.messages.VisibleMessages(ctx, c.session.UserID)
	if err != nil {
		return err
	}

	counts := make(map[string]int)
	for _, m := range msgs {
		other := m.From
		if m.From == c.session.UserID {
			other = m.To
		}
		if _, ok := counts[other]; !ok {
			counts[other] = 0
		}
		if m.To == c.session.UserID && !m.Read {
			counts[other]++
		}
	}

	summaries := make([]Summary, 0, len(counts))
	for uid, n := range counts {
		summaries = append(summaries, Summary{CounterpartyUID: uid, Unread: n})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CounterpartyUID < summaries[j].CounterpartyUID
	})

	c.mu.Lock()
	c.summaries = summaries
	c.mu.Unlock()
	c.notify()
	return nil
}

// Messages returns a copy of the open conversation's window, oldest-first.
func (c *Client) Messages() []store.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]store.Message, len(c.buf))
	copy(out, c.buf)
	return out
}

// Loading reports whether the first snapshot of the open conversation is
// still pending.
func (c *Client) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Counterparty returns the uid of the open conversation's other side, or ""
// when no conversation is open.
func (c *Client) Counterparty() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counterparty
}

// Profile returns the counterparty's profile once it has loaded.
func (c *Client) Profile() *backend.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

// Summaries returns a copy of the last computed conversation summaries.
func (c *Client) Summaries() []Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Summary, len(c.summaries))
	copy(out, c.summaries)
	return out
}

// UnreadConversations counts conversations with at least one unread message.
func (c *Client) UnreadConversations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, s := range c.summaries {
		if s.Unread > 0 {
			n++
		}
	}
	return n
}

// Updates signals state changes: new snapshots, summary refreshes and chat
// switches. Signals coalesce; consumers re-read the accessors after each.
func (c *Client) Updates() <-chan struct{} {
	return c.updates
}

func (c *Client) notify() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}

func (c *Client) loadProfile(ctx context.Context, counterparty string) {
	p, err := c.profiles.Profile(ctx, counterparty)
	if err != nil {
		c.logger.Warn("load profile", zap.String("uid", counterparty), zap.Error(err))
		return
	}
	c.mu.Lock()
	if c.counterparty == counterparty {
		c.profile = p
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Client) pump(sub backend.MessageSubscription, counterparty string) {
	snaps := sub.Snapshots()
	errs := sub.Errors()
	for {
		select {
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			c.applySnapshot(counterparty, snap)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			c.logger.Warn("conversation stream", zap.String("counterparty", counterparty), zap.Error(err))
		}
	}
}

// applySnapshot replaces the window with the latest snapshot and files read
// receipts for incoming messages not yet read. A snapshot arriving after the
// chat switched away is dropped.
func (c *Client) applySnapshot(counterparty string, snap []store.Message) {
	c.mu.Lock()
	if c.counterparty != counterparty {
		c.mu.Unlock()
		return
	}
	c.buf = snap
	c.loading = false
	var unread []string
	for _, m := range snap {
		if m.To == c.session.UserID && !m.Read {
			unread = append(unread, m.ID)
		}
	}
	c.mu.Unlock()

	for _, id := range unread {
		go c.markRead(id)
	}

	go func() {
		if err := c.RefreshSummaries(context.Background()); err != nil {
			c.logger.Warn("refresh summaries", zap.Error(err))
		}
	}()
	c.notify()
}

func (c *Client) markRead(messageID string) {
	if err := c.messages.MarkMessageRead(context.Background(), c.session.UserID, messageID); err != nil {
		c.logger.Warn("mark read", zap.String("message", messageID), zap.Error(err))
	}
}
