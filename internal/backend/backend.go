// Package backend defines the document-store boundary the chat and contact
// services are written against: one-shot document operations plus live
// message subscriptions, with the authorization policy evaluated inside the
// implementation rather than by callers. Every operation takes the acting
// user's uid; the policy is:
//
//   - a contact is readable/writable only by its owner;
//   - a message is creatable only by its sender, with a non-empty body and
//     read=false;
//   - a message's only mutation is the recipient flipping read to true;
//   - message streams and scans are visible only to their participants.
package backend

import (
	"context"
	"errors"

	"github.com/charla-im/charla/internal/store"
)

var (
	// ErrPermissionDenied is returned when the acting user fails the
	// access policy for a document.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotFound is returned when a referenced document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidDocument is returned when a write violates the document
	// shape the policy requires.
	ErrInvalidDocument = errors.New("invalid document")
)

// Profile is the public slice of a user record.
type Profile struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// MessageSubscription is a live query over one conversation stream. Each
// push delivers the full current window, oldest-first. Snapshots() closes
// after Unsubscribe; no pushes are delivered past that point.
type MessageSubscription interface {
	Snapshots() <-chan []store.Message
	Errors() <-chan error
	Unsubscribe()
}

// MessageBackend is the message side of the document store.
type MessageBackend interface {
	// AppendMessage stores a new message with a server-assigned id and
	// timestamp and returns the stored document.
	AppendMessage(ctx context.Context, actor string, m store.Message) (*store.Message, error)
	// MarkMessageRead flips a message's read flag to true. Idempotent once
	// the flag is set.
	MarkMessageRead(ctx context.Context, actor, messageID string) error
	// SubscribeMessages opens a live query over the conversation's most
	// recent limit messages, ascending by timestamp.
	SubscribeMessages(actor, conversationKey string, limit int) (MessageSubscription, error)
	// VisibleMessages returns every message the actor participates in,
	// across all conversations.
	VisibleMessages(ctx context.Context, actor string) ([]store.Message, error)
}

// ContactBackend is the contact side of the document store.
type ContactBackend interface {
	CreateContact(ctx context.Context, actor string, c store.Contact) (*store.Contact, error)
	GetContact(ctx context.Context, actor, id string) (*store.Contact, error)
	ListContacts(ctx context.Context, actor string) ([]store.Contact, error)
	UpdateContact(ctx context.Context, actor string, c store.Contact) error
	DeleteContact(ctx context.Context, actor, id string) error
}

// ProfileBackend resolves public user profiles.
type ProfileBackend interface {
	Profile(ctx context.Context, uid string) (*Profile, error)
}
