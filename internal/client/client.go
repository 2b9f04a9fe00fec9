// Package client is the typed HTTP client for the charlad API, used by
// charlactl.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charla-im/charla/internal/backend"
	"github.com/charla-im/charla/internal/chat"
	"github.com/charla-im/charla/internal/store"
)

// Credentials is the register/login response.
type Credentials struct {
	Token string          `json:"token"`
	User  backend.Profile `json:"user"`
}

// APIError is a non-2xx response from the daemon.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("daemon returned %d: %s", e.Status, e.Message)
}

// Client talks to a running charlad over its HTTP API.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// New creates a client for the daemon at addr (host:port). token may be
// empty for the auth endpoints.
func New(addr, token string) *Client {
	return &Client{
		base:  "http://" + addr,
		token: token,
		http:  &http.Client{Timeout: 10 * time.Second},
	}
}

// SetToken replaces the bearer token used on subsequent calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("dial daemon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// Register creates an account and returns its credentials.
func (c *Client) Register(ctx context.Context, email, password, displayName string) (*Credentials, error) {
	var creds Credentials
	err := c.do(ctx, http.MethodPost, "/v1/auth/register", map[string]string{
		"email": email, "password": password, "display_name": displayName,
	}, &creds)
	if err != nil {
		return nil, err
	}
	return &creds, nil
}

// Login signs in and returns fresh credentials.
func (c *Client) Login(ctx context.Context, email, password string) (*Credentials, error) {
	var creds Credentials
	err := c.do(ctx, http.MethodPost, "/v1/auth/login", map[string]string{
		"email": email, "password": password,
	}, &creds)
	if err != nil {
		return nil, err
	}
	return &creds, nil
}

// Profile fetches a user's public profile.
func (c *Client) Profile(ctx context.Context, uid string) (*backend.Profile, error) {
	var p backend.Profile
	if err := c.do(ctx, http.MethodGet, "/v1/users/"+url.PathEscape(uid), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListContacts fetches contacts, optionally filtered by status or limited
// to favorites.
func (c *Client) ListContacts(ctx context.Context, status string, favoritesOnly bool) ([]store.Contact, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if favoritesOnly {
		q.Set("favorites", "true")
	}
	path := "/v1/contacts"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var list []store.Contact
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// CreateContact adds a contact to the address book.
func (c *Client) CreateContact(ctx context.Context, contact store.Contact) (*store.Contact, error) {
	var created store.Contact
	if err := c.do(ctx, http.MethodPost, "/v1/contacts", contact, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteContact removes a contact.
func (c *Client) DeleteContact(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/contacts/"+url.PathEscape(id), nil, nil)
}

// ToggleFavorite flips a contact's favorite flag.
func (c *Client) ToggleFavorite(ctx context.Context, id string) (*store.Contact, error) {
	var updated store.Contact
	if err := c.do(ctx, http.MethodPost, "/v1/contacts/"+url.PathEscape(id)+"/favorite", nil, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Conversations fetches per-conversation unread summaries.
func (c *Client) Conversations(ctx context.Context) ([]chat.Summary, error) {
	var summaries []chat.Summary
	if err := c.do(ctx, http.MethodGet, "/v1/conversations", nil, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// SendMessage sends a direct message to another user.
func (c *Client) SendMessage(ctx context.Context, to, text string) (*store.Message, error) {
	var m store.Message
	err := c.do(ctx, http.MethodPost, "/v1/conversations/"+url.PathEscape(to)+"/messages", map[string]string{
		"text": text,
	}, &m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
