// Package auth implements account registration, password login and session
// token verification for the charla daemon.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/charla-im/charla/internal/store"
)

var (
	// ErrNotAuthenticated is returned when an operation requires a signed-in
	// user and none is present.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when registering an address that already has
	// an account.
	ErrEmailTaken = errors.New("email already registered")
)

const minPasswordLen = 6

// Session is the authenticated identity carried by a verified token.
type Session struct {
	UserID      string
	Email       string
	DisplayName string
}

// Credentials is the result of a successful register or login.
type Credentials struct {
	Token   string
	Session Session
}

// Service manages user accounts and their session tokens.
type Service struct {
	db     *store.DB
	tokens *TokenService
	logger *zap.Logger
}

// NewService creates an auth service over the user table.
func NewService(db *store.DB, tokens *TokenService, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, tokens: tokens, logger: logger}
}

// Register creates a new account and signs it in.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (*Credentials, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email %q", email)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	existing, err := s.db.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &store.User{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(displayName),
		CreatedAt:    time.Now().UnixMilli(),
	}
	if err := s.db.InsertUser(u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user registered", zap.String("uid", u.UID), zap.String("email", u.Email))

	return s.signIn(u)
}

// Login verifies a password and issues a fresh session token.
func (s *Service) Login(ctx context.Context, email, password string) (*Credentials, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.db.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	s.logger.Info("user logged in", zap.String("uid", u.UID))

	return s.signIn(u)
}

// Verify resolves a bearer token to the session it represents.
func (s *Service) Verify(token string) (*Session, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	sess, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}
	return sess, nil
}

func (s *Service) signIn(u *store.User) (*Credentials, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Credentials{
		Token:   token,
		Session: Session{UserID: u.UID, Email: u.Email, DisplayName: u.DisplayName},
	}, nil
}
