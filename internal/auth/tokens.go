package auth

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"

	"github.com/charla-im/charla/internal/store"
)

const (
	tokenIssuer   = "charlad"
	tokenAudience = "charla-client"

	// PASETO v4 symmetric key requirements.
	keyBytesSize = 32 // 256 bits
	keyHexSize   = 64 // 32 bytes as hex string
)

// TokenService issues and verifies PASETO v4.local session tokens.
type TokenService struct {
	symmetricKey paseto.V4SymmetricKey
	ttl          time.Duration
}

// NewTokenService builds a token service from a hex-encoded 256-bit key.
func NewTokenService(keyHex string, ttl time.Duration) (*TokenService, error) {
	if len(keyHex) != keyHexSize {
		return nil, fmt.Errorf("token key must be exactly %d hex characters, got %d", keyHexSize, len(keyHex))
	}
	keyBytes, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("decode token key: %w", err)
	}
	key, err := paseto.V4SymmetricKeyFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("build symmetric key: %w", err)
	}
	return &TokenService{symmetricKey: key, ttl: ttl}, nil
}

// GenerateKeyHex returns a fresh random 256-bit key in hex, suitable for
// persisting in the daemon config.
func GenerateKeyHex() (string, error) {
	b := make([]byte, keyBytesSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

type tokenClaims struct {
	Sub         string `json:"sub"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Issue creates an encrypted session token for the user.
func (s *TokenService) Issue(u *store.User) (string, error) {
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetSubject(u.UID)
	token.SetJti(uuid.NewString())
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(s.ttl))

	_ = token.Set("email", u.Email)
	_ = token.Set("display_name", u.DisplayName)

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// Verify decrypts and validates a session token, returning the session it
// carries.
func (s *TokenService) Verify(tokenString string) (*Session, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(time.Now()))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	var claims tokenClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}
	return &Session{UserID: claims.Sub, Email: claims.Email, DisplayName: claims.DisplayName}, nil
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
