package web

import (
	"context"
	"errors"
	"sync"
	"time"

	"storefront/internal/config"
	"storefront/internal/platform/crypto"
)

// RoleUser is the only role the storefront hands out.
const RoleUser = "USER"

var ErrInvalidCredentials = errors.New("invalid username or password")

// UserStore holds the configured logins with bcrypt hashed passwords.
type UserStore struct {
	hashes map[string]string
	// dummy is compared against for unknown users so both paths cost a bcrypt run.
	dummy string
}

func NewUserStore(users []config.User) (*UserStore, error) {
	s := &UserStore{hashes: make(map[string]string, len(users))}
	for _, u := range users {
		hash, err := crypto.HashPassword(u.Password)
		if err != nil {
			return nil, err
		}
		s.hashes[u.Username] = hash
	}
	dummy, err := crypto.HashPassword("not-a-real-password")
	if err != nil {
		return nil, err
	}
	s.dummy = dummy
	return s, nil
}

func (s *UserStore) Authenticate(username, password string) error {
	hash, ok := s.hashes[username]
	if !ok {
		crypto.VerifyPassword(s.dummy, password)
		return ErrInvalidCredentials
	}
	if !crypto.VerifyPassword(hash, password) {
		return ErrInvalidCredentials
	}
	return nil
}

// Blacklist remembers revoked session token ids until they expire.
type Blacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewBlacklist() *Blacklist {
	return &Blacklist{revoked: make(map[string]time.Time), now: time.Now}
}

func (b *Blacklist) AddToken(jti string, expiresAt time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[jti] = expiresAt
}

// IsRevoked implements httpx.RevocationChecker.
func (b *Blacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	exp, ok := b.revoked[jti]
	return ok && b.now().Before(exp), nil
}

// CleanupExpired drops entries whose token has expired anyway.
func (b *Blacklist) CleanupExpired() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	n := 0
	for jti, exp := range b.revoked {
		if !now.Before(exp) {
			delete(b.revoked, jti)
			n++
		}
	}
	return n
}

// AuthService issues and revokes session tokens.
type AuthService struct {
	secret    string
	ttl       time.Duration
	users     *UserStore
	blacklist *Blacklist
}

func NewAuthService(secret string, ttl time.Duration, users *UserStore, blacklist *Blacklist) *AuthService {
	return &AuthService{secret: secret, ttl: ttl, users: users, blacklist: blacklist}
}

// Login returns a signed session token for valid credentials.
func (s *AuthService) Login(username, password string) (string, error) {
	if err := s.users.Authenticate(username, password); err != nil {
		return "", err
	}
	token, _, err := crypto.GenerateToken(s.secret, username, RoleUser, s.ttl)
	return token, err
}

// Logout revokes token. Tokens that no longer parse are already useless and are ignored.
func (s *AuthService) Logout(token string) {
	claims, err := crypto.ParseToken(s.secret, token)
	if err != nil {
		return
	}
	expiresAt := time.Now().Add(s.ttl)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	s.blacklist.AddToken(claims.ID, expiresAt)
}

func (s *AuthService) TTL() time.Duration {
	return s.ttl
}
