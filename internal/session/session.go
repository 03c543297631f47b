package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/golang-jwt/jwt/v5"
)

// Fixed local-storage keys, always written and cleared together.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

var ErrNoSession = errors.New("no active session")

// Identity is the signed-in user and the bearer credential issued for them.
type Identity struct {
	User      domain.User
	Token     string
	ExpiresAt time.Time // zero when the token carries no expiry
}

func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// Store holds the identity of one browser session.
type Store struct {
	sessionID string
	repo      storage.RepoInterface
	log       *slog.Logger
	now       func() time.Time

	mu       sync.RWMutex
	identity *Identity
}

func NewStore(sessionID string, repo storage.RepoInterface, log *slog.Logger) *Store {
	return &Store{
		sessionID: sessionID,
		repo:      repo,
		log:       log.With("component", "session", "session_id", sessionID),
		now:       time.Now,
	}
}

func (s *Store) SessionID() string {
	return s.sessionID
}

// Load restores a persisted identity. Both keys must be present; an expired
// credential is cleared instead of restored.
func (s *Store) Load(ctx context.Context) error {
	token, err := s.repo.Get(ctx, s.sessionID, KeyToken)
	if errors.Is(err, storage.ErrNotFound) {
		s.set(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}

	rawUser, err := s.repo.Get(ctx, s.sessionID, KeyUser)
	if errors.Is(err, storage.ErrNotFound) {
		s.set(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		s.log.WarnContext(ctx, "discarding unreadable persisted user", "error", err)
		return s.Clear(ctx)
	}

	id := &Identity{User: user, Token: token, ExpiresAt: tokenExpiry(token)}
	if id.Expired(s.now()) {
		s.log.InfoContext(ctx, "persisted token expired", "user_id", user.ID)
		return s.Clear(ctx)
	}

	s.set(id)
	return nil
}

// Save persists and activates a new identity.
func (s *Store) Save(ctx context.Context, user domain.User, token string) error {
	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if err := s.repo.SetMany(ctx, s.sessionID, map[string]string{
		KeyToken: token,
		KeyUser:  string(rawUser),
	}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	s.set(&Identity{User: user, Token: token, ExpiresAt: tokenExpiry(token)})
	return nil
}

// Clear forgets the identity in memory and in storage.
func (s *Store) Clear(ctx context.Context) error {
	s.set(nil)
	if err := s.repo.DeleteMany(ctx, s.sessionID, KeyToken, KeyUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Current returns the active identity. An identity whose token expired since
// it was loaded counts as absent.
func (s *Store) Current() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil || s.identity.Expired(s.now()) {
		return Identity{}, false
	}
	return *s.identity, true
}

// Token returns the bearer credential of the active identity.
func (s *Store) Token() (string, bool) {
	id, ok := s.Current()
	return id.Token, ok
}

func (s *Store) Role() domain.Role {
	id, ok := s.Current()
	if !ok {
		return domain.RoleGuest
	}
	return id.User.Role
}

func (s *Store) set(id *Identity) {
	s.mu.Lock()
	s.identity = id
	s.mu.Unlock()
}

// tokenExpiry reads the exp claim without verifying the signature; the
// backend remains the only verifier. Opaque tokens have no expiry.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
