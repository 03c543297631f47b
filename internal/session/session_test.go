package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStorage struct {
	m      sync.Mutex
	values map[string]string
	err    error
}

func newMockStorage() *mockStorage {
	return &mockStorage{values: make(map[string]string)}
}

func (s *mockStorage) Get(_ context.Context, sessionID, key string) (string, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.err != nil {
		return "", s.err
	}
	v, ok := s.values[sessionID+"/"+key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (s *mockStorage) SetMany(_ context.Context, sessionID string, values map[string]string) error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.err != nil {
		return s.err
	}
	for k, v := range values {
		s.values[sessionID+"/"+k] = v
	}
	return nil
}

func (s *mockStorage) DeleteMany(_ context.Context, sessionID string, keys ...string) error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.err != nil {
		return s.err
	}
	for _, k := range keys {
		delete(s.values, sessionID+"/"+k)
	}
	return nil
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(exp)}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return token
}

var asha = domain.User{ID: "u1", Fullname: "Asha", Email: "asha@example.com", Role: domain.RoleUser}

func TestSaveThenLoad(t *testing.T) {
	repo := newMockStorage()
	ctx := context.Background()
	token := signedToken(t, time.Now().Add(time.Hour))

	require.NoError(t, NewStore("s1", repo, logger.Discard()).Save(ctx, asha, token))

	restored := NewStore("s1", repo, logger.Discard())
	require.NoError(t, restored.Load(ctx))

	id, ok := restored.Current()
	require.True(t, ok)
	assert.Equal(t, asha, id.User)
	assert.Equal(t, token, id.Token)
	assert.False(t, id.ExpiresAt.IsZero())
	assert.Equal(t, domain.RoleUser, restored.Role())
}

func TestLoad_Empty(t *testing.T) {
	s := NewStore("s1", newMockStorage(), logger.Discard())
	require.NoError(t, s.Load(context.Background()))

	_, ok := s.Current()
	assert.False(t, ok)
	assert.Equal(t, domain.RoleGuest, s.Role())
}

func TestLoad_RequiresBothKeys(t *testing.T) {
	repo := newMockStorage()
	repo.values["s1/"+KeyToken] = "opaque"

	s := NewStore("s1", repo, logger.Discard())
	require.NoError(t, s.Load(context.Background()))

	_, ok := s.Token()
	assert.False(t, ok)
}

func TestLoad_ExpiredTokenIsCleared(t *testing.T) {
	repo := newMockStorage()
	ctx := context.Background()
	require.NoError(t, NewStore("s1", repo, logger.Discard()).Save(ctx, asha, signedToken(t, time.Now().Add(-time.Minute))))

	s := NewStore("s1", repo, logger.Discard())
	require.NoError(t, s.Load(ctx))

	_, ok := s.Current()
	assert.False(t, ok)
	assert.Empty(t, repo.values)
}

func TestLoad_CorruptUserIsCleared(t *testing.T) {
	repo := newMockStorage()
	repo.values["s1/"+KeyToken] = "opaque"
	repo.values["s1/"+KeyUser] = "{not json"

	s := NewStore("s1", repo, logger.Discard())
	require.NoError(t, s.Load(context.Background()))
	assert.Empty(t, repo.values)
}

func TestOpaqueTokenNeverExpires(t *testing.T) {
	s := NewStore("s1", newMockStorage(), logger.Discard())
	require.NoError(t, s.Save(context.Background(), asha, "not-a-jwt"))

	id, ok := s.Current()
	require.True(t, ok)
	assert.True(t, id.ExpiresAt.IsZero())
}

func TestCurrent_ExpiresWhileActive(t *testing.T) {
	s := NewStore("s1", newMockStorage(), logger.Discard())
	require.NoError(t, s.Save(context.Background(), asha, signedToken(t, time.Now().Add(time.Hour))))

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, ok := s.Current()
	assert.False(t, ok)
}

func TestClear_RemovesBothKeys(t *testing.T) {
	repo := newMockStorage()
	ctx := context.Background()
	s := NewStore("s1", repo, logger.Discard())
	require.NoError(t, s.Save(ctx, asha, "tok"))
	require.Len(t, repo.values, 2)

	require.NoError(t, s.Clear(ctx))

	assert.Empty(t, repo.values)
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestSave_StorageFailureKeepsPreviousIdentity(t *testing.T) {
	repo := newMockStorage()
	ctx := context.Background()
	s := NewStore("s1", repo, logger.Discard())
	require.NoError(t, s.Save(ctx, asha, "first"))

	repo.err = errors.New("disk full")
	err := s.Save(ctx, domain.User{ID: "u2"}, "second")
	require.Error(t, err)

	token, ok := s.Token()
	require.True(t, ok)
	assert.Equal(t, "first", token)
}
