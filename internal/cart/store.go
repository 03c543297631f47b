package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
	"golang.org/x/sync/semaphore"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrClosed          = errors.New("cart store is closed")
)

// API is the remote cart collaborator. Every call returns the cart as the
// server holds it after the call.
type API interface {
	GetCart(ctx context.Context, token string) (*domain.Cart, error)
	AddToCart(ctx context.Context, token, productID string, quantity int) (*domain.Cart, error)
	UpdateCart(ctx context.Context, token, productID string, quantity int) (*domain.Cart, error)
	RemoveFromCart(ctx context.Context, token, productID string) (*domain.Cart, error)
}

// Credentials yields the bearer token of the active session.
type Credentials interface {
	Token() (string, bool)
}

// Store is the cart of one browser session. The server is the source of
// truth: each successful call replaces the local cart with the server's.
//
// Calls that talk to the server run one at a time, in arrival order. Each
// call takes a sequence number; a result older than the last applied one is
// dropped, as is any result arriving after Close.
type Store struct {
	api   API
	creds Credentials
	log   *slog.Logger
	queue *semaphore.Weighted
	seq   atomic.Uint64

	mu      sync.RWMutex
	cart    *domain.Cart
	applied uint64
	closed  bool
}

func NewStore(api API, creds Credentials, log *slog.Logger) *Store {
	return &Store{
		api:   api,
		creds: creds,
		log:   log.With("component", "cart"),
		queue: semaphore.NewWeighted(1),
		cart:  &domain.Cart{Lines: []domain.CartLine{}},
	}
}

// Load replaces the local cart with the server's.
func (s *Store) Load(ctx context.Context) error {
	return s.mutate(ctx, "load", func(token string) (*domain.Cart, error) {
		return s.api.GetCart(ctx, token)
	})
}

// Add puts quantity more of product in the cart. An existing line has its
// quantity replaced by the sum; it is never duplicated.
func (s *Store) Add(ctx context.Context, product domain.Product, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	return s.mutate(ctx, "add", func(token string) (*domain.Cart, error) {
		// read under the queue so the previous mutation is already applied
		if existing, ok := s.line(product.ID); ok {
			return s.api.UpdateCart(ctx, token, product.ID, existing.Quantity+quantity)
		}
		return s.api.AddToCart(ctx, token, product.ID, quantity)
	})
}

// SetQuantity sets an absolute quantity. Use Remove to drop a line.
func (s *Store) SetQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	return s.mutate(ctx, "update", func(token string) (*domain.Cart, error) {
		return s.api.UpdateCart(ctx, token, productID, quantity)
	})
}

func (s *Store) Remove(ctx context.Context, productID string) error {
	return s.mutate(ctx, "remove", func(token string) (*domain.Cart, error) {
		return s.api.RemoveFromCart(ctx, token, productID)
	})
}

// Clear empties the local cart only; the server is not told. Results of
// calls already in flight are discarded.
func (s *Store) Clear() {
	s.reset(s.seq.Add(1))
}

// Settle runs fn with the current lines while no other call can change the
// cart. When fn succeeds the local cart is cleared.
func (s *Store) Settle(ctx context.Context, fn func(lines []domain.CartLine) error) error {
	if err := s.queue.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.queue.Release(1)

	if s.isClosed() {
		return ErrClosed
	}
	if err := fn(s.Lines()); err != nil {
		return err
	}
	s.reset(s.seq.Add(1))
	return nil
}

// Close tears the store down at logout.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cart = &domain.Cart{Lines: []domain.CartLine{}}
}

// Lines returns a copy of the current lines.
func (s *Store) Lines() []domain.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone().Lines
}

func (s *Store) Cart() *domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

func (s *Store) line(productID string) (domain.CartLine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Find(productID)
}

func (s *Store) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Store) mutate(ctx context.Context, op string, call func(token string) (*domain.Cart, error)) error {
	if s.isClosed() {
		return ErrClosed
	}
	token, ok := s.creds.Token()
	if !ok {
		return session.ErrNoSession
	}

	if err := s.queue.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.queue.Release(1)

	if s.isClosed() {
		return ErrClosed
	}

	seq := s.seq.Add(1)
	cart, err := call(token)
	if err != nil {
		s.log.WarnContext(ctx, "cart call failed", "op", op, "error", err)
		return fmt.Errorf("cart %s: %w", op, err)
	}

	if !s.apply(seq, cart) {
		s.log.DebugContext(ctx, "dropped stale cart result", "op", op, "seq", seq)
	}
	return nil
}

func (s *Store) apply(seq uint64, cart *domain.Cart) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || seq < s.applied {
		return false
	}
	s.cart = cart.Clone()
	s.applied = seq
	return true
}

func (s *Store) reset(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cart = &domain.Cart{Lines: []domain.CartLine{}}
	s.applied = seq
}
