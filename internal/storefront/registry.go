// Package storefront owns the per-browser-session state: who is signed in
// and what is in their cart. Stores are created on first use and torn down
// at logout.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"golang.org/x/time/rate"
)

var ErrTooManyAttempts = errors.New("too many sign-in attempts, try again shortly")

// AuthAPI is the remote sign-in collaborator.
type AuthAPI interface {
	Register(ctx context.Context, req backend.RegisterRequest) (*backend.AuthResponse, error)
	Login(ctx context.Context, req backend.LoginRequest) (*backend.AuthResponse, error)
}

// API is everything a shopper's stores call remotely.
type API interface {
	AuthAPI
	cart.API
}

// Shopper is the state of one browser session.
type Shopper struct {
	Session *session.Store
	Cart    *cart.Store
	View    *catalog.View

	lastSeen atomic.Int64 // unix nanos of the last Get
	ready    chan struct{}
	loadErr  error
}

func (sh *Shopper) touch(now time.Time) {
	sh.lastSeen.Store(now.UnixNano())
}

func (sh *Shopper) idleSince() time.Time {
	return time.Unix(0, sh.lastSeen.Load())
}

func (sh *Shopper) loaded() bool {
	select {
	case <-sh.ready:
		return true
	default:
		return false
	}
}

// attempt is the sign-in budget of one account.
type attempt struct {
	limiter *rate.Limiter
	last    time.Time
}

// Registry maps browser session IDs to shoppers.
type Registry struct {
	api     API
	repo    storage.RepoInterface
	catalog *catalog.Store
	log     *slog.Logger

	// sign-in attempts allowed per account: a burst, then one per interval
	attemptBurst    int
	attemptInterval time.Duration
	idleTimeout     time.Duration

	mu       sync.Mutex
	shoppers map[string]*Shopper
	attempts map[string]*attempt // by normalized email
}

type Option func(*Registry)

// WithIdleTimeout sets how long an unused shopper stays in memory. Its
// persisted sign-in survives eviction and is restored on the next visit.
func WithIdleTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.idleTimeout = d
		}
	}
}

// WithAttemptLimit sets the sign-in budget per account.
func WithAttemptLimit(burst int, interval time.Duration) Option {
	return func(r *Registry) {
		r.attemptBurst = burst
		r.attemptInterval = interval
	}
}

func NewRegistry(api API, repo storage.RepoInterface, cat *catalog.Store, log *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		api:             api,
		repo:            repo,
		catalog:         cat,
		log:             log.With("component", "registry"),
		attemptBurst:    5,
		attemptInterval: 10 * time.Second,
		idleTimeout:     30 * time.Minute,
		shoppers:        make(map[string]*Shopper),
		attempts:        make(map[string]*attempt),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the shopper for sid, restoring a persisted sign-in and the
// remote cart the first time the session is seen.
func (r *Registry) Get(ctx context.Context, sid string) (*Shopper, error) {
	r.mu.Lock()
	sh, ok := r.shoppers[sid]
	if !ok {
		sh = r.newShopper(sid)
		r.shoppers[sid] = sh
	}
	sh.touch(time.Now())
	r.mu.Unlock()

	if ok {
		select {
		case <-sh.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if sh.loadErr != nil {
			return nil, sh.loadErr
		}
		return sh, nil
	}

	defer close(sh.ready)
	if err := sh.Session.Load(ctx); err != nil {
		sh.loadErr = fmt.Errorf("restore session: %w", err)
		r.forget(sid, sh)
		return nil, sh.loadErr
	}
	if _, signedIn := sh.Session.Current(); signedIn {
		r.loadCart(ctx, sh)
	}
	return sh, nil
}

// Register creates an account. It never signs the shopper in.
func (r *Registry) Register(ctx context.Context, form RegisterForm) (domain.User, error) {
	if err := form.Validate(); err != nil {
		return domain.User{}, err
	}
	resp, err := r.api.Register(ctx, backend.RegisterRequest{
		Fullname: strings.TrimSpace(form.Fullname),
		Email:    strings.TrimSpace(form.Email),
		Phone:    form.Phone,
		Password: form.Password,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("register: %w", err)
	}
	r.log.InfoContext(ctx, "account registered", "user_id", resp.User.ID)
	return resp.User, nil
}

// Login signs the session in, persists the identity and loads the cart.
func (r *Registry) Login(ctx context.Context, sid string, form LoginForm) (session.Identity, error) {
	sh, err := r.Get(ctx, sid)
	if err != nil {
		return session.Identity{}, err
	}
	if err := form.Validate(); err != nil {
		return session.Identity{}, err
	}
	if !r.allowAttempt(form.Email, time.Now()) {
		return session.Identity{}, ErrTooManyAttempts
	}

	resp, err := r.api.Login(ctx, backend.LoginRequest{
		Email:    strings.TrimSpace(form.Email),
		Password: form.Password,
	})
	if err != nil {
		return session.Identity{}, fmt.Errorf("login: %w", err)
	}
	if resp.Token == "" {
		return session.Identity{}, fmt.Errorf("login: %w", &backend.RemoteError{Status: http.StatusBadGateway, Message: "No token in login response"})
	}

	if err := sh.Session.Save(ctx, resp.User, resp.Token); err != nil {
		return session.Identity{}, err
	}
	// lines held for a previous identity must never survive a failed load
	sh.Cart.Clear()
	r.loadCart(ctx, sh)

	id, _ := sh.Session.Current()
	r.log.InfoContext(ctx, "signed in", "session_id", sid, "user_id", resp.User.ID, "role", resp.User.Role.String())
	return id, nil
}

// Logout clears the persisted identity, tears the cart down and forgets
// the session. Logging out an unknown session is not an error.
func (r *Registry) Logout(ctx context.Context, sid string) error {
	r.mu.Lock()
	sh, ok := r.shoppers[sid]
	delete(r.shoppers, sid)
	r.mu.Unlock()

	if !ok {
		sh = r.newShopper(sid)
	}
	sh.Cart.Close()
	if err := sh.Session.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	r.log.InfoContext(ctx, "signed out", "session_id", sid)
	return nil
}

// Sweep evicts shoppers unused since now minus the idle timeout and drops
// sign-in budgets that have fully refilled. It returns the number of
// evicted shoppers.
func (r *Registry) Sweep(ctx context.Context, now time.Time) int {
	cutoff := now.Add(-r.idleTimeout)
	refilled := r.attemptInterval * time.Duration(r.attemptBurst)

	r.mu.Lock()
	var idle []*Shopper
	for sid, sh := range r.shoppers {
		if sh.loaded() && sh.idleSince().Before(cutoff) {
			idle = append(idle, sh)
			delete(r.shoppers, sid)
		}
	}
	for email, a := range r.attempts {
		if now.Sub(a.last) >= refilled {
			delete(r.attempts, email)
		}
	}
	r.mu.Unlock()

	for _, sh := range idle {
		sh.Cart.Close()
	}
	if len(idle) > 0 {
		r.log.DebugContext(ctx, "evicted idle sessions", "count", len(idle))
	}
	return len(idle)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Sweep(ctx, now)
		}
	}
}

func (r *Registry) allowAttempt(email string, now time.Time) bool {
	key := strings.ToLower(strings.TrimSpace(email))

	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[key]
	if !ok {
		a = &attempt{limiter: rate.NewLimiter(rate.Every(r.attemptInterval), r.attemptBurst)}
		r.attempts[key] = a
	}
	a.last = now
	return a.limiter.AllowN(now, 1)
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shoppers)
}

func (r *Registry) newShopper(sid string) *Shopper {
	sess := session.NewStore(sid, r.repo, r.log)
	return &Shopper{
		Session: sess,
		Cart:    cart.NewStore(r.api, sess, r.log),
		View:    catalog.NewView(r.catalog),
		ready:   make(chan struct{}),
	}
}

func (r *Registry) forget(sid string, sh *Shopper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.shoppers[sid] == sh {
		delete(r.shoppers, sid)
	}
}

// loadCart pulls the remote cart. Callers start from an empty cart, so a
// failure leaves it empty; the shopper can still browse and retry.
func (r *Registry) loadCart(ctx context.Context, sh *Shopper) {
	if err := sh.Cart.Load(ctx); err != nil {
		r.log.WarnContext(ctx, "initial cart load failed", "session_id", sh.Session.SessionID(), "error", err)
	}
}
