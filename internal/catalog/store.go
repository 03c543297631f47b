package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/events"
	"golang.org/x/sync/singleflight"
)

// NotificationWindow is how long a newly added product is announced.
const NotificationWindow = 5 * time.Second

var ErrInvalidProduct = errors.New("invalid product")

// API is the remote product collaborator.
type API interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, token string, p domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, token string, p domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, token, id string) error
}

type Publisher interface {
	Publish(ctx context.Context, ev events.CatalogEvent) error
}

// Store is the product list shared by every session.
type Store struct {
	api   API
	cache cache.CatalogCache
	pub   Publisher
	log   *slog.Logger
	now   func() time.Time
	sfg   singleflight.Group // collapses concurrent refreshes
	gen   atomic.Uint64      // bumped on every invalidation

	mu       sync.RWMutex
	products []domain.Product
	loaded   bool
	newest   *domain.Product
	newestAt time.Time
}

func NewStore(api API, c cache.CatalogCache, pub Publisher, log *slog.Logger) *Store {
	return &Store{
		api:   api,
		cache: c,
		pub:   pub,
		log:   log.With("component", "catalog"),
		now:   time.Now,
	}
}

// Refresh reloads the product list, from the cache when it holds one.
func (s *Store) Refresh(ctx context.Context) error {
	_, err, _ := s.sfg.Do("catalog", func() (interface{}, error) {
		products, err := s.cache.Get(ctx)
		if err == nil {
			s.replace(products)
			return nil, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WarnContext(ctx, "catalog cache get failed", "error", err)
		}

		gen := s.gen.Load()
		products, err = s.api.ListProducts(ctx)
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		s.replace(products)

		go s.fill(products, gen)
		return nil, nil
	})
	return err
}

// All returns the full product list, loading it on first use.
func (s *Store) All(ctx context.Context) ([]domain.Product, error) {
	if !s.isLoaded() {
		if err := s.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

func (s *Store) Get(ctx context.Context, id string) (domain.Product, bool, error) {
	all, err := s.All(ctx)
	if err != nil {
		return domain.Product{}, false, err
	}
	for _, p := range all {
		if p.ID == id {
			return p, true, nil
		}
	}
	return domain.Product{}, false, nil
}

// Apply runs the filter pipeline over the full list.
func (s *Store) Apply(ctx context.Context, f Filter) ([]domain.Product, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return Apply(all, f), nil
}

func (s *Store) Categories(ctx context.Context) ([]string, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return Categories(all), nil
}

// Newest returns the latest added product while its announcement is live.
func (s *Store) Newest() (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.newest == nil || s.now().Sub(s.newestAt) >= NotificationWindow {
		return domain.Product{}, false
	}
	return *s.newest, true
}

func (s *Store) Create(ctx context.Context, token string, p domain.Product) (domain.Product, error) {
	if err := validate(p); err != nil {
		return domain.Product{}, err
	}
	created, err := s.api.CreateProduct(ctx, token, p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}

	s.upsert(*created, true)
	s.changed(ctx, events.ProductCreated, *created)
	return *created, nil
}

func (s *Store) Update(ctx context.Context, token string, p domain.Product) (domain.Product, error) {
	if p.ID == "" {
		return domain.Product{}, fmt.Errorf("%w: id is required", ErrInvalidProduct)
	}
	if err := validate(p); err != nil {
		return domain.Product{}, err
	}
	updated, err := s.api.UpdateProduct(ctx, token, p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("update product: %w", err)
	}
	if updated.ID == "" {
		updated.ID = p.ID
	}

	s.upsert(*updated, false)
	s.changed(ctx, events.ProductUpdated, *updated)
	return *updated, nil
}

func (s *Store) Delete(ctx context.Context, token, id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidProduct)
	}
	if err := s.api.DeleteProduct(ctx, token, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.remove(id)
	s.changed(ctx, events.ProductDeleted, domain.Product{ID: id})
	return nil
}

// ApplyEvent folds in a change made through another instance.
func (s *Store) ApplyEvent(ctx context.Context, ev events.CatalogEvent) error {
	switch ev.Type {
	case events.ProductCreated:
		s.upsert(ev.Product, true)
	case events.ProductUpdated:
		s.upsert(ev.Product, false)
	case events.ProductDeleted:
		s.remove(ev.Product.ID)
	default:
		return fmt.Errorf("unknown catalog event %q", ev.Type)
	}
	s.invalidate(ctx)
	return nil
}

func validate(p domain.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if p.Price <= 0 {
		return fmt.Errorf("%w: price must be greater than 0", ErrInvalidProduct)
	}
	if p.Rating != nil && (*p.Rating < 0 || *p.Rating > 5) {
		return fmt.Errorf("%w: rating must be between 0 and 5", ErrInvalidProduct)
	}
	return nil
}

func (s *Store) changed(ctx context.Context, typ events.EventType, p domain.Product) {
	s.invalidate(ctx)
	if err := s.pub.Publish(ctx, events.CatalogEvent{Type: typ, Product: p}); err != nil {
		s.log.WarnContext(ctx, "publish catalog event failed", "type", typ, "product_id", p.ID, "error", err)
	}
}

// fill writes a fetched list to the cache unless an invalidation happened
// since the fetch began. One landing during the write is undone.
func (s *Store) fill(products []domain.Product, gen uint64) {
	ctx := context.Background()
	if s.gen.Load() != gen {
		return
	}
	if err := s.cache.Set(ctx, products); err != nil {
		s.log.Warn("catalog cache set failed", "error", err)
		return
	}
	if s.gen.Load() != gen {
		if err := s.cache.Delete(ctx); err != nil {
			s.log.Warn("catalog cache delete failed", "error", err)
		}
	}
}

func (s *Store) invalidate(ctx context.Context) {
	s.gen.Add(1)
	if err := s.cache.Delete(ctx); err != nil {
		s.log.WarnContext(ctx, "catalog cache delete failed", "error", err)
	}
}

func (s *Store) isLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *Store) replace(products []domain.Product) {
	cp := make([]domain.Product, len(products))
	copy(cp, products)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = cp
	s.loaded = true
}

func (s *Store) upsert(p domain.Product, announce bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := false
	for i := range s.products {
		if s.products[i].ID == p.ID {
			s.products[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		s.products = append(s.products, p)
	}
	if announce {
		np := p
		s.newest = &np
		s.newestAt = s.now()
	}
}

func (s *Store) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.products = kept
	if s.newest != nil && s.newest.ID == id {
		s.newest = nil
	}
}
