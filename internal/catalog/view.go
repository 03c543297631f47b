package catalog

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// View is one session's filter state over the shared store. The displayed
// list is recomputed from the full list on every read.
type View struct {
	store *Store

	mu     sync.RWMutex
	filter Filter
}

func NewView(store *Store) *View {
	return &View{store: store}
}

func (v *View) Filter() Filter {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.filter
}

// SetFilter replaces the filter state and returns the new displayed list.
func (v *View) SetFilter(ctx context.Context, f Filter) ([]domain.Product, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	v.mu.Lock()
	v.filter = f
	v.mu.Unlock()
	return v.store.Apply(ctx, f)
}

func (v *View) Displayed(ctx context.Context) ([]domain.Product, error) {
	return v.store.Apply(ctx, v.Filter())
}
