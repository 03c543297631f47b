package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type SortOrder string

const (
	SortNone SortOrder = ""
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

var (
	ErrInvalidPriceRange = errors.New("invalid price range")
	ErrInvalidRating     = errors.New("rating must be between 0 and 5")
	ErrInvalidSort       = errors.New("sort must be asc or desc")
)

// PriceRange is inclusive on both ends.
type PriceRange struct {
	Min float64
	Max float64
}

func (r PriceRange) Contains(price float64) bool {
	return price >= r.Min && price <= r.Max
}

// ParsePriceRange reads the "min-max" form. "all" and "" mean no price filter.
func ParsePriceRange(s string) (*PriceRange, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return nil, nil
	}
	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriceRange, s)
	}
	lower, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriceRange, s)
	}
	upper, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriceRange, s)
	}
	if lower < 0 || upper < lower {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriceRange, s)
	}
	return &PriceRange{Min: lower, Max: upper}, nil
}

func ParseSort(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case SortNone, SortAsc, SortDesc:
		return o, nil
	default:
		return SortNone, fmt.Errorf("%w: %q", ErrInvalidSort, s)
	}
}

// Filter is the displayed-list state. Zero values disable each predicate.
type Filter struct {
	Category  string
	Price     *PriceRange
	MinRating float64
	Sort      SortOrder
}

func (f Filter) Validate() error {
	if f.MinRating < 0 || f.MinRating > 5 {
		return ErrInvalidRating
	}
	if _, err := ParseSort(string(f.Sort)); err != nil {
		return err
	}
	return nil
}

// Apply returns the products matching every predicate of f, optionally
// sorted by name. The input is not modified.
func Apply(products []domain.Product, f Filter) []domain.Product {
	category := strings.ToLower(strings.TrimSpace(f.Category))
	if category == "all" {
		category = ""
	}

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if category != "" && p.CategoryKey() != category {
			continue
		}
		if f.Price != nil && !f.Price.Contains(p.Price) {
			continue
		}
		if f.MinRating > 0 && p.RatingValue() < f.MinRating {
			continue
		}
		out = append(out, p)
	}

	switch f.Sort {
	case SortAsc:
		slices.SortStableFunc(out, compareNames)
	case SortDesc:
		slices.SortStableFunc(out, func(a, b domain.Product) int { return compareNames(b, a) })
	}
	return out
}

func compareNames(a, b domain.Product) int {
	if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}

// Categories lists distinct normalized categories in order of first
// appearance. Blank categories are skipped.
func Categories(products []domain.Product) []string {
	seen := make(map[string]struct{}, len(products))
	out := []string{}
	for _, p := range products {
		key := p.CategoryKey()
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}
