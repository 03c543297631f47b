package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const CatalogTopic = "storefront-catalog"

type EventType string

const (
	ProductCreated EventType = "created"
	ProductUpdated EventType = "updated"
	ProductDeleted EventType = "deleted"
)

// CatalogEvent announces a product change made through one storefront
// instance. Source is the publishing instance; a deleted product carries
// only its ID.
type CatalogEvent struct {
	Type    EventType      `json:"type"`
	Product domain.Product `json:"product"`
	Source  string         `json:"source"`
	At      time.Time      `json:"at"`
}

func (e CatalogEvent) validate() error {
	switch e.Type {
	case ProductCreated, ProductUpdated, ProductDeleted:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.Product.ID == "" {
		return fmt.Errorf("%s event without product id", e.Type)
	}
	return nil
}

func decode(data []byte) (CatalogEvent, error) {
	var ev CatalogEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return CatalogEvent{}, fmt.Errorf("decode catalog event: %w", err)
	}
	if err := ev.validate(); err != nil {
		return CatalogEvent{}, err
	}
	return ev, nil
}
