/*
catalog.go - Read-only inventory catalog

PURPOSE:
  The store's stock register. This core only READS it: when a form line
  references a catalog item by name + code, the line is enriched with the
  catalog's unit, rate, specification and classification. Stock intake
  itself is a stock-entry document approved like any other form.
*/
package supplies

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sajha/inventory-engine/docflow"
)

// =============================================================================
// CATALOG
// =============================================================================

// Item is one store-scoped stock record.
type Item struct {
	Name           string                 `json:"name"`
	Code           string                 `json:"code"`
	Classification docflow.Classification `json:"classification"`
	Specification  string                 `json:"specification,omitempty"`
	Unit           string                 `json:"unit"`
	Quantity       decimal.Decimal        `json:"quantity"`
	Rate           decimal.Decimal        `json:"rate"`
	BatchNo        string                 `json:"batch_no,omitempty"`
	Expiry         *time.Time             `json:"expiry,omitempty"`
}

// Catalog is the read-only item lookup this core consumes.
type Catalog interface {
	// Lookup finds an item by name + code (case-insensitive, trimmed).
	// Returns (nil, nil) when absent: an unknown item is not an error, the
	// line simply stays as entered.
	Lookup(ctx context.Context, name, code string) (*Item, error)

	// List returns all items, ordered by name.
	List(ctx context.Context) ([]Item, error)
}

// EnrichLine fills a line's unit, rate, specification and classification
// from the catalog where the line left them blank. Values the requester
// typed explicitly win.
func EnrichLine(ctx context.Context, catalog Catalog, line docflow.LineItem) (docflow.LineItem, error) {
	if catalog == nil {
		return line, nil
	}
	item, err := catalog.Lookup(ctx, line.ItemName, line.ItemCode)
	if err != nil || item == nil {
		return line, err
	}
	if line.Unit == "" {
		line.Unit = item.Unit
	}
	if line.Rate.IsZero() {
		line.Rate = item.Rate
	}
	if line.Specification == "" {
		line.Specification = item.Specification
	}
	if line.Classification == "" {
		line.Classification = item.Classification
	}
	return line, nil
}

// =============================================================================
// MEMORY CATALOG - for testing/dev
// =============================================================================

type MemoryCatalog struct {
	mu    sync.RWMutex
	items map[catalogKey]Item
}

type catalogKey struct {
	name string
	code string
}

func NewMemoryCatalog(items ...Item) *MemoryCatalog {
	c := &MemoryCatalog{items: make(map[catalogKey]Item, len(items))}
	for _, item := range items {
		c.Put(item)
	}
	return c
}

func (c *MemoryCatalog) Put(item Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[catalogKey{normalize(item.Name), normalize(item.Code)}] = item
}

// PutItem is Put with the store-backed catalog's signature, so either
// implementation can sit behind a writable-catalog interface.
func (c *MemoryCatalog) PutItem(_ context.Context, item Item) error {
	c.Put(item)
	return nil
}

func (c *MemoryCatalog) Lookup(_ context.Context, name, code string) (*Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[catalogKey{normalize(name), normalize(code)}]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (c *MemoryCatalog) List(_ context.Context) ([]Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Item, 0, len(c.items))
	for _, item := range c.items {
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool {
		return strings.ToLower(result[i].Name) < strings.ToLower(result[j].Name)
	})
	return result, nil
}
