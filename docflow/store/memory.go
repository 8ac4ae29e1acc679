// Package store provides DocumentStore implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sajha/inventory-engine/docflow"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu   sync.RWMutex
	docs map[string]*docflow.Document
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string]*docflow.Document)}
}

// Save inserts or replaces in place, guarded by the version check. The
// caller's document gets the new version on success.
func (m *Memory) Save(_ context.Context, doc *docflow.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.docs[doc.ID]; ok && existing.Version != doc.Version {
		return fmt.Errorf("%w: %s version %d (stored %d)",
			docflow.ErrConcurrentModification, doc.ID, doc.Version, existing.Version)
	}
	doc.Version++
	m.docs[doc.ID] = doc.Clone()
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*docflow.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", docflow.ErrNotFound, id)
	}
	return doc.Clone(), nil
}

// ListByKind returns copy-on-read snapshots in creation order, so a ledger
// computation over the result is unaffected by later writes.
func (m *Memory) ListByKind(_ context.Context, kind docflow.Kind, fiscalYear string) ([]*docflow.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*docflow.Document
	for _, doc := range m.docs {
		if doc.Kind != kind {
			continue
		}
		if fiscalYear != "" && doc.FiscalYear != fiscalYear {
			continue
		}
		result = append(result, doc.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return fmt.Errorf("%w: %s", docflow.ErrNotFound, id)
	}
	delete(m.docs, id)
	return nil
}
