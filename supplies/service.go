/*
service.go - Form orchestration over the document engine

PURPOSE:
  The one entry point the HTTP layer (or any other host) calls. Wraps the
  generic engine with the supply-office specifics:
  - catalog enrichment of new line items
  - the per-kind actions (verify/approve/reject/receive/issue)
  - administrative demand deletion
  - the possession-ledger query over a consistent snapshot

WRITE SEMANTICS:
  Each operation persists at most once, via the engine. A save that fails
  (including the version check) leaves nothing committed; the caller
  reloads and retries.
*/
package supplies

import (
	"context"
	"fmt"

	"github.com/sajha/inventory-engine/docflow"
)

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	engine  *docflow.Engine
	store   docflow.DocumentStore
	catalog Catalog
}

// NewService wires the engine with the supply-form definitions. catalog may
// be nil, in which case lines are stored exactly as entered.
func NewService(store docflow.DocumentStore, catalog Catalog, clock docflow.Clock) *Service {
	return &Service{
		engine:  docflow.NewEngine(store, Definitions(), clock),
		store:   store,
		catalog: catalog,
	}
}

// =============================================================================
// CREATION AND READS
// =============================================================================

// Create enriches the document's lines from the catalog and persists it.
// Stock entries additionally pass the bulk master-type lock: one entry may
// only mix items of a single classification.
func (s *Service) Create(ctx context.Context, doc *docflow.Document, actor docflow.Actor) (*docflow.Document, error) {
	var bulk BulkEntry
	for i, line := range doc.Lines {
		enriched, err := EnrichLine(ctx, s.catalog, line)
		if err != nil {
			return nil, fmt.Errorf("failed to enrich line %d: %w", i, err)
		}
		if doc.Kind == KindStockEntry {
			if enriched, err = bulk.ApplyRow(enriched); err != nil {
				return nil, err
			}
		}
		doc.Lines[i] = enriched
	}
	return s.engine.Create(ctx, doc, actor)
}

func (s *Service) Get(ctx context.Context, id string) (*docflow.Document, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, kind docflow.Kind, fiscalYear string) ([]*docflow.Document, error) {
	return s.store.ListByKind(ctx, kind, fiscalYear)
}

// Open returns the document and clears the rejection's unseen flag: opening
// the form is the requester's only notification channel.
func (s *Service) Open(ctx context.Context, id string) (*docflow.Document, error) {
	return s.engine.MarkSeen(ctx, id)
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Verify records the storekeeper's stock-vs-market decision on a demand.
func (s *Service) Verify(ctx context.Context, id string, actor docflow.Actor, decision docflow.Fulfillment) (*docflow.Document, error) {
	return s.engine.Apply(ctx, id, ActionVerify, actor, docflow.ApplyOptions{Fulfillment: &decision})
}

func (s *Service) Approve(ctx context.Context, id string, actor docflow.Actor) (*docflow.Document, error) {
	return s.engine.Apply(ctx, id, ActionApprove, actor, docflow.ApplyOptions{})
}

func (s *Service) Reject(ctx context.Context, id string, actor docflow.Actor, reason string) (*docflow.Document, error) {
	return s.engine.Apply(ctx, id, ActionReject, actor, docflow.ApplyOptions{Reason: reason})
}

// Receive acknowledges a transfer on the recipient side.
func (s *Service) Receive(ctx context.Context, id string, actor docflow.Actor) (*docflow.Document, error) {
	return s.engine.Apply(ctx, id, ActionReceive, actor, docflow.ApplyOptions{})
}

// Issue hands an approved demand's items to the holder. From this point the
// demand's non-expendable lines count in the possession ledger.
func (s *Service) Issue(ctx context.Context, id string, actor docflow.Actor) (*docflow.Document, error) {
	return s.engine.Apply(ctx, id, ActionIssue, actor, docflow.ApplyOptions{})
}

// =============================================================================
// ADMINISTRATIVE DELETE - Demand only
// =============================================================================

// DeleteDemand removes a demand regardless of state. No other kind is ever
// physically deleted.
func (s *Service) DeleteDemand(ctx context.Context, id string) error {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if doc.Kind != KindDemand {
		return &docflow.ValidationError{
			Field:  "kind",
			Reason: fmt.Sprintf("only demand forms may be deleted, not %s", doc.Kind),
		}
	}
	return s.store.Delete(ctx, id)
}

// =============================================================================
// POSSESSION LEDGER
// =============================================================================

// Holdings recomputes current holder balances from a fresh snapshot of all
// demand and return documents across every fiscal year.
func (s *Service) Holdings(ctx context.Context) (map[Key]Holding, error) {
	demands, err := s.store.ListByKind(ctx, KindDemand, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load demand register: %w", err)
	}
	returns, err := s.store.ListByKind(ctx, KindReturn, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load return register: %w", err)
	}
	return ComputeHoldings(demands, returns), nil
}
