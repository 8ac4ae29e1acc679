/*
engine.go - Document lifecycle operations

PURPOSE:
  Interprets a kind's Definition to run the document lifecycle:
  1. Create:   validate, number, stamp the requester slot, persist
  2. Apply:    run one role-gated transition (verify/approve/reject/receive)
  3. MarkSeen: clear the rejection flag when the requester opens the document

DOCUMENT FLOW (demand, the longest chain):

   Create          Verify              Approve
   ──────▶ Pending ──────▶ Verified ──────▶ Approved
              │                │
              └───── Reject ───┴──────▶ Rejected (terminal)

GATING:
  An action is matched against the CURRENT status: an admin acting on a
  demand in "verified" performs Approve, never Verify. The two are mutually
  exclusive by state, enforced here at the data layer.

STAMPING:
  Every transition stamps {name, designation, date} with the acting user's
  identity and the document's own business date - except transitions marked
  StampToday (recipient-side transfer slots), which use the calendar's today.

ATOMICITY:
  All validation happens before any field changes, and the store is written
  exactly once per operation. A failed save leaves the transition
  uncommitted; the caller reloads and retries.
*/
package docflow

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sajha/inventory-engine/bikram"
)

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	store DocumentStore
	defs  map[Kind]Definition
	clock Clock
}

// NewEngine creates an engine over a store and a set of kind definitions.
// A nil clock defaults to the system BS calendar.
func NewEngine(store DocumentStore, defs []Definition, clock Clock) *Engine {
	byKind := make(map[Kind]Definition, len(defs))
	for _, def := range defs {
		byKind[def.Kind] = def
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Engine{store: store, defs: byKind, clock: clock}
}

func (e *Engine) Definition(kind Kind) (Definition, error) {
	def, ok := e.defs[kind]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return def, nil
}

// =============================================================================
// CREATE
// =============================================================================

// Create validates and persists a new document: the initial status, a fresh
// creation-ordered ID, a sequential form number scoped to the document's
// fiscal year, and the requester signoff stamped with the document's own
// business date.
//
// Saving is idempotent on ID: a document that already carries an ID is
// replaced in place and keeps its number.
func (e *Engine) Create(ctx context.Context, doc *Document, actor Actor) (*Document, error) {
	def, err := e.Definition(doc.Kind)
	if err != nil {
		return nil, err
	}
	if err := validateNew(doc); err != nil {
		return nil, err
	}

	if doc.ID == "" {
		doc.Status = def.Initial
		doc.FiscalYear = bikram.FiscalYear(doc.Date)

		formNo, err := e.nextFormNo(ctx, def, doc.FiscalYear)
		if err != nil {
			return nil, err
		}
		doc.FormNo = formNo
		doc.ID = newDocumentID()
		doc.CreatedAt = time.Now().UTC()
		doc.setSlot(SlotRequester, Signoff{
			Name:        actor.Name,
			Designation: actor.Designation,
			Date:        doc.Date,
		})
	}
	doc.UpdatedAt = time.Now().UTC()

	if err := e.store.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// nextFormNo is pure over the committed register: no counter is stored, so
// re-reads are side-effect free and collisions surface at save time.
func (e *Engine) nextFormNo(ctx context.Context, def Definition, fiscalYear string) (string, error) {
	docs, err := e.store.ListByKind(ctx, def.Kind, fiscalYear)
	if err != nil {
		return "", fmt.Errorf("failed to list %s register: %w", def.Kind, err)
	}
	existing := make([]string, 0, len(docs))
	for _, d := range docs {
		existing = append(existing, d.FormNo)
	}
	return NextFormNo(existing, def.NumberWidth, def.NumberSuffix), nil
}

func validateNew(doc *Document) error {
	if err := doc.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Reason: err.Error()}
	}
	if len(doc.Lines) == 0 {
		return &ValidationError{Field: "lines", Reason: "at least one line item is required"}
	}
	for i, line := range doc.Lines {
		if strings.TrimSpace(line.ItemName) == "" {
			return &ValidationError{Field: fmt.Sprintf("lines[%d].item_name", i), Reason: "item name is required"}
		}
	}
	return nil
}

// newDocumentID returns an opaque, creation-ordered token. The sequence
// suffix keeps IDs unique on coarse-clock platforms.
var docSeq atomic.Uint64

func newDocumentID() string {
	return fmt.Sprintf("doc-%d-%04d", time.Now().UnixNano(), docSeq.Add(1))
}

// =============================================================================
// APPLY - One role-gated transition
// =============================================================================

// ApplyOptions carries transition-specific input.
type ApplyOptions struct {
	// Reason is mandatory for reject transitions.
	Reason string

	// Fulfillment is mandatory for demand verification.
	Fulfillment *Fulfillment
}

// Apply runs one transition on a stored document. All checks run before any
// mutation; the document is persisted exactly once on success.
func (e *Engine) Apply(ctx context.Context, id string, action Action, actor Actor, opts ApplyOptions) (*Document, error) {
	doc, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	def, err := e.Definition(doc.Kind)
	if err != nil {
		return nil, err
	}

	if def.isTerminal(doc.Status) {
		return nil, &ValidationError{
			Field:  "status",
			Reason: fmt.Sprintf("%s is %s and accepts no further transitions", doc.Kind, doc.Status),
		}
	}

	tr, err := matchTransition(def, doc, action)
	if err != nil {
		return nil, err
	}
	if !tr.permits(actor.Role) {
		return nil, &TransitionError{Kind: doc.Kind, Status: doc.Status, Action: action, Role: actor.Role}
	}
	if tr.RequireReason && strings.TrimSpace(opts.Reason) == "" {
		return nil, &ValidationError{Field: "reason", Reason: "a rejection reason is required"}
	}
	if tr.RecordsFulfillment && opts.Fulfillment == nil {
		return nil, &ValidationError{Field: "fulfillment", Reason: "a stock-vs-market decision is required"}
	}

	// Validation complete; mutate and persist once.
	stampDate := doc.Date
	if tr.StampToday {
		stampDate = e.clock.Today()
	}
	for _, slot := range tr.Slots {
		doc.setSlot(slot, Signoff{Name: actor.Name, Designation: actor.Designation, Date: stampDate})
	}
	if tr.RequireReason {
		doc.Rejection = &Rejection{
			Reason:            strings.TrimSpace(opts.Reason),
			By:                actor.Name,
			Date:              stampDate,
			UnseenByRequester: true,
		}
	}
	if tr.RecordsFulfillment {
		doc.Fulfillment = opts.Fulfillment
	}
	if !tr.KeepStatus {
		doc.Status = tr.To
	}
	doc.UpdatedAt = time.Now().UTC()

	if err := e.store.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// matchTransition finds the definition row for (action, current status).
// A known action in the wrong status is a validation error, to keep
// Verify/Approve mutually exclusive by state.
func matchTransition(def Definition, doc *Document, action Action) (Transition, error) {
	known := false
	for _, tr := range def.Transitions {
		if tr.Action != action {
			continue
		}
		known = true
		if tr.From != doc.Status {
			continue
		}
		if tr.KeepStatus && slotsFilled(doc, tr.Slots) {
			return Transition{}, &ValidationError{
				Field:  string(action),
				Reason: "already recorded; slots are filled",
			}
		}
		return tr, nil
	}
	if known {
		return Transition{}, &ValidationError{
			Field:  "status",
			Reason: fmt.Sprintf("action %q is not valid while %s is %s", action, doc.Kind, doc.Status),
		}
	}
	return Transition{}, fmt.Errorf("%w: action %q on kind %q", ErrValidation, action, doc.Kind)
}

func slotsFilled(doc *Document, slots []SlotID) bool {
	if len(slots) == 0 {
		return false
	}
	for _, slot := range slots {
		if doc.Slot(slot) == nil {
			return false
		}
	}
	return true
}

// =============================================================================
// MARK SEEN - The only notification mechanism
// =============================================================================

// MarkSeen clears the rejection's unseen flag the first time the requester
// opens the document. Idempotent; a no-op for unrejected documents.
func (e *Engine) MarkSeen(ctx context.Context, id string) (*Document, error) {
	doc, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Rejection == nil || !doc.Rejection.UnseenByRequester {
		return doc, nil
	}
	doc.Rejection.UnseenByRequester = false
	doc.UpdatedAt = time.Now().UTC()
	if err := e.store.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}
