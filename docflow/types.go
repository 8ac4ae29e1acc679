/*
Package docflow provides the generic document approval engine.

PURPOSE:
  This package contains the kind-agnostic types and algorithms shared by
  every form in the system. Whether the document is a demand, a transfer, a
  return or a maintenance request, the same engine handles creation,
  sequential numbering, role-gated transitions and signoff stamping.

KEY CONCEPTS IN THIS FILE (types.go):
  - Document: one form instance with status, line items and signoff slots
  - Signoff: a typed {name, designation, date} stamp for one slot
  - Definition/Transition: the per-kind state machine the engine interprets
  - Actor/Role: who is acting and which transitions their role gates

DESIGN PRINCIPLES:
  1. Transitions are data, not code: a domain package registers a Definition
     per kind and the engine interprets it. Mutually-exclusive actions are
     enforced by the current status, never by UI visibility.
  2. Slots are typed optional records, one field each, not an untyped bag.
  3. All-or-nothing: every validation runs before any field is stamped.
  4. Precision: quantities and rates use decimal.Decimal.

SEE ALSO:
  - engine.go: Create/Apply/MarkSeen operations
  - numbering.go: fiscal-year-scoped sequential form numbers
  - store/memory.go: in-memory DocumentStore
  - supplies: the per-kind Definitions this engine interprets
*/
package docflow

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sajha/inventory-engine/bikram"
)

// =============================================================================
// IDENTIFIERS AND ENUMS
// =============================================================================

type Kind string
type Status string
type Action string
type Role string
type SlotID string

// The fixed role enumeration. Enforcement is a precondition check on each
// transition, not a capability object.
const (
	RoleStorekeeper Role = "storekeeper"
	RoleAdmin       Role = "admin"
	RoleSuperAdmin  Role = "superadmin"
	RoleApproval    Role = "approval"
	RoleStaff       Role = "staff"
)

// Signoff slots shared across kinds. A kind uses only the slots its
// transitions name.
const (
	SlotRequester         SlotID = "requester"
	SlotRecommender       SlotID = "recommender"
	SlotVerifier          SlotID = "verifier"
	SlotApprover          SlotID = "approver"
	SlotRecipient         SlotID = "recipient"
	SlotSourcePreparer    SlotID = "source_preparer"
	SlotSourceApprover    SlotID = "source_approver"
	SlotRecipientPreparer SlotID = "recipient_preparer"
	SlotRecipientApprover SlotID = "recipient_approver"
)

// Actor identifies who is performing a transition.
type Actor struct {
	Name        string
	Designation string
	Role        Role
}

// Signoff is one filled slot. Empty slots are absent from Document.Slots.
type Signoff struct {
	Name        string      `json:"name"`
	Designation string      `json:"designation"`
	Date        bikram.Date `json:"date"`
}

// =============================================================================
// LINE ITEMS
// =============================================================================

// Classification splits catalog items into consumables and tracked assets.
// Only non-expendable items participate in possession accounting.
type Classification string

const (
	Expendable    Classification = "expendable"
	NonExpendable Classification = "non_expendable"
)

type LineItem struct {
	ItemName       string          `json:"item_name"`
	ItemCode       string          `json:"item_code"`
	Specification  string          `json:"specification,omitempty"`
	Unit           string          `json:"unit,omitempty"`
	Classification Classification  `json:"classification,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	Rate           decimal.Decimal `json:"rate"`
	Remarks        string          `json:"remarks,omitempty"`
}

// =============================================================================
// DOCUMENT - One form instance
// =============================================================================

// Rejection is recorded by a reject transition. UnseenByRequester is the only
// notification mechanism: it clears the first time the requester opens the
// document.
type Rejection struct {
	Reason            string      `json:"reason"`
	By                string      `json:"by"`
	Date              bikram.Date `json:"date"`
	UnseenByRequester bool        `json:"unseen_by_requester"`
}

// Fulfillment records the storekeeper's verify-time decision on a demand:
// issue from an existing store or procure from the market.
type Fulfillment struct {
	FromStock bool   `json:"from_stock"`
	StoreName string `json:"store_name,omitempty"`
	Category  string `json:"category,omitempty"`
}

type Document struct {
	ID         string      `json:"id"` // opaque, creation-ordered
	Kind       Kind        `json:"kind"`
	FiscalYear string      `json:"fiscal_year"`
	FormNo     string      `json:"form_no"`
	Date       bikram.Date `json:"date"` // the document's own business date
	Status     Status      `json:"status"`

	Lines []LineItem          `json:"lines"`
	Slots map[SlotID]*Signoff `json:"slots,omitempty"`

	Rejection   *Rejection   `json:"rejection,omitempty"`
	Fulfillment *Fulfillment `json:"fulfillment,omitempty"`

	// Transfer endpoints; empty for other kinds.
	SourceOffice string `json:"source_office,omitempty"`
	TargetOffice string `json:"target_office,omitempty"`

	// HolderName is who receives issued demand items (possession accounting).
	HolderName string `json:"holder_name,omitempty"`

	// Version supports compare-and-set saves (ErrConcurrentModification).
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Slot returns the signoff for a slot, or nil when unfilled.
func (d *Document) Slot(id SlotID) *Signoff {
	if d.Slots == nil {
		return nil
	}
	return d.Slots[id]
}

func (d *Document) setSlot(id SlotID, s Signoff) {
	if d.Slots == nil {
		d.Slots = make(map[SlotID]*Signoff)
	}
	d.Slots[id] = &s
}

// Clone returns a deep copy. Stores hand out clones so an in-flight ledger
// computation never observes a later mutation (copy-on-read snapshots).
func (d *Document) Clone() *Document {
	cp := *d
	cp.Lines = append([]LineItem(nil), d.Lines...)
	if d.Slots != nil {
		cp.Slots = make(map[SlotID]*Signoff, len(d.Slots))
		for id, s := range d.Slots {
			sc := *s
			cp.Slots[id] = &sc
		}
	}
	if d.Rejection != nil {
		r := *d.Rejection
		cp.Rejection = &r
	}
	if d.Fulfillment != nil {
		f := *d.Fulfillment
		cp.Fulfillment = &f
	}
	return &cp
}

// =============================================================================
// DEFINITION - Per-kind state machine, interpreted by the engine
// =============================================================================

// Transition describes one legal action.
type Transition struct {
	Action Action
	From   Status
	To     Status

	// Roles allowed to perform the action. Empty means any role.
	Roles []Role

	// Slots stamped with the acting user's identity.
	Slots []SlotID

	// StampToday stamps the engine clock's today instead of the document's
	// business date (recipient-side transfer slots).
	StampToday bool

	// KeepStatus leaves Status unchanged; the transition only fills slots.
	// Re-applying once its slots are filled is a validation error.
	KeepStatus bool

	// RequireReason demands a non-empty reason and records a Rejection.
	RequireReason bool

	// RecordsFulfillment demands a Fulfillment decision (demand verify).
	RecordsFulfillment bool
}

func (t Transition) permits(role Role) bool {
	if len(t.Roles) == 0 {
		return true
	}
	for _, r := range t.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Definition is everything the engine needs to run one document kind.
type Definition struct {
	Kind    Kind
	Initial Status

	// Terminal statuses accept no further transitions.
	Terminal []Status

	// Form numbering: zero-pad width and type suffix ("-HF" etc).
	NumberWidth  int
	NumberSuffix string

	Transitions []Transition
}

func (d Definition) isTerminal(s Status) bool {
	for _, t := range d.Terminal {
		if t == s {
			return true
		}
	}
	return false
}

// =============================================================================
// STORES
// =============================================================================

// DocumentStore persists documents. Save is last-writer-wins per ID, guarded
// by a Version compare-and-set: a stale Version fails with
// ErrConcurrentModification and nothing is written.
type DocumentStore interface {
	// Save inserts or replaces the document (idempotent on ID) and bumps
	// Version on success.
	Save(ctx context.Context, doc *Document) error

	// Get returns a copy of the document, or ErrNotFound.
	Get(ctx context.Context, id string) (*Document, error)

	// ListByKind returns copies of all documents of a kind in a fiscal year,
	// in creation order. Empty fiscalYear means all fiscal years.
	ListByKind(ctx context.Context, kind Kind, fiscalYear string) ([]*Document, error)

	// Delete removes a document. Only demand forms are administratively
	// deletable; callers enforce that precondition.
	Delete(ctx context.Context, id string) error
}

// Clock supplies "today" in BS. Swappable for tests.
type Clock interface {
	Today() bikram.Date
}

// SystemClock uses the bikram calendar's notion of today.
type SystemClock struct{}

func (SystemClock) Today() bikram.Date { return bikram.Today() }
