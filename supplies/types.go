/*
Package supplies instantiates the document engine for the office-supply
forms of a Nepali public institution.

PURPOSE:
  Defines the concrete document kinds and their state machines:

    Demand (maag faram)   Pending -> Verified -> Approved -> Issued
                          Pending/Verified -> Rejected (terminal)
    Transfer (hastantaran) Pending -> Approved; Receive fills recipient
                          slots without changing status
    Return (firta)        Pending -> Approved (feeds the possession ledger)
    Maintenance           Pending -> Approved
    StockEntry            Pending -> Approved (store stock intake)

  plus the possession ledger (holdings.go), catalog enrichment (catalog.go)
  and the bulk-entry master-type lock (bulk.go).

SEE ALSO:
  - docflow: the generic engine these definitions parameterize
  - holdings.go: replay-based "who holds what" reconciliation
*/
package supplies

import (
	"github.com/sajha/inventory-engine/docflow"
)

// =============================================================================
// KINDS, STATUSES, ACTIONS
// =============================================================================

const (
	KindDemand      docflow.Kind = "demand"
	KindTransfer    docflow.Kind = "transfer"
	KindReturn      docflow.Kind = "return"
	KindMaintenance docflow.Kind = "maintenance"
	KindStockEntry  docflow.Kind = "stock_entry"
)

const (
	StatusPending  docflow.Status = "pending"
	StatusVerified docflow.Status = "verified"
	StatusApproved docflow.Status = "approved"
	StatusRejected docflow.Status = "rejected"
	StatusIssued   docflow.Status = "issued"
)

const (
	ActionVerify  docflow.Action = "verify"
	ActionApprove docflow.Action = "approve"
	ActionReject  docflow.Action = "reject"
	ActionReceive docflow.Action = "receive"
	ActionIssue   docflow.Action = "issue"
)

// =============================================================================
// DEFINITIONS - One state machine per form kind
// =============================================================================

// Definitions returns the registry the engine interprets. Role gates follow
// the office's approval chain: the storekeeper verifies demands, the
// admin/approval side approves everything, recipients acknowledge transfers.
func Definitions() []docflow.Definition {
	return []docflow.Definition{
		{
			Kind:        KindDemand,
			Initial:     StatusPending,
			Terminal:    []docflow.Status{StatusRejected, StatusIssued},
			NumberWidth: 4,
			Transitions: []docflow.Transition{
				{
					Action: ActionVerify, From: StatusPending, To: StatusVerified,
					Roles:              []docflow.Role{docflow.RoleStorekeeper, docflow.RoleAdmin},
					Slots:              []docflow.SlotID{docflow.SlotVerifier},
					RecordsFulfillment: true,
				},
				{
					Action: ActionApprove, From: StatusVerified, To: StatusApproved,
					Roles: []docflow.Role{docflow.RoleAdmin, docflow.RoleApproval, docflow.RoleSuperAdmin},
					Slots: []docflow.SlotID{docflow.SlotApprover},
				},
				// Rejection is gated to whoever would perform the next
				// expected transition in the current state.
				{
					Action: ActionReject, From: StatusPending, To: StatusRejected,
					Roles:         []docflow.Role{docflow.RoleStorekeeper, docflow.RoleAdmin},
					RequireReason: true,
				},
				{
					Action: ActionReject, From: StatusVerified, To: StatusRejected,
					Roles:         []docflow.Role{docflow.RoleAdmin, docflow.RoleApproval, docflow.RoleSuperAdmin},
					RequireReason: true,
				},
				{
					Action: ActionIssue, From: StatusApproved, To: StatusIssued,
					Roles: []docflow.Role{docflow.RoleStorekeeper, docflow.RoleAdmin},
					Slots: []docflow.SlotID{docflow.SlotRecipient},
				},
			},
		},
		{
			Kind:         KindTransfer,
			Initial:      StatusPending,
			NumberWidth:  3,
			NumberSuffix: "-HF",
			Transitions: []docflow.Transition{
				{
					Action: ActionApprove, From: StatusPending, To: StatusApproved,
					Roles: []docflow.Role{docflow.RoleAdmin, docflow.RoleApproval, docflow.RoleSuperAdmin},
					Slots: []docflow.SlotID{docflow.SlotSourcePreparer, docflow.SlotSourceApprover},
				},
				// Receiving never changes status: it fills the recipient-side
				// slots (stamped today, not the form date) and the document
				// stops being actionable once they are filled.
				{
					Action: ActionReceive, From: StatusApproved,
					Slots:      []docflow.SlotID{docflow.SlotRecipientPreparer, docflow.SlotRecipientApprover},
					StampToday: true,
					KeepStatus: true,
				},
			},
		},
		{
			Kind:         KindReturn,
			Initial:      StatusPending,
			Terminal:     []docflow.Status{StatusApproved},
			NumberWidth:  3,
			NumberSuffix: "-DA",
			Transitions: []docflow.Transition{
				// Approving a return is the only transition that feeds the
				// possession ledger (a negative contribution for the holder).
				{
					Action: ActionApprove, From: StatusPending, To: StatusApproved,
					Roles: []docflow.Role{docflow.RoleAdmin, docflow.RoleApproval, docflow.RoleSuperAdmin},
					Slots: []docflow.SlotID{docflow.SlotApprover},
				},
			},
		},
		{
			Kind:         KindMaintenance,
			Initial:      StatusPending,
			Terminal:     []docflow.Status{StatusApproved},
			NumberWidth:  3,
			NumberSuffix: "-MF",
			Transitions: []docflow.Transition{
				{
					Action: ActionApprove, From: StatusPending, To: StatusApproved,
					Roles: []docflow.Role{docflow.RoleAdmin, docflow.RoleApproval, docflow.RoleSuperAdmin},
					Slots: []docflow.SlotID{docflow.SlotApprover},
				},
			},
		},
		{
			Kind:         KindStockEntry,
			Initial:      StatusPending,
			Terminal:     []docflow.Status{StatusApproved},
			NumberWidth:  4,
			NumberSuffix: "-SE",
			Transitions: []docflow.Transition{
				{
					Action: ActionApprove, From: StatusPending, To: StatusApproved,
					Roles: []docflow.Role{docflow.RoleStorekeeper, docflow.RoleAdmin, docflow.RoleSuperAdmin},
					Slots: []docflow.SlotID{docflow.SlotApprover},
				},
			},
		},
	}
}
