/*
holdings.go - Possession ledger: who currently holds what

PURPOSE:
  Derives current holder balances purely by replaying issuance and return
  events. There is NO persisted running balance - every query recomputes the
  map from the document snapshot, so the answer can never drift from the
  event log.

ALGORITHM:
  1. Every line of an issued demand contributes +quantity to the bucket
     keyed by (item name, item code, holder), all lower-cased and trimmed.
     Only non-expendable lines participate: expendables are consumed, never
     held.
  2. Every line of an approved return subtracts quantity from the same key,
     matched by item + code + the RETURNING holder's name.
  3. Keys whose net quantity is zero or negative disappear: they are no
     longer held and must not appear in the available-for-return list.

ORDERING:
  Pure summation - commutative and associative over events - so no event
  ordering is needed and the calendar is not involved.

LENIENCY:
  A return against a key with no prior issuance is a no-op, not an error:
  returns may reference stock issued before the system's records begin.
  See DESIGN.md for the open question on stricter auditing.
*/
package supplies

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sajha/inventory-engine/docflow"
)

// =============================================================================
// POSSESSION KEY AND HOLDING
// =============================================================================

// Key aggregates ledger balances per (item, code, holder), normalized to
// lower case and trimmed. At most one balance exists per key.
type Key struct {
	Item   string
	Code   string
	Holder string
}

// NewKey normalizes the triple.
func NewKey(item, code, holder string) Key {
	return Key{
		Item:   normalize(item),
		Code:   normalize(code),
		Holder: normalize(holder),
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Holding is one net positive balance.
type Holding struct {
	Key          Key
	ItemName     string // display form, from the first issuance seen
	ItemCode     string
	HolderName   string
	Quantity     decimal.Decimal
	Unit         string
	Rate         decimal.Decimal
	SourceFormNo string
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// ComputeHoldings replays demand issuances and approved returns into current
// balances. Pure: it reads the snapshot it is given and mutates nothing, so
// callers may cache or discard the result freely.
func ComputeHoldings(demands, returns []*docflow.Document) map[Key]Holding {
	holdings := make(map[Key]Holding)

	for _, doc := range demands {
		if doc.Kind != KindDemand || doc.Status != StatusIssued {
			continue
		}
		for _, line := range doc.Lines {
			if line.Classification != docflow.NonExpendable {
				continue
			}
			key := NewKey(line.ItemName, line.ItemCode, doc.HolderName)
			h, ok := holdings[key]
			if !ok {
				h = Holding{
					Key:          key,
					ItemName:     line.ItemName,
					ItemCode:     line.ItemCode,
					HolderName:   doc.HolderName,
					Unit:         line.Unit,
					Rate:         line.Rate,
					SourceFormNo: doc.FormNo,
				}
			}
			h.Quantity = h.Quantity.Add(line.Quantity)
			holdings[key] = h
		}
	}

	for _, doc := range returns {
		if doc.Kind != KindReturn || doc.Status != StatusApproved {
			continue
		}
		for _, line := range doc.Lines {
			key := NewKey(line.ItemName, line.ItemCode, doc.HolderName)
			h, ok := holdings[key]
			if !ok {
				// Orphan return: no prior issuance on record. Deliberately a
				// no-op rather than an error.
				continue
			}
			h.Quantity = h.Quantity.Sub(line.Quantity)
			holdings[key] = h
		}
	}

	// Only strictly positive balances are "held".
	for key, h := range holdings {
		if !h.Quantity.IsPositive() {
			delete(holdings, key)
		}
	}
	return holdings
}
