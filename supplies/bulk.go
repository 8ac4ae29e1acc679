/*
bulk.go - Bulk-entry master-type lock

PURPOSE:
  Stock-entry forms are keyed in row by row, and a single form may only mix
  items of one classification: once the first classified row is entered, the
  form is locked to that classification. The lock is an explicit small state
  object passed into row updates, not something inferred from row position.
*/
package supplies

import (
	"fmt"

	"github.com/sajha/inventory-engine/docflow"
)

// BulkEntry tracks the classification a bulk entry is locked to. The zero
// value is unlocked.
type BulkEntry struct {
	masterType *docflow.Classification
}

// MasterType returns the locked classification, or "" while unlocked.
func (b *BulkEntry) MasterType() docflow.Classification {
	if b.masterType == nil {
		return ""
	}
	return *b.masterType
}

// ApplyRow validates a row against the lock. The first classified row sets
// the master type; later rows must match it. Unclassified rows inherit it.
func (b *BulkEntry) ApplyRow(line docflow.LineItem) (docflow.LineItem, error) {
	if line.Classification == "" {
		line.Classification = b.MasterType()
		return line, nil
	}
	if b.masterType == nil {
		ct := line.Classification
		b.masterType = &ct
		return line, nil
	}
	if line.Classification != *b.masterType {
		return line, &docflow.ValidationError{
			Field: "classification",
			Reason: fmt.Sprintf("entry is locked to %q, row has %q",
				*b.masterType, line.Classification),
		}
	}
	return line, nil
}

// Reset unlocks the entry, e.g. when all rows are cleared.
func (b *BulkEntry) Reset() {
	b.masterType = nil
}
