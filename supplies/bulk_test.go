package supplies_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sajha/inventory-engine/docflow"
	"github.com/sajha/inventory-engine/supplies"
)

func TestBulkEntry_FirstClassifiedRowLocks(t *testing.T) {
	var entry supplies.BulkEntry
	assert.Equal(t, docflow.Classification(""), entry.MasterType())

	_, err := entry.ApplyRow(docflow.LineItem{ItemName: "Chair", Classification: docflow.NonExpendable})
	require.NoError(t, err)
	assert.Equal(t, docflow.NonExpendable, entry.MasterType())
}

func TestBulkEntry_MismatchedRowRejected(t *testing.T) {
	var entry supplies.BulkEntry
	_, err := entry.ApplyRow(docflow.LineItem{ItemName: "Chair", Classification: docflow.NonExpendable})
	require.NoError(t, err)

	_, err = entry.ApplyRow(docflow.LineItem{ItemName: "Paper", Classification: docflow.Expendable})
	assert.ErrorIs(t, err, docflow.ErrValidation)
}

func TestBulkEntry_UnclassifiedRowInheritsLock(t *testing.T) {
	var entry supplies.BulkEntry
	_, err := entry.ApplyRow(docflow.LineItem{ItemName: "Chair", Classification: docflow.NonExpendable})
	require.NoError(t, err)

	line, err := entry.ApplyRow(docflow.LineItem{ItemName: "Table"})
	require.NoError(t, err)
	assert.Equal(t, docflow.NonExpendable, line.Classification)
}

func TestBulkEntry_ResetUnlocks(t *testing.T) {
	var entry supplies.BulkEntry
	_, err := entry.ApplyRow(docflow.LineItem{ItemName: "Chair", Classification: docflow.NonExpendable})
	require.NoError(t, err)

	entry.Reset()
	_, err = entry.ApplyRow(docflow.LineItem{ItemName: "Paper", Classification: docflow.Expendable})
	require.NoError(t, err)
	assert.Equal(t, docflow.Expendable, entry.MasterType())
}
