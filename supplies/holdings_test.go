package supplies_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sajha/inventory-engine/bikram"
	"github.com/sajha/inventory-engine/docflow"
	"github.com/sajha/inventory-engine/supplies"
)

// =============================================================================
// FIXTURES
// =============================================================================

func issuedDemand(formNo, holder, item, code string, qty int64) *docflow.Document {
	return &docflow.Document{
		ID:         "d-" + formNo,
		Kind:       supplies.KindDemand,
		Status:     supplies.StatusIssued,
		FormNo:     formNo,
		HolderName: holder,
		Date:       bikram.Date{Year: 2081, Month: 4, Day: 5},
		Lines: []docflow.LineItem{{
			ItemName:       item,
			ItemCode:       code,
			Unit:           "pcs",
			Classification: docflow.NonExpendable,
			Quantity:       decimal.NewFromInt(qty),
			Rate:           decimal.NewFromInt(1500),
		}},
	}
}

func approvedReturn(formNo, holder, item, code string, qty int64) *docflow.Document {
	return &docflow.Document{
		ID:         "r-" + formNo,
		Kind:       supplies.KindReturn,
		Status:     supplies.StatusApproved,
		FormNo:     formNo,
		HolderName: holder,
		Date:       bikram.Date{Year: 2081, Month: 6, Day: 5},
		Lines: []docflow.LineItem{{
			ItemName: item,
			ItemCode: code,
			Quantity: decimal.NewFromInt(qty),
		}},
	}
}

// =============================================================================
// CONSERVATION
// =============================================================================

func TestComputeHoldings_IssueMinusReturn(t *testing.T) {
	// GIVEN: 5 chairs issued to Ram, 2 returned by Ram
	// THEN: Ram holds 3
	demands := []*docflow.Document{issuedDemand("0001", "Ram", "Chair", "CH-1", 5)}
	returns := []*docflow.Document{approvedReturn("001-DA", "Ram", "Chair", "CH-1", 2)}

	holdings := supplies.ComputeHoldings(demands, returns)
	key := supplies.NewKey("Chair", "CH-1", "Ram")
	require.Contains(t, holdings, key)
	assert.True(t, holdings[key].Quantity.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, "ram", key.Holder, "holder is normalized in the key")
	assert.Equal(t, "Ram", holdings[key].HolderName, "display name keeps its case")
	assert.Equal(t, "0001", holdings[key].SourceFormNo)
}

func TestComputeHoldings_ZeroBalanceDisappears(t *testing.T) {
	// A fully returned key is no longer "held" and must not appear in the
	// available-for-return list.
	demands := []*docflow.Document{issuedDemand("0001", "Ram", "Chair", "CH-1", 5)}
	returns := []*docflow.Document{
		approvedReturn("001-DA", "Ram", "Chair", "CH-1", 2),
		approvedReturn("002-DA", "Ram", "Chair", "CH-1", 3),
	}

	holdings := supplies.ComputeHoldings(demands, returns)
	assert.NotContains(t, holdings, supplies.NewKey("Chair", "CH-1", "Ram"))
	assert.Empty(t, holdings)
}

func TestComputeHoldings_OverReturnAlsoDisappears(t *testing.T) {
	demands := []*docflow.Document{issuedDemand("0001", "Ram", "Chair", "CH-1", 2)}
	returns := []*docflow.Document{approvedReturn("001-DA", "Ram", "Chair", "CH-1", 5)}

	holdings := supplies.ComputeHoldings(demands, returns)
	assert.Empty(t, holdings, "net <= 0 means not held")
}

// =============================================================================
// FILTERS
// =============================================================================

func TestComputeHoldings_OnlyIssuedDemandsCount(t *testing.T) {
	pending := issuedDemand("0002", "Shyam", "Table", "TB-1", 1)
	pending.Status = supplies.StatusApproved // approved but not yet issued

	holdings := supplies.ComputeHoldings([]*docflow.Document{pending}, nil)
	assert.Empty(t, holdings)
}

func TestComputeHoldings_ExpendablesNeverHeld(t *testing.T) {
	doc := issuedDemand("0001", "Ram", "Marker Pen", "MP-1", 10)
	doc.Lines[0].Classification = docflow.Expendable

	holdings := supplies.ComputeHoldings([]*docflow.Document{doc}, nil)
	assert.Empty(t, holdings, "expendables are consumed, not tracked")
}

func TestComputeHoldings_OnlyApprovedReturnsCount(t *testing.T) {
	demands := []*docflow.Document{issuedDemand("0001", "Ram", "Chair", "CH-1", 5)}
	ret := approvedReturn("001-DA", "Ram", "Chair", "CH-1", 5)
	ret.Status = supplies.StatusPending

	holdings := supplies.ComputeHoldings(demands, []*docflow.Document{ret})
	key := supplies.NewKey("Chair", "CH-1", "Ram")
	require.Contains(t, holdings, key)
	assert.True(t, holdings[key].Quantity.Equal(decimal.NewFromInt(5)), "pending return does not subtract")
}

// =============================================================================
// KEYING
// =============================================================================

func TestComputeHoldings_KeyNormalization(t *testing.T) {
	// " RAM " and "ram" are the same holder; "Chair" and "chair" the same item.
	demands := []*docflow.Document{issuedDemand("0001", " RAM ", "Chair", "CH-1", 5)}
	returns := []*docflow.Document{approvedReturn("001-DA", "ram", "chair", "ch-1", 2)}

	holdings := supplies.ComputeHoldings(demands, returns)
	key := supplies.NewKey("chair", "CH-1", "Ram")
	require.Contains(t, holdings, key)
	assert.True(t, holdings[key].Quantity.Equal(decimal.NewFromInt(3)))
}

func TestComputeHoldings_SeparateHoldersSeparateBuckets(t *testing.T) {
	demands := []*docflow.Document{
		issuedDemand("0001", "Ram", "Chair", "CH-1", 5),
		issuedDemand("0002", "Shyam", "Chair", "CH-1", 2),
	}
	returns := []*docflow.Document{approvedReturn("001-DA", "Shyam", "Chair", "CH-1", 2)}

	holdings := supplies.ComputeHoldings(demands, returns)
	assert.Contains(t, holdings, supplies.NewKey("Chair", "CH-1", "Ram"))
	assert.NotContains(t, holdings, supplies.NewKey("Chair", "CH-1", "Shyam"))
}

// =============================================================================
// LENIENCY AND ORDER-INDEPENDENCE
// =============================================================================

func TestComputeHoldings_OrphanReturnIsNoOp(t *testing.T) {
	// A return referencing stock issued before the system's records began.
	returns := []*docflow.Document{approvedReturn("001-DA", "Ram", "Old Cabinet", "CB-9", 1)}

	holdings := supplies.ComputeHoldings(nil, returns)
	assert.Empty(t, holdings)
}

func TestComputeHoldings_OrderIndependent(t *testing.T) {
	// Pure summation: shuffling the event order never changes the result.
	demands := []*docflow.Document{
		issuedDemand("0001", "Ram", "Chair", "CH-1", 5),
		issuedDemand("0002", "Ram", "Chair", "CH-1", 4),
	}
	returns := []*docflow.Document{
		approvedReturn("001-DA", "Ram", "Chair", "CH-1", 3),
		approvedReturn("002-DA", "Ram", "Chair", "CH-1", 1),
	}

	forward := supplies.ComputeHoldings(demands, returns)
	reversed := supplies.ComputeHoldings(
		[]*docflow.Document{demands[1], demands[0]},
		[]*docflow.Document{returns[1], returns[0]},
	)

	key := supplies.NewKey("Chair", "CH-1", "Ram")
	require.Contains(t, forward, key)
	require.Contains(t, reversed, key)
	assert.True(t, forward[key].Quantity.Equal(reversed[key].Quantity))
	assert.True(t, forward[key].Quantity.Equal(decimal.NewFromInt(5)))
}
