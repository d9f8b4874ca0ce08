package pkg

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
)

func TestCrossVenueOpportunityAccessors(t *testing.T) {
	o := &CrossVenueOpportunity{
		Borrow:        "SOLmint",
		Target:        "USDCmint",
		Principal:     math.NewInt(1_000_000_000),
		SpreadBps:     42,
		NetMarginBps_: 17,
	}

	assert.Equal(t, OpportunityKindCrossVenue, o.Kind())
	assert.Equal(t, "SOLmint", o.BorrowAsset())
	assert.True(t, o.BorrowPrincipal().Equal(math.NewInt(1_000_000_000)))
	assert.EqualValues(t, 17, o.NetMarginBps())
}

func TestTriangularOpportunityBorrowsFirstPathLeg(t *testing.T) {
	o := &TriangularOpportunity{
		Path:          [4]string{"Q", "X", "Y", "Q"},
		Principal:     math.NewInt(500),
		NetMarginBps_: 9,
	}

	assert.Equal(t, OpportunityKindTriangular, o.Kind())
	assert.Equal(t, "Q", o.BorrowAsset())
	assert.EqualValues(t, 9, o.NetMarginBps())
}

func TestAggregatorOpportunityAccessors(t *testing.T) {
	o := &AggregatorOpportunity{
		Borrow:        "SOLmint",
		Target:        "JUPmint",
		Principal:     math.NewInt(2_000),
		NetMarginBps_: 3,
	}

	assert.Equal(t, OpportunityKindAggregator, o.Kind())
	assert.Equal(t, "SOLmint", o.BorrowAsset())
	assert.EqualValues(t, 3, o.NetMarginBps())
}

func TestOpportunityInterfaceDispatch(t *testing.T) {
	var opps []Opportunity
	opps = append(opps, &CrossVenueOpportunity{Borrow: "A", NetMarginBps_: 1})
	opps = append(opps, &TriangularOpportunity{Path: [4]string{"B", "", "", "B"}, NetMarginBps_: 2})
	opps = append(opps, &AggregatorOpportunity{Borrow: "C", NetMarginBps_: 3})

	kinds := make([]OpportunityKind, 0, len(opps))
	for _, o := range opps {
		kinds = append(kinds, o.Kind())
	}
	assert.Equal(t, []OpportunityKind{OpportunityKindCrossVenue, OpportunityKindTriangular, OpportunityKindAggregator}, kinds)
}
