package pkg

import (
	"cosmossdk.io/math"
)

// OpportunityKind tags the concrete type behind the Opportunity interface.
// It labels opportunities in metrics and logs; the Engine's leg resolution
// dispatches with a type switch on the concrete type.
type OpportunityKind string

const (
	OpportunityKindCrossVenue OpportunityKind = "cross_venue"
	OpportunityKindTriangular OpportunityKind = "triangular"
	OpportunityKindAggregator OpportunityKind = "aggregator"
)

// Opportunity is the tagged sum over the three strategies the scanners emit.
type Opportunity interface {
	Kind() OpportunityKind
	BorrowAsset() string
	BorrowPrincipal() math.Int
	NetMarginBps() int64
}

// CrossVenueOpportunity is a two-leg buy-low/sell-high route between two
// pools quoting the same mint pair.
type CrossVenueOpportunity struct {
	BuyPoolID      string
	SellPoolID     string
	BuyFamily      string
	SellFamily     string
	Borrow         string
	Target         string
	Principal      math.Int
	SpreadBps      int64
	NetMarginBps_  int64
}

func (o *CrossVenueOpportunity) Kind() OpportunityKind    { return OpportunityKindCrossVenue }
func (o *CrossVenueOpportunity) BorrowAsset() string      { return o.Borrow }
func (o *CrossVenueOpportunity) BorrowPrincipal() math.Int { return o.Principal }
func (o *CrossVenueOpportunity) NetMarginBps() int64      { return o.NetMarginBps_ }

// TriangularOpportunity is a three-leg cycle Q -> X -> Y -> Q.
type TriangularOpportunity struct {
	Path          [4]string // [Q, X, Y, Q]
	Edges         [3]PriceEdge
	Principal     math.Int
	RoundTrip     float64
	GrossMarginBps int64
	NetMarginBps_  int64
}

func (o *TriangularOpportunity) Kind() OpportunityKind     { return OpportunityKindTriangular }
func (o *TriangularOpportunity) BorrowAsset() string       { return o.Path[0] }
func (o *TriangularOpportunity) BorrowPrincipal() math.Int { return o.Principal }
func (o *TriangularOpportunity) NetMarginBps() int64       { return o.NetMarginBps_ }

// AggregatorOpportunity is a borrow -> target -> borrow round trip priced
// entirely through an external routing aggregator.
type AggregatorOpportunity struct {
	Borrow        string
	Target        string
	Principal     math.Int
	Leg1Out       math.Int
	Leg2Out       math.Int
	FlashLoanFee  math.Int
	Source        string
	NetMarginBps_ int64
}

func (o *AggregatorOpportunity) Kind() OpportunityKind     { return OpportunityKindAggregator }
func (o *AggregatorOpportunity) BorrowAsset() string       { return o.Borrow }
func (o *AggregatorOpportunity) BorrowPrincipal() math.Int { return o.Principal }
func (o *AggregatorOpportunity) NetMarginBps() int64       { return o.NetMarginBps_ }

// PriceEdge is a directed, de-referenced price observation used by the
// triangular scanner's graph; never a pointer into the registry.
type PriceEdge struct {
	From     string
	To       string
	Rate     float64
	PoolID   string
	Family   string
	FeeBps   int64
}

// FeeParams is the output of the fee strategy: what to pay for compute and
// for the MEV tip, and the resulting estimated total cost.
type FeeParams struct {
	ComputeUnitPrice uint64
	TipLamports      uint64
	TotalCostLamports uint64
}
