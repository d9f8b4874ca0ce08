package engine

import (
	"testing"

	cosmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"

	"github.com/solarb/arbengine/pkg/txbuilder"
)

func TestStaleQuoteGuardRejectsNonPositiveNet(t *testing.T) {
	principal := cosmath.NewInt(1_000_000)
	flashFeeBps := int64(9)

	ok, flashFee := staleQuoteGuard(cosmath.NewInt(1_000_900), principal, flashFeeBps)
	assert.Equal(t, int64(900), flashFee)
	assert.False(t, ok, "final out exactly covering principal+fee must be rejected")
}

func TestStaleQuoteGuardAcceptsProfitableRoundTrip(t *testing.T) {
	principal := cosmath.NewInt(1_000_000)
	flashFeeBps := int64(9)

	ok, flashFee := staleQuoteGuard(cosmath.NewInt(1_001_000), principal, flashFeeBps)
	assert.Equal(t, int64(900), flashFee)
	assert.True(t, ok)
}

func TestLegVenueListRendersJupiterLegs(t *testing.T) {
	legs := []txbuilder.Leg{
		{Pool: nil},
		{Pool: nil},
	}
	assert.Equal(t, "jupiter->jupiter", legVenueList(legs))
}

func TestLegOutputListRendersEachAmount(t *testing.T) {
	outputs := []cosmath.Int{cosmath.NewInt(1_000_000), cosmath.NewInt(1_012_000)}
	assert.Equal(t, "1000000->1012000", legOutputList(outputs))
}
