package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsRecordOpportunity(t *testing.T) {
	m := NewMetrics()
	m.recordOpportunity("cross_venue")
	m.recordOpportunity("triangular")
	m.recordOpportunity("triangular")
	m.recordOpportunity("aggregator")
	m.recordOpportunity("unknown-kind")

	assert.EqualValues(t, 1, m.crossVenueOpps.Load())
	assert.EqualValues(t, 2, m.triangularOpps.Load())
	assert.EqualValues(t, 1, m.aggregatorOpps.Load())
	assert.EqualValues(t, 4, m.opportunitiesFound())
}

func TestMetricsSummaryFormatsAllCounters(t *testing.T) {
	m := NewMetrics()
	m.scanCycles.Store(10)
	m.recordOpportunity("cross_venue")
	m.successfulArbs.Store(1)
	m.totalProfit.Store(12345)

	summary := m.Summary()
	assert.True(t, strings.Contains(summary, "cycles=10"))
	assert.True(t, strings.Contains(summary, "opps=1"))
	assert.True(t, strings.Contains(summary, "hit_rate=10.0%"))
	assert.True(t, strings.Contains(summary, "profit=12345"))
}

func TestMetricsSummaryHandlesZeroCycles(t *testing.T) {
	m := NewMetrics()
	assert.True(t, strings.Contains(m.Summary(), "hit_rate=0%"))
}
