package engine

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Metrics is the Engine's running counter set, safe for concurrent
// increment from the scan-rotation, reactive, and execution goroutines.
type Metrics struct {
	startTime time.Time

	scanCycles         atomic.Int64
	crossVenueOpps     atomic.Int64
	triangularOpps     atomic.Int64
	aggregatorOpps     atomic.Int64
	wsUpdates          atomic.Int64
	successfulArbs     atomic.Int64
	simulationFailures atomic.Int64
	executionFailures  atomic.Int64
	totalProfit        atomic.Int64 // quote-asset smallest units
	trackedPools       atomic.Int64
}

// NewMetrics constructs a Metrics with its uptime clock started.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

func (m *Metrics) opportunitiesFound() int64 {
	return m.crossVenueOpps.Load() + m.triangularOpps.Load() + m.aggregatorOpps.Load()
}

// Summary renders the counters as one log line, matching the teacher's
// single-line periodic status format.
func (m *Metrics) Summary() string {
	uptime := time.Since(m.startTime).Minutes()
	cycles := m.scanCycles.Load()
	opps := m.opportunitiesFound()

	rate := "0%"
	if cycles > 0 {
		rate = fmt.Sprintf("%.1f%%", float64(opps)/float64(cycles)*100)
	}

	return fmt.Sprintf(
		"uptime=%.1fm cycles=%d opps=%d (cross=%d tri=%d agg=%d) hit_rate=%s "+
			"arbs=%d profit=%d sim_fail=%d exec_fail=%d ws_updates=%d pools=%d",
		uptime, cycles, opps, m.crossVenueOpps.Load(), m.triangularOpps.Load(), m.aggregatorOpps.Load(),
		rate, m.successfulArbs.Load(), m.totalProfit.Load(),
		m.simulationFailures.Load(), m.executionFailures.Load(), m.wsUpdates.Load(), m.trackedPools.Load(),
	)
}

func (m *Metrics) recordOpportunity(kind string) {
	switch kind {
	case "cross_venue":
		m.crossVenueOpps.Add(1)
	case "triangular":
		m.triangularOpps.Add(1)
	case "aggregator":
		m.aggregatorOpps.Add(1)
	}
}
