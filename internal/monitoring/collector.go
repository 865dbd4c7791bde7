package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fra-dss/internal/model"
	"github.com/sells-group/fra-dss/internal/store"
)

// MetricsSnapshot holds a point-in-time view of system health.
type MetricsSnapshot struct {
	// Claim backlog.
	ClaimsTotal     int     `json:"claims_total"`
	ClaimsPending   int     `json:"claims_pending"`
	ClaimsGeocoded  int     `json:"claims_geocoded"`
	GeocodeCoverage float64 `json:"geocode_coverage"`

	// Eligibility queries within the lookback window.
	DSSQueries        int     `json:"dss_queries"`
	DSSZeroResults    int     `json:"dss_zero_results"`
	DSSZeroResultRate float64 `json:"dss_zero_result_rate"`
	DSSAvgResults     float64 `json:"dss_avg_results"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// StatsStore is the read access the collector needs.
type StatsStore interface {
	CountClaims(ctx context.Context) (store.ClaimCounts, error)
	ListDSSLogs(ctx context.Context, since time.Time) ([]model.DSSLog, error)
}

// Collector gathers metrics from the store.
type Collector struct {
	store StatsStore
}

// NewCollector creates a new metrics collector.
func NewCollector(st StatsStore) *Collector {
	return &Collector{store: st}
}

// Collect gathers a snapshot over the given lookback window and refreshes
// the claim gauges.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   time.Now().UTC(),
	}

	counts, err := c.store.CountClaims(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: count claims")
	}
	snap.ClaimsTotal = counts.Total
	snap.ClaimsPending = counts.Pending
	snap.ClaimsGeocoded = counts.Geocoded
	if counts.Total > 0 {
		snap.GeocodeCoverage = float64(counts.Geocoded) / float64(counts.Total)
	}

	Claims.WithLabelValues("total").Set(float64(counts.Total))
	Claims.WithLabelValues("pending").Set(float64(counts.Pending))
	Claims.WithLabelValues("geocoded").Set(float64(counts.Geocoded))

	cutoff := snap.CollectedAt.Add(-time.Duration(lookbackHours) * time.Hour)
	logs, err := c.store.ListDSSLogs(ctx, cutoff)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list dss logs")
	}

	var totalResults int
	for _, l := range logs {
		snap.DSSQueries++
		totalResults += l.ResultCount
		if l.ResultCount == 0 {
			snap.DSSZeroResults++
		}
	}
	if snap.DSSQueries > 0 {
		snap.DSSZeroResultRate = float64(snap.DSSZeroResults) / float64(snap.DSSQueries)
		snap.DSSAvgResults = float64(totalResults) / float64(snap.DSSQueries)
	}

	return snap, nil
}
