package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fra-dss/internal/config"
	"github.com/sells-group/fra-dss/internal/resilience"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertZeroResultRate  AlertType = "dss_zero_result_rate"
	AlertPendingBacklog  AlertType = "pending_backlog"
	AlertGeocodeCoverage AlertType = "geocode_coverage"
)

// Minimum sample sizes before rate-based alerts fire.
const (
	minQueriesForRate = 5
	minClaimsForRate  = 10
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a MetricsSnapshot against configured thresholds
// and sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg     config.MonitoringConfig
	client  *http.Client
	backoff resilience.Backoff
}

// NewAlerter creates a new Alerter with the given monitoring config. A
// webhook that answers 429 or 5xx is retried twice.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:     cfg,
		client:  &http.Client{Timeout: 10 * time.Second},
		backoff: resilience.Backoff{Attempts: 3, Base: time.Second, Max: 10 * time.Second, Jitter: 0.2},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
// A zero threshold disables its check.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	// Many zero-result queries usually mean schemes are missing or the
	// land-use precondition no longer matches intake output.
	if a.cfg.ZeroResultRateThreshold > 0 && snap.DSSQueries >= minQueriesForRate &&
		snap.DSSZeroResultRate > a.cfg.ZeroResultRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertZeroResultRate,
			Severity: "medium",
			Message: fmt.Sprintf(
				"%.1f%% of eligibility queries returned no claims (%d of %d in last %dh), threshold %.1f%%",
				snap.DSSZeroResultRate*100, snap.DSSZeroResults, snap.DSSQueries,
				snap.LookbackHours, a.cfg.ZeroResultRateThreshold*100,
			),
			Details: map[string]any{
				"zero_result_rate": snap.DSSZeroResultRate,
				"threshold":        a.cfg.ZeroResultRateThreshold,
				"queries":          snap.DSSQueries,
			},
			Timestamp: now,
		})
	}

	if a.cfg.PendingBacklogThreshold > 0 && snap.ClaimsPending > a.cfg.PendingBacklogThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertPendingBacklog,
			Severity: "medium",
			Message: fmt.Sprintf(
				"%d claims pending verification exceeds threshold %d",
				snap.ClaimsPending, a.cfg.PendingBacklogThreshold,
			),
			Details: map[string]any{
				"pending":   snap.ClaimsPending,
				"threshold": a.cfg.PendingBacklogThreshold,
				"total":     snap.ClaimsTotal,
			},
			Timestamp: now,
		})
	}

	if a.cfg.MinGeocodeCoverage > 0 && snap.ClaimsTotal >= minClaimsForRate &&
		snap.GeocodeCoverage < a.cfg.MinGeocodeCoverage {
		alerts = append(alerts, Alert{
			Type:     AlertGeocodeCoverage,
			Severity: "high",
			Message: fmt.Sprintf(
				"Only %.1f%% of claims have coordinates (%d of %d), minimum %.1f%%",
				snap.GeocodeCoverage*100, snap.ClaimsGeocoded, snap.ClaimsTotal,
				a.cfg.MinGeocodeCoverage*100,
			),
			Details: map[string]any{
				"coverage": snap.GeocodeCoverage,
				"minimum":  a.cfg.MinGeocodeCoverage,
				"geocoded": snap.ClaimsGeocoded,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts posts each alert to the configured webhook and returns how
// many were delivered.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	return len(a.deliver(ctx, alerts))
}

// deliver returns the types of the alerts the webhook accepted.
func (a *Alerter) deliver(ctx context.Context, alerts []Alert) map[AlertType]bool {
	delivered := make(map[AlertType]bool, len(alerts))
	if a.cfg.WebhookURL == "" {
		return delivered
	}

	for _, alert := range alerts {
		_, err := resilience.Retry(ctx, "alert webhook", a.backoff, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, a.post(ctx, alert)
		})
		if err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		delivered[alert.Type] = true
	}
	return delivered
}

func (a *Alerter) post(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	return resilience.CheckStatus("monitoring: webhook", resp)
}
