package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/fra-dss/internal/config"
)

// Checker evaluates health snapshots on an interval and notifies the
// webhook when an alert starts firing. An alert that keeps firing is not
// re-sent until it has cleared once.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	cfg       config.MonitoringConfig

	// firing is only touched by the Run goroutine.
	firing map[AlertType]bool
}

// NewChecker creates a background alert checker.
func NewChecker(collector *Collector, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	return &Checker{
		collector: collector,
		alerter:   alerter,
		cfg:       cfg,
		firing:    make(map[AlertType]bool),
	}
}

// Run checks once immediately, then on every interval until ctx is
// cancelled.
func (c *Checker) Run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	interval := time.Duration(c.cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("monitoring: checker started",
		zap.Duration("interval", interval),
		zap.Int("lookback_hours", c.cfg.LookbackWindowHours),
	)

	c.check(ctx, log)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("monitoring: checker stopped")
			return
		case <-ticker.C:
			c.check(ctx, log)
		}
	}
}

// CheckOnce collects a snapshot and evaluates it without sending alerts.
func (c *Checker) CheckOnce(ctx context.Context) (*MetricsSnapshot, []Alert, error) {
	snap, err := c.collector.Collect(ctx, c.cfg.LookbackWindowHours)
	if err != nil {
		return nil, nil, err
	}
	return snap, c.alerter.Evaluate(snap), nil
}

func (c *Checker) check(ctx context.Context, log *zap.Logger) {
	snap, alerts, err := c.CheckOnce(ctx)
	if err != nil {
		log.Error("monitoring: failed to collect metrics", zap.Error(err))
		return
	}
	log.Debug("monitoring: snapshot",
		zap.Int("claims_total", snap.ClaimsTotal),
		zap.Int("claims_pending", snap.ClaimsPending),
		zap.Float64("geocode_coverage", snap.GeocodeCoverage),
		zap.Int("dss_queries", snap.DSSQueries),
	)

	var fresh []Alert
	current := make(map[AlertType]bool, len(alerts))
	for _, a := range alerts {
		if c.firing[a.Type] {
			current[a.Type] = true
			continue
		}
		fresh = append(fresh, a)
	}
	for t := range c.firing {
		if !containsType(alerts, t) {
			log.Info("monitoring: alert cleared", zap.String("type", string(t)))
		}
	}

	// Undelivered alerts stay out of firing so the next check retries them.
	for t := range c.alerter.deliver(ctx, fresh) {
		current[t] = true
	}
	c.firing = current

	if len(fresh) > 0 {
		log.Info("monitoring: alerts raised",
			zap.Int("firing", len(alerts)),
			zap.Int("new", len(fresh)),
		)
	}
}

func containsType(alerts []Alert, t AlertType) bool {
	for _, a := range alerts {
		if a.Type == t {
			return true
		}
	}
	return false
}
