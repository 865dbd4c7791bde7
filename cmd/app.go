package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fra-dss/internal/atlas"
	"github.com/sells-group/fra-dss/internal/config"
	"github.com/sells-group/fra-dss/internal/dashboard"
	"github.com/sells-group/fra-dss/internal/dss"
	"github.com/sells-group/fra-dss/internal/eligibility"
	"github.com/sells-group/fra-dss/internal/extract"
	"github.com/sells-group/fra-dss/internal/intake"
	"github.com/sells-group/fra-dss/internal/llm"
	"github.com/sells-group/fra-dss/internal/monitoring"
	"github.com/sells-group/fra-dss/internal/ocr"
	"github.com/sells-group/fra-dss/internal/query"
	"github.com/sells-group/fra-dss/internal/resilience"
	"github.com/sells-group/fra-dss/internal/store"
	"github.com/sells-group/fra-dss/pkg/anthropic"
	"github.com/sells-group/fra-dss/pkg/geocode"
)

// app holds the services a command runs against.
type app struct {
	Store     store.Store
	DSS       *dss.Service
	Intake    *intake.Service
	Atlas     *atlas.Service
	Dashboard *dashboard.Service
	Checker   *monitoring.Checker
}

// Close releases the store.
func (a *app) Close() {
	if err := a.Store.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
}

func initStore(ctx context.Context, c config.StoreConfig) (store.Store, error) {
	switch c.Driver {
	case "sqlite":
		return store.NewSQLite(c.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, c.DatabaseURL, &store.PoolConfig{MaxConns: c.MaxConns, MinConns: c.MinConns})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Driver)
	}
}

// newApp validates the config for mode and wires the services. The OCR
// pipeline is only built when withIntake is set, so query-only commands do
// not need OCR credentials.
func newApp(ctx context.Context, mode string, withIntake bool) (*app, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}

	var completer *llm.JSONCompleter
	if cfg.Anthropic.LLMEnabled() {
		completer = llm.NewJSONCompleter(anthropic.NewClient(cfg.Anthropic.Key), llm.Config{
			Model:     cfg.Anthropic.Model,
			MaxTokens: cfg.Anthropic.MaxTokens,
		})
	}
	useLLM := completer != nil

	interp := query.NewInterpreter(query.Config{States: cfg.DSS.States, UseLLM: useLLM}, st, query.WithLLM(completer))
	eval := eligibility.NewEvaluator(st,
		eligibility.WithDefaultLandUse(cfg.DSS.DefaultLandUse),
		eligibility.WithLimit(cfg.DSS.ResultLimit),
	)

	a := &app{
		Store:     st,
		DSS:       dss.NewService(interp, eval, st),
		Atlas:     atlas.NewService(st),
		Dashboard: dashboard.NewService(st),
		Checker: monitoring.NewChecker(
			monitoring.NewCollector(st),
			monitoring.NewAlerter(cfg.Monitoring),
			cfg.Monitoring,
		),
	}

	if withIntake {
		textExtractor, err := ocr.NewExtractor(cfg.OCR)
		if err != nil {
			a.Close()
			return nil, err
		}
		fields := extract.NewExtractor(newGeocoder(cfg.Geocode),
			extract.WithLLM(completer),
			extract.WithConfig(extract.Config{UseLLM: useLLM}),
		)
		a.Intake = intake.NewService(textExtractor, fields, st, intake.WithConcurrency(cfg.Ingest.Concurrency))
	}

	return a, nil
}

func newGeocoder(c config.GeocodeConfig) geocode.Client {
	client := geocode.NewClient(
		geocode.WithNominatimURL(c.NominatimURL),
		geocode.WithUserAgent(c.UserAgent),
		geocode.WithGoogleAPIKey(c.GoogleKey),
		geocode.WithRateLimit(c.RateLimit),
		geocode.WithCacheTTL(time.Duration(c.CacheTTLMinutes)*time.Minute),
		geocode.WithHTTPClient(&http.Client{Timeout: time.Duration(c.TimeoutSecs) * time.Second}),
		geocode.WithCircuitBreaker(resilience.BreakerConfig{
			Threshold: c.FailureThreshold,
			Cooldown:  time.Duration(c.ResetTimeoutSecs) * time.Second,
		}),
	)
	return monitoring.InstrumentGeocoder(client)
}
