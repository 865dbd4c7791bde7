// Package api exposes the intake, atlas, dashboard and decision-support
// services over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sells-group/fra-dss/internal/dashboard"
	"github.com/sells-group/fra-dss/internal/dss"
	"github.com/sells-group/fra-dss/internal/intake"
	"github.com/sells-group/fra-dss/internal/model"
	"github.com/sells-group/fra-dss/internal/monitoring"
	"github.com/sells-group/fra-dss/internal/ocr"
)

// DSS answers eligibility questions and manages schemes.
type DSS interface {
	Check(ctx context.Context, question string) dss.Outcome
	CreateScheme(ctx context.Context, in dss.SchemeInput) (*model.Scheme, error)
	ListSchemes(ctx context.Context) ([]model.Scheme, error)
}

// Intake stores uploaded documents.
type Intake interface {
	Upload(ctx context.Context, doc ocr.Document) (*intake.UploadResult, error)
	ListClaims(ctx context.Context) ([]model.Claim, error)
}

// Atlas lists claims with coordinates.
type Atlas interface {
	Claims(ctx context.Context) ([]model.Claim, error)
}

// Dashboard summarizes state-wise figures.
type Dashboard interface {
	Summary(ctx context.Context) (*dashboard.Summary, error)
}

// Monitor takes a health snapshot on demand.
type Monitor interface {
	CheckOnce(ctx context.Context) (*monitoring.MetricsSnapshot, []monitoring.Alert, error)
}

// Pinger checks the database connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the routes. Monitor may be nil.
type Deps struct {
	DSS       DSS
	Intake    Intake
	Atlas     Atlas
	Dashboard Dashboard
	Monitor   Monitor
	DB        Pinger
}

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	MaxUploadBytes int64
}

type server struct {
	Deps
	maxUpload int64
}

// NewRouter builds the HTTP handler.
func NewRouter(d Deps, opts Options) http.Handler {
	s := &server{Deps: d, maxUpload: opts.MaxUploadBytes}
	if s.maxUpload <= 0 {
		s.maxUpload = 20 << 20
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/upload", s.upload)
	r.Post("/upload/", s.upload)
	r.Get("/upload/all", s.listUploads)

	r.Route("/atlas", func(r chi.Router) {
		r.Get("/claims", s.atlasClaims)
		r.Get("/claims.geojson", s.atlasGeoJSON)
		r.Get("/claims.zip", s.atlasShapefile)
	})

	r.Get("/dashboard/summary", s.dashboardSummary)

	r.Route("/dss", func(r chi.Router) {
		r.Post("/schemes", s.createScheme)
		r.Get("/schemes", s.listSchemes)
		r.Get("/check", s.check)
	})

	r.Get("/monitoring/snapshot", s.snapshot)

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
