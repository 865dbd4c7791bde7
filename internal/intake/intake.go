// Package intake turns uploaded claim documents into stored claim records:
// OCR, field extraction, then a pending claim row per document.
package intake

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/fra-dss/internal/extract"
	"github.com/sells-group/fra-dss/internal/fetcher"
	"github.com/sells-group/fra-dss/internal/model"
	"github.com/sells-group/fra-dss/internal/monitoring"
	"github.com/sells-group/fra-dss/internal/ocr"
)

var (
	// ErrEmptyDocument is returned for uploads with no content.
	ErrEmptyDocument = eris.New("intake: empty document")
	// ErrUnsupportedDocument is returned for files OCR cannot read.
	ErrUnsupportedDocument = eris.New("intake: unsupported document")
)

// FieldExtractor pulls labelled fields out of OCR text. *extract.Extractor
// satisfies it.
type FieldExtractor interface {
	Extract(ctx context.Context, raw string) extract.Fields
}

// ClaimStore is the persistence intake needs.
type ClaimStore interface {
	InsertClaim(ctx context.Context, c *model.Claim) error
	ListClaims(ctx context.Context) ([]model.Claim, error)
}

// UploadResult is returned for each stored document.
type UploadResult struct {
	Status string         `json:"status"`
	DocID  string         `json:"doc_id"`
	Data   extract.Fields `json:"data"`
}

// Service runs the upload pipeline.
type Service struct {
	ocr         ocr.Extractor
	fields      FieldExtractor
	store       ClaimStore
	concurrency int
}

// Option configures a Service.
type Option func(*Service)

// WithConcurrency sets how many documents IngestAll processes at once.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService creates a Service.
func NewService(textExtractor ocr.Extractor, fields FieldExtractor, st ClaimStore, opts ...Option) *Service {
	s := &Service{
		ocr:         textExtractor,
		fields:      fields,
		store:       st,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload extracts and stores one document. The stored claim is always
// pending, whatever the document says.
func (s *Service) Upload(ctx context.Context, doc ocr.Document) (*UploadResult, error) {
	if len(doc.Data) == 0 {
		monitoring.DocumentsIngested.WithLabelValues("rejected").Inc()
		return nil, eris.Wrapf(ErrEmptyDocument, "intake: %s", doc.Name)
	}

	log := zap.L().With(zap.String("component", "intake"), zap.String("document", doc.Name))

	kind, err := ocr.DetectKind(doc)
	if err != nil {
		monitoring.DocumentsIngested.WithLabelValues("rejected").Inc()
		return nil, eris.Wrapf(ErrUnsupportedDocument, "%v", err)
	}

	start := time.Now()
	text, err := s.ocr.ExtractText(ctx, doc)
	monitoring.OCRDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	if err != nil {
		monitoring.DocumentsIngested.WithLabelValues("ocr_error").Inc()
		return nil, eris.Wrapf(err, "intake: ocr %s", doc.Name)
	}

	fields := s.fields.Extract(ctx, text)
	claim := fields.Claim()
	claim.Status = model.ClaimStatusPending
	if err := s.store.InsertClaim(ctx, &claim); err != nil {
		monitoring.DocumentsIngested.WithLabelValues("store_error").Inc()
		return nil, eris.Wrapf(err, "intake: store claim from %s", doc.Name)
	}

	monitoring.DocumentsIngested.WithLabelValues("ok").Inc()
	log.Info("intake: document stored",
		zap.String("doc_id", claim.ID),
		zap.String("kind", string(kind)),
		zap.Int("fields", len(fields)),
		zap.Bool("geocoded", claim.HasCoordinates()),
	)

	return &UploadResult{Status: "success", DocID: claim.ID, Data: fields}, nil
}

// ListClaims returns every stored claim, newest first.
func (s *Service) ListClaims(ctx context.Context) ([]model.Claim, error) {
	claims, err := s.store.ListClaims(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "intake: list claims")
	}
	return claims, nil
}

// DocResult is the outcome of one document in a batch.
type DocResult struct {
	Name  string `json:"name"`
	DocID string `json:"doc_id,omitempty"`
	Error string `json:"error,omitempty"`
}

// Report summarizes a batch ingest.
type Report struct {
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Results   []DocResult `json:"results"`
}

// IngestAll uploads docs concurrently. A failed document is recorded in the
// report and does not stop the batch; only cancellation returns an error.
func (s *Service) IngestAll(ctx context.Context, docs []ocr.Document) (*Report, error) {
	return s.ingest(ctx, len(docs), func(_ context.Context, i int) (ocr.Document, error) {
		return docs[i], nil
	}, func(i int) string { return docs[i].Name })
}

// IngestSource reads every document listed by src and uploads it. Files
// with extensions OCR cannot handle are skipped.
func (s *Service) IngestSource(ctx context.Context, src fetcher.Source) (*Report, error) {
	names, err := src.List(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "intake: list source")
	}

	docs := names[:0:0]
	for _, n := range names {
		if fetcher.IsDocument(n) {
			docs = append(docs, n)
		} else {
			zap.L().Debug("intake: skipping non-document", zap.String("name", n))
		}
	}

	return s.ingest(ctx, len(docs), func(ctx context.Context, i int) (ocr.Document, error) {
		data, err := src.Read(ctx, docs[i])
		if err != nil {
			return ocr.Document{}, err
		}
		return ocr.Document{Name: docs[i], Data: data}, nil
	}, func(i int) string { return docs[i] })
}

func (s *Service) ingest(ctx context.Context, n int, load func(context.Context, int) (ocr.Document, error), name func(int) string) (*Report, error) {
	log := zap.L().With(zap.String("component", "intake"))
	log.Info("intake: batch started", zap.Int("documents", n), zap.Int("concurrency", s.concurrency))

	var (
		mu     sync.Mutex
		report = &Report{Total: n, Results: make([]DocResult, 0, n)}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range n {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			res := DocResult{Name: name(i)}
			doc, err := load(gctx, i)
			if err == nil {
				var up *UploadResult
				up, err = s.Upload(gctx, doc)
				if up != nil {
					res.DocID = up.DocID
				}
			}
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn("intake: document failed", zap.String("document", res.Name), zap.Error(err))
				res.Error = err.Error()
			}

			mu.Lock()
			report.Results = append(report.Results, res)
			if res.Error == "" {
				report.Succeeded++
			} else {
				report.Failed++
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, eris.Wrap(err, "intake: batch cancelled")
	}

	sort.Slice(report.Results, func(i, j int) bool {
		return report.Results[i].Name < report.Results[j].Name
	})

	log.Info("intake: batch complete",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}
