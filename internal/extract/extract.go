// Package extract turns OCR text of a forest-rights claim form into labelled
// fields: regex extraction, land-use and area normalization, and coordinate
// resolution through a geocoder when the form carries none.
package extract

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/fra-dss/internal/llm"
	"github.com/sells-group/fra-dss/internal/units"
	"github.com/sells-group/fra-dss/pkg/geocode"
)

// Geocoder resolves a free-text place name. geocode.Client satisfies it.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*geocode.Result, error)
}

// Config controls the extractor.
type Config struct {
	// UseLLM enables the language-model cleaner that pre-fills fields before
	// the regex pass. It has no effect without WithLLM.
	UseLLM bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLLM sets the completer used when Config.UseLLM is true.
func WithLLM(c *llm.JSONCompleter) Option {
	return func(e *Extractor) {
		e.llm = c
	}
}

// WithConfig applies cfg.
func WithConfig(cfg Config) Option {
	return func(e *Extractor) {
		e.useLLM = cfg.UseLLM
	}
}

// Extractor extracts claim fields from OCR text.
type Extractor struct {
	geocoder Geocoder
	useLLM   bool
	llm      *llm.JSONCompleter
}

// NewExtractor creates an Extractor. geocoder may be nil, in which case
// invalid coordinates are simply cleared.
func NewExtractor(geocoder Geocoder, opts ...Option) *Extractor {
	e := &Extractor{geocoder: geocoder}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract never fails: fields that cannot be found are absent, and a
// geocoding failure leaves Coordinates empty.
func (e *Extractor) Extract(ctx context.Context, raw string) Fields {
	text := norm.NFKC.String(raw)

	f := Fields{}
	if e.useLLM && e.llm != nil {
		e.prefillLLM(ctx, text, f)
	}

	for _, p := range fieldPatterns {
		if f[p.label] != "" {
			continue
		}
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if v := strings.TrimSpace(m[len(m)-1]); v != "" {
			f[p.label] = v
		}
	}

	for _, label := range []string{LabelVillage, LabelDistrict, LabelState} {
		if v, ok := f[label]; ok {
			f[label] = strings.TrimSpace(strings.ReplaceAll(v, "Name:", ""))
		}
	}

	if isHomestead(f[LabelLandUse]) {
		f[LabelLandUse] = "Homestead"
	}

	if v := f[LabelArea]; v != "" {
		f[LabelArea] = units.NormalizeArea(v)
	}

	if coords := strings.TrimSpace(f[LabelCoordinates]); ValidCoordinates(coords) {
		f[LabelCoordinates] = coords
	} else {
		f[LabelCoordinates] = e.resolveCoordinates(ctx, f)
	}

	return f
}

func isHomestead(landUse string) bool {
	lu := strings.ToLower(landUse)
	for _, k := range homesteadKeywords {
		if strings.Contains(lu, k) {
			return true
		}
	}
	return false
}

// resolveCoordinates geocodes the village-level address, then the
// district-level one. "" after both is final.
func (e *Extractor) resolveCoordinates(ctx context.Context, f Fields) string {
	if e.geocoder == nil {
		return ""
	}

	full := joinAddress(f[LabelVillage], f[LabelDistrict], f[LabelState])
	if full != "" {
		if c := e.geocode(ctx, full); c != "" {
			return c
		}
	}

	fallback := joinAddress(f[LabelDistrict], f[LabelState])
	if fallback == "" || fallback == full {
		return ""
	}
	return e.geocode(ctx, fallback)
}

// joinAddress joins the non-empty parts and appends "India". It returns ""
// when every part is empty.
func joinAddress(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return strings.Join(append(kept, "India"), ", ")
}

func (e *Extractor) geocode(ctx context.Context, address string) string {
	r, err := e.geocoder.Geocode(ctx, address)
	if err != nil {
		zap.L().Warn("extract: geocode failed", zap.String("address", address), zap.Error(err))
		return ""
	}
	c := r.Coordinates()
	if c == "" {
		zap.L().Debug("extract: geocode no match", zap.String("address", address))
	}
	return c
}
