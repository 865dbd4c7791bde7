package dss

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/fra-dss/internal/model"
	"github.com/sells-group/fra-dss/internal/store"
)

// ErrInvalidScheme marks a scheme definition rejected by validation.
var ErrInvalidScheme = eris.New("dss: invalid scheme")

// DefaultSeed is the scheme catalogue matching the query keyword table.
//
//go:embed schemes.yaml
var DefaultSeed []byte

// numeric bounds may be written as numbers or numeric strings.
const eligibilitySchema = `{
  "type": "object",
  "minProperties": 1,
  "properties": {
    "land_use":       {"type": "string"},
    "state":          {"type": "string"},
    "gender":         {"type": "string"},
    "min_age":        {"$ref": "#/$defs/bound"},
    "max_age":        {"$ref": "#/$defs/bound"},
    "min_land_acres": {"$ref": "#/$defs/bound"},
    "max_land_acres": {"$ref": "#/$defs/bound"}
  },
  "$defs": {
    "bound": {
      "type": ["number", "string", "null"],
      "minimum": 0,
      "pattern": "^\\s*\\d+(\\.\\d+)?\\s*$"
    }
  }
}`

var eligibilityValidator = jsonschema.MustCompileString("eligibility.json", eligibilitySchema)

// ValidateEligibility checks an eligibility document.
func ValidateEligibility(doc []byte) error {
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return eris.Wrapf(ErrInvalidScheme, "eligibility is not JSON: %v", err)
	}
	if err := eligibilityValidator.Validate(v); err != nil {
		return eris.Wrapf(ErrInvalidScheme, "eligibility: %v", err)
	}
	return nil
}

// SchemeInput is a scheme definition as submitted over the API or in a
// seed file.
type SchemeInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Eligibility json.RawMessage `json:"eligibility"`
}

// CreateScheme validates and stores a scheme. A duplicate name returns an
// error matching store.ErrSchemeExists.
func (s *Service) CreateScheme(ctx context.Context, in SchemeInput) (*model.Scheme, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(in.Eligibility) == 0 || string(in.Eligibility) == "null" {
		return nil, eris.Wrap(ErrInvalidScheme, "name and eligibility required")
	}
	if err := ValidateEligibility(in.Eligibility); err != nil {
		return nil, err
	}

	var cr model.Criteria
	if err := json.Unmarshal(in.Eligibility, &cr); err != nil {
		return nil, eris.Wrapf(ErrInvalidScheme, "eligibility: %v", err)
	}

	sc := &model.Scheme{Name: name, Description: strings.TrimSpace(in.Description), Eligibility: cr}
	if err := s.store.InsertScheme(ctx, sc); err != nil {
		return nil, eris.Wrapf(err, "dss: create scheme %s", name)
	}
	zap.L().Info("dss: scheme created", zap.String("scheme", name), zap.String("id", sc.ID))
	return sc, nil
}

// ListSchemes returns every stored scheme.
func (s *Service) ListSchemes(ctx context.Context) ([]model.Scheme, error) {
	schemes, err := s.store.ListSchemes(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "dss: list schemes")
	}
	return schemes, nil
}

type seedFile struct {
	Schemes []struct {
		Name        string         `yaml:"name"`
		Description string         `yaml:"description"`
		Eligibility map[string]any `yaml:"eligibility"`
	} `yaml:"schemes"`
}

// SeedResult counts the outcome of SeedSchemes.
type SeedResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// SeedSchemes loads schemes from a YAML document. Schemes that already
// exist are skipped, so seeding is repeatable. Any invalid entry aborts
// before anything is written.
func (s *Service) SeedSchemes(ctx context.Context, r io.Reader) (SeedResult, error) {
	var res SeedResult

	var f seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return res, eris.Wrap(err, "dss: decode seed file")
	}

	inputs := make([]SchemeInput, 0, len(f.Schemes))
	for i, sc := range f.Schemes {
		doc, err := json.Marshal(sc.Eligibility)
		if err != nil {
			return res, eris.Wrapf(err, "dss: seed entry %d", i)
		}
		in := SchemeInput{Name: sc.Name, Description: sc.Description, Eligibility: doc}
		if strings.TrimSpace(in.Name) == "" {
			return res, eris.Wrapf(ErrInvalidScheme, "seed entry %d has no name", i)
		}
		if err := ValidateEligibility(doc); err != nil {
			return res, eris.Wrapf(err, "seed entry %q", sc.Name)
		}
		inputs = append(inputs, in)
	}

	for _, in := range inputs {
		_, err := s.CreateScheme(ctx, in)
		switch {
		case err == nil:
			res.Created++
		case eris.Is(err, store.ErrSchemeExists):
			res.Skipped++
		default:
			return res, err
		}
	}
	return res, nil
}

// SeedDefaults loads DefaultSeed.
func (s *Service) SeedDefaults(ctx context.Context) (SeedResult, error) {
	return s.SeedSchemes(ctx, bytes.NewReader(DefaultSeed))
}
