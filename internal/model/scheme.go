package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Scheme is a government support program with eligibility criteria.
type Scheme struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Eligibility Criteria  `json:"eligibility"`
	CreatedAt   time.Time `json:"created_at"`
}

// Criteria is a scheme's eligibility document. Every key is optional; an
// absent key imposes no constraint. Age and area bounds are inclusive.
type Criteria struct {
	LandUse      string   `json:"land_use,omitempty" yaml:"land_use,omitempty"`
	MinAge       *int     `json:"min_age,omitempty" yaml:"min_age,omitempty"`
	MaxAge       *int     `json:"max_age,omitempty" yaml:"max_age,omitempty"`
	State        string   `json:"state,omitempty" yaml:"state,omitempty"`
	Gender       string   `json:"gender,omitempty" yaml:"gender,omitempty"`
	MinLandAcres *float64 `json:"min_land_acres,omitempty" yaml:"min_land_acres,omitempty"`
	MaxLandAcres *float64 `json:"max_land_acres,omitempty" yaml:"max_land_acres,omitempty"`
}

// IsEmpty reports whether no criterion is set.
func (c Criteria) IsEmpty() bool {
	return c.LandUse == "" && c.MinAge == nil && c.MaxAge == nil && c.State == "" &&
		c.Gender == "" && c.MinLandAcres == nil && c.MaxLandAcres == nil
}

// UnmarshalJSON accepts numeric bounds as JSON numbers or numeric strings,
// since eligibility documents are often hand-written. Unknown keys are ignored.
func (c *Criteria) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "criteria: decode")
	}

	var out Criteria
	var err error
	out.LandUse = stringValue(raw["land_use"])
	out.State = stringValue(raw["state"])
	out.Gender = stringValue(raw["gender"])

	if out.MinAge, err = intValue(raw, "min_age"); err != nil {
		return err
	}
	if out.MaxAge, err = intValue(raw, "max_age"); err != nil {
		return err
	}
	if out.MinLandAcres, err = floatValue(raw, "min_land_acres"); err != nil {
		return err
	}
	if out.MaxLandAcres, err = floatValue(raw, "max_land_acres"); err != nil {
		return err
	}

	*c = out
	return nil
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func floatValue(raw map[string]any, key string) (*float64, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch n := v.(type) {
	case float64:
		return &n, nil
	case string:
		if strings.TrimSpace(n) == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "criteria: %s is not numeric", key)
		}
		return &f, nil
	default:
		return nil, eris.Errorf("criteria: %s has unsupported type %T", key, v)
	}
}

func intValue(raw map[string]any, key string) (*int, error) {
	f, err := floatValue(raw, key)
	if err != nil || f == nil {
		return nil, err
	}
	i := int(*f)
	return &i, nil
}

// Float returns a pointer to f, for building criteria literals.
func Float(f float64) *float64 { return &f }

// Int returns a pointer to i, for building criteria literals.
func Int(i int) *int { return &i }
