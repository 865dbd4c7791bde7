package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fra-dss/internal/model"
)

// ErrSchemeExists is returned by InsertScheme when a scheme with the same
// name (case-insensitive) is already stored.
var ErrSchemeExists = eris.New("store: scheme already exists")

// ClaimFilter narrows QueryClaims. Set fields match case-insensitively as
// substrings; empty fields are ignored.
type ClaimFilter struct {
	LandUse  string `json:"land_use,omitempty"`
	State    string `json:"state,omitempty"`
	District string `json:"district,omitempty"`
	Village  string `json:"village,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// ClaimCounts summarizes the claims table.
type ClaimCounts struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Geocoded int `json:"geocoded"`
}

// Store defines the persistence interface for claims, schemes and the
// decision-support audit log. Every call is its own transaction.
type Store interface {
	// Claims
	InsertClaim(ctx context.Context, c *model.Claim) error
	ListClaims(ctx context.Context) ([]model.Claim, error)
	ListGeocodedClaims(ctx context.Context) ([]model.Claim, error)
	QueryClaims(ctx context.Context, filter ClaimFilter) ([]model.Claim, error)
	CountClaims(ctx context.Context) (ClaimCounts, error)

	// Schemes
	InsertScheme(ctx context.Context, s *model.Scheme) error
	ListSchemes(ctx context.Context) ([]model.Scheme, error)
	GetSchemeByName(ctx context.Context, name string) (*model.Scheme, error)

	// DSS audit log
	WriteDSSLog(ctx context.Context, queryText string, resultCount int) error
	ListDSSLogs(ctx context.Context, since time.Time) ([]model.DSSLog, error)

	// State-wise published figures
	UpsertStatewise(ctx context.Context, rows []model.StatewiseClaims) (int64, error)
	StatewiseSummary(ctx context.Context) ([]model.StatewiseClaims, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// prepareClaim fills the server-assigned fields of a new claim. A preset
// CreatedAt is kept so imported records retain their original order.
func prepareClaim(c *model.Claim, id string, now time.Time) {
	if c.ID == "" {
		c.ID = id
	}
	if c.Status == "" {
		c.Status = model.ClaimStatusPending
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.CreatedAt = c.CreatedAt.UTC()
}

// claimColumns is the column order shared by inserts and selects.
const claimColumns = `id, patta_holder_name, father_or_husband_name, age, gender, address,
	village_name, block, district, state, total_area_claimed, coordinates, land_use,
	claim_id, claim_type, date_of_application, water_bodies, forest_cover, homestead,
	status, created_at`

func claimArgs(c *model.Claim) []any {
	return []any{
		c.ID, c.HolderName, c.FatherOrHusbandName, c.Age, c.Gender, c.Address,
		c.Village, c.Block, c.District, c.State, c.TotalAreaClaimed, c.Coordinates, c.LandUse,
		c.ClaimID, c.ClaimType, c.ApplicationDate, c.WaterBodies, c.ForestCover, c.Homestead,
		string(c.Status), c.CreatedAt,
	}
}

type scannable interface {
	Scan(dest ...any) error
}

func scanClaim(row scannable) (model.Claim, error) {
	var c model.Claim
	var status string
	err := row.Scan(
		&c.ID, &c.HolderName, &c.FatherOrHusbandName, &c.Age, &c.Gender, &c.Address,
		&c.Village, &c.Block, &c.District, &c.State, &c.TotalAreaClaimed, &c.Coordinates, &c.LandUse,
		&c.ClaimID, &c.ClaimType, &c.ApplicationDate, &c.WaterBodies, &c.ForestCover, &c.Homestead,
		&status, &c.CreatedAt,
	)
	c.Status = model.ClaimStatus(status)
	return c, err
}
