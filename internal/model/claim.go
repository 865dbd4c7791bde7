package model

import "time"

// ClaimStatus is the lifecycle state of a claim record.
type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "pending"
	ClaimStatusVerified ClaimStatus = "verified"
	ClaimStatusRejected ClaimStatus = "rejected"
)

// Claim is one forest-rights claim document's structured data. Most fields
// hold OCR-derived free text and are not normalized beyond what the field
// extractor applies at intake.
type Claim struct {
	ID                  string      `json:"id"`
	HolderName          string      `json:"patta_holder_name"`
	FatherOrHusbandName string      `json:"father_or_husband_name"`
	Age                 string      `json:"age"`
	Gender              string      `json:"gender"`
	Address             string      `json:"address"`
	Village             string      `json:"village_name"`
	Block               string      `json:"block"`
	District            string      `json:"district"`
	State               string      `json:"state"`
	TotalAreaClaimed    string      `json:"total_area_claimed"`
	Coordinates         string      `json:"coordinates"`
	LandUse             string      `json:"land_use"`
	ClaimID             string      `json:"claim_id"`
	ClaimType           string      `json:"claim_type"`
	ApplicationDate     string      `json:"date_of_application"`
	WaterBodies         string      `json:"water_bodies,omitempty"`
	ForestCover         string      `json:"forest_cover,omitempty"`
	Homestead           string      `json:"homestead,omitempty"`
	Status              ClaimStatus `json:"status"`
	CreatedAt           time.Time   `json:"created_at"`
}

// HasCoordinates reports whether the claim carries any coordinates text.
// Validity is checked separately by the extractor.
func (c Claim) HasCoordinates() bool {
	return c.Coordinates != ""
}
