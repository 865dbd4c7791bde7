package extract

import (
	"strings"

	"github.com/sells-group/fra-dss/internal/model"
)

// Document labels. They double as the keys of Fields and as the line labels
// written by Render.
const (
	LabelHolderName      = "Patta-Holder Name"
	LabelFatherName      = "Father/Husband Name"
	LabelAge             = "Age"
	LabelGender          = "Gender"
	LabelAddress         = "Address"
	LabelVillage         = "Village Name"
	LabelBlock           = "Block"
	LabelDistrict        = "District"
	LabelState           = "State"
	LabelArea            = "Total Area Claimed"
	LabelCoordinates     = "Coordinates"
	LabelLandUse         = "Land Use"
	LabelClaimID         = "Claim ID"
	LabelApplicationDate = "Date of Application"
	LabelClaimType       = "Type of Claim"
	LabelWaterBodies     = "Water bodies"
	LabelForestCover     = "Forest cover"
	LabelHomestead       = "Homestead"
	LabelDeclaration     = "Declaration"
)

// renderOrder puts every label on its own line. The unanchored patterns
// take the first occurrence of their label anywhere in the text, so the
// free-text supplementary fields go last where their values cannot shadow
// an earlier label.
var renderOrder = []string{
	LabelHolderName,
	LabelFatherName,
	LabelAge,
	LabelGender,
	LabelVillage,
	LabelBlock,
	LabelDistrict,
	LabelState,
	LabelArea,
	LabelCoordinates,
	LabelLandUse,
	LabelClaimID,
	LabelApplicationDate,
	LabelClaimType,
	LabelDeclaration,
	LabelAddress,
	LabelWaterBodies,
	LabelForestCover,
	LabelHomestead,
}

// Fields holds extracted values keyed by document label. Absent labels were
// not found.
type Fields map[string]string

// Render writes the non-empty fields as "Label: value" lines in a fixed
// order. Extracting the rendered text yields the same fields.
func (f Fields) Render() string {
	var b strings.Builder
	for _, label := range renderOrder {
		v := f[label]
		if v == "" {
			continue
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteByte('\n')
	}
	return b.String()
}

// Claim maps the fields onto a new pending claim record.
func (f Fields) Claim() model.Claim {
	return model.Claim{
		HolderName:          f[LabelHolderName],
		FatherOrHusbandName: f[LabelFatherName],
		Age:                 f[LabelAge],
		Gender:              f[LabelGender],
		Address:             f[LabelAddress],
		Village:             f[LabelVillage],
		Block:               f[LabelBlock],
		District:            f[LabelDistrict],
		State:               f[LabelState],
		TotalAreaClaimed:    f[LabelArea],
		Coordinates:         f[LabelCoordinates],
		LandUse:             f[LabelLandUse],
		ClaimID:             f[LabelClaimID],
		ClaimType:           f[LabelClaimType],
		ApplicationDate:     f[LabelApplicationDate],
		WaterBodies:         f[LabelWaterBodies],
		ForestCover:         f[LabelForestCover],
		Homestead:           f[LabelHomestead],
		Status:              model.ClaimStatusPending,
	}
}
