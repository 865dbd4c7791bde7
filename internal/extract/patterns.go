package extract

import "regexp"

type fieldPattern struct {
	label string
	re    *regexp.Regexp
}

// fieldPatterns are tried in order. The value is the last capture group.
// Most patterns are unanchored and may match anywhere in the text; the
// patterns for the supplementary labels are line-anchored because their
// labels also occur as ordinary words in other fields.
var fieldPatterns = []fieldPattern{
	{LabelHolderName, regexp.MustCompile(`(?i)(Claimant Name|Patta[- ]Holder Name)[:\-]?\s*(.+)`)},
	{LabelFatherName, regexp.MustCompile(`(?i)(Father|Husband)[/ ]?Name[:\-]?\s*(.+)`)},
	{LabelAge, regexp.MustCompile(`(?i)Age[:\-]?\s*(\d+)`)},
	{LabelGender, regexp.MustCompile(`(?i)Gender[:\-]?\s*(Male|Female|Other)`)},
	{LabelVillage, regexp.MustCompile(`(?i)Village[:\-]?\s*(.+)`)},
	{LabelBlock, regexp.MustCompile(`(?i)Block[:\-]?\s*(.+)`)},
	{LabelDistrict, regexp.MustCompile(`(?i)District[:\-]?\s*(.+)`)},
	{LabelState, regexp.MustCompile(`(?i)State[:\-]?\s*(.+)`)},
	{LabelArea, regexp.MustCompile(`(?i)Total Area Claimed[:\-]?[\t ]*([\d.]+[\t ]*[A-Za-z.]*(?:[\t ]+[A-Za-z.]+)?)`)},
	{LabelCoordinates, regexp.MustCompile(`(?i)Coordinates[:\-]?[\t ]*([-\d.,\t ]+)`)},
	{LabelLandUse, regexp.MustCompile(`(?i)Land Use[:\-]?\s*(.+)`)},
	{LabelClaimID, regexp.MustCompile(`(?i)Claim ID[:\-]?\s*(.+)`)},
	{LabelApplicationDate, regexp.MustCompile(`(?i)Date of Application[:\-]?\s*(.+)`)},
	{LabelClaimType, regexp.MustCompile(`(?i)Type of Claim[:\-]?\s*(.+)`)},
	{LabelDeclaration, regexp.MustCompile(`(?i)Declaration[:\-]?\s*(.+)`)},
	{LabelAddress, regexp.MustCompile(`(?im)^[\t ]*Address[:\-][\t ]*(.+)`)},
	{LabelWaterBodies, regexp.MustCompile(`(?im)^[\t ]*Water ?bodies[:\-][\t ]*(.+)`)},
	{LabelForestCover, regexp.MustCompile(`(?im)^[\t ]*Forest cover[:\-][\t ]*(.+)`)},
	{LabelHomestead, regexp.MustCompile(`(?im)^[\t ]*Homestead[:\-][\t ]*(.+)`)},
}

// homesteadKeywords force the land use to "Homestead" when any appears.
var homesteadKeywords = []string{"house", "home", "residential", "hut", "dwelling", "homestead"}
