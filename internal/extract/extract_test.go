package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fra-dss/internal/llm"
	"github.com/sells-group/fra-dss/internal/model"
	"github.com/sells-group/fra-dss/pkg/anthropic"
	"github.com/sells-group/fra-dss/pkg/geocode"
)

// fakeGeocoder answers from a fixed table and records every address asked.
type fakeGeocoder struct {
	answers map[string]*geocode.Result
	err     error
	asked   []string
}

func (g *fakeGeocoder) Geocode(_ context.Context, address string) (*geocode.Result, error) {
	g.asked = append(g.asked, address)
	if g.err != nil {
		return nil, g.err
	}
	if r, ok := g.answers[address]; ok {
		return r, nil
	}
	return &geocode.Result{Matched: false}, nil
}

func matched(lat, lon float64) *geocode.Result {
	return &geocode.Result{Matched: true, Latitude: lat, Longitude: lon, Source: "nominatim"}
}

const sampleForm = `FORM - A
CLAIM FORM FOR RIGHTS TO FOREST LAND
Claimant Name: Sukru Majhi
Father/Husband Name: Budu Majhi
Age: 42
Gender: Male
Village Name: Kundra
Block: Boipariguda
District: Koraput
State: Odisha
Total Area Claimed: 1 hectare
Coordinates: 18.8123456, 82.7123456
Land Use: Residential hut and kitchen garden
Claim ID: FRA-OD-2023-0117
Date of Application: 12/01/2023
Type of Claim: Individual Forest Rights
Declaration: I hereby declare that the information given above is true.
`

func TestExtract_SampleForm(t *testing.T) {
	g := &fakeGeocoder{}
	f := NewExtractor(g).Extract(context.Background(), sampleForm)

	assert.Equal(t, "Sukru Majhi", f[LabelHolderName])
	assert.Equal(t, "Budu Majhi", f[LabelFatherName])
	assert.Equal(t, "42", f[LabelAge])
	assert.Equal(t, "Male", f[LabelGender])
	assert.Equal(t, "Kundra", f[LabelVillage])
	assert.Equal(t, "Boipariguda", f[LabelBlock])
	assert.Equal(t, "Koraput", f[LabelDistrict])
	assert.Equal(t, "Odisha", f[LabelState])
	assert.Equal(t, "2.47 acres", f[LabelArea])
	assert.Equal(t, "18.8123456, 82.7123456", f[LabelCoordinates])
	assert.Equal(t, "Homestead", f[LabelLandUse])
	assert.Equal(t, "FRA-OD-2023-0117", f[LabelClaimID])
	assert.Equal(t, "12/01/2023", f[LabelApplicationDate])
	assert.Equal(t, "Individual Forest Rights", f[LabelClaimType])
	assert.Contains(t, f[LabelDeclaration], "I hereby declare")
	assert.Empty(t, g.asked, "valid coordinates must not be geocoded")
}

func TestExtract_PattaHolderLabel(t *testing.T) {
	f := NewExtractor(nil).Extract(context.Background(), "Patta-Holder Name- Phulmani Gond\nPatta Holder Name: other")
	assert.Equal(t, "Phulmani Gond", f[LabelHolderName])
}

func TestExtract_MissingFieldsAbsent(t *testing.T) {
	f := NewExtractor(nil).Extract(context.Background(), "illegible scan")
	_, ok := f[LabelHolderName]
	assert.False(t, ok)
	assert.Equal(t, "", f[LabelCoordinates])
}

func TestExtract_LandUseNotResidential(t *testing.T) {
	f := NewExtractor(nil).Extract(context.Background(), "Land Use: Agriculture (paddy)")
	assert.Equal(t, "Agriculture (paddy)", f[LabelLandUse])
}

func TestExtract_LandUseKeywords(t *testing.T) {
	for _, lu := range []string{"Dwelling", "HOMESTEAD land", "house site", "Home garden"} {
		f := NewExtractor(nil).Extract(context.Background(), "Land Use: "+lu)
		assert.Equal(t, "Homestead", f[LabelLandUse], lu)
	}
}

func TestExtract_AreaNormalized(t *testing.T) {
	f := NewExtractor(nil).Extract(context.Background(), "Total Area Claimed: 3 acres")
	assert.Equal(t, "3.00 acres", f[LabelArea])
}

func TestExtract_AreaWithoutUnitStaysOnItsLine(t *testing.T) {
	// "Panchayat" contains "ha" and must not be read as hectares.
	f := NewExtractor(nil).Extract(context.Background(),
		"Total Area Claimed: 2.5\nPanchayat: Kundra\nKhasra No: 112\n")
	assert.Equal(t, "2.50 acres", f[LabelArea])
}

func TestExtract_AreaTwoWordUnit(t *testing.T) {
	f := NewExtractor(nil).Extract(context.Background(), "Total Area Claimed: 500 sq m\nBlock: Lamtaput\n")
	assert.Equal(t, "0.12 acres", f[LabelArea])
}

func TestExtract_NormalizesFullWidthText(t *testing.T) {
	// Full-width digits and colon fold to ASCII under NFKC.
	f := NewExtractor(nil).Extract(context.Background(), "Age： ４２")
	assert.Equal(t, "42", f[LabelAge])
}

func TestExtract_InvalidCoordinatesGeocodesVillageAddress(t *testing.T) {
	g := &fakeGeocoder{answers: map[string]*geocode.Result{
		"Kundra, Koraput, Odisha, India": matched(18.81, 82.71),
	}}
	text := "Village Name: Kundra\nDistrict: Koraput\nState: Odisha\nCoordinates: 18.81,82.71\n"

	f := NewExtractor(g).Extract(context.Background(), text)
	assert.Equal(t, "18.8100000, 82.7100000", f[LabelCoordinates])
	assert.Equal(t, []string{"Kundra, Koraput, Odisha, India"}, g.asked)
}

func TestExtract_FallsBackToDistrictAddress(t *testing.T) {
	g := &fakeGeocoder{answers: map[string]*geocode.Result{
		"Koraput, Odisha, India": matched(18.8, 82.7),
	}}
	text := "Village Name: Unknownpur\nDistrict: Koraput\nState: Odisha\n"

	f := NewExtractor(g).Extract(context.Background(), text)
	assert.Equal(t, "18.8000000, 82.7000000", f[LabelCoordinates])
	assert.Equal(t, []string{"Unknownpur, Koraput, Odisha, India", "Koraput, Odisha, India"}, g.asked)
}

func TestExtract_IdenticalFallbackNotResent(t *testing.T) {
	g := &fakeGeocoder{}
	f := NewExtractor(g).Extract(context.Background(), "District: Koraput\nState: Odisha\n")

	assert.Equal(t, "", f[LabelCoordinates])
	assert.Equal(t, []string{"Koraput, Odisha, India"}, g.asked)
}

func TestExtract_NoLocationNoGeocode(t *testing.T) {
	g := &fakeGeocoder{}
	f := NewExtractor(g).Extract(context.Background(), "Claimant Name: Sukru Majhi\nCoordinates: abc")

	assert.Equal(t, "", f[LabelCoordinates])
	assert.Empty(t, g.asked)
}

func TestExtract_GeocodeErrorIsEmpty(t *testing.T) {
	g := &fakeGeocoder{err: errors.New("context deadline exceeded")}
	f := NewExtractor(g).Extract(context.Background(), "Village Name: Kundra\nDistrict: Koraput\nState: Odisha\n")

	assert.Equal(t, "", f[LabelCoordinates])
	assert.Len(t, g.asked, 2)
}

func TestExtract_Idempotent(t *testing.T) {
	g := &fakeGeocoder{answers: map[string]*geocode.Result{
		"Kundra, Koraput, Odisha, India": matched(18.8123456, 82.7123456),
	}}
	e := NewExtractor(g)

	text := sampleForm + "Address: Near Kundra Village, Koraput District\nWater bodies: seasonal stream\nForest cover: Sal forest\nHomestead: Yes\n"
	first := e.Extract(context.Background(), text)
	second := e.Extract(context.Background(), first.Render())

	assert.Equal(t, first, second)
	assert.Equal(t, "Homestead", second[LabelLandUse])
	assert.Equal(t, "18.8123456, 82.7123456", second[LabelCoordinates])
	assert.Equal(t, "Near Kundra Village, Koraput District", second[LabelAddress])
	assert.Equal(t, "Yes", second[LabelHomestead])
	assert.Empty(t, g.asked)
}

func TestExtract_IdempotentAfterGeocode(t *testing.T) {
	g := &fakeGeocoder{answers: map[string]*geocode.Result{
		"Kundra, Koraput, Odisha, India": matched(18.8123456, 82.7123456),
	}}
	e := NewExtractor(g)

	first := e.Extract(context.Background(), "Village Name: Kundra\nDistrict: Koraput\nState: Odisha\nLand Use: hut\n")
	second := e.Extract(context.Background(), first.Render())

	assert.Equal(t, first, second)
	assert.Len(t, g.asked, 1)
}

func TestExtract_SupplementaryLabelsLineAnchored(t *testing.T) {
	f := NewExtractor(nil).Extract(context.Background(), "Land Use: Homestead plot\n")
	_, ok := f[LabelHomestead]
	assert.False(t, ok)
}

func TestFields_Claim(t *testing.T) {
	f := Fields{
		LabelHolderName:  "Sukru Majhi",
		LabelAge:         "42",
		LabelVillage:     "Kundra",
		LabelDistrict:    "Koraput",
		LabelLandUse:     "Homestead",
		LabelClaimType:   "IFR",
		LabelWaterBodies: "stream",
	}
	c := f.Claim()
	assert.Equal(t, "Sukru Majhi", c.HolderName)
	assert.Equal(t, "42", c.Age)
	assert.Equal(t, "Kundra", c.Village)
	assert.Equal(t, "IFR", c.ClaimType)
	assert.Equal(t, "stream", c.WaterBodies)
	assert.Equal(t, model.ClaimStatusPending, c.Status)
	assert.Empty(t, c.ID)
}

func TestFields_RenderSkipsEmpty(t *testing.T) {
	f := Fields{LabelState: "Odisha", LabelBlock: "", LabelAge: "42"}
	assert.Equal(t, "Age: 42\nState: Odisha\n", f.Render())
}

type mockAI struct {
	mock.Mock
}

func (m *mockAI) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func TestExtract_LLMPrefill(t *testing.T) {
	ai := new(mockAI)
	ai.On("CreateMessage", mock.Anything, mock.Anything).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: "```json\n" +
			`{"Patta-Holder Name": "Sukru Majhi", "Age": 42, "District": "Koraput", "Land Use": "house", "Unknown": "x", "Block": null, "State": ""}` +
			"\n```"}},
	}, nil)

	e := NewExtractor(nil, WithConfig(Config{UseLLM: true}), WithLLM(llm.NewJSONCompleter(ai, llm.Config{Model: "m"})))
	f := e.Extract(context.Background(), "Claimant Name: S. Majhi\nState: Odisha\nBlock: Boipariguda")

	assert.Equal(t, "Sukru Majhi", f[LabelHolderName], "llm value wins over pattern")
	assert.Equal(t, "42", f[LabelAge])
	assert.Equal(t, "Koraput", f[LabelDistrict])
	assert.Equal(t, "Homestead", f[LabelLandUse])
	assert.Equal(t, "Odisha", f[LabelState], "empty llm value left to pattern")
	assert.Equal(t, "Boipariguda", f[LabelBlock])
	_, ok := f["Unknown"]
	assert.False(t, ok)
	ai.AssertExpectations(t)
}

func TestExtract_LLMFailureFallsBackToPatterns(t *testing.T) {
	ai := new(mockAI)
	ai.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("overloaded"))

	e := NewExtractor(nil, WithConfig(Config{UseLLM: true}), WithLLM(llm.NewJSONCompleter(ai, llm.Config{Model: "m"})))
	f := e.Extract(context.Background(), "Claimant Name: Sukru Majhi")
	assert.Equal(t, "Sukru Majhi", f[LabelHolderName])
}

func TestExtract_LLMDisabled(t *testing.T) {
	ai := new(mockAI)
	e := NewExtractor(nil, WithLLM(llm.NewJSONCompleter(ai, llm.Config{Model: "m"})))
	e.Extract(context.Background(), "Claimant Name: Sukru Majhi")
	ai.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestJoinAddress(t *testing.T) {
	assert.Equal(t, "Kundra, Odisha, India", joinAddress("Kundra", " ", "Odisha"))
	assert.Equal(t, "", joinAddress("", ""))
}

func TestExtract_RequireNoPanicOnEmpty(t *testing.T) {
	require.NotPanics(t, func() {
		NewExtractor(&fakeGeocoder{}).Extract(context.Background(), "")
	})
}
