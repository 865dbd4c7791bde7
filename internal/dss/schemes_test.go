package dss

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/fra-dss/internal/model"
	"github.com/sells-group/fra-dss/internal/store"
)

func TestValidateEligibility(t *testing.T) {
	valid := []string{
		`{"land_use":"Homestead"}`,
		`{"min_age":18,"max_age":"60"}`,
		`{"max_land_acres":4.5,"state":"Odisha","gender":"F"}`,
		`{"min_age":null,"land_use":"Agriculture"}`,
		`{"land_use":"Homestead","notes":"unknown keys are ignored"}`,
	}
	for _, doc := range valid {
		assert.NoError(t, ValidateEligibility([]byte(doc)), doc)
	}

	invalid := []string{
		`{}`,
		`[]`,
		`"Homestead"`,
		`{"min_age":"eighteen"}`,
		`{"min_age":-1}`,
		`{"land_use":5}`,
		`not json`,
	}
	for _, doc := range invalid {
		err := ValidateEligibility([]byte(doc))
		require.Error(t, err, doc)
		assert.True(t, eris.Is(err, ErrInvalidScheme), doc)
	}
}

func TestCreateScheme(t *testing.T) {
	st := new(mockStore)
	st.On("InsertScheme", mock.Anything, mock.MatchedBy(func(s *model.Scheme) bool {
		return s.Name == "Tribal Scholarship" && s.Eligibility.MaxAge != nil && *s.Eligibility.MaxAge == 25
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Scheme).ID = "new-id"
	}).Return(nil)

	svc := NewService(nil, nil, st)
	sc, err := svc.CreateScheme(context.Background(), SchemeInput{
		Name:        "  Tribal Scholarship ",
		Description: "Post-matric support",
		Eligibility: json.RawMessage(`{"max_age":"25"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "new-id", sc.ID)
	assert.Equal(t, "Tribal Scholarship", sc.Name)
	st.AssertExpectations(t)
}

func TestCreateScheme_Rejected(t *testing.T) {
	svc := NewService(nil, nil, new(mockStore))

	for _, in := range []SchemeInput{
		{Name: "", Eligibility: json.RawMessage(`{"land_use":"Homestead"}`)},
		{Name: "No Criteria"},
		{Name: "Null Criteria", Eligibility: json.RawMessage(`null`)},
		{Name: "Bad Criteria", Eligibility: json.RawMessage(`{"min_age":"old"}`)},
	} {
		_, err := svc.CreateScheme(context.Background(), in)
		require.Error(t, err, in.Name)
		assert.True(t, eris.Is(err, ErrInvalidScheme), in.Name)
	}
}

func TestCreateScheme_Duplicate(t *testing.T) {
	st := new(mockStore)
	st.On("InsertScheme", mock.Anything, mock.Anything).Return(eris.Wrap(store.ErrSchemeExists, "postgres: insert scheme"))

	_, err := NewService(nil, nil, st).CreateScheme(context.Background(), SchemeInput{
		Name: "Housing Support Scheme", Eligibility: json.RawMessage(`{"land_use":"Homestead"}`),
	})
	require.Error(t, err)
	assert.True(t, eris.Is(err, store.ErrSchemeExists))
}

func TestListSchemes_Error(t *testing.T) {
	st := new(mockStore)
	st.On("ListSchemes", mock.Anything).Return(nil, errors.New("db down"))

	_, err := NewService(nil, nil, st).ListSchemes(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dss: list schemes")
}

func TestSeedSchemes_SkipsExisting(t *testing.T) {
	st := new(mockStore)
	st.On("InsertScheme", mock.Anything, mock.MatchedBy(func(s *model.Scheme) bool { return s.Name == "Housing Support Scheme" })).
		Return(store.ErrSchemeExists)
	st.On("InsertScheme", mock.Anything, mock.Anything).Return(nil)

	res, err := NewService(nil, nil, st).SeedDefaults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Created: 3, Skipped: 1}, res)
}

func TestSeedSchemes_InvalidEntryWritesNothing(t *testing.T) {
	st := new(mockStore)
	seed := `
schemes:
  - name: Good
    eligibility: {land_use: Homestead}
  - name: Bad
    eligibility: {min_age: old}
`
	_, err := NewService(nil, nil, st).SeedSchemes(context.Background(), strings.NewReader(seed))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `seed entry "Bad"`)
	st.AssertNotCalled(t, "InsertScheme", mock.Anything, mock.Anything)
}

func TestSeedSchemes_UnknownField(t *testing.T) {
	_, err := NewService(nil, nil, new(mockStore)).SeedSchemes(context.Background(),
		strings.NewReader("schemes:\n  - name: X\n    criteria: {}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode seed file")
}

func TestExportXLSX(t *testing.T) {
	out := Outcome{
		Status: StatusOK,
		Scheme: "Housing Support Scheme",
		Count:  2,
		Results: []model.Claim{
			{ClaimID: "FRA-OD-01", HolderName: "Sukru Majhi", District: "Koraput", Status: model.ClaimStatusPending},
			{ClaimID: "FRA-OD-02", HolderName: "Phulmani Gond", District: "Rayagada", Status: model.ClaimStatusVerified},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportXLSX(out, &buf))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	sheet := f.Sheets[0]
	assert.Equal(t, "Housing Support Scheme", sheet.Name)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "Claim ID", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "Sukru Majhi", sheet.Rows[1].Cells[1].String())
	assert.Equal(t, "verified", sheet.Rows[2].Cells[12].String())
}

func TestExportXLSX_FailedOutcome(t *testing.T) {
	err := ExportXLSX(failure(FailureNoScheme, "Could not extract scheme name from query", nil), &bytes.Buffer{})
	require.Error(t, err)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Eligible", sheetName(""))
	assert.Equal(t, "PDS 2024", sheetName("PDS [2024]"))
	assert.Len(t, []rune(sheetName(strings.Repeat("x", 40))), 31)
}
