package dashboard

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/fra-dss/internal/model"
	"github.com/sells-group/fra-dss/internal/store"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) UpsertStatewise(ctx context.Context, rows []model.StatewiseClaims) (int64, error) {
	args := m.Called(ctx, rows)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) StatewiseSummary(ctx context.Context) ([]model.StatewiseClaims, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StatewiseClaims), args.Error(1)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]model.StatewiseClaims{
		{StateName: "Jharkhand", ClaimsTotal: 110756, TitlesTotal: 61970},
		{StateName: "Goa", ClaimsTotal: 0, TitlesTotal: 0},
		{StateName: "Odisha", ClaimsTotal: 732530, TitlesTotal: 463129},
	})

	assert.Equal(t, []KPI{
		{Title: KPITotalClaims, Value: 843286},
		{Title: KPIVerifiedClaims, Value: 525099},
		{Title: KPIStatesCovered, Value: 3},
	}, s.KPIs)

	require.Len(t, s.Statewise, 3)
	assert.Equal(t, "Odisha", s.Statewise[0].StateName)
	require.NotNil(t, s.Statewise[0].Progress)
	assert.InDelta(t, 63.22, *s.Statewise[0].Progress, 1e-9)
	assert.Equal(t, "Goa", s.Statewise[2].StateName)
	assert.Nil(t, s.Statewise[2].Progress)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, int64(0), s.KPIs[0].Value)
	assert.Empty(t, s.Statewise)
	assert.NotNil(t, s.Statewise)
}

func TestService_SummaryError(t *testing.T) {
	st := new(mockStore)
	st.On("StatewiseSummary", mock.Anything).Return(nil, errors.New("db down"))

	_, err := NewService(st).Summary(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dashboard: statewise summary")
}

func TestParseStatewise(t *testing.T) {
	table := [][]string{
		{"State-wise details of claims and titles under FRA"},
		{"", "", ""},
		{"Sl. No.", "State/UT", "No. of claims received", "No. of titles distributed"},
		{"1", "Odisha", "7,32,530", "4,63,129"},
		{"2", "Jharkhand", "110756", "61970"},
		{"3", "Goa", "-", ""},
		{"4", "Bihar", "n/a", "0"},
		{"5", "Odisha", "732600", "463200"},
		{"", "Total", "843356", "525169"},
		{"", "", "", ""},
	}

	rows, skipped, err := ParseStatewise(table)
	require.NoError(t, err)
	assert.Equal(t, []model.StatewiseClaims{
		{StateName: "Odisha", ClaimsTotal: 732600, TitlesTotal: 463200},
		{StateName: "Jharkhand", ClaimsTotal: 110756, TitlesTotal: 61970},
		{StateName: "Goa"},
	}, rows)
	assert.Equal(t, []string{"Bihar"}, skipped)
}

func TestParseStatewise_NoHeader(t *testing.T) {
	_, _, err := ParseStatewise([][]string{{"Odisha", "1", "2"}})
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestParseCount(t *testing.T) {
	for in, want := range map[string]int64{"": 0, "-": 0, "Nil": 0, "1,234": 1234, "42.0": 42} {
		got, ok := parseCount(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"-5", "1.5", "abc"} {
		_, ok := parseCount(in)
		assert.False(t, ok, in)
	}
}

func TestImport_CSV(t *testing.T) {
	st := new(mockStore)
	st.On("UpsertStatewise", mock.Anything, []model.StatewiseClaims{
		{StateName: "Chhattisgarh", ClaimsTotal: 890240, TitlesTotal: 534393},
	}).Return(int64(1), nil)

	csv := "state_name,claims_total,titles_total\nChhattisgarh,890240,534393\n"
	res, err := NewService(st).Import(context.Background(), "statewise.csv", []byte(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rows)
	assert.Equal(t, int64(1), res.Upserted)
	st.AssertExpectations(t)
}

func TestImport_NothingToWrite(t *testing.T) {
	st := new(mockStore)
	res, err := NewService(st).Import(context.Background(), "s.csv", []byte("state,claims,titles\nTotal,1,1\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Rows)
	st.AssertNotCalled(t, "UpsertStatewise", mock.Anything, mock.Anything)
}

func TestImport_Errors(t *testing.T) {
	st := new(mockStore)
	svc := NewService(st)

	_, err := svc.Import(context.Background(), "s.pdf", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dashboard: read table")

	_, err = svc.Import(context.Background(), "s.csv", []byte("a,b\n1,2\n"))
	assert.ErrorIs(t, err, ErrNoHeader)

	st.On("UpsertStatewise", mock.Anything, mock.Anything).Return(int64(0), errors.New("deadlock"))
	_, err = svc.Import(context.Background(), "s.csv", []byte("state,claims,titles\nOdisha,1,1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dashboard: upsert statewise")
}

func TestImport_XLSXIntoSQLite(t *testing.T) {
	ctx := context.Background()

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Statewise")
	require.NoError(t, err)
	for _, r := range [][]string{
		{"State", "Claims", "Titles"},
		{"Odisha", "732530", "463129"},
		{"Jharkhand", "110756", "61970"},
	} {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().SetString(v)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "dash.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(ctx))

	svc := NewService(st)
	res, err := svc.Import(ctx, "statewise.xlsx", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Rows)

	sum, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(843286), sum.KPIs[0].Value)
	assert.Equal(t, "Odisha", sum.Statewise[0].StateName)
}
