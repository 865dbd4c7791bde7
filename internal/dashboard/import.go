package dashboard

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fra-dss/internal/fetcher"
	"github.com/sells-group/fra-dss/internal/model"
)

// ErrNoHeader is returned when no row names the state, claims and titles
// columns.
var ErrNoHeader = eris.New("dashboard: no header row with state, claims and titles columns")

// ImportResult counts the outcome of an import.
type ImportResult struct {
	Rows     int      `json:"rows"`
	Upserted int64    `json:"upserted"`
	Skipped  []string `json:"skipped,omitempty"`
}

type columns struct{ state, claims, titles int }

// Import parses a state-wise CSV or XLSX table and upserts it. Leading
// title rows are skipped until a header naming the state, claims and
// titles columns is found. Total rows and rows without a state are
// ignored; rows with unreadable figures are reported in Skipped.
func (s *Service) Import(ctx context.Context, name string, data []byte) (*ImportResult, error) {
	table, err := fetcher.ReadTable(ctx, name, data)
	if err != nil {
		return nil, eris.Wrap(err, "dashboard: read table")
	}

	rows, skipped, err := ParseStatewise(table)
	if err != nil {
		return nil, err
	}

	res := &ImportResult{Rows: len(rows), Skipped: skipped}
	if len(rows) == 0 {
		return res, nil
	}

	n, err := s.store.UpsertStatewise(ctx, rows)
	if err != nil {
		return nil, eris.Wrap(err, "dashboard: upsert statewise")
	}
	res.Upserted = n

	zap.L().Info("dashboard: statewise import complete",
		zap.String("file", name),
		zap.Int("rows", len(rows)),
		zap.Int("skipped", len(skipped)),
	)
	return res, nil
}

// ParseStatewise turns table rows into state-wise records. A state listed
// twice keeps its last figures.
func ParseStatewise(table [][]string) ([]model.StatewiseClaims, []string, error) {
	headerAt := -1
	var cols columns
	for i, row := range table {
		if c, ok := findColumns(row); ok {
			headerAt, cols = i, c
			break
		}
	}
	if headerAt < 0 {
		return nil, nil, ErrNoHeader
	}

	var (
		out     []model.StatewiseClaims
		skipped []string
		index   = map[string]int{}
	)
	for _, row := range table[headerAt+1:] {
		state := strings.TrimSpace(cell(row, cols.state))
		if state == "" || isTotalRow(state) {
			continue
		}
		claims, ok1 := parseCount(cell(row, cols.claims))
		titles, ok2 := parseCount(cell(row, cols.titles))
		if !ok1 || !ok2 {
			skipped = append(skipped, state)
			continue
		}

		rec := model.StatewiseClaims{StateName: state, ClaimsTotal: claims, TitlesTotal: titles}
		key := strings.ToLower(state)
		if i, seen := index[key]; seen {
			out[i] = rec
			continue
		}
		index[key] = len(out)
		out = append(out, rec)
	}
	return out, skipped, nil
}

func findColumns(row []string) (columns, bool) {
	c := columns{-1, -1, -1}
	for i, h := range row {
		h = strings.ToLower(strings.TrimSpace(h))
		switch {
		case h == "":
		case c.state < 0 && strings.Contains(h, "state"):
			c.state = i
		case c.titles < 0 && strings.Contains(h, "title"):
			c.titles = i
		case c.claims < 0 && strings.Contains(h, "claim"):
			c.claims = i
		}
	}
	return c, c.state >= 0 && c.claims >= 0 && c.titles >= 0
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func isTotalRow(state string) bool {
	s := strings.ToLower(state)
	return s == "total" || s == "grand total" || strings.HasPrefix(s, "total ")
}

// parseCount reads a published figure. Blank and dash cells count as zero;
// thousands separators are ignored.
func parseCount(v string) (int64, bool) {
	v = strings.TrimSpace(v)
	if v == "" || v == "-" || v == "\u2014" || strings.EqualFold(v, "nil") {
		return 0, true
	}
	v = strings.ReplaceAll(v, ",", "")
	if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f == float64(int64(f)) {
		return int64(f), true
	}
	return 0, false
}
