package fetcher

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"path"
	"strings"

	"github.com/rotisserie/eris"
)

// ReadCSV reads a delimited spreadsheet export. Government exports are
// rarely clean: rows may be ragged, stray quotes are kept and every field
// is trimmed. ctx is checked between rows.
func ReadCSV(ctx context.Context, r io.Reader, delim rune) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = delim
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return rows, eris.Wrap(err, "csv: read cancelled")
		}
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, eris.Wrapf(err, "csv: row %d", line)
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		rows = append(rows, record)
	}
}

// sniffDelimiter picks tab or semicolon when the first line uses it more
// than commas.
func sniffDelimiter(data []byte) rune {
	first, _, _ := bytes.Cut(data, []byte("\n"))
	best, n := ',', bytes.Count(first, []byte(","))
	for _, d := range []rune{'\t', ';'} {
		if c := bytes.Count(first, []byte(string(d))); c > n {
			best, n = d, c
		}
	}
	return best
}

// ReadTable parses an uploaded statistics table, choosing the reader by
// extension. The header row is kept.
func ReadTable(ctx context.Context, name string, data []byte) ([][]string, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".xlsx":
		return ReadWorkbook(data, "")
	case ".csv", ".tsv", ".txt", "":
		return ReadCSV(ctx, bytes.NewReader(data), sniffDelimiter(data))
	default:
		return nil, eris.Errorf("fetcher: unsupported table format %q", name)
	}
}
