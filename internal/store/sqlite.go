package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/fra-dss/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS fra_documents (
	id                     TEXT PRIMARY KEY,
	patta_holder_name      TEXT NOT NULL DEFAULT '',
	father_or_husband_name TEXT NOT NULL DEFAULT '',
	age                    TEXT NOT NULL DEFAULT '',
	gender                 TEXT NOT NULL DEFAULT '',
	address                TEXT NOT NULL DEFAULT '',
	village_name           TEXT NOT NULL DEFAULT '',
	block                  TEXT NOT NULL DEFAULT '',
	district               TEXT NOT NULL DEFAULT '',
	state                  TEXT NOT NULL DEFAULT '',
	total_area_claimed     TEXT NOT NULL DEFAULT '',
	coordinates            TEXT NOT NULL DEFAULT '',
	land_use               TEXT NOT NULL DEFAULT '',
	claim_id               TEXT NOT NULL DEFAULT '',
	claim_type             TEXT NOT NULL DEFAULT '',
	date_of_application    TEXT NOT NULL DEFAULT '',
	water_bodies           TEXT NOT NULL DEFAULT '',
	forest_cover           TEXT NOT NULL DEFAULT '',
	homestead              TEXT NOT NULL DEFAULT '',
	status                 TEXT NOT NULL DEFAULT 'pending',
	created_at             DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_fra_documents_created_at ON fra_documents(created_at);

CREATE TABLE IF NOT EXISTS schemes (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	eligibility TEXT NOT NULL DEFAULT '{}',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_schemes_name_lower ON schemes(lower(name));

CREATE TABLE IF NOT EXISTS dss_logs (
	id           TEXT PRIMARY KEY,
	query_text   TEXT NOT NULL,
	result_count INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS fra_statewise_claims (
	state_name   TEXT PRIMARY KEY,
	claims_total INTEGER NOT NULL DEFAULT 0,
	titles_total INTEGER NOT NULL DEFAULT 0
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertClaim(ctx context.Context, c *model.Claim) error {
	prepareClaim(c, uuid.New().String(), time.Now().UTC())

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fra_documents (`+claimColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		claimArgs(c)...,
	)
	return eris.Wrap(err, "sqlite: insert claim")
}

func (s *SQLiteStore) ListClaims(ctx context.Context) ([]model.Claim, error) {
	return s.queryClaims(ctx, "list claims",
		`SELECT `+claimColumns+` FROM fra_documents ORDER BY created_at DESC`)
}

func (s *SQLiteStore) ListGeocodedClaims(ctx context.Context) ([]model.Claim, error) {
	return s.queryClaims(ctx, "list geocoded claims",
		`SELECT `+claimColumns+` FROM fra_documents WHERE coordinates <> '' ORDER BY created_at DESC`)
}

func (s *SQLiteStore) QueryClaims(ctx context.Context, filter ClaimFilter) ([]model.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM fra_documents WHERE 1=1`
	var args []any

	for _, f := range []struct{ col, val string }{
		{"land_use", filter.LandUse},
		{"state", filter.State},
		{"district", filter.District},
		{"village_name", filter.Village},
	} {
		if f.val == "" {
			continue
		}
		// SQLite LIKE is case-insensitive for ASCII.
		query += ` AND ` + f.col + ` LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(f.val)+"%")
	}
	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	return s.queryClaims(ctx, "query claims", query, args...)
}

func (s *SQLiteStore) queryClaims(ctx context.Context, action, query string, args ...any) ([]model.Claim, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: %s", action)
	}
	defer rows.Close()

	var claims []model.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan claim")
		}
		claims = append(claims, c)
	}
	return claims, eris.Wrapf(rows.Err(), "sqlite: %s iterate", action)
}

func (s *SQLiteStore) CountClaims(ctx context.Context) (ClaimCounts, error) {
	var cc ClaimCounts
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(CASE WHEN status = 'pending' THEN 1 END),
		        COUNT(CASE WHEN coordinates <> '' THEN 1 END)
		 FROM fra_documents`,
	).Scan(&cc.Total, &cc.Pending, &cc.Geocoded)
	return cc, eris.Wrap(err, "sqlite: count claims")
}

func (s *SQLiteStore) InsertScheme(ctx context.Context, sc *model.Scheme) error {
	if sc.ID == "" {
		sc.ID = uuid.New().String()
	}
	sc.CreatedAt = time.Now().UTC()

	eligJSON, err := json.Marshal(sc.Eligibility)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal eligibility")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO schemes (id, name, description, eligibility, created_at) VALUES (?, ?, ?, ?, ?)`,
		sc.ID, sc.Name, sc.Description, string(eligJSON), sc.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return eris.Wrapf(ErrSchemeExists, "sqlite: insert scheme %s", sc.Name)
		}
		return eris.Wrapf(err, "sqlite: insert scheme %s", sc.Name)
	}
	return nil
}

func (s *SQLiteStore) ListSchemes(ctx context.Context) ([]model.Scheme, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, eligibility, created_at FROM schemes ORDER BY created_at, name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list schemes")
	}
	defer rows.Close()

	var schemes []model.Scheme
	for rows.Next() {
		sc, err := scanSQLiteScheme(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan scheme")
		}
		schemes = append(schemes, sc)
	}
	return schemes, eris.Wrap(rows.Err(), "sqlite: list schemes iterate")
}

func (s *SQLiteStore) GetSchemeByName(ctx context.Context, name string) (*model.Scheme, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, eligibility, created_at FROM schemes
		 WHERE name LIKE ? ESCAPE '\' ORDER BY created_at LIMIT 1`,
		escapeLike(strings.TrimSpace(name)),
	)
	sc, err := scanSQLiteScheme(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get scheme %s", name)
	}
	return &sc, nil
}

func (s *SQLiteStore) WriteDSSLog(ctx context.Context, queryText string, resultCount int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dss_logs (id, query_text, result_count, created_at) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), queryText, resultCount, time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: write dss log")
}

func (s *SQLiteStore) ListDSSLogs(ctx context.Context, since time.Time) ([]model.DSSLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query_text, result_count, created_at FROM dss_logs WHERE created_at >= ? ORDER BY created_at DESC`,
		since.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list dss logs")
	}
	defer rows.Close()

	var logs []model.DSSLog
	for rows.Next() {
		var l model.DSSLog
		if err := rows.Scan(&l.ID, &l.QueryText, &l.ResultCount, &l.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan dss log")
		}
		logs = append(logs, l)
	}
	return logs, eris.Wrap(rows.Err(), "sqlite: list dss logs iterate")
}

func (s *SQLiteStore) UpsertStatewise(ctx context.Context, rows []model.StatewiseClaims) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin statewise upsert")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO fra_statewise_claims (state_name, claims_total, titles_total) VALUES (?, ?, ?)
		 ON CONFLICT (state_name) DO UPDATE SET claims_total = excluded.claims_total, titles_total = excluded.titles_total`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare statewise upsert")
	}
	defer stmt.Close()

	var n int64
	for _, r := range rows {
		res, err := stmt.ExecContext(ctx, r.StateName, r.ClaimsTotal, r.TitlesTotal)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert statewise %s", r.StateName)
		}
		affected, _ := res.RowsAffected()
		n += affected
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit statewise upsert")
	}
	return n, nil
}

func (s *SQLiteStore) StatewiseSummary(ctx context.Context) ([]model.StatewiseClaims, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT state_name, claims_total, titles_total FROM fra_statewise_claims ORDER BY state_name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: statewise summary")
	}
	defer rows.Close()

	var out []model.StatewiseClaims
	for rows.Next() {
		var r model.StatewiseClaims
		if err := rows.Scan(&r.StateName, &r.ClaimsTotal, &r.TitlesTotal); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan statewise")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: statewise summary iterate")
}

// helpers

func scanSQLiteScheme(row scannable) (model.Scheme, error) {
	var sc model.Scheme
	var eligJSON string
	if err := row.Scan(&sc.ID, &sc.Name, &sc.Description, &eligJSON, &sc.CreatedAt); err != nil {
		return sc, err
	}
	if eligJSON != "" {
		if err := json.Unmarshal([]byte(eligJSON), &sc.Eligibility); err != nil {
			return sc, eris.Wrapf(err, "unmarshal eligibility for %s", sc.Name)
		}
	}
	return sc, nil
}
