package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/fra-dss/internal/db"
	"github.com/sells-group/fra-dss/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_claim":       `INSERT INTO fra_documents (` + claimColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
	"get_scheme_by_name": `SELECT id, name, description, eligibility, created_at FROM schemes WHERE name ILIKE $1 ORDER BY created_at LIMIT 1`,
	"insert_dss_log":     `INSERT INTO dss_logs (id, query_text, result_count, created_at) VALUES ($1, $2, $3, $4)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				// Tables may not exist before the first migrate.
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
					continue
				}
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS fra_documents (
	id                     TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
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
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_fra_documents_created_at ON fra_documents(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_fra_documents_status ON fra_documents(status);

CREATE TABLE IF NOT EXISTS schemes (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	eligibility JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_schemes_name_lower ON schemes(lower(name));

CREATE TABLE IF NOT EXISTS dss_logs (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	query_text   TEXT NOT NULL,
	result_count INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_dss_logs_created_at ON dss_logs(created_at);

CREATE TABLE IF NOT EXISTS fra_statewise_claims (
	state_name   TEXT PRIMARY KEY,
	claims_total BIGINT NOT NULL DEFAULT 0,
	titles_total BIGINT NOT NULL DEFAULT 0
);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) InsertClaim(ctx context.Context, c *model.Claim) error {
	prepareClaim(c, uuid.New().String(), time.Now().UTC())

	_, err := s.pool.Exec(ctx,
		`INSERT INTO fra_documents (`+claimColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		claimArgs(c)...,
	)
	return eris.Wrap(err, "postgres: insert claim")
}

func (s *PostgresStore) ListClaims(ctx context.Context) ([]model.Claim, error) {
	return s.queryClaims(ctx, "list claims",
		`SELECT `+claimColumns+` FROM fra_documents ORDER BY created_at DESC`)
}

func (s *PostgresStore) ListGeocodedClaims(ctx context.Context) ([]model.Claim, error) {
	return s.queryClaims(ctx, "list geocoded claims",
		`SELECT `+claimColumns+` FROM fra_documents WHERE coordinates <> '' ORDER BY created_at DESC`)
}

func (s *PostgresStore) QueryClaims(ctx context.Context, filter ClaimFilter) ([]model.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM fra_documents WHERE true`
	args := []any{}
	argIdx := 1

	for _, f := range []struct{ col, val string }{
		{"land_use", filter.LandUse},
		{"state", filter.State},
		{"district", filter.District},
		{"village_name", filter.Village},
	} {
		if f.val == "" {
			continue
		}
		query += fmt.Sprintf(` AND %s ILIKE $%d`, f.col, argIdx)
		args = append(args, "%"+escapeLike(f.val)+"%")
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
	}

	return s.queryClaims(ctx, "query claims", query, args...)
}

func (s *PostgresStore) queryClaims(ctx context.Context, action, query string, args ...any) ([]model.Claim, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: %s", action)
	}
	defer rows.Close()

	var claims []model.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan claim")
		}
		claims = append(claims, c)
	}
	return claims, eris.Wrapf(rows.Err(), "postgres: %s iterate", action)
}

func (s *PostgresStore) CountClaims(ctx context.Context) (ClaimCounts, error) {
	var cc ClaimCounts
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'pending'),
		        COUNT(*) FILTER (WHERE coordinates <> '')
		 FROM fra_documents`,
	).Scan(&cc.Total, &cc.Pending, &cc.Geocoded)
	return cc, eris.Wrap(err, "postgres: count claims")
}

func (s *PostgresStore) InsertScheme(ctx context.Context, sc *model.Scheme) error {
	if sc.ID == "" {
		sc.ID = uuid.New().String()
	}
	sc.CreatedAt = time.Now().UTC()

	eligJSON, err := json.Marshal(sc.Eligibility)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal eligibility")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO schemes (id, name, description, eligibility, created_at) VALUES ($1, $2, $3, $4, $5)`,
		sc.ID, sc.Name, sc.Description, eligJSON, sc.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return eris.Wrapf(ErrSchemeExists, "postgres: insert scheme %s", sc.Name)
		}
		return eris.Wrapf(err, "postgres: insert scheme %s", sc.Name)
	}
	return nil
}

func (s *PostgresStore) ListSchemes(ctx context.Context) ([]model.Scheme, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, eligibility, created_at FROM schemes ORDER BY created_at, name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list schemes")
	}
	defer rows.Close()

	var schemes []model.Scheme
	for rows.Next() {
		sc, err := scanScheme(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan scheme")
		}
		schemes = append(schemes, sc)
	}
	return schemes, eris.Wrap(rows.Err(), "postgres: list schemes iterate")
}

func (s *PostgresStore) GetSchemeByName(ctx context.Context, name string) (*model.Scheme, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, description, eligibility, created_at FROM schemes WHERE name ILIKE $1 ORDER BY created_at LIMIT 1`,
		escapeLike(strings.TrimSpace(name)),
	)
	sc, err := scanScheme(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get scheme %s", name)
	}
	return &sc, nil
}

func (s *PostgresStore) WriteDSSLog(ctx context.Context, queryText string, resultCount int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO dss_logs (id, query_text, result_count, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.New().String(), queryText, resultCount, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: write dss log")
}

func (s *PostgresStore) ListDSSLogs(ctx context.Context, since time.Time) ([]model.DSSLog, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, query_text, result_count, created_at FROM dss_logs WHERE created_at >= $1 ORDER BY created_at DESC`,
		since,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list dss logs")
	}
	defer rows.Close()

	var logs []model.DSSLog
	for rows.Next() {
		var l model.DSSLog
		if err := rows.Scan(&l.ID, &l.QueryText, &l.ResultCount, &l.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan dss log")
		}
		logs = append(logs, l)
	}
	return logs, eris.Wrap(rows.Err(), "postgres: list dss logs iterate")
}

// statewiseUpsert describes fra_statewise_claims for db.BulkUpsert.
var statewiseUpsert = db.UpsertConfig{
	Table:        "fra_statewise_claims",
	Columns:      []string{"state_name", "claims_total", "titles_total"},
	ConflictKeys: []string{"state_name"},
}

func (s *PostgresStore) UpsertStatewise(ctx context.Context, rows []model.StatewiseClaims) (int64, error) {
	data := make([][]any, 0, len(rows))
	for _, r := range rows {
		data = append(data, []any{r.StateName, r.ClaimsTotal, r.TitlesTotal})
	}
	n, err := db.BulkUpsert(ctx, s.pool, statewiseUpsert, data)
	return n, eris.Wrap(err, "postgres: upsert statewise")
}

func (s *PostgresStore) StatewiseSummary(ctx context.Context) ([]model.StatewiseClaims, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT state_name, claims_total, titles_total FROM fra_statewise_claims ORDER BY state_name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: statewise summary")
	}
	defer rows.Close()

	var out []model.StatewiseClaims
	for rows.Next() {
		var r model.StatewiseClaims
		if err := rows.Scan(&r.StateName, &r.ClaimsTotal, &r.TitlesTotal); err != nil {
			return nil, eris.Wrap(err, "postgres: scan statewise")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: statewise summary iterate")
}

func scanScheme(row scannable) (model.Scheme, error) {
	var sc model.Scheme
	var eligJSON []byte
	if err := row.Scan(&sc.ID, &sc.Name, &sc.Description, &eligJSON, &sc.CreatedAt); err != nil {
		return sc, err
	}
	if len(eligJSON) > 0 {
		if err := json.Unmarshal(eligJSON, &sc.Eligibility); err != nil {
			return sc, eris.Wrapf(err, "unmarshal eligibility for %s", sc.Name)
		}
	}
	return sc, nil
}

// escapeLike escapes LIKE metacharacters so user text matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
