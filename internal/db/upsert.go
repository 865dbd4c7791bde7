package db

import (
	"context"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// UpsertConfig names the target table, the columns each row carries and the
// unique key that decides between insert and update.
type UpsertConfig struct {
	Table        string
	Columns      []string
	ConflictKeys []string
	// UpdateCols defaults to every column outside ConflictKeys. An explicit
	// empty slice turns the upsert into insert-or-ignore.
	UpdateCols []string
}

// upsertPlan holds the statements for one UpsertConfig.
type upsertPlan struct {
	staging string
	create  string
	merge   string
}

func planUpsert(cfg UpsertConfig) (upsertPlan, error) {
	if len(cfg.Columns) == 0 {
		return upsertPlan{}, eris.New("db: upsert: no columns specified")
	}
	if len(cfg.ConflictKeys) == 0 {
		return upsertPlan{}, eris.New("db: upsert: no conflict keys specified")
	}

	update := cfg.UpdateCols
	if update == nil {
		for _, c := range cfg.Columns {
			if !slices.Contains(cfg.ConflictKeys, c) {
				update = append(update, c)
			}
		}
	}

	onConflict := "DO NOTHING"
	if len(update) > 0 {
		sets := make([]string, len(update))
		for i, c := range update {
			q := ident(c)
			sets[i] = q + " = EXCLUDED." + q
		}
		onConflict = "DO UPDATE SET " + strings.Join(sets, ", ")
	}

	staging := "_tmp_upsert_" + strings.ReplaceAll(cfg.Table, ".", "_")
	target := ident(cfg.Table)
	cols := identList(cfg.Columns)

	return upsertPlan{
		staging: staging,
		create:  "CREATE TEMP TABLE " + pgx.Identifier{staging}.Sanitize() + " (LIKE " + target + " INCLUDING DEFAULTS) ON COMMIT DROP",
		merge: "INSERT INTO " + target + " (" + cols + ") SELECT " + cols +
			" FROM " + pgx.Identifier{staging}.Sanitize() +
			" ON CONFLICT (" + identList(cfg.ConflictKeys) + ") " + onConflict,
	}, nil
}

// BulkUpsert copies rows into a transaction-scoped staging table and merges
// them into cfg.Table with INSERT ... ON CONFLICT. It returns the number of
// rows inserted or updated.
func BulkUpsert(ctx context.Context, pool Pool, cfg UpsertConfig, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	plan, err := planUpsert(cfg)
	if err != nil {
		return 0, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: upsert: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, plan.create); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: create temp table for %s", cfg.Table)
	}
	if _, err := CopyFrom(ctx, tx, plan.staging, cfg.Columns, rows); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: COPY into temp table for %s", cfg.Table)
	}
	tag, err := tx.Exec(ctx, plan.merge)
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert: merge into %s", cfg.Table)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: upsert: commit tx")
	}
	return tag.RowsAffected(), nil
}

// ident quotes a possibly schema-qualified name.
func ident(name string) string {
	return pgx.Identifier(strings.SplitN(name, ".", 2)).Sanitize()
}

func identList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = ident(n)
	}
	return strings.Join(quoted, ", ")
}
