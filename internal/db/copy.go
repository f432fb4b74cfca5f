package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Table is one schema-qualified table and the rows that replace its contents.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// ReplaceTables empties each table and COPYs its rows in, all inside one
// transaction. Readers see either the old contents of every table or the
// new contents of every table. The result holds the rows copied per table,
// in input order.
func ReplaceTables(ctx context.Context, pool Pool, schema string, tables []Table) ([]int64, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "db: begin replace")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	counts := make([]int64, len(tables))
	for i, t := range tables {
		ident := pgx.Identifier{schema, t.Name}
		if _, err := tx.Exec(ctx, "DELETE FROM "+ident.Sanitize()); err != nil {
			return nil, eris.Wrapf(err, "db: clear %s.%s", schema, t.Name)
		}
		if len(t.Rows) == 0 {
			continue
		}
		n, err := tx.CopyFrom(ctx, ident, t.Columns, pgx.CopyFromRows(t.Rows))
		if err != nil {
			return nil, eris.Wrapf(err, "db: COPY INTO %s.%s", schema, t.Name)
		}
		counts[i] = n
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "db: commit replace")
	}
	return counts, nil
}
