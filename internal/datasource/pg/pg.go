// Package pg loads a long-form digest from a Postgres table using pgx v5.
// Unlike the byte-oriented sources, it produces an already-parsed table and
// enters the ingest pipeline after the CSV stage.
package pg

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"digest/internal/table"
)

// Config holds the Postgres source configuration.
type Config struct {
	// DSN is the connection string for pgxpool (e.g., postgresql://...).
	DSN string

	// Table is the fully qualified table name (e.g., "public.digest").
	// Column names in the table are expected to match the bagel schema.
	Table string
}

// Load connects, reads every row of the configured table, and returns it as a
// string table in the column order the database reports. The connection pool
// is closed before returning.
func Load(ctx context.Context, cfg Config) (*table.Table, error) {
	if cfg.Table == "" {
		return nil, fmt.Errorf("pg: table name required")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, "SELECT * FROM "+pgFQN(cfg.Table))
	if err != nil {
		return nil, fmt.Errorf("pg: query %s: %w", cfg.Table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}
	t := table.New(cols...)

	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("pg: read row: %w", err)
		}
		rec := make([]string, len(vals))
		for i, v := range vals {
			rec[i] = cellString(v)
		}
		if err := t.Append(rec); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pg: iterate %s: %w", cfg.Table, err)
	}
	return t, nil
}

// cellString renders a database value into the table's string cell domain;
// NULL becomes the empty cell.
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

// pgFQN quotes a possibly schema-qualified table name part by part.
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

// pgIdent double-quotes an identifier, escaping embedded quotes.
func pgIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
