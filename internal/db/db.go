// Package db owns the MySQL connection and runs approved queries under a
// read-only session with a bounded result set.
package db

import (
	"context"
	"database/sql"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

// DB wraps the connection pool.
type DB struct {
	conn *sql.DB
}

// Open connects with the given DSN and verifies connectivity.
func Open(ctx context.Context, dsn string) (*DB, error) {
	if _, err := mysql.ParseDSN(dsn); err != nil {
		return nil, errors.Wrap(err, "parse dsn")
	}
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	conn.SetMaxOpenConns(8)
	conn.SetMaxIdleConns(4)
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	return &DB{conn: conn}, nil
}

// Close releases the pool.
func (d *DB) Close() error {
	return d.conn.Close()
}

// ExecContext runs a statement on the pool. Used for setup only, never for
// generated SQL.
func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.conn.ExecContext(ctx, query, args...)
}

// QueryContext runs a trusted internal query on the pool, bypassing the
// read-only session used for generated SQL.
func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.conn.QueryContext(ctx, query, args...)
}

// ResultSet is a fully materialized, bounded query result. NULLs render as
// the literal "NULL" so the audit trail stays unambiguous.
type ResultSet struct {
	Columns   []string
	Rows      [][]string
	Truncated bool
}

// RowCount returns the number of materialized rows.
func (rs *ResultSet) RowCount() int {
	return len(rs.Rows)
}

// Query runs one approved SELECT on a dedicated connection that is pinned to
// a read-only transaction mode for its lifetime. At most maxRows rows are
// materialized; the rest are drained and flagged as truncated.
func (d *DB) Query(ctx context.Context, query string, maxRows int) (*ResultSet, error) {
	conn, err := d.conn.Conn(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "acquire connection")
	}
	defer conn.Close()
	if _, err := conn.ExecContext(ctx, "SET SESSION TRANSACTION READ ONLY"); err != nil {
		return nil, errors.Wrap(err, "enter read-only mode")
	}
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows, maxRows)
}

func collect(rows *sql.Rows, maxRows int) (*ResultSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "read column names")
	}
	rs := &ResultSet{Columns: columns}
	raw := make([]sql.RawBytes, len(columns))
	dest := make([]any, len(columns))
	for i := range raw {
		dest[i] = &raw[i]
	}
	for rows.Next() {
		if maxRows > 0 && len(rs.Rows) >= maxRows {
			rs.Truncated = true
			break
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(err, "scan row")
		}
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = renderCell(cell)
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}

func renderCell(cell sql.RawBytes) string {
	if cell == nil {
		return "NULL"
	}
	return string(cell)
}
