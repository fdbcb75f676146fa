// Package schema loads the live table catalog and renders it as prompt text
// for query generation.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Column describes a table column as reported by the catalog.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Key      string
	Comment  string
}

// Table describes a table with its columns in ordinal order.
type Table struct {
	Name    string
	Columns []Column
}

// State is the loaded catalog of one database.
type State struct {
	Database string
	Tables   []Table
}

// Querier is the subset of the database handle the loader needs.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const columnsQuery = `SELECT TABLE_NAME, COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_KEY, COLUMN_COMMENT
FROM information_schema.COLUMNS
WHERE TABLE_SCHEMA = ?
ORDER BY TABLE_NAME, ORDINAL_POSITION`

// Load reads the catalog of database from information_schema.
func Load(ctx context.Context, q Querier, database string) (*State, error) {
	rows, err := q.QueryContext(ctx, columnsQuery, database)
	if err != nil {
		return nil, errors.Wrap(err, "load schema")
	}
	defer rows.Close()

	state := &State{Database: database}
	var current *Table
	for rows.Next() {
		var table, name, typ, nullable, key, comment string
		if err := rows.Scan(&table, &name, &typ, &nullable, &key, &comment); err != nil {
			return nil, errors.Wrap(err, "scan schema row")
		}
		if current == nil || current.Name != table {
			state.Tables = append(state.Tables, Table{Name: table})
			current = &state.Tables[len(state.Tables)-1]
		}
		current.Columns = append(current.Columns, Column{
			Name:     name,
			Type:     typ,
			Nullable: strings.EqualFold(nullable, "YES"),
			Key:      key,
			Comment:  comment,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate schema rows")
	}
	return state, nil
}

// TableByName returns a table by name if present.
func (s *State) TableByName(name string) (Table, bool) {
	for _, tbl := range s.Tables {
		if tbl.Name == name {
			return tbl, true
		}
	}
	return Table{}, false
}

// ColumnByName returns a column by name if present.
func (t Table) ColumnByName(name string) (Column, bool) {
	for _, col := range t.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

// HasTables reports whether the catalog holds any tables.
func (s *State) HasTables() bool {
	return len(s.Tables) > 0
}

// Describe renders the catalog as compact prompt text, one table per line.
func (s *State) Describe() string {
	var sb strings.Builder
	for _, tbl := range s.Tables {
		sb.WriteString(tbl.Name)
		sb.WriteByte('(')
		for i, col := range tbl.Columns {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(col.Describe())
		}
		sb.WriteString(")\n")
	}
	return sb.String()
}

// Describe renders one column for prompt text.
func (c Column) Describe() string {
	var sb strings.Builder
	sb.WriteString(c.Name)
	sb.WriteByte(' ')
	sb.WriteString(c.Type)
	if !c.Nullable {
		sb.WriteString(" NOT NULL")
	}
	if strings.EqualFold(c.Key, "PRI") {
		sb.WriteString(" PRIMARY KEY")
	}
	if c.Comment != "" {
		sb.WriteString(fmt.Sprintf(" /* %s */", c.Comment))
	}
	return sb.String()
}
