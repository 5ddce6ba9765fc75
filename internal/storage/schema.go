// Table specs live here so both internal/model and the backend packages can
// import them without circular deps.
package storage

import (
	"fmt"
	"strings"
)

// Logical column types. Backends map them onto native types.
const (
	TypeText   = "text"
	TypeDouble = "double"
	TypeBigint = "bigint"
)

type TableSpec struct {
	Name    string       `json:"name"`
	Columns []ColumnSpec `json:"columns"`
}

type ColumnSpec struct {
	Name     string `json:"name"`
	Type     string `json:"type"` // one of TypeText, TypeDouble, TypeBigint
	Nullable *bool  `json:"nullable,omitempty"`
}

// IsNullable reports the effective nullability. Columns are nullable unless
// stated otherwise.
func (c ColumnSpec) IsNullable() bool {
	return c.Nullable == nil || *c.Nullable
}

// ColumnNames returns the column names of t in order.
func (t TableSpec) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Validate checks that t has a name and well-formed columns.
func (t TableSpec) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("table name is empty")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s: no columns", t.Name)
	}
	for _, c := range t.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("table %s: column name is empty", t.Name)
		}
		switch c.Type {
		case TypeText, TypeDouble, TypeBigint:
		default:
			return fmt.Errorf("table %s: column %s: unsupported type %q", t.Name, c.Name, c.Type)
		}
	}
	return nil
}

// CheckShape verifies every row carries exactly len(columns) values.
func CheckShape(table string, columns []string, rows [][]any) error {
	if len(columns) == 0 {
		return fmt.Errorf("%s: no columns", table)
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			return fmt.Errorf("%s: row %d has %d values, want %d", table, i, len(r), len(columns))
		}
	}
	return nil
}

// RowsPerStatement returns how many rows of ncols values fit under maxParams
// bind parameters, capped at maxRows when maxRows > 0. It is at least 1.
func RowsPerStatement(ncols, maxParams, maxRows int) int {
	if ncols <= 0 {
		return 1
	}
	n := maxParams / ncols
	if maxRows > 0 && n > maxRows {
		n = maxRows
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Chunk splits rows into consecutive slices of at most size rows.
func Chunk(rows [][]any, size int) [][][]any {
	if size <= 0 {
		size = len(rows)
	}
	var out [][][]any
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		out = append(out, rows[start:end])
	}
	return out
}
