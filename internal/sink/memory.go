package sink

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an append-only in-memory Writer for tests and dry runs.
type Memory struct {
	mu      sync.Mutex
	columns map[string][]string
	rows    map[string][][]any
}

// NewMemory returns an empty Memory writer.
func NewMemory() *Memory {
	return &Memory{columns: map[string][]string{}, rows: map[string][][]any{}}
}

// AppendRows stores rows. A table's column list is fixed by its first batch;
// later batches with a different column list are rejected.
func (m *Memory) AppendRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.columns[table]; ok {
		if !equalStrings(prev, columns) {
			return 0, fmt.Errorf("memory: %s: column list %v does not match %v", table, columns, prev)
		}
	} else {
		m.columns[table] = append([]string(nil), columns...)
	}
	for _, r := range rows {
		m.rows[table] = append(m.rows[table], append([]any(nil), r...))
	}
	return int64(len(rows)), nil
}

// Rows returns a copy of the rows stored for table.
func (m *Memory) Rows(table string) [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]any(nil), m.rows[table]...)
}

// Count returns the number of rows stored for table.
func (m *Memory) Count(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows[table])
}

// Column returns the values of column in table, in insertion order.
func (m *Memory) Column(table, column string) []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := -1
	for i, c := range m.columns[table] {
		if c == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]any, len(m.rows[table]))
	for i, r := range m.rows[table] {
		out[i] = r[idx]
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
