// Package records holds the loosely-typed row shape shared by parsers and
// dataset adapters.
package records

// Record is one source row keyed by normalized column name. Values are
// strings, or nil when the source cell was empty or missing.
type Record map[string]any

// Table is a fully read source file: its normalized header in file order and
// the rows that followed it.
type Table struct {
	Columns []string
	Rows    []Record
}

// String returns the value under key as a string. Absent, nil and non-string
// values report ok=false.
func (r Record) String(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
