// Package csv reads delimited source files into records keyed by normalized
// column names.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"retailbench/internal/config"
	"retailbench/internal/transformer/builtin"
	"retailbench/pkg/records"
)

// Reader yields one records.Record per data row.
//
// Options:
//   - has_header (bool, default true): first row names the columns
//   - columns ([]string): names for headerless input; col_1.. otherwise
//   - comma (rune, default ','): field delimiter, "\t" accepted
//   - lazy_quotes (bool): tolerate bare quotes inside fields
//   - trim_space (bool, default true): trim cell edges
//   - header_map (map): raw header -> column name overrides
type Reader struct {
	cr      *csv.Reader
	columns []string
	trim    bool
	line    int
}

// NewReader prepares r for reading and consumes the header row when present.
// Empty input yields a reader with no columns whose first Read is io.EOF.
func NewReader(r io.Reader, opt config.Options) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.Comma = opt.Rune("comma", ',')
	cr.LazyQuotes = opt.Bool("lazy_quotes", false)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	rd := &Reader{cr: cr, trim: opt.Bool("trim_space", true)}

	if !opt.Bool("has_header", true) {
		rd.columns = opt.StringSlice("columns")
		return rd, nil
	}

	rd.line++
	hdr, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return rd, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	rd.columns = NormalizeHeader(hdr, opt.StringMap("header_map"))
	return rd, nil
}

// NormalizeHeader maps raw header cells to column names: a leading BOM dropped,
// edges trimmed, header_map applied, otherwise lowercased with spaces
// turned into underscores.
func NormalizeHeader(hdr []string, hm map[string]string) []string {
	out := make([]string, len(hdr))
	for i, h := range hdr {
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		if builtin.HasEdgeSpace(h) {
			h = strings.TrimSpace(h)
		}
		if mapped, ok := hm[h]; ok {
			h = mapped
		} else {
			h = strings.ReplaceAll(strings.ToLower(h), " ", "_")
		}
		out[i] = h
	}
	return out
}

// Columns returns the column names in file order.
func (r *Reader) Columns() []string { return r.columns }

// Line returns the 1-based line number of the last row read.
func (r *Reader) Line() int { return r.line }

// Read returns the next row, or io.EOF. Cells beyond the known columns are
// dropped; missing and empty cells are nil. Headerless input without
// declared columns is named col_1..col_n after its first row.
func (r *Reader) Read() (records.Record, error) {
	r.line++
	rec, err := r.cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("csv: line %d: %w", r.line, err)
	}

	if r.columns == nil {
		r.columns = make([]string, len(rec))
		for i := range rec {
			r.columns[i] = "col_" + strconv.Itoa(i+1)
		}
	}

	out := make(records.Record, len(r.columns))
	for i, c := range r.columns {
		if i >= len(rec) {
			out[c] = nil
			continue
		}
		v := rec[i]
		if r.trim && builtin.HasEdgeSpace(v) {
			v = strings.TrimSpace(v)
		}
		if v == "" {
			out[c] = nil
		} else {
			out[c] = v
		}
	}
	return out, nil
}

// ReadAll reads every row of r.
func ReadAll(ctx context.Context, r io.Reader, opt config.Options) (records.Table, error) {
	var t records.Table
	_, err := ReadChunks(ctx, r, opt, 0, func(chunk records.Table) error {
		t.Columns = chunk.Columns
		t.Rows = append(t.Rows, chunk.Rows...)
		return nil
	})
	if err != nil {
		return records.Table{}, err
	}
	return t, nil
}

// ReadChunks calls fn with consecutive slices of at most size rows and
// returns the number of rows read. size <= 0 delivers everything in one
// chunk. fn always sees the column list, even for a header-only file, and
// is called at least once.
func ReadChunks(ctx context.Context, r io.Reader, opt config.Options, size int, fn func(records.Table) error) (int, error) {
	rd, err := NewReader(r, opt)
	if err != nil {
		return 0, err
	}

	var (
		total   int
		rows    []records.Record
		flushed bool
	)
	flush := func() error {
		flushed = true
		t := records.Table{Columns: rd.Columns(), Rows: rows}
		rows = nil
		return fn(t)
	}

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		rec, err := rd.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return total, err
		}
		rows = append(rows, rec)
		total++
		if size > 0 && len(rows) >= size {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}

	if len(rows) > 0 || !flushed {
		if err := flush(); err != nil {
			return total, err
		}
	}
	return total, nil
}
