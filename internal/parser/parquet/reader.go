// Package parquet reads flat Parquet files into string records, the same
// shape the CSV and JSON parsers produce.
package parquet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"

	"retailbench/internal/config"
	csvparser "retailbench/internal/parser/csv"
	"retailbench/pkg/records"
)

// readBatch is how many rows are pulled from the file per ReadRows call.
const readBatch = 256

// Columns returns the normalized leaf column names of the file at path, in
// schema order. Nested leaves are named by their dotted path.
func Columns(path string, opt config.Options) ([]string, error) {
	f, pf, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return columnNames(pf.Schema(), opt), nil
}

// ReadChunks reads path and calls fn with chunks of at most size rows (one
// chunk for size <= 0). fn is called at least once, so a file with no rows
// still reports its columns. Values are rendered as strings; nulls and empty
// strings become nil. Repeated leaves are joined with ",".
//
// Options:
//   - header_map: source column -> record key, applied before lowercasing
func ReadChunks(ctx context.Context, path string, opt config.Options, size int, fn func(records.Table) error) (int, error) {
	f, pf, err := open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	cols := columnNames(pf.Schema(), opt)
	r := parquet.NewReader(pf)
	defer r.Close()

	var (
		total   int
		rows    []records.Record
		flushed bool
	)
	flush := func() error {
		flushed = true
		t := records.Table{Columns: cols, Rows: rows}
		rows = nil
		return fn(t)
	}

	buf := make([]parquet.Row, readBatch)
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := r.ReadRows(buf)
		for _, row := range buf[:n] {
			rows = append(rows, toRecord(cols, row))
			total++
			if size > 0 && len(rows) >= size {
				if ferr := flush(); ferr != nil {
					return total, ferr
				}
			}
		}
		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			break
		}
		if err != nil {
			return total, fmt.Errorf("parquet: %s: row %d: %w", path, total+1, err)
		}
	}

	if len(rows) > 0 || !flushed {
		if err := flush(); err != nil {
			return total, err
		}
	}
	return total, nil
}

func open(path string) (*os.File, *parquet.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("parquet: %s: %w", path, err)
	}
	return f, pf, nil
}

func columnNames(s *parquet.Schema, opt config.Options) []string {
	leaves := s.Columns()
	names := make([]string, len(leaves))
	for i, p := range leaves {
		names[i] = strings.Join(p, ".")
	}
	return csvparser.NormalizeHeader(names, opt.StringMap("header_map"))
}

func toRecord(cols []string, row parquet.Row) records.Record {
	rec := make(records.Record, len(cols))
	for _, c := range cols {
		rec[c] = nil
	}
	for _, v := range row {
		i := v.Column()
		if i < 0 || i >= len(cols) {
			continue
		}
		s, ok := cell(v)
		if !ok {
			continue
		}
		if prev, ok := rec[cols[i]].(string); ok {
			s = prev + "," + s
		}
		rec[cols[i]] = s
	}
	return rec
}

// cell renders one leaf value. ok is false for nulls and empty strings.
func cell(v parquet.Value) (string, bool) {
	if v.IsNull() {
		return "", false
	}
	var s string
	switch v.Kind() {
	case parquet.Boolean:
		s = strconv.FormatBool(v.Boolean())
	case parquet.Int32:
		s = strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		s = strconv.FormatInt(v.Int64(), 10)
	case parquet.Float:
		s = strconv.FormatFloat(float64(v.Float()), 'g', -1, 32)
	case parquet.Double:
		s = strconv.FormatFloat(v.Double(), 'g', -1, 64)
	case parquet.ByteArray, parquet.FixedLenByteArray:
		s = string(v.ByteArray())
	default:
		s = v.String()
	}
	if s == "" {
		return "", false
	}
	return s, true
}
