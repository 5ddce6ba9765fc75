// Package probe takes bounded samples of source files and infers what the
// loaders need to know before reading them in full: the format, the field
// delimiter, whether the first row is a header, and coarse column types.
//
// Design constraints:
//   - Sampling is bounded in memory; only the first MaxBytes are read.
//     Parquet keeps its schema in the footer, so it is read row-wise up to
//     the row limit instead.
//   - Inference is best-effort. Ambiguous samples fall back to defaults
//     rather than failing.
package probe

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"retailbench/internal/config"
	"retailbench/internal/parser"
	csvparser "retailbench/internal/parser/csv"
	jsonparser "retailbench/internal/parser/json"
	parquetparser "retailbench/internal/parser/parquet"
	"retailbench/pkg/records"
)

// DefaultMaxBytes is the sample size used when none is given.
const DefaultMaxBytes = 64 << 10

// Format is the detected file format.
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatJSON
	FormatParquet
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	case FormatParquet:
		return "parquet"
	default:
		return "unknown"
	}
}

// Delimiters are the field separators DetectDelimiter chooses from, in
// tie-break order.
var Delimiters = []rune{',', ';', '\t', '|'}

// Report summarizes one probed file.
type Report struct {
	Path      string
	Format    Format
	Delimiter rune
	HasHeader bool
	// Columns are normalized the way the CSV parser normalizes headers;
	// headerless files get col_1..col_n.
	Columns []string
	Types   []string
	Rows    []records.Record
}

// Sample returns at most maxBytes from the start of path, decompressing
// gzip, cut back to the last newline so no half row survives.
func Sample(path string, maxBytes int) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	rc, err := parser.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(rc, int64(maxBytes)))
	if err != nil {
		return nil, fmt.Errorf("probe: sample %s: %w", path, err)
	}
	b := buf.Bytes()

	// A full buffer means the file goes on; drop the trailing partial line.
	if n == int64(maxBytes) {
		if i := bytes.LastIndexByte(b, '\n'); i > 0 {
			b = b[:i+1]
		}
	}
	return b, nil
}

// SniffFormat classifies a sample by its first non-space byte.
func SniffFormat(sample []byte) Format {
	trim := bytes.TrimSpace(bytes.TrimPrefix(sample, []byte("\uFEFF")))
	if len(trim) == 0 {
		return FormatUnknown
	}
	if trim[0] == '{' || trim[0] == '[' {
		return FormatJSON
	}
	return FormatCSV
}

// DetectDelimiter picks the delimiter that splits the sample's rows into the
// same number of fields (at least two) most often, preferring more fields.
// ',' is returned when nothing qualifies.
func DetectDelimiter(sample []byte) rune {
	best, bestFields, bestRows := ',', 1, 0
	for _, d := range Delimiters {
		fields, rows := consistentFields(sample, d, 50)
		if fields < 2 {
			continue
		}
		if rows > bestRows || (rows == bestRows && fields > bestFields) {
			best, bestFields, bestRows = d, fields, rows
		}
	}
	return best
}

// consistentFields returns the field count of the first record and how many
// of the first maxRows records share it.
func consistentFields(sample []byte, d rune, maxRows int) (fields, rows int) {
	r := csv.NewReader(bytes.NewReader(sample))
	r.Comma = d
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	for i := 0; i < maxRows; i++ {
		rec, err := r.Read()
		if err != nil {
			break
		}
		if i == 0 {
			fields = len(rec)
		}
		if len(rec) == fields {
			rows++
		}
	}
	return fields, rows
}

// LooksLikeHeader reports whether first is a header row rather than data: at
// least one cell mentions "id" (the key column every source carries) and no
// cell is numeric.
func LooksLikeHeader(first []string) bool {
	if len(first) == 0 {
		return false
	}
	hasID := false
	for _, c := range first {
		c = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(c, "\uFEFF")))
		if c == "" || isNumeric(c) {
			return false
		}
		if strings.Contains(c, "id") {
			hasID = true
		}
	}
	return hasID
}

// DetectHeader reads the first row of path with delimiter d and applies
// LooksLikeHeader.
func DetectHeader(path string, d rune) (bool, error) {
	sample, err := Sample(path, 16<<10)
	if err != nil {
		return false, err
	}
	r := csv.NewReader(bytes.NewReader(sample))
	r.Comma = d
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	first, err := r.Read()
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("probe: %s: %w", path, err)
	}
	return LooksLikeHeader(first), nil
}

// ReadHeader returns the normalized header of the delimited file at path
// after parsing up to maxRows data rows, so a file whose first rows do not
// parse is rejected here rather than halfway through a load.
func ReadHeader(ctx context.Context, path string, d rune, maxRows int) ([]string, error) {
	rc, err := parser.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	rd, err := csvparser.NewReader(rc, config.Options{"comma": string(d), "lazy_quotes": true})
	if err != nil {
		return nil, err
	}
	for i := 0; i < maxRows; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := rd.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
	}
	return rd.Columns(), nil
}

// HasColumns reports whether every name in required is among cols.
func HasColumns(cols []string, required ...string) bool {
	set := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		set[c] = struct{}{}
	}
	for _, r := range required {
		if _, ok := set[r]; !ok {
			return false
		}
	}
	return true
}

// File samples path and reports its format, layout and up to maxRows rows.
func File(ctx context.Context, path string, maxBytes, maxRows int) (Report, error) {
	if maxRows <= 0 {
		maxRows = 10
	}
	rep := Report{Path: path}

	if parser.BaseExt(path) == ".parquet" && !parser.IsGzip(path) {
		rep.Format = FormatParquet
		_, err := parquetparser.ReadChunks(ctx, path, nil, maxRows, func(t records.Table) error {
			rep.Columns = t.Columns
			rep.Rows = t.Rows
			return errStop
		})
		if err != nil && !errors.Is(err, errStop) {
			return rep, fmt.Errorf("probe: %s: %w", path, err)
		}
		rep.Types = inferTypes(rep.Columns, rep.Rows)
		return rep, nil
	}

	sample, err := Sample(path, maxBytes)
	if err != nil {
		return rep, err
	}
	rep.Format = SniffFormat(sample)

	switch rep.Format {
	case FormatCSV:
		rep.Delimiter = DetectDelimiter(sample)
		if err := probeCSV(ctx, sample, maxRows, &rep); err != nil {
			return rep, fmt.Errorf("probe: %s: %w", path, err)
		}
	case FormatJSON:
		if err := probeJSON(ctx, sample, maxRows, &rep); err != nil {
			return rep, fmt.Errorf("probe: %s: %w", path, err)
		}
	}

	rep.Types = inferTypes(rep.Columns, rep.Rows)
	return rep, nil
}

func probeCSV(ctx context.Context, sample []byte, maxRows int, rep *Report) error {
	r := csv.NewReader(bytes.NewReader(sample))
	r.Comma = rep.Delimiter
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	first, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	rep.HasHeader = LooksLikeHeader(first)

	opt := config.Options{
		"comma":       string(rep.Delimiter),
		"lazy_quotes": true,
		"has_header":  rep.HasHeader,
	}
	_, err = csvparser.ReadChunks(ctx, bytes.NewReader(sample), opt, maxRows, func(t records.Table) error {
		rep.Columns = t.Columns
		rep.Rows = t.Rows
		return errStop
	})
	if errors.Is(err, errStop) {
		return nil
	}
	return err
}

func probeJSON(ctx context.Context, sample []byte, maxRows int, rep *Report) error {
	seen := map[string]struct{}{}
	err := jsonparser.StreamObjects(ctx, bytes.NewReader(sample), nil, func(rec records.Record) error {
		rep.Rows = append(rep.Rows, rec)
		for k := range rec {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				rep.Columns = append(rep.Columns, k)
			}
		}
		if len(rep.Rows) >= maxRows {
			return errStop
		}
		return nil
	})
	sort.Strings(rep.Columns)
	rep.HasHeader = len(rep.Columns) > 0
	if err == nil || errors.Is(err, errStop) {
		return nil
	}
	// A sample cut inside a pretty-printed document is expected; keep what
	// was decoded.
	if len(rep.Rows) > 0 {
		return nil
	}
	return err
}

var errStop = errors.New("probe: stop")
