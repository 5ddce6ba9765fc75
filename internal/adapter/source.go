package adapter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"retailbench/internal/config"
	"retailbench/internal/parser"
	csvparser "retailbench/internal/parser/csv"
	jsonparser "retailbench/internal/parser/json"
	parquetparser "retailbench/internal/parser/parquet"
	"retailbench/internal/probe"
	"retailbench/pkg/records"
)

// requireFile returns dir/name, or an error matching ErrMissingSource.
func requireFile(dir, name string) (string, error) {
	p := filepath.Join(dir, name)
	ok, err := exists(p)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingSource, p)
	}
	return p, nil
}

// optionalFile returns dir/name and whether it exists.
func optionalFile(dir, name string) (string, bool, error) {
	p := filepath.Join(dir, name)
	ok, err := exists(p)
	return p, ok, err
}

// firstExisting returns the first of names present in dir.
func firstExisting(dir string, names ...string) (string, bool, error) {
	for _, n := range names {
		p, ok, err := optionalFile(dir, n)
		if err != nil {
			return "", false, err
		}
		if ok {
			return p, true, nil
		}
	}
	return "", false, nil
}

func exists(p string) (bool, error) {
	st, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !st.IsDir(), nil
}

// isJSON reports whether path holds JSON records rather than delimited text.
func isJSON(path string) bool {
	switch parser.BaseExt(path) {
	case ".json", ".jsonl", ".ndjson":
		return true
	}
	return false
}

// csvOptions completes opt for path: an explicit comma wins, otherwise the
// delimiter is detected from a sample. Bare quotes inside fields are
// tolerated unless lazy_quotes is set to false.
func csvOptions(path string, opt config.Options) (config.Options, error) {
	if _, ok := opt["lazy_quotes"]; !ok {
		opt = opt.With("lazy_quotes", true)
	}
	if _, ok := opt["comma"]; ok {
		return opt, nil
	}
	sample, err := probe.Sample(path, 0)
	if err != nil {
		return nil, err
	}
	return opt.With("comma", string(probe.DetectDelimiter(sample))), nil
}

// isParquet reports whether path is a Parquet file.
func isParquet(path string) bool {
	return parser.BaseExt(path) == ".parquet" && !parser.IsGzip(path)
}

// readTable reads a whole delimited, JSON or Parquet file.
func readTable(ctx context.Context, path string, opt config.Options) (records.Table, error) {
	var out records.Table
	err := readChunks(ctx, path, opt, 0, func(t records.Table) error {
		out.Columns = t.Columns
		out.Rows = append(out.Rows, t.Rows...)
		return nil
	})
	return out, err
}

// readChunks streams path in chunks of at most size rows (all at once for
// size <= 0). JSON records carry no column order; their columns are the
// sorted union of the chunk's keys. Parquet columns keep schema order.
func readChunks(ctx context.Context, path string, opt config.Options, size int, fn func(records.Table) error) error {
	if isParquet(path) {
		if _, err := parquetparser.ReadChunks(ctx, path, opt, size, fn); err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		return nil
	}

	rc, err := parser.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer rc.Close()

	if !isJSON(path) {
		copt, err := csvOptions(path, opt)
		if err != nil {
			return err
		}
		if _, err := csvparser.ReadChunks(ctx, rc, copt, size, fn); err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		return nil
	}

	var rows []records.Record
	flush := func() error {
		if len(rows) == 0 {
			return nil
		}
		t := records.Table{Columns: jsonColumns(rows), Rows: rows}
		rows = nil
		return fn(t)
	}
	err = jsonparser.StreamObjects(ctx, rc, opt.With("lowercase_keys", opt.Bool("lowercase_keys", true)), func(rec records.Record) error {
		rows = append(rows, rec)
		if size > 0 && len(rows) >= size {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

func jsonColumns(rows []records.Record) []string {
	seen := map[string]struct{}{}
	var cols []string
	for _, r := range rows {
		for k := range r {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}
