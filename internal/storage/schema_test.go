package storage

import (
	"context"
	"strings"
	"testing"
)

func TestRowsPerStatement(t *testing.T) {
	tests := []struct {
		name                     string
		ncols, maxParams, maxRow int
		want                     int
	}{
		{name: "sqlite_items", ncols: 19, maxParams: 32766, maxRow: 0, want: 1724},
		{name: "mssql_capped_by_rows", ncols: 2, maxParams: 2099, maxRow: 1000, want: 1000},
		{name: "mssql_capped_by_params", ncols: 19, maxParams: 2099, maxRow: 1000, want: 110},
		{name: "too_wide_still_one", ncols: 5000, maxParams: 2099, maxRow: 1000, want: 1},
		{name: "zero_cols", ncols: 0, maxParams: 10, maxRow: 0, want: 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := RowsPerStatement(tc.ncols, tc.maxParams, tc.maxRow); got != tc.want {
				t.Fatalf("RowsPerStatement(%d,%d,%d)=%d, want %d", tc.ncols, tc.maxParams, tc.maxRow, got, tc.want)
			}
		})
	}
}

func TestChunk(t *testing.T) {
	rows := [][]any{{1}, {2}, {3}, {4}, {5}}
	got := Chunk(rows, 2)
	if len(got) != 3 {
		t.Fatalf("chunks=%d, want 3", len(got))
	}
	total := 0
	for _, c := range got {
		total += len(c)
	}
	if total != len(rows) {
		t.Fatalf("rows across chunks=%d, want %d", total, len(rows))
	}
	if got[2][0][0] != 5 {
		t.Fatalf("last chunk=%v, want [[5]]", got[2])
	}
	if n := len(Chunk(nil, 3)); n != 0 {
		t.Fatalf("Chunk(nil)=%d chunks, want 0", n)
	}
}

func TestCheckShape(t *testing.T) {
	cols := []string{"a", "b"}
	if err := CheckShape("t", cols, [][]any{{1, 2}, {3, nil}}); err != nil {
		t.Fatalf("CheckShape() err=%v, want nil", err)
	}
	err := CheckShape("t", cols, [][]any{{1, 2}, {3}})
	if err == nil || !strings.Contains(err.Error(), "row 1 has 1 values, want 2") {
		t.Fatalf("CheckShape() err=%v, want row-length error", err)
	}
	if err := CheckShape("t", nil, nil); err == nil {
		t.Fatalf("CheckShape() with no columns should fail")
	}
}

func TestTableSpecValidate(t *testing.T) {
	ok := TableSpec{Name: "items", Columns: []ColumnSpec{{Name: "item_id", Type: TypeText}, {Name: "price", Type: TypeDouble}}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
	if got := ok.ColumnNames(); len(got) != 2 || got[1] != "price" {
		t.Fatalf("ColumnNames()=%v", got)
	}

	bad := TableSpec{Name: "items", Columns: []ColumnSpec{{Name: "x", Type: "jsonb"}}}
	if err := bad.Validate(); err == nil {
		t.Fatalf("Validate() accepted unsupported type")
	}
	if err := (TableSpec{Name: " "}).Validate(); err == nil {
		t.Fatalf("Validate() accepted empty name")
	}
}

func TestColumnSpecIsNullable(t *testing.T) {
	no := false
	if !(ColumnSpec{Name: "a"}).IsNullable() {
		t.Fatalf("unset Nullable should default to nullable")
	}
	if (ColumnSpec{Name: "a", Nullable: &no}).IsNullable() {
		t.Fatalf("Nullable=false should be NOT NULL")
	}
}

type nopRepo struct{}

func (nopRepo) Close()                                          {}
func (nopRepo) EnsureTables(context.Context, []TableSpec) error { return nil }
func (nopRepo) AppendRows(context.Context, string, []string, [][]any) (int64, error) {
	return 0, nil
}

func TestRegisterAndNew(t *testing.T) {
	Register("test-nop", func(ctx context.Context, cfg Config) (Repository, error) { return nopRepo{}, nil })

	repo, err := New(context.Background(), Config{Kind: "test-nop"})
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	repo.Close()

	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("New() with empty kind should fail")
	}
	if _, err := New(context.Background(), Config{Kind: "nope"}); err == nil || !strings.Contains(err.Error(), "test-nop") {
		t.Fatalf("New() err=%v, want unsupported error listing registered kinds", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("duplicate Register should panic")
		}
	}()
	Register("test-nop", func(ctx context.Context, cfg Config) (Repository, error) { return nopRepo{}, nil })
}
