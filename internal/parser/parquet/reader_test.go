package parquet

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailbench/internal/config"
	"retailbench/pkg/records"
)

type productRow struct {
	ProductID    string  `parquet:"product_id"`
	ProductTitle string  `parquet:"Product Title"`
	Brand        *string `parquet:"product_brand,optional"`
	Rank         int64   `parquet:"rank"`
	Score        float64 `parquet:"score"`
	InStock      bool    `parquet:"in_stock"`
}

func writeParquet[T any](t *testing.T, rows []T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.parquet")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := parquet.NewGenericWriter[T](f)
	_, err = w.Write(rows)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func sonyRows(n int) []productRow {
	brand := "Sony"
	rows := make([]productRow, n)
	for i := range rows {
		rows[i] = productRow{ProductID: "B" + string(rune('0'+i%10)), ProductTitle: "TV", Rank: int64(i), Score: 1.5, InStock: i%2 == 0}
		if i == 0 {
			rows[i].Brand = &brand
		}
	}
	return rows
}

func TestReadChunks_ValuesAndColumns(t *testing.T) {
	path := writeParquet(t, sonyRows(2))

	var got records.Table
	n, err := ReadChunks(context.Background(), path, nil, 0, func(tb records.Table) error {
		got = tb
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.ElementsMatch(t, []string{"product_id", "product_title", "product_brand", "rank", "score", "in_stock"}, got.Columns)
	require.Len(t, got.Rows, 2)

	first := got.Rows[0]
	assert.Equal(t, "B0", first["product_id"])
	assert.Equal(t, "TV", first["product_title"])
	assert.Equal(t, "Sony", first["product_brand"])
	assert.Equal(t, "0", first["rank"])
	assert.Equal(t, "1.5", first["score"])
	assert.Equal(t, "true", first["in_stock"])

	second := got.Rows[1]
	v, present := second["product_brand"]
	assert.True(t, present, "null cells keep their column")
	assert.Nil(t, v)
}

func TestReadChunks_Sizes(t *testing.T) {
	path := writeParquet(t, sonyRows(7))

	tests := []struct {
		size   int
		chunks int
	}{
		{0, 1},
		{3, 3},
		{7, 1},
		{100, 1},
	}
	for _, tt := range tests {
		chunks, rows := 0, 0
		n, err := ReadChunks(context.Background(), path, nil, tt.size, func(tb records.Table) error {
			chunks++
			rows += len(tb.Rows)
			return nil
		})
		if err != nil {
			t.Fatalf("size=%d: err=%v", tt.size, err)
		}
		if n != 7 || rows != 7 {
			t.Fatalf("size=%d: n=%d rows=%d, want 7", tt.size, n, rows)
		}
		if chunks != tt.chunks {
			t.Fatalf("size=%d: chunks=%d, want %d", tt.size, chunks, tt.chunks)
		}
	}
}

func TestReadChunks_HeaderMapAndColumns(t *testing.T) {
	path := writeParquet(t, sonyRows(1))
	opt := config.Options{"header_map": map[string]string{"product_id": "asin"}}

	cols, err := Columns(path, opt)
	require.NoError(t, err)
	assert.Contains(t, cols, "asin")
	assert.NotContains(t, cols, "product_id")
}

func TestReadChunks_Errors(t *testing.T) {
	stop := errors.New("stop")
	path := writeParquet(t, sonyRows(3))
	_, err := ReadChunks(context.Background(), path, nil, 1, func(records.Table) error { return stop })
	assert.ErrorIs(t, err, stop)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ReadChunks(ctx, path, nil, 0, func(records.Table) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)

	bad := filepath.Join(t.TempDir(), "bad.parquet")
	require.NoError(t, os.WriteFile(bad, []byte("not parquet"), 0o644))
	_, err = ReadChunks(context.Background(), bad, nil, 0, func(records.Table) error { return nil })
	assert.Error(t, err)
}
