package parser

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_PlainAndGzip(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "a.csv")
	require.NoError(t, os.WriteFile(plain, []byte("id\n1\n"), 0o644))

	gz := filepath.Join(dir, "b.jsonl.gz")
	f, err := os.Create(gz)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte(`{"a":1}` + "\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	for path, want := range map[string]string{plain: "id\n1\n", gz: `{"a":1}` + "\n"} {
		rc, err := Open(path)
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, want, string(b), path)
	}

	_, err = Open(filepath.Join(dir, "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpen_CorruptGzip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.csv.gz")
	require.NoError(t, os.WriteFile(p, []byte("not gzip"), 0o644))
	_, err := Open(p)
	assert.Error(t, err)
}

func TestBaseExt(t *testing.T) {
	assert.Equal(t, ".jsonl", BaseExt("x/products.jsonl.gz"))
	assert.Equal(t, ".csv", BaseExt("TableA.CSV"))
	assert.Equal(t, "", BaseExt("dir.v1/README"))
	assert.True(t, IsGzip("a.JSON.GZ"))
}
