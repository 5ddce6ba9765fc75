package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"retailbench/internal/sink"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func newMemorySink() (*sink.Memory, *sink.Sink) {
	mem := sink.NewMemory()
	return mem, sink.New(mem, nil)
}

// str dereferences a stored cell for comparisons; nil cells read as "<nil>".
func str(v any) string {
	switch t := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return t
	case *string:
		if t == nil {
			return "<nil>"
		}
		return *t
	default:
		return "<?>"
	}
}
