package all

import (
	"testing"

	"retailbench/internal/storage"
)

func TestAllBackendsRegistered(t *testing.T) {
	got := storage.Kinds()
	want := []string{"mssql", "postgres", "sqlite"}
	if len(got) != len(want) {
		t.Fatalf("Kinds()=%v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Kinds()=%v, want %v", got, want)
		}
	}
}
