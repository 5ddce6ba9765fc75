package sink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailbench/internal/model"
	"retailbench/internal/storage"
	_ "retailbench/internal/storage/sqlite"
)

func TestSink_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(repo.Close)
	require.NoError(t, repo.EnsureTables(ctx, model.Tables()))

	s := New(repo, nil).ForDataset("esci")
	items := []model.Item{
		{ItemID: "a", Dataset: "esci", DatasetItemKey: "us:A", Price: model.Ptr(1.5), Currency: model.Ptr("USD")},
		{ItemID: "b", Dataset: "esci", DatasetItemKey: "us:B"},
	}
	n, err := s.Items(ctx, items)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	labels := []model.QueryItemLabel{
		{QueryID: model.Ptr("q"), ItemID: model.Ptr("a"), LabelFamily: "ESCI", Label: "E", Position: model.Ptr(int64(3))},
	}
	n, err = s.Labels(ctx, labels)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	// NOT NULL violation rolls back the whole batch.
	_, err = s.Append(ctx, model.TableItems, model.ItemColumns, [][]any{
		model.Item{ItemID: "c", Dataset: "esci", DatasetItemKey: "us:C"}.Values(),
		append([]any{nil}, model.Item{}.Values()[1:]...),
	})
	require.Error(t, err)
	n, err = s.Items(ctx, items[:1])
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
