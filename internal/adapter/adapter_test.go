package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailbench/internal/config"
	"retailbench/internal/model"
)

func TestLoad_Dispatch(t *testing.T) {
	mem, s := newMemorySink()

	_, err := Load(context.Background(), "amazon", s, Options{})
	assert.ErrorIs(t, err, ErrUnknownDataset)

	st, err := Load(context.Background(), config.DatasetAbtBuy, s, Options{Dir: writeAbtBuy(t)})
	require.NoError(t, err)
	assert.Equal(t, int64(4), st.Total())
	assert.Equal(t, 3, mem.Count(model.TableItems))

	for _, tag := range config.Datasets {
		assert.Contains(t, loaders, tag)
	}
}

func TestStats_Add(t *testing.T) {
	var st Stats
	st.Add(Stats{Items: 1, Pairs: 2})
	st.Add(Stats{Items: 3, Entities: 1, ItemEntities: 4, Queries: 5, Labels: 6})

	assert.Equal(t, Stats{Items: 4, Queries: 5, Labels: 6, Pairs: 2, Entities: 1, ItemEntities: 4}, st)
	assert.Equal(t, int64(22), st.Total())
	assert.Len(t, st.Fields(), 6)
}
