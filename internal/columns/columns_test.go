package columns

import (
	"testing"

	"retailbench/pkg/records"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	rules := RuleSet{
		{Role: "id", Exact: []string{"id", "product_id"}},
		{Role: "title", Contains: []string{"title", "name"}},
		{Role: "brand", Contains: []string{"brand", "manufacturer"}},
		{Role: "price", Contains: []string{"price"}},
	}

	tests := []struct {
		name    string
		columns []string
		want    map[string]string
		missing []string
	}{
		{
			name:    "exact_and_contains",
			columns: []string{"Product_ID", "product_name", "Manufacturer", "price"},
			want:    map[string]string{"id": "Product_ID", "title": "product_name", "brand": "Manufacturer", "price": "price"},
		},
		{
			name:    "first_column_in_file_order_wins",
			columns: []string{"id", "price_currency", "price"},
			want:    map[string]string{"id": "id", "price": "price_currency"},
			missing: []string{"title", "brand"},
		},
		{
			name:    "exact_rule_does_not_fall_back_to_contains",
			columns: []string{"item_id", "title"},
			want:    map[string]string{"title": "title"},
			missing: []string{"id"},
		},
		{
			name:    "no_columns",
			columns: nil,
			missing: []string{"id", "title", "brand", "price"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Resolve(tc.columns, rules)
			for role, col := range tc.want {
				got, ok := res.Column(role)
				require.True(t, ok, "role %q should resolve", role)
				assert.Equal(t, col, got)
			}
			for _, role := range tc.missing {
				assert.False(t, res.Resolved(role), "role %q should not resolve", role)
			}
		})
	}
}

func TestResolution_ValueAndColumns(t *testing.T) {
	res := Resolve([]string{"name", "title", "brand"}, RuleSet{
		{Role: "title", Contains: []string{"title"}},
		{Role: "label", Contains: []string{"title", "name"}},
		{Role: "brand", Exact: []string{"brand"}},
		{Role: "color", Contains: []string{"colour"}},
	})
	rec := records.Record{"name": "x", "title": "Widget", "brand": nil}

	assert.Equal(t, "Widget", res.Value(rec, "title"))
	assert.Equal(t, "x", res.Value(rec, "label"))
	assert.Nil(t, res.Value(rec, "color"))
	assert.Nil(t, res.Value(rec, "brand"))

	_, ok := res.String(rec, "brand")
	assert.False(t, ok)
	s, ok := res.String(rec, "title")
	require.True(t, ok)
	assert.Equal(t, "Widget", s)

	assert.Equal(t, []string{"title", "name", "brand"}, res.Columns())
	assert.Equal(t, []string{"title", "label", "brand"}, res.Roles())
}
