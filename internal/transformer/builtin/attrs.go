package builtin

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"

	"retailbench/pkg/records"
)

// Attr is one leftover source field carried in an item's attribute bag.
type Attr struct {
	Key   string
	Value any
}

// LeftoverAttrs collects every column of rec, in file order, that is not
// named in exclude. Excluded names are the columns already mapped to a
// canonical field.
func LeftoverAttrs(columns []string, rec records.Record, exclude ...string) []Attr {
	skip := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		skip[e] = struct{}{}
	}
	out := make([]Attr, 0, len(columns))
	for _, c := range columns {
		if _, ok := skip[c]; ok {
			continue
		}
		out = append(out, Attr{Key: c, Value: rec[c]})
	}
	return out
}

// EncodeAttrs renders attrs as a compact JSON object with HTML escaping off.
// Keys are written in slice order; readers must not depend on it.
// A nil or empty slice encodes as "{}".
func EncodeAttrs(attrs []Attr) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, a := range attrs {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(a.Key); err != nil {
			return "", fmt.Errorf("attrs: encode key %q: %w", a.Key, err)
		}
		trimNewline(&buf)
		buf.WriteByte(':')
		if err := enc.Encode(a.Value); err != nil {
			return "", fmt.Errorf("attrs: encode %q: %w", a.Key, err)
		}
		trimNewline(&buf)
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

func trimNewline(b *bytes.Buffer) {
	if n := b.Len(); n > 0 && b.Bytes()[n-1] == '\n' {
		b.Truncate(n - 1)
	}
}
