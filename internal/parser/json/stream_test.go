package json

import (
	"context"
	"errors"
	"strings"
	"testing"

	"retailbench/internal/config"
	"retailbench/pkg/records"
)

func collect(t *testing.T, input string, opts config.Options) ([]records.Record, error) {
	t.Helper()
	var got []records.Record
	err := StreamObjects(context.Background(), strings.NewReader(input), opts, func(rec records.Record) error {
		got = append(got, rec)
		return nil
	})
	return got, err
}

func TestStreamObjects_JSONLines(t *testing.T) {
	input := `{"id": 7, "title_left": "A", "tags": ["x", "y"], "ok": true}
{"id": "8", "title_left": null, "spec": {"b": 1, "a": [1, 2]}}
`
	got, err := collect(t, input, nil)
	if err != nil {
		t.Fatalf("StreamObjects() err=%v", err)
	}
	if len(got) != 2 {
		t.Fatalf("records=%d, want 2", len(got))
	}
	if got[0]["id"] != "7" || got[0]["tags"] != "x,y" || got[0]["ok"] != "true" {
		t.Fatalf("record 0=%v", got[0])
	}
	if got[1]["title_left"] != nil {
		t.Fatalf("null should stay nil, got %#v", got[1]["title_left"])
	}
	if got[1]["spec"] != `{"a":[1,2],"b":1}` {
		t.Fatalf("nested object=%#v, want compact JSON", got[1]["spec"])
	}
}

func TestStreamObjects_JSONLinesWithArrayFieldIsNotAnEnvelope(t *testing.T) {
	input := `{"product_id": "B1", "bullets": ["a", "b"], "variants": [{"c": 1}]}`
	got, err := collect(t, input, nil)
	if err != nil {
		t.Fatalf("StreamObjects() err=%v", err)
	}
	if len(got) != 1 || got[0]["product_id"] != "B1" {
		t.Fatalf("records=%v, want the root object as one record", got)
	}
}

func TestStreamObjects_RootArrayAndTrailingObjects(t *testing.T) {
	input := `[
		{"a": 1},
		null,
		{"a": 2}
	]
	{"a": 3}`
	got, err := collect(t, input, config.Options{})
	if err != nil {
		t.Fatalf("StreamObjects() err=%v", err)
	}
	if len(got) != 3 || got[2]["a"] != "3" {
		t.Fatalf("records=%v", got)
	}
}

func TestStreamObjects_Envelope(t *testing.T) {
	input := `{"meta": {"v": 1}, "data": [{"a": "x"}, {"a": "y"}], "tail": [1, 2]}`
	got, err := collect(t, input, config.Options{"envelope": true})
	if err != nil {
		t.Fatalf("StreamObjects() err=%v", err)
	}
	if len(got) != 2 || got[1]["a"] != "y" {
		t.Fatalf("records=%v", got)
	}

	got, err = collect(t, `{"a": "only"}`, config.Options{"envelope": true})
	if err != nil || len(got) != 1 || got[0]["a"] != "only" {
		t.Fatalf("single object envelope: records=%v err=%v", got, err)
	}
}

func TestStreamObjects_KeyMapping(t *testing.T) {
	opts := config.Options{
		"header_map":     map[string]any{"priceCurrency": "pricecurrency"},
		"lowercase_keys": true,
	}
	got, err := collect(t, `{"priceCurrency": "EUR", "Brand": "X"}`, opts)
	if err != nil {
		t.Fatalf("StreamObjects() err=%v", err)
	}
	if got[0]["pricecurrency"] != "EUR" || got[0]["brand"] != "X" {
		t.Fatalf("record=%v", got[0])
	}
}

func TestStreamObjects_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "scalar_root", input: `42`},
		{name: "array_of_scalars", input: `[1, 2]`},
		{name: "broken_second_line", input: "{\"a\": 1}\n{\"a\" 1}"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := collect(t, tc.input, nil); err == nil {
				t.Fatalf("StreamObjects(%q) err=nil, want error", tc.input)
			}
		})
	}

	if got, err := collect(t, "", nil); err != nil || len(got) != 0 {
		t.Fatalf("empty input: records=%v err=%v", got, err)
	}
}

func TestStreamObjects_CallbackErrorStops(t *testing.T) {
	boom := errors.New("stop")
	calls := 0
	err := StreamObjects(context.Background(), strings.NewReader("{\"a\":1}\n{\"a\":2}\n"), nil, func(records.Record) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("err=%v calls=%d, want boom after 1 call", err, calls)
	}
}

func TestStreamObjects_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := StreamObjects(ctx, strings.NewReader(`{"a":1}`), nil, func(records.Record) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}
}

func TestScalar(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{name: "nil", in: nil, want: nil},
		{name: "string", in: "x", want: "x"},
		{name: "float", in: 1.5, want: "1.5"},
		{name: "bool", in: false, want: "false"},
		{name: "strings_joined", in: []any{"a", nil, "b"}, want: "a|b"},
		{name: "empty_array", in: []any{}, want: ""},
		{name: "mixed_array", in: []any{"a", 1.0}, want: `["a",1]`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Scalar(tc.in, "|"); got != tc.want {
				t.Fatalf("Scalar(%#v)=%#v, want %#v", tc.in, got, tc.want)
			}
		})
	}
}
