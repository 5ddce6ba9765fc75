// Package json streams JSON records (JSON-lines, a root array, or an envelope
// object wrapping an array) into flat string records.
package json

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"retailbench/internal/config"
	"retailbench/pkg/records"
)

// StreamObjects decodes r and calls fn once per record, in input order.
//
// Accepted layouts:
//   - JSON-lines: a sequence of root objects, each one record.
//   - A root array of objects; null elements are skipped. Trailing JSON-lines
//     objects after the closing ']' are accepted too.
//   - With option envelope=true, a root object whose first array-of-objects
//     field holds the records.
//
// Options:
//   - header_map: original key -> record key
//   - lowercase_keys: lowercase keys that header_map does not cover (default false)
//   - array_join_separator: joins arrays of strings into one value (default ",")
//
// Values are flattened with Scalar. fn returning an error stops the stream.
func StreamObjects(ctx context.Context, r io.Reader, opt config.Options, fn func(rec records.Record) error) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	headerMap := opt.StringMap("header_map")
	lower := opt.Bool("lowercase_keys", false)
	sep := opt.String("array_join_separator", ",")
	if sep == "" {
		sep = ","
	}

	line := 0
	emit := func(obj map[string]any) error {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := make(records.Record, len(obj))
		for k, v := range obj {
			rec[mapKey(k, headerMap, lower)] = Scalar(v, sep)
		}
		if err := fn(rec); err != nil {
			return fmt.Errorf("json: record %d: %w", line, err)
		}
		return nil
	}

	// Peek the first token so arrays and envelopes stream without buffering.
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("json: read first token: %w", err)
	}

	d, ok := tok.(json.Delim)
	if !ok {
		return fmt.Errorf("json: unsupported root token %T (want object or array)", tok)
	}

	switch d {
	case '[':
		if err := streamArrayOfObjects(ctx, dec, emit); err != nil {
			return err
		}
		if end, err := dec.Token(); err != nil {
			return fmt.Errorf("json: read array end: %w", err)
		} else if end != json.Delim(']') {
			return fmt.Errorf("json: expected array end ']', got %v", end)
		}
		return streamTrailingObjects(dec, emit)

	case '{':
		if opt.Bool("envelope", false) {
			streamed, single, err := streamEnvelopeOrSingle(ctx, dec, emit)
			if err != nil {
				return err
			}
			if end, err := dec.Token(); err != nil {
				return fmt.Errorf("json: read object end: %w", err)
			} else if end != json.Delim('}') {
				return fmt.Errorf("json: expected object end '}', got %v", end)
			}
			if !streamed {
				if err := emit(single); err != nil {
					return err
				}
			}
			return streamTrailingObjects(dec, emit)
		}

		// JSON-lines: the first record's '{' is already consumed.
		first, err := materializeValueFromFirstToken(dec, tok)
		if err != nil {
			return fmt.Errorf("json: record 1: %w", err)
		}
		if err := emit(first.(map[string]any)); err != nil {
			return err
		}
		return streamTrailingObjects(dec, emit)

	default:
		return fmt.Errorf("json: unsupported root delimiter %q", d)
	}
}

func mapKey(k string, headerMap map[string]string, lower bool) string {
	if mapped, ok := headerMap[k]; ok {
		return mapped
	}
	if lower {
		return strings.ToLower(k)
	}
	return k
}

func streamTrailingObjects(dec *json.Decoder, emit func(map[string]any) error) error {
	for {
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("json: decode object: %w", err)
		}
		if obj == nil {
			continue
		}
		if err := emit(obj); err != nil {
			return err
		}
	}
}

// streamArrayOfObjects streams elements of the current array (after '[' has
// been consumed). Every element must be an object; nulls are skipped.
func streamArrayOfObjects(ctx context.Context, dec *json.Decoder, emit func(map[string]any) error) error {
	for dec.More() {
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("json: decode array element: %w", err)
		}
		if raw == nil {
			continue
		}
		obj, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("json: array element not an object (got %T)", raw)
		}
		if err := emit(obj); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// streamEnvelopeOrSingle walks a root object (after '{' has been consumed).
//
// The first field whose value is an array is streamed as the records and the
// rest of the object is skipped. Without such a field the object itself is
// returned as a single record.
func streamEnvelopeOrSingle(ctx context.Context, dec *json.Decoder, emit func(map[string]any) error) (streamed bool, single map[string]any, _ error) {
	single = make(map[string]any)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return false, nil, fmt.Errorf("json: read object key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return false, nil, fmt.Errorf("json: object key not a string (got %T)", keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return false, nil, fmt.Errorf("json: read object value token: %w", err)
		}

		if delim, ok := valTok.(json.Delim); ok && delim == '[' {
			if err := streamArrayOfObjects(ctx, dec, emit); err != nil {
				return false, nil, err
			}
			endTok, err := dec.Token()
			if err != nil {
				return false, nil, fmt.Errorf("json: read envelope array end: %w", err)
			}
			if endTok != json.Delim(']') {
				return false, nil, fmt.Errorf("json: expected ']' after envelope array, got %v", endTok)
			}
			for dec.More() {
				if _, err := dec.Token(); err != nil {
					return true, nil, fmt.Errorf("json: skip envelope key: %w", err)
				}
				if _, err := materializeNextValue(dec); err != nil {
					return true, nil, err
				}
			}
			return true, nil, nil
		}

		val, err := materializeValueFromFirstToken(dec, valTok)
		if err != nil {
			return false, nil, err
		}
		single[key] = val
	}

	return false, single, nil
}

func materializeNextValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("json: read value token: %w", err)
	}
	return materializeValueFromFirstToken(dec, tok)
}

// materializeValueFromFirstToken builds a Go value for the current JSON value,
// given its first token has already been read.
func materializeValueFromFirstToken(dec *json.Decoder, tok any) (any, error) {
	d, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch d {
	case '{':
		m := make(map[string]any)
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("json: read object key: %w", err)
			}
			k, ok := kt.(string)
			if !ok {
				return nil, fmt.Errorf("json: object key not string (got %T)", kt)
			}
			v, err := materializeNextValue(dec)
			if err != nil {
				return nil, err
			}
			m[k] = v
		}
		if end, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("json: read object end: %w", err)
		} else if end != json.Delim('}') {
			return nil, fmt.Errorf("json: expected '}', got %v", end)
		}
		return m, nil

	case '[':
		arr := []any{}
		for dec.More() {
			v, err := materializeNextValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if end, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("json: read array end: %w", err)
		} else if end != json.Delim(']') {
			return nil, fmt.Errorf("json: expected ']', got %v", end)
		}
		return arr, nil

	default:
		return nil, fmt.Errorf("json: unexpected delimiter %q", d)
	}
}

// Scalar flattens a decoded JSON value into a record value: nil stays nil,
// strings pass through, numbers keep their literal text, booleans become
// "true"/"false", arrays of strings are joined with sep and any other
// composite value is re-encoded as compact JSON.
func Scalar(v any, sep string) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		ss := make([]string, 0, len(t))
		for _, it := range t {
			if it == nil {
				continue
			}
			s, ok := it.(string)
			if !ok {
				return encode(v)
			}
			ss = append(ss, s)
		}
		return strings.Join(ss, sep)
	default:
		return encode(v)
	}
}

func encode(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
