package probe

import (
	"strconv"
	"strings"

	"retailbench/internal/transformer/builtin"
	"retailbench/pkg/records"
)

// inferTypes infers a coarse type per column. Returned labels are one of
// "integer", "float", "boolean", "text". Columns with no values are text.
func inferTypes(columns []string, rows []records.Record) []string {
	if len(columns) == 0 {
		return nil
	}

	out := make([]string, len(columns))
	for i, col := range columns {
		var seen bool
		allInt := true
		allFloat := true
		allBool := true

		for _, r := range rows {
			v, ok := cellString(r[col])
			if !ok {
				continue
			}
			seen = true

			if allInt {
				if _, err := strconv.ParseInt(v, 10, 64); err != nil {
					allInt = false
				}
			}
			if allFloat {
				if _, err := strconv.ParseFloat(v, 64); err != nil {
					allFloat = false
				}
			}
			if allBool {
				if _, ok := builtin.ParseBoolLoose(v); !ok {
					allBool = false
				}
			}
		}

		// Prefer more specific types; 0/1 columns read as integers.
		switch {
		case !seen:
			out[i] = "text"
		case allInt:
			out[i] = "integer"
		case allBool:
			out[i] = "boolean"
		case allFloat:
			out[i] = "float"
		default:
			out[i] = "text"
		}
	}
	return out
}

func cellString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		t = strings.TrimSpace(t)
		return t, t != ""
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
