// Package columns resolves semantic roles (title, brand, price, ...) to the
// concrete column names of a source file using name heuristics.
package columns

import (
	"strings"

	"retailbench/pkg/records"
)

// Rule describes how to find the column for one role.
//
// When Exact is non-empty only a column whose lowercased name is in Exact can
// match. Otherwise the first column whose lowercased name contains any of the
// Contains substrings wins.
type Rule struct {
	Role     string
	Exact    []string
	Contains []string
}

// RuleSet is an ordered list of rules. Roles resolve independently, so two
// roles may resolve to the same column.
type RuleSet []Rule

// Resolution maps roles to column names for one file.
type Resolution struct {
	byRole map[string]string
	order  []string
}

// Resolve applies rules to columns, scanning columns in file order.
func Resolve(columns []string, rules RuleSet) Resolution {
	res := Resolution{byRole: make(map[string]string, len(rules))}
	lower := make([]string, len(columns))
	for i, c := range columns {
		lower[i] = strings.ToLower(c)
	}

	for _, r := range rules {
		if col, ok := match(columns, lower, r); ok {
			res.byRole[r.Role] = col
			res.order = append(res.order, r.Role)
		}
	}
	return res
}

func match(columns, lower []string, r Rule) (string, bool) {
	if len(r.Exact) > 0 {
		for i, lc := range lower {
			for _, e := range r.Exact {
				if lc == strings.ToLower(e) {
					return columns[i], true
				}
			}
		}
		return "", false
	}
	for i, lc := range lower {
		for _, sub := range r.Contains {
			if sub != "" && strings.Contains(lc, strings.ToLower(sub)) {
				return columns[i], true
			}
		}
	}
	return "", false
}

// Column returns the column resolved for role.
func (r Resolution) Column(role string) (string, bool) {
	c, ok := r.byRole[role]
	return c, ok
}

// Resolved reports whether role found a column.
func (r Resolution) Resolved(role string) bool {
	_, ok := r.byRole[role]
	return ok
}

// Value returns the raw cell for role, or nil when the role is unresolved.
func (r Resolution) Value(rec records.Record, role string) any {
	c, ok := r.byRole[role]
	if !ok {
		return nil
	}
	return rec[c]
}

// String returns the cell for role as a string. ok is false for unresolved
// roles and null cells.
func (r Resolution) String(rec records.Record, role string) (string, bool) {
	c, ok := r.byRole[role]
	if !ok {
		return "", false
	}
	return rec.String(c)
}

// Columns returns the distinct resolved column names in rule order.
func (r Resolution) Columns() []string {
	seen := make(map[string]struct{}, len(r.order))
	out := make([]string, 0, len(r.order))
	for _, role := range r.order {
		c := r.byRole[role]
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Roles returns the resolved roles in rule order.
func (r Resolution) Roles() []string {
	return append([]string(nil), r.order...)
}
