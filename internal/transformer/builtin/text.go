package builtin

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// NormalizeText cleans free text for storage.
//
// Steps, in order: NFKC normalization, tag markup replaced by a space,
// whitespace runs collapsed to one space, edges trimmed. Case is preserved.
// A nil input (or nil *string) yields nil.
func NormalizeText(v any) *string {
	s, ok := asString(v)
	if !ok {
		return nil
	}
	s = norm.NFKC.String(s)
	s = tagRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	return &s
}

// StringValue converts a raw cell into a nullable string without altering it.
func StringValue(v any) *string {
	s, ok := asString(v)
	if !ok {
		return nil
	}
	return &s
}

// HasEdgeSpace reports whether s starts or ends with ASCII whitespace.
// It is cheaper than comparing against strings.TrimSpace in hot loops.
func HasEdgeSpace(s string) bool {
	if s == "" {
		return false
	}
	return isSpace(s[0]) || isSpace(s[len(s)-1])
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func asString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case *string:
		if t == nil {
			return "", false
		}
		return *t, true
	case []byte:
		return string(t), true
	case fmt.Stringer:
		return t.String(), true
	default:
		return fmt.Sprint(t), true
	}
}
