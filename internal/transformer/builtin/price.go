package builtin

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
)

// priceRe matches an optional currency symbol followed by a magnitude with
// optional comma thousands grouping and at most two decimals.
var priceRe = regexp.MustCompile(`([$€£¥])?\s*((?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d{1,2})?)`)

var symbolUnits = map[string]currency.Unit{
	"$": currency.USD,
	"€": currency.EUR,
	"£": currency.GBP,
	"¥": currency.JPY,
}

// ParsePriceCurrency extracts a price magnitude and ISO currency code from a
// raw cell.
//
// The first symbol+number match in the string wins. When nothing matches, the
// whole string is tried as a plain float. Numeric inputs are taken as-is with
// no currency. (nil, nil) means no price could be extracted.
//
// Known limitations: a leading sign is ignored ("-5" parses as 5), grouping
// other than commas is not understood ("1.234,50" parses as 1.23), and a
// third decimal digit is cut off ("1.999" parses as 1.99).
func ParsePriceCurrency(v any) (*float64, *string) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case float64:
		return finite(t), nil
	case float32:
		return finite(float64(t)), nil
	case int:
		f := float64(t)
		return &f, nil
	case int64:
		f := float64(t)
		return &f, nil
	}

	raw, ok := asString(v)
	if !ok {
		return nil, nil
	}

	m := priceRe.FindStringSubmatch(raw)
	if m == nil {
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, nil
		}
		return finite(f), nil
	}

	f, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
	if err != nil {
		return nil, nil
	}

	var code *string
	if u, ok := symbolUnits[m[1]]; ok {
		s := u.String()
		code = &s
	}
	return &f, code
}

// ResolveCurrency picks the currency stored next to price. An explicit
// non-empty source column beats the parsed symbol; with no price there is no
// currency at all.
func ResolveCurrency(price *float64, parsed, explicit *string) *string {
	if price == nil {
		return nil
	}
	if explicit != nil && strings.TrimSpace(*explicit) != "" {
		s := strings.TrimSpace(*explicit)
		return &s
	}
	return parsed
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
