package extract

import (
	"regexp"
	"strconv"
	"strings"
)

const number = `\d+(?:,\d{3})*(?:\.\d+)?`

var (
	currencyAmountPattern = regexp.MustCompile(`\b[A-Z]{3}\s?` + number + `|[$€£¥₩]\s?` + number + `|` + number + `\s?(?:[A-Z]{3}\b|[$€£¥₩원])`)
	numberPattern         = regexp.MustCompile(number)
	plainNumberPattern    = regexp.MustCompile(`^\s*` + number + `\s*$`)

	codeFirstPattern   = regexp.MustCompile(`^\s*([A-Z]{3})\s?(` + number + `)\s*$`)
	symbolFirstPattern = regexp.MustCompile(`^\s*([$€£¥₩])\s?(` + number + `)\s*$`)
	valueFirstPattern  = regexp.MustCompile(`^\s*(` + number + `)\s?([A-Z]{3}|[$€£¥₩원])\s*$`)
)

var currencySymbols = map[string]string{
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
	"¥": "JPY",
	"₩": "KRW",
	"원": "KRW",
}

type amountSpan struct {
	text  string
	value float64
}

// HighestAmount picks the largest monetary amount among candidates. A
// candidate holding a single amount is returned whole; when one candidate
// holds several, the winning span is returned as it appears. ok is false
// when no candidate contains a number.
func HighestAmount(candidates []string) (string, bool) {
	var spans []amountSpan
	for _, c := range candidates {
		spans = append(spans, amountSpans(c)...)
	}
	if len(spans) == 0 {
		return "", false
	}

	best := spans[0]
	for _, s := range spans[1:] {
		if s.value > best.value {
			best = s
		}
	}
	return best.text, true
}

func amountSpans(candidate string) []amountSpan {
	matches := currencyAmountPattern.FindAllString(candidate, -1)
	if len(matches) == 0 && plainNumberPattern.MatchString(candidate) {
		matches = []string{candidate}
	}

	spans := make([]amountSpan, 0, len(matches))
	for _, m := range matches {
		v, ok := amountValue(m)
		if !ok {
			continue
		}
		text := strings.TrimSpace(m)
		if len(matches) == 1 {
			text = strings.TrimSpace(candidate)
		}
		spans = append(spans, amountSpan{text: text, value: v})
	}
	return spans
}

func amountValue(s string) (float64, bool) {
	n := numberPattern.FindString(s)
	if n == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(n, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// soleAmount returns the one currency amount inside s, such as "10,000원" in
// "Total: 10,000원". ok is false when s holds none or several.
func soleAmount(s string) (string, bool) {
	matches := currencyAmountPattern.FindAllString(s, 2)
	if len(matches) != 1 {
		return "", false
	}
	return strings.TrimSpace(matches[0]), true
}

// CanonicalAmount rewrites a lone amount into "<CURRENCY> <value>" when its
// currency can be told from a code or symbol. Anything else is returned
// unchanged.
func CanonicalAmount(s string) string {
	if m := codeFirstPattern.FindStringSubmatch(s); m != nil {
		return m[1] + " " + m[2]
	}
	if m := symbolFirstPattern.FindStringSubmatch(s); m != nil {
		return currencySymbols[m[1]] + " " + m[2]
	}
	if m := valueFirstPattern.FindStringSubmatch(s); m != nil {
		code := m[2]
		if c, ok := currencySymbols[code]; ok {
			code = c
		}
		return code + " " + m[1]
	}
	return s
}
