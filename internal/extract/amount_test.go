package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHighestAmount(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		want       string
		ok         bool
	}{
		{"list of amounts", []string{"USD 10", "USD 99"}, "USD 99", true},
		{"amounts in one string", []string{"USD 10, USD 99 and USD 45"}, "USD 99", true},
		{"thousands separators", []string{"KRW 9,900", "KRW 15,000"}, "KRW 15,000", true},
		{"single candidate kept whole", []string{"USD 12.50 (incl. tax)"}, "USD 12.50 (incl. tax)", true},
		{"symbols", []string{"$5.00", "$12.00"}, "$12.00", true},
		{"value first", []string{"15,000원", "3,000원"}, "15,000원", true},
		{"plain numbers", []string{"10", "99.5"}, "99.5", true},
		{"no numbers", []string{"free"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := HighestAmount(tt.candidates)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalAmount(t *testing.T) {
	tests := map[string]string{
		"USD 100":       "USD 100",
		"USD100":        "USD 100",
		"$12.00":        "USD 12.00",
		"€ 8":           "EUR 8",
		"50 AUD":        "AUD 50",
		"15,000원":       "KRW 15,000",
		"about 5 bucks": "about 5 bucks",
		"":              "",
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, CanonicalAmount(in))
		})
	}
}
