package source

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// priceRe matches the numeric part of price strings like "£1,234.56" or "249".
var priceRe = regexp.MustCompile(`([\d,]+\.?\d*)`)

// currencySymbols maps the symbols Serper returns to ISO 4217 codes.
var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"£", "GBP"},
	{"€", "EUR"},
	{"$", "USD"},
}

// parsePrice extracts a decimal amount and currency code from a shopping
// result price string. The currency falls back to fallback when the string
// carries no recognizable symbol.
func parsePrice(s, fallback string) (decimal.Decimal, string, error) {
	m := priceRe.FindStringSubmatch(s)
	if m == nil {
		return decimal.Zero, "", fmt.Errorf("no numeric price in %q", s)
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("parse price %q: %w", m[1], err)
	}

	currency := fallback
	for _, cs := range currencySymbols {
		if strings.Contains(s, cs.symbol) {
			currency = cs.code
			break
		}
	}

	return amount, currency, nil
}
