package payment

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// zeroDecimalCurrencies have no minor unit; their amounts are sent as
// integral strings.
var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "ISK": {}, "JPY": {},
	"KMF": {}, "KRW": {}, "PYG": {}, "RWF": {}, "UGX": {}, "VND": {},
	"VUV": {}, "XAF": {}, "XOF": {}, "XPF": {},
}

func IsZeroDecimalCurrency(currency string) bool {
	_, ok := zeroDecimalCurrencies[strings.ToUpper(currency)]
	return ok
}

// FormatAmount renders an amount the way Mollie expects it: no thousands
// separator, exactly two decimals for currencies with a minor unit, an
// integral string for zero-decimal currencies.
func FormatAmount(amount float64, currency string) string {
	if IsZeroDecimalCurrency(currency) {
		return strconv.FormatInt(int64(math.Round(amount)), 10)
	}
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

// ParseAmount reads a provider-formatted amount string back into a
// number.
func ParseAmount(value string) (float64, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", value, err)
	}
	return amount, nil
}

// amountOrZero reads a provider-sourced amount that is already in wire
// format; anything unparseable counts as zero.
func amountOrZero(value string) float64 {
	amount, err := ParseAmount(value)
	if err != nil {
		return 0
	}
	return amount
}
