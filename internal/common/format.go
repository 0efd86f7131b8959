package common

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var enPrinter = message.NewPrinter(language.English)

// FormatCurrency renders a USD amount in billions at or above 1e9, otherwise in millions.
// Both use two decimals, so 999_999_999 renders as "$1000.00M".
func FormatCurrency(v float64) string {
	if v >= 1e9 {
		return fmt.Sprintf("$%.2fB", v/1e9)
	}
	return fmt.Sprintf("$%.2fM", v/1e6)
}

// FormatPercentage renders v with two decimals and a percent sign.
func FormatPercentage(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// FormatStars renders a rating as five glyphs, filled first. n is clamped to [0,5].
func FormatStars(n int) string {
	if n < 0 {
		n = 0
	}
	if n > 5 {
		n = 5
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

// FormatNumber renders an integer with en-US thousands separators.
func FormatNumber(v int) string {
	return enPrinter.Sprintf("%d", v)
}

// FormatFundType describes the management style of a fund.
func FormatFundType(isIndex bool) string {
	if isIndex {
		return "Index Fund"
	}
	return "Actively Managed"
}

// Pluralize returns singular when n == 1 and plural otherwise.
func Pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
