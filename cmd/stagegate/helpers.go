package main

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var moneyPrinter = message.NewPrinter(language.English)

// formatAmount renders an amount in cents as a grouped dollar figure.
func formatAmount(cents int64) string {
	dollars := float64(cents) / 100
	return moneyPrinter.Sprintf("$%v", number.Decimal(dollars,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}

// parseAmount accepts either a plain dollar figure ("425000" or "425000.50")
// or one with grouping and a dollar sign, returning cents.
func parseAmount(value string) (int64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(value)
	dollars, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	return int64(dollars*100 + 0.5), nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func truncate(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func dashIfEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
