package currency

import (
	"fmt"
	"math"
	"strings"
)

// zeroDecimal currencies are quoted in whole units with "." grouping.
var zeroDecimal = map[string]bool{
	"IDR": true,
	"JPY": true,
	"KRW": true,
	"CLP": true,
	"VND": true,
}

// Format renders amount as "USD 1,234.50" or, for whole-unit currencies,
// "IDR 1.250.000". An empty code defaults to USD.
func Format(amount float64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = "USD"
	}

	if zeroDecimal[code] {
		return formatWhole(amount, code)
	}

	cents := math.Round(amount * 100)
	negative := cents < 0
	if negative {
		cents = -cents
	}

	whole := math.Floor(cents / 100)
	frac := int64(cents) % 100
	formatted := addThousandsSeparator(fmt.Sprintf("%.0f", whole), ",") + fmt.Sprintf(".%02d", frac)

	result := code + " " + formatted
	if negative {
		result = "-" + result
	}
	return result
}

func FormatIDR(amount float64) string {
	return formatWhole(amount, "IDR")
}

func formatWhole(amount float64, code string) string {
	rounded := math.Round(amount)

	negative := rounded < 0
	if negative {
		rounded = -rounded
	}

	intStr := fmt.Sprintf("%.0f", rounded)
	formatted := addThousandsSeparator(intStr, ".")

	result := code + " " + formatted
	if negative {
		result = "-" + result
	}

	return result
}

func addThousandsSeparator(s string, sep string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	numSeps := (n - 1) / 3
	result := make([]byte, n+numSeps)

	j := len(result) - 1
	for i := n - 1; i >= 0; i-- {
		result[j] = s[i]
		j--

		pos := n - i
		if pos%3 == 0 && i > 0 {
			result[j] = sep[0]
			j--
		}
	}

	return string(result)
}
