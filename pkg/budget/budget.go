// Package budget reads amounts out of human budget strings such as
// "AED 60,000 - 150,000" or "$25K-75K".
package budget

import (
	"regexp"
	"strconv"
	"strings"
)

var amountRe = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)(?:\s?([kKmM])\b)?`)

// Amounts returns every amount in s, in order, with K and M suffixes applied.
func Amounts(s string) []float64 {
	var out []float64
	for _, m := range amountRe.FindAllStringSubmatch(s, -1) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		switch strings.ToLower(m[2]) {
		case "k":
			v *= 1_000
		case "m":
			v *= 1_000_000
		}
		out = append(out, v)
	}
	return out
}

// Midpoint returns the middle of the first two amounts in s, the single
// amount when there is one, and false when s has none.
func Midpoint(s string) (float64, bool) {
	a := Amounts(s)
	switch len(a) {
	case 0:
		return 0, false
	case 1:
		return a[0], true
	default:
		return (a[0] + a[1]) / 2, true
	}
}

// Max returns the largest amount in s.
func Max(s string) (float64, bool) {
	a := Amounts(s)
	if len(a) == 0 {
		return 0, false
	}
	m := a[0]
	for _, v := range a[1:] {
		if v > m {
			m = v
		}
	}
	return m, true
}

// Weeks returns the number of weeks in a duration string like "6 weeks",
// "2-3 weeks" (upper bound) or "3 months" (13 weeks per quarter).
func Weeks(s string) (int, bool) {
	a := Amounts(s)
	if len(a) == 0 {
		return 0, false
	}
	n := a[len(a)-1]
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "month"):
		n = n * 52 / 12
	case strings.Contains(lower, "day"):
		n = n / 7
	}
	w := int(n + 0.5)
	if w < 1 {
		w = 1
	}
	return w, true
}
