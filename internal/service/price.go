package service

import (
	"regexp"
	"strconv"
	"strings"
)

// PriceKind classifies a user price expression
type PriceKind int

const (
	// PriceKindAny is an empty expression: no constraint.
	PriceKindAny PriceKind = iota
	// PriceKindRange is "<min>-<max>", inclusive.
	PriceKindRange
	// PriceKindMax is "max <n>".
	PriceKindMax
	// PriceKindExact is a bare integer.
	PriceKindExact
	// PriceKindInvalid is a recognized form whose numbers do not parse; it matches nothing.
	PriceKindInvalid
	// PriceKindFallback is free text such as "flexible"; it matches everything.
	PriceKindFallback
)

func (k PriceKind) String() string {
	switch k {
	case PriceKindRange:
		return "range"
	case PriceKindMax:
		return "max"
	case PriceKindExact:
		return "exact"
	case PriceKindInvalid:
		return "invalid"
	case PriceKindFallback:
		return "fallback"
	default:
		return "any"
	}
}

var digitRun = regexp.MustCompile(`\d+`)

// PriceExpr is a parsed price constraint
type PriceExpr struct {
	Kind PriceKind
	Min  int
	Max  int
	Raw  string
}

// ParsePriceExpr parses a free-form price constraint, case-insensitively.
func ParsePriceExpr(expr string) PriceExpr {
	pf := strings.ToLower(strings.TrimSpace(expr))
	if pf == "" {
		return PriceExpr{Kind: PriceKindAny, Raw: expr}
	}

	if strings.Contains(pf, "-") {
		parts := strings.SplitN(pf, "-", 2)
		lo, errLo := strconv.Atoi(strings.TrimSpace(parts[0]))
		hi, errHi := strconv.Atoi(strings.TrimSpace(parts[1]))
		if errLo != nil || errHi != nil {
			return PriceExpr{Kind: PriceKindInvalid, Raw: expr}
		}
		return PriceExpr{Kind: PriceKindRange, Min: lo, Max: hi, Raw: expr}
	}

	if strings.HasPrefix(pf, "max") {
		m := digitRun.FindString(pf)
		bound, err := strconv.Atoi(m)
		if m == "" || err != nil {
			return PriceExpr{Kind: PriceKindInvalid, Raw: expr}
		}
		return PriceExpr{Kind: PriceKindMax, Max: bound, Raw: expr}
	}

	if n, err := strconv.Atoi(pf); err == nil {
		return PriceExpr{Kind: PriceKindExact, Min: n, Max: n, Raw: expr}
	}

	return PriceExpr{Kind: PriceKindFallback, Raw: expr}
}

// Matches reports whether a listing's free-form price satisfies the expression.
// An empty listing price always matches.
func (p PriceExpr) Matches(listingPrice string) bool {
	if p.Kind == PriceKindAny || listingPrice == "" {
		return true
	}

	switch p.Kind {
	case PriceKindFallback:
		return true
	case PriceKindInvalid:
		return false
	}

	price, ok := ExtractPrice(listingPrice)
	if !ok {
		return false
	}

	switch p.Kind {
	case PriceKindRange:
		return p.Min <= price && price <= p.Max
	case PriceKindMax:
		return price <= p.Max
	case PriceKindExact:
		return price == p.Min
	}
	return false
}

// MatchPrice parses filterExpr and matches it against listingPrice.
func MatchPrice(filterExpr, listingPrice string) bool {
	return ParsePriceExpr(filterExpr).Matches(listingPrice)
}

// ExtractPrice returns the first run of digits in a price string after
// dropping thousands separators. Decimals and signs are not supported.
func ExtractPrice(listingPrice string) (int, bool) {
	m := digitRun.FindString(strings.ReplaceAll(listingPrice, ",", ""))
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}
