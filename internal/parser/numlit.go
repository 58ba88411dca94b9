package parser

import (
	"strconv"
	"strings"

	"corecc/internal/ctype"
)

// intLiteral is the parsed form of an integer constant token: its value
// and the base type its suffix/magnitude selects, per spec.md §4.1's
// integer-suffix handling (a SUPPLEMENTED FEATURE — see SPEC_FULL.md).
type intLiteral struct {
	Value int64
	Type  *ctype.Type
}

// parseIntLiteral converts a Number token's raw text (e.g. "0x1A", "10UL",
// "042") into its value and type, following the reference's
// convert_pp_number approach: strip a trailing run of u/U/l/L, parse the
// remaining digits in whatever base their prefix selects, then pick the
// narrowest suffix-compatible type that can hold the value.
func parseIntLiteral(p *Parser, text string) intLiteral {
	digits, unsigned, longCount := splitIntSuffix(text)

	base := 10
	switch {
	case strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X"):
		base = 16
		digits = digits[2:]
	case len(digits) > 1 && digits[0] == '0':
		base = 8
	}

	value, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		p.fatalf("invalid integer literal %q", text)
	}

	t := intLiteralType(int64(value), unsigned, longCount, base != 10)
	return intLiteral{Value: int64(value), Type: t}
}

// splitIntSuffix strips a trailing u/U and/or l/L/ll/LL run (in either
// order) and reports which were present.
func splitIntSuffix(text string) (digits string, unsigned bool, longCount int) {
	end := len(text)
	for end > 0 {
		c := text[end-1]
		switch c {
		case 'u', 'U':
			unsigned = true
			end--
		case 'l', 'L':
			longCount++
			end--
		default:
			return text[:end], unsigned, longCount
		}
	}
	return text[:end], unsigned, longCount
}

// floatLiteral is the parsed form of a floating constant token: its value
// and the base type its suffix selects, per spec.md §4.1's floating-suffix
// handling (a SUPPLEMENTED FEATURE — see SPEC_FULL.md).
type floatLiteral struct {
	Value float64
	Type  *ctype.Type
}

// isFloatLiteralText reports whether a Number token's raw text denotes a
// floating constant rather than an integer one: a decimal point or
// exponent marker, per the reference's convert_pp_number dispatch. Hex
// integer literals (0x1A, 0x1E) are recognised by their prefix first, so
// an 'e'/'E' among their digits is never mistaken for an exponent or a hex
// floats, which spec.md's Non-goals exclude along with other C99 literal
// forms (see SPEC_FULL.md).
func isFloatLiteralText(text string) bool {
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		return false
	}
	return strings.ContainsAny(text, ".eE")
}

// splitFloatSuffix strips a trailing f/F or l/L suffix, reporting the kind
// it selects (Double when absent, matching C's default floating-constant
// type).
func splitFloatSuffix(text string) (digits string, kind ctype.Kind) {
	if end := len(text); end > 0 {
		switch text[end-1] {
		case 'f', 'F':
			return text[:end-1], ctype.Float
		case 'l', 'L':
			return text[:end-1], ctype.LongDouble
		}
	}
	return text, ctype.Double
}

// parseFloatLiteral converts a Number token's raw text (e.g. "3.14", ".5",
// "1.0f", "6.02e23L") into its value and type.
func parseFloatLiteral(p *Parser, text string) floatLiteral {
	digits, kind := splitFloatSuffix(text)
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		p.fatalf("invalid floating constant %q", text)
	}
	t := ctype.DoubleType
	switch kind {
	case ctype.Float:
		t = ctype.FloatType
	case ctype.LongDouble:
		t = ctype.LongDoubleType
	}
	return floatLiteral{Value: v, Type: t}
}

// intLiteralType picks the type of an integer constant per spec.md §4.1:
// the smallest of int/long/long long (or their unsigned counterparts once
// a u suffix or non-decimal base makes unsigned eligible) that can
// represent value, honoring any explicit l/ll suffix as a floor.
func intLiteralType(value int64, unsigned bool, longCount int, nonDecimal bool) *ctype.Type {
	fitsInt32 := value >= 0 && value <= 0x7fffffff
	fitsUint32 := value >= 0 && uint64(value) <= 0xffffffff

	switch {
	case longCount == 0:
		if unsigned && fitsUint32 {
			return ctype.UIntType
		}
		if fitsInt32 {
			return ctype.IntType
		}
		if nonDecimal && fitsUint32 {
			return ctype.UIntType
		}
		fallthrough // long is 4 bytes here, so nothing wider than 32 bits fits it
	case longCount == 1:
		if unsigned && fitsUint32 {
			return ctype.ULongType
		}
		if fitsInt32 {
			return ctype.LongType
		}
		if nonDecimal && fitsUint32 {
			return ctype.ULongType
		}
		fallthrough
	default: // longCount >= 2, or too wide for 4 bytes
		if unsigned {
			return ctype.NewBase(ctype.ULongLong)
		}
		return ctype.NewBase(ctype.LongLong)
	}
}
