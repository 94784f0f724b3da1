// Package dec wraps shopspring/decimal with the rounding, division and literal
// decoding rules used by the interpreter's NUMBER type.
package dec

import (
	"errors"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// RoundingMode defines the rounding rule for division and ROUND
type RoundingMode int

const (
	RoundHalfUp   RoundingMode = iota // away from zero on ties
	RoundHalfEven                     // Banker's rounding
	RoundDown                         // Always toward zero
	RoundUp                           // Always away from zero
)

func (m RoundingMode) String() string {
	switch m {
	case RoundHalfUp:
		return "HALF_UP"
	case RoundHalfEven:
		return "HALF_EVEN"
	case RoundDown:
		return "DOWN"
	case RoundUp:
		return "UP"
	}
	return "UNKNOWN"
}

var (
	Zero = decimal.Zero
	One  = decimal.NewFromInt(1)

	ErrDivisionByZero = errors.New("division by zero")
	ErrInvalidLiteral = errors.New("invalid numeric literal")
	ErrExponentRange  = errors.New("exponent out of range")
)

func FromInt(v int) decimal.Decimal {
	return decimal.NewFromInt(int64(v))
}

// FromString parses s as a plain decimal number, ignoring surrounding
// whitespace. ok is false when s is not a number.
func FromString(s string) (d decimal.Decimal, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, false
	}
	return d, true
}

// ParseLiteral decodes a numeric literal as written in source: decimal
// (123, 1.5, .5), hexadecimal (0xFF) or binary (0b1010). Each form accepts a
// single '_' between two digits as a group separator.
func ParseLiteral(lit string) (decimal.Decimal, error) {
	if len(lit) > 2 && lit[0] == '0' {
		switch lit[1] {
		case 'x', 'X':
			return parseRadix(lit, lit[2:], 16)
		case 'b', 'B':
			return parseRadix(lit, lit[2:], 2)
		}
	}

	intPart, fracPart, hasPoint := strings.Cut(lit, ".")
	if hasPoint && intPart == "" && fracPart == "" {
		return Zero, literalError(lit)
	}
	intDigits, ok := stripSeparators(intPart, 10)
	if !ok || (intPart != "" && intDigits == "") {
		return Zero, literalError(lit)
	}
	fracDigits := ""
	if hasPoint {
		fracDigits, ok = stripSeparators(fracPart, 10)
		if !ok || fracDigits == "" {
			return Zero, literalError(lit)
		}
	}
	if intDigits == "" && fracDigits == "" {
		return Zero, literalError(lit)
	}

	text := intDigits
	if text == "" {
		text = "0"
	}
	if hasPoint {
		text += "." + fracDigits
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return Zero, literalError(lit)
	}
	return d, nil
}

func parseRadix(lit, digits string, base int) (decimal.Decimal, error) {
	clean, ok := stripSeparators(digits, base)
	if !ok || clean == "" {
		return Zero, literalError(lit)
	}
	n, ok := new(big.Int).SetString(clean, base)
	if !ok {
		return Zero, literalError(lit)
	}
	return decimal.NewFromBigInt(n, 0), nil
}

// stripSeparators removes group separators, rejecting any separator that is
// not surrounded by digits of the given base.
func stripSeparators(s string, base int) (string, bool) {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' {
			if i == 0 || i == len(s)-1 || !isDigit(s[i-1], base) || !isDigit(s[i+1], base) {
				return "", false
			}
			continue
		}
		if !isDigit(c, base) {
			return "", false
		}
		sb.WriteByte(c)
	}
	return sb.String(), true
}

func isDigit(c byte, base int) bool {
	switch base {
	case 2:
		return c == '0' || c == '1'
	case 16:
		return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
	default:
		return c >= '0' && c <= '9'
	}
}

func literalError(lit string) error {
	return &LiteralError{Literal: lit}
}

type LiteralError struct {
	Literal string
}

func (e *LiteralError) Error() string {
	return "invalid numeric literal '" + e.Literal + "'"
}

func (e *LiteralError) Unwrap() error {
	return ErrInvalidLiteral
}

// Round rounds d to places digits after the decimal point. Negative places
// round to the left of the point, so Round(1234, -2, RoundHalfUp) is 1200.
func Round(d decimal.Decimal, places int32, mode RoundingMode) decimal.Decimal {
	switch mode {
	case RoundHalfEven:
		return d.RoundBank(places)
	case RoundDown:
		return d.Truncate(places)
	case RoundUp:
		return d.RoundUp(places)
	default:
		return d.Round(places)
	}
}

// Div divides a by b keeping precision digits after the decimal point.
func Div(a, b decimal.Decimal, precision int32, mode RoundingMode) (decimal.Decimal, error) {
	if b.IsZero() {
		return Zero, ErrDivisionByZero
	}
	q, r := a.QuoRem(b, precision)
	if r.IsZero() {
		return q, nil
	}

	unit := decimal.New(1, -precision)
	if a.Sign()*b.Sign() < 0 {
		unit = unit.Neg()
	}

	switch mode {
	case RoundDown:
		return q, nil
	case RoundUp:
		return q.Add(unit), nil
	}

	// compare the remainder against half of one unit in the last place of b
	cmp := r.Abs().Mul(decimal.NewFromInt(2)).Cmp(b.Abs().Mul(unit.Abs()))
	switch {
	case cmp > 0:
		return q.Add(unit), nil
	case cmp < 0:
		return q, nil
	}
	if mode == RoundHalfEven && !isOddInLastPlace(q, precision) {
		return q, nil
	}
	return q.Add(unit), nil
}

func isOddInLastPlace(q decimal.Decimal, precision int32) bool {
	n := q.Shift(precision).BigInt()
	return n.Abs(n).Bit(0) == 1
}

// Mod returns the remainder of a / b truncated toward zero; the result has
// the sign of a.
func Mod(a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return Zero, ErrDivisionByZero
	}
	return a.Mod(b), nil
}

// Pow raises a to the integer part of exp, which must fit in an int32.
// Negative exponents are computed as 1 / a^|exp| at the given precision.
func Pow(a, exp decimal.Decimal, precision int32) (decimal.Decimal, error) {
	whole := exp.Truncate(0).BigInt()
	if !whole.IsInt64() || whole.Int64() > math.MaxInt32 || whole.Int64() < math.MinInt32 {
		return Zero, ErrExponentRange
	}
	n := whole.Int64()
	neg := n < 0
	if neg {
		n = -n
	}

	result := One
	base := a
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base)
		}
		base = base.Mul(base)
		n >>= 1
	}

	if neg {
		return Div(One, result, precision, RoundHalfEven)
	}
	return result, nil
}

// String renders d without exponent and without trailing fractional zeros.
func String(d decimal.Decimal) string {
	return d.String()
}

// Format renders d with exactly decimals digits after the point, rounding
// half-even.
func Format(d decimal.Decimal, decimals int32) string {
	if decimals < 0 {
		decimals = 0
	}
	return d.StringFixedBank(decimals)
}
