package object

import (
	"salinas/internal/dec"
	"strings"

	"github.com/shopspring/decimal"
)

// Type is one of the fixed value types of the language.
type Type string

const (
	NULL_TYPE      Type = "NULL"
	UNDEFINED_TYPE Type = "UNDEFINED"
	NUMBER_TYPE    Type = "NUMBER"
	STRING_TYPE    Type = "STRING"
	BOOLEAN_TYPE   Type = "BOOLEAN"
	DATE_TYPE      Type = "DATE"
	FUNCTION_TYPE  Type = "FUNCTION"
	ARRAY_TYPE     Type = "ARRAY"
)

var typesByName = map[string]Type{
	"NULL":      NULL_TYPE,
	"UNDEFINED": UNDEFINED_TYPE,
	"NUMBER":    NUMBER_TYPE,
	"STRING":    STRING_TYPE,
	"BOOLEAN":   BOOLEAN_TYPE,
	"DATE":      DATE_TYPE,
	"FUNCTION":  FUNCTION_TYPE,
	"ARRAY":     ARRAY_TYPE,
}

// ParseType resolves a type name case-insensitively.
func ParseType(name string) (Type, bool) {
	t, ok := typesByName[strings.ToUpper(name)]
	return t, ok
}

// Convert converts raw, a payload of type t, into a payload of type dest.
//
// Payloads are nil for NULL and UNDEFINED, decimal.Decimal for NUMBER,
// string for STRING, bool for BOOLEAN, *ArrayMap for ARRAY and Function for
// FUNCTION.
func (t Type) Convert(dest Type, raw any) (any, error) {
	if t == DATE_TYPE || dest == DATE_TYPE {
		return nil, NewTypeConversionError("Conversion between %s and %s is not yet supported", t, dest)
	}

	switch t {
	case NULL_TYPE, UNDEFINED_TYPE:
		switch dest {
		case NULL_TYPE, UNDEFINED_TYPE:
			return nil, nil
		case NUMBER_TYPE:
			return dec.Zero, nil
		case STRING_TYPE:
			return "", nil
		case BOOLEAN_TYPE:
			return false, nil
		}

	case NUMBER_TYPE:
		n, ok := raw.(decimal.Decimal)
		if !ok {
			break
		}
		switch dest {
		case NULL_TYPE, UNDEFINED_TYPE:
			return nil, nil
		case NUMBER_TYPE:
			return n, nil
		case STRING_TYPE:
			return dec.String(n), nil
		case BOOLEAN_TYPE:
			return !n.IsZero(), nil
		}

	case STRING_TYPE:
		s, ok := raw.(string)
		if !ok {
			break
		}
		switch dest {
		case NULL_TYPE, UNDEFINED_TYPE:
			return nil, nil
		case STRING_TYPE:
			return s, nil
		case NUMBER_TYPE:
			n, _ := dec.FromString(s)
			return n, nil
		case BOOLEAN_TYPE:
			return s != "", nil
		}

	case BOOLEAN_TYPE:
		b, ok := raw.(bool)
		if !ok {
			break
		}
		switch dest {
		case NULL_TYPE, UNDEFINED_TYPE:
			return nil, nil
		case BOOLEAN_TYPE:
			return b, nil
		case NUMBER_TYPE:
			if b {
				return dec.One, nil
			}
			return dec.Zero, nil
		case STRING_TYPE:
			if b {
				return "1", nil
			}
			return "", nil
		}

	case ARRAY_TYPE:
		if m, ok := raw.(*ArrayMap); ok && dest == ARRAY_TYPE {
			return m, nil
		}

	case FUNCTION_TYPE:
		if f, ok := raw.(Function); ok && dest == FUNCTION_TYPE {
			return f, nil
		}
	}

	return nil, NewTypeConversionError("Cannot convert %s to %s", t, dest)
}
