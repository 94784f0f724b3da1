package object

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CompareOp is a comparative operator. Operators never modify their operands.
type CompareOp int

const (
	EQUAL_TO CompareOp = iota
	EQUAL_TO_EXACT
	NOT_EQUAL_TO
	NOT_EQUAL_TO_EXACT
	LESS_THAN
	GREATER_THAN
	LESS_THAN_OR_EQUAL_TO
	GREATER_THAN_OR_EQUAL_TO
	STARTS_WITH
	NOT_STARTS_WITH
)

var compareOpNames = [...]string{
	EQUAL_TO:                 "EQUAL_TO",
	EQUAL_TO_EXACT:           "EQUAL_TO_EXACT",
	NOT_EQUAL_TO:             "NOT_EQUAL_TO",
	NOT_EQUAL_TO_EXACT:       "NOT_EQUAL_TO_EXACT",
	LESS_THAN:                "LESS_THAN",
	GREATER_THAN:             "GREATER_THAN",
	LESS_THAN_OR_EQUAL_TO:    "LESS_THAN_OR_EQUAL_TO",
	GREATER_THAN_OR_EQUAL_TO: "GREATER_THAN_OR_EQUAL_TO",
	STARTS_WITH:              "STARTS_WITH",
	NOT_STARTS_WITH:          "NOT_STARTS_WITH",
}

var compareOpsBySymbol = map[string]CompareOp{
	"=":   EQUAL_TO,
	"==":  EQUAL_TO,
	"===": EQUAL_TO_EXACT,
	"<>":  NOT_EQUAL_TO,
	"!=":  NOT_EQUAL_TO,
	"#":   NOT_EQUAL_TO,
	"!==": NOT_EQUAL_TO_EXACT,
	"<":   LESS_THAN,
	">":   GREATER_THAN,
	"<=":  LESS_THAN_OR_EQUAL_TO,
	">=":  GREATER_THAN_OR_EQUAL_TO,
}

func (op CompareOp) String() string {
	if int(op) < len(compareOpNames) {
		return compareOpNames[op]
	}
	return "UNKNOWN"
}

// ParseCompareOp maps an operator symbol as written in source to its operator.
func ParseCompareOp(symbol string) (CompareOp, bool) {
	op, ok := compareOpsBySymbol[symbol]
	return op, ok
}

// IsExact reports whether the operator also requires matching types.
func (op CompareOp) IsExact() bool {
	return op == EQUAL_TO_EXACT || op == NOT_EQUAL_TO_EXACT
}

func (op CompareOp) Apply(v1, v2 *Value) (bool, error) {
	switch op {
	case EQUAL_TO:
		return equalTo(v1, v2)
	case EQUAL_TO_EXACT:
		if v1.currentType != v2.currentType {
			return false, nil
		}
		return equalTo(v1, v2)
	case NOT_EQUAL_TO:
		return negate(EQUAL_TO.Apply(v1, v2))
	case NOT_EQUAL_TO_EXACT:
		return negate(EQUAL_TO_EXACT.Apply(v1, v2))
	case LESS_THAN:
		return lessThan(v1, v2)
	case GREATER_THAN:
		lt, err := lessThan(v1, v2)
		if err != nil || lt {
			return false, err
		}
		return negate(equalTo(v1, v2))
	case LESS_THAN_OR_EQUAL_TO:
		lt, err := lessThan(v1, v2)
		if err != nil || lt {
			return lt, err
		}
		return equalTo(v1, v2)
	case GREATER_THAN_OR_EQUAL_TO:
		gt, err := GREATER_THAN.Apply(v1, v2)
		if err != nil || gt {
			return gt, err
		}
		return equalTo(v1, v2)
	case STARTS_WITH:
		return startsWith(v1, v2)
	case NOT_STARTS_WITH:
		return negate(startsWith(v1, v2))
	}
	return false, NewEvalError("Unknown comparative operator %d", int(op))
}

func negate(b bool, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	return !b, nil
}

func equalTo(v1, v2 *Value) (bool, error) {
	if v1.raw == nil && v2.raw == nil {
		return true, nil
	}

	converted, err := v1.AsType(v2.currentType)
	if err != nil {
		if v1.currentType == DATE_TYPE || v2.currentType == DATE_TYPE {
			return false, err
		}
		return false, nil
	}
	if converted == nil {
		return false, nil
	}

	switch right := v2.raw.(type) {
	case decimal.Decimal:
		return converted.(decimal.Decimal).Equal(right), nil
	case string:
		return converted.(string) == right, nil
	case bool:
		return converted.(bool) == right, nil
	case *ArrayMap:
		return converted.(*ArrayMap) == right, nil
	case Function:
		return converted.(Function) == right, nil
	}
	return false, nil
}

func lessThan(v1, v2 *Value) (bool, error) {
	if v1.raw == nil && v2.raw == nil {
		return false, nil
	}
	if v2.currentType == NULL_TYPE {
		return v1.currentType != NULL_TYPE, nil
	}

	converted, err := v1.AsType(v2.currentType)
	if err != nil {
		return false, err
	}
	if converted == nil {
		return false, nil
	}

	switch v2.currentType {
	case BOOLEAN_TYPE:
		return !converted.(bool) && v2.raw.(bool), nil
	case NUMBER_TYPE:
		return converted.(decimal.Decimal).Cmp(v2.raw.(decimal.Decimal)) < 0, nil
	case STRING_TYPE:
		return converted.(string) < v2.raw.(string), nil
	}
	return false, NewTypeConversionError("Values of type %s cannot be ordered", v2.currentType)
}

func startsWith(v1, v2 *Value) (bool, error) {
	if v1.currentType != STRING_TYPE && v2.currentType != STRING_TYPE {
		return equalTo(v1, v2)
	}
	prefix, err := v1.AsString()
	if err != nil {
		return false, err
	}
	s, err := v2.AsString()
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(s, prefix), nil
}
