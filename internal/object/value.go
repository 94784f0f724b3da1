package object

import (
	"fmt"
	"salinas/internal/dec"
	"strings"

	"github.com/shopspring/decimal"
)

// Value is a storage cell. Variables, array elements and closures hold
// pointers to cells, so an assignment through one alias is observed by all
// of them. Payloads themselves are never mutated; assignment swaps the
// payload held by the cell.
type Value struct {
	currentType Type
	strongType  Type
	raw         any
}

// NewValue creates a dynamically typed cell.
func NewValue(raw any, t Type) *Value {
	return &Value{currentType: t, strongType: UNDEFINED_TYPE, raw: raw}
}

func Null() *Value                     { return NewValue(nil, NULL_TYPE) }
func Undefined() *Value                { return NewValue(nil, UNDEFINED_TYPE) }
func Number(n decimal.Decimal) *Value  { return NewValue(n, NUMBER_TYPE) }
func NumberFromInt(n int64) *Value     { return NewValue(decimal.NewFromInt(n), NUMBER_TYPE) }
func String(s string) *Value           { return NewValue(s, STRING_TYPE) }
func Boolean(b bool) *Value            { return NewValue(b, BOOLEAN_TYPE) }
func Array(m *ArrayMap) *Value         { return NewValue(m, ARRAY_TYPE) }
func FunctionValue(fn Function) *Value { return NewValue(fn, FUNCTION_TYPE) }

func (v *Value) Type() Type       { return v.currentType }
func (v *Value) StrongType() Type { return v.strongType }
func (v *Value) Raw() any         { return v.raw }

// IsStrong reports whether the cell has a pinned type.
func (v *Value) IsStrong() bool {
	return v.strongType != UNDEFINED_TYPE
}

// Set stores the content of other into v, converting it to v's strong type
// when one is pinned.
func (v *Value) Set(other *Value) error {
	return v.SetRaw(other.raw, other.currentType)
}

// SetRaw stores raw, a payload of type t, into v.
func (v *Value) SetRaw(raw any, t Type) error {
	if v.IsStrong() {
		converted, err := t.Convert(v.strongType, raw)
		if err != nil {
			return err
		}
		v.raw = converted
		v.currentType = v.strongType
		return nil
	}
	v.raw = raw
	v.currentType = t
	return nil
}

// SetCurrentType converts the payload in place. The cell is left unchanged
// when the conversion fails.
func (v *Value) SetCurrentType(t Type) error {
	converted, err := v.currentType.Convert(t, v.raw)
	if err != nil {
		return err
	}
	v.raw = converted
	v.currentType = t
	return nil
}

// SetStrongType pins t as the cell's type and converts the current payload.
// Pinning UNDEFINED makes the cell dynamically typed again.
func (v *Value) SetStrongType(t Type) error {
	if t == UNDEFINED_TYPE {
		v.strongType = UNDEFINED_TYPE
		return nil
	}
	if err := v.SetCurrentType(t); err != nil {
		return err
	}
	v.strongType = t
	return nil
}

// AsType returns the payload converted to t without touching the cell.
func (v *Value) AsType(t Type) (any, error) {
	return v.currentType.Convert(t, v.raw)
}

// Copy returns a new dynamically typed cell holding the same payload.
// ARRAY and FUNCTION payloads are references and stay shared.
func (v *Value) Copy() *Value {
	return NewValue(v.raw, v.currentType)
}

func (v *Value) AsNumber() (decimal.Decimal, error) {
	raw, err := v.AsType(NUMBER_TYPE)
	if err != nil {
		return dec.Zero, err
	}
	return raw.(decimal.Decimal), nil
}

func (v *Value) AsString() (string, error) {
	raw, err := v.AsType(STRING_TYPE)
	if err != nil {
		return "", err
	}
	return raw.(string), nil
}

func (v *Value) AsBool() (bool, error) {
	raw, err := v.AsType(BOOLEAN_TYPE)
	if err != nil {
		return false, err
	}
	return raw.(bool), nil
}

func (v *Value) AsArray() (*ArrayMap, bool) {
	m, ok := v.raw.(*ArrayMap)
	return m, ok && v.currentType == ARRAY_TYPE
}

func (v *Value) AsFunction() (Function, bool) {
	fn, ok := v.raw.(Function)
	return fn, ok && v.currentType == FUNCTION_TYPE
}

// Display renders the value for output, with numbers fixed to decimals
// places.
func (v *Value) Display(decimals int32) string {
	return v.display(decimals, nil)
}

func (v *Value) display(decimals int32, seen map[*ArrayMap]bool) string {
	switch v.currentType {
	case NULL_TYPE:
		return "<null>"
	case UNDEFINED_TYPE:
		return "<undefined>"
	case NUMBER_TYPE:
		return dec.Format(v.raw.(decimal.Decimal), decimals)
	case STRING_TYPE:
		return v.raw.(string)
	case BOOLEAN_TYPE:
		if v.raw.(bool) {
			return ".T."
		}
		return ".F."
	case DATE_TYPE:
		return fmt.Sprintf("{^%v}", v.raw)
	case ARRAY_TYPE:
		m := v.raw.(*ArrayMap)
		if seen[m] {
			return "{...}"
		}
		if seen == nil {
			seen = map[*ArrayMap]bool{}
		}
		seen[m] = true
		defer delete(seen, m)
		parts := make([]string, 0, m.Len())
		m.Each(func(_ *Value, element *Value) bool {
			parts = append(parts, element.display(decimals, seen))
			return true
		})
		return "{" + strings.Join(parts, ", ") + "}"
	case FUNCTION_TYPE:
		return "<function " + v.raw.(Function).Name() + ">"
	}
	return fmt.Sprint(v.raw)
}

// Inspect renders the value with its type, for diagnostics.
func (v *Value) Inspect() string {
	var text string
	switch v.currentType {
	case NUMBER_TYPE:
		text = dec.String(v.raw.(decimal.Decimal))
	case STRING_TYPE:
		text = "'" + v.raw.(string) + "'"
	default:
		text = v.Display(2)
	}
	if v.IsStrong() {
		return fmt.Sprintf("%s:%s", text, v.strongType)
	}
	return fmt.Sprintf("%s(%s)", text, v.currentType)
}

func (v *Value) String() string {
	return v.Inspect()
}
