package object

import (
	"fmt"
	"math"
	"salinas/internal/dec"

	"github.com/shopspring/decimal"
)

// ArrayMap is an ordered map from keys to value cells. Nested ArrayMaps
// form multi-dimensional arrays.
//
// Keys are matched by type and value: numbers compare numerically (1 and 1.0
// are the same key), strings and booleans by value, arrays and functions by
// identity. A number key never matches a string key.
type ArrayMap struct {
	entries []arrayEntry
	index   map[arrayKey]int
	cursor  int64
}

type arrayEntry struct {
	key   *Value
	value *Value
}

type arrayKey struct {
	typ  Type
	text string
}

var maxCursorKey = decimal.NewFromInt(math.MaxInt64)

func NewArrayMap() *ArrayMap {
	return &ArrayMap{index: make(map[arrayKey]int)}
}

func keyOf(key *Value) arrayKey {
	switch raw := key.raw.(type) {
	case decimal.Decimal:
		return arrayKey{typ: NUMBER_TYPE, text: dec.String(raw)}
	case string:
		return arrayKey{typ: key.currentType, text: raw}
	case bool:
		return arrayKey{typ: BOOLEAN_TYPE, text: fmt.Sprint(raw)}
	case nil:
		return arrayKey{typ: key.currentType}
	default:
		return arrayKey{typ: key.currentType, text: fmt.Sprintf("%p", raw)}
	}
}

// Put stores value under key, keeping the original insertion position when
// the key already exists. A whole number key moves the cursor past it.
func (m *ArrayMap) Put(key *Value, value *Value) {
	k := keyOf(key)
	if i, ok := m.index[k]; ok {
		m.entries[i].value = value
	} else {
		m.index[k] = len(m.entries)
		m.entries = append(m.entries, arrayEntry{key: key.Copy(), value: value})
	}

	// keys past the int64 range leave the cursor alone
	if n, ok := key.raw.(decimal.Decimal); ok && n.IsInteger() && n.LessThan(maxCursorKey) {
		if next := n.IntPart() + 1; next > m.cursor {
			m.cursor = next
		}
	}
}

// Append stores value at the cursor position and advances the cursor.
func (m *ArrayMap) Append(value *Value) {
	m.Put(NumberFromInt(m.cursor), value)
}

func (m *ArrayMap) Get(key *Value) (*Value, bool) {
	i, ok := m.index[keyOf(key)]
	if !ok {
		return nil, false
	}
	return m.entries[i].value, true
}

func (m *ArrayMap) Contains(key *Value) bool {
	_, ok := m.index[keyOf(key)]
	return ok
}

func (m *ArrayMap) Len() int {
	return len(m.entries)
}

// Cursor is the next key used by Append.
func (m *ArrayMap) Cursor() int64 {
	return m.cursor
}

// Each visits entries in insertion order until fn returns false.
func (m *ArrayMap) Each(fn func(key *Value, value *Value) bool) {
	for _, e := range m.entries {
		if !fn(e.key, e.value) {
			return
		}
	}
}
