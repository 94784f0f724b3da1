package foreign

import (
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"salinas/internal/object"
	"salinas/internal/util"
	"testing"

	"github.com/shopspring/decimal"
)

type testContext struct {
	config  util.Configuration
	seed    int64
	rng     *rand.Rand
	handles *object.Handles
	nextID  int64
}

func newTestContext() *testContext {
	config := util.DefaultConfiguration()
	return &testContext{
		config:  config,
		seed:    config.Seed,
		rng:     rand.New(rand.NewSource(config.Seed)),
		handles: object.NewHandles(),
	}
}

func (c *testContext) GetConfiguration() util.Configuration { return c.config }
func (c *testContext) RandomSeed() int64                    { return c.seed }
func (c *testContext) NextRandom() float64                  { return c.rng.Float64() }
func (c *testContext) Handles() *object.Handles             { return c.handles }
func (c *testContext) Output() io.Writer                    { return io.Discard }
func (c *testContext) Logger() *slog.Logger                 { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func (c *testContext) Reseed(seed int64) {
	c.seed = seed
	if seed < 0 {
		c.rng = rand.New(rand.NewSource(rand.Int63()))
		return
	}
	c.rng = rand.New(rand.NewSource(seed))
}

func (c *testContext) NextHandleID() int64 {
	c.nextID++
	return c.nextID
}

func num(s string) *object.Value {
	return object.Number(decimal.RequireFromString(s))
}

func str(s string) *object.Value {
	return object.String(s)
}

func call(t *testing.T, ctx object.EvaluatorContext, name string, args ...*object.Value) (*object.Value, error) {
	t.Helper()
	fn, ok := LookupBuiltin(name)
	if !ok {
		t.Fatalf("builtin %s not found", name)
	}
	return fn.Fn(ctx, args...)
}

func TestStringBuiltins(t *testing.T) {
	tests := []struct {
		name     string
		args     []*object.Value
		expected string
	}{
		{"UPPER", []*object.Value{str("hello World")}, "HELLO WORLD"},
		{"lower", []*object.Value{str("Hello WORLD")}, "hello world"},
		{"UPPER", []*object.Value{num("12.5")}, "12.5"},
		{"LEFT", []*object.Value{str("hello"), num("2")}, "he"},
		{"LEFT", []*object.Value{str("hello"), num("10")}, "hello"},
		{"LEFT", []*object.Value{str("hello"), num("0")}, ""},
		{"RIGHT", []*object.Value{str("hello"), num("3")}, "llo"},
		{"RIGHT", []*object.Value{str("hello"), num("5")}, "hello"},
		{"SUBSTR", []*object.Value{str("hello"), num("2"), num("3")}, "ell"},
		{"SUBSTR", []*object.Value{str("hello"), num("4"), num("10")}, "lo"},
		{"SUBSTR", []*object.Value{str("hello"), num("5"), num("1")}, "o"},
		{"SUBSTR", []*object.Value{str("hello"), num("9"), num("2")}, ""},
		{"SUBSTR", []*object.Value{str("hello"), num("0"), num("2")}, "he"},
		{"CHR", []*object.Value{num("65")}, "A"},
		{"CENTER", []*object.Value{str("abc"), num("9")}, "   abc   "},
		{"CENTER", []*object.Value{str("ab"), num("7"), str("*-")}, "**ab***"},
		{"CENTER", []*object.Value{str("abcdef"), num("4")}, "abcdef"},
		{"CENTER", []*object.Value{str("x")}, "         x          "},
		{"IIF", []*object.Value{object.Boolean(true), str("yes"), str("no")}, "yes"},
		{"IIF", []*object.Value{num("0"), str("yes"), str("no")}, "no"},
	}

	ctx := newTestContext()
	for i, tt := range tests {
		result, err := call(t, ctx, tt.name, tt.args...)
		if err != nil {
			t.Errorf("tests[%d] - %s: unexpected error: %v", i, tt.name, err)
			continue
		}
		if result.Type() != object.STRING_TYPE {
			t.Errorf("tests[%d] - %s: expected STRING, got %s", i, tt.name, result.Type())
			continue
		}
		if got, _ := result.AsString(); got != tt.expected {
			t.Errorf("tests[%d] - %s: expected %q, got %q", i, tt.name, tt.expected, got)
		}
	}
}

func TestNumericBuiltins(t *testing.T) {
	tests := []struct {
		name     string
		args     []*object.Value
		expected string
	}{
		{"AT", []*object.Value{str("l"), str("hello")}, "3"},
		{"AT", []*object.Value{str("l"), str("hello"), num("2")}, "4"},
		{"AT", []*object.Value{str("l"), str("hello"), num("3")}, "0"},
		{"AT", []*object.Value{str("z"), str("hello")}, "0"},
		{"AT", []*object.Value{str(""), str("hello")}, "0"},
		{"AT", []*object.Value{str("aa"), str("aaaa"), num("2")}, "2"},
		{"RAT", []*object.Value{str("l"), str("hello")}, "4"},
		{"RAT", []*object.Value{str("l"), str("hello"), num("2")}, "3"},
		{"RAT", []*object.Value{str("he"), str("hello")}, "1"},
		{"RAT", []*object.Value{str("aa"), str("aaaa"), num("2")}, "2"},
		{"RAT", []*object.Value{str("x"), str("")}, "0"},
		{"ASC", []*object.Value{str("A")}, "65"},
		{"ABS", []*object.Value{num("-3.5")}, "3.5"},
		{"VAL", []*object.Value{str("12.5abc")}, "12.5"},
		{"VAL", []*object.Value{str("42")}, "42"},
		{"INT", []*object.Value{num("7.9")}, "7"},
		{"INT", []*object.Value{num("-7.9")}, "-7"},
		{"ROUND", []*object.Value{num("2.5")}, "3"},
		{"ROUND", []*object.Value{num("-2.5")}, "-3"},
		{"ROUND", []*object.Value{num("3.14159"), num("2")}, "3.14"},
		{"ROUND", []*object.Value{num("1.005"), num("2")}, "1.01"},
		{"ROUND", []*object.Value{num("1250"), num("-2")}, "1300"},
		{"ROUND", []*object.Value{num("1249"), num("-2")}, "1200"},
		{"PI", nil, "3.141592653589793"},
	}

	ctx := newTestContext()
	for i, tt := range tests {
		result, err := call(t, ctx, tt.name, tt.args...)
		if err != nil {
			t.Errorf("tests[%d] - %s: unexpected error: %v", i, tt.name, err)
			continue
		}
		n, err := result.AsNumber()
		if err != nil || result.Type() != object.NUMBER_TYPE {
			t.Errorf("tests[%d] - %s: expected NUMBER, got %s", i, tt.name, result.Type())
			continue
		}
		if !n.Equal(decimal.RequireFromString(tt.expected)) {
			t.Errorf("tests[%d] - %s: expected %s, got %s", i, tt.name, tt.expected, n)
		}
	}
}

func TestBuiltinsReturningNull(t *testing.T) {
	ctx := newTestContext()
	result, err := call(t, ctx, "ASC", str(""))
	if err != nil || result.Type() != object.NULL_TYPE {
		t.Errorf("ASC(''): expected NULL, got %v, %v", result, err)
	}
	for _, input := range []string{"abc", ""} {
		result, err := call(t, ctx, "VAL", str(input))
		if err != nil || result.Type() != object.NULL_TYPE {
			t.Errorf("VAL(%q): expected NULL, got %v, %v", input, result, err)
		}
	}
}

func TestArityErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []*object.Value
		expected string
	}{
		{"UPPER", nil, "Function UPPER must be called with 1 parameters"},
		{"SUBSTR", []*object.Value{str("a")}, "Function SUBSTR must be called with 3 parameters"},
		{"AT", []*object.Value{str("a")}, "Function AT must be called with between 2 and 3 parameters"},
		{"RANDOM", []*object.Value{num("1"), num("2")}, "Function RANDOM must be called with between 0 and 1 parameters"},
		{"PI", []*object.Value{num("1")}, "Function PI must be called with 0 parameters"},
		{"CENTER", nil, "Function CENTER must be called with between 1 and 3 parameters"},
	}

	ctx := newTestContext()
	for i, tt := range tests {
		_, err := call(t, ctx, tt.name, tt.args...)
		if err == nil {
			t.Errorf("tests[%d] - %s: expected error", i, tt.name)
			continue
		}
		if !errors.Is(err, object.ErrFunctionCall) {
			t.Errorf("tests[%d] - %s: expected function call error, got %v", i, tt.name, err)
		}
		if err.Error() != tt.expected {
			t.Errorf("tests[%d] - expected %q, got %q", i, tt.expected, err.Error())
		}
	}
}

func TestConversionErrorsInsideBuiltins(t *testing.T) {
	ctx := newTestContext()
	_, err := call(t, ctx, "UPPER", object.Array(object.NewArrayMap()))
	if !errors.Is(err, object.ErrFunctionCall) || !errors.Is(err, object.ErrTypeConversion) {
		t.Fatalf("expected function call error caused by a conversion error, got %v", err)
	}
}

func TestRandom(t *testing.T) {
	first := newTestContext()
	second := newTestContext()

	a, _ := call(t, first, "RANDOM")
	b, _ := call(t, second, "RANDOM")
	if a.Inspect() != b.Inspect() {
		t.Errorf("expected equal draws from fresh contexts, got %s and %s", a, b)
	}

	n, _ := a.AsNumber()
	if n.LessThan(decimal.Zero) || !n.LessThan(decimal.NewFromInt(1)) {
		t.Errorf("expected a number in [0, 1), got %s", n)
	}

	// the same seed twice only reseeds once
	x, _ := call(t, first, "RANDOM", num("42"))
	y, _ := call(t, first, "RANDOM", num("42"))
	if x.Inspect() == y.Inspect() {
		t.Errorf("expected repeated seed to keep advancing, got %s twice", x)
	}
	z, _ := call(t, second, "RANDOM", num("42"))
	if x.Inspect() != z.Inspect() {
		t.Errorf("expected seed 42 to be deterministic, got %s and %s", x, z)
	}
	if first.RandomSeed() != 42 {
		t.Errorf("expected seed 42, got %d", first.RandomSeed())
	}

	call(t, first, "RANDOM", num("0"))
	if first.RandomSeed() != 42 {
		t.Errorf("expected seed 0 to leave the generator alone, got %d", first.RandomSeed())
	}
	call(t, first, "RANDOM", num("-5"))
	if first.RandomSeed() != -1 {
		t.Errorf("expected entropy seed -1, got %d", first.RandomSeed())
	}
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	for _, name := range []string{"upper", "Upper", "UPPER"} {
		if fn, ok := LookupBuiltin(name); !ok || fn.Name() != "UPPER" {
			t.Errorf("expected %s to resolve to UPPER", name)
		}
	}
	if _, ok := LookupBuiltin("NOPE"); ok {
		t.Errorf("expected unknown builtin to be missing")
	}
}
