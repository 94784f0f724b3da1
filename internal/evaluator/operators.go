package evaluator

import (
	"errors"
	"salinas/internal/ast"
	"salinas/internal/dec"
	"salinas/internal/object"
	"strings"
)

func (e *Evaluator) evalOperands(node *ast.Node) ([]*object.Value, error) {
	values := make([]*object.Value, 0, len(node.Children))
	for _, c := range node.Children {
		value, err := e.evalValue(c)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

func anyOfType(values []*object.Value, t object.Type) bool {
	for _, v := range values {
		if v.Type() == t {
			return true
		}
	}
	return false
}

// evalLogical short-circuits .OR. (stopOn true) and .AND. (stopOn false).
func (e *Evaluator) evalLogical(node *ast.Node, stopOn bool) (*object.Value, error) {
	for _, c := range node.Children {
		ok, err := e.evalCondition(c)
		if err != nil {
			return nil, err
		}
		if ok == stopOn {
			return object.Boolean(stopOn), nil
		}
	}
	return object.Boolean(!stopOn), nil
}

func (e *Evaluator) evalNot(node *ast.Node) (*object.Value, error) {
	ok, err := e.evalCondition(node.Child(0))
	if err != nil {
		return nil, err
	}
	return object.Boolean(!ok), nil
}

// evalAdditive sums a chain of + and -. When any operand is a STRING the
// chain concatenates instead; if the chain contains a -, operands are
// trimmed and the removed whitespace is appended as spaces at the end.
func (e *Evaluator) evalAdditive(node *ast.Node) (*object.Value, error) {
	ops := node.Operators()
	values, err := e.evalOperands(node)
	if err != nil {
		return nil, err
	}

	moveSpaces := false
	for _, op := range ops {
		if op == "-" {
			moveSpaces = true
		}
	}

	if anyOfType(values, object.STRING_TYPE) {
		var out strings.Builder
		removed := 0
		for _, v := range values {
			s, err := v.AsString()
			if err != nil {
				return nil, err
			}
			if moveSpaces {
				trimmed := strings.TrimFunc(s, func(r rune) bool { return r <= ' ' })
				removed += len(s) - len(trimmed)
				s = trimmed
			}
			out.WriteString(s)
		}
		out.WriteString(strings.Repeat(" ", removed))
		return object.String(out.String()), nil
	}

	sum, err := values[0].AsNumber()
	if err != nil {
		return nil, err
	}
	if len(values) == 1 {
		if len(ops) == 1 && ops[0] == "-" {
			return object.Number(sum.Neg()), nil
		}
		return object.Number(sum), nil
	}

	for i, op := range ops {
		n, err := values[i+1].AsNumber()
		if err != nil {
			return nil, err
		}
		if op == "-" {
			sum = sum.Sub(n)
		} else {
			sum = sum.Add(n)
		}
	}
	return object.Number(sum), nil
}

// evalMultiplicative folds *, /, %, ** and ^ left to right. Division keeps
// the configured precision, rounding half-even.
func (e *Evaluator) evalMultiplicative(node *ast.Node) (*object.Value, error) {
	ops := node.Operators()
	values, err := e.evalOperands(node)
	if err != nil {
		return nil, err
	}

	acc, err := values[0].AsNumber()
	if err != nil {
		return nil, err
	}
	precision := e.ctx.Config.Precision

	for i, op := range ops {
		n, err := values[i+1].AsNumber()
		if err != nil {
			return nil, err
		}
		switch op {
		case "*":
			acc = acc.Mul(n)
		case "/":
			acc, err = dec.Div(acc, n, precision, dec.RoundHalfEven)
		case "%":
			acc, err = dec.Mod(acc, n)
		case "**", "^":
			acc, err = dec.Pow(acc, n, precision)
		default:
			return nil, object.NewEvalError("Unknown operator %s", op)
		}
		if errors.Is(err, dec.ErrDivisionByZero) {
			return nil, object.NewArithmeticError("Arithmetic error: Division by zero")
		}
		if err != nil {
			return nil, object.NewArithmeticError("Arithmetic error: %v", err)
		}
	}
	return object.Number(acc), nil
}

// evalCompare folds a comparison chain left to right. When any operand is a
// STRING, operands not paired with an exact operator are compared as strings.
func (e *Evaluator) evalCompare(node *ast.Node) (*object.Value, error) {
	symbols := node.Operators()
	values, err := e.evalOperands(node)
	if err != nil {
		return nil, err
	}

	ops := make([]object.CompareOp, len(symbols))
	for i, symbol := range symbols {
		op, ok := object.ParseCompareOp(symbol)
		if !ok {
			return nil, object.NewEvalError("Unknown comparative operator %s", symbol)
		}
		ops[i] = op
	}

	if anyOfType(values, object.STRING_TYPE) {
		for i, v := range values {
			paired := ops[0]
			if i > 0 {
				paired = ops[i-1]
			}
			if paired.IsExact() {
				continue
			}
			s, err := v.AsString()
			if err != nil {
				return nil, err
			}
			values[i] = object.String(s)
		}
	}

	result := values[0]
	for i, op := range ops {
		ok, err := op.Apply(result, values[i+1])
		if err != nil {
			return nil, err
		}
		result = object.Boolean(ok)
	}
	return result, nil
}

// evalContains implements a $ b: every term before the last must occur in
// the string form of the last.
func (e *Evaluator) evalContains(node *ast.Node) (*object.Value, error) {
	values, err := e.evalOperands(node)
	if err != nil {
		return nil, err
	}

	haystack, err := values[len(values)-1].AsString()
	if err != nil {
		return nil, err
	}
	for _, v := range values[:len(values)-1] {
		needle, err := v.AsString()
		if err != nil {
			return nil, err
		}
		if !strings.Contains(haystack, needle) {
			return object.Boolean(false), nil
		}
	}
	return object.Boolean(true), nil
}
