package evaluator

import (
	"io"
	"log/slog"
	"salinas/internal/ast"
	"salinas/internal/dec"
	"salinas/internal/object"
	"strings"

	"github.com/shopspring/decimal"
)

// Flow is the result of evaluating a node. Returning is set by RETURN and is
// propagated unchanged by every statement sequence up to the call boundary.
type Flow struct {
	Value     *object.Value
	Returning bool
}

type Evaluator struct {
	ctx *Context
}

func New(ctx *Context) *Evaluator {
	return &Evaluator{ctx: ctx}
}

// Evaluate runs the tree rooted at root and returns the value of its last
// statement, or the value of a top level RETURN.
func Evaluate(root *ast.Node, ctx *Context) (*object.Value, error) {
	PreloadFunctionDeclarations(root, ctx)
	ctx.logger.Debug("evaluation started", slog.String("filename", root.Filename()))

	flow, err := New(ctx).eval(root)
	if err != nil {
		return nil, err
	}
	if flow.Value == nil {
		return object.Null(), nil
	}
	return flow.Value, nil
}

// eval evaluates node and ties any error without a position to it.
func (e *Evaluator) eval(node *ast.Node) (Flow, error) {
	flow, err := e.evalNode(node)
	if err != nil {
		return Flow{}, e.locate(err, node)
	}
	return flow, nil
}

func (e *Evaluator) evalNode(node *ast.Node) (Flow, error) {
	var (
		value *object.Value
		err   error
	)

	switch node.Kind {
	// Statements
	case ast.Script, ast.Block:
		return e.evalStatements(node.Children)

	case ast.If, ast.Case:
		return e.evalBranches(node)

	case ast.While:
		return e.evalWhile(node)

	case ast.For:
		return e.evalFor(node)

	case ast.Return:
		return e.evalReturn(node)

	case ast.Print:
		return e.evalPrint(node)

	case ast.Assign:
		value, err = e.evalAssign(node)

	case ast.FunctionDecl:
		value, err = e.evalFunctionDecl(node)

	// Expressions
	case ast.Identifier:
		value, err = e.evalIdentifier(node)

	case ast.ArrayAccess:
		value, err = e.evalArrayAccess(node)

	case ast.ArrayLiteral:
		value, err = e.evalArrayLiteral(node)

	case ast.FunctionCall:
		value, err = e.evalFunctionCall(node)

	case ast.Or:
		value, err = e.evalLogical(node, true)

	case ast.And:
		value, err = e.evalLogical(node, false)

	case ast.Not:
		value, err = e.evalNot(node)

	case ast.Compare:
		value, err = e.evalCompare(node)

	case ast.Contains:
		value, err = e.evalContains(node)

	case ast.Additive:
		value, err = e.evalAdditive(node)

	case ast.Multiplicative:
		value, err = e.evalMultiplicative(node)

	case ast.NumberLiteral:
		value, err = evalNumberLiteral(node)

	case ast.StringLiteral:
		value = object.String(node.Name())

	case ast.BooleanLiteral:
		b, _ := node.Value.(bool)
		value = object.Boolean(b)

	case ast.NullLiteral:
		value = object.Null()

	case ast.DateLiteral:
		value = object.NewValue(node.Name(), object.DATE_TYPE)

	default:
		err = object.NewEvalError("Unexpected %s node", node.Kind)
	}

	if err != nil {
		return Flow{}, err
	}
	return Flow{Value: value}, nil
}

// evalValue evaluates an expression; a node without a value yields NULL.
func (e *Evaluator) evalValue(node *ast.Node) (*object.Value, error) {
	flow, err := e.eval(node)
	if err != nil {
		return nil, err
	}
	if flow.Value == nil {
		return object.Null(), nil
	}
	return flow.Value, nil
}

func (e *Evaluator) evalCondition(node *ast.Node) (bool, error) {
	value, err := e.evalValue(node)
	if err != nil {
		return false, err
	}
	return value.AsBool()
}

// locate fills in the source position and the active call frames of err
// unless an inner node already did.
func (e *Evaluator) locate(err error, node *ast.Node) error {
	rtErr := object.AsRuntimeError(err)
	if !rtErr.HasPosition() {
		rtErr.Filename = node.Filename()
		rtErr.Line = node.Line()
		rtErr.Column = node.Column()
		rtErr.StackTrace = e.ctx.CallStack.Frames()
	}
	return rtErr
}

func (e *Evaluator) evalStatements(statements []*ast.Node) (Flow, error) {
	var last *object.Value
	for _, stmt := range statements {
		flow, err := e.eval(stmt)
		if err != nil {
			return Flow{}, err
		}
		if flow.Returning {
			return flow, nil
		}
		last = flow.Value
	}
	return Flow{Value: last}, nil
}

// evalBranches runs IF and DO CASE nodes: condition and block pairs, with a
// trailing block for ELSE or OTHERWISE.
func (e *Evaluator) evalBranches(node *ast.Node) (Flow, error) {
	children := node.Children
	for i := 0; i+1 < len(children); i += 2 {
		ok, err := e.evalCondition(children[i])
		if err != nil {
			return Flow{}, err
		}
		if ok {
			return e.eval(children[i+1])
		}
	}
	if len(children)%2 == 1 {
		return e.eval(children[len(children)-1])
	}
	return Flow{}, nil
}

func (e *Evaluator) evalWhile(node *ast.Node) (Flow, error) {
	var iterations int64
	for {
		ok, err := e.evalCondition(node.Child(0))
		if err != nil {
			return Flow{}, err
		}
		if !ok {
			return Flow{}, nil
		}
		if err := e.tick(&iterations); err != nil {
			return Flow{}, err
		}

		flow, err := e.eval(node.Child(1))
		if err != nil {
			return Flow{}, err
		}
		if flow.Returning {
			return flow, nil
		}
	}
}

// evalFor runs FOR var = start TO stop [STEP step]. The loop ends when the
// variable is exactly equal to stop, and the body runs once more with that
// value; a step that never lands on stop does not terminate on its own.
func (e *Evaluator) evalFor(node *ast.Node) (Flow, error) {
	ident := node.Child(0)
	body := node.Child(len(node.Children) - 1)

	variable, ok := e.ctx.lookup(ident.Name(), node)
	if !ok {
		variable = object.NumberFromInt(0)
		if err := e.ctx.Declare(ident.Name(), variable, node); err != nil {
			return Flow{}, err
		}
	}
	if err := variable.SetStrongType(object.NUMBER_TYPE); err != nil {
		return Flow{}, err
	}

	start, err := e.evalNumber(node.Child(1))
	if err != nil {
		return Flow{}, err
	}
	if err := variable.SetRaw(start, object.NUMBER_TYPE); err != nil {
		return Flow{}, err
	}
	stop, err := e.evalValue(node.Child(2))
	if err != nil {
		return Flow{}, err
	}
	step := dec.One
	if len(node.Children) == 5 {
		if step, err = e.evalNumber(node.Child(3)); err != nil {
			return Flow{}, err
		}
	}

	var iterations int64
	for {
		more, err := object.NOT_EQUAL_TO.Apply(variable, stop)
		if err != nil {
			return Flow{}, err
		}
		if !more {
			break
		}
		if err := e.tick(&iterations); err != nil {
			return Flow{}, err
		}

		flow, err := e.eval(body)
		if err != nil {
			return Flow{}, err
		}
		if flow.Returning {
			return flow, nil
		}

		current, err := variable.AsNumber()
		if err != nil {
			return Flow{}, err
		}
		if err := variable.SetRaw(current.Add(step), object.NUMBER_TYPE); err != nil {
			return Flow{}, err
		}
	}

	return e.eval(body)
}

func (e *Evaluator) evalNumber(node *ast.Node) (decimal.Decimal, error) {
	value, err := e.evalValue(node)
	if err != nil {
		return dec.Zero, err
	}
	return value.AsNumber()
}

// tick counts a loop iteration against the configured maximum.
func (e *Evaluator) tick(iterations *int64) error {
	*iterations++
	if limit := e.ctx.Config.MaxIterations; limit > 0 && *iterations > limit {
		return object.NewEvalError("Loop exceeded the maximum of %d iterations", limit)
	}
	return e.ctx.checkInterrupted()
}

func (e *Evaluator) evalReturn(node *ast.Node) (Flow, error) {
	if len(node.Children) == 0 {
		return Flow{Value: object.Null(), Returning: true}, nil
	}
	value, err := e.evalValue(node.Child(0))
	if err != nil {
		return Flow{}, err
	}
	return Flow{Value: value.Copy(), Returning: true}, nil
}

func (e *Evaluator) evalPrint(node *ast.Node) (Flow, error) {
	parts := make([]string, 0, len(node.Children))
	for _, c := range node.Children {
		value, err := e.evalValue(c)
		if err != nil {
			return Flow{}, err
		}
		parts = append(parts, value.Display(e.ctx.Config.Decimals))
	}

	text := strings.Join(parts, " ")
	if newline, _ := node.Value.(bool); newline {
		text += "\n"
	}
	if _, err := io.WriteString(e.ctx.out, text); err != nil {
		return Flow{}, object.NewEvalError("Failed to write output: %v", err)
	}
	return Flow{}, nil
}

func (e *Evaluator) evalIdentifier(node *ast.Node) (*object.Value, error) {
	value, ok := e.ctx.lookup(node.Name(), node)
	if !ok {
		value = object.Null()
	}
	if err := applyDataType(value, node); err != nil {
		return nil, err
	}
	return value, nil
}

func (e *Evaluator) evalAssign(node *ast.Node) (*object.Value, error) {
	target := node.Child(0)
	value, err := e.evalValue(node.Child(1))
	if err != nil {
		return nil, err
	}

	switch target.Kind {
	case ast.Identifier:
		return e.assignIdentifier(target, value)
	case ast.ArrayAccess:
		return e.assignArrayElement(target, value)
	}
	return nil, object.NewEvalError("Cannot assign to %s", target.Kind)
}

// assignIdentifier updates an existing variable in place. A new variable is
// bound to the cell of value itself, so it aliases the cell it was assigned
// from.
func (e *Evaluator) assignIdentifier(target *ast.Node, value *object.Value) (*object.Value, error) {
	name := target.Name()
	public := isPublic(target)

	var (
		cell *object.Value
		ok   bool
	)
	if public {
		cell, ok = e.ctx.Globals.Get(name)
	} else {
		cell, ok = e.ctx.lookup(name, target)
	}

	if ok {
		if err := cell.Set(value); err != nil {
			return nil, err
		}
	} else {
		cell = value
		if public {
			e.ctx.DeclarePublic(name, cell)
		} else if err := e.ctx.declareNearest(name, cell, target); err != nil {
			return nil, err
		}
	}

	if err := applyDataType(cell, target); err != nil {
		return nil, err
	}
	return cell, nil
}

func isPublic(target *ast.Node) bool {
	modifiers := target.ChildOfKind(ast.Modifiers)
	return modifiers != nil && modifiers.ChildOfKind(ast.Public) != nil
}

// applyDataType pins the type named by a DataType child of node, if any.
func applyDataType(cell *object.Value, node *ast.Node) error {
	dt := node.ChildOfKind(ast.DataType)
	if dt == nil {
		return nil
	}
	t, ok := object.ParseType(dt.Name())
	if !ok {
		return object.NewEvalError("Unknown data type %s", dt.Name())
	}
	return cell.SetStrongType(t)
}

func evalNumberLiteral(node *ast.Node) (*object.Value, error) {
	switch v := node.Value.(type) {
	case decimal.Decimal:
		return object.Number(v), nil
	case string:
		n, err := dec.ParseLiteral(v)
		if err != nil {
			return nil, object.NewEvalError("%s", err.Error())
		}
		return object.Number(n), nil
	}
	return nil, object.NewEvalError("Invalid number literal %v", node.Value)
}
