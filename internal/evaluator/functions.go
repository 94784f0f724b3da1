package evaluator

import (
	"fmt"
	"log/slog"
	"salinas/internal/ast"
	"salinas/internal/foreign"
	"salinas/internal/object"
)

// PreloadFunctionDeclarations binds every named function declared anywhere
// in the tree as a global, so calls may precede their declaration. Running it
// again for the same tree does nothing.
func PreloadFunctionDeclarations(root *ast.Node, ctx *Context) {
	if ctx.preloaded[root] {
		return
	}
	ctx.preloaded[root] = true

	ast.Walk(root, func(n *ast.Node) bool {
		if n.Kind == ast.FunctionDecl && n.Name() != "" {
			ctx.Globals.Set(n.Name(), object.FunctionValue(ctx.userFunction(n)))
			ctx.logger.Debug("function preloaded", slog.String("name", n.Name()))
		}
		return true
	})
}

// userFunction returns the single function value of a declaration node.
func (c *Context) userFunction(decl *ast.Node) *object.UserFunction {
	if fn, ok := c.functions[decl]; ok {
		return fn
	}
	fn := &object.UserFunction{Decl: decl}
	c.functions[decl] = fn
	return fn
}

func (e *Evaluator) evalFunctionDecl(node *ast.Node) (*object.Value, error) {
	value := object.FunctionValue(e.ctx.userFunction(node))
	if node.Name() == "" || node.Parent() == nil {
		return value, nil
	}
	if err := e.ctx.declareNearest(node.Name(), value, node.Parent()); err != nil {
		return nil, err
	}
	return value, nil
}

func (e *Evaluator) evalFunctionCall(node *ast.Node) (*object.Value, error) {
	fn, err := e.resolveCallee(node.Child(0))
	if err != nil {
		return nil, err
	}

	var result *object.Value
	for _, segment := range node.Children[1:] {
		if segment.Kind != ast.ArgumentSegment {
			continue
		}
		if result != nil {
			next, ok := result.AsFunction()
			if !ok {
				return nil, object.NewFunctionCallError("Attempted chained function call when return type is not a function (Type is %s)", result.Type())
			}
			fn = next
		}

		args, err := e.evalArguments(segment)
		if err != nil {
			return nil, err
		}
		if result, err = e.call(fn, args, node, segment); err != nil {
			return nil, err
		}
	}

	if result == nil {
		return object.Null(), nil
	}
	return result, nil
}

// resolveCallee finds the function named by ident. Variables holding a
// function take precedence over builtins of the same name.
func (e *Evaluator) resolveCallee(ident *ast.Node) (object.Function, error) {
	name := ident.Name()
	value, found := e.ctx.lookup(name, ident)
	if found {
		if fn, ok := value.AsFunction(); ok {
			return fn, nil
		}
	}
	if builtin, ok := foreign.LookupBuiltin(name); ok {
		return builtin, nil
	}
	if found {
		return nil, object.NewFunctionCallError("%s is not a function. Its type is %s", name, value.Type())
	}
	return nil, object.NewFunctionCallError("Function %s not found", name)
}

func (e *Evaluator) evalArguments(segment *ast.Node) ([]*object.Value, error) {
	args := make([]*object.Value, 0, len(segment.Children))
	for _, c := range segment.Children {
		value, err := e.evalValue(c)
		if err != nil {
			return nil, err
		}
		args = append(args, value)
	}
	return args, nil
}

// call invokes fn with a call stack frame for site that is popped however
// the call ends. Errors raised by the callee itself are located at node.
func (e *Evaluator) call(fn object.Function, args []*object.Value, node, site *ast.Node) (*object.Value, error) {
	if err := e.ctx.checkInterrupted(); err != nil {
		return nil, err
	}
	if limit := e.ctx.Config.MaxCallDepth; limit > 0 && e.ctx.CallStack.Depth() >= limit {
		return nil, object.NewFunctionCallError("Maximum call depth of %d exceeded calling %s", limit, fn.Name())
	}

	pop := e.ctx.CallStack.Push(fn.Name(), site)
	defer pop()

	e.ctx.logger.Debug("function call",
		slog.String("name", fn.Name()),
		slog.Int("args", len(args)),
		slog.Int("depth", e.ctx.CallStack.Depth()))

	var (
		result *object.Value
		err    error
	)
	switch fn := fn.(type) {
	case *object.Native:
		result, err = fn.Fn(e.ctx, args...)
	case *object.UserFunction:
		result, err = e.invoke(fn, args)
	default:
		err = object.NewFunctionCallError("%s is not callable", fn.Name())
	}

	if err != nil {
		return nil, e.locate(err, node)
	}
	if result == nil {
		return object.Null(), nil
	}
	return result, nil
}

// invoke runs a user function. Parameters and locals live in the scope of
// the declaration node, which every call of the function shares.
func (e *Evaluator) invoke(fn *object.UserFunction, args []*object.Value) (*object.Value, error) {
	scope := e.ctx.scopeFor(fn.Decl)

	for i, param := range fn.Parameters() {
		var value *object.Value
		if i < len(args) {
			value = args[i]
		} else if def := parameterDefault(param); def != nil {
			v, err := e.evalValue(def)
			if err != nil {
				return nil, err
			}
			value = v
		} else {
			return nil, object.NewFunctionCallError("Not enough parameters passed to function %s", fn.Name())
		}

		cell, ok := scope.Get(param.Name())
		if ok {
			if err := cell.Set(value); err != nil {
				return nil, err
			}
		} else {
			cell = value.Copy()
			scope.Set(param.Name(), cell)
		}
		if err := applyDataType(cell, param); err != nil {
			return nil, err
		}
	}

	body := fn.Body()
	if body == nil {
		return e.fallThrough(fn), nil
	}
	flow, err := e.eval(body)
	if err != nil {
		return nil, err
	}
	if flow.Returning {
		if flow.Value == nil {
			return object.Null(), nil
		}
		return flow.Value, nil
	}
	return e.fallThrough(fn), nil
}

// fallThrough is the result of a function that ends without RETURN.
func (e *Evaluator) fallThrough(fn *object.UserFunction) *object.Value {
	return object.String(fmt.Sprintf("Function at %d,%d", fn.Decl.Line(), fn.Decl.Column()))
}

func parameterDefault(param *ast.Node) *ast.Node {
	for _, c := range param.Children {
		if c.Kind != ast.DataType {
			return c
		}
	}
	return nil
}
