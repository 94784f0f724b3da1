package evaluator

import (
	"log/slog"
	"salinas/internal/ast"
	"salinas/internal/object"
)

// scopeFor returns the scope owned by holder, creating it on first use. The
// script root and nodes outside any tree share the global table.
func (c *Context) scopeFor(holder *ast.Node) *object.Scope {
	if holder == nil || holder.Parent() == nil {
		return c.Globals
	}
	if scope, ok := c.scopes[holder]; ok {
		return scope
	}

	parent := c.scopeFor(holder.Parent().FirstVariableHolder())
	scope := object.NewScope(holder, parent)
	c.scopes[holder] = scope
	c.logger.Debug("scope created",
		slog.String("holder", holder.Kind.String()),
		slog.Int("line", holder.Line()),
		slog.Int("column", holder.Column()))
	return scope
}

// Lookup finds name starting at the scope of the variable holder enclosing
// node. With fullScope every enclosing scope up to the globals is searched,
// otherwise only the nearest one.
func (c *Context) Lookup(name string, node *ast.Node, fullScope bool) (*object.Value, bool) {
	scope := c.scopeFor(node.FirstVariableHolder())
	if fullScope {
		return scope.Resolve(name)
	}
	return scope.Get(name)
}

// Declare binds name in the scope owned by node, which must be a variable
// holder. The script root declares into the globals.
func (c *Context) Declare(name string, value *object.Value, node *ast.Node) error {
	if node == nil || !node.Kind.IsVariableHolder() {
		return object.NewEvalError("Cannot declare %s outside of a variable holder", name)
	}
	c.scopeFor(node).Set(name, value)
	return nil
}

// DeclarePublic binds name in the globals.
func (c *Context) DeclarePublic(name string, value *object.Value) {
	c.Globals.Set(name, value)
}

func (c *Context) lookup(name string, node *ast.Node) (*object.Value, bool) {
	return c.Lookup(name, node, true)
}

// declareNearest binds a new variable in the nearest variable holder
// enclosing node.
func (c *Context) declareNearest(name string, value *object.Value, node *ast.Node) error {
	holder := node.FirstVariableHolder()
	if holder == nil {
		c.Globals.Set(name, value)
		return nil
	}
	return c.Declare(name, value, holder)
}
