package evaluator

import (
	"salinas/internal/ast"
	"salinas/internal/object"
)

func (e *Evaluator) evalArrayLiteral(node *ast.Node) (*object.Value, error) {
	m := object.NewArrayMap()
	for _, c := range node.Children {
		value, err := e.evalValue(c)
		if err != nil {
			return nil, err
		}
		m.Append(value.Copy())
	}
	return object.Array(m), nil
}

// evalKeys evaluates the index of every segment of an ArrayAccess node.
func (e *Evaluator) evalKeys(node *ast.Node) ([]*object.Value, error) {
	var keys []*object.Value
	for _, c := range node.Children {
		if c.Kind != ast.ArraySegment {
			continue
		}
		key, err := e.evalValue(c.Child(0))
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// evalArrayAccess returns the element cell addressed by node. A missing key
// yields UNDEFINED.
func (e *Evaluator) evalArrayAccess(node *ast.Node) (*object.Value, error) {
	ident := node.ChildOfKind(ast.Identifier)
	keys, err := e.evalKeys(node)
	if err != nil {
		return nil, err
	}

	base, ok := e.ctx.lookup(ident.Name(), ident)
	if !ok {
		return object.Undefined(), nil
	}
	m, ok := base.AsArray()
	if !ok {
		return nil, object.NewEvalError("%s is not an array", ident.Name())
	}

	element := base
	for i, key := range keys {
		if i > 0 {
			if m, err = asArray(element); err != nil {
				return nil, err
			}
		}
		if element, ok = m.Get(key); !ok {
			return object.Undefined(), nil
		}
	}
	return element, nil
}

// assignArrayElement stores value itself at the addressed element, creating
// the array and any missing intermediate levels.
func (e *Evaluator) assignArrayElement(target *ast.Node, value *object.Value) (*object.Value, error) {
	ident := target.ChildOfKind(ast.Identifier)
	name := ident.Name()
	public := isPublic(target)

	keys, err := e.evalKeys(target)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, object.NewEvalError("Array assignment to %s without an index", name)
	}

	var (
		base  *object.Value
		found bool
	)
	if public {
		base, found = e.ctx.Globals.Get(name)
	} else {
		base, found = e.ctx.lookup(name, ident)
	}
	if !found {
		base = object.Array(object.NewArrayMap())
		if public {
			e.ctx.DeclarePublic(name, base)
		} else if err := e.ctx.declareNearest(name, base, target); err != nil {
			return nil, err
		}
	}

	m, ok := base.AsArray()
	if !ok {
		return nil, object.NewEvalError("Array access attempted on %s which is of type %s", name, base.Type())
	}

	last := len(keys) - 1
	for _, key := range keys[:last] {
		next, ok := m.Get(key)
		if !ok {
			next = object.Array(object.NewArrayMap())
			m.Put(key, next)
		}
		if m, err = asArray(next); err != nil {
			return nil, err
		}
	}

	if err := applyDataType(value, target); err != nil {
		return nil, err
	}
	m.Put(keys[last], value)
	return value, nil
}

func asArray(v *object.Value) (*object.ArrayMap, error) {
	raw, err := v.AsType(object.ARRAY_TYPE)
	if err != nil {
		return nil, err
	}
	return raw.(*object.ArrayMap), nil
}
