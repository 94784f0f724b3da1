package object

import (
	"salinas/internal/ast"
	"strings"
)

// Scope is the variable table owned by a variable holder node.
type Scope struct {
	Node   *ast.Node
	Parent *Scope
	vars   map[string]*Value
}

func NewScope(node *ast.Node, parent *Scope) *Scope {
	return &Scope{Node: node, Parent: parent, vars: make(map[string]*Value)}
}

// CanonicalName is the key variables are stored under; names are case
// insensitive.
func CanonicalName(name string) string {
	return strings.ToUpper(name)
}

// Get looks name up in this scope only.
func (s *Scope) Get(name string) (*Value, bool) {
	v, ok := s.vars[CanonicalName(name)]
	return v, ok
}

// Resolve looks name up in this scope and then in each enclosing scope.
func (s *Scope) Resolve(name string) (*Value, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if v, ok := cur.Get(name); ok {
			return v, true
		}
	}
	return nil, false
}

// Set binds name to value in this scope, replacing any previous binding.
func (s *Scope) Set(name string, value *Value) {
	s.vars[CanonicalName(name)] = value
}

func (s *Scope) Len() int {
	return len(s.vars)
}

// Names returns the canonical names bound in this scope.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	return names
}
