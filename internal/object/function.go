package object

import (
	"io"
	"log/slog"
	"salinas/internal/ast"
	"salinas/internal/util"
)

// EvaluatorContext gives native functions access to the execution context
// they were called from.
type EvaluatorContext interface {
	GetConfiguration() util.Configuration
	// RandomSeed is the seed the random generator was last seeded with;
	// -1 means it was seeded from host entropy.
	RandomSeed() int64
	Reseed(seed int64)
	NextRandom() float64
	NextHandleID() int64
	Handles() *Handles
	Output() io.Writer
	Logger() *slog.Logger
}

// Function is a callable FUNCTION payload.
type Function interface {
	Name() string
}

// NativeFunction is the signature of host implemented functions.
type NativeFunction func(ctx EvaluatorContext, args ...*Value) (*Value, error)

// Native is a function implemented by the host.
type Native struct {
	FnName string
	Fn     NativeFunction
}

func (n *Native) Name() string { return n.FnName }

// UserFunction is a function declared in a script. Its locals live in the
// scope owned by the declaration node.
type UserFunction struct {
	Decl *ast.Node
}

func (u *UserFunction) Name() string {
	if name := u.Decl.Name(); name != "" {
		return name
	}
	return "<anonymous>"
}

// Parameters returns the parameter nodes in declaration order.
func (u *UserFunction) Parameters() []*ast.Node {
	var params []*ast.Node
	for _, c := range u.Decl.Children {
		if c.Kind == ast.Parameter {
			params = append(params, c)
		}
	}
	return params
}

// Body returns the statement block of the declaration.
func (u *UserFunction) Body() *ast.Node {
	return u.Decl.ChildOfKind(ast.Block)
}
