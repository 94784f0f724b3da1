package evaluator

import (
	"io"
	"log/slog"
	"math/rand"
	"os"
	"salinas/internal/ast"
	"salinas/internal/object"
	"salinas/internal/util"
	"sync/atomic"
)

var _ object.EvaluatorContext = (*Context)(nil)

// Context is the execution state of one evaluation. Nothing in it is shared
// with other contexts, so separate contexts may run on separate goroutines.
type Context struct {
	Config    util.Configuration
	Globals   *object.Scope
	CallStack *object.CallStack

	scopes    map[*ast.Node]*object.Scope
	functions map[*ast.Node]*object.UserFunction
	preloaded map[*ast.Node]bool

	seed       int64
	rng        *rand.Rand
	handles    *object.Handles
	nextHandle int64

	out         io.Writer
	logger      *slog.Logger
	interrupted atomic.Bool
}

func NewContext(config util.Configuration) *Context {
	ctx := &Context{
		Config:    config,
		Globals:   object.NewScope(nil, nil),
		CallStack: &object.CallStack{},
		scopes:    make(map[*ast.Node]*object.Scope),
		functions: make(map[*ast.Node]*object.UserFunction),
		preloaded: make(map[*ast.Node]bool),
		handles:   object.NewHandles(),
		out:       os.Stdout,
		logger:    slog.Default(),
	}
	ctx.Reseed(config.Seed)
	return ctx
}

func (c *Context) SetOutput(w io.Writer) {
	c.out = w
}

func (c *Context) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

// Close releases the resources scripts opened through this context, such as
// SQL connections.
func (c *Context) Close() error {
	return c.handles.CloseAll()
}

// Interrupt asks a running evaluation to stop at the next loop iteration or
// function call.
func (c *Context) Interrupt() {
	c.interrupted.Store(true)
}

// ClearInterrupt lets a context that was interrupted run again.
func (c *Context) ClearInterrupt() {
	c.interrupted.Store(false)
}

func (c *Context) checkInterrupted() error {
	if c.interrupted.Load() {
		return object.NewEvalError("Evaluation interrupted")
	}
	return nil
}

func (c *Context) GetConfiguration() util.Configuration { return c.Config }
func (c *Context) RandomSeed() int64                    { return c.seed }
func (c *Context) NextRandom() float64                  { return c.rng.Float64() }
func (c *Context) Handles() *object.Handles             { return c.handles }
func (c *Context) Output() io.Writer                    { return c.out }
func (c *Context) Logger() *slog.Logger                 { return c.logger }

// Reseed restarts the random generator. A negative seed draws the seed from
// host entropy and is recorded as -1.
func (c *Context) Reseed(seed int64) {
	if seed < 0 {
		c.seed = -1
		c.rng = rand.New(rand.NewSource(rand.Int63()))
		return
	}
	c.seed = seed
	c.rng = rand.New(rand.NewSource(seed))
}

func (c *Context) NextHandleID() int64 {
	c.nextHandle++
	return c.nextHandle
}
