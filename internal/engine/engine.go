package engine

import (
	"context"
	"log/slog"
	"os"
	"salinas/internal/ast"
	"salinas/internal/evaluator"
	"salinas/internal/object"
	"salinas/internal/parser"
	"salinas/internal/util"
	"salinas/internal/util/future"
	"sync"
)

type cacheKey struct {
	filename string
	source   string
}

// Engine compiles scripts and runs them. Compiled scripts with a filename are
// cached by filename and source. A script may be run any number of times,
// concurrently, each run in a fresh evaluation context.
type Engine struct {
	Config util.Configuration

	mu     sync.Mutex
	cache  map[cacheKey]*Script
	logger *slog.Logger
}

func New(config util.Configuration) *Engine {
	return &Engine{
		Config: config,
		cache:  make(map[cacheKey]*Script),
		logger: slog.Default(),
	}
}

func (e *Engine) SetLogger(logger *slog.Logger) {
	e.logger = logger
}

// Script is a parsed source ready to run.
type Script struct {
	Filename string
	Source   string
	Program  *ast.Node

	engine *Engine
}

// Compile parses src. A source already compiled under the same filename is
// returned from the cache; sources without a filename, such as REPL input,
// are never cached. Syntax errors are returned as a parser.ErrorList.
func (e *Engine) Compile(filename, src string) (*Script, error) {
	key := cacheKey{filename: filename, source: src}
	cached := filename != ""

	e.mu.Lock()
	defer e.mu.Unlock()

	if script, ok := e.cache[key]; cached && ok {
		e.logger.Debug("script loaded from cache", slog.String("filename", filename))
		return script, nil
	}

	program, err := parser.Parse(filename, src)
	if err != nil {
		e.logger.Warn("error compiling script",
			slog.String("filename", filename),
			slog.Any("error", err))
		return nil, err
	}
	e.writeDebugAST(filename, program)

	script := &Script{
		Filename: filename,
		Source:   src,
		Program:  program,
		engine:   e,
	}
	if !cached {
		e.logger.Debug("script compiled")
		return script, nil
	}
	e.cache[key] = script
	e.logger.Info("script compiled, added to cache", slog.String("filename", filename))
	return script, nil
}

func (e *Engine) writeDebugAST(filename string, program *ast.Node) {
	if filename == "" {
		return
	}
	if e.Config.DebugJsonAST {
		json, err := parser.RenderASTAsJSON(program)
		if err != nil {
			e.logger.Error("Failed to render AST as JSON", slog.Any("error", err))
		} else if err := os.WriteFile(filename+".ast.json", []byte(json), 0644); err != nil {
			e.logger.Error("Failed to write AST as JSON", slog.Any("error", err))
		}
	}
	if e.Config.DebugTxtAST {
		text := parser.RenderASTAsText(program, 0)
		if err := os.WriteFile(filename+".ast.txt", []byte(text), 0644); err != nil {
			e.logger.Error("Failed to write AST as text", slog.Any("error", err))
		}
	}
}

// NewContext returns an evaluation context configured like the engine.
func (e *Engine) NewContext() *evaluator.Context {
	ectx := evaluator.NewContext(e.Config)
	ectx.SetLogger(e.logger)
	return ectx
}

// Eval compiles and runs src.
func (e *Engine) Eval(filename, src string) (*object.Value, error) {
	script, err := e.Compile(filename, src)
	if err != nil {
		return nil, err
	}
	return script.Run(context.Background())
}

// Start evaluates the script in ectx on its own goroutine.
func (s *Script) Start(ectx *evaluator.Context) *future.Future[*object.Value] {
	return future.New(func() (*object.Value, error) {
		return evaluator.Evaluate(s.Program, ectx)
	})
}

// Run evaluates the script in a fresh context and releases the resources the
// script opened once it finishes.
func (s *Script) Run(ctx context.Context) (*object.Value, error) {
	ectx := s.engine.NewContext()
	defer func() {
		if err := ectx.Close(); err != nil {
			s.engine.logger.Warn("error releasing script resources",
				slog.String("filename", s.Filename),
				slog.Any("error", err))
		}
	}()
	return s.RunIn(ctx, ectx)
}

// RunIn evaluates the script in ectx, which keeps its variables afterwards.
// Cancelling ctx interrupts the evaluation at its next loop iteration or
// function call; RunIn then returns ctx.Err().
func (s *Script) RunIn(ctx context.Context, ectx *evaluator.Context) (*object.Value, error) {
	ectx.ClearInterrupt()
	fut := s.Start(ectx)

	select {
	case <-fut.Done():
		return fut.Await()
	case <-ctx.Done():
		ectx.Interrupt()
		_, _ = fut.Await()
		s.engine.logger.Info("script interrupted",
			slog.String("filename", s.Filename),
			slog.Any("reason", ctx.Err()))
		return nil, ctx.Err()
	}
}
