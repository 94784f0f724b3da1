package repl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"salinas/internal/engine"
	"salinas/internal/evaluator"
	"salinas/internal/lexer"
	"salinas/internal/object"
	"salinas/internal/token"
	"sort"
	"strings"
)

// Session evaluates REPL input in one evaluation context, so variables and
// functions survive from one input to the next. Lines are buffered while a
// block statement is still open.
type Session struct {
	engine *engine.Engine
	ctx    *evaluator.Context
	out    io.Writer

	buf   strings.Builder
	depth int
}

func NewSession(e *engine.Engine, out io.Writer) *Session {
	ctx := e.NewContext()
	ctx.SetOutput(out)
	return &Session{engine: e, ctx: ctx, out: out}
}

// Pending reports whether an unfinished block is buffered.
func (s *Session) Pending() bool {
	return s.buf.Len() > 0
}

// Reset discards buffered input.
func (s *Session) Reset() {
	s.buf.Reset()
	s.depth = 0
}

func (s *Session) Close() error {
	return s.ctx.Close()
}

// Feed adds a line of input and evaluates the buffer once every block it
// opened has been closed.
func (s *Session) Feed(ctx context.Context, line string) {
	if !s.Pending() && strings.TrimSpace(line) == "" {
		return
	}
	s.buf.WriteString(line)
	s.buf.WriteString("\n")

	s.depth += blockDepth(line)
	if s.depth > 0 {
		return
	}

	src := s.buf.String()
	s.Reset()
	s.Eval(ctx, src)
}

// Eval runs src and writes its value, or the error it failed with.
func (s *Session) Eval(ctx context.Context, src string) {
	script, err := s.engine.Compile("", src)
	if err != nil {
		fmt.Fprintln(s.out, engine.FormatError(err, src))
		return
	}

	result, err := script.RunIn(ctx, s.ctx)
	if err != nil {
		slog.Debug("repl evaluation failed", slog.Any("error", err))
		fmt.Fprintln(s.out, engine.FormatError(err, src))
		return
	}
	if result.Type() == object.NULL_TYPE {
		return
	}
	fmt.Fprintln(s.out, result.Display(s.ctx.Config.Decimals))
}

// Variables lists the global variables with their current values.
func (s *Session) Variables() []string {
	names := s.ctx.Globals.Names()
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, name := range names {
		value, _ := s.ctx.Globals.Get(name)
		out = append(out, fmt.Sprintf("%s = %s", name, value.Inspect()))
	}
	return out
}

// blockDepth returns how many blocks line opens minus how many it closes.
func blockDepth(line string) int {
	depth := 0
	prev := token.Token{}
	for _, tok := range lexer.Tokenize(line) {
		switch tok.Type {
		case token.IF, token.DO, token.FOR:
			depth++
		case token.FUNCTION:
			if prev.Type != token.COLON {
				depth++
			}
		case token.ENDIF, token.ENDDO, token.ENDCASE, token.NEXT, token.ENDFUNC:
			depth--
		}
		prev = tok
	}
	return depth
}
