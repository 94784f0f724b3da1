package repl

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"salinas/internal/engine"
	"salinas/internal/util"
	"strings"
	"testing"
)

func newTestSession() (*Session, *bytes.Buffer) {
	e := engine.New(util.DefaultConfiguration())
	e.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	out := &bytes.Buffer{}
	return NewSession(e, out), out
}

func feed(s *Session, lines ...string) {
	for _, line := range lines {
		s.Feed(context.Background(), line)
	}
}

func TestSessionKeepsState(t *testing.T) {
	s, out := newTestSession()
	defer s.Close()

	feed(s, "x = 2", "x * 21")
	if got := out.String(); got != "2.00\n42.00\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestSessionBuffersBlocks(t *testing.T) {
	s, out := newTestSession()
	defer s.Close()

	feed(s, "function sq(n)")
	if !s.Pending() {
		t.Fatalf("expected the function body to be buffered")
	}
	feed(s, "  if n < 0", "    return 0", "  endif", "  return n * n")
	if !s.Pending() {
		t.Fatalf("expected the function body to still be buffered")
	}
	feed(s, "endfunction")
	if s.Pending() {
		t.Fatalf("expected the block to be evaluated")
	}

	out.Reset()
	feed(s, "sq(12)")
	if got := out.String(); got != "144.00\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestSessionReset(t *testing.T) {
	s, out := newTestSession()
	defer s.Close()

	feed(s, "for i = 1 to 3")
	s.Reset()
	feed(s, "1 + 1")
	if got := out.String(); got != "2.00\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestSessionErrors(t *testing.T) {
	s, out := newTestSession()
	defer s.Close()

	feed(s, "nofn()")
	if !strings.Contains(out.String(), "FunctionCallError: Function nofn not found") {
		t.Errorf("expected a runtime error, got %q", out.String())
	}

	out.Reset()
	feed(s, "x = (")
	if !strings.Contains(out.String(), "ParseError") {
		t.Errorf("expected a parse error, got %q", out.String())
	}

	out.Reset()
	feed(s, "y = 3", "y")
	if got := out.String(); got != "3.00\n3.00\n" {
		t.Errorf("expected the session to recover after errors, got %q", got)
	}
}

func TestSessionVariables(t *testing.T) {
	s, _ := newTestSession()
	defer s.Close()

	feed(s, "b = 'two'", "a = 1")
	vars := s.Variables()
	if len(vars) != 2 {
		t.Fatalf("expected 2 variables, got %v", vars)
	}
	if !strings.HasPrefix(vars[0], "A = ") || !strings.HasPrefix(vars[1], "B = ") {
		t.Errorf("expected sorted variables, got %v", vars)
	}
}

func TestBlockDepth(t *testing.T) {
	tests := []struct {
		line     string
		expected int
	}{
		{"x = 1", 0},
		{"if x > 1", 1},
		{"endif", -1},
		{"do while .t.", 1},
		{"do case", 1},
		{"for i = 1 to 10 step 2", 1},
		{"next", -1},
		{"f = function(a)", 1},
		{"y:function = g", 0},
		{"endfunction", -1},
	}

	for i, tt := range tests {
		if got := blockDepth(tt.line); got != tt.expected {
			t.Errorf("tests[%d] - blockDepth(%q) expected %d, got %d", i, tt.line, tt.expected, got)
		}
	}
}
