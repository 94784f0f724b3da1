package object

import "salinas/internal/ast"

type StackFrame struct {
	Function string
	File     string
	Line     int
	Column   int
	Node     *ast.Node // the calling node
}

func (f StackFrame) displayFile() string {
	if f.File == "" {
		return "<script>"
	}
	return f.File
}

// CallStack records the call sites of active function calls. It is used for
// diagnostics only.
type CallStack struct {
	frames []StackFrame
}

// Push adds a frame for the call made at node and returns the func that pops
// it. Callers defer the returned func so the stack stays balanced when the
// call fails.
func (cs *CallStack) Push(function string, node *ast.Node) func() {
	cs.frames = append(cs.frames, StackFrame{
		Function: function,
		File:     node.Filename(),
		Line:     node.Line(),
		Column:   node.Column(),
		Node:     node,
	})
	depth := len(cs.frames)
	return func() {
		if len(cs.frames) >= depth {
			cs.frames = cs.frames[:depth-1]
		}
	}
}

func (cs *CallStack) Depth() int {
	return len(cs.frames)
}

// Frames returns a copy of the active frames, innermost first.
func (cs *CallStack) Frames() []StackFrame {
	frames := make([]StackFrame, len(cs.frames))
	for i, f := range cs.frames {
		frames[len(cs.frames)-1-i] = f
	}
	return frames
}
