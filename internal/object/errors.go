package object

import (
	"bytes"
	"errors"
	"fmt"
)

var (
	ErrTypeConversion = errors.New("type conversion error")
	ErrFunctionCall   = errors.New("function call error")
	ErrArithmetic     = errors.New("arithmetic error")
	ErrEval           = errors.New("evaluation error")
)

// RuntimeError is raised by evaluation. Kind is one of the sentinel errors
// above and is what errors.Is matches against.
type RuntimeError struct {
	Kind       error
	Message    string
	Filename   string
	Line       int
	Column     int
	StackTrace []StackFrame // innermost call first
	Cause      error
}

func (re *RuntimeError) Error() string {
	if re.Line > 0 {
		return fmt.Sprintf("%s (%s:%d:%d)", re.Message, re.displayFilename(), re.Line, re.Column)
	}
	return re.Message
}

func (re *RuntimeError) Unwrap() []error {
	if re.Cause != nil {
		return []error{re.Kind, re.Cause}
	}
	return []error{re.Kind}
}

// HasPosition reports whether the error has been tied to a source location.
func (re *RuntimeError) HasPosition() bool {
	return re.Line > 0
}

func (re *RuntimeError) displayFilename() string {
	if re.Filename == "" {
		return "<script>"
	}
	return re.Filename
}

func newRuntimeError(kind error, format string, a ...interface{}) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, a...)}
}

func NewTypeConversionError(format string, a ...interface{}) *RuntimeError {
	return newRuntimeError(ErrTypeConversion, format, a...)
}

func NewFunctionCallError(format string, a ...interface{}) *RuntimeError {
	return newRuntimeError(ErrFunctionCall, format, a...)
}

func NewArithmeticError(format string, a ...interface{}) *RuntimeError {
	return newRuntimeError(ErrArithmetic, format, a...)
}

func NewEvalError(format string, a ...interface{}) *RuntimeError {
	return newRuntimeError(ErrEval, format, a...)
}

// AsRuntimeError returns err as a *RuntimeError, wrapping foreign errors as
// evaluation errors.
func AsRuntimeError(err error) *RuntimeError {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re
	}
	return &RuntimeError{Kind: ErrEval, Message: err.Error(), Cause: err}
}

// RenderStacktrace formats the error message followed by its call frames.
func RenderStacktrace(rtErr *RuntimeError) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s: %s", kindName(rtErr.Kind), rtErr.Message)
	if rtErr.HasPosition() {
		fmt.Fprintf(&buf, "\n  at [%3d:%3d] %s", rtErr.Line, rtErr.Column, rtErr.displayFilename())
	}
	for _, frame := range rtErr.StackTrace {
		fmt.Fprintf(&buf, "\n  at [%3d:%3d] %-8s - %s", frame.Line, frame.Column, frame.Function, frame.displayFile())
	}

	return buf.String()
}

func kindName(kind error) string {
	switch kind {
	case ErrTypeConversion:
		return "TypeConversionError"
	case ErrFunctionCall:
		return "FunctionCallError"
	case ErrArithmetic:
		return "ArithmeticError"
	default:
		return "EvalError"
	}
}
