package engine

import (
	"context"
	"errors"
	"salinas/internal/object"
	"salinas/internal/parser"
	"salinas/internal/util"
	"strings"
)

// FormatError renders an error returned by Compile or Run for display. Syntax
// errors show the source lines leading up to them; runtime errors show their
// call frames followed by the source lines around the failing node.
func FormatError(err error, src string) string {
	var errs parser.ErrorList
	if errors.As(err, &errs) {
		return errs.Render(src)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "Interrupted: " + err.Error()
	}

	rtErr := object.AsRuntimeError(err)
	var sb strings.Builder
	sb.WriteString(object.RenderStacktrace(rtErr))
	if rtErr.HasPosition() && src != "" {
		sb.WriteString("\n\n")
		sb.WriteString(util.GetContextLines(src, rtErr.Line, rtErr.Column, "here"))
	}
	return sb.String()
}
