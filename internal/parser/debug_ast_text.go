package parser

import (
	"fmt"
	"salinas/internal/ast"
	"strings"
)

// RenderASTAsText produces an indented, source-like representation of the tree.
// Expressions are fully parenthesized so precedence can be read off directly.
func RenderASTAsText(node *ast.Node, indent int) string {
	if node == nil {
		return "nil"
	}

	sp := strings.Repeat("  ", indent)

	switch node.Kind {
	case ast.Script:
		var sb strings.Builder
		for i, s := range node.Children {
			if i > 0 {
				sb.WriteString("\n")
			}
			// Root level statements start at indent 0
			sb.WriteString(RenderASTAsText(s, 0))
		}
		return sb.String()

	case ast.Block:
		var sb strings.Builder
		for _, s := range node.Children {
			sb.WriteString(RenderASTAsText(s, indent))
			sb.WriteString("\n")
		}
		return sb.String()

	case ast.If:
		var sb strings.Builder
		keyword := "IF"
		i := 0
		for ; i+1 < len(node.Children); i += 2 {
			fmt.Fprintf(&sb, "%s%s %s\n", sp, keyword, node.Children[i])
			sb.WriteString(RenderASTAsText(node.Children[i+1], indent+1))
			keyword = "ELSEIF"
		}
		if i < len(node.Children) {
			sb.WriteString(sp + "ELSE\n")
			sb.WriteString(RenderASTAsText(node.Children[i], indent+1))
		}
		sb.WriteString(sp + "ENDIF")
		return sb.String()

	case ast.Case:
		var sb strings.Builder
		sb.WriteString(sp + "DO CASE\n")
		i := 0
		for ; i+1 < len(node.Children); i += 2 {
			fmt.Fprintf(&sb, "%s  CASE %s\n", sp, node.Children[i])
			sb.WriteString(RenderASTAsText(node.Children[i+1], indent+2))
		}
		if i < len(node.Children) {
			sb.WriteString(sp + "  OTHERWISE\n")
			sb.WriteString(RenderASTAsText(node.Children[i], indent+2))
		}
		sb.WriteString(sp + "ENDCASE")
		return sb.String()

	case ast.While:
		return fmt.Sprintf("%sDO WHILE %s\n%s%sENDDO", sp, node.Child(0), RenderASTAsText(node.Child(1), indent+1), sp)

	case ast.For:
		last := len(node.Children) - 1
		header := fmt.Sprintf("%sFOR %s = %s TO %s", sp, node.Child(0), node.Child(1), node.Child(2))
		if last == 4 {
			header += " STEP " + node.Child(3).String()
		}
		return fmt.Sprintf("%s\n%s%sNEXT", header, RenderASTAsText(node.Child(last), indent+1), sp)

	case ast.FunctionDecl:
		return fmt.Sprintf("%s%s\n%s%sENDFUNC", sp, node, RenderASTAsText(node.ChildOfKind(ast.Block), indent+1), sp)

	case ast.Return:
		if len(node.Children) == 0 {
			return sp + "RETURN"
		}
		return fmt.Sprintf("%sRETURN %s", sp, node.Child(0))

	case ast.Print:
		keyword := "??"
		if node.Value == true {
			keyword = "?"
		}
		args := make([]string, len(node.Children))
		for i, c := range node.Children {
			args[i] = c.String()
		}
		return strings.TrimRight(fmt.Sprintf("%s%s %s", sp, keyword, strings.Join(args, ", ")), " ")

	case ast.Assign:
		if value := node.Child(1); value != nil && value.Kind == ast.FunctionDecl {
			return fmt.Sprintf("%s%s = %s", sp, node.Child(0), strings.TrimLeft(RenderASTAsText(value, indent), " "))
		}
		return sp + node.String()

	default:
		return sp + node.String()
	}
}
