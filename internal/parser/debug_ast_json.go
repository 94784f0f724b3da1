package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"salinas/internal/ast"

	"github.com/shopspring/decimal"
)

// WalkAST recursively traverses a tree and serializes it into a map structure.
// This output is designed for stability and tool-chain consumption.
func WalkAST(node *ast.Node) interface{} {
	if node == nil {
		return nil
	}

	result := map[string]interface{}{
		"type":   node.Kind.String(),
		"line":   node.Line(),
		"column": node.Column(),
	}
	if node.Token.Literal != "" {
		result["token"] = node.Token.Literal
	}

	switch v := node.Value.(type) {
	case nil:
	case decimal.Decimal:
		result["value"] = v.String()
	case []string:
		ops := make([]interface{}, len(v))
		for i, op := range v {
			ops[i] = op
		}
		result["operators"] = ops
	default:
		result["value"] = v
	}

	if len(node.Children) > 0 {
		children := make([]interface{}, len(node.Children))
		for i, c := range node.Children {
			children[i] = WalkAST(c)
		}
		result["children"] = children
	}
	return result
}

func RenderASTAsJSON(node *ast.Node) (string, error) {
	astMap := WalkAST(node)
	buf := new(bytes.Buffer)
	encoder := json.NewEncoder(buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(astMap); err != nil {
		return "", fmt.Errorf("failed to encode JSON: %v", err)
	}
	return buf.String(), nil
}
