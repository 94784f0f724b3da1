package ast

import (
	"bytes"
	"fmt"
	"salinas/internal/token"
	"strings"
)

// Kind identifies the construct a Node represents.
type Kind int

const (
	Script Kind = iota
	Block
	Assign
	Identifier
	DataType
	Modifiers
	Public
	ArrayAccess
	ArraySegment
	ArrayLiteral
	FunctionCall
	ArgumentSegment
	FunctionDecl
	Parameter
	Return
	If
	While
	Case
	For
	Print
	Or
	And
	Not
	Compare
	Contains
	Additive
	Multiplicative
	NumberLiteral
	StringLiteral
	BooleanLiteral
	NullLiteral
	DateLiteral
)

var kindNames = [...]string{
	Script:          "Script",
	Block:           "Block",
	Assign:          "Assign",
	Identifier:      "Identifier",
	DataType:        "DataType",
	Modifiers:       "Modifiers",
	Public:          "Public",
	ArrayAccess:     "ArrayAccess",
	ArraySegment:    "ArraySegment",
	ArrayLiteral:    "ArrayLiteral",
	FunctionCall:    "FunctionCall",
	ArgumentSegment: "ArgumentSegment",
	FunctionDecl:    "FunctionDecl",
	Parameter:       "Parameter",
	Return:          "Return",
	If:              "If",
	While:           "While",
	Case:            "Case",
	For:             "For",
	Print:           "Print",
	Or:              "Or",
	And:             "And",
	Not:             "Not",
	Compare:         "Compare",
	Contains:        "Contains",
	Additive:        "Additive",
	Multiplicative:  "Multiplicative",
	NumberLiteral:   "NumberLiteral",
	StringLiteral:   "StringLiteral",
	BooleanLiteral:  "BooleanLiteral",
	NullLiteral:     "NullLiteral",
	DateLiteral:     "DateLiteral",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsVariableHolder reports whether nodes of this kind own a scope.
func (k Kind) IsVariableHolder() bool {
	switch k {
	case Script, For, If, While, Case, FunctionDecl:
		return true
	}
	return false
}

// Node is a single element of the syntax tree.
//
// Value carries the kind specific payload:
//
//	Identifier, Parameter, FunctionDecl  name (string, "" for anonymous functions)
//	DataType                             type name, upper case (string)
//	NumberLiteral                        decimal.Decimal, or the literal text
//	StringLiteral, DateLiteral           text (string)
//	BooleanLiteral                       bool
//	Additive, Multiplicative, Compare    operators ([]string)
//	Print                                true when a newline follows the values
//
// Children keep source order. The parent link is maintained by New and Append.
type Node struct {
	Kind     Kind
	Token    token.Token
	Value    any
	Children []*Node

	parent   *Node
	filename string
}

func New(kind Kind, tok token.Token, value any, children ...*Node) *Node {
	n := &Node{Kind: kind, Token: tok, Value: value}
	n.Append(children...)
	return n
}

// NewScript creates the root of a tree parsed from filename.
func NewScript(filename string, statements ...*Node) *Node {
	n := New(Script, token.Token{Line: 1, Column: 1}, nil, statements...)
	n.filename = filename
	return n
}

func (n *Node) Append(children ...*Node) {
	for _, c := range children {
		if c == nil {
			continue
		}
		c.parent = n
		n.Children = append(n.Children, c)
	}
}

func (n *Node) Parent() *Node { return n.parent }

func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// ChildOfKind returns the first direct child of the given kind.
func (n *Node) ChildOfKind(kind Kind) *Node {
	for _, c := range n.Children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

func (n *Node) Line() int   { return n.Token.Line }
func (n *Node) Column() int { return n.Token.Column }

func (n *Node) Root() *Node {
	root := n
	for root.parent != nil {
		root = root.parent
	}
	return root
}

func (n *Node) Filename() string {
	return n.Root().filename
}

// FirstVariableHolder returns the nearest node, starting with n itself, that
// owns a scope.
func (n *Node) FirstVariableHolder() *Node {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.Kind.IsVariableHolder() {
			return cur
		}
	}
	return nil
}

func (n *Node) Name() string {
	s, _ := n.Value.(string)
	return s
}

func (n *Node) Operators() []string {
	ops, _ := n.Value.([]string)
	return ops
}

// Walk visits n and all of its descendants depth first. Returning false from
// fn skips the children of that node.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// String renders an expression back to source-like text.
func (n *Node) String() string {
	var out bytes.Buffer
	n.write(&out)
	return out.String()
}

func (n *Node) write(out *bytes.Buffer) {
	switch n.Kind {
	case Identifier, Parameter:
		out.WriteString(n.Name())
		for _, c := range n.Children {
			switch c.Kind {
			case DataType:
				out.WriteString(":" + strings.ToLower(c.Name()))
			case Modifiers:
			default:
				out.WriteString(" = ")
				c.write(out)
			}
		}
	case NumberLiteral:
		out.WriteString(fmt.Sprint(n.Value))
	case StringLiteral:
		out.WriteString("'" + n.Name() + "'")
	case DateLiteral:
		out.WriteString("{^" + n.Name() + "}")
	case BooleanLiteral:
		if n.Value == true {
			out.WriteString(".T.")
		} else {
			out.WriteString(".F.")
		}
	case NullLiteral:
		out.WriteString("NULL")
	case Additive, Multiplicative, Compare:
		ops := n.Operators()
		out.WriteString("(")
		if len(n.Children) == 1 && len(ops) == 1 {
			out.WriteString(ops[0])
			n.Children[0].write(out)
		} else {
			for i, c := range n.Children {
				if i > 0 && i-1 < len(ops) {
					out.WriteString(" " + ops[i-1] + " ")
				}
				c.write(out)
			}
		}
		out.WriteString(")")
	case Or, And, Contains:
		sep := map[Kind]string{Or: " .OR. ", And: " .AND. ", Contains: " $ "}[n.Kind]
		out.WriteString("(")
		for i, c := range n.Children {
			if i > 0 {
				out.WriteString(sep)
			}
			c.write(out)
		}
		out.WriteString(")")
	case Not:
		out.WriteString("(.NOT. ")
		n.Children[0].write(out)
		out.WriteString(")")
	case ArrayLiteral:
		out.WriteString("{")
		writeList(out, n.Children)
		out.WriteString("}")
	case ArrayAccess:
		for _, c := range n.Children {
			switch c.Kind {
			case ArraySegment:
				out.WriteString("[")
				writeList(out, c.Children)
				out.WriteString("]")
			case Identifier:
				c.write(out)
			}
		}
	case FunctionCall:
		for _, c := range n.Children {
			if c.Kind == ArgumentSegment {
				out.WriteString("(")
				writeList(out, c.Children)
				out.WriteString(")")
			} else {
				c.write(out)
			}
		}
	case Assign:
		if n.Child(0) != nil {
			if n.Child(0).ChildOfKind(Modifiers) != nil {
				out.WriteString("PUBLIC ")
			}
			n.Child(0).write(out)
		}
		out.WriteString(" = ")
		if n.Child(1) != nil {
			n.Child(1).write(out)
		}
	case FunctionDecl:
		out.WriteString("FUNCTION")
		if n.Name() != "" {
			out.WriteString(" " + n.Name())
		}
		var params []*Node
		for _, c := range n.Children {
			if c.Kind == Parameter {
				params = append(params, c)
			}
		}
		out.WriteString("(")
		writeList(out, params)
		out.WriteString(")")
	default:
		out.WriteString(n.Kind.String())
	}
}

func writeList(out *bytes.Buffer, nodes []*Node) {
	for i, c := range nodes {
		if i > 0 {
			out.WriteString(", ")
		}
		c.write(out)
	}
}
