package parser

import (
	"errors"
	"salinas/internal/ast"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func parse(t *testing.T, input string) *ast.Node {
	t.Helper()
	script, err := Parse("test.prg", input)
	if err != nil {
		t.Fatalf("parse error for %q:\n%v", input, err)
	}
	return script
}

func parseExpr(t *testing.T, input string) *ast.Node {
	t.Helper()
	script := parse(t, input)
	if len(script.Children) != 1 {
		t.Fatalf("expected 1 statement for %q, got %d", input, len(script.Children))
	}
	return script.Children[0]
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"1 - 2 - 3", "(1 - 2 - 3)"},
		{"2 ** 3 * 4", "((2 ** 3) * 4)"},
		{"2 ^ 3 ^ 2", "(2 ^ 3 ^ 2)"},
		{"-a + 1", "((-a) + 1)"},
		{"--a", "(-(-a))"},
		{"1 = 2 <> 5", "(1 = 2 <> 5)"},
		{"a < b .and. c > d", "((a < b) .AND. (c > d))"},
		{"a .or. b .and. c", "(a .OR. (b .AND. c))"},
		{"not a = b", "(.NOT. (a = b))"},
		{"!a", "(.NOT. a)"},
		{"'a' $ 'abc' = .t.", "(('a' $ 'abc') = .T.)"},
		{"'a' + 'b' $ 'xab'", "(('a' + 'b') $ 'xab')"},
		{"f(1, 2)(3)", "f(1, 2)(3)"},
		{"a[1][2]", "a[1][2]"},
		{"{1, 'two', {3}}", "{1, 'two', {3}}"},
		{"{}", "{}"},
		{"x := y := 3", "x = y = 3"},
	}

	for i, tt := range tests {
		got := parseExpr(t, tt.input).String()
		if got != tt.expected {
			t.Errorf("tests[%d] - %q: expected %q, got %q", i, tt.input, tt.expected, got)
		}
	}
}

func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"42", "42"},
		{"3.25", "3.25"},
		{"0xFF", "255"},
		{"0b1010", "10"},
		{"1_000_000", "1000000"},
	}

	for i, tt := range tests {
		node := parseExpr(t, tt.input)
		if node.Kind != ast.NumberLiteral {
			t.Fatalf("tests[%d] - expected NumberLiteral, got %s", i, node.Kind)
		}
		d, ok := node.Value.(decimal.Decimal)
		if !ok {
			t.Fatalf("tests[%d] - expected decimal payload, got %T", i, node.Value)
		}
		if d.String() != tt.expected {
			t.Errorf("tests[%d] - expected %s, got %s", i, tt.expected, d.String())
		}
	}
}

func TestArrayAccessSegments(t *testing.T) {
	nested := parseExpr(t, "a[1][2]")
	flat := parseExpr(t, "a[1, 2]")

	if nested.String() != flat.String() {
		t.Fatalf("expected equal renderings, got %q and %q", nested, flat)
	}
	if len(nested.Children) != 3 || len(flat.Children) != 3 {
		t.Fatalf("expected identifier plus 2 segments, got %d and %d", len(nested.Children), len(flat.Children))
	}
	for i := 1; i < 3; i++ {
		if nested.Children[i].Kind != ast.ArraySegment || flat.Children[i].Kind != ast.ArraySegment {
			t.Errorf("child %d - expected ArraySegment", i)
		}
	}
}

func TestAssignments(t *testing.T) {
	tests := []struct {
		input    string
		lhsKind  ast.Kind
		expected string
	}{
		{"x = 5", ast.Identifier, "x = 5"},
		{"x := 5", ast.Identifier, "x = 5"},
		{"x:number = 5", ast.Identifier, "x:number = 5"},
		{"a[1] = 'q'", ast.ArrayAccess, "a[1] = 'q'"},
		{"a[1, 2] = .f.", ast.ArrayAccess, "a[1][2] = .F."},
		{"public g = 1", ast.Identifier, "PUBLIC g = 1"},
	}

	for i, tt := range tests {
		node := parseExpr(t, tt.input)
		if node.Kind != ast.Assign {
			t.Fatalf("tests[%d] - expected Assign, got %s", i, node.Kind)
		}
		if node.Child(0).Kind != tt.lhsKind {
			t.Errorf("tests[%d] - expected lhs %s, got %s", i, tt.lhsKind, node.Child(0).Kind)
		}
		if node.String() != tt.expected {
			t.Errorf("tests[%d] - expected %q, got %q", i, tt.expected, node.String())
		}
	}
}

func TestComparisonStatementIsNotAssignment(t *testing.T) {
	node := parseExpr(t, "x == 5")
	if node.Kind != ast.Compare {
		t.Fatalf("expected Compare, got %s", node.Kind)
	}
	if ops := node.Operators(); len(ops) != 1 || ops[0] != "==" {
		t.Errorf("unexpected operators %v", ops)
	}
}

func TestIfStatement(t *testing.T) {
	input := `if a > 1
  ? 'big'
elseif a > 0
  ? 'small'
else
  ? 'none'
endif`
	node := parseExpr(t, input)
	if node.Kind != ast.If {
		t.Fatalf("expected If, got %s", node.Kind)
	}
	if len(node.Children) != 5 {
		t.Fatalf("expected 5 children, got %d", len(node.Children))
	}
	kinds := []ast.Kind{ast.Compare, ast.Block, ast.Compare, ast.Block, ast.Block}
	for i, k := range kinds {
		if node.Children[i].Kind != k {
			t.Errorf("child %d - expected %s, got %s", i, k, node.Children[i].Kind)
		}
	}
}

func TestLoops(t *testing.T) {
	forNode := parseExpr(t, "for i = 1 to 10 step 2\n  x = i\nnext i")
	if forNode.Kind != ast.For || len(forNode.Children) != 5 {
		t.Fatalf("expected For with 5 children, got %s with %d", forNode.Kind, len(forNode.Children))
	}
	if forNode.Child(0).Name() != "i" || forNode.Child(4).Kind != ast.Block {
		t.Errorf("unexpected For layout: %v", forNode.Children)
	}

	noStep := parseExpr(t, "for i = 1 to 3;;endfor")
	if len(noStep.Children) != 4 {
		t.Errorf("expected 4 children without step, got %d", len(noStep.Children))
	}

	while := parseExpr(t, "do while x < 3\n  x = x + 1\nenddo")
	if while.Kind != ast.While || while.Child(1).Kind != ast.Block || len(while.Child(1).Children) != 1 {
		t.Errorf("unexpected While layout")
	}
}

func TestCaseStatement(t *testing.T) {
	input := `do case
  case x = 1
    y = 'one'
  case x = 2
    y = 'two'
  otherwise
    y = 'many'
endcase`
	node := parseExpr(t, input)
	if node.Kind != ast.Case {
		t.Fatalf("expected Case, got %s", node.Kind)
	}
	if len(node.Children) != 5 {
		t.Fatalf("expected 5 children, got %d", len(node.Children))
	}
}

func TestFunctionDeclaration(t *testing.T) {
	input := `function add(a:number, b = 2)
  return a + b
endfunc`
	node := parseExpr(t, input)
	if node.Kind != ast.FunctionDecl || node.Name() != "add" {
		t.Fatalf("expected FunctionDecl add, got %s %q", node.Kind, node.Name())
	}
	if node.String() != "FUNCTION add(a:number, b = 2)" {
		t.Errorf("unexpected rendering %q", node.String())
	}
	body := node.ChildOfKind(ast.Block)
	if body == nil || len(body.Children) != 1 || body.Child(0).Kind != ast.Return {
		t.Fatalf("unexpected body")
	}

	anon := parseExpr(t, "f = function(x);;return x * 2;;endfunc")
	if anon.Kind != ast.Assign || anon.Child(1).Kind != ast.FunctionDecl || anon.Child(1).Name() != "" {
		t.Errorf("expected assignment of an anonymous function, got %s", anon)
	}
}

func TestPrintStatement(t *testing.T) {
	line := parseExpr(t, "? 1, 'a'")
	if line.Kind != ast.Print || line.Value != true || len(line.Children) != 2 {
		t.Errorf("unexpected ? statement: %v %d", line.Value, len(line.Children))
	}
	inline := parseExpr(t, "?? 'x'")
	if inline.Value != false {
		t.Errorf("expected ?? to suppress the newline")
	}
	empty := parseExpr(t, "?")
	if len(empty.Children) != 0 {
		t.Errorf("expected bare ? to have no values")
	}
}

func TestParentLinksAndVariableHolders(t *testing.T) {
	script := parse(t, "function f(n)\n  if n > 0\n    x = n\n  endif\nendfunc")
	var assign *ast.Node
	ast.Walk(script, func(n *ast.Node) bool {
		if n.Kind == ast.Assign {
			assign = n
		}
		return true
	})
	if assign == nil {
		t.Fatal("assignment not found")
	}
	if holder := assign.FirstVariableHolder(); holder.Kind != ast.If {
		t.Errorf("expected If holder, got %s", holder.Kind)
	}
	if holder := assign.FirstVariableHolder().Parent().FirstVariableHolder(); holder.Kind != ast.FunctionDecl {
		t.Errorf("expected FunctionDecl holder, got %s", holder.Kind)
	}
	if assign.Filename() != "test.prg" {
		t.Errorf("expected filename test.prg, got %q", assign.Filename())
	}
	if assign.Line() != 3 {
		t.Errorf("expected line 3, got %d", assign.Line())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input   string
		message string
	}{
		{"if x\n? 1", "expected 'endif'"},
		{"x = (1 + 2", "expected ')'"},
		{"x = 1 2", "expected end of statement"},
		{"x = 0x", "invalid"},
		{"do x", "expected 'while' or 'case'"},
		{"x:widget = 1", "unknown data type"},
		{"public x", "expected assignment"},
	}

	for i, tt := range tests {
		_, err := Parse("bad.prg", tt.input)
		if err == nil {
			t.Errorf("tests[%d] - expected error for %q", i, tt.input)
			continue
		}
		var list ErrorList
		if !errors.As(err, &list) || len(list) == 0 {
			t.Errorf("tests[%d] - expected ErrorList, got %T", i, err)
			continue
		}
		if !strings.Contains(err.Error(), tt.message) {
			t.Errorf("tests[%d] - expected error containing %q, got %q", i, tt.message, err.Error())
		}
	}
}

func TestErrorRecoveryContinuesAfterBadStatement(t *testing.T) {
	_, err := Parse("bad.prg", "x = )\ny = 1 1\nz = 3")
	var list ErrorList
	if !errors.As(err, &list) {
		t.Fatalf("expected ErrorList, got %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(list), list)
	}
	if list[0].Token.Line != 1 || list[1].Token.Line != 2 {
		t.Errorf("unexpected error lines %d and %d", list[0].Token.Line, list[1].Token.Line)
	}
	if rendered := list.Render("x = )\ny = 1 1\nz = 3"); !strings.Contains(rendered, "^ unexpected here") {
		t.Errorf("expected rendered caret, got:\n%s", rendered)
	}
}

func TestDebugRenderers(t *testing.T) {
	script := parse(t, "for i = 1 to 2\n  ? i * 2\nnext")
	text := RenderASTAsText(script, 0)
	expected := "FOR i = 1 TO 2\n  ? (i * 2)\nNEXT"
	if text != expected {
		t.Errorf("expected:\n%s\ngot:\n%s", expected, text)
	}

	js, err := RenderASTAsJSON(script)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{`"type": "Script"`, `"type": "For"`, `"operators": [`, `"value": "2"`} {
		if !strings.Contains(js, want) {
			t.Errorf("expected JSON to contain %s", want)
		}
	}
}
