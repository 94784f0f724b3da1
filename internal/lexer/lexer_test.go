package lexer

import (
	"salinas/internal/token"
	"testing"
)

type expectedToken struct {
	expectedType    token.TokenType
	expectedLiteral string
}

func assertTokens(t *testing.T, input string, tests []expectedToken) {
	t.Helper()
	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q '%q', got=%q: '%q'",
				i, tt.expectedType, tt.expectedLiteral, tok.Type, tok.Literal)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextToken(t *testing.T) {
	input := `x := 5;;y:string = 'a' + "b"
if x == 5 .and. !(y # 3) .OR. .t.
a[1, 2] = {1, {^2001-01-01}}
? 8 ** 2 ^ 2 % 3 / 1 $ x
?? a === b !== c != d <> e <= f >= g < h > i
endif`

	assertTokens(t, input, []expectedToken{
		{token.IDENT, "x"},
		{token.INLINE_ASSIGN, ":="},
		{token.NUMBER, "5"},
		{token.NEWLINE, ";;"},
		{token.IDENT, "y"},
		{token.COLON, ":"},
		{token.IDENT, "string"},
		{token.ASSIGN, "="},
		{token.STRING, "a"},
		{token.PLUS, "+"},
		{token.STRING, "b"},
		{token.NEWLINE, "\n"},

		{token.IF, "if"},
		{token.IDENT, "x"},
		{token.EQ, "=="},
		{token.NUMBER, "5"},
		{token.AND, ".and."},
		{token.BANG, "!"},
		{token.LPAREN, "("},
		{token.IDENT, "y"},
		{token.HASH, "#"},
		{token.NUMBER, "3"},
		{token.RPAREN, ")"},
		{token.OR, ".OR."},
		{token.TRUE, ".t."},
		{token.NEWLINE, "\n"},

		{token.IDENT, "a"},
		{token.LBRACKET, "["},
		{token.NUMBER, "1"},
		{token.COMMA, ","},
		{token.NUMBER, "2"},
		{token.RBRACKET, "]"},
		{token.ASSIGN, "="},
		{token.LBRACE, "{"},
		{token.NUMBER, "1"},
		{token.COMMA, ","},
		{token.DATE, "2001-01-01"},
		{token.RBRACE, "}"},
		{token.NEWLINE, "\n"},

		{token.QUESTION, "?"},
		{token.NUMBER, "8"},
		{token.POWER, "**"},
		{token.NUMBER, "2"},
		{token.CARET, "^"},
		{token.NUMBER, "2"},
		{token.PERCENT, "%"},
		{token.NUMBER, "3"},
		{token.SLASH, "/"},
		{token.NUMBER, "1"},
		{token.DOLLAR, "$"},
		{token.IDENT, "x"},
		{token.NEWLINE, "\n"},

		{token.PRINT_NO_NEWLINE, "??"},
		{token.IDENT, "a"},
		{token.EXACT_EQ, "==="},
		{token.IDENT, "b"},
		{token.NOT_EXACT_EQ, "!=="},
		{token.IDENT, "c"},
		{token.BANG_EQ, "!="},
		{token.IDENT, "d"},
		{token.NOT_EQ, "<>"},
		{token.IDENT, "e"},
		{token.LT_EQ, "<="},
		{token.IDENT, "f"},
		{token.GT_EQ, ">="},
		{token.IDENT, "g"},
		{token.LT, "<"},
		{token.IDENT, "h"},
		{token.GT, ">"},
		{token.IDENT, "i"},
		{token.NEWLINE, "\n"},

		{token.ENDIF, "endif"},
		{token.EOF, ""},
	})
}

func TestKeywordsAreCaseInsensitive(t *testing.T) {
	input := `FUNCTION Foo ;;Return .F.;;EndFunction
Do While .N.;;EndDo
do case;;case null;;otherwise;;endcase
for i = 1 to 2 step 1;;EndFor`

	assertTokens(t, input, []expectedToken{
		{token.FUNCTION, "FUNCTION"},
		{token.IDENT, "Foo"},
		{token.NEWLINE, ";;"},
		{token.RETURN, "Return"},
		{token.FALSE, ".F."},
		{token.NEWLINE, ";;"},
		{token.ENDFUNC, "EndFunction"},
		{token.NEWLINE, "\n"},
		{token.DO, "Do"},
		{token.WHILE, "While"},
		{token.FALSE, ".N."},
		{token.NEWLINE, ";;"},
		{token.ENDDO, "EndDo"},
		{token.NEWLINE, "\n"},
		{token.DO, "do"},
		{token.CASE, "case"},
		{token.NEWLINE, ";;"},
		{token.CASE, "case"},
		{token.NULL, "null"},
		{token.NEWLINE, ";;"},
		{token.OTHERWISE, "otherwise"},
		{token.NEWLINE, ";;"},
		{token.ENDCASE, "endcase"},
		{token.NEWLINE, "\n"},
		{token.FOR, "for"},
		{token.IDENT, "i"},
		{token.ASSIGN, "="},
		{token.NUMBER, "1"},
		{token.TO, "to"},
		{token.NUMBER, "2"},
		{token.STEP, "step"},
		{token.NUMBER, "1"},
		{token.NEWLINE, ";;"},
		{token.NEXT, "EndFor"},
		{token.EOF, ""},
	})
}

func TestComments(t *testing.T) {
	input := `* whole line comment
a = 1 // trailing
b = 2 && trailing
/* block
comment */ c = a * b
`

	assertTokens(t, input, []expectedToken{
		{token.NEWLINE, "\n"},
		{token.IDENT, "a"},
		{token.ASSIGN, "="},
		{token.NUMBER, "1"},
		{token.NEWLINE, "\n"},
		{token.IDENT, "b"},
		{token.ASSIGN, "="},
		{token.NUMBER, "2"},
		{token.NEWLINE, "\n"},
		{token.IDENT, "c"},
		{token.ASSIGN, "="},
		{token.IDENT, "a"},
		{token.ASTERISK, "*"},
		{token.IDENT, "b"},
		{token.NEWLINE, "\n"},
		{token.EOF, ""},
	})
}

func TestLineContinuation(t *testing.T) {
	input := "_t = ;\n1;;_t"

	assertTokens(t, input, []expectedToken{
		{token.IDENT, "_t"},
		{token.ASSIGN, "="},
		{token.NUMBER, "1"},
		{token.NEWLINE, ";;"},
		{token.IDENT, "_t"},
		{token.EOF, ""},
	})
}

func TestNumberLiterals(t *testing.T) {
	input := "0xFF_FF 0b10_10 1_0.1_1 .5 1_0._1_1"

	assertTokens(t, input, []expectedToken{
		{token.NUMBER, "0xFF_FF"},
		{token.NUMBER, "0b10_10"},
		{token.NUMBER, "1_0.1_1"},
		{token.NUMBER, ".5"},
		{token.NUMBER, "1_0._1_1"},
		{token.EOF, ""},
	})
}

func TestIllegalTokens(t *testing.T) {
	tests := []struct {
		input   string
		literal string
	}{
		{"'unterminated", "'unterminated"},
		{"/* never closed", "/*"},
		{"a ; b", ";"},
		{".x.", ".x."},
		{"&", "&"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var tok token.Token
			for _, tok = range Tokenize(tt.input) {
				if tok.Type == token.ILLEGAL {
					break
				}
			}
			if tok.Type != token.ILLEGAL {
				t.Fatalf("expected ILLEGAL token, got %q: %q", tok.Type, tok.Literal)
			}
			if tok.Literal != tt.literal {
				t.Errorf("expected literal %q, got %q", tt.literal, tok.Literal)
			}
		})
	}
}

func TestTokenPositions(t *testing.T) {
	tokens := Tokenize("a = 1\n  bb = 22")

	expected := []struct {
		literal      string
		line, column int
	}{
		{"a", 1, 1},
		{"=", 1, 3},
		{"1", 1, 5},
		{"\n", 1, 6},
		{"bb", 2, 3},
		{"=", 2, 6},
		{"22", 2, 8},
	}

	for i, e := range expected {
		tok := tokens[i]
		if tok.Literal != e.literal || tok.Line != e.line || tok.Column != e.column {
			t.Errorf("tokens[%d] expected %q at %d:%d, got %q at %d:%d",
				i, e.literal, e.line, e.column, tok.Literal, tok.Line, tok.Column)
		}
	}
}
