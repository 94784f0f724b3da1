package token

import "strings"

type TokenType string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"
	NEWLINE = "NEWLINE" // end of line or ';;'

	// Identifiers + literals
	IDENT  = "IDENT"  // add, foobar, x, y, ...
	NUMBER = "NUMBER" // 1343456, 0xFF, 0b1010, 1_000.5
	STRING = "STRING" // "foobar", 'foobar', [foobar]
	DATE   = "DATE"   // {^2001-01-01}

	// Operators
	ASSIGN        = "="
	INLINE_ASSIGN = ":="
	PLUS          = "+"
	MINUS         = "-"
	BANG          = "!"
	ASTERISK      = "*"
	SLASH         = "/"
	PERCENT       = "%"
	POWER         = "**"
	CARET         = "^"
	DOLLAR        = "$"

	LT    = "<"
	LT_EQ = "<="
	GT    = ">"
	GT_EQ = ">="

	EQ           = "=="
	EXACT_EQ     = "==="
	NOT_EQ       = "<>"
	BANG_EQ      = "!="
	HASH         = "#"
	NOT_EXACT_EQ = "!=="

	// Delimiters
	COMMA            = ","
	COLON            = ":"
	QUESTION         = "?"
	PRINT_NO_NEWLINE = "??"

	LPAREN   = "("
	RPAREN   = ")"
	LBRACE   = "{"
	RBRACE   = "}"
	LBRACKET = "["
	RBRACKET = "]"

	// Keywords
	TRUE      = "TRUE"
	FALSE     = "FALSE"
	NULL      = "NULL"
	AND       = "AND"
	OR        = "OR"
	NOT       = "NOT"
	IF        = "IF"
	ELSEIF    = "ELSEIF"
	ELSE      = "ELSE"
	ENDIF     = "ENDIF"
	DO        = "DO"
	WHILE     = "WHILE"
	ENDDO     = "ENDDO"
	CASE      = "CASE"
	OTHERWISE = "OTHERWISE"
	ENDCASE   = "ENDCASE"
	FOR       = "FOR"
	TO        = "TO"
	STEP      = "STEP"
	NEXT      = "NEXT"
	FUNCTION  = "FUNCTION"
	ENDFUNC   = "ENDFUNC"
	RETURN    = "RETURN"
	PUBLIC    = "PUBLIC"
)

type Token struct {
	Type     TokenType
	Literal  string
	Position int // the src index of the token
	Line     int
	Column   int
}

var keywords = map[string]TokenType{
	// constants
	"true":  TRUE,
	"false": FALSE,
	"null":  NULL,

	// logical
	"and": AND,
	"or":  OR,
	"not": NOT,

	// flow control
	"if":        IF,
	"elseif":    ELSEIF,
	"else":      ELSE,
	"endif":     ENDIF,
	"do":        DO,
	"while":     WHILE,
	"enddo":     ENDDO,
	"case":      CASE,
	"otherwise": OTHERWISE,
	"endcase":   ENDCASE,
	"for":       FOR,
	"to":        TO,
	"step":      STEP,
	"next":      NEXT,
	"endfor":    NEXT,
	"return":    RETURN,

	// declarations
	"function":    FUNCTION,
	"endfunc":     ENDFUNC,
	"endfunction": ENDFUNC,
	"public":      PUBLIC,
}

// dotted operators and constants, e.g. .AND. or .T.
var dotted = map[string]TokenType{
	"and": AND,
	"or":  OR,
	"not": NOT,
	"t":   TRUE,
	"y":   TRUE,
	"f":   FALSE,
	"n":   FALSE,
}

// LookupIdent resolves keywords case-insensitively.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[strings.ToLower(ident)]; ok {
		return tok
	}
	return IDENT
}

// LookupDotted resolves the word between the dots of a dotted token.
func LookupDotted(word string) (TokenType, bool) {
	tok, ok := dotted[strings.ToLower(word)]
	return tok, ok
}
