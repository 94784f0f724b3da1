package lexer

import (
	"salinas/internal/token"
	"strings"
	"unicode"
	"unicode/utf8"
)

type Lexer struct {
	input        string
	position     int  // current byte position in input (points to start of current rune)
	readPosition int  // next byte position in input (start of next rune)
	ch           rune // current rune under examination; 0 means EOF
	line         int  // line of ch
	column       int  // column of ch
	lineStart    bool // only whitespace seen since the last line break
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, lineStart: true}
	l.readChar()
	return l
}

// Tokenize reads every token up to and including EOF.
func Tokenize(input string) []token.Token {
	l := New(input)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens
		}
	}
}

func (l *Lexer) NextToken() token.Token {
	var tok token.Token

	if illegal, ok := l.skipWhitespace(); !ok {
		return illegal
	}

	start := l.mark()
	l.lineStart = false

	switch l.ch {
	case 0:
		return start.with(token.EOF, "")
	case '\n':
		tok = start.with(token.NEWLINE, "\n")
		l.lineStart = true
	case ';':
		if l.peekChar() == ';' {
			l.readChar()
			tok = start.with(token.NEWLINE, ";;")
		} else {
			// line continuation: the statement carries on after the line break
			l.readChar()
			if illegal, ok := l.skipContinuation(start); !ok {
				return illegal
			}
			return l.NextToken()
		}
	case '=':
		if l.peekChar() == '=' && l.peekTwoChars() == '=' {
			tok = l.readOperator(start, token.EXACT_EQ, 3)
		} else {
			tok = l.handleCompoundToken(start, token.ASSIGN, '=', token.EQ)
		}
	case '!':
		if l.peekChar() == '=' && l.peekTwoChars() == '=' {
			tok = l.readOperator(start, token.NOT_EXACT_EQ, 3)
		} else {
			tok = l.handleCompoundToken(start, token.BANG, '=', token.BANG_EQ)
		}
	case ':':
		tok = l.handleCompoundToken(start, token.COLON, '=', token.INLINE_ASSIGN)
	case '<':
		tok = l.handleCompoundToken2(start, token.LT, '=', token.LT_EQ, '>', token.NOT_EQ)
	case '>':
		tok = l.handleCompoundToken(start, token.GT, '=', token.GT_EQ)
	case '*':
		tok = l.handleCompoundToken(start, token.ASTERISK, '*', token.POWER)
	case '?':
		tok = l.handleCompoundToken(start, token.QUESTION, '?', token.PRINT_NO_NEWLINE)
	case '#':
		tok = start.with(token.HASH, "#")
	case '+':
		tok = start.with(token.PLUS, "+")
	case '-':
		tok = start.with(token.MINUS, "-")
	case '/':
		tok = start.with(token.SLASH, "/")
	case '%':
		tok = start.with(token.PERCENT, "%")
	case '^':
		tok = start.with(token.CARET, "^")
	case '$':
		tok = start.with(token.DOLLAR, "$")
	case ',':
		tok = start.with(token.COMMA, ",")
	case '(':
		tok = start.with(token.LPAREN, "(")
	case ')':
		tok = start.with(token.RPAREN, ")")
	case '[':
		tok = start.with(token.LBRACKET, "[")
	case ']':
		tok = start.with(token.RBRACKET, "]")
	case '{':
		if l.peekChar() == '^' {
			return l.readDate(start)
		}
		tok = start.with(token.LBRACE, "{")
	case '}':
		tok = start.with(token.RBRACE, "}")
	case '"', '\'':
		return l.readString(start)
	case '.':
		if isDigit(l.peekChar()) {
			return start.with(token.NUMBER, l.readNumber())
		}
		return l.readDotted(start)
	default:
		if isLetter(l.ch) {
			ident := l.readIdentifier()
			return start.with(token.LookupIdent(ident), ident)
		} else if isDigit(l.ch) {
			return start.with(token.NUMBER, l.readNumber())
		}
		tok = start.with(token.ILLEGAL, string(l.ch))
	}

	l.readChar()
	return tok
}

type mark struct {
	position, line, column int
}

func (l *Lexer) mark() mark {
	return mark{position: l.position, line: l.line, column: l.column}
}

func (m mark) with(t token.TokenType, literal string) token.Token {
	return token.Token{Type: t, Literal: literal, Position: m.position, Line: m.line, Column: m.column}
}

// handleCompoundToken leaves the lexer on the last rune of the token.
func (l *Lexer) handleCompoundToken(start mark, t token.TokenType, ch1 rune, t1 token.TokenType) token.Token {
	if l.peekChar() == ch1 {
		first := l.ch
		l.readChar()
		return start.with(t1, string(first)+string(l.ch))
	}
	return start.with(t, string(l.ch))
}

func (l *Lexer) handleCompoundToken2(start mark, t token.TokenType, ch1 rune, t1 token.TokenType, ch2 rune, t2 token.TokenType) token.Token {
	peek := l.peekChar()
	if peek == ch1 {
		return l.handleCompoundToken(start, t, ch1, t1)
	} else if peek == ch2 {
		return l.handleCompoundToken(start, t, ch2, t2)
	}
	return start.with(t, string(l.ch))
}

func (l *Lexer) readOperator(start mark, t token.TokenType, width int) token.Token {
	begin := l.position
	for i := 1; i < width; i++ {
		l.readChar()
	}
	return start.with(t, l.input[begin:l.readPosition])
}

// skipWhitespace skips blanks and comments. A comment that never terminates
// yields an ILLEGAL token.
func (l *Lexer) skipWhitespace() (token.Token, bool) {
	for {
		switch l.ch {
		case ' ', '\t', '\r':
			l.readChar()
		case '*':
			if !l.lineStart || l.peekChar() == '*' {
				return token.Token{}, true
			}
			l.skipToLineEnd()
		case '&':
			if l.peekChar() != '&' {
				return token.Token{}, true
			}
			l.skipToLineEnd()
		case '/':
			switch l.peekChar() {
			case '/':
				l.skipToLineEnd()
			case '*':
				start := l.mark()
				if !l.skipBlockComment() {
					return start.with(token.ILLEGAL, "/*"), false
				}
			default:
				return token.Token{}, true
			}
		default:
			return token.Token{}, true
		}
	}
}

// skipContinuation consumes everything after a single ';' up to and
// including the line break. Only blanks and comments may follow the ';'.
func (l *Lexer) skipContinuation(start mark) (token.Token, bool) {
	l.lineStart = false
	if illegal, ok := l.skipWhitespace(); !ok {
		return illegal, false
	}
	switch l.ch {
	case '\n':
		l.readChar()
		return token.Token{}, true
	case 0:
		return token.Token{}, true
	}
	return start.with(token.ILLEGAL, ";"), false
}

func (l *Lexer) skipToLineEnd() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

func (l *Lexer) skipBlockComment() bool {
	l.readChar() // '/'
	l.readChar() // '*'
	for l.ch != 0 {
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar()
			l.readChar()
			return true
		}
		l.readChar()
	}
	return false
}

// readChar advances by one UTF-8 rune, updating byte positions
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		l.column++
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += size
	l.column++
}

// peekChar returns the next rune without advancing; returns 0 at EOF
func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

// peekTwoChars returns the rune after next without advancing; returns 0 if unavailable
func (l *Lexer) peekTwoChars() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	idx := l.readPosition + size
	if idx >= len(l.input) {
		return 0
	}
	r2, _ := utf8.DecodeRuneInString(l.input[idx:])
	return r2
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readNumber returns the literal as written. Separator placement and
// radix prefixes are validated when the literal is decoded.
func (l *Lexer) readNumber() string {
	start := l.position
	if l.ch == '0' && strings.ContainsRune("xXbB", l.peekChar()) {
		l.readChar()
		l.readChar()
		for isHexDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
		return l.input[start:l.position]
	}
	for isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	if l.ch == '.' && (isDigit(l.peekChar()) || l.peekChar() == '_') {
		l.readChar()
		for isDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
	}
	return l.input[start:l.position]
}

func (l *Lexer) readString(start mark) token.Token {
	quote := l.ch
	l.readChar()
	begin := l.position
	for l.ch != quote {
		if l.ch == 0 || l.ch == '\n' {
			return start.with(token.ILLEGAL, l.input[start.position:l.position])
		}
		l.readChar()
	}
	literal := l.input[begin:l.position]
	l.readChar()
	return start.with(token.STRING, literal)
}

// readDate reads {^yyyy-mm-dd} and returns the text between '^' and '}'.
func (l *Lexer) readDate(start mark) token.Token {
	l.readChar() // '{'
	l.readChar() // '^'
	begin := l.position
	for l.ch != '}' {
		if l.ch == 0 || l.ch == '\n' {
			return start.with(token.ILLEGAL, l.input[start.position:l.position])
		}
		l.readChar()
	}
	literal := strings.TrimSpace(l.input[begin:l.position])
	l.readChar()
	return start.with(token.DATE, literal)
}

// readDotted reads .AND., .OR., .NOT., .T., .F., .Y. and .N.
func (l *Lexer) readDotted(start mark) token.Token {
	l.readChar() // '.'
	begin := l.position
	for isLetter(l.ch) {
		l.readChar()
	}
	word := l.input[begin:l.position]
	if l.ch != '.' {
		return start.with(token.ILLEGAL, "."+word)
	}
	l.readChar()
	if t, ok := token.LookupDotted(word); ok {
		return start.with(t, "."+word+".")
	}
	return start.with(token.ILLEGAL, "."+word+".")
}

// Unicode-aware helpers
func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.Is(unicode.Mn, ch) || unicode.Is(unicode.Mc, ch)
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}
