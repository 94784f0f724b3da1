package parser

import (
	"fmt"
	"salinas/internal/ast"
	"salinas/internal/dec"
	"salinas/internal/lexer"
	"salinas/internal/token"
	"salinas/internal/util"
	"strings"
)

var compareTokens = map[token.TokenType]bool{
	token.ASSIGN:       true,
	token.EQ:           true,
	token.EXACT_EQ:     true,
	token.NOT_EQ:       true,
	token.BANG_EQ:      true,
	token.HASH:         true,
	token.NOT_EXACT_EQ: true,
	token.LT:           true,
	token.LT_EQ:        true,
	token.GT:           true,
	token.GT_EQ:        true,
}

var dataTypes = map[string]bool{
	"NUMBER":   true,
	"STRING":   true,
	"BOOLEAN":  true,
	"DATE":     true,
	"ARRAY":    true,
	"FUNCTION": true,
}

// Error is a syntax error at a token.
type Error struct {
	Message string
	Token   token.Token
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%3d:%2d] %s", e.Token.Line, e.Token.Column, e.Message)
}

// ErrorList collects every syntax error found in a source.
type ErrorList []*Error

func (el ErrorList) Error() string {
	msgs := make([]string, len(el))
	for i, e := range el {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Render formats each error with the source lines leading up to it.
func (el ErrorList) Render(src string) string {
	var sb strings.Builder
	for i, e := range el {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("ParseError: " + e.Message + "\n")
		sb.WriteString(util.GetContextLines(src, e.Token.Line, e.Token.Column, "unexpected here"))
	}
	return sb.String()
}

type Parser struct {
	tokens   []token.Token
	pos      int
	src      string // source code here
	filename string
	errors   ErrorList

	curToken  token.Token
	peekToken token.Token
}

func New(filename, source string) *Parser {
	p := &Parser{
		tokens:   lexer.Tokenize(source),
		src:      source,
		filename: filename,
	}
	p.seek(0)
	return p
}

// Parse parses source into a script tree.
func Parse(filename, source string) (*ast.Node, error) {
	return New(filename, source).ParseScript()
}

func (p *Parser) seek(pos int) {
	p.pos = pos
	p.curToken = p.tokens[min(pos, len(p.tokens)-1)]
	p.peekToken = p.tokens[min(pos+1, len(p.tokens)-1)]
}

func (p *Parser) nextToken() {
	p.seek(p.pos + 1)
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) curTokenIsAny(types ...token.TokenType) bool {
	for _, t := range types {
		if p.curToken.Type == t {
			return true
		}
	}
	return false
}

func (p *Parser) addError(tok token.Token, message string, args ...interface{}) {
	p.errors = append(p.errors, &Error{Message: fmt.Sprintf(message, args...), Token: tok})
}

// expect consumes the current token when it has type t.
func (p *Parser) expect(t token.TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.addError(p.curToken, "expected %s, got %s instead", describe(t), describeToken(p.curToken))
	return false
}

func describe(t token.TokenType) string {
	switch t {
	case token.NEWLINE:
		return "end of statement"
	case token.EOF:
		return "end of input"
	}
	return "'" + strings.ToLower(string(t)) + "'"
}

func describeToken(tok token.Token) string {
	switch tok.Type {
	case token.NEWLINE, token.EOF:
		return describe(tok.Type)
	case token.ILLEGAL:
		return fmt.Sprintf("illegal token '%s'", tok.Literal)
	}
	return "'" + tok.Literal + "'"
}

func (p *Parser) Errors() ErrorList {
	return p.errors
}

// ParseScript parses the whole source. The returned error is an ErrorList
// when the source has syntax errors.
func (p *Parser) ParseScript() (*ast.Node, error) {
	statements := p.parseStatements()
	if !p.curTokenIs(token.EOF) {
		p.addError(p.curToken, "unexpected %s", describeToken(p.curToken))
	}
	if len(p.errors) > 0 {
		return nil, p.errors
	}
	return ast.NewScript(p.filename, statements...), nil
}

// parseStatements parses statements until EOF or one of the terminators.
func (p *Parser) parseStatements(terminators ...token.TokenType) []*ast.Node {
	var statements []*ast.Node
	for {
		for p.curTokenIs(token.NEWLINE) {
			p.nextToken()
		}
		if p.curTokenIs(token.EOF) || p.curTokenIsAny(terminators...) {
			return statements
		}

		errorCount := len(p.errors)
		stmt := p.parseStatement()
		if len(p.errors) == errorCount && !p.curTokenIsAny(token.NEWLINE, token.EOF) {
			p.addError(p.curToken, "expected end of statement, got %s", describeToken(p.curToken))
		}
		if len(p.errors) > errorCount {
			p.synchronize()
			continue
		}
		statements = append(statements, stmt)
	}
}

// synchronize skips to the next statement separator after an error.
func (p *Parser) synchronize() {
	for !p.curTokenIsAny(token.NEWLINE, token.EOF) {
		p.nextToken()
	}
}

func (p *Parser) parseBlock(terminators ...token.TokenType) *ast.Node {
	tok := p.curToken
	return ast.New(ast.Block, tok, nil, p.parseStatements(terminators...)...)
}

func (p *Parser) parseStatement() *ast.Node {
	switch p.curToken.Type {
	case token.IF:
		return p.parseIfStatement()
	case token.DO:
		return p.parseDoStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.QUESTION, token.PRINT_NO_NEWLINE:
		return p.parsePrintStatement()
	case token.PUBLIC:
		return p.parsePublicStatement()
	case token.IDENT:
		if stmt, ok := p.tryParseAssignment(); ok {
			return stmt
		}
	}
	return p.parseExpression()
}

// tryParseAssignment parses `lvalue = expr` or `lvalue := expr`. When the
// statement turns out not to be an assignment the parser is rewound.
func (p *Parser) tryParseAssignment() (*ast.Node, bool) {
	start := p.pos
	errorCount := len(p.errors)

	lhs := p.parseLValue()
	if len(p.errors) == errorCount && lhs != nil && p.curTokenIsAny(token.ASSIGN, token.INLINE_ASSIGN) {
		tok := p.curToken
		p.nextToken()
		value := p.parseExpression()
		return ast.New(ast.Assign, tok, nil, lhs, value), true
	}

	p.errors = p.errors[:errorCount]
	p.seek(start)
	return nil, false
}

// parseLValue parses an identifier or array element with an optional type
// annotation.
func (p *Parser) parseLValue() *ast.Node {
	if !p.curTokenIs(token.IDENT) {
		p.addError(p.curToken, "expected identifier, got %s", describeToken(p.curToken))
		return nil
	}
	ident := ast.New(ast.Identifier, p.curToken, p.curToken.Literal)
	p.nextToken()

	target := ident
	if p.curTokenIs(token.LBRACKET) {
		target = ast.New(ast.ArrayAccess, ident.Token, nil, ident)
		p.parseArraySegments(target)
	}

	if p.curTokenIs(token.COLON) {
		target.Append(p.parseDataType())
	}
	return target
}

func (p *Parser) parsePublicStatement() *ast.Node {
	tok := p.curToken
	p.nextToken()

	stmt, ok := p.tryParseAssignment()
	if !ok {
		p.addError(p.curToken, "expected assignment after 'public'")
		return nil
	}
	stmt.Child(0).Append(ast.New(ast.Modifiers, tok, nil, ast.New(ast.Public, tok, nil)))
	return stmt
}

func (p *Parser) parseDataType() *ast.Node {
	p.nextToken() // ':'
	tok := p.curToken
	name := strings.ToUpper(tok.Literal)
	if !(p.curTokenIs(token.IDENT) || p.curTokenIs(token.FUNCTION)) || !dataTypes[name] {
		p.addError(tok, "unknown data type %s", describeToken(tok))
		return nil
	}
	p.nextToken()
	return ast.New(ast.DataType, tok, name)
}

func (p *Parser) parseIfStatement() *ast.Node {
	node := ast.New(ast.If, p.curToken, nil)

	for p.curTokenIsAny(token.IF, token.ELSEIF) {
		p.nextToken()
		node.Append(p.parseExpression())
		if !p.expect(token.NEWLINE) {
			return nil
		}
		node.Append(p.parseBlock(token.ELSEIF, token.ELSE, token.ENDIF))
	}

	if p.curTokenIs(token.ELSE) {
		p.nextToken()
		if !p.expect(token.NEWLINE) {
			return nil
		}
		node.Append(p.parseBlock(token.ENDIF))
	}

	if !p.expect(token.ENDIF) {
		return nil
	}
	return node
}

func (p *Parser) parseDoStatement() *ast.Node {
	tok := p.curToken
	p.nextToken()

	switch p.curToken.Type {
	case token.WHILE:
		p.nextToken()
		cond := p.parseExpression()
		if !p.expect(token.NEWLINE) {
			return nil
		}
		body := p.parseBlock(token.ENDDO)
		if !p.expect(token.ENDDO) {
			return nil
		}
		return ast.New(ast.While, tok, nil, cond, body)

	case token.CASE:
		p.nextToken()
		node := ast.New(ast.Case, tok, nil)
		for p.curTokenIs(token.NEWLINE) {
			p.nextToken()
		}
		for p.curTokenIs(token.CASE) {
			p.nextToken()
			node.Append(p.parseExpression())
			if !p.expect(token.NEWLINE) {
				return nil
			}
			node.Append(p.parseBlock(token.CASE, token.OTHERWISE, token.ENDCASE))
		}
		if p.curTokenIs(token.OTHERWISE) {
			p.nextToken()
			if !p.expect(token.NEWLINE) {
				return nil
			}
			node.Append(p.parseBlock(token.ENDCASE))
		}
		if !p.expect(token.ENDCASE) {
			return nil
		}
		return node
	}

	p.addError(p.curToken, "expected 'while' or 'case' after 'do', got %s", describeToken(p.curToken))
	return nil
}

func (p *Parser) parseForStatement() *ast.Node {
	node := ast.New(ast.For, p.curToken, nil)
	p.nextToken()

	if !p.curTokenIs(token.IDENT) {
		p.addError(p.curToken, "expected loop variable, got %s", describeToken(p.curToken))
		return nil
	}
	node.Append(ast.New(ast.Identifier, p.curToken, p.curToken.Literal))
	p.nextToken()

	if !p.curTokenIsAny(token.ASSIGN, token.INLINE_ASSIGN) {
		p.addError(p.curToken, "expected '=' after loop variable, got %s", describeToken(p.curToken))
		return nil
	}
	p.nextToken()
	node.Append(p.parseExpression())

	if !p.expect(token.TO) {
		return nil
	}
	node.Append(p.parseExpression())

	if p.curTokenIs(token.STEP) {
		p.nextToken()
		node.Append(p.parseExpression())
	}
	if !p.expect(token.NEWLINE) {
		return nil
	}

	node.Append(p.parseBlock(token.NEXT))
	if !p.expect(token.NEXT) {
		return nil
	}
	if p.curTokenIs(token.IDENT) {
		p.nextToken()
	}
	return node
}

func (p *Parser) parseReturnStatement() *ast.Node {
	node := ast.New(ast.Return, p.curToken, nil)
	p.nextToken()
	if !p.atStatementEnd() {
		node.Append(p.parseExpression())
	}
	return node
}

func (p *Parser) parsePrintStatement() *ast.Node {
	node := ast.New(ast.Print, p.curToken, p.curTokenIs(token.QUESTION))
	p.nextToken()
	if !p.atStatementEnd() {
		node.Append(p.parseExpressionList()...)
	}
	return node
}

func (p *Parser) atStatementEnd() bool {
	return p.curTokenIsAny(token.NEWLINE, token.EOF, token.ENDIF, token.ENDDO, token.ENDCASE, token.NEXT, token.ENDFUNC)
}

func (p *Parser) parseExpressionList() []*ast.Node {
	list := []*ast.Node{p.parseExpression()}
	for p.curTokenIs(token.COMMA) {
		p.nextToken()
		list = append(list, p.parseExpression())
	}
	return list
}

// parseExpression parses an expression, including an inline `lvalue := expr`
// assignment.
func (p *Parser) parseExpression() *ast.Node {
	left := p.parseOr()
	if left == nil || !p.curTokenIs(token.INLINE_ASSIGN) {
		return left
	}
	if left.Kind != ast.Identifier && left.Kind != ast.ArrayAccess {
		p.addError(p.curToken, "cannot assign to %s", left.Kind)
		return left
	}
	tok := p.curToken
	p.nextToken()
	return ast.New(ast.Assign, tok, nil, left, p.parseExpression())
}

func (p *Parser) parseOr() *ast.Node {
	return p.parseLogical(ast.Or, token.OR, p.parseAnd)
}

func (p *Parser) parseAnd() *ast.Node {
	return p.parseLogical(ast.And, token.AND, p.parseNot)
}

func (p *Parser) parseLogical(kind ast.Kind, op token.TokenType, operand func() *ast.Node) *ast.Node {
	first := operand()
	if !p.curTokenIs(op) {
		return first
	}
	node := ast.New(kind, first.Token, nil, first)
	for p.curTokenIs(op) {
		p.nextToken()
		node.Append(operand())
	}
	return node
}

func (p *Parser) parseNot() *ast.Node {
	if p.curTokenIsAny(token.NOT, token.BANG) {
		tok := p.curToken
		p.nextToken()
		return ast.New(ast.Not, tok, nil, p.parseNot())
	}
	return p.parseCompare()
}

func (p *Parser) parseCompare() *ast.Node {
	first := p.parseContains()
	if !compareTokens[p.curToken.Type] {
		return first
	}
	node := ast.New(ast.Compare, first.Token, nil, first)
	var ops []string
	for compareTokens[p.curToken.Type] {
		ops = append(ops, string(p.curToken.Type))
		p.nextToken()
		node.Append(p.parseContains())
	}
	node.Value = ops
	return node
}

func (p *Parser) parseContains() *ast.Node {
	first := p.parseAdditive()
	if !p.curTokenIs(token.DOLLAR) {
		return first
	}
	node := ast.New(ast.Contains, first.Token, nil, first)
	for p.curTokenIs(token.DOLLAR) {
		p.nextToken()
		node.Append(p.parseAdditive())
	}
	return node
}

func (p *Parser) parseAdditive() *ast.Node {
	return p.parseChain(ast.Additive, p.parseMultiplicative, token.PLUS, token.MINUS)
}

func (p *Parser) parseMultiplicative() *ast.Node {
	return p.parseChain(ast.Multiplicative, p.parseExponent, token.ASTERISK, token.SLASH, token.PERCENT)
}

func (p *Parser) parseExponent() *ast.Node {
	return p.parseChain(ast.Multiplicative, p.parseUnary, token.POWER, token.CARET)
}

// parseChain parses operand {op operand} into a single node holding the
// operators in order.
func (p *Parser) parseChain(kind ast.Kind, operand func() *ast.Node, ops ...token.TokenType) *ast.Node {
	first := operand()
	if !p.curTokenIsAny(ops...) {
		return first
	}
	node := ast.New(kind, first.Token, nil, first)
	var symbols []string
	for p.curTokenIsAny(ops...) {
		symbols = append(symbols, string(p.curToken.Type))
		p.nextToken()
		node.Append(operand())
	}
	node.Value = symbols
	return node
}

// parseUnary produces a single operand additive chain for a leading sign.
func (p *Parser) parseUnary() *ast.Node {
	if p.curTokenIsAny(token.MINUS, token.PLUS) {
		tok := p.curToken
		p.nextToken()
		return ast.New(ast.Additive, tok, []string{string(tok.Type)}, p.parseUnary())
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() *ast.Node {
	tok := p.curToken
	switch tok.Type {
	case token.NUMBER:
		p.nextToken()
		n, err := dec.ParseLiteral(tok.Literal)
		if err != nil {
			p.addError(tok, "%s", err.Error())
			return ast.New(ast.NumberLiteral, tok, dec.Zero)
		}
		return ast.New(ast.NumberLiteral, tok, n)
	case token.STRING:
		p.nextToken()
		return ast.New(ast.StringLiteral, tok, tok.Literal)
	case token.DATE:
		p.nextToken()
		return ast.New(ast.DateLiteral, tok, tok.Literal)
	case token.TRUE, token.FALSE:
		p.nextToken()
		return ast.New(ast.BooleanLiteral, tok, tok.Type == token.TRUE)
	case token.NULL:
		p.nextToken()
		return ast.New(ast.NullLiteral, tok, nil)
	case token.LPAREN:
		p.nextToken()
		expr := p.parseExpression()
		p.expect(token.RPAREN)
		return expr
	case token.LBRACE:
		return p.parseArrayLiteral()
	case token.FUNCTION:
		return p.parseFunctionDeclaration()
	case token.IDENT:
		return p.parseIdentifierExpression()
	}

	p.addError(tok, "unexpected %s", describeToken(tok))
	p.nextToken()
	return ast.New(ast.NullLiteral, tok, nil)
}

func (p *Parser) parseArrayLiteral() *ast.Node {
	node := ast.New(ast.ArrayLiteral, p.curToken, nil)
	p.nextToken()
	if p.curTokenIs(token.RBRACE) {
		p.nextToken()
		return node
	}
	node.Append(p.parseExpressionList()...)
	p.expect(token.RBRACE)
	return node
}

// parseIdentifierExpression parses a variable reference, a function call or
// an array access.
func (p *Parser) parseIdentifierExpression() *ast.Node {
	ident := ast.New(ast.Identifier, p.curToken, p.curToken.Literal)
	p.nextToken()

	switch p.curToken.Type {
	case token.LPAREN:
		node := ast.New(ast.FunctionCall, ident.Token, nil, ident)
		for p.curTokenIs(token.LPAREN) {
			segment := ast.New(ast.ArgumentSegment, p.curToken, nil)
			p.nextToken()
			if !p.curTokenIs(token.RPAREN) {
				segment.Append(p.parseExpressionList()...)
			}
			p.expect(token.RPAREN)
			node.Append(segment)
		}
		return node
	case token.LBRACKET:
		node := ast.New(ast.ArrayAccess, ident.Token, nil, ident)
		p.parseArraySegments(node)
		return node
	case token.COLON:
		if dt := p.parseDataType(); dt != nil {
			ident.Append(dt)
		}
	}
	return ident
}

// parseArraySegments appends one segment per index, so a[1, 2] and a[1][2]
// produce the same children.
func (p *Parser) parseArraySegments(node *ast.Node) {
	for p.curTokenIs(token.LBRACKET) {
		p.nextToken()
		for {
			tok := p.curToken
			node.Append(ast.New(ast.ArraySegment, tok, nil, p.parseExpression()))
			if !p.curTokenIs(token.COMMA) {
				break
			}
			p.nextToken()
		}
		if !p.expect(token.RBRACKET) {
			return
		}
	}
}

func (p *Parser) parseFunctionDeclaration() *ast.Node {
	node := ast.New(ast.FunctionDecl, p.curToken, "")
	p.nextToken()

	if p.curTokenIs(token.IDENT) {
		node.Value = p.curToken.Literal
		p.nextToken()
	}

	if p.curTokenIs(token.LPAREN) {
		p.nextToken()
		for !p.curTokenIs(token.RPAREN) {
			param := p.parseParameter()
			if param == nil {
				return node
			}
			node.Append(param)
			if !p.curTokenIs(token.COMMA) {
				break
			}
			p.nextToken()
		}
		if !p.expect(token.RPAREN) {
			return node
		}
	}

	if !p.expect(token.NEWLINE) {
		return node
	}
	node.Append(p.parseBlock(token.ENDFUNC))
	p.expect(token.ENDFUNC)
	return node
}

func (p *Parser) parseParameter() *ast.Node {
	if !p.curTokenIs(token.IDENT) {
		p.addError(p.curToken, "expected parameter name, got %s", describeToken(p.curToken))
		return nil
	}
	param := ast.New(ast.Parameter, p.curToken, p.curToken.Literal)
	p.nextToken()

	if p.curTokenIs(token.COLON) {
		param.Append(p.parseDataType())
	}
	if p.curTokenIsAny(token.ASSIGN, token.INLINE_ASSIGN) {
		p.nextToken()
		param.Append(p.parseExpression())
	}
	return param
}
