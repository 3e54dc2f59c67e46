package zmanim

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parser builds an expression tree from a token stream. It performs no
// semantic checking: malformed syntax becomes BadExpr nodes and everything
// else is left for the validator.
//
// Precedence, tightest first: unary, multiplicative, additive, comparison,
// logical not, logical and, logical or.
type Parser struct {
	tokenizer Tokenizer
	buf       *Token
}

func NewParser(tokenizer Tokenizer) *Parser {
	return &Parser{
		tokenizer: tokenizer,
	}
}

// Parse tokenizes and parses a formula. Syntax problems surface as BadExpr
// nodes inside the returned tree.
func Parse(src string) Expr {
	p := NewParser(NewLexer(src))
	return p.Run()
}

func (p *Parser) Run() Expr {
	go p.tokenizer.Do()

	expr := p.expr()

	switch tok := p.peek(); tok.Typ {
	case TokenEOF:
		return expr
	case TokenError:
		return p.errorf(tok.Loc, "%s", tok.Value)
	default:
		return p.errorf(tok.Loc, "unexpected token after expression: '%s'", tok.Value)
	}
}

func (p *Parser) peek() Token {
	if p.buf == nil {
		temp := p.next()
		p.buf = &temp
	}

	return *p.buf
}

func (p *Parser) next() Token {
	if p.buf != nil {
		if !p.buf.isValid() {
			// If an invalid token is buffered, don't try to get more tokens
			return *p.buf
		}

		temp := p.buf
		p.buf = nil

		return *temp
	}

	tok := p.tokenizer.Get()
	if !tok.isValid() {
		// Keep Error and EOF buffered since no more valid tokens are expected
		p.buf = &tok
	}

	if tok.isComment() {
		return p.next()
	}

	return tok
}

func (p *Parser) check(typ TokenType) bool {
	return p.peek().Typ == typ
}

func (p *Parser) consume(typ TokenType) bool {
	return p.next().Typ == typ
}

func (p *Parser) errorf(l *Location, format string, args ...interface{}) Expr {
	bad := &BadExpr{Error: fmt.Sprintf(format, args...)}
	bad.location = l
	return bad
}

func (p *Parser) expr() Expr {
	if p.check(TokenIf) {
		return p.conditional()
	}

	return p.logicalOr()
}

func (p *Parser) logicalOr() Expr {
	lhs := p.logicalAnd()

	for p.check(TokenOr) {
		tok := p.next()
		rhs := p.logicalAnd()

		e := &LogicalExpr{Operation: LogicalOr, Op1: lhs, Op2: rhs}
		e.location = tok.Loc
		lhs = e
	}

	return lhs
}

func (p *Parser) logicalAnd() Expr {
	lhs := p.logicalNot()

	for p.check(TokenAnd) {
		tok := p.next()
		rhs := p.logicalNot()

		e := &LogicalExpr{Operation: LogicalAnd, Op1: lhs, Op2: rhs}
		e.location = tok.Loc
		lhs = e
	}

	return lhs
}

func (p *Parser) logicalNot() Expr {
	if p.check(TokenNot) {
		tok := p.next()

		e := &NotExpr{Operand: p.logicalNot()}
		e.location = tok.Loc
		return e
	}

	return p.comparison()
}

func (p *Parser) comparison() Expr {
	lhs := p.additive()

	switch tok := p.peek(); tok.Typ {
	case TokenGreater, TokenLess, TokenGreaterEqual, TokenLessEqual, TokenEquals, TokenNotEquals:
		p.next()
		rhs := p.additive()

		e := &CompareExpr{Operation: CompareOp(tok.Value), Op1: lhs, Op2: rhs}
		e.location = tok.Loc
		return e
	}

	return lhs
}

func (p *Parser) additive() Expr {
	lhs := p.multiplicative()

	for {
		if tok := p.peek(); tok.Typ == TokenPlus || tok.Typ == TokenMinus {
			p.next()
			rhs := p.multiplicative()

			e := &BinaryExpr{Operation: BinaryOp(tok.Value), Op1: lhs, Op2: rhs}
			e.location = tok.Loc
			lhs = e

			continue
		}

		return lhs
	}
}

func (p *Parser) multiplicative() Expr {
	lhs := p.unary()

	for {
		if tok := p.peek(); tok.Typ == TokenMulti || tok.Typ == TokenDiv {
			p.next()
			rhs := p.unary()

			e := &BinaryExpr{Operation: BinaryOp(tok.Value), Op1: lhs, Op2: rhs}
			e.location = tok.Loc
			lhs = e

			continue
		}

		return lhs
	}
}

func (p *Parser) unary() Expr {
	if p.check(TokenMinus) {
		tok := p.next()

		// Unary minus folds into the literal it negates
		switch operand := p.primary().(type) {
		case *NumberLit:
			operand.Value = -operand.Value
			return operand
		case *DurationLit:
			operand.Value = -operand.Value
			return operand
		default:
			return p.errorf(tok.Loc, "unary minus applies only to numbers and durations")
		}
	}

	return p.primary()
}

func (p *Parser) primary() Expr {
	switch tok := p.peek(); tok.Typ {
	case TokenOpenParentheses:
		return p.parenthesised()
	case TokenPrimitive:
		p.next()
		e := &PrimitiveExpr{Name: tok.Value}
		e.location = tok.Loc
		return e
	case TokenFunction:
		p.next()
		return p.call(tok)
	case TokenIdentifier:
		p.next()
		if p.check(TokenOpenParentheses) {
			// Unknown name called like a function: parse it generically and
			// let the validator report it
			return p.call(tok)
		}
		return p.errorf(tok.Loc, "unexpected identifier '%s'", tok.Value)
	case TokenReference:
		p.next()
		e := &ReferenceExpr{Key: tok.Value}
		e.location = tok.Loc
		return e
	case TokenDirection:
		p.next()
		e := &DirectionExpr{Name: tok.Value}
		e.location = tok.Loc
		return e
	case TokenBase:
		return p.base()
	case TokenConditionVar:
		p.next()
		e := &CondVarExpr{Name: tok.Value}
		e.location = tok.Loc
		return e
	case TokenIf:
		return p.conditional()
	}

	return p.literal()
}

func (p *Parser) parenthesised() Expr {
	if tok := p.next(); tok.Typ != TokenOpenParentheses {
		return p.errorf(tok.Loc, "expected opening parenthesis")
	}

	exp := p.expr()

	if tok := p.next(); tok.Typ != TokenCloseParentheses {
		return p.errorf(tok.Loc, "expected closing parenthesis")
	}

	return exp
}

// call parses the argument list of a function call. The shape is generic;
// per-function arity and parameter rules belong to the validator.
func (p *Parser) call(name Token) Expr {
	if !p.consume(TokenOpenParentheses) {
		return p.errorf(name.Loc, "expected '(' after '%s'", name.Value)
	}

	args, bad := p.argList(name)
	if bad != nil {
		return bad
	}

	e := &CallExpr{Name: name.Value, Args: args}
	e.location = name.Loc
	return e
}

func (p *Parser) argList(opener Token) ([]Expr, Expr) {
	var args []Expr
	for tok := p.peek(); tok.Typ != TokenCloseParentheses; tok = p.peek() {
		if !tok.isValid() {
			return nil, p.errorf(tok.Loc, "unclosed argument list for '%s'", opener.Value)
		}

		args = append(args, p.expr())

		if !p.check(TokenComma) {
			break
		}

		p.next() // Skip the comma
	}

	if tok := p.next(); tok.Typ != TokenCloseParentheses {
		return nil, p.errorf(tok.Loc, "expected ',' or ')' in arguments of '%s'", opener.Value)
	}

	return args, nil
}

func (p *Parser) base() Expr {
	tok := p.next()

	e := &BaseExpr{Name: tok.Value}
	e.location = tok.Loc

	if !e.IsCustom() {
		return e
	}

	if !p.consume(TokenOpenParentheses) {
		return p.errorf(tok.Loc, "expected '(' after 'custom'")
	}

	args, bad := p.argList(tok)
	if bad != nil {
		return bad
	}

	e.Custom = args
	return e
}

func (p *Parser) conditional() Expr {
	tok := p.next() // if keyword

	if !p.consume(TokenOpenParentheses) {
		return p.errorf(tok.Loc, "expected '(' after 'if'")
	}

	cond := p.expr()

	if !p.consume(TokenCloseParentheses) {
		return p.errorf(tok.Loc, "expected ')' after condition")
	}

	then := p.block()

	e := &ConditionalExpr{Cond: cond, Then: then}
	e.location = tok.Loc

	if p.check(TokenElse) {
		p.next()

		if p.check(TokenIf) {
			e.Else = p.conditional()
		} else {
			e.Else = p.block()
		}
	}

	return e
}

func (p *Parser) block() Expr {
	if tok := p.next(); tok.Typ != TokenOpenCurly {
		return p.errorf(tok.Loc, "expected '{'")
	}

	exp := p.expr()

	if tok := p.next(); tok.Typ != TokenCloseCurly {
		return p.errorf(tok.Loc, "expected '}'")
	}

	return exp
}

func (p *Parser) literal() Expr {
	switch tok := p.peek(); tok.Typ {
	case TokenNumber:
		p.next()
		val, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return p.errorf(tok.Loc, "invalid number '%s'", tok.Value)
		}
		e := &NumberLit{Value: val, Raw: tok.Value}
		e.location = tok.Loc
		return e

	case TokenDuration:
		return p.duration()

	case TokenClockTime:
		p.next()
		hour, minute, err := parseClockTime(tok.Value)
		if err != nil {
			return p.errorf(tok.Loc, "invalid clock time '%s'", tok.Value)
		}
		e := &ClockTimeLit{Hour: hour, Minute: minute, Raw: tok.Value}
		e.location = tok.Loc
		return e

	case TokenDateLiteral:
		p.next()
		day, month, err := parseDateLiteral(tok.Value)
		if err != nil {
			return p.errorf(tok.Loc, "invalid date literal '%s'", tok.Value)
		}
		e := &DateLit{Day: day, Month: month, Raw: tok.Value}
		e.location = tok.Loc
		return e

	case TokenString:
		p.next()
		e := &StringLit{Value: tok.Value}
		e.location = tok.Loc
		return e

	default:
		p.next() // Skip errored token
		if tok.Typ == TokenError {
			return p.errorf(tok.Loc, "%s", tok.Value)
		}
		return p.errorf(tok.Loc, "unexpected token '%s'", tok.Value)
	}
}

// duration parses one duration token and folds any directly following
// duration tokens into a single compound literal ("1h 30min").
func (p *Parser) duration() Expr {
	tok := p.next()

	total, err := parseDurationLexeme(tok.Value)
	if err != nil {
		return p.errorf(tok.Loc, "invalid duration '%s'", tok.Value)
	}
	raw := tok.Value

	for p.check(TokenDuration) {
		part := p.next()
		d, err := parseDurationLexeme(part.Value)
		if err != nil {
			return p.errorf(part.Loc, "invalid duration '%s'", part.Value)
		}
		total += d
		raw += " " + part.Value
	}

	e := &DurationLit{Value: total, Raw: raw}
	e.location = tok.Loc
	return e
}

// parseDurationLexeme converts a single magnitude+unit lexeme (e.g. "72min",
// "1.5h") into a duration.
func parseDurationLexeme(s string) (time.Duration, error) {
	split := len(s)
	for i, r := range s {
		if !isDigit(r) && r != '.' {
			split = i
			break
		}
	}

	magnitude, err := strconv.ParseFloat(s[:split], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration magnitude: %s", s)
	}

	var unit time.Duration
	switch u := s[split:]; u {
	case "s", "sec", "secs", "second", "seconds":
		unit = time.Second
	case "min", "mins", "minute", "minutes":
		unit = time.Minute
	case "h", "hr", "hrs", "hour", "hours":
		unit = time.Hour
	default:
		return 0, fmt.Errorf("invalid duration unit: %s", u)
	}

	return time.Duration(magnitude * float64(unit)), nil
}

func parseClockTime(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock time: %s", s)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour: %s", parts[0])
	}

	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute: %s", parts[1])
	}

	return hour, minute, nil
}

func parseDateLiteral(s string) (day, month int, err error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid date literal: %s", s)
	}

	day, err = strconv.Atoi(parts[0])
	if err != nil || day < 1 || day > 31 {
		return 0, 0, fmt.Errorf("invalid day: %s", parts[0])
	}

	month, ok := monthTable[parts[1]]
	if !ok {
		return 0, 0, fmt.Errorf("invalid month: %s", parts[1])
	}

	return day, month, nil
}
