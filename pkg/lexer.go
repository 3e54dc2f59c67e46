package zmanim

import (
	"fmt"
	"io"
	"strings"
	"unicode"
)

type stateFunc func(l *Lexer) stateFunc

// Tokenizer is the producer side of the lexing pipeline.
type Tokenizer interface {
	Do()
	Get() Token
}

// Lexer tokenizes formula source. It runs as a state machine emitting tokens
// on a channel, one-shot per input.
type Lexer struct {
	input []rune
	pos   int
	line  int
	col   int
	start *Location
	done  chan Token
}

func NewLexer(src string) *Lexer {
	return &Lexer{
		input: []rune(src),
		line:  1,
		col:   1,
		done:  make(chan Token, 2),
	}
}

func NewLexerFromReader(reader io.Reader) (*Lexer, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	return NewLexer(string(data)), nil
}

func (l *Lexer) Chan() chan Token {
	return l.done
}

func (l *Lexer) Get() Token {
	return <-l.done
}

func (l *Lexer) Do() {
	for state := defaultState; state != nil; {
		state = state(l)
	}

	close(l.done)
}

// RunBlocking drains the lexer into a token slice, stopping at the first
// malformed lexeme.
func (l *Lexer) RunBlocking() ([]Token, error) {
	go l.Do()

	var tokens []Token
	for t := range l.done {
		if t.Typ == TokenEOF {
			return tokens, nil
		}
		if t.Typ == TokenError {
			return nil, fmt.Errorf("%s: %s", t.Loc, t.Value)
		}
		tokens = append(tokens, t)
	}

	return tokens, nil
}

func defaultState(l *Lexer) stateFunc {
	for {
		switch r := l.peek(); {
		case r == EOF:
			l.mark()
			l.emit(TokenEOF, "")
			return nil
		case unicode.IsSpace(r):
			l.next()
			continue
		case '0' <= r && r <= '9':
			l.mark()
			return numberState
		case r == '"':
			l.mark()
			return stringState
		case r == '@':
			l.mark()
			return referenceState
		case unicode.IsLetter(r):
			l.mark()
			return wordState
		default:
			l.mark()
			return operatorState
		}
	}
}

// numberState handles plain numbers and the literal forms that start with
// digits: durations (72min), clock times (9:30) and date literals (21-Mar).
func numberState(l *Lexer) stateFunc {
	var num strings.Builder
	for r := l.peek(); '0' <= r && r <= '9'; r = l.peek() {
		num.WriteRune(l.next())
	}

	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		num.WriteRune(l.next())
		for r := l.peek(); '0' <= r && r <= '9'; r = l.peek() {
			num.WriteRune(l.next())
		}
		if unicode.IsLetter(l.peek()) || l.spacedUnitAhead() {
			return durationState(l, num.String())
		}
		return l.emit(TokenNumber, num.String())
	}

	switch {
	case unicode.IsLetter(l.peek()) || l.spacedUnitAhead():
		return durationState(l, num.String())
	case l.peek() == ':' && isDigit(l.peekAt(1)):
		l.next()
		var mins strings.Builder
		for r := l.peek(); '0' <= r && r <= '9'; r = l.peek() {
			mins.WriteRune(l.next())
		}
		return l.emit(TokenClockTime, num.String()+":"+mins.String())
	case l.peek() == '-' && unicode.IsLetter(l.peekAt(1)):
		l.next()
		var month strings.Builder
		for r := l.peek(); unicode.IsLetter(r); r = l.peek() {
			month.WriteRune(l.next())
		}
		return l.emit(TokenDateLiteral, num.String()+"-"+month.String())
	}

	return l.emit(TokenNumber, num.String())
}

var durationUnits = map[string]bool{
	"s": true, "sec": true, "secs": true, "second": true, "seconds": true,
	"min": true, "mins": true, "minute": true, "minutes": true,
	"h": true, "hr": true, "hrs": true, "hour": true, "hours": true,
}

// spacedUnitAhead reports whether the next runes are spaces followed by a
// duration unit word, so "1 hour 30 minutes" lexes the same as "1h 30min".
// The spaces are consumed when a unit is found.
func (l *Lexer) spacedUnitAhead() bool {
	skip := 0
	for l.peekAt(skip) == ' ' || l.peekAt(skip) == '\t' {
		skip++
	}
	if skip == 0 {
		return false
	}

	var word strings.Builder
	for i := skip; isIdentRune(l.peekAt(i)); i++ {
		word.WriteRune(l.peekAt(i))
	}
	if !durationUnits[word.String()] {
		return false
	}

	for ; skip > 0; skip-- {
		l.next()
	}
	return true
}

func durationState(l *Lexer, magnitude string) stateFunc {
	var unit strings.Builder
	for r := l.peek(); unicode.IsLetter(r); r = l.peek() {
		unit.WriteRune(l.next())
	}

	if !durationUnits[unit.String()] {
		return l.errorf("invalid duration unit '%s'", unit.String())
	}

	return l.emit(TokenDuration, magnitude+unit.String())
}

func stringState(l *Lexer) stateFunc {
	l.next() // Skip the leading double-quote

	var str strings.Builder
	for r := l.next(); r != '"'; r = l.next() {
		if r == EOF {
			return l.errorf("unclosed string: %s", str.String())
		}

		str.WriteRune(r)
	}

	return l.emit(TokenString, str.String())
}

func referenceState(l *Lexer) stateFunc {
	l.next() // Skip the @

	var key strings.Builder
	for r := l.peek(); isIdentRune(r); r = l.peek() {
		key.WriteRune(l.next())
	}

	if key.Len() == 0 {
		return l.errorf("expected key after '@'")
	}

	return l.emit(TokenReference, key.String())
}

func wordState(l *Lexer) stateFunc {
	var word strings.Builder
	for r := l.peek(); isIdentRune(r); r = l.peek() {
		word.WriteRune(l.next())
	}

	return l.emit(lookupWord(word.String()), word.String())
}

var operatorTable = map[string]TokenType{
	"+":  TokenPlus,
	"-":  TokenMinus,
	"*":  TokenMulti,
	"/":  TokenDiv,
	"(":  TokenOpenParentheses,
	")":  TokenCloseParentheses,
	"{":  TokenOpenCurly,
	"}":  TokenCloseCurly,
	",":  TokenComma,
	">":  TokenGreater,
	"<":  TokenLess,
	">=": TokenGreaterEqual,
	"<=": TokenLessEqual,
	"==": TokenEquals,
	"!=": TokenNotEquals,
	"&&": TokenAnd,
	"||": TokenOr,
	"!":  TokenNot,
}

func operatorState(l *Lexer) stateFunc {
	r := l.next()

	if r == '/' && l.peek() == '/' {
		l.next()
		return lineCommentState
	}

	if r == '/' && l.peek() == '*' {
		l.next()
		return blockCommentState
	}

	// Some operators are two runes
	if op := string(r) + string(l.peek()); len(op) == 2 {
		if tok, ok := operatorTable[op]; ok {
			l.next()
			return l.emit(tok, op)
		}
	}

	if tok, ok := operatorTable[string(r)]; ok {
		return l.emit(tok, string(r))
	}

	return l.errorf("invalid symbol '%c'", r)
}

func lineCommentState(l *Lexer) stateFunc {
	var text strings.Builder
	for r := l.peek(); r != '\n' && r != EOF; r = l.peek() {
		text.WriteRune(l.next())
	}

	return l.emit(TokenLineComment, text.String())
}

func blockCommentState(l *Lexer) stateFunc {
	var text strings.Builder
	for {
		r := l.next()
		if r == EOF {
			return l.errorf("unclosed comment")
		}
		if r == '*' && l.peek() == '/' {
			l.next()
			return l.emit(TokenBlockComment, text.String())
		}
		text.WriteRune(r)
	}
}

func (l *Lexer) errorf(format string, args ...interface{}) stateFunc {
	l.done <- Token{
		Typ:   TokenError,
		Value: fmt.Sprintf(format, args...),
		Loc:   l.start,
	}

	return nil
}

func (l *Lexer) emit(t TokenType, val string) stateFunc {
	l.done <- Token{
		Typ:   t,
		Value: val,
		Loc:   l.start,
	}

	return defaultState
}

// mark records the location the current token starts at.
func (l *Lexer) mark() {
	l.start = &Location{Line: l.line, Column: l.col}
}

func (l *Lexer) peek() rune {
	return l.peekAt(0)
}

func (l *Lexer) peekAt(offset int) rune {
	if l.pos+offset >= len(l.input) {
		return EOF
	}

	return l.input[l.pos+offset]
}

func (l *Lexer) next() rune {
	if l.pos >= len(l.input) {
		return EOF
	}

	r := l.input[l.pos]
	l.pos++

	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}

	return r
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || isDigit(r) || r == '_'
}
