package zmanim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type BufferedTokenizerMocker struct {
	buf []Token
	pos int
}

func NewBufferedTokenizerMocker(toks []Token) *BufferedTokenizerMocker {
	return &BufferedTokenizerMocker{
		buf: toks,
		pos: 0,
	}
}

func (b *BufferedTokenizerMocker) Do() {}

func (b *BufferedTokenizerMocker) Get() Token {
	if len(b.buf) <= b.pos {
		return Token{Typ: TokenEOF}
	}

	tok := b.buf[b.pos]
	b.pos++

	return tok
}

func TestParser(t *testing.T) {
	cases := []struct {
		data   []Token
		expect Expr
	}{
		{
			[]Token{
				{Typ: TokenPrimitive, Value: "sunrise"},
				{Typ: TokenPlus, Value: "+"},
				{Typ: TokenDuration, Value: "72min"},
			},
			&BinaryExpr{
				Operation: BinaryAddition,
				Op1:       &PrimitiveExpr{Name: "sunrise"},
				Op2:       &DurationLit{Value: 72 * time.Minute, Raw: "72min"},
			},
		},
		{
			// Multiplication binds tighter than addition
			[]Token{
				{Typ: TokenPrimitive, Value: "sunrise"},
				{Typ: TokenPlus, Value: "+"},
				{Typ: TokenDuration, Value: "18min"},
				{Typ: TokenMulti, Value: "*"},
				{Typ: TokenNumber, Value: "2"},
			},
			&BinaryExpr{
				Operation: BinaryAddition,
				Op1:       &PrimitiveExpr{Name: "sunrise"},
				Op2: &BinaryExpr{
					Operation: BinaryMultiplication,
					Op1:       &DurationLit{Value: 18 * time.Minute, Raw: "18min"},
					Op2:       &NumberLit{Value: 2, Raw: "2"},
				},
			},
		},
		{
			// Consecutive duration tokens fold into one literal
			[]Token{
				{Typ: TokenDuration, Value: "1h"},
				{Typ: TokenDuration, Value: "30min"},
			},
			&DurationLit{Value: 90 * time.Minute, Raw: "1h 30min"},
		},
		{
			[]Token{
				{Typ: TokenMinus, Value: "-"},
				{Typ: TokenDuration, Value: "10min"},
			},
			&DurationLit{Value: -10 * time.Minute, Raw: "10min"},
		},
		{
			[]Token{
				{Typ: TokenFunction, Value: "solar"},
				{Typ: TokenOpenParentheses, Value: "("},
				{Typ: TokenNumber, Value: "16.1"},
				{Typ: TokenComma, Value: ","},
				{Typ: TokenDirection, Value: "before_sunrise"},
				{Typ: TokenCloseParentheses, Value: ")"},
			},
			&CallExpr{
				Name: "solar",
				Args: []Expr{
					&NumberLit{Value: 16.1, Raw: "16.1"},
					&DirectionExpr{Name: "before_sunrise"},
				},
			},
		},
		{
			[]Token{
				{Typ: TokenFunction, Value: "proportional_hours"},
				{Typ: TokenOpenParentheses, Value: "("},
				{Typ: TokenNumber, Value: "3"},
				{Typ: TokenComma, Value: ","},
				{Typ: TokenBase, Value: "gra"},
				{Typ: TokenCloseParentheses, Value: ")"},
			},
			&CallExpr{
				Name: "proportional_hours",
				Args: []Expr{
					&NumberLit{Value: 3, Raw: "3"},
					&BaseExpr{Name: "gra"},
				},
			},
		},
		{
			[]Token{
				{Typ: TokenFunction, Value: "proportional_hours"},
				{Typ: TokenOpenParentheses, Value: "("},
				{Typ: TokenNumber, Value: "3"},
				{Typ: TokenComma, Value: ","},
				{Typ: TokenBase, Value: "custom"},
				{Typ: TokenOpenParentheses, Value: "("},
				{Typ: TokenReference, Value: "alos"},
				{Typ: TokenComma, Value: ","},
				{Typ: TokenReference, Value: "tzais"},
				{Typ: TokenCloseParentheses, Value: ")"},
				{Typ: TokenCloseParentheses, Value: ")"},
			},
			&CallExpr{
				Name: "proportional_hours",
				Args: []Expr{
					&NumberLit{Value: 3, Raw: "3"},
					&BaseExpr{
						Name: "custom",
						Custom: []Expr{
							&ReferenceExpr{Key: "alos"},
							&ReferenceExpr{Key: "tzais"},
						},
					},
				},
			},
		},
		{
			[]Token{
				{Typ: TokenIf, Value: "if"},
				{Typ: TokenOpenParentheses, Value: "("},
				{Typ: TokenConditionVar, Value: "latitude"},
				{Typ: TokenGreater, Value: ">"},
				{Typ: TokenNumber, Value: "40"},
				{Typ: TokenCloseParentheses, Value: ")"},
				{Typ: TokenOpenCurly, Value: "{"},
				{Typ: TokenPrimitive, Value: "sunrise"},
				{Typ: TokenCloseCurly, Value: "}"},
				{Typ: TokenElse, Value: "else"},
				{Typ: TokenOpenCurly, Value: "{"},
				{Typ: TokenPrimitive, Value: "sunset"},
				{Typ: TokenCloseCurly, Value: "}"},
			},
			&ConditionalExpr{
				Cond: &CompareExpr{
					Operation: CompareGreater,
					Op1:       &CondVarExpr{Name: "latitude"},
					Op2:       &NumberLit{Value: 40, Raw: "40"},
				},
				Then: &PrimitiveExpr{Name: "sunrise"},
				Else: &PrimitiveExpr{Name: "sunset"},
			},
		},
		{
			[]Token{
				{Typ: TokenClockTime, Value: "9:30"},
			},
			&ClockTimeLit{Hour: 9, Minute: 30, Raw: "9:30"},
		},
		{
			[]Token{
				{Typ: TokenDateLiteral, Value: "21-Mar"},
			},
			&DateLit{Day: 21, Month: 3, Raw: "21-Mar"},
		},
	}

	for _, c := range cases {
		p := NewParser(NewBufferedTokenizerMocker(c.data))
		got := p.Run()

		assert.Equal(t, c.expect, got)
	}
}

func TestParserBadInput(t *testing.T) {
	cases := []string{
		"sunrise +",
		"solar(16.1,",
		"(sunrise",
		"midpoint sunrise",
		"unknown_name",
		"if (latitude > 40) sunrise",
		"sunrise sunset",
		"29:61",
		"32-Mar",
	}

	for _, src := range cases {
		got := Parse(src)

		bad := false
		walk(got, func(e Expr) {
			if _, ok := e.(*BadExpr); ok {
				bad = true
			}
		})
		assert.True(t, bad, src)
	}
}

func TestParserUnknownCall(t *testing.T) {
	got := Parse("frobnicate(1, 2)")

	call, ok := got.(*CallExpr)
	assert.True(t, ok)
	assert.Equal(t, "frobnicate", call.Name)
	assert.Len(t, call.Args, 2)
}

func TestParserCommentsSkipped(t *testing.T) {
	got := Parse("sunrise // first light\n + 72min")

	expr, ok := got.(*BinaryExpr)
	assert.True(t, ok)
	assert.Equal(t, BinaryAddition, expr.Operation)
}

func TestParserBlockCommentsSkipped(t *testing.T) {
	got := Parse("sunrise /* first\nlight */ + 72min")

	expr, ok := got.(*BinaryExpr)
	assert.True(t, ok)
	assert.Equal(t, BinaryAddition, expr.Operation)
}

func TestParserSpacedDurations(t *testing.T) {
	got := Parse("sunrise + 1 hour 30 minutes")

	expr, ok := got.(*BinaryExpr)
	assert.True(t, ok)

	dur, ok := expr.Op2.(*DurationLit)
	assert.True(t, ok)
	assert.Equal(t, 90*time.Minute, dur.Value)
}
