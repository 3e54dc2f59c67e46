package zmanim

import "fmt"

type TokenType uint64

const EOF rune = 0

const (
	TokenError TokenType = iota
	TokenEOF
	TokenNumber
	TokenDuration
	TokenClockTime
	TokenDateLiteral
	TokenString

	TokenIdentifier
	TokenPrimitive
	TokenFunction
	TokenDirection
	TokenBase
	TokenConditionVar
	TokenReference

	TokenIf
	TokenElse

	TokenPlus
	TokenMinus
	TokenMulti
	TokenDiv

	TokenGreater
	TokenLess
	TokenGreaterEqual
	TokenLessEqual
	TokenEquals
	TokenNotEquals
	TokenAnd
	TokenOr
	TokenNot

	TokenOpenParentheses
	TokenCloseParentheses
	TokenOpenCurly
	TokenCloseCurly
	TokenComma
	TokenLineComment
	TokenBlockComment
)

var keywordTable = map[string]TokenType{
	"if":   TokenIf,
	"else": TokenElse,
}

// primitiveTable holds the built-in astronomical instants. The short
// sunrise/sunset names are accepted as aliases for the visible pair.
var primitiveTable = map[string]bool{
	"sunrise":           true,
	"sunset":            true,
	"visible_sunrise":   true,
	"visible_sunset":    true,
	"geometric_sunrise": true,
	"geometric_sunset":  true,
	"solar_noon":        true,
	"solar_midnight":    true,
	"civil_dawn":        true,
	"civil_dusk":        true,
	"nautical_dawn":     true,
	"nautical_dusk":     true,
	"astronomical_dawn": true,
	"astronomical_dusk": true,
}

var builtinFunctionTable = map[string]bool{
	"solar":                true,
	"seasonal_solar":       true,
	"proportional_hours":   true,
	"proportional_minutes": true,
	"midpoint":             true,
	"earlier_of":           true,
	"later_of":             true,
	"first_valid":          true,
	"coalesce":             true,
}

// directionTable holds every accepted direction keyword. The short forms are
// the canonical ones; the explicit visible/geometric forms pin the horizon
// model a direction is taken against.
var directionTable = map[string]bool{
	"before_sunrise": true,
	"after_sunrise":  true,
	"before_sunset":  true,
	"after_sunset":   true,

	"before_visible_sunrise": true,
	"after_visible_sunrise":  true,
	"before_visible_sunset":  true,
	"after_visible_sunset":   true,

	"before_geometric_sunrise": true,
	"after_geometric_sunrise":  true,
	"before_geometric_sunset":  true,
	"after_geometric_sunset":   true,

	"before_noon": true,
	"after_noon":  true,
}

var baseKeywordTable = map[string]bool{
	"gra": true,

	"mga":     true,
	"mga_60":  true,
	"mga_72":  true,
	"mga_90":  true,
	"mga_96":  true,
	"mga_120": true,

	"mga_72_zmanis": true,
	"mga_90_zmanis": true,
	"mga_96_zmanis": true,

	"mga_16_1": true,
	"mga_18":   true,
	"mga_19_8": true,
	"mga_26":   true,

	"baal_hatanya": true,
	"ateret_torah": true,

	"custom": true,
}

var conditionVarTable = map[string]bool{
	"latitude":    true,
	"longitude":   true,
	"elevation":   true,
	"day_length":  true,
	"month":       true,
	"day":         true,
	"day_of_year": true,
	"date":        true,
	"season":      true,
}

var monthTable = map[string]int{
	"Jan": 1, "Feb": 2, "Mar": 3, "Apr": 4, "May": 5, "Jun": 6,
	"Jul": 7, "Aug": 8, "Sep": 9, "Oct": 10, "Nov": 11, "Dec": 12,
}

// lookupWord classifies an identifier-shaped lexeme.
func lookupWord(word string) TokenType {
	if t, ok := keywordTable[word]; ok {
		return t
	}
	if primitiveTable[word] {
		return TokenPrimitive
	}
	if builtinFunctionTable[word] {
		return TokenFunction
	}
	if directionTable[word] {
		return TokenDirection
	}
	if baseKeywordTable[word] {
		return TokenBase
	}
	if conditionVarTable[word] {
		return TokenConditionVar
	}
	return TokenIdentifier
}

type Location struct {
	Line   int
	Column int
}

func (l *Location) String() string {
	if l == nil {
		return "?:?"
	}
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

type Token struct {
	Typ   TokenType
	Value string
	Loc   *Location
}

func (t Token) isValid() bool {
	return t.Typ != TokenError && t.Typ != TokenEOF
}

func (t Token) isComment() bool {
	return t.Typ == TokenLineComment || t.Typ == TokenBlockComment
}
