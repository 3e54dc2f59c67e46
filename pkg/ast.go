package zmanim

import "time"

// Expr is a node in a parsed formula tree. Trees are immutable after
// parsing except for the static type stamped once by the validator.
type Expr interface {
	Loc() *Location
	// Type reports the node's static type as fixed by the validator.
	// TypeInvalid means the node has not been validated or failed to.
	Type() ValueType
}

// node carries what every expression shares: a source location and the
// validator-assigned static type.
type node struct {
	location *Location
	resolved ValueType
}

func (n *node) Loc() *Location  { return n.location }
func (n *node) Type() ValueType { return n.resolved }

func (n *node) setType(t ValueType) { n.resolved = t }

// typed is the validator's hook for stamping static types.
type typed interface {
	setType(ValueType)
}

// BadExpr marks a span the parser could not make sense of. The validator
// turns it into a syntax error; it never reaches evaluation.
type BadExpr struct {
	node
	Error string
}

type NumberLit struct {
	node
	Value float64
	Raw   string
}

// DurationLit is a signed duration literal. Compound forms ("1h 30min")
// are folded into a single literal by the parser.
type DurationLit struct {
	node
	Value time.Duration
	Raw   string
}

// ClockTimeLit is a wall-clock literal (e.g. 22:00) resolved against the
// evaluation date and timezone.
type ClockTimeLit struct {
	node
	Hour   int
	Minute int
	Raw    string
}

// DateLit is a day-month literal (e.g. 21-Mar) used in date conditions.
type DateLit struct {
	node
	Day   int
	Month int
	Raw   string
}

type StringLit struct {
	node
	Value string
}

// PrimitiveExpr names a built-in astronomical instant such as sunrise.
type PrimitiveExpr struct {
	node
	Name string
}

// ReferenceExpr refers to another named formula by key (@key).
type ReferenceExpr struct {
	node
	Key string
}

// DirectionExpr is a direction keyword in a function argument slot.
type DirectionExpr struct {
	node
	Name string
}

// BaseExpr is a day-boundary definition: either a named base keyword or
// custom(start, end) with two sub-expressions.
type BaseExpr struct {
	node
	Name   string
	Custom []Expr
}

func (b *BaseExpr) IsCustom() bool { return b.Name == "custom" }

type BinaryOp string

const (
	BinaryAddition       BinaryOp = "+"
	BinarySubtraction    BinaryOp = "-"
	BinaryMultiplication BinaryOp = "*"
	BinaryDivision       BinaryOp = "/"
)

type BinaryExpr struct {
	node
	Operation BinaryOp
	Op1       Expr
	Op2       Expr
}

type CompareOp string

const (
	CompareGreater      CompareOp = ">"
	CompareLess         CompareOp = "<"
	CompareGreaterEqual CompareOp = ">="
	CompareLessEqual    CompareOp = "<="
	CompareEqual        CompareOp = "=="
	CompareNotEqual     CompareOp = "!="
)

type CompareExpr struct {
	node
	Operation CompareOp
	Op1       Expr
	Op2       Expr
}

type LogicalOp string

const (
	LogicalAnd LogicalOp = "&&"
	LogicalOr  LogicalOp = "||"
)

type LogicalExpr struct {
	node
	Operation LogicalOp
	Op1       Expr
	Op2       Expr
}

type NotExpr struct {
	node
	Operand Expr
}

// CondVarExpr exposes a context value (latitude, season, ...) to conditions.
type CondVarExpr struct {
	node
	Name string
}

// ConditionalExpr is if (cond) { then } else { else }. Else may be nil.
type ConditionalExpr struct {
	node
	Cond Expr
	Then Expr
	Else Expr
}

// CallExpr is a generic function call. The parser imposes no per-function
// shape; arity, parameter kinds and ranges live in the validator's table.
type CallExpr struct {
	node
	Name string
	Args []Expr
}

// walk visits expr and every sub-expression, depth first.
func walk(expr Expr, visit func(Expr)) {
	if expr == nil {
		return
	}
	visit(expr)

	switch e := expr.(type) {
	case *BinaryExpr:
		walk(e.Op1, visit)
		walk(e.Op2, visit)
	case *CompareExpr:
		walk(e.Op1, visit)
		walk(e.Op2, visit)
	case *LogicalExpr:
		walk(e.Op1, visit)
		walk(e.Op2, visit)
	case *NotExpr:
		walk(e.Operand, visit)
	case *ConditionalExpr:
		walk(e.Cond, visit)
		walk(e.Then, visit)
		walk(e.Else, visit)
	case *CallExpr:
		for _, arg := range e.Args {
			walk(arg, visit)
		}
	case *BaseExpr:
		for _, arg := range e.Custom {
			walk(arg, visit)
		}
	}
}

// references returns every formula key the tree mentions, deduplicated in
// first-appearance order. This is the static dependency set recorded on a
// Formula at validation time.
func references(expr Expr) []string {
	var keys []string
	seen := make(map[string]bool)
	walk(expr, func(e Expr) {
		if ref, ok := e.(*ReferenceExpr); ok && !seen[ref.Key] {
			seen[ref.Key] = true
			keys = append(keys, ref.Key)
		}
	})
	return keys
}
