package zmanim

import (
	"fmt"
	"strings"
)

// CompileError is a problem found before evaluation: a syntax error carried
// out of the parse tree or a validation error. Every variant is positioned.
type CompileError interface {
	error
	Loc() *Location
}

// ErrorList aggregates compile errors. Validation never stops at the first
// problem; the whole list is reported.
type ErrorList []CompileError

func (l ErrorList) Error() string {
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func (l ErrorList) HasErrors() bool {
	return len(l) > 0
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (l ErrorList) Unwrap() []error {
	errs := make([]error, len(l))
	for i, e := range l {
		errs[i] = e
	}
	return errs
}

// SyntaxError reports malformed source, carried from a BadExpr node.
type SyntaxError struct {
	Location *Location
	Message  string
}

func (e *SyntaxError) Loc() *Location { return e.Location }
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s syntax error: %s", e.Location, e.Message)
}

// TypeError reports an operand or argument of the wrong static type.
type TypeError struct {
	Location *Location
	Message  string
}

func (e *TypeError) Loc() *Location { return e.Location }
func (e *TypeError) Error() string {
	return fmt.Sprintf("%s type error: %s", e.Location, e.Message)
}

// UndefinedFunctionError reports a call to a function that does not exist.
type UndefinedFunctionError struct {
	Location *Location
	Name     string
}

func (e *UndefinedFunctionError) Loc() *Location { return e.Location }
func (e *UndefinedFunctionError) Error() string {
	return fmt.Sprintf("%s undefined function: %s", e.Location, e.Name)
}

// ArityError reports a call with the wrong number of arguments.
type ArityError struct {
	Location *Location
	Name     string
	Want     string
	Got      int
}

func (e *ArityError) Loc() *Location { return e.Location }
func (e *ArityError) Error() string {
	return fmt.Sprintf("%s %s() takes %s arguments, got %d", e.Location, e.Name, e.Want, e.Got)
}

// RangeError reports a numeric parameter outside its declared range.
type RangeError struct {
	Location *Location
	Name     string
	Param    string
	Want     string
	Got      float64
}

func (e *RangeError) Loc() *Location { return e.Location }
func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %s() %s must be %s, got %g", e.Location, e.Name, e.Param, e.Want, e.Got)
}

// BaseSlotError reports a non-base expression in a base argument slot. A
// bare @reference here is the classic mistake: a formula is not a
// day-boundary definition, and accepting one silently changes semantics.
type BaseSlotError struct {
	Location *Location
	Name     string
}

func (e *BaseSlotError) Loc() *Location { return e.Location }
func (e *BaseSlotError) Error() string {
	return fmt.Sprintf("%s %s() base argument must be a named base or custom(start, end), not a reference or expression", e.Location, e.Name)
}

// DirectionSlotError reports a direction slot holding something that is not
// an allowed direction keyword.
type DirectionSlotError struct {
	Location *Location
	Name     string
	Allowed  []string
}

func (e *DirectionSlotError) Loc() *Location { return e.Location }
func (e *DirectionSlotError) Error() string {
	return fmt.Sprintf("%s %s() direction must be one of: %s", e.Location, e.Name, strings.Join(e.Allowed, ", "))
}

// UndefinedReferenceError reports an @key absent from the formula set.
type UndefinedReferenceError struct {
	Location *Location
	Key      string
}

func (e *UndefinedReferenceError) Loc() *Location { return e.Location }
func (e *UndefinedReferenceError) Error() string {
	return fmt.Sprintf("%s undefined reference: @%s", e.Location, e.Key)
}

// CircularReferenceError reports a dependency cycle across named formulas.
type CircularReferenceError struct {
	Location *Location
	Chain    []string
}

func (e *CircularReferenceError) Loc() *Location { return e.Location }
func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("circular reference: %s", strings.Join(e.Chain, " -> "))
}

// ResultTypeError reports a formula whose overall type cannot be returned
// to a caller (for example a bare boolean condition).
type ResultTypeError struct {
	Location *Location
	Got      ValueType
}

func (e *ResultTypeError) Loc() *Location { return e.Location }
func (e *ResultTypeError) Error() string {
	return fmt.Sprintf("%s formula must produce a time, duration or number, got %s", e.Location, e.Got)
}
