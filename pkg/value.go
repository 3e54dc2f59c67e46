package zmanim

import (
	"fmt"
	"time"
)

// Kind discriminates the variants a Value can hold at runtime.
type Kind int

const (
	// KindNoEvent marks a value whose underlying astronomical event does
	// not occur on the evaluation date, such as a polar-region sunrise.
	// It propagates through arithmetic instead of failing.
	KindNoEvent Kind = iota
	KindTime
	KindDuration
	KindNumber
	KindBoolean
	KindString
)

var kindNames = map[Kind]string{
	KindNoEvent:  "no event",
	KindTime:     "time",
	KindDuration: "duration",
	KindNumber:   "number",
	KindBoolean:  "boolean",
	KindString:   "string",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// Value is the result of evaluating an expression. Exactly one field is
// meaningful, selected by Kind.
type Value struct {
	Kind     Kind
	Time     time.Time
	Duration time.Duration
	Number   float64
	Boolean  bool
	Str      string
}

// NoEvent is the absent-event value.
var NoEvent = Value{Kind: KindNoEvent}

func TimeValue(t time.Time) Value {
	if t.IsZero() {
		return NoEvent
	}
	return Value{Kind: KindTime, Time: t}
}

func DurationValue(d time.Duration) Value {
	return Value{Kind: KindDuration, Duration: d}
}

func NumberValue(n float64) Value {
	return Value{Kind: KindNumber, Number: n}
}

func BooleanValue(b bool) Value {
	return Value{Kind: KindBoolean, Boolean: b}
}

func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// IsAbsent reports whether the value carries no event.
func (v Value) IsAbsent() bool {
	return v.Kind == KindNoEvent
}

func (v Value) String() string {
	switch v.Kind {
	case KindNoEvent:
		return "no event"
	case KindTime:
		return v.Time.Format("15:04:05 MST")
	case KindDuration:
		return v.Duration.String()
	case KindNumber:
		return fmt.Sprintf("%g", v.Number)
	case KindBoolean:
		return fmt.Sprintf("%t", v.Boolean)
	case KindString:
		return v.Str
	}
	return "invalid"
}

// EvalError is a runtime evaluation failure, distinct from both compile
// errors and the NoEvent value.
type EvalError struct {
	Location *Location
	Message  string
}

func (e *EvalError) Error() string {
	if e.Location != nil {
		return fmt.Sprintf("evaluation failed at %s: %s", e.Location, e.Message)
	}
	return fmt.Sprintf("evaluation failed: %s", e.Message)
}

func (e *EvalError) Loc() *Location {
	return e.Location
}

func evalErrorf(loc *Location, format string, args ...any) *EvalError {
	return &EvalError{Location: loc, Message: fmt.Sprintf(format, args...)}
}
