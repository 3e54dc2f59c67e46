package zmanim

import (
	"strings"
	"time"
)

// Evaluator walks a validated tree against one context. Trees that failed
// validation must not reach it; runtime failures are confined to what only
// the date and place can reveal.
type Evaluator struct {
	ctx    *EvalContext
	set    *FormulaSet
	anchor time.Duration

	// chain is the stack of reference keys currently being resolved,
	// outermost first.
	chain []string
}

func newEvaluator(ctx *EvalContext, set *FormulaSet, anchor time.Duration) *Evaluator {
	return &Evaluator{ctx: ctx, set: set, anchor: anchor}
}

// Eval computes the value of a validated tree.
func (ev *Evaluator) Eval(expr Expr) (Value, error) {
	switch e := expr.(type) {
	case *NumberLit:
		return NumberValue(e.Value), nil
	case *DurationLit:
		return DurationValue(e.Value), nil
	case *StringLit:
		return StringValue(e.Value), nil

	case *ClockTimeLit:
		y, m, d := ev.ctx.Date.Date()
		return TimeValue(time.Date(y, m, d, e.Hour, e.Minute, 0, 0, ev.ctx.TZ)), nil

	case *DateLit:
		return ev.evalDateLit(e)

	case *PrimitiveExpr:
		return ev.evalPrimitive(e)

	case *ReferenceExpr:
		return ev.evalReference(e)

	case *BinaryExpr:
		return ev.evalBinary(e)

	case *CompareExpr:
		return ev.evalCompare(e)

	case *LogicalExpr:
		return ev.evalLogical(e)

	case *NotExpr:
		v, err := ev.Eval(e.Operand)
		if err != nil || v.IsAbsent() {
			return v, err
		}
		return BooleanValue(!v.Boolean), nil

	case *CondVarExpr:
		return ev.evalCondVar(e)

	case *ConditionalExpr:
		return ev.evalConditional(e)

	case *CallExpr:
		return ev.evalCall(e)
	}

	return Value{}, evalErrorf(expr.Loc(), "cannot evaluate %T", expr)
}

func (ev *Evaluator) evalDateLit(e *DateLit) (Value, error) {
	year := ev.ctx.Date.Year()
	d := time.Date(year, time.Month(e.Month), e.Day, 0, 0, 0, 0, time.UTC)
	if d.Month() != time.Month(e.Month) || d.Day() != e.Day {
		return Value{}, evalErrorf(e.Loc(), "date %s does not exist in year %d", e.Raw, year)
	}
	return NumberValue(float64(d.YearDay())), nil
}

func (ev *Evaluator) evalPrimitive(e *PrimitiveExpr) (Value, error) {
	switch e.Name {
	case "sunrise", "visible_sunrise":
		rise, _ := ev.ctx.visibleSun()
		return TimeValue(rise), nil
	case "sunset", "visible_sunset":
		_, set := ev.ctx.visibleSun()
		return TimeValue(set), nil
	case "geometric_sunrise":
		rise, _ := ev.ctx.geometricSun()
		return TimeValue(rise), nil
	case "geometric_sunset":
		_, set := ev.ctx.geometricSun()
		return TimeValue(set), nil
	case "solar_noon":
		return TimeValue(ev.ctx.noon()), nil
	case "solar_midnight":
		return TimeValue(ev.ctx.noon().Add(-12 * time.Hour)), nil
	case "civil_dawn":
		morning, _ := ev.ctx.sunAt(6)
		return TimeValue(morning), nil
	case "civil_dusk":
		_, evening := ev.ctx.sunAt(6)
		return TimeValue(evening), nil
	case "nautical_dawn":
		morning, _ := ev.ctx.sunAt(12)
		return TimeValue(morning), nil
	case "nautical_dusk":
		_, evening := ev.ctx.sunAt(12)
		return TimeValue(evening), nil
	case "astronomical_dawn":
		morning, _ := ev.ctx.sunAt(18)
		return TimeValue(morning), nil
	case "astronomical_dusk":
		_, evening := ev.ctx.sunAt(18)
		return TimeValue(evening), nil
	}
	return Value{}, evalErrorf(e.Loc(), "unknown primitive: %s", e.Name)
}

func (ev *Evaluator) evalReference(e *ReferenceExpr) (Value, error) {
	for _, key := range ev.chain {
		if key == e.Key {
			return Value{}, evalErrorf(e.Loc(), "circular reference: %s", strings.Join(append(ev.chain, e.Key), " -> "))
		}
	}
	if ev.set == nil {
		return Value{}, evalErrorf(e.Loc(), "undefined reference: @%s", e.Key)
	}
	target, ok := ev.set.formulas[e.Key]
	if !ok {
		return Value{}, evalErrorf(e.Loc(), "undefined reference: @%s", e.Key)
	}

	return ev.ctx.reference(e.Key, func() (Value, error) {
		sub := &Evaluator{
			ctx:    ev.ctx,
			set:    ev.set,
			anchor: ev.anchor,
			chain:  append(ev.chain[:len(ev.chain):len(ev.chain)], e.Key),
		}
		return sub.Eval(target.tree)
	})
}

func (ev *Evaluator) evalBinary(e *BinaryExpr) (Value, error) {
	v1, err := ev.Eval(e.Op1)
	if err != nil || v1.IsAbsent() {
		return v1, err
	}
	v2, err := ev.Eval(e.Op2)
	if err != nil || v2.IsAbsent() {
		return v2, err
	}

	switch e.Operation {
	case BinaryAddition:
		switch {
		case v1.Kind == KindTime && v2.Kind == KindDuration:
			return TimeValue(v1.Time.Add(v2.Duration)), nil
		case v1.Kind == KindDuration && v2.Kind == KindTime:
			return TimeValue(v2.Time.Add(v1.Duration)), nil
		case v1.Kind == KindDuration && v2.Kind == KindDuration:
			return DurationValue(v1.Duration + v2.Duration), nil
		case v1.Kind == KindNumber && v2.Kind == KindNumber:
			return NumberValue(v1.Number + v2.Number), nil
		}

	case BinarySubtraction:
		switch {
		case v1.Kind == KindTime && v2.Kind == KindDuration:
			return TimeValue(v1.Time.Add(-v2.Duration)), nil
		case v1.Kind == KindTime && v2.Kind == KindTime:
			return DurationValue(v1.Time.Sub(v2.Time)), nil
		case v1.Kind == KindDuration && v2.Kind == KindDuration:
			return DurationValue(v1.Duration - v2.Duration), nil
		case v1.Kind == KindNumber && v2.Kind == KindNumber:
			return NumberValue(v1.Number - v2.Number), nil
		}

	case BinaryMultiplication:
		switch {
		case v1.Kind == KindDuration && v2.Kind == KindNumber:
			return DurationValue(time.Duration(float64(v1.Duration) * v2.Number)), nil
		case v1.Kind == KindNumber && v2.Kind == KindDuration:
			return DurationValue(time.Duration(v1.Number * float64(v2.Duration))), nil
		case v1.Kind == KindNumber && v2.Kind == KindNumber:
			return NumberValue(v1.Number * v2.Number), nil
		}

	case BinaryDivision:
		switch {
		case v1.Kind == KindDuration && v2.Kind == KindNumber:
			if v2.Number == 0 {
				return Value{}, evalErrorf(e.Loc(), "division by zero")
			}
			return DurationValue(time.Duration(float64(v1.Duration) / v2.Number)), nil
		case v1.Kind == KindNumber && v2.Kind == KindNumber:
			if v2.Number == 0 {
				return Value{}, evalErrorf(e.Loc(), "division by zero")
			}
			return NumberValue(v1.Number / v2.Number), nil
		}
	}

	return Value{}, evalErrorf(e.Loc(), "operator %s not defined for %s and %s", e.Operation, v1.Kind, v2.Kind)
}

func (ev *Evaluator) evalCompare(e *CompareExpr) (Value, error) {
	v1, err := ev.Eval(e.Op1)
	if err != nil || v1.IsAbsent() {
		return v1, err
	}
	v2, err := ev.Eval(e.Op2)
	if err != nil || v2.IsAbsent() {
		return v2, err
	}
	if v1.Kind != v2.Kind {
		return Value{}, evalErrorf(e.Loc(), "cannot compare %s and %s", v1.Kind, v2.Kind)
	}

	// Reduce every comparable kind to a signed ordering.
	var order int
	switch v1.Kind {
	case KindNumber:
		switch {
		case v1.Number < v2.Number:
			order = -1
		case v1.Number > v2.Number:
			order = 1
		}
	case KindDuration:
		switch {
		case v1.Duration < v2.Duration:
			order = -1
		case v1.Duration > v2.Duration:
			order = 1
		}
	case KindTime:
		switch {
		case v1.Time.Before(v2.Time):
			order = -1
		case v1.Time.After(v2.Time):
			order = 1
		}
	case KindString:
		switch e.Operation {
		case CompareEqual:
			return BooleanValue(v1.Str == v2.Str), nil
		case CompareNotEqual:
			return BooleanValue(v1.Str != v2.Str), nil
		}
		return Value{}, evalErrorf(e.Loc(), "strings only support == and !=")
	default:
		return Value{}, evalErrorf(e.Loc(), "cannot compare %s values", v1.Kind)
	}

	switch e.Operation {
	case CompareGreater:
		return BooleanValue(order > 0), nil
	case CompareLess:
		return BooleanValue(order < 0), nil
	case CompareGreaterEqual:
		return BooleanValue(order >= 0), nil
	case CompareLessEqual:
		return BooleanValue(order <= 0), nil
	case CompareEqual:
		return BooleanValue(order == 0), nil
	case CompareNotEqual:
		return BooleanValue(order != 0), nil
	}
	return Value{}, evalErrorf(e.Loc(), "unknown comparison %s", e.Operation)
}

func (ev *Evaluator) evalLogical(e *LogicalExpr) (Value, error) {
	v1, err := ev.Eval(e.Op1)
	if err != nil || v1.IsAbsent() {
		return v1, err
	}

	// Short circuit before touching the right side.
	switch e.Operation {
	case LogicalAnd:
		if !v1.Boolean {
			return BooleanValue(false), nil
		}
	case LogicalOr:
		if v1.Boolean {
			return BooleanValue(true), nil
		}
	}

	v2, err := ev.Eval(e.Op2)
	if err != nil || v2.IsAbsent() {
		return v2, err
	}
	return BooleanValue(v2.Boolean), nil
}

func (ev *Evaluator) evalCondVar(e *CondVarExpr) (Value, error) {
	switch e.Name {
	case "latitude":
		return NumberValue(ev.ctx.Latitude), nil
	case "longitude":
		return NumberValue(ev.ctx.Longitude), nil
	case "elevation":
		return NumberValue(ev.ctx.Elevation), nil
	case "day_length":
		length, ok := ev.ctx.dayLength()
		if !ok {
			return NoEvent, nil
		}
		return DurationValue(length), nil
	case "month":
		return NumberValue(float64(ev.ctx.Date.Month())), nil
	case "day":
		return NumberValue(float64(ev.ctx.Date.Day())), nil
	case "day_of_year", "date":
		return NumberValue(float64(ev.ctx.Date.YearDay())), nil
	case "season":
		return StringValue(ev.ctx.season()), nil
	}
	return Value{}, evalErrorf(e.Loc(), "unknown condition variable: %s", e.Name)
}

func (ev *Evaluator) evalConditional(e *ConditionalExpr) (Value, error) {
	cond, err := ev.Eval(e.Cond)
	if err != nil || cond.IsAbsent() {
		return cond, err
	}
	if cond.Boolean {
		return ev.Eval(e.Then)
	}
	if e.Else == nil {
		return Value{}, evalErrorf(e.Loc(), "condition is false and there is no else branch")
	}
	return ev.Eval(e.Else)
}

func (ev *Evaluator) evalCall(e *CallExpr) (Value, error) {
	switch e.Name {
	case "solar":
		return ev.evalSolar(e, false)
	case "seasonal_solar":
		return ev.evalSolar(e, true)
	case "proportional_hours":
		return ev.evalProportionalHours(e)
	case "proportional_minutes":
		return ev.evalProportionalMinutes(e)
	case "midpoint":
		return ev.evalMidpoint(e)
	case "earlier_of":
		return ev.evalEarlierLater(e, true)
	case "later_of":
		return ev.evalEarlierLater(e, false)
	case "first_valid", "coalesce":
		return ev.evalFirstValid(e)
	}
	return Value{}, evalErrorf(e.Loc(), "unknown function: %s", e.Name)
}

// morningSide reports whether a direction keyword selects the morning
// crossing of an angle.
func morningSide(direction string) bool {
	if direction == "before_noon" {
		return true
	}
	if direction == "after_noon" {
		return false
	}
	return strings.Contains(direction, "sunrise")
}

func (ev *Evaluator) evalSolar(e *CallExpr, seasonal bool) (Value, error) {
	degrees, err := ev.number(e.Args[0])
	if err != nil {
		return Value{}, err
	}
	direction := e.Args[1].(*DirectionExpr).Name

	var morning, evening time.Time
	if seasonal {
		morning, evening = ev.ctx.seasonalSunAt(degrees)
	} else {
		morning, evening = ev.ctx.sunAt(degrees)
	}

	if morningSide(direction) {
		return TimeValue(morning), nil
	}
	return TimeValue(evening), nil
}

func (ev *Evaluator) evalProportionalHours(e *CallExpr) (Value, error) {
	hours, err := ev.number(e.Args[0])
	if err != nil {
		return Value{}, err
	}
	base := e.Args[1].(*BaseExpr)

	boundary, v, err := ev.resolveBoundary(base)
	if err != nil || v.IsAbsent() {
		return v, err
	}
	return TimeValue(boundary.at(hours)), nil
}

// resolveBoundary turns a base expression into a concrete day boundary. The
// returned Value is NoEvent when a boundary event is missing; otherwise it
// is ignored.
func (ev *Evaluator) resolveBoundary(base *BaseExpr) (DayBoundary, Value, error) {
	if base.IsCustom() {
		start, err := ev.Eval(base.Custom[0])
		if err != nil || start.IsAbsent() {
			return DayBoundary{}, start, err
		}
		end, err := ev.Eval(base.Custom[1])
		if err != nil || end.IsAbsent() {
			return DayBoundary{}, end, err
		}
		if !end.Time.After(start.Time) {
			return DayBoundary{}, Value{}, evalErrorf(base.Loc(), "custom() day must end after it starts")
		}
		return DayBoundary{Start: start.Time, End: end.Time}, Value{}, nil
	}

	boundary, ok := resolveNamedBase(ev.ctx, base.Name, ev.anchor)
	if !ok {
		return DayBoundary{}, NoEvent, nil
	}
	return boundary, Value{}, nil
}

func (ev *Evaluator) evalProportionalMinutes(e *CallExpr) (Value, error) {
	minutes, err := ev.number(e.Args[0])
	if err != nil {
		return Value{}, err
	}
	direction := e.Args[1].(*DirectionExpr).Name

	length, ok := ev.ctx.dayLength()
	if !ok {
		return NoEvent, nil
	}
	offset := time.Duration(float64(length) * minutes / 720)

	var rise, set time.Time
	if strings.Contains(direction, "geometric") {
		rise, set = ev.ctx.geometricSun()
	} else {
		rise, set = ev.ctx.visibleSun()
	}

	if morningSide(direction) {
		if rise.IsZero() {
			return NoEvent, nil
		}
		return TimeValue(rise.Add(-offset)), nil
	}
	if set.IsZero() {
		return NoEvent, nil
	}
	return TimeValue(set.Add(offset)), nil
}

func (ev *Evaluator) evalMidpoint(e *CallExpr) (Value, error) {
	v1, err := ev.Eval(e.Args[0])
	if err != nil || v1.IsAbsent() {
		return v1, err
	}
	v2, err := ev.Eval(e.Args[1])
	if err != nil || v2.IsAbsent() {
		return v2, err
	}
	return TimeValue(v1.Time.Add(v2.Time.Sub(v1.Time) / 2)), nil
}

func (ev *Evaluator) evalEarlierLater(e *CallExpr, earlier bool) (Value, error) {
	v1, err := ev.Eval(e.Args[0])
	if err != nil || v1.IsAbsent() {
		return v1, err
	}
	v2, err := ev.Eval(e.Args[1])
	if err != nil || v2.IsAbsent() {
		return v2, err
	}
	if v1.Time.Before(v2.Time) == earlier {
		return v1, nil
	}
	return v2, nil
}

// evalFirstValid returns the first candidate that produces a present value,
// absorbing both absent events and runtime failures along the way. With
// every candidate exhausted the whole call is absent.
func (ev *Evaluator) evalFirstValid(e *CallExpr) (Value, error) {
	for _, arg := range e.Args {
		v, err := ev.Eval(arg)
		if err != nil || v.IsAbsent() {
			continue
		}
		return v, nil
	}
	return NoEvent, nil
}

// number evaluates an argument the validator has already pinned to a number.
func (ev *Evaluator) number(arg Expr) (float64, error) {
	v, err := ev.Eval(arg)
	if err != nil {
		return 0, err
	}
	if v.Kind != KindNumber {
		return 0, evalErrorf(arg.Loc(), "expected a number, got %s", v.Kind)
	}
	return v.Number, nil
}
