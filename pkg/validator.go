package zmanim

import "fmt"

// ValueType is the static type of an expression. The validator infers it
// bottom-up and stamps it on every node exactly once; evaluation never
// re-derives types.
type ValueType int

const (
	TypeInvalid ValueType = iota
	TypeTime
	TypeDuration
	TypeNumber
	TypeBoolean
	TypeString
	TypeBase
	TypeDirection
)

var valueTypeNames = map[ValueType]string{
	TypeInvalid:   "invalid",
	TypeTime:      "time",
	TypeDuration:  "duration",
	TypeNumber:    "number",
	TypeBoolean:   "boolean",
	TypeString:    "string",
	TypeBase:      "base",
	TypeDirection: "direction",
}

func (t ValueType) String() string {
	if name, ok := valueTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

type paramKind int

const (
	paramNumber paramKind = iota
	paramDirection
	paramBase
	paramTime
	paramAny
)

type paramSpec struct {
	name string
	kind paramKind

	// Numeric range for paramNumber, checked on literal arguments.
	min, max     float64
	minExclusive bool

	// Allowed keyword set for paramDirection; nil accepts any direction.
	directions map[string]bool
}

func (p paramSpec) rangeDesc() string {
	if p.minExclusive {
		return fmt.Sprintf("greater than %g and at most %g", p.min, p.max)
	}
	return fmt.Sprintf("between %g and %g", p.min, p.max)
}

func (p paramSpec) directionList() []string {
	set := p.directions
	if set == nil {
		set = directionTable
	}
	list := make([]string, 0, len(set))
	for d := range set {
		list = append(list, d)
	}
	return list
}

// boundaryDirections are the directions that anchor against the default
// sunrise/sunset day: the canonical short forms plus the explicit
// visible/geometric spellings.
var boundaryDirections = map[string]bool{
	"before_sunrise":           true,
	"after_sunset":             true,
	"before_visible_sunrise":   true,
	"after_visible_sunset":     true,
	"before_geometric_sunrise": true,
	"after_geometric_sunset":   true,
}

// signature declares everything the validator enforces about one function.
// Adding a function is a table entry here plus one evaluator case, never a
// grammar change.
type signature struct {
	params   []paramSpec
	variadic bool // params describe the minimum; extra args allowed, any type
	result   ValueType
	// resultOfFirst makes the call's static type follow its first argument
	// (coalesce has no constraint of its own).
	resultOfFirst bool
}

var signatureTable = map[string]signature{
	"solar": {
		params: []paramSpec{
			{name: "degrees", kind: paramNumber, min: 0, max: 90},
			{name: "direction", kind: paramDirection},
		},
		result: TypeTime,
	},
	"seasonal_solar": {
		params: []paramSpec{
			{name: "degrees", kind: paramNumber, min: 0, max: 90},
			{name: "direction", kind: paramDirection, directions: boundaryDirections},
		},
		result: TypeTime,
	},
	"proportional_hours": {
		params: []paramSpec{
			{name: "hours", kind: paramNumber, min: 0.5, max: 12},
			{name: "base", kind: paramBase},
		},
		result: TypeTime,
	},
	"proportional_minutes": {
		params: []paramSpec{
			{name: "minutes", kind: paramNumber, min: 0, max: 200, minExclusive: true},
			{name: "direction", kind: paramDirection, directions: boundaryDirections},
		},
		result: TypeTime,
	},
	"midpoint": {
		params: []paramSpec{
			{name: "start", kind: paramTime},
			{name: "end", kind: paramTime},
		},
		result: TypeTime,
	},
	"earlier_of": {
		params: []paramSpec{
			{name: "first", kind: paramTime},
			{name: "second", kind: paramTime},
		},
		result: TypeTime,
	},
	"later_of": {
		params: []paramSpec{
			{name: "first", kind: paramTime},
			{name: "second", kind: paramTime},
		},
		result: TypeTime,
	},
	"first_valid": {
		params: []paramSpec{
			{name: "candidate", kind: paramAny},
			{name: "candidate", kind: paramAny},
		},
		variadic:      true,
		resultOfFirst: true,
	},
	"coalesce": {
		params: []paramSpec{
			{name: "candidate", kind: paramAny},
			{name: "candidate", kind: paramAny},
		},
		variadic:      true,
		resultOfFirst: true,
	},
}

// Validator type-checks a parsed tree and collects every problem it finds.
// A tree with any validation error must never reach the evaluator.
type Validator struct {
	errs     ErrorList
	registry func(key string) bool
}

func NewValidator() *Validator {
	return &Validator{}
}

// SetRegistry installs a key-existence lookup so @references are checked
// against the whole registry at validation time.
func (v *Validator) SetRegistry(known func(key string) bool) {
	v.registry = known
}

// Validate type-checks the tree and returns the full error list, or nil.
func Validate(expr Expr) error {
	return NewValidator().Validate(expr)
}

func (v *Validator) Validate(expr Expr) error {
	t := v.resolve(expr)

	switch t {
	case TypeTime, TypeDuration, TypeNumber, TypeInvalid:
	default:
		v.addError(&ResultTypeError{Location: expr.Loc(), Got: t})
	}

	if v.errs.HasErrors() {
		return v.errs
	}
	return nil
}

// Errors returns everything collected so far.
func (v *Validator) Errors() ErrorList {
	return v.errs
}

func (v *Validator) addError(err CompileError) {
	v.errs = append(v.errs, err)
}

// resolve infers and stamps the static type of expr, recording errors as it
// goes. TypeInvalid means an error was already reported below; callers skip
// secondary complaints about invalid operands to avoid cascades.
func (v *Validator) resolve(expr Expr) ValueType {
	if expr == nil {
		return TypeInvalid
	}

	t := v.resolveInner(expr)
	if n, ok := expr.(typed); ok {
		n.setType(t)
	}
	return t
}

func (v *Validator) resolveInner(expr Expr) ValueType {
	switch e := expr.(type) {
	case *BadExpr:
		v.addError(&SyntaxError{Location: e.Loc(), Message: e.Error})
		return TypeInvalid

	case *NumberLit:
		return TypeNumber
	case *DurationLit:
		return TypeDuration
	case *ClockTimeLit:
		return TypeTime
	case *DateLit:
		// Date literals compare against the date condition variable, which
		// is a day-of-year number
		return TypeNumber
	case *StringLit:
		return TypeString

	case *PrimitiveExpr:
		if !primitiveTable[e.Name] {
			v.addError(&TypeError{Location: e.Loc(), Message: fmt.Sprintf("unknown primitive: %s", e.Name)})
			return TypeInvalid
		}
		return TypeTime

	case *ReferenceExpr:
		if v.registry != nil && !v.registry(e.Key) {
			v.addError(&UndefinedReferenceError{Location: e.Loc(), Key: e.Key})
			return TypeInvalid
		}
		return TypeTime

	case *DirectionExpr:
		if !directionTable[e.Name] {
			v.addError(&TypeError{Location: e.Loc(), Message: fmt.Sprintf("unknown direction: %s", e.Name)})
			return TypeInvalid
		}
		return TypeDirection

	case *BaseExpr:
		return v.resolveBase(e)

	case *BinaryExpr:
		return v.resolveBinary(e)

	case *CompareExpr:
		return v.resolveCompare(e)

	case *LogicalExpr:
		t1 := v.resolve(e.Op1)
		t2 := v.resolve(e.Op2)
		if t1 != TypeBoolean && t1 != TypeInvalid {
			v.addError(&TypeError{Location: e.Loc(), Message: fmt.Sprintf("left side of %s must be boolean, got %s", e.Operation, t1)})
		}
		if t2 != TypeBoolean && t2 != TypeInvalid {
			v.addError(&TypeError{Location: e.Loc(), Message: fmt.Sprintf("right side of %s must be boolean, got %s", e.Operation, t2)})
		}
		return TypeBoolean

	case *NotExpr:
		if t := v.resolve(e.Operand); t != TypeBoolean && t != TypeInvalid {
			v.addError(&TypeError{Location: e.Loc(), Message: fmt.Sprintf("operand of ! must be boolean, got %s", t)})
		}
		return TypeBoolean

	case *CondVarExpr:
		switch e.Name {
		case "season":
			return TypeString
		case "day_length":
			return TypeDuration
		default:
			if !conditionVarTable[e.Name] {
				v.addError(&TypeError{Location: e.Loc(), Message: fmt.Sprintf("unknown condition variable: %s", e.Name)})
				return TypeInvalid
			}
			return TypeNumber
		}

	case *ConditionalExpr:
		return v.resolveConditional(e)

	case *CallExpr:
		return v.resolveCall(e)
	}

	v.addError(&TypeError{Location: expr.Loc(), Message: fmt.Sprintf("unknown expression %T", expr)})
	return TypeInvalid
}

func (v *Validator) resolveBase(e *BaseExpr) ValueType {
	if !baseKeywordTable[e.Name] {
		v.addError(&TypeError{Location: e.Loc(), Message: fmt.Sprintf("unknown base: %s", e.Name)})
		return TypeInvalid
	}

	if e.IsCustom() {
		if len(e.Custom) != 2 {
			v.addError(&ArityError{Location: e.Loc(), Name: "custom", Want: "2 (start, end)", Got: len(e.Custom)})
			return TypeBase
		}
		for i, arg := range e.Custom {
			if t := v.resolve(arg); t != TypeTime && t != TypeInvalid {
				v.addError(&TypeError{Location: arg.Loc(), Message: fmt.Sprintf("custom() argument %d must be a time, got %s", i+1, t)})
			}
		}
	}

	return TypeBase
}

func (v *Validator) resolveBinary(e *BinaryExpr) ValueType {
	t1 := v.resolve(e.Op1)
	t2 := v.resolve(e.Op2)

	if t1 == TypeInvalid || t2 == TypeInvalid {
		// Error already logged by the operand resolution
		return TypeInvalid
	}

	fail := func() ValueType {
		v.addError(&TypeError{
			Location: e.Loc(),
			Message:  fmt.Sprintf("operator %s not defined for %s and %s", e.Operation, t1, t2),
		})
		return TypeInvalid
	}

	switch e.Operation {
	case BinaryAddition:
		switch {
		case t1 == TypeTime && t2 == TypeDuration, t1 == TypeDuration && t2 == TypeTime:
			return TypeTime
		case t1 == TypeDuration && t2 == TypeDuration:
			return TypeDuration
		case t1 == TypeNumber && t2 == TypeNumber:
			return TypeNumber
		}
		return fail()

	case BinarySubtraction:
		switch {
		case t1 == TypeTime && t2 == TypeDuration:
			return TypeTime
		case t1 == TypeTime && t2 == TypeTime:
			return TypeDuration
		case t1 == TypeDuration && t2 == TypeDuration:
			return TypeDuration
		case t1 == TypeNumber && t2 == TypeNumber:
			return TypeNumber
		}
		return fail()

	case BinaryMultiplication:
		switch {
		case t1 == TypeDuration && t2 == TypeNumber, t1 == TypeNumber && t2 == TypeDuration:
			return TypeDuration
		case t1 == TypeNumber && t2 == TypeNumber:
			return TypeNumber
		}
		return fail()

	case BinaryDivision:
		switch {
		case t1 == TypeDuration && t2 == TypeNumber:
			return TypeDuration
		case t1 == TypeNumber && t2 == TypeNumber:
			return TypeNumber
		}
		return fail()
	}

	return fail()
}

func (v *Validator) resolveCompare(e *CompareExpr) ValueType {
	t1 := v.resolve(e.Op1)
	t2 := v.resolve(e.Op2)

	if t1 == TypeInvalid || t2 == TypeInvalid {
		return TypeBoolean
	}

	if t1 != t2 {
		v.addError(&TypeError{
			Location: e.Loc(),
			Message:  fmt.Sprintf("cannot compare %s and %s", t1, t2),
		})
		return TypeBoolean
	}

	switch t1 {
	case TypeNumber, TypeDuration, TypeTime:
	case TypeString:
		if e.Operation != CompareEqual && e.Operation != CompareNotEqual {
			v.addError(&TypeError{
				Location: e.Loc(),
				Message:  fmt.Sprintf("strings only support == and !=, got %s", e.Operation),
			})
		}
	default:
		v.addError(&TypeError{
			Location: e.Loc(),
			Message:  fmt.Sprintf("cannot compare %s values", t1),
		})
	}

	return TypeBoolean
}

func (v *Validator) resolveConditional(e *ConditionalExpr) ValueType {
	if t := v.resolve(e.Cond); t != TypeBoolean && t != TypeInvalid {
		v.addError(&TypeError{Location: e.Cond.Loc(), Message: fmt.Sprintf("condition must be boolean, got %s", t)})
	}

	thenType := v.resolve(e.Then)
	if e.Else == nil {
		return thenType
	}

	elseType := v.resolve(e.Else)
	if thenType == TypeInvalid || elseType == TypeInvalid {
		return TypeInvalid
	}

	if thenType != elseType {
		v.addError(&TypeError{
			Location: e.Loc(),
			Message:  fmt.Sprintf("conditional branches differ: %s and %s", thenType, elseType),
		})
		return TypeInvalid
	}

	return thenType
}

func (v *Validator) resolveCall(e *CallExpr) ValueType {
	sig, ok := signatureTable[e.Name]
	if !ok {
		v.addError(&UndefinedFunctionError{Location: e.Loc(), Name: e.Name})
		// Still resolve the arguments so their own problems get reported
		for _, arg := range e.Args {
			v.resolve(arg)
		}
		return TypeInvalid
	}

	if sig.variadic {
		if len(e.Args) < len(sig.params) {
			v.addError(&ArityError{Location: e.Loc(), Name: e.Name, Want: fmt.Sprintf("at least %d", len(sig.params)), Got: len(e.Args)})
			return sig.result
		}
	} else if len(e.Args) != len(sig.params) {
		v.addError(&ArityError{Location: e.Loc(), Name: e.Name, Want: fmt.Sprintf("%d", len(sig.params)), Got: len(e.Args)})
		return sig.result
	}

	for i, arg := range e.Args {
		var spec paramSpec
		if i < len(sig.params) {
			spec = sig.params[i]
		} else {
			spec = paramSpec{name: "argument", kind: paramAny}
		}
		v.checkParam(e, spec, arg)
	}

	if sig.resultOfFirst {
		return e.Args[0].Type()
	}
	return sig.result
}

func (v *Validator) checkParam(call *CallExpr, spec paramSpec, arg Expr) {
	switch spec.kind {
	case paramNumber:
		t := v.resolve(arg)
		if t != TypeNumber && t != TypeInvalid {
			v.addError(&TypeError{Location: arg.Loc(), Message: fmt.Sprintf("%s() %s must be a number, got %s", call.Name, spec.name, t)})
			return
		}
		if lit, ok := arg.(*NumberLit); ok {
			below := lit.Value < spec.min || (spec.minExclusive && lit.Value == spec.min)
			if below || lit.Value > spec.max {
				v.addError(&RangeError{Location: arg.Loc(), Name: call.Name, Param: spec.name, Want: spec.rangeDesc(), Got: lit.Value})
			}
		}

	case paramDirection:
		dir, ok := arg.(*DirectionExpr)
		if !ok {
			v.resolve(arg)
			v.addError(&DirectionSlotError{Location: arg.Loc(), Name: call.Name, Allowed: spec.directionList()})
			return
		}
		v.resolve(arg)
		if spec.directions != nil && !spec.directions[dir.Name] {
			v.addError(&DirectionSlotError{Location: arg.Loc(), Name: call.Name, Allowed: spec.directionList()})
		}

	case paramBase:
		// A base slot only ever holds a base literal or custom(start, end).
		// A bare @reference names a formula, not a day definition, and is
		// rejected outright.
		base, ok := arg.(*BaseExpr)
		if !ok {
			v.resolve(arg)
			v.addError(&BaseSlotError{Location: arg.Loc(), Name: call.Name})
			return
		}
		v.resolve(base)

	case paramTime:
		if t := v.resolve(arg); t != TypeTime && t != TypeInvalid {
			v.addError(&TypeError{Location: arg.Loc(), Message: fmt.Sprintf("%s() %s must be a time, got %s", call.Name, spec.name, t)})
		}

	case paramAny:
		v.resolve(arg)
	}
}
