package zmanim

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Formula is a compiled formula: its source, its validated tree and the
// reference keys it depends on. Compilation is date-independent, so a
// Formula can be cached and evaluated against many contexts concurrently.
type Formula struct {
	Source string
	Deps   []string

	tree Expr
}

// Compile parses and validates a standalone formula.
func Compile(src string) (*Formula, error) {
	return compileFormula(src, nil)
}

func compileFormula(src string, known func(string) bool) (*Formula, error) {
	tree := Parse(src)

	v := NewValidator()
	if known != nil {
		v.SetRegistry(known)
	}
	if err := v.Validate(tree); err != nil {
		return nil, err
	}

	return &Formula{Source: src, Deps: references(tree), tree: tree}, nil
}

// Eval computes a standalone formula. References cannot resolve without a
// set and fail at evaluation time.
func (f *Formula) Eval(ctx *EvalContext, opts ...Option) (Value, error) {
	cfg := newConfig(opts)
	return newEvaluator(ctx, nil, cfg.anchor).Eval(f.tree)
}

// SetError tags a compile failure with the formula key it came from.
type SetError struct {
	Key string
	Err error
}

func (e *SetError) Error() string {
	return fmt.Sprintf("%s: %v", e.Key, e.Err)
}

func (e *SetError) Unwrap() error {
	return e.Err
}

// FormulaSet is a compiled, keyed set of formulas whose references resolve
// against each other. Construction rejects dependency cycles outright, so
// evaluation can always terminate.
type FormulaSet struct {
	formulas map[string]*Formula
	cfg      config
}

// CompileSet compiles every formula in src, validating references against
// the whole set (plus any configured registry) and checking for cycles.
// Failures across the set are reported together, keyed by formula.
func CompileSet(src map[string]string, opts ...Option) (*FormulaSet, error) {
	cfg := newConfig(opts)

	known := func(key string) bool {
		if _, ok := src[key]; ok {
			return true
		}
		return cfg.registry != nil && cfg.registry(key)
	}

	compiled := make(map[string]*Formula, len(src))
	var failures []error
	for key, formula := range src {
		f, err := compileFormula(formula, known)
		if err != nil {
			failures = append(failures, &SetError{Key: key, Err: err})
			continue
		}
		compiled[key] = f
	}
	if len(failures) > 0 {
		sort.Slice(failures, func(i, j int) bool {
			return failures[i].(*SetError).Key < failures[j].(*SetError).Key
		})
		return nil, errors.Join(failures...)
	}

	if err := detectCycle(compiled); err != nil {
		return nil, err
	}

	return &FormulaSet{formulas: compiled, cfg: cfg}, nil
}

// detectCycle runs Kahn's algorithm over the in-set dependency edges. Keys
// left unresolved when the queue drains are exactly the ones on cycles.
func detectCycle(formulas map[string]*Formula) error {
	pending := make(map[string]int, len(formulas))
	dependents := make(map[string][]string)
	for key, f := range formulas {
		for _, dep := range f.Deps {
			if _, ok := formulas[dep]; !ok {
				continue
			}
			pending[key]++
			dependents[dep] = append(dependents[dep], key)
		}
	}

	var queue []string
	for key := range formulas {
		if pending[key] == 0 {
			queue = append(queue, key)
		}
	}

	resolved := 0
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		resolved++
		for _, dependent := range dependents[key] {
			pending[dependent]--
			if pending[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if resolved == len(formulas) {
		return nil
	}

	var chain []string
	for key, n := range pending {
		if n > 0 {
			chain = append(chain, key)
		}
	}
	sort.Strings(chain)
	return &CircularReferenceError{Chain: chain}
}

// Keys returns the formula keys in sorted order.
func (s *FormulaSet) Keys() []string {
	keys := make([]string, 0, len(s.formulas))
	for key := range s.formulas {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the compiled formula for a key.
func (s *FormulaSet) Get(key string) (*Formula, bool) {
	f, ok := s.formulas[key]
	return f, ok
}

// Evaluate computes one formula of the set, resolving its references
// through the set with per-context memoization.
func (s *FormulaSet) Evaluate(key string, ctx *EvalContext) (Value, error) {
	f, ok := s.formulas[key]
	if !ok {
		return Value{}, fmt.Errorf("unknown formula: %s", key)
	}
	return newEvaluator(ctx, s, s.cfg.anchor).Eval(f.tree)
}

// Results holds one batch evaluation's outcomes: a value or an error per
// key, never both.
type Results struct {
	Values map[string]Value
	Errors map[string]error
}

// EvaluateAll computes every formula in the set against one context in
// parallel. Shared references and crossings are computed once. A failing
// formula is logged and recorded; it never aborts its siblings.
func (s *FormulaSet) EvaluateAll(ctx *EvalContext) *Results {
	res := &Results{
		Values: make(map[string]Value, len(s.formulas)),
		Errors: make(map[string]error),
	}

	var mu sync.Mutex
	var group errgroup.Group
	for key, f := range s.formulas {
		key, f := key, f
		group.Go(func() error {
			v, err := newEvaluator(ctx, s, s.cfg.anchor).Eval(f.tree)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.cfg.logger.Warn("formula evaluation failed",
					"key", key, "formula", f.Source, "error", err)
				res.Errors[key] = err
				return nil
			}
			res.Values[key] = v
			return nil
		})
	}
	_ = group.Wait()

	return res
}
