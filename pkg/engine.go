package zmanim

import (
	"log/slog"
	"time"
)

type config struct {
	anchor   time.Duration
	logger   *slog.Logger
	registry func(key string) bool
}

// Option adjusts how formulas are compiled and evaluated.
type Option func(*config)

// WithEveningAnchor sets the offset after sunset that closes the
// ateret_torah day.
func WithEveningAnchor(d time.Duration) Option {
	return func(c *config) {
		c.anchor = d
	}
}

// WithLogger routes batch-evaluation warnings to the given logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithRegistry supplies an external key-existence lookup, letting a formula
// reference keys that live outside the set being compiled.
func WithRegistry(known func(key string) bool) Option {
	return func(c *config) {
		c.registry = known
	}
}

func newConfig(opts []Option) config {
	cfg := config{
		anchor: DefaultEveningAnchor,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Engine compiles and evaluates formulas under one fixed set of options.
type Engine struct {
	cfg  config
	opts []Option
}

func NewEngine(opts ...Option) *Engine {
	return &Engine{cfg: newConfig(opts), opts: opts}
}

// Compile parses and validates one formula, checking references against the
// engine's registry when one is configured.
func (e *Engine) Compile(src string) (*Formula, error) {
	return compileFormula(src, e.cfg.registry)
}

// CompileSet compiles a keyed set of formulas under the engine's options.
func (e *Engine) CompileSet(src map[string]string) (*FormulaSet, error) {
	return CompileSet(src, e.opts...)
}

// Evaluate compiles and evaluates one standalone formula against a context.
func (e *Engine) Evaluate(src string, ctx *EvalContext) (Value, error) {
	f, err := e.Compile(src)
	if err != nil {
		return Value{}, err
	}
	return newEvaluator(ctx, nil, e.cfg.anchor).Eval(f.tree)
}
