package store

import (
	"log/slog"
	"time"

	"github.com/goliatone/go-store/pkg/activity"
)

// State is the mutable tree a store owns: string keys mapping to arbitrary
// values, nesting through map[string]any and []any.
type State = map[string]any

// EvalContext carries inputs needed when evaluating a getter expression.
type EvalContext struct {
	State    State
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	StoreID  string
}

func (ctx EvalContext) withDefaultNow() EvalContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx EvalContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx EvalContext) withDefaultMaps() EvalContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx EvalContext) storeLabel() string {
	if ctx.StoreID != "" {
		return ctx.StoreID
	}
	return "unknown"
}

func (ctx EvalContext) storeBinding() map[string]any {
	if ctx.StoreID == "" {
		return nil
	}
	return map[string]any{"id": ctx.StoreID}
}

// Evaluator executes getter expressions against an evaluation context.
type Evaluator interface {
	Evaluate(ctx EvalContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledExpr, error)
}

// CompiledExpr represents a reusable expression program.
type CompiledExpr interface {
	Evaluate(ctx EvalContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// RegistryOption configures a Registry at construction time.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	logger *slog.Logger
	hooks  activity.Hooks
}

// WithLogger configures the logger used for listener failures, plugin
// warnings, and persistence diagnostics.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(cfg *registryConfig) {
		cfg.logger = logger
	}
}

// WithActivityHooks attaches activity hooks notified on store lifecycle
// events. Hooks are cloned and nil entries dropped.
func WithActivityHooks(hooks activity.Hooks) RegistryOption {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *registryConfig) {
		cfg.hooks = normalized
	}
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.Hook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}

func applyRegistryOptions(opts []RegistryOption) registryConfig {
	cfg := registryConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// StoreOption configures a store definition.
type StoreOption func(*storeConfig)

type storeConfig struct {
	getters     map[string]GetterFunc
	exprGetters map[string]string
	actions     map[string]actionDef

	evaluator    Evaluator
	programCache ProgramCache
	functions    *FunctionRegistry
	evalLogger   EvaluatorLogger
}

type actionDef struct {
	fn          ActionFunc
	loadingFlag bool
}

// WithGetter registers a derived value computed by fn and cached until a
// tracked dependency changes.
func WithGetter(name string, fn GetterFunc) StoreOption {
	return func(cfg *storeConfig) {
		if name == "" || fn == nil {
			return
		}
		if cfg.getters == nil {
			cfg.getters = map[string]GetterFunc{}
		}
		cfg.getters[name] = fn
	}
}

// WithGetters registers every getter in the supplied map.
func WithGetters(getters map[string]GetterFunc) StoreOption {
	return func(cfg *storeConfig) {
		for name, fn := range getters {
			WithGetter(name, fn)(cfg)
		}
	}
}

// WithExprGetter registers a getter defined as an expression string,
// evaluated by the store's Evaluator against a state snapshot.
func WithExprGetter(name, expr string) StoreOption {
	return func(cfg *storeConfig) {
		if name == "" || expr == "" {
			return
		}
		if cfg.exprGetters == nil {
			cfg.exprGetters = map[string]string{}
		}
		cfg.exprGetters[name] = expr
	}
}

// ActionOption configures a single registered action.
type ActionOption func(*actionDef)

// ActionWithLoadingFlag makes dispatch maintain a "<name>Loading" state key
// while the action is in flight.
func ActionWithLoadingFlag() ActionOption {
	return func(def *actionDef) {
		def.loadingFlag = true
	}
}

// WithAction registers a named mutation routine.
func WithAction(name string, fn ActionFunc, opts ...ActionOption) StoreOption {
	return func(cfg *storeConfig) {
		if name == "" || fn == nil {
			return
		}
		def := actionDef{fn: fn}
		for _, opt := range opts {
			if opt != nil {
				opt(&def)
			}
		}
		if cfg.actions == nil {
			cfg.actions = map[string]actionDef{}
		}
		cfg.actions[name] = def
	}
}

// WithActions registers every action in the supplied map.
func WithActions(actions map[string]ActionFunc) StoreOption {
	return func(cfg *storeConfig) {
		for name, fn := range actions {
			WithAction(name, fn)(cfg)
		}
	}
}

// WithEvaluator configures the evaluator used for expression getters.
func WithEvaluator(e Evaluator) StoreOption {
	return func(cfg *storeConfig) {
		cfg.evaluator = e
	}
}

// WithEvaluatorLogger attaches an evaluator logger to the store.
func WithEvaluatorLogger(logger EvaluatorLogger) StoreOption {
	return func(cfg *storeConfig) {
		if logger == nil {
			cfg.evalLogger = noopEvaluatorLogger{}
			return
		}
		cfg.evalLogger = logger
	}
}

func applyStoreOptions(opts []StoreOption) storeConfig {
	cfg := storeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
