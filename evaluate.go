package store

import (
	"fmt"
	"time"
)

// evaluateExprGetter computes an expression-backed getter. Engines cannot
// report which paths an expression read, so tracking is coarse: the entry
// depends on every top-level key present at compute time and on the key
// set itself, so an expression referencing a key that appears later still
// recomputes. Over-tracking is safe; it can only cause an extra recompute,
// never a stale read.
func (s *Store) evaluateExprGetter(entry *getterEntry, ctx *GetterContext) (any, error) {
	evaluator, err := s.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	ctx.coarse = true
	for key := range s.state {
		ctx.tracked[key] = struct{}{}
	}
	evalCtx := EvalContext{
		State:   s.GetState(),
		StoreID: s.id,
	}.withDefaultNow().withDefaultMaps()

	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(evalCtx, entry.expr)
	duration := time.Since(start)
	evalErr = wrapEvaluationError(engine, entry.expr, s.id, evalErr)
	s.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     entry.expr,
		StoreID:  s.id,
		Duration: duration,
		Err:      evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}

func (s *Store) resolveEvaluator() (Evaluator, error) {
	if s.evaluator != nil {
		return s.evaluator, nil
	}
	var exprOpts []ExprEvaluatorOption
	if s.programCache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(s.programCache))
	}
	if s.functions != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(s.functions))
	}
	defaultEvaluator := NewExprEvaluator(exprOpts...)
	if defaultEvaluator == nil {
		return nil, ErrNoEvaluator
	}
	s.evaluator = defaultEvaluator
	return defaultEvaluator, nil
}

func (s *Store) evaluatorLogger() EvaluatorLogger {
	if s.evalLogger != nil {
		return s.evalLogger
	}
	return noopEvaluatorLogger{}
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*store.exprEvaluator":
		return "expr"
	case "*store.celEvaluator":
		return "cel"
	case "*store.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}
