package protocol

// ConditionEvaluator is the expression evaluation contract consumed by the
// loop (while-condition) and conditional strategies. Evaluate must be
// side-effect-free and bounded in execution time, and must fail with an
// error rather than silently defaulting: the engine treats evaluator
// failures as fail-closed.
type ConditionEvaluator interface {
	Evaluate(expression string, input any, variables map[string]any) (bool, error)
}
