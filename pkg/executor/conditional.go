package executor

import (
	"context"
	"fmt"
)

// runConditional evaluates the configured expression against the execution
// context and runs the children only when it holds. A false condition is a
// successful no-op with zero dispatches; an evaluation failure fails the
// container rather than silently picking a branch.
func (e *Executor) runConditional(ctx context.Context, rs *runState) (*strategyOutcome, error) {
	cfg := rs.config.Conditional

	pass, err := e.evaluator.Evaluate(cfg.Expression, rs.execCtx.Input, rs.execCtx.Variables)
	if err != nil {
		return nil, fmt.Errorf("conditional expression %q: %w", cfg.Expression, err)
	}

	outcome := &strategyOutcome{output: []any{}, iterations: 1}

	if !pass {
		rs.logger.Debug("Condition evaluated false, skipping children", "expression", cfg.Expression)

		outcome.success = true

		return outcome, nil
	}

	outputs, errs := rs.runChildren(ctx, rs.execCtx)
	outcome.output = append(outcome.output, outputs...)
	outcome.errors = errs
	outcome.success = len(errs) == 0

	return outcome, nil
}
