package executor

import (
	"context"
	"fmt"

	"github.com/reporunner/containerflow/pkg/models"
)

// runLoop executes the children sequentially for a fixed count, while a
// condition holds, or both. Each iteration derives a fresh execution
// context carrying the 1-based iteration number. With neither count nor
// while configured the loop runs a single pass.
func (e *Executor) runLoop(ctx context.Context, rs *runState) (*strategyOutcome, error) {
	cfg := rs.config.Loop
	if cfg == nil {
		cfg = &models.LoopConfig{}
	}

	total := cfg.Count
	if cfg.Count == 0 && cfg.While == "" {
		total = 1
	}

	outcome := &strategyOutcome{output: []any{}}

	for iteration := 1; total == 0 || iteration <= total; iteration++ {
		if rs.paused() || ctx.Err() != nil {
			break
		}

		rs.beginIteration(iteration, total)

		outcome.iterations = iteration

		iterCtx := rs.execCtx.Derive(rs.execCtx.Input, map[string]any{
			models.VarCurrentIteration: iteration,
		})

		outputs, errs := rs.runChildren(ctx, iterCtx)
		outcome.output = append(outcome.output, outputs...)
		outcome.errors = append(outcome.errors, errs...)

		if cfg.While != "" {
			keep, err := e.evaluator.Evaluate(cfg.While, iterCtx.Input, iterCtx.Variables)
			if err != nil {
				return outcome, fmt.Errorf("loop condition %q: %w", cfg.While, err)
			}

			if !keep {
				break
			}
		}

		last := total > 0 && iteration == total
		if !last {
			if err := rs.delay(ctx, cfg.Delay()); err != nil {
				outcome.errors = append(outcome.errors, err.Error())
				break
			}
		}
	}

	outcome.success = len(outcome.errors) == 0

	return outcome, nil
}
