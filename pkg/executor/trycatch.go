package executor

import (
	"context"

	"github.com/reporunner/containerflow/pkg/models"
)

// runTryCatch executes the children once and applies the configured error
// handling when any of them fail. The retry policy re-runs the whole child
// set with an optional exponentially growing delay; continue swallows the
// failures; stop reports them. Errors from every attempt are preserved but
// the output reflects only the final attempt.
func (e *Executor) runTryCatch(ctx context.Context, rs *runState) (*strategyOutcome, error) {
	cfg := rs.config.TryCatch
	policy := cfg.Policy()

	attempts := 1
	if policy == models.ErrorHandlingRetry {
		attempts = cfg.Attempts()
	}

	outcome := &strategyOutcome{output: []any{}}

	var lastOutputs []any

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := cfg.RetryDelay()
			if cfg.ExponentialBackoff {
				// First retry waits the base delay, each further retry
				// doubles it.
				delay <<= attempt - 2
			}

			if err := rs.delay(ctx, delay); err != nil {
				outcome.errors = append(outcome.errors, err.Error())
				break
			}
		}

		if rs.paused() {
			break
		}

		rs.beginIteration(attempt, attempts)

		outcome.iterations = attempt

		outputs, errs := rs.runChildren(ctx, rs.execCtx)
		lastOutputs = outputs

		if len(errs) == 0 {
			outcome.output = outputs
			outcome.success = true

			return outcome, nil
		}

		outcome.errors = append(outcome.errors, errs...)

		if ctx.Err() != nil {
			break
		}
	}

	outcome.output = lastOutputs
	outcome.success = policy == models.ErrorHandlingContinue

	if outcome.success {
		rs.logger.Warn("Children failed, continuing per error handling policy",
			"errors", len(outcome.errors),
		)
	}

	return outcome, nil
}
