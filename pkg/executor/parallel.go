package executor

import (
	"context"
	"sync"

	"github.com/reporunner/containerflow/pkg/limiter"
	"github.com/reporunner/containerflow/pkg/models"
)

// childCompletion records one finished child in completion order.
type childCompletion struct {
	childID string
	output  any
	err     error
}

// runParallel dispatches every child concurrently, bounded by the
// configured concurrency limit, then shapes the result per the configured
// strategy: all keeps every success, any keeps the successes, race keeps
// only the first success. Results are ordered by completion, not by
// declaration.
func (e *Executor) runParallel(ctx context.Context, rs *runState) (*strategyOutcome, error) {
	cfg := rs.config.Parallel

	lim := limiter.New(cfg.Concurrency())

	var (
		mu          sync.Mutex
		completions []childCompletion
	)

	lim.Run(ctx, rs.config.Children, func(ctx context.Context, childID string) {
		output, err := rs.dispatchChild(ctx, rs.execCtx, childID)

		mu.Lock()
		completions = append(completions, childCompletion{childID: childID, output: output, err: err})
		mu.Unlock()
	})

	outcome := &strategyOutcome{output: []any{}, iterations: 1}

	successes := 0

	for _, completion := range completions {
		if completion.err != nil {
			outcome.errors = append(outcome.errors, completion.err.Error())
			continue
		}

		successes++

		switch cfg.ResultStrategy() {
		case models.ParallelStrategyRace:
			if successes == 1 {
				outcome.output = append(outcome.output, completion.output)
			}
		default:
			outcome.output = append(outcome.output, completion.output)
		}
	}

	switch cfg.ResultStrategy() {
	case models.ParallelStrategyAll:
		outcome.success = len(outcome.errors) == 0
	case models.ParallelStrategyAny, models.ParallelStrategyRace:
		// With zero successful children there is nothing to report, so the
		// container counts as failed.
		outcome.success = successes > 0
	}

	return outcome, nil
}
