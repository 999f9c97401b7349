package executor

import (
	"context"

	"github.com/reporunner/containerflow/pkg/models"
)

// runBatch splits the execution context's input into fixed-size chunks and
// runs the children once per chunk, sequentially, each pass seeing only its
// slice plus batch position metadata. A non-sequence input is treated as a
// single-element sequence; a nil input yields zero batches.
func (e *Executor) runBatch(ctx context.Context, rs *runState) (*strategyOutcome, error) {
	cfg := rs.config.Batch

	items := coerceSequence(rs.execCtx.Input)
	size := cfg.EffectiveSize()
	totalBatches := (len(items) + size - 1) / size

	outcome := &strategyOutcome{output: []any{}}

	for index := 0; index < totalBatches; index++ {
		if rs.paused() || ctx.Err() != nil {
			break
		}

		start := index * size

		end := start + size
		if end > len(items) {
			end = len(items)
		}

		rs.beginBatch(index, totalBatches, size)

		outcome.iterations = index + 1

		batchCtx := rs.execCtx.Derive(items[start:end], map[string]any{
			models.VarBatchIndex:   index,
			models.VarBatchSize:    size,
			models.VarTotalBatches: totalBatches,
		})

		outputs, errs := rs.runChildren(ctx, batchCtx)
		outcome.output = append(outcome.output, outputs...)
		outcome.errors = append(outcome.errors, errs...)

		if index < totalBatches-1 {
			if err := rs.delay(ctx, cfg.Delay()); err != nil {
				outcome.errors = append(outcome.errors, err.Error())
				break
			}
		}
	}

	outcome.success = len(outcome.errors) == 0

	return outcome, nil
}

// coerceSequence normalizes the batch input into a slice of items.
func coerceSequence(input any) []any {
	switch v := input.(type) {
	case nil:
		return nil
	case []any:
		return v
	default:
		return []any{v}
	}
}
