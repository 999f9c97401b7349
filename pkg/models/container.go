// Package models defines the core data model for container execution:
// container configurations, execution contexts, run state and results.
package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ContainerType identifies the control-flow strategy a container executes.
type ContainerType string

const (
	ContainerTypeLoop        ContainerType = "loop"
	ContainerTypeParallel    ContainerType = "parallel"
	ContainerTypeConditional ContainerType = "conditional"
	ContainerTypeTryCatch    ContainerType = "try-catch"
	ContainerTypeBatch       ContainerType = "batch"
)

// ParallelStrategy selects how the parallel container shapes its output
// after all workers finish.
type ParallelStrategy string

const (
	// ParallelStrategyAll returns every child result.
	ParallelStrategyAll ParallelStrategy = "all"
	// ParallelStrategyAny returns only the successful child results.
	ParallelStrategyAny ParallelStrategy = "any"
	// ParallelStrategyRace returns at most the first successful result,
	// by dispatch completion order.
	ParallelStrategyRace ParallelStrategy = "race"
)

// ErrorHandling is the try-catch container's policy for converting child
// failures into a container-level outcome.
type ErrorHandling string

const (
	// ErrorHandlingRetry re-attempts the whole child set.
	ErrorHandlingRetry ErrorHandling = "retry"
	// ErrorHandlingContinue treats partial results as success while still
	// surfacing captured errors.
	ErrorHandlingContinue ErrorHandling = "continue"
	// ErrorHandlingStop propagates the first captured error.
	ErrorHandlingStop ErrorHandling = "stop"
)

const (
	// DefaultMaxConcurrency bounds parallel workers when not configured.
	DefaultMaxConcurrency = 5
	// DefaultBatchSize partitions batch input when not configured.
	DefaultBatchSize = 10
	// DefaultRetryAttempts is the try-catch retry budget when not configured.
	DefaultRetryAttempts = 3
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Static validation errors.
var (
	ErrMissingConditionalConfig = errors.New("conditional container requires a conditional config with an expression")
	ErrConfigTypeMismatch       = errors.New("execution config does not match container type")
)

// LoopConfig configures the loop container. A zero Count together with an
// empty While expression runs a single iteration.
type LoopConfig struct {
	// Count is the fixed iteration bound. Zero means unbounded when While
	// is set.
	Count int `json:"count,omitempty"    validate:"omitempty,min=1"`

	// While is re-evaluated after each iteration completes; the loop stops
	// when it is false.
	While string `json:"while,omitempty"`

	// DelayMs suspends between iterations (skipped after the last).
	DelayMs int64 `json:"delay_ms,omitempty" validate:"omitempty,min=0"`
}

// Delay returns the configured inter-iteration delay.
func (c *LoopConfig) Delay() time.Duration {
	return time.Duration(c.DelayMs) * time.Millisecond
}

// ParallelConfig configures the parallel container.
type ParallelConfig struct {
	MaxConcurrency int              `json:"max_concurrency,omitempty" validate:"omitempty,min=1"`
	Strategy       ParallelStrategy `json:"strategy,omitempty"        validate:"omitempty,oneof=all any race"`
}

// Concurrency returns the effective worker bound.
func (c *ParallelConfig) Concurrency() int {
	if c == nil || c.MaxConcurrency <= 0 {
		return DefaultMaxConcurrency
	}

	return c.MaxConcurrency
}

// ResultStrategy returns the effective output strategy.
func (c *ParallelConfig) ResultStrategy() ParallelStrategy {
	if c == nil || c.Strategy == "" {
		return ParallelStrategyAll
	}

	return c.Strategy
}

// ConditionalConfig configures the conditional container.
type ConditionalConfig struct {
	// Expression is evaluated against the execution context's input and
	// variables. A false result skips the children with success.
	Expression string `json:"expression" validate:"required"`
}

// TryCatchConfig configures the try-catch container.
type TryCatchConfig struct {
	ErrorHandling ErrorHandling `json:"error_handling,omitempty" validate:"omitempty,oneof=retry continue stop"`

	// RetryAttempts bounds full child-set re-attempts for the retry policy.
	RetryAttempts int `json:"retry_attempts,omitempty" validate:"omitempty,min=1"`

	// RetryDelayMs is the base delay between attempts.
	RetryDelayMs int64 `json:"retry_delay_ms,omitempty" validate:"omitempty,min=0"`

	// ExponentialBackoff multiplies the delay by 2^(attempt-1) when set.
	ExponentialBackoff bool `json:"exponential_backoff,omitempty"`
}

// Policy returns the effective error handling policy.
func (c *TryCatchConfig) Policy() ErrorHandling {
	if c == nil || c.ErrorHandling == "" {
		return ErrorHandlingStop
	}

	return c.ErrorHandling
}

// Attempts returns the effective retry budget, including the first attempt.
func (c *TryCatchConfig) Attempts() int {
	if c == nil || c.RetryAttempts <= 0 {
		return DefaultRetryAttempts
	}

	return c.RetryAttempts
}

// RetryDelay returns the base delay between retry attempts.
func (c *TryCatchConfig) RetryDelay() time.Duration {
	if c == nil {
		return 0
	}

	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// BatchConfig configures the batch container.
type BatchConfig struct {
	Size    int   `json:"size,omitempty"     validate:"omitempty,min=1"`
	DelayMs int64 `json:"delay_ms,omitempty" validate:"omitempty,min=0"`
}

// EffectiveSize returns the configured batch size or the default.
func (c *BatchConfig) EffectiveSize() int {
	if c == nil || c.Size <= 0 {
		return DefaultBatchSize
	}

	return c.Size
}

// Delay returns the configured inter-batch delay.
func (c *BatchConfig) Delay() time.Duration {
	if c == nil {
		return 0
	}

	return time.Duration(c.DelayMs) * time.Millisecond
}

// ContainerConfig is the immutable description of a container node. It is
// created once per workflow definition and read-only during execution.
type ContainerConfig struct {
	ID string `json:"id" validate:"required"`

	// Type is not constrained to the known strategies here. The executor
	// owns the strategy table and reports unsupported types through its
	// run lifecycle so subscribers see a terminal failure.
	Type ContainerType `json:"type" validate:"required"`

	// Children are executed in declaration order by the loop, conditional,
	// try-catch and batch containers; the parallel container dispatches
	// them without a completion-order guarantee.
	Children []string `json:"children" validate:"required,min=1,dive,required"`

	Loop        *LoopConfig        `json:"loop,omitempty"`
	Parallel    *ParallelConfig    `json:"parallel,omitempty"`
	Conditional *ConditionalConfig `json:"conditional,omitempty"`
	TryCatch    *TryCatchConfig    `json:"try_catch,omitempty"`
	Batch       *BatchConfig       `json:"batch,omitempty"`
}

// Validate checks structural validity and that the execution config variant
// matches the container type.
func (c *ContainerConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid container config: %w", err)
	}

	if c.Type == ContainerTypeConditional {
		if c.Conditional == nil || c.Conditional.Expression == "" {
			return ErrMissingConditionalConfig
		}
	}

	for _, mismatch := range []struct {
		set bool
		t   ContainerType
	}{
		{c.Loop != nil, ContainerTypeLoop},
		{c.Parallel != nil, ContainerTypeParallel},
		{c.Conditional != nil, ContainerTypeConditional},
		{c.TryCatch != nil, ContainerTypeTryCatch},
		{c.Batch != nil, ContainerTypeBatch},
	} {
		if mismatch.set && c.Type != mismatch.t {
			return fmt.Errorf("%w: %s config on %s container", ErrConfigTypeMismatch, mismatch.t, c.Type)
		}
	}

	return nil
}
