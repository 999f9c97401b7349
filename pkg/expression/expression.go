// Package expression implements a small, side-effect-free boolean expression
// language evaluated against a container execution context: field lookups
// such as $input.count or $vars.region, literals, comparisons and boolean
// combinators. Expressions are parsed once into an AST and interpreted with
// no ambient capability; workflow configuration is never compiled or
// executed as host-language source.
package expression

import (
	"errors"
	"fmt"
	"sync"
)

// EvalError reports a parse or evaluation failure. Evaluation is
// fail-closed: callers receive the error instead of a silent false.
type EvalError struct {
	Expression string
	Pos        int
	Err        error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("expression %q: %v (position %d)", e.Expression, e.Err, e.Pos)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// IsEvalError reports whether err is an expression evaluation error.
func IsEvalError(err error) bool {
	var evalErr *EvalError

	return errors.As(err, &evalErr)
}

// Compiled is a parsed expression, safe for concurrent evaluation.
type Compiled struct {
	source string
	root   node
}

// Source returns the original expression text.
func (c *Compiled) Source() string {
	return c.source
}

// Eval evaluates the expression against the given input payload and global
// variables, coercing the final value to a boolean.
func (c *Compiled) Eval(input any, variables map[string]any) (bool, error) {
	value, err := c.root.eval(&env{input: input, variables: variables})
	if err != nil {
		return false, &EvalError{Expression: c.source, Err: err}
	}

	result, err := truthy(value)
	if err != nil {
		return false, &EvalError{Expression: c.source, Err: err}
	}

	return result, nil
}

// Parse compiles an expression into its AST form.
func Parse(source string) (*Compiled, error) {
	p := newParser(source)

	root, err := p.parseExpression()
	if err != nil {
		return nil, &EvalError{Expression: source, Pos: p.pos(), Err: err}
	}

	if !p.atEOF() {
		return nil, &EvalError{Expression: source, Pos: p.pos(), Err: errTrailingInput}
	}

	return &Compiled{source: source, root: root}, nil
}

// Evaluate parses and evaluates an expression in one step.
func Evaluate(source string, input any, variables map[string]any) (bool, error) {
	compiled, err := Parse(source)
	if err != nil {
		return false, err
	}

	return compiled.Eval(input, variables)
}

// Evaluator caches compiled expressions by source text. It satisfies the
// condition evaluator contract consumed by the loop and conditional
// strategies.
type Evaluator struct {
	mu    sync.RWMutex
	cache map[string]*Compiled
}

// NewEvaluator creates an evaluator with an empty parse cache.
func NewEvaluator() *Evaluator {
	return &Evaluator{cache: make(map[string]*Compiled)}
}

// Evaluate compiles the expression (or reuses a cached parse) and evaluates
// it against the given input and variables.
func (e *Evaluator) Evaluate(source string, input any, variables map[string]any) (bool, error) {
	e.mu.RLock()
	compiled, ok := e.cache[source]
	e.mu.RUnlock()

	if !ok {
		var err error

		compiled, err = Parse(source)
		if err != nil {
			return false, err
		}

		e.mu.Lock()
		e.cache[source] = compiled
		e.mu.Unlock()
	}

	return compiled.Eval(input, variables)
}
