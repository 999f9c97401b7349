package expression

import (
	"fmt"
	"strconv"
)

type env struct {
	input     any
	variables map[string]any
}

type node interface {
	eval(e *env) (any, error)
}

type literalNode struct {
	value any
}

func (n *literalNode) eval(_ *env) (any, error) {
	return n.value, nil
}

type pathNode struct {
	raw  string
	root string
	path []string
}

func (n *pathNode) eval(e *env) (any, error) {
	var current any

	switch n.root {
	case "input":
		current = e.input
	case "vars", "variables":
		current = e.variables
	default:
		return nil, fmt.Errorf("unknown path root %q (expected $input or $vars)", "$"+n.root)
	}

	for _, segment := range n.path {
		object, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("cannot resolve %q: %q is not an object", n.raw, segment)
		}

		// Missing keys resolve to null so equality checks against null
		// work; ordered comparisons against null fail.
		current = object[segment]
	}

	return current, nil
}

type unaryNode struct {
	op      string
	operand node
}

func (n *unaryNode) eval(e *env) (any, error) {
	value, err := n.operand.eval(e)
	if err != nil {
		return nil, err
	}

	result, err := truthy(value)
	if err != nil {
		return nil, err
	}

	return !result, nil
}

type binaryNode struct {
	op    string
	left  node
	right node
}

func (n *binaryNode) eval(e *env) (any, error) {
	left, err := n.left.eval(e)
	if err != nil {
		return nil, err
	}

	// Boolean combinators short-circuit.
	if n.op == "&&" || n.op == "||" {
		leftTruthy, err := truthy(left)
		if err != nil {
			return nil, err
		}

		if n.op == "&&" && !leftTruthy {
			return false, nil
		}

		if n.op == "||" && leftTruthy {
			return true, nil
		}

		right, err := n.right.eval(e)
		if err != nil {
			return nil, err
		}

		return truthy(right)
	}

	right, err := n.right.eval(e)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case "==":
		equal, err := looseEqual(left, right)

		return equal, err
	case "!=":
		equal, err := looseEqual(left, right)

		return !equal, err
	case "<", "<=", ">", ">=":
		return compareOrdered(n.op, left, right)
	default:
		return nil, fmt.Errorf("unsupported operator %q", n.op)
	}
}

func looseEqual(left, right any) (bool, error) {
	if left == nil || right == nil {
		return left == nil && right == nil, nil
	}

	leftNum, leftOK := toFloat(left)
	rightNum, rightOK := toFloat(right)

	if leftOK && rightOK {
		return leftNum == rightNum, nil
	}

	switch l := left.(type) {
	case string:
		r, ok := right.(string)

		return ok && l == r, nil
	case bool:
		r, ok := right.(bool)

		return ok && l == r, nil
	}

	return false, fmt.Errorf("cannot compare %T with %T", left, right)
}

func compareOrdered(op string, left, right any) (bool, error) {
	leftNum, leftOK := toFloat(left)
	rightNum, rightOK := toFloat(right)

	if leftOK && rightOK {
		return applyOrdered(op, leftNum, rightNum), nil
	}

	leftStr, leftIsStr := left.(string)
	rightStr, rightIsStr := right.(string)

	if leftIsStr && rightIsStr {
		switch op {
		case "<":
			return leftStr < rightStr, nil
		case "<=":
			return leftStr <= rightStr, nil
		case ">":
			return leftStr > rightStr, nil
		default:
			return leftStr >= rightStr, nil
		}
	}

	return false, fmt.Errorf("cannot order %T %s %T", left, op, right)
}

func applyOrdered(op string, left, right float64) bool {
	switch op {
	case "<":
		return left < right
	case "<=":
		return left <= right
	case ">":
		return left > right
	default:
		return left >= right
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// truthy coerces an expression value to a boolean. Unknown types are an
// error rather than a silent false.
func truthy(value any) (bool, error) {
	switch v := value.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed, nil
		}

		return v != "", nil
	case []any:
		return len(v) > 0, nil
	case map[string]any:
		return len(v) > 0, nil
	default:
		if number, ok := toFloat(value); ok {
			return number != 0, nil
		}

		return false, fmt.Errorf("cannot convert %T to boolean", value)
	}
}
