package engine

import (
	"fmt"
)

// Modifier is a resolved partial application of a named operator: it takes
// the old attribute value and produces the new one.
type Modifier func(old any) (any, error)

// ModifierSpec is the structured form of a modify_context_value modifier.
type ModifierSpec struct {
	Name   string         `json:"name"`
	Args   []any          `json:"args"`
	Kwargs map[string]any `json:"kwargs"`
}

// OperatorFunc applies a named operator to the old value with the
// ModifierSpec's resolved arguments.
type OperatorFunc func(old any, args []any, kwargs map[string]any) (any, error)

// operators is the named arithmetic/comparison operator registry consulted
// by modify_context_value. Read-only after init.
var operators = map[string]OperatorFunc{
	"add":      arithmeticOperator("add", func(a, b float64) float64 { return a + b }),
	"subtract": arithmeticOperator("subtract", func(a, b float64) float64 { return a - b }),
	"multiply": arithmeticOperator("multiply", func(a, b float64) float64 { return a * b }),
	"divide":   divideOperator,
	"min":      arithmeticOperator("min", func(a, b float64) float64 { return min(a, b) }),
	"max":      arithmeticOperator("max", func(a, b float64) float64 { return max(a, b) }),
	"concat":   concatOperator,

	"equal":            equalityOperator("equal", false),
	"not_equal":        equalityOperator("not_equal", true),
	"greater":          comparisonOperator("greater", func(c int) bool { return c > 0 }),
	"greater_or_equal": comparisonOperator("greater_or_equal", func(c int) bool { return c >= 0 }),
	"less":             comparisonOperator("less", func(c int) bool { return c < 0 }),
	"less_or_equal":    comparisonOperator("less_or_equal", func(c int) bool { return c <= 0 }),
}

// ResolveModifier turns a resolved modifier parameter into a Modifier. An
// integer is shorthand for "add N"; a map is decoded as a ModifierSpec and
// bound against the operator registry. Unknown operators fail loudly.
func (fx *FlowExecution) ResolveModifier(raw any) (Modifier, error) {
	if _, ok := asNumber(raw); ok {
		op := operators["add"]
		return func(old any) (any, error) {
			return op(old, []any{raw}, nil)
		}, nil
	}

	spec := ModifierSpec{}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, configError(CodeBadParameter, "modifier must be an integer or a {name, args, kwargs} map, got %T", raw)
	}
	if err := decodeParams(m, &spec); err != nil {
		return nil, configError(CodeBadParameter, "malformed modifier: %v", err)
	}
	op, ok := operators[spec.Name]
	if !ok {
		return nil, configError(CodeUnknownOperator, "unknown modifier operator %q", spec.Name)
	}
	return func(old any) (any, error) {
		return op(old, spec.Args, spec.Kwargs)
	}, nil
}

func arithmeticOperator(name string, apply func(a, b float64) float64) OperatorFunc {
	return func(old any, args []any, _ map[string]any) (any, error) {
		a, ok := asNumber(old)
		if !ok {
			return nil, configError(CodeBadParameter, "operator %q needs a numeric value, got %T", name, old)
		}
		b, err := singleNumericArg(name, args)
		if err != nil {
			return nil, err
		}
		return normalizeNumber(apply(a, b), old, args), nil
	}
}

func divideOperator(old any, args []any, _ map[string]any) (any, error) {
	a, ok := asNumber(old)
	if !ok {
		return nil, configError(CodeBadParameter, "operator \"divide\" needs a numeric value, got %T", old)
	}
	b, err := singleNumericArg("divide", args)
	if err != nil {
		return nil, err
	}
	if b == 0 {
		return nil, configError(CodeBadParameter, "division by zero")
	}
	return a / b, nil
}

func concatOperator(old any, args []any, _ map[string]any) (any, error) {
	s, ok := old.(string)
	if !ok {
		return nil, configError(CodeBadParameter, "operator \"concat\" needs a string value, got %T", old)
	}
	for _, arg := range args {
		s += fmt.Sprint(arg)
	}
	return s, nil
}

func equalityOperator(name string, negate bool) OperatorFunc {
	return func(old any, args []any, _ map[string]any) (any, error) {
		if len(args) != 1 {
			return nil, configError(CodeBadParameter, "operator %q takes exactly one argument, got %d", name, len(args))
		}
		eq := identityEqual(old, args[0])
		if negate {
			return !eq, nil
		}
		return eq, nil
	}
}

func comparisonOperator(name string, accept func(cmp int) bool) OperatorFunc {
	return func(old any, args []any, _ map[string]any) (any, error) {
		if len(args) != 1 {
			return nil, configError(CodeBadParameter, "operator %q takes exactly one argument, got %d", name, len(args))
		}
		cmp, err := compareValues(old, args[0])
		if err != nil {
			return nil, err
		}
		return accept(cmp), nil
	}
}

func singleNumericArg(name string, args []any) (float64, error) {
	if len(args) != 1 {
		return 0, configError(CodeBadParameter, "operator %q takes exactly one argument, got %d", name, len(args))
	}
	n, ok := asNumber(args[0])
	if !ok {
		return 0, configError(CodeBadParameter, "operator %q needs a numeric argument, got %T", name, args[0])
	}
	return n, nil
}

// asNumber coerces the numeric types YAML and JSON decoding produce.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

func isInteger(v any) bool {
	switch v.(type) {
	case int, int64:
		return true
	}
	return false
}

// normalizeNumber keeps integer arithmetic integral: when both operands were
// integers and the result is whole, return an int.
func normalizeNumber(result float64, old any, args []any) any {
	intOperands := isInteger(old)
	for _, a := range args {
		if !isInteger(a) {
			intOperands = false
		}
	}
	if intOperands && result == float64(int64(result)) {
		return int(result)
	}
	return result
}

// compareValues orders two values: numbers numerically, strings
// lexicographically, anything else by equality only.
func compareValues(a, b any) (int, error) {
	if na, ok := asNumber(a); ok {
		nb, ok := asNumber(b)
		if !ok {
			return 0, configError(CodeBadParameter, "cannot compare %T with %T", a, b)
		}
		switch {
		case na < nb:
			return -1, nil
		case na > nb:
			return 1, nil
		}
		return 0, nil
	}
	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		if !ok {
			return 0, configError(CodeBadParameter, "cannot compare %T with %T", a, b)
		}
		switch {
		case sa < sb:
			return -1, nil
		case sa > sb:
			return 1, nil
		}
		return 0, nil
	}
	if identityEqual(a, b) {
		return 0, nil
	}
	return 0, configError(CodeBadParameter, "cannot order values of type %T", a)
}
