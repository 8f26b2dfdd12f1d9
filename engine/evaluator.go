package engine

import (
	"github.com/expr-lang/expr"
)

// Eval compiles and runs an expression against the given environment.
// Undefined variables evaluate to nil rather than failing compilation, so
// filters over sparse event data stay permissive.
func Eval(expression string, env map[string]any) (any, error) {
	if env == nil {
		env = map[string]any{}
	}
	program, err := expr.Compile(expression,
		expr.Env(env),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, configError(CodeBadParameter, "invalid expression %q: %v", expression, err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return nil, configError(CodeBadParameter, "expression %q failed: %v", expression, err)
	}
	return out, nil
}

// EvalBool evaluates a guard expression; a non-boolean result is a
// configuration error.
func EvalBool(expression string, env map[string]any) (bool, error) {
	out, err := Eval(expression, env)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, configError(CodeBadParameter, "expression %q evaluated to %T, expected boolean", expression, out)
	}
	return b, nil
}
