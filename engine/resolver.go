package engine

import (
	"strings"
)

// Variable reference syntaxes supported in step parameters:
//
//	$name, $name.attr  live binding into the variable mapping
//	@alias, @alias.attr  the aliased object's scene state via ContextData
//
// Resolution never silently yields nil for a missing name or attribute;
// configuration bugs must surface loudly.

// ResolveValue resolves one parameter value: strings are checked for
// reference syntax, maps and slices resolve recursively, and everything
// else passes through as a literal. Resolution is read-only: resolving the
// same reference twice yields the same value.
func (fx *FlowExecution) ResolveValue(v any) (any, error) {
	switch val := v.(type) {
	case string:
		if strings.HasPrefix(val, "$") || strings.HasPrefix(val, "@") {
			return fx.resolveReference(val)
		}
		return val, nil
	case map[string]any:
		resolved := make(map[string]any, len(val))
		for k, nested := range val {
			r, err := fx.ResolveValue(nested)
			if err != nil {
				return nil, err
			}
			resolved[k] = r
		}
		return resolved, nil
	case []any:
		resolved := make([]any, len(val))
		for i, nested := range val {
			r, err := fx.ResolveValue(nested)
			if err != nil {
				return nil, err
			}
			resolved[i] = r
		}
		return resolved, nil
	}
	return v, nil
}

func (fx *FlowExecution) resolveReference(ref string) (any, error) {
	sigil, rest := ref[:1], ref[1:]
	name, path, hasPath := strings.Cut(rest, ".")
	if name == "" {
		return nil, configError(CodeBadParameter, "malformed reference %q", ref)
	}

	var base any
	switch sigil {
	case "$":
		v, ok := fx.Var(name)
		if !ok {
			return nil, referenceError(CodeMissingVariable, "variable %q is not bound", name)
		}
		base = v
	case "@":
		st, err := fx.aliasState(name)
		if err != nil {
			return nil, err
		}
		base = st
	}

	if !hasPath {
		return base, nil
	}
	return fx.resolveAttrPath(ref, base, path)
}

// aliasState resolves a caller-level alias to the scene state of the object
// it names.
func (fx *FlowExecution) aliasState(alias string) (*State, error) {
	v, ok := fx.Var(alias)
	if !ok {
		return nil, referenceError(CodeMissingVariable, "alias %q is not bound", alias)
	}
	if st, ok := v.(*State); ok {
		return st, nil
	}
	id, ok := identityKey(v)
	if !ok {
		if s, isString := v.(string); isString {
			id = s
		} else {
			return nil, referenceError(CodeMissingVariable, "alias %q does not name an object (got %T)", alias, v)
		}
	}
	st, ok := fx.Context.StateByID(id)
	if !ok {
		return nil, referenceError(CodeObjectNotFound, "alias %q names unknown object %q", alias, id)
	}
	return st, nil
}

// resolveAttrPath walks the dotted remainder of a reference. States resolve
// the whole remainder through their attribute layering; maps are walked one
// segment at a time.
func (fx *FlowExecution) resolveAttrPath(ref string, base any, path string) (any, error) {
	if st, ok := base.(*State); ok {
		v, ok := st.Attr(path)
		if !ok {
			return nil, referenceError(CodeMissingAttribute, "%q: object %s has no attribute %q", ref, st.Identity(), path)
		}
		return v, nil
	}

	cur := base
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case *State:
			v, ok := node.Attr(part)
			if !ok {
				return nil, referenceError(CodeMissingAttribute, "%q: object %s has no attribute %q", ref, node.Identity(), part)
			}
			cur = v
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, referenceError(CodeMissingAttribute, "%q: missing key %q", ref, part)
			}
			cur = v
		default:
			return nil, referenceError(CodeMissingAttribute, "%q: cannot read %q from %T", ref, part, cur)
		}
	}
	return cur, nil
}

// resolveParam resolves a named step parameter, failing when absent.
func (fx *FlowExecution) resolveParam(step *FlowStepDefinition, key string) (any, error) {
	raw, ok := step.Parameters[key]
	if !ok {
		return nil, configError(CodeBadParameter, "action %q requires parameter %q", step.Action, key)
	}
	return fx.ResolveValue(raw)
}

// optionalParam resolves a named step parameter, returning ok=false when
// the parameter is not configured.
func (fx *FlowExecution) optionalParam(step *FlowStepDefinition, key string) (any, bool, error) {
	raw, ok := step.Parameters[key]
	if !ok {
		return nil, false, nil
	}
	v, err := fx.ResolveValue(raw)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// stateParam resolves a parameter that must name an object and returns its
// scene state.
func (fx *FlowExecution) stateParam(step *FlowStepDefinition, key string) (*State, error) {
	v, err := fx.resolveParam(step, key)
	if err != nil {
		return nil, err
	}
	return fx.stateOf(v)
}

// stateOf coerces a resolved value (state, object, or identity string) to a
// scene state.
func (fx *FlowExecution) stateOf(v any) (*State, error) {
	if st, ok := v.(*State); ok {
		return st, nil
	}
	id, ok := identityKey(v)
	if !ok {
		s, isString := v.(string)
		if !isString {
			return nil, configError(CodeBadParameter, "value of type %T does not name an object", v)
		}
		id = s
	}
	st, ok := fx.Context.StateByID(id)
	if !ok {
		return nil, referenceError(CodeObjectNotFound, "unknown object %q", id)
	}
	return st, nil
}
