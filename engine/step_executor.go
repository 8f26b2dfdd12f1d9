package engine

import (
	"fmt"
)

// executeStep dispatches one step by action. It returns the step's control
// outcome; errors are reserved for misconfiguration, reference failures,
// and service-function faults.
func (fx *FlowExecution) executeStep(step *FlowStepDefinition) (StepOutcome, error) {
	switch step.Action {
	case ActionSetContextValue:
		return fx.stepSetContextValue(step)
	case ActionModifyContextValue:
		return fx.stepModifyContextValue(step)
	case ActionEvaluateEqual, ActionEvaluateNotEqual,
		ActionEvaluateGreater, ActionEvaluateGreaterOrEqual,
		ActionEvaluateLess, ActionEvaluateLessOrEqual:
		return fx.stepEvaluateComparison(step)
	case ActionEvaluateExpression:
		return fx.stepEvaluateExpression(step)
	case ActionCallServiceFunction:
		return fx.stepCallServiceFunction(step)
	case ActionEmitFlowEvent:
		return fx.stepEmitFlowEvent(step)
	case ActionEmitFlowEventEach:
		return fx.stepEmitFlowEventForEach(step)
	case ActionStopBranch:
		return outcomeStopBranch(), nil
	case ActionStopFlow:
		return outcomeStopFlow(fx.messageParam(step)), nil
	case ActionCancelFlow:
		return outcomeCancelFlow(fx.messageParam(step)), nil
	}
	return StepOutcome{}, configError(CodeUnknownAction, "unknown step action %q", step.Action)
}

func (fx *FlowExecution) messageParam(step *FlowStepDefinition) string {
	raw, ok := step.Parameters["message"]
	if !ok {
		return ""
	}
	v, err := fx.ResolveValue(raw)
	if err != nil {
		return fmt.Sprint(raw)
	}
	return fmt.Sprint(v)
}

func (fx *FlowExecution) stepSetContextValue(step *FlowStepDefinition) (StepOutcome, error) {
	st, err := fx.stateParam(step, "target")
	if err != nil {
		return StepOutcome{}, err
	}
	attr, err := fx.stringParam(step, "attribute")
	if err != nil {
		return StepOutcome{}, err
	}
	value, err := fx.resolveParam(step, "value")
	if err != nil {
		return StepOutcome{}, err
	}
	if err := fx.Context.SetContextValue(st, attr, value); err != nil {
		return StepOutcome{}, err
	}
	fx.Bind(step.VariableName, value)
	return outcomeContinue(), nil
}

func (fx *FlowExecution) stepModifyContextValue(step *FlowStepDefinition) (StepOutcome, error) {
	st, err := fx.stateParam(step, "target")
	if err != nil {
		return StepOutcome{}, err
	}
	attr, err := fx.stringParam(step, "attribute")
	if err != nil {
		return StepOutcome{}, err
	}
	rawMod, err := fx.resolveParam(step, "modifier")
	if err != nil {
		return StepOutcome{}, err
	}
	mod, err := fx.ResolveModifier(rawMod)
	if err != nil {
		return StepOutcome{}, err
	}
	next, err := fx.Context.ModifyContextValue(st, attr, mod)
	if err != nil {
		return StepOutcome{}, err
	}
	fx.Bind(step.VariableName, next)
	return outcomeContinue(), nil
}

// stepEvaluateComparison runs the evaluate_* branch guards: a false result
// stops the branch so sibling steps only run when the guard holds.
func (fx *FlowExecution) stepEvaluateComparison(step *FlowStepDefinition) (StepOutcome, error) {
	value, err := fx.resolveParam(step, "value")
	if err != nil {
		return StepOutcome{}, err
	}
	other, err := fx.resolveParam(step, "other")
	if err != nil {
		return StepOutcome{}, err
	}

	var ok bool
	switch step.Action {
	case ActionEvaluateEqual:
		ok = identityEqual(value, other)
	case ActionEvaluateNotEqual:
		ok = !identityEqual(value, other)
	default:
		cmp, err := compareValues(value, other)
		if err != nil {
			return StepOutcome{}, err
		}
		switch step.Action {
		case ActionEvaluateGreater:
			ok = cmp > 0
		case ActionEvaluateGreaterOrEqual:
			ok = cmp >= 0
		case ActionEvaluateLess:
			ok = cmp < 0
		case ActionEvaluateLessOrEqual:
			ok = cmp <= 0
		}
	}

	fx.Bind(step.VariableName, ok)
	if !ok {
		return outcomeStopBranch(), nil
	}
	return outcomeContinue(), nil
}

func (fx *FlowExecution) stepEvaluateExpression(step *FlowStepDefinition) (StepOutcome, error) {
	expression, err := fx.stringParam(step, "expression")
	if err != nil {
		return StepOutcome{}, err
	}
	ok, err := EvalBool(expression, fx.Variables)
	if err != nil {
		return StepOutcome{}, err
	}
	fx.Bind(step.VariableName, ok)
	if !ok {
		return outcomeStopBranch(), nil
	}
	return outcomeContinue(), nil
}

func (fx *FlowExecution) stepCallServiceFunction(step *FlowStepDefinition) (StepOutcome, error) {
	name, err := fx.stringParam(step, "name")
	if err != nil {
		return StepOutcome{}, err
	}
	fn, err := fx.Stack.Services().Get(name)
	if err != nil {
		return StepOutcome{}, err
	}

	kwargs := map[string]any{}
	if raw, ok, err := fx.optionalParam(step, "kwargs"); err != nil {
		return StepOutcome{}, err
	} else if ok {
		m, isMap := raw.(map[string]any)
		if !isMap {
			return StepOutcome{}, configError(CodeBadParameter, "kwargs for %q must be a map, got %T", name, raw)
		}
		kwargs = m
	}

	result, err := fn(fx, kwargs)
	if err != nil {
		return StepOutcome{}, err
	}
	// Service functions may request flow control through their result.
	if outcome, ok := result.(StepOutcome); ok {
		return outcome, nil
	}
	fx.Bind(step.VariableName, result)
	return outcomeContinue(), nil
}

func (fx *FlowExecution) stepEmitFlowEvent(step *FlowStepDefinition) (StepOutcome, error) {
	eventType, err := fx.stringParam(step, "event_type")
	if err != nil {
		return StepOutcome{}, err
	}
	data := map[string]any{}
	if raw, ok, err := fx.optionalParam(step, "data"); err != nil {
		return StepOutcome{}, err
	} else if ok {
		m, isMap := raw.(map[string]any)
		if !isMap {
			return StepOutcome{}, configError(CodeBadParameter, "event data must be a map, got %T", raw)
		}
		data = m
	}
	room, err := fx.roomParam(step)
	if err != nil {
		return StepOutcome{}, err
	}

	event := NewFlowEvent(eventType, fx, data)
	if err := fx.dispatchEvent(room, event); err != nil {
		return StepOutcome{}, err
	}
	fx.Bind(step.VariableName, event)
	return outcomeContinue(), nil
}

// stepEmitFlowEventForEach emits one indexed event per item of a resolved
// collection; each event carries the item as data["target"].
func (fx *FlowExecution) stepEmitFlowEventForEach(step *FlowStepDefinition) (StepOutcome, error) {
	eventType, err := fx.stringParam(step, "event_type")
	if err != nil {
		return StepOutcome{}, err
	}
	rawItems, err := fx.resolveParam(step, "items")
	if err != nil {
		return StepOutcome{}, err
	}
	items, err := asSlice(rawItems)
	if err != nil {
		return StepOutcome{}, err
	}
	room, err := fx.roomParam(step)
	if err != nil {
		return StepOutcome{}, err
	}

	extra := map[string]any{}
	if raw, ok, err := fx.optionalParam(step, "data"); err != nil {
		return StepOutcome{}, err
	} else if ok {
		if m, isMap := raw.(map[string]any); isMap {
			extra = m
		}
	}

	for i, item := range items {
		data := map[string]any{"target": item}
		for k, v := range extra {
			data[k] = v
		}
		event := NewFlowEvent(fmt.Sprintf("%s_%d", eventType, i), fx, data)
		if err := fx.dispatchEvent(room, event); err != nil {
			return StepOutcome{}, err
		}
	}
	return outcomeContinue(), nil
}

// roomParam resolves the room whose trigger registry receives the event.
// When the step does not name one, the execution's "room" variable is used.
func (fx *FlowExecution) roomParam(step *FlowStepDefinition) (*State, error) {
	if _, ok := step.Parameters["room"]; ok {
		st, err := fx.stateParam(step, "room")
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	v, ok := fx.Var("room")
	if !ok {
		return nil, configError(CodeBadParameter, "action %q needs a room parameter or a bound $room variable", step.Action)
	}
	return fx.stateOf(v)
}

func (fx *FlowExecution) dispatchEvent(room *State, event *FlowEvent) error {
	fx.Emitted = append(fx.Emitted, event)
	if room.Room() == nil {
		return configError(CodeBadParameter, "object %q is not a room", room.Identity())
	}
	return room.Room().Registry.ProcessEvent(event, fx.Stack, fx.Context)
}

func (fx *FlowExecution) stringParam(step *FlowStepDefinition, key string) (string, error) {
	v, err := fx.resolveParam(step, key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", configError(CodeBadParameter, "parameter %q must be a string, got %T", key, v)
	}
	return s, nil
}

func asSlice(v any) ([]any, error) {
	switch items := v.(type) {
	case []any:
		return items, nil
	case []*State:
		out := make([]any, len(items))
		for i, s := range items {
			out[i] = s
		}
		return out, nil
	case []Object:
		out := make([]any, len(items))
		for i, o := range items {
			out[i] = o
		}
		return out, nil
	}
	return nil, configError(CodeBadParameter, "expected a collection, got %T", v)
}
