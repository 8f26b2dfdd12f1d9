package engine

import (
	"reflect"

	"github.com/google/uuid"
)

// FlowEvent is a signal raised during execution: immutable identity
// (type + source), mutable payload. Triggers may rewrite Data to influence
// later triggers, and set StopPropagation to end the fan-out early.
// Events live for one processing pass and are never persisted.
type FlowEvent struct {
	id        string
	eventType string
	source    *FlowExecution

	Data            map[string]any
	StopPropagation bool
}

func NewFlowEvent(eventType string, source *FlowExecution, data map[string]any) *FlowEvent {
	if data == nil {
		data = make(map[string]any)
	}
	return &FlowEvent{
		id:        uuid.New().String(),
		eventType: eventType,
		source:    source,
		Data:      data,
	}
}

func (e *FlowEvent) ID() string {
	return e.id
}

func (e *FlowEvent) Type() string {
	return e.eventType
}

// Source is the execution that raised the event, nil for externally
// injected events.
func (e *FlowEvent) Source() *FlowExecution {
	return e.source
}

// MatchesConditions reports whether every key in conditions is present in
// the event data with an equal value. Values are compared by identity key,
// so a State wrapper and its underlying object compare equal. Missing keys
// yield false, never an error: filter matching is closed-world.
func (e *FlowEvent) MatchesConditions(conditions map[string]any) bool {
	for key, want := range conditions {
		got, ok := e.Data[key]
		if !ok {
			return false
		}
		if !identityEqual(got, want) {
			return false
		}
	}
	return true
}

// identityKey unwraps object-like values to their persisted identity so
// wrappers and raw identifiers compare equal.
func identityKey(v any) (string, bool) {
	switch x := v.(type) {
	case *State:
		if x == nil {
			return "", false
		}
		return x.Identity(), true
	case Object:
		if x == nil {
			return "", false
		}
		return x.Identity(), true
	}
	return "", false
}

func identityEqual(a, b any) bool {
	ka, aOK := identityKey(a)
	kb, bOK := identityKey(b)
	if aOK || bOK {
		// An identity on one side may be matched by a plain string id on
		// the other.
		if !aOK {
			s, ok := a.(string)
			if !ok {
				return false
			}
			ka = s
		}
		if !bOK {
			s, ok := b.(string)
			if !ok {
				return false
			}
			kb = s
		}
		return ka == kb
	}
	if na, ok := asNumber(a); ok {
		if nb, ok := asNumber(b); ok {
			return na == nb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}
