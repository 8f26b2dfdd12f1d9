package engine

import (
	"testing"
)

func TestMatchesConditions(t *testing.T) {
	sword := obj("sword", KindObject, map[string]any{"key_id": "silver"})
	source := newFakeSource(sword)
	ctx := NewContextData(source)
	swordState, _ := ctx.StateByID("sword")

	tests := []struct {
		name       string
		data       map[string]any
		conditions map[string]any
		want       bool
	}{
		{"empty conditions always match", map[string]any{"a": 1}, map[string]any{}, true},
		{"equal value", map[string]any{"color": "red"}, map[string]any{"color": "red"}, true},
		{"unequal value", map[string]any{"color": "red"}, map[string]any{"color": "blue"}, false},
		{"missing key is false, not an error", map[string]any{}, map[string]any{"color": "red"}, false},
		{"numeric coercion", map[string]any{"n": 3}, map[string]any{"n": 3.0}, true},
		{"state matches its id", map[string]any{"target": swordState}, map[string]any{"target": "sword"}, true},
		{"state matches underlying object", map[string]any{"target": swordState}, map[string]any{"target": sword}, true},
		{"id matches state", map[string]any{"target": "sword"}, map[string]any{"target": swordState}, true},
		{"state mismatch", map[string]any{"target": swordState}, map[string]any{"target": "lantern"}, false},
		{"multiple keys all required", map[string]any{"a": 1, "b": 2}, map[string]any{"a": 1, "b": 3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := NewFlowEvent("test_event", nil, tt.data)
			if got := event.MatchesConditions(tt.conditions); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFlowEventIdentity(t *testing.T) {
	event := NewFlowEvent("door_opened", nil, nil)
	if event.Type() != "door_opened" {
		t.Errorf("got type %q, want door_opened", event.Type())
	}
	if event.ID() == "" {
		t.Error("expected a non-empty event id")
	}
	if event.Data == nil {
		t.Error("expected a non-nil data map")
	}
	if event.StopPropagation {
		t.Error("new events must not stop propagation")
	}
}
