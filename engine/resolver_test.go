package engine

import (
	"errors"
	"reflect"
	"testing"
)

func resolverScene(t *testing.T) (*Scene, *FlowExecution) {
	t.Helper()
	source := newFakeSource(
		obj("hall", KindRoom, nil),
		obj("alice", KindCharacter, map[string]any{"location": "hall", "stats": map[string]any{"strength": 10}}),
	)
	scene := testScene(t, source)
	fx := newTestExecution(t, scene, map[string]any{
		"caller": "alice",
		"count":  3,
		"nested": map[string]any{"inner": "value"},
	})
	return scene, fx
}

func TestResolveValue_References(t *testing.T) {
	_, fx := resolverScene(t)

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"literal string", "hello", "hello"},
		{"literal int", 42, 42},
		{"variable", "$count", 3},
		{"variable attribute", "$nested.inner", "value"},
		{"nested map", map[string]any{"n": "$count"}, map[string]any{"n": 3}},
		{"nested slice", []any{"$count", "x"}, []any{3, "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fx.ResolveValue(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveValue_AliasState(t *testing.T) {
	scene, fx := resolverScene(t)

	got, err := fx.ResolveValue("@caller")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st, ok := got.(*State)
	if !ok {
		t.Fatalf("expected *State, got %T", got)
	}
	if st.Identity() != "alice" {
		t.Errorf("got %q, want alice", st.Identity())
	}

	// The alias resolves through the scene cache, not a fresh wrapper.
	cached, _ := scene.Context.StateByID("alice")
	if st != cached {
		t.Error("alias resolution bypassed the state cache")
	}

	strength, err := fx.ResolveValue("@caller.stats.strength")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n, _ := asNumber(strength); n != 10 {
		t.Errorf("got %v, want 10", strength)
	}
}

func TestResolveValue_MissingVariable(t *testing.T) {
	_, fx := resolverScene(t)

	_, err := fx.ResolveValue("$ghost")
	if err == nil {
		t.Fatal("expected error for missing variable, got nil")
	}
	var fe *FlowError
	if !errors.As(err, &fe) || fe.Code != CodeMissingVariable {
		t.Errorf("got %v, want code %s", err, CodeMissingVariable)
	}
}

func TestResolveValue_MissingAttribute(t *testing.T) {
	_, fx := resolverScene(t)

	tests := []struct {
		name string
		ref  string
	}{
		{"missing map key", "$nested.absent"},
		{"missing state attribute", "@caller.absent"},
		{"attribute on scalar", "$count.anything"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.ResolveValue(tt.ref)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var fe *FlowError
			if !errors.As(err, &fe) || fe.Code != CodeMissingAttribute {
				t.Errorf("got %v, want code %s", err, CodeMissingAttribute)
			}
		})
	}
}

func TestResolveValue_Idempotent(t *testing.T) {
	_, fx := resolverScene(t)

	first, err := fx.ResolveValue("@caller.stats.strength")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := fx.ResolveValue("@caller.stats.strength")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-resolution changed the value: %v then %v", first, second)
	}
}
