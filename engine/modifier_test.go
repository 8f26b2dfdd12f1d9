package engine

import (
	"errors"
	"testing"
)

func TestResolveModifier_IntegerShortcut(t *testing.T) {
	scene := testScene(t, newFakeSource())
	fx := newTestExecution(t, scene, nil)

	mod, err := fx.ResolveModifier(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := mod(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 7 {
		t.Errorf("got %v, want 7", got)
	}
}

func TestResolveModifier_NamedOperators(t *testing.T) {
	scene := testScene(t, newFakeSource())
	fx := newTestExecution(t, scene, nil)

	tests := []struct {
		name string
		spec map[string]any
		old  any
		want any
	}{
		{"add", map[string]any{"name": "add", "args": []any{3}}, 2, 5},
		{"subtract", map[string]any{"name": "subtract", "args": []any{4}}, 10, 6},
		{"multiply", map[string]any{"name": "multiply", "args": []any{3}}, 4, 12},
		{"divide", map[string]any{"name": "divide", "args": []any{4}}, 10, 2.5},
		{"min", map[string]any{"name": "min", "args": []any{3}}, 10, 3},
		{"max", map[string]any{"name": "max", "args": []any{3}}, 10, 10},
		{"concat", map[string]any{"name": "concat", "args": []any{"bar"}}, "foo", "foobar"},
		{"equal true", map[string]any{"name": "equal", "args": []any{5}}, 5, true},
		{"equal false", map[string]any{"name": "equal", "args": []any{6}}, 5, false},
		{"not_equal", map[string]any{"name": "not_equal", "args": []any{6}}, 5, true},
		{"greater", map[string]any{"name": "greater", "args": []any{3}}, 5, true},
		{"less_or_equal", map[string]any{"name": "less_or_equal", "args": []any{5}}, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod, err := fx.ResolveModifier(tt.spec)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got, err := mod(tt.old)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestResolveModifier_UnknownOperator(t *testing.T) {
	scene := testScene(t, newFakeSource())
	fx := newTestExecution(t, scene, nil)

	_, err := fx.ResolveModifier(map[string]any{"name": "frobnicate", "args": []any{1}})
	if err == nil {
		t.Fatal("expected error for unknown operator, got nil")
	}
	var fe *FlowError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FlowError, got %T", err)
	}
	if fe.Code != CodeUnknownOperator {
		t.Errorf("got code %s, want %s", fe.Code, CodeUnknownOperator)
	}
	if fe.Kind != ErrorKindConfig {
		t.Errorf("got kind %s, want %s", fe.Kind, ErrorKindConfig)
	}
}

func TestResolveModifier_Malformed(t *testing.T) {
	scene := testScene(t, newFakeSource())
	fx := newTestExecution(t, scene, nil)

	tests := []struct {
		name string
		raw  any
	}{
		{"string", "add"},
		{"bool", true},
		{"nil", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := fx.ResolveModifier(tt.raw); err == nil {
				t.Errorf("expected error for %v, got nil", tt.raw)
			}
		})
	}
}

func TestOperator_DivideByZero(t *testing.T) {
	scene := testScene(t, newFakeSource())
	fx := newTestExecution(t, scene, nil)

	mod, err := fx.ResolveModifier(map[string]any{"name": "divide", "args": []any{0}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := mod(10); err == nil {
		t.Fatal("expected division-by-zero error, got nil")
	}
}

func TestOperator_IntegerResultsStayIntegral(t *testing.T) {
	scene := testScene(t, newFakeSource())
	fx := newTestExecution(t, scene, nil)

	mod, err := fx.ResolveModifier(map[string]any{"name": "multiply", "args": []any{3}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := mod(4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := got.(int); !ok {
		t.Errorf("expected int result, got %T", got)
	}
}
