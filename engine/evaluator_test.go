package engine

import (
	"testing"
)

func TestEval(t *testing.T) {
	tests := []struct {
		name string
		expr string
		env  map[string]any
		want any
	}{
		{"arithmetic", "2 + 3", nil, 5},
		{"env lookup", "strength * 2", map[string]any{"strength": 7}, 14},
		{"string concat", `greeting + " world"`, map[string]any{"greeting": "hello"}, "hello world"},
		{"nested access", `stats.dex > 5`, map[string]any{"stats": map[string]any{"dex": 8}}, true},
		{"undefined is nil", "missing == nil", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Eval(tt.expr, tt.env)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v (%T), want %v", got, got, tt.want)
			}
		})
	}
}

func TestEval_Invalid(t *testing.T) {
	_, err := Eval("2 +", nil)
	if err == nil {
		t.Fatal("expected error for malformed expression, got nil")
	}
}

func TestEvalBool(t *testing.T) {
	ok, err := EvalBool("amount > 3", map[string]any{"amount": 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("got false, want true")
	}

	if _, err := EvalBool("1 + 1", nil); err == nil {
		t.Error("expected error for a non-boolean result, got nil")
	}
}
