package engine

import (
	"log/slog"
	"testing"
)

// fakeObject and fakeSource stand in for the persistence layer in tests.

type fakeObject struct {
	id    string
	kind  StateKind
	name  string
	attrs map[string]any
}

func (o *fakeObject) Identity() string { return o.id }

func (o *fakeObject) Kind() StateKind { return o.kind }

func (o *fakeObject) Name() string { return o.name }

func (o *fakeObject) Attributes() map[string]any {
	if o.attrs == nil {
		return map[string]any{}
	}
	return o.attrs
}

type fakeSource struct {
	objects map[string]*fakeObject
	order   []string
}

func newFakeSource(objects ...*fakeObject) *fakeSource {
	s := &fakeSource{objects: make(map[string]*fakeObject)}
	for _, o := range objects {
		s.objects[o.id] = o
		s.order = append(s.order, o.id)
	}
	return s
}

func (s *fakeSource) Object(id string) (Object, bool) {
	o, ok := s.objects[id]
	if !ok {
		return nil, false
	}
	return o, true
}

func (s *fakeSource) Contents(id string) []Object {
	var out []Object
	for _, oid := range s.order {
		o := s.objects[oid]
		if loc, _ := o.Attributes()["location"].(string); loc == id {
			out = append(out, o)
		}
	}
	return out
}

func (s *fakeSource) Move(id, destinationID string) error {
	o, ok := s.objects[id]
	if !ok {
		return referenceError(CodeObjectNotFound, "unknown object %q", id)
	}
	if o.attrs == nil {
		o.attrs = map[string]any{}
	}
	o.attrs["location"] = destinationID
	return nil
}

func obj(id string, kind StateKind, attrs map[string]any) *fakeObject {
	return &fakeObject{id: id, kind: kind, name: id, attrs: attrs}
}

// testScene wires a minimal scene over a fake source.
func testScene(t *testing.T, source ObjectSource, flows ...*FlowDefinition) *Scene {
	t.Helper()
	library := NewFlowLibrary()
	for _, def := range flows {
		if err := library.Register(def); err != nil {
			t.Fatalf("registering flow %q: %v", def.Name, err)
		}
	}
	registry := NewBehaviorRegistry()
	if err := RegisterBuiltinPackages(registry); err != nil {
		t.Fatalf("registering builtin packages: %v", err)
	}
	services := NewServiceRegistry()
	if err := RegisterBuiltinServices(services); err != nil {
		t.Fatalf("registering builtin services: %v", err)
	}

	cfg := Config{}
	if err := PrepareConfig(&cfg); err != nil {
		t.Fatalf("preparing config: %v", err)
	}

	ctx := NewContextData(source)
	stack := NewFlowStack(cfg, library, services, NewBehaviorAttachments(registry), slog.Default())
	return &Scene{Context: ctx, Stack: stack}
}

// mustFlow builds a flow definition from step nodes.
func mustFlow(t *testing.T, name string, steps ...StepNode) *FlowDefinition {
	t.Helper()
	def, err := BuildFlowDefinition(name, steps)
	if err != nil {
		t.Fatalf("building flow %q: %v", name, err)
	}
	return def
}

// newTestExecution builds an execution without running it, for tests that
// poke at resolution and modifiers directly.
func newTestExecution(t *testing.T, scene *Scene, vars map[string]any) *FlowExecution {
	t.Helper()
	def := mustFlow(t, "probe", StepNode{Action: string(ActionStopFlow)})
	return newFlowExecution(def, scene.Context, scene.Stack, StringOrigin("test"), vars, slog.Default())
}
