package engine

import (
	"errors"
	"testing"
)

func serviceScene(t *testing.T, flows ...*FlowDefinition) *Scene {
	t.Helper()
	source := newFakeSource(
		obj("hall", KindRoom, nil),
		obj("yard", KindRoom, nil),
		obj("oak_door", KindExit, map[string]any{"location": "hall", "destination": "yard"}),
		obj("alice", KindCharacter, map[string]any{"location": "hall", "stats": map[string]any{"strength": 10}}),
		obj("sword", KindObject, map[string]any{"location": "hall", "key_id": "silver"}),
		obj("lantern", KindObject, map[string]any{"location": "hall"}),
	)
	return testScene(t, source, flows...)
}

func callService(t *testing.T, scene *Scene, name string, kwargs map[string]any) (any, error) {
	t.Helper()
	fx := newTestExecution(t, scene, nil)
	fn, err := scene.Stack.Services().Get(name)
	if err != nil {
		t.Fatalf("looking up %q: %v", name, err)
	}
	return fn(fx, kwargs)
}

func TestGetObjectState(t *testing.T) {
	scene := serviceScene(t)

	got, err := callService(t, scene, "get_object_state", map[string]any{"object": "sword"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st, ok := got.(*State)
	if !ok || st.Identity() != "sword" {
		t.Errorf("got %v, want the sword state", got)
	}

	// A stale identity yields nil rather than an error.
	got, err = callService(t, scene, "get_object_state", map[string]any{"object": "ghost"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("got %v, want nil for a stale identity", got)
	}
}

func TestRoomContents(t *testing.T) {
	scene := serviceScene(t)

	got, err := callService(t, scene, "room_contents", map[string]any{"room": "hall"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	states, ok := got.([]*State)
	if !ok {
		t.Fatalf("got %T, want []*State", got)
	}
	want := []string{"oak_door", "alice", "sword", "lantern"}
	if len(states) != len(want) {
		t.Fatalf("got %d contents, want %d", len(states), len(want))
	}
	for i, id := range want {
		if states[i].Identity() != id {
			t.Errorf("contents[%d] = %s, want %s", i, states[i].Identity(), id)
		}
	}

	_, err = callService(t, scene, "room_contents", map[string]any{"room": "sword"})
	if err == nil {
		t.Fatal("expected error for a non-container, got nil")
	}
}

func TestMoveObject_LockedExit(t *testing.T) {
	scene := serviceScene(t)
	if err := scene.Stack.Behavior().Attach(&BehaviorPackageInstance{
		PackageKey: "require_key",
		ObjectID:   "oak_door",
		Hook:       "can_traverse",
		Data:       map[string]any{"attribute": "key_id", "value": "silver"},
	}); err != nil {
		t.Fatalf("attach: %v", err)
	}

	move := map[string]any{"object": "alice", "destination": "yard", "via": "oak_door"}

	_, err := callService(t, scene, "move_object", move)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("got %v, want ErrPermissionDenied while the key is out of reach", err)
	}
	if loc := locationOfID(t, scene, "alice"); loc != "hall" {
		t.Fatalf("alice moved to %q despite the denial", loc)
	}

	// Take the key, then the door opens.
	if _, err := callService(t, scene, "move_object", map[string]any{"object": "sword", "destination": "alice"}); err != nil {
		t.Fatalf("picking up the key: %v", err)
	}
	got, err := callService(t, scene, "move_object", move)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st, ok := got.(*State); !ok || st.Identity() != "yard" {
		t.Errorf("got %v, want the destination state", got)
	}
	if loc := locationOfID(t, scene, "alice"); loc != "yard" {
		t.Errorf("alice ended in %q, want yard", loc)
	}
}

func TestMoveObject_AlwaysBlock(t *testing.T) {
	scene := serviceScene(t)
	if err := scene.Stack.Behavior().Attach(&BehaviorPackageInstance{
		PackageKey: "always_block",
		ObjectID:   "oak_door",
		Hook:       "can_traverse",
	}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	_, err := callService(t, scene, "move_object",
		map[string]any{"object": "alice", "destination": "yard", "via": "oak_door"})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("got %v, want ErrPermissionDenied", err)
	}
}

func TestMoveObject_RehomesCharacterTriggers(t *testing.T) {
	scene := serviceScene(t)
	hall, _ := scene.Context.StateByID("hall")
	yard, _ := scene.Context.StateByID("yard")
	hall.Room().Registry.Register(&Trigger{
		Definition: &TriggerDefinition{Name: "alice_reacts", EventType: "noise", FlowName: "react"},
		Owner:      "alice",
	})
	hall.Room().Registry.Register(&Trigger{
		Definition: &TriggerDefinition{Name: "ambient", EventType: "noise", FlowName: "react"},
	})

	if _, err := callService(t, scene, "move_object", map[string]any{"object": "alice", "destination": "yard"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := triggerNames(hall.Room().Registry.Active()); len(got) != 1 || got[0] != "ambient" {
		t.Errorf("hall retains %v, want only the ambient trigger", got)
	}
	if got := triggerNames(yard.Room().Registry.Active()); len(got) != 1 || got[0] != "alice_reacts" {
		t.Errorf("yard holds %v, want alice's trigger", got)
	}
}

func TestMoveObject_ItemKeepsTriggersInPlace(t *testing.T) {
	scene := serviceScene(t)
	hall, _ := scene.Context.StateByID("hall")
	hall.Room().Registry.Register(&Trigger{
		Definition: &TriggerDefinition{Name: "glow", EventType: "noise", FlowName: "react"},
		Owner:      "lantern",
	})

	if _, err := callService(t, scene, "move_object", map[string]any{"object": "lantern", "destination": "yard"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(hall.Room().Registry.Active()); got != 1 {
		t.Errorf("hall holds %d triggers, want 1: only characters re-home triggers", got)
	}
}

func TestSendMessage(t *testing.T) {
	scene := serviceScene(t)
	if _, err := callService(t, scene, "send_message", map[string]any{"target": "alice", "text": "hello"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	alice, _ := scene.Context.StateByID("alice")
	msgs := alice.Messages()
	if len(msgs) != 1 || msgs[0] != "hello" {
		t.Errorf("got %v, want [hello]", msgs)
	}
}

func TestRefreshState_DiscardsOverlay(t *testing.T) {
	scene := serviceScene(t)
	sword, _ := scene.Context.StateByID("sword")
	if err := sword.SetAttr("glowing", true); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok := sword.Attr("glowing"); !ok {
		t.Fatal("overlay write not visible")
	}

	got, err := callService(t, scene, "refresh_state", map[string]any{"object": "sword"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fresh, ok := got.(*State)
	if !ok {
		t.Fatalf("got %T, want *State", got)
	}
	if _, ok := fresh.Attr("glowing"); ok {
		t.Error("refresh kept the scene overlay")
	}
	if v, ok := fresh.Attr("key_id"); !ok || v != "silver" {
		t.Error("refresh lost persisted attributes")
	}
	if cached, _ := scene.Context.StateByID("sword"); cached != fresh {
		t.Error("refresh did not replace the cached state")
	}
}

func TestStopEventPropagation_NeedsEvent(t *testing.T) {
	scene := serviceScene(t)
	_, err := callService(t, scene, "stop_event_propagation", nil)
	if err == nil {
		t.Fatal("expected error outside a trigger-run flow, got nil")
	}
	var fe *FlowError
	if !errors.As(err, &fe) || fe.Code != CodeBadParameter {
		t.Errorf("got %v, want code %s", err, CodeBadParameter)
	}
}

func TestApplyModifiers(t *testing.T) {
	scene := serviceScene(t)
	if err := scene.Stack.Behavior().Attach(&BehaviorPackageInstance{
		PackageKey: "attribute_bonus",
		ObjectID:   "alice",
		Hook:       "modify_strength",
		Data:       map[string]any{"bonus": 2},
	}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	got, err := callService(t, scene, "apply_modifiers",
		map[string]any{"object": "alice", "hook": "modify_strength", "base": 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n, _ := asNumber(got); n != 12 {
		t.Errorf("got %v, want 12", got)
	}
}

func TestAttachDetachBehaviorServices(t *testing.T) {
	scene := serviceScene(t)

	got, err := callService(t, scene, "attach_behavior", map[string]any{
		"object":  "oak_door",
		"package": "always_block",
		"hook":    "can_traverse",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	instanceID, ok := got.(string)
	if !ok || instanceID == "" {
		t.Fatalf("got %v, want an instance id", got)
	}

	if err := scene.Stack.Behavior().CheckPermission(scene.Context, "oak_door", "can_traverse"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("got %v, want denial while attached", err)
	}

	removed, err := callService(t, scene, "detach_behavior",
		map[string]any{"object": "oak_door", "instance": instanceID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != true {
		t.Errorf("got %v, want true", removed)
	}
	if err := scene.Stack.Behavior().CheckPermission(scene.Context, "oak_door", "can_traverse"); err != nil {
		t.Errorf("got %v, want permit after detach", err)
	}
}

func locationOfID(t *testing.T, scene *Scene, id string) string {
	t.Helper()
	o, ok := scene.Context.Source().Object(id)
	if !ok {
		t.Fatalf("object %q missing", id)
	}
	return locationOf(o)
}
