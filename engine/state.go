package engine

import (
	"strings"

	"github.com/Jeffail/gabs/v2"
)

// StateKind tags the variant of a persisted object. Behavior differences
// between kinds are expressed through capability checks on State, not
// through a type hierarchy.
type StateKind string

const (
	KindObject    StateKind = "object"
	KindRoom      StateKind = "room"
	KindCharacter StateKind = "character"
	KindExit      StateKind = "exit"
)

// ParseStateKind validates a kind string from content files.
func ParseStateKind(s string) (StateKind, error) {
	switch StateKind(s) {
	case KindObject, KindRoom, KindCharacter, KindExit:
		return StateKind(s), nil
	case "":
		return KindObject, nil
	}
	return "", configError(CodeBadParameter, "unknown object kind %q", s)
}

// Object is the persisted-object model the engine consumes. The engine only
// reads it; scene-scoped mutation happens on the State overlay.
type Object interface {
	Identity() string
	Kind() StateKind
	Name() string
	Attributes() map[string]any
}

// ObjectSource supplies persisted objects and their containment. Moving an
// object is the one persistence mutation service functions may request.
type ObjectSource interface {
	Object(id string) (Object, bool)
	Contents(id string) []Object
	Move(id, destinationID string) error
}

// State is the scene-scoped wrapper over a persisted object: a mutable
// attribute overlay on top of (never overwriting) persisted data, plus
// kind-specific payload. Created lazily by ContextData and discarded with
// the scene.
type State struct {
	obj   Object
	attrs *gabs.Container

	room     *RoomState
	messages []string
}

// RoomState is the room-kind payload: each room owns exactly one trigger
// registry with the room's lifecycle.
type RoomState struct {
	Registry *TriggerRegistry
}

func newState(obj Object) *State {
	st := &State{
		obj:   obj,
		attrs: gabs.New(),
	}
	if obj.Kind() == KindRoom {
		st.room = &RoomState{Registry: NewTriggerRegistry(obj.Identity())}
	}
	return st
}

func (s *State) Identity() string {
	return s.obj.Identity()
}

func (s *State) Kind() StateKind {
	return s.obj.Kind()
}

func (s *State) Name() string {
	return s.obj.Name()
}

// Underlying returns the persisted object this state wraps.
func (s *State) Underlying() Object {
	return s.obj
}

// Room returns the room payload, or nil for non-rooms.
func (s *State) Room() *RoomState {
	return s.room
}

// CanTraverse reports whether the object is an exit.
func (s *State) CanTraverse() bool {
	return s.Kind() == KindExit
}

// CanContain reports whether the object can hold contents.
func (s *State) CanContain() bool {
	return s.Kind() == KindRoom || s.Kind() == KindCharacter
}

// Attr reads a dotted attribute path: the scene overlay first, then the
// persisted attributes. The bool is false when the path resolves nowhere.
func (s *State) Attr(path string) (any, bool) {
	if v := s.attrs.Path(path); v != nil {
		return v.Data(), true
	}
	return lookupPath(s.obj.Attributes(), path)
}

// SetAttr writes a dotted attribute path into the scene overlay. Persisted
// data is never touched.
func (s *State) SetAttr(path string, value any) error {
	if _, err := s.attrs.SetP(value, path); err != nil {
		return configError(CodeBadParameter, "cannot set attribute %q on %s: %v", path, s.Identity(), err)
	}
	return nil
}

// ModifyAttr applies a modifier to the current attribute value and stores
// the result in the overlay. A missing attribute is a reference error.
func (s *State) ModifyAttr(path string, mod Modifier) (any, error) {
	old, ok := s.Attr(path)
	if !ok {
		return nil, referenceError(CodeMissingAttribute, "object %s has no attribute %q", s.Identity(), path)
	}
	next, err := mod(old)
	if err != nil {
		return nil, err
	}
	if err := s.SetAttr(path, next); err != nil {
		return nil, err
	}
	return next, nil
}

// AppendMessage queues a user-facing message on this state; the transport
// layer drains it when rendering the scene.
func (s *State) AppendMessage(text string) {
	s.messages = append(s.messages, text)
}

// Messages returns the queued messages in arrival order.
func (s *State) Messages() []string {
	return s.messages
}

// lookupPath walks a dotted path through nested string-keyed maps.
func lookupPath(m map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = m
	for _, p := range parts {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = mm[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
