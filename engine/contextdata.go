package engine

// ContextData is the per-scene state cache: persisted-object identity to
// State wrapper. States are created lazily on first reference and live for
// the scene; mutations are visible to later steps and triggers but are not
// persisted. Not safe for concurrent use: one scene, one logical thread.
type ContextData struct {
	source ObjectSource
	states map[string]*State
}

func NewContextData(source ObjectSource) *ContextData {
	return &ContextData{
		source: source,
		states: make(map[string]*State),
	}
}

// Source exposes the persisted-object boundary for service functions.
func (c *ContextData) Source() ObjectSource {
	return c.source
}

// StateByID returns the cached state for an identity, lazily constructing
// one from the persisted object. A stale identity is a non-error miss.
func (c *ContextData) StateByID(id string) (*State, bool) {
	if st, ok := c.states[id]; ok {
		return st, true
	}
	obj, ok := c.source.Object(id)
	if !ok {
		return nil, false
	}
	st := newState(obj)
	c.states[id] = st
	return st, true
}

// InitializeStateForObject forces (re)creation of an object's state, used
// when persisted data changed mid-scene and the cached overlay is stale.
// Room registries survive the refresh so registered triggers are kept.
func (c *ContextData) InitializeStateForObject(obj Object) *State {
	st := newState(obj)
	if prev, ok := c.states[obj.Identity()]; ok && prev.room != nil && st.room != nil {
		st.room.Registry = prev.room.Registry
	}
	c.states[obj.Identity()] = st
	return st
}

// GetContextValue reads an attribute off a state; nil states read as
// missing rather than failing.
func (c *ContextData) GetContextValue(st *State, attr string) (any, bool) {
	if st == nil {
		return nil, false
	}
	return st.Attr(attr)
}

// SetContextValue writes an attribute on a state; a nil state is a no-op.
func (c *ContextData) SetContextValue(st *State, attr string, value any) error {
	if st == nil {
		return nil
	}
	return st.SetAttr(attr, value)
}

// ModifyContextValue applies a modifier to a state attribute; a nil state
// is a no-op.
func (c *ContextData) ModifyContextValue(st *State, attr string, mod Modifier) (any, error) {
	if st == nil {
		return nil, nil
	}
	return st.ModifyAttr(attr, mod)
}
