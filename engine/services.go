package engine

// ServiceFunc is a registered, named side-effecting function invoked by the
// call_service_function action. It receives the running execution and its
// resolved keyword arguments; a non-nil result may be bound to the step's
// variable name.
type ServiceFunc func(fx *FlowExecution, kwargs map[string]any) (any, error)

// ServiceRegistry maps service function names to implementations. Populated
// at process start, read-only at run time.
type ServiceRegistry struct {
	funcs map[string]ServiceFunc
}

func NewServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{funcs: make(map[string]ServiceFunc)}
}

func (r *ServiceRegistry) Register(name string, fn ServiceFunc) error {
	if name == "" || fn == nil {
		return configError(CodeBadParameter, "service function needs a name and an implementation")
	}
	if _, ok := r.funcs[name]; ok {
		return configError(CodeBadParameter, "duplicate service function %q", name)
	}
	r.funcs[name] = fn
	return nil
}

func (r *ServiceRegistry) Get(name string) (ServiceFunc, error) {
	fn, ok := r.funcs[name]
	if !ok {
		return nil, configError(CodeUnknownService, "unknown service function %q", name)
	}
	return fn, nil
}

// RegisterBuiltinServices installs the engine's service functions.
func RegisterBuiltinServices(r *ServiceRegistry) error {
	builtins := map[string]ServiceFunc{
		"get_object_state":       svcGetObjectState,
		"refresh_state":          svcRefreshState,
		"room_contents":          svcRoomContents,
		"move_object":            svcMoveObject,
		"send_message":           svcSendMessage,
		"attach_behavior":        svcAttachBehavior,
		"detach_behavior":        svcDetachBehavior,
		"stop_event_propagation": svcStopEventPropagation,
		"check_permission":       svcCheckPermission,
		"apply_modifiers":        svcApplyModifiers,
		"webhook":                svcWebhook,
	}
	for name, fn := range builtins {
		if err := r.Register(name, fn); err != nil {
			return err
		}
	}
	return nil
}

// kwState coerces a keyword argument to the named object's scene state.
func kwState(fx *FlowExecution, kwargs map[string]any, key string) (*State, error) {
	v, ok := kwargs[key]
	if !ok {
		return nil, configError(CodeBadParameter, "service function requires kwarg %q", key)
	}
	return fx.stateOf(v)
}

func kwString(kwargs map[string]any, key string) (string, error) {
	v, ok := kwargs[key]
	if !ok {
		return "", configError(CodeBadParameter, "service function requires kwarg %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", configError(CodeBadParameter, "kwarg %q must be a string, got %T", key, v)
	}
	return s, nil
}

// svcGetObjectState resolves an object reference to its scene state. A
// stale identity yields nil, not an error; callers branch on it.
func svcGetObjectState(fx *FlowExecution, kwargs map[string]any) (any, error) {
	v, ok := kwargs["object"]
	if !ok {
		return nil, configError(CodeBadParameter, "service function requires kwarg \"object\"")
	}
	if st, ok := v.(*State); ok {
		return st, nil
	}
	id, ok := identityKey(v)
	if !ok {
		s, isString := v.(string)
		if !isString {
			return nil, configError(CodeBadParameter, "kwarg \"object\" does not name an object (got %T)", v)
		}
		id = s
	}
	st, found := fx.Context.StateByID(id)
	if !found {
		return nil, nil
	}
	return st, nil
}

// svcRefreshState rebuilds an object's scene state from its persisted data,
// discarding the overlay.
func svcRefreshState(fx *FlowExecution, kwargs map[string]any) (any, error) {
	st, err := kwState(fx, kwargs, "object")
	if err != nil {
		return nil, err
	}
	obj, ok := fx.Context.Source().Object(st.Identity())
	if !ok {
		return nil, referenceError(CodeObjectNotFound, "object %q no longer resolves", st.Identity())
	}
	return fx.Context.InitializeStateForObject(obj), nil
}

// svcRoomContents returns the scene states of a container's contents, in
// stable order.
func svcRoomContents(fx *FlowExecution, kwargs map[string]any) (any, error) {
	room, err := kwState(fx, kwargs, "room")
	if err != nil {
		return nil, err
	}
	if !room.CanContain() {
		return nil, configError(CodeBadParameter, "object %q cannot hold contents", room.Identity())
	}
	var contents []*State
	for _, obj := range fx.Context.Source().Contents(room.Identity()) {
		if st, ok := fx.Context.StateByID(obj.Identity()); ok {
			contents = append(contents, st)
		}
	}
	return contents, nil
}

// svcMoveObject relocates an object, gating traversal through an optional
// exit's can_traverse hooks and re-homing the mover's triggers between the
// old and new room registries.
func svcMoveObject(fx *FlowExecution, kwargs map[string]any) (any, error) {
	object, err := kwState(fx, kwargs, "object")
	if err != nil {
		return nil, err
	}
	destination, err := kwState(fx, kwargs, "destination")
	if err != nil {
		return nil, err
	}

	if viaRaw, ok := kwargs["via"]; ok {
		exit, err := fx.stateOf(viaRaw)
		if err != nil {
			return nil, err
		}
		if !exit.CanTraverse() {
			return nil, configError(CodeBadParameter, "object %q is not an exit", exit.Identity())
		}
		if err := fx.Stack.Behavior().CheckPermission(fx.Context, exit.Identity(), "can_traverse", object); err != nil {
			return nil, err
		}
	}

	var fromRegistry *TriggerRegistry
	if obj, ok := fx.Context.Source().Object(object.Identity()); ok {
		if prev, ok := fx.Context.StateByID(locationOf(obj)); ok && prev.Room() != nil {
			fromRegistry = prev.Room().Registry
		}
	}

	if err := fx.Context.Source().Move(object.Identity(), destination.Identity()); err != nil {
		return nil, configError(CodeBadParameter, "cannot move %q: %v", object.Identity(), err)
	}

	if object.Kind() == KindCharacter && fromRegistry != nil && destination.Room() != nil {
		for _, t := range fromRegistry.UnregisterOwned(object.Identity()) {
			destination.Room().Registry.Register(t)
		}
	}
	return destination, nil
}

// locationOf reads an object's persisted location attribute.
func locationOf(obj Object) string {
	if v, ok := obj.Attributes()["location"]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// svcSendMessage queues a user-facing message on a state for the transport
// layer to drain.
func svcSendMessage(fx *FlowExecution, kwargs map[string]any) (any, error) {
	target, err := kwState(fx, kwargs, "target")
	if err != nil {
		return nil, err
	}
	text, err := kwString(kwargs, "text")
	if err != nil {
		return nil, err
	}
	target.AppendMessage(text)
	return nil, nil
}

func svcAttachBehavior(fx *FlowExecution, kwargs map[string]any) (any, error) {
	object, err := kwState(fx, kwargs, "object")
	if err != nil {
		return nil, err
	}
	pkg, err := kwString(kwargs, "package")
	if err != nil {
		return nil, err
	}
	hook, err := kwString(kwargs, "hook")
	if err != nil {
		return nil, err
	}
	data := map[string]any{}
	if raw, ok := kwargs["data"]; ok {
		m, isMap := raw.(map[string]any)
		if !isMap {
			return nil, configError(CodeBadParameter, "kwarg \"data\" must be a map, got %T", raw)
		}
		data = m
	}
	inst := &BehaviorPackageInstance{
		PackageKey: pkg,
		ObjectID:   object.Identity(),
		Hook:       hook,
		Data:       data,
	}
	if err := fx.Stack.Behavior().Attach(inst); err != nil {
		return nil, err
	}
	return inst.ID, nil
}

func svcDetachBehavior(fx *FlowExecution, kwargs map[string]any) (any, error) {
	object, err := kwState(fx, kwargs, "object")
	if err != nil {
		return nil, err
	}
	instanceID, err := kwString(kwargs, "instance")
	if err != nil {
		return nil, err
	}
	return fx.Stack.Behavior().Detach(object.Identity(), instanceID), nil
}

// svcStopEventPropagation sets stop_propagation on the event that spawned
// this flow, ending the trigger fan-out after the current trigger.
func svcStopEventPropagation(fx *FlowExecution, _ map[string]any) (any, error) {
	v, ok := fx.Var("event")
	if !ok {
		return nil, configError(CodeBadParameter, "stop_event_propagation needs a bound $event variable")
	}
	event, ok := v.(*FlowEvent)
	if !ok {
		return nil, configError(CodeBadParameter, "$event is not a flow event (got %T)", v)
	}
	event.StopPropagation = true
	return nil, nil
}

// svcCheckPermission runs an object's permission hooks; denial aborts the
// flow with the common domain error.
func svcCheckPermission(fx *FlowExecution, kwargs map[string]any) (any, error) {
	object, err := kwState(fx, kwargs, "object")
	if err != nil {
		return nil, err
	}
	hook, err := kwString(kwargs, "hook")
	if err != nil {
		return nil, err
	}
	var args []any
	if actorRaw, ok := kwargs["actor"]; ok {
		actor, err := fx.stateOf(actorRaw)
		if err != nil {
			return nil, err
		}
		args = append(args, actor)
	}
	if err := fx.Stack.Behavior().CheckPermission(fx.Context, object.Identity(), hook, args...); err != nil {
		return nil, err
	}
	return true, nil
}

// svcApplyModifiers folds an object's modifier hooks into a base value.
func svcApplyModifiers(fx *FlowExecution, kwargs map[string]any) (any, error) {
	object, err := kwState(fx, kwargs, "object")
	if err != nil {
		return nil, err
	}
	hook, err := kwString(kwargs, "hook")
	if err != nil {
		return nil, err
	}
	baseRaw, ok := kwargs["base"]
	if !ok {
		return nil, configError(CodeBadParameter, "service function requires kwarg \"base\"")
	}
	base, ok := asNumber(baseRaw)
	if !ok {
		return nil, configError(CodeBadParameter, "kwarg \"base\" must be numeric, got %T", baseRaw)
	}
	total, err := fx.Stack.Behavior().FoldModifiers(fx.Context, object.Identity(), hook, base)
	if err != nil {
		return nil, err
	}
	return normalizeNumber(total, baseRaw, nil), nil
}
