package engine

import (
	"errors"

	"github.com/google/uuid"
)

// HookContext carries what a hook function may consult: the state of the
// object the package is attached to, plus the scene cache for reaching
// other objects.
type HookContext struct {
	State   *State
	Context *ContextData
}

// HookFunc is one pluggable extension function. Results are interpreted by
// the caller: permission hooks deny on falsy results or errors, modifier
// hooks contribute numeric values that the caller folds.
type HookFunc func(hctx HookContext, inst *BehaviorPackageInstance, args ...any) (any, error)

// BehaviorPackageDefinition names a reusable hook module. Definitions are
// registered at process start; the registry is read-only at run time.
type BehaviorPackageDefinition struct {
	Key   string
	Hooks map[string]HookFunc
}

// BehaviorPackageInstance attaches one definition to one object under one
// hook name, with instance-specific data.
type BehaviorPackageInstance struct {
	ID         string
	PackageKey string
	ObjectID   string
	Hook       string
	Data       map[string]any
}

// RequireData fetches a required instance data key, failing loudly when the
// attachment is misconfigured.
func (i *BehaviorPackageInstance) RequireData(key string) (any, error) {
	v, ok := i.Data[key]
	if !ok {
		return nil, configError(CodePackageData,
			"package %q attached to %s is missing required data key %q", i.PackageKey, i.ObjectID, key)
	}
	return v, nil
}

// BehaviorRegistry maps package keys to their definitions.
type BehaviorRegistry struct {
	defs map[string]*BehaviorPackageDefinition
}

func NewBehaviorRegistry() *BehaviorRegistry {
	return &BehaviorRegistry{defs: make(map[string]*BehaviorPackageDefinition)}
}

func (r *BehaviorRegistry) Register(def *BehaviorPackageDefinition) error {
	if def.Key == "" || len(def.Hooks) == 0 {
		return configError(CodeBadParameter, "behavior package needs a key and at least one hook")
	}
	if _, ok := r.defs[def.Key]; ok {
		return configError(CodeBadParameter, "duplicate behavior package %q", def.Key)
	}
	r.defs[def.Key] = def
	return nil
}

func (r *BehaviorRegistry) Get(key string) (*BehaviorPackageDefinition, error) {
	def, ok := r.defs[key]
	if !ok {
		return nil, configError(CodeUnknownPackage, "unknown behavior package %q", key)
	}
	return def, nil
}

// BehaviorAttachments tracks which package instances are attached to which
// objects. Invocation order per (object, hook) is insertion order.
type BehaviorAttachments struct {
	registry *BehaviorRegistry
	byObject map[string][]*BehaviorPackageInstance
}

func NewBehaviorAttachments(registry *BehaviorRegistry) *BehaviorAttachments {
	return &BehaviorAttachments{
		registry: registry,
		byObject: make(map[string][]*BehaviorPackageInstance),
	}
}

func (a *BehaviorAttachments) Registry() *BehaviorRegistry {
	return a.registry
}

// Attach validates the instance against its definition and records it.
func (a *BehaviorAttachments) Attach(inst *BehaviorPackageInstance) error {
	def, err := a.registry.Get(inst.PackageKey)
	if err != nil {
		return err
	}
	if _, ok := def.Hooks[inst.Hook]; !ok {
		return configError(CodeBadParameter,
			"behavior package %q has no hook %q", inst.PackageKey, inst.Hook)
	}
	if inst.ID == "" {
		inst.ID = uuid.New().String()
	}
	a.byObject[inst.ObjectID] = append(a.byObject[inst.ObjectID], inst)
	return nil
}

// Detach removes an instance from an object by instance id.
func (a *BehaviorAttachments) Detach(objectID, instanceID string) bool {
	instances := a.byObject[objectID]
	for i, inst := range instances {
		if inst.ID == instanceID {
			a.byObject[objectID] = append(instances[:i], instances[i+1:]...)
			return true
		}
	}
	return false
}

// InstancesFor returns the instances attached to an object under a hook
// name, in insertion order.
func (a *BehaviorAttachments) InstancesFor(objectID, hook string) []*BehaviorPackageInstance {
	var out []*BehaviorPackageInstance
	for _, inst := range a.byObject[objectID] {
		if inst.Hook == hook {
			out = append(out, inst)
		}
	}
	return out
}

// Invoke runs every instance matching (object, hook) and collects the
// results in invocation order.
func (a *BehaviorAttachments) Invoke(ctx *ContextData, objectID, hook string, args ...any) ([]any, error) {
	instances := a.InstancesFor(objectID, hook)
	if len(instances) == 0 {
		return nil, nil
	}
	st, _ := ctx.StateByID(objectID)
	hctx := HookContext{State: st, Context: ctx}

	results := make([]any, 0, len(instances))
	for _, inst := range instances {
		def, err := a.registry.Get(inst.PackageKey)
		if err != nil {
			return nil, err
		}
		fn := def.Hooks[inst.Hook]
		r, err := fn(hctx, inst, args...)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// CheckPermission denies when any instance under the hook returns a falsy
// result or a domain error; the denial is always reported as the single
// caller-visible permission error. No instances means permitted.
func (a *BehaviorAttachments) CheckPermission(ctx *ContextData, objectID, hook string, args ...any) error {
	results, err := a.Invoke(ctx, objectID, hook, args...)
	if err != nil {
		if IsDomainError(err) {
			return err
		}
		var fe *FlowError
		if errors.As(err, &fe) && fe.Kind == ErrorKindConfig {
			return err
		}
		denied := domainError(CodePermissionDenied, "permission denied: %v", err)
		denied.Cause = err
		return denied
	}
	for _, r := range results {
		if isFalsy(r) {
			return ErrPermissionDenied
		}
	}
	return nil
}

// FoldModifiers sums the numeric contributions of every instance under the
// hook into the base value.
func (a *BehaviorAttachments) FoldModifiers(ctx *ContextData, objectID, hook string, base float64, args ...any) (float64, error) {
	results, err := a.Invoke(ctx, objectID, hook, args...)
	if err != nil {
		return 0, err
	}
	total := base
	for _, r := range results {
		n, ok := asNumber(r)
		if !ok {
			return 0, configError(CodeBadParameter,
				"hook %q on %s contributed a non-numeric value %T", hook, objectID, r)
		}
		total += n
	}
	return total, nil
}
