package engine

import (
	"fmt"
)

// RegisterBuiltinPackages installs the behavior packages shipped with the
// engine. Game content registers its own packages the same way before any
// scene starts.
func RegisterBuiltinPackages(r *BehaviorRegistry) error {
	builtins := []*BehaviorPackageDefinition{
		{
			Key: "require_key",
			Hooks: map[string]HookFunc{
				"can_traverse": requireKeyHook,
			},
		},
		{
			Key: "always_block",
			Hooks: map[string]HookFunc{
				"can_traverse": func(HookContext, *BehaviorPackageInstance, ...any) (any, error) {
					return false, nil
				},
			},
		},
		{
			Key: "attribute_bonus",
			Hooks: map[string]HookFunc{
				"modify_strength": attributeBonusHook,
			},
		},
	}
	for _, def := range builtins {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// requireKeyHook permits traversal only when the acting character carries
// an object whose configured attribute equals the configured value.
// Instance data: attribute, value.
func requireKeyHook(hctx HookContext, inst *BehaviorPackageInstance, args ...any) (any, error) {
	attrRaw, err := inst.RequireData("attribute")
	if err != nil {
		return nil, err
	}
	attribute, ok := attrRaw.(string)
	if !ok {
		return nil, configError(CodePackageData,
			"package %q data key \"attribute\" must be a string, got %T", inst.PackageKey, attrRaw)
	}
	want, err := inst.RequireData("value")
	if err != nil {
		return nil, err
	}

	actor, err := hookActor(args)
	if err != nil {
		return nil, err
	}
	for _, held := range hctx.Context.Source().Contents(actor.Identity()) {
		st, ok := hctx.Context.StateByID(held.Identity())
		if !ok {
			continue
		}
		if v, ok := st.Attr(attribute); ok && identityEqual(v, want) {
			return true, nil
		}
	}
	return false, nil
}

// attributeBonusHook contributes a flat configured bonus to a folded value.
// Instance data: bonus.
func attributeBonusHook(_ HookContext, inst *BehaviorPackageInstance, _ ...any) (any, error) {
	raw, err := inst.RequireData("bonus")
	if err != nil {
		return nil, err
	}
	bonus, ok := asNumber(raw)
	if !ok {
		return nil, configError(CodePackageData,
			"package %q data key \"bonus\" must be numeric, got %T", inst.PackageKey, raw)
	}
	return bonus, nil
}

// hookActor extracts the acting character passed as the first extra hook
// argument.
func hookActor(args []any) (*State, error) {
	if len(args) == 0 {
		return nil, configError(CodeBadParameter, "hook expects the acting character as an argument")
	}
	actor, ok := args[0].(*State)
	if !ok {
		return nil, configError(CodeBadParameter, "hook actor must be a state, got %T", args[0])
	}
	if actor == nil {
		return nil, fmt.Errorf("hook actor is nil")
	}
	return actor, nil
}
