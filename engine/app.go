package engine

import (
	"log/slog"
)

// App is one configured engine instance: the loaded flow library, the
// registries, and the persisted-object source. Scenes are spawned from it;
// the app itself holds no per-scene state.
type App struct {
	Config   Config
	Library  *FlowLibrary
	Services *ServiceRegistry
	Behavior *BehaviorRegistry
	Source   ObjectSource

	triggers []TriggerSpec
	packages []PackageSpec
	logger   *slog.Logger
}

func NewApp(cfg Config, source ObjectSource, logger *slog.Logger) (*App, error) {
	if err := PrepareConfig(&cfg); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	app := &App{
		Config:   cfg,
		Library:  NewFlowLibrary(),
		Services: NewServiceRegistry(),
		Behavior: NewBehaviorRegistry(),
		Source:   source,
		logger:   logger,
	}
	if err := RegisterBuiltinServices(app.Services); err != nil {
		return nil, err
	}
	if err := RegisterBuiltinPackages(app.Behavior); err != nil {
		return nil, err
	}

	if cfg.ContentDir != "" {
		content, err := LoadContentDir(cfg.ContentDir)
		if err != nil {
			return nil, err
		}
		if err := app.AddContent(content); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// AddContent registers loaded flows and remembers trigger and package
// specs for scene setup.
func (a *App) AddContent(content *Content) error {
	for _, def := range content.Flows {
		if err := a.Library.Register(def); err != nil {
			return err
		}
	}
	a.triggers = append(a.triggers, content.Triggers...)
	a.packages = append(a.packages, content.Packages...)
	return nil
}

func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Scene is one session's mutable aggregate: a state cache and a flow stack
// that must stay on a single logical thread.
type Scene struct {
	Context *ContextData
	Stack   *FlowStack
}

// NewScene builds a fresh scene: states for every room, trigger specs
// registered on their rooms (owner-bound triggers land on the owner's
// current location), and package attachments applied.
func (a *App) NewScene() (*Scene, error) {
	ctx := NewContextData(a.Source)
	attachments := NewBehaviorAttachments(a.Behavior)
	stack := NewFlowStack(a.Config, a.Library, a.Services, attachments, a.logger)

	for _, spec := range a.packages {
		inst := &BehaviorPackageInstance{
			PackageKey: spec.Package,
			ObjectID:   spec.Object,
			Hook:       spec.Hook,
			Data:       normalizeParameters(spec.Data),
		}
		if err := attachments.Attach(inst); err != nil {
			return nil, err
		}
	}

	for _, spec := range a.triggers {
		roomID := spec.Room
		owner := spec.Owner
		if roomID == "" && owner != "" {
			obj, ok := a.Source.Object(owner)
			if !ok {
				return nil, configError(CodeBadParameter, "trigger %q owner %q does not resolve", spec.Name, owner)
			}
			roomID = locationOf(obj)
		}
		room, ok := ctx.StateByID(roomID)
		if !ok || room.Room() == nil {
			return nil, configError(CodeBadParameter, "trigger %q needs a room, got %q", spec.Name, roomID)
		}
		room.Room().Registry.Register(&Trigger{
			Definition: &TriggerDefinition{
				Name:       spec.Name,
				EventType:  spec.EventType,
				FlowName:   spec.Flow,
				Conditions: normalizeParameters(spec.Conditions),
				When:       spec.When,
			},
			Priority: spec.Priority,
			Owner:    owner,
			Data:     normalizeParameters(spec.Data),
		})
	}

	return &Scene{Context: ctx, Stack: stack}, nil
}

// RunFlow executes a named flow inside a scene on behalf of an origin.
func (a *App) RunFlow(scene *Scene, name string, origin Origin, vars map[string]any) (*FlowExecution, error) {
	return scene.Stack.RunFlowByName(name, scene.Context, origin, vars)
}
