package engine

// StepAction enumerates the operations a flow step can perform.
type StepAction string

const (
	ActionSetContextValue    StepAction = "set_context_value"
	ActionModifyContextValue StepAction = "modify_context_value"

	ActionEvaluateEqual          StepAction = "evaluate_equal"
	ActionEvaluateNotEqual       StepAction = "evaluate_not_equal"
	ActionEvaluateGreater        StepAction = "evaluate_greater"
	ActionEvaluateGreaterOrEqual StepAction = "evaluate_greater_or_equal"
	ActionEvaluateLess           StepAction = "evaluate_less"
	ActionEvaluateLessOrEqual    StepAction = "evaluate_less_or_equal"
	ActionEvaluateExpression     StepAction = "evaluate_expression"

	ActionCallServiceFunction StepAction = "call_service_function"
	ActionEmitFlowEvent       StepAction = "emit_flow_event"
	ActionEmitFlowEventEach   StepAction = "emit_flow_event_for_each"

	ActionStopBranch StepAction = "stop_branch"
	ActionStopFlow   StepAction = "stop_flow"
	ActionCancelFlow StepAction = "cancel_flow"
)

var knownActions = map[StepAction]bool{
	ActionSetContextValue:        true,
	ActionModifyContextValue:     true,
	ActionEvaluateEqual:          true,
	ActionEvaluateNotEqual:       true,
	ActionEvaluateGreater:        true,
	ActionEvaluateGreaterOrEqual: true,
	ActionEvaluateLess:           true,
	ActionEvaluateLessOrEqual:    true,
	ActionEvaluateExpression:     true,
	ActionCallServiceFunction:    true,
	ActionEmitFlowEvent:          true,
	ActionEmitFlowEventEach:      true,
	ActionStopBranch:             true,
	ActionStopFlow:               true,
	ActionCancelFlow:             true,
}

// KnownAction reports whether a is a recognized step action.
func KnownAction(a StepAction) bool {
	return knownActions[a]
}

// FlowStepDefinition is one node of a flow's step tree, stored in the
// definition's arena and addressed by index. Read-only at execution time.
type FlowStepDefinition struct {
	ID           int
	Parent       int // -1 for roots
	Children     []int
	Action       StepAction
	VariableName string
	Parameters   map[string]any
}

// FlowDefinition is a named, reusable step-tree program. It is built once by
// the loader and never mutated by executions; many concurrent scenes may
// share one definition.
type FlowDefinition struct {
	Name  string
	Steps []FlowStepDefinition
	Roots []int
}

// Step returns the arena node with the given id, or nil.
func (d *FlowDefinition) Step(id int) *FlowStepDefinition {
	if id < 0 || id >= len(d.Steps) {
		return nil
	}
	return &d.Steps[id]
}

// siblings returns the ordered sibling list containing the given step.
func (d *FlowDefinition) siblings(id int) []int {
	s := d.Step(id)
	if s == nil {
		return nil
	}
	if s.Parent == -1 {
		return d.Roots
	}
	return d.Step(s.Parent).Children
}

// nextSibling returns the next declared sibling of id, or -1.
func (d *FlowDefinition) nextSibling(id int) int {
	sibs := d.siblings(id)
	for i, sid := range sibs {
		if sid == id && i+1 < len(sibs) {
			return sibs[i+1]
		}
	}
	return -1
}

// FlowLibrary caches flow definitions by unique name.
type FlowLibrary struct {
	flows map[string]*FlowDefinition
}

func NewFlowLibrary() *FlowLibrary {
	return &FlowLibrary{flows: make(map[string]*FlowDefinition)}
}

func (l *FlowLibrary) Register(def *FlowDefinition) error {
	if def.Name == "" {
		return configError(CodeBadParameter, "flow definition has no name")
	}
	if _, ok := l.flows[def.Name]; ok {
		return configError(CodeBadParameter, "duplicate flow definition %q", def.Name)
	}
	l.flows[def.Name] = def
	return nil
}

// Get looks a flow up by name; a missing name is a configuration error.
func (l *FlowLibrary) Get(name string) (*FlowDefinition, error) {
	def, ok := l.flows[name]
	if !ok {
		return nil, configError(CodeUnknownFlow, "unknown flow %q", name)
	}
	return def, nil
}

func (l *FlowLibrary) Names() []string {
	names := make([]string, 0, len(l.flows))
	for n := range l.flows {
		names = append(names, n)
	}
	return names
}

// TriggerDefinition is the persisted configuration a live Trigger points at:
// which event it reacts to, the flow it runs, and the filters that gate it.
type TriggerDefinition struct {
	Name       string
	EventType  string
	FlowName   string
	Conditions map[string]any // equality match against event data
	When       string         // optional expr filter over event data
}

// Trigger is one live binding of a definition to a location, with
// per-instance data merged into the spawned flow's variables.
type Trigger struct {
	ID         string
	Definition *TriggerDefinition
	Priority   int
	Owner      string // object identity the trigger travels with, if any
	Data       map[string]any

	seq int // registration order, assigned by the registry
}

// OriginKey makes a trigger usable as a flow origin: executions it spawns
// are fingerprinted per trigger instance.
func (t *Trigger) OriginKey() string {
	return "trigger:" + t.ID
}
