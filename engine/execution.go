package engine

import (
	"log/slog"

	"github.com/google/uuid"
)

// FlowExecution is one instantiation of a flow definition against a scene:
// a tree-walk cursor plus the mutable variable mapping. Created by the
// stack, advanced step by step, and discarded after completion.
type FlowExecution struct {
	ID        string
	Flow      *FlowDefinition
	Context   *ContextData
	Stack     *FlowStack
	Origin    Origin
	Variables map[string]any

	// Emitted accumulates the events this execution raised, for the
	// command layer and tests.
	Emitted []*FlowEvent

	current   int // step id, -1 when exhausted
	finished  bool
	cancelled bool
	message   string
	logger    *slog.Logger
}

func newFlowExecution(flow *FlowDefinition, ctx *ContextData, stack *FlowStack, origin Origin, vars map[string]any, logger *slog.Logger) *FlowExecution {
	variables := make(map[string]any, len(vars))
	for k, v := range vars {
		variables[k] = v
	}
	fx := &FlowExecution{
		ID:        uuid.New().String(),
		Flow:      flow,
		Context:   ctx,
		Stack:     stack,
		Origin:    origin,
		Variables: variables,
		current:   -1,
		logger:    logger,
	}
	if len(flow.Roots) > 0 {
		fx.current = flow.Roots[0]
	} else {
		fx.finished = true
	}
	return fx
}

// CurrentStep returns the cursor's step, nil when the execution is done.
func (fx *FlowExecution) CurrentStep() *FlowStepDefinition {
	if fx.finished {
		return nil
	}
	return fx.Flow.Step(fx.current)
}

// Done reports whether the execution has terminated.
func (fx *FlowExecution) Done() bool {
	return fx.finished
}

// Cancelled reports whether the execution ended via cancel-flow.
func (fx *FlowExecution) Cancelled() bool {
	return fx.cancelled
}

// Message returns the stop-flow or cancel-flow message, if any.
func (fx *FlowExecution) Message() string {
	return fx.message
}

// Bind stores a step result under the step's variable name.
func (fx *FlowExecution) Bind(name string, value any) {
	if name == "" {
		return
	}
	fx.Variables[name] = value
}

// Var reads a variable from the mapping.
func (fx *FlowExecution) Var(name string) (any, bool) {
	v, ok := fx.Variables[name]
	return v, ok
}

// ExecuteCurrentStep runs the cursor's step and advances the cursor
// according to the step's outcome. Errors terminate the execution.
func (fx *FlowExecution) ExecuteCurrentStep() error {
	step := fx.CurrentStep()
	if step == nil {
		return nil
	}

	outcome, err := fx.executeStep(step)
	if err != nil {
		fx.finished = true
		return atStep(err, fx.Flow.Name, step.ID)
	}

	fx.logger.Debug("step executed",
		"flow", fx.Flow.Name,
		"step", step.ID,
		"action", string(step.Action),
		"outcome", outcome.Kind.String())

	switch outcome.Kind {
	case OutcomeContinue:
		fx.descendOrAdvance(step)
	case OutcomeStopBranch:
		fx.skipBranch(step)
	case OutcomeStopFlow:
		fx.finished = true
		fx.message = outcome.Message
	case OutcomeCancelFlow:
		fx.finished = true
		fx.cancelled = true
		fx.message = outcome.Message
		err := domainError(CodeFlowCancelled, "flow %q cancelled", fx.Flow.Name)
		if outcome.Message != "" {
			err.Message = outcome.Message
		}
		return atStep(err, fx.Flow.Name, step.ID)
	}
	return nil
}

// descendOrAdvance moves to the step's first child, else to the next
// sibling, climbing ancestors when a sibling group is exhausted.
func (fx *FlowExecution) descendOrAdvance(step *FlowStepDefinition) {
	if len(step.Children) > 0 {
		fx.current = step.Children[0]
		return
	}
	fx.climbFrom(step.ID)
}

// skipBranch drops the step's children and remaining siblings, resuming at
// the enclosing level. A branch stop at the root level ends the flow.
func (fx *FlowExecution) skipBranch(step *FlowStepDefinition) {
	if step.Parent == -1 {
		fx.finished = true
		return
	}
	fx.climbFrom(step.Parent)
}

// climbFrom advances to the next sibling of id, walking up through parents
// until a sibling exists or the tree is exhausted.
func (fx *FlowExecution) climbFrom(id int) {
	for id != -1 {
		if sib := fx.Flow.nextSibling(id); sib != -1 {
			fx.current = sib
			return
		}
		id = fx.Flow.Step(id).Parent
	}
	fx.finished = true
}

// TerminalState describes how the execution ended, for callers surfacing
// results across a service boundary.
func (fx *FlowExecution) TerminalState() string {
	switch {
	case !fx.finished:
		return "running"
	case fx.cancelled:
		return "cancelled"
	case fx.message != "":
		return "stopped"
	}
	return "completed"
}
