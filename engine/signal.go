package engine

// OutcomeKind enumerates the control signals a step can yield instead of a
// plain result. These are values inspected by the tree walker, not errors:
// only misconfiguration and reference failures travel as errors.
type OutcomeKind int

const (
	// OutcomeContinue runs the step's children, then the next sibling.
	OutcomeContinue OutcomeKind = iota
	// OutcomeStopBranch skips the step's children and its remaining
	// siblings; the rest of the tree still runs.
	OutcomeStopBranch
	// OutcomeStopFlow ends the whole execution cleanly, optionally
	// carrying a user-facing message.
	OutcomeStopFlow
	// OutcomeCancelFlow ends the execution as a reported error.
	OutcomeCancelFlow
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeContinue:
		return "continue"
	case OutcomeStopBranch:
		return "stop_branch"
	case OutcomeStopFlow:
		return "stop_flow"
	case OutcomeCancelFlow:
		return "cancel_flow"
	}
	return "unknown"
}

// StepOutcome is the result of executing one step.
type StepOutcome struct {
	Kind    OutcomeKind
	Message string
}

func outcomeContinue() StepOutcome {
	return StepOutcome{Kind: OutcomeContinue}
}

func outcomeStopBranch() StepOutcome {
	return StepOutcome{Kind: OutcomeStopBranch}
}

func outcomeStopFlow(msg string) StepOutcome {
	return StepOutcome{Kind: OutcomeStopFlow, Message: msg}
}

func outcomeCancelFlow(msg string) StepOutcome {
	return StepOutcome{Kind: OutcomeCancelFlow, Message: msg}
}
