package engine

import (
	"log/slog"
)

// Origin identifies what caused an execution to start: a player command, a
// trigger, or another flow. Its key is half of the execution fingerprint
// that guards against runaway trigger recursion.
type Origin interface {
	OriginKey() string
}

// StringOrigin is the command layer's origin: typically the acting
// character's identity.
type StringOrigin string

func (o StringOrigin) OriginKey() string {
	return string(o)
}

// ExecutedStep is one step_history entry.
type ExecutedStep struct {
	FlowName    string
	ExecutionID string
	StepID      int
	Action      StepAction
}

// FlowStack orchestrates the executions of one scene. It owns the
// append-only step history and the execution-key ledger that deduplicates
// concurrent identical executions. Like ContextData it is single-owner:
// one scene, one logical thread, no internal locking.
type FlowStack struct {
	library  *FlowLibrary
	services *ServiceRegistry
	behavior *BehaviorAttachments

	limit      int
	maxHistory int
	logger     *slog.Logger

	// StepHistory records every executed step across all executions.
	StepHistory []ExecutedStep

	executions map[string][]*FlowExecution
}

func NewFlowStack(cfg Config, library *FlowLibrary, services *ServiceRegistry, behavior *BehaviorAttachments, logger *slog.Logger) *FlowStack {
	if logger == nil {
		logger = slog.Default()
	}
	return &FlowStack{
		library:    library,
		services:   services,
		behavior:   behavior,
		limit:      cfg.ExecutionLimitPerKey,
		maxHistory: cfg.MaxStepHistory,
		logger:     logger,
		executions: make(map[string][]*FlowExecution),
	}
}

func (s *FlowStack) Library() *FlowLibrary {
	return s.library
}

func (s *FlowStack) Services() *ServiceRegistry {
	return s.services
}

func (s *FlowStack) Behavior() *BehaviorAttachments {
	return s.behavior
}

// ExecutionKey fingerprints (definition, origin). Executions sharing a key
// are considered duplicates for the recursion guard.
func ExecutionKey(def *FlowDefinition, origin Origin) string {
	return def.Name + "|" + origin.OriginKey()
}

// Executions returns the ledger entries created under a key, completed
// ones included.
func (s *FlowStack) Executions(key string) []*FlowExecution {
	return s.executions[key]
}

// liveCount counts the key's executions still in flight. Completed runs
// stay in the ledger for observability but release their slot, otherwise a
// repeated player command would be silently dropped forever.
func (s *FlowStack) liveCount(key string) int {
	n := 0
	for _, fx := range s.executions[key] {
		if !fx.Done() {
			n++
		}
	}
	return n
}

// CreateAndExecuteFlow builds an execution and drives it to completion.
// When the per-key limit is already met the call is a silent no-op
// returning (nil, nil): that is the mechanism preventing trigger-emitted
// events from re-running the same flow from the same origin unboundedly,
// so it must be checked before the child execution exists.
func (s *FlowStack) CreateAndExecuteFlow(def *FlowDefinition, ctx *ContextData, origin Origin, vars map[string]any) (*FlowExecution, error) {
	key := ExecutionKey(def, origin)
	if s.liveCount(key) >= s.limit {
		s.logger.Debug("execution deduplicated", "flow", def.Name, "origin", origin.OriginKey())
		return nil, nil
	}

	fx := newFlowExecution(def, ctx, s, origin, vars, s.logger)
	s.executions[key] = append(s.executions[key], fx)

	s.logger.Info("flow started", "flow", def.Name, "origin", origin.OriginKey(), "execution", fx.ID)

	for !fx.Done() {
		s.recordStep(fx)
		if err := fx.ExecuteCurrentStep(); err != nil {
			s.logger.Error("flow failed",
				"flow", def.Name,
				"execution", fx.ID,
				"error", err)
			return fx, err
		}
	}

	s.logger.Info("flow finished", "flow", def.Name, "execution", fx.ID, "state", fx.TerminalState())
	return fx, nil
}

// RunFlowByName is the command-layer entry point: look the flow up and run
// it in one call.
func (s *FlowStack) RunFlowByName(name string, ctx *ContextData, origin Origin, vars map[string]any) (*FlowExecution, error) {
	def, err := s.library.Get(name)
	if err != nil {
		return nil, err
	}
	return s.CreateAndExecuteFlow(def, ctx, origin, vars)
}

func (s *FlowStack) recordStep(fx *FlowExecution) {
	step := fx.CurrentStep()
	if step == nil {
		return
	}
	if s.maxHistory > 0 && len(s.StepHistory) >= s.maxHistory {
		return
	}
	s.StepHistory = append(s.StepHistory, ExecutedStep{
		FlowName:    fx.Flow.Name,
		ExecutionID: fx.ID,
		StepID:      step.ID,
		Action:      step.Action,
	})
}
