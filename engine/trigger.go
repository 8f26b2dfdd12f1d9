package engine

import (
	"log/slog"
	"sort"

	"github.com/google/uuid"
)

// TriggerRegistry is a location's ordered set of active triggers. Each room
// owns exactly one registry with the room's lifecycle; triggers come and go
// as actors enter and leave. Iteration order is descending priority, stable
// by registration order on ties.
type TriggerRegistry struct {
	location string
	triggers []*Trigger
	nextSeq  int
	logger   *slog.Logger
}

func NewTriggerRegistry(location string) *TriggerRegistry {
	return &TriggerRegistry{
		location: location,
		logger:   slog.Default(),
	}
}

func (r *TriggerRegistry) Location() string {
	return r.location
}

// Register adds a trigger to the active set, assigning it an id when it has
// none. Ordering is re-established on every mutation, not during firing.
func (r *TriggerRegistry) Register(t *Trigger) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	t.seq = r.nextSeq
	r.nextSeq++
	r.triggers = append(r.triggers, t)
	sort.SliceStable(r.triggers, func(i, j int) bool {
		if r.triggers[i].Priority != r.triggers[j].Priority {
			return r.triggers[i].Priority > r.triggers[j].Priority
		}
		return r.triggers[i].seq < r.triggers[j].seq
	})
}

// Unregister removes a trigger by id.
func (r *TriggerRegistry) Unregister(id string) bool {
	for i, t := range r.triggers {
		if t.ID == id {
			r.triggers = append(r.triggers[:i], r.triggers[i+1:]...)
			return true
		}
	}
	return false
}

// UnregisterOwned removes every trigger owned by the given object, used
// when an actor leaves the location.
func (r *TriggerRegistry) UnregisterOwned(ownerID string) []*Trigger {
	var removed, kept []*Trigger
	for _, t := range r.triggers {
		if t.Owner == ownerID {
			removed = append(removed, t)
		} else {
			kept = append(kept, t)
		}
	}
	r.triggers = kept
	return removed
}

// Active returns a snapshot of the active set in firing order.
func (r *TriggerRegistry) Active() []*Trigger {
	out := make([]*Trigger, len(r.triggers))
	copy(out, r.triggers)
	return out
}

// ProcessEvent fans an event out to matching triggers in priority order.
// Each match runs the trigger's flow on the given stack with the trigger as
// origin; the event itself travels in the child's variables so trigger-run
// flows can rewrite its data or stop propagation for later triggers. The
// active set is snapshotted first, so trigger-run flows may mutate the
// registry without corrupting the iteration.
func (r *TriggerRegistry) ProcessEvent(event *FlowEvent, stack *FlowStack, ctx *ContextData) error {
	if event.StopPropagation {
		return nil
	}
	for _, t := range r.Active() {
		matched, err := r.matches(t, event)
		if err != nil {
			return err
		}
		if !matched {
			continue
		}

		def, err := stack.Library().Get(t.Definition.FlowName)
		if err != nil {
			return err
		}

		vars := make(map[string]any, len(event.Data)+len(t.Data)+2)
		for k, v := range event.Data {
			vars[k] = v
		}
		for k, v := range t.Data {
			vars[k] = v
		}
		vars["event"] = event
		if _, ok := vars["room"]; !ok {
			vars["room"] = r.location
		}

		r.logger.Info("trigger fired",
			"location", r.location,
			"trigger", t.Definition.Name,
			"event", event.Type(),
			"flow", t.Definition.FlowName)

		if _, err := stack.CreateAndExecuteFlow(def, ctx, t, vars); err != nil {
			return err
		}
		if event.StopPropagation {
			break
		}
	}
	return nil
}

// matches gates a trigger on event type, the equality conditions map, and
// the optional expression filter.
func (r *TriggerRegistry) matches(t *Trigger, event *FlowEvent) (bool, error) {
	if t.Definition.EventType != event.Type() {
		return false, nil
	}
	if !event.MatchesConditions(t.Definition.Conditions) {
		return false, nil
	}
	if t.Definition.When != "" {
		env := make(map[string]any, len(event.Data)+1)
		for k, v := range event.Data {
			env[k] = v
		}
		env["event_type"] = event.Type()
		ok, err := EvalBool(t.Definition.When, env)
		if err != nil {
			return false, err
		}
		return ok, nil
	}
	return true, nil
}
