package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Content files are YAML documents carrying any mix of flows, triggers, and
// behavior package attachments. Flow steps are written as a nested tree and
// flattened into the definition's arena at load time, so executions never
// rebuild the tree.

// StepNode is the YAML form of one step in a flow tree.
type StepNode struct {
	Action       string         `yaml:"action"`
	VariableName string         `yaml:"variable_name"`
	Parameters   map[string]any `yaml:"parameters"`
	Steps        []StepNode     `yaml:"steps"`
}

type flowNode struct {
	Name  string     `yaml:"name"`
	Steps []StepNode `yaml:"steps"`
}

// TriggerSpec is the persisted form of a trigger: where it lives, what it
// listens for, and the flow it runs.
type TriggerSpec struct {
	Name       string         `yaml:"name"`
	EventType  string         `yaml:"event_type"`
	Flow       string         `yaml:"flow"`
	Priority   int            `yaml:"priority"`
	Room       string         `yaml:"room"`
	Owner      string         `yaml:"owner"`
	Conditions map[string]any `yaml:"conditions"`
	When       string         `yaml:"when"`
	Data       map[string]any `yaml:"data"`
}

// PackageSpec is the persisted form of a behavior package attachment.
type PackageSpec struct {
	Package string         `yaml:"package"`
	Object  string         `yaml:"object"`
	Hook    string         `yaml:"hook"`
	Data    map[string]any `yaml:"data"`
}

type contentFile struct {
	Flows    []flowNode    `yaml:"flows"`
	Triggers []TriggerSpec `yaml:"triggers"`
	Packages []PackageSpec `yaml:"packages"`
}

// Content is everything a content directory defines.
type Content struct {
	Flows    []*FlowDefinition
	Triggers []TriggerSpec
	Packages []PackageSpec
}

// LoadContentDir reads every *.yaml file in dir.
func LoadContentDir(dir string) (*Content, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("error reading content directory: %w", err)
	}

	content := &Content{}
	for _, file := range files {
		if err := loadContentFile(file, content); err != nil {
			return nil, err
		}
	}
	return content, nil
}

func loadContentFile(file string, content *Content) error {
	raw, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("error reading content file: %w", err)
	}

	var parsed contentFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("error unmarshalling %s: %w", filepath.Base(file), err)
	}

	for _, node := range parsed.Flows {
		def, err := BuildFlowDefinition(node.Name, node.Steps)
		if err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(file), err)
		}
		content.Flows = append(content.Flows, def)
	}
	for _, t := range parsed.Triggers {
		if t.EventType == "" || t.Flow == "" {
			return configError(CodeBadParameter, "%s: trigger %q needs event_type and flow", filepath.Base(file), t.Name)
		}
		content.Triggers = append(content.Triggers, t)
	}
	for _, p := range parsed.Packages {
		if p.Package == "" || p.Object == "" || p.Hook == "" {
			return configError(CodeBadParameter, "%s: package attachment needs package, object, and hook", filepath.Base(file))
		}
		content.Packages = append(content.Packages, p)
	}
	return nil
}

// BuildFlowDefinition flattens a nested step tree into an arena definition.
// Step ids are assigned in preorder, so declaration order is walk order.
func BuildFlowDefinition(name string, steps []StepNode) (*FlowDefinition, error) {
	if name == "" {
		return nil, configError(CodeBadParameter, "flow definition has no name")
	}
	def := &FlowDefinition{Name: name}
	for _, node := range steps {
		id, err := appendStep(def, node, -1)
		if err != nil {
			return nil, fmt.Errorf("flow %q: %w", name, err)
		}
		def.Roots = append(def.Roots, id)
	}
	return def, nil
}

func appendStep(def *FlowDefinition, node StepNode, parent int) (int, error) {
	action := StepAction(node.Action)
	if !KnownAction(action) {
		return 0, configError(CodeUnknownAction, "unknown step action %q", node.Action)
	}

	id := len(def.Steps)
	def.Steps = append(def.Steps, FlowStepDefinition{
		ID:           id,
		Parent:       parent,
		Action:       action,
		VariableName: node.VariableName,
		Parameters:   normalizeParameters(node.Parameters),
	})

	for _, child := range node.Steps {
		childID, err := appendStep(def, child, id)
		if err != nil {
			return 0, err
		}
		def.Steps[id].Children = append(def.Steps[id].Children, childID)
	}
	return id, nil
}

// normalizeParameters rewrites yaml.v3's map[any]any values into
// string-keyed maps so parameter resolution sees one shape.
func normalizeParameters(params map[string]any) map[string]any {
	if params == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, nested := range val {
			out[k] = normalizeValue(nested)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, nested := range val {
			out[fmt.Sprint(k)] = normalizeValue(nested)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, nested := range val {
			out[i] = normalizeValue(nested)
		}
		return out
	}
	return v
}
