// Package schema defines the YAML wire format for workflow files. Decoding
// works on yaml.Node rather than plain Go values where the format demands it:
// mapping order matters for jobs and matrix axes, several fields accept both
// scalar and sequence forms, and scalars must keep their literal spelling so
// a version like 3.10 never collapses into the float 3.1.
package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// RawScalar is a scalar value captured as its literal text from the file.
type RawScalar string

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *RawScalar) UnmarshalYAML(node *yaml.Node) error {
	node = resolved(node)
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar value", node.Line)
	}
	*r = RawScalar(node.Value)
	return nil
}

// StringOrList accepts either a single scalar or a sequence of scalars.
type StringOrList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringOrList) UnmarshalYAML(node *yaml.Node) error {
	node = resolved(node)
	switch node.Kind {
	case yaml.ScalarNode:
		*s = []string{node.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			item = resolved(item)
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: expected a scalar list item", item.Line)
			}
			out = append(out, item.Value)
		}
		*s = out
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", node.Line)
	}
}

// EnvMap is a mapping of environment variable names to raw scalar values.
type EnvMap map[string]RawScalar

// Workflow is the top-level wire structure of a workflow file.
type Workflow struct {
	Name string
	On   Triggers
	Env  EnvMap
	Jobs []JobEntry
}

// JobEntry pairs a job with its key in the jobs mapping, preserving
// declaration order.
type JobEntry struct {
	ID  string
	Job Job
}

// UnmarshalYAML implements yaml.Unmarshaler. The top level is decoded by
// walking the mapping's key/value pairs directly: the `on` key is an
// unquoted YAML 1.1 boolean, so it is matched by its literal text, and the
// jobs mapping must keep its file order.
func (w *Workflow) UnmarshalYAML(node *yaml.Node) error {
	node = resolved(node)
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: workflow must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], resolved(node.Content[i+1])
		switch key.Value {
		case "name":
			if err := val.Decode(&w.Name); err != nil {
				return err
			}
		case "on", "true": // "true" is what a YAML 1.1 round-trip turns `on` into
			if err := w.On.UnmarshalYAML(val); err != nil {
				return err
			}
		case "env":
			if err := val.Decode(&w.Env); err != nil {
				return err
			}
		case "jobs":
			if val.Kind != yaml.MappingNode {
				return fmt.Errorf("line %d: jobs must be a mapping", val.Line)
			}
			for j := 0; j+1 < len(val.Content); j += 2 {
				jobKey, jobVal := val.Content[j], resolved(val.Content[j+1])
				entry := JobEntry{ID: jobKey.Value}
				if err := jobVal.Decode(&entry.Job); err != nil {
					return fmt.Errorf("job %q: %w", jobKey.Value, err)
				}
				w.Jobs = append(w.Jobs, entry)
			}
		}
	}
	return nil
}

// Triggers is the wire form of the `on` field, accepting a bare event name,
// a sequence of names, or a mapping with per-event branch filters.
type Triggers struct {
	Events []EventRule
}

// EventRule is one trigger entry.
type EventRule struct {
	Name           string
	Branches       StringOrList
	BranchesIgnore StringOrList
}

// eventFilter is the mapping form of a single event's configuration.
type eventFilter struct {
	Branches       StringOrList `yaml:"branches"`
	BranchesIgnore StringOrList `yaml:"branches-ignore"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Triggers) UnmarshalYAML(node *yaml.Node) error {
	node = resolved(node)
	switch node.Kind {
	case yaml.ScalarNode:
		t.Events = []EventRule{{Name: node.Value}}
		return nil
	case yaml.SequenceNode:
		for _, item := range node.Content {
			item = resolved(item)
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: expected an event name", item.Line)
			}
			t.Events = append(t.Events, EventRule{Name: item.Value})
		}
		return nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], resolved(node.Content[i+1])
			rule := EventRule{Name: key.Value}
			// A bare `push:` with no filters decodes as a null scalar.
			if val.Kind == yaml.MappingNode {
				var filter eventFilter
				if err := val.Decode(&filter); err != nil {
					return fmt.Errorf("event %q: %w", key.Value, err)
				}
				rule.Branches = filter.Branches
				rule.BranchesIgnore = filter.BranchesIgnore
			}
			t.Events = append(t.Events, rule)
		}
		return nil
	default:
		return fmt.Errorf("line %d: unsupported form for `on`", node.Line)
	}
}

// Job is the wire form of a single job definition.
type Job struct {
	Name           string       `yaml:"name"`
	RunsOn         string       `yaml:"runs-on"`
	Needs          StringOrList `yaml:"needs"`
	Strategy       *Strategy    `yaml:"strategy"`
	Env            EnvMap       `yaml:"env"`
	Defaults       *Defaults    `yaml:"defaults"`
	TimeoutMinutes int          `yaml:"timeout-minutes"`
	Steps          []*Step      `yaml:"steps"`
}

// Strategy is the wire form of a job's fan-out settings.
type Strategy struct {
	Matrix      *Matrix `yaml:"matrix"`
	FailFast    *bool   `yaml:"fail-fast"`
	MaxParallel int     `yaml:"max-parallel"`
}

// Defaults is the wire form of job-level step defaults.
type Defaults struct {
	Run struct {
		Shell            string `yaml:"shell"`
		WorkingDirectory string `yaml:"working-directory"`
	} `yaml:"run"`
}

// Step is the wire form of a single step.
type Step struct {
	ID               string `yaml:"id"`
	Name             string `yaml:"name"`
	Run              string `yaml:"run"`
	Shell            string `yaml:"shell"`
	WorkingDirectory string `yaml:"working-directory"`
	Env              EnvMap `yaml:"env"`
	ContinueOnError  bool   `yaml:"continue-on-error"`
}

// Matrix is the wire form of `strategy.matrix`: named axes in declaration
// order plus optional include/exclude rows.
type Matrix struct {
	AxisOrder []string
	Axes      map[string][]RawScalar
	Include   []map[string]RawScalar
	Exclude   []map[string]RawScalar
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *Matrix) UnmarshalYAML(node *yaml.Node) error {
	node = resolved(node)
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: matrix must be a mapping", node.Line)
	}
	m.Axes = make(map[string][]RawScalar)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], resolved(node.Content[i+1])
		switch key.Value {
		case "include":
			if err := val.Decode(&m.Include); err != nil {
				return fmt.Errorf("matrix include: %w", err)
			}
		case "exclude":
			if err := val.Decode(&m.Exclude); err != nil {
				return fmt.Errorf("matrix exclude: %w", err)
			}
		default:
			var values []RawScalar
			if err := val.Decode(&values); err != nil {
				return fmt.Errorf("matrix axis %q: %w", key.Value, err)
			}
			m.AxisOrder = append(m.AxisOrder, key.Value)
			m.Axes[key.Value] = values
		}
	}
	return nil
}

// resolved follows an alias node to its anchor target.
func resolved(n *yaml.Node) *yaml.Node {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		return n.Alias
	}
	return n
}
