package workflow

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/specialistvlad/matrixrun/internal/ctxlog"
	"github.com/specialistvlad/matrixrun/internal/model"
	"github.com/specialistvlad/matrixrun/internal/schema"
)

// Loader reads workflow definitions from disk into the unified model.
type Loader struct{}

// NewLoader returns a ready-to-use Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load discovers, parses, translates, and validates every workflow file
// under the given path.
func (l *Loader) Load(ctx context.Context, path string) (*model.Set, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := FindWorkflowFiles(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Workflow files discovered.", "count", len(files))

	set := &model.Set{}
	for _, file := range files {
		wf, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
		if err := Validate(wf); err != nil {
			return nil, fmt.Errorf("invalid workflow %s: %w", file, err)
		}
		set.Workflows = append(set.Workflows, wf)
		logger.Debug("Workflow loaded.", "file", file, "name", wf.Name, "jobs", len(wf.Jobs))
	}
	return set, nil
}

// loadFile parses a single workflow file into the model.
func (l *Loader) loadFile(path string) (*model.Workflow, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var wire schema.Workflow
	if err := yaml.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}

	return translateWorkflow(&wire, path), nil
}
