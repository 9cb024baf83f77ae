package workflow

import (
	"path/filepath"
	"strings"

	"github.com/specialistvlad/matrixrun/internal/model"
	"github.com/specialistvlad/matrixrun/internal/schema"
)

// translateWorkflow converts the YAML wire structures into the agnostic model.
func translateWorkflow(w *schema.Workflow, source string) *model.Workflow {
	out := &model.Workflow{
		Name:     w.Name,
		Source:   source,
		Triggers: translateTriggers(&w.On),
		Env:      translateEnv(w.Env),
	}
	if out.Name == "" {
		base := filepath.Base(source)
		out.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	for _, entry := range w.Jobs {
		out.Jobs = append(out.Jobs, translateJob(entry.ID, &entry.Job))
	}
	return out
}

func translateTriggers(t *schema.Triggers) *model.Triggers {
	out := &model.Triggers{}
	for _, rule := range t.Events {
		out.Events = append(out.Events, &model.EventRule{
			Name:           rule.Name,
			Branches:       rule.Branches,
			BranchesIgnore: rule.BranchesIgnore,
		})
	}
	return out
}

func translateJob(id string, j *schema.Job) *model.Job {
	out := &model.Job{
		ID:             id,
		Name:           j.Name,
		RunsOn:         j.RunsOn,
		Needs:          j.Needs,
		Env:            translateEnv(j.Env),
		TimeoutMinutes: j.TimeoutMinutes,
	}
	if out.Name == "" {
		out.Name = id
	}
	if j.Defaults != nil {
		out.Defaults = model.RunDefaults{
			Shell:            j.Defaults.Run.Shell,
			WorkingDirectory: j.Defaults.Run.WorkingDirectory,
		}
	}
	if j.Strategy != nil {
		out.Strategy = translateStrategy(j.Strategy)
	}
	for _, s := range j.Steps {
		out.Steps = append(out.Steps, &model.Step{
			ID:               s.ID,
			Name:             s.Name,
			Run:              s.Run,
			Shell:            s.Shell,
			WorkingDirectory: s.WorkingDirectory,
			Env:              translateEnv(s.Env),
			ContinueOnError:  s.ContinueOnError,
		})
	}
	return out
}

func translateStrategy(s *schema.Strategy) *model.Strategy {
	out := &model.Strategy{
		// fail-fast is on unless the file switches it off.
		FailFast:    s.FailFast == nil || *s.FailFast,
		MaxParallel: s.MaxParallel,
	}
	if s.Matrix != nil {
		spec := &model.MatrixSpec{
			AxisOrder: s.Matrix.AxisOrder,
			Axes:      make(map[string][]string, len(s.Matrix.Axes)),
		}
		for axis, values := range s.Matrix.Axes {
			for _, v := range values {
				spec.Axes[axis] = append(spec.Axes[axis], string(v))
			}
		}
		for _, row := range s.Matrix.Include {
			spec.Include = append(spec.Include, translateRow(row))
		}
		for _, row := range s.Matrix.Exclude {
			spec.Exclude = append(spec.Exclude, translateRow(row))
		}
		out.Matrix = spec
	}
	return out
}

func translateRow(row map[string]schema.RawScalar) map[string]string {
	out := make(map[string]string, len(row))
	for k, v := range row {
		out[k] = string(v)
	}
	return out
}

func translateEnv(env schema.EnvMap) map[string]string {
	if len(env) == 0 {
		return nil
	}
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[k] = string(v)
	}
	return out
}
