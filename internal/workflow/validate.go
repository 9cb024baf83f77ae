package workflow

import (
	"fmt"

	"github.com/specialistvlad/matrixrun/internal/model"
	"github.com/specialistvlad/matrixrun/internal/shell"
)

// Validate checks the structural integrity of a loaded workflow: every job
// has runnable steps, needs references resolve, shells are known, and
// numeric settings are sane. Trigger rules are not validated here; a
// workflow nothing triggers is legal, it just never runs.
func Validate(w *model.Workflow) error {
	if len(w.Jobs) == 0 {
		return fmt.Errorf("workflow %q declares no jobs", w.Name)
	}

	ids := make(map[string]bool, len(w.Jobs))
	for _, job := range w.Jobs {
		ids[job.ID] = true
	}

	for _, job := range w.Jobs {
		if err := validateJob(w, job, ids); err != nil {
			return err
		}
	}
	return nil
}

func validateJob(w *model.Workflow, job *model.Job, ids map[string]bool) error {
	if len(job.Steps) == 0 {
		return fmt.Errorf("job %q has no steps", job.ID)
	}
	if job.TimeoutMinutes < 0 {
		return fmt.Errorf("job %q: timeout-minutes must not be negative", job.ID)
	}

	for _, need := range job.Needs {
		if !ids[need] {
			return fmt.Errorf("job %q needs unknown job %q", job.ID, need)
		}
		if need == job.ID {
			return fmt.Errorf("job %q needs itself", job.ID)
		}
	}

	if s := job.Strategy; s != nil {
		if s.MaxParallel < 0 {
			return fmt.Errorf("job %q: max-parallel must not be negative", job.ID)
		}
		if s.Matrix != nil {
			for axis, values := range s.Matrix.Axes {
				if len(values) == 0 {
					return fmt.Errorf("job %q: matrix axis %q has no values", job.ID, axis)
				}
			}
		}
	}

	if job.Defaults.Shell != "" && !shell.Known(job.Defaults.Shell) {
		return fmt.Errorf("job %q: unknown default shell %q", job.ID, job.Defaults.Shell)
	}

	for i, step := range job.Steps {
		if step.Run == "" {
			return fmt.Errorf("job %q: step %d (%s) has an empty run script", job.ID, i+1, step.Label())
		}
		if step.Shell != "" && !shell.Known(step.Shell) {
			return fmt.Errorf("job %q: step %d (%s) uses unknown shell %q", job.ID, i+1, step.Label(), step.Shell)
		}
	}
	return nil
}
