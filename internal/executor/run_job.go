package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/matrixrun/internal/ctxlog"
	"github.com/specialistvlad/matrixrun/internal/dag"
	"github.com/specialistvlad/matrixrun/internal/expr"
	"github.com/specialistvlad/matrixrun/internal/run"
)

// runJob executes the steps of one job instance sequentially. The error
// contract is binary: the first failing step (unless continue-on-error)
// fails the job, and there is no retry.
func (e *Executor) runJob(ctx context.Context, n *dag.Node) error {
	logger := ctxlog.FromContext(ctx).With("job", n.ID())
	logger.Info("▶️ Starting job instance", "runs_on", n.Job.RunsOn, "steps", len(n.Job.Steps))

	result := &run.JobResult{
		NodeID:   n.ID(),
		Workflow: n.Workflow.Name,
		Status:   run.Running,
		Started:  time.Now(),
	}
	e.run.Record(result)
	// Record copies, so the mutations below stay private until the final
	// state is published here.
	defer func() {
		result.Finished = time.Now()
		e.run.Record(result)
	}()

	if n.Job.TimeoutMinutes > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(n.Job.TimeoutMinutes)*e.timeoutUnit)
		defer cancel()
	}

	// The workflow context is available to every expression in this instance.
	workflowVars := map[string]string{
		"name":   n.Workflow.Name,
		"event":  e.run.Event,
		"run_id": e.run.ID.String(),
	}

	// Job env may itself interpolate matrix and workflow values, but not env.
	baseCtx := &expr.Context{Matrix: n.Combo, Workflow: workflowVars}
	jobEnv, err := e.buildJobEnv(n, baseCtx)
	if err != nil {
		result.Status = run.Failed
		result.Err = err
		return err
	}

	for i, step := range n.Job.Steps {
		stepResult, err := e.runStep(ctx, n, step, jobEnv, workflowVars)
		result.Steps = append(result.Steps, stepResult)

		if err != nil {
			if step.ContinueOnError {
				logger.Warn("Step failed, continuing per continue-on-error.", "step", step.Label(), "error", err)
				continue
			}
			// Remaining steps are abandoned: first non-zero exit aborts the job.
			result.Status = run.Failed
			result.Err = err
			return fmt.Errorf("step %d (%s): %w", i+1, step.Label(), err)
		}
	}

	result.Status = run.Succeeded
	logger.Info("✅ Finished job instance")
	return nil
}

// buildJobEnv merges workflow-level and job-level env, expanding any
// expressions in the values.
func (e *Executor) buildJobEnv(n *dag.Node, baseCtx *expr.Context) (map[string]string, error) {
	merged := make(map[string]string, len(n.Workflow.Env)+len(n.Job.Env))
	for k, v := range n.Workflow.Env {
		merged[k] = v
	}
	for k, v := range n.Job.Env {
		merged[k] = v
	}
	expanded, err := expr.ExpandAll(merged, baseCtx)
	if err != nil {
		return nil, fmt.Errorf("invalid env for job %q: %w", n.Job.ID, err)
	}
	return expanded, nil
}
