package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/specialistvlad/matrixrun/internal/ctxlog"
	"github.com/specialistvlad/matrixrun/internal/dag"
	"github.com/specialistvlad/matrixrun/internal/expr"
	"github.com/specialistvlad/matrixrun/internal/model"
	"github.com/specialistvlad/matrixrun/internal/run"
	"github.com/specialistvlad/matrixrun/internal/shell"
)

// runStep resolves, expands, and executes one step as a single OS process.
func (e *Executor) runStep(ctx context.Context, n *dag.Node, step *model.Step, jobEnv map[string]string, workflowVars map[string]string) (*run.StepResult, error) {
	logger := ctxlog.FromContext(ctx).With("job", n.ID(), "step", step.Label())

	result := &run.StepResult{Label: step.Label(), Status: run.Failed, ExitCode: -1}
	started := time.Now()
	defer func() {
		result.Duration = time.Since(started)
	}()

	sh, err := shell.Resolve(step.Shell, n.Job.Defaults.Shell)
	if err != nil {
		return result, err
	}

	// Step env overrides job env; expressions in its values may reference
	// the env assembled so far.
	envMap := make(map[string]string, len(jobEnv)+len(step.Env))
	for k, v := range jobEnv {
		envMap[k] = v
	}
	evalCtx := &expr.Context{Matrix: n.Combo, Env: jobEnv, Workflow: workflowVars}
	stepEnv, err := expr.ExpandAll(step.Env, evalCtx)
	if err != nil {
		return result, fmt.Errorf("invalid step env: %w", err)
	}
	for k, v := range stepEnv {
		envMap[k] = v
	}

	evalCtx = &expr.Context{Matrix: n.Combo, Env: envMap, Workflow: workflowVars}
	script, err := expr.Expand(step.Run, evalCtx)
	if err != nil {
		return result, err
	}

	workdir := step.WorkingDirectory
	if workdir == "" {
		workdir = n.Job.Defaults.WorkingDirectory
	}
	if workdir != "" {
		if workdir, err = expr.Expand(workdir, evalCtx); err != nil {
			return result, err
		}
	}

	argv := sh.Argv(script)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = workdir
	cmd.Stdout = e.outW
	cmd.Stderr = e.outW
	cmd.Env = append(os.Environ(), flattenEnv(envMap)...)
	cmd.Env = append(cmd.Env,
		"MATRIXRUN_RUN_ID="+e.run.ID.String(),
		"MATRIXRUN_WORKFLOW="+n.Workflow.Name,
		"MATRIXRUN_JOB="+n.Job.ID,
		"MATRIXRUN_NODE="+n.ID(),
	)

	logger.Info("▶️ Running step", "shell", sh.Name)
	err = cmd.Run()

	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("step interrupted: %w", ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return result, fmt.Errorf("exited with code %d", result.ExitCode)
		}
		return result, fmt.Errorf("failed to start: %w", err)
	}

	result.Status = run.Succeeded
	logger.Info("✅ Step finished", "exit_code", result.ExitCode, "duration", time.Since(started))
	return result, nil
}

func flattenEnv(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	return out
}
