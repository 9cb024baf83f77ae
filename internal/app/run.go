package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/specialistvlad/matrixrun/internal/ctxlog"
	"github.com/specialistvlad/matrixrun/internal/dag"
	"github.com/specialistvlad/matrixrun/internal/event"
	"github.com/specialistvlad/matrixrun/internal/executor"
	"github.com/specialistvlad/matrixrun/internal/run"
)

// Run executes the main application logic based on the provided configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(a.config.HealthcheckPort)
		defer a.closeHealthcheckServer()
	}

	if a.config.Watch {
		return a.watch(ctx)
	}
	return a.runOnce(ctx)
}

// runOnce builds the plan for the configured event and executes it.
func (a *App) runOnce(ctx context.Context) error {
	ev, err := event.New(a.config.EventName, a.config.Ref)
	if err != nil {
		return err
	}

	a.logger.Debug("Building job graph for event...", "event", ev.String())
	graph, err := dag.Build(ctx, a.workflows, ev)
	if err != nil {
		return fmt.Errorf("failed to build job graph: %w", err)
	}
	a.logger.Debug("Job graph built.", "node_count", graph.Size())

	if graph.Size() == 0 {
		a.logger.Warn("Event triggers no workflows, nothing to execute.", "event", ev.String())
		return nil
	}

	if a.config.ListOnly {
		a.listPlan(graph, ev)
		return nil
	}

	r := run.New(ev.String())
	a.setLastRun(r)

	a.logger.Info("🚀 Starting concurrent execution...", "run_id", r.ID, "instances", graph.Size(), "workers", a.config.WorkerCount)
	exec := executor.New(graph, a.config.WorkerCount, r, a.outW)
	execErr := exec.Run(ctx)
	r.Complete()

	r.WriteSummary(a.outW)
	if execErr != nil {
		return fmt.Errorf("execution failed: %w", execErr)
	}
	a.logger.Info("🏁 Execution finished.", "run_id", r.ID)
	return nil
}

// listPlan prints the job instances the event would run, without executing.
func (a *App) listPlan(graph *dag.Graph, ev event.Event) {
	fmt.Fprintf(a.outW, "Event %s triggers %d job instance(s):\n", ev, graph.Size())
	for _, n := range sortedNodes(graph) {
		needs := ""
		if deps, err := graph.Dependencies(n.ID()); err == nil && len(deps) > 0 {
			needs = fmt.Sprintf("  (after %d dependencies)", len(deps))
		}
		fmt.Fprintf(a.outW, "  %s%s\n", n.ID(), needs)
	}
}

func sortedNodes(graph *dag.Graph) []*dag.Node {
	nodes := graph.Nodes()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
	return nodes
}
