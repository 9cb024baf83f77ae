package dag

import (
	"context"
	"fmt"

	"github.com/specialistvlad/matrixrun/internal/ctxlog"
	"github.com/specialistvlad/matrixrun/internal/event"
	"github.com/specialistvlad/matrixrun/internal/matrix"
	"github.com/specialistvlad/matrixrun/internal/model"
)

// Build constructs the execution plan for an event: every workflow the event
// triggers contributes one node per job instance, linked by `needs` edges.
// The returned graph is validated to be acyclic with primed counters.
func Build(ctx context.Context, set *model.Set, ev event.Event) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: starting plan construction.", "event", ev.String())

	graph := New()

	// instances remembers which node IDs each (workflow, job) expanded into,
	// so needs-edges can fan out across matrix instances.
	instances := make(map[string][]string)

	for _, wf := range set.Workflows {
		if !event.Matches(wf.Triggers, ev) {
			logger.Debug("Workflow not triggered by event, skipping.", "workflow", wf.Name, "event", ev.String())
			continue
		}
		logger.Debug("Workflow triggered.", "workflow", wf.Name)

		if err := addWorkflowNodes(graph, wf, instances); err != nil {
			return nil, err
		}
	}

	for _, wf := range set.Workflows {
		if err := linkNeeds(graph, wf, instances); err != nil {
			return nil, err
		}
	}

	if err := graph.DetectCycles(); err != nil {
		return nil, fmt.Errorf("invalid job graph: %w", err)
	}

	for _, n := range graph.Nodes() {
		n.SetInitialCounters()
	}

	logger.Debug("Build: plan construction complete.", "node_count", graph.Size())
	return graph, nil
}

// addWorkflowNodes expands each job's matrix and adds the resulting
// instances to the graph.
func addWorkflowNodes(graph *Graph, wf *model.Workflow, instances map[string][]string) error {
	for _, job := range wf.Jobs {
		var spec *model.MatrixSpec
		if job.Strategy != nil {
			spec = job.Strategy.Matrix
		}
		combos, err := matrix.Expand(spec)
		if err != nil {
			return fmt.Errorf("workflow %q, job %q: %w", wf.Name, job.ID, err)
		}

		for _, combo := range combos {
			id := wf.Name + "/" + matrix.InstanceID(job.ID, combo)
			node := NewNode(id, wf, job, combo)
			if err := graph.AddNode(node); err != nil {
				return fmt.Errorf("workflow %q, job %q: %w", wf.Name, job.ID, err)
			}
			key := wf.Name + "/" + job.ID
			instances[key] = append(instances[key], id)
		}
	}
	return nil
}

// linkNeeds wires every instance of a needed job to every instance of the
// needing job.
func linkNeeds(graph *Graph, wf *model.Workflow, instances map[string][]string) error {
	for _, job := range wf.Jobs {
		toIDs := instances[wf.Name+"/"+job.ID]
		for _, need := range job.Needs {
			fromIDs, ok := instances[wf.Name+"/"+need]
			if !ok {
				// Loader validation catches this for loaded files; guard for
				// programmatically built models.
				if len(toIDs) == 0 {
					continue
				}
				return fmt.Errorf("workflow %q: job %q needs unknown job %q", wf.Name, job.ID, need)
			}
			for _, fromID := range fromIDs {
				for _, toID := range toIDs {
					if err := graph.AddEdge(fromID, toID); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}
