package executor

import (
	"context"
	"time"

	"github.com/specialistvlad/matrixrun/internal/ctxlog"
	"github.com/specialistvlad/matrixrun/internal/dag"
	"github.com/specialistvlad/matrixrun/internal/run"
)

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan *dag.Node, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for n := range readyChan {
		workerLogger := logger.With("workerID", workerID, "nodeID", n.ID())

		if ctx.Err() != nil {
			e.skipNode(ctx, n, ctx.Err())
			continue
		}

		// Gate on the job's max-parallel cap, if it has one.
		sem := e.groupSems[n.GroupKey()]
		if sem != nil {
			sem <- struct{}{}
		}

		workerLogger.Debug("Worker picked up node for execution.")
		n.SetState(run.Running)
		err := e.runJob(ctx, n)

		if sem != nil {
			<-sem
		}

		if err != nil {
			workerLogger.Error("Job instance failed.", "error", err)
			n.Finish(err, &e.wg)
			if n.FailFast() {
				workerLogger.Debug("fail-fast is set, cancelling run.")
				cancel()
			}
			e.skipDependents(ctx, n)
			continue
		}

		workerLogger.Debug("Job instance succeeded.")
		n.Finish(nil, &e.wg)

		dependents, depErr := e.graph.Dependents(n.ID())
		if depErr != nil {
			workerLogger.Error("Failed to get dependents for completed node.", "error", depErr)
			continue
		}
		for _, dependent := range dependents {
			if dependent.DecrementDepCount() == 0 {
				workerLogger.Debug("Unlocking dependent node.", "dependentID", dependent.ID())
				readyChan <- dependent
			}
		}
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// skipNode marks a node skipped, records its result, and cascades to its
// dependents, which can never become ready once this node won't complete.
func (e *Executor) skipNode(ctx context.Context, n *dag.Node, cause error) {
	if n.State() != run.Pending {
		return
	}
	ctxlog.FromContext(ctx).Info("⏭️ Skipping job instance", "nodeID", n.ID(), "cause", cause)

	now := time.Now()
	e.run.Record(&run.JobResult{
		NodeID:   n.ID(),
		Workflow: n.Workflow.Name,
		Status:   run.Skipped,
		Started:  now,
		Finished: now,
		Err:      cause,
	})
	n.Skip(cause, &e.wg)
	e.skipDependents(ctx, n)
}

// skipDependents transitively skips every node that depends on n.
func (e *Executor) skipDependents(ctx context.Context, n *dag.Node) {
	dependents, err := e.graph.Dependents(n.ID())
	if err != nil {
		ctxlog.FromContext(ctx).Error("Failed to get dependents for skipping.", "nodeID", n.ID(), "error", err)
		return
	}
	cause := n.Err()
	if cause == nil {
		cause = context.Canceled
	}
	for _, dependent := range dependents {
		e.skipNode(ctx, dependent, cause)
	}
}
