// Package executor drives the concurrent execution of a built plan. A fixed
// pool of workers consumes a ready channel seeded with the graph's roots;
// finishing a node unlocks its dependents, a failing node skips them and,
// under fail-fast, cancels the rest of the run.
package executor

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/specialistvlad/matrixrun/internal/ctxlog"
	"github.com/specialistvlad/matrixrun/internal/dag"
	"github.com/specialistvlad/matrixrun/internal/run"
)

// Executor orchestrates the end-to-end execution of a plan.
type Executor struct {
	graph   *dag.Graph
	workers int
	outW    io.Writer
	run     *run.Run

	wg sync.WaitGroup
	// groupSems enforces max-parallel per matrix group.
	groupSems map[string]chan struct{}
	// timeoutUnit scales timeout-minutes; tests shrink it to avoid real waits.
	timeoutUnit time.Duration
}

// New creates an executor for the given plan. Step output is streamed to outW.
func New(graph *dag.Graph, workers int, r *run.Run, outW io.Writer) *Executor {
	if workers < 1 {
		workers = 1
	}
	e := &Executor{
		graph:       graph,
		workers:     workers,
		outW:        outW,
		run:         r,
		groupSems:   make(map[string]chan struct{}),
		timeoutUnit: time.Minute,
	}
	for _, n := range graph.Nodes() {
		if s := n.Job.Strategy; s != nil && s.MaxParallel > 0 {
			key := n.GroupKey()
			if _, ok := e.groupSems[key]; !ok {
				e.groupSems[key] = make(chan struct{}, s.MaxParallel)
			}
		}
	}
	return e
}

// Run executes the plan to completion and returns an error if any job
// instance failed or was skipped because of a failure.
func (e *Executor) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	nodes := e.graph.Nodes()
	if len(nodes) == 0 {
		logger.Warn("No job instances in plan, nothing to execute.")
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.wg.Add(len(nodes))

	// Buffered to the full node count so workers never block on enqueue.
	readyChan := make(chan *dag.Node, len(nodes))
	roots := e.graph.Roots()
	logger.Debug("Seeding ready channel with root nodes.", "count", len(roots))
	for _, n := range roots {
		readyChan <- n
	}

	for i := 0; i < e.workers; i++ {
		go e.worker(ctx, readyChan, cancel, i)
	}

	e.wg.Wait()
	close(readyChan)

	var failed, skipped int
	for _, n := range nodes {
		switch n.State() {
		case run.Failed:
			failed++
		case run.Skipped:
			skipped++
		}
	}
	if failed > 0 || skipped > 0 {
		return fmt.Errorf("%d job instance(s) failed, %d skipped", failed, skipped)
	}
	return nil
}
