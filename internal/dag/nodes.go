package dag

import (
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/matrixrun/internal/matrix"
	"github.com/specialistvlad/matrixrun/internal/model"
	"github.com/specialistvlad/matrixrun/internal/run"
)

// Node is one job instance in the plan: a job definition bound to a single
// matrix combination.
type Node struct {
	id       string
	Workflow *model.Workflow
	Job      *model.Job
	Combo    matrix.Combination

	// deps and dependents are maintained by the graph's AddEdge.
	deps       map[string]*Node
	dependents map[string]*Node

	mu    sync.Mutex
	state run.Status
	err   error

	// depCount counts unfinished dependencies; the node becomes ready at zero.
	depCount int64
	// doneOnce guards the executor's WaitGroup bookkeeping: success, failure,
	// and skip paths must account for a node exactly once.
	doneOnce sync.Once
}

// NewNode creates a pending node for the given workflow/job/combination.
func NewNode(id string, wf *model.Workflow, job *model.Job, combo matrix.Combination) *Node {
	return &Node{
		id:         id,
		Workflow:   wf,
		Job:        job,
		Combo:      combo,
		deps:       make(map[string]*Node),
		dependents: make(map[string]*Node),
		state:      run.Pending,
	}
}

// ID returns the node's unique identifier.
func (n *Node) ID() string { return n.id }

// GroupKey identifies the matrix group the node belongs to, used to enforce
// a job's max-parallel cap across its instances.
func (n *Node) GroupKey() string { return n.Workflow.Name + "/" + n.Job.ID }

// FailFast reports whether a failure of this node should cancel the run.
func (n *Node) FailFast() bool {
	if n.Job.Strategy == nil {
		return true
	}
	return n.Job.Strategy.FailFast
}

// State returns the node's current lifecycle state.
func (n *Node) State() run.Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// SetState transitions the node to the given state.
func (n *Node) SetState(s run.Status) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state = s
}

// Err returns the error the node failed or was skipped with, if any.
func (n *Node) Err() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.err
}

// SetInitialCounters primes the remaining-dependency counter. Called once
// by Build after linking.
func (n *Node) SetInitialCounters() {
	atomic.StoreInt64(&n.depCount, int64(len(n.deps)))
}

// DecrementDepCount marks one dependency as finished and returns the number
// still outstanding.
func (n *Node) DecrementDepCount() int64 {
	return atomic.AddInt64(&n.depCount, -1)
}

// Skip marks the node skipped with the given cause and performs its
// WaitGroup accounting exactly once.
func (n *Node) Skip(cause error, wg *sync.WaitGroup) {
	n.mu.Lock()
	if n.state == run.Pending {
		n.state = run.Skipped
		n.err = cause
	}
	n.mu.Unlock()
	n.doneOnce.Do(wg.Done)
}

// Finish marks the node done or failed and performs its WaitGroup
// accounting exactly once.
func (n *Node) Finish(err error, wg *sync.WaitGroup) {
	n.mu.Lock()
	if err != nil {
		n.state = run.Failed
		n.err = err
	} else {
		n.state = run.Succeeded
	}
	n.mu.Unlock()
	n.doneOnce.Do(wg.Done)
}
