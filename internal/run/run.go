// Package run models a single execution of the triggered workflows: its
// identity, per-job-instance results, and the overall verdict. The executor
// writes into a Run from its workers; readers (the CLI summary, the status
// endpoint) take consistent snapshots.
package run

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a run, job instance, or step.
type Status int

const (
	Pending Status = iota
	Running
	Succeeded
	Failed
	Skipped
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// StepResult records one executed step.
type StepResult struct {
	Label    string
	Status   Status
	ExitCode int
	Duration time.Duration
}

// JobResult records one job instance (one node of the plan).
type JobResult struct {
	NodeID   string
	Workflow string
	Status   Status
	Steps    []*StepResult
	Started  time.Time
	Finished time.Time
	Err      error
}

// Run aggregates the results of one invocation.
type Run struct {
	ID      uuid.UUID
	Event   string
	Started time.Time

	mu       sync.Mutex
	finished time.Time
	jobs     map[string]*JobResult
}

// New creates a Run with a fresh UUID.
func New(event string) *Run {
	return &Run{
		ID:      uuid.New(),
		Event:   event,
		Started: time.Now(),
		jobs:    make(map[string]*JobResult),
	}
}

// Record stores (or replaces) the result for a job instance. The result is
// copied on the way in: the caller keeps mutating its own instance while it
// executes, and readers only ever see the states it chose to publish.
func (r *Run) Record(result *JobResult) {
	cp := *result
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[result.NodeID] = &cp
}

// Complete stamps the run's end time.
func (r *Run) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = time.Now()
}

// FinishedAt returns the run's end time, zero while it is still going.
func (r *Run) FinishedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}

// Jobs returns the recorded job results sorted by node ID.
func (r *Run) Jobs() []*JobResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*JobResult, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out
}

// Job returns the recorded result for a node ID, or nil.
func (r *Run) Job(nodeID string) *JobResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[nodeID]
}

// Status derives the run's overall verdict from its job results: any failure
// (or skip caused by a failure) fails the run.
func (r *Run) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.jobs) == 0 {
		return Pending
	}
	verdict := Succeeded
	for _, j := range r.jobs {
		switch j.Status {
		case Failed, Skipped:
			return Failed
		case Pending, Running:
			verdict = Running
		}
	}
	return verdict
}

// Summary is a JSON-friendly snapshot of a run, served by the status
// endpoint and rendered by the CLI.
type Summary struct {
	ID       string       `json:"id"`
	Event    string       `json:"event"`
	Status   string       `json:"status"`
	Started  time.Time    `json:"started"`
	Finished time.Time    `json:"finished,omitempty"`
	Jobs     []JobSummary `json:"jobs"`
}

// JobSummary is the snapshot of one job instance.
type JobSummary struct {
	Node     string  `json:"node"`
	Workflow string  `json:"workflow"`
	Status   string  `json:"status"`
	Seconds  float64 `json:"seconds"`
	Error    string  `json:"error,omitempty"`
}

// Snapshot returns a consistent summary of the run's current state.
func (r *Run) Snapshot() Summary {
	jobs := r.Jobs()
	s := Summary{
		ID:       r.ID.String(),
		Event:    r.Event,
		Status:   r.Status().String(),
		Started:  r.Started,
		Finished: r.FinishedAt(),
	}
	for _, j := range jobs {
		js := JobSummary{
			Node:     j.NodeID,
			Workflow: j.Workflow,
			Status:   j.Status.String(),
			Seconds:  j.Finished.Sub(j.Started).Seconds(),
		}
		if j.Err != nil {
			js.Error = j.Err.Error()
		}
		s.Jobs = append(s.Jobs, js)
	}
	return s
}

// WriteSummary renders the human-readable result table.
func (r *Run) WriteSummary(w io.Writer) {
	fmt.Fprintf(w, "\nRun %s (%s): %s\n", r.ID, r.Event, r.Status())
	for _, j := range r.Jobs() {
		mark := "✅"
		switch j.Status {
		case Failed:
			mark = "❌"
		case Skipped:
			mark = "⏭️"
		}
		fmt.Fprintf(w, "  %s %-40s %-9s %6.2fs\n", mark, j.NodeID, j.Status, j.Finished.Sub(j.Started).Seconds())
		if j.Err != nil {
			fmt.Fprintf(w, "      %v\n", j.Err)
		}
	}
}
