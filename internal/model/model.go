package model

// Set is the collection of all workflow definitions discovered under the
// configured path.
type Set struct {
	Workflows []*Workflow
}

// Workflow is the format-agnostic representation of a single workflow file.
type Workflow struct {
	// Name is the workflow's declared name, or the file basename when the
	// definition omits one.
	Name string
	// Source is the path of the file the workflow was loaded from.
	Source string
	// Triggers describes which events cause this workflow to run.
	Triggers *Triggers
	// Env holds workflow-level environment variables.
	Env map[string]string
	// Jobs preserves the declaration order from the file.
	Jobs []*Job
}

// Triggers is the set of event rules a workflow listens on.
type Triggers struct {
	Events []*EventRule
}

// EventRule describes a single trigger: an event name plus optional branch
// filters. Empty filter lists mean "all branches".
type EventRule struct {
	Name           string
	Branches       []string
	BranchesIgnore []string
}

// Job is a single job definition within a workflow.
type Job struct {
	// ID is the job's key in the workflow's jobs mapping.
	ID string
	// Name is the human-readable name, falling back to ID when absent.
	Name string
	// RunsOn is recorded for compatibility with hosted runners; a local run
	// ignores it beyond logging.
	RunsOn string
	// Needs lists the IDs of jobs that must complete before this one starts.
	Needs []string
	// Strategy holds matrix and fan-out settings; nil means a single instance.
	Strategy *Strategy
	// Env holds job-level environment variables.
	Env map[string]string
	// Defaults applies to every step that doesn't override them.
	Defaults RunDefaults
	// TimeoutMinutes bounds the job instance's execution; 0 means no limit.
	TimeoutMinutes int
	Steps          []*Step
}

// Strategy controls how a job fans out across its matrix.
type Strategy struct {
	Matrix *MatrixSpec
	// FailFast cancels sibling matrix instances when one fails.
	FailFast bool
	// MaxParallel caps concurrently running instances of this job; 0 means
	// no cap beyond the executor's worker count.
	MaxParallel int
}

// MatrixSpec is the declared matrix: named axes plus include/exclude rows.
// All values are raw scalar text as written in the file, so a version axis
// of 3.10 stays "3.10".
type MatrixSpec struct {
	// AxisOrder preserves the axis declaration order for deterministic IDs.
	AxisOrder []string
	Axes      map[string][]string
	Include   []map[string]string
	Exclude   []map[string]string
}

// RunDefaults are the job-level defaults applied to each step.
type RunDefaults struct {
	Shell            string
	WorkingDirectory string
}

// Step is a single shell step within a job.
type Step struct {
	ID               string
	Name             string
	Run              string
	Shell            string
	WorkingDirectory string
	Env              map[string]string
	// ContinueOnError lets the job proceed past this step's failure.
	ContinueOnError bool
}

// Label returns the best human-readable identifier for a step.
func (s *Step) Label() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.ID != "":
		return s.ID
	default:
		return "run"
	}
}
