package run

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRun_StatusDerivation(t *testing.T) {
	t.Parallel()

	r := New("push@master")
	require.Equal(t, Pending, r.Status())

	r.Record(&JobResult{NodeID: "ci/a", Status: Succeeded})
	require.Equal(t, Succeeded, r.Status())

	r.Record(&JobResult{NodeID: "ci/b", Status: Running})
	require.Equal(t, Running, r.Status())

	r.Record(&JobResult{NodeID: "ci/b", Status: Failed})
	require.Equal(t, Failed, r.Status())
}

func TestRun_SkippedJobFailsTheRun(t *testing.T) {
	t.Parallel()

	// A skip only happens downstream of a failure or cancellation, so the
	// run as a whole cannot be green.
	r := New("push@master")
	r.Record(&JobResult{NodeID: "ci/a", Status: Succeeded})
	r.Record(&JobResult{NodeID: "ci/b", Status: Skipped})
	require.Equal(t, Failed, r.Status())
}

func TestRun_JobsSortedByNodeID(t *testing.T) {
	t.Parallel()

	r := New("push@master")
	r.Record(&JobResult{NodeID: "ci/z", Status: Succeeded})
	r.Record(&JobResult{NodeID: "ci/a", Status: Succeeded})

	jobs := r.Jobs()
	require.Equal(t, "ci/a", jobs[0].NodeID)
	require.Equal(t, "ci/z", jobs[1].NodeID)
}

func TestRun_Snapshot(t *testing.T) {
	t.Parallel()

	r := New("push@master")
	started := time.Now()
	r.Record(&JobResult{
		NodeID:   "ci/test(python-version=3.6)",
		Workflow: "ci",
		Status:   Succeeded,
		Started:  started,
		Finished: started.Add(2 * time.Second),
	})

	snap := r.Snapshot()
	require.Equal(t, "push@master", snap.Event)
	require.Equal(t, "succeeded", snap.Status)
	require.Len(t, snap.Jobs, 1)
	require.InDelta(t, 2.0, snap.Jobs[0].Seconds, 0.01)
}

func TestRecord_StoresACopy(t *testing.T) {
	t.Parallel()

	r := New("push@master")
	result := &JobResult{NodeID: "ci/test", Status: Running}
	r.Record(result)

	// The executor keeps mutating its own instance after recording; readers
	// must only see the published state.
	result.Status = Failed
	result.Steps = append(result.Steps, &StepResult{Label: "late"})

	stored := r.Job("ci/test")
	require.Equal(t, Running, stored.Status)
	require.Empty(t, stored.Steps)
}

func TestSnapshot_SafeDuringConcurrentRecording(t *testing.T) {
	t.Parallel()

	r := New("push@master")
	done := make(chan struct{})

	// Writer side: the executor's record-then-mutate-then-republish cycle.
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			result := &JobResult{NodeID: "ci/test", Status: Running, Started: time.Now()}
			r.Record(result)
			result.Status = Succeeded
			result.Finished = time.Now()
			r.Record(result)
		}
		r.Complete()
	}()

	// Reader side: the status endpoint snapshotting mid-run.
	for i := 0; i < 200; i++ {
		snap := r.Snapshot()
		require.Equal(t, "push@master", snap.Event)
	}
	<-done

	snap := r.Snapshot()
	require.Equal(t, "succeeded", snap.Status)
	require.False(t, snap.Finished.IsZero())
}

func TestWriteSummary_RendersVerdictPerJob(t *testing.T) {
	t.Parallel()

	r := New("push@master")
	r.Record(&JobResult{NodeID: "ci/ok", Status: Succeeded})
	r.Record(&JobResult{NodeID: "ci/broken", Status: Failed})

	var sb strings.Builder
	r.WriteSummary(&sb)
	out := sb.String()

	require.Contains(t, out, "failed")
	require.Contains(t, out, "ci/ok")
	require.Contains(t, out, "ci/broken")
}
