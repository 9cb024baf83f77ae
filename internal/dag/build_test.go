package dag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/matrixrun/internal/event"
	"github.com/specialistvlad/matrixrun/internal/model"
)

func masterTriggers() *model.Triggers {
	return &model.Triggers{Events: []*model.EventRule{
		{Name: "push", Branches: []string{"master"}},
		{Name: "pull_request", Branches: []string{"master"}},
	}}
}

func singleStep() []*model.Step {
	return []*model.Step{{Run: "echo hi"}}
}

func TestBuild_MatrixFanOut(t *testing.T) {
	t.Parallel()

	set := &model.Set{Workflows: []*model.Workflow{{
		Name:     "ci",
		Triggers: masterTriggers(),
		Jobs: []*model.Job{{
			ID: "test",
			Strategy: &model.Strategy{
				FailFast: true,
				Matrix: &model.MatrixSpec{
					AxisOrder: []string{"python-version"},
					Axes:      map[string][]string{"python-version": {"3.6", "3.7"}},
				},
			},
			Steps: singleStep(),
		}},
	}}}

	graph, err := Build(context.Background(), set, event.Event{Name: "push", Ref: "refs/heads/master"})
	require.NoError(t, err)

	// One node per matrix value.
	require.Equal(t, 2, graph.Size())
	require.NotNil(t, graph.Node("ci/test(python-version=3.6)"))
	require.NotNil(t, graph.Node("ci/test(python-version=3.7)"))
}

func TestBuild_UntriggeredWorkflowContributesNothing(t *testing.T) {
	t.Parallel()

	set := &model.Set{Workflows: []*model.Workflow{{
		Name:     "ci",
		Triggers: masterTriggers(),
		Jobs:     []*model.Job{{ID: "test", Steps: singleStep()}},
	}}}

	graph, err := Build(context.Background(), set, event.Event{Name: "push", Ref: "refs/heads/develop"})
	require.NoError(t, err)
	require.Equal(t, 0, graph.Size())
}

func TestBuild_NeedsLinksAcrossMatrixInstances(t *testing.T) {
	t.Parallel()

	set := &model.Set{Workflows: []*model.Workflow{{
		Name:     "ci",
		Triggers: &model.Triggers{Events: []*model.EventRule{{Name: "push"}}},
		Jobs: []*model.Job{
			{ID: "build", Steps: singleStep()},
			{
				ID:    "test",
				Needs: []string{"build"},
				Strategy: &model.Strategy{
					FailFast: true,
					Matrix: &model.MatrixSpec{
						AxisOrder: []string{"v"},
						Axes:      map[string][]string{"v": {"1", "2"}},
					},
				},
				Steps: singleStep(),
			},
		},
	}}}

	graph, err := Build(context.Background(), set, event.Event{Name: "push", Ref: "master"})
	require.NoError(t, err)
	require.Equal(t, 3, graph.Size())

	dependents, err := graph.Dependents("ci/build")
	require.NoError(t, err)
	require.Len(t, dependents, 2)

	// Only the build node is a root.
	roots := graph.Roots()
	require.Len(t, roots, 1)
	require.Equal(t, "ci/build", roots[0].ID())
}
