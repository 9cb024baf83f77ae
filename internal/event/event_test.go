package event

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/matrixrun/internal/model"
)

func TestBranch_StripsRefPrefixes(t *testing.T) {
	t.Parallel()

	require.Equal(t, "master", Event{Name: "push", Ref: "refs/heads/master"}.Branch())
	require.Equal(t, "v1.0", Event{Name: "push", Ref: "refs/tags/v1.0"}.Branch())
	require.Equal(t, "feature/x", Event{Name: "push", Ref: "feature/x"}.Branch())
}

func TestMatches_MasterOnlyTriggers(t *testing.T) {
	t.Parallel()

	// The canonical trigger rule: push or pull_request targeting master.
	triggers := &model.Triggers{Events: []*model.EventRule{
		{Name: "push", Branches: []string{"master"}},
		{Name: "pull_request", Branches: []string{"master"}},
	}}

	cases := []struct {
		name  string
		event Event
		want  bool
	}{
		{"push to master", Event{Name: "push", Ref: "refs/heads/master"}, true},
		{"pull_request to master", Event{Name: "pull_request", Ref: "master"}, true},
		{"push to other branch", Event{Name: "push", Ref: "refs/heads/develop"}, false},
		{"unlisted event", Event{Name: "schedule", Ref: "refs/heads/master"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Matches(triggers, tc.event))
		})
	}
}

func TestMatches_NoFiltersMeansAllBranches(t *testing.T) {
	t.Parallel()

	triggers := &model.Triggers{Events: []*model.EventRule{{Name: "push"}}}
	require.True(t, Matches(triggers, Event{Name: "push", Ref: "refs/heads/anything"}))
}

func TestMatches_BranchesIgnore(t *testing.T) {
	t.Parallel()

	triggers := &model.Triggers{Events: []*model.EventRule{
		{Name: "push", BranchesIgnore: []string{"wip/*"}},
	}}

	require.True(t, Matches(triggers, Event{Name: "push", Ref: "refs/heads/master"}))
	require.False(t, Matches(triggers, Event{Name: "push", Ref: "refs/heads/wip/spike"}))
}

func TestMatchBranch_GlobDialect(t *testing.T) {
	t.Parallel()

	cases := []struct {
		pattern string
		branch  string
		want    bool
	}{
		{"master", "master", true},
		{"master", "masterful", false},
		{"release/*", "release/1.2", true},
		{"release/*", "release/1.2/hotfix", false}, // single * stays in its segment
		{"release/**", "release/1.2/hotfix", true},
		{"v?", "v1", true},
		{"v?", "v12", false},
		{"feature-*", "feature-login", true},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, MatchBranch(tc.pattern, tc.branch), "pattern %q vs branch %q", tc.pattern, tc.branch)
	}
}

func TestNew_RejectsEmptyName(t *testing.T) {
	t.Parallel()

	_, err := New("", "refs/heads/master")
	require.Error(t, err)
}

func TestMatches_NilTriggersNeverFire(t *testing.T) {
	t.Parallel()

	require.False(t, Matches(nil, Event{Name: "push", Ref: "master"}))
}
