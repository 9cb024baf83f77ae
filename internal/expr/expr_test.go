package expr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpand_PassthroughWithoutMarker(t *testing.T) {
	t.Parallel()

	out, err := Expand("pip install -r requirements.txt", &Context{})
	require.NoError(t, err)
	require.Equal(t, "pip install -r requirements.txt", out)
}

func TestExpand_MatrixReference(t *testing.T) {
	t.Parallel()

	ctx := &Context{Matrix: map[string]string{"python-version": "3.6"}}

	out, err := Expand("python${{ matrix.python-version }} -m pip", ctx)
	require.NoError(t, err)
	require.Equal(t, "python3.6 -m pip", out)

	// Index form works too.
	out, err = Expand("${{ matrix[\"python-version\"] }}", ctx)
	require.NoError(t, err)
	require.Equal(t, "3.6", out)
}

func TestExpand_MultipleOccurrences(t *testing.T) {
	t.Parallel()

	ctx := &Context{
		Matrix: map[string]string{"os": "linux"},
		Env:    map[string]string{"NAME": "ci"},
	}
	out, err := Expand("${{ env.NAME }}-${{ matrix.os }}", ctx)
	require.NoError(t, err)
	require.Equal(t, "ci-linux", out)
}

func TestExpand_Functions(t *testing.T) {
	t.Parallel()

	ctx := &Context{Matrix: map[string]string{"os": "linux"}}
	out, err := Expand("${{ format(\"image-%s\", matrix.os) }}", ctx)
	require.NoError(t, err)
	require.Equal(t, "image-linux", out)

	out, err = Expand("${{ upper(matrix.os) }}", ctx)
	require.NoError(t, err)
	require.Equal(t, "LINUX", out)
}

func TestExpand_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"unterminated", "echo ${{ matrix.os", "unterminated"},
		{"empty expression", "echo ${{ }}", "empty expression"},
		{"unknown attribute", "echo ${{ matrix.missing }}", "failed to evaluate"},
		{"unknown scope", "echo ${{ secrets.TOKEN }}", "failed to evaluate"},
		{"parse error", "echo ${{ matrix..os }}", "failed to parse"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Expand(tc.in, &Context{Matrix: map[string]string{"os": "linux"}})
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestExpandAll_WrapsKeyInError(t *testing.T) {
	t.Parallel()

	_, err := ExpandAll(map[string]string{"BAD": "${{ nope.x }}"}, &Context{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "in BAD")
}

func TestExpand_WorkflowContext(t *testing.T) {
	t.Parallel()

	ctx := &Context{Workflow: map[string]string{"name": "CI", "event": "push@master"}}
	out, err := Expand("${{ workflow.name }} (${{ workflow.event }})", ctx)
	require.NoError(t, err)
	require.Equal(t, "CI (push@master)", out)
}
