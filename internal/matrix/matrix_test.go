package matrix

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/matrixrun/internal/model"
)

func TestExpand_OneInstancePerValue(t *testing.T) {
	t.Parallel()

	// The canonical matrix: python-version over two interpreter versions
	// must produce exactly one combination per value.
	spec := &model.MatrixSpec{
		AxisOrder: []string{"python-version"},
		Axes:      map[string][]string{"python-version": {"3.6", "3.7"}},
	}

	combos, err := Expand(spec)
	require.NoError(t, err)
	require.Equal(t, []Combination{
		{"python-version": "3.6"},
		{"python-version": "3.7"},
	}, combos)
}

func TestExpand_NilSpecRunsOnce(t *testing.T) {
	t.Parallel()

	combos, err := Expand(nil)
	require.NoError(t, err)
	require.Equal(t, []Combination{{}}, combos)
}

func TestExpand_CartesianOrderIsDeterministic(t *testing.T) {
	t.Parallel()

	spec := &model.MatrixSpec{
		AxisOrder: []string{"os", "version"},
		Axes: map[string][]string{
			"os":      {"linux", "mac"},
			"version": {"1", "2"},
		},
	}

	combos, err := Expand(spec)
	require.NoError(t, err)
	require.Equal(t, []Combination{
		{"os": "linux", "version": "1"},
		{"os": "linux", "version": "2"},
		{"os": "mac", "version": "1"},
		{"os": "mac", "version": "2"},
	}, combos)
}

func TestExpand_Exclude(t *testing.T) {
	t.Parallel()

	spec := &model.MatrixSpec{
		AxisOrder: []string{"os", "version"},
		Axes: map[string][]string{
			"os":      {"linux", "mac"},
			"version": {"1", "2"},
		},
		Exclude: []map[string]string{{"os": "mac", "version": "1"}},
	}

	combos, err := Expand(spec)
	require.NoError(t, err)
	require.Len(t, combos, 3)
	require.NotContains(t, combos, Combination{"os": "mac", "version": "1"})
}

func TestExpand_ExcludeEverythingFails(t *testing.T) {
	t.Parallel()

	spec := &model.MatrixSpec{
		AxisOrder: []string{"os"},
		Axes:      map[string][]string{"os": {"linux"}},
		Exclude:   []map[string]string{{"os": "linux"}},
	}

	_, err := Expand(spec)
	require.Error(t, err)
	require.Contains(t, err.Error(), "excludes every combination")
}

func TestExpand_IncludeAugmentsMatchingCombos(t *testing.T) {
	t.Parallel()

	spec := &model.MatrixSpec{
		AxisOrder: []string{"os"},
		Axes:      map[string][]string{"os": {"linux", "mac"}},
		Include:   []map[string]string{{"os": "linux", "experimental": "true"}},
	}

	combos, err := Expand(spec)
	require.NoError(t, err)
	require.Equal(t, []Combination{
		{"os": "linux", "experimental": "true"},
		{"os": "mac"},
	}, combos)
}

func TestExpand_IncludeAppendsUnmatchedRow(t *testing.T) {
	t.Parallel()

	spec := &model.MatrixSpec{
		AxisOrder: []string{"os"},
		Axes:      map[string][]string{"os": {"linux"}},
		Include:   []map[string]string{{"os": "windows"}},
	}

	combos, err := Expand(spec)
	require.NoError(t, err)
	require.Equal(t, []Combination{{"os": "linux"}, {"os": "windows"}}, combos)
}

func TestExpand_IncludeOnlyMatrix(t *testing.T) {
	t.Parallel()

	spec := &model.MatrixSpec{
		Include: []map[string]string{
			{"os": "linux", "version": "1"},
			{"os": "mac", "version": "2"},
		},
	}

	combos, err := Expand(spec)
	require.NoError(t, err)
	require.Len(t, combos, 2)
}

func TestInstanceID(t *testing.T) {
	t.Parallel()

	require.Equal(t, "test", InstanceID("test", Combination{}))
	require.Equal(t, "test(python-version=3.6)", InstanceID("test", Combination{"python-version": "3.6"}))
	// Keys render sorted regardless of map order.
	require.Equal(t, "test(a=1, b=2)", InstanceID("test", Combination{"b": "2", "a": "1"}))
}
