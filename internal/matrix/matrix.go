// Package matrix expands a job's declared matrix into the concrete list of
// value combinations its instances run with. Expansion is deterministic:
// axes keep their declaration order and values keep their file order, so the
// same workflow always yields the same instance list.
package matrix

import (
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/matrixrun/internal/model"
)

// Combination is one resolved assignment of matrix axes to values. It is
// exposed to expressions as the `matrix` context.
type Combination map[string]string

// Expand produces every combination of the matrix's axes (cartesian
// product), removes the ones matched by exclude rows, then applies include
// rows. A nil spec yields a single empty combination: the job still runs
// exactly once.
func Expand(spec *model.MatrixSpec) ([]Combination, error) {
	if spec == nil || len(spec.Axes) == 0 {
		if spec != nil && len(spec.Include) > 0 {
			// Include-only matrices enumerate their combinations directly.
			combos := make([]Combination, 0, len(spec.Include))
			for _, row := range spec.Include {
				combos = append(combos, Combination(row))
			}
			return combos, nil
		}
		return []Combination{{}}, nil
	}

	axes := spec.AxisOrder
	if len(axes) != len(spec.Axes) {
		return nil, fmt.Errorf("matrix axis order is inconsistent with axes")
	}

	combos := cartesian(axes, spec.Axes)
	combos = applyExcludes(combos, spec.Exclude)
	combos = applyIncludes(combos, spec.Include, spec.Axes)

	if len(combos) == 0 {
		return nil, fmt.Errorf("matrix excludes every combination")
	}
	return combos, nil
}

// cartesian walks the axes in order, multiplying the combination list by
// each axis's values.
func cartesian(axes []string, values map[string][]string) []Combination {
	combos := []Combination{{}}
	for _, axis := range axes {
		next := make([]Combination, 0, len(combos)*len(values[axis]))
		for _, combo := range combos {
			for _, v := range values[axis] {
				grown := make(Combination, len(combo)+1)
				for k, val := range combo {
					grown[k] = val
				}
				grown[axis] = v
				next = append(next, grown)
			}
		}
		combos = next
	}
	return combos
}

// applyExcludes drops combinations matched by any exclude row. A row
// matches when every key/value it names agrees with the combination.
func applyExcludes(combos []Combination, excludes []map[string]string) []Combination {
	if len(excludes) == 0 {
		return combos
	}
	kept := combos[:0]
	for _, combo := range combos {
		excluded := false
		for _, row := range excludes {
			if subsetMatches(row, combo) {
				excluded = true
				break
			}
		}
		if !excluded {
			kept = append(kept, combo)
		}
	}
	return kept
}

// applyIncludes merges include rows into the expanded set. A row whose
// axis-valued keys match existing combinations augments those combinations
// with its extra keys; a row matching none is appended as a new combination.
func applyIncludes(combos []Combination, includes []map[string]string, axes map[string][]string) []Combination {
	for _, row := range includes {
		matchedAny := false
		for _, combo := range combos {
			if includeTargets(row, combo, axes) {
				matchedAny = true
				for k, v := range row {
					if _, isAxis := axes[k]; !isAxis {
						combo[k] = v
					}
				}
			}
		}
		if !matchedAny {
			appended := make(Combination, len(row))
			for k, v := range row {
				appended[k] = v
			}
			combos = append(combos, appended)
		}
	}
	return combos
}

// includeTargets reports whether an include row addresses the given
// combination: every axis key the row names must match the combination's
// value for that axis.
func includeTargets(row map[string]string, combo Combination, axes map[string][]string) bool {
	named := false
	for k, v := range row {
		if _, isAxis := axes[k]; !isAxis {
			continue
		}
		named = true
		if combo[k] != v {
			return false
		}
	}
	return named
}

// subsetMatches reports whether every key/value in row agrees with combo.
func subsetMatches(row map[string]string, combo Combination) bool {
	for k, v := range row {
		if combo[k] != v {
			return false
		}
	}
	return len(row) > 0
}

// InstanceID renders a stable identifier for a job instance, e.g.
// "test(python-version=3.6)". Keys are sorted so IDs are reproducible even
// for include-introduced keys.
func InstanceID(jobID string, combo Combination) string {
	if len(combo) == 0 {
		return jobID
	}
	keys := make([]string, 0, len(combo))
	for k := range combo {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+combo[k])
	}
	return fmt.Sprintf("%s(%s)", jobID, strings.Join(parts, ", "))
}
