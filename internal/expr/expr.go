// Package expr evaluates the `${{ ... }}` interpolations that workflow files
// embed in scripts, env values, and directories. The inner expression is
// parsed and evaluated as a native HCL expression against cty contexts, so
// `${{ matrix.python-version }}`, `${{ env.NAME }}`, and index forms like
// `${{ matrix['python-version'] }}` all work, along with a small set of
// functions.
package expr

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

const (
	openMarker  = "${{"
	closeMarker = "}}"
)

// Context carries the variable scopes an expression may reference.
type Context struct {
	// Matrix is the job instance's matrix combination.
	Matrix map[string]string
	// Env is the merged environment visible to the expression.
	Env map[string]string
	// Workflow exposes workflow metadata (name, event, ref, run id).
	Workflow map[string]string
}

// evalContext builds the HCL evaluation context for this scope set.
func (c *Context) evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"matrix":   objectFrom(c.Matrix),
			"env":      objectFrom(c.Env),
			"workflow": objectFrom(c.Workflow),
		},
		Functions: map[string]function.Function{
			"format": stdlib.FormatFunc,
			"join":   stdlib.JoinFunc,
			"upper":  stdlib.UpperFunc,
			"lower":  stdlib.LowerFunc,
		},
	}
}

func objectFrom(m map[string]string) cty.Value {
	if len(m) == 0 {
		return cty.EmptyObjectVal
	}
	vals := make(map[string]cty.Value, len(m))
	for k, v := range m {
		vals[k] = cty.StringVal(v)
	}
	return cty.ObjectVal(vals)
}

// Expand replaces every `${{ ... }}` occurrence in s with its evaluated
// string value. Strings without the marker pass through untouched. A
// malformed or unresolvable expression is an error, never a silent empty
// substitution.
func Expand(s string, ctx *Context) (string, error) {
	if !strings.Contains(s, openMarker) {
		return s, nil
	}

	evalCtx := ctx.evalContext()
	var sb strings.Builder
	rest := s
	for {
		start := strings.Index(rest, openMarker)
		if start < 0 {
			sb.WriteString(rest)
			return sb.String(), nil
		}
		sb.WriteString(rest[:start])
		rest = rest[start+len(openMarker):]

		end := strings.Index(rest, closeMarker)
		if end < 0 {
			return "", fmt.Errorf("unterminated %s expression", openMarker)
		}
		inner := strings.TrimSpace(rest[:end])
		rest = rest[end+len(closeMarker):]

		value, err := evalOne(inner, evalCtx)
		if err != nil {
			return "", err
		}
		sb.WriteString(value)
	}
}

// ExpandAll expands every value of a string map, returning a new map.
func ExpandAll(m map[string]string, ctx *Context) (map[string]string, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		expanded, err := Expand(v, ctx)
		if err != nil {
			return nil, fmt.Errorf("in %s: %w", k, err)
		}
		out[k] = expanded
	}
	return out, nil
}

// evalOne parses and evaluates a single inner expression to a string.
func evalOne(src string, evalCtx *hcl.EvalContext) (string, error) {
	if src == "" {
		return "", fmt.Errorf("empty expression")
	}

	parsed, diags := hclsyntax.ParseExpression([]byte(src), "expression", hcl.InitialPos)
	if diags.HasErrors() {
		return "", fmt.Errorf("failed to parse expression %q: %s", src, diags.Error())
	}

	value, diags := parsed.Value(evalCtx)
	if diags.HasErrors() {
		return "", fmt.Errorf("failed to evaluate expression %q: %s", src, diags.Error())
	}

	str, err := convert.Convert(value, cty.String)
	if err != nil {
		return "", fmt.Errorf("expression %q does not produce a string: %w", src, err)
	}
	if str.IsNull() {
		return "", fmt.Errorf("expression %q produced a null value", src)
	}
	return str.AsString(), nil
}
