// Package shell maps the `shell:` names a workflow may use onto concrete
// command lines. The mapping follows the registry pattern used for step
// handlers elsewhere in the codebase: names are registered once at startup
// and looked up by the executor; an unknown name is a validation error, not
// a runtime surprise.
package shell

import (
	"fmt"
)

// DefaultName is the shell used when neither the step nor the job defaults
// name one.
const DefaultName = "bash"

// Command describes how to turn a step's script into an argv. The script is
// appended after Args as the final argument.
type Command struct {
	Name string
	Path string
	Args []string
}

// Argv returns the full argument vector for running the given script.
func (c Command) Argv(script string) []string {
	argv := make([]string, 0, len(c.Args)+2)
	argv = append(argv, c.Path)
	argv = append(argv, c.Args...)
	argv = append(argv, script)
	return argv
}

// builtins is the registry of supported shells. Bash runs with errexit and
// pipefail so a multi-line script stops at its first failing command, which
// is what the fail-fast step contract requires.
var builtins = map[string]Command{
	"bash":   {Name: "bash", Path: "bash", Args: []string{"--noprofile", "--norc", "-e", "-o", "pipefail", "-c"}},
	"sh":     {Name: "sh", Path: "sh", Args: []string{"-e", "-c"}},
	"python": {Name: "python", Path: "python3", Args: []string{"-c"}},
}

// Known reports whether a shell name is registered.
func Known(name string) bool {
	_, ok := builtins[name]
	return ok
}

// Lookup resolves a shell name to its command template. An empty name
// resolves to the default shell.
func Lookup(name string) (Command, error) {
	if name == "" {
		name = DefaultName
	}
	cmd, ok := builtins[name]
	if !ok {
		return Command{}, fmt.Errorf("unknown shell %q", name)
	}
	return cmd, nil
}

// Resolve picks the effective shell for a step: the step's own, then the
// job default, then the global default.
func Resolve(stepShell, jobDefault string) (Command, error) {
	name := stepShell
	if name == "" {
		name = jobDefault
	}
	return Lookup(name)
}
