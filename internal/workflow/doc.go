// Package workflow loads workflow definition files from disk. It discovers
// YAML files under a path, parses them into the wire schema, translates the
// result into the format-agnostic model, and validates what came out. The
// rest of the application never touches YAML.
package workflow
