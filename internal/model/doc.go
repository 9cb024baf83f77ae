// Package model holds the unified, format-agnostic representation of loaded
// workflow definitions. The YAML wire format lives in internal/schema; the
// loader in internal/workflow translates between the two. Everything past the
// loader (triggers, matrix expansion, the job graph, the executor) operates
// on this model only.
package model
