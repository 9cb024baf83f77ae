// Package dag builds and holds the execution plan: triggered workflows are
// expanded into job-instance nodes (one per matrix combination) linked by
// `needs` edges, validated to be acyclic, and handed to the executor. All
// graph operations are concurrency-safe.
package dag
