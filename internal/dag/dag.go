package dag

import (
	"fmt"
	"sync"
)

// Graph is the collection of plan nodes and their dependency edges.
type Graph struct {
	// mutex protects the nodes map during concurrent access.
	mutex sync.RWMutex
	// nodes stores all nodes in the graph, keyed by their unique ID.
	nodes map[string]*Node
}

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
	}
}

// AddNode adds a node to the graph. Adding a duplicate ID is an error: the
// plan builder is the only writer and duplicates mean it produced colliding
// instance IDs.
func (g *Graph) AddNode(n *Node) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[n.id]; ok {
		return fmt.Errorf("duplicate node ID: %s", n.id)
	}
	g.nodes[n.id] = n
	return nil
}

// Node returns the node with the given ID, or nil.
func (g *Graph) Node(id string) *Node {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.nodes[id]
}

// Nodes returns all nodes in the graph in unspecified order.
func (g *Graph) Nodes() []*Node {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// Size returns the number of nodes in the graph.
func (g *Graph) Size() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.nodes)
}

// AddEdge creates a directed edge from `fromID` to `toID`, meaning `toID`
// depends on `fromID`. An error is returned if either node does not exist
// or the edge would be a self-reference.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode
	return nil
}

// Dependencies returns the nodes the given node depends on.
func (g *Graph) Dependencies(id string) ([]*Node, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	deps := make([]*Node, 0, len(n.deps))
	for _, dep := range n.deps {
		deps = append(deps, dep)
	}
	return deps, nil
}

// Dependents returns the nodes that depend on the given node.
func (g *Graph) Dependents(id string) ([]*Node, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	dependents := make([]*Node, 0, len(n.dependents))
	for _, dep := range n.dependents {
		dependents = append(dependents, dep)
	}
	return dependents, nil
}

// Roots returns the nodes with no dependencies: the executor's starting set.
func (g *Graph) Roots() []*Node {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	var roots []*Node
	for _, n := range g.nodes {
		if len(n.deps) == 0 {
			roots = append(roots, n)
		}
	}
	return roots
}

// DetectCycles checks the graph for any cycles. It returns a non-nil error
// if a cycle is found, naming the first node involved in the detected cycle.
func (g *Graph) DetectCycles() error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	// Classic depth-first search with three node sets:
	// permanent: fully visited, known cycle-free.
	// temporary: currently on the recursion stack.
	// unvisited: everything else.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(n *Node) error
	visit = func(n *Node) error {
		if permanent[n.id] {
			return nil
		}
		if temporary[n.id] {
			return fmt.Errorf("cycle detected involving node '%s'", n.id)
		}

		temporary[n.id] = true
		for _, dependent := range n.dependents {
			if err := visit(dependent); err != nil {
				return err
			}
		}
		delete(temporary, n.id)
		permanent[n.id] = true
		return nil
	}

	for _, n := range g.nodes {
		if !permanent[n.id] {
			if err := visit(n); err != nil {
				return err
			}
		}
	}
	return nil
}
