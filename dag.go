package main

import (
	"fmt"
	"slices"
)

// DAGNode represents a gate in the circuit as a node in a DAG.
// Dependencies represent ordering constraints - a gate cannot execute before
// the gates that act on the same qubits or classical bits earlier.
type DAGNode struct {
	ID           string   // Unique identifier for this node
	Index        int      // Position of the gate in the source circuit
	Gate         Gate     // The gate itself
	Layer        int      // 1-based layer; barriers share the layer of their deps
	Dependencies []string // IDs of nodes that must execute before this one
}

// CircuitDAG represents a quantum circuit as a Directed Acyclic Graph.
type CircuitDAG struct {
	Nodes     map[string]*DAGNode // All nodes by ID
	NumQubits int                 // Number of qubits in the circuit
	NumCbits  int                 // Number of classical bits
}

// NewCircuitDAG creates a new empty CircuitDAG.
func NewCircuitDAG() *CircuitDAG {
	return &CircuitDAG{Nodes: make(map[string]*DAGNode)}
}

// generateNodeID creates a unique ID for a node based on its properties.
func generateNodeID(gateType string, index int) string {
	return fmt.Sprintf("%s_g%d", gateType, index)
}

// AddNode adds a new gate node to the DAG and computes its layer from
// its dependencies, which must already be present.
func (dag *CircuitDAG) AddNode(node *DAGNode) {
	if node.ID == "" {
		node.ID = generateNodeID(node.Gate.Type, node.Index)
	}

	layer := 0
	for _, depID := range node.Dependencies {
		if dep, ok := dag.Nodes[depID]; ok && dep.Layer > layer {
			layer = dep.Layer
		}
	}
	if node.Gate.Type != "BARRIER" {
		layer++
	}
	node.Layer = layer

	dag.Nodes[node.ID] = node

	for _, q := range node.Gate.qubits() {
		dag.NumQubits = max(dag.NumQubits, q+1)
	}
	if node.Gate.Cbit >= 0 {
		dag.NumCbits = max(dag.NumCbits, node.Gate.Cbit+1)
	}
}

// TopologicalSort returns nodes in topological order (respecting dependencies).
// Ties are broken by circuit position, so the result is deterministic.
func (dag *CircuitDAG) TopologicalSort() []*DAGNode {
	visited := make(map[string]bool)
	result := make([]*DAGNode, 0, len(dag.Nodes))

	var visit func(nodeID string)
	visit = func(nodeID string) {
		if visited[nodeID] {
			return
		}
		visited[nodeID] = true

		node := dag.Nodes[nodeID]
		for _, depID := range node.Dependencies {
			visit(depID)
		}
		result = append(result, node)
	}

	for _, node := range dag.sortedByIndex() {
		visit(node.ID)
	}

	return result
}

func (dag *CircuitDAG) sortedByIndex() []*DAGNode {
	nodes := make([]*DAGNode, 0, len(dag.Nodes))
	for _, node := range dag.Nodes {
		nodes = append(nodes, node)
	}
	slices.SortFunc(nodes, func(a, b *DAGNode) int {
		return a.Index - b.Index
	})
	return nodes
}

// Layers groups the nodes by layer, each layer in topological order.
// Layer 0 only holds barriers that precede every gate.
func (dag *CircuitDAG) Layers() [][]*DAGNode {
	layers := make([][]*DAGNode, dag.Depth()+1)
	for _, node := range dag.TopologicalSort() {
		layers[node.Layer] = append(layers[node.Layer], node)
	}
	return layers
}

// Depth returns the number of layers, barriers excluded.
func (dag *CircuitDAG) Depth() int {
	depth := 0
	for _, node := range dag.Nodes {
		depth = max(depth, node.Layer)
	}
	return depth
}

// FromCircuit creates a DAG from a Circuit struct.
func FromCircuit(circuit *Circuit) *CircuitDAG {
	dag := NewCircuitDAG()
	dag.NumQubits = circuit.NumQubits
	dag.NumCbits = circuit.NumClbits

	// Track the last gate on each qubit and classical bit to establish dependencies
	lastGateOnQubit := make(map[int]string)
	lastGateOnCbit := make(map[int]string)

	for i, gate := range circuit.Gates {
		node := &DAGNode{
			ID:           generateNodeID(gate.Type, i),
			Index:        i,
			Gate:         gate,
			Dependencies: []string{},
		}

		qubitsUsed := gate.qubits()
		if gate.Type == "BARRIER" && len(qubitsUsed) == 0 {
			// A bare barrier fences every wire.
			for q := 0; q < circuit.NumQubits; q++ {
				qubitsUsed = append(qubitsUsed, q)
			}
		}
		depSet := make(map[string]bool)
		for _, qubit := range qubitsUsed {
			if lastID, ok := lastGateOnQubit[qubit]; ok {
				depSet[lastID] = true
			}
		}
		if gate.Cbit >= 0 {
			if lastID, ok := lastGateOnCbit[gate.Cbit]; ok {
				depSet[lastID] = true
			}
		}
		for depID := range depSet {
			node.Dependencies = append(node.Dependencies, depID)
		}
		slices.Sort(node.Dependencies)

		dag.AddNode(node)

		for _, qubit := range qubitsUsed {
			lastGateOnQubit[qubit] = node.ID
		}
		if gate.Cbit >= 0 {
			lastGateOnCbit[gate.Cbit] = node.ID
		}
	}

	return dag
}
