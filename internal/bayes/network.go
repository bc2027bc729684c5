package bayes

import (
	"fmt"
	"math"
)

// probTolerance is the floating tolerance for "sums to 1" checks, both on CPT
// columns at construction and on inference output.
const probTolerance = 1e-6

// Node is one discrete random variable with its conditional probability table.
//
// CPT layout follows the usual tabular convention: one row per state, one
// column per combination of parent states, with the last parent varying
// fastest. A root node has a single column (its prior).
type Node struct {
	Name    string
	States  []string
	Parents []string
	CPT     [][]float64
}

// Network is a fixed-structure discrete Bayesian network supporting exact
// inference. It is immutable after New returns and safe for concurrent use.
type Network struct {
	nodes  []Node // topological order
	byName map[string]int
}

// New validates the node set and returns a network with nodes stored in
// topological order. Any structural or numeric defect is a *ConfigurationError:
// a broken table is a deployment problem, not a per-query one.
func New(nodes []Node) (*Network, error) {
	byName := make(map[string]int, len(nodes))
	for i, n := range nodes {
		if n.Name == "" {
			return nil, &ConfigurationError{Reason: "node with empty name"}
		}
		if _, dup := byName[n.Name]; dup {
			return nil, &ConfigurationError{Node: n.Name, Reason: "duplicate node name"}
		}
		byName[n.Name] = i
	}

	for _, n := range nodes {
		if err := validateNode(n, nodes, byName); err != nil {
			return nil, err
		}
	}

	ordered, err := topoSort(nodes, byName)
	if err != nil {
		return nil, err
	}

	net := &Network{nodes: ordered, byName: make(map[string]int, len(ordered))}
	for i, n := range net.nodes {
		net.byName[n.Name] = i
	}
	return net, nil
}

func validateNode(n Node, nodes []Node, byName map[string]int) error {
	if len(n.States) == 0 {
		return &ConfigurationError{Node: n.Name, Reason: "no states"}
	}
	if len(n.CPT) != len(n.States) {
		return &ConfigurationError{Node: n.Name,
			Reason: fmt.Sprintf("CPT has %d rows, want one per state (%d)", len(n.CPT), len(n.States))}
	}

	columns := 1
	for _, p := range n.Parents {
		pi, ok := byName[p]
		if !ok {
			return &ConfigurationError{Node: n.Name, Reason: fmt.Sprintf("unknown parent %q", p)}
		}
		columns *= len(nodes[pi].States)
	}

	for s, row := range n.CPT {
		if len(row) != columns {
			return &ConfigurationError{Node: n.Name,
				Reason: fmt.Sprintf("state %q row has %d entries, want %d (one per parent combination)", n.States[s], len(row), columns)}
		}
	}

	for col := 0; col < columns; col++ {
		sum := 0.0
		for s := range n.CPT {
			v := n.CPT[s][col]
			if v < 0 || v > 1 {
				return &ConfigurationError{Node: n.Name,
					Reason: fmt.Sprintf("probability %g out of [0,1] at state %q column %d", v, n.States[s], col)}
			}
			sum += v
		}
		if math.Abs(sum-1) > probTolerance {
			return &ConfigurationError{Node: n.Name,
				Reason: fmt.Sprintf("column %d sums to %g, want 1", col, sum)}
		}
	}
	return nil
}

// topoSort orders nodes parents-first and rejects cycles.
func topoSort(nodes []Node, byName map[string]int) ([]Node, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(nodes))
	ordered := make([]Node, 0, len(nodes))

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return &ConfigurationError{Node: nodes[i].Name, Reason: "cycle in network structure"}
		}
		state[i] = visiting
		for _, p := range nodes[i].Parents {
			if err := visit(byName[p]); err != nil {
				return err
			}
		}
		state[i] = done
		ordered = append(ordered, nodes[i])
		return nil
	}

	for i := range nodes {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

// Query computes the exact posterior distribution of target given evidence by
// enumerating the joint. The network is small enough (8 nodes here) that
// brute-force enumeration is well under a millisecond; no sampling, so
// identical input always yields identical output.
func (net *Network) Query(target string, evidence map[string]string) ([]float64, error) {
	ti, ok := net.byName[target]
	if !ok {
		return nil, fmt.Errorf("bayes: unknown query variable %q", target)
	}
	if _, isEvidence := evidence[target]; isEvidence {
		return nil, fmt.Errorf("bayes: query variable %q is also evidence", target)
	}

	fixed := make([]int, len(net.nodes))
	for i := range fixed {
		fixed[i] = -1
	}
	for name, state := range evidence {
		ni, ok := net.byName[name]
		if !ok {
			return nil, fmt.Errorf("bayes: unknown evidence variable %q", name)
		}
		si := stateIndex(net.nodes[ni].States, state)
		if si < 0 {
			return nil, fmt.Errorf("bayes: unknown state %q for variable %q", state, name)
		}
		fixed[ni] = si
	}

	// With every other variable observed, factors that do not mention the
	// target are constant across its states and cancel in normalization, so
	// the posterior reduces to the target's Markov blanket product. Taking
	// that reduction keeps a structural zero elsewhere in the evidence from
	// zeroing every state of an otherwise well-defined query.
	fullyObserved := len(evidence) == len(net.nodes)-1

	targetStates := net.nodes[ti].States
	posterior := make([]float64, len(targetStates))
	for s := range targetStates {
		fixed[ti] = s
		if fullyObserved {
			posterior[s] = net.blanketProduct(ti, fixed)
		} else {
			posterior[s] = net.enumerate(0, fixed)
		}
	}
	fixed[ti] = -1

	total := 0.0
	for _, p := range posterior {
		total += p
	}
	if total <= 0 {
		return nil, fmt.Errorf("bayes: evidence has zero probability")
	}
	for s := range posterior {
		posterior[s] /= total
	}
	return posterior, nil
}

// enumerate sums the joint probability over all assignments of nodes[i:] that
// are consistent with the fixed assignment (-1 means free). Nodes are in
// topological order, so every parent is assigned before its child's CPT entry
// is read.
func (net *Network) enumerate(i int, fixed []int) float64 {
	if i == len(net.nodes) {
		return 1
	}
	n := &net.nodes[i]

	if fixed[i] >= 0 {
		return net.cptEntry(n, fixed[i], fixed) * net.enumerate(i+1, fixed)
	}

	sum := 0.0
	for s := range n.States {
		fixed[i] = s
		sum += net.cptEntry(n, s, fixed) * net.enumerate(i+1, fixed)
	}
	fixed[i] = -1
	return sum
}

// blanketProduct multiplies the CPT entries that mention nodes[ti] under a
// complete assignment: the target's own entry and one entry per child.
func (net *Network) blanketProduct(ti int, fixed []int) float64 {
	target := &net.nodes[ti]
	p := net.cptEntry(target, fixed[ti], fixed)
	for i := range net.nodes {
		if i == ti {
			continue
		}
		n := &net.nodes[i]
		for _, parent := range n.Parents {
			if parent == target.Name {
				p *= net.cptEntry(n, fixed[i], fixed)
				break
			}
		}
	}
	return p
}

// cptEntry reads P(node=state | assigned parent states).
func (net *Network) cptEntry(n *Node, state int, fixed []int) float64 {
	col := 0
	for _, p := range n.Parents {
		pi := net.byName[p]
		col = col*len(net.nodes[pi].States) + fixed[pi]
	}
	return n.CPT[state][col]
}

func stateIndex(states []string, state string) int {
	for i, s := range states {
		if s == state {
			return i
		}
	}
	return -1
}
