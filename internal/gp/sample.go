package gp

import "math/rand"

// SelectRandomNode picks one node of the tree in a single pre-order pass
// with O(1) extra state: after visiting the c-th node (1-based) it becomes
// the candidate when a uniform draw from [0, c] lands on c, i.e. with
// probability 1/(c+1).
//
// The distribution is deliberately not uniform: later-visited nodes are
// kept with decreasing probability and the leftover mass stays on the
// root, which doubles as the initial candidate. Callers that need true
// uniform selection should count nodes first and index directly.
func SelectRandomNode(root *Node, rng *rand.Rand) *Node {
	if root == nil || rng == nil {
		return root
	}

	candidate := root
	visited := 0
	var walk func(n *Node)
	walk = func(n *Node) {
		visited++
		if rng.Intn(visited+1) == visited {
			candidate = n
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(root)
	return candidate
}
