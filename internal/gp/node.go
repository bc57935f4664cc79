package gp

import "fmt"

// Node is one vertex of an expression tree: a leaf carrying a Terminal, or
// an internal node carrying an Operation with exactly Arity children.
// Terminal and Operation values are shared read-only across trees; the
// node/children structure is exclusively owned per tree and never aliased
// between two trees.
type Node struct {
	Terminal  *Terminal
	Operation *Operation
	Children  []*Node
}

func NewLeaf(t *Terminal) *Node {
	if t == nil {
		panic("gp: leaf node requires a terminal")
	}
	return &Node{Terminal: t}
}

func NewInternal(op *Operation, children ...*Node) (*Node, error) {
	if op == nil {
		return nil, fmt.Errorf("internal node requires an operation")
	}
	if len(children) != op.Arity() {
		return nil, fmt.Errorf("operation %s requires %d children, got %d", op.Name(), op.Arity(), len(children))
	}
	for i, child := range children {
		if child == nil {
			return nil, fmt.Errorf("operation %s: child %d is nil", op.Name(), i)
		}
	}
	return &Node{Operation: op, Children: children}, nil
}

func (n *Node) IsLeaf() bool { return n.Terminal != nil }

// Clone returns a structurally identical deep copy. The copy shares the
// immutable Terminal and Operation values but no Node objects with the
// original.
func (n *Node) Clone() *Node {
	out := &Node{Terminal: n.Terminal, Operation: n.Operation}
	if len(n.Children) > 0 {
		out.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			out.Children[i] = child.Clone()
		}
	}
	return out
}

// Replace overwrites this node's tag, value and children in place with
// other's. The node keeps its position under its parent; only the subtree
// content changes.
func (n *Node) Replace(other *Node) {
	n.Terminal = other.Terminal
	n.Operation = other.Operation
	n.Children = other.Children
}

// Count returns the number of nodes in the subtree, this node included.
func (n *Node) Count() int {
	total := 1
	for _, child := range n.Children {
		total += child.Count()
	}
	return total
}

// Depth returns the longest root-to-leaf path in edges; a leaf has depth 0.
func (n *Node) Depth() int {
	deepest := 0
	for _, child := range n.Children {
		if d := child.Depth() + 1; d > deepest {
			deepest = d
		}
	}
	return deepest
}
