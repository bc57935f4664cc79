package gp

import "strings"

// Serialize renders the tree in parenthesized prefix notation: a leaf is
// its terminal's display string, an internal node is
// "(NAME child1 child2 ...)". The output depends only on tree structure,
// never on an environment.
func Serialize(node *Node) string {
	var b strings.Builder
	writeNode(&b, node)
	return b.String()
}

func (n *Node) String() string { return Serialize(n) }

func writeNode(b *strings.Builder, node *Node) {
	switch {
	case node == nil:
		panic("gp: serialize called on nil node")
	case node.IsLeaf():
		b.WriteString(node.Terminal.String())
	case node.Operation != nil:
		b.WriteByte('(')
		b.WriteString(node.Operation.Name())
		for _, child := range node.Children {
			b.WriteByte(' ')
			writeNode(b, child)
		}
		b.WriteByte(')')
	default:
		panic("gp: node is neither leaf nor internal")
	}
}
