package gp

// Evaluate computes the numeric value of the tree rooted at node under env.
// Children evaluate left to right and the operation function is applied
// positionally to the results. There is no caching: every call re-walks the
// whole subtree, so the result is a pure function of tree shape and env.
func Evaluate(node *Node, env Environment) (float64, error) {
	switch {
	case node == nil:
		panic("gp: evaluate called on nil node")
	case node.IsLeaf():
		return node.Terminal.Value(env)
	case node.Operation != nil:
		args := make([]float64, len(node.Children))
		for i, child := range node.Children {
			v, err := Evaluate(child, env)
			if err != nil {
				return 0, err
			}
			args[i] = v
		}
		return node.Operation.Apply(args), nil
	default:
		panic("gp: node is neither leaf nor internal")
	}
}
