package gp

import (
	"errors"
	"math/rand"
)

// Mutate returns a mutated deep copy of root: one node of the copy, picked
// by SelectRandomNode, has its subtree replaced in place with a freshly
// generated one of at most maxDepth edges. The input tree is never
// modified.
//
// The replacement depth is independent of how deep the replaced node sat,
// so repeated mutation can grow trees without bound (bloat). Callers that
// want bounded offspring must enforce their own cap on the result.
func Mutate(root *Node, ops *OperationSet, terms *TerminalSet, maxDepth int, method Method, rng *rand.Rand) (*Node, error) {
	if root == nil {
		return nil, errors.New("root is required")
	}
	if rng == nil {
		return nil, errors.New("random source is required")
	}

	mutant := root.Clone()
	target := SelectRandomNode(mutant, rng)
	subtree, err := Generate(ops, terms, maxDepth, method, rng)
	if err != nil {
		return nil, err
	}
	target.Replace(subtree)
	return mutant, nil
}
