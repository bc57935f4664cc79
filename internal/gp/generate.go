package gp

import (
	"errors"
	"fmt"
	"math/rand"
)

// Method selects a tree-generation strategy.
type Method int

const (
	// Grow may terminate into a leaf before reaching max depth.
	Grow Method = iota
	// Full places every leaf at exactly max depth.
	Full
)

func (m Method) String() string {
	switch m {
	case Grow:
		return "grow"
	case Full:
		return "full"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

func ParseMethod(s string) (Method, error) {
	switch s {
	case "grow":
		return Grow, nil
	case "full":
		return Full, nil
	default:
		return 0, fmt.Errorf("unsupported generation method: %s", s)
	}
}

// Generate builds a random tree of at most maxDepth edges.
//
// With maxDepth 0 the result is always a leaf drawn from terms. The grow
// method stops early into a leaf with probability
// terms.Size()/(terms.Size()+ops.Size()) at each level; the full method
// always picks an operation until depth 0, so every leaf sits at exactly
// maxDepth. Children generate depth-first, left to right, each drawing its
// own random choices from rng.
func Generate(ops *OperationSet, terms *TerminalSet, maxDepth int, method Method, rng *rand.Rand) (*Node, error) {
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	if maxDepth < 0 {
		return nil, fmt.Errorf("max depth must be >= 0, got %d", maxDepth)
	}
	if terms == nil || terms.Size() == 0 {
		return nil, ErrNoTerminals
	}
	if ops == nil {
		ops = NewOperationSet()
	}

	if maxDepth == 0 {
		return randomLeaf(terms, rng)
	}

	switch method {
	case Grow:
		leafShare := float64(terms.Size()) / float64(terms.Size()+ops.Size())
		if rng.Float64() < leafShare {
			return randomLeaf(terms, rng)
		}
		return randomBranch(ops, terms, maxDepth, method, rng)
	case Full:
		return randomBranch(ops, terms, maxDepth, method, rng)
	default:
		return nil, fmt.Errorf("unsupported generation method: %s", method)
	}
}

func randomLeaf(terms *TerminalSet, rng *rand.Rand) (*Node, error) {
	t, err := terms.Random(rng)
	if err != nil {
		return nil, err
	}
	return NewLeaf(t), nil
}

func randomBranch(ops *OperationSet, terms *TerminalSet, maxDepth int, method Method, rng *rand.Rand) (*Node, error) {
	op, err := ops.Random(rng)
	if err != nil {
		return nil, err
	}
	children := make([]*Node, op.Arity())
	for i := range children {
		child, err := Generate(ops, terms, maxDepth-1, method, rng)
		if err != nil {
			return nil, err
		}
		children[i] = child
	}
	return &Node{Operation: op, Children: children}, nil
}

// RampedHalfAndHalf builds count trees alternating the full method (even
// indexes) and the grow method (odd indexes), cycling the target depth
// upward from minDepth to maxDepth and wrapping back. The mix guarantees
// structural diversity across both method and depth in an initial
// population.
func RampedHalfAndHalf(ops *OperationSet, terms *TerminalSet, minDepth, maxDepth, count int, rng *rand.Rand) ([]*Node, error) {
	if minDepth < 0 {
		return nil, fmt.Errorf("min depth must be >= 0, got %d", minDepth)
	}
	if maxDepth < minDepth {
		return nil, fmt.Errorf("max depth %d must be >= min depth %d", maxDepth, minDepth)
	}
	if count < 0 {
		return nil, fmt.Errorf("count must be >= 0, got %d", count)
	}

	trees := make([]*Node, 0, count)
	depth := minDepth
	for i := 0; i < count; i++ {
		method := Full
		if i%2 == 1 {
			method = Grow
		}
		tree, err := Generate(ops, terms, depth, method, rng)
		if err != nil {
			return nil, err
		}
		trees = append(trees, tree)

		depth++
		if depth > maxDepth {
			depth = minDepth
		}
	}
	return trees, nil
}
