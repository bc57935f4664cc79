package scape

import "dendron/internal/gp"

// Scape is a problem environment: it owns the generative vocabulary
// candidate trees are built from and scores a tree against its target.
// Lower fitness is better and zero is a perfect score. Scoring must be
// deterministic and side-effect free so populations can evaluate
// concurrently.
type Scape interface {
	Name() string
	Description() string
	Vocabulary() (*gp.OperationSet, *gp.TerminalSet)
	Evaluate(tree *gp.Node) (float64, error)
}
