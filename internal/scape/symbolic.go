package scape

import (
	"fmt"
	"math"

	"dendron/internal/gp"
)

// InputName is the variable every symbolic regression scape binds when
// scoring a tree.
const InputName = "X"

// SymbolicRegression scores a tree as the sum of absolute deviations
// from a target curve over a fixed sample grid. A tree that reproduces
// the target exactly scores zero. Non-finite tree outputs (division by
// zero and the like) flow into the sum unchanged, so a single NaN or
// Inf sample poisons the whole score.
type SymbolicRegression struct {
	name        string
	description string
	target      func(x float64) float64
	samples     []float64
	ops         *gp.OperationSet
	terms       *gp.TerminalSet
}

func NewSymbolicRegression(name, description string, target func(x float64) float64, samples []float64) (*SymbolicRegression, error) {
	if name == "" {
		return nil, fmt.Errorf("scape name is required")
	}
	if target == nil {
		return nil, fmt.Errorf("scape %s: target function is required", name)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("scape %s: at least one sample is required", name)
	}

	ops, terms, err := arithmeticVocabulary()
	if err != nil {
		return nil, fmt.Errorf("scape %s: %w", name, err)
	}
	return &SymbolicRegression{
		name:        name,
		description: description,
		target:      target,
		samples:     append([]float64(nil), samples...),
		ops:         ops,
		terms:       terms,
	}, nil
}

func (s *SymbolicRegression) Name() string        { return s.name }
func (s *SymbolicRegression) Description() string { return s.description }

func (s *SymbolicRegression) Vocabulary() (*gp.OperationSet, *gp.TerminalSet) {
	return s.ops, s.terms
}

func (s *SymbolicRegression) Evaluate(tree *gp.Node) (float64, error) {
	total := 0.0
	for _, x := range s.samples {
		out, err := gp.Evaluate(tree, gp.Environment{InputName: x})
		if err != nil {
			return 0, fmt.Errorf("scape %s at %s=%g: %w", s.name, InputName, x, err)
		}
		total += math.Abs(out - s.target(x))
	}
	return total, nil
}

// arithmeticVocabulary is the shared function and terminal set for the
// built-in regression scapes: the four arithmetic operations with an
// unguarded division, the input variable, and the constants 1 through 5.
func arithmeticVocabulary() (*gp.OperationSet, *gp.TerminalSet, error) {
	add, err := gp.NewBinaryOperation("ADD", func(a, b float64) float64 { return a + b })
	if err != nil {
		return nil, nil, err
	}
	sub, err := gp.NewBinaryOperation("SUB", func(a, b float64) float64 { return a - b })
	if err != nil {
		return nil, nil, err
	}
	mul, err := gp.NewBinaryOperation("MUL", func(a, b float64) float64 { return a * b })
	if err != nil {
		return nil, nil, err
	}
	div, err := gp.NewBinaryOperation("DIV", func(a, b float64) float64 { return a / b })
	if err != nil {
		return nil, nil, err
	}

	x, err := gp.NewInputVariable(InputName)
	if err != nil {
		return nil, nil, err
	}
	terms := gp.NewTerminalSet(x)
	for c := 1.0; c <= 5.0; c++ {
		terms.Add(gp.NewConstant(c))
	}
	return gp.NewOperationSet(add, sub, mul, div), terms, nil
}

// SampleGrid builds an inclusive grid from lo to hi with the given step.
func SampleGrid(lo, hi, step float64) []float64 {
	if step <= 0 || hi < lo {
		return nil
	}
	out := make([]float64, 0, int((hi-lo)/step)+1)
	for x := lo; x <= hi+step/2; x += step {
		out = append(out, x)
	}
	return out
}
