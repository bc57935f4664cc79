package gp

import (
	"errors"
	"fmt"
)

// MaxArity bounds how many children an internal node may carry. The default
// vocabularies only use arities 1 and 2; anything above the bound is a
// data-integrity error at construction time rather than a warning.
const MaxArity = 8

// Operation is an internal-node provider: a display name, a fixed arity and
// a pure numeric function of exactly arity arguments. Operations are
// immutable and shared by pointer across trees.
//
// The function is treated as total: partial cases such as division by zero
// must be decided by the function itself (returning Inf or NaN is fine) and
// propagate as ordinary numeric results, never as errors.
type Operation struct {
	name  string
	arity int
	fn    func(args []float64) float64
}

func NewOperation(name string, arity int, fn func(args []float64) float64) (*Operation, error) {
	if name == "" {
		return nil, errors.New("operation name is required")
	}
	if fn == nil {
		return nil, fmt.Errorf("operation %s: function is required", name)
	}
	if arity < 1 {
		return nil, fmt.Errorf("operation %s: arity must be >= 1, got %d", name, arity)
	}
	if arity > MaxArity {
		return nil, fmt.Errorf("operation %s: arity %d exceeds maximum %d", name, arity, MaxArity)
	}
	return &Operation{name: name, arity: arity, fn: fn}, nil
}

// NewUnaryOperation derives arity from the function signature.
func NewUnaryOperation(name string, fn func(a float64) float64) (*Operation, error) {
	if fn == nil {
		return nil, fmt.Errorf("operation %s: function is required", name)
	}
	return NewOperation(name, 1, func(args []float64) float64 {
		return fn(args[0])
	})
}

// NewBinaryOperation derives arity from the function signature.
func NewBinaryOperation(name string, fn func(a, b float64) float64) (*Operation, error) {
	if fn == nil {
		return nil, fmt.Errorf("operation %s: function is required", name)
	}
	return NewOperation(name, 2, func(args []float64) float64 {
		return fn(args[0], args[1])
	})
}

func (o *Operation) Name() string { return o.name }

func (o *Operation) Arity() int { return o.arity }

// Apply evaluates the operation on positional arguments.
func (o *Operation) Apply(args []float64) float64 {
	if len(args) != o.arity {
		panic(fmt.Sprintf("gp: operation %s applied to %d arguments, arity is %d", o.name, len(args), o.arity))
	}
	return o.fn(args)
}
