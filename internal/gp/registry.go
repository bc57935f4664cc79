package gp

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	ErrNoTerminals  = errors.New("terminal set is empty")
	ErrNoOperations = errors.New("operation set is empty")
)

// TerminalSet is the terminal half of a generative vocabulary: an
// append-only collection supporting size query and uniform random draw.
// Duplicates are allowed; registering the same terminal twice doubles its
// draw weight.
type TerminalSet struct {
	items []*Terminal
}

func NewTerminalSet(items ...*Terminal) *TerminalSet {
	s := &TerminalSet{}
	for _, t := range items {
		s.Add(t)
	}
	return s
}

func (s *TerminalSet) Add(t *Terminal) {
	if t == nil {
		panic("gp: nil terminal registered")
	}
	s.items = append(s.items, t)
}

func (s *TerminalSet) Size() int { return len(s.items) }

func (s *TerminalSet) Random(rng *rand.Rand) (*Terminal, error) {
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	if len(s.items) == 0 {
		return nil, ErrNoTerminals
	}
	return s.items[rng.Intn(len(s.items))], nil
}

// OperationSet is the operation half of a generative vocabulary.
type OperationSet struct {
	items []*Operation
}

func NewOperationSet(items ...*Operation) *OperationSet {
	s := &OperationSet{}
	for _, op := range items {
		s.Add(op)
	}
	return s
}

func (s *OperationSet) Add(op *Operation) {
	if op == nil {
		panic("gp: nil operation registered")
	}
	s.items = append(s.items, op)
}

func (s *OperationSet) Size() int { return len(s.items) }

// Find returns the first registered operation with the given name.
func (s *OperationSet) Find(name string) (*Operation, bool) {
	for _, op := range s.items {
		if op.Name() == name {
			return op, true
		}
	}
	return nil, false
}

func (s *OperationSet) Random(rng *rand.Rand) (*Operation, error) {
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	if len(s.items) == 0 {
		return nil, ErrNoOperations
	}
	return s.items[rng.Intn(len(s.items))], nil
}

// ValidateVocabulary is the pre-loop configuration check: both halves of
// the vocabulary must be non-empty before any draw is attempted.
func ValidateVocabulary(ops *OperationSet, terms *TerminalSet) error {
	if ops == nil || ops.Size() == 0 {
		return fmt.Errorf("invalid vocabulary: %w", ErrNoOperations)
	}
	if terms == nil || terms.Size() == 0 {
		return fmt.Errorf("invalid vocabulary: %w", ErrNoTerminals)
	}
	return nil
}
