package gp

import (
	"errors"
	"fmt"
	"strconv"
)

// TerminalKind tags the closed set of leaf variants.
type TerminalKind int

const (
	TerminalConstant TerminalKind = iota
	TerminalVariable
)

// Terminal is a leaf value provider: a fixed constant or a lookup of an
// input variable in the evaluation environment. Terminals are immutable
// after construction and shared by pointer across every tree that uses
// them; only the tree shape is owned per tree.
type Terminal struct {
	kind  TerminalKind
	value float64
	name  string
}

func NewConstant(value float64) *Terminal {
	return &Terminal{kind: TerminalConstant, value: value}
}

func NewInputVariable(name string) (*Terminal, error) {
	if name == "" {
		return nil, errors.New("input variable name is required")
	}
	return &Terminal{kind: TerminalVariable, name: name}, nil
}

func (t *Terminal) Kind() TerminalKind { return t.kind }

// Value resolves the terminal against env. Constants ignore env; variables
// fail with ErrUnboundVariable when env carries no binding for their name.
func (t *Terminal) Value(env Environment) (float64, error) {
	switch t.kind {
	case TerminalConstant:
		return t.value, nil
	case TerminalVariable:
		return env.Value(t.name)
	default:
		panic(fmt.Sprintf("gp: invalid terminal kind %d", t.kind))
	}
}

func (t *Terminal) String() string {
	if t.kind == TerminalVariable {
		return t.name
	}
	return strconv.FormatFloat(t.value, 'g', -1, 64)
}
