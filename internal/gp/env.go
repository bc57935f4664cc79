package gp

import (
	"errors"
	"fmt"
)

// ErrUnboundVariable reports an input-variable read with no binding in the
// evaluation environment. Evaluation fails fast instead of letting an
// undefined value propagate through arithmetic.
var ErrUnboundVariable = errors.New("unbound variable")

// Environment maps input-variable names to numeric values for one
// evaluation pass.
type Environment map[string]float64

func (e Environment) Value(name string) (float64, error) {
	v, ok := e[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnboundVariable, name)
	}
	return v, nil
}
