package scape

// Quadratic targets x^2 + x + 1 over [-5, 5].
func Quadratic() (*SymbolicRegression, error) {
	return NewSymbolicRegression(
		"quadratic",
		"symbolic regression of x^2 + x + 1 over [-5, 5]",
		func(x float64) float64 { return x*x + x + 1 },
		SampleGrid(-5, 5, 1),
	)
}

// Line targets 2x + 3 over [-5, 5].
func Line() (*SymbolicRegression, error) {
	return NewSymbolicRegression(
		"line",
		"symbolic regression of 2x + 3 over [-5, 5]",
		func(x float64) float64 { return 2*x + 3 },
		SampleGrid(-5, 5, 1),
	)
}

// Constant targets the constant 42 over [-5, 5].
func Constant() (*SymbolicRegression, error) {
	return NewSymbolicRegression(
		"constant",
		"symbolic regression of the constant 42 over [-5, 5]",
		func(x float64) float64 { return 42 },
		SampleGrid(-5, 5, 1),
	)
}

// Builtins returns the regression scapes shipped with the platform.
func Builtins() ([]Scape, error) {
	quadratic, err := Quadratic()
	if err != nil {
		return nil, err
	}
	line, err := Line()
	if err != nil {
		return nil, err
	}
	constant, err := Constant()
	if err != nil {
		return nil, err
	}
	return []Scape{quadratic, line, constant}, nil
}
