package evo

// FitnessPostprocessor adjusts fitness values after scape evaluation and
// before ranking/selection.
type FitnessPostprocessor interface {
	Name() string
	Process(scored []ScoredIndividual) []ScoredIndividual
}

type NoopFitnessPostprocessor struct{}

func (NoopFitnessPostprocessor) Name() string {
	return "none"
}

func (NoopFitnessPostprocessor) Process(scored []ScoredIndividual) []ScoredIndividual {
	return cloneScored(scored)
}

const defaultParsimonyPressure = 0.01

// SizeProportionalPostprocessor adds a per-node penalty to each score,
// nudging selection toward smaller trees with equal raw fitness. With
// lower-is-better scoring the penalty is additive.
type SizeProportionalPostprocessor struct {
	// Pressure is the penalty per tree node; zero means the default.
	Pressure float64
}

func (SizeProportionalPostprocessor) Name() string {
	return "size_proportional"
}

func (p SizeProportionalPostprocessor) Process(scored []ScoredIndividual) []ScoredIndividual {
	pressure := p.Pressure
	if pressure <= 0 {
		pressure = defaultParsimonyPressure
	}
	out := cloneScored(scored)
	for i := range out {
		if out[i].Tree == nil {
			continue
		}
		out[i].Fitness += pressure * float64(out[i].Tree.Count())
	}
	return out
}

func cloneScored(scored []ScoredIndividual) []ScoredIndividual {
	out := make([]ScoredIndividual, len(scored))
	copy(out, scored)
	return out
}
