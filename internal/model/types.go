package model

import (
	"encoding/json"
	"math"
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Fitness is a float64 that survives JSON round trips when non-finite:
// NaN and infinities encode as null and decode back as NaN. Standard
// JSON has no representation for them, and unfit scores are routine in
// diagnostics.
type Fitness float64

func (f Fitness) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func (f *Fitness) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Fitness(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Fitness(v)
	return nil
}

// Individual is the persisted form of one expression tree. The engine never
// stores live tree graphs, only their serialized prefix form plus the shape
// metrics needed for reporting.
type Individual struct {
	VersionedRecord
	Expression string  `json:"expression"`
	Fitness    Fitness `json:"fitness"`
	NodeCount  int     `json:"node_count"`
	Depth      int     `json:"depth"`
}

type TopIndividualRecord struct {
	Rank       int        `json:"rank"`
	Fitness    Fitness    `json:"fitness"`
	Individual Individual `json:"individual"`
}

type GenerationDiagnostics struct {
	Generation     int     `json:"generation"`
	BestFitness    Fitness `json:"best_fitness"`
	MeanFitness    Fitness `json:"mean_fitness"`
	WorstFitness   Fitness `json:"worst_fitness"`
	BestExpression string  `json:"best_expression"`
	MeanNodeCount  float64 `json:"mean_node_count"`
	MaxDepth       int     `json:"max_depth"`
	UnfitCount     int     `json:"unfit_count"`
	Evaluations    int     `json:"evaluations"`
}

type ScapeSummary struct {
	VersionedRecord
	Name        string  `json:"name"`
	Description string  `json:"description"`
	BestFitness Fitness `json:"best_fitness"`
	BestRunID   string  `json:"best_run_id,omitempty"`
	Runs        int     `json:"runs"`
}
