package storage

import (
	"encoding/json"
	"errors"

	"dendron/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeIndividual(ind model.Individual) ([]byte, error) {
	return json.Marshal(ind)
}

func DecodeIndividual(data []byte) (model.Individual, error) {
	var ind model.Individual
	if err := json.Unmarshal(data, &ind); err != nil {
		return model.Individual{}, err
	}
	if err := checkVersion(ind.VersionedRecord); err != nil {
		return model.Individual{}, err
	}
	return ind, nil
}

func EncodeScapeSummary(s model.ScapeSummary) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeScapeSummary(data []byte) (model.ScapeSummary, error) {
	var summary model.ScapeSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return model.ScapeSummary{}, err
	}
	if err := checkVersion(summary.VersionedRecord); err != nil {
		return model.ScapeSummary{}, err
	}
	return summary, nil
}

func EncodeTopIndividuals(top []model.TopIndividualRecord) ([]byte, error) {
	return json.Marshal(top)
}

func DecodeTopIndividuals(data []byte) ([]model.TopIndividualRecord, error) {
	var top []model.TopIndividualRecord
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, err
	}
	for _, record := range top {
		if err := checkVersion(record.Individual.VersionedRecord); err != nil {
			return nil, err
		}
	}
	return top, nil
}

func EncodeFitnessHistory(history []float64) ([]byte, error) {
	wrapped := make([]model.Fitness, len(history))
	for i, v := range history {
		wrapped[i] = model.Fitness(v)
	}
	return json.Marshal(wrapped)
}

func DecodeFitnessHistory(data []byte) ([]float64, error) {
	var wrapped []model.Fitness
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	history := make([]float64, len(wrapped))
	for i, v := range wrapped {
		history[i] = float64(v)
	}
	return history, nil
}

func EncodeGenerationDiagnostics(diagnostics []model.GenerationDiagnostics) ([]byte, error) {
	return json.Marshal(diagnostics)
}

func DecodeGenerationDiagnostics(data []byte) ([]model.GenerationDiagnostics, error) {
	var diagnostics []model.GenerationDiagnostics
	if err := json.Unmarshal(data, &diagnostics); err != nil {
		return nil, err
	}
	return diagnostics, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
