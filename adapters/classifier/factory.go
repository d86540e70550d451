// Package classifier provides the risk model families: a seeded random forest
// (the default) and a logistic regression, plus their persistence codec.
package classifier

import (
	"encoding/json"
	"fmt"
	"strings"

	"riskfusion/ports"
)

// Settings selects and parameterises a model family.
type Settings struct {
	Family   string
	Trees    int
	MaxDepth int
	Seed     int64
}

// DefaultSettings mirrors the forest the pipeline was designed around.
func DefaultSettings() Settings {
	return Settings{
		Family:   FamilyRandomForest,
		Trees:    DefaultTrees,
		MaxDepth: DefaultMaxDepth,
		Seed:     DefaultSeed,
	}
}

// Families lists the supported family names.
func Families() []string {
	return []string{FamilyRandomForest, FamilyLogisticRegression}
}

// NewTrainer returns the trainer for s.Family.
func NewTrainer(s Settings) (ports.RiskModelTrainer, error) {
	switch strings.ToLower(strings.TrimSpace(s.Family)) {
	case "", FamilyRandomForest:
		return NewForestTrainer(s.Trees, s.MaxDepth, s.Seed), nil
	case FamilyLogisticRegression:
		return NewLogisticTrainer(s.Seed), nil
	default:
		return nil, fmt.Errorf("unsupported model family: %s (supported: %s)",
			s.Family, strings.Join(Families(), ", "))
	}
}

// Encode serialises a model produced by this package.
func Encode(m ports.RiskModel) (json.RawMessage, error) {
	switch m.(type) {
	case *RandomForest, *LogisticRegression:
	default:
		return nil, fmt.Errorf("cannot encode model of type %T", m)
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s model: %w", m.Family(), err)
	}
	return data, nil
}

// Decode restores a model from its family name and payload.
// Structurally broken payloads yield a model-not-fitted error.
func Decode(family string, payload json.RawMessage) (ports.RiskModel, error) {
	var m decodedModel
	switch family {
	case FamilyRandomForest:
		m = &RandomForest{}
	case FamilyLogisticRegression:
		m = &LogisticRegression{}
	default:
		return nil, fmt.Errorf("unsupported model family: %s", family)
	}
	if err := json.Unmarshal(payload, m); err != nil {
		return nil, fmt.Errorf("failed to decode %s model: %w", family, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

type decodedModel interface {
	ports.RiskModel
	validate() error
}
