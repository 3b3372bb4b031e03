package domain

import (
	"fmt"
	"strings"
)

// Algorithm tags understood by the encoder.
const (
	AlgorithmDecisionTree = "DecisionTree"
	AlgorithmRandomForest = "RandomForest"
)

// Output types accepted by the scoring engine's run command.
const (
	OutputClassification = "classification"
	OutputRegression     = "regression"
)

// Model is a trained tree model as exported by a training pipeline.
// FeatureNames is aligned by position with the feature indices of every tree.
type Model struct {
	Algorithm    string      `json:"algorithm" yaml:"algorithm" validate:"required,token"`
	Type         string      `json:"type,omitempty" yaml:"type,omitempty" validate:"omitempty,token"`
	FeatureNames []string    `json:"feature_names" yaml:"feature_names" validate:"required,min=1,dive,required,token"`
	Outputs      []string    `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Trees        []ArrayTree `json:"trees" yaml:"trees" validate:"required,min=1"`
}

// IsForest reports whether the model's algorithm is an ensemble.
func (m *Model) IsForest() bool {
	return strings.EqualFold(m.Algorithm, AlgorithmRandomForest)
}

// IsSingleTree reports whether the model's algorithm is a bare decision tree.
func (m *Model) IsSingleTree() bool {
	return strings.EqualFold(m.Algorithm, AlgorithmDecisionTree)
}

// Forest returns the model's trees, in order, as Tree values.
func (m *Model) Forest() []Tree {
	trees := make([]Tree, len(m.Trees))
	for i := range m.Trees {
		trees[i] = &m.Trees[i]
	}
	return trees
}

// OutputType returns the model type, defaulting to classification.
func (m *Model) OutputType() string {
	if m.Type == "" {
		return OutputClassification
	}
	return m.Type
}

// Validate checks the model's fields and the layout of every tree.
func (m *Model) Validate() error {
	if err := metadataValidate.Struct(m); err != nil {
		return err
	}
	for i := range m.Trees {
		if err := m.Trees[i].Validate(); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}
