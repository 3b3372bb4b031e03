package domain

import (
	"encoding/json"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var metadataValidate *validator.Validate

func init() {
	metadataValidate = validator.New()
	_ = metadataValidate.RegisterValidation("token", validateToken)
}

// validateToken rejects values that would split into several protocol tokens.
func validateToken(fl validator.FieldLevel) bool {
	return !strings.ContainsFunc(fl.Field().String(), unicode.IsSpace)
}

// ModelMetadata is the record persisted for every registered model.
// Field names match the JSON payloads and hash fields of the publish API.
type ModelMetadata struct {
	ModelKey       string          `json:"model_key" validate:"required,max=256,token"`
	ModelType      string          `json:"model_type" validate:"required,token"`
	ModelAlgorithm string          `json:"model_algorithm" validate:"required,token"`
	ModelInputs    json.RawMessage `json:"model_inputs,omitempty"`
	ModelOutputs   json.RawMessage `json:"model_outputs,omitempty"`
	AddCommand     string          `json:"redisml_add_str" validate:"required"`
	RunExample     string          `json:"redisml_run_example,omitempty"`
	CreationTime   float64         `json:"creation_time,omitempty"`
}

// Validate checks the metadata against its struct tags.
func (m *ModelMetadata) Validate() error {
	return metadataValidate.Struct(m)
}

// AddLines splits the stored add command into one line per tree.
// Ensembles carry several newline-separated lines; everything else carries one.
func (m *ModelMetadata) AddLines() []string {
	if !strings.EqualFold(m.ModelAlgorithm, AlgorithmRandomForest) {
		return []string{strings.TrimRight(m.AddCommand, "\r\n")}
	}
	var lines []string
	for _, line := range strings.Split(m.AddCommand, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
