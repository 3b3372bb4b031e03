package domain

import (
	"fmt"
	"time"
)

// ScoreRequest is the payload of one scoring call.
type ScoreRequest struct {
	ModelKey    string        `json:"model_key" validate:"required,max=256,token"`
	ModelInputs FeatureValues `json:"model_inputs"`
}

// Validate checks the request against its struct tags.
func (r *ScoreRequest) Validate() error {
	return metadataValidate.Struct(r)
}

// ScoreResult is the record returned to the caller after a scoring call.
type ScoreResult struct {
	ModelKey    string `json:"Model key"`
	InputString string `json:"Input string"`
	OutputValue any    `json:"Output Value"`
	DurationMS  int64  `json:"Duration"`
}

// Execution is one entry of a model's execution log.
type Execution struct {
	Time     time.Time
	Output   any
	Inputs   string
	Duration time.Duration
}

// executionTimeLayout matches the timestamps already present in stored logs.
const executionTimeLayout = "2006-01-02 15:04:05.000000"

// Record renders the execution as "<time>:<output>:<inputs>:<duration_ms>".
func (e Execution) Record() string {
	return fmt.Sprintf("%s:%v:%s:%d", e.Time.Format(executionTimeLayout), e.Output, e.Inputs, e.Duration.Milliseconds())
}
