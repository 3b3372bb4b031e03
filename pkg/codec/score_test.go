package codec

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/forestml/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRun(t *testing.T) {
	values := domain.Values("AGE", 34, "INCOME", 50000.5)

	// The comma after the last pair is part of the wire format.
	assert.Equal(t, "ML.FOREST.RUN m1 AGE:34,INCOME:50000.5, FOREST", EncodeRun("m1", values, "forest"))
	assert.Equal(t, "AGE:34,INCOME:50000.5,", InputClause(values))
}

func TestEncodeRun_EmptyInputs(t *testing.T) {
	assert.Equal(t, "ML.FOREST.RUN m1  CLASSIFICATION", EncodeRun("m1", nil, "classification"))
	assert.Equal(t, "", InputClause(domain.FeatureValues{}))
}

func TestEncodeRun_JSONOrder(t *testing.T) {
	var req domain.ScoreRequest
	err := json.Unmarshal([]byte(`{
		"model_key": "tree-67a9f783",
		"model_inputs": {"YOJ": 15, "CLAGE": 12.50, "DEBTINC": 3.4e1, "REASON": "HomeImp"}
	}`), &req)
	require.NoError(t, err)

	assert.Equal(t,
		"ML.FOREST.RUN tree-67a9f783 YOJ:15,CLAGE:12.5,DEBTINC:34.0,REASON:HomeImp, REGRESSION",
		EncodeRun(req.ModelKey, req.ModelInputs, "Regression"))
}

func TestParseRun(t *testing.T) {
	line := EncodeRun("m1", domain.Values("AGE", 34, "INCOME", 50000.5), "classification")

	cmd, err := ParseRun(line)
	require.NoError(t, err)
	assert.Equal(t, "m1", cmd.Key)
	assert.Equal(t, "CLASSIFICATION", cmd.OutputType)
	assert.Equal(t, []string{"AGE", "INCOME"}, cmd.Inputs.Names())
	v, ok := cmd.Inputs.Get("INCOME")
	assert.True(t, ok)
	assert.Equal(t, "50000.5", v)

	cmd, err = ParseRun(EncodeRun("m1", nil, "regression"))
	require.NoError(t, err)
	assert.Empty(t, cmd.Inputs)
	assert.Equal(t, "REGRESSION", cmd.OutputType)

	for _, bad := range []string{"", "ML.FOREST.RUN", "ML.FOREST.ADD m1 A:1, X", "ML.FOREST.RUN m1 A1, X", "ML.FOREST.RUN m1 a b c"} {
		_, err := ParseRun(bad)
		assert.ErrorIs(t, err, domain.ErrInvalidCommand, "input %q", bad)
	}
}
