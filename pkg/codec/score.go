package codec

import (
	"strings"

	"github.com/aretw0/forestml/pkg/domain"
)

// InputClause renders feature values as "<name>:<value>," pairs in order.
// Every pair, including the last, is terminated by a comma.
func InputClause(values domain.FeatureValues) string {
	var b strings.Builder
	for _, p := range values {
		b.WriteString(p.Name)
		b.WriteByte(':')
		b.WriteString(FormatValue(p.Value))
		b.WriteByte(',')
	}
	return b.String()
}

// EncodeRun builds the run command scoring values against modelKey.
// outputType is copied from the model's metadata and upper-cased.
func EncodeRun(modelKey string, values domain.FeatureValues, outputType string) string {
	return RunKeyword + " " + modelKey + " " + InputClause(values) + " " + strings.ToUpper(outputType)
}
