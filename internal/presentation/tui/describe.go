package tui

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/forestml/pkg/domain"
)

// DescribeMarkdown renders model metadata as a markdown document.
func DescribeMarkdown(meta *domain.ModelMetadata) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", meta.ModelKey)

	sb.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Algorithm | %s |\n", meta.ModelAlgorithm)
	fmt.Fprintf(&sb, "| Type | %s |\n", meta.ModelType)
	fmt.Fprintf(&sb, "| Trees | %d |\n", len(meta.AddLines()))
	if meta.CreationTime > 0 {
		created := time.UnixMicro(int64(meta.CreationTime * 1e6)).UTC()
		fmt.Fprintf(&sb, "| Created | %s |\n", created.Format(time.RFC3339))
	}

	if names := listOf(meta.ModelInputs); len(names) > 0 {
		sb.WriteString("\n## Inputs\n\n")
		for _, n := range names {
			fmt.Fprintf(&sb, "- `%s`\n", n)
		}
	}
	if names := listOf(meta.ModelOutputs); len(names) > 0 {
		sb.WriteString("\n## Outputs\n\n")
		for _, n := range names {
			fmt.Fprintf(&sb, "- `%s`\n", n)
		}
	}

	if meta.RunExample != "" {
		fmt.Fprintf(&sb, "\n## Example\n\n```\n%s\n```\n", meta.RunExample)
	}
	return sb.String()
}

// listOf reads a JSON array of names; anything else is shown verbatim.
func listOf(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err == nil {
		return names
	}
	return []string{string(raw)}
}
