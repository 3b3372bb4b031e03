package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/forestml/pkg/codec"
)

// GraphOverlay marks the decision path of one scored record.
type GraphOverlay struct {
	VisitedPaths []string
	LeafPath     string
}

// GenerateMermaid produces a Mermaid flowchart (graph TD) of one tree:
// - Split: [Rectangle] labelled "<feature> <= <threshold>"
// - Leaf: ([Stadium]) labelled with the leaf value
// Left edges are labelled "yes", right edges "no".
// Overlay styles are applied when overlay is non-nil.
func GenerateMermaid(tree *codec.AddCommand, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	prefix := fmt.Sprintf("t%d", tree.Index)
	for _, op := range tree.Ops {
		id := sanitizeMermaidID(prefix, op.Path)
		if op.Leaf {
			fmt.Fprintf(&sb, "    %s([\"%s\"])\n", id, codec.FormatFloat(op.Value))
			continue
		}
		feature := strings.ReplaceAll(op.Feature, "\"", "'")
		fmt.Fprintf(&sb, "    %s[\"%s <= %s\"]\n", id, feature, codec.FormatFloat(op.Threshold))
		fmt.Fprintf(&sb, "    %s -- \"yes\" --> %s\n", id, sanitizeMermaidID(prefix, op.Path+"l"))
		fmt.Fprintf(&sb, "    %s -- \"no\" --> %s\n", id, sanitizeMermaidID(prefix, op.Path+"r"))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, p := range overlay.VisitedPaths {
			if p == overlay.LeafPath {
				continue
			}
			id := sanitizeMermaidID(prefix, p)
			if !visitedSet[id] {
				visitedSet[id] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", id)
			}
		}

		if overlay.LeafPath != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(prefix, overlay.LeafPath))
		}
	}

	return sb.String()
}

// Overlay walks inputs through tree and marks the visited paths. A walk
// that stops early (missing input) still marks the paths it reached.
func Overlay(tree *codec.AddCommand, inputs map[string]float64) (*GraphOverlay, error) {
	visited, _, err := tree.Walk(inputs)
	overlay := &GraphOverlay{VisitedPaths: visited}
	if err == nil && len(visited) > 0 {
		overlay.LeafPath = visited[len(visited)-1]
	}
	return overlay, err
}

// sanitizeMermaidID turns a tree path such as ".lr" into a node id "t0_lr".
func sanitizeMermaidID(prefix, path string) string {
	return prefix + strings.ReplaceAll(path, ".", "_")
}
