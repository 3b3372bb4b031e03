package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/forestml/internal/presentation/graph"
	"github.com/aretw0/forestml/pkg/codec"
	"github.com/aretw0/forestml/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const line = `ML.FOREST.ADD forest-1 2 . NUMERIC DELINQ 1.5 .l NUMERIC DEBTINC 33.5 .ll LEAF 0 .lr LEAF 1 .r LEAF 1 `

func TestGenerateMermaid(t *testing.T) {
	tree, err := codec.ParseAdd(line)
	require.NoError(t, err)

	out := graph.GenerateMermaid(tree, nil)

	contains := []string{
		"graph TD\n",
		`t2_["DELINQ <= 1.5"]`,
		`t2_ -- "yes" --> t2_l`,
		`t2_ -- "no" --> t2_r`,
		`t2_l["DEBTINC <= 33.5"]`,
		`t2_ll(["0.0"])`,
		`t2_r(["1.0"])`,
	}
	for _, want := range contains {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "classDef")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	tree, err := codec.ParseAdd(line)
	require.NoError(t, err)

	overlay, err := graph.Overlay(tree, map[string]float64{"DELINQ": 0, "DEBTINC": 50})
	require.NoError(t, err)
	assert.Equal(t, ".lr", overlay.LeafPath)

	out := graph.GenerateMermaid(tree, overlay)
	assert.Contains(t, out, "class t2_ visited;")
	assert.Contains(t, out, "class t2_l visited;")
	assert.Contains(t, out, "class t2_lr current;")
	assert.Equal(t, 1, strings.Count(out, "current;"))
	assert.NotContains(t, out, "class t2_r ")
}

func TestOverlay_MissingInput(t *testing.T) {
	tree, err := codec.ParseAdd(line)
	require.NoError(t, err)

	overlay, err := graph.Overlay(tree, map[string]float64{"DELINQ": 0})
	assert.ErrorIs(t, err, domain.ErrInvalidCommand)
	assert.Equal(t, []string{".", ".l"}, overlay.VisitedPaths)
	assert.Empty(t, overlay.LeafPath)
}
