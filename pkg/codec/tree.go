package codec

import (
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/forestml/pkg/domain"
)

// RootPath addresses the root node of a tree.
const RootPath = "."

// Clause keywords of an add command body.
const (
	KeywordNumeric = "NUMERIC"
	KeywordLeaf    = "LEAF"
)

type frame struct {
	node domain.Node
	path string
}

// EncodeTree renders one tree as an add command body (without the command
// keyword, key or index) and returns the feature names its splits reference.
//
// Nodes are emitted in pre-order, left child before right child, each clause
// followed by a single space. A leaf emits the index of its largest vote,
// the lowest index winning ties.
func EncodeTree(tree domain.Tree, featureNames []string) (string, FeatureSet, error) {
	if len(featureNames) == 0 {
		return "", nil, domain.ErrEmptyFeatureSet
	}
	if tree == nil {
		return "", nil, &domain.TreeError{Reason: "nil tree"}
	}
	if v, ok := tree.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return "", nil, err
		}
	}
	root := tree.Root()
	if root == nil {
		return "", nil, &domain.TreeError{Reason: "tree has no nodes"}
	}

	limit := tree.NodeCount()
	used := NewRegistry()
	var b strings.Builder

	// Explicit stack: unpruned trees can be deeper than is comfortable to recurse.
	stack := []frame{{node: root, path: RootPath}}
	for visited := 1; len(stack) > 0; visited++ {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if limit > 0 && visited > limit {
			return "", nil, &domain.TreeError{Path: f.path, Reason: "more nodes reachable than the tree declares"}
		}

		if f.node.IsLeaf() {
			class, ok := argmax(f.node.Votes())
			if !ok {
				return "", nil, &domain.TreeError{Path: f.path, Reason: "leaf has no votes"}
			}
			b.WriteString(f.path)
			b.WriteString(" " + KeywordLeaf + " ")
			b.WriteString(strconv.Itoa(class))
			b.WriteByte(' ')
			continue
		}

		left, right := f.node.Left(), f.node.Right()
		if left == nil || right == nil {
			return "", nil, &domain.TreeError{Path: f.path, Reason: "split node is missing a child"}
		}
		idx := f.node.FeatureIndex()
		if idx < 0 || idx >= len(featureNames) {
			return "", nil, &domain.IndexError{Path: f.path, Index: idx, Len: len(featureNames)}
		}
		threshold := f.node.Threshold()
		if math.IsNaN(threshold) || math.IsInf(threshold, 0) {
			return "", nil, &domain.TreeError{Path: f.path, Reason: "threshold is not finite"}
		}

		name := featureNames[idx]
		b.WriteString(f.path)
		b.WriteString(" " + KeywordNumeric + " ")
		b.WriteString(name)
		b.WriteByte(' ')
		b.WriteString(FormatFloat(threshold))
		b.WriteByte(' ')
		used.Record(name)

		// Right is pushed first so the left subtree is emitted first.
		stack = append(stack, frame{node: right, path: f.path + "r"}, frame{node: left, path: f.path + "l"})
	}

	return b.String(), used.Snapshot(), nil
}

// argmax returns the index of the first maximum of votes.
func argmax(votes []float64) (int, bool) {
	if len(votes) == 0 {
		return 0, false
	}
	best := 0
	for i := 1; i < len(votes); i++ {
		if votes[i] > votes[best] {
			best = i
		}
	}
	return best, true
}
