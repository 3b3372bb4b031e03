package domain

import "fmt"

// TreeLeaf marks a missing child in the parallel-array layout.
const TreeLeaf = -1

// ArrayTree is the parallel-array layout exported by tree trainers: node i is a
// leaf when ChildrenLeft[i] == ChildrenRight[i] == TreeLeaf, otherwise it splits
// on Feature[i] at Threshold[i]. Value[i] holds the class votes of node i.
type ArrayTree struct {
	ChildrenLeft  []int       `json:"children_left" yaml:"children_left"`
	ChildrenRight []int       `json:"children_right" yaml:"children_right"`
	Feature       []int       `json:"feature" yaml:"feature"`
	Threshold     []float64   `json:"threshold" yaml:"threshold"`
	Value         [][]float64 `json:"value" yaml:"value"`
}

// Validate checks that the arrays describe a single rooted binary tree.
// Children must point forward, so the layout cannot contain cycles.
func (t *ArrayTree) Validate() error {
	n := len(t.ChildrenLeft)
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return &TreeError{Reason: fmt.Sprintf(
			"ragged arrays (left=%d right=%d feature=%d threshold=%d value=%d)",
			n, len(t.ChildrenRight), len(t.Feature), len(t.Threshold), len(t.Value))}
	}

	parents := make([]int, n)
	for i := 0; i < n; i++ {
		l, r := t.ChildrenLeft[i], t.ChildrenRight[i]
		if l == r {
			if l != TreeLeaf {
				return &TreeError{Reason: fmt.Sprintf("node %d has identical children %d", i, l)}
			}
			continue
		}
		if l == TreeLeaf || r == TreeLeaf {
			return &TreeError{Reason: fmt.Sprintf("node %d has a single child", i)}
		}
		for _, c := range []int{l, r} {
			if c <= i || c >= n {
				return &TreeError{Reason: fmt.Sprintf("node %d has child %d outside (%d,%d)", i, c, i, n)}
			}
			parents[c]++
		}
	}
	for i := 1; i < n; i++ {
		if parents[i] != 1 {
			return &TreeError{Reason: fmt.Sprintf("node %d has %d parents", i, parents[i])}
		}
	}
	return nil
}

func (t *ArrayTree) Root() Node {
	if len(t.ChildrenLeft) == 0 {
		return nil
	}
	return arrayNode{tree: t, id: 0}
}

func (t *ArrayTree) NodeCount() int { return len(t.ChildrenLeft) }

type arrayNode struct {
	tree *ArrayTree
	id   int
}

func (n arrayNode) IsLeaf() bool {
	return n.tree.ChildrenLeft[n.id] == n.tree.ChildrenRight[n.id]
}

func (n arrayNode) child(id int) Node {
	if id < 0 || id >= len(n.tree.ChildrenLeft) {
		return nil
	}
	return arrayNode{tree: n.tree, id: id}
}

func (n arrayNode) Left() Node  { return n.child(n.tree.ChildrenLeft[n.id]) }
func (n arrayNode) Right() Node { return n.child(n.tree.ChildrenRight[n.id]) }

func (n arrayNode) FeatureIndex() int {
	if n.id >= len(n.tree.Feature) {
		return TreeLeaf
	}
	return n.tree.Feature[n.id]
}

func (n arrayNode) Threshold() float64 {
	if n.id >= len(n.tree.Threshold) {
		return 0
	}
	return n.tree.Threshold[n.id]
}

func (n arrayNode) Votes() []float64 {
	if n.id >= len(n.tree.Value) {
		return nil
	}
	return n.tree.Value[n.id]
}
