package domain

// Node is a read-only view of one node of a trained binary decision tree.
// A node is a leaf iff it has no children; split nodes always have both.
type Node interface {
	IsLeaf() bool
	Left() Node
	Right() Node

	// FeatureIndex and Threshold are only meaningful on split nodes.
	FeatureIndex() int
	Threshold() float64

	// Votes holds the per-class counts (or probabilities) of a leaf.
	Votes() []float64
}

// Tree is an already trained decision tree.
type Tree interface {
	// Root returns nil for an empty tree.
	Root() Node

	// NodeCount returns the number of nodes reachable from the root.
	NodeCount() int
}

// TreeNode is a pointer-linked Node, convenient for building trees in code.
type TreeNode struct {
	Feature int
	Cut     float64
	Lo      *TreeNode
	Hi      *TreeNode
	Counts  []float64
}

// Split creates a split node comparing feature against threshold.
func Split(feature int, threshold float64, left, right *TreeNode) *TreeNode {
	return &TreeNode{Feature: feature, Cut: threshold, Lo: left, Hi: right}
}

// Leaf creates a leaf node holding the given class votes.
func Leaf(votes ...float64) *TreeNode {
	return &TreeNode{Counts: votes}
}

func (n *TreeNode) IsLeaf() bool { return n.Lo == nil && n.Hi == nil }

func (n *TreeNode) Left() Node {
	if n.Lo == nil {
		return nil
	}
	return n.Lo
}

func (n *TreeNode) Right() Node {
	if n.Hi == nil {
		return nil
	}
	return n.Hi
}

func (n *TreeNode) FeatureIndex() int  { return n.Feature }
func (n *TreeNode) Threshold() float64 { return n.Cut }
func (n *TreeNode) Votes() []float64   { return n.Counts }

// LinkedTree wraps a TreeNode graph as a Tree.
type LinkedTree struct {
	root  *TreeNode
	count int
}

// NewTree builds a Tree rooted at root. A nil root yields an empty tree.
func NewTree(root *TreeNode) *LinkedTree {
	return &LinkedTree{root: root, count: countNodes(root)}
}

func (t *LinkedTree) Root() Node {
	if t.root == nil {
		return nil
	}
	return t.root
}

func (t *LinkedTree) NodeCount() int { return t.count }

func countNodes(root *TreeNode) int {
	if root == nil {
		return 0
	}
	seen := make(map[*TreeNode]bool)
	stack := []*TreeNode{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil || seen[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, n.Lo, n.Hi)
	}
	return len(seen)
}
