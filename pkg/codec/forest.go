package codec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/forestml/pkg/domain"
	"github.com/google/uuid"
)

// Command keywords of the scoring engine.
const (
	AddKeyword = "ML.FOREST.ADD"
	RunKeyword = "ML.FOREST.RUN"
)

// Key prefixes for generated model keys.
const (
	TreePrefix   = "tree-"
	ForestPrefix = "forest-"
)

// Forest is the result of encoding a model: one add command per tree, all
// sharing Key, plus the union of the feature names the trees split on.
type Forest struct {
	Key      string
	Commands []string
	Used     FeatureSet
}

// Script joins the commands one per line, the layout stored as the model's add string.
func (f *Forest) Script() string {
	return strings.Join(f.Commands, "\n")
}

// Encoder turns trees and ensembles into add commands.
// An Encoder holds no mutable state and is safe for concurrent use.
type Encoder struct {
	newID func() string
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithKeyGenerator replaces the random identifier used in model keys.
func WithKeyGenerator(gen func() string) Option {
	return func(e *Encoder) {
		e.newID = gen
	}
}

// NewEncoder creates an Encoder. Model keys default to a random UUID.
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{newID: uuid.NewString}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EncodeForest encodes an ensemble under a single "forest-" key, one command
// per tree with the tree's position as its index. A failure on any tree
// aborts the whole encode.
func (e *Encoder) EncodeForest(trees []domain.Tree, featureNames []string) (*Forest, error) {
	return e.encode(ForestPrefix, trees, featureNames)
}

// EncodeSingle encodes a bare tree under a "tree-" key as index 0.
func (e *Encoder) EncodeSingle(tree domain.Tree, featureNames []string) (*Forest, error) {
	return e.encode(TreePrefix, []domain.Tree{tree}, featureNames)
}

// EncodeModel encodes a model according to its algorithm.
func (e *Encoder) EncodeModel(m *domain.Model) (*Forest, error) {
	switch {
	case m.IsSingleTree():
		if len(m.Trees) != 1 {
			return nil, &domain.TreeError{Reason: fmt.Sprintf("%s model carries %d trees", m.Algorithm, len(m.Trees))}
		}
		return e.EncodeSingle(&m.Trees[0], m.FeatureNames)
	case m.IsForest():
		return e.EncodeForest(m.Forest(), m.FeatureNames)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedAlgorithm, m.Algorithm)
	}
}

func (e *Encoder) encode(prefix string, trees []domain.Tree, featureNames []string) (*Forest, error) {
	if len(featureNames) == 0 {
		return nil, domain.ErrEmptyFeatureSet
	}
	if len(trees) == 0 {
		return nil, &domain.TreeError{Reason: "ensemble has no trees"}
	}

	f := &Forest{
		Key:      prefix + e.newID(),
		Commands: make([]string, 0, len(trees)),
		Used:     make(FeatureSet),
	}
	for i, tree := range trees {
		body, used, err := EncodeTree(tree, featureNames)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		f.Commands = append(f.Commands, AddLine(f.Key, i, body))
		f.Used = f.Used.Union(used)
	}
	return f, nil
}

// AddLine assembles an add command from a key, a tree index and an encoded body.
func AddLine(key string, index int, body string) string {
	return AddKeyword + " " + key + " " + strconv.Itoa(index) + " " + body
}
