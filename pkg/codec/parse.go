package codec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/forestml/pkg/domain"
)

// PathOp is one clause of an add command body.
type PathOp struct {
	Path      string
	Leaf      bool
	Feature   string  // split nodes only
	Threshold float64 // split nodes only
	Value     float64 // leaves only: class index or regression value
}

// AddCommand is a parsed add command.
type AddCommand struct {
	Key   string
	Index int
	Ops   []PathOp

	byPath map[string]int
}

// Op returns the clause addressed by path.
func (c *AddCommand) Op(path string) (PathOp, bool) {
	i, ok := c.byPath[path]
	if !ok {
		return PathOp{}, false
	}
	return c.Ops[i], true
}

// Features returns the feature names referenced by the command's splits.
func (c *AddCommand) Features() FeatureSet {
	set := make(FeatureSet)
	for _, op := range c.Ops {
		if !op.Leaf {
			set[op.Feature] = struct{}{}
		}
	}
	return set
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidCommand, fmt.Sprintf(format, args...))
}

// ParseAdd parses one add command and checks that its paths describe a
// complete binary tree: every split has both children, every non-root
// path hangs off a split, and no path repeats.
func ParseAdd(line string) (*AddCommand, error) {
	tokens := strings.Fields(line)
	if len(tokens) < 3 || !strings.EqualFold(tokens[0], AddKeyword) {
		return nil, invalid("expected %s <key> <index> <ops>", AddKeyword)
	}
	index, err := strconv.Atoi(tokens[2])
	if err != nil || index < 0 {
		return nil, invalid("tree index %q is not a non-negative integer", tokens[2])
	}

	cmd := &AddCommand{Key: tokens[1], Index: index, byPath: make(map[string]int)}
	rest := tokens[3:]
	for len(rest) > 0 {
		if len(rest) < 3 {
			return nil, invalid("truncated clause %q", strings.Join(rest, " "))
		}
		path, kind := rest[0], rest[1]
		if !validPath(path) {
			return nil, invalid("malformed path %q", path)
		}
		if _, dup := cmd.byPath[path]; dup {
			return nil, invalid("duplicate path %q", path)
		}

		op := PathOp{Path: path}
		switch strings.ToUpper(kind) {
		case KeywordLeaf:
			v, err := strconv.ParseFloat(rest[2], 64)
			if err != nil {
				return nil, invalid("leaf %q has non-numeric value %q", path, rest[2])
			}
			op.Leaf, op.Value = true, v
			rest = rest[3:]
		case KeywordNumeric:
			if len(rest) < 4 {
				return nil, invalid("split %q is missing its threshold", path)
			}
			t, err := strconv.ParseFloat(rest[3], 64)
			if err != nil {
				return nil, invalid("split %q has non-numeric threshold %q", path, rest[3])
			}
			op.Feature, op.Threshold = rest[2], t
			rest = rest[4:]
		default:
			return nil, invalid("unknown clause %q at %q", kind, path)
		}
		cmd.byPath[path] = len(cmd.Ops)
		cmd.Ops = append(cmd.Ops, op)
	}

	if len(cmd.Ops) == 0 {
		return nil, invalid("command has no clauses")
	}
	if _, ok := cmd.byPath[RootPath]; !ok {
		return nil, invalid("missing root clause %q", RootPath)
	}
	for _, op := range cmd.Ops {
		if op.Path != RootPath {
			parent, ok := cmd.Op(op.Path[:len(op.Path)-1])
			if !ok || parent.Leaf {
				return nil, invalid("path %q has no split parent", op.Path)
			}
		}
		if !op.Leaf {
			for _, child := range []string{op.Path + "l", op.Path + "r"} {
				if _, ok := cmd.byPath[child]; !ok {
					return nil, invalid("split %q is missing child %q", op.Path, child)
				}
			}
		}
	}
	return cmd, nil
}

func validPath(p string) bool {
	if !strings.HasPrefix(p, RootPath) {
		return false
	}
	for _, c := range p[1:] {
		if c != 'l' && c != 'r' {
			return false
		}
	}
	return true
}

// RunCommand is a parsed run command. Input values keep their literal text.
type RunCommand struct {
	Key        string
	Inputs     domain.FeatureValues
	OutputType string
}

// ParseRun parses a run command produced by EncodeRun.
func ParseRun(line string) (*RunCommand, error) {
	tokens := strings.Fields(line)
	if len(tokens) < 3 || len(tokens) > 4 || !strings.EqualFold(tokens[0], RunKeyword) {
		return nil, invalid("expected %s <key> <inputs> <type>", RunKeyword)
	}
	cmd := &RunCommand{Key: tokens[1], OutputType: tokens[len(tokens)-1], Inputs: domain.FeatureValues{}}
	if len(tokens) == 3 {
		return cmd, nil
	}
	for _, pair := range strings.Split(strings.TrimSuffix(tokens[2], ","), ",") {
		i := strings.LastIndexByte(pair, ':')
		if i <= 0 {
			return nil, invalid("malformed input %q", pair)
		}
		cmd.Inputs.Set(pair[:i], pair[i+1:])
	}
	return cmd, nil
}

// Walk follows inputs from the root to a leaf, descending left while the
// input is at or below the split threshold. It returns the visited paths
// and the leaf value.
func (c *AddCommand) Walk(inputs map[string]float64) ([]string, float64, error) {
	path := RootPath
	var visited []string
	for {
		op, ok := c.Op(path)
		if !ok {
			return visited, 0, fmt.Errorf("%w: missing node %q", domain.ErrInvalidTree, path)
		}
		visited = append(visited, path)
		if op.Leaf {
			return visited, op.Value, nil
		}
		v, ok := inputs[op.Feature]
		if !ok {
			return visited, 0, invalid("missing input %q", op.Feature)
		}
		if v <= op.Threshold {
			path += "l"
		} else {
			path += "r"
		}
	}
}
