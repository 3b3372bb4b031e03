package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/forestml/pkg/codec"
	"github.com/aretw0/forestml/pkg/domain"
)

// Engine implements ports.Engine by interpreting add and run commands itself.
// It lets the services run locally without a scoring engine deployment.
// Safe for concurrent use.
type Engine struct {
	mu     sync.RWMutex
	models map[string]map[int]*codec.AddCommand
}

// NewEngine creates an empty in-memory engine.
func NewEngine() *Engine {
	return &Engine{
		models: make(map[string]map[int]*codec.AddCommand),
	}
}

// Execute runs one add or run command.
func (e *Engine) Execute(ctx context.Context, command string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tokens := strings.Fields(command)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty command", domain.ErrInvalidCommand)
	}

	switch strings.ToUpper(tokens[0]) {
	case codec.AddKeyword:
		cmd, err := codec.ParseAdd(command)
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.models[cmd.Key] == nil {
			e.models[cmd.Key] = make(map[int]*codec.AddCommand)
		}
		e.models[cmd.Key][cmd.Index] = cmd
		return "OK", nil
	case codec.RunKeyword:
		cmd, err := codec.ParseRun(command)
		if err != nil {
			return nil, err
		}
		return e.run(cmd)
	default:
		return nil, fmt.Errorf("%w: unknown command %q", domain.ErrInvalidCommand, tokens[0])
	}
}

// Trees returns the number of trees registered under key.
func (e *Engine) Trees(key string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.models[key])
}

func (e *Engine) run(cmd *codec.RunCommand) (any, error) {
	inputs := make(map[string]float64, len(cmd.Inputs))
	for _, p := range cmd.Inputs {
		v, err := strconv.ParseFloat(codec.FormatValue(p.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: feature %q is not numeric", domain.ErrInvalidCommand, p.Name)
		}
		inputs[p.Name] = v
	}

	e.mu.RLock()
	trees := make([]*codec.AddCommand, 0, len(e.models[cmd.Key]))
	for _, tree := range e.models[cmd.Key] {
		trees = append(trees, tree)
	}
	e.mu.RUnlock()
	if len(trees) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrModelNotFound, cmd.Key)
	}
	sort.Slice(trees, func(i, j int) bool { return trees[i].Index < trees[j].Index })

	leaves := make([]float64, 0, len(trees))
	for _, tree := range trees {
		_, v, err := tree.Walk(inputs)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", tree.Index, err)
		}
		leaves = append(leaves, v)
	}

	switch strings.ToUpper(cmd.OutputType) {
	case "CLASSIFICATION":
		return strconv.Itoa(majority(leaves)), nil
	case "REGRESSION":
		var sum float64
		for _, v := range leaves {
			sum += v
		}
		return codec.FormatFloat(sum / float64(len(leaves))), nil
	default:
		return nil, fmt.Errorf("%w: unknown output type %q", domain.ErrInvalidCommand, cmd.OutputType)
	}
}

// majority returns the most voted class, the lowest class winning ties.
func majority(classes []float64) int {
	counts := make(map[int]int)
	for _, c := range classes {
		counts[int(c)]++
	}
	best, bestCount := 0, -1
	for class, n := range counts {
		if n > bestCount || (n == bestCount && class < best) {
			best, bestCount = class, n
		}
	}
	return best
}
