package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aretw0/forestml/pkg/adapters/memory"
	"github.com/aretw0/forestml/pkg/codec"
	"github.com/aretw0/forestml/pkg/domain"
	"github.com/aretw0/forestml/pkg/ports"
)

var epoch = time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

// stepClock returns start, then start+step, start+2*step, ...
func stepClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur := next
		next = next.Add(step)
		return cur
	}
}

func fixedKey(key string) *codec.Encoder {
	return codec.NewEncoder(codec.WithKeyGenerator(func() string { return key }))
}

// debtModel splits on DEBTINC only, so DELINQ is never used.
func debtModel() *domain.Model {
	return &domain.Model{
		Algorithm:    domain.AlgorithmDecisionTree,
		FeatureNames: []string{"DELINQ", "DEBTINC"},
		Outputs:      []string{"BAD"},
		Trees: []domain.ArrayTree{{
			ChildrenLeft:  []int{1, domain.TreeLeaf, domain.TreeLeaf},
			ChildrenRight: []int{2, domain.TreeLeaf, domain.TreeLeaf},
			Feature:       []int{1, -2, -2},
			Threshold:     []float64{45, -2, -2},
			Value:         [][]float64{{10, 10}, {9, 1}, {1, 9}},
		}},
	}
}

type failingEngine struct{}

func (failingEngine) Execute(context.Context, string) (any, error) {
	return nil, errors.New("connection refused")
}

type recordingLocker struct {
	mu       sync.Mutex
	locked   []string
	unlocked []string
	err      error
}

func (l *recordingLocker) Lock(_ context.Context, key string, _ time.Duration) (ports.UnlockFunc, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.mu.Lock()
	l.locked = append(l.locked, key)
	l.mu.Unlock()
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocked = append(l.unlocked, key)
		return nil
	}, nil
}

type fixture struct {
	engine *memory.Engine
	store  *memory.Store
	log    *memory.ExecutionLog
}

func newFixture() *fixture {
	return &fixture{
		engine: memory.NewEngine(),
		store:  memory.NewStore(),
		log:    memory.NewExecutionLog(),
	}
}
