package neo4j

import (
	"context"
	"strings"
	"sync"
)

type runnerCall struct {
	write  bool
	cypher string
	params map[string]any
}

// runnerFake answers by matching a substring of the Cypher text.
type runnerFake struct {
	mu    sync.Mutex
	calls []runnerCall
	rows  map[string][]map[string]any
	errs  map[string]error
}

func newRunnerFake() *runnerFake {
	return &runnerFake{rows: map[string][]map[string]any{}, errs: map[string]error{}}
}

func (f *runnerFake) Read(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	return f.run(ctx, false, cypher, params)
}

func (f *runnerFake) Write(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	return f.run(ctx, true, cypher, params)
}

func (f *runnerFake) run(_ context.Context, write bool, cypher string, params map[string]any) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, runnerCall{write: write, cypher: cypher, params: params})
	for key, err := range f.errs {
		if strings.Contains(cypher, key) {
			return nil, err
		}
	}
	for key, rows := range f.rows {
		if strings.Contains(cypher, key) {
			return rows, nil
		}
	}
	return nil, nil
}

func (f *runnerFake) callsMatching(key string) []runnerCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []runnerCall
	for _, c := range f.calls {
		if strings.Contains(c.cypher, key) {
			out = append(out, c)
		}
	}
	return out
}
