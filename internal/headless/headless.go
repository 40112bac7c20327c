// Package headless applies node updates without a terminal UI, logging
// state transitions instead of rendering them. It backs the --no-tui mode
// used under process supervisors or for quick connectivity checks.
package headless

import (
	"sync"
	"time"

	"chainmon/internal/config"
	"chainmon/internal/node"
	"chainmon/pkg/logging"
)

// Reporter is a provider sink that folds updates into per-node state and
// logs the interesting transitions. Unlike the TUI model it has concurrent
// callers, so the state is lock-protected here.
type Reporter struct {
	mu     sync.Mutex
	states []node.State
}

// NewReporter builds a reporter with one slot per configured node.
func NewReporter(cfg *config.Config) *Reporter {
	states := make([]node.State, len(cfg.Nodes))
	for i, n := range cfg.Nodes {
		states[i] = node.NewState(n.DisplayName())
	}
	return &Reporter{states: states}
}

// Send implements providers.Sink.
func (r *Reporter) Send(index int, u node.Update) {
	if u == nil {
		return
	}
	r.mu.Lock()
	if index < 0 || index >= len(r.states) {
		r.mu.Unlock()
		return
	}
	prev := r.states[index]
	next := u.Apply(prev, time.Now())
	r.states[index] = next
	r.mu.Unlock()

	if next.Status != prev.Status {
		logging.Info(next.Name, "status %s -> %s", prev.Status, next.Status)
	}
	if next.Height > prev.Height && prev.Height > 0 {
		logging.Info(next.Name, "new block %d %s", next.Height, next.BestHash)
	}
}

// States returns a snapshot of all node states.
func (r *Reporter) States() []node.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]node.State(nil), r.states...)
}
