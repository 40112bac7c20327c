package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"chainmon/internal/fees"
	"chainmon/internal/node"
	"chainmon/internal/price"
	"chainmon/pkg/logging"
)

// TickMsg drives the rotation timers and relative timestamps. One tick per
// configured tick rate.
type TickMsg time.Time

// NodeUpdateMsg carries one state update from a provider to the model, the
// single owner of all node state.
type NodeUpdateMsg struct {
	Index  int
	Update node.Update
}

// PriceMsg carries a fresh spot price quote.
type PriceMsg price.Quote

// FeesMsg carries fresh recommended fee rates.
type FeesMsg fees.Recommended

// LogMsg carries one log entry drained from the logging channel.
type LogMsg logging.LogEntry

// Sender adapts a running program to the provider sink: every update
// becomes a message on the program's queue, serialized with all other
// input.
type Sender struct {
	program *tea.Program
}

// NewSender wraps p.
func NewSender(p *tea.Program) *Sender {
	return &Sender{program: p}
}

// Send implements providers.Sink.
func (s *Sender) Send(index int, u node.Update) {
	s.program.Send(NodeUpdateMsg{Index: index, Update: u})
}
