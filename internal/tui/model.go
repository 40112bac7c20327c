// Package tui renders the monitoring dashboard. The bubbletea Model is the
// single owner of all node state: providers publish updates through the
// program's message queue and never touch the state directly, so no field
// in here needs a lock.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"chainmon/internal/config"
	"chainmon/internal/fees"
	"chainmon/internal/node"
	"chainmon/internal/price"
	"chainmon/internal/rotation"
	"chainmon/pkg/logging"
)

const (
	// maxLogEntries caps the log overlay's ring buffer.
	maxLogEntries = 500

	// blockFlashWindow is how long the height stays highlighted after a
	// new block.
	blockFlashWindow = 15 * time.Second

	// statusMessageTTL is how long a transient footer message stays up.
	statusMessageTTL = 3 * time.Second
)

// Model is the complete UI state.
type Model struct {
	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	states  []node.State
	cyclers []rotation.ServiceCycler
	rotator *rotation.Rotator

	tickRate time.Duration
	now      time.Time

	quote    *price.Quote
	feeRates *fees.Recommended

	logCh    <-chan logging.LogEntry
	logs     []logging.LogEntry
	showLog  bool
	showHelp bool

	statusMsg   string
	statusMsgAt time.Time

	width    int
	height   int
	quitting bool
}

// NewModel builds the initial model for the configured nodes. logCh is the
// channel the logging package buffers entries on; nil disables the log
// overlay.
func NewModel(cfg *config.Config, logCh <-chan logging.LogEntry) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = statusBarStyle

	states := make([]node.State, len(cfg.Nodes))
	for i, n := range cfg.Nodes {
		states[i] = node.NewState(n.DisplayName())
	}

	tickRate := cfg.TickRate
	if tickRate <= 0 {
		tickRate = time.Second
	}

	return Model{
		keys:     DefaultKeyMap(),
		help:     help.New(),
		spinner:  sp,
		states:   states,
		cyclers:  make([]rotation.ServiceCycler, len(cfg.Nodes)),
		rotator:  rotation.NewRotator(len(cfg.Nodes), cfg.Rotation.SwitchInterval),
		tickRate: tickRate,
		now:      time.Now(),
		logCh:    logCh,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tick(), m.spinner.Tick}
	if m.logCh != nil {
		cmds = append(cmds, waitForLog(m.logCh))
	}
	return tea.Batch(cmds...)
}

// ActiveState returns the currently displayed node's state.
func (m Model) ActiveState() node.State {
	return m.states[m.rotator.Index()]
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.tickRate, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// waitForLog blocks for the next buffered log entry. The returned command
// is re-armed after every LogMsg; a closed channel ends the chain.
func waitForLog(ch <-chan logging.LogEntry) tea.Cmd {
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return nil
		}
		return LogMsg(entry)
	}
}
