package tui

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"chainmon/internal/fees"
	"chainmon/internal/price"
	"chainmon/pkg/logging"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		return m.handleTick(time.Time(msg))

	case NodeUpdateMsg:
		if msg.Index < 0 || msg.Index >= len(m.states) || msg.Update == nil {
			return m, nil
		}
		m.states[msg.Index] = msg.Update.Apply(m.states[msg.Index], time.Now())
		return m, nil

	case PriceMsg:
		q := price.Quote(msg)
		m.quote = &q
		return m, nil

	case FeesMsg:
		f := fees.Recommended(msg)
		m.feeRates = &f
		return m, nil

	case LogMsg:
		m.logs = append(m.logs, logging.LogEntry(msg))
		if len(m.logs) > maxLogEntries {
			m.logs = m.logs[len(m.logs)-maxLogEntries:]
		}
		return m, waitForLog(m.logCh)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.rotator.Next(m.now)
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	m.now = now
	m.rotator.Tick(now)
	for i := range m.cyclers {
		m.cyclers[i].Tick(now, m.states[i].ServiceCount())
	}
	if m.statusMsg != "" && now.Sub(m.statusMsgAt) > statusMessageTTL {
		m.statusMsg = ""
	}
	return m, m.tick()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// An open overlay swallows its own keys first: esc closes it instead
	// of quitting.
	if m.showLog || m.showHelp {
		switch {
		case msg.String() == "esc", key.Matches(msg, m.keys.ToggleLog) && m.showLog,
			key.Matches(msg, m.keys.Help) && m.showHelp:
			m.showLog = false
			m.showHelp = false
			return m, nil
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.NextNode):
		m.rotator.Next(m.now)

	case key.Matches(msg, m.keys.PrevNode):
		m.rotator.Prev(m.now)

	case key.Matches(msg, m.keys.NextService):
		i := m.rotator.Index()
		m.cyclers[i].Advance(m.now, m.states[i].ServiceCount())

	case key.Matches(msg, m.keys.CopyHash):
		return m.copyBestHash()

	case key.Matches(msg, m.keys.ToggleLog):
		m.showLog = true

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	}
	return m, nil
}

func (m Model) copyBestHash() (tea.Model, tea.Cmd) {
	hash := m.ActiveState().BestHash
	if hash == "" {
		m.setStatus("No block hash to copy yet")
		return m, nil
	}
	if err := clipboard.WriteAll(hash); err != nil {
		logging.Warn("tui", "clipboard copy failed: %v", err)
		m.setStatus("Copy failed")
		return m, nil
	}
	m.setStatus(fmt.Sprintf("Copied %s", shortHash(hash)))
	return m, nil
}

func (m *Model) setStatus(msg string) {
	m.statusMsg = msg
	m.statusMsgAt = m.now
}
