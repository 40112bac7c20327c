package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"chainmon/internal/node"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	switch {
	case m.showHelp:
		b.WriteString(m.renderHelpOverlay())
	case m.showLog:
		b.WriteString(m.renderLogOverlay())
	default:
		b.WriteString(m.renderNode(m.ActiveState()))
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("chainmon")
	if m.rotator.Count() < 2 {
		return title
	}
	active := m.ActiveState()
	indicator := statusBarStyle.Render(fmt.Sprintf("Node %d/%d ", m.rotator.Index()+1, m.rotator.Count())) +
		statusStyle(active.Status).Render(active.Status.String()) +
		statusBarStyle.Render(fmt.Sprintf(" (%ds)", m.rotator.Remaining(m.now)))

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(indicator)
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + indicator
}

func (m Model) renderNode(st node.State) string {
	var lines []string

	name := titleStyle.Render(st.Name)
	if st.Host != "" && st.Host != st.Name {
		name += labelStyle.Render("  " + st.Host)
	}
	lines = append(lines, name)

	status := statusStyle(st.Status).Render(st.Status.String())
	if st.Status == node.StatusConnecting || st.Status == node.StatusSynchronizing {
		status = m.spinner.View() + status
	}
	if st.Message != "" {
		status += labelStyle.Render("  " + st.Message)
	}
	lines = append(lines, labelStyle.Render("Status  ")+status)

	lines = append(lines, labelStyle.Render("Height  ")+m.renderHeight(st))

	if st.BestHash != "" {
		width := m.width - 12
		if width < 16 {
			width = 16
		}
		lines = append(lines, labelStyle.Render("Block   ")+
			valueStyle.Render(runewidth.Truncate(st.BestHash, width, "…")))
	}
	if !st.LastBlockAt.IsZero() {
		lines = append(lines, labelStyle.Render("Seen    ")+
			valueStyle.Render(humanDuration(m.now.Sub(st.LastBlockAt))+" ago"))
	}

	if svc, status, ok := st.ServiceAt(m.serviceIndex(st)); ok {
		lines = append(lines, labelStyle.Render(runewidth.FillRight(svc, 8))+
			statusStyle(status).Render(status.String()))
	}

	if st.Lightning != nil {
		lines = append(lines, "", m.renderLightning(*st.Lightning))
	}

	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) serviceIndex(st node.State) int {
	return m.cyclers[m.rotator.Index()].Index(st.ServiceCount())
}

func (m Model) renderHeight(st node.State) string {
	height := groupDigits(st.Height)
	if st.SyncLagKnown() {
		height += labelStyle.Render(" / " + groupDigits(st.HeaderHeight))
	}
	if !st.LastBlockAt.IsZero() && m.now.Sub(st.LastBlockAt) < blockFlashWindow {
		height = flashStyle.Render(height)
		if st.Status == node.StatusOnline {
			height += flashStyle.Render("  New block!")
		}
		return height
	}
	return valueStyle.Render(height)
}

func (m Model) renderLightning(l node.LightningMetrics) string {
	var lines []string
	if l.Alias != "" {
		lines = append(lines, titleStyle.Render(l.Alias))
	}
	lines = append(lines,
		labelStyle.Render("Peers   ")+valueStyle.Render(fmt.Sprintf("%d", l.Peers)),
		labelStyle.Render("Chans   ")+valueStyle.Render(fmt.Sprintf("%d active / %d pending / %d inactive",
			l.ActiveChannels, l.PendingChannels, l.InactiveChannels)),
		labelStyle.Render("Cap     ")+valueStyle.Render(groupDigits(l.TotalCapacitySat)+" sat"),
		labelStyle.Render("Local   ")+valueStyle.Render(groupDigits(l.LocalBalanceSat)+" sat"),
	)
	if l.PendingHTLCs > 0 {
		lines = append(lines, labelStyle.Render("HTLCs   ")+valueStyle.Render(fmt.Sprintf("%d", l.PendingHTLCs)))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFooter() string {
	var parts []string
	if m.quote != nil {
		parts = append(parts, fmt.Sprintf("%s %s", formatPrice(m.quote.Amount), m.quote.Currency))
	}
	if m.feeRates != nil {
		parts = append(parts, fmt.Sprintf("fees %.0f/%.0f/%.0f sat/vB",
			m.feeRates.Fastest, m.feeRates.HalfHour, m.feeRates.Hour))
	}
	line := footerStyle.Render(strings.Join(parts, " · "))
	if m.statusMsg != "" {
		if line != "" {
			line += "  "
		}
		line += statusBarStyle.Render(m.statusMsg)
	}
	if line != "" {
		line += "\n"
	}
	return line + m.help.View(m.keys)
}

func (m Model) renderLogOverlay() string {
	n := len(m.logs)
	visible := m.height - 8
	if visible < 5 {
		visible = 5
	}
	if n > visible {
		n = visible
	}
	var lines []string
	for _, e := range m.logs[len(m.logs)-n:] {
		line := fmt.Sprintf("%s %-5s %s: %s",
			e.Timestamp.Format("15:04:05"), e.Level, e.Subsystem, e.Message)
		if e.Err != nil {
			line += ": " + e.Err.Error()
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = []string{labelStyle.Render("No log entries yet.")}
	}
	return overlayStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderHelpOverlay() string {
	var lines []string
	for _, col := range m.keys.FullHelp() {
		for _, b := range col {
			lines = append(lines, fmt.Sprintf("%-10s %s", b.Help().Key, b.Help().Desc))
		}
	}
	return overlayStyle.Render(strings.Join(lines, "\n"))
}

// shortHash abbreviates a block hash for status messages.
func shortHash(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:8] + "…" + hash[len(hash)-8:]
}

// groupDigits renders n with thousands separators.
func groupDigits(n uint64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func formatPrice(amount float64) string {
	s := fmt.Sprintf("%.2f", amount)
	dot := strings.IndexByte(s, '.')
	whole, err := strconv.ParseUint(s[:dot], 10, 64)
	if err != nil {
		return s
	}
	return groupDigits(whole) + s[dot:]
}

// humanDuration renders d in the largest sensible unit.
func humanDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
