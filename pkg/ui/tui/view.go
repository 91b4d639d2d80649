package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View renders the entire TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderLogo())

	leftColumn := m.renderLeftColumn()
	rightColumn := m.renderRightColumn()
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, leftColumn, "  ", rightColumn))

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help, q to stop after the current app"))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m *Model) renderLogo() string {
	logo := `
╔══════════════════════════════════════════════╗
║   STEAMREVIEWS :: backward review crawler    ║
╚══════════════════════════════════════════════╝`

	return logoStyle.Width(m.width).Render(logo)
}

func (m *Model) renderLeftColumn() string {
	width := (m.width - 4) / 2
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(width),
		m.renderActivePanel(width),
		m.renderQueuePanel(width),
	)
}

func (m *Model) renderRightColumn() string {
	width := (m.width - 4) / 2
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderQuotaPanel(width),
		m.renderLogsPanel(width),
	)
}

// renderStatsPanel renders the run statistics
func (m *Model) renderStatsPanel(width int) string {
	title := titleStyle.Render(" RUN STATS ")
	now := time.Now()

	stats := []string{
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Session Time:"), statsValueStyle.Render(formatDuration(now.Sub(m.sessionStartTime)))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Apps:"), statsValueStyle.Render(fmt.Sprintf("%d/%d", m.Finished(), len(m.order)))),
		fmt.Sprintf("%s %s %s %s",
			statsLabelStyle.Render("Outcomes:"),
			successStyle.Render(fmt.Sprintf("%d ok", m.succeeded)),
			warningStyle.Render(fmt.Sprintf("%d skipped", m.skipped)),
			errorStyle.Render(fmt.Sprintf("%d failed", m.failed)),
		),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Points:"), statsValueStyle.Render(FormatCount(m.totalPoints))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Queries:"), statsValueStyle.Render(FormatCount(m.totalQueries))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("ETA:"), statsValueStyle.Render(formatDuration(m.ETA(now)))),
		m.progress.View(),
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, stats...)),
	)
}

// renderActivePanel renders the app being crawled
func (m *Model) renderActivePanel(width int) string {
	title := titleStyle.Render(" CRAWLING ")

	task, ok := m.tasks[m.active]
	if !ok || task.State != TaskActive {
		content := lipgloss.NewStyle().Foreground(mutedText).Render("Idle")
		return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
	}

	lines := []string{
		fmt.Sprintf("%s %s", m.spinner.View(), queueItemActiveStyle.Render(fmt.Sprintf("app %d", task.AppID))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Probe date:"), statsValueStyle.Render(FormatDate(task.ProbeDate))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Queries:"), statsValueStyle.Render(fmt.Sprintf("%d", task.Queries))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Elapsed:"), statsValueStyle.Render(formatDuration(time.Since(task.StartTime)))),
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, lines...)),
	)
}

// renderQueuePanel renders pending and recently finished apps
func (m *Model) renderQueuePanel(width int) string {
	title := titleStyle.Render(" TASK QUEUE ")

	var items []string

	pending := m.GetTasks(TaskPending)
	if n := len(pending); n > 0 {
		items = append(items, warningStyle.Render(fmt.Sprintf("⏳ %d pending", n)))
		for i := 0; i < 3 && i < n; i++ {
			items = append(items, queueItemStyle.Render(fmt.Sprintf("• %d", pending[i].AppID)))
		}
		if n > 3 {
			items = append(items, lipgloss.NewStyle().Foreground(mutedText).Render(fmt.Sprintf("  ... and %d more", n-3)))
		}
	}

	var finished []*TaskItem
	for _, id := range m.order {
		if task := m.tasks[id]; task.State >= TaskDone {
			finished = append(finished, task)
		}
	}
	if n := len(finished); n > 0 {
		items = append(items, "", successStyle.Render(fmt.Sprintf("✓ %d finished", n)))
		for _, task := range finished[max(0, n-3):] {
			items = append(items, stateStyle(task.State).Render(fmt.Sprintf("%s %d (%s)", stateIcon(task.State), task.AppID, task.Outcome)))
		}
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, items...)),
	)
}

// renderQuotaPanel renders the query quota of the active app
func (m *Model) renderQuotaPanel(width int) string {
	title := titleStyle.Render(" QUERY QUOTA ")

	used := m.WindowUsed()
	usage := 0.0
	if m.window > 0 {
		usage = float64(used) / float64(m.window) * 100
	}

	barWidth := max(0, width-8)
	filled := min(barWidth, int(usage*float64(barWidth)/100))

	barStyle := GetQuotaStyle(usage)
	bar := barStyle.Render(strings.Repeat("█", filled)) +
		progressEmptyStyle.Render(strings.Repeat("░", barWidth-filled))

	content := []string{
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Window:"),
			barStyle.Render(fmt.Sprintf("%d/%d (%.0f%%)", used, m.window, usage))),
		bar,
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Next cooldown in:"), statsValueStyle.Render(fmt.Sprintf("%d queries", m.QueriesUntilCooldown()))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Cooldowns:"), statsValueStyle.Render(fmt.Sprintf("%d", m.cooldowns))),
	}
	if left := m.CooldownRemaining(time.Now()); left > 0 {
		content = append(content, warningStyle.Render("⏸  cooling down "+formatDuration(left)))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(content, "\n")),
	)
}

// renderLogsPanel renders the recent log lines
func (m *Model) renderLogsPanel(width int) string {
	title := titleStyle.Render(" LOG ")

	start := max(0, len(m.logMessages)-10)

	var logs []string
	for _, log := range m.logMessages[start:] {
		timestamp := logTimestampStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))

		text := log.Message
		if maxLen := width - 25; maxLen > 3 && len(text) > maxLen {
			text = text[:maxLen-3] + "..."
		}

		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, logMessageStyle.Render(text)))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = lipgloss.NewStyle().Foreground(mutedText).Render("No logs yet...")
	}

	return panelStyle.Width(width).Height(max(5, m.height-30)).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

func (m *Model) renderHelp() string {
	help := `
  Keys:
    q/Q      - Stop after the current app
    ctrl+l   - Clear the log
    ?        - Toggle this help

  Queue:
    ` + successStyle.Render("✓") + `        - Series written
    ` + warningStyle.Render("-") + `        - Skipped, below threshold
    ` + errorStyle.Render("✗") + `        - Fetch or write failed
`

	return panelStyle.Width(m.width).Render(help)
}

func stateIcon(state TaskState) string {
	switch state {
	case TaskDone:
		return "✓"
	case TaskSkipped:
		return "-"
	case TaskFailed:
		return "✗"
	default:
		return "•"
	}
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
