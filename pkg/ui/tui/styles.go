package tui

import "github.com/charmbracelet/lipgloss"

// Palette follows the store's review colors: blue for links, green for
// positive, amber for mixed and red for negative.
var (
	steamBlue     = lipgloss.Color("#66C0F4")
	steamNavy     = lipgloss.Color("#1B2838")
	steamSlate    = lipgloss.Color("#2A475E")
	positiveGreen = lipgloss.Color("#A4D007")
	mixedAmber    = lipgloss.Color("#B9A074")
	negativeRed   = lipgloss.Color("#C35C2C")
	mutedText     = lipgloss.Color("#8F98A0")
	faintText     = lipgloss.Color("#4B5A68")
	brightText    = lipgloss.Color("#C7D5E0")
)

func fg(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

var (
	baseStyle  = lipgloss.NewStyle().Background(steamNavy).Foreground(mutedText)
	logoStyle  = fg(steamBlue).Bold(true).Padding(1, 0).Align(lipgloss.Center)
	titleStyle = lipgloss.NewStyle().Background(steamBlue).Foreground(steamNavy).Bold(true).Padding(0, 1)
	helpStyle  = fg(faintText).Padding(1, 0, 0, 2)
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(steamSlate).
			Padding(1, 2)

	statsLabelStyle    = fg(steamBlue).Bold(true)
	statsValueStyle    = fg(brightText)
	progressEmptyStyle = fg(faintText)

	successStyle = fg(positiveGreen).Bold(true)
	warningStyle = fg(mixedAmber).Bold(true)
	errorStyle   = fg(negativeRed).Bold(true)

	queueItemStyle       = lipgloss.NewStyle().PaddingLeft(2)
	queueItemActiveStyle = queueItemStyle.Foreground(positiveGreen).Bold(true)
	queueItemDoneStyle   = queueItemStyle.Foreground(mutedText).Faint(true)

	logTimestampStyle = fg(faintText)
	logMessageStyle   = fg(mutedText)
)

// GetQuotaStyle colors the share of the query window used so far.
func GetQuotaStyle(usage float64) lipgloss.Style {
	switch {
	case usage >= 90:
		return fg(negativeRed)
	case usage >= 70:
		return fg(mixedAmber)
	}
	return fg(positiveGreen)
}

func stateStyle(state TaskState) lipgloss.Style {
	switch state {
	case TaskActive:
		return queueItemActiveStyle
	case TaskDone:
		return queueItemDoneStyle
	case TaskSkipped:
		return queueItemDoneStyle.Foreground(mixedAmber)
	case TaskFailed:
		return queueItemDoneStyle.Foreground(negativeRed)
	}
	return queueItemStyle
}
