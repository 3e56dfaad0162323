package cli

import (
	"github.com/charmbracelet/lipgloss"

	"conti/internal/budget"
	"conti/internal/core"
)

var (
	// PrimaryColor is the main accent.
	PrimaryColor = lipgloss.Color("#4F9DDE")
	SuccessColor = lipgloss.Color("#4ECDC4")
	WarningColor = lipgloss.Color("#FFE66D")
	ErrorColor   = lipgloss.Color("#FF6B6B")
	SubtleColor  = lipgloss.Color("#666666")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ErrorColor)
	SubtleStyle  = lipgloss.NewStyle().Foreground(SubtleColor)
	BoldStyle    = lipgloss.NewStyle().Bold(true)

	// HeaderStyle is used for table headers.
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(0, 2)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠"
)

func FormatTitle(title string) string { return TitleStyle.Render(title) }

func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatMoney colours negative amounts red and income green.
func FormatMoney(m core.Money, t core.TransactionType) string {
	switch {
	case m.Cents < 0:
		return ErrorStyle.Render(m.String())
	case t == core.Income:
		return SuccessStyle.Render("+" + m.String())
	default:
		return m.String()
	}
}

// FormatLevel renders a budget level with its colour.
func FormatLevel(l budget.Level) string {
	switch l {
	case budget.LevelOver:
		return ErrorStyle.Render("over")
	case budget.LevelNear:
		return WarningStyle.Render("near")
	case budget.LevelOK:
		return SuccessStyle.Render("ok")
	default:
		return SubtleStyle.Render("-")
	}
}

// RenderBox renders content under a title in a bordered box.
func RenderBox(title, content string) string {
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.UnsetMargins().Render(title),
		content,
	))
}
