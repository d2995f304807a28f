package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// ANSI palette indexes; the terminal theme picks the actual shade
var (
	ColorSuccess = lipgloss.Color("2")
	ColorError   = lipgloss.Color("1")
	ColorWarning = lipgloss.Color("3")
	ColorAccent  = lipgloss.Color("4")
	ColorPrimary = lipgloss.Color("5")
	ColorInfo    = lipgloss.Color("6")
	ColorDefault = lipgloss.Color("7")
	ColorMuted   = lipgloss.Color("8")
)

var (
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	StyleInfo    = lipgloss.NewStyle().Foreground(ColorInfo)
	StyleMuted   = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleAccent  = lipgloss.NewStyle().Foreground(ColorAccent)
	StyleTitle   = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).Underline(true)
	StyleHeader  = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)

	StyleTableHeader = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	StyleTableRow    = lipgloss.NewStyle().Foreground(ColorDefault)
	StyleTableRowAlt = lipgloss.NewStyle().Foreground(ColorDefault).Faint(true)
	StyleTableBorder = lipgloss.NewStyle().Foreground(ColorMuted)
)

const (
	IconSuccess = "✔"
	IconError   = "✘"
	IconRocket  = "🚀"
	IconInfo    = "ℹ"
	IconWarning = "⚠"
	IconFolder  = "📁"
	IconFile    = "📄"
	IconJob     = "⚙"
	IconBell    = "🔔"
)

func FormatSuccess(msg string) string { return StyleSuccess.Render(IconSuccess + " " + msg) }
func FormatError(msg string) string   { return StyleError.Render(IconError + " " + msg) }
func FormatWarning(msg string) string { return StyleWarning.Render(IconWarning + " " + msg) }
func FormatInfo(msg string) string    { return StyleInfo.Render(IconInfo + " " + msg) }

// FormatRocket announces a long-running action such as the worker loop
func FormatRocket(msg string) string {
	return StyleHeader.Render(IconRocket + " " + msg)
}

func FormatTitle(title string) string { return StyleTitle.Render(title) }
func FormatMuted(text string) string  { return StyleMuted.Render(text) }

// FormatHeader returns a section header with an icon
func FormatHeader(icon, title string) string {
	return StyleHeader.Render(icon + " " + title)
}
