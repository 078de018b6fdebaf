// Package ui implements the interactive dashboard: per-entity list
// pages, stats, and the create/edit dialogs bound to the headless
// form engine.
package ui

import "github.com/charmbracelet/lipgloss"

// Palette shared by both dashboard themes.
var (
	ColorPrimary = lipgloss.Color("#2563EB")
	ColorAccent  = lipgloss.Color("#0EA5E9")
	ColorMuted   = lipgloss.Color("#6B7280")
	ColorBorder  = lipgloss.Color("#374151")
	ColorSuccess = lipgloss.Color("#22C55E")
	ColorError   = lipgloss.Color("#EF4444")
	ColorWarning = lipgloss.Color("#F59E0B")
)

// Styles holds every lipgloss style the dashboard renders with.
type Styles struct {
	Header       lipgloss.Style
	Footer       lipgloss.Style
	Tab          lipgloss.Style
	TabActive    lipgloss.Style
	Title        lipgloss.Style
	Muted        lipgloss.Style
	Success      lipgloss.Style
	Error        lipgloss.Style
	Warning      lipgloss.Style
	Selected     lipgloss.Style
	Stale        lipgloss.Style
	Dialog       lipgloss.Style
	DialogTitle  lipgloss.Style
	FieldLabel   lipgloss.Style
	FieldError   lipgloss.Style
	GeneralError lipgloss.Style
	StatCard     lipgloss.Style
	Badge        lipgloss.Style
}

// NewStyles builds the default dashboard styles.
func NewStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Background(ColorPrimary).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1).
			Bold(true),
		Footer: lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1),
		Tab: lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 2),
		TabActive: lipgloss.NewStyle().
			Foreground(ColorAccent).
			Padding(0, 2).
			Bold(true).
			Underline(true),
		Title: lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(ColorMuted),
		Success: lipgloss.NewStyle().
			Foreground(ColorSuccess),
		Error: lipgloss.NewStyle().
			Foreground(ColorError),
		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning),
		Selected: lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true),
		Stale: lipgloss.NewStyle().
			Foreground(ColorWarning).
			Italic(true),
		Dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 2),
		DialogTitle: lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true),
		FieldLabel: lipgloss.NewStyle().
			Foreground(ColorMuted).
			Width(24),
		FieldError: lipgloss.NewStyle().
			Foreground(ColorError).
			PaddingLeft(2),
		GeneralError: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(ColorError).
			Padding(0, 1),
		StatCard: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 2).
			Margin(0, 1),
		Badge: lipgloss.NewStyle().
			Background(ColorAccent).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1),
	}
}
