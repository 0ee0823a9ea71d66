package ui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the TUI.
var (
	ColorRed     = lipgloss.Color("#FF5555")
	ColorGreen   = lipgloss.Color("#50FA7B")
	ColorYellow  = lipgloss.Color("#F1FA8C")
	ColorCyan    = lipgloss.Color("#8BE9FD")
	ColorGray    = lipgloss.Color("#666666")
	ColorDimGray = lipgloss.Color("#3A3A3A")
	ColorWhite   = lipgloss.Color("#FFFFFF")
	ColorMagenta = lipgloss.Color("#FF79C6")
	ColorBlue    = lipgloss.Color("#3B4A7A")
	ColorTeal    = lipgloss.Color("#1F5F5B")
	ColorPlum    = lipgloss.Color("#5A2E5A")
)

// Base styles reused by UI components.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	PlayingStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)

	PausedStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	StoppedStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	PendingStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	PanelTitleActiveStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorCyan)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	// List rows
	DragRowStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta).
			Bold(true)

	DropTargetStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta).
			Underline(true)

	ActiveRowStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	// Editor chrome
	HandleStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	HandleActiveStyle = lipgloss.NewStyle().
				Foreground(ColorCyan).
				Bold(true)

	RulerStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	GutterStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	LaneStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	PlayheadStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	// Clips
	ClipStyle = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Background(ColorBlue)

	ClipSelectedStyle = lipgloss.NewStyle().
				Foreground(ColorWhite).
				Background(ColorBlue).
				Bold(true).
				Underline(true)

	ClipActiveStyle = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Background(ColorTeal).
			Bold(true)

	ClipDraggingStyle = lipgloss.NewStyle().
				Foreground(ColorWhite).
				Background(ColorPlum)

	// Picker
	PickerBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorCyan).
				Padding(0, 1)
)
