package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	styleTitle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleDim      = lipgloss.NewStyle().Foreground(colorDim)
	styleValue    = lipgloss.NewStyle().Foreground(colorWhite)
	styleMeta     = lipgloss.NewStyle().Foreground(colorGray)
	styleLink     = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	styleTag      = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarning  = lipgloss.NewStyle().Foreground(colorYellow)
	styleError    = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	styleSelected = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	styleThread   = lipgloss.NewStyle().Foreground(colorGreen)

	styleCard = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
	styleCardSelected = styleCard.BorderForeground(colorCyan)

	styleModal = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorCyan).
			Padding(1, 2)
)
