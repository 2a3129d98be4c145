package main

import "github.com/charmbracelet/lipgloss"

// Unified color palette
var (
	primaryColor   = lipgloss.Color("109")
	accentColor    = lipgloss.Color("171")
	barBackground  = lipgloss.Color("233")
	barColor       = lipgloss.NewStyle().Background(barBackground)
	mutedColor     = lipgloss.Color("239")
	subtleColor    = lipgloss.Color("244")
	dangerColor    = lipgloss.Color("167")
	highlightColor = lipgloss.Color("171")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			Background(barBackground)

	titleNameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Background(barBackground)

	searchModeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("231")).
			Background(dangerColor).
			Padding(0, 1)

	aboutStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("white"))

	aboutBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(1, 2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(highlightColor).
			Bold(true)

	doneStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Strikethrough(true)

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	cursorStyle = lipgloss.NewStyle().
			Foreground(highlightColor)

	groupStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	subGroupStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	countStyle = lipgloss.NewStyle().
			Foreground(subtleColor)

	searchStyle = lipgloss.NewStyle().
			Foreground(highlightColor).
			Bold(true).
			Background(barBackground)

	searchInputStyle = lipgloss.NewStyle().
				Foreground(accentColor).
				Background(barBackground)

	// Help bar styles - persistent bottom bar
	helpBarStyle = lipgloss.NewStyle().
			Foreground(subtleColor).
			Background(barBackground)

	headerBarStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Background(barBackground)

	helpBarKeyStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	helpBarDescStyle = lipgloss.NewStyle().
				Foreground(subtleColor)

	helpBarInfoStyle = lipgloss.NewStyle().
				Foreground(mutedColor)

	// Loading screen
	loaderTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(accentColor)

	loaderAccentStyle = lipgloss.NewStyle().
				Foreground(accentColor)

	loaderDimStyle = lipgloss.NewStyle().
			Foreground(subtleColor)
)
