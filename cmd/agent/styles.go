package main

import "github.com/charmbracelet/lipgloss"

var (
	iterationStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))  // magenta
	thoughtStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))             // gray
	toolNameStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))  // yellow
	resultStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))             // dim gray
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))  // red
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Faint(true) // dim
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))  // blue
	answerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))  // cyan
	systemStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("2")) // green

	answerBlockStyle = lipgloss.NewStyle().PaddingLeft(1)
)

const treeCorner = "└ "
