package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

const defaultTheme = "dracula"

var glamourRenderer *glamour.TermRenderer

func init() {
	initRenderer(defaultTheme)
}

func initRenderer(theme string) {
	if theme == "" {
		theme = defaultTheme
	}
	glamourRenderer, _ = glamour.NewTermRenderer(
		glamour.WithStandardStyle(theme),
		glamour.WithWordWrap(0),
	)
}

// todoLine formats an item as the markdown checklist line it came from
func todoLine(checked bool, text string) string {
	checkbox := "- [ ]"
	if checked {
		checkbox = "- [x]"
	}
	return fmt.Sprintf("%s %s", checkbox, text)
}

// renderTodo renders a todo line with its checkbox using Glamour
func renderTodo(checked bool, text string) string {
	line := todoLine(checked, text)

	if glamourRenderer == nil {
		return line
	}

	rendered, err := glamourRenderer.Render(line)
	if err != nil {
		return line
	}

	// Keep as single line
	return strings.TrimSpace(rendered)
}
