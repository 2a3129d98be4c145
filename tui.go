package main

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/savioxavier/termlink"
)

const (
	defaultWindowHeight = 24
	defaultWindowWidth  = 80
	minVisibleHeight    = 3
	cursorCharacter     = ">"
)

// groupsMsg carries a grouping result from the pipeline
type groupsMsg struct {
	groups []*TodoGroup
	view   ViewSettings
}

// teaRenderer forwards grouping results to a running program
type teaRenderer struct {
	program *tea.Program
}

func (r *teaRenderer) Render(groups []*TodoGroup, view ViewSettings) {
	r.program.Send(groupsMsg{groups: groups, view: view})
}

// row is one selectable line of the list: a group header or an item
type row struct {
	group *TodoGroup
	item  *TodoItem
	id    string // Collapse key of the group, empty for items
	depth int
}

// model is the BubbleTea model
type model struct {
	groups    []*TodoGroup
	view      ViewSettings
	rows      []row
	collapsed map[string]bool
	cursor    int

	vaultPath string
	titleName string
	send      func(Event)

	quitting     bool
	err          error
	helpOpen     bool
	windowHeight int
	windowWidth  int
	viewport     viewport.Model

	searching   bool
	searchInput textinput.Model
}

func newModel(vaultPath, titleName string, view ViewSettings, send func(Event)) model {
	input := textinput.New()
	input.Prompt = "/"
	input.Placeholder = `words or "a phrase"`
	input.SetValue(view.Search)

	collapsed := make(map[string]bool)
	for _, id := range view.CollapsedSections {
		collapsed[id] = true
	}

	return model{
		view:         view,
		collapsed:    collapsed,
		vaultPath:    vaultPath,
		titleName:    titleName,
		send:         send,
		windowHeight: defaultWindowHeight,
		windowWidth:  defaultWindowWidth,
		viewport:     viewport.New(defaultWindowWidth, defaultWindowHeight),
		searchInput:  input,
	}
}

func (m model) Init() tea.Cmd {
	return tea.WindowSize()
}

// sendCmd queues an event without blocking the update loop
func (m model) sendCmd(ev Event) tea.Cmd {
	send := m.send
	return func() tea.Msg {
		if send != nil {
			send(ev)
		}
		return nil
	}
}

// buildRows flattens groups into selectable rows, skipping collapsed bodies
func buildRows(groups []*TodoGroup, collapsed map[string]bool) []row {
	var rows []row

	var walk func(groups []*TodoGroup, parent string, depth int)
	walk = func(groups []*TodoGroup, parent string, depth int) {
		for _, g := range groups {
			id := g.Label
			if parent != "" {
				id = parent + "/" + g.Label
			}

			rows = append(rows, row{group: g, id: id, depth: depth})
			if collapsed[id] {
				continue
			}

			for _, item := range g.Items {
				rows = append(rows, row{item: item, depth: depth + 1})
			}
			walk(g.SubGroups, id, depth+1)
		}
	}
	walk(groups, "", 0)

	return rows
}

func (m *model) rebuild() {
	m.rows = buildRows(m.groups, m.collapsed)
	m.clampCursor(len(m.rows))
}

func (m *model) clampCursor(length int) {
	m.cursor = max(0, min(m.cursor, length-1))
}

func (m *model) itemCount() int {
	n := 0
	for _, g := range m.groups {
		n += g.Count()
	}
	return n
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.searchInput.Width = max(10, msg.Width-10)
		return m, nil

	case groupsMsg:
		m.groups = msg.groups
		m.view = msg.view
		m.rebuild()
		return m, nil

	case editorFinishedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		return m, m.sendCmd(RefreshEvent{})

	case tea.KeyMsg:
		if m.helpOpen {
			switch msg.String() {
			case "ctrl+c":
				m.quitting = true
				return m, tea.Quit
			default:
				m.helpOpen = false
			}
			return m, nil
		}

		if m.searching {
			return m.updateSearch(msg)
		}

		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "?":
			m.helpOpen = true

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}

		case "g":
			m.cursor = 0

		case "G":
			m.cursor = max(0, len(m.rows)-1)

		case "/":
			m.searching = true
			return m, m.searchInput.Focus()

		case "esc":
			if m.searchInput.Value() != "" {
				m.searchInput.SetValue("")
				return m, m.sendCmd(SearchEvent{})
			}

		case "r":
			return m, m.sendCmd(RefreshEvent{})

		case "R":
			return m, m.sendCmd(RefreshEvent{Force: true})

		case "enter", " ", "tab":
			if m.cursor < len(m.rows) {
				r := m.rows[m.cursor]
				if r.group != nil {
					m.collapsed[r.id] = !m.collapsed[r.id]
					m.rebuild()
					return m, nil
				}
				return m, openInEditor(m.vaultPath, r.item)
			}

		case "o", "e":
			if m.cursor < len(m.rows) && m.rows[m.cursor].item != nil {
				return m, openInEditor(m.vaultPath, m.rows[m.cursor].item)
			}
		}
	}

	return m, nil
}

// updateSearch edits the search box; every change is sent to the pipeline
func (m model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "esc", "ctrl+[":
		m.searching = false
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.cursor = 0
		return m, m.sendCmd(SearchEvent{})

	case "enter":
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}

	before := m.searchInput.Value()

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)

	if value := m.searchInput.Value(); value != before {
		m.cursor = 0
		return m, tea.Batch(cmd, m.sendCmd(SearchEvent{Term: value}))
	}

	return m, cmd
}

// groupLabel renders a group header. File groups link to the document when
// the terminal supports hyperlinks.
func (m model) groupLabel(g *TodoGroup) string {
	label := g.Label
	if label == "" {
		label = "All"
	}

	if m.view.GroupBy == GroupFile && g.Key != "" && termlink.SupportsHyperlinks() {
		abs := filepath.Join(m.vaultPath, filepath.FromSlash(g.Key))
		return termlink.Link(groupStyle.Render(label), "file://"+filepath.ToSlash(abs))
	}

	return groupStyle.Render(label)
}

func (m model) renderRow(r row, selected bool) string {
	indent := strings.Repeat("  ", r.depth)

	cursor := " "
	if selected {
		cursor = cursorStyle.Render(cursorCharacter)
	}

	if r.group != nil {
		marker := "▾"
		if m.collapsed[r.id] {
			marker = "▸"
		}
		header := fmt.Sprintf("%s %s", marker, m.groupLabel(r.group))
		if r.depth > 0 {
			header = fmt.Sprintf("%s %s", marker, subGroupStyle.Render(r.group.Label))
		}
		return cursor + indent + header + " " + countStyle.Render(fmt.Sprintf("(%d)", r.group.Count()))
	}

	item := r.item
	line := renderTodo(item.Checked, item.Text)
	if item.Checked {
		line = doneStyle.Render(line)
	}
	if selected {
		line = selectedStyle.Render(line)
	}

	if m.view.LookAndFeel != "compact" && m.view.GroupBy != GroupFile {
		line += " " + fileStyle.Render(fmt.Sprintf("%s:%d", item.Path, item.Line))
	}

	return cursor + indent + line
}

type viewLine struct {
	content string
}

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err)
	}

	if m.quitting {
		return ""
	}

	if m.helpOpen {
		return lipgloss.Place(m.windowWidth, m.windowHeight, lipgloss.Center, lipgloss.Center, aboutBoxStyle.Render(helpText()))
	}

	windowHeight := m.windowHeight
	if windowHeight <= 0 {
		windowHeight = defaultWindowHeight
	}

	headerHeight := 1
	footerHeight := 1
	contentHeight := max(1, windowHeight-headerHeight-footerHeight)
	if target := int(math.Round(float64(windowHeight) * 0.90)); target < contentHeight {
		footerHeight += contentHeight - target
		contentHeight = target
	}

	title := titleStyle.Render(appName) + barColor.Render(" → ") + titleNameStyle.Render(m.titleName)
	tagInfo := helpBarInfoStyle.Render(" " + strings.Join(m.headerTags(), ", "))
	headerView := headerBarStyle.Width(m.windowWidth).Render(title + tagInfo)

	var lines []viewLine
	if len(m.rows) == 0 {
		lines = append(lines, viewLine{content: fileStyle.Render("  No todos found")})
	}
	for i, r := range m.rows {
		lines = append(lines, viewLine{content: m.renderRow(r, i == m.cursor)})
	}

	viewportView := m.buildViewport(lines, m.cursor, contentHeight)

	left := helpBarKeyStyle.Render("/") + helpBarDescStyle.Render(" search")
	if m.searching {
		left = searchModeStyle.Render("search") + " " + m.searchInput.View()
	} else if query := m.searchInput.Value(); query != "" {
		left = searchStyle.Render("/") + searchInputStyle.Render(query)
	}
	right := helpBarInfoStyle.Render(fmt.Sprintf("%d todos • ? help", m.itemCount()))

	footerView := buildFooterView([]string{m.renderFooterSplit(left, right)}, footerHeight)

	return lipgloss.JoinVertical(lipgloss.Left, headerView, viewportView, footerView)
}

// headerTags lists the tag filters shown in the title bar
func (m model) headerTags() []string {
	if len(m.view.TodoTags) == 0 {
		return []string{wildcardTag}
	}
	return visibleTags(m.view.TodoTags, m.view.HiddenTags)
}

func helpText() string {
	items := [][2]string{
		{"↑/k ↓/j", "move"},
		{"g/G", "top/bottom"},
		{"enter", "collapse group / open todo"},
		{"o/e", "open in $EDITOR"},
		{"/", "search, \"quoted phrase\" keeps spaces"},
		{"esc", "clear search"},
		{"r", "refresh changed files"},
		{"R", "rebuild index"},
		{"q", "quit"},
	}

	var b strings.Builder
	b.WriteString(aboutStyle.Render(appName) + "\n\n")
	for _, it := range items {
		b.WriteString(helpBarKeyStyle.Render(fmt.Sprintf("%-9s", it[0])) + " " + helpBarDescStyle.Render(it[1]) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m model) renderFooterSplit(left, right string) string {
	if left == "" && right == "" {
		return helpBarStyle.Width(m.windowWidth).Render("")
	}
	spacing := m.windowWidth - lipgloss.Width(left) - lipgloss.Width(right)
	if spacing < 0 {
		spacing = 0
	}

	gap := helpBarStyle.Render(strings.Repeat(" ", spacing))
	return left + gap + right
}

func (m model) buildViewport(lines []viewLine, cursorLineIdx int, contentHeight int) string {
	if contentHeight < minVisibleHeight {
		contentHeight = minVisibleHeight
	}

	width := m.windowWidth
	if width <= 0 {
		width = defaultWindowWidth
	}

	vp := m.viewport
	vp.Width = width
	vp.Height = contentHeight

	contentLines := make([]string, len(lines))
	lineHeights := make([]int, len(lines))
	totalRenderedLines := 0

	for i, line := range lines {
		contentLines[i] = line.content
		height := 1 + strings.Count(line.content, "\n")
		lineHeights[i] = height
		totalRenderedLines += height
	}

	cursorLineIdx = max(0, min(cursorLineIdx, len(lines)-1))

	startRow := 0
	if totalRenderedLines > contentHeight {
		startLine, _ := calculateVisibleRange(cursorLineIdx, lineHeights, contentHeight)
		for i := 0; i < startLine; i++ {
			startRow += lineHeights[i]
		}
	}

	vp.SetContent(strings.Join(contentLines, "\n"))
	vp.YOffset = startRow

	view := lipgloss.NewStyle().Width(width).Height(contentHeight).Render(vp.View())
	return normalizeViewHeight(view, contentHeight)
}

func normalizeViewHeight(view string, height int) string {
	lines := strings.Split(view, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func buildFooterView(lines []string, height int) string {
	if height <= 0 {
		return ""
	}
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	if len(lines) < height {
		padding := make([]string, height-len(lines))
		lines = append(padding, lines...)
	}
	return strings.Join(lines, "\n")
}

// calculateVisibleRange returns start/end indices for visible lines
func calculateVisibleRange(cursorLineIdx int, lineHeights []int, visibleHeight int) (startLine, endLine int) {
	totalLines := len(lineHeights)

	if totalLines == 0 {
		return 0, 0
	}

	cursorPos := 0
	totalHeight := 0

	for i, h := range lineHeights {
		if i < cursorLineIdx {
			cursorPos += h
		}
		totalHeight += h
	}

	if totalHeight <= visibleHeight {
		return 0, totalLines
	}

	startRow := cursorPos - (visibleHeight - 1)
	if startRow < 0 {
		startRow = 0
	}

	pos := 0

	for i, h := range lineHeights {
		if pos+h > startRow {
			startLine = i
			break
		}
		pos += h
	}

	rendered := 0

	for i := startLine; i < totalLines; i++ {
		if rendered+lineHeights[i] > visibleHeight {
			break
		}

		rendered += lineHeights[i]
		endLine = i + 1
	}

	if cursorLineIdx >= endLine {
		endLine = cursorLineIdx + 1
	}

	return startLine, endLine
}
