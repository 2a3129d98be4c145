package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	wildcardTag      = "*"
	maxLineSize      = 1024 * 1024
	frontmatterFence = "---"
)

var (
	todoRe    = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+\[([ xX])\]\s*(.*)$`)
	headingRe = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	fenceRe   = regexp.MustCompile("^\\s*(```|~~~)")
	tagRe     = regexp.MustCompile(`(^|\s)#([\p{L}_][\p{L}\p{N}_/-]*)`)
	dueDateRe = regexp.MustCompile(`📅\s*(\d{4}-\d{2}-\d{2})`)
)

// TodoItem represents a single checklist line extracted from a document
type TodoItem struct {
	Path         string     // Owning document identity, slash separated
	Line         int        // 1-indexed line number
	OriginalText string     // Line as written, used for search
	Text         string     // Description without checkbox and matched tags
	Checked      bool       // Is the box ticked?
	Tags         []string   // Matched tags in scope of the item
	MainTag      string     // First segment of the first matched tag
	SubTag       string     // Remainder of the first matched tag
	DueDate      *time.Time // From 📅 YYYY-MM-DD
}

// ParseOptions controls which todo lines parseTodos keeps
type ParseOptions struct {
	TagFilters   []string // Lowercased tag names, "*" matches everything
	ShowChecked  bool
	ShowAllTodos bool // Keep items outside of any matching tag scope
}

func (o ParseOptions) wildcard() bool {
	return slices.Contains(o.TagFilters, wildcardTag)
}

// explicitMatch reports whether tag is named by a non-wildcard filter,
// either exactly or as a parent (filter "todo" matches "todo/work")
func (o ParseOptions) explicitMatch(tag string) bool {
	tag = strings.ToLower(tag)

	for _, filter := range o.TagFilters {
		if filter == wildcardTag {
			continue
		}
		if tag == filter || strings.HasPrefix(tag, filter+"/") {
			return true
		}
	}

	return false
}

func (o ParseOptions) matches(tag string) bool {
	return o.wildcard() || o.explicitMatch(tag)
}

// matchedTags returns the lowercased tags that pass the filters, deduplicated
func (o ParseOptions) matchedTags(tags ...[]string) []string {
	var result []string

	for _, set := range tags {
		for _, tag := range set {
			tag = strings.ToLower(strings.TrimPrefix(tag, "#"))
			if tag == "" || !o.matches(tag) || slices.Contains(result, tag) {
				continue
			}
			result = append(result, tag)
		}
	}

	return result
}

// headingScope tracks tags declared on a heading until a sibling or parent
// heading closes it
type headingScope struct {
	level int
	tags  []string
}

// parseTodos extracts todo items from one document. docTags are the tags
// the metadata source attached to the document.
func parseTodos(path string, content []byte, docTags []string, opts ParseOptions) ([]*TodoItem, error) {
	lines, err := splitLines(content)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	start := bodyStart(lines)
	docScope := opts.matchedTags(docTags, preambleTags(lines[start:]))

	var (
		items  []*TodoItem
		stack  []headingScope
		inCode bool
	)

	for i := start; i < len(lines); i++ {
		line := lines[i]

		if fenceRe.MatchString(line) {
			inCode = !inCode
			continue
		}
		if inCode {
			continue
		}

		if heading := headingRe.FindStringSubmatch(line); heading != nil {
			level := len(heading[1])
			for len(stack) > 0 && stack[len(stack)-1].level >= level {
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, headingScope{level: level, tags: opts.matchedTags(inlineTags(heading[2]))})
			continue
		}

		matches := todoRe.FindStringSubmatch(line)
		if matches == nil {
			continue
		}

		checked := strings.ToLower(matches[1]) == "x"
		if checked && !opts.ShowChecked {
			continue
		}

		scopes := [][]string{docScope}
		for _, s := range stack {
			scopes = append(scopes, s.tags)
		}
		scopes = append(scopes, opts.matchedTags(inlineTags(matches[2])))
		tags := opts.matchedTags(scopes...)

		if !opts.wildcard() && len(tags) == 0 && !opts.ShowAllTodos {
			continue
		}

		item := &TodoItem{
			Path:         path,
			Line:         i + 1,
			OriginalText: line,
			Text:         stripTags(matches[2], opts),
			Checked:      checked,
			Tags:         tags,
			DueDate:      parseDueDate(matches[2]),
		}

		if len(tags) > 0 {
			item.MainTag, item.SubTag, _ = strings.Cut(tags[0], "/")
		}

		items = append(items, item)
	}

	return items, nil
}

func splitLines(content []byte) ([]string, error) {
	var lines []string

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}

	return lines, scanner.Err()
}

// bodyStart returns the index of the first line after the frontmatter block
func bodyStart(lines []string) int {
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != frontmatterFence {
		return 0
	}

	for i := 1; i < len(lines); i++ {
		if closing := strings.TrimSpace(lines[i]); closing == frontmatterFence || closing == "..." {
			return i + 1
		}
	}

	// Unterminated frontmatter is treated as body
	return 0
}

// preambleTags collects inline tags written before the first heading,
// ignoring todo lines
func preambleTags(lines []string) []string {
	var tags []string
	inCode := false

	for _, line := range lines {
		if fenceRe.MatchString(line) {
			inCode = !inCode
			continue
		}
		if inCode {
			continue
		}
		if headingRe.MatchString(line) {
			break
		}
		if todoRe.MatchString(line) {
			continue
		}
		tags = append(tags, inlineTags(line)...)
	}

	return tags
}

// inlineTags returns the #tags of a line without the leading hash
func inlineTags(text string) []string {
	var tags []string

	for _, match := range tagRe.FindAllStringSubmatch(text, -1) {
		tags = append(tags, match[2])
	}

	return tags
}

// stripTags removes explicitly filtered tags from a description
func stripTags(description string, opts ParseOptions) string {
	stripped := tagRe.ReplaceAllStringFunc(description, func(match string) string {
		sub := tagRe.FindStringSubmatch(match)
		if opts.explicitMatch(sub[2]) {
			return sub[1]
		}
		return match
	})

	return strings.Join(strings.Fields(stripped), " ")
}

// parseDueDate extracts due date from task description
func parseDueDate(description string) *time.Time {
	matches := dueDateRe.FindStringSubmatch(description)
	if matches == nil {
		return nil
	}
	date, err := time.Parse("2006-01-02", matches[1])
	if err != nil {
		return nil
	}
	return &date
}

// editorFinishedMsg is sent when the external editor closes
type editorFinishedMsg struct {
	err  error
	item *TodoItem
}

// openInEditor opens the item's document in an external editor at its line
func openInEditor(root string, item *TodoItem) tea.Cmd {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	lineArg := fmt.Sprintf("+%d", item.Line)
	c := exec.Command(editor, lineArg, filepath.Join(root, filepath.FromSlash(item.Path)))

	return tea.ExecProcess(c, func(err error) tea.Msg {
		return editorFinishedMsg{err: err, item: item}
	})
}
