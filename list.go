package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
)

// listRenderer prints grouping results as markdown for --list mode
type listRenderer struct {
	w io.Writer
}

func (r *listRenderer) Render(groups []*TodoGroup, view ViewSettings) {
	total := 0
	for _, g := range groups {
		total += g.Count()
	}

	if total == 0 {
		fmt.Fprintln(r.w, "No todos found.")
		return
	}

	fmt.Fprintf(r.w, "Found %d todo(s):\n", total)
	for _, g := range groups {
		r.writeGroup(g, g.Label, 2, view)
	}
}

// writeGroup prints a group heading and, unless the group is collapsed, its
// items and subgroups. id is the collapse key, "parent/label" for subgroups.
func (r *listRenderer) writeGroup(g *TodoGroup, id string, level int, view ViewSettings) {
	if g.Label != "" {
		fmt.Fprintf(r.w, "\n%s %s (%d)\n", strings.Repeat("#", level), g.Label, g.Count())
	}

	if slices.Contains(view.CollapsedSections, id) {
		return
	}

	for _, item := range g.Items {
		line := todoLine(item.Checked, item.Text)
		if view.LookAndFeel != "compact" && view.GroupBy != GroupFile {
			line = fmt.Sprintf("%s (%s:%d)", line, item.Path, item.Line)
		}
		fmt.Fprintln(r.w, line)
	}

	for _, sub := range g.SubGroups {
		r.writeGroup(sub, id+"/"+sub.Label, level+1, view)
	}
}
