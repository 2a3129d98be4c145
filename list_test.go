package main

import (
	"strings"
	"testing"
)

func TestListRenderer(t *testing.T) {
	groups := []*TodoGroup{
		{Key: "todo", Label: "#todo", SubGroups: []*TodoGroup{
			{Key: "a.md", Label: "a.md", Items: []*TodoItem{{Path: "a.md", Line: 3, Text: "buy milk"}}},
			{Key: "b.md", Label: "b.md", Items: []*TodoItem{{Path: "b.md", Line: 1, Text: "hidden", Checked: true}}},
		}},
	}

	tests := []struct {
		name string
		view ViewSettings
		want string
	}{
		{
			name: "classic",
			view: ViewSettings{GroupBy: GroupTag, LookAndFeel: "classic"},
			want: "Found 2 todo(s):\n\n## #todo (2)\n\n### a.md (1)\n- [ ] buy milk (a.md:3)\n\n### b.md (1)\n- [x] hidden (b.md:1)\n",
		},
		{
			name: "compact with collapsed subgroup",
			view: ViewSettings{GroupBy: GroupTag, LookAndFeel: "compact", CollapsedSections: []string{"#todo/b.md"}},
			want: "Found 2 todo(s):\n\n## #todo (2)\n\n### a.md (1)\n- [ ] buy milk\n\n### b.md (1)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b strings.Builder
			(&listRenderer{w: &b}).Render(groups, tt.view)
			if got := b.String(); got != tt.want {
				t.Errorf("Render() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestListRendererEmpty(t *testing.T) {
	var b strings.Builder
	(&listRenderer{w: &b}).Render(nil, ViewSettings{})

	if got := b.String(); got != "No todos found.\n" {
		t.Errorf("Render() = %q", got)
	}
}
