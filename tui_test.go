package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
)

func tuiFixture() []*TodoGroup {
	return []*TodoGroup{
		{Key: "todo", Label: "#todo", SubGroups: []*TodoGroup{
			{Key: "a.md", Label: "a.md", Items: []*TodoItem{{Path: "a.md", Line: 1, Text: "one"}}},
			{Key: "b.md", Label: "b.md", Items: []*TodoItem{{Path: "b.md", Line: 4, Text: "two"}}},
		}},
		{Key: "", Label: "Untagged", Items: []*TodoItem{{Path: "c.md", Line: 2, Text: "three"}}},
	}
}

func rowIDs(rows []row) []string {
	var ids []string
	for _, r := range rows {
		if r.item != nil {
			ids = append(ids, "- "+r.item.Text)
			continue
		}
		ids = append(ids, r.id)
	}
	return ids
}

func TestBuildRows(t *testing.T) {
	tests := []struct {
		name      string
		collapsed map[string]bool
		want      []string
	}{
		{
			name: "expanded",
			want: []string{"#todo", "#todo/a.md", "- one", "#todo/b.md", "- two", "Untagged", "- three"},
		},
		{
			name:      "collapsed subgroup",
			collapsed: map[string]bool{"#todo/a.md": true},
			want:      []string{"#todo", "#todo/a.md", "#todo/b.md", "- two", "Untagged", "- three"},
		},
		{
			name:      "collapsed group hides subgroups",
			collapsed: map[string]bool{"#todo": true},
			want:      []string{"#todo", "Untagged", "- three"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rowIDs(buildRows(tuiFixture(), tt.collapsed))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("buildRows() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestModelToggleAndRefresh(t *testing.T) {
	var sent []Event
	m := newModel("/vault", "vault", ViewSettings{CollapsedSections: []string{"Untagged"}}, func(ev Event) {
		sent = append(sent, ev)
	})

	updated, _ := m.Update(groupsMsg{groups: tuiFixture(), view: ViewSettings{GroupBy: GroupTag}})
	m = updated.(model)

	if diff := cmp.Diff([]string{"#todo", "#todo/a.md", "- one", "#todo/b.md", "- two", "Untagged"}, rowIDs(m.rows)); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}

	// Collapse the first group
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(model)
	if diff := cmp.Diff([]string{"#todo", "Untagged"}, rowIDs(m.rows)); diff != "" {
		t.Errorf("rows after collapse mismatch (-want +got):\n%s", diff)
	}

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("R")})
	m = updated.(model)
	if cmd == nil {
		t.Fatal("R returned no command")
	}
	cmd()

	if diff := cmp.Diff([]Event{RefreshEvent{Force: true}}, sent); diff != "" {
		t.Errorf("sent events mismatch (-want +got):\n%s", diff)
	}
}

func TestModelCursorBounds(t *testing.T) {
	m := newModel("/vault", "vault", ViewSettings{}, nil)
	updated, _ := m.Update(groupsMsg{groups: tuiFixture()})
	m = updated.(model)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("G")})
	m = updated.(model)
	if m.cursor != len(m.rows)-1 {
		t.Errorf("cursor = %d, want last row %d", m.cursor, len(m.rows)-1)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	m = updated.(model)
	if m.cursor != len(m.rows)-1 {
		t.Errorf("cursor moved past the last row")
	}

	// Fewer rows pull the cursor back
	updated, _ = m.Update(groupsMsg{groups: tuiFixture()[1:]})
	m = updated.(model)
	if m.cursor != len(m.rows)-1 {
		t.Errorf("cursor = %d, want %d", m.cursor, len(m.rows)-1)
	}

	if m.itemCount() != 1 {
		t.Errorf("itemCount() = %d, want 1", m.itemCount())
	}
}

func TestModelHeaderTags(t *testing.T) {
	tests := []struct {
		name string
		view ViewSettings
		want []string
	}{
		{name: "no tags", view: ViewSettings{}, want: []string{wildcardTag}},
		{name: "shown", view: ViewSettings{TodoTags: []string{"todo", "work"}}, want: []string{"todo", "work"}},
		{name: "hidden ignores case", view: ViewSettings{TodoTags: []string{"todo", "work"}, HiddenTags: []string{"Todo"}}, want: []string{"work"}},
		{name: "hidden with hash", view: ViewSettings{TodoTags: []string{"todo", "work"}, HiddenTags: []string{"#WORK"}}, want: []string{"todo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newModel("/vault", "vault", tt.view, nil)
			if diff := cmp.Diff(tt.want, m.headerTags()); diff != "" {
				t.Errorf("headerTags() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCalculateVisibleRange(t *testing.T) {
	tests := []struct {
		name      string
		cursor    int
		heights   []int
		visible   int
		wantStart int
		wantEnd   int
	}{
		{name: "empty", cursor: 0, heights: nil, visible: 5, wantStart: 0, wantEnd: 0},
		{name: "fits", cursor: 2, heights: []int{1, 1, 1}, visible: 5, wantStart: 0, wantEnd: 3},
		{name: "scrolls to cursor", cursor: 7, heights: []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}, visible: 4, wantStart: 4, wantEnd: 8},
		{name: "top", cursor: 0, heights: []int{1, 1, 1, 1, 1, 1}, visible: 3, wantStart: 0, wantEnd: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := calculateVisibleRange(tt.cursor, tt.heights, tt.visible)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("calculateVisibleRange() = (%d, %d), want (%d, %d)", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}
