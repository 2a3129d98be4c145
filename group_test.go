package main

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// groupShape flattens a group tree into labels and item positions
type groupShape struct {
	Label string
	Items []string
	Subs  []groupShape
}

func shape(groups []*TodoGroup) []groupShape {
	var out []groupShape
	for _, g := range groups {
		s := groupShape{Label: g.Label, Subs: shape(g.SubGroups)}
		for _, item := range g.Items {
			s.Items = append(s.Items, item.OriginalText)
		}
		out = append(out, s)
	}
	return out
}

func groupFixture() []*TodoItem {
	due := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	return []*TodoItem{
		{Path: "work/b.md", Line: 3, OriginalText: "b3", MainTag: "todo", SubTag: "work"},
		{Path: "a.md", Line: 2, OriginalText: "a2", MainTag: "todo", Checked: true},
		{Path: "work/b.md", Line: 1, OriginalText: "b1", MainTag: "later", DueDate: &due},
		{Path: "a.md", Line: 1, OriginalText: "a1"},
	}
}

func TestGroupTodos(t *testing.T) {
	tests := []struct {
		name string
		opts GroupOptions
		want []groupShape
	}{
		{
			name: "by file",
			opts: GroupOptions{GroupBy: GroupFile},
			want: []groupShape{
				{Label: "a.md", Items: []string{"a1", "a2"}},
				{Label: "work/b.md", Items: []string{"b1", "b3"}},
			},
		},
		{
			name: "by file descending",
			opts: GroupOptions{GroupBy: GroupFile, GroupSort: SortDesc, ItemSort: SortDesc},
			want: []groupShape{
				{Label: "work/b.md", Items: []string{"b3", "b1"}},
				{Label: "a.md", Items: []string{"a2", "a1"}},
			},
		},
		{
			name: "none",
			opts: GroupOptions{GroupBy: GroupNone},
			want: []groupShape{{Label: "", Items: []string{"a1", "a2", "b1", "b3"}}},
		},
		{
			name: "by folder",
			opts: GroupOptions{GroupBy: GroupFolder},
			want: []groupShape{
				{Label: "/", Items: []string{"a1", "a2"}},
				{Label: "work", Items: []string{"b1", "b3"}},
			},
		},
		{
			name: "by tag",
			opts: GroupOptions{GroupBy: GroupTag},
			want: []groupShape{
				{Label: "Untagged", Items: []string{"a1"}},
				{Label: "#later", Items: []string{"b1"}},
				{Label: "#todo", Items: []string{"a2", "b3"}},
			},
		},
		{
			name: "by status",
			opts: GroupOptions{GroupBy: GroupStatus},
			want: []groupShape{
				{Label: "Done", Items: []string{"a2"}},
				{Label: "Todo", Items: []string{"a1", "b1", "b3"}},
			},
		},
		{
			name: "by due date",
			opts: GroupOptions{GroupBy: GroupDue},
			want: []groupShape{
				{Label: "No due date", Items: []string{"a1", "a2", "b3"}},
				{Label: "2025-01-02", Items: []string{"b1"}},
			},
		},
		{
			name: "tag then subtag",
			opts: GroupOptions{GroupBy: GroupTag, SubGroupBy: GroupSubTag},
			want: []groupShape{
				{Label: "Untagged", Subs: []groupShape{{Label: "Other", Items: []string{"a1"}}}},
				{Label: "#later", Subs: []groupShape{{Label: "Other", Items: []string{"b1"}}}},
				{Label: "#todo", Subs: []groupShape{
					{Label: "Other", Items: []string{"a2"}},
					{Label: "work", Items: []string{"b3"}},
				}},
			},
		},
		{
			name: "folder then file descending",
			opts: GroupOptions{GroupBy: GroupFolder, SubGroupBy: GroupFile, SubGroupSort: SortDesc},
			want: []groupShape{
				{Label: "/", Subs: []groupShape{{Label: "a.md", Items: []string{"a1", "a2"}}}},
				{Label: "work", Subs: []groupShape{{Label: "work/b.md", Items: []string{"b1", "b3"}}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shape(groupTodos(groupFixture(), tt.opts))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("groupTodos() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGroupTodosDeterministic(t *testing.T) {
	items := groupFixture()
	opts := GroupOptions{GroupBy: GroupTag, SubGroupBy: GroupFile}

	first := shape(groupTodos(items, opts))
	second := shape(groupTodos(items, opts))

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("grouping twice differs (-first +second):\n%s", diff)
	}
}

// reverseShape reverses group order, item order and sub group order
func reverseShape(groups []groupShape) []groupShape {
	var out []groupShape
	for _, g := range slices.Backward(groups) {
		r := groupShape{Label: g.Label, Subs: reverseShape(g.Subs)}
		if g.Items != nil {
			r.Items = slices.Clone(g.Items)
			slices.Reverse(r.Items)
		}
		out = append(out, r)
	}
	return out
}

func TestGroupTodosReverse(t *testing.T) {
	tests := []struct {
		name string
		opts GroupOptions
	}{
		{name: "tag", opts: GroupOptions{GroupBy: GroupTag}},
		{name: "file", opts: GroupOptions{GroupBy: GroupFile}},
		{name: "tag then file", opts: GroupOptions{GroupBy: GroupTag, SubGroupBy: GroupFile}},
		{name: "folder then status", opts: GroupOptions{GroupBy: GroupFolder, SubGroupBy: GroupStatus}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asc := tt.opts
			asc.GroupSort, asc.SubGroupSort, asc.ItemSort = SortAsc, SortAsc, SortAsc
			desc := tt.opts
			desc.GroupSort, desc.SubGroupSort, desc.ItemSort = SortDesc, SortDesc, SortDesc

			want := reverseShape(shape(groupTodos(groupFixture(), asc)))
			got := shape(groupTodos(groupFixture(), desc))

			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("descending is not the reverse of ascending (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGroupTodosEmpty(t *testing.T) {
	if groups := groupTodos(nil, GroupOptions{GroupBy: GroupFile, SubGroupBy: GroupTag}); len(groups) != 0 {
		t.Errorf("groupTodos(nil) = %v, want no groups", groups)
	}
}

func TestGroupTodosDoesNotReorderInput(t *testing.T) {
	items := groupFixture()
	before := shape([]*TodoGroup{{Items: items}})

	groupTodos(items, GroupOptions{GroupBy: GroupNone})

	if diff := cmp.Diff(before, shape([]*TodoGroup{{Items: items}})); diff != "" {
		t.Errorf("input slice was modified (-before +after):\n%s", diff)
	}
}

func TestTodoGroupCount(t *testing.T) {
	g := &TodoGroup{
		Items: []*TodoItem{{}},
		SubGroups: []*TodoGroup{
			{Items: []*TodoItem{{}, {}}},
			{SubGroups: []*TodoGroup{{Items: []*TodoItem{{}}}}},
		},
	}

	if got := g.Count(); got != 4 {
		t.Errorf("Count() = %d, want 4", got)
	}
}

func TestGroupFieldUnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    GroupField
		wantErr bool
	}{
		{in: "file", want: GroupFile},
		{in: "page", want: GroupFile},
		{in: " Folder ", want: GroupFolder},
		{in: "tag", want: GroupTag},
		{in: "subtag", want: GroupSubTag},
		{in: "status", want: GroupStatus},
		{in: "due", want: GroupDue},
		{in: "", want: GroupNone},
		{in: "none", want: GroupNone},
		{in: "priority", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var got GroupField
			err := got.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownGroupField) {
					t.Errorf("UnmarshalText(%q) error = %v, want ErrUnknownGroupField", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("UnmarshalText(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestSortDirectionUnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    SortDirection
		wantErr bool
	}{
		{in: "asc", want: SortAsc},
		{in: "a->z", want: SortAsc},
		{in: "old->new", want: SortAsc},
		{in: "", want: SortAsc},
		{in: "DESC", want: SortDesc},
		{in: "z->a", want: SortDesc},
		{in: "new->old", want: SortDesc},
		{in: "sideways", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var got SortDirection
			err := got.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownSortDirection) {
					t.Errorf("UnmarshalText(%q) error = %v, want ErrUnknownSortDirection", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("UnmarshalText(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}
}
