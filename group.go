package main

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"path"
	"slices"
	"strings"
)

// GroupField names the item attribute groups are keyed by
type GroupField string

const (
	GroupNone   GroupField = "none"
	GroupFile   GroupField = "file"
	GroupFolder GroupField = "folder"
	GroupTag    GroupField = "tag"
	GroupSubTag GroupField = "subtag"
	GroupStatus GroupField = "status"
	GroupDue    GroupField = "due"
)

// SortDirection orders groups and items
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

var (
	ErrUnknownGroupField    = errors.New("unknown group field")
	ErrUnknownSortDirection = errors.New("unknown sort direction")
)

// UnmarshalText accepts the field names plus "page" for file and "" for none
func (f *GroupField) UnmarshalText(text []byte) error {
	switch value := GroupField(strings.ToLower(strings.TrimSpace(string(text)))); value {
	case "", GroupNone:
		*f = GroupNone
	case "page", GroupFile:
		*f = GroupFile
	case GroupFolder, GroupTag, GroupSubTag, GroupStatus, GroupDue:
		*f = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownGroupField, string(text))
	}
	return nil
}

// UnmarshalText accepts asc/desc and the a->z, z->a, old->new, new->old aliases
func (d *SortDirection) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "asc", "a->z", "old->new":
		*d = SortAsc
	case "desc", "z->a", "new->old":
		*d = SortDesc
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSortDirection, string(text))
	}
	return nil
}

// apply flips a comparison result for descending order
func (d SortDirection) apply(c int) int {
	if d == SortDesc {
		return -c
	}
	return c
}

// GroupOptions configures groupTodos
type GroupOptions struct {
	GroupBy      GroupField
	GroupSort    SortDirection
	ItemSort     SortDirection
	SubGroupBy   GroupField // GroupNone disables sub grouping
	SubGroupSort SortDirection
}

// TodoGroup is one bucket of items. When sub grouping is enabled Items is
// empty and every item lives in SubGroups.
type TodoGroup struct {
	Key       string
	Label     string
	Items     []*TodoItem
	SubGroups []*TodoGroup
}

// Count returns the number of items in the group and its subgroups
func (g *TodoGroup) Count() int {
	n := len(g.Items)
	for _, sub := range g.SubGroups {
		n += sub.Count()
	}
	return n
}

// groupKey returns the bucket key and display label of an item
func groupKey(item *TodoItem, field GroupField) (string, string) {
	switch field {
	case GroupFile:
		return item.Path, item.Path
	case GroupFolder:
		dir := path.Dir(item.Path)
		if dir == "." {
			dir = "/"
		}
		return dir, dir
	case GroupTag:
		if item.MainTag == "" {
			return "", "Untagged"
		}
		return item.MainTag, "#" + item.MainTag
	case GroupSubTag:
		if item.SubTag == "" {
			return "", "Other"
		}
		return item.SubTag, item.SubTag
	case GroupStatus:
		if item.Checked {
			return "done", "Done"
		}
		return "todo", "Todo"
	case GroupDue:
		if item.DueDate == nil {
			return "", "No due date"
		}
		date := item.DueDate.Format("2006-01-02")
		return date, date
	default:
		return "", ""
	}
}

// compareItems orders items by path, line and original text
func compareItems(a, b *TodoItem) int {
	return cmp.Or(
		cmp.Compare(a.Path, b.Path),
		cmp.Compare(a.Line, b.Line),
		cmp.Compare(a.OriginalText, b.OriginalText),
	)
}

// sortItems returns a sorted copy (stable sort preserves input order for equal items)
func sortItems(items []*TodoItem, dir SortDirection) []*TodoItem {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b *TodoItem) int {
		return dir.apply(compareItems(a, b))
	})
	return sorted
}

// groupTodos buckets items by opts.GroupBy, sorts groups by key and items
// within each group, and optionally splits each group again by SubGroupBy.
// Empty groups are never returned.
func groupTodos(items []*TodoItem, opts GroupOptions) []*TodoGroup {
	return bucket(items, opts.GroupBy, opts.GroupSort, opts.ItemSort, opts.SubGroupBy, opts.SubGroupSort)
}

func bucket(items []*TodoItem, field GroupField, groupSort, itemSort SortDirection, subField GroupField, subSort SortDirection) []*TodoGroup {
	if len(items) == 0 {
		return nil
	}

	if field == "" {
		field = GroupNone
	}

	buckets := make(map[string]*TodoGroup)

	for _, item := range items {
		key, label := groupKey(item, field)

		group, ok := buckets[key]
		if !ok {
			group = &TodoGroup{Key: key, Label: label}
			buckets[key] = group
		}
		group.Items = append(group.Items, item)
	}

	keys := slices.SortedFunc(maps.Keys(buckets), func(a, b string) int {
		return groupSort.apply(cmp.Compare(a, b))
	})

	groups := make([]*TodoGroup, 0, len(keys))

	for _, key := range keys {
		group := buckets[key]

		if subField != "" && subField != GroupNone {
			group.SubGroups = bucket(group.Items, subField, subSort, itemSort, GroupNone, subSort)
			group.Items = nil
		} else {
			group.Items = sortItems(group.Items, itemSort)
		}

		if group.Count() == 0 {
			continue
		}
		groups = append(groups, group)
	}

	return groups
}
