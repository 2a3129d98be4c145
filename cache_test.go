package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIndexCache(t *testing.T) {
	c := NewIndexCache()

	a := []*TodoItem{{Path: "a.md", Line: 1}}
	b := []*TodoItem{{Path: "b.md", Line: 1}, {Path: "b.md", Line: 2}}

	c.Set("b.md", b)
	c.Set("a.md", a)
	c.Set("empty.md", nil)

	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}

	items, ok := c.Get("empty.md")
	if !ok || items == nil || len(items) != 0 {
		t.Errorf("Get(empty.md) = %v, %v; want empty non-nil slice", items, ok)
	}

	if diff := cmp.Diff([]string{"a.md", "b.md", "empty.md"}, c.Paths()); diff != "" {
		t.Errorf("Paths() mismatch (-want +got):\n%s", diff)
	}

	flat := c.Flatten()
	if len(flat) != 3 || flat[0] != a[0] || flat[1] != b[0] || flat[2] != b[1] {
		t.Errorf("Flatten() did not return items in path order")
	}

	if !c.Delete("a.md") {
		t.Error("Delete(a.md) = false, want true")
	}
	if c.Delete("a.md") {
		t.Error("second Delete(a.md) = true, want false")
	}
	if c.Has("a.md") {
		t.Error("Has(a.md) after delete")
	}

	c.Clear()
	if c.Len() != 0 || len(c.Flatten()) != 0 {
		t.Errorf("cache not empty after Clear")
	}
}

func TestIndexCacheSetReplaces(t *testing.T) {
	c := NewIndexCache()

	c.Set("a.md", []*TodoItem{{Line: 1}, {Line: 2}})
	c.Set("a.md", []*TodoItem{{Line: 3}})

	items, _ := c.Get("a.md")
	if len(items) != 1 || items[0].Line != 3 {
		t.Errorf("Get(a.md) = %v, want the replacement", items)
	}
}
