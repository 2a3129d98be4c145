package main

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var frontmatterPattern = regexp.MustCompile(`(?s)^---\r?\n(.*?)\r?\n(?:---|\.\.\.)[ \t]*(?:\r?\n|$)`)

// MetadataSource returns the tags attached to a document as a whole
type MetadataSource interface {
	Tags(path string, content []byte) ([]string, error)
}

// FrontmatterTags reads document tags from the YAML frontmatter
type FrontmatterTags struct{}

// frontmatter holds the keys Obsidian treats as document tags. Both keys
// accept a list or a comma/space separated string.
type frontmatter struct {
	Tags any `yaml:"tags"`
	Tag  any `yaml:"tag"`
}

// Tags returns the frontmatter tags without leading hashes
func (FrontmatterTags) Tags(path string, content []byte) ([]string, error) {
	matches := frontmatterPattern.FindSubmatch(content)
	if matches == nil {
		return nil, nil
	}

	var fm frontmatter
	if err := yaml.Unmarshal(matches[1], &fm); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter of %s: %w", path, err)
	}

	tags := tagValues(fm.Tags)
	return append(tags, tagValues(fm.Tag)...), nil
}

func tagValues(value any) []string {
	var raw []string

	switch v := value.(type) {
	case string:
		raw = strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' })
	case []any:
		for _, entry := range v {
			if s, ok := entry.(string); ok {
				raw = append(raw, s)
			}
		}
	}

	var tags []string
	for _, tag := range raw {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		if tag != "" {
			tags = append(tags, tag)
		}
	}

	return tags
}
