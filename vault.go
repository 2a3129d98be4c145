package main

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Vault is a DocumentSource over the markdown files of a directory.
// Document paths are slash separated and relative to the root.
type Vault struct {
	root string
}

// NewVault creates a vault rooted at dir
func NewVault(dir string) *Vault {
	return &Vault{root: dir}
}

// Root returns the vault directory
func (v *Vault) Root() string {
	return v.root
}

// Documents recursively lists the .md files, skipping hidden directories
func (v *Vault) Documents(ctx context.Context) ([]Document, error) {
	var docs []Document

	err := filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != v.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if !isMarkdown(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			// Removed between listing and stat
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}

		docs = append(docs, Document{Path: v.rel(path), ModTime: info.ModTime()})
		return nil
	})

	return docs, err
}

// Read returns the content of a document
func (v *Vault) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(v.abs(path))
}

func (v *Vault) rel(path string) string {
	if rel, err := filepath.Rel(v.root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

func (v *Vault) abs(path string) string {
	return filepath.Join(v.root, filepath.FromSlash(path))
}

func isMarkdown(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".md")
}
