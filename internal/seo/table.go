package seo

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Metadata is the head content for one page.
type Metadata struct {
	Title         string `yaml:"title" json:"title"`
	Description   string `yaml:"description" json:"description"`
	Keywords      string `yaml:"keywords" json:"keywords"`
	OGTitle       string `yaml:"og_title" json:"ogTitle,omitempty"`
	OGDescription string `yaml:"og_description" json:"ogDescription,omitempty"`
	OGImage       string `yaml:"og_image" json:"ogImage,omitempty"`
	CanonicalPath string `yaml:"canonical_path" json:"canonicalPath"`
}

// Table is the static path -> metadata lookup. It is read-only after load.
type Table struct {
	Default Metadata            `yaml:"default"`
	Pages   map[string]Metadata `yaml:"pages"`
}

// LoadTable reads a YAML table from path.
func LoadTable(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seo table: %w", err)
	}
	return ParseTable(raw)
}

// ParseTable decodes a YAML table and normalizes its keys.
func ParseTable(raw []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse seo table: %w", err)
	}
	if t.Default.Title == "" {
		return nil, fmt.Errorf("parse seo table: default title required")
	}
	pages := make(map[string]Metadata, len(t.Pages))
	for p, m := range t.Pages {
		pages[NormalizePath(p)] = m
	}
	t.Pages = pages
	return &t, nil
}

// Lookup returns the metadata for path, or the default entry for unknown paths.
// CanonicalPath is always filled in.
func (t *Table) Lookup(path string) Metadata {
	p := NormalizePath(path)
	m, ok := t.Pages[p]
	if !ok {
		m = t.Default
		if m.CanonicalPath == "" {
			m.CanonicalPath = "/"
		}
		return m
	}
	if m.CanonicalPath == "" {
		m.CanonicalPath = p
	}
	return m
}

// NormalizePath drops query, fragment and trailing slash: "/lekce/?x=1" -> "/lekce".
func NormalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = "/" + strings.Trim(path, "/")
	return path
}
