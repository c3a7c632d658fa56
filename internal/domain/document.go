package domain

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

const (
	frontMatterDelimiter = "---\n"
	// IndexFile is the document file of every article and category directory.
	IndexFile = "index.md"
	// LayoutKey is the front matter key that carries the entry kind.
	LayoutKey = "layout"
	// TitleKey is the front matter key that carries the title.
	TitleKey = "title"
)

// EntryKind is the kind of a content entry, stored as its layout.
type EntryKind string

// Entry kinds.
const (
	KindArticle  EntryKind = "article"
	KindCategory EntryKind = "category"
)

// IsValid reports whether the kind is known.
func (k EntryKind) IsValid() bool {
	return k == KindArticle || k == KindCategory
}

// Document is a content file: a YAML front matter block followed by a body.
//
// Format:
//
//	---
//	<yaml>
//	---
//
//	<body>
type Document struct {
	FrontMatter map[string]any
	Body        string
}

// ParseDocument parses a content document.
// A file without front matter is returned with an empty front matter.
func ParseDocument(data []byte) (*Document, error) {
	content := string(data)
	if !strings.HasPrefix(content, frontMatterDelimiter) {
		return &Document{FrontMatter: map[string]any{}, Body: content}, nil
	}

	rest := content[len(frontMatterDelimiter):]
	var header, body string
	if strings.HasPrefix(rest, frontMatterDelimiter) {
		body = rest[len(frontMatterDelimiter):]
	} else {
		idx := strings.Index(rest, "\n"+frontMatterDelimiter)
		if idx < 0 {
			return nil, fmt.Errorf("missing closing ---: %w", ErrInvalidDocument)
		}
		header = rest[:idx+1]
		body = rest[idx+1+len(frontMatterDelimiter):]
	}
	body = strings.TrimPrefix(body, "\n")

	fm := map[string]any{}
	if strings.TrimSpace(header) != "" {
		if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
			return nil, fmt.Errorf("decode front matter: %w: %w", ErrInvalidDocument, err)
		}
		if fm == nil {
			fm = map[string]any{}
		}
	}
	return &Document{FrontMatter: fm, Body: body}, nil
}

// Bytes encodes the document. Front matter keys are sorted and written one
// per line, so edits to different keys touch different lines.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(frontMatterDelimiter)
	if len(d.FrontMatter) > 0 {
		header, err := yaml.Marshal(d.FrontMatter)
		if err != nil {
			return nil, fmt.Errorf("encode front matter: %w", err)
		}
		buf.Write(header)
	}
	buf.WriteString(frontMatterDelimiter)
	buf.WriteString("\n")
	buf.WriteString(d.Body)
	return buf.Bytes(), nil
}

// Title returns the title from the front matter, or "".
func (d *Document) Title() string {
	if t, ok := d.FrontMatter[TitleKey].(string); ok {
		return t
	}
	return ""
}

// Kind returns the entry kind from the layout, or "" for plain files.
func (d *Document) Kind() EntryKind {
	if l, ok := d.FrontMatter[LayoutKey].(string); ok {
		return EntryKind(l)
	}
	return ""
}

// DisplayType is the type used in edit commits and summaries.
func (d *Document) DisplayType() string {
	if k := d.Kind(); k.IsValid() {
		return string(k)
	}
	return "file"
}

// NewEntryDocument returns the initial document of a new article or category.
func NewEntryDocument(kind EntryKind, title string) *Document {
	return &Document{
		FrontMatter: map[string]any{
			LayoutKey: string(kind),
			TitleKey:  title,
		},
	}
}

// Slugify converts a title into a directory name.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// CleanContentPath normalizes a slash-separated path inside the content tree.
// It rejects absolute paths, escapes from the tree, git internals and the
// task metadata record. The empty path (tree root) is returned as "".
func CleanContentPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" || p == "." || p == "/" {
		return "", nil
	}
	if strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", fmt.Errorf("%q: %w", p, ErrInvalidPath)
	}
	cleaned := path.Clean(p)
	for _, part := range strings.Split(cleaned, "/") {
		if part == ".." || part == ".git" {
			return "", fmt.Errorf("%q: %w", p, ErrInvalidPath)
		}
	}
	if cleaned == TaskMetadataFile {
		return "", fmt.Errorf("%q: %w", p, ErrInvalidPath)
	}
	return cleaned, nil
}

// EntryDir returns the directory of an entry given either the directory or
// its index file.
func EntryDir(p string) string {
	if path.Base(p) == IndexFile {
		return path.Dir(p)
	}
	return p
}

// EntryIndexPath returns the index file of an entry directory.
func EntryIndexPath(dir string) string {
	return path.Join(dir, IndexFile)
}
