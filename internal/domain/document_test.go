package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantFM    map[string]any
		wantBody  string
		wantError bool
	}{
		{
			name:     "front matter and body",
			input:    "---\nlayout: article\ntitle: Hello\n---\n\nBody text\n",
			wantFM:   map[string]any{"layout": "article", "title": "Hello"},
			wantBody: "Body text\n",
		},
		{
			name:     "empty front matter",
			input:    "---\n---\n\nJust a body",
			wantFM:   map[string]any{},
			wantBody: "Just a body",
		},
		{
			name:     "no front matter",
			input:    "plain text\n",
			wantFM:   map[string]any{},
			wantBody: "plain text\n",
		},
		{
			name:     "body without separator line",
			input:    "---\ntitle: X\n---\nBody",
			wantFM:   map[string]any{"title": "X"},
			wantBody: "Body",
		},
		{
			name:      "unterminated front matter",
			input:     "---\ntitle: X\nBody",
			wantError: true,
		},
		{
			name:      "invalid yaml",
			input:     "---\ntitle: [x\n---\n\n",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseDocument([]byte(tt.input))
			if tt.wantError {
				assert.ErrorIs(t, err, ErrInvalidDocument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFM, doc.FrontMatter)
			assert.Equal(t, tt.wantBody, doc.Body)
		})
	}
}

func TestDocument_RoundTrip(t *testing.T) {
	input := "---\nlayout: article\norder: 3\ntags:\n    - news\n    - local\ntitle: Hello\n---\n\nFirst paragraph.\n\nSecond paragraph.\n"

	doc, err := ParseDocument([]byte(input))
	require.NoError(t, err)

	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Equal(t, input, string(out))

	again, err := ParseDocument(out)
	require.NoError(t, err)
	assert.Equal(t, doc, again)
}

func TestDocument_BytesSortsKeys(t *testing.T) {
	doc := &Document{
		FrontMatter: map[string]any{"title": "T", "author": "A", "layout": "article"},
		Body:        "b",
	}
	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "---\nauthor: A\nlayout: article\ntitle: T\n---\n\nb", string(out))
}

func TestDocument_Accessors(t *testing.T) {
	doc := NewEntryDocument(KindCategory, "News")
	assert.Equal(t, "News", doc.Title())
	assert.Equal(t, KindCategory, doc.Kind())
	assert.Equal(t, "category", doc.DisplayType())

	plain := &Document{FrontMatter: map[string]any{}}
	assert.Equal(t, "", plain.Title())
	assert.Equal(t, EntryKind(""), plain.Kind())
	assert.Equal(t, "file", plain.DisplayType())
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello World":          "hello-world",
		"  Trim me  ":          "trim-me",
		"Café & Bar":      "caf-bar",
		"Already-slugged":      "already-slugged",
		"Multiple   spaces!!":  "multiple-spaces",
		"2024 Annual Report!":  "2024-annual-report",
		"ééé":   "",
		"--leading and trail-": "leading-and-trail",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, Slugify(in))
		})
	}
}

func TestCleanContentPath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: ""},
		{in: "/", want: ""},
		{in: "news/index.md", want: "news/index.md"},
		{in: "news//a/./index.md", want: "news/a/index.md"},
		{in: "/etc/passwd", wantErr: true},
		{in: "../outside", wantErr: true},
		{in: "a/../../b", wantErr: true},
		{in: ".git/config", wantErr: true},
		{in: "a\\b", wantErr: true},
		{in: TaskMetadataFile, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CleanContentPath(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEntryPaths(t *testing.T) {
	assert.Equal(t, "news/a", EntryDir("news/a/index.md"))
	assert.Equal(t, "news/a", EntryDir("news/a"))
	assert.Equal(t, "news/a/index.md", EntryIndexPath("news/a"))
	assert.Equal(t, "index.md", EntryIndexPath(""))
}
