package tui

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// codeTheme highlights fenced code blocks in rendered documents.
const codeTheme = "quire"

// baseCodeTheme is the built-in chroma style codeTheme is derived from.
const baseCodeTheme = "monokai"

func init() {
	styles.Register(newCodeStyle())
}

// newCodeStyle tints the base style with the browser palette.
func newCodeStyle() *chroma.Style {
	style, err := styles.Get(baseCodeTheme).Builder().
		Add(chroma.Keyword, "#A29BFE").
		Add(chroma.NameFunction, "#74B9FF").
		Add(chroma.LiteralString, "#00B894").
		Add(chroma.Comment, "#636E72 italic").
		Add(chroma.GenericHeading, "#6C5CE7 bold").
		Build()
	if err != nil {
		return styles.Fallback
	}
	style.Name = codeTheme
	return style
}
