package markdown

import (
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/ternarybob/itinera/internal/interfaces"
)

// Renderer converts assistant markdown to HTML. A goldmark instance is safe
// for concurrent use, so one renderer serves all surfaces.
type Renderer struct {
	md     goldmark.Markdown
	logger arbor.ILogger
}

// NewRenderer creates the shared markdown renderer.
func NewRenderer(logger arbor.ILogger) interfaces.MarkdownRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.Strikethrough, extension.Linkify),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	return &Renderer{md: md, logger: logger}
}

// Render converts markdown to HTML. On a conversion failure the raw text is
// returned so the transcript never drops content.
func (r *Renderer) Render(markdown string) string {
	var buf strings.Builder
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		r.logger.Warn().Err(err).Msg("Markdown conversion failed, using raw text")
		return markdown
	}
	return buf.String()
}
