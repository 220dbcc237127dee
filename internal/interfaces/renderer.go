package interfaces

// MarkdownRenderer converts markdown to HTML for transcript entries and
// nearby-places summaries.
type MarkdownRenderer interface {
	Render(markdown string) string
}
