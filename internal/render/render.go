package render

import "strings"

// Markdown renders content for the terminal
func Markdown(content string, opts Options) (string, error) {
	r, err := globalPool.get(opts)
	if err != nil {
		return "", err
	}
	defer globalPool.put(opts, r)
	return r.Render(content)
}

// MarkdownWithWidth renders content with default options at width
func MarkdownWithWidth(content string, width int) (string, error) {
	return Markdown(content, DefaultOptions().WithWidth(width))
}

// Message renders a chat message body. Bodies that fail to render are
// shown as plain text; surrounding blank lines are trimmed either way.
func Message(body string, opts Options) string {
	out, err := Markdown(body, opts)
	if err != nil {
		return strings.TrimSpace(body)
	}
	return strings.Trim(out, "\n")
}
