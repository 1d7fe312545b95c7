package render

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
)

// Markdown wraps the accumulated poem in a fenced code block so it keeps
// its line breaks and shows in a monospaced font.
func Markdown(block string) string {
	fence := "```"
	for strings.Contains(block, fence) {
		fence += "`"
	}
	if block != "" && !strings.HasSuffix(block, "\n") {
		block += "\n"
	}
	return fence + "\n" + block + fence + "\n"
}

// PoemHTML renders the accumulated poem as one preformatted HTML block
func PoemHTML(block string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(block)), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
