package tui

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/microcosm-cc/bluemonday"
)

var contentPolicy = bluemonday.UGCPolicy()

// RenderContent turns entry HTML into markdown for the terminal. Scripts,
// styles and event handlers are stripped before conversion.
func RenderContent(html string) string {
	markdown, err := htmltomarkdown.ConvertString(contentPolicy.Sanitize(html))
	if err != nil {
		markdown = fmt.Sprintf("Error: could not convert html: %v", err)
	}

	return strings.TrimSpace(markdown)
}
