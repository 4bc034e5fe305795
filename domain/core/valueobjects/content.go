package valueobjects

import (
	"strings"
	"unicode/utf8"
)

// NodeContent is the descriptive text of a knowledge item
type NodeContent struct {
	name    string
	body    string
	summary string
}

// NewNodeContent trims surrounding whitespace. Every field may be empty.
func NewNodeContent(name, body, summary string) NodeContent {
	return NodeContent{
		name:    strings.TrimSpace(name),
		body:    strings.TrimSpace(body),
		summary: strings.TrimSpace(summary),
	}
}

// Name returns the item's display name
func (c NodeContent) Name() string {
	return c.name
}

// Body returns the free-form content
func (c NodeContent) Body() string {
	return c.body
}

// Summary returns the short description
func (c NodeContent) Summary() string {
	return c.summary
}

// IsEmpty checks if content is empty
func (c NodeContent) IsEmpty() bool {
	return c.name == "" && c.body == "" && c.summary == ""
}

// WordCount returns the approximate word count of name and body
func (c NodeContent) WordCount() int {
	return len(strings.Fields(c.name + " " + c.body))
}

// Excerpt returns the summary, or the body when no summary exists, cut to maxLength runes
func (c NodeContent) Excerpt(maxLength int) string {
	if maxLength <= 0 {
		return ""
	}

	text := c.summary
	if text == "" {
		text = c.body
	}

	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}
	if maxLength <= 3 {
		return string([]rune(text)[:maxLength])
	}

	runes := []rune(text)
	return string(runes[:maxLength-3]) + "..."
}
