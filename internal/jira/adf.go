package jira

import (
	"strconv"
	"strings"
)

// ADFNode is a minimal Atlassian Document Format node. Only the subset the
// client reads and writes is modeled; unknown node types degrade to their
// children when rendering.
type ADFNode struct {
	Type    string         `json:"type"`
	Version int            `json:"version,omitempty"`
	Text    string         `json:"text,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []ADFNode      `json:"content,omitempty"`
}

// TextToADF converts plain text into a minimal ADF document: one paragraph
// per line, blank lines preserved as empty paragraphs.
func TextToADF(text string) ADFNode {
	lines := strings.Split(text, "\n")
	if text == "" {
		lines = []string{""}
	}

	content := make([]ADFNode, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			content = append(content, ADFNode{Type: "paragraph"})
			continue
		}
		content = append(content, ADFNode{
			Type:    "paragraph",
			Content: []ADFNode{{Type: "text", Text: line}},
		})
	}

	return ADFNode{Type: "doc", Version: 1, Content: content}
}

// ADFToText renders an ADF document as readable plain text: paragraphs and
// headings become lines, ordered/bullet lists keep their numbering, media
// nodes are skipped.
func ADFToText(node ADFNode) string {
	var renderer adfRenderer
	text := renderer.render(node)
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(text)
}

type adfListFrame struct {
	ordered bool
	index   int
}

type adfRenderer struct {
	lists []adfListFrame
}

func (r *adfRenderer) render(node ADFNode) string {
	switch node.Type {
	case "text":
		return node.Text
	case "hardBreak":
		return "\n"
	case "paragraph", "heading":
		var inner strings.Builder
		for _, child := range node.Content {
			inner.WriteString(r.render(child))
		}
		return strings.TrimSpace(inner.String())
	case "orderedList":
		start := 1
		if attr, ok := node.Attrs["order"]; ok {
			if number, ok := attr.(float64); ok {
				start = int(number)
			}
		}
		r.lists = append(r.lists, adfListFrame{ordered: true, index: start})
		items := r.renderItems(node)
		r.lists = r.lists[:len(r.lists)-1]
		return strings.Join(items, "\n")
	case "bulletList":
		r.lists = append(r.lists, adfListFrame{})
		items := r.renderItems(node)
		r.lists = r.lists[:len(r.lists)-1]
		return strings.Join(items, "\n")
	case "listItem":
		return r.renderListItem(node)
	case "media", "mediaSingle":
		return ""
	default:
		return r.renderChildren(node)
	}
}

func (r *adfRenderer) renderItems(node ADFNode) []string {
	items := make([]string, 0, len(node.Content))
	for _, child := range node.Content {
		items = append(items, r.render(child))
	}
	return items
}

func (r *adfRenderer) renderListItem(node ADFNode) string {
	prefix := "- "
	if len(r.lists) > 0 && r.lists[len(r.lists)-1].ordered {
		frame := &r.lists[len(r.lists)-1]
		prefix = strconv.Itoa(frame.index) + ". "
		frame.index++
	}

	parts := make([]string, 0, len(node.Content))
	for _, child := range node.Content {
		if rendered := r.render(child); rendered != "" {
			parts = append(parts, rendered)
		}
	}
	line := strings.TrimSpace(strings.Join(parts, " "))
	if line == "" {
		return strings.TrimSpace(prefix)
	}

	// Nested content keeps only the first line on the bullet; the rest is
	// indented under it.
	if strings.Contains(line, "\n") {
		first, rest, _ := strings.Cut(line, "\n")
		indented := make([]string, 0)
		for _, restLine := range strings.Split(rest, "\n") {
			if trimmed := strings.TrimSpace(restLine); trimmed != "" {
				indented = append(indented, "   "+trimmed)
			}
		}
		if len(indented) == 0 {
			return prefix + strings.TrimSpace(first)
		}
		return prefix + strings.TrimSpace(first) + "\n" + strings.Join(indented, "\n")
	}
	return prefix + line
}

func (r *adfRenderer) renderChildren(node ADFNode) string {
	parts := make([]string, 0, len(node.Content))
	for _, child := range node.Content {
		parts = append(parts, r.render(child))
	}
	return strings.Join(parts, "\n")
}
