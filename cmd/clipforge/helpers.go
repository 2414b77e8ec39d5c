package main

import (
	"fmt"
	"strings"

	"clipforge/internal/textutil"
	"clipforge/internal/workflow"
)

// summarizeContent renders a one-line preview of a step payload, truncated
// to limit runes.
func summarizeContent(content workflow.Content, limit int) string {
	var summary string
	switch content.Kind {
	case workflow.ContentText:
		summary = content.Text
	case workflow.ContentList:
		summary = strings.Join(content.List, "; ")
	case workflow.ContentSelection:
		if content.Selection == nil {
			return ""
		}
		if content.Selection.Chosen != "" {
			summary = content.Selection.Chosen
		} else {
			summary = fmt.Sprintf("%d candidates", len(content.Selection.Alternatives))
		}
	default:
		return ""
	}
	return textutil.Truncate(textutil.CollapseWhitespace(summary), limit)
}
