package codegen

import (
	"regexp"
	"strings"
)

// fencedBlock matches the first markdown code fence: an opening ``` with an
// optional word-character language tag, a newline, a non-empty body, and a
// closing ``` on its own line. The body is captured lazily so the FIRST
// closing fence ends the match.
var fencedBlock = regexp.MustCompile("```" + `(?:\w+)?\n([\s\S]+?)\n` + "```")

// ExtractCode returns the trimmed body of the first fenced code block in
// content. Prose before and after the block, and any further blocks, are
// discarded. When content has no fenced block it is returned trimmed but
// otherwise verbatim.
func ExtractCode(content string) string {
	content = strings.TrimSpace(content)

	m := fencedBlock.FindStringSubmatch(content)
	if m == nil || m[1] == "" {
		return content
	}
	return strings.TrimSpace(m[1])
}
