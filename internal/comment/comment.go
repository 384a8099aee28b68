// Package comment normalizes block doc comments into plain prose and
// rewrites {@link} / {@see} cross-reference tags as portable markup.
package comment

import "strings"

// Clean strips the block delimiters and per-line markers from a raw doc
// comment, joins the interior lines with single newlines, and converts
// cross-reference tags. Whitespace-only comments clean to "".
//
// The opening delimiter and each interior leading "*" marker shed at
// most one following space; any further leading whitespace survives so
// indented code samples keep their shape. A line without a marker is
// left intact: its leading whitespace is content.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "/**") {
		s = strings.TrimPrefix(s[len("/**"):], " ")
	} else if strings.HasPrefix(s, "/*") {
		s = strings.TrimPrefix(s[len("/*"):], " ")
	}
	s = strings.TrimSuffix(s, "*/")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	out := strings.Trim(strings.Join(lines, "\n"), "\n")
	if strings.TrimSpace(out) == "" {
		return ""
	}
	return convertTags(out)
}

// cleanLine drops the comment frame: leading whitespace followed by a
// single "*" marker and at most one space. Lines carrying no marker keep
// their leading whitespace.
func cleanLine(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(trimmed, "*") {
		line = strings.TrimPrefix(trimmed[1:], " ")
	}
	return strings.TrimRight(line, " \t\r")
}

// convertTags rewrites every {@link target} and {@see target} occurrence,
// each optionally carrying a |label. Only the first pipe separates target
// from label; later pipes belong to the label. An unclosed tag is not an
// error: the remaining literal text is wrapped in inline code instead.
func convertTags(s string) string {
	var b strings.Builder
	for {
		start, keyword := nextTag(s)
		if start < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:start])
		rest := s[start:]

		end := strings.IndexByte(rest, '}')
		eol := strings.IndexByte(rest, '\n')
		if end < 0 || (eol >= 0 && eol < end) {
			// Unclosed before end of line: literal passthrough in inline code.
			stop := len(rest)
			if eol >= 0 {
				stop = eol
			}
			b.WriteString("`" + rest[:stop] + "`")
			s = rest[stop:]
			continue
		}

		inner := strings.TrimSpace(rest[len(keyword):end])
		b.WriteString(renderTag(inner))
		s = rest[end+1:]
	}
}

// nextTag returns the index and keyword of the earliest tag opener, or -1.
// Lookalikes such as {@linkplain} are skipped, not treated as tags.
func nextTag(s string) (int, string) {
	offset := 0
	for {
		start, keyword := -1, ""
		for _, kw := range []string{"{@link", "{@see"} {
			if i := strings.Index(s[offset:], kw); i >= 0 && (start < 0 || offset+i < start) {
				start, keyword = offset+i, kw
			}
		}
		if start < 0 {
			return -1, ""
		}
		if len(s) == start+len(keyword) {
			return start, keyword
		}
		switch s[start+len(keyword)] {
		case ' ', '\t', '}', '\n':
			return start, keyword
		}
		offset = start + 1
	}
}

func renderTag(inner string) string {
	target, label := inner, ""
	if i := strings.IndexByte(inner, '|'); i >= 0 {
		target = strings.TrimSpace(inner[:i])
		label = strings.TrimSpace(inner[i+1:])
	}
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		if label != "" {
			return "[" + label + "](" + target + ")"
		}
		return target
	}
	if label != "" {
		return "`" + label + "`"
	}
	return "`" + target + "`"
}
